package almanac

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/eringen/almanac/markdown"
)

// Scene is the display context an excerpt is produced for.
type Scene string

const (
	SceneList Scene = "list"
	SceneMeta Scene = "meta"
	SceneOG   Scene = "og"
	SceneFeed Scene = "feed"
)

type excerptLimit struct {
	cjk   int
	other int
}

var excerptLengths = map[Scene]excerptLimit{
	SceneList: {cjk: 120, other: 240},
	SceneMeta: {cjk: 120, other: 240},
	SceneOG:   {cjk: 70, other: 140},
	SceneFeed: {cjk: 70, other: 140},
}

// Decoded in order, so "&amp;lt;" yields "&lt;".
var htmlEntities = []struct{ entity, char string }{
	{"&lt;", "<"},
	{"&gt;", ">"},
	{"&amp;", "&"},
	{"&quot;", `"`},
	{"&apos;", "'"},
	{"&nbsp;", " "},
}

var cjkLangs = map[string]bool{
	"zh":    true,
	"zh-tw": true,
	"ja":    true,
	"ko":    true,
}

var (
	reHTMLTag          = regexp.MustCompile(`<[^>]*>`)
	reWhitespace       = regexp.MustCompile(`[\s\p{Zs}\x{FEFF}]+`)
	reCJKPunctSpace    = regexp.MustCompile(`([。？！："」』])[\s\p{Zs}\x{FEFF}]+`)
	reTrailingPunct    = regexp.MustCompile(`\p{P}+$`)
	reHTMLComment      = regexp.MustCompile(`(?s)<!--.*?-->`)
	reMarkdownHeading  = regexp.MustCompile(`(?m)^#{1,6}\s+\S.*$`)
	reRepeatedNewlines = regexp.MustCompile(`\n{2,}`)
)

// ExcerptLimit returns the maximum excerpt length, in characters, for lang
// in scene. CJK languages get the shorter limit.
func ExcerptLimit(lang string, scene Scene) int {
	limits, ok := excerptLengths[scene]
	if !ok {
		limits = excerptLengths[SceneList]
	}
	if cjkLangs[lang] {
		return limits.cjk
	}
	return limits.other
}

// Excerpt turns HTML or plain text into a single-line excerpt no longer than
// the scene limit for lang. A truncated excerpt loses its trailing
// punctuation and ends with "...".
func Excerpt(text, lang string, scene Scene) string {
	limit := ExcerptLimit(lang, scene)

	clean := reHTMLTag.ReplaceAllString(text, "")
	for _, e := range htmlEntities {
		clean = strings.ReplaceAll(clean, e.entity, e.char)
	}
	clean = reWhitespace.ReplaceAllString(clean, " ")
	clean = reCJKPunctSpace.ReplaceAllString(clean, "$1")

	if utf8.RuneCountInString(clean) <= limit {
		return strings.TrimSpace(clean)
	}
	excerpt := strings.TrimSpace(string([]rune(clean)[:limit]))
	return reTrailingPunct.ReplaceAllString(excerpt, "") + "..."
}

// ContentDescription returns the description of e for scene. An explicit
// description is returned as written, except in the og scene where it is
// excerpted like generated text. Without one, the excerpt is generated from
// the body with comments and headings removed. Universal entries use
// defaultLocale to pick the length limit.
func ContentDescription(e Entry, scene Scene, defaultLocale string) string {
	lang := e.Lang
	if lang == "" {
		lang = defaultLocale
	}

	if e.Description != "" {
		if scene == SceneOG {
			return Excerpt(e.Description, lang, scene)
		}
		return e.Description
	}

	body := reHTMLComment.ReplaceAllString(e.Body, "")
	body = reMarkdownHeading.ReplaceAllString(body, "")
	body = reRepeatedNewlines.ReplaceAllString(body, "\n\n")

	return Excerpt(markdown.ToHTML(body), lang, scene)
}

// PostDescription returns the description of a post for scene.
func PostDescription(post Entry, scene Scene, defaultLocale string) string {
	return ContentDescription(post, scene, defaultLocale)
}

// WeekDescription returns the description of a week for scene.
func WeekDescription(week Entry, scene Scene, defaultLocale string) string {
	return ContentDescription(week, scene, defaultLocale)
}

// Description returns the description of e for scene using the Library's
// default locale.
func (l *Library) Description(e Entry, scene Scene) string {
	return ContentDescription(e, scene, l.cfg.DefaultLocale)
}
