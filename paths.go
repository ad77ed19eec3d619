package almanac

import (
	"net/url"
	"path"
	"strings"
	"unicode"
)

// Paths builds site-relative URL paths under an optional base path such as
// "/blog".
type Paths struct {
	Base string
}

func (p Paths) withBase(rel string) string {
	if p.Base != "" {
		return p.Base + rel
	}
	return rel
}

// TagPath returns the path of the page listing tag.
func (p Paths) TagPath(tag string) string {
	return p.withBase("/tags/" + tag + "/")
}

// PostPath returns the path of the post with slug.
func (p Paths) PostPath(slug string) string {
	return p.withBase("/posts/" + slug + "/")
}

// WeekPath returns the path of the week with slug.
func (p Paths) WeekPath(slug string) string {
	return p.withBase("/weeks/" + slug + "/")
}

// EntryPath returns the post or week path of e.
func (p Paths) EntryPath(e Entry) string {
	if e.Collection == Weeks {
		return p.WeekPath(e.Slug())
	}
	return p.PostPath(e.Slug())
}

// LocalizedPath normalizes target to "/" or "/<target>/" under the base path.
func (p Paths) LocalizedPath(target string) string {
	normalized := trimSlashes(target)
	if normalized == "" {
		return p.withBase("/")
	}
	return p.withBase("/" + normalized + "/")
}

// trimSlashes removes at most one leading and one trailing slash.
func trimSlashes(s string) string {
	s = strings.TrimPrefix(s, "/")
	return strings.TrimSuffix(s, "/")
}

func (p Paths) isPageType(pagePath, prefix string) bool {
	if p.Base != "" && strings.HasPrefix(pagePath, p.Base) {
		pagePath = pagePath[len(p.Base):]
	}
	normalized := trimSlashes(pagePath)
	if prefix == "" {
		return normalized == ""
	}
	return strings.HasPrefix(normalized, prefix)
}

// IsHomePage reports whether pagePath is the site root.
func (p Paths) IsHomePage(pagePath string) bool { return p.isPageType(pagePath, "") }

// IsPostPage reports whether pagePath is under /posts.
func (p Paths) IsPostPage(pagePath string) bool { return p.isPageType(pagePath, "posts") }

// IsTagPage reports whether pagePath is under /tags.
func (p Paths) IsTagPage(pagePath string) bool { return p.isPageType(pagePath, "tags") }

// IsAboutPage reports whether pagePath is under /about.
func (p Paths) IsAboutPage(pagePath string) bool { return p.isPageType(pagePath, "about") }

// IsWeeksPage reports whether pagePath is under /weeks.
func (p Paths) IsWeeksPage(pagePath string) bool { return p.isPageType(pagePath, "weeks") }

// PageInfo classifies a request path.
type PageInfo struct {
	IsHome  bool
	IsPost  bool
	IsTag   bool
	IsAbout bool
	IsWeeks bool

	paths Paths
}

// Localize returns the localized form of target.
func (i PageInfo) Localize(target string) string {
	return i.paths.LocalizedPath(target)
}

// PageInfo returns the page classification of pagePath.
func (p Paths) PageInfo(pagePath string) PageInfo {
	return PageInfo{
		IsHome:  p.IsHomePage(pagePath),
		IsPost:  p.IsPostPage(pagePath),
		IsTag:   p.IsTagPage(pagePath),
		IsAbout: p.IsAboutPage(pagePath),
		IsWeeks: p.IsWeeksPage(pagePath),
		paths:   p,
	}
}

// BuildURL joins a base URL with a site path, keeping its trailing slash.
func BuildURL(base, sitePath string) string {
	u, err := url.Parse(base)
	if err != nil {
		return base + sitePath
	}
	joined := path.Join(u.Path, sitePath)
	if strings.HasSuffix(sitePath, "/") && !strings.HasSuffix(joined, "/") {
		joined += "/"
	}
	u.Path = joined
	return u.String()
}

// Slugify lower-cases s and collapses every run of characters other than
// letters and digits into a single hyphen. Letters outside ASCII are kept.
func Slugify(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	var b strings.Builder
	prev := false
	for _, r := range s {
		switch {
		case unicode.IsLetter(r), unicode.IsDigit(r):
			b.WriteRune(r)
			prev = false
		default:
			if !prev && b.Len() > 0 {
				b.WriteByte('-')
				prev = true
			}
		}
	}
	return strings.TrimRight(b.String(), "-")
}
