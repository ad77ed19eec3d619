// Package markdown converts the Markdown subset used by entry bodies to HTML.
package markdown

import (
	"bytes"
	"context"
	"html"
	"io"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"github.com/a-h/templ"
)

var (
	reBold             = regexp.MustCompile(`\*\*(.+?)\*\*`)
	reBoldUnderscore   = regexp.MustCompile(`__(.+?)__`)
	reItalic           = regexp.MustCompile(`\*([^*]+)\*`)
	reItalicUnderscore = regexp.MustCompile(`_([^_]+)_`)
	reStrike           = regexp.MustCompile(`~~(.+?)~~`)
	reInlineCode       = regexp.MustCompile("`([^`]+)`")
	reLink             = regexp.MustCompile(`\[(.*?)\]\((.*?)\)`)
	reImg              = regexp.MustCompile(`\!\[(.*?)\]\((.*?)\)`)
	reHeading          = regexp.MustCompile(`^(#{1,6})\s+(.*)$`)
	reOrderedItem      = regexp.MustCompile(`^\d+\.\s`)
	reBulletItem       = regexp.MustCompile(`^[-*+]\s`)
	reRule             = regexp.MustCompile(`^(?:-{3,}|\*{3,}|_{3,})\s*$`)
	reSetextH1         = regexp.MustCompile(`^=+\s*$`)
	reSetextH2         = regexp.MustCompile(`^-+\s*$`)
)

// textEscaper escapes text the way markdown-it does: apostrophes stay
// literal and double quotes become &quot;.
var textEscaper = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	`"`, "&quot;",
)

func escapeText(s string) string {
	return textEscaper.Replace(s)
}

// Markdown returns a templ.Component that renders md as HTML.
func Markdown(md string) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		var buf bytes.Buffer
		RenderMarkdown(&buf, md)
		_, err := w.Write(buf.Bytes())
		return err
	})
}

// ToHTML returns the HTML representation of md.
func ToHTML(md string) string {
	var buf bytes.Buffer
	RenderMarkdown(&buf, md)
	return buf.String()
}

type block int

const (
	blockNone block = iota
	blockPara
	blockList
	blockOrdered
	blockQuote
	blockTable
	blockCode
)

// renderer tracks the open block while md is consumed line by line.
type renderer struct {
	buf         *bytes.Buffer
	open        block
	tableBody   bool
	fenceMarker string
	// paraStart is the buffer offset of the open paragraph and paraLines its
	// source lines, kept so a setext underline can turn it into a heading.
	paraStart int
	paraLines []string
}

// RenderMarkdown writes the HTML representation of md to buf.
func RenderMarkdown(buf *bytes.Buffer, md string) {
	r := &renderer{buf: buf}
	for _, raw := range strings.Split(md, "\n") {
		r.line(strings.TrimRight(raw, "\r"))
	}
	r.close()
}

// close ends the open block, if any.
func (r *renderer) close() {
	switch r.open {
	case blockPara:
		r.buf.WriteString("</p>\n")
	case blockList:
		r.buf.WriteString("</ul>\n")
	case blockOrdered:
		r.buf.WriteString("</ol>\n")
	case blockQuote:
		r.buf.WriteString("</blockquote>\n")
	case blockTable:
		if r.tableBody {
			r.buf.WriteString("</tbody>")
		}
		r.buf.WriteString("</table>\n")
		r.tableBody = false
	case blockCode:
		r.buf.WriteString("</code></pre>\n")
		r.fenceMarker = ""
	}
	r.open = blockNone
	r.paraLines = nil
}

// enter closes the open block unless it already is b, then opens b with tag.
func (r *renderer) enter(b block, tag string) bool {
	if r.open == b {
		return false
	}
	r.close()
	r.open = b
	if b == blockPara {
		r.paraStart = r.buf.Len()
	}
	r.buf.WriteString(tag)
	return true
}

func (r *renderer) line(line string) {
	trimmed := strings.TrimSpace(line)

	if r.open == blockCode {
		if strings.HasPrefix(trimmed, r.fenceMarker) && strings.Trim(trimmed, r.fenceMarker[:1]) == "" {
			r.close()
			return
		}
		r.buf.WriteString(escapeText(line))
		r.buf.WriteString("\n")
		return
	}

	if strings.HasPrefix(trimmed, "```") || strings.HasPrefix(trimmed, "~~~") {
		r.close()
		r.fenceMarker = trimmed[:3]
		lang := strings.TrimSpace(trimmed[3:])
		if lang != "" {
			r.buf.WriteString(`<pre><code class="language-` + escapeText(lang) + `">`)
		} else {
			r.buf.WriteString("<pre><code>")
		}
		r.open = blockCode
		return
	}

	if trimmed == "" {
		r.close()
		return
	}

	switch {
	case r.open == blockPara && reSetextH1.MatchString(trimmed):
		r.setextHeading("1")
	case r.open == blockPara && reSetextH2.MatchString(trimmed):
		r.setextHeading("2")
	case reRule.MatchString(trimmed):
		r.close()
		r.buf.WriteString("<hr />\n")
	case reHeading.MatchString(trimmed):
		m := reHeading.FindStringSubmatch(trimmed)
		level := strconv.Itoa(len(m[1]))
		r.close()
		r.buf.WriteString("<h" + level + ">" + FormatInline(strings.TrimRight(m[2], " #")) + "</h" + level + ">\n")
	case strings.HasPrefix(trimmed, "|"):
		r.tableRow(trimmed)
	case reBulletItem.MatchString(trimmed):
		r.enter(blockList, "<ul>\n")
		r.buf.WriteString("<li>" + FormatInline(strings.TrimSpace(trimmed[2:])) + "</li>\n")
	case reOrderedItem.MatchString(trimmed):
		r.enter(blockOrdered, "<ol>\n")
		item := reOrderedItem.ReplaceAllString(trimmed, "")
		r.buf.WriteString("<li>" + FormatInline(strings.TrimSpace(item)) + "</li>\n")
	case strings.HasPrefix(trimmed, ">"):
		if !r.enter(blockQuote, "<blockquote>\n") {
			r.buf.WriteString("\n")
		}
		r.buf.WriteString(FormatInline(strings.TrimSpace(strings.TrimPrefix(trimmed, ">"))))
	default:
		if !r.enter(blockPara, "<p>") {
			r.buf.WriteString("\n")
		}
		r.paraLines = append(r.paraLines, trimmed)
		r.buf.WriteString(FormatInline(trimmed))
	}
}

// setextHeading rewrites the open paragraph as a heading of the given level.
func (r *renderer) setextHeading(level string) {
	text := strings.Join(r.paraLines, "\n")
	r.buf.Truncate(r.paraStart)
	r.open = blockNone
	r.paraLines = nil
	r.buf.WriteString("<h" + level + ">" + FormatInline(text) + "</h" + level + ">\n")
}

func (r *renderer) tableRow(line string) {
	if r.open != blockTable {
		r.close()
		r.open = blockTable
		r.buf.WriteString("<table><thead><tr>")
		for _, cell := range parseTableCells(line) {
			r.buf.WriteString("<th>" + FormatInline(cell) + "</th>")
		}
		r.buf.WriteString("</tr></thead>")
		return
	}
	if !r.tableBody {
		r.buf.WriteString("<tbody>")
		r.tableBody = true
	}
	if isTableSeparator(line) {
		return
	}
	r.buf.WriteString("<tr>")
	for _, cell := range parseTableCells(line) {
		r.buf.WriteString("<td>" + FormatInline(cell) + "</td>")
	}
	r.buf.WriteString("</tr>")
}

func parseTableCells(line string) []string {
	line = strings.Trim(strings.TrimSpace(line), "|")
	parts := strings.Split(line, "|")
	for i, p := range parts {
		parts[i] = strings.TrimSpace(p)
	}
	return parts
}

func isTableSeparator(line string) bool {
	for _, cell := range parseTableCells(line) {
		if strings.Trim(cell, "-:") != "" {
			return false
		}
	}
	return true
}

// ApplyOutsideTags applies fn only to text segments outside HTML tags,
// so that formatting regexes never touch URLs inside href attributes.
func ApplyOutsideTags(s string, fn func(string) string) string {
	var buf strings.Builder
	for len(s) > 0 {
		lt := strings.Index(s, "<")
		if lt < 0 {
			buf.WriteString(fn(s))
			break
		}
		if lt > 0 {
			buf.WriteString(fn(s[:lt]))
		}
		gt := strings.Index(s[lt:], ">")
		if gt < 0 {
			buf.WriteString(s[lt:])
			break
		}
		buf.WriteString(s[lt : lt+gt+1])
		s = s[lt+gt+1:]
	}
	return buf.String()
}

// FormatInline escapes s and applies inline formatting: images, links, code,
// bold, italic and strikethrough.
func FormatInline(s string) string {
	var code []string
	s = reInlineCode.ReplaceAllStringFunc(s, func(m string) string {
		inner := reInlineCode.FindStringSubmatch(m)[1]
		code = append(code, "<code>"+escapeText(inner)+"</code>")
		return "\x00" + strconv.Itoa(len(code)-1) + "\x00"
	})

	out := escapeText(s)
	out = reImg.ReplaceAllStringFunc(out, func(m string) string {
		match := reImg.FindStringSubmatch(m)
		src := SafeURL(match[2])
		if src == "" {
			return match[1]
		}
		return `<img src="` + src + `" alt="` + match[1] + `" loading="lazy" />`
	})
	out = reLink.ReplaceAllStringFunc(out, func(m string) string {
		match := reLink.FindStringSubmatch(m)
		href := SafeURL(match[2])
		if href == "" {
			return match[1]
		}
		return `<a href="` + href + `">` + match[1] + `</a>`
	})
	out = ApplyOutsideTags(out, func(seg string) string {
		seg = reBold.ReplaceAllString(seg, "<strong>$1</strong>")
		seg = reBoldUnderscore.ReplaceAllString(seg, "<strong>$1</strong>")
		seg = reItalic.ReplaceAllString(seg, "<em>$1</em>")
		seg = reItalicUnderscore.ReplaceAllString(seg, "<em>$1</em>")
		seg = reStrike.ReplaceAllString(seg, "<del>$1</del>")
		return seg
	})
	for i, c := range code {
		out = strings.Replace(out, "\x00"+strconv.Itoa(i)+"\x00", c, 1)
	}
	return out
}

// SafeURL validates and escapes a URL for use in an HTML attribute. Anything
// other than relative, fragment, http(s), mailto and tel URLs is rejected.
func SafeURL(raw string) string {
	val := strings.TrimSpace(html.UnescapeString(raw))
	if val == "" {
		return ""
	}
	if strings.HasPrefix(val, "/") || strings.HasPrefix(val, "#") || strings.HasPrefix(val, "./") {
		return escapeText(val)
	}
	parsed, err := url.Parse(val)
	if err != nil || parsed.Scheme == "" {
		return ""
	}
	switch strings.ToLower(parsed.Scheme) {
	case "http", "https", "mailto", "tel":
		return escapeText(val)
	default:
		return ""
	}
}
