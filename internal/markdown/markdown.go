// Package markdown renders admin-authored markdown (blog posts, project
// descriptions, the about text) into sanitized HTML.
package markdown

import (
	"bytes"
	"html"
	"html/template"
	"strings"
	"unicode/utf8"

	"github.com/microcosm-cc/bluemonday"
	bf "github.com/russross/blackfriday"
)

const wordsPerMinute = 200

const extensions = bf.EXTENSION_NO_INTRA_EMPHASIS |
	bf.EXTENSION_TABLES |
	bf.EXTENSION_FENCED_CODE |
	bf.EXTENSION_AUTOLINK |
	bf.EXTENSION_STRIKETHROUGH |
	bf.EXTENSION_SPACE_HEADERS |
	bf.EXTENSION_HEADER_IDS

const htmlFlags = bf.HTML_USE_XHTML |
	bf.HTML_USE_SMARTYPANTS |
	bf.HTML_SMARTYPANTS_FRACTIONS |
	bf.HTML_SMARTYPANTS_LATEX_DASHES

var (
	ugc    = bluemonday.UGCPolicy()
	strict = bluemonday.StrictPolicy()
)

// imageAltTitleCopy fills a missing image title from its alt text and vice
// versa.
type imageAltTitleCopy struct {
	bf.Renderer
}

func (r imageAltTitleCopy) Image(out *bytes.Buffer, link []byte, title []byte, alt []byte) {
	if len(title) == 0 {
		title = alt
	}
	if len(alt) == 0 {
		alt = title
	}
	r.Renderer.Image(out, link, title, alt)
}

func renderHTML(src string) []byte {
	renderer := imageAltTitleCopy{bf.HtmlRenderer(htmlFlags, "", "")}
	return bf.Markdown([]byte(src), renderer, extensions)
}

// Render converts markdown to sanitized HTML safe to embed in templates.
func Render(src string) template.HTML {
	if strings.TrimSpace(src) == "" {
		return ""
	}
	return template.HTML(ugc.SanitizeBytes(renderHTML(src)))
}

// PlainText renders src and strips all markup.
func PlainText(src string) string {
	text := html.UnescapeString(strict.Sanitize(string(renderHTML(src))))
	return strings.Join(strings.Fields(text), " ")
}

// Excerpt returns at most n runes of the plain text, cut at a word boundary.
func Excerpt(src string, n int) string {
	text := PlainText(src)
	if n <= 0 || utf8.RuneCountInString(text) <= n {
		return text
	}
	runes := []rune(text)
	cut := string(runes[:n])
	if i := strings.LastIndex(cut, " "); i > 0 {
		cut = cut[:i]
	}
	return strings.TrimRight(cut, " ,.;:") + "…"
}

// ReadingTime estimates minutes to read src, never less than one.
func ReadingTime(src string) int {
	words := len(strings.Fields(PlainText(src)))
	minutes := (words + wordsPerMinute - 1) / wordsPerMinute
	if minutes < 1 {
		return 1
	}
	return minutes
}
