// Package extract pulls display text out of raw portal HTML.
//
// The monitor fingerprints the full raw bytes but stores a short human
// excerpt per snapshot; this package produces that excerpt (visible body
// text, scripts and styles skipped) plus the page title, and strips stray
// markup from scraped metadata fields.
package extract

import (
	"bytes"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// strict strips every tag; used for scraped field cleanup.
var strict = bluemonday.StrictPolicy()

// Page holds what the monitor keeps from a raw HTML document.
type Page struct {
	Title string
	Text  string
}

// Parse extracts the title and visible text from raw HTML. Malformed HTML is
// tolerated (the parser recovers); a parse failure returns the raw input as
// text so the snapshot still carries something classifiable.
func Parse(raw []byte) *Page {
	doc, err := html.Parse(bytes.NewReader(raw))
	if err != nil {
		return &Page{Text: normalizeSpace(string(raw))}
	}
	p := &Page{}
	p.Title = findTitle(doc)
	var sb strings.Builder
	collectText(doc, &sb)
	p.Text = normalizeSpace(sb.String())
	return p
}

// Excerpt truncates s to at most n runes. Rune-aware so Greek text is never
// cut mid-character.
func Excerpt(s string, n int) string {
	if n <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}

// StripMarkup removes any HTML markup from a scraped field (agency, subject,
// response text) and unescapes entities, leaving plain text.
func StripMarkup(s string) string {
	return normalizeSpace(html.UnescapeString(strict.Sanitize(s)))
}

func findTitle(n *html.Node) string {
	if n.Type == html.ElementNode && n.DataAtom == atom.Title {
		var sb strings.Builder
		collectText(n, &sb)
		return normalizeSpace(sb.String())
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if t := findTitle(c); t != "" {
			return t
		}
	}
	return ""
}

func collectText(n *html.Node, sb *strings.Builder) {
	if n.Type == html.ElementNode {
		switch n.DataAtom {
		case atom.Script, atom.Style, atom.Noscript, atom.Head:
			return
		}
	}
	if n.Type == html.TextNode {
		sb.WriteString(n.Data)
		sb.WriteByte(' ')
		return
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		collectText(c, sb)
	}
}

// normalizeSpace collapses whitespace runs to single spaces and trims.
func normalizeSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
