package extract

import (
	"strings"
	"testing"
)

func TestParse_TitleAndText(t *testing.T) {
	// WHAT: Title and visible body text are extracted; script/style skipped.
	raw := []byte(`<html><head><title>MyAADE — Τα Μηνύματά μου</title>
		<style>body{color:red}</style></head>
		<body><script>var x=1;</script>
		<p>Το αίτημά σας  διαβιβάστηκε</p><div>στην αρμόδια υπηρεσία</div></body></html>`)
	p := Parse(raw)
	if p.Title != "MyAADE — Τα Μηνύματά μου" {
		t.Errorf("title = %q", p.Title)
	}
	if strings.Contains(p.Text, "var x=1") || strings.Contains(p.Text, "color:red") {
		t.Errorf("script/style leaked into text: %q", p.Text)
	}
	if !strings.Contains(p.Text, "διαβιβάστηκε") || !strings.Contains(p.Text, "αρμόδια υπηρεσία") {
		t.Errorf("body text missing: %q", p.Text)
	}
}

func TestParse_CollapsesWhitespace(t *testing.T) {
	p := Parse([]byte("<body><p>a\n\n   b</p>\t<p>c</p></body>"))
	if p.Text != "a b c" {
		t.Errorf("got %q, want %q", p.Text, "a b c")
	}
}

func TestExcerpt_RuneAware(t *testing.T) {
	// WHAT: Truncation counts runes, not bytes.
	// WHY: Greek text is two bytes per letter; byte truncation would split
	// characters.
	s := strings.Repeat("δ", 600)
	got := Excerpt(s, 500)
	if len([]rune(got)) != 500 {
		t.Errorf("got %d runes, want 500", len([]rune(got)))
	}
	if Excerpt("short", 500) != "short" {
		t.Error("short strings must pass through")
	}
	if Excerpt("x", 0) != "" {
		t.Error("n<=0 yields empty")
	}
}

func TestStripMarkup(t *testing.T) {
	// WHAT: Scraped fields lose markup but keep their text, entities decoded.
	got := StripMarkup(`<b>ΑΑΔΕ</b> &amp; <script>alert(1)</script>ΔΟΥ`)
	if strings.Contains(got, "<") || strings.Contains(got, "script") {
		t.Errorf("markup survived: %q", got)
	}
	if !strings.Contains(got, "ΑΑΔΕ") || !strings.Contains(got, "&") || !strings.Contains(got, "ΔΟΥ") {
		t.Errorf("text lost: %q", got)
	}
}
