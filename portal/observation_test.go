package portal

import (
	"strings"
	"testing"
)

func TestBuildObservation(t *testing.T) {
	// WHAT: The observation carries the full raw bytes for fingerprinting,
	// the visible text for classification, and the scoped row text.
	raw := []byte(`<html><head><title>Τα Μηνύματά μου</title></head>
		<body><script>x()</script><tr>214142 — διαβιβάστηκε</tr></body></html>`)
	obs := BuildObservation(raw, "214142 — διαβιβάστηκε")

	if string(obs.RawHTML) != string(raw) {
		t.Error("raw bytes must pass through untouched")
	}
	if obs.Subject != "Τα Μηνύματά μου" {
		t.Errorf("subject = %q", obs.Subject)
	}
	if strings.Contains(obs.Text, "x()") {
		t.Errorf("script leaked into text: %q", obs.Text)
	}
	if !strings.Contains(obs.Text, "διαβιβάστηκε") {
		t.Errorf("visible text missing: %q", obs.Text)
	}
	if obs.ResponseText == "" {
		t.Error("row text lost")
	}
}
