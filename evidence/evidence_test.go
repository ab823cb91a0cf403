package evidence

import (
	"os"
	"strings"
	"testing"
)

func testCapturer(t *testing.T) *Capturer {
	t.Helper()
	seq := 0
	c, err := NewCapturer(t.TempDir(), WithGenerator(func() string {
		seq++
		return string(rune('a' + seq - 1))
	}))
	if err != nil {
		t.Fatalf("NewCapturer: %v", err)
	}
	return c
}

func TestFingerprint_Stable(t *testing.T) {
	// WHAT: Same bytes, same fingerprint; one byte flipped changes it.
	a := Fingerprint([]byte("hello"))
	if a != Fingerprint([]byte("hello")) {
		t.Error("fingerprint not deterministic")
	}
	if a == Fingerprint([]byte("hellp")) {
		t.Error("distinct bytes collided")
	}
	if len(a) != 64 {
		t.Errorf("hex sha256 should be 64 chars, got %d", len(a))
	}
}

func TestSaveHTML_WritesArtifact(t *testing.T) {
	c := testCapturer(t)
	raw := []byte("<html><body>Διαβιβάστηκε</body></html>")
	art, err := c.SaveHTML("214142", raw)
	if err != nil {
		t.Fatalf("SaveHTML: %v", err)
	}
	got, err := os.ReadFile(art.Path)
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	if string(got) != string(raw) {
		t.Error("content mismatch")
	}
	if art.SHA256 != Fingerprint(raw) || art.Size != int64(len(raw)) {
		t.Errorf("artifact metadata wrong: %+v", art)
	}
}

func TestSaveErrorHTML_SeparateLabel(t *testing.T) {
	// WHAT: Failure captures are distinguishable from normal snapshots by name.
	c := testCapturer(t)
	art, err := c.SaveErrorHTML("4633", []byte("<html/>"))
	if err != nil {
		t.Fatalf("SaveErrorHTML: %v", err)
	}
	if !strings.Contains(art.Path, "error_4633") {
		t.Errorf("path missing error label: %s", art.Path)
	}
}

func TestSaveMarkdown(t *testing.T) {
	c := testCapturer(t)
	art, err := c.SaveMarkdown("5534", []byte("<h1>Αίτημα</h1><p>σε <b>εξέταση</b></p>"))
	if err != nil {
		t.Fatalf("SaveMarkdown: %v", err)
	}
	md, err := os.ReadFile(art.Path)
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	if !strings.Contains(string(md), "Αίτημα") || !strings.Contains(string(md), "**εξέταση**") {
		t.Errorf("unexpected markdown: %q", md)
	}
}

func TestSanitize_ProtocolWithSeparators(t *testing.T) {
	// WHY: A protocol label must never escape the evidence directory.
	c := testCapturer(t)
	art, err := c.SaveHTML("../etc/passwd", []byte("x"))
	if err != nil {
		t.Fatalf("SaveHTML: %v", err)
	}
	if strings.Contains(art.Path, "..") || strings.Count(art.Path, "/") != strings.Count(c.dir, "/")+1 {
		t.Errorf("unsafe path: %s", art.Path)
	}
}
