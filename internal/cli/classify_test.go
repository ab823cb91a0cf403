package cli

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
)

func runClassify(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := NewRootCommand()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(append([]string{"classify"}, args...))
	err := root.Execute()
	return out.String(), err
}

func TestClassify_DeflectionExitsNonZero(t *testing.T) {
	// WHAT: Deflection text prints the match and returns an error so shell
	// pipelines can branch on the exit code.
	out, err := runClassify(t, "Το αίτημά σας διαβιβάστηκε στην αρμόδια υπηρεσία")
	if err == nil {
		t.Fatal("expected non-nil error for deflection text")
	}
	var match map[string]any
	if jerr := json.Unmarshal([]byte(out[:strings.Index(out, "}")+1]), &match); jerr != nil {
		t.Fatalf("output not JSON: %q", out)
	}
	if match["kind"] != "forwarded" || match["severity"] != "HIGH" {
		t.Errorf("match = %v", match)
	}
}

func TestClassify_BenignTextSucceeds(t *testing.T) {
	out, err := runClassify(t, "Το αίτημά σας καταχωρήθηκε")
	if err != nil {
		t.Fatalf("benign text should exit zero: %v", err)
	}
	if !strings.Contains(out, "null") {
		t.Errorf("output = %q", out)
	}
}
