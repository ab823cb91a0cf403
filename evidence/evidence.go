// Package evidence archives what the monitor saw.
//
// Every artifact (screenshot, raw HTML, markdown rendering) is written once
// under a timestamped name and never rewritten; the sha256 of the bytes is
// returned so callers can record it alongside the snapshot.
package evidence

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"

	"github.com/JohannesKaufmann/html-to-markdown/v2/converter"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/base"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/commonmark"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/table"

	"github.com/kypria/zeus/idgen"
)

// Capturer writes evidence artifacts under a base directory.
type Capturer struct {
	dir  string
	gen  idgen.Generator
	conv *converter.Converter
}

// Option configures a Capturer.
type Option func(*Capturer)

// WithGenerator overrides the filename ID generator.
func WithGenerator(gen idgen.Generator) Option {
	return func(c *Capturer) { c.gen = gen }
}

// NewCapturer creates the base directory if needed.
func NewCapturer(dir string, opts ...Option) (*Capturer, error) {
	c := &Capturer{
		dir: dir,
		gen: idgen.Timestamped(idgen.UUIDv7()),
		conv: converter.NewConverter(converter.WithPlugins(
			base.NewBasePlugin(),
			commonmark.NewCommonmarkPlugin(),
			table.NewTablePlugin(),
		)),
	}
	for _, opt := range opts {
		opt(c)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("evidence dir: %w", err)
	}
	return c, nil
}

// Artifact describes one written evidence file.
type Artifact struct {
	Path   string
	SHA256 string
	Size   int64
}

// Fingerprint returns the hex sha256 of b. The monitor uses this over the
// full raw page source, not the truncated excerpt, so cosmetic edits anywhere
// on the page register as change.
func Fingerprint(b []byte) string {
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}

// SaveScreenshot writes PNG bytes for a protocol check.
func (c *Capturer) SaveScreenshot(protocol string, png []byte) (*Artifact, error) {
	return c.save(protocol, "png", png)
}

// SaveHTML writes the raw page source for a protocol check.
func (c *Capturer) SaveHTML(protocol string, raw []byte) (*Artifact, error) {
	return c.save(protocol, "html", raw)
}

// SaveErrorHTML archives the page source captured when a check failed, kept
// apart from normal snapshots for debugging selector drift.
func (c *Capturer) SaveErrorHTML(protocol string, raw []byte) (*Artifact, error) {
	return c.save("error_"+protocol, "html", raw)
}

// SaveMarkdown converts raw HTML to markdown and archives the rendering. A
// conversion failure is an error; the raw HTML artifact is the durable copy.
func (c *Capturer) SaveMarkdown(protocol string, raw []byte) (*Artifact, error) {
	md, err := c.conv.ConvertString(string(raw))
	if err != nil {
		return nil, fmt.Errorf("render markdown: %w", err)
	}
	return c.save(protocol, "md", []byte(md))
}

func (c *Capturer) save(label, ext string, b []byte) (*Artifact, error) {
	name := fmt.Sprintf("%s_%s.%s", sanitize(label), c.gen(), ext)
	path := filepath.Join(c.dir, name)
	if err := os.WriteFile(path, b, 0o644); err != nil {
		return nil, fmt.Errorf("write evidence: %w", err)
	}
	return &Artifact{Path: path, SHA256: Fingerprint(b), Size: int64(len(b))}, nil
}

// sanitize keeps filenames safe when a protocol number contains separators.
func sanitize(s string) string {
	out := make([]rune, 0, len(s))
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			out = append(out, r)
		default:
			out = append(out, '_')
		}
	}
	return string(out)
}
