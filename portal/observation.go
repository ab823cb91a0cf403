package portal

import (
	"github.com/kypria/zeus/extract"
	"github.com/kypria/zeus/monitor"
)

// BuildObservation turns a captured page into the monitor's observation.
// rowText, when non-empty, is the text of the element mentioning the
// protocol; it becomes the scoped response text while classification and
// fingerprinting always run over the whole page.
func BuildObservation(raw []byte, rowText string) *monitor.Observation {
	p := extract.Parse(raw)
	return &monitor.Observation{
		RawHTML:      raw,
		Text:         p.Text,
		Subject:      p.Title,
		ResponseText: rowText,
	}
}
