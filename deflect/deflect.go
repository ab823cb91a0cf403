// Package deflect classifies portal status text against an ordered table of
// bureaucratic deflection patterns.
//
// A pattern carries bilingual (Greek/English) keyword lists, a severity tag
// and a human description. Classification is a pure substring scan over
// accent- and case-insensitive normalized text: the first pattern in table
// order with any matching keyword wins, so more specific or higher-consequence
// patterns must be declared earlier.
package deflect

import "strings"

// Severity is the ordinal urgency tag attached to a classification or alert.
type Severity string

const (
	SeverityCritical Severity = "CRITICAL"
	SeverityHigh     Severity = "HIGH"
	SeverityWatch    Severity = "WATCH"
	SeverityInfo     Severity = "INFO"
)

// Rank returns the ordinal position of s: CRITICAL > HIGH > WATCH > INFO.
// Unknown severities rank below INFO.
func (s Severity) Rank() int {
	switch s {
	case SeverityCritical:
		return 4
	case SeverityHigh:
		return 3
	case SeverityWatch:
		return 2
	case SeverityInfo:
		return 1
	}
	return 0
}

// Pattern is one entry in the ordered deflection table.
type Pattern struct {
	Kind        string   `yaml:"kind" json:"kind"`
	KeywordsEL  []string `yaml:"keywords_el" json:"keywords_el"`
	KeywordsEN  []string `yaml:"keywords_en" json:"keywords_en"`
	Severity    Severity `yaml:"severity" json:"severity"`
	Description string   `yaml:"description" json:"description"`
}

// Match is the result of a successful classification.
type Match struct {
	Kind        string   `json:"kind"`
	Severity    Severity `json:"severity"`
	Description string   `json:"description"`
}

// compiled is a pattern with its keywords pre-normalized.
type compiled struct {
	pattern Pattern
	needles []string
}

// Classifier matches text against a fixed pattern table. Safe for concurrent
// use; all state is built in New.
type Classifier struct {
	patterns []compiled
}

// New compiles a pattern table. Keywords are normalized once here so Classify
// only normalizes the haystack. A keyword that normalizes to the empty string
// is dropped — an empty needle would match every input.
func New(patterns []Pattern) *Classifier {
	c := &Classifier{patterns: make([]compiled, 0, len(patterns))}
	for _, p := range patterns {
		cp := compiled{pattern: p}
		for _, kw := range p.KeywordsEL {
			if n := Normalize(kw); n != "" {
				cp.needles = append(cp.needles, n)
			}
		}
		for _, kw := range p.KeywordsEN {
			if n := Normalize(kw); n != "" {
				cp.needles = append(cp.needles, n)
			}
		}
		c.patterns = append(c.patterns, cp)
	}
	return c
}

// Classify returns the first pattern, in table order, with any keyword present
// in text. Returns nil when no pattern matches. Any input, including the
// empty string, is valid and classification never fails.
func (c *Classifier) Classify(text string) *Match {
	haystack := Normalize(text)
	for _, cp := range c.patterns {
		for _, needle := range cp.needles {
			if strings.Contains(haystack, needle) {
				return &Match{
					Kind:        cp.pattern.Kind,
					Severity:    cp.pattern.Severity,
					Description: cp.pattern.Description,
				}
			}
		}
	}
	return nil
}
