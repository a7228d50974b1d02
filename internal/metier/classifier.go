// Package metier derives the export columns of a ROME occupation record:
// category-filtered context labels, the arduousness flag, and the assembled
// table.
package metier

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"
)

// DefaultKeywords lists workplace-hazard and schedule-hazard phrases.
// Any match in the condition or schedule text flags the occupation.
var DefaultKeywords = []string{
	"risques de chutes",
	"travail en hauteur",
	"port de charges",
	"manutention",
	"station debout prolongée",
	"gestes répétitifs",
	"postures contraignantes",
	"exposition au bruit",
	"vibrations",
	"températures extrêmes",
	"travail en extérieur",
	"intempéries",
	"produits chimiques",
	"agents biologiques",
	"rayonnements",
	"travail de nuit",
	"horaires décalés",
	"travail posté",
	"travail en équipe alternante",
	"travail le week-end",
	"travail le dimanche",
	"travail les jours fériés",
	"astreintes",
}

// Classifier matches text against a keyword vocabulary.
type Classifier struct {
	keywords []string
}

// NewClassifier lower-cases and trims the vocabulary once. Blank entries
// are dropped.
func NewClassifier(keywords []string) *Classifier {
	kws := make([]string, 0, len(keywords))
	for _, kw := range keywords {
		kw = fold(strings.TrimSpace(kw))
		if kw != "" {
			kws = append(kws, kw)
		}
	}
	return &Classifier{keywords: kws}
}

// Keywords returns the normalised vocabulary.
func (c *Classifier) Keywords() []string {
	out := make([]string, len(c.keywords))
	copy(out, c.keywords)
	return out
}

// Match returns true if any keyword appears (case-insensitive) anywhere in
// conditions + " " + schedule.
func (c *Classifier) Match(conditions, schedule string) bool {
	if c == nil || len(c.keywords) == 0 {
		return false
	}
	combined := fold(conditions + " " + schedule)
	for _, kw := range c.keywords {
		if strings.Contains(combined, kw) {
			return true
		}
	}
	return false
}

// ContainsKeyword is the one-shot form of Match over a single text.
func ContainsKeyword(text string, keywords []string) bool {
	if len(keywords) == 0 {
		return false
	}
	return NewClassifier(keywords).Match(text, "")
}

// fold composes to NFC and lower-cases with French rules, so decomposed
// accents match precomposed ones. A Caser holds state, so one is built per
// call.
func fold(s string) string {
	return cases.Lower(language.French).String(norm.NFC.String(s))
}
