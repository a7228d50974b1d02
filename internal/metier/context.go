package metier

import (
	"strings"

	"jobmate/rome-service/internal/flatten"
)

// Context categories used by the ROME 4.0 API.
const (
	CategoryConditions = "CONDITIONS_TRAVAIL"
	CategorySchedule   = "HORAIRE_ET_DUREE_TRAVAIL"
)

// DefaultContextField is the response key holding the context entries.
const DefaultContextField = "contextesTravail"

const (
	categoryKey = "categorie"
	labelKey    = "libelle"
)

// ContextEntry is one (category, label) pair from a record's context list.
type ContextEntry struct {
	Category string `json:"categorie"`
	Label    string `json:"libelle"`
}

// ContextEntries returns the record's context list in source order.
// The field is looked up case-insensitively, as the API's field selector is
// lower-case while the payload is camel-case.
func ContextEntries(rec *flatten.Node, field string) []ContextEntry {
	list := rec.GetFold(field)
	if list == nil || list.Kind != flatten.Sequence {
		return nil
	}
	entries := make([]ContextEntry, 0, len(list.Items))
	for _, item := range list.Items {
		if item == nil || item.Kind != flatten.Mapping {
			continue
		}
		entries = append(entries, ContextEntry{
			Category: item.Get(categoryKey).Text(),
			Label:    item.Get(labelKey).Text(),
		})
	}
	return entries
}

// ExtractCategory returns the trimmed, non-empty labels whose category equals
// category exactly. Order and duplicates follow the source list. A record
// without the field yields an empty slice.
func ExtractCategory(rec *flatten.Node, field, category string) []string {
	labels := make([]string, 0)
	for _, e := range ContextEntries(rec, field) {
		if e.Category != category {
			continue
		}
		label := strings.TrimSpace(e.Label)
		if label == "" {
			continue
		}
		labels = append(labels, label)
	}
	return labels
}
