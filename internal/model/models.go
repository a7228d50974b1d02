// Package model defines shared data structures for the ROME export service.
package model

import (
	"time"

	"jobmate/rome-service/internal/flatten"
)

// Result is the upstream outcome for one occupation code: either a parsed
// record (with its raw payload) or the error that prevented fetching it.
type Result struct {
	Code   string
	Record *flatten.Node
	Raw    []byte
	Err    error
}

// Status reports what happened to one requested code in a batch.
type Status struct {
	Code           string `json:"code"`
	OK             bool   `json:"ok"`
	Libelle        string `json:"libelle,omitempty"`
	Error          string `json:"error,omitempty"`
	UpstreamStatus int    `json:"upstreamStatus,omitempty"`
}

// Table is the assembled, sparse result of a lookup batch.
// Columns fixes the order; a row may omit any column.
// It is serialised to JSON for the session cache.
type Table struct {
	ID        string           `json:"id,omitempty"`
	CreatedAt time.Time        `json:"createdAt"`
	Columns   []string         `json:"columns"`
	Rows      []map[string]any `json:"rows"`
	Statuses  []Status         `json:"statuses"`
}

// Succeeded counts the statuses marked OK.
func (t *Table) Succeeded() int {
	n := 0
	for _, s := range t.Statuses {
		if s.OK {
			n++
		}
	}
	return n
}
