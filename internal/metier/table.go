package metier

import (
	"errors"
	"strings"
	"time"

	"jobmate/rome-service/internal/flatten"
	"jobmate/rome-service/internal/model"
)

// Leading columns of every table, in this order.
const (
	ColumnCode       = "code"
	ColumnLabel      = "libelle"
	ColumnHazard     = "risque_penibilite"
	ColumnConditions = "conditions_travail"
	ColumnSchedule   = "horaires_travail"
)

// DefaultJoinSeparator joins context labels into one cell.
const DefaultJoinSeparator = " | "

// Options configures row assembly. Zero values fall back to the defaults.
type Options struct {
	Separator          string
	ContextField       string
	ConditionsCategory string
	ScheduleCategory   string
	JoinSeparator      string
	// Keywords nil means DefaultKeywords; an empty non-nil slice disables matching.
	Keywords []string
	// Plain drops the derived flag and the joined context columns.
	Plain bool
}

func (o Options) withDefaults() Options {
	if o.Separator == "" {
		o.Separator = flatten.DefaultSeparator
	}
	if o.ContextField == "" {
		o.ContextField = DefaultContextField
	}
	if o.ConditionsCategory == "" {
		o.ConditionsCategory = CategoryConditions
	}
	if o.ScheduleCategory == "" {
		o.ScheduleCategory = CategorySchedule
	}
	if o.JoinSeparator == "" {
		o.JoinSeparator = DefaultJoinSeparator
	}
	if o.Keywords == nil {
		o.Keywords = DefaultKeywords
	}
	return o
}

// Assembler turns upstream results into rows and tables.
type Assembler struct {
	opts       Options
	classifier *Classifier
}

// NewAssembler returns an Assembler for opts.
func NewAssembler(opts Options) *Assembler {
	opts = opts.withDefaults()
	return &Assembler{opts: opts, classifier: NewClassifier(opts.Keywords)}
}

// Options returns the effective options.
func (a *Assembler) Options() Options { return a.opts }

// Prefix returns the fixed leading columns.
func (a *Assembler) Prefix() []string {
	if a.opts.Plain {
		return []string{ColumnCode, ColumnLabel}
	}
	return []string{ColumnCode, ColumnLabel, ColumnHazard, ColumnConditions, ColumnSchedule}
}

// Row flattens rec and merges the derived columns in front of it.
// code fills the identifier column when the record lacks one.
func (a *Assembler) Row(code string, rec *flatten.Node) *flatten.Row {
	flat := flatten.Flatten(rec, a.opts.Separator)

	row := flatten.NewRow()
	if v, ok := flat.Get(ColumnCode); ok {
		row.Set(ColumnCode, v)
	} else {
		row.Set(ColumnCode, code)
	}
	if v, ok := flat.Get(ColumnLabel); ok {
		row.Set(ColumnLabel, v)
	}

	if !a.opts.Plain {
		conditions := strings.Join(ExtractCategory(rec, a.opts.ContextField, a.opts.ConditionsCategory), a.opts.JoinSeparator)
		schedule := strings.Join(ExtractCategory(rec, a.opts.ContextField, a.opts.ScheduleCategory), a.opts.JoinSeparator)
		row.Set(ColumnHazard, a.classifier.Match(conditions, schedule))
		row.Set(ColumnConditions, conditions)
		row.Set(ColumnSchedule, schedule)
	}

	for _, k := range flat.Keys() {
		if row.Has(k) {
			continue
		}
		v, _ := flat.Get(k)
		row.Set(k, v)
	}
	return row
}

var errEmptyRecord = errors.New("empty record")

// Assemble builds the table for a batch. Every result yields a status;
// only successful ones yield a row. Columns are the fixed prefix followed by
// every other flattened column in first-seen order across the batch.
func (a *Assembler) Assemble(results []model.Result) *model.Table {
	prefix := a.Prefix()
	seen := make(map[string]struct{}, len(prefix))
	for _, c := range prefix {
		seen[c] = struct{}{}
	}

	t := &model.Table{
		CreatedAt: time.Now().UTC(),
		Rows:      make([]map[string]any, 0, len(results)),
		Statuses:  make([]model.Status, 0, len(results)),
	}
	var rest []string

	for _, res := range results {
		st := model.Status{Code: res.Code}
		err := res.Err
		if err == nil && res.Record == nil {
			err = errEmptyRecord
		}
		if err != nil {
			st.Error = err.Error()
			var se interface{ StatusCode() int }
			if errors.As(err, &se) {
				st.UpstreamStatus = se.StatusCode()
			}
			t.Statuses = append(t.Statuses, st)
			continue
		}

		row := a.Row(res.Code, res.Record)
		for _, k := range row.Keys() {
			if _, ok := seen[k]; !ok {
				seen[k] = struct{}{}
				rest = append(rest, k)
			}
		}
		if v, ok := row.Get(ColumnLabel); ok {
			st.Libelle = flatten.ScalarText(v)
		}
		st.OK = true
		t.Rows = append(t.Rows, row.Map())
		t.Statuses = append(t.Statuses, st)
	}

	t.Columns = append(append(make([]string, 0, len(prefix)+len(rest)), prefix...), rest...)
	return t
}
