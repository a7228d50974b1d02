// Package lookup runs single and batch occupation lookups: fetch, parse,
// archive, assemble, and remember the last batch.
package lookup

import (
	"context"
	"fmt"
	"log"
	"log/slog"

	"github.com/google/uuid"

	"jobmate/rome-service/internal/flatten"
	"jobmate/rome-service/internal/metier"
	"jobmate/rome-service/internal/model"
	"jobmate/rome-service/internal/session"
)

// RecordSource returns the raw JSON payload for one occupation code.
type RecordSource interface {
	FetchMetier(ctx context.Context, code string) ([]byte, error)
}

// Archiver stores raw payloads. Implemented by archive.Store.
type Archiver interface {
	SaveSnapshot(ctx context.Context, code, libelle string, raw []byte) (bool, error)
}

// Service wires the upstream source to the assembler.
// archive and sessions may be nil.
type Service struct {
	source   RecordSource
	archive  Archiver
	sessions session.Store
	asm      *metier.Assembler
}

// NewService returns a configured Service.
func NewService(source RecordSource, archive Archiver, sessions session.Store, asm *metier.Assembler) *Service {
	return &Service{source: source, archive: archive, sessions: sessions, asm: asm}
}

// Metier is the outcome of a single lookup.
type Metier struct {
	Code    string        `json:"code"`
	Libelle string        `json:"libelle"`
	Raw     *flatten.Node `json:"raw"`
	Row     *flatten.Row  `json:"row"`
	Table   *model.Table  `json:"-"`
}

// Lookup fetches and assembles one code. Unlike Batch, an upstream failure is
// returned as an error.
func (s *Service) Lookup(ctx context.Context, rawCode string) (*Metier, error) {
	code, err := metier.ParseCode(rawCode)
	if err != nil {
		return nil, err
	}

	res := s.fetch(ctx, code)
	if res.Err != nil {
		return nil, res.Err
	}

	table := s.asm.Assemble([]model.Result{res})
	m := &Metier{
		Code:  code,
		Raw:   res.Record,
		Row:   s.asm.Row(code, res.Record),
		Table: table,
	}
	if len(table.Statuses) > 0 {
		m.Libelle = table.Statuses[0].Libelle
	}
	return m, nil
}

// Batch looks codes up one after the other. Invalid or failing codes are
// reported in the table statuses and never abort the batch. The table is
// saved as the latest session batch.
func (s *Service) Batch(ctx context.Context, codes []string) (*model.Table, error) {
	table := s.run(ctx, "Batch", codes)
	if s.sessions != nil {
		if err := s.sessions.Save(ctx, table); err != nil {
			slog.Warn("saving batch session failed", "batchId", table.ID, "err", err)
		}
	}
	return table, nil
}

// Refresh is Batch without the session: it re-fetches (and so re-archives)
// codes without replacing the user's latest batch.
func (s *Service) Refresh(ctx context.Context, codes []string) (*model.Table, error) {
	return s.run(ctx, "Refresh", codes), nil
}

func (s *Service) run(ctx context.Context, op string, codes []string) *model.Table {
	codes = metier.NormalizeCodes(codes)
	log.Printf("[lookup] %s started: %d code(s)", op, len(codes))

	results := make([]model.Result, 0, len(codes))
	for _, raw := range codes {
		if ctx.Err() != nil {
			results = append(results, model.Result{Code: raw, Err: ctx.Err()})
			continue
		}
		code, err := metier.ParseCode(raw)
		if err != nil {
			results = append(results, model.Result{Code: raw, Err: err})
			continue
		}
		res := s.fetch(ctx, code)
		if res.Err != nil {
			log.Printf("[lookup] %s failed: %v — continuing", code, res.Err)
		}
		results = append(results, res)
	}

	table := s.asm.Assemble(results)
	table.ID = uuid.NewString()

	log.Printf("[lookup] %s %s done — ok=%d failed=%d",
		op, table.ID, table.Succeeded(), len(table.Statuses)-table.Succeeded())
	return table
}

// Session returns a previously saved batch (id may be session.Latest).
func (s *Service) Session(ctx context.Context, id string) (*model.Table, error) {
	if s.sessions == nil {
		return nil, session.ErrNotFound
	}
	return s.sessions.Load(ctx, id)
}

func (s *Service) fetch(ctx context.Context, code string) model.Result {
	raw, err := s.source.FetchMetier(ctx, code)
	if err != nil {
		return model.Result{Code: code, Err: fmt.Errorf("fetch %s: %w", code, err)}
	}
	rec, err := flatten.Parse(raw)
	if err != nil {
		return model.Result{Code: code, Err: fmt.Errorf("parse %s: %w", code, err)}
	}

	if s.archive != nil {
		libelle := rec.Get(metier.ColumnLabel).Text()
		if _, err := s.archive.SaveSnapshot(ctx, code, libelle, raw); err != nil {
			slog.Warn("archiving snapshot failed", "code", code, "err", err)
		}
	}

	return model.Result{Code: code, Record: rec, Raw: raw}
}
