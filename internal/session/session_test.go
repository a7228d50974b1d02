package session_test

import (
	"context"
	"errors"
	"testing"

	"jobmate/rome-service/internal/model"
	"jobmate/rome-service/internal/session"
)

func TestMemoryStore_EmptyLoad(t *testing.T) {
	s := session.NewMemoryStore()
	if _, err := s.Load(context.Background(), session.Latest); !errors.Is(err, session.ErrNotFound) {
		t.Errorf("Load on empty store error = %v, want ErrNotFound", err)
	}
}

func TestMemoryStore_LastWriteWins(t *testing.T) {
	ctx := context.Background()
	s := session.NewMemoryStore()

	first := &model.Table{ID: "one"}
	second := &model.Table{ID: "two"}
	if err := s.Save(ctx, first); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if err := s.Save(ctx, second); err != nil {
		t.Fatalf("Save: %v", err)
	}

	got, err := s.Load(ctx, session.Latest)
	if err != nil || got != second {
		t.Errorf("Load(latest) = %v, %v; want second batch", got, err)
	}
	if got, err := s.Load(ctx, "two"); err != nil || got != second {
		t.Errorf("Load(two) = %v, %v; want second batch", got, err)
	}
	if _, err := s.Load(ctx, "one"); !errors.Is(err, session.ErrNotFound) {
		t.Errorf("Load(one) error = %v, want ErrNotFound after overwrite", err)
	}
}
