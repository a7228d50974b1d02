package archive_test

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"jobmate/rome-service/internal/archive"
)

func TestContentHash_Stable(t *testing.T) {
	a := archive.ContentHash([]byte(`{"code":"A1413"}`))
	b := archive.ContentHash([]byte(`{"code":"A1413"}`))
	if a != b {
		t.Errorf("ContentHash not deterministic: %s vs %s", a, b)
	}
	if len(a) != 64 {
		t.Errorf("ContentHash length = %d, want 64 hex chars", len(a))
	}
}

func TestContentHash_DiffersOnChange(t *testing.T) {
	if archive.ContentHash([]byte(`{"code":"A1413"}`)) == archive.ContentHash([]byte(`{"code":"A1414"}`)) {
		t.Error("different payloads should not share a hash")
	}
}

// ── Live database ──────────────────────────────────────────────────────────

// Runs only when TEST_DATABASE_URL points at a disposable database.
func liveStore(t *testing.T) *archive.Store {
	t.Helper()
	url := os.Getenv("TEST_DATABASE_URL")
	if url == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}
	ctx := context.Background()
	pool, err := pgxpool.New(ctx, url)
	if err != nil {
		t.Fatalf("pgxpool.New: %v", err)
	}
	t.Cleanup(pool.Close)

	store := archive.New(pool)
	if err := store.EnsureSchema(ctx); err != nil {
		t.Fatalf("EnsureSchema: %v", err)
	}
	return store
}

func TestSaveSnapshot_Dedupes(t *testing.T) {
	store := liveStore(t)
	ctx := context.Background()
	raw := []byte(fmt.Sprintf(`{"code":"A1413","at":%d}`, time.Now().UnixNano()))

	written, err := store.SaveSnapshot(ctx, "A1413", "Chef de projet", raw)
	if err != nil || !written {
		t.Fatalf("first SaveSnapshot = %v, %v; want true, nil", written, err)
	}
	written, err = store.SaveSnapshot(ctx, "A1413", "Chef de projet", raw)
	if err != nil || written {
		t.Errorf("second SaveSnapshot = %v, %v; want false, nil", written, err)
	}
}

func TestWatch_ListsCodes(t *testing.T) {
	store := liveStore(t)
	ctx := context.Background()

	if err := store.Watch(ctx, "A1413", "K2204"); err != nil {
		t.Fatalf("Watch: %v", err)
	}
	codes, err := store.WatchedCodes(ctx)
	if err != nil {
		t.Fatalf("WatchedCodes: %v", err)
	}
	found := map[string]bool{}
	for _, c := range codes {
		found[c] = true
	}
	if !found["A1413"] || !found["K2204"] {
		t.Errorf("WatchedCodes = %v, want A1413 and K2204", codes)
	}
}
