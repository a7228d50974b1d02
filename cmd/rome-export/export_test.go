package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"jobmate/rome-service/internal/export"
	"jobmate/rome-service/internal/lookup"
	"jobmate/rome-service/internal/metier"
	"jobmate/rome-service/internal/session"
)

type stubSource map[string]string

func (s stubSource) FetchMetier(_ context.Context, code string) ([]byte, error) {
	p, ok := s[code]
	if !ok {
		return nil, fmt.Errorf("upstream 404 for %s", code)
	}
	return []byte(p), nil
}

func TestExportCodes_LeavesLatestSessionAlone(t *testing.T) {
	src := stubSource{"A1413": `{"code":"A1413","libelle":"Chef de projet"}`}
	store := session.NewMemoryStore()
	svc := lookup.NewService(src, nil, store, metier.NewAssembler(metier.Options{}))

	path := filepath.Join(t.TempDir(), "out.csv")
	var errOut bytes.Buffer
	got, err := exportCodes(context.Background(), svc, []string{"A1413", "K2204"}, export.FormatCSV, path, &errOut)
	if err != nil {
		t.Fatalf("exportCodes: %v", err)
	}
	if got != path {
		t.Errorf("path = %q, want %q", got, path)
	}

	if _, err := store.Load(context.Background(), session.Latest); !errors.Is(err, session.ErrNotFound) {
		t.Errorf("latest session after CLI export: err = %v, want ErrNotFound", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if !strings.Contains(string(data), "A1413,Chef de projet") {
		t.Errorf("csv = %q", data)
	}
	if !strings.Contains(errOut.String(), "K2204") {
		t.Errorf("failed code not reported: %q", errOut.String())
	}
}

func TestExportCodes_NothingFetched(t *testing.T) {
	svc := lookup.NewService(stubSource{}, nil, nil, metier.NewAssembler(metier.Options{}))
	path := filepath.Join(t.TempDir(), "out.xlsx")
	if _, err := exportCodes(context.Background(), svc, []string{"A1413"}, export.FormatXLSX, path, &bytes.Buffer{}); err == nil {
		t.Fatal("expected error when no code could be fetched")
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Error("no file should be written when nothing was fetched")
	}
}
