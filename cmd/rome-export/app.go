package main

import (
	"context"
	"errors"
	"log"

	"jobmate/rome-service/internal/archive"
	"jobmate/rome-service/internal/config"
	"jobmate/rome-service/internal/db"
	"jobmate/rome-service/internal/lookup"
	"jobmate/rome-service/internal/metier"
	"jobmate/rome-service/internal/rome"
	"jobmate/rome-service/internal/session"
)

var errNoDatabase = errors.New("DATABASE_URL is required for this command")

// app holds everything the commands share.
type app struct {
	cfg     *config.Config
	conns   *db.Conns
	archive *archive.Store // nil without DATABASE_URL
	svc     *lookup.Service
}

func newApp(ctx context.Context) (*app, error) {
	// ── Config ──────────────────────────────────────────────────────────────
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, err
	}

	// ── PostgreSQL / Redis ──────────────────────────────────────────────────
	conns, err := db.Open(ctx, cfg.DatabaseURL, cfg.RedisURL)
	if err != nil {
		return nil, err
	}

	a := &app{cfg: cfg, conns: conns}

	var arch lookup.Archiver
	if conns.Pool != nil {
		a.archive = archive.New(conns.Pool)
		if err := a.archive.EnsureSchema(ctx); err != nil {
			conns.Close()
			return nil, err
		}
		arch = a.archive
	}

	var sessions session.Store
	if conns.Redis != nil {
		sessions = session.NewRedisStore(conns.Redis, cfg.SessionTTL)
	} else {
		log.Println("[rome-service] Batch sessions kept in memory")
		sessions = session.NewMemoryStore()
	}

	// ── Lookup service ──────────────────────────────────────────────────────
	client := rome.NewClient(cfg.ROMEClientConfig())
	asm := metier.NewAssembler(cfg.AssemblerOptions())
	a.svc = lookup.NewService(client, arch, sessions, asm)

	return a, nil
}

func (a *app) Close() {
	a.conns.Close()
}
