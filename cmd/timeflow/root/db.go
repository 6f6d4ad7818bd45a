package root

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/ganot/timeflow/internal/bootstrap"
	"github.com/ganot/timeflow/internal/config"
	"github.com/ganot/timeflow/internal/snapshot"
	"github.com/ganot/timeflow/internal/sqlite"
)

// session is one CLI invocation's view of the local store.
type session struct {
	app   *bootstrap.App
	owner string
}

func (e *env) config() (config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return config.Config{}, err
	}
	if e.dbPath != "" {
		cfg.DB.Path = e.dbPath
	}
	if e.snapshotPath != "" {
		cfg.Timer.SnapshotPath = e.snapshotPath
	}
	if e.owner != "" {
		cfg.Auth.Owner = e.owner
	}
	return cfg, nil
}

// open wires the services against the local database. The timer snapshot
// lives in a file so a session survives between invocations. cleanup
// flushes the timer and closes the database.
func (e *env) open(_ context.Context) (*session, func(), error) {
	cfg, err := e.config()
	if err != nil {
		return nil, nil, err
	}
	if err := ensureDir(cfg.DB.Path); err != nil {
		return nil, nil, fmt.Errorf("prepare database path: %w", err)
	}
	db, err := sqlite.New(cfg.DB.Path)
	if err != nil {
		return nil, nil, err
	}
	if err := db.RunMigrations(); err != nil {
		_ = db.Close()
		return nil, nil, err
	}

	logger := newLogger(os.Stderr, cfg.Log)

	app, err := bootstrap.New(bootstrap.Options{
		Config: cfg,
		DB:     db,
		Logger: logger,
		Store: func(ownerID string) snapshot.Store {
			return snapshot.NewFileStore(snapshotPathFor(cfg.Timer.SnapshotPath, ownerID))
		},
		Version: Version,
	})
	if err != nil {
		_ = db.Close()
		return nil, nil, err
	}
	cleanup := func() {
		app.Shutdown()
		_ = db.Close()
	}
	return &session{app: app, owner: cfg.Auth.Owner}, cleanup, nil
}

func newLogger(w io.Writer, cfg config.LogConfig) *slog.Logger {
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: cfg.SlogLevel()}))
}

// snapshotPathFor keeps one snapshot file per owner next to base. The owner
// is escaped so it never adds a path element.
func snapshotPathFor(base, ownerID string) string {
	ext := filepath.Ext(base)
	return strings.TrimSuffix(base, ext) + "." + url.PathEscape(ownerID) + ext
}

func ensureDir(path string) error {
	if path == ":memory:" || path == "" {
		return nil
	}
	dir := filepath.Dir(path)
	if dir == "." {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}
