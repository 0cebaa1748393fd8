// Package backend opens the key-value store a ledger persists to.
package backend

import (
	"context"
	"fmt"
	"log/slog"

	"fintrack/internal/config"
	"fintrack/internal/kv"
)

// Kind names a store implementation selectable through DATA_BACKEND.
type Kind string

const (
	SQLite Kind = "sqlite"
	Memory Kind = "memory"
)

// Kinds lists every supported kind, default first.
func Kinds() []Kind { return []Kind{SQLite, Memory} }

func (k Kind) Valid() bool { return k == SQLite || k == Memory }

// Options selects and locates a store.
type Options struct {
	Kind Kind
	// Path is the database file for SQLite; ignored otherwise.
	Path string
}

// OptionsFrom reads the backend settings of the application config.
func OptionsFrom(cfg *config.Config) (Options, error) {
	if cfg == nil {
		return Options{}, fmt.Errorf("nil config")
	}
	opts := Options{Kind: Kind(cfg.DataBackend), Path: cfg.SQLiteDBPath}
	return opts, opts.Validate()
}

func (o Options) Validate() error {
	if !o.Kind.Valid() {
		return fmt.Errorf("unknown data backend %q (want one of %v)", o.Kind, Kinds())
	}
	if o.Kind == SQLite && o.Path == "" {
		return fmt.Errorf("sqlite backend needs a database path")
	}
	return nil
}

// Handle is an opened store. Release is nil when there is nothing to free.
type Handle struct {
	Store   kv.Store
	Release func() error
}

// Ready returns the store's health check, or nil if it has none.
func (h *Handle) Ready() func(context.Context) error {
	if p, ok := h.Store.(interface{ Ping(context.Context) error }); ok {
		return p.Ping
	}
	return nil
}

// Close runs Release if set.
func (h *Handle) Close() error {
	if h.Release == nil {
		return nil
	}
	return h.Release()
}

// Open creates the store described by opts, running migrations for SQLite.
func Open(ctx context.Context, opts Options, logger *slog.Logger) (*Handle, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}

	switch opts.Kind {
	case SQLite:
		store, err := kv.NewSQLiteStore(opts.Path)
		if err != nil {
			return nil, fmt.Errorf("open sqlite store: %w", err)
		}
		logger.InfoContext(ctx, "Opened SQLite ledger store", "db_path", opts.Path)
		return &Handle{Store: store, Release: store.Close}, nil
	default:
		logger.InfoContext(ctx, "Opened in-memory ledger store; data is lost on exit")
		return &Handle{Store: kv.NewMemoryStore()}, nil
	}
}
