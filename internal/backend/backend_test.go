package backend

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fintrack/internal/config"
	"fintrack/internal/kv"
)

func TestOptionsFrom(t *testing.T) {
	_, err := OptionsFrom(nil)
	assert.Error(t, err)

	_, err = OptionsFrom(&config.Config{DataBackend: "sheets"})
	assert.Error(t, err)

	opts, err := OptionsFrom(&config.Config{DataBackend: "sqlite", SQLiteDBPath: "x.db"})
	require.NoError(t, err)
	assert.Equal(t, Options{Kind: SQLite, Path: "x.db"}, opts)
}

func TestOptions_Validate(t *testing.T) {
	tests := []struct {
		name    string
		opts    Options
		wantErr bool
	}{
		{"memory", Options{Kind: Memory}, false},
		{"sqlite with path", Options{Kind: SQLite, Path: "a.db"}, false},
		{"sqlite without path", Options{Kind: SQLite}, true},
		{"unknown kind", Options{Kind: "postgres"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.opts.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestOpen(t *testing.T) {
	ctx := context.Background()

	t.Run("memory", func(t *testing.T) {
		h, err := Open(ctx, Options{Kind: Memory}, nil)
		require.NoError(t, err)
		assert.IsType(t, &kv.MemoryStore{}, h.Store)
		assert.Nil(t, h.Release)
		assert.Nil(t, h.Ready())
		assert.NoError(t, h.Close())
	})

	t.Run("sqlite", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "nested", "ledger.db")
		h, err := Open(ctx, Options{Kind: SQLite, Path: path}, nil)
		require.NoError(t, err)
		defer h.Close()

		ready := h.Ready()
		require.NotNil(t, ready)
		assert.NoError(t, ready(ctx))

		require.NoError(t, h.Store.Set(ctx, "k", []byte("v")))
		got, found, err := h.Store.Get(ctx, "k")
		require.NoError(t, err)
		assert.True(t, found)
		assert.Equal(t, []byte("v"), got)
	})

	t.Run("invalid", func(t *testing.T) {
		_, err := Open(ctx, Options{Kind: "sheets"}, nil)
		assert.Error(t, err)
	})
}
