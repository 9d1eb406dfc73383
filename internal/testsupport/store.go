package testsupport

import (
	"context"
	"testing"

	"lectern/internal/config"
	"lectern/internal/store"
)

// MustOpenStore opens a store.Store for tests and registers cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config) *store.Store {
	t.Helper()

	st, err := store.Open(cfg)
	if err != nil {
		t.Fatalf("store.Open: %v", err)
	}
	t.Cleanup(func() {
		st.Close()
	})
	return st
}

// NewSeries inserts an observed-series row for tests using the provided store.
func NewSeries(t testing.TB, st *store.Store, series *store.Series) *store.Series {
	t.Helper()

	created, err := st.CreateSeries(context.Background(), series)
	if err != nil {
		t.Fatalf("store.CreateSeries: %v", err)
	}
	return created
}
