package syncer

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/cxref/cxref/internal/indexer"
	"github.com/cxref/cxref/internal/store"
	"github.com/google/go-cmp/cmp"
)

func openTestStore(t *testing.T) *store.Store {
	s, err := store.Open(filepath.Join(t.TempDir(), "cxref.db"))
	if err != nil {
		t.Fatalf("unexpected error opening store: %s", err)
	}
	t.Cleanup(func() { _ = s.Close() })

	return s
}

func TestSyncerBatchesWrites(t *testing.T) {
	db := openTestStore(t)
	s := New(db, time.Hour) // flush only on demand

	loc := indexer.Location{Path: "/tmp/a.cpp", Offset: 4}
	target := indexer.Location{Path: "/tmp/a.h", Offset: 9}

	s.AddSymbols(indexer.SymbolMap{loc: {Kind: 9, SymbolLength: 1}})
	s.AddSymbolNames(indexer.SymbolNameMap{"x": {loc: {}}})
	s.AddReferences(indexer.ReferenceMap{loc: {Target: target, Type: indexer.NormalReference}})
	s.AddFileInformation("/tmp/a.cpp", []string{"-Wall"}, time.Now())
	s.AddFileInformations(indexer.PathSet{"/tmp/a.h": {}})

	deps := indexer.DependencyMap{}
	deps["/tmp/a.h"] = map[string]struct{}{"/tmp/a.cpp": {}}
	s.AddDependencies(deps)

	// Nothing reaches the store before a flush.
	if info, err := db.FileInformation("/tmp/a.cpp"); err != nil || info != nil {
		t.Fatalf("unexpected store content before flush: %+v (err=%v)", info, err)
	}

	if err := s.Flush(); err != nil {
		t.Fatalf("unexpected error: %s", err)
	}

	symbol, err := db.Symbol(loc)
	if err != nil || symbol == nil {
		t.Fatalf("missing symbol after flush (err=%v)", err)
	}

	locations, err := db.SymbolNames("x")
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	if diff := cmp.Diff([]indexer.Location{loc}, locations); diff != "" {
		t.Errorf("unexpected locations (-want +got):\n%s", diff)
	}

	dependents, err := db.Dependents("/tmp/a.h")
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	if diff := cmp.Diff([]string{"/tmp/a.cpp"}, dependents); diff != "" {
		t.Errorf("unexpected dependents (-want +got):\n%s", diff)
	}

	if err := s.Close(); err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
}

func TestSyncerIdempotentWrites(t *testing.T) {
	db := openTestStore(t)
	s := New(db, time.Hour)

	loc := indexer.Location{Path: "/tmp/a.cpp", Offset: 4}

	for i := 0; i < 2; i++ {
		s.AddSymbolNames(indexer.SymbolNameMap{"x": {loc: {}}})
		if err := s.Flush(); err != nil {
			t.Fatalf("unexpected error: %s", err)
		}
	}

	locations, err := db.SymbolNames("x")
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	if diff := cmp.Diff([]indexer.Location{loc}, locations); diff != "" {
		t.Errorf("unexpected locations (-want +got):\n%s", diff)
	}

	if err := s.Close(); err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
}

func TestSyncerCloseFlushes(t *testing.T) {
	db := openTestStore(t)
	s := New(db, time.Hour)

	s.AddFileInformation("/tmp/a.cpp", nil, time.Now())
	if err := s.Close(); err != nil {
		t.Fatalf("unexpected error: %s", err)
	}

	info, err := db.FileInformation("/tmp/a.cpp")
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	if info == nil {
		t.Errorf("missing file information after close")
	}
}
