package indexer

import (
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/cxref/cxref/internal/output"
	"github.com/google/go-cmp/cmp"
)

// recordingSink captures all sink writes for assertions.
type recordingSink struct {
	mutex            sync.Mutex
	fileInformation  map[string]FileInformation
	fileInformations []PathSet
	symbols          []SymbolMap
	symbolNames      []SymbolNameMap
	references       []ReferenceMap
	dependencies     []DependencyMap
}

func newRecordingSink() *recordingSink {
	return &recordingSink{fileInformation: map[string]FileInformation{}}
}

func (s *recordingSink) AddFileInformation(path string, args []string, timestamp time.Time) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.fileInformation[path] = FileInformation{Args: args, Timestamp: timestamp}
}

func (s *recordingSink) AddFileInformations(paths PathSet) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.fileInformations = append(s.fileInformations, paths)
}

func (s *recordingSink) AddSymbols(symbols SymbolMap) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.symbols = append(s.symbols, symbols)
}

func (s *recordingSink) AddSymbolNames(names SymbolNameMap) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.symbolNames = append(s.symbolNames, names)
}

func (s *recordingSink) AddReferences(references ReferenceMap) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.references = append(s.references, references)
}

func (s *recordingSink) AddDependencies(dependencies DependencyMap) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.dependencies = append(s.dependencies, dependencies)
}

func newTestIndexer(sink Sink) *Indexer {
	return New("/store", nil, nil, 1, false, sink, output.Options{Verbosity: output.NoOutput})
}

func TestPchUSRPublishAndPreload(t *testing.T) {
	sink := newRecordingSink()
	idx := newTestIndexer(sink)
	defer idx.Close()

	locA := Location{Path: "/tmp/a.h", Offset: 10}
	locB := Location{Path: "/tmp/b.h", Offset: 20}
	locC := Location{Path: "/tmp/b.h", Offset: 30}

	idx.setPchUSRs("/tmp/a.h", map[string]Location{"c:@F@f": locA})
	idx.setPchUSRs("/tmp/b.h", map[string]Location{"c:@F@f": locB, "c:@F@g": locC})

	merged := idx.pchUSRHash([]string{"/tmp/a.h", "/tmp/b.h"})

	// Later headers overwrite earlier keys.
	expected := map[string]Location{"c:@F@f": locB, "c:@F@g": locC}
	if diff := cmp.Diff(expected, merged); diff != "" {
		t.Errorf("unexpected merged lookup (-want +got):\n%s", diff)
	}

	if unknown := idx.pchUSRHash([]string{"/tmp/missing.h"}); len(unknown) != 0 {
		t.Errorf("unexpected lookup for unknown header. want=%d have=%d", 0, len(unknown))
	}
}

func TestPchDependenciesPublishAndRead(t *testing.T) {
	sink := newRecordingSink()
	idx := newTestIndexer(sink)
	defer idx.Close()

	published := PathSet{"/tmp/a.h": {}, "/tmp/inner.h": {}}
	idx.setPchDependencies("/tmp/a.h", published)

	deps := idx.pchDependencies("/tmp/a.h")
	if diff := cmp.Diff(published, deps); diff != "" {
		t.Errorf("unexpected dependencies (-want +got):\n%s", diff)
	}

	// The returned set is a copy.
	deps["/tmp/extra.h"] = struct{}{}
	if diff := cmp.Diff(published, idx.pchDependencies("/tmp/a.h")); diff != "" {
		t.Errorf("published dependencies were mutated (-want +got):\n%s", diff)
	}
}

func TestDependencyEventPump(t *testing.T) {
	sink := newRecordingSink()
	idx := newTestIndexer(sink)

	deps := DependencyMap{}
	deps.add("/tmp/b.h", "/tmp/a.cpp")
	deps.add("/tmp/c.h", "/tmp/b.h")
	deps.add("/tmp/c.h", "/tmp/a.cpp")
	idx.postDependencies(deps)

	idx.Close()

	if diff := cmp.Diff(deps, idx.Dependencies()); diff != "" {
		t.Errorf("unexpected merged graph (-want +got):\n%s", diff)
	}
	if len(sink.dependencies) != 1 {
		t.Fatalf("unexpected number of forwarded events. want=%d have=%d", 1, len(sink.dependencies))
	}
	if diff := cmp.Diff(deps, sink.dependencies[0]); diff != "" {
		t.Errorf("unexpected forwarded edges (-want +got):\n%s", diff)
	}
}

func TestPublishResults(t *testing.T) {
	sink := newRecordingSink()
	idx := newTestIndexer(sink)
	defer idx.Close()

	job := NewJob(idx, 1, "/tmp/main.cpp", []string{"-Wall"})
	in := job.in

	declLoc := Location{Path: in, Offset: 4}
	useLoc := Location{Path: in, Offset: 15}
	job.paths[in] = struct{}{}
	job.symbols[declLoc] = &CursorInfo{SymbolLength: 1}
	job.symbolNames.add("x", declLoc)
	job.references[useLoc] = Reference{Target: declLoc, Type: NormalReference}

	job.publishResults(time.Now())

	// Per-file entries appear under the full path and its basename.
	for _, key := range []string{in, filepath.Base(in)} {
		if _, ok := job.symbolNames[key]; !ok {
			t.Errorf("missing per-file symbol-name entry for %q", key)
		}
	}

	if len(sink.fileInformations) != 1 {
		t.Errorf("unexpected paths-visited writes. want=%d have=%d", 1, len(sink.fileInformations))
	}
	if len(sink.symbols) != 1 || len(sink.symbolNames) != 1 || len(sink.references) != 1 {
		t.Errorf("expected one write per fact family, have symbols=%d names=%d references=%d",
			len(sink.symbols), len(sink.symbolNames), len(sink.references))
	}
	if _, ok := sink.fileInformation[in]; !ok {
		t.Errorf("missing file information for %q", in)
	}
}

func TestPublishResultsAborted(t *testing.T) {
	sink := newRecordingSink()
	idx := newTestIndexer(sink)
	defer idx.Close()

	job := NewJob(idx, 1, "/tmp/main.cpp", nil)
	in := job.in

	job.paths[in] = struct{}{}
	job.symbols[Location{Path: in, Offset: 4}] = &CursorInfo{SymbolLength: 1}
	job.Abort()

	job.publishResults(time.Now())

	// The paths-visited file informations are posted regardless; everything
	// else is skipped after an abort.
	if len(sink.fileInformations) != 1 {
		t.Errorf("unexpected paths-visited writes. want=%d have=%d", 1, len(sink.fileInformations))
	}
	if len(sink.symbols) != 0 || len(sink.symbolNames) != 0 || len(sink.references) != 0 {
		t.Errorf("unexpected sink writes after abort: symbols=%d names=%d references=%d",
			len(sink.symbols), len(sink.symbolNames), len(sink.references))
	}
	if len(sink.fileInformation) != 0 {
		t.Errorf("unexpected file information writes after abort. want=%d have=%d", 0, len(sink.fileInformation))
	}
}

func TestProducesPch(t *testing.T) {
	for _, testCase := range []struct {
		args     []string
		expected bool
	}{
		{[]string{"-x", "c++-header"}, true},
		{[]string{"-x", "c-header"}, true},
		{[]string{"-x", "c++"}, false},
		{[]string{"-x"}, false},
		{nil, false},
	} {
		if have := producesPch(testCase.args); have != testCase.expected {
			t.Errorf("unexpected verdict for %v. want=%v have=%v", testCase.args, testCase.expected, have)
		}
	}
}
