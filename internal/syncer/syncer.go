// Package syncer implements the shared batching sink in front of the store.
// Jobs push maps of derived facts; a single background goroutine serializes
// all store writes so that concurrent jobs never contend on the database.
package syncer

import (
	"sync"
	"time"

	"github.com/cxref/cxref/internal/indexer"
	"github.com/cxref/cxref/internal/store"
)

// defaultFlushInterval is how often accumulated facts are written out when
// nobody calls Flush explicitly.
const defaultFlushInterval = time.Second

// Syncer batches fact writes. It satisfies indexer.Sink. Set-valued facts
// are unioned into the pending batch; file information is last-writer-wins.
// Writes of identical facts are idempotent.
type Syncer struct {
	store    *store.Store
	interval time.Duration

	mutex   sync.Mutex
	pending *store.Batch

	flushRequests chan chan error
	closed        chan struct{}
	done          chan struct{}

	errMutex sync.Mutex
	err      error
}

// New creates a syncer over the given store and starts its flusher. Pass a
// zero interval for the default.
func New(s *store.Store, interval time.Duration) *Syncer {
	if interval <= 0 {
		interval = defaultFlushInterval
	}

	syncer := &Syncer{
		store:         s,
		interval:      interval,
		pending:       newBatch(),
		flushRequests: make(chan chan error),
		closed:        make(chan struct{}),
		done:          make(chan struct{}),
	}

	go syncer.run()
	return syncer
}

func newBatch() *store.Batch {
	return &store.Batch{
		Symbols:          indexer.SymbolMap{},
		SymbolNames:      indexer.SymbolNameMap{},
		References:       indexer.ReferenceMap{},
		FileInformations: map[string]indexer.FileInformation{},
		VisitedFiles:     indexer.PathSet{},
		Dependencies:     indexer.DependencyMap{},
	}
}

func (s *Syncer) run() {
	defer close(s.done)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.recordErr(s.flushPending())
		case reply := <-s.flushRequests:
			reply <- s.flushPending()
		case <-s.closed:
			s.recordErr(s.flushPending())
			return
		}
	}
}

func (s *Syncer) flushPending() error {
	s.mutex.Lock()
	batch := s.pending
	s.pending = newBatch()
	s.mutex.Unlock()

	return s.store.Write(batch)
}

func (s *Syncer) recordErr(err error) {
	if err == nil {
		return
	}

	s.errMutex.Lock()
	if s.err == nil {
		s.err = err
	}
	s.errMutex.Unlock()
}

// Flush writes all accumulated facts and returns the write's error.
func (s *Syncer) Flush() error {
	reply := make(chan error, 1)
	select {
	case s.flushRequests <- reply:
		return <-reply
	case <-s.done:
		return s.firstErr()
	}
}

// Close flushes remaining facts, stops the flusher, and returns the first
// error observed over the syncer's lifetime. The store is left open.
func (s *Syncer) Close() error {
	close(s.closed)
	<-s.done
	return s.firstErr()
}

func (s *Syncer) firstErr() error {
	s.errMutex.Lock()
	defer s.errMutex.Unlock()
	return s.err
}

// AddFileInformation records the compile arguments and timestamp for a path.
func (s *Syncer) AddFileInformation(path string, args []string, timestamp time.Time) {
	s.mutex.Lock()
	s.pending.FileInformations[path] = indexer.FileInformation{Args: args, Timestamp: timestamp}
	s.mutex.Unlock()
}

// AddFileInformations records that the given paths exist, without clobbering
// previously recorded compile arguments.
func (s *Syncer) AddFileInformations(paths indexer.PathSet) {
	s.mutex.Lock()
	for path := range paths {
		s.pending.VisitedFiles[path] = struct{}{}
	}
	s.mutex.Unlock()
}

// AddSymbols merges symbol records into the pending batch.
func (s *Syncer) AddSymbols(symbols indexer.SymbolMap) {
	s.mutex.Lock()
	for loc, info := range symbols {
		s.pending.Symbols[loc] = info
	}
	s.mutex.Unlock()
}

// AddSymbolNames unions symbol-name locations into the pending batch.
func (s *Syncer) AddSymbolNames(names indexer.SymbolNameMap) {
	s.mutex.Lock()
	for name, locs := range names {
		set, ok := s.pending.SymbolNames[name]
		if !ok {
			set = map[indexer.Location]struct{}{}
			s.pending.SymbolNames[name] = set
		}
		for loc := range locs {
			set[loc] = struct{}{}
		}
	}
	s.mutex.Unlock()
}

// AddReferences merges reference edges into the pending batch.
func (s *Syncer) AddReferences(references indexer.ReferenceMap) {
	s.mutex.Lock()
	for loc, ref := range references {
		s.pending.References[loc] = ref
	}
	s.mutex.Unlock()
}

// AddDependencies unions dependency edges into the pending batch.
func (s *Syncer) AddDependencies(dependencies indexer.DependencyMap) {
	s.mutex.Lock()
	for path, deps := range dependencies {
		set, ok := s.pending.Dependencies[path]
		if !ok {
			set = map[string]struct{}{}
			s.pending.Dependencies[path] = set
		}
		for dep := range deps {
			set[dep] = struct{}{}
		}
	}
	s.mutex.Unlock()
}
