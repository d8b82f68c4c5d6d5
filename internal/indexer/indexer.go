package indexer

import (
	"sync"

	"github.com/cxref/cxref/internal/log"
	"github.com/cxref/cxref/internal/output"
	"github.com/cxref/cxref/internal/parallel"
	"github.com/hashicorp/go-multierror"
)

// eventBufferSize is the number of dependency events that can be queued for
// the event pump.
const eventBufferSize = 512

// Indexer coordinates indexing jobs. It owns the store directory for PCH
// artifacts, the default arguments appended to every job's compile arguments,
// the authoritative cross-job PCH state, the dependency event pump, and the
// sink the jobs write to.
type Indexer struct {
	storeDir         string
	defaultArgs      []string
	concurrency      int
	dropEmptySymbols bool
	sink             Sink
	isSystem         func(string) bool
	outputOptions    output.Options

	// OnDone, when set, observes every job completion.
	OnDone func(id int, input string, isPch bool)

	mutex       sync.RWMutex // guards pchUSRs and pchDeps
	headerLocks *mutexMap    // serializes publish/preload per header
	pchUSRs     map[string]map[string]Location
	pchDeps     map[string]PathSet

	events       chan DependencyEvent
	eventsDone   chan struct{}
	depMutex     sync.RWMutex
	dependencies DependencyMap
}

// JobSpec names one translation unit to index together with its user-supplied
// compile arguments.
type JobSpec struct {
	Input string
	Args  []string
}

// New constructs an indexer and starts its dependency event pump. The caller
// must Close the indexer to drain pending events.
func New(
	storeDir string,
	defaultArgs []string,
	systemPrefixes []string,
	concurrency int,
	dropEmptySymbols bool,
	sink Sink,
	outputOptions output.Options,
) *Indexer {
	i := &Indexer{
		storeDir:         storeDir,
		defaultArgs:      defaultArgs,
		concurrency:      concurrency,
		dropEmptySymbols: dropEmptySymbols,
		sink:             sink,
		isSystem:         SystemPathPredicate(systemPrefixes),
		outputOptions:    outputOptions,
		headerLocks:      newMutexMap(),
		pchUSRs:          map[string]map[string]Location{},
		pchDeps:          map[string]PathSet{},
		events:           make(chan DependencyEvent, eventBufferSize),
		eventsDone:       make(chan struct{}),
		dependencies:     DependencyMap{},
	}

	go i.pumpEvents()
	return i
}

// Index runs one job per spec on the worker pool. Jobs that produce a
// precompiled header run to completion first so that consumer jobs find the
// published artifacts and USR maps.
func (i *Indexer) Index(specs []JobSpec) error {
	var pchSpecs, tuSpecs []JobSpec
	for _, spec := range specs {
		if producesPch(spec.Args) {
			pchSpecs = append(pchSpecs, spec)
		} else {
			tuSpecs = append(tuSpecs, spec)
		}
	}

	var combined *multierror.Error
	nextID := 0

	for _, wave := range []struct {
		name  string
		specs []JobSpec
	}{
		{"Indexing precompiled headers", pchSpecs},
		{"Indexing translation units", tuSpecs},
	} {
		if len(wave.specs) == 0 {
			continue
		}

		if err := i.runWave(wave.name, wave.specs, &nextID); err != nil {
			combined = multierror.Append(combined, err)
		}
	}

	return combined.ErrorOrNil()
}

func (i *Indexer) runWave(name string, specs []JobSpec, nextID *int) error {
	var mutex sync.Mutex
	var combined *multierror.Error

	ch := make(chan func(), len(specs))
	for _, spec := range specs {
		job := NewJob(i, *nextID, spec.Input, spec.Args)
		*nextID++

		ch <- func() {
			if err := job.Run(); err != nil {
				mutex.Lock()
				combined = multierror.Append(combined, err)
				mutex.Unlock()
			}
		}
	}
	close(ch)

	wg, count := parallel.Run(ch, i.concurrency)
	output.WithProgressParallel(wg, name, i.outputOptions, count, uint64(len(specs)))
	wg.Wait()

	return combined.ErrorOrNil()
}

// producesPch reports whether the argument vector marks the unit as a
// precompiled header producer.
func producesPch(args []string) bool {
	for idx, arg := range args {
		if arg == "-x" && idx+1 < len(args) {
			if lang := args[idx+1]; lang == "c-header" || lang == "c++-header" {
				return true
			}
		}
	}

	return false
}

// pchUSRHash returns the merged USR to location mapping published for the
// given headers, later headers overwriting earlier keys.
func (i *Indexer) pchUSRHash(headers []string) map[string]Location {
	merged := map[string]Location{}
	for _, header := range headers {
		i.headerLocks.RLock(header)
		i.mutex.RLock()
		m := i.pchUSRs[header]
		i.mutex.RUnlock()

		for usr, loc := range m {
			merged[usr] = loc
		}
		i.headerLocks.RUnlock(header)
	}

	return merged
}

// setPchUSRs publishes the USR map derived by a PCH-producing job. The map
// is copied; keys must not alias parser-owned memory.
func (i *Indexer) setPchUSRs(header string, usrs map[string]Location) {
	copied := make(map[string]Location, len(usrs))
	for usr, loc := range usrs {
		copied[usr] = loc
	}

	i.headerLocks.Lock(header)
	i.mutex.Lock()
	i.pchUSRs[header] = copied
	i.mutex.Unlock()
	i.headerLocks.Unlock(header)
}

// pchDependencies returns the dependency set published for the given header.
func (i *Indexer) pchDependencies(header string) PathSet {
	i.headerLocks.RLock(header)
	defer i.headerLocks.RUnlock(header)

	i.mutex.RLock()
	deps := i.pchDeps[header]
	i.mutex.RUnlock()

	copied := make(PathSet, len(deps))
	for dep := range deps {
		copied[dep] = struct{}{}
	}

	return copied
}

// setPchDependencies publishes the dependency set of a PCH-producing job.
func (i *Indexer) setPchDependencies(header string, deps PathSet) {
	copied := make(PathSet, len(deps))
	for dep := range deps {
		copied[dep] = struct{}{}
	}

	i.headerLocks.Lock(header)
	i.mutex.Lock()
	i.pchDeps[header] = copied
	i.mutex.Unlock()
	i.headerLocks.Unlock(header)
}

// postDependencies queues a dependency event for the pump. The job's map is
// copied so the job can discard its state after hand-off.
func (i *Indexer) postDependencies(deps DependencyMap) {
	copied := make(DependencyMap, len(deps))
	for path, set := range deps {
		for dep := range set {
			copied.add(path, dep)
		}
	}

	i.events <- DependencyEvent{Dependencies: copied}
}

// pumpEvents merges posted dependency maps into the global dependency graph
// and forwards each event's edges to the sink.
func (i *Indexer) pumpEvents() {
	defer close(i.eventsDone)

	for event := range i.events {
		i.depMutex.Lock()
		for path, set := range event.Dependencies {
			for dep := range set {
				i.dependencies.add(path, dep)
			}
		}
		i.depMutex.Unlock()

		i.sink.AddDependencies(event.Dependencies)
	}
}

// Dependencies returns a copy of the merged dependency graph observed so far.
func (i *Indexer) Dependencies() DependencyMap {
	i.depMutex.RLock()
	defer i.depMutex.RUnlock()

	copied := make(DependencyMap, len(i.dependencies))
	for path, set := range i.dependencies {
		for dep := range set {
			copied.add(path, dep)
		}
	}

	return copied
}

// Close stops the event pump after draining queued events. No job may post
// events after Close.
func (i *Indexer) Close() {
	close(i.events)
	<-i.eventsDone
}

func (i *Indexer) jobDone(id int, input string, isPch bool) {
	if i.OnDone != nil {
		i.OnDone(id, input, isPch)
		return
	}

	log.Debugf("done id=%d input=%s pch=%v", id, input, isPch)
}
