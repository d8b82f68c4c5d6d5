package indexer

import (
	"path/filepath"
	"sync/atomic"
	"time"

	"github.com/cxref/cxref/internal/log"
	"github.com/cxref/cxref/internal/util"
	"github.com/sbinet/go-clang"
)

// Job indexes a single translation unit. All derived maps are created empty
// at construction, mutated only by the job's own goroutine while parsing and
// visiting, and handed to the sink exactly once when the job completes.
type Job struct {
	id      int
	indexer *Indexer
	in      string
	args    []string

	isPch      bool
	pchSaved   bool
	pchHeaders []string
	aborted    uint32

	dependencies    DependencyMap
	symbols         SymbolMap
	symbolNames     SymbolNameMap
	references      ReferenceMap
	paths           PathSet
	pchUSRs         map[string]Location
	pchUSRLookup    map[string]Location
	pchDependencies PathSet
}

// NewJob constructs a job for the given input path and user-supplied compile
// arguments. The headers named by -include-pch arguments are retained for the
// PCH USR preload.
func NewJob(indexer *Indexer, id int, input string, args []string) *Job {
	return &Job{
		id:              id,
		indexer:         indexer,
		in:              canonicalPath(input),
		args:            args,
		pchHeaders:      extractPchHeaders(args),
		dependencies:    DependencyMap{},
		symbols:         SymbolMap{},
		symbolNames:     SymbolNameMap{},
		references:      ReferenceMap{},
		paths:           PathSet{},
		pchUSRs:         map[string]Location{},
		pchDependencies: PathSet{},
	}
}

// Abort requests cooperative cancellation. The visitors observe the flag at
// every callback; a parse already in flight runs to completion. An aborted
// job still posts its dependency event and releases the translation unit, but
// performs no sink writes.
func (j *Job) Abort() {
	atomic.StoreUint32(&j.aborted, 1)
}

func (j *Job) isAborted() bool {
	return atomic.LoadUint32(&j.aborted) != 0
}

// Run parses the translation unit and derives symbols, qualified names,
// references, and file dependencies from it. A parser that returns no unit is
// not a job failure: the degenerate path records a self-dependency and the
// file information so that a later invocation retries.
func (j *Job) Run() error {
	start := time.Now()

	args := make([]string, 0, len(j.args)+len(j.indexer.defaultArgs))
	args = append(args, j.args...)
	args = append(args, j.indexer.defaultArgs...)

	if len(j.pchHeaders) > 0 {
		j.pchUSRLookup = j.indexer.pchUSRHash(j.pchHeaders)
	}

	rewritten := rewriteArgs(j.indexer.storeDir, j.in, args)
	j.isPch = rewritten.isPch

	idx := clang.NewIndex(1, 1)
	defer idx.Dispose()

	tu := idx.Parse(j.in, rewritten.clangArgs, nil, clang.TU_Incomplete|clang.TU_DetailedPreprocessingRecord)
	timestamp := time.Now()
	log.Debugf("loading unit %s (valid=%v)", rewritten.clangLine, tu.IsValid())

	if !tu.IsValid() {
		log.Errorf("got no unit for %s", rewritten.clangLine)
		j.dependencies.add(j.in, j.in)
		j.indexer.postDependencies(j.dependencies)
		if !j.isAborted() {
			j.indexer.sink.AddFileInformation(j.in, j.args, timestamp)
		}
		j.finish(start)
		return nil
	}
	defer tu.Dispose()

	tu.GetInclusions(j.visitInclusion)

	// Everything a precompiled header depends on, its consumers depend on
	// as well.
	for _, header := range j.pchHeaders {
		for dep := range j.indexer.pchDependencies(header) {
			j.dependencies.add(dep, j.in)
		}
	}
	j.indexer.postDependencies(j.dependencies)

	tu.ToCursor().Visit(j.visitCursor)

	if j.isPch {
		pchName := pchFileName(j.indexer.storeDir, j.in)
		if status := tu.Save(pchName, tu.DefaultSaveOptions()); status != 0 {
			// The on-disk artifact is missing or truncated; keep the USR map
			// unpublished so consumers parse the header from source.
			log.Errorf("could not save pch file for %s to %s (status %d)", j.in, pchName, status)
		} else {
			j.pchSaved = true
			j.indexer.setPchUSRs(j.in, j.pchUSRs)
		}
	}

	j.publishResults(timestamp)
	j.finish(start)
	return nil
}

// publishResults inserts the per-file symbol-name entries and pushes the
// job's derived facts to the sink. Sink writes other than the paths-visited
// file informations are skipped after an abort.
func (j *Job) publishResults(timestamp time.Time) {
	for path := range j.paths {
		loc := Location{Path: path}
		j.symbolNames.add(path, loc)
		j.symbolNames.add(filepath.Base(path), loc)
	}
	if len(j.paths) > 0 {
		j.indexer.sink.AddFileInformations(j.paths)
	}

	if j.isAborted() {
		return
	}

	j.indexer.sink.AddSymbols(j.symbols)
	j.indexer.sink.AddSymbolNames(j.symbolNames)
	j.indexer.sink.AddFileInformation(j.in, j.args, timestamp)
	j.indexer.sink.AddReferences(j.references)

	if j.pchSaved {
		j.indexer.setPchDependencies(j.in, j.pchDependencies)
	}
}

func (j *Job) finish(start time.Time) {
	log.Infof("visited %s in %s", j.in, util.HumanElapsed(start))
	j.indexer.jobDone(j.id, j.in, j.isPch)
}
