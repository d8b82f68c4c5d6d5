// The program cxref indexes C/C++ translation units with libclang and serves
// symbol and cross-reference lookups from the resulting database.
package main

import (
	"fmt"
	"os"

	"github.com/cxref/cxref/internal/compdb"
	"github.com/cxref/cxref/internal/indexer"
	"github.com/cxref/cxref/internal/log"
	"github.com/cxref/cxref/internal/output"
	"github.com/cxref/cxref/internal/store"
	"github.com/cxref/cxref/internal/syncer"
	"github.com/pkg/errors"
)

const version = "0.2.0"

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	command, err := parseArgs(args)
	if err != nil {
		return err
	}

	if verboseOutput {
		log.SetLevel(log.Info)
	}

	switch command {
	case indexCommand.FullCommand():
		return runIndex()
	case queryCommand.FullCommand():
		return runQuery()
	}

	return nil
}

func outputOptions() output.Options {
	verbosity := output.DefaultOutput
	if verboseOutput {
		verbosity = output.VerboseOutput
	}
	if noOutput {
		verbosity = output.NoOutput
	}

	return output.Options{
		Verbosity:      verbosity,
		ShowAnimations: !noProgress,
	}
}

func runIndex() error {
	if err := os.MkdirAll(storeDir, 0o755); err != nil {
		return errors.Wrap(err, "create store directory")
	}

	specs, err := collectSpecs()
	if err != nil {
		return err
	}

	db, err := store.Open(dbFile)
	if err != nil {
		return err
	}
	defer db.Close()

	sink := syncer.New(db, 0)
	idx := indexer.New(storeDir, defaultArgs, systemPrefixes, concurrency, dropEmptySymbols, sink, outputOptions())

	indexErr := idx.Index(specs)

	// Drain pending dependency events before the final flush.
	idx.Close()
	if err := sink.Close(); err != nil {
		return errors.Wrap(err, "flush sink")
	}

	return indexErr
}

func collectSpecs() ([]indexer.JobSpec, error) {
	var specs []indexer.JobSpec

	if compdbDir != "" {
		entries, err := compdb.Load(compdbDir)
		if err != nil {
			return nil, err
		}

		for _, entry := range entries {
			specs = append(specs, indexer.JobSpec{Input: entry.File, Args: entry.Args})
		}
	}

	for _, file := range inputFiles {
		specs = append(specs, indexer.JobSpec{Input: file})
	}

	return specs, nil
}

func runQuery() error {
	db, err := store.Open(dbFile)
	if err != nil {
		return err
	}
	defer db.Close()

	locations, err := db.SymbolNames(queryName)
	if err != nil {
		return err
	}

	if len(locations) == 0 {
		suggestions, err := db.Suggest(queryName, maxSuggestions)
		if err != nil {
			return err
		}

		if len(suggestions) == 0 {
			return errors.Errorf("no symbol named %q", queryName)
		}

		fmt.Printf("no symbol named %q, did you mean:\n", queryName)
		for _, suggestion := range suggestions {
			fmt.Printf("  %s\n", suggestion)
		}

		return nil
	}

	for _, location := range locations {
		fmt.Println(location.Key())

		if !showReferences {
			continue
		}

		references, err := db.ReferencesTo(location)
		if err != nil {
			return err
		}
		for _, reference := range references {
			fmt.Printf("  referenced from %s\n", reference.Key())
		}
	}

	return nil
}
