package indexer

import (
	"time"

	"github.com/sbinet/go-clang"
)

// ReferenceType classifies a reference edge by the relationship between the
// referencing cursor and its referent.
type ReferenceType int

const (
	NormalReference ReferenceType = iota
	MemberFunction
	GlobalFunction
)

// CursorInfo is the symbol record stored per location. SymbolLength is the
// byte length of the symbol's spelling at the location, used for query-time
// highlighting; zero means the record has not been filled yet. Target, when
// non-null, points at the referent's location.
type CursorInfo struct {
	Kind         clang.CursorKind `json:"kind"`
	SymbolLength uint32           `json:"symbolLength"`
	Target       Location         `json:"target,omitempty"`
}

// Reference is a single outgoing reference edge.
type Reference struct {
	Target Location      `json:"target"`
	Type   ReferenceType `json:"type"`
}

// FileInformation records the compile arguments a file was last indexed with.
type FileInformation struct {
	Args      []string  `json:"args"`
	Timestamp time.Time `json:"timestamp"`
}

// SymbolMap maps a location to its symbol record. At most one record exists
// per location; the first writer wins.
type SymbolMap map[Location]*CursorInfo

// SymbolNameMap maps a qualified-name permutation to the set of locations
// it names.
type SymbolNameMap map[string]map[Location]struct{}

// ReferenceMap maps a referencing location to its reference edge.
type ReferenceMap map[Location]Reference

// DependencyMap maps a path to the set of paths that include it, directly or
// transitively through the include stack.
type DependencyMap map[string]map[string]struct{}

// PathSet is a set of canonicalized paths.
type PathSet map[string]struct{}

// Sink is the shared batching sink that persists the facts derived by
// indexing jobs. All writes are batched and idempotent under repeated writes
// of identical facts. *syncer.Syncer satisfies this interface.
type Sink interface {
	AddFileInformation(path string, args []string, timestamp time.Time)
	AddFileInformations(paths PathSet)
	AddSymbols(symbols SymbolMap)
	AddSymbolNames(names SymbolNameMap)
	AddReferences(references ReferenceMap)
	AddDependencies(dependencies DependencyMap)
}

// DependencyEvent carries a job's dependency map to the indexer's event
// pump. Delivery is asynchronous and best-effort.
type DependencyEvent struct {
	Dependencies DependencyMap
}

func (d DependencyMap) add(path, dependent string) {
	set, ok := d[path]
	if !ok {
		set = map[string]struct{}{}
		d[path] = set
	}

	set[dependent] = struct{}{}
}

func (s SymbolNameMap) add(name string, loc Location) {
	set, ok := s[name]
	if !ok {
		set = map[Location]struct{}{}
		s[name] = set
	}

	set[loc] = struct{}{}
}
