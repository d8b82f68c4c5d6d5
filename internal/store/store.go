// Package store implements the persistent symbol database behind the syncer:
// one bbolt bucket per fact family, JSON-encoded values, union merges for
// set-valued facts and last-writer-wins for file information.
package store

import (
	"bytes"
	"sort"

	"github.com/agnivade/levenshtein"
	"github.com/cxref/cxref/internal/indexer"
	jsoniter "github.com/json-iterator/go"
	"github.com/pkg/errors"
	bolt "go.etcd.io/bbolt"
)

var marshaller = jsoniter.ConfigCompatibleWithStandardLibrary

var (
	symbolsBucket      = []byte("symbols")
	symbolNamesBucket  = []byte("symbolNames")
	referencesBucket   = []byte("references")
	fileInfoBucket     = []byte("fileInfo")
	dependenciesBucket = []byte("dependencies")
)

var buckets = [][]byte{
	symbolsBucket,
	symbolNamesBucket,
	referencesBucket,
	fileInfoBucket,
	dependenciesBucket,
}

// Store is a bbolt-backed symbol database. A single Store mutates the
// underlying file; concurrent readers are served by bbolt's MVCC.
type Store struct {
	db *bolt.DB
}

// Open opens (or creates) the database at the given path and ensures all
// buckets exist.
func Open(path string) (*Store, error) {
	db, err := bolt.Open(path, 0o600, nil)
	if err != nil {
		return nil, errors.Wrap(err, "bolt.Open")
	}

	err = db.Update(func(tx *bolt.Tx) error {
		for _, bucket := range buckets {
			if _, err := tx.CreateBucketIfNotExists(bucket); err != nil {
				return err
			}
		}

		return nil
	})
	if err != nil {
		_ = db.Close()
		return nil, errors.Wrap(err, "create buckets")
	}

	return &Store{db: db}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Batch is one flush worth of facts. Set-valued members are merged with the
// stored sets; FileInformations overwrite, VisitedFiles only fill gaps.
type Batch struct {
	Symbols          indexer.SymbolMap
	SymbolNames      indexer.SymbolNameMap
	References       indexer.ReferenceMap
	FileInformations map[string]indexer.FileInformation
	VisitedFiles     indexer.PathSet
	Dependencies     indexer.DependencyMap
}

// Empty reports whether the batch carries no facts.
func (b *Batch) Empty() bool {
	return len(b.Symbols) == 0 &&
		len(b.SymbolNames) == 0 &&
		len(b.References) == 0 &&
		len(b.FileInformations) == 0 &&
		len(b.VisitedFiles) == 0 &&
		len(b.Dependencies) == 0
}

// Write applies the batch in a single transaction.
func (s *Store) Write(batch *Batch) error {
	if batch.Empty() {
		return nil
	}

	err := s.db.Update(func(tx *bolt.Tx) error {
		symbols := tx.Bucket(symbolsBucket)
		for loc, info := range batch.Symbols {
			value, err := marshaller.Marshal(info)
			if err != nil {
				return err
			}
			if err := symbols.Put([]byte(loc.Key()), value); err != nil {
				return err
			}
		}

		names := tx.Bucket(symbolNamesBucket)
		for name, locs := range batch.SymbolNames {
			if err := mergeLocationSet(names, []byte(name), locs); err != nil {
				return err
			}
		}

		references := tx.Bucket(referencesBucket)
		for loc, ref := range batch.References {
			value, err := marshaller.Marshal(ref)
			if err != nil {
				return err
			}
			if err := references.Put([]byte(loc.Key()), value); err != nil {
				return err
			}
		}

		fileInfo := tx.Bucket(fileInfoBucket)
		for path, info := range batch.FileInformations {
			value, err := marshaller.Marshal(info)
			if err != nil {
				return err
			}
			if err := fileInfo.Put([]byte(path), value); err != nil {
				return err
			}
		}
		for path := range batch.VisitedFiles {
			if fileInfo.Get([]byte(path)) != nil {
				continue
			}

			value, err := marshaller.Marshal(indexer.FileInformation{})
			if err != nil {
				return err
			}
			if err := fileInfo.Put([]byte(path), value); err != nil {
				return err
			}
		}

		dependencies := tx.Bucket(dependenciesBucket)
		for path, deps := range batch.Dependencies {
			if err := mergeStringSet(dependencies, []byte(path), deps); err != nil {
				return err
			}
		}

		return nil
	})

	return errors.Wrap(err, "store.Write")
}

// mergeLocationSet unions the given locations into the stored set for key.
func mergeLocationSet(bucket *bolt.Bucket, key []byte, locs map[indexer.Location]struct{}) error {
	merged := map[indexer.Location]struct{}{}

	if existing := bucket.Get(key); existing != nil {
		var stored []indexer.Location
		if err := marshaller.Unmarshal(existing, &stored); err != nil {
			return err
		}
		for _, loc := range stored {
			merged[loc] = struct{}{}
		}
	}
	for loc := range locs {
		merged[loc] = struct{}{}
	}

	flattened := make([]indexer.Location, 0, len(merged))
	for loc := range merged {
		flattened = append(flattened, loc)
	}
	sort.Slice(flattened, func(i, j int) bool {
		if flattened[i].Path != flattened[j].Path {
			return flattened[i].Path < flattened[j].Path
		}
		return flattened[i].Offset < flattened[j].Offset
	})

	value, err := marshaller.Marshal(flattened)
	if err != nil {
		return err
	}

	return bucket.Put(key, value)
}

// mergeStringSet unions the given strings into the stored set for key.
func mergeStringSet(bucket *bolt.Bucket, key []byte, values map[string]struct{}) error {
	merged := map[string]struct{}{}

	if existing := bucket.Get(key); existing != nil {
		var stored []string
		if err := marshaller.Unmarshal(existing, &stored); err != nil {
			return err
		}
		for _, v := range stored {
			merged[v] = struct{}{}
		}
	}
	for v := range values {
		merged[v] = struct{}{}
	}

	flattened := make([]string, 0, len(merged))
	for v := range merged {
		flattened = append(flattened, v)
	}
	sort.Strings(flattened)

	value, err := marshaller.Marshal(flattened)
	if err != nil {
		return err
	}

	return bucket.Put(key, value)
}

// SymbolNames returns the locations recorded for the exact symbol name.
func (s *Store) SymbolNames(name string) ([]indexer.Location, error) {
	var locs []indexer.Location

	err := s.db.View(func(tx *bolt.Tx) error {
		value := tx.Bucket(symbolNamesBucket).Get([]byte(name))
		if value == nil {
			return nil
		}

		return marshaller.Unmarshal(value, &locs)
	})
	if err != nil {
		return nil, errors.Wrap(err, "store.SymbolNames")
	}

	return locs, nil
}

// Symbol returns the symbol record at the given location, or nil when the
// location is unknown.
func (s *Store) Symbol(loc indexer.Location) (*indexer.CursorInfo, error) {
	var info *indexer.CursorInfo

	err := s.db.View(func(tx *bolt.Tx) error {
		value := tx.Bucket(symbolsBucket).Get([]byte(loc.Key()))
		if value == nil {
			return nil
		}

		info = &indexer.CursorInfo{}
		return marshaller.Unmarshal(value, info)
	})
	if err != nil {
		return nil, errors.Wrap(err, "store.Symbol")
	}

	return info, nil
}

// ReferencesTo scans the reference edges and returns the locations that
// reference the given target.
func (s *Store) ReferencesTo(target indexer.Location) ([]indexer.Location, error) {
	var sources []indexer.Location

	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(referencesBucket).ForEach(func(key, value []byte) error {
			var ref indexer.Reference
			if err := marshaller.Unmarshal(value, &ref); err != nil {
				return err
			}
			if ref.Target != target {
				return nil
			}

			loc, err := indexer.ParseLocation(string(key))
			if err != nil {
				return err
			}

			sources = append(sources, loc)
			return nil
		})
	})
	if err != nil {
		return nil, errors.Wrap(err, "store.ReferencesTo")
	}

	return sources, nil
}

// FileInformation returns the stored compile information for a path, or nil
// when the path has never been indexed.
func (s *Store) FileInformation(path string) (*indexer.FileInformation, error) {
	var info *indexer.FileInformation

	err := s.db.View(func(tx *bolt.Tx) error {
		value := tx.Bucket(fileInfoBucket).Get([]byte(path))
		if value == nil {
			return nil
		}

		info = &indexer.FileInformation{}
		return marshaller.Unmarshal(value, info)
	})
	if err != nil {
		return nil, errors.Wrap(err, "store.FileInformation")
	}

	return info, nil
}

// Dependents returns the recorded set of files that include the given path,
// directly or transitively.
func (s *Store) Dependents(path string) ([]string, error) {
	var deps []string

	err := s.db.View(func(tx *bolt.Tx) error {
		value := tx.Bucket(dependenciesBucket).Get([]byte(path))
		if value == nil {
			return nil
		}

		return marshaller.Unmarshal(value, &deps)
	})
	if err != nil {
		return nil, errors.Wrap(err, "store.Dependents")
	}

	return deps, nil
}

// suggestion pairs a known symbol name with its edit distance from a query.
type suggestion struct {
	name     string
	distance int
}

// Suggest returns up to max known symbol names ranked by edit distance from
// the given name. Names further than half the query length away are ignored.
func (s *Store) Suggest(name string, max int) ([]string, error) {
	cutoff := len(name)/2 + 1

	var candidates []suggestion
	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(symbolNamesBucket).ForEach(func(key, _ []byte) error {
			candidate := string(key)
			if bytes.IndexByte(key, '/') >= 0 {
				// Skip per-file path entries.
				return nil
			}

			distance := levenshtein.ComputeDistance(name, candidate)
			if distance > cutoff {
				return nil
			}

			candidates = append(candidates, suggestion{name: candidate, distance: distance})
			return nil
		})
	})
	if err != nil {
		return nil, errors.Wrap(err, "store.Suggest")
	}

	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].distance != candidates[j].distance {
			return candidates[i].distance < candidates[j].distance
		}
		return candidates[i].name < candidates[j].name
	})

	if len(candidates) > max {
		candidates = candidates[:max]
	}

	names := make([]string, 0, len(candidates))
	for _, c := range candidates {
		names = append(names, c.name)
	}

	return names, nil
}
