package indexer

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// Location identifies a point in source as a canonicalized absolute path and
// a byte offset within that file. The zero value is the null location.
type Location struct {
	Path   string
	Offset uint32
}

// IsNull reports whether the location carries no path.
func (l Location) IsNull() bool {
	return l.Path == ""
}

// Key renders the location in its canonical path:offset form. Keys are used
// to address locations in the store and in symbol-name sets.
func (l Location) Key() string {
	return fmt.Sprintf("%s:%d", l.Path, l.Offset)
}

// MarshalText implements encoding.TextMarshaler so that locations can key
// JSON-encoded maps.
func (l Location) MarshalText() ([]byte, error) {
	return []byte(l.Key()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (l *Location) UnmarshalText(text []byte) error {
	loc, err := ParseLocation(string(text))
	if err != nil {
		return err
	}

	*l = loc
	return nil
}

// ParseLocation parses a path:offset key produced by Key.
func ParseLocation(key string) (Location, error) {
	i := strings.LastIndexByte(key, ':')
	if i < 0 {
		return Location{}, errors.Errorf("malformed location key %q", key)
	}

	offset, err := strconv.ParseUint(key[i+1:], 10, 32)
	if err != nil {
		return Location{}, errors.Wrapf(err, "malformed location offset in %q", key)
	}

	return Location{Path: key[:i], Offset: uint32(offset)}, nil
}

// canonicalPath returns the canonicalized absolute form of the given path.
// Symlinks are resolved when the target exists; the cleaned absolute path is
// returned otherwise. Path equality throughout the indexer is string equality
// of canonicalized paths.
func canonicalPath(path string) string {
	if !filepath.IsAbs(path) {
		if abs, err := filepath.Abs(path); err == nil {
			path = abs
		}
	}

	if resolved, err := filepath.EvalSymlinks(path); err == nil {
		path = resolved
	}

	return filepath.Clean(path)
}
