// Package compdb loads clang compilation databases (compile_commands.json)
// and extracts per-file argument vectors suitable for reparsing the file
// outside its original working directory.
package compdb

import (
	"os"
	"path/filepath"
	"strings"

	jsoniter "github.com/json-iterator/go"
	"github.com/pkg/errors"
)

// FileName is the conventional name of a compilation database.
const FileName = "compile_commands.json"

var unmarshaller = jsoniter.ConfigCompatibleWithStandardLibrary

// compileCommand is one entry of the database. Either Command or Arguments
// is populated depending on the generator.
type compileCommand struct {
	Directory string   `json:"directory"`
	Command   string   `json:"command"`
	Arguments []string `json:"arguments"`
	File      string   `json:"file"`
}

// Entry names one source file plus the compile arguments to index it with.
// The compiler executable, the file itself, and output-related arguments are
// stripped; path-valued arguments are anchored to the entry's directory.
type Entry struct {
	File string
	Args []string
}

// Load reads the compilation database in the given directory.
func Load(dir string) ([]Entry, error) {
	f, err := os.Open(filepath.Join(dir, FileName))
	if err != nil {
		return nil, errors.Wrap(err, "open compilation database")
	}
	defer f.Close()

	var commands []compileCommand
	if err := unmarshaller.NewDecoder(f).Decode(&commands); err != nil {
		return nil, errors.Wrap(err, "decode compilation database")
	}

	entries := make([]Entry, 0, len(commands))
	for _, command := range commands {
		file := command.File
		if !filepath.IsAbs(file) {
			file = filepath.Join(command.Directory, file)
		}

		entries = append(entries, Entry{
			File: filepath.Clean(file),
			Args: extractArgs(command, file),
		})
	}

	return entries, nil
}

// pathValuedFlags are flags whose following operand is a path that must be
// anchored to the entry's directory.
var pathValuedFlags = map[string]bool{
	"-I":           true,
	"-isystem":     true,
	"-include":     true,
	"-include-pch": true,
}

func extractArgs(command compileCommand, file string) []string {
	argv := command.Arguments
	if len(argv) == 0 {
		argv = strings.Fields(command.Command)
	}
	if len(argv) == 0 {
		return nil
	}

	// argv[0] is the compiler executable.
	argv = argv[1:]

	var args []string
	skipNext := false
	fixNext := false
	for _, arg := range argv {
		switch {
		case skipNext:
			skipNext = false
			continue
		case fixNext:
			fixNext = false
			args = append(args, anchorPath(command.Directory, arg))
			continue
		case arg == "-o":
			skipNext = true
			continue
		case arg == "-c":
			continue
		case arg == file || arg == command.File:
			continue
		case pathValuedFlags[arg]:
			fixNext = true
			args = append(args, arg)
			continue
		case strings.HasPrefix(arg, "-I") && len(arg) > 2:
			args = append(args, "-I"+anchorPath(command.Directory, arg[2:]))
			continue
		}

		args = append(args, arg)
	}

	return args
}

// anchorPath resolves a possibly relative path against the compile entry's
// working directory.
func anchorPath(dir, path string) string {
	if filepath.IsAbs(path) {
		return filepath.Clean(path)
	}

	return filepath.Clean(filepath.Join(dir, path))
}
