package indexer

import (
	"crypto/sha256"
	"encoding/hex"
	"path/filepath"
	"strings"
)

// pchFileName returns the content-addressable artifact path for the given
// header: the store directory joined with the hex sha256 digest of the
// canonicalized header path bytes. Two headers naming the same file yield
// identical names, so a producer job and its consumers agree on the artifact.
func pchFileName(storeDir, header string) string {
	sum := sha256.Sum256([]byte(canonicalPath(header)))
	return filepath.Join(storeDir, hex.EncodeToString(sum[:]))
}

// extractPchHeaders returns the canonicalized header paths following each
// -include-pch in the given argument vector. The returned paths are the
// original headers, not the substituted artifact names; they key the PCH USR
// preload and the published PCH dependency sets.
func extractPchHeaders(args []string) []string {
	var out []string
	nextIsPch := false
	for _, arg := range args {
		if arg == "" {
			continue
		}

		if nextIsPch {
			nextIsPch = false
			out = append(out, canonicalPath(arg))
		} else if arg == "-include-pch" {
			nextIsPch = true
		}
	}

	return out
}

// rewrittenArgs is the output of rewriteArgs: the argument vector handed to
// the parser, a human-readable command line for diagnostics, and whether the
// unit produces a precompiled header.
type rewrittenArgs struct {
	clangArgs []string
	clangLine string
	isPch     bool
}

// rewriteArgs walks the combined argument vector in order. The argument after
// -include-pch is replaced with its artifact path under storeDir, the argument
// after -x marks the unit as a PCH when it names a header language, and empty
// arguments are skipped. Malformed tails (a trailing -include-pch or -x) are
// accepted silently, mirroring the parser's own leniency. The input path is
// the final element of the diagnostic command line.
func rewriteArgs(storeDir, input string, args []string) rewrittenArgs {
	out := rewrittenArgs{clangArgs: make([]string, 0, len(args))}

	var line strings.Builder
	line.WriteString("clang ")

	nextIsPch, nextIsX := false, false
	for _, arg := range args {
		if arg == "" {
			continue
		}

		if nextIsPch {
			nextIsPch = false
			pch := pchFileName(storeDir, arg)
			out.clangArgs = append(out.clangArgs, pch)
			line.WriteString(pch)
			line.WriteString(" ")
			continue
		}

		if nextIsX {
			nextIsX = false
			out.isPch = arg == "c++-header" || arg == "c-header"
		}

		out.clangArgs = append(out.clangArgs, arg)
		line.WriteString(arg)
		line.WriteString(" ")

		switch arg {
		case "-include-pch":
			nextIsPch = true
		case "-x":
			nextIsX = true
		}
	}

	line.WriteString(input)
	out.clangLine = line.String()
	return out
}
