package indexer

import "github.com/sbinet/go-clang"

// visitInclusion is invoked once per file included by the translation unit
// with the include stack ordered from the most immediate includer outward.
// Every non-system included file gains a dependency edge to each file in its
// include stack; the root file gains a self-edge. When the unit produces a
// PCH the file also joins the PCH dependency set.
func (j *Job) visitInclusion(file clang.File, stack []clang.SourceLocation) {
	if j.isAborted() {
		return
	}

	name := file.Name()
	if name == "" || j.indexer.isSystem(name) {
		return
	}

	path := canonicalPath(name)
	for _, loc := range stack {
		origin, _, _, _ := loc.GetFileLocation()
		j.dependencies.add(path, canonicalPath(origin.Name()))
	}

	if len(stack) == 0 {
		j.dependencies.add(path, path)
	}

	if j.isPch {
		j.pchDependencies[path] = struct{}{}
	}
}
