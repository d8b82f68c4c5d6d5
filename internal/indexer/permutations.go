package indexer

import (
	"strings"

	"github.com/sbinet/go-clang"
)

// addNamePermutations records every partial qualification of the cursor's
// display name against the given location, both with and without the
// parameter list at the leaf. Traversal walks semantic parents outward and
// stops at the translation unit or at a parent with no display name.
func (j *Job) addNamePermutations(cursor clang.Cursor, loc Location) {
	var names []string

	for cur := cursor; !cur.IsNull(); cur = cur.SemanticParent() {
		if cur.Kind().IsTranslationUnit() {
			break
		}

		name := cur.DisplayName()
		if name == "" {
			break
		}

		names = append(names, name)
	}

	for _, name := range namePermutations(names) {
		j.symbolNames.add(name, loc)
	}
}

// namePermutations builds the qualified-name permutations for a symbol from
// its display names, innermost first. For each qualification prefix two forms
// are produced: the fully spelled name and, when distinct, the name with the
// parameter list stripped at the leaf (everything from '(' on removed before
// qualifiers are prepended).
func namePermutations(names []string) []string {
	var out []string
	var qparam, qnoparam string

	for i, name := range names {
		if i == 0 {
			qparam = name
			qnoparam = name
			if sp := strings.IndexByte(qnoparam, '('); sp != -1 {
				qnoparam = qnoparam[:sp]
			}
		} else {
			qparam = name + "::" + qparam
			qnoparam = name + "::" + qnoparam
		}

		out = append(out, qparam)
		if qparam != qnoparam {
			out = append(out, qnoparam)
		}
	}

	return out
}
