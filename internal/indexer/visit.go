package indexer

import "github.com/sbinet/go-clang"

// skipKind reports whether the cursor kind never anchors a symbol lookup.
// These kinds are not recorded but their children are still visited.
func skipKind(kind clang.CursorKind) bool {
	switch kind {
	case clang.CK_CXXThisExpr,
		clang.CK_CXXTypeidExpr,
		clang.CK_CXXReinterpretCastExpr,
		clang.CK_CXXStaticCastExpr,
		clang.CK_CXXDynamicCastExpr,
		clang.CK_CXXNullPtrLiteralExpr,
		clang.CK_CXXNewExpr,
		clang.CK_CXXDeleteExpr,
		clang.CK_CompoundAssignOperator,
		clang.CK_CompoundStmt,
		clang.CK_ParenExpr,
		clang.CK_StringLiteral,
		clang.CK_IntegerLiteral,
		clang.CK_InitListExpr,
		clang.CK_BreakStmt,
		clang.CK_DefaultStmt,
		clang.CK_BinaryOperator,
		clang.CK_CaseStmt,
		clang.CK_ConditionalOperator,
		clang.CK_CStyleCastExpr,
		clang.CK_ForStmt,
		clang.CK_WhileStmt,
		clang.CK_DoStmt,
		clang.CK_IfStmt,
		clang.CK_CXXBoolLiteralExpr,
		clang.CK_CharacterLiteral,
		clang.CK_UnaryOperator,
		clang.CK_ReturnStmt,
		clang.CK_CXXAccessSpecifier:
		return true
	}

	return false
}

// createLocation computes the cursor's location and tracks its path in the
// paths-visited set. The null location is returned for cursors without a
// named file.
func (j *Job) createLocation(cursor clang.Cursor) Location {
	file, _, _, offset := cursor.Location().GetFileLocation()

	name := file.Name()
	if name == "" {
		return Location{}
	}

	path := canonicalPath(name)
	j.paths[path] = struct{}{}
	return Location{Path: path, Offset: uint32(offset)}
}

// visitCursor visits the AST in pre-order. Parents are recorded before
// children; when the same location would be written twice the first writer
// wins, except that a type reference never overwrites a constructor record.
func (j *Job) visitCursor(cursor, parent clang.Cursor) clang.ChildVisitResult {
	if j.isAborted() {
		return clang.CVR_Break
	}

	kind := cursor.Kind()
	if kind.IsInvalid() || skipKind(kind) {
		return clang.CVR_Recurse
	}

	loc := j.createLocation(cursor)
	if loc.IsNull() {
		return clang.CVR_Recurse
	}

	ref := cursor.Referenced()
	if cursor.Equal(ref) && !ref.IsCursorDefinition() {
		ref = ref.DefinitionCursor()
	}
	refKind := ref.Kind()

	// The callee site is recorded by the child cursor that names the method.
	if kind == clang.CK_CallExpr && refKind == clang.CK_CXXMethod {
		return clang.CVR_Recurse
	}

	var refLoc Location
	if cursor.Equal(ref) {
		// A declaration with no prior definition refers to itself; the
		// definition may live in a precompiled header. PCH units never
		// consult their own lookup.
		if !j.isPch {
			if usr := ref.USR(); usr != "" {
				refLoc = j.pchUSRLookup[usr]
			}
		}
	} else {
		refLoc = j.createLocation(ref)
	}

	info, ok := j.symbols[loc]
	if !ok {
		info = &CursorInfo{}
		j.symbols[loc] = info
	}

	if info.SymbolLength == 0 {
		if j.isPch {
			if usr := cursor.USR(); usr != "" {
				j.pchUSRs[usr] = loc
			}
		}

		info.Kind = kind

		var name string
		if kind.IsReference() {
			name = ref.Spelling()
		} else {
			name = cursor.Spelling()
		}
		info.SymbolLength = uint32(len(name))

		if info.SymbolLength == 0 && j.indexer.dropEmptySymbols {
			delete(j.symbols, loc)
			return clang.CVR_Recurse
		}
	} else if info.Kind == clang.CK_Constructor && kind == clang.CK_TypeRef {
		// The constructor site already owns this location.
		return clang.CVR_Recurse
	}

	if cursor.IsCursorDefinition() || kind == clang.CK_FunctionDecl {
		j.addNamePermutations(cursor, loc)
	}

	if !refKind.IsInvalid() && !refLoc.IsNull() {
		if refLoc != loc {
			info.Target = refLoc
		}

		referenceType := NormalReference
		if refKind == kind {
			switch refKind {
			case clang.CK_Constructor, clang.CK_Destructor, clang.CK_CXXMethod:
				referenceType = MemberFunction
			case clang.CK_FunctionDecl:
				referenceType = GlobalFunction
			}
		}

		j.references[loc] = Reference{Target: refLoc, Type: referenceType}
	} else if kind == clang.CK_InclusionDirective {
		if name := cursor.IncludedFile().Name(); name != "" {
			refLoc = Location{Path: canonicalPath(name)}
			info.Target = refLoc
			j.references[loc] = Reference{Target: refLoc, Type: NormalReference}
		}
	}

	return clang.CVR_Recurse
}
