// Package sema implements the semantic analyzer described in spec.md §4.3:
// scope management, declaration checks, typedef and tag resolution, struct
// and union layout, enum lowering, expression typing, statement checks, and
// per-function frame layout. It walks the parser's AST in place, attaching
// a resolved *types.Type to every expression node (ast.Typed.SetType) and
// recording everything the IR generator needs in a returned *Result.
package sema

import (
	"cc89/internal/ast"
	"cc89/internal/types"
)

// SymKind discriminates what an identifier names.
type SymKind int

const (
	SymVar SymKind = iota
	SymFunc
	SymEnumConst
)

// Symbol is what a name resolves to within a scope, per spec.md §3
// ("A name paired with: kind, type, storage class, scope depth, frame
// offset, whether externally visible").
type Symbol struct {
	Name      string
	Kind      SymKind
	Type      *types.Type
	Storage   ast.StorageClass
	IsGlobal  bool
	Register  bool // "register"-qualified: rejects address-of (invariant g)
	Offset    int  // frame offset for SymVar locals/params; unused otherwise
	EnumValue int64
}

// Scope is one level of the lexical scope stack (spec.md §3 "Symbol
// tables"). Struct/union/enum tags are intentionally not scoped here: the
// parser resolves tags through a single flat table at parse time (see
// internal/parser's Parser.tags), a simplification recorded in DESIGN.md.
type Scope struct {
	parent *Scope
	vars   map[string]*Symbol
}

func newScope(parent *Scope) *Scope {
	return &Scope{parent: parent, vars: map[string]*Symbol{}}
}

// declareOK reports whether name is still free at this exact scope (not an
// enclosing one — shadowing across scopes is legal); the caller reports the
// duplicate-declaration error. declare adds sym to s unconditionally.
func (s *Scope) declareOK(name string) bool {
	_, exists := s.vars[name]
	return !exists
}

func (s *Scope) declare(sym *Symbol) { s.vars[sym.Name] = sym }

func (s *Scope) lookup(name string) *Symbol {
	for sc := s; sc != nil; sc = sc.parent {
		if sym, ok := sc.vars[name]; ok {
			return sym
		}
	}
	return nil
}
