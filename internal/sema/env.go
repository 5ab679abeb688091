package sema

import (
	"cc89/internal/ast"
	"cc89/internal/types"
)

// FuncInfo is a function's signature, keyed by name in Result.Funcs
// (spec.md §4.3 "Function redeclarations must agree on return type and
// parameter count").
type FuncInfo struct {
	Name       string
	Ret        *types.Type
	Params     []*types.Type
	ParamNames []string
	Variadic   bool
	Defined    bool
	Decl       *ast.FuncDecl // the defining declaration, nil until one is seen
}

// GlobalInfo is one file-scope variable, with its initializer expression as
// parsed, if any (the IR generator folds it into a data blob) (spec.md §4.3 environment: "global variable
// types with initializer blobs").
type GlobalInfo struct {
	Name    string
	Type    *types.Type
	Init    ast.Expr
	Storage ast.StorageClass
}

// StringTable interns string-literal payloads to a generated .rodata label,
// per spec.md §3 "a map from string-literal payload to a label in the
// read-only section".
type StringTable struct {
	labels map[string]string
	Order  []string // payloads in first-seen order, for deterministic emission
	n      int
}

func newStringTable() *StringTable { return &StringTable{labels: map[string]string{}} }

func (t *StringTable) Intern(payload []byte) string {
	key := string(payload)
	if l, ok := t.labels[key]; ok {
		return l
	}
	label := stringLabel(t.n)
	t.n++
	t.labels[key] = label
	t.Order = append(t.Order, key)
	return label
}

func stringLabel(n int) string {
	const digits = "0123456789"
	if n == 0 {
		return ".LC0"
	}
	buf := make([]byte, 0, 8)
	for n > 0 {
		buf = append([]byte{digits[n%10]}, buf...)
		n /= 10
	}
	return ".LC" + string(buf)
}

// Result is everything the IR generator and code generator consume from
// semantic analysis beyond the annotated AST itself (spec.md §4.3's
// "environment"): global/function signatures, aggregate layouts, enum
// constants, the string table, and — since ast.Ident carries no symbol
// field of its own — the resolved-identifier and per-function frame side
// tables that play the role of go/types.Info.Uses.
type Result struct {
	Globals    map[string]*GlobalInfo
	Funcs      map[string]*FuncInfo
	Layouts    map[string]*types.Layout // struct/union tag -> layout
	EnumConsts map[string]int64
	Strings    *StringTable

	Uses   map[*ast.Ident]*Symbol     // resolved symbol for every identifier use
	Frames map[*ast.FuncDecl]*Frame   // per-function frame layout
	Consts map[ast.Expr]int64         // not filled by the checker: case values go in CaseClause.Const, enum values in EnumConsts
}

// Frame is a function's stack frame shape, assigned during the checking
// walk (spec.md §4.3 "Frame layout"): every local and parameter gets a
// unique negative rbp-relative offset, aligned to its type, and Size is the
// rounded-up total.
type Frame struct {
	Size int
}

func newResult() *Result {
	return &Result{
		Globals:    map[string]*GlobalInfo{},
		Funcs:      map[string]*FuncInfo{},
		Layouts:    map[string]*types.Layout{},
		EnumConsts: map[string]int64{},
		Strings:    newStringTable(),
		Uses:       map[*ast.Ident]*Symbol{},
		Frames:     map[*ast.FuncDecl]*Frame{},
		Consts:     map[ast.Expr]int64{},
	}
}
