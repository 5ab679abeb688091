package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cc89/internal/ast"
)

func mustParse(t *testing.T, src string) *ast.File {
	t.Helper()
	f, bag := ParseFile("t.c", src)
	require.False(t, bag.HasErrors(), "unexpected parse errors: %s", bag.String())
	require.NotNil(t, f)
	return f
}

func TestParseFuncDeclWithParams(t *testing.T) {
	f := mustParse(t, "int add(int a, int b) { return a + b; }")
	require.Len(t, f.Decls, 1)
	fn, ok := f.Decls[0].(*ast.FuncDecl)
	require.True(t, ok)
	assert.Equal(t, "add", fn.Name)
	require.Len(t, fn.Params, 2)
	assert.Equal(t, "a", fn.Params[0].Name)
	assert.Equal(t, "b", fn.Params[1].Name)
	require.NotNil(t, fn.Body)
}

func TestParseGlobalVarDeclWithInit(t *testing.T) {
	f := mustParse(t, "int counter = 42;")
	require.Len(t, f.Decls, 1)
	vd, ok := f.Decls[0].(*ast.VarDecl)
	require.True(t, ok)
	assert.Equal(t, "counter", vd.Name)
	require.NotNil(t, vd.Init)
}

func TestParseStructDeclAndMemberAccess(t *testing.T) {
	f := mustParse(t, `
struct Point { int x; int y; };
int get_x(struct Point p) { return p.x; }
`)
	require.Len(t, f.Decls, 2)
	_, ok := f.Decls[0].(*ast.RecordDecl)
	require.True(t, ok)
}

func TestParseIfElseAndWhile(t *testing.T) {
	f := mustParse(t, `
int f(int n) {
    if (n > 0) {
        while (n > 0) {
            n = n - 1;
        }
    } else {
        n = 0;
    }
    return n;
}
`)
	fn := f.Decls[0].(*ast.FuncDecl)
	require.Len(t, fn.Body.Items, 2)
	_, ok := fn.Body.Items[0].Stmt.(*ast.IfStmt)
	assert.True(t, ok)
}

func TestParseForLoopWithDeclInit(t *testing.T) {
	f := mustParse(t, `
int sum() {
    int total = 0;
    for (int i = 0; i < 10; i = i + 1) {
        total = total + i;
    }
    return total;
}
`)
	require.Len(t, f.Decls, 1)
	fn := f.Decls[0].(*ast.FuncDecl)
	found := false
	for _, it := range fn.Body.Items {
		if _, ok := it.Stmt.(*ast.ForStmt); ok {
			found = true
		}
	}
	assert.True(t, found)
}

func TestParseSwitchWithFallthrough(t *testing.T) {
	f := mustParse(t, `
int classify(int x) {
    switch (x) {
    case 1:
    case 2:
        return 1;
    default:
        return 0;
    }
}
`)
	fn := f.Decls[0].(*ast.FuncDecl)
	sw, ok := fn.Body.Items[0].Stmt.(*ast.SwitchStmt)
	require.True(t, ok)
	assert.Len(t, sw.Cases, 2)
	assert.NotNil(t, sw.Default)
}

func TestParseExpressionPrecedence(t *testing.T) {
	f := mustParse(t, "int f() { return 1 + 2 * 3 - 4 / 2; }")
	fn := f.Decls[0].(*ast.FuncDecl)
	ret := fn.Body.Items[0].Stmt.(*ast.ReturnStmt)
	// Top-level op must be '-' (lowest precedence in this expression).
	be, ok := ret.Value.(*ast.BinaryExpr)
	require.True(t, ok)
	assert.Equal(t, ast.OpSub, be.Op)
}

func TestParseTernaryAndLogical(t *testing.T) {
	f := mustParse(t, "int f(int a, int b) { return a > 0 && b > 0 ? a : b; }")
	fn := f.Decls[0].(*ast.FuncDecl)
	ret := fn.Body.Items[0].Stmt.(*ast.ReturnStmt)
	_, ok := ret.Value.(*ast.CondExpr)
	assert.True(t, ok)
}

func TestParseReportsErrorOnMalformedDecl(t *testing.T) {
	_, bag := ParseFile("t.c", "int ;;; garbage )(")
	assert.True(t, bag.HasErrors())
}

func TestParsePointerDeclAndDeref(t *testing.T) {
	f := mustParse(t, `
int deref(int *p) {
    return *p;
}
`)
	fn := f.Decls[0].(*ast.FuncDecl)
	require.Len(t, fn.Params, 1)
	ret := fn.Body.Items[0].Stmt.(*ast.ReturnStmt)
	ue, ok := ret.Value.(*ast.UnaryExpr)
	require.True(t, ok)
	assert.Equal(t, ast.OpDeref, ue.Op)
}
