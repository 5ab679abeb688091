package sema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cc89/internal/diag"
	"cc89/internal/parser"
)

func analyze(t *testing.T, src string) (*Result, *diag.Bag) {
	t.Helper()
	f, bag := parser.ParseFile("t.c", src)
	require.False(t, bag.HasErrors(), "parse failed: %s", bag.String())
	res := AnalyzeFile(f, bag)
	return res, bag
}

func TestAnalyzeSimpleFunctionNoErrors(t *testing.T) {
	_, bag := analyze(t, "int add(int a, int b) { return a + b; }")
	assert.False(t, bag.HasErrors(), bag.String())
}

func TestAnalyzeUndeclaredIdentifierIsError(t *testing.T) {
	_, bag := analyze(t, "int f() { return undeclared_name; }")
	assert.True(t, bag.HasErrors())
}

func TestAnalyzeImplicitFunctionDeclarationWarns(t *testing.T) {
	res, bag := analyze(t, `
int f() {
    return puts("hi");
}
`)
	assert.False(t, bag.HasErrors(), bag.String())
	assert.NotEmpty(t, bag.List)
	_, ok := res.Funcs["puts"]
	assert.True(t, ok)
}

func TestAnalyzeStructLayoutAssignsOffsets(t *testing.T) {
	res, bag := analyze(t, `
struct Point { int x; int y; };
int f(struct Point p) { return p.x + p.y; }
`)
	require.False(t, bag.HasErrors(), bag.String())
	layout, ok := res.Layouts["Point"]
	require.True(t, ok)
	require.Len(t, layout.Members, 2)
	assert.Equal(t, 0, layout.Members[0].Offset)
	assert.Equal(t, 4, layout.Members[1].Offset)
	assert.Equal(t, 8, layout.Size)
}

func TestAnalyzeFrameSizeGrowsWithLocals(t *testing.T) {
	res, bag := analyze(t, `
int f() {
    int a;
    int b;
    char c;
    return a + b + c;
}
`)
	require.False(t, bag.HasErrors(), bag.String())
	require.Len(t, res.Frames, 1)
	for _, fr := range res.Frames {
		assert.Greater(t, fr.Size, 0)
	}
}

func TestAnalyzeRejectsDuplicateDeclarationInSameScope(t *testing.T) {
	_, bag := analyze(t, `
int f() {
    int a;
    int a;
    return a;
}
`)
	assert.True(t, bag.HasErrors())
}

func TestAnalyzeEnumConstantsAssignSequentialValues(t *testing.T) {
	res, bag := analyze(t, `
enum Color { RED, GREEN, BLUE = 5, YELLOW };
int f() { return RED + GREEN + BLUE + YELLOW; }
`)
	require.False(t, bag.HasErrors(), bag.String())
	assert.Equal(t, int64(0), res.EnumConsts["RED"])
	assert.Equal(t, int64(1), res.EnumConsts["GREEN"])
	assert.Equal(t, int64(5), res.EnumConsts["BLUE"])
	assert.Equal(t, int64(6), res.EnumConsts["YELLOW"])
}

func TestAnalyzeRejectsAddressOfRegisterVar(t *testing.T) {
	_, bag := analyze(t, `
int f() {
    register int a;
    return *(&a);
}
`)
	assert.True(t, bag.HasErrors())
}
