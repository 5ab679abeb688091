package x86_64

import (
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cc89/internal/ir"
	"cc89/internal/parser"
	"cc89/internal/sema"
)

func compileToAsm(t *testing.T, src string) string {
	t.Helper()
	f, bag := parser.ParseFile("t.c", src)
	require.False(t, bag.HasErrors(), "parse failed: %s", bag.String())
	res := sema.AnalyzeFile(f, bag)
	require.False(t, bag.HasErrors(), "sema failed: %s", bag.String())
	mod := ir.Generate(f, res)
	asm, err := EmitModule(mod)
	require.NoError(t, err)
	return asm
}

func TestEmitModuleHasTextSectionAndGNUStackMarker(t *testing.T) {
	asm := compileToAsm(t, "int main() { return 0; }")
	assert.Contains(t, asm, ".text\n")
	assert.Contains(t, asm, ".section .note.GNU-stack")
}

func TestEmitFunctionHasPrologueAndEpilogue(t *testing.T) {
	asm := compileToAsm(t, "int main() { return 0; }")
	assert.Contains(t, asm, "main:")
	assert.Contains(t, asm, "push %rbp")
	assert.Contains(t, asm, "mov %rsp, %rbp")
	assert.Contains(t, asm, "pop %rbp")
	assert.Contains(t, asm, "ret")
}

func TestEmitLabelsDefinedExactlyOnce(t *testing.T) {
	asm := compileToAsm(t, `
int f(int n) {
    if (n > 0) {
        return 1;
    } else {
        return 0;
    }
}
`)
	labelDef := regexp.MustCompile(`(?m)^(\.?[A-Za-z_.][A-Za-z0-9_.]*):$`)
	seen := map[string]int{}
	for _, m := range labelDef.FindAllStringSubmatch(asm, -1) {
		seen[m[1]]++
	}
	for name, n := range seen {
		assert.Equal(t, 1, n, "label %q defined %d times", name, n)
	}
}

func TestEmitDivisionUsesCltdAndIdiv(t *testing.T) {
	asm := compileToAsm(t, "int f(int a, int b) { return a / b; }")
	assert.Contains(t, asm, "cltd")
	assert.Contains(t, asm, "idiv")
}

func TestEmitUnsignedDivisionZeroesEdx(t *testing.T) {
	asm := compileToAsm(t, "unsigned int f(unsigned int a, unsigned int b) { return a / b; }")
	assert.Contains(t, asm, "xor %edx, %edx")
	assert.Contains(t, asm, "div")
	assert.NotContains(t, asm, "idiv")
}

func TestEmitCallAlignsStackForExtraArgs(t *testing.T) {
	asm := compileToAsm(t, `
int sum7(int a, int b, int c, int d, int e, int f, int g);
int main() {
    return sum7(1, 2, 3, 4, 5, 6, 7);
}
`)
	// One extra argument (the 7th) is pushed; odd count needs an 8-byte pad
	// to keep the stack 16-byte aligned at the call instant.
	assert.Contains(t, asm, "sub $8, %rsp")
	assert.Contains(t, asm, "push %rax")
	assert.Contains(t, asm, "call sum7")
}

func TestEmitGlobalsPartitionIntoDataAndBSS(t *testing.T) {
	asm := compileToAsm(t, `
int initialized = 5;
int main() { return initialized; }
extern int uninitialized;
`)
	assert.Contains(t, asm, ".data")
	assert.Contains(t, asm, "initialized:")
	assert.Contains(t, asm, ".bss")
}

func TestEmitStringLiteralInRodataWithStringDirective(t *testing.T) {
	asm := compileToAsm(t, `
int puts(const char *s);
int main() {
    return puts("hello");
}
`)
	assert.Contains(t, asm, ".rodata")
	assert.Contains(t, asm, ".string \"hello\"")
}

func TestEmitByteWidthLoadsSignExtend(t *testing.T) {
	asm := compileToAsm(t, `
int f(char c) {
    return c + 1;
}
`)
	assert.True(t, strings.Contains(asm, "movsbl"))
}

func TestEmitEveryCallSiteStaysSixteenByteAligned(t *testing.T) {
	asm := compileToAsm(t, `
int add(int a, int b);
int main() {
    return add(1, 2);
}
`)
	// No extra (>6) args here: no padding or push sequence is needed at all.
	assert.NotContains(t, asm, "sub $8, %rsp")
	assert.Contains(t, asm, "call add")
}
