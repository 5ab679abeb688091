// Package e2e compiles the fixture sources from spec.md §8's end-to-end
// scenario table through the full pipeline to assembly text and checks
// structural properties of the result (labels, stack alignment, section
// markers). There is no assembler/linker available in this environment to
// actually run the binaries and check exit codes, so these tests
// approximate "assemble, link, run" by verifying the textual invariants
// spec.md §8 calls out instead.
package e2e

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cc89/internal/codegen/x86_64"
	"cc89/internal/ir"
	"cc89/internal/parser"
	"cc89/internal/sema"
)

// compile runs the five-phase pipeline (parse, analyze, generate IR,
// generate code) and fails the test on any error, returning the emitted
// assembly text for further inspection.
func compile(t *testing.T, src string) string {
	t.Helper()
	f, bag := parser.ParseFile("scenario.c", src)
	require.False(t, bag.HasErrors(), "parse failed: %s", bag.String())
	res := sema.AnalyzeFile(f, bag)
	require.False(t, bag.HasErrors(), "sema failed: %s", bag.String())
	mod := ir.Generate(f, res)
	asm, err := x86_64.EmitModule(mod)
	require.NoError(t, err)
	return asm
}

var labelDefRE = regexp.MustCompile(`(?m)^(\.?[A-Za-z_.][A-Za-z0-9_.]*):$`)

// assertEveryLabelDefinedOnce checks spec.md §8's "single label definitions"
// structural invariant: no label (function, block, global, or string) is
// emitted twice.
func assertEveryLabelDefinedOnce(t *testing.T, asm string) {
	t.Helper()
	seen := map[string]int{}
	for _, m := range labelDefRE.FindAllStringSubmatch(asm, -1) {
		seen[m[1]]++
	}
	for name, n := range seen {
		assert.Equal(t, 1, n, "label %q defined %d times", name, n)
	}
}

// assertHasSectionMarkers checks the module-level section structure every
// emitted file must carry (spec.md §6).
func assertHasSectionMarkers(t *testing.T, asm string) {
	t.Helper()
	assert.Contains(t, asm, ".text")
	assert.Contains(t, asm, ".section .note.GNU-stack")
}

func TestScenarioFactorialRecursesThroughCall(t *testing.T) {
	asm := compile(t, `
int fact(int n) {
    if (n <= 1) return 1;
    return n * fact(n - 1);
}
int main(void) {
    return fact(5);
}
`)
	assertEveryLabelDefinedOnce(t, asm)
	assertHasSectionMarkers(t, asm)
	assert.Contains(t, asm, "call fact")
	assert.Contains(t, asm, "imul")
}

func TestScenarioPointerIndexingUsesScaledIndexedLoads(t *testing.T) {
	asm := compile(t, `
int main(void) {
    int a[3];
    a[0] = 1;
    a[1] = 2;
    a[2] = 4;
    int *p = a;
    return p[0] + p[1] + p[2];
}
`)
	assertEveryLabelDefinedOnce(t, asm)
	assertHasSectionMarkers(t, asm)
	// Element size 4 scales every subscript computation.
	assert.Contains(t, asm, "imul $4")
}

func TestScenarioStructMemberUsesOffsetAddressing(t *testing.T) {
	asm := compile(t, `
struct P { int x; int y; };
int main(void) {
    struct P p;
    p.x = 3;
    p.y = 4;
    return p.x * p.y;
}
`)
	assertEveryLabelDefinedOnce(t, asm)
	assertHasSectionMarkers(t, asm)
	// y is the second int member, at offset 4 from p's base.
	assert.Contains(t, asm, "4(%rdi)")
	assert.Contains(t, asm, "imul")
}

func TestScenarioSwitchFallthroughSharesBodyBetweenCaseLabels(t *testing.T) {
	asm := compile(t, `
int main(void) {
    int x = 2, s = 0;
    switch (x) {
    case 1: s += 1;
    case 2: s += 2;
    case 3: s += 4; break;
    case 4: s += 100;
    }
    return s;
}
`)
	assertEveryLabelDefinedOnce(t, asm)
	assertHasSectionMarkers(t, asm)
	// Four distinct case-dispatch comparisons against the switch tag, one
	// "sete %al" each.
	matches := regexp.MustCompile(`sete %al`).FindAllString(asm, -1)
	assert.Len(t, matches, 4)
}

func TestScenarioShortCircuitGuardsSecondOperandBehindJump(t *testing.T) {
	f, bag := parser.ParseFile("scenario.c", `
int n;
int f(void) { n++; return 1; }
int main(void) {
    n = 0;
    if (0 && f()) { }
    if (1 || f()) { }
    return n;
}
`)
	require.False(t, bag.HasErrors(), bag.String())
	res := sema.AnalyzeFile(f, bag)
	require.False(t, bag.HasErrors(), bag.String())
	mod := ir.Generate(f, res)

	var main *ir.Function
	for _, fn := range mod.Funcs {
		if fn.Name == "main" {
			main = fn
		}
	}
	require.NotNil(t, main)

	// Both calls to f() must be preceded, somewhere earlier in the same
	// function, by a JZ/JNZ that can skip over them — the defining property
	// of short-circuit evaluation, independent of which branch is taken at
	// runtime.
	sawGuard := false
	for _, ins := range main.Instrs {
		if ins.Op == ir.JZ || ins.Op == ir.JNZ {
			sawGuard = true
		}
		if ins.Op == ir.CALL && ins.Label == "f" {
			assert.True(t, sawGuard, "call to f() not preceded by any conditional jump")
		}
	}
}

func TestScenarioUnsignedRightShiftUsesShrNotSar(t *testing.T) {
	asm := compile(t, `
int main(void) {
    unsigned int x = 0xFFFFFFFFu;
    return (int)(x >> 28);
}
`)
	assertEveryLabelDefinedOnce(t, asm)
	assertHasSectionMarkers(t, asm)
	assert.Contains(t, asm, "shr")
	assert.NotContains(t, asm, "sar")
}

func TestScenarioCallSitesStaySixteenByteAligned(t *testing.T) {
	asm := compile(t, `
int sum7(int a, int b, int c, int d, int e, int f, int g) {
    return a + b + c + d + e + f + g;
}
int main(void) {
    return sum7(1, 2, 3, 4, 5, 6, 7);
}
`)
	assertEveryLabelDefinedOnce(t, asm)
	// One extra (7th) argument pushed: odd count needs the 8-byte pad.
	assert.Contains(t, asm, "sub $8, %rsp")
}
