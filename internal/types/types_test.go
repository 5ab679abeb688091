package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResolveFollowsTypedefChain(t *testing.T) {
	base := IntT(false)
	alias1 := TypedefAlias("myint", base)
	alias2 := TypedefAlias("myint2", alias1)
	assert.Same(t, base, alias2.Resolve())
}

func TestDecayToPointerOnArray(t *testing.T) {
	arr := ArrayOf(IntT(false), 10)
	p := arr.DecayToPointer()
	assert.True(t, p.IsPointer())
	assert.True(t, Equal(p.ElemType(), IntT(false)))
}

func TestDecayToPointerLeavesNonArrayUnchanged(t *testing.T) {
	i := IntT(false)
	assert.Same(t, i, i.DecayToPointer())
}

func TestSizeOfIntegerWidths(t *testing.T) {
	assert.Equal(t, 1, CharT(false).Size())
	assert.Equal(t, 2, ShortT(false).Size())
	assert.Equal(t, 4, IntT(false).Size())
	assert.Equal(t, 8, LongT(false).Size())
	assert.Equal(t, 8, PointerTo(IntT(false)).Size())
}

func TestSizePanicsForStructWithoutLayout(t *testing.T) {
	assert.Panics(t, func() { StructRef("Point").Size() })
}

func TestPromoteWidensSubIntTypes(t *testing.T) {
	assert.True(t, Equal(Promote(CharT(false)), IntTy))
	assert.True(t, Equal(Promote(ShortT(true)), IntTy))
	assert.True(t, Equal(Promote(LongT(false)), LongTy))
}

func TestUsualArithmeticConversionsPrefersWiderAndUnsigned(t *testing.T) {
	assert.True(t, Equal(UsualArithmeticConversions(IntT(false), IntT(true)), UIntTy))
	assert.True(t, Equal(UsualArithmeticConversions(IntT(false), LongT(false)), LongTy))
	assert.True(t, Equal(UsualArithmeticConversions(LongT(false), LongT(true)), ULongTy))
	assert.True(t, Equal(UsualArithmeticConversions(IntT(false), IntT(false)), IntTy))
}

func TestEqualIgnoresConstQualifier(t *testing.T) {
	a := IntT(false)
	b := IntT(false).WithConst()
	assert.True(t, Equal(a, b))
}

func TestEqualDistinguishesSignedness(t *testing.T) {
	assert.False(t, Equal(IntT(false), IntT(true)))
}

func TestIsNarrowingComparesRank(t *testing.T) {
	assert.True(t, IsNarrowing(CharT(false), IntT(false)))
	assert.False(t, IsNarrowing(LongT(false), IntT(false)))
	assert.False(t, IsNarrowing(IntT(false), IntT(false)))
}

func TestIsScalarAcceptsIntAndPointerOnly(t *testing.T) {
	assert.True(t, IntT(false).IsScalar())
	assert.True(t, PointerTo(IntT(false)).IsScalar())
	assert.False(t, VoidT().IsScalar())
}
