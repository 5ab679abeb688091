package sema

import "cc89/internal/types"

// sizeOfWith and alignOfWith extend types.Type.Size/Align to struct/union
// kinds by consulting the environment's layout table, since spec.md §3
// stores aggregate layout in "the semantic environment", not on the Type
// itself (types.Type.Size panics for Struct/Union to enforce that split).
// SizeOf and AlignOf are the exported forms of sizeOfWith/alignOfWith, for
// use by internal/ir once analysis is done and
// only a *Result (no live Checker) is in hand.
func SizeOf(res *Result, t *types.Type) int  { return sizeOfWith(res, t) }
func AlignOf(res *Result, t *types.Type) int { return alignOfWith(res, t) }

func sizeOfWith(res *Result, t *types.Type) int {
	r := t.Resolve()
	if r.K == types.Struct || r.K == types.Union {
		if l, ok := res.Layouts[r.Tag]; ok {
			return l.Size
		}
		return 0
	}
	return t.Size()
}

func alignOfWith(res *Result, t *types.Type) int {
	r := t.Resolve()
	if r.K == types.Struct || r.K == types.Union {
		if l, ok := res.Layouts[r.Tag]; ok {
			return l.Align
		}
		return 1
	}
	return t.Align()
}

// truncateToType masks x to the width of t, per the load/store truncation
// rule in spec.md §4.5, and sign-extends back if t is signed so a folded
// constant behaves like the runtime cast it stands in for.
func truncateToType(x int64, t *types.Type) int64 {
	r := t.Resolve()
	if !r.IsInt() {
		return x
	}
	bits := uint(r.Width)
	if bits >= 64 {
		return x
	}
	mask := int64(1)<<bits - 1
	v := x & mask
	if !r.Unsigned && v&(int64(1)<<(bits-1)) != 0 {
		v |= ^mask
	}
	return v
}
