// Package types models the C type system described in spec.md §3: void,
// signed/unsigned integers at four widths, pointers, arrays, functions,
// struct/union references by tag, and typedef aliases. Struct/union layout
// itself (§3 "Struct/union layout") is computed and stored by the semantic
// analyzer's environment; a Type only carries the tag used to look it up.
package types

import "fmt"

// Kind discriminates the tagged union of type shapes.
type Kind int

const (
	Void Kind = iota
	Int
	Pointer
	Array
	Function
	Struct
	Union
	Typedef
)

// IntWidth is the storage width of an integer type in bits.
type IntWidth int

const (
	Width8  IntWidth = 8
	Width16 IntWidth = 16
	Width32 IntWidth = 32
	Width64 IntWidth = 64
)

// Type is a tagged value. Only the fields relevant to K are meaningful;
// the zero value of the others is ignored.
type Type struct {
	K     Kind
	Const bool

	// Int
	Width    IntWidth
	Unsigned bool

	// Pointer, Array
	Elem *Type

	// Array
	Len        int  // element count when known
	Incomplete bool // true for "int a[];" style incomplete arrays

	// Function
	Ret      *Type
	Params   []*Type
	Variadic bool

	// Struct, Union
	Tag string

	// Typedef
	Name   string
	Target *Type
}

// Convenience constructors matching the canonical C types named in spec.md §3.

func VoidT() *Type { return &Type{K: Void} }

func CharT(unsigned bool) *Type  { return &Type{K: Int, Width: Width8, Unsigned: unsigned} }
func ShortT(unsigned bool) *Type { return &Type{K: Int, Width: Width16, Unsigned: unsigned} }
func IntT(unsigned bool) *Type   { return &Type{K: Int, Width: Width32, Unsigned: unsigned} }
func LongT(unsigned bool) *Type  { return &Type{K: Int, Width: Width64, Unsigned: unsigned} }

func PointerTo(elem *Type) *Type { return &Type{K: Pointer, Elem: elem} }

func ArrayOf(elem *Type, length int) *Type {
	return &Type{K: Array, Elem: elem, Len: length}
}

func IncompleteArrayOf(elem *Type) *Type {
	return &Type{K: Array, Elem: elem, Incomplete: true}
}

func FuncType(ret *Type, params []*Type, variadic bool) *Type {
	return &Type{K: Function, Ret: ret, Params: params, Variadic: variadic}
}

func StructRef(tag string) *Type { return &Type{K: Struct, Tag: tag} }
func UnionRef(tag string) *Type  { return &Type{K: Union, Tag: tag} }

func TypedefAlias(name string, target *Type) *Type {
	return &Type{K: Typedef, Name: name, Target: target}
}

// WithConst returns a copy of t with the const flag set. Types are treated
// as immutable values from the caller's perspective.
func (t *Type) WithConst() *Type {
	cp := *t
	cp.Const = true
	return &cp
}

// Resolve follows typedef aliases until it reaches a non-typedef type.
// Every other query below (IsInt, IsPointer, Size, Equal, ...) resolves
// first so typedef names are transparent to them, per spec.md §3 ("a
// typedef alias (resolved on demand to its target)").
func (t *Type) Resolve() *Type {
	for t != nil && t.K == Typedef {
		t = t.Target
	}
	return t
}

func (t *Type) IsVoid() bool    { return t.Resolve().K == Void }
func (t *Type) IsInt() bool     { return t.Resolve().K == Int }
func (t *Type) IsPointer() bool { return t.Resolve().K == Pointer }
func (t *Type) IsArray() bool   { return t.Resolve().K == Array }
func (t *Type) IsFunc() bool    { return t.Resolve().K == Function }

func (t *Type) IsAggregate() bool {
	k := t.Resolve().K
	return k == Struct || k == Union
}

func (t *Type) IsUnsigned() bool {
	r := t.Resolve()
	return r.K == Int && r.Unsigned
}

func (t *Type) IsSigned() bool {
	r := t.Resolve()
	return r.K == Int && !r.Unsigned
}

// IsScalar reports whether t can appear in a boolean context (§4.4
// short-circuit lowering, §4.3 condition typing): integers and pointers.
func (t *Type) IsScalar() bool {
	r := t.Resolve()
	return r.K == Int || r.K == Pointer
}

// ElemType returns the pointee/element type of a pointer or array, or nil.
func (t *Type) ElemType() *Type {
	r := t.Resolve()
	if r.K == Pointer || r.K == Array {
		return r.Elem
	}
	return nil
}

// DecayToPointer implements "array names decay to pointer-to-element in
// expression context except as operand of sizeof or unary &" (spec.md §4.3).
func (t *Type) DecayToPointer() *Type {
	r := t.Resolve()
	if r.K == Array {
		return PointerTo(r.Elem)
	}
	return t
}

// Size returns the type's size in bytes on the x86-64 SysV target. Struct
// and union sizes depend on layout stored in the semantic environment
// (keyed by Tag); Size panics for those kinds so a caller never silently
// falls back to a wrong default — it must go through the environment.
func (t *Type) Size() int {
	r := t.Resolve()
	switch r.K {
	case Void:
		return 0
	case Int:
		return int(r.Width) / 8
	case Pointer:
		return 8
	case Array:
		if r.Incomplete {
			return 0
		}
		return r.Elem.Size() * r.Len
	case Function:
		return 0
	default:
		panic(fmt.Sprintf("types: Size() called on %v; use the environment's layout table", r.K))
	}
}

// Align returns the natural alignment of t: 1/2/4/8 for char/short/int/
// long and pointer, matching spec.md §3's struct-layout rule. Like Size,
// struct/union alignment must come from the layout table.
func (t *Type) Align() int {
	r := t.Resolve()
	switch r.K {
	case Int:
		return int(r.Width) / 8
	case Pointer:
		return 8
	case Array:
		return r.Elem.Align()
	default:
		return 8
	}
}

// Equal implements the "structural after resolving typedefs" equality rule
// from spec.md §3. const is ignored: it qualifies an object, not the
// value's shape, so two otherwise-identical types with different const
// flags are still the same Type for conversion/promotion purposes.
func Equal(a, b *Type) bool {
	a, b = a.Resolve(), b.Resolve()
	if a == nil || b == nil {
		return a == b
	}
	if a.K != b.K {
		return false
	}
	switch a.K {
	case Void:
		return true
	case Int:
		return a.Width == b.Width && a.Unsigned == b.Unsigned
	case Pointer:
		return Equal(a.Elem, b.Elem)
	case Array:
		return Equal(a.Elem, b.Elem) && (a.Incomplete || b.Incomplete || a.Len == b.Len)
	case Function:
		if a.Variadic != b.Variadic || len(a.Params) != len(b.Params) || !Equal(a.Ret, b.Ret) {
			return false
		}
		for i := range a.Params {
			if !Equal(a.Params[i], b.Params[i]) {
				return false
			}
		}
		return true
	case Struct, Union:
		return a.Tag == b.Tag
	default:
		return false
	}
}

func (t *Type) String() string {
	if t == nil {
		return "<nil>"
	}
	switch t.K {
	case Void:
		return "void"
	case Int:
		s := "signed"
		if t.Unsigned {
			s = "unsigned"
		}
		switch t.Width {
		case Width8:
			return s + " char"
		case Width16:
			return s + " short"
		case Width32:
			if t.Unsigned {
				return "unsigned int"
			}
			return "int"
		default:
			if t.Unsigned {
				return "unsigned long"
			}
			return "long"
		}
	case Pointer:
		return t.Elem.String() + " *"
	case Array:
		if t.Incomplete {
			return t.Elem.String() + " []"
		}
		return fmt.Sprintf("%s [%d]", t.Elem.String(), t.Len)
	case Function:
		return "function returning " + t.Ret.String()
	case Struct:
		return "struct " + t.Tag
	case Union:
		return "union " + t.Tag
	case Typedef:
		return t.Name
	default:
		return "?"
	}
}

// Common canonical instances used throughout semantic analysis for the
// usual arithmetic conversions (spec.md §4.3).
var (
	IntTy   = IntT(false)
	UIntTy  = IntT(true)
	LongTy  = LongT(false)
	ULongTy = LongT(true)
	CharTy  = CharT(false)
	ShortTy = ShortT(false)
)
