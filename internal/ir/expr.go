package ir

import (
	"cc89/internal/ast"
	"cc89/internal/sema"
	"cc89/internal/types"
)

// expr lowers e post-order, per spec.md §4.4's "per-expression lowering is
// a post-order walk that returns an operand denoting where the value
// lives" — here an Operand instead of the source's string name. Reading a
// plain identifier needs no LOAD: it already names its own storage, and the
// backend resolves a local/global operand to its slot whenever it is used.
// LOAD/LOAD_INDEX/LOAD_MEMBER are only emitted where the value comes from a
// computed address (*p, a[i], s.m) rather than from a name.
func (b *builder) expr(e ast.Expr) Operand {
	switch e := e.(type) {
	case *ast.IntLit:
		return ImmOp(int64(e.Value))
	case *ast.CharLit:
		return ImmOp(e.Value)
	case *ast.StringLit:
		dst := b.newTemp()
		b.emit(Instr{Op: LEA, Dst: dst, Src: GlobalOp(e.Label, 1, true)})
		return dst
	case *ast.Ident:
		return b.identValue(e)
	case *ast.BinaryExpr:
		return b.binary(e)
	case *ast.UnaryExpr:
		return b.unary(e)
	case *ast.AssignExpr:
		return b.assign(e)
	case *ast.CondExpr:
		return b.cond(e)
	case *ast.CallExpr:
		return b.call(e)
	case *ast.IndexExpr:
		base := b.pointerValue(e.Base)
		idx := b.expr(e.Index)
		dst := b.newTemp()
		b.emit(Instr{Op: LOAD_INDEX, Dst: dst, Src: base, Src2: idx, Width: widthOf(b.res, e.ExprType()), Unsigned: e.ExprType().IsUnsigned()})
		return dst
	case *ast.MemberExpr:
		addr := b.memberBaseAddr(e)
		dst := b.newTemp()
		b.emit(Instr{Op: LOAD_MEMBER, Dst: dst, Src: addr, Offset: b.memberOffset(e), Width: widthOf(b.res, e.ExprType()), Unsigned: e.ExprType().IsUnsigned()})
		return dst
	case *ast.CastExpr:
		return b.cast(e)
	case *ast.SizeofExpr:
		if v, ok := sema.Fold(b.res, e); ok {
			return ImmOp(v)
		}
		return ImmOp(0)
	case *ast.CommaExpr:
		b.expr(e.Left)
		return b.expr(e.Right)
	}
	return Operand{}
}

// identValue resolves a name use: an enum constant lowers to its integer
// value, a function name to its address (for a function-pointer value, not
// a direct call — CallExpr handles the call case itself), an array-typed
// local/global decays to its own address, and a scalar reads straight from
// its named slot.
func (b *builder) identValue(e *ast.Ident) Operand {
	sym := b.res.Uses[e]
	if sym == nil {
		return ImmOp(0)
	}
	switch sym.Kind {
	case sema.SymEnumConst:
		return ImmOp(sym.EnumValue)
	case sema.SymFunc:
		dst := b.newTemp()
		b.emit(Instr{Op: LEA, Dst: dst, Src: GlobalOp(e.Name, 8, false)})
		return dst
	default:
		loc := b.operandForSymbol(sym, e.Name)
		if e.ExprType().IsArray() {
			dst := b.newTemp()
			b.emit(Instr{Op: LEA, Dst: dst, Src: loc})
			return dst
		}
		return loc
	}
}

func (b *builder) operandForSymbol(sym *sema.Symbol, name string) Operand {
	if sym.IsGlobal {
		return b.globalOp(name, sym.Type)
	}
	return b.localOp(name, sym.Type)
}

// pointerValue produces the pointer-sized value e denotes when used as a
// subscript/deref base: an array decays to its address, a pointer yields
// its stored value.
func (b *builder) pointerValue(e ast.Expr) Operand {
	if e.ExprType().IsArray() {
		return b.lvalueAddr(e)
	}
	return b.expr(e)
}

// lvalueAddr computes the address of an lvalue without reading through it,
// for unary & and for the base of a compound/aggregate store.
func (b *builder) lvalueAddr(e ast.Expr) Operand {
	switch x := e.(type) {
	case *ast.Ident:
		sym := b.res.Uses[x]
		if sym == nil {
			return ImmOp(0)
		}
		dst := b.newTemp()
		b.emit(Instr{Op: LEA, Dst: dst, Src: b.operandForSymbol(sym, x.Name)})
		return dst
	case *ast.UnaryExpr:
		if x.Op == ast.OpDeref {
			// &*p == p: no load needed, just the pointer value itself.
			return b.expr(x.X)
		}
	case *ast.IndexExpr:
		return b.indexAddr(x)
	case *ast.MemberExpr:
		base := b.memberBaseAddr(x)
		off := b.memberOffset(x)
		if off == 0 {
			return base
		}
		dst := b.newTemp()
		b.emit(Instr{Op: BINOP, Dst: dst, BinOp: Add, Src: base, Src2: ImmOp(int64(off)), Width: 8})
		return dst
	}
	return b.expr(e)
}

// indexAddr computes &base[idx] = base + idx*elem_size as pointer
// arithmetic; there is no dedicated "index address" opcode since &a[i] is
// rare next to plain reads/writes through LOAD_INDEX/STORE_INDEX.
func (b *builder) indexAddr(e *ast.IndexExpr) Operand {
	base := b.pointerValue(e.Base)
	idx := b.expr(e.Index)
	elemSize := sizeOf(b.res, e.ExprType())
	scaled := idx
	if elemSize != 1 {
		scaled = b.newTemp()
		b.emit(Instr{Op: BINOP, Dst: scaled, BinOp: Mul, Src: idx, Src2: ImmOp(int64(elemSize)), Width: 8})
	}
	dst := b.newTemp()
	b.emit(Instr{Op: BINOP, Dst: dst, BinOp: Add, Src: base, Src2: scaled, Width: 8})
	return dst
}

// memberBaseAddr returns the address a LOAD_MEMBER/STORE_MEMBER should add
// Offset to: s->m's base is already a pointer value, s.m's base must have
// its address taken first.
func (b *builder) memberBaseAddr(e *ast.MemberExpr) Operand {
	if e.Arrow {
		return b.expr(e.Base)
	}
	return b.lvalueAddr(e.Base)
}

func (b *builder) memberOffset(e *ast.MemberExpr) int {
	baseTy := e.Base.ExprType()
	if e.Arrow {
		baseTy = baseTy.DecayToPointer().ElemType()
	}
	r := baseTy.Resolve()
	layout := b.res.Layouts[r.Tag]
	if layout == nil {
		return 0
	}
	m := layout.MemberByName(e.Name)
	if m == nil {
		return 0
	}
	return m.Offset
}

func mapBinOp(op ast.BinOp) BinOp {
	switch op {
	case ast.OpAdd:
		return Add
	case ast.OpSub:
		return Sub
	case ast.OpMul:
		return Mul
	case ast.OpDiv:
		return Div
	case ast.OpMod:
		return Mod
	case ast.OpAnd:
		return And
	case ast.OpOr:
		return Or
	case ast.OpXor:
		return Xor
	case ast.OpShl:
		return Shl
	case ast.OpShr:
		return Shr
	case ast.OpLt:
		return Lt
	case ast.OpLe:
		return Le
	case ast.OpGt:
		return Gt
	case ast.OpGe:
		return Ge
	case ast.OpEq:
		return Eq
	case ast.OpNe:
		return Ne
	default:
		return Add
	}
}

// binary lowers every BinaryExpr except && and ||, which never reach a
// BINOP (spec.md §4.4 lowers them as short-circuit control flow).
func (b *builder) binary(e *ast.BinaryExpr) Operand {
	switch e.Op {
	case ast.OpLAnd:
		return b.land(e)
	case ast.OpLOr:
		return b.lor(e)
	}
	lt, rt := e.Left.ExprType(), e.Right.ExprType()
	ld, rd := lt.DecayToPointer(), rt.DecayToPointer()
	if (e.Op == ast.OpAdd || e.Op == ast.OpSub) && (ld.IsPointer() || rd.IsPointer()) {
		return b.pointerArith(e.Op, e.Left, e.Right, ld, rd)
	}
	l := b.expr(e.Left)
	r := b.expr(e.Right)
	var width int
	var unsigned bool
	switch {
	case ld.IsPointer() || rd.IsPointer():
		// Pointer (in)equality/ordering: compare the full 8-byte address,
		// treated as unsigned per C's pointer-comparison convention.
		width, unsigned = 8, true
	case e.Op == ast.OpShl || e.Op == ast.OpShr:
		opTy := types.Promote(lt)
		width, unsigned = widthOf(b.res, opTy), opTy.IsUnsigned()
	default:
		opTy := types.UsualArithmeticConversions(lt, rt)
		width, unsigned = widthOf(b.res, opTy), opTy.IsUnsigned()
	}
	dst := b.newTemp()
	b.emit(Instr{Op: BINOP, Dst: dst, BinOp: mapBinOp(e.Op), Src: l, Src2: r,
		Unsigned: unsigned, Width: width})
	return dst
}

// pointerArith implements pointer + integer, integer + pointer, and
// pointer - pointer per spec.md §4.3: the integer side is scaled by the
// pointee size, and a pointer difference is divided back down by it.
func (b *builder) pointerArith(op ast.BinOp, left, right ast.Expr, ld, rd *types.Type) Operand {
	if ld.IsPointer() && rd.IsPointer() {
		l := b.pointerValue(left)
		r := b.pointerValue(right)
		diff := b.newTemp()
		b.emit(Instr{Op: BINOP, Dst: diff, BinOp: Sub, Src: l, Src2: r, Width: 8})
		elemSize := sizeOf(b.res, ld.ElemType())
		if elemSize <= 1 {
			return diff
		}
		out := b.newTemp()
		b.emit(Instr{Op: BINOP, Dst: out, BinOp: Div, Src: diff, Src2: ImmOp(int64(elemSize)), Width: 8})
		return out
	}
	var ptrOperand, intOperand Operand
	var elemTy *types.Type
	if ld.IsPointer() {
		ptrOperand = b.pointerValue(left)
		intOperand = b.expr(right)
		elemTy = ld.ElemType()
	} else {
		intOperand = b.expr(left)
		ptrOperand = b.pointerValue(right)
		elemTy = rd.ElemType()
	}
	elemSize := sizeOf(b.res, elemTy)
	scaled := intOperand
	if elemSize != 1 {
		scaled = b.newTemp()
		b.emit(Instr{Op: BINOP, Dst: scaled, BinOp: Mul, Src: intOperand, Src2: ImmOp(int64(elemSize)), Width: 8})
	}
	bop := Add
	if op == ast.OpSub {
		bop = Sub
	}
	dst := b.newTemp()
	b.emit(Instr{Op: BINOP, Dst: dst, BinOp: bop, Src: ptrOperand, Src2: scaled, Width: 8})
	return dst
}

// land/lor implement short-circuit && and || by branching around the
// right-hand side, per spec.md §4.4's exact label sequence: evaluate left,
// skip right if it already decides the result, normalize whichever operand
// decided it to 0/1, otherwise evaluate and normalize right.
func (b *builder) land(e *ast.BinaryExpr) Operand {
	lFalse := b.uniqueLabel("andf")
	lEnd := b.uniqueLabel("andend")
	result := b.newTemp()
	l := b.expr(e.Left)
	b.jz(l, lFalse)
	r := b.expr(e.Right)
	b.jz(r, lFalse)
	b.emit(Instr{Op: MOV, Dst: result, Src: ImmOp(1), Width: 4})
	b.jmp(lEnd)
	b.label(lFalse)
	b.emit(Instr{Op: MOV, Dst: result, Src: ImmOp(0), Width: 4})
	b.label(lEnd)
	return result
}

func (b *builder) lor(e *ast.BinaryExpr) Operand {
	lTrue := b.uniqueLabel("ort")
	lEnd := b.uniqueLabel("orend")
	result := b.newTemp()
	l := b.expr(e.Left)
	b.jnz(l, lTrue)
	r := b.expr(e.Right)
	b.jnz(r, lTrue)
	b.emit(Instr{Op: MOV, Dst: result, Src: ImmOp(0), Width: 4})
	b.jmp(lEnd)
	b.label(lTrue)
	b.emit(Instr{Op: MOV, Dst: result, Src: ImmOp(1), Width: 4})
	b.label(lEnd)
	return result
}

// cond lowers the ternary operator with the same branch-and-join shape as
// an if/else, evaluating only the taken arm (spec.md §4.4).
func (b *builder) cond(e *ast.CondExpr) Operand {
	lElse := b.uniqueLabel("condelse")
	lEnd := b.uniqueLabel("condend")
	result := b.newTemp()
	c := b.expr(e.Cond)
	b.jz(c, lElse)
	thenV := b.expr(e.Then)
	b.emit(Instr{Op: MOV, Dst: result, Src: thenV, Width: widthOf(b.res, e.ExprType())})
	b.jmp(lEnd)
	b.label(lElse)
	elseV := b.expr(e.Else)
	b.emit(Instr{Op: MOV, Dst: result, Src: elseV, Width: widthOf(b.res, e.ExprType())})
	b.label(lEnd)
	return result
}

func (b *builder) unary(e *ast.UnaryExpr) Operand {
	switch e.Op {
	case ast.OpPos:
		return b.expr(e.X)
	case ast.OpAddr:
		return b.lvalueAddr(e.X)
	case ast.OpDeref:
		addr := b.expr(e.X)
		dst := b.newTemp()
		b.emit(Instr{Op: LOAD, Dst: dst, Src: addr, Width: widthOf(b.res, e.ExprType()), Unsigned: e.ExprType().IsUnsigned()})
		return dst
	case ast.OpNot:
		x := b.expr(e.X)
		dst := b.newTemp()
		b.emit(Instr{Op: UNOP, Dst: dst, UnOp: Not, Src: x, Width: 4})
		return dst
	case ast.OpNeg:
		x := b.expr(e.X)
		dst := b.newTemp()
		b.emit(Instr{Op: UNOP, Dst: dst, UnOp: Neg, Src: x, Width: widthOf(b.res, e.ExprType())})
		return dst
	case ast.OpBNot:
		x := b.expr(e.X)
		dst := b.newTemp()
		b.emit(Instr{Op: UNOP, Dst: dst, UnOp: BNot, Src: x, Width: widthOf(b.res, e.ExprType())})
		return dst
	case ast.OpPreInc, ast.OpPreDec, ast.OpPostInc, ast.OpPostDec:
		return b.incDec(e)
	}
	return Operand{}
}

// incDec lowers ++/-- (pre and post, prefix and suffix) as a load, a
// pointer-scaled or plain +-1 binop, and a store, returning the old value
// for a postfix form and the new value for a prefix form.
func (b *builder) incDec(e *ast.UnaryExpr) Operand {
	old := b.expr(e.X)
	ty := e.X.ExprType()
	one := ImmOp(1)
	if ty.IsPointer() {
		one = ImmOp(int64(sizeOf(b.res, ty.ElemType())))
	}
	bop := Add
	if e.Op == ast.OpPreDec || e.Op == ast.OpPostDec {
		bop = Sub
	}
	updated := b.newTemp()
	b.emit(Instr{Op: BINOP, Dst: updated, BinOp: bop, Src: old, Src2: one,
		Unsigned: ty.IsUnsigned(), Width: widthOf(b.res, ty)})
	b.storeLValue(e.X, updated)
	if e.Op == ast.OpPreInc || e.Op == ast.OpPreDec {
		return updated
	}
	return old
}

func mapAssignOp(op ast.AssignOp) BinOp {
	switch op {
	case ast.AssignAdd:
		return Add
	case ast.AssignSub:
		return Sub
	case ast.AssignMul:
		return Mul
	case ast.AssignDiv:
		return Div
	case ast.AssignMod:
		return Mod
	case ast.AssignAnd:
		return And
	case ast.AssignOr:
		return Or
	case ast.AssignXor:
		return Xor
	case ast.AssignShl:
		return Shl
	case ast.AssignShr:
		return Shr
	default:
		return Add
	}
}

// assign lowers "=" and the compound assignment operators. Compound
// assignment's pointer +=/-= still needs the pointee-size scaling that
// plain BINOP lowering does for +/-, so it is special-cased rather than
// reusing mapAssignOp directly for pointer targets.
func (b *builder) assign(e *ast.AssignExpr) Operand {
	if e.Op == ast.AssignPlain {
		v := b.expr(e.Right)
		b.storeLValue(e.Left, v)
		return v
	}
	lty := e.Left.ExprType()
	old := b.expr(e.Left)
	if lty.IsPointer() && (e.Op == ast.AssignAdd || e.Op == ast.AssignSub) {
		rhs := b.expr(e.Right)
		elemSize := sizeOf(b.res, lty.ElemType())
		scaled := rhs
		if elemSize != 1 {
			scaled = b.newTemp()
			b.emit(Instr{Op: BINOP, Dst: scaled, BinOp: Mul, Src: rhs, Src2: ImmOp(int64(elemSize)), Width: 8})
		}
		bop := Add
		if e.Op == ast.AssignSub {
			bop = Sub
		}
		updated := b.newTemp()
		b.emit(Instr{Op: BINOP, Dst: updated, BinOp: bop, Src: old, Src2: scaled, Width: 8})
		b.storeLValue(e.Left, updated)
		return updated
	}
	rhs := b.expr(e.Right)
	updated := b.newTemp()
	b.emit(Instr{Op: BINOP, Dst: updated, BinOp: mapAssignOp(e.Op), Src: old, Src2: rhs,
		Unsigned: lty.IsUnsigned(), Width: widthOf(b.res, lty)})
	b.storeLValue(e.Left, updated)
	return updated
}

// storeLValue writes v to the storage e denotes: a direct MOV for a simple
// named local/global, STORE/STORE_INDEX/STORE_MEMBER through a computed
// address otherwise.
func (b *builder) storeLValue(e ast.Expr, v Operand) {
	switch lhs := e.(type) {
	case *ast.Ident:
		sym := b.res.Uses[lhs]
		if sym == nil {
			return
		}
		b.emit(Instr{Op: MOV, Dst: b.operandForSymbol(sym, lhs.Name), Src: v, Width: widthOf(b.res, lhs.ExprType())})
	case *ast.UnaryExpr: // OpDeref, the only lvalue-producing unary form
		addr := b.expr(lhs.X)
		b.emit(Instr{Op: STORE, Dst: addr, Src: v, Width: widthOf(b.res, lhs.ExprType())})
	case *ast.IndexExpr:
		base := b.pointerValue(lhs.Base)
		idx := b.expr(lhs.Index)
		b.emit(Instr{Op: STORE_INDEX, Dst: base, Src2: idx, Src3: v, Width: widthOf(b.res, lhs.ExprType())})
	case *ast.MemberExpr:
		addr := b.memberBaseAddr(lhs)
		off := b.memberOffset(lhs)
		b.emit(Instr{Op: STORE_MEMBER, Dst: addr, Src: v, Offset: off, Width: widthOf(b.res, lhs.ExprType())})
	}
}

// call lowers arguments left to right as PARAM instructions immediately
// before CALL, per spec.md §4.4; the result is only meaningful when the
// call's value is used, but a temp is always allocated so RET/assignment
// can consume it uniformly.
func (b *builder) call(e *ast.CallExpr) Operand {
	name := ""
	if id, ok := e.Callee.(*ast.Ident); ok {
		name = id.Name
	}
	args := make([]Operand, len(e.Args))
	for i, a := range e.Args {
		args[i] = b.expr(a)
	}
	for _, a := range args {
		b.emit(Instr{Op: PARAM, Src: a})
	}
	dst := b.newTemp()
	if name != "" {
		b.emit(Instr{Op: CALL, Dst: dst, Label: name, ArgCount: len(args)})
		return dst
	}
	// Call through a function pointer: Src carries the callee's address.
	callee := b.expr(e.Callee)
	b.emit(Instr{Op: CALL, Dst: dst, Src: callee, ArgCount: len(args)})
	return dst
}

// cast lowers a C cast as a truncate/extend on load: the operand is
// computed at its natural width/signedness and the destination temp
// records the cast-to width, which the backend uses to mask or
// sign/zero-extend (spec.md §4.5 "truncation on stores, extension on
// loads").
func (b *builder) cast(e *ast.CastExpr) Operand {
	x := b.expr(e.X)
	if e.Target.IsVoid() {
		return Operand{}
	}
	dst := b.newTemp()
	b.emit(Instr{Op: MOV, Dst: dst, Src: x, Width: widthOf(b.res, e.Target), Unsigned: e.Target.IsUnsigned()})
	return dst
}
