package sema

import "cc89/internal/ast"

// Fold evaluates e as an integer constant expression, per spec.md §4.4
// "Constant folding (sole optimization)" and §4.3's requirement that
// sizeof, array sizes, and case constants reduce to a literal. It handles
// literals, unary +/-/!/~, binary arithmetic/bitwise/comparison/logical
// operators on constant operands, casts between integer types, and sizeof
// (using res's struct/union layouts for aggregate sizes). It reports false
// when e is not a compile-time constant.
func Fold(res *Result, e ast.Expr) (int64, bool) {
	switch e := e.(type) {
	case *ast.IntLit:
		return int64(e.Value), true
	case *ast.CharLit:
		return e.Value, true
	case *ast.UnaryExpr:
		x, ok := Fold(res, e.X)
		if !ok {
			return 0, false
		}
		switch e.Op {
		case ast.OpPos:
			return x, true
		case ast.OpNeg:
			return -x, true
		case ast.OpNot:
			if x == 0 {
				return 1, true
			}
			return 0, true
		case ast.OpBNot:
			return ^x, true
		default:
			return 0, false
		}
	case *ast.BinaryExpr:
		l, ok := Fold(res, e.Left)
		if !ok {
			return 0, false
		}
		r, ok := Fold(res, e.Right)
		if !ok {
			return 0, false
		}
		return foldBinOp(e.Op, l, r)
	case *ast.CondExpr:
		cond, ok := Fold(res, e.Cond)
		if !ok {
			return 0, false
		}
		if cond != 0 {
			return Fold(res, e.Then)
		}
		return Fold(res, e.Else)
	case *ast.CastExpr:
		x, ok := Fold(res, e.X)
		if !ok {
			return 0, false
		}
		return truncateToType(x, e.Target), true
	case *ast.SizeofExpr:
		if e.OfType != nil {
			return int64(sizeOfWith(res, e.OfType)), true
		}
		if e.OfExpr != nil && e.OfExpr.ExprType() != nil {
			return int64(sizeOfWith(res, e.OfExpr.ExprType())), true
		}
		return 0, false
	case *ast.Ident:
		if v, ok := res.EnumConsts[e.Name]; ok {
			return v, true
		}
		return 0, false
	default:
		return 0, false
	}
}

func foldBinOp(op ast.BinOp, l, r int64) (int64, bool) {
	switch op {
	case ast.OpAdd:
		return l + r, true
	case ast.OpSub:
		return l - r, true
	case ast.OpMul:
		return l * r, true
	case ast.OpDiv:
		if r == 0 {
			return 0, false
		}
		return l / r, true
	case ast.OpMod:
		if r == 0 {
			return 0, false
		}
		return l % r, true
	case ast.OpAnd:
		return l & r, true
	case ast.OpOr:
		return l | r, true
	case ast.OpXor:
		return l ^ r, true
	case ast.OpShl:
		return l << uint64(r), true
	case ast.OpShr:
		return l >> uint64(r), true
	case ast.OpLt:
		return boolInt(l < r), true
	case ast.OpLe:
		return boolInt(l <= r), true
	case ast.OpGt:
		return boolInt(l > r), true
	case ast.OpGe:
		return boolInt(l >= r), true
	case ast.OpEq:
		return boolInt(l == r), true
	case ast.OpNe:
		return boolInt(l != r), true
	case ast.OpLAnd:
		return boolInt(l != 0 && r != 0), true
	case ast.OpLOr:
		return boolInt(l != 0 || r != 0), true
	default:
		return 0, false
	}
}

func boolInt(b bool) int64 {
	if b {
		return 1
	}
	return 0
}
