package parser

import (
	"cc89/internal/ast"
	"cc89/internal/lexer"
	"cc89/internal/types"
)

// parseExpr parses the comma operator, the lowest-precedence level of the
// 15 C89 levels named in spec.md §4.2.
func (p *Parser) parseExpr() (ast.Expr, bool) {
	left, ok := p.parseAssignExpr()
	if !ok {
		return nil, false
	}
	for {
		pos := ast.Pos{Line: p.tok.Line, Col: p.tok.Col}
		if _, ok := p.accept(lexer.COMMA); !ok {
			return left, true
		}
		right, ok := p.parseAssignExpr()
		if !ok {
			return nil, false
		}
		left = &ast.CommaExpr{Typed: ast.NewTyped(pos.Line, pos.Col), Left: left, Right: right}
	}
}

var assignOps = map[lexer.TokenType]ast.AssignOp{
	lexer.ASSIGN:     ast.AssignPlain,
	lexer.PLUS_EQ:    ast.AssignAdd,
	lexer.MINUS_EQ:   ast.AssignSub,
	lexer.STAR_EQ:    ast.AssignMul,
	lexer.SLASH_EQ:   ast.AssignDiv,
	lexer.PERCENT_EQ: ast.AssignMod,
	lexer.AMP_EQ:     ast.AssignAnd,
	lexer.PIPE_EQ:    ast.AssignOr,
	lexer.CARET_EQ:   ast.AssignXor,
	lexer.SHL_EQ:     ast.AssignShl,
	lexer.SHR_EQ:     ast.AssignShr,
}

// parseAssignExpr parses "unary-expr assignment-op assignment-expr" or falls
// through to the conditional-expression level. Like the reference grammar,
// it does not verify the left operand is an lvalue at parse time; that is a
// semantic-analysis check (spec.md §4.3).
func (p *Parser) parseAssignExpr() (ast.Expr, bool) {
	left, ok := p.parseCondExpr()
	if !ok {
		return nil, false
	}
	op, isAssign := assignOps[p.tok.Type]
	if !isAssign {
		return left, true
	}
	pos := ast.Pos{Line: p.tok.Line, Col: p.tok.Col}
	p.advance()
	right, ok := p.parseAssignExpr()
	if !ok {
		return nil, false
	}
	return &ast.AssignExpr{Typed: ast.NewTyped(pos.Line, pos.Col), Op: op, Left: left, Right: right}, true
}

// parseCondExpr parses the ternary "cond ? then : else" level.
func (p *Parser) parseCondExpr() (ast.Expr, bool) {
	cond, ok := p.parseLOrExpr()
	if !ok {
		return nil, false
	}
	pos := ast.Pos{Line: p.tok.Line, Col: p.tok.Col}
	if _, ok := p.accept(lexer.QMARK); !ok {
		return cond, true
	}
	then, ok := p.parseExpr()
	if !ok {
		return nil, false
	}
	if _, ok := p.expect(lexer.COLON); !ok {
		return nil, false
	}
	els, ok := p.parseCondExpr()
	if !ok {
		return nil, false
	}
	return &ast.CondExpr{Typed: ast.NewTyped(pos.Line, pos.Col), Cond: cond, Then: then, Else: els}, true
}

// binLevel is one entry in the left-associative binary-operator precedence
// table walked by parseBinaryLevel.
type binLevel struct {
	toks map[lexer.TokenType]ast.BinOp
	next func(*Parser) (ast.Expr, bool)
}

func (p *Parser) parseBinaryLevel(l binLevel) (ast.Expr, bool) {
	left, ok := l.next(p)
	if !ok {
		return nil, false
	}
	for {
		op, isOp := l.toks[p.tok.Type]
		if !isOp {
			return left, true
		}
		pos := ast.Pos{Line: p.tok.Line, Col: p.tok.Col}
		p.advance()
		right, ok := l.next(p)
		if !ok {
			return nil, false
		}
		left = &ast.BinaryExpr{Typed: ast.NewTyped(pos.Line, pos.Col), Op: op, Left: left, Right: right}
	}
}

func (p *Parser) parseLOrExpr() (ast.Expr, bool) {
	return p.parseBinaryLevel(binLevel{map[lexer.TokenType]ast.BinOp{lexer.OROR: ast.OpLOr}, (*Parser).parseLAndExpr})
}

func (p *Parser) parseLAndExpr() (ast.Expr, bool) {
	return p.parseBinaryLevel(binLevel{map[lexer.TokenType]ast.BinOp{lexer.ANDAND: ast.OpLAnd}, (*Parser).parseOrExpr})
}

func (p *Parser) parseOrExpr() (ast.Expr, bool) {
	return p.parseBinaryLevel(binLevel{map[lexer.TokenType]ast.BinOp{lexer.PIPE: ast.OpOr}, (*Parser).parseXorExpr})
}

func (p *Parser) parseXorExpr() (ast.Expr, bool) {
	return p.parseBinaryLevel(binLevel{map[lexer.TokenType]ast.BinOp{lexer.CARET: ast.OpXor}, (*Parser).parseAndExpr})
}

func (p *Parser) parseAndExpr() (ast.Expr, bool) {
	return p.parseBinaryLevel(binLevel{map[lexer.TokenType]ast.BinOp{lexer.AMP: ast.OpAnd}, (*Parser).parseEqExpr})
}

func (p *Parser) parseEqExpr() (ast.Expr, bool) {
	return p.parseBinaryLevel(binLevel{map[lexer.TokenType]ast.BinOp{lexer.EQEQ: ast.OpEq, lexer.NEQ: ast.OpNe}, (*Parser).parseRelExpr})
}

func (p *Parser) parseRelExpr() (ast.Expr, bool) {
	toks := map[lexer.TokenType]ast.BinOp{lexer.LT: ast.OpLt, lexer.LE: ast.OpLe, lexer.GT: ast.OpGt, lexer.GE: ast.OpGe}
	return p.parseBinaryLevel(binLevel{toks, (*Parser).parseShiftExpr})
}

func (p *Parser) parseShiftExpr() (ast.Expr, bool) {
	toks := map[lexer.TokenType]ast.BinOp{lexer.SHL: ast.OpShl, lexer.SHR: ast.OpShr}
	return p.parseBinaryLevel(binLevel{toks, (*Parser).parseAddExpr})
}

func (p *Parser) parseAddExpr() (ast.Expr, bool) {
	toks := map[lexer.TokenType]ast.BinOp{lexer.PLUS: ast.OpAdd, lexer.MINUS: ast.OpSub}
	return p.parseBinaryLevel(binLevel{toks, (*Parser).parseMulExpr})
}

func (p *Parser) parseMulExpr() (ast.Expr, bool) {
	toks := map[lexer.TokenType]ast.BinOp{lexer.STAR: ast.OpMul, lexer.SLASH: ast.OpDiv, lexer.PERCENT: ast.OpMod}
	return p.parseBinaryLevel(binLevel{toks, (*Parser).parseCastExpr})
}

// parseTypeName parses a type-name: a declaration-specifier list followed by
// an optional abstract pointer/array declarator, used by casts and by
// "sizeof(type)" (spec.md §4.1's grammar for both).
func (p *Parser) parseTypeName() (*types.Type, bool) {
	spec, _, ok := p.parseDeclSpecifiers()
	if !ok {
		return nil, false
	}
	ty := spec.base
	for {
		if _, ok := p.accept(lexer.STAR); !ok {
			break
		}
		ty = types.PointerTo(ty)
		if _, ok := p.accept(lexer.KW_CONST); ok {
			ty = ty.WithConst()
		}
	}
	for p.at(lexer.LBRACK) {
		p.advance()
		if _, ok := p.accept(lexer.RBRACK); ok {
			ty = types.IncompleteArrayOf(ty)
			continue
		}
		szTok, ok := p.expect(lexer.INT_LIT)
		if !ok {
			return nil, false
		}
		if _, ok := p.expect(lexer.RBRACK); !ok {
			return nil, false
		}
		ty = types.ArrayOf(ty, int(szTok.IntValue))
	}
	return ty, true
}

// parseCastExpr parses "( type-name ) cast-expr" or falls through to unary.
// A parenthesized expression is disambiguated from a cast by whether what
// follows '(' can start a type-name (spec.md §4.2).
func (p *Parser) parseCastExpr() (ast.Expr, bool) {
	if p.at(lexer.LPAREN) && startsTypeAfterParen(p, p.peekTok()) {
		pos := ast.Pos{Line: p.tok.Line, Col: p.tok.Col}
		p.advance() // (
		ty, ok := p.parseTypeName()
		if !ok {
			return nil, false
		}
		if _, ok := p.expect(lexer.RPAREN); !ok {
			return nil, false
		}
		x, ok := p.parseCastExpr()
		if !ok {
			return nil, false
		}
		return &ast.CastExpr{Typed: ast.NewTyped(pos.Line, pos.Col), Target: ty, X: x}, true
	}
	return p.parseUnaryExpr()
}

// startsTypeAfterParen reports whether tok (the token following an
// already-seen '(') begins a type-name, consulting the typedef table for
// identifiers.
func startsTypeAfterParen(p *Parser, tok lexer.Token) bool {
	switch tok.Type {
	case lexer.KW_VOID, lexer.KW_CHAR, lexer.KW_SHORT, lexer.KW_INT, lexer.KW_LONG,
		lexer.KW_SIGNED, lexer.KW_UNSIGNED, lexer.KW_CONST,
		lexer.KW_STRUCT, lexer.KW_UNION, lexer.KW_ENUM:
		return true
	case lexer.IDENT:
		return p.isTypedefName(tok.Lex)
	default:
		return false
	}
}

var unaryOps = map[lexer.TokenType]ast.UnOp{
	lexer.PLUS:  ast.OpPos,
	lexer.MINUS: ast.OpNeg,
	lexer.BANG:  ast.OpNot,
	lexer.TILDE: ast.OpBNot,
	lexer.AMP:   ast.OpAddr,
	lexer.STAR:  ast.OpDeref,
}

// parseUnaryExpr parses the prefix operators, prefix ++/--, sizeof, and
// falls through to postfix-expression (spec.md §4.2).
func (p *Parser) parseUnaryExpr() (ast.Expr, bool) {
	pos := ast.Pos{Line: p.tok.Line, Col: p.tok.Col}
	if op, ok := unaryOps[p.tok.Type]; ok {
		p.advance()
		x, ok := p.parseCastExpr()
		if !ok {
			return nil, false
		}
		return &ast.UnaryExpr{Typed: ast.NewTyped(pos.Line, pos.Col), Op: op, X: x}, true
	}
	if _, ok := p.accept(lexer.INC); ok {
		x, ok := p.parseUnaryExpr()
		if !ok {
			return nil, false
		}
		return &ast.UnaryExpr{Typed: ast.NewTyped(pos.Line, pos.Col), Op: ast.OpPreInc, X: x}, true
	}
	if _, ok := p.accept(lexer.DEC); ok {
		x, ok := p.parseUnaryExpr()
		if !ok {
			return nil, false
		}
		return &ast.UnaryExpr{Typed: ast.NewTyped(pos.Line, pos.Col), Op: ast.OpPreDec, X: x}, true
	}
	if _, ok := p.accept(lexer.KW_SIZEOF); ok {
		if p.at(lexer.LPAREN) && startsTypeAfterParen(p, p.peekTok()) {
			p.advance()
			ty, ok := p.parseTypeName()
			if !ok {
				return nil, false
			}
			if _, ok := p.expect(lexer.RPAREN); !ok {
				return nil, false
			}
			return &ast.SizeofExpr{Typed: ast.NewTyped(pos.Line, pos.Col), OfType: ty}, true
		}
		x, ok := p.parseUnaryExpr()
		if !ok {
			return nil, false
		}
		return &ast.SizeofExpr{Typed: ast.NewTyped(pos.Line, pos.Col), OfExpr: x}, true
	}
	return p.parsePostfixExpr()
}

// parsePostfixExpr parses array indexing, calls, member access (. and ->),
// and postfix ++/-- applied left to right on top of a primary expression.
func (p *Parser) parsePostfixExpr() (ast.Expr, bool) {
	x, ok := p.parsePrimaryExpr()
	if !ok {
		return nil, false
	}
	for {
		pos := ast.Pos{Line: p.tok.Line, Col: p.tok.Col}
		switch p.tok.Type {
		case lexer.LBRACK:
			p.advance()
			idx, ok := p.parseExpr()
			if !ok {
				return nil, false
			}
			if _, ok := p.expect(lexer.RBRACK); !ok {
				return nil, false
			}
			x = &ast.IndexExpr{Typed: ast.NewTyped(pos.Line, pos.Col), Base: x, Index: idx}
		case lexer.LPAREN:
			p.advance()
			var args []ast.Expr
			if !p.at(lexer.RPAREN) {
				for {
					a, ok := p.parseAssignExpr()
					if !ok {
						return nil, false
					}
					args = append(args, a)
					if _, ok := p.accept(lexer.COMMA); !ok {
						break
					}
				}
			}
			if _, ok := p.expect(lexer.RPAREN); !ok {
				return nil, false
			}
			x = &ast.CallExpr{Typed: ast.NewTyped(pos.Line, pos.Col), Callee: x, Args: args}
		case lexer.DOT:
			p.advance()
			nameTok, ok := p.expect(lexer.IDENT)
			if !ok {
				return nil, false
			}
			x = &ast.MemberExpr{Typed: ast.NewTyped(pos.Line, pos.Col), Base: x, Name: nameTok.Lex, Arrow: false}
		case lexer.ARROW:
			p.advance()
			nameTok, ok := p.expect(lexer.IDENT)
			if !ok {
				return nil, false
			}
			x = &ast.MemberExpr{Typed: ast.NewTyped(pos.Line, pos.Col), Base: x, Name: nameTok.Lex, Arrow: true}
		case lexer.INC:
			p.advance()
			x = &ast.UnaryExpr{Typed: ast.NewTyped(pos.Line, pos.Col), Op: ast.OpPostInc, X: x}
		case lexer.DEC:
			p.advance()
			x = &ast.UnaryExpr{Typed: ast.NewTyped(pos.Line, pos.Col), Op: ast.OpPostDec, X: x}
		default:
			return x, true
		}
	}
}

// parsePrimaryExpr parses identifiers, literals, and parenthesized
// expressions — the base case of the expression grammar.
func (p *Parser) parsePrimaryExpr() (ast.Expr, bool) {
	pos := ast.Pos{Line: p.tok.Line, Col: p.tok.Col}
	switch p.tok.Type {
	case lexer.IDENT:
		name := p.tok.Lex
		p.advance()
		return &ast.Ident{Typed: ast.NewTyped(pos.Line, pos.Col), Name: name}, true
	case lexer.INT_LIT:
		v, suf := p.tok.IntValue, p.tok.IntSuffix
		p.advance()
		return &ast.IntLit{Typed: ast.NewTyped(pos.Line, pos.Col), Value: v, Suffix: suf}, true
	case lexer.CHAR_LIT:
		v := p.tok.CharValue
		p.advance()
		return &ast.CharLit{Typed: ast.NewTyped(pos.Line, pos.Col), Value: v}, true
	case lexer.STRING_LIT:
		data := p.tok.StringData
		p.advance()
		return &ast.StringLit{Typed: ast.NewTyped(pos.Line, pos.Col), Data: data}, true
	case lexer.LPAREN:
		p.advance()
		x, ok := p.parseExpr()
		if !ok {
			return nil, false
		}
		if _, ok := p.expect(lexer.RPAREN); !ok {
			return nil, false
		}
		return x, true
	default:
		p.bag.Errorf(p.tok.Line, p.tok.Col, "expected an expression, got %v", p.describeTok())
		return nil, false
	}
}
