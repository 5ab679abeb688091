package parser

import (
	"cc89/internal/ast"
	"cc89/internal/lexer"
)

// parseCompoundStmt parses "{ block-item* }", where a block item is either
// a declaration or a statement, interleaved in any order (spec.md §3).
func (p *Parser) parseCompoundStmt() (*ast.CompoundStmt, bool) {
	pos := ast.Pos{Line: p.tok.Line, Col: p.tok.Col}
	if _, ok := p.expect(lexer.LBRACE); !ok {
		return nil, false
	}
	cs := &ast.CompoundStmt{Pos: pos}
	for !p.at(lexer.RBRACE) && !p.at(lexer.EOF) {
		start := p.tok
		if p.startsDecl() {
			decls, ok := p.parseLocalDecl()
			if !ok {
				p.syncStmt()
				continue
			}
			for _, d := range decls {
				cs.Items = append(cs.Items, ast.BlockItem{Decl: d})
			}
		} else {
			s, ok := p.parseStmt()
			if !ok {
				p.syncStmt()
				continue
			}
			cs.Items = append(cs.Items, ast.BlockItem{Stmt: s})
		}
		if sameTok(p.tok, start) {
			p.advance()
		}
	}
	if _, ok := p.expect(lexer.RBRACE); !ok {
		return nil, false
	}
	return cs, true
}

// parseStmt parses one statement, per the grammar in spec.md §4.2.
func (p *Parser) parseStmt() (ast.Stmt, bool) {
	pos := ast.Pos{Line: p.tok.Line, Col: p.tok.Col}
	switch p.tok.Type {
	case lexer.LBRACE:
		return p.parseCompoundStmt()
	case lexer.KW_IF:
		return p.parseIfStmt()
	case lexer.KW_WHILE:
		return p.parseWhileStmt()
	case lexer.KW_DO:
		return p.parseDoWhileStmt()
	case lexer.KW_FOR:
		return p.parseForStmt()
	case lexer.KW_SWITCH:
		return p.parseSwitchStmt()
	case lexer.KW_BREAK:
		p.advance()
		p.expect(lexer.SEMI)
		return &ast.BreakStmt{Pos: pos}, true
	case lexer.KW_CONTINUE:
		p.advance()
		p.expect(lexer.SEMI)
		return &ast.ContinueStmt{Pos: pos}, true
	case lexer.KW_RETURN:
		p.advance()
		if _, ok := p.accept(lexer.SEMI); ok {
			return &ast.ReturnStmt{Pos: pos}, true
		}
		x, ok := p.parseExpr()
		if !ok {
			return nil, false
		}
		p.expect(lexer.SEMI)
		return &ast.ReturnStmt{Pos: pos, Value: x}, true
	case lexer.KW_GOTO:
		p.advance()
		nameTok, ok := p.expect(lexer.IDENT)
		if !ok {
			return nil, false
		}
		p.expect(lexer.SEMI)
		return &ast.GotoStmt{Pos: pos, Label: nameTok.Lex}, true
	case lexer.SEMI:
		p.advance()
		return &ast.ExprStmt{Pos: pos}, true
	case lexer.IDENT:
		// A label ("ident ':'") is distinguished from an expression
		// statement by the colon that follows the identifier; a 2-token
		// lookahead resolves it without backtracking.
		if p.peekTok().Type == lexer.COLON {
			name := p.tok.Lex
			p.advance() // ident
			p.advance() // :
			inner, ok := p.parseStmt()
			if !ok {
				return nil, false
			}
			return &ast.LabeledStmt{Pos: pos, Label: name, Stmt: inner}, true
		}
		return p.parseExprStmt()
	default:
		return p.parseExprStmt()
	}
}

func (p *Parser) parseExprStmt() (ast.Stmt, bool) {
	pos := ast.Pos{Line: p.tok.Line, Col: p.tok.Col}
	x, ok := p.parseExpr()
	if !ok {
		return nil, false
	}
	if _, ok := p.expect(lexer.SEMI); !ok {
		return nil, false
	}
	return &ast.ExprStmt{Pos: pos, X: x}, true
}

func (p *Parser) parseIfStmt() (ast.Stmt, bool) {
	pos := ast.Pos{Line: p.tok.Line, Col: p.tok.Col}
	p.advance() // if
	if _, ok := p.expect(lexer.LPAREN); !ok {
		return nil, false
	}
	cond, ok := p.parseExpr()
	if !ok {
		return nil, false
	}
	if _, ok := p.expect(lexer.RPAREN); !ok {
		return nil, false
	}
	then, ok := p.parseStmt()
	if !ok {
		return nil, false
	}
	stmt := &ast.IfStmt{Pos: pos, Cond: cond, Then: then}
	if _, ok := p.accept(lexer.KW_ELSE); ok {
		els, ok := p.parseStmt()
		if !ok {
			return nil, false
		}
		stmt.Else = els
	}
	return stmt, true
}

func (p *Parser) parseWhileStmt() (ast.Stmt, bool) {
	pos := ast.Pos{Line: p.tok.Line, Col: p.tok.Col}
	p.advance() // while
	if _, ok := p.expect(lexer.LPAREN); !ok {
		return nil, false
	}
	cond, ok := p.parseExpr()
	if !ok {
		return nil, false
	}
	if _, ok := p.expect(lexer.RPAREN); !ok {
		return nil, false
	}
	body, ok := p.parseStmt()
	if !ok {
		return nil, false
	}
	return &ast.WhileStmt{Pos: pos, Cond: cond, Body: body}, true
}

func (p *Parser) parseDoWhileStmt() (ast.Stmt, bool) {
	pos := ast.Pos{Line: p.tok.Line, Col: p.tok.Col}
	p.advance() // do
	body, ok := p.parseStmt()
	if !ok {
		return nil, false
	}
	if _, ok := p.expect(lexer.KW_WHILE); !ok {
		return nil, false
	}
	if _, ok := p.expect(lexer.LPAREN); !ok {
		return nil, false
	}
	cond, ok := p.parseExpr()
	if !ok {
		return nil, false
	}
	if _, ok := p.expect(lexer.RPAREN); !ok {
		return nil, false
	}
	p.expect(lexer.SEMI)
	return &ast.DoWhileStmt{Pos: pos, Body: body, Cond: cond}, true
}

// parseForStmt parses "for (init ; cond ; post) body". init may be a
// declaration or an expression statement; cond and post may be omitted
// (spec.md §4.2, §4.4 "a missing condition is treated as always-true").
func (p *Parser) parseForStmt() (ast.Stmt, bool) {
	pos := ast.Pos{Line: p.tok.Line, Col: p.tok.Col}
	p.advance() // for
	if _, ok := p.expect(lexer.LPAREN); !ok {
		return nil, false
	}
	fs := &ast.ForStmt{Pos: pos}
	if !p.at(lexer.SEMI) {
		if p.startsDecl() {
			decls, ok := p.parseLocalDecl() // consumes the trailing ';'
			if !ok {
				return nil, false
			}
			// Represent the declaration(s) as a synthetic compound prelude
			// so IR generation sees plain BlockItems; a for-init can only
			// introduce variables usable within the loop body's scope.
			items := make([]ast.BlockItem, len(decls))
			for i, d := range decls {
				items[i] = ast.BlockItem{Decl: d}
			}
			fs.Init = &ast.CompoundStmt{Pos: pos, Items: items}
		} else {
			init, ok := p.parseExprStmt() // consumes the trailing ';'
			if !ok {
				return nil, false
			}
			fs.Init = init
		}
	} else {
		p.advance() // bare ';'
	}
	if !p.at(lexer.SEMI) {
		cond, ok := p.parseExpr()
		if !ok {
			return nil, false
		}
		fs.Cond = cond
	}
	if _, ok := p.expect(lexer.SEMI); !ok {
		return nil, false
	}
	if !p.at(lexer.RPAREN) {
		post, ok := p.parseExpr()
		if !ok {
			return nil, false
		}
		fs.Post = post
	}
	if _, ok := p.expect(lexer.RPAREN); !ok {
		return nil, false
	}
	body, ok := p.parseStmt()
	if !ok {
		return nil, false
	}
	fs.Body = body
	return fs, true
}

// parseSwitchStmt parses "switch (tag) { case C: stmts... default: stmts }".
// Case bodies run until the next case/default/closing brace, preserving
// fallthrough by linear layout (spec.md §4.4); at most one default is
// permitted, enforced here so the AST invariant holds before semantic
// analysis even looks at it.
func (p *Parser) parseSwitchStmt() (ast.Stmt, bool) {
	pos := ast.Pos{Line: p.tok.Line, Col: p.tok.Col}
	p.advance() // switch
	if _, ok := p.expect(lexer.LPAREN); !ok {
		return nil, false
	}
	tag, ok := p.parseExpr()
	if !ok {
		return nil, false
	}
	if _, ok := p.expect(lexer.RPAREN); !ok {
		return nil, false
	}
	if _, ok := p.expect(lexer.LBRACE); !ok {
		return nil, false
	}
	sw := &ast.SwitchStmt{Pos: pos, Tag: tag}
	sawDefault := false
	for !p.at(lexer.RBRACE) && !p.at(lexer.EOF) {
		switch p.tok.Type {
		case lexer.KW_CASE:
			cpos := ast.Pos{Line: p.tok.Line, Col: p.tok.Col}
			p.advance()
			ce, ok := p.parseCondExpr() // constant-expression; folded in semantic analysis
			if !ok {
				return nil, false
			}
			if _, ok := p.expect(lexer.COLON); !ok {
				return nil, false
			}
			cc := &ast.CaseClause{Pos: cpos, ConstExpr: ce}
			for !p.atCaseBoundary() {
				s, ok := p.parseStmt()
				if !ok {
					p.syncStmt()
					continue
				}
				cc.Body = append(cc.Body, s)
			}
			sw.Cases = append(sw.Cases, cc)
		case lexer.KW_DEFAULT:
			p.advance()
			if _, ok := p.expect(lexer.COLON); !ok {
				return nil, false
			}
			if sawDefault {
				p.bag.Errorf(pos.Line, pos.Col, "switch statement has more than one 'default' label")
			}
			sawDefault = true
			sw.DefaultIndex = len(sw.Cases)
			var body []ast.Stmt
			for !p.atCaseBoundary() {
				s, ok := p.parseStmt()
				if !ok {
					p.syncStmt()
					continue
				}
				body = append(body, s)
			}
			sw.Default = body
		default:
			p.bag.Errorf(p.tok.Line, p.tok.Col, "expected 'case' or 'default', got %v", p.describeTok())
			p.syncStmt()
		}
	}
	if _, ok := p.expect(lexer.RBRACE); !ok {
		return nil, false
	}
	return sw, true
}

// atCaseBoundary reports whether the current token ends a case/default
// body: the next case label, the next default label, or the closing brace.
func (p *Parser) atCaseBoundary() bool {
	return p.at(lexer.KW_CASE) || p.at(lexer.KW_DEFAULT) || p.at(lexer.RBRACE) || p.at(lexer.EOF)
}
