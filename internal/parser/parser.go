// Package parser implements the recursive-descent parser described in
// spec.md §4.2: tokens to a translation-unit AST, with explicit
// operator-precedence climbing for expressions and statement/declaration
// error recovery that lets one parse attempt report several diagnostics.
package parser

import (
	"cc89/internal/ast"
	"cc89/internal/diag"
	"cc89/internal/lexer"
	"cc89/internal/types"
)

// Parser holds the single-token lookahead and the bits of state the
// grammar needs beyond the token stream: known typedef names (so the
// parser can tell "T x;" is a declaration, per spec.md §4.3 "the parser
// consults the environment on each type-specifier parse") and known
// struct/union/enum tags.
type Parser struct {
	lx     *lexer.Lexer
	tok    lexer.Token
	peeked *lexer.Token // one token of extra lookahead, lexed but not yet consumed

	bag *diag.Bag

	typedefs map[string]*types.Type
	tags     map[string]*types.Type // struct/union tag -> Struct/Union ref type; enum tags share this table

	lastParams []ast.Param // param names from the most recently parsed function declarator; types.Type has no room for them
}

// ParseFile tokenizes and parses a full translation unit. It returns the
// AST together with any diagnostics. Per spec.md §4.2, "a parse that
// produced at least one error yields no AST: the pipeline halts after the
// parse phase" — callers should treat a non-nil Bag.HasErrors() as fatal
// regardless of the returned *ast.File.
func ParseFile(filename, src string) (*ast.File, *diag.Bag) {
	bag := diag.NewBag(filename)
	p := &Parser{
		bag:      bag,
		typedefs: map[string]*types.Type{},
		tags:     map[string]*types.Type{},
	}
	var err error
	p.lx = lexer.New(src)
	p.tok, err = p.lx.Next()
	if err != nil {
		p.reportLexError(err)
		return nil, bag
	}

	f := &ast.File{}
	for !p.at(lexer.EOF) {
		start := p.tok
		decls, ok := p.parseTopDecl()
		if !ok {
			p.syncToSemi()
			continue
		}
		f.Decls = append(f.Decls, decls...)
		if sameTok(p.tok, start) {
			// Safety valve: parseTopDecl must always consume something on
			// success; if it didn't, force progress to avoid looping.
			p.advance()
		}
	}
	if bag.HasErrors() {
		return nil, bag
	}
	return f, bag
}

func (p *Parser) advance() {
	if p.peeked != nil {
		p.tok = *p.peeked
		p.peeked = nil
		return
	}
	t, err := p.lx.Next()
	if err != nil {
		p.reportLexError(err)
		p.tok = lexer.Token{Type: lexer.EOF}
		return
	}
	p.tok = t
}

// peekTok returns the token after the current one without consuming it,
// used only where the limited declarator grammar needs 2-token lookahead
// (spec.md §4.2's one level of function-pointer declarator).
func (p *Parser) peekTok() lexer.Token {
	if p.peeked != nil {
		return *p.peeked
	}
	t, err := p.lx.Next()
	if err != nil {
		p.reportLexError(err)
		t = lexer.Token{Type: lexer.EOF}
	}
	p.peeked = &t
	return t
}

func (p *Parser) reportLexError(err error) {
	if le, ok := err.(*lexer.LexError); ok {
		p.bag.Errorf(le.Line, le.Col, "%s", le.Msg)
		return
	}
	p.bag.Errorf(0, 0, "%s", err.Error())
}

// sameTok reports whether a and b are the same token at the same position.
// lexer.Token embeds a []byte field, so it cannot be compared with ==.
func sameTok(a, b lexer.Token) bool {
	return a.Type == b.Type && a.Line == b.Line && a.Col == b.Col
}

func (p *Parser) at(tt lexer.TokenType) bool { return p.tok.Type == tt }

func (p *Parser) accept(tt lexer.TokenType) (lexer.Token, bool) {
	if p.tok.Type == tt {
		t := p.tok
		p.advance()
		return t, true
	}
	return lexer.Token{}, false
}

// expect consumes a token of type tt or reports a diagnostic naming what
// was expected, per spec.md §4.2's error-recovery contract.
func (p *Parser) expect(tt lexer.TokenType) (lexer.Token, bool) {
	if p.tok.Type == tt {
		t := p.tok
		p.advance()
		return t, true
	}
	p.bag.Errorf(p.tok.Line, p.tok.Col, "expected %v, got %v", tt, p.describeTok())
	return lexer.Token{}, false
}

func (p *Parser) describeTok() string {
	if p.tok.Type == lexer.IDENT || p.tok.Type == lexer.INT_LIT {
		return p.tok.Lex
	}
	return p.tok.Type.String()
}

// syncToSemi skips tokens to the next ';' (consumed) or '}'/EOF, per
// spec.md §4.2 "Inside a declaration list, skip to the next ';'".
func (p *Parser) syncToSemi() {
	for !p.at(lexer.SEMI) && !p.at(lexer.RBRACE) && !p.at(lexer.EOF) {
		p.advance()
	}
	if p.at(lexer.SEMI) {
		p.advance()
	}
}

// syncStmt skips tokens to the next ';' or '}', per spec.md §4.2 "On a
// syntax error inside a statement, skip tokens to the next ';' or '}' and
// continue."
func (p *Parser) syncStmt() {
	for !p.at(lexer.SEMI) && !p.at(lexer.RBRACE) && !p.at(lexer.EOF) {
		p.advance()
	}
	if p.at(lexer.SEMI) {
		p.advance()
	}
}

func (p *Parser) isTypedefName(lex string) bool {
	_, ok := p.typedefs[lex]
	return ok
}

// startsDecl reports whether the current token can begin a declaration,
// used both at top level and to distinguish a declaration from a
// statement inside a compound statement.
func (p *Parser) startsDecl() bool {
	switch p.tok.Type {
	case lexer.KW_VOID, lexer.KW_CHAR, lexer.KW_SHORT, lexer.KW_INT, lexer.KW_LONG,
		lexer.KW_SIGNED, lexer.KW_UNSIGNED, lexer.KW_CONST,
		lexer.KW_STATIC, lexer.KW_EXTERN, lexer.KW_AUTO, lexer.KW_REGISTER,
		lexer.KW_STRUCT, lexer.KW_UNION, lexer.KW_ENUM, lexer.KW_TYPEDEF:
		return true
	case lexer.IDENT:
		return p.isTypedefName(p.tok.Lex)
	default:
		return false
	}
}
