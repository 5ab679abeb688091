package parser

import (
	"fmt"

	"cc89/internal/ast"
	"cc89/internal/lexer"
	"cc89/internal/types"
)

// declSpec is the canonical tuple that "storage-class and type specifiers
// may appear in any order and are collapsed to" (spec.md §4.2).
type declSpec struct {
	storage   ast.StorageClass
	isConst   bool
	isTypedef bool
	base      *types.Type
}

var anonTagCounter int

func nextAnonTag(prefix string) string {
	anonTagCounter++
	return fmt.Sprintf("%s.anon.%d", prefix, anonTagCounter)
}

// parseDeclSpecifiers consumes the specifier tokens ("storage-class and
// type specifiers may appear in any order", spec.md §4.2) and returns the
// collapsed tuple, plus any inline struct/union/enum declaration it had to
// parse along the way (e.g. "struct Point { int x; int y; } origin;").
func (p *Parser) parseDeclSpecifiers() (*declSpec, ast.Decl, bool) {
	spec := &declSpec{}
	var inline ast.Decl

	sawVoid, sawChar, sawShort, sawInt, sawLong := false, false, false, false, false
	sawSigned, sawUnsigned := false, false
	sawBase := false // struct/union/enum/typedef-name consumed as the whole base type
	storageSet := false

	for {
		switch p.tok.Type {
		case lexer.KW_STATIC, lexer.KW_EXTERN, lexer.KW_AUTO, lexer.KW_REGISTER:
			if storageSet {
				p.bag.Errorf(p.tok.Line, p.tok.Col, "multiple storage classes specified")
			}
			storageSet = true
			switch p.tok.Type {
			case lexer.KW_STATIC:
				spec.storage = ast.StorageStatic
			case lexer.KW_EXTERN:
				spec.storage = ast.StorageExtern
			case lexer.KW_AUTO:
				spec.storage = ast.StorageAuto
			case lexer.KW_REGISTER:
				spec.storage = ast.StorageRegister
			}
			p.advance()
		case lexer.KW_TYPEDEF:
			spec.isTypedef = true
			p.advance()
		case lexer.KW_CONST:
			spec.isConst = true
			p.advance()
		case lexer.KW_VOID:
			sawVoid = true
			p.advance()
		case lexer.KW_CHAR:
			sawChar = true
			p.advance()
		case lexer.KW_SHORT:
			sawShort = true
			p.advance()
		case lexer.KW_INT:
			sawInt = true
			p.advance()
		case lexer.KW_LONG:
			sawLong = true
			p.advance()
		case lexer.KW_SIGNED:
			sawSigned = true
			p.advance()
		case lexer.KW_UNSIGNED:
			sawUnsigned = true
			p.advance()
		case lexer.KW_STRUCT, lexer.KW_UNION:
			isUnion := p.tok.Type == lexer.KW_UNION
			p.advance()
			ty, decl, ok := p.parseRecordSpecifier(isUnion)
			if !ok {
				return nil, nil, false
			}
			spec.base = ty
			sawBase = true
			inline = decl
		case lexer.KW_ENUM:
			p.advance()
			ty, decl, ok := p.parseEnumSpecifier()
			if !ok {
				return nil, nil, false
			}
			spec.base = ty
			sawBase = true
			inline = decl
		case lexer.IDENT:
			if sawBase || sawVoid || sawChar || sawShort || sawInt || sawLong || sawSigned || sawUnsigned {
				goto done
			}
			if ty, ok := p.typedefs[p.tok.Lex]; ok {
				spec.base = ty
				sawBase = true
				p.advance()
			} else {
				goto done
			}
		default:
			goto done
		}
	}
done:
	if !sawBase {
		switch {
		case sawVoid:
			spec.base = types.VoidT()
		case sawChar:
			spec.base = types.CharT(sawUnsigned)
		case sawShort:
			spec.base = types.ShortT(sawUnsigned)
		case sawLong:
			spec.base = types.LongT(sawUnsigned)
		case sawInt, sawSigned, sawUnsigned:
			spec.base = types.IntT(sawUnsigned)
		default:
			p.bag.Errorf(p.tok.Line, p.tok.Col, "expected a type specifier, got %v", p.describeTok())
			return nil, nil, false
		}
	}
	if spec.isConst {
		spec.base = spec.base.WithConst()
	}
	return spec, inline, true
}

// parseRecordSpecifier parses "struct|union [tag] [{ members }]" (the
// KW_STRUCT/KW_UNION token has already been consumed).
func (p *Parser) parseRecordSpecifier(isUnion bool) (*types.Type, ast.Decl, bool) {
	pos := ast.Pos{Line: p.tok.Line, Col: p.tok.Col}
	tag := ""
	if t, ok := p.accept(lexer.IDENT); ok {
		tag = t.Lex
	}
	if !p.at(lexer.LBRACE) {
		// Reference to a (possibly not-yet-defined) tag.
		if tag == "" {
			p.bag.Errorf(p.tok.Line, p.tok.Col, "expected a tag name after struct/union")
			return nil, nil, false
		}
		if ty, ok := p.tags[tag]; ok {
			return ty, nil, true
		}
		var ty *types.Type
		if isUnion {
			ty = types.UnionRef(tag)
		} else {
			ty = types.StructRef(tag)
		}
		p.tags[tag] = ty
		return ty, nil, true
	}
	p.advance() // consume '{'
	if tag == "" {
		tag = nextAnonTag("struct")
	}
	var members []ast.Param
	for !p.at(lexer.RBRACE) && !p.at(lexer.EOF) {
		mspec, _, ok := p.parseDeclSpecifiers()
		if !ok {
			p.syncToSemi()
			continue
		}
		for {
			name, ty, ok := p.parseDeclarator(mspec.base)
			if !ok {
				break
			}
			members = append(members, ast.Param{Pos: pos, Name: name, Type: ty})
			if _, ok := p.accept(lexer.COMMA); ok {
				continue
			}
			break
		}
		p.expect(lexer.SEMI)
	}
	p.expect(lexer.RBRACE)
	var ty *types.Type
	if isUnion {
		ty = types.UnionRef(tag)
	} else {
		ty = types.StructRef(tag)
	}
	p.tags[tag] = ty
	decl := &ast.RecordDecl{Pos: pos, Tag: tag, IsUnion: isUnion, Members: members}
	return ty, decl, true
}

// parseEnumSpecifier parses "enum [tag] [{ A [= expr], B, ... }]" (KW_ENUM
// already consumed). Enumerator values are left as expressions for the
// semantic analyzer to fold, per spec.md §4.3 "Enum lowering".
func (p *Parser) parseEnumSpecifier() (*types.Type, ast.Decl, bool) {
	pos := ast.Pos{Line: p.tok.Line, Col: p.tok.Col}
	tag := ""
	if t, ok := p.accept(lexer.IDENT); ok {
		tag = t.Lex
	}
	if !p.at(lexer.LBRACE) {
		if tag == "" {
			p.bag.Errorf(p.tok.Line, p.tok.Col, "expected a tag name after enum")
			return nil, nil, false
		}
		return types.IntTy, nil, true
	}
	p.advance() // consume '{'
	if tag == "" {
		tag = nextAnonTag("enum")
	}
	var enumerators []ast.Enumerator
	for !p.at(lexer.RBRACE) && !p.at(lexer.EOF) {
		nameTok, ok := p.expect(lexer.IDENT)
		if !ok {
			p.syncToSemi()
			break
		}
		e := ast.Enumerator{Pos: ast.Pos{Line: nameTok.Line, Col: nameTok.Col}, Name: nameTok.Lex}
		if _, ok := p.accept(lexer.ASSIGN); ok {
			val, ok := p.parseAssignExpr()
			if !ok {
				return nil, nil, false
			}
			e.Value = val
		}
		enumerators = append(enumerators, e)
		if _, ok := p.accept(lexer.COMMA); !ok {
			break
		}
	}
	p.expect(lexer.RBRACE)
	p.tags[tag] = types.IntTy
	decl := &ast.EnumDecl{Pos: pos, Tag: tag, Enumerators: enumerators}
	return types.IntTy, decl, true
}

// parseDeclarator parses one declarator built on top of base and returns
// the declared name and its full type. Supports (spec.md §4.2): plain
// identifiers, pointer decorators with optional const, array declarators,
// function declarators, and one level of function-pointer declarator.
func (p *Parser) parseDeclarator(base *types.Type) (string, *types.Type, bool) {
	ty := base
	for {
		_, ok := p.accept(lexer.STAR)
		if !ok {
			break
		}
		ty = types.PointerTo(ty)
		if _, ok := p.accept(lexer.KW_CONST); ok {
			ty = ty.WithConst()
		}
	}

	// One level of function-pointer declarator: "(*name)(params)".
	if p.at(lexer.LPAREN) && p.peekTok().Type == lexer.STAR {
		p.advance() // (
		p.advance() // *
		nameTok, ok := p.expect(lexer.IDENT)
		if !ok {
			return "", nil, false
		}
		if _, ok := p.expect(lexer.RPAREN); !ok {
			return "", nil, false
		}
		if !p.at(lexer.LPAREN) {
			p.bag.Errorf(p.tok.Line, p.tok.Col, "expected '(' after function-pointer declarator")
			return "", nil, false
		}
		p.advance()
		params, variadic, ok := p.parseParamList()
		if !ok {
			return "", nil, false
		}
		var ptys []*types.Type
		for _, pm := range params {
			ptys = append(ptys, pm.Type)
		}
		p.lastParams = params
		fnTy := types.FuncType(ty, ptys, variadic)
		return nameTok.Lex, types.PointerTo(fnTy), true
	}

	nameTok, ok := p.expect(lexer.IDENT)
	if !ok {
		return "", nil, false
	}
	name := nameTok.Lex

	if p.at(lexer.LPAREN) {
		p.advance()
		params, variadic, ok := p.parseParamList()
		if !ok {
			return "", nil, false
		}
		var ptys []*types.Type
		for _, pm := range params {
			ptys = append(ptys, pm.Type)
		}
		p.lastParams = params
		return name, types.FuncType(ty, ptys, variadic), true
	}

	for p.at(lexer.LBRACK) {
		p.advance()
		if _, ok := p.accept(lexer.RBRACK); ok {
			ty = types.IncompleteArrayOf(ty)
			continue
		}
		szTok, ok := p.expect(lexer.INT_LIT)
		if !ok {
			return "", nil, false
		}
		if _, ok := p.expect(lexer.RBRACK); !ok {
			return "", nil, false
		}
		ty = types.ArrayOf(ty, int(szTok.IntValue))
	}
	return name, ty, true
}

// parseParamList parses a parameter list after '(' up to and including ')',
// returning the params, whether the list ended in "...", and ok; callers
// project the params down to a *types.Type slice.
func (p *Parser) parseParamList() ([]ast.Param, bool, bool) {
	var params []ast.Param
	if _, ok := p.accept(lexer.RPAREN); ok {
		return params, false, true
	}
	if p.at(lexer.KW_VOID) && p.peekTok().Type == lexer.RPAREN {
		p.advance()
		p.advance()
		return params, false, true
	}
	variadic := false
	for {
		if p.at(lexer.DOT) {
			// C89 variadics are spelled with three DOT tokens back to back;
			// the lexer has no dedicated ellipsis token.
			if p.consumeEllipsis() {
				variadic = true
				break
			}
		}
		pspec, _, ok := p.parseDeclSpecifiers()
		if !ok {
			return nil, false, false
		}
		pos := ast.Pos{Line: p.tok.Line, Col: p.tok.Col}
		name := ""
		ty := pspec.base
		if p.at(lexer.IDENT) || p.at(lexer.STAR) || p.at(lexer.LPAREN) {
			n, t, ok := p.parseDeclarator(pspec.base)
			if !ok {
				return nil, false, false
			}
			name, ty = n, t
		} else {
			// Abstract declarator (no name), e.g. a prototype "int f(int);".
			for {
				if _, ok := p.accept(lexer.STAR); !ok {
					break
				}
				ty = types.PointerTo(ty)
			}
		}
		params = append(params, ast.Param{Pos: pos, Name: name, Type: ty})
		if _, ok := p.accept(lexer.COMMA); ok {
			continue
		}
		break
	}
	p.expect(lexer.RPAREN)
	return params, variadic, true
}

// consumeEllipsis consumes three consecutive DOT tokens if present.
func (p *Parser) consumeEllipsis() bool {
	if !p.at(lexer.DOT) {
		return false
	}
	if p.peekTok().Type != lexer.DOT {
		return false
	}
	p.advance()
	p.advance()
	if !p.at(lexer.DOT) {
		p.bag.Errorf(p.tok.Line, p.tok.Col, "expected '.' to complete '...'")
		return true
	}
	p.advance()
	return true
}

// parseTopDecl parses one top-level construct and returns the Decls it
// produces (normally one, or two when an inline struct/union/enum
// definition precedes a variable/function declaration using it).
func (p *Parser) parseTopDecl() ([]ast.Decl, bool) {
	spec, inline, ok := p.parseDeclSpecifiers()
	if !ok {
		return nil, false
	}
	var out []ast.Decl
	if inline != nil {
		out = append(out, inline)
	}

	if spec.isTypedef {
		for {
			name, ty, ok := p.parseDeclarator(spec.base)
			if !ok {
				return nil, false
			}
			out = append(out, &ast.TypedefDecl{Name: name, Type: ty})
			p.typedefs[name] = ty
			if _, ok := p.accept(lexer.COMMA); ok {
				continue
			}
			break
		}
		p.expect(lexer.SEMI)
		return out, true
	}

	if _, ok := p.accept(lexer.SEMI); ok {
		// A bare "struct Foo { ... };" with no declarator.
		if inline == nil {
			p.bag.Errorf(p.tok.Line, p.tok.Col, "expected a declarator")
			return nil, false
		}
		return out, true
	}

	pos := ast.Pos{Line: p.tok.Line, Col: p.tok.Col}
	name, ty, ok := p.parseDeclarator(spec.base)
	if !ok {
		return nil, false
	}

	if ty.K == types.Function {
		fd := &ast.FuncDecl{Pos: pos, Name: name, Ret: ty.Ret, Storage: spec.storage, Variadic: ty.Variadic}
		fd.Params = p.lastParams
		if p.at(lexer.LBRACE) {
			body, ok := p.parseCompoundStmt()
			if !ok {
				return nil, false
			}
			fd.Body = body
			out = append(out, fd)
			return out, true
		}
		p.expect(lexer.SEMI)
		out = append(out, fd)
		return out, true
	}

	// One or more variable declarators.
	for {
		vd := &ast.VarDecl{Pos: pos, Name: name, Type: ty, Storage: spec.storage, Const: ty.Const, IsGlobal: true}
		if _, ok := p.accept(lexer.ASSIGN); ok {
			init, ok := p.parseInitializer()
			if !ok {
				return nil, false
			}
			vd.Init = init
		}
		out = append(out, vd)
		if _, ok := p.accept(lexer.COMMA); !ok {
			break
		}
		pos = ast.Pos{Line: p.tok.Line, Col: p.tok.Col}
		name, ty, ok = p.parseDeclarator(spec.base)
		if !ok {
			return nil, false
		}
	}
	p.expect(lexer.SEMI)
	return out, true
}

// parseLocalDecl mirrors parseTopDecl for declarations that appear as a
// block item inside a function body (spec.md §3 "compound ... ordered
// sequence of items each a declaration or statement").
func (p *Parser) parseLocalDecl() ([]ast.Decl, bool) {
	spec, inline, ok := p.parseDeclSpecifiers()
	if !ok {
		return nil, false
	}
	var out []ast.Decl
	if inline != nil {
		out = append(out, inline)
	}
	if spec.isTypedef {
		for {
			name, ty, ok := p.parseDeclarator(spec.base)
			if !ok {
				return nil, false
			}
			out = append(out, &ast.TypedefDecl{Name: name, Type: ty})
			p.typedefs[name] = ty
			if _, ok := p.accept(lexer.COMMA); ok {
				continue
			}
			break
		}
		p.expect(lexer.SEMI)
		return out, true
	}
	if _, ok := p.accept(lexer.SEMI); ok {
		return out, true
	}
	pos := ast.Pos{Line: p.tok.Line, Col: p.tok.Col}
	name, ty, ok := p.parseDeclarator(spec.base)
	if !ok {
		return nil, false
	}
	for {
		vd := &ast.VarDecl{Pos: pos, Name: name, Type: ty, Storage: spec.storage, Const: ty.Const, IsGlobal: false}
		if _, ok := p.accept(lexer.ASSIGN); ok {
			init, ok := p.parseInitializer()
			if !ok {
				return nil, false
			}
			vd.Init = init
		}
		out = append(out, vd)
		if _, ok := p.accept(lexer.COMMA); !ok {
			break
		}
		pos = ast.Pos{Line: p.tok.Line, Col: p.tok.Col}
		name, ty, ok = p.parseDeclarator(spec.base)
		if !ok {
			return nil, false
		}
	}
	p.expect(lexer.SEMI)
	return out, true
}

// parseInitializer parses either a single assignment-expression or a
// brace-enclosed list of constant initializers for an array/aggregate. The
// brace form is represented as a CommaExpr chain the semantic analyzer
// unpacks positionally; this keeps ast.Expr as the single initializer
// carrier described in spec.md §3 without adding a new node kind.
func (p *Parser) parseInitializer() (ast.Expr, bool) {
	if !p.at(lexer.LBRACE) {
		return p.parseAssignExpr()
	}
	pos := ast.Pos{Line: p.tok.Line, Col: p.tok.Col}
	p.advance()
	var elems []ast.Expr
	for !p.at(lexer.RBRACE) && !p.at(lexer.EOF) {
		e, ok := p.parseInitializer()
		if !ok {
			return nil, false
		}
		elems = append(elems, e)
		if _, ok := p.accept(lexer.COMMA); !ok {
			break
		}
	}
	p.expect(lexer.RBRACE)
	if len(elems) == 0 {
		return &ast.IntLit{Typed: ast.NewTyped(pos.Line, pos.Col), Value: 0}, true
	}
	result := elems[len(elems)-1]
	for i := len(elems) - 2; i >= 0; i-- {
		result = &ast.CommaExpr{Typed: ast.NewTyped(pos.Line, pos.Col), Left: elems[i], Right: result}
	}
	return result, true
}
