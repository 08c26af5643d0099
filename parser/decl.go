package parser

import (
	"strings"

	"github.com/bismut-lang/bismut/ast"
	"github.com/bismut-lang/bismut/token"
)

// parseImport parses `import a.b.c` or `import a.b.c as alias`.
func (p *Parser) parseImport() (*ast.ImportDecl, error) {
	start, err := p.expect(token.IMPORT, "expected import")
	if err != nil {
		return nil, err
	}
	name, err := p.expectIdent("expected module name after import")
	if err != nil {
		return nil, err
	}
	mod := name.Literal
	for {
		if _, ok := p.match(token.DOT); !ok {
			break
		}
		part, err := p.expectIdent("expected identifier after '.'")
		if err != nil {
			return nil, err
		}
		mod += "." + part.Literal
	}
	parts := strings.Split(mod, ".")
	alias := parts[len(parts)-1]
	if _, ok := p.match(token.AS); ok {
		aliasTok, err := p.expectIdent("expected alias after 'as'")
		if err != nil {
			return nil, err
		}
		alias = aliasTok.Literal
	}
	if err := p.expectStmtEnd("expected newline after import"); err != nil {
		return nil, err
	}
	return &ast.ImportDecl{Pos: start.Pos, Module: mod, Alias: alias}, nil
}

// parseExtern parses `extern libname` or `extern libname as alias`.
func (p *Parser) parseExtern() (*ast.ExternDecl, error) {
	start, err := p.expect(token.EXTERN, "expected extern")
	if err != nil {
		return nil, err
	}
	name, err := p.expectIdent("expected library name after extern")
	if err != nil {
		return nil, err
	}
	alias := name.Literal
	if _, ok := p.match(token.AS); ok {
		aliasTok, err := p.expectIdent("expected alias after 'as'")
		if err != nil {
			return nil, err
		}
		alias = aliasTok.Literal
	}
	if err := p.expectStmtEnd("expected newline after extern"); err != nil {
		return nil, err
	}
	return &ast.ExternDecl{Pos: start.Pos, Name: name.Literal, Alias: alias}, nil
}

// parseTypeParams parses an optional `[T, U, ...]` type-parameter list.
func (p *Parser) parseTypeParams() ([]string, error) {
	if _, ok := p.match(token.LBRACK); !ok {
		return nil, nil
	}
	var names []string
	for {
		id, err := p.expectIdent("expected type parameter name")
		if err != nil {
			return nil, err
		}
		names = append(names, id.Literal)
		if _, ok := p.match(token.COMMA); !ok {
			break
		}
	}
	if _, err := p.expect(token.RBRACK, "expected ']' to close type parameter list"); err != nil {
		return nil, err
	}
	return names, nil
}

func (p *Parser) parseParam() (ast.Param, error) {
	pos := p.peek(0).Pos
	name, err := p.expectIdent("expected parameter name")
	if err != nil {
		return ast.Param{}, err
	}
	if name.Literal == "self" && p.peek(0).Type != token.COLON {
		return ast.Param{Pos: pos, Name: "self", Ty: ast.TypeRef{Pos: pos, Name: "Self"}}, nil
	}
	if _, err := p.expect(token.COLON, "expected ':' after parameter name"); err != nil {
		return ast.Param{}, err
	}
	ty, err := p.parseTypeRef()
	if err != nil {
		return ast.Param{}, err
	}
	return ast.Param{Pos: pos, Name: name.Literal, Ty: ty}, nil
}

func (p *Parser) parseParamList() ([]ast.Param, error) {
	if _, err := p.expect(token.LPAREN, "expected '(' to start parameter list"); err != nil {
		return nil, err
	}
	var params []ast.Param
	if p.peek(0).Type != token.RPAREN {
		for {
			param, err := p.parseParam()
			if err != nil {
				return nil, err
			}
			params = append(params, param)
			if _, ok := p.match(token.COMMA); !ok {
				break
			}
		}
	}
	if _, err := p.expect(token.RPAREN, "expected ')' to close parameter list"); err != nil {
		return nil, err
	}
	return params, nil
}

// parseFuncDecl parses `def name[T,...](params) -> Ret` followed by a block
// terminated by 'end'; a header without a body is a parse error.
func (p *Parser) parseFuncDecl() (*ast.FuncDecl, error) {
	start, err := p.expect(token.DEF, "expected def")
	if err != nil {
		return nil, err
	}
	doc := p.docFor(start.Pos.Line)
	name, err := p.expectIdent("expected function name")
	if err != nil {
		return nil, err
	}
	typeParams, err := p.parseTypeParams()
	if err != nil {
		return nil, err
	}
	params, err := p.parseParamList()
	if err != nil {
		return nil, err
	}
	ret := ast.TypeRef{Pos: p.peek(0).Pos, Name: "void"}
	if _, ok := p.match(token.ARROW); ok {
		ret, err = p.parseTypeRef()
		if err != nil {
			return nil, err
		}
	}
	if err := p.expectStmtEnd("expected newline after function header"); err != nil {
		return nil, err
	}
	body, err := p.parseBlockUntil(token.END)
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.END, "expected 'end' to close function body"); err != nil {
		return nil, err
	}
	if err := p.expectStmtEnd("expected newline after 'end'"); err != nil {
		return nil, err
	}
	return &ast.FuncDecl{
		Pos: start.Pos, Name: name.Literal, TypeParams: typeParams,
		Params: params, Ret: ret, Body: body, Doc: doc,
	}, nil
}

func (p *Parser) parseMethodSig() (ast.MethodSig, error) {
	start, err := p.expect(token.DEF, "expected def for method signature")
	if err != nil {
		return ast.MethodSig{}, err
	}
	name, err := p.expectIdent("expected method name")
	if err != nil {
		return ast.MethodSig{}, err
	}
	params, err := p.parseParamList()
	if err != nil {
		return ast.MethodSig{}, err
	}
	ret := ast.TypeRef{Pos: p.peek(0).Pos, Name: "void"}
	if _, ok := p.match(token.ARROW); ok {
		ret, err = p.parseTypeRef()
		if err != nil {
			return ast.MethodSig{}, err
		}
	}
	if err := p.expectStmtEnd("expected newline after method signature"); err != nil {
		return ast.MethodSig{}, err
	}
	return ast.MethodSig{Pos: start.Pos, Name: name.Literal, Params: params, Ret: ret}, nil
}

func (p *Parser) parseInterfaceDecl() (*ast.InterfaceDecl, error) {
	start, err := p.expect(token.INTERFACE, "expected interface")
	if err != nil {
		return nil, err
	}
	doc := p.docFor(start.Pos.Line)
	name, err := p.expectIdent("expected interface name")
	if err != nil {
		return nil, err
	}
	if err := p.expectStmtEnd("expected newline after interface header"); err != nil {
		return nil, err
	}
	var sigs []ast.MethodSig
	p.skipNewlines()
	for p.peek(0).Type == token.DEF {
		sig, err := p.parseMethodSig()
		if err != nil {
			return nil, err
		}
		sigs = append(sigs, sig)
		p.skipNewlines()
	}
	if _, err := p.expect(token.END, "expected 'end' to close interface body"); err != nil {
		return nil, err
	}
	if err := p.expectStmtEnd("expected newline after 'end'"); err != nil {
		return nil, err
	}
	return &ast.InterfaceDecl{Pos: start.Pos, Name: name.Literal, MethodSigs: sigs, Doc: doc}, nil
}

func (p *Parser) parseFieldDecl() (ast.FieldDecl, error) {
	pos := p.peek(0).Pos
	name, err := p.expectIdent("expected field name")
	if err != nil {
		return ast.FieldDecl{}, err
	}
	if _, err := p.expect(token.COLON, "expected ':' after field name"); err != nil {
		return ast.FieldDecl{}, err
	}
	ty, err := p.parseTypeRef()
	if err != nil {
		return ast.FieldDecl{}, err
	}
	if err := p.expectStmtEnd("expected newline after field declaration"); err != nil {
		return ast.FieldDecl{}, err
	}
	return ast.FieldDecl{Pos: pos, Name: name.Literal, Ty: ty}, nil
}

// parseClassDecl parses `class Name: IFace1, IFace2` (implements list
// optional) followed by interleaved field and method declarations.
func (p *Parser) parseClassDecl() (*ast.ClassDecl, error) {
	start, err := p.expect(token.CLASS, "expected class")
	if err != nil {
		return nil, err
	}
	doc := p.docFor(start.Pos.Line)
	name, err := p.expectIdent("expected class name")
	if err != nil {
		return nil, err
	}
	var implements []string
	if _, ok := p.match(token.COLON); ok {
		for {
			id, err := p.expectIdent("expected interface name")
			if err != nil {
				return nil, err
			}
			iface := id.Literal
			if _, ok := p.match(token.DOT); ok {
				part, err := p.expectIdent("expected interface name after '.'")
				if err != nil {
					return nil, err
				}
				iface += "__" + part.Literal
			}
			implements = append(implements, iface)
			if _, ok := p.match(token.COMMA); !ok {
				break
			}
		}
	}
	if err := p.expectStmtEnd("expected newline after class header"); err != nil {
		return nil, err
	}

	cls := &ast.ClassDecl{Pos: start.Pos, Name: name.Literal, Implements: implements, Doc: doc}
	p.skipNewlines()
	for p.peek(0).Type != token.END {
		if p.atEnd() {
			return nil, &Error{p.peek(0), "unterminated class body, expected 'end'"}
		}
		if p.peek(0).Type == token.DEF {
			m, err := p.parseFuncDecl()
			if err != nil {
				return nil, err
			}
			cls.Methods = append(cls.Methods, m)
		} else {
			f, err := p.parseFieldDecl()
			if err != nil {
				return nil, err
			}
			cls.Fields = append(cls.Fields, f)
		}
		p.skipNewlines()
	}
	if _, err := p.expect(token.END, "expected 'end' to close class body"); err != nil {
		return nil, err
	}
	if err := p.expectStmtEnd("expected newline after 'end'"); err != nil {
		return nil, err
	}
	return cls, nil
}

func (p *Parser) parseStructDecl() (*ast.StructDecl, error) {
	start, err := p.expect(token.STRUCT, "expected struct")
	if err != nil {
		return nil, err
	}
	doc := p.docFor(start.Pos.Line)
	name, err := p.expectIdent("expected struct name")
	if err != nil {
		return nil, err
	}
	if err := p.expectStmtEnd("expected newline after struct header"); err != nil {
		return nil, err
	}
	st := &ast.StructDecl{Pos: start.Pos, Name: name.Literal, Doc: doc}
	p.skipNewlines()
	for p.peek(0).Type != token.END {
		if p.atEnd() {
			return nil, &Error{p.peek(0), "unterminated struct body, expected 'end'"}
		}
		if p.peek(0).Type == token.DEF {
			m, err := p.parseFuncDecl()
			if err != nil {
				return nil, err
			}
			st.Methods = append(st.Methods, m)
		} else {
			f, err := p.parseFieldDecl()
			if err != nil {
				return nil, err
			}
			st.Fields = append(st.Fields, f)
		}
		p.skipNewlines()
	}
	if _, err := p.expect(token.END, "expected 'end' to close struct body"); err != nil {
		return nil, err
	}
	if err := p.expectStmtEnd("expected newline after 'end'"); err != nil {
		return nil, err
	}
	return st, nil
}

func (p *Parser) parseEnumDecl() (*ast.EnumDecl, error) {
	start, err := p.expect(token.ENUM, "expected enum")
	if err != nil {
		return nil, err
	}
	doc := p.docFor(start.Pos.Line)
	name, err := p.expectIdent("expected enum name")
	if err != nil {
		return nil, err
	}
	if err := p.expectStmtEnd("expected newline after enum header"); err != nil {
		return nil, err
	}
	en := &ast.EnumDecl{Pos: start.Pos, Name: name.Literal, Doc: doc}
	p.skipNewlines()
	for p.peek(0).Type != token.END {
		if p.atEnd() {
			return nil, &Error{p.peek(0), "unterminated enum body, expected 'end'"}
		}
		vpos := p.peek(0).Pos
		vname, err := p.expectIdent("expected enum variant name")
		if err != nil {
			return nil, err
		}
		var val *int64
		if _, ok := p.match(token.ASSIGN); ok {
			sign := int64(1)
			if _, ok := p.match(token.MINUS); ok {
				sign = -1
			}
			lit, err := p.expect(token.INT, "expected integer literal for enum variant value")
			if err != nil {
				return nil, err
			}
			v := sign * lit.IntValue
			val = &v
		}
		en.Variants = append(en.Variants, ast.EnumVariant{Pos: vpos, Name: vname.Literal, Value: val})
		if _, ok := p.match(token.COMMA); !ok {
			p.skipNewlines()
		}
	}
	if _, err := p.expect(token.END, "expected 'end' to close enum body"); err != nil {
		return nil, err
	}
	if err := p.expectStmtEnd("expected newline after 'end'"); err != nil {
		return nil, err
	}
	return en, nil
}

// parseTypeRef parses a type annotation: a primitive/named type, a dotted
// module-qualified name, `List[T]`/`Dict[K,V]` generic syntax, a tuple type
// `(T1, T2, ...)`, or a function-pointer type `Fn(T1,T2) -> R`.
func (p *Parser) parseTypeRef() (ast.TypeRef, error) {
	start := p.peek(0)

	if start.Type == token.LPAREN {
		return p.parseTupleType()
	}

	id, err := p.expectIdent("expected type name")
	if err != nil {
		return ast.TypeRef{}, err
	}
	name := id.Literal

	if name == "Fn" {
		if _, err := p.expect(token.LPAREN, "expected '(' after Fn"); err != nil {
			return ast.TypeRef{}, err
		}
		name = "Fn("
		first := true
		for p.peek(0).Type != token.RPAREN {
			if !first {
				if _, err := p.expect(token.COMMA, "expected ',' between Fn parameter types"); err != nil {
					return ast.TypeRef{}, err
				}
				name += ","
			}
			first = false
			pt, err := p.parseTypeRef()
			if err != nil {
				return ast.TypeRef{}, err
			}
			name += pt.Name
		}
		if _, err := p.expect(token.RPAREN, "expected ')' to close Fn parameter list"); err != nil {
			return ast.TypeRef{}, err
		}
		name += ")"
		if _, err := p.expect(token.ARROW, "expected '->' in function-pointer type"); err != nil {
			return ast.TypeRef{}, err
		}
		ret, err := p.parseTypeRef()
		if err != nil {
			return ast.TypeRef{}, err
		}
		name += "->" + ret.Name
		return ast.TypeRef{Pos: start.Pos, Name: name}, nil
	}

	if p.peek(0).Type == token.DOT && p.peek(1).Type == token.IDENT {
		p.advance()
		part, err := p.expectIdent("expected type name after '.'")
		if err != nil {
			return ast.TypeRef{}, err
		}
		name += "__" + part.Literal
	}

	if _, ok := p.match(token.LBRACK); ok {
		name += "["
		first := true
		for p.peek(0).Type != token.RBRACK {
			if !first {
				if _, err := p.expect(token.COMMA, "expected ',' between type arguments"); err != nil {
					return ast.TypeRef{}, err
				}
				name += ","
			}
			first = false
			arg, err := p.parseTypeRef()
			if err != nil {
				return ast.TypeRef{}, err
			}
			name += arg.Name
		}
		if _, err := p.expect(token.RBRACK, "expected ']' to close type argument list"); err != nil {
			return ast.TypeRef{}, err
		}
		name += "]"
	}

	return ast.TypeRef{Pos: start.Pos, Name: name}, nil
}

func (p *Parser) parseTupleType() (ast.TypeRef, error) {
	start, err := p.expect(token.LPAREN, "expected '(' to start tuple type")
	if err != nil {
		return ast.TypeRef{}, err
	}
	name := "("
	first := true
	for p.peek(0).Type != token.RPAREN {
		if !first {
			if _, err := p.expect(token.COMMA, "expected ',' between tuple element types"); err != nil {
				return ast.TypeRef{}, err
			}
			name += ","
		}
		first = false
		elem, err := p.parseTypeRef()
		if err != nil {
			return ast.TypeRef{}, err
		}
		name += elem.Name
	}
	if _, err := p.expect(token.RPAREN, "expected ')' to close tuple type"); err != nil {
		return ast.TypeRef{}, err
	}
	if strings.Count(name, ",") < 1 {
		return ast.TypeRef{}, &Error{start, "tuple type must have at least 2 elements"}
	}
	name += ")"
	return ast.TypeRef{Pos: start.Pos, Name: name}, nil
}
