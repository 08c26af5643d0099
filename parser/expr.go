package parser

import (
	"github.com/bismut-lang/bismut/ast"
	"github.com/bismut-lang/bismut/token"
)

// parseExpr parses a full expression at the lowest precedence.
func (p *Parser) parseExpr() (ast.Expr, error) {
	return p.parseBinary(0)
}

// parseBinary is the precedence-climbing core: it parses a unary/nud
// expression, then repeatedly consumes infix operators whose precedence is
// at least minBp, recursing for the right-hand operand.
func (p *Parser) parseBinary(minBp int) (ast.Expr, error) {
	lhs, err := p.parseUnary()
	if err != nil {
		return nil, err
	}

	for {
		op := p.peek(0)
		prec, ok := precedence[op.Type]
		if !ok || prec < minBp {
			return lhs, nil
		}

		if op.Type == token.IS {
			p.advance()
			if _, ok := p.match(token.NONE); ok {
				lhs = ast.NewIs(op.Pos, lhs, "None")
				continue
			}
			ty, err := p.parseTypeRef()
			if err != nil {
				return nil, err
			}
			lhs = ast.NewIs(op.Pos, lhs, ty.Name)
			continue
		}
		if op.Type == token.AS {
			p.advance()
			ty, err := p.parseTypeRef()
			if err != nil {
				return nil, err
			}
			lhs = ast.NewAs(op.Pos, lhs, ty.Name)
			continue
		}

		p.advance()
		rhs, err := p.parseBinary(prec + 1)
		if err != nil {
			return nil, err
		}
		lhs = ast.NewBinary(op.Pos, op.Type, lhs, rhs)
	}
}

// parseUnary handles prefix not/-/~ before falling through to postfix
// parsing of a primary expression.
func (p *Parser) parseUnary() (ast.Expr, error) {
	tok := p.peek(0)
	switch tok.Type {
	case token.NOT, token.MINUS, token.TILDE:
		p.advance()
		rhs, err := p.parseBinary(unaryPrecedence)
		if err != nil {
			return nil, err
		}
		return ast.NewUnary(tok.Pos, tok.Type, rhs), nil
	}
	return p.parsePostfix()
}

// parsePostfix parses a primary expression then any chain of '.', '(', '['.
func (p *Parser) parsePostfix() (ast.Expr, error) {
	expr, err := p.parsePrimary()
	if err != nil {
		return nil, err
	}
	for {
		switch p.peek(0).Type {
		case token.DOT:
			dot := p.advance()
			name, err := p.expectIdent("expected member name after '.'")
			if err != nil {
				return nil, err
			}
			expr = ast.NewMemberAccess(dot.Pos, expr, name.Literal)
		case token.LPAREN:
			expr, err = p.parseCallArgs(expr, nil)
			if err != nil {
				return nil, err
			}
			continue
		case token.LBRACK:
			if id, ok := expr.(*ast.Ident); ok && p.genericNames[id.Name] {
				expr, err = p.parseGenericCallOrLit(expr)
				if err != nil {
					return nil, err
				}
				continue
			}
			lb := p.advance()
			idx, err := p.parseExpr()
			if err != nil {
				return nil, err
			}
			if _, err := p.expect(token.RBRACK, "expected ']' to close index expression"); err != nil {
				return nil, err
			}
			expr = ast.NewIndex(lb.Pos, expr, idx)
		default:
			return expr, nil
		}
	}
}

// parseGenericCallOrLit handles `name[T](...)`, further promoting a
// `List[T]()`/`Dict[K,V]()` call immediately followed by `{` into a
// collection-literal node.
func (p *Parser) parseGenericCallOrLit(callee ast.Expr) (ast.Expr, error) {
	pos := p.peek(0).Pos
	if _, err := p.expect(token.LBRACK, "expected '['"); err != nil {
		return nil, err
	}
	var typeArgs []ast.TypeRef
	for {
		ty, err := p.parseTypeRef()
		if err != nil {
			return nil, err
		}
		typeArgs = append(typeArgs, ty)
		if _, ok := p.match(token.COMMA); !ok {
			break
		}
	}
	if _, err := p.expect(token.RBRACK, "expected ']' to close type argument list"); err != nil {
		return nil, err
	}

	ident, isIdent := callee.(*ast.Ident)

	if isIdent && ident.Name == "List" && len(typeArgs) == 1 {
		if call, ok, err := p.tryParseListLit(pos, typeArgs[0]); err != nil {
			return nil, err
		} else if ok {
			return call, nil
		}
	}
	if isIdent && ident.Name == "Dict" && len(typeArgs) == 2 {
		if call, ok, err := p.tryParseDictLit(pos, typeArgs[0], typeArgs[1]); err != nil {
			return nil, err
		} else if ok {
			return call, nil
		}
	}

	return p.parseCallArgs(callee, typeArgs)
}

// tryParseListLit recognizes `List[T]() { e, e, ... }`.
func (p *Parser) tryParseListLit(pos token.Position, elemType ast.TypeRef) (ast.Expr, bool, error) {
	if p.peek(0).Type != token.LPAREN || p.peek(1).Type != token.RPAREN || p.peek(2).Type != token.LBRACE {
		return nil, false, nil
	}
	p.advance()
	p.advance()
	p.advance()
	p.skipNewlines()
	var elems []ast.Expr
	for p.peek(0).Type != token.RBRACE {
		e, err := p.parseExpr()
		if err != nil {
			return nil, false, err
		}
		elems = append(elems, e)
		if _, ok := p.match(token.COMMA); !ok {
			p.skipNewlines()
			break
		}
		p.skipNewlines()
	}
	if _, err := p.expect(token.RBRACE, "expected '}' to close list literal"); err != nil {
		return nil, false, err
	}
	return ast.NewListLit(pos, elemType, elems), true, nil
}

// tryParseDictLit recognizes `Dict[K,V]() { k: v, ... }`.
func (p *Parser) tryParseDictLit(pos token.Position, keyType, valType ast.TypeRef) (ast.Expr, bool, error) {
	if p.peek(0).Type != token.LPAREN || p.peek(1).Type != token.RPAREN || p.peek(2).Type != token.LBRACE {
		return nil, false, nil
	}
	p.advance()
	p.advance()
	p.advance()
	p.skipNewlines()
	var keys, vals []ast.Expr
	for p.peek(0).Type != token.RBRACE {
		k, err := p.parseExpr()
		if err != nil {
			return nil, false, err
		}
		if _, err := p.expect(token.COLON, "expected ':' in dict literal entry"); err != nil {
			return nil, false, err
		}
		v, err := p.parseExpr()
		if err != nil {
			return nil, false, err
		}
		keys = append(keys, k)
		vals = append(vals, v)
		if _, ok := p.match(token.COMMA); !ok {
			p.skipNewlines()
			break
		}
		p.skipNewlines()
	}
	if _, err := p.expect(token.RBRACE, "expected '}' to close dict literal"); err != nil {
		return nil, false, err
	}
	return ast.NewDictLit(pos, keyType, valType, keys, vals), true, nil
}

func (p *Parser) parseCallArgs(callee ast.Expr, typeArgs []ast.TypeRef) (ast.Expr, error) {
	pos, err := p.expect(token.LPAREN, "expected '(' to start call arguments")
	if err != nil {
		return nil, err
	}
	var args []ast.Expr
	if p.peek(0).Type != token.RPAREN {
		for {
			arg, err := p.parseExpr()
			if err != nil {
				return nil, err
			}
			args = append(args, arg)
			if _, ok := p.match(token.COMMA); !ok {
				break
			}
		}
	}
	if _, err := p.expect(token.RPAREN, "expected ')' to close call arguments"); err != nil {
		return nil, err
	}
	return ast.NewCall(pos.Pos, callee, args, typeArgs), nil
}

// parsePrimary handles literals, identifiers, and parenthesized or
// tuple expressions.
func (p *Parser) parsePrimary() (ast.Expr, error) {
	tok := p.peek(0)
	switch tok.Type {
	case token.INT:
		p.advance()
		return ast.NewIntLit(tok.Pos, tok.IntValue, tok.Radix), nil
	case token.FLOAT:
		p.advance()
		return ast.NewFloatLit(tok.Pos, tok.FloatValue), nil
	case token.STRING:
		p.advance()
		return ast.NewStringLit(tok.Pos, tok.Literal, tok.StrKind), nil
	case token.CHAR:
		p.advance()
		return ast.NewCharLit(tok.Pos, tok.IntValue), nil
	case token.TRUE:
		p.advance()
		return ast.NewBoolLit(tok.Pos, true), nil
	case token.FALSE:
		p.advance()
		return ast.NewBoolLit(tok.Pos, false), nil
	case token.NONE:
		p.advance()
		return ast.NewNoneLit(tok.Pos), nil
	case token.IDENT:
		p.advance()
		return ast.NewIdent(tok.Pos, tok.Literal), nil
	case token.LPAREN:
		return p.parseParenOrTuple()
	}
	return nil, &Error{tok, "expected expression"}
}

// parseParenOrTuple disambiguates `(expr)` from a tuple literal `(a, b,
// ...)`; a single parenthesized element with no trailing comma is just a
// grouped expression.
func (p *Parser) parseParenOrTuple() (ast.Expr, error) {
	start, err := p.expect(token.LPAREN, "expected '('")
	if err != nil {
		return nil, err
	}
	if p.peek(0).Type == token.RPAREN {
		p.advance()
		return ast.NewTupleExpr(start.Pos, nil), nil
	}
	first, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if p.peek(0).Type != token.COMMA {
		if _, err := p.expect(token.RPAREN, "expected ')' to close parenthesized expression"); err != nil {
			return nil, err
		}
		return first, nil
	}
	elems := []ast.Expr{first}
	for {
		if _, ok := p.match(token.COMMA); !ok {
			break
		}
		if p.peek(0).Type == token.RPAREN {
			break
		}
		e, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		elems = append(elems, e)
	}
	if _, err := p.expect(token.RPAREN, "expected ')' to close tuple expression"); err != nil {
		return nil, err
	}
	return ast.NewTupleExpr(start.Pos, elems), nil
}
