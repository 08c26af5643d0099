package parser

import (
	"github.com/bismut-lang/bismut/ast"
	"github.com/bismut-lang/bismut/token"
)

func (p *Parser) parseBlockUntil(terminators ...token.Type) (*ast.Block, error) {
	block := ast.NewBlock(p.peek(0).Pos)
	p.skipNewlines()
	for {
		if p.atEnd() {
			return nil, &Error{p.peek(0), "unexpected end of file inside block"}
		}
		for _, t := range terminators {
			if p.peek(0).Type == t {
				return block, nil
			}
		}
		st, err := p.parseStmt()
		if err != nil {
			return nil, err
		}
		block.Stmts = append(block.Stmts, st)
		p.skipNewlines()
	}
}

// parseStmt dispatches on the leading token: keyword-led forms first, then
// the IDENT-led forms that need one or two tokens of lookahead to
// distinguish var-decl / walrus / member assign / plain assign / tuple
// destructure from a bare expression statement.
func (p *Parser) parseStmt() (ast.Stmt, error) {
	tok := p.peek(0)
	switch tok.Type {
	case token.IF:
		return p.parseIf()
	case token.WHILE:
		return p.parseWhile()
	case token.FOR:
		return p.parseFor()
	case token.RETURN:
		return p.parseReturn()
	case token.BREAK:
		p.advance()
		if err := p.expectStmtEnd("expected newline after break"); err != nil {
			return nil, err
		}
		return ast.NewBreak(tok.Pos), nil
	case token.CONTINUE:
		p.advance()
		if err := p.expectStmtEnd("expected newline after continue"); err != nil {
			return nil, err
		}
		return ast.NewContinue(tok.Pos), nil
	case token.CONST, token.STATIC:
		return p.parseVarDecl()
	}

	if tok.Type == token.IDENT && p.peek(1).Type == token.COMMA {
		return p.parseTupleDestructure()
	}
	if tok.Type == token.IDENT && p.peek(1).Type == token.DEFINE {
		return p.parseWalrusDecl()
	}
	if tok.Type == token.IDENT && p.peek(1).Type == token.COLON {
		return p.parseVarDecl()
	}

	expr, err := p.parseExpr()
	if err != nil {
		return nil, err
	}

	if op, ok := p.match(assignOpsAsSlice()...); ok {
		value, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		if err := p.expectStmtEnd("expected newline after assignment"); err != nil {
			return nil, err
		}
		switch target := expr.(type) {
		case *ast.Ident:
			return ast.NewAssign(tok.Pos, target.Name, op.Type, value), nil
		case *ast.MemberAccess:
			return ast.NewMemberAssign(tok.Pos, target.Obj, target.Member, op.Type, value), nil
		case *ast.Index:
			return ast.NewIndexAssign(tok.Pos, target.Obj, target.Idx, op.Type, value), nil
		default:
			return nil, &Error{tok, "invalid assignment target"}
		}
	}

	if err := p.expectStmtEnd("expected newline after expression statement"); err != nil {
		return nil, err
	}
	return ast.NewExprStmt(tok.Pos, expr), nil
}

func assignOpsAsSlice() []token.Type {
	return []token.Type{
		token.ASSIGN, token.PLUS_EQ, token.MINUS_EQ, token.STAR_EQ, token.SLASH_EQ,
		token.PERCENT_EQ, token.AMP_EQ, token.PIPE_EQ, token.CARET_EQ, token.SHL_EQ, token.SHR_EQ,
	}
}

// parseVarDecl parses `[const|static] name : Type = expr`.
func (p *Parser) parseVarDecl() (*ast.VarDecl, error) {
	start := p.peek(0)
	isConst := false
	isStatic := false
	if _, ok := p.match(token.CONST); ok {
		isConst = true
	} else if _, ok := p.match(token.STATIC); ok {
		isStatic = true
	}
	name, err := p.expectIdent("expected variable name")
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.COLON, "expected ':' after variable name"); err != nil {
		return nil, err
	}
	ty, err := p.parseTypeRef()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.ASSIGN, "expected '=' in variable declaration"); err != nil {
		return nil, err
	}
	value, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if err := p.expectStmtEnd("expected newline after variable declaration"); err != nil {
		return nil, err
	}
	return ast.NewVarDecl(start.Pos, name.Literal, &ty, value, isConst, isStatic), nil
}

// parseWalrusDecl parses `name := expr`.
func (p *Parser) parseWalrusDecl() (*ast.VarDecl, error) {
	start := p.peek(0)
	name, err := p.expectIdent("expected variable name")
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.DEFINE, "expected ':='"); err != nil {
		return nil, err
	}
	value, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if err := p.expectStmtEnd("expected newline after declaration"); err != nil {
		return nil, err
	}
	return ast.NewVarDecl(start.Pos, name.Literal, nil, value, false, false), nil
}

// parseTupleDestructure parses `a, b, ... := expr` (two or more names).
func (p *Parser) parseTupleDestructure() (*ast.TupleDestructure, error) {
	start := p.peek(0)
	var names []string
	first, err := p.expectIdent("expected identifier")
	if err != nil {
		return nil, err
	}
	names = append(names, first.Literal)
	for {
		if _, ok := p.match(token.COMMA); !ok {
			break
		}
		n, err := p.expectIdent("expected identifier after ','")
		if err != nil {
			return nil, err
		}
		names = append(names, n.Literal)
	}
	if len(names) < 2 {
		return nil, &Error{start, "tuple destructure requires at least two names"}
	}
	if _, err := p.expect(token.DEFINE, "expected ':=' in tuple destructure"); err != nil {
		return nil, err
	}
	value, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if err := p.expectStmtEnd("expected newline after tuple destructure"); err != nil {
		return nil, err
	}
	return ast.NewTupleDestructure(start.Pos, names, value), nil
}

func (p *Parser) parseReturn() (*ast.Return, error) {
	start, err := p.expect(token.RETURN, "expected return")
	if err != nil {
		return nil, err
	}
	var value ast.Expr
	if p.peek(0).Type != token.NEWLINE && p.peek(0).Type != token.SEMI && !p.atEnd() {
		value, err = p.parseExpr()
		if err != nil {
			return nil, err
		}
	}
	if err := p.expectStmtEnd("expected newline after return"); err != nil {
		return nil, err
	}
	return ast.NewReturn(start.Pos, value), nil
}

func (p *Parser) parseIf() (*ast.If, error) {
	start, err := p.expect(token.IF, "expected if")
	if err != nil {
		return nil, err
	}
	var arms []ast.IfArm
	cond, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if err := p.expectStmtEnd("expected newline after if condition"); err != nil {
		return nil, err
	}
	body, err := p.parseBlockUntil(token.ELIF, token.ELSE, token.END)
	if err != nil {
		return nil, err
	}
	arms = append(arms, ast.IfArm{Pos: start.Pos, Cond: cond, Block: body})

	for p.peek(0).Type == token.ELIF {
		epos := p.peek(0).Pos
		p.advance()
		ec, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		if err := p.expectStmtEnd("expected newline after elif condition"); err != nil {
			return nil, err
		}
		eb, err := p.parseBlockUntil(token.ELIF, token.ELSE, token.END)
		if err != nil {
			return nil, err
		}
		arms = append(arms, ast.IfArm{Pos: epos, Cond: ec, Block: eb})
	}

	if p.peek(0).Type == token.ELSE {
		epos := p.peek(0).Pos
		p.advance()
		if err := p.expectStmtEnd("expected newline after else"); err != nil {
			return nil, err
		}
		eb, err := p.parseBlockUntil(token.END)
		if err != nil {
			return nil, err
		}
		arms = append(arms, ast.IfArm{Pos: epos, Cond: nil, Block: eb})
	}

	if _, err := p.expect(token.END, "expected 'end' to close if statement"); err != nil {
		return nil, err
	}
	if err := p.expectStmtEnd("expected newline after 'end'"); err != nil {
		return nil, err
	}
	return ast.NewIf(start.Pos, arms), nil
}

func (p *Parser) parseWhile() (*ast.While, error) {
	start, err := p.expect(token.WHILE, "expected while")
	if err != nil {
		return nil, err
	}
	cond, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if err := p.expectStmtEnd("expected newline after while condition"); err != nil {
		return nil, err
	}
	body, err := p.parseBlockUntil(token.END)
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.END, "expected 'end' to close while loop"); err != nil {
		return nil, err
	}
	if err := p.expectStmtEnd("expected newline after 'end'"); err != nil {
		return nil, err
	}
	return ast.NewWhile(start.Pos, cond, body), nil
}

// parseFor parses `for name : Type in iterable` covering the range, list,
// and dict-keys iteration forms; the checker picks the form from
// Iterable's resolved type.
func (p *Parser) parseFor() (*ast.For, error) {
	start, err := p.expect(token.FOR, "expected for")
	if err != nil {
		return nil, err
	}
	name, err := p.expectIdent("expected loop variable name")
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.COLON, "expected ':' after loop variable name"); err != nil {
		return nil, err
	}
	ty, err := p.parseTypeRef()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.IN, "expected 'in' in for statement"); err != nil {
		return nil, err
	}
	iter, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if err := p.expectStmtEnd("expected newline after for header"); err != nil {
		return nil, err
	}
	body, err := p.parseBlockUntil(token.END)
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.END, "expected 'end' to close for loop"); err != nil {
		return nil, err
	}
	if err := p.expectStmtEnd("expected newline after 'end'"); err != nil {
		return nil, err
	}
	return ast.NewFor(start.Pos, name.Literal, ty, iter, body), nil
}
