// Package parser implements a recursive-descent parser with
// precedence-climbing expression parsing, built around an index cursor with
// peek(k) lookahead and switch-based dispatch on the leading token. The
// token source is a pre-materialized []token.Token rather than a live
// lexer pull, because disambiguating a generic call from a subscript needs
// unbounded lookahead.
package parser

import (
	"fmt"

	"github.com/bismut-lang/bismut/ast"
	"github.com/bismut-lang/bismut/lexer"
	"github.com/bismut-lang/bismut/token"
)

// Error is a parse-time failure: unexpected token, missing 'end', or a
// malformed declaration header.
type Error struct {
	Tok token.Token
	Msg string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: parse error: %s (got %s %q)", e.Tok.Pos.String(), e.Msg, e.Tok.Type, e.Tok.Literal)
}

var assignOps = map[token.Type]bool{
	token.ASSIGN: true, token.PLUS_EQ: true, token.MINUS_EQ: true, token.STAR_EQ: true,
	token.SLASH_EQ: true, token.PERCENT_EQ: true, token.AMP_EQ: true, token.PIPE_EQ: true,
	token.CARET_EQ: true, token.SHL_EQ: true, token.SHR_EQ: true,
}

// precedence table, low to high; is/as share a level with the comparison
// operators.
var precedence = map[token.Type]int{
	token.OR:  1,
	token.AND: 2,
	token.PIPE:  3,
	token.CARET: 4,
	token.AMP:   5,
	token.EQ: 6, token.NEQ: 6,
	token.LT: 7, token.LE: 7, token.GT: 7, token.GE: 7, token.IS: 7, token.AS: 7,
	token.SHL: 8, token.SHR: 8,
	token.PLUS: 9, token.MINUS: 9,
	token.STAR: 10, token.SLASH: 10, token.PERCENT: 10,
}

const unaryPrecedence = 11

var builtinGenericNames = map[string]bool{
	"List": true, "Dict": true, "append": true, "get": true, "set": true,
	"put": true, "lookup": true, "has": true, "keys": true, "identity": true,
}

// Parser walks a fully-materialized token vector with an index cursor.
type Parser struct {
	toks     []token.Token
	pos      int
	comments []lexer.Comment

	genericNames map[string]bool
}

func New(toks []token.Token, comments []lexer.Comment) *Parser {
	p := &Parser{toks: toks, comments: comments}
	p.genericNames = p.prescanGenericNames()
	return p
}

// prescanGenericNames finds every `def Name[...]` header up front so the
// expression parser can tell `f[T](x)` (a generic call) from `f[i]` (a
// subscript) without backtracking.
func (p *Parser) prescanGenericNames() map[string]bool {
	names := map[string]bool{}
	for k, v := range builtinGenericNames {
		names[k] = v
	}
	for i := 0; i+2 < len(p.toks); i++ {
		if p.toks[i].Type == token.DEF && p.toks[i+1].Type == token.IDENT && p.toks[i+2].Type == token.LBRACK {
			names[p.toks[i+1].Literal] = true
		}
	}
	return names
}

func (p *Parser) peek(k int) token.Token {
	j := p.pos + k
	if j < len(p.toks) {
		return p.toks[j]
	}
	return p.toks[len(p.toks)-1]
}

func (p *Parser) atEnd() bool { return p.peek(0).Type == token.EOF }

func (p *Parser) advance() token.Token {
	t := p.peek(0)
	if !p.atEnd() {
		p.pos++
	}
	return t
}

func (p *Parser) match(types ...token.Type) (token.Token, bool) {
	for _, t := range types {
		if p.peek(0).Type == t {
			return p.advance(), true
		}
	}
	return token.Token{}, false
}

func (p *Parser) expect(t token.Type, msg string) (token.Token, error) {
	tok := p.peek(0)
	if tok.Type != t {
		return token.Token{}, &Error{tok, msg}
	}
	return p.advance(), nil
}

func (p *Parser) expectIdent(msg string) (token.Token, error) {
	tok := p.peek(0)
	if tok.Type != token.IDENT {
		return token.Token{}, &Error{tok, msg}
	}
	return p.advance(), nil
}

func (p *Parser) skipNewlines() {
	for p.peek(0).Type == token.NEWLINE {
		p.advance()
	}
}

// expectStmtEnd accepts one or more NEWLINEs, a single ';' (optionally
// followed by NEWLINEs), or end-of-file as a statement terminator.
func (p *Parser) expectStmtEnd(msg string) error {
	if _, ok := p.match(token.SEMI); ok {
		p.skipNewlines()
		return nil
	}
	if _, ok := p.match(token.NEWLINE); ok {
		p.skipNewlines()
		return nil
	}
	if p.atEnd() {
		return nil
	}
	return &Error{p.peek(0), msg}
}

// docFor returns the consecutive run of '#' comment lines ending right
// before declLine, in source order, joined with newlines.
func (p *Parser) docFor(declLine int) string {
	if len(p.comments) == 0 {
		return ""
	}
	target := declLine - 1
	var lines []string
	for i := len(p.comments) - 1; i >= 0; i-- {
		c := p.comments[i]
		if c.Line == target {
			lines = append(lines, c.Text)
			target--
		} else if c.Line < target {
			break
		}
	}
	if len(lines) == 0 {
		return ""
	}
	for i, j := 0, len(lines)-1; i < j; i, j = i+1, j-1 {
		lines[i], lines[j] = lines[j], lines[i]
	}
	out := lines[0]
	for _, l := range lines[1:] {
		out += "\n" + l
	}
	return out
}

// ParseProgram parses a whole compilation unit: leading import/extern
// declarations, then any mix of top-level declaration kinds and statements.
func (p *Parser) ParseProgram() (*ast.Program, error) {
	start := p.peek(0).Pos
	prog := &ast.Program{Pos: start}

	p.skipNewlines()

	for !p.atEnd() && (p.peek(0).Type == token.IMPORT || p.peek(0).Type == token.EXTERN) {
		if p.peek(0).Type == token.IMPORT {
			decl, err := p.parseImport()
			if err != nil {
				return nil, err
			}
			prog.Imports = append(prog.Imports, decl)
		} else {
			decl, err := p.parseExtern()
			if err != nil {
				return nil, err
			}
			prog.Externs = append(prog.Externs, decl)
		}
		p.skipNewlines()
	}

	for !p.atEnd() {
		var err error
		switch p.peek(0).Type {
		case token.DEF:
			var fn *ast.FuncDecl
			fn, err = p.parseFuncDecl()
			if err == nil {
				prog.Funcs = append(prog.Funcs, fn)
			}
		case token.CLASS:
			var cls *ast.ClassDecl
			cls, err = p.parseClassDecl()
			if err == nil {
				prog.Classes = append(prog.Classes, cls)
			}
		case token.STRUCT:
			var st *ast.StructDecl
			st, err = p.parseStructDecl()
			if err == nil {
				prog.Structs = append(prog.Structs, st)
			}
		case token.INTERFACE:
			var iface *ast.InterfaceDecl
			iface, err = p.parseInterfaceDecl()
			if err == nil {
				prog.Interfaces = append(prog.Interfaces, iface)
			}
		case token.ENUM:
			var en *ast.EnumDecl
			en, err = p.parseEnumDecl()
			if err == nil {
				prog.Enums = append(prog.Enums, en)
			}
		default:
			var st ast.Stmt
			st, err = p.parseStmt()
			if err == nil {
				prog.Stmts = append(prog.Stmts, st)
			}
		}
		if err != nil {
			return nil, err
		}
		p.skipNewlines()
	}

	return prog, nil
}
