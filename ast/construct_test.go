package ast

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bismut-lang/bismut/token"
	"github.com/bismut-lang/bismut/types"
)

func TestConstructorsPreservePosition(t *testing.T) {
	pos := token.Position{File: "main.mut", Line: 3, Col: 7}

	exprs := []Expr{
		NewIntLit(pos, 42, token.Decimal),
		NewFloatLit(pos, 1.5),
		NewStringLit(pos, "hi", token.RegularString),
		NewIdent(pos, "x"),
		NewBinary(pos, token.PLUS, NewIdent(pos, "a"), NewIdent(pos, "b")),
		NewCall(pos, NewIdent(pos, "f"), nil, nil),
	}
	for _, e := range exprs {
		assert.Equal(t, pos, e.Position())
	}

	stmts := []Stmt{
		NewVarDecl(pos, "x", nil, NewIntLit(pos, 1, token.Decimal), false, false),
		NewReturn(pos, nil),
		NewBreak(pos),
		NewContinue(pos),
		NewBlock(pos),
	}
	for _, s := range stmts {
		assert.Equal(t, pos, s.Position())
	}
}

func TestExprTypeUnresolvedUntilChecked(t *testing.T) {
	id := NewIdent(token.Position{}, "x")
	assert.Nil(t, id.Type())

	id.SetType(types.I64)
	require.NotNil(t, id.Type())
	assert.Equal(t, types.I64, id.Type())
}

func TestNewCallCarriesArgsAndTypeArgs(t *testing.T) {
	pos := token.Position{File: "main.mut", Line: 1, Col: 1}
	arg := NewIntLit(pos, 1, token.Decimal)
	typeArg := TypeRef{Pos: pos, Name: "i64"}

	call := NewCall(pos, NewIdent(pos, "append"), []Expr{arg}, []TypeRef{typeArg})
	assert.Len(t, call.Args, 1)
	assert.Equal(t, "i64", call.TypeArgs[0].Name)
}
