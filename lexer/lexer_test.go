package lexer

import (
	"testing"

	"github.com/bismut-lang/bismut/token"
	"github.com/stretchr/testify/require"
)

func kinds(toks []token.Token) []token.Type {
	out := make([]token.Type, len(toks))
	for i, t := range toks {
		out[i] = t.Type
	}
	return out
}

func TestLexSimpleAssignment(t *testing.T) {
	toks, err := New("x:i64 = 42\n", "t.mut").Tokenize()
	require.NoError(t, err)
	require.Equal(t, []token.Type{
		token.IDENT, token.COLON, token.IDENT, token.ASSIGN, token.INT, token.NEWLINE, token.EOF,
	}, kinds(toks))
	require.Equal(t, int64(42), toks[4].IntValue)
}

func TestLexImplicitLineContinuationInsideParens(t *testing.T) {
	toks, err := New("f(1,\n2,\n3)\n", "t.mut").Tokenize()
	require.NoError(t, err)
	require.Equal(t, []token.Type{
		token.IDENT, token.LPAREN, token.INT, token.COMMA, token.INT, token.COMMA,
		token.INT, token.RPAREN, token.NEWLINE, token.EOF,
	}, kinds(toks))
}

func TestLexHexAndBinaryLiterals(t *testing.T) {
	toks, err := New("0xFF 0b101\n", "t.mut").Tokenize()
	require.NoError(t, err)
	require.Equal(t, int64(255), toks[0].IntValue)
	require.Equal(t, token.Hex, toks[0].Radix)
	require.Equal(t, int64(5), toks[1].IntValue)
	require.Equal(t, token.Binary, toks[1].Radix)
}

func TestLexCharVsStringDisambiguation(t *testing.T) {
	toks, err := New("'a' 'ab' '\\n'\n", "t.mut").Tokenize()
	require.NoError(t, err)
	require.Equal(t, token.CHAR, toks[0].Type)
	require.Equal(t, int64('a'), toks[0].IntValue)
	require.Equal(t, token.STRING, toks[1].Type)
	require.Equal(t, token.CHAR, toks[2].Type)
	require.Equal(t, int64('\n'), toks[2].IntValue)
}

func TestLexTripleQuotedStringPreservesNewlines(t *testing.T) {
	toks, err := New("\"\"\"line1\nline2\"\"\"\n", "t.mut").Tokenize()
	require.NoError(t, err)
	require.Equal(t, token.STRING, toks[0].Type)
	require.Equal(t, token.TripleString, toks[0].StrKind)
	require.Contains(t, toks[0].Literal, "\n")
}

func TestLexUnterminatedStringIsError(t *testing.T) {
	_, err := New("\"abc\n", "t.mut").Tokenize()
	require.Error(t, err)
}

func TestLexUnknownEscapeIsError(t *testing.T) {
	_, err := New("\"\\q\"\n", "t.mut").Tokenize()
	require.Error(t, err)
}

func TestLexLeadingMinusIsAlwaysUnary(t *testing.T) {
	toks, err := New("-5\n", "t.mut").Tokenize()
	require.NoError(t, err)
	require.Equal(t, []token.Type{token.MINUS, token.INT, token.NEWLINE, token.EOF}, kinds(toks))
}

func TestLexDoesNotEmitNewlineBeforeFirstToken(t *testing.T) {
	toks, err := New("\n\n\nx := 1\n", "t.mut").Tokenize()
	require.NoError(t, err)
	require.Equal(t, token.IDENT, toks[0].Type)
}

func TestLexStandaloneCommentsRecorded(t *testing.T) {
	l := New("# doc line\ndef f()\nend\n", "t.mut")
	_, err := l.Tokenize()
	require.NoError(t, err)
	require.Len(t, l.Comments, 1)
	require.Equal(t, "doc line", l.Comments[0].Text)
}
