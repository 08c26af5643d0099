package parser

import (
	"testing"

	"github.com/bismut-lang/bismut/ast"
	"github.com/bismut-lang/bismut/lexer"
	"github.com/stretchr/testify/require"
)

func parseSource(t *testing.T, src string) *ast.Program {
	t.Helper()
	l := lexer.New(src, "t.mut")
	toks, err := l.Tokenize()
	require.NoError(t, err)
	prog, err := New(toks, l.Comments).ParseProgram()
	require.NoError(t, err)
	return prog
}

func TestParseSimpleFuncDecl(t *testing.T) {
	prog := parseSource(t, "def add(a: i64, b: i64) -> i64\n  return a + b\nend\n")
	require.Len(t, prog.Funcs, 1)
	fn := prog.Funcs[0]
	require.Equal(t, "add", fn.Name)
	require.Len(t, fn.Params, 2)
	require.Equal(t, "i64", fn.Ret.Name)
	require.Len(t, fn.Body.Stmts, 1)
	ret, ok := fn.Body.Stmts[0].(*ast.Return)
	require.True(t, ok)
	bin, ok := ret.Value.(*ast.Binary)
	require.True(t, ok)
	require.Equal(t, "+", bin.Op.String())
}

func TestParseGenericFuncDecl(t *testing.T) {
	prog := parseSource(t, "def identity[T](x: T) -> T\n  return x\nend\n")
	require.Len(t, prog.Funcs, 1)
	require.True(t, prog.Funcs[0].IsGeneric())
	require.Equal(t, []string{"T"}, prog.Funcs[0].TypeParams)
}

func TestParseClassWithImplementsAndFields(t *testing.T) {
	prog := parseSource(t, "class Cat: Animal\n  name: str\n\n  def speak(self) -> str\n    return \"meow\"\n  end\nend\n")
	require.Len(t, prog.Classes, 1)
	cls := prog.Classes[0]
	require.Equal(t, []string{"Animal"}, cls.Implements)
	require.Len(t, cls.Fields, 1)
	require.Len(t, cls.Methods, 1)
}

func TestParseWalrusAndTupleDestructure(t *testing.T) {
	prog := parseSource(t, "x := 1\na, b := pair()\n")
	require.Len(t, prog.Stmts, 2)
	decl, ok := prog.Stmts[0].(*ast.VarDecl)
	require.True(t, ok)
	require.Equal(t, "x", decl.Name)
	require.Nil(t, decl.Ty)
	destr, ok := prog.Stmts[1].(*ast.TupleDestructure)
	require.True(t, ok)
	require.Equal(t, []string{"a", "b"}, destr.Names)
}

func TestParseMemberAndIndexAssign(t *testing.T) {
	prog := parseSource(t, "self.count += 1\nitems[0] = 9\n")
	require.Len(t, prog.Stmts, 2)
	ma, ok := prog.Stmts[0].(*ast.MemberAssign)
	require.True(t, ok)
	require.Equal(t, "count", ma.Member)
	ia, ok := prog.Stmts[1].(*ast.IndexAssign)
	require.True(t, ok)
	_ = ia
}

func TestParseGenericListLiteral(t *testing.T) {
	prog := parseSource(t, "xs := List[i64]() { 1, 2, 3 }\n")
	decl := prog.Stmts[0].(*ast.VarDecl)
	lit, ok := decl.Value.(*ast.ListLit)
	require.True(t, ok)
	require.Equal(t, "i64", lit.ElemType.Name)
	require.Len(t, lit.Elems, 3)
}

func TestParseGenericDictLiteral(t *testing.T) {
	prog := parseSource(t, "m := Dict[str,i64]() { \"a\": 1, \"b\": 2 }\n")
	decl := prog.Stmts[0].(*ast.VarDecl)
	lit, ok := decl.Value.(*ast.DictLit)
	require.True(t, ok)
	require.Equal(t, "str", lit.KeyType.Name)
	require.Equal(t, "i64", lit.ValType.Name)
	require.Len(t, lit.Keys, 2)
}

func TestParseIfElifElse(t *testing.T) {
	prog := parseSource(t, "if x > 0\n  y := 1\nelif x < 0\n  y := 2\nelse\n  y := 3\nend\n")
	ifstmt := prog.Stmts[0].(*ast.If)
	require.Len(t, ifstmt.Arms, 3)
	require.Nil(t, ifstmt.Arms[2].Cond)
}

func TestParseForLoop(t *testing.T) {
	prog := parseSource(t, "for i: i64 in range(10)\n  x := i\nend\n")
	fr := prog.Stmts[0].(*ast.For)
	require.Equal(t, "i", fr.VarName)
	require.Equal(t, "i64", fr.VarTy.Name)
}

func TestParseIsAndAsExpressions(t *testing.T) {
	prog := parseSource(t, "y := x is Cat\nz := x as Cat\n")
	d1 := prog.Stmts[0].(*ast.VarDecl)
	_, ok := d1.Value.(*ast.Is)
	require.True(t, ok)
	d2 := prog.Stmts[1].(*ast.VarDecl)
	_, ok = d2.Value.(*ast.As)
	require.True(t, ok)
}

func TestParseTupleExprAndType(t *testing.T) {
	prog := parseSource(t, "p: (i64,i64) = (1, 2)\n")
	decl := prog.Stmts[0].(*ast.VarDecl)
	require.Equal(t, "(i64,i64)", decl.Ty.Name)
	tup, ok := decl.Value.(*ast.TupleExpr)
	require.True(t, ok)
	require.Len(t, tup.Elems, 2)
}

func TestParsePrecedenceClimbing(t *testing.T) {
	prog := parseSource(t, "r := 1 + 2 * 3\n")
	decl := prog.Stmts[0].(*ast.VarDecl)
	bin := decl.Value.(*ast.Binary)
	require.Equal(t, "+", bin.Op.String())
	rhs := bin.Rhs.(*ast.Binary)
	require.Equal(t, "*", rhs.Op.String())
}

func TestParseImportWithDefaultAlias(t *testing.T) {
	prog := parseSource(t, "import a.b.shapes\ndef f()\nend\n")
	require.Len(t, prog.Imports, 1)
	require.Equal(t, "a.b.shapes", prog.Imports[0].Module)
	require.Equal(t, "shapes", prog.Imports[0].Alias)
}

func TestParseEnumWithExplicitValues(t *testing.T) {
	prog := parseSource(t, "enum Color\n  RED = 1, GREEN, BLUE = -1\nend\n")
	require.Len(t, prog.Enums, 1)
	vars := prog.Enums[0].Variants
	require.Len(t, vars, 3)
	require.NotNil(t, vars[0].Value)
	require.Equal(t, int64(1), *vars[0].Value)
	require.Nil(t, vars[1].Value)
	require.Equal(t, int64(-1), *vars[2].Value)
}

func TestParseDocCommentAttachment(t *testing.T) {
	prog := parseSource(t, "# computes the sum\ndef add(a: i64, b: i64) -> i64\n  return a + b\nend\n")
	require.Equal(t, "computes the sum", prog.Funcs[0].Doc)
}
