package emitter

import (
	"testing"

	"github.com/bismut-lang/bismut/ast"
	"github.com/bismut-lang/bismut/checker"
	"github.com/bismut-lang/bismut/diagnostics"
	"github.com/bismut-lang/bismut/lexer"
	"github.com/bismut-lang/bismut/parser"
	"github.com/stretchr/testify/require"
)

func genSource(t *testing.T, src string) string {
	t.Helper()
	l := lexer.New(src, "t.mut")
	toks, err := l.Tokenize()
	require.NoError(t, err)
	prog, err := parser.New(toks, l.Comments).ParseProgram()
	require.NoError(t, err)
	bag := diagnostics.NewBag()
	checker.New(prog, bag).Check()
	require.False(t, bag.HasErrors(), "%v", bag.Diagnostics())
	out, err := Generate(prog, false)
	require.NoError(t, err)
	return out
}

func checkedProgram(t *testing.T, src string) *ast.Program {
	t.Helper()
	l := lexer.New(src, "t.mut")
	toks, err := l.Tokenize()
	require.NoError(t, err)
	prog, err := parser.New(toks, l.Comments).ParseProgram()
	require.NoError(t, err)
	bag := diagnostics.NewBag()
	checker.New(prog, bag).Check()
	require.False(t, bag.HasErrors(), "%v", bag.Diagnostics())
	return prog
}

func TestGeneratePlainFunction(t *testing.T) {
	out := genSource(t, `def add(a: i64, b: i64) -> i64
    return a + b
end
`)
	require.Contains(t, out, "Fn_add")
	require.Contains(t, out, "int64_t")
}

func TestGenerateStringConcatUsesRuntimeCall(t *testing.T) {
	out := genSource(t, `def greet(name: str) -> str
    return "hi " + name
end
`)
	require.Contains(t, out, RTPrefix+"str_concat")
}

func TestGenerateClassConstructorAndMethod(t *testing.T) {
	out := genSource(t, `class Counter
    n: i64

    def init(self, start: i64) -> void
        self.n = start
    end

    def bump(self) -> i64
        self.n += 1
        return self.n
    end
end

def run() -> i64
    c := Counter(0)
    return c.bump()
end
`)
	require.Contains(t, out, "Class_Counter_new")
	require.Contains(t, out, "Class_Counter_bump")
	require.Contains(t, out, "Class_Counter_release")
}

func TestGenerateStructPositionalConstruction(t *testing.T) {
	out := genSource(t, `struct Point
    x: i64
    y: i64
end

def run() -> i64
    p := Point(1, 2)
    return p.x + p.y
end
`)
	require.Contains(t, out, "typedef struct Struct_Point_s")
	require.Contains(t, out, "(Struct_Point){")
}

func TestGenerateListGenericOps(t *testing.T) {
	out := genSource(t, `def run() -> i64
    l := List[i64]()
    append(l, 5)
    return get(l, 0)
end
`)
	require.Contains(t, out, "List_I64_new")
	require.Contains(t, out, "List_I64_push")
	require.Contains(t, out, "List_I64_get")
}

func TestGenerateDictGenericOpsExplicit(t *testing.T) {
	out := genSource(t, `def run() -> i64
    d := Dict[str,i64]()
    put[str,i64](d, "a", 1)
    return lookup[str,i64](d, "a")
end
`)
	require.Contains(t, out, "Dict_Str_I64_new")
	require.Contains(t, out, "Dict_Str_I64_set")
	require.Contains(t, out, "Dict_Str_I64_get")
}

func TestGenerateInterfaceVtableDispatch(t *testing.T) {
	out := genSource(t, `interface Shape
    def area(self) -> i64
end

class Square: Shape
    side: i64

    def init(self, side: i64) -> void
        self.side = side
    end

    def area(self) -> i64
        return self.side * self.side
    end
end

def run() -> i64
    s: Shape = Square(3)
    return s.area()
end
`)
	require.Contains(t, out, "Vtbl_Square_as_Shape")
	require.Contains(t, out, ".vtbl->area_(")
}

func TestGenerateEnumVariantFoldsToIntLiteral(t *testing.T) {
	out := genSource(t, `enum Color
    Red
    Green
    Blue
end

def run() -> i64
    c := Color.Blue
    return c
end
`)
	require.Contains(t, out, "2")
}

func TestGenerateGenericFunctionMonomorphized(t *testing.T) {
	out := genSource(t, `def identity[T](x: T) -> T
    return x
end

def run() -> i64
    return identity(5)
end
`)
	require.Contains(t, out, "Fn_identity_I64")
}

func TestGenerateMainHasThreeStageLifecycle(t *testing.T) {
	out := genSource(t, `def run() -> i64
    return 0
end
`)
	require.Contains(t, out, "static void init_globals(void)")
	require.Contains(t, out, "static void program_body(void)")
	require.Contains(t, out, "static void exit_globals(void)")
	require.Contains(t, out, "int main(int argc, char** argv)")
	require.Contains(t, out, "init_globals();")
	require.Contains(t, out, "program_body();")
	require.Contains(t, out, "exit_globals();")
}

func TestGenerateTopLevelGlobalInitialized(t *testing.T) {
	out := genSource(t, `counter: i64 = 41

def run() -> i64
    return counter + 1
end
`)
	require.Contains(t, out, "init_globals")
	require.Contains(t, out, "= ((int64_t)41);")
}

func TestGenerateForLoopOverList(t *testing.T) {
	out := genSource(t, `def sum() -> i64
    total: i64 = 0
    for x: i64 in range(3)
        total += x
    end
    return total
end
`)
	require.Contains(t, out, RTPrefix+"range")
	require.Contains(t, out, "for (int64_t")
}

func TestGenerateInternedStringLiteralDeduplicates(t *testing.T) {
	out := genSource(t, `def run() -> str
    a := "hello"
    b := "hello"
    return a + b
end
`)
	require.Equal(t, 1, countOccurrences(out, "static Str* __str_lit_"))
}

func TestGenerateMinimalProgramSucceeds(t *testing.T) {
	prog := checkedProgramNoErrors(t, `def run() -> i64
    return 0
end
`)
	_, err := Generate(prog, false)
	require.NoError(t, err)
}

func checkedProgramNoErrors(t *testing.T, src string) *ast.Program {
	return checkedProgram(t, src)
}

func countOccurrences(s, substr string) int {
	count := 0
	for i := 0; i+len(substr) <= len(s); i++ {
		if s[i:i+len(substr)] == substr {
			count++
			i += len(substr) - 1
		}
	}
	return count
}
