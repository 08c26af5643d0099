package checker

import (
	"testing"

	"github.com/bismut-lang/bismut/ast"
	"github.com/bismut-lang/bismut/diagnostics"
	"github.com/bismut-lang/bismut/lexer"
	"github.com/bismut-lang/bismut/parser"
	"github.com/stretchr/testify/require"
)

func parseSource(t *testing.T, src string) *ast.Program {
	t.Helper()
	l := lexer.New(src, "t.mut")
	toks, err := l.Tokenize()
	require.NoError(t, err)
	prog, err := parser.New(toks, l.Comments).ParseProgram()
	require.NoError(t, err)
	return prog
}

func checkSource(t *testing.T, src string) *diagnostics.Bag {
	t.Helper()
	prog := parseSource(t, src)
	bag := diagnostics.NewBag()
	New(prog, bag).Check()
	return bag
}

func TestCheckSimpleFuncOK(t *testing.T) {
	bag := checkSource(t, "def add(a: i64, b: i64) -> i64\n  return a + b\nend\n")
	require.False(t, bag.HasErrors(), "%v", bag.Diagnostics())
}

func TestCheckMismatchedReturnType(t *testing.T) {
	bag := checkSource(t, "def add(a: i64, b: i64) -> i64\n  return 1.5\nend\n")
	require.True(t, bag.HasErrors())
}

func TestCheckUndefinedVariable(t *testing.T) {
	bag := checkSource(t, "def run() -> i64\n  return missing\nend\n")
	require.True(t, bag.HasErrors())
}

func TestCheckAssignToConst(t *testing.T) {
	bag := checkSource(t, `def run() -> i64
    const x: i64 = 1
    x = 2
    return x
end
`)
	require.True(t, bag.HasErrors())
}

func TestCheckVarDeclInfersFromValue(t *testing.T) {
	bag := checkSource(t, `def run() -> i64
    x := 5
    return x
end
`)
	require.False(t, bag.HasErrors(), "%v", bag.Diagnostics())
}

func TestCheckNoneInferenceRejected(t *testing.T) {
	bag := checkSource(t, `def run() -> i64
    x := None
    return 0
end
`)
	require.True(t, bag.HasErrors())
}

func TestCheckWhileRequiresTruthy(t *testing.T) {
	bag := checkSource(t, `def run() -> i64
    x: f64 = 1.0
    while x
        return 0
    end
    return 1
end
`)
	require.True(t, bag.HasErrors())
}

func TestCheckBreakOutsideLoop(t *testing.T) {
	bag := checkSource(t, "def run() -> i64\n  break\n  return 0\nend\n")
	require.True(t, bag.HasErrors())
}

func TestCheckForOverList(t *testing.T) {
	bag := checkSource(t, `def sum() -> i64
    total: i64 = 0
    for x: i64 in range(3)
        total += x
    end
    return total
end
`)
	require.False(t, bag.HasErrors(), "%v", bag.Diagnostics())
}

func TestCheckForElemTypeMismatch(t *testing.T) {
	bag := checkSource(t, `def sum() -> i64
    for x: f64 in range(3)
        return 0
    end
    return 1
end
`)
	require.True(t, bag.HasErrors())
}

func TestCheckTupleDestructureArity(t *testing.T) {
	bag := checkSource(t, `def pair() -> (i64, i64)
    return (1, 2)
end

def run() -> i64
    a, b := pair()
    return a + b
end
`)
	require.False(t, bag.HasErrors(), "%v", bag.Diagnostics())
}

func TestCheckListGenericOpsInferred(t *testing.T) {
	bag := checkSource(t, `def run() -> i64
    l := List[i64]()
    append(l, 5)
    return get(l, 0)
end
`)
	require.False(t, bag.HasErrors(), "%v", bag.Diagnostics())
}

func TestCheckDictGenericOpsExplicit(t *testing.T) {
	bag := checkSource(t, `def run() -> i64
    d := Dict[str,i64]()
    put[str,i64](d, "a", 1)
    return lookup[str,i64](d, "a")
end
`)
	require.False(t, bag.HasErrors(), "%v", bag.Diagnostics())
}

func TestCheckClassConstructorAndMethod(t *testing.T) {
	bag := checkSource(t, `class Counter
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
	require.False(t, bag.HasErrors(), "%v", bag.Diagnostics())
}

func TestCheckStructPositionalConstruction(t *testing.T) {
	bag := checkSource(t, `struct Point
    x: i64
    y: i64
end

def run() -> i64
    p := Point(1, 2)
    return p.x + p.y
end
`)
	require.False(t, bag.HasErrors(), "%v", bag.Diagnostics())
}

func TestCheckStructCannotContainItself(t *testing.T) {
	bag := checkSource(t, `struct Node
    child: Node
end
`)
	require.True(t, bag.HasErrors())
}

func TestCheckStructFieldMustBeValueKind(t *testing.T) {
	bag := checkSource(t, `struct Holder
    s: str
end
`)
	require.True(t, bag.HasErrors())
}

func TestCheckInterfaceSatisfaction(t *testing.T) {
	bag := checkSource(t, `interface Shape
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
`)
	require.False(t, bag.HasErrors(), "%v", bag.Diagnostics())
}

func TestCheckInterfaceMissingMethodIsError(t *testing.T) {
	bag := checkSource(t, `interface Shape
    def area(self) -> i64
end

class Square: Shape
    side: i64

    def init(self, side: i64) -> void
        self.side = side
    end
end
`)
	require.True(t, bag.HasErrors())
}

func TestCheckInterfaceCannotBeConstructed(t *testing.T) {
	bag := checkSource(t, `interface Shape
    def area(self) -> i64
end

def run() -> void
    s := Shape()
end
`)
	require.True(t, bag.HasErrors())
}

func TestCheckClassCycleIsWarningNotError(t *testing.T) {
	bag := checkSource(t, `class A
    other: B
end

class B
    other: A
end
`)
	require.False(t, bag.HasErrors(), "%v", bag.Diagnostics())
	require.Greater(t, bag.WarningCount(), 0)
}

func TestCheckGenericFunctionInference(t *testing.T) {
	bag := checkSource(t, `def identity[T](x: T) -> T
    return x
end

def run() -> i64
    return identity(5)
end
`)
	require.False(t, bag.HasErrors(), "%v", bag.Diagnostics())
}

func TestCheckGenericFunctionExplicitTypeArg(t *testing.T) {
	bag := checkSource(t, `def identity[T](x: T) -> T
    return x
end

def run() -> f64
    return identity[f64](1.5)
end
`)
	require.False(t, bag.HasErrors(), "%v", bag.Diagnostics())
}

func TestCheckEnumAssignableToI64(t *testing.T) {
	bag := checkSource(t, `enum Color
    Red
    Green
    Blue
end

def run() -> i64
    c := Color.Red
    return c
end
`)
	require.False(t, bag.HasErrors(), "%v", bag.Diagnostics())
}

func TestCheckDictKeyMustBeHashable(t *testing.T) {
	bag := checkSource(t, `def run() -> void
    d := Dict[f64,i64]()
end
`)
	require.True(t, bag.HasErrors())
}

func TestCheckAsDowncastRequiresInterface(t *testing.T) {
	bag := checkSource(t, `class Square
    side: i64
end

def run() -> void
    s := Square(1)
    x := s as Square
end
`)
	require.True(t, bag.HasErrors())
}
