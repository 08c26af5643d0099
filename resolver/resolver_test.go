package resolver

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/bismut-lang/bismut/ast"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestResolveImportsMergesAndMangles(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "geo.mut"), `def area(r: i64) -> i64
    return r * r
end
`)
	writeFile(t, filepath.Join(root, "main.mut"), `import geo

def run() -> i64
    return geo.area(4)
end
`)

	l := &Loader{CompilerDir: filepath.Join(root, "compiler")}
	prog, err := l.ParseFile(filepath.Join(root, "main.mut"))
	require.NoError(t, err)

	resolved, err := l.Resolve(prog, filepath.Join(root, "main.mut"))
	require.NoError(t, err)

	var names []string
	for _, f := range resolved.Funcs {
		names = append(names, f.Name)
	}
	require.Contains(t, names, "geo__area")
	require.Contains(t, names, "run")

	var runFn *ast.FuncDecl
	for _, f := range resolved.Funcs {
		if f.Name == "run" {
			runFn = f
		}
	}
	require.NotNil(t, runFn)
	ret := runFn.Body.Stmts[0].(*ast.Return)
	call := ret.Value.(*ast.Call)
	callee := call.Callee.(*ast.Ident)
	require.Equal(t, "geo__area", callee.Name)
}

func TestResolveImportsDetectsCycle(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "a.mut"), "import b\n")
	writeFile(t, filepath.Join(root, "b.mut"), "import a\n")

	l := &Loader{CompilerDir: filepath.Join(root, "compiler")}
	prog, err := l.ParseFile(filepath.Join(root, "a.mut"))
	require.NoError(t, err)

	_, err = l.Resolve(prog, filepath.Join(root, "a.mut"))
	require.Error(t, err)
}

func TestResolveImportsMissingModule(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "main.mut"), "import nope\n")

	l := &Loader{CompilerDir: filepath.Join(root, "compiler")}
	prog, err := l.ParseFile(filepath.Join(root, "main.mut"))
	require.NoError(t, err)

	_, err = l.Resolve(prog, filepath.Join(root, "main.mut"))
	require.Error(t, err)
}

func TestResolveExternsSynthesizesBindings(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "libs", "net", "net.mutlib"), `[types]
Socket = mut_socket_t

[functions]
open(addr: str) -> Socket = mut_socket_open
close(s: Socket) [dtor] = mut_socket_close

[constants]
DEFAULT_PORT: i64 = 8080
`)
	writeFile(t, filepath.Join(root, "main.mut"), `extern net

def run() -> i64
    return net__DEFAULT_PORT
end
`)

	l := &Loader{CompilerDir: filepath.Join(root, "compiler")}
	prog, err := l.ParseFile(filepath.Join(root, "main.mut"))
	require.NoError(t, err)

	resolved, err := l.Resolve(prog, filepath.Join(root, "main.mut"))
	require.NoError(t, err)

	require.Contains(t, resolved.ExternTypeInfo, "net__Socket")
	require.Equal(t, "mut_socket_t", resolved.ExternTypeInfo["net__Socket"].CType)
	require.Equal(t, "mut_socket_close", resolved.ExternTypeInfo["net__Socket"].CDtor)
	require.Contains(t, resolved.ExternConstants, "net__DEFAULT_PORT")

	var funcNames []string
	for _, f := range resolved.Funcs {
		funcNames = append(funcNames, f.Name)
	}
	require.Contains(t, funcNames, "net__open")
	require.Contains(t, funcNames, "net__close")
}

func TestRenameTypeStringHandlesNestedGenerics(t *testing.T) {
	rmap := map[string]string{"Item": "geo__Item"}
	require.Equal(t, "List[geo__Item]", renameTypeString("List[Item]", rmap))
	require.Equal(t, "Dict[str,geo__Item]", renameTypeString("Dict[str,Item]", rmap))
}

func TestSplitDepthAwareIgnoresNestedCommas(t *testing.T) {
	parts := splitDepthAware("Dict[str,i64],bool", ',')
	require.Equal(t, []string{"Dict[str,i64]", "bool"}, parts)
}
