package mutlib

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func writeManifest(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name+".mutlib")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestParseManifestSections(t *testing.T) {
	dir := t.TempDir()
	content := `[types]
# a socket handle
Socket = mut_socket_t

[functions]
open(addr: str, port: i64) -> Socket = mut_socket_open
close(s: Socket) [dtor] = mut_socket_close

[constants]
DEFAULT_PORT: i64 = 8080

[flags]
cflags = -I{LIB_DIR}/include
ldflags = -lsocket
cflags_linux = -DLINUX_SOCKET
`
	path := writeManifest(t, dir, "net", content)
	m, err := Parse(path, "net", dir, "linux")
	require.NoError(t, err)

	require.Len(t, m.Types, 1)
	require.Equal(t, "Socket", m.Types[0].BismutName)
	require.Equal(t, "mut_socket_t", m.Types[0].CType)
	require.Equal(t, "a socket handle", m.Types[0].Doc)
	require.Equal(t, "mut_socket_close", m.Types[0].CDtor)

	require.Len(t, m.Funcs, 2)
	require.Equal(t, "open", m.Funcs[0].BismutName)
	require.Equal(t, "Socket", m.Funcs[0].RetType)
	require.Equal(t, []Param{{Name: "addr", Type: "str"}, {Name: "port", Type: "i64"}}, m.Funcs[0].Params)
	require.True(t, m.Funcs[1].IsDtor)

	require.Len(t, m.Consts, 1)
	require.Equal(t, "DEFAULT_PORT", m.Consts[0].BismutName)
	require.Equal(t, "8080", m.Consts[0].CExpr)

	require.Contains(t, m.Cflags, "-I"+dir+"/include")
	require.Contains(t, m.Cflags, "-DLINUX_SOCKET")
	require.Contains(t, m.Ldflags, "-lsocket")
}

func TestParseDtorMissingTypeErrors(t *testing.T) {
	dir := t.TempDir()
	content := `[functions]
close(s: Socket) [dtor] = mut_socket_close
`
	path := writeManifest(t, dir, "net", content)
	_, err := Parse(path, "net", dir, "linux")
	require.Error(t, err)
}

func TestFindLibSearchesSourceDirFirst(t *testing.T) {
	root := t.TempDir()
	srcDir := filepath.Join(root, "proj")
	compilerDir := filepath.Join(root, "compiler")
	require.NoError(t, os.MkdirAll(filepath.Join(srcDir, "libs", "net"), 0o755))
	require.NoError(t, os.MkdirAll(filepath.Join(compilerDir, "libs", "net"), 0o755))
	writeManifest(t, filepath.Join(srcDir, "libs", "net"), "net", "[types]\n")

	found, ok := FindLib("net", filepath.Join(srcDir, "main.mut"), compilerDir)
	require.True(t, ok)
	require.Contains(t, found, srcDir)
}

func TestFindLibMissingReturnsFalse(t *testing.T) {
	root := t.TempDir()
	_, ok := FindLib("nope", filepath.Join(root, "main.mut"), filepath.Join(root, "compiler"))
	require.False(t, ok)
}
