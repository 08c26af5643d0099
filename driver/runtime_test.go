package driver

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsHashDir(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want bool
	}{
		{"valid hash", "deadbeef", true},
		{"too short", "dead", false},
		{"too long", "deadbeefdeadbeef", false},
		{"non hex", "zzzzzzzz", false},
		{"empty", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, isHashDir(tt.in))
		})
	}
}

func TestRuntimeHashStable(t *testing.T) {
	short1, full1, n1, err := runtimeHash()
	require.NoError(t, err)
	short2, full2, n2, err := runtimeHash()
	require.NoError(t, err)

	assert.Equal(t, full1, full2)
	assert.Equal(t, short1, short2)
	assert.Equal(t, n1, n2)
	assert.Len(t, short1, 8)
	assert.Greater(t, n1, 0)
}

func TestPrepareRuntimeCaches(t *testing.T) {
	cacheDir := t.TempDir()

	dir1, err := prepareRuntime(cacheDir)
	require.NoError(t, err)
	assert.FileExists(t, filepath.Join(dir1, "bismut_runtime.h"))

	info1, err := os.Stat(filepath.Join(dir1, ".hash"))
	require.NoError(t, err)

	dir2, err := prepareRuntime(cacheDir)
	require.NoError(t, err)
	assert.Equal(t, dir1, dir2)

	info2, err := os.Stat(filepath.Join(dir2, ".hash"))
	require.NoError(t, err)
	assert.Equal(t, info1.ModTime(), info2.ModTime())
}

func TestExtractRuntimeWritesAllHeaders(t *testing.T) {
	rtDir := filepath.Join(t.TempDir(), "rt")
	require.NoError(t, extractRuntime(rtDir))

	for _, name := range []string{
		"bismut_runtime.h", "rt_rc.h", "rt_alloc.h", "rt_error.h",
		"rt_str.h", "rt_sb.h", "rt_list.h", "rt_dict.h", "rt_range.h",
		"rt_print.h", "rt_format.h", "rt_file.h", "rt_process.h",
		"rt_time.h", "rt_leak.h", "rt_argv.h",
	} {
		assert.FileExists(t, filepath.Join(rtDir, name))
	}
}
