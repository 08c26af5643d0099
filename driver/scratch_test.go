package driver

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDefaultCacheDirHonorsEnvOverride(t *testing.T) {
	old := os.Getenv("BISMUTCACHE")
	defer os.Setenv("BISMUTCACHE", old)

	want := filepath.Join(t.TempDir(), "custom-cache")
	os.Setenv("BISMUTCACHE", want)

	assert.Equal(t, want, defaultCacheDir())
}
