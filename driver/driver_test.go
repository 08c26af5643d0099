package driver

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppCommands(t *testing.T) {
	app := App()
	names := map[string]bool{}
	for _, c := range app.Commands {
		names[c.Name] = true
	}
	assert.True(t, names["build"])
	assert.True(t, names["run"])
	assert.True(t, names["analyze"])
}

func TestDefaultBinaryName(t *testing.T) {
	assert.Equal(t, "main", defaultBinaryName("main.mut"))
	assert.Equal(t, "foo", defaultBinaryName("/a/b/foo.mut"))
}

func TestRequireFileErrorsWhenMissing(t *testing.T) {
	app := App()
	err := app.Run([]string{"bismut", "build"})
	require.Error(t, err)
}
