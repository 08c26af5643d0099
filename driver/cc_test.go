package driver

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCompilerSelection(t *testing.T) {
	assert.Equal(t, "cc", BuildOptions{}.compiler())
	assert.Equal(t, "clang", BuildOptions{CC: "clang"}.compiler())
	assert.Equal(t, "tcc", BuildOptions{CC: "clang", UseTCC: true}.compiler())
}

func TestOptFlags(t *testing.T) {
	assert.Equal(t, []string{"-O2"}, BuildOptions{Release: true}.optFlags())
	assert.Equal(t, []string{"-O0", "-g"}, BuildOptions{}.optFlags())
}
