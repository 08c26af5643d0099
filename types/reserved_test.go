package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsReservedTypeName(t *testing.T) {
	for _, name := range []string{"i64", "bool", "str", "List", "Dict", "Tuple", "None"} {
		assert.True(t, IsReservedTypeName(name), "%s should be reserved", name)
	}
	for _, name := range []string{"Widget", "Color", "Point", "list", "dict"} {
		assert.False(t, IsReservedTypeName(name), "%s should not be reserved", name)
	}
}

func TestReservedTypeNamesReturnsCopy(t *testing.T) {
	names := ReservedTypeNames()
	names[0] = "clobbered"
	assert.True(t, IsReservedTypeName("i8"), "mutating the returned slice must not affect the reserved set")
}
