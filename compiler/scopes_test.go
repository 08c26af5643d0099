package compiler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScopeShadowingAndLookup(t *testing.T) {
	var scopes []Scope[int]
	PushScope(&scopes, FuncScope)
	Put(scopes, "x", 1)

	PushScope(&scopes, BlockScope)
	Put(scopes, "x", 2)

	v, ok := Get(scopes, "x")
	require.True(t, ok)
	assert.Equal(t, 2, v)

	PopScope(&scopes)
	v, ok = Get(scopes, "x")
	require.True(t, ok)
	assert.Equal(t, 1, v)
}

func TestScopeLookupStopsAtFuncBoundary(t *testing.T) {
	var scopes []Scope[int]
	PushScope(&scopes, FuncScope)
	Put(scopes, "global", 0)

	PushScope(&scopes, FuncScope)
	_, ok := Get(scopes, "global")
	assert.False(t, ok)
}

func TestPopScopePanicsOnGlobalScope(t *testing.T) {
	var scopes []Scope[int]
	PushScope(&scopes, FuncScope)
	assert.Panics(t, func() { PopScope(&scopes) })
}

func TestPutBulk(t *testing.T) {
	var scopes []Scope[int]
	PushScope(&scopes, FuncScope)
	PutBulk(scopes, map[string]int{"a": 1, "b": 2})

	v, ok := Get(scopes, "a")
	require.True(t, ok)
	assert.Equal(t, 1, v)
}
