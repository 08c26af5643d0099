package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsRefKindAndValueKind(t *testing.T) {
	refTypes := []Type{Str{}, List{Elem: I64}, Dict{Key: Str{}, Val: I64}, Class{Name: "Widget"}, Interface{Name: "Shape"}, ExternOpaque{Lib: "net", Name: "Socket"}, None{}}
	for _, ty := range refTypes {
		assert.True(t, IsRefKind(ty), "%s should be ref kind", ty.String())
		assert.False(t, IsValueKind(ty), "%s should not be value kind", ty.String())
	}

	valueTypes := []Type{I64, Bool, Tuple{Elems: []Type{I64, Bool}}, FnPtr{Params: []Type{I64}, Ret: Bool}, Struct{Name: "Point"}, Enum{Name: "Color"}}
	for _, ty := range valueTypes {
		assert.True(t, IsValueKind(ty), "%s should be value kind", ty.String())
		assert.False(t, IsRefKind(ty), "%s should not be ref kind", ty.String())
	}
}

func TestIntegerPrimitivePredicates(t *testing.T) {
	assert.True(t, IsIntegerPrimitive(I64))
	assert.True(t, IsIntegerPrimitive(U8))
	assert.False(t, IsIntegerPrimitive(F64))
	assert.False(t, IsIntegerPrimitive(Str{}))

	assert.True(t, IsUnsigned(U32))
	assert.False(t, IsUnsigned(I32))

	assert.Equal(t, 64, IntWidth(I64))
	assert.Equal(t, 8, IntWidth(U8))
	assert.Equal(t, 0, IntWidth(Str{}))

	assert.True(t, IsFloatPrimitive(F32))
	assert.False(t, IsFloatPrimitive(I32))
}

func TestValidDictKey(t *testing.T) {
	assert.True(t, ValidDictKey(Str{}))
	assert.True(t, ValidDictKey(I64))
	assert.True(t, ValidDictKey(Bool))
	assert.True(t, ValidDictKey(Enum{Name: "Color"}))
	assert.False(t, ValidDictKey(F64))
	assert.False(t, ValidDictKey(List{Elem: I64}))
}

func TestAssignableNoneTo(t *testing.T) {
	assert.True(t, AssignableNoneTo(Str{}))
	assert.True(t, AssignableNoneTo(Class{Name: "Widget"}))
	assert.False(t, AssignableNoneTo(I64))
	assert.False(t, AssignableNoneTo(Struct{Name: "Point"}))
}

func TestEqual(t *testing.T) {
	assert.True(t, Equal(I64, I64))
	assert.True(t, Equal(List{Elem: I64}, List{Elem: I64}))
	assert.False(t, Equal(List{Elem: I64}, List{Elem: F64}))
	assert.False(t, Equal(I64, nil))
	assert.True(t, Equal(nil, nil))
}

func TestTypeStringSpellings(t *testing.T) {
	assert.Equal(t, "List[i64]", List{Elem: I64}.String())
	assert.Equal(t, "Dict[str,i64]", Dict{Key: Str{}, Val: I64}.String())
	assert.Equal(t, "Tuple[i64,bool]", Tuple{Elems: []Type{I64, Bool}}.String())
	assert.Equal(t, "Fn(i64,bool)->i64", FnPtr{Params: []Type{I64, Bool}, Ret: I64}.String())
}
