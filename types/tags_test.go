package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTagDeterministicAndInjective(t *testing.T) {
	tests := []struct {
		name string
		ty   Type
		want string
	}{
		{"i64", I64, "I64"},
		{"str", Str{}, "Str"},
		{"list of i64", List{Elem: I64}, "List_I64"},
		{"dict str->i64", Dict{Key: Str{}, Val: I64}, "Dict_Str_I64"},
		{"nested list", List{Elem: List{Elem: Bool}}, "List_List_BOOL"},
		{"tuple", Tuple{Elems: []Type{I64, Bool}}, "Tuple_I64_BOOL"},
		{"fn ptr void ret", FnPtr{Params: []Type{I64}, Ret: Void}, "Fn_I64__VOID"},
		{"fn ptr non-void ret", FnPtr{Params: []Type{I64}, Ret: Bool}, "Fn_I64__BOOL"},
		{"class", Class{Name: "Widget"}, "Widget"},
		{"extern opaque", ExternOpaque{Lib: "net", Name: "Socket"}, "net_Socket"},
		{"none", None{}, "None"},
	}
	seen := map[string]string{}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Tag(tt.ty)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, got, Tag(tt.ty), "Tag must be deterministic across calls")

			if prior, ok := seen[got]; ok {
				assert.Equal(t, prior, tt.name, "tag %q collided between distinct types", got)
			}
			seen[got] = tt.name
		})
	}
}

func TestCTypeSpellings(t *testing.T) {
	assert.Equal(t, "int64_t", CType(I64))
	assert.Equal(t, "uint8_t", CType(U8))
	assert.Equal(t, "double", CType(F64))
	assert.Equal(t, "bool", CType(Bool))
	assert.Equal(t, "Str*", CType(Str{}))
	assert.Equal(t, "List_I64*", CType(List{Elem: I64}))
	assert.Equal(t, "Dict_Str_I64*", CType(Dict{Key: Str{}, Val: I64}))
	assert.Equal(t, "Class_Widget*", CType(Class{Name: "Widget"}))
	assert.Equal(t, "Iface_Shape", CType(Interface{Name: "Shape"}))
	assert.Equal(t, "Struct_Point", CType(Struct{Name: "Point"}))
	assert.Equal(t, "int64_t", CType(Enum{Name: "Color"}))
	assert.Equal(t, "Extern_net_Socket*", CType(ExternOpaque{Lib: "net", Name: "Socket"}))
	assert.Equal(t, "void*", CType(None{}))
}
