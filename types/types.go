// Package types implements Bismut's type system: the tagged Type union, the
// value/reference-kind partition that drives assignment semantics, ARC
// insertion and truthiness legality, and the deterministic fingerprint the
// emitter derives from a type to name its C instantiation.
package types

import (
	"fmt"
	"strings"
)

type Kind int

const (
	UnknownKind Kind = iota
	PrimitiveKind
	StrKind
	ListKind
	DictKind
	TupleKind
	FnPtrKind
	ClassKind
	InterfaceKind
	StructKind
	EnumKind
	ExternOpaqueKind
	NoneKind
	GenericKind
)

// Type is the interface every concrete type implements. Kind() drives
// dispatch; String() is the canonical, parseable surface spelling used both
// for diagnostics and as the map key the checker/emitter intern types by.
type Type interface {
	Kind() Kind
	String() string
}

// IsRefKind reports whether t is a reference-kind type: str, List, Dict,
// class, interface, extern-opaque, or None. Reference-kind values are subject to
// ARC; value-kind values are not.
func IsRefKind(t Type) bool {
	switch t.Kind() {
	case StrKind, ListKind, DictKind, ClassKind, InterfaceKind, ExternOpaqueKind, NoneKind:
		return true
	default:
		return false
	}
}

// IsValueKind is the complement of IsRefKind for every fully-resolved type
// (Unknown/Generic never reach the emitter and are excluded from both).
func IsValueKind(t Type) bool {
	switch t.Kind() {
	case PrimitiveKind, TupleKind, FnPtrKind, StructKind, EnumKind:
		return true
	default:
		return false
	}
}

// Primitive is one of the fixed-width integer/float kinds, bool, or void.
type Primitive struct {
	Name string // "i8".."u64", "f32", "f64", "bool", "void"
}

func (p Primitive) Kind() Kind     { return PrimitiveKind }
func (p Primitive) String() string { return p.Name }

var (
	I8   Type = Primitive{"i8"}
	I16  Type = Primitive{"i16"}
	I32  Type = Primitive{"i32"}
	I64  Type = Primitive{"i64"}
	U8   Type = Primitive{"u8"}
	U16  Type = Primitive{"u16"}
	U32  Type = Primitive{"u32"}
	U64  Type = Primitive{"u64"}
	F32  Type = Primitive{"f32"}
	F64  Type = Primitive{"f64"}
	Bool Type = Primitive{"bool"}
	Void Type = Primitive{"void"}
)

var intWidths = map[string]int{
	"i8": 8, "i16": 16, "i32": 32, "i64": 64,
	"u8": 8, "u16": 16, "u32": 32, "u64": 64,
}

var unsignedInts = map[string]bool{"u8": true, "u16": true, "u32": true, "u64": true}

func IsIntegerPrimitive(t Type) bool {
	p, ok := t.(Primitive)
	if !ok {
		return false
	}
	_, ok = intWidths[p.Name]
	return ok
}

func IsFloatPrimitive(t Type) bool {
	p, ok := t.(Primitive)
	return ok && (p.Name == "f32" || p.Name == "f64")
}

func IsUnsigned(t Type) bool {
	p, ok := t.(Primitive)
	return ok && unsignedInts[p.Name]
}

func IntWidth(t Type) int {
	p, ok := t.(Primitive)
	if !ok {
		return 0
	}
	return intWidths[p.Name]
}

// Str is Bismut's reference-kind, immortal-internable string type.
type Str struct{}

func (Str) Kind() Kind     { return StrKind }
func (Str) String() string { return "str" }

// List is a reference-kind homogeneous container.
type List struct{ Elem Type }

func (l List) Kind() Kind     { return ListKind }
func (l List) String() string { return fmt.Sprintf("List[%s]", l.Elem.String()) }

// Dict is a reference-kind string- or integer/bool/enum-keyed container.
type Dict struct{ Key, Val Type }

func (d Dict) Kind() Kind     { return DictKind }
func (d Dict) String() string { return fmt.Sprintf("Dict[%s,%s]", d.Key.String(), d.Val.String()) }

// ValidDictKey reports whether k may be used as a Dict key.
func ValidDictKey(k Type) bool {
	if IsIntegerPrimitive(k) {
		return true
	}
	switch k.Kind() {
	case StrKind, EnumKind:
		return true
	}
	if p, ok := k.(Primitive); ok && p.Name == "bool" {
		return true
	}
	return false
}

// Tuple is a value-kind fixed-arity (n>=2) product type.
type Tuple struct{ Elems []Type }

func (t Tuple) Kind() Kind { return TupleKind }
func (t Tuple) String() string {
	parts := make([]string, len(t.Elems))
	for i, e := range t.Elems {
		parts[i] = e.String()
	}
	return fmt.Sprintf("Tuple[%s]", strings.Join(parts, ","))
}

// FnPtr is a value-kind pointer to a top-level function (no closures).
type FnPtr struct {
	Params []Type
	Ret    Type
}

func (f FnPtr) Kind() Kind { return FnPtrKind }
func (f FnPtr) String() string {
	parts := make([]string, len(f.Params))
	for i, p := range f.Params {
		parts[i] = p.String()
	}
	return fmt.Sprintf("Fn(%s)->%s", strings.Join(parts, ","), f.Ret.String())
}

// Class is a reference-kind user type with fields and methods.
type Class struct{ Name string }

func (c Class) Kind() Kind     { return ClassKind }
func (c Class) String() string { return c.Name }

// Interface is a reference-kind fat-pointer (object, vtable) type.
type Interface struct{ Name string }

func (i Interface) Kind() Kind     { return InterfaceKind }
func (i Interface) String() string { return i.Name }

// Struct is a value-kind plain-old-data type; every field must itself be
// value kind.
type Struct struct{ Name string }

func (s Struct) Kind() Kind     { return StructKind }
func (s Struct) String() string { return s.Name }

// Enum is a value-kind, representationally-i64 type.
type Enum struct{ Name string }

func (e Enum) Kind() Kind     { return EnumKind }
func (e Enum) String() string { return e.Name }

// ExternOpaque is a reference-kind wrapper around a native C library handle,
// refcounted like any other reference type but destructed via the library's
// declared dtor function.
type ExternOpaque struct{ Lib, Name string }

func (e ExternOpaque) Kind() Kind     { return ExternOpaqueKind }
func (e ExternOpaque) String() string { return fmt.Sprintf("%s.%s", e.Lib, e.Name) }

// None is the bottom type for reference-kind values.
type None struct{}

func (None) Kind() Kind     { return NoneKind }
func (None) String() string { return "None" }

// Generic is a type-parameter placeholder, only meaningful inside a generic
// function body before monomorphization substitutes a concrete type.
type Generic struct{ Param string }

func (g Generic) Kind() Kind     { return GenericKind }
func (g Generic) String() string { return g.Param }

// AssignableNoneTo reports whether None may be assigned to an lvalue of
// type dst: true for any reference-kind lvalue.
func AssignableNoneTo(dst Type) bool {
	return IsRefKind(dst)
}

// Equal reports structural type equality, used everywhere the checker
// requires "exact type match".
func Equal(a, b Type) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.String() == b.String()
}
