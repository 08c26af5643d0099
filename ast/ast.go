// Package ast defines the Bismut abstract syntax tree: the
// Decl/Stmt/Expr/TypeRef tagged-union node sets the parser builds and every
// later stage (resolver, checker, emitter) walks, expressed as a small set
// of Go interfaces with exhaustive type switches downstream.
package ast

import (
	"github.com/bismut-lang/bismut/token"
	"github.com/bismut-lang/bismut/types"
)

// TypeRef is the surface syntax for a type annotation, exactly as written
// (e.g. "i64", "List[str]", "Dict[str,i64]"); the checker resolves it to a
// types.Type.
type TypeRef struct {
	Pos  token.Position
	Name string
}

// ---- Expressions ----

// Expr is any Bismut expression node. ResolvedType is populated by the
// checker, which annotates every resolved expression with its final type
// for the emitter, and is nil until then.
type Expr interface {
	Position() token.Position
}

type exprBase struct {
	Pos          token.Position
	ResolvedType types.Type
}

func (e exprBase) Position() token.Position { return e.Pos }

// Type returns the checker-assigned type, nil until the checker runs.
func (e exprBase) Type() types.Type { return e.ResolvedType }

// SetType records the checker's resolved type for this expression.
func (e *exprBase) SetType(t types.Type) { e.ResolvedType = t }

// Typed is the subset of Expr every concrete node satisfies once its
// embedded exprBase is addressable (true for every node constructed
// through ast.New*, which always returns a pointer).
type Typed interface {
	Expr
	Type() types.Type
	SetType(types.Type)
}

type IntLit struct {
	exprBase
	Value int64
	Radix token.IntRadix
}

type FloatLit struct {
	exprBase
	Value float64
}

type StringLit struct {
	exprBase
	Raw  string // includes quotes; unescaped text is computed by the emitter/checker
	Kind token.StringKind
}

type CharLit struct {
	exprBase
	Value int64
}

type BoolLit struct {
	exprBase
	Value bool
}

type NoneLit struct{ exprBase }

type Ident struct {
	exprBase
	Name string
}

type Unary struct {
	exprBase
	Op  token.Type
	Rhs Expr
}

type Binary struct {
	exprBase
	Op       token.Type
	Lhs, Rhs Expr
}

// Call covers both plain calls and explicit generic calls: name[T,...](...).
type Call struct {
	exprBase
	Callee   Expr
	Args     []Expr
	TypeArgs []TypeRef // non-nil for name[T,...](...)
}

type MemberAccess struct {
	exprBase
	Obj    Expr
	Member string
}

// Is is `expr is TypeName`.
type Is struct {
	exprBase
	Lhs      Expr
	TypeName string
}

// As is `expr as TypeName`, an interface-to-class downcast.
type As struct {
	exprBase
	Lhs      Expr
	TypeName string
}

type Index struct {
	exprBase
	Obj, Idx Expr
}

type TupleExpr struct {
	exprBase
	Elems []Expr
}

// ListLit is `List[T]() { e, e, ... }`.
type ListLit struct {
	exprBase
	ElemType TypeRef
	Elems    []Expr
}

// DictLit is `Dict[K,V]() { k: v, ... }`.
type DictLit struct {
	exprBase
	KeyType, ValType TypeRef
	Keys, Vals       []Expr
}

// ---- Statements ----

type Stmt interface {
	Position() token.Position
}

type stmtBase struct {
	Pos token.Position
}

func (s stmtBase) Position() token.Position { return s.Pos }

type VarDecl struct {
	stmtBase
	Name     string
	Ty       *TypeRef // nil for := shorthand
	Value    Expr
	IsConst  bool
	IsStatic bool
}

// TupleDestructure is `a, b := expr`, always exactly arity 2.
type TupleDestructure struct {
	stmtBase
	Names []string
	Value Expr
}

type Assign struct {
	stmtBase
	Name  string
	Op    token.Type
	Value Expr
}

type MemberAssign struct {
	stmtBase
	Obj    Expr
	Member string
	Op     token.Type
	Value  Expr
}

type IndexAssign struct {
	stmtBase
	Obj, Idx Expr
	Op       token.Type
	Value    Expr
}

type ExprStmt struct {
	stmtBase
	Expr Expr
}

type Return struct {
	stmtBase
	Value Expr // nil for bare `return`
}

type Break struct{ stmtBase }
type Continue struct{ stmtBase }

type Block struct {
	stmtBase
	Stmts []Stmt
}

type IfArm struct {
	Pos   token.Position
	Cond  Expr // nil for the trailing else arm
	Block *Block
}

type If struct {
	stmtBase
	Arms []IfArm
}

type While struct {
	stmtBase
	Cond Expr
	Body *Block
}

// For is the range/list/dict-keys iteration form; the checker determines
// which of the three from Iterable's resolved type.
type For struct {
	stmtBase
	VarName  string
	VarTy    TypeRef
	Iterable Expr
	Body     *Block
}

// ---- Declarations ----

type Param struct {
	Pos  token.Position
	Name string
	Ty   TypeRef
}

type FuncDecl struct {
	Pos         token.Position
	Name        string
	TypeParams  []string // e.g. ["T"] for def foo[T](...)
	Params      []Param
	Ret         TypeRef
	Body        *Block
	ExternCName string // set for extern-bound declarations (no body emitted)
	Doc         string
}

func (f *FuncDecl) Position() token.Position { return f.Pos }

// IsGeneric reports whether f declares type parameters.
func (f *FuncDecl) IsGeneric() bool { return len(f.TypeParams) > 0 }

type MethodSig struct {
	Pos    token.Position
	Name   string
	Params []Param // includes self
	Ret    TypeRef
}

type InterfaceDecl struct {
	Pos        token.Position
	Name       string
	MethodSigs []MethodSig
	Doc        string
}

type FieldDecl struct {
	Pos  token.Position
	Name string
	Ty   TypeRef
}

type ClassDecl struct {
	Pos        token.Position
	Name       string
	Fields     []FieldDecl
	Methods    []*FuncDecl
	Implements []string
	Doc        string
}

type StructDecl struct {
	Pos     token.Position
	Name    string
	Fields  []FieldDecl
	Methods []*FuncDecl
	Doc     string
}

type ImportDecl struct {
	Pos    token.Position
	Module string // e.g. "a.b.c"
	Alias  string
}

type ExternDecl struct {
	Pos   token.Position
	Name  string // library name
	Alias string
}

type EnumVariant struct {
	Pos   token.Position
	Name  string
	Value *int64 // nil = auto-increment from the running counter
}

type EnumDecl struct {
	Pos      token.Position
	Name     string
	Variants []EnumVariant
	Doc      string
}

// ExternTypeBinding records the native C side of one extern-declared type:
// its storage type name and the destructor called when its refcount drops
// to zero, if any.
type ExternTypeBinding struct {
	CType string
	CDtor string
}

// ExternConstBinding records the native C expression backing one
// extern-declared constant and its declared Bismut type.
type ExternConstBinding struct {
	CExpr string
	Ty    string
}

// Program is a whole parsed compilation unit: one source file before import
// resolution, or the flattened merge of every imported module after it, so
// downstream stages never need to know modules existed. The Extern* fields
// accumulate native-library bindings discovered while resolving `extern`
// declarations, threaded through to the emitter as build metadata.
type Program struct {
	Pos        token.Position
	Funcs      []*FuncDecl
	Classes    []*ClassDecl
	Structs    []*StructDecl
	Interfaces []*InterfaceDecl
	Enums      []*EnumDecl
	Imports    []*ImportDecl
	Externs    []*ExternDecl
	Stmts      []Stmt // top-level statements (script entry point)

	ExternTypeInfo  map[string]ExternTypeBinding
	ExternConstants map[string]ExternConstBinding
	ExternIncludes  []string
	ExternCflags    []string
	ExternLdflags   []string
}
