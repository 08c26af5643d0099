package ast

import "github.com/bismut-lang/bismut/token"

// Constructors for every node type that carries its position via the
// unexported exprBase/stmtBase embedding: composite literals from other
// packages cannot name an unexported embedded field, so the parser builds
// nodes through these instead.

func NewIntLit(pos token.Position, value int64, radix token.IntRadix) *IntLit {
	return &IntLit{exprBase: exprBase{Pos: pos}, Value: value, Radix: radix}
}

func NewFloatLit(pos token.Position, value float64) *FloatLit {
	return &FloatLit{exprBase: exprBase{Pos: pos}, Value: value}
}

func NewStringLit(pos token.Position, raw string, kind token.StringKind) *StringLit {
	return &StringLit{exprBase: exprBase{Pos: pos}, Raw: raw, Kind: kind}
}

func NewCharLit(pos token.Position, value int64) *CharLit {
	return &CharLit{exprBase: exprBase{Pos: pos}, Value: value}
}

func NewBoolLit(pos token.Position, value bool) *BoolLit {
	return &BoolLit{exprBase: exprBase{Pos: pos}, Value: value}
}

func NewNoneLit(pos token.Position) *NoneLit {
	return &NoneLit{exprBase{Pos: pos}}
}

func NewIdent(pos token.Position, name string) *Ident {
	return &Ident{exprBase: exprBase{Pos: pos}, Name: name}
}

func NewUnary(pos token.Position, op token.Type, rhs Expr) *Unary {
	return &Unary{exprBase: exprBase{Pos: pos}, Op: op, Rhs: rhs}
}

func NewBinary(pos token.Position, op token.Type, lhs, rhs Expr) *Binary {
	return &Binary{exprBase: exprBase{Pos: pos}, Op: op, Lhs: lhs, Rhs: rhs}
}

func NewCall(pos token.Position, callee Expr, args []Expr, typeArgs []TypeRef) *Call {
	return &Call{exprBase: exprBase{Pos: pos}, Callee: callee, Args: args, TypeArgs: typeArgs}
}

func NewMemberAccess(pos token.Position, obj Expr, member string) *MemberAccess {
	return &MemberAccess{exprBase: exprBase{Pos: pos}, Obj: obj, Member: member}
}

func NewIs(pos token.Position, lhs Expr, typeName string) *Is {
	return &Is{exprBase: exprBase{Pos: pos}, Lhs: lhs, TypeName: typeName}
}

func NewAs(pos token.Position, lhs Expr, typeName string) *As {
	return &As{exprBase: exprBase{Pos: pos}, Lhs: lhs, TypeName: typeName}
}

func NewIndex(pos token.Position, obj, idx Expr) *Index {
	return &Index{exprBase: exprBase{Pos: pos}, Obj: obj, Idx: idx}
}

func NewTupleExpr(pos token.Position, elems []Expr) *TupleExpr {
	return &TupleExpr{exprBase: exprBase{Pos: pos}, Elems: elems}
}

func NewListLit(pos token.Position, elemType TypeRef, elems []Expr) *ListLit {
	return &ListLit{exprBase: exprBase{Pos: pos}, ElemType: elemType, Elems: elems}
}

func NewDictLit(pos token.Position, keyType, valType TypeRef, keys, vals []Expr) *DictLit {
	return &DictLit{exprBase: exprBase{Pos: pos}, KeyType: keyType, ValType: valType, Keys: keys, Vals: vals}
}

func NewVarDecl(pos token.Position, name string, ty *TypeRef, value Expr, isConst, isStatic bool) *VarDecl {
	return &VarDecl{stmtBase: stmtBase{pos}, Name: name, Ty: ty, Value: value, IsConst: isConst, IsStatic: isStatic}
}

func NewTupleDestructure(pos token.Position, names []string, value Expr) *TupleDestructure {
	return &TupleDestructure{stmtBase: stmtBase{pos}, Names: names, Value: value}
}

func NewAssign(pos token.Position, name string, op token.Type, value Expr) *Assign {
	return &Assign{stmtBase: stmtBase{pos}, Name: name, Op: op, Value: value}
}

func NewMemberAssign(pos token.Position, obj Expr, member string, op token.Type, value Expr) *MemberAssign {
	return &MemberAssign{stmtBase: stmtBase{pos}, Obj: obj, Member: member, Op: op, Value: value}
}

func NewIndexAssign(pos token.Position, obj, idx Expr, op token.Type, value Expr) *IndexAssign {
	return &IndexAssign{stmtBase: stmtBase{pos}, Obj: obj, Idx: idx, Op: op, Value: value}
}

func NewExprStmt(pos token.Position, expr Expr) *ExprStmt {
	return &ExprStmt{stmtBase: stmtBase{pos}, Expr: expr}
}

func NewReturn(pos token.Position, value Expr) *Return {
	return &Return{stmtBase: stmtBase{pos}, Value: value}
}

func NewBreak(pos token.Position) *Break       { return &Break{stmtBase{pos}} }
func NewContinue(pos token.Position) *Continue { return &Continue{stmtBase{pos}} }

func NewBlock(pos token.Position) *Block {
	return &Block{stmtBase: stmtBase{pos}}
}

func NewIf(pos token.Position, arms []IfArm) *If {
	return &If{stmtBase: stmtBase{pos}, Arms: arms}
}

func NewWhile(pos token.Position, cond Expr, body *Block) *While {
	return &While{stmtBase: stmtBase{pos}, Cond: cond, Body: body}
}

func NewFor(pos token.Position, varName string, varTy TypeRef, iterable Expr, body *Block) *For {
	return &For{stmtBase: stmtBase{pos}, VarName: varName, VarTy: varTy, Iterable: iterable, Body: body}
}
