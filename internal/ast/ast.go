// Package ast defines the typed AST node variants from spec.md §3, the
// lexical Scope/Object model from §4.2, and the builder that lowers a
// concrete syntax tree (internal/cst) into this typed tree (§4.1). Scope is
// kept in the same package as the AST nodes it annotates (rather than a
// separate internal/scope package) because spec.md describes them as a
// single tightly-coupled pass: scopes hold back-references to the very
// declaration nodes defined here, and keeping both in one package avoids a
// forward-declaration workaround for that mutual reference.
package ast

import (
	"quaintlang/internal/token"
	"quaintlang/internal/types"
)

// Node is satisfied by every AST node for span reporting.
type Node interface {
	Span() token.Span
}

// ---- Statements ----

type Stmt interface {
	Node
	stmtNode()
}

type stmtBase struct{ Sp token.Span }

func (s stmtBase) Span() token.Span { return s.Sp }

type TypeDecl struct {
	stmtBase
	Name string
	Type *types.Descriptor
}

func (*TypeDecl) stmtNode() {}

// VarDecl covers `a, b, c: T = init;` — one or more names sharing a type
// and an optional common initializer, per spec.md §4.1.
type VarDecl struct {
	stmtBase
	Names     []string
	NamePos   []token.Position // forward-reference comparison for automatics
	Type      *types.Descriptor
	Init      Expr
	Exposed   bool
	Static    bool
	Const     bool
	IsGlobal  bool
	Offset    []int // parallel to Names; filled by codegen layout
	Size      int
}

func (*VarDecl) stmtNode() {}

type Param struct {
	Name   string
	Type   *types.Descriptor
	Offset int // filled by codegen layout
}

type FuncDecl struct {
	stmtBase
	Name       string
	Params     []*Param
	ReturnType *types.Descriptor // nil means void
	Exposed    bool
	Body       *Block
	Scope      *Scope
	Labels     *LabelTable
	FrameSize  int
	ArgsSize   int
	Entry      int // instruction address, filled by codegen
	ID         int // function id, used for @ and wait-until resolution
}

func (*FuncDecl) stmtNode() {}

type Block struct {
	stmtBase
	Stmts []Stmt
	Scope *Scope
}

func (*Block) stmtNode() {}

type NointBlock struct {
	stmtBase
	Body *Block
}

func (*NointBlock) stmtNode() {}

type ElifClause struct {
	Cond Expr
	Body *Block
}

type If struct {
	stmtBase
	Cond  Expr
	Then  *Block
	Elifs []ElifClause
	Else  *Block
}

func (*If) stmtNode() {}

type While struct {
	stmtBase
	Cond  Expr
	Body  *Block
	Scope *Scope
}

func (*While) stmtNode() {}

type DoWhile struct {
	stmtBase
	Body  *Block
	Cond  Expr
	Scope *Scope
}

func (*DoWhile) stmtNode() {}

type Return struct {
	stmtBase
	Value Expr // nil for a bare `return;`
}

func (*Return) stmtNode() {}

type WaitLabelStmt struct {
	stmtBase
	Name    string
	LabelID int
}

func (*WaitLabelStmt) stmtNode() {}

type WaitKind int

const (
	WaitForTimeout WaitKind = iota
	WaitUntilLabel
)

type WaitStmt struct {
	stmtBase
	Quaint      Expr
	Kind        WaitKind
	TimeoutExpr Expr   // WaitForTimeout
	TimeUnit    string // "msec" | "sec"
	UntilFunc   string // WaitUntilLabel, raw
	UntilLabel  string
	FuncID      int
	LabelID     int
	Noblock     bool
}

func (*WaitStmt) stmtNode() {}

type ExprStmt struct {
	stmtBase
	X Expr
}

func (*ExprStmt) stmtNode() {}

// ---- Expressions ----

type Expr interface {
	Node
	Type() *types.Descriptor
	SetType(*types.Descriptor)
	exprNode()
}

type exprBase struct {
	Sp token.Span
	Ty *types.Descriptor
}

func (e *exprBase) Span() token.Span            { return e.Sp }
func (e *exprBase) Type() *types.Descriptor      { return e.Ty }
func (e *exprBase) SetType(t *types.Descriptor)  { e.Ty = t }

type NameExpr struct {
	exprBase
	Name string
	Obj  *Object // resolved by the checker via scope lookup
}

func (*NameExpr) exprNode() {}

type NumberExpr struct {
	exprBase
	Value uint64
}

func (*NumberExpr) exprNode() {}

type StringExpr struct {
	exprBase
	Value  string
	Offset int // filled by codegen: byte offset into the string segment
}

func (*StringExpr) exprNode() {}

// BinaryExpr covers arithmetic, comparison, bitwise/shift, logical, and
// (compound) assignment operators; Op is the raw operator spelling such as
// "+", "==", "+=", "=".
type BinaryExpr struct {
	exprBase
	Op          string
	Left, Right Expr
}

func (*BinaryExpr) exprNode() {}

// UnaryExpr covers prefix "-", "!", "^" (bitwise not), "*" (deref /
// quaint move-out), "&" (address-of), "++", "--".
type UnaryExpr struct {
	exprBase
	Op      string
	Operand Expr
}

func (*UnaryExpr) exprNode() {}

// PostfixExpr covers postfix "++"/"--".
type PostfixExpr struct {
	exprBase
	Op      string
	Operand Expr
}

func (*PostfixExpr) exprNode() {}

type CallExpr struct {
	exprBase
	Callee Expr
	Args   []Expr
}

func (*CallExpr) exprNode() {}

type IndexExpr struct {
	exprBase
	Base  Expr
	Index Expr
}

func (*IndexExpr) exprNode() {}

// MemberExpr covers both `.` (Arrow=false) and `->` (Arrow=true) access;
// Offset/MemberType are filled by the checker once the base's struct/union
// type is known.
type MemberExpr struct {
	exprBase
	Base       Expr
	Member     string
	Arrow      bool
	Offset     int
	MemberType *types.Descriptor
}

func (*MemberExpr) exprNode() {}

type TernaryExpr struct {
	exprBase
	Cond, Then, Else Expr
}

func (*TernaryExpr) exprNode() {}

// CastExpr is the colon-annotation/cast form `expr : Type`.
type CastExpr struct {
	exprBase
	Operand Expr
	Target  *types.Descriptor
}

func (*CastExpr) exprNode() {}

type AtKind int

const (
	AtStart AtKind = iota
	AtEnd
	AtLabel
)

// QuaintAtExpr is `q@start`, `q@end`, or `q@Func::Label`.
type QuaintAtExpr struct {
	exprBase
	Quaint    Expr
	Kind      AtKind
	FuncName  string // AtLabel, raw
	LabelName string
	FuncID    int
	LabelID   int
}

func (*QuaintAtExpr) exprNode() {}

// QuaintExpr is `~f(args)` (IsCall true: run f as a coroutine) or `~v`
// (IsCall false: wrap v in an already-completed quaint).
type QuaintExpr struct {
	exprBase
	IsCall     bool
	Callee     Expr // NameExpr naming the function, for the call form
	Args       []Expr
	Value      Expr // the bare-value form
	TargetFunc *FuncDecl
}

func (*QuaintExpr) exprNode() {}

// ---- Unit ----

type Unit struct {
	TypeDecls []*TypeDecl
	VarDecls  []*VarDecl
	Funcs     []*FuncDecl
	Scope     *Scope
	Types     *types.Table
}
