package ast

import (
	"strings"

	"golang.org/x/exp/slices"

	"quaintlang/internal/token"
	"quaintlang/internal/types"
)

// ObjectKind tags what a scope entry binds to, per spec.md §3.
type ObjectKind int

const (
	ObjDuplicate ObjectKind = iota
	ObjBuiltinConst
	ObjBuiltinFunc
	ObjGlobalVar
	ObjAutoVar
	ObjFunction
	ObjParam
)

// Object is one scope entry. Payload fields are populated according to
// Kind: Decl for globals/functions/params/automatics, BuiltinID/Type for
// built-in constants and functions.
type Object struct {
	Name      string
	Kind      ObjectKind
	Decl      Node // back-reference to the declaring AST node; nil for builtins
	BuiltinID int
	Type      *types.Descriptor // builtin consts, params
	Pos       token.Position    // declaration site, for forward-reference checks
	NameIndex int                // for VarDecl with multiple names, which one
}

// Scope is an ordered, name-sorted list of objects plus an outer-scope
// link for lexical lookup (spec.md §4.2).
type Scope struct {
	Outer   *Scope
	Objects []*Object
}

// NewScope creates an empty scope chained to outer (nil for the unit scope).
func NewScope(outer *Scope) *Scope {
	return &Scope{Outer: outer}
}

// sortObjects orders entries lexically by name so Find can binary-search.
func sortObjects(objs []*Object) {
	slices.SortFunc(objs, func(a, b *Object) int { return strings.Compare(a.Name, b.Name) })
}

// Find looks up name in this scope only (no outer chaining), returning the
// first entry with that name (duplicates after the first are marked
// ObjDuplicate by the scope builder but still searchable).
func (s *Scope) Find(name string) *Object {
	objs := s.Objects
	i, found := slices.BinarySearchFunc(objs, name, func(o *Object, target string) int {
		if o.Name < target {
			return -1
		}
		if o.Name > target {
			return 1
		}
		return 0
	})
	if !found {
		return nil
	}
	return objs[i]
}

// FindObject walks outward through Outer links per spec.md §4.2: an
// ObjAutoVar match is accepted only when refPos lexically follows the
// declaration's Pos within the same function; globals/functions resolve
// regardless of order.
func FindObject(s *Scope, name string, refPos token.Position) *Object {
	for cur := s; cur != nil; cur = cur.Outer {
		obj := cur.Find(name)
		if obj == nil {
			continue
		}
		if obj.Kind == ObjAutoVar || obj.Kind == ObjParam {
			if refPos.Offset < obj.Pos.Offset {
				continue // forward reference to a local: rejected
			}
		}
		return obj
	}
	return nil
}

// Insert appends obj to s without sorting or duplicate checking; callers
// finish a scope with Finalize.
func (s *Scope) Insert(obj *Object) {
	s.Objects = append(s.Objects, obj)
}

// Finalize sorts the scope's entries and marks any name occurring more
// than once (after the first) as ObjDuplicate, matching spec.md §4.2:
// "Duplicates within one scope are marked (not removed) so later
// resolution reports each dup exactly once."
func (s *Scope) Finalize() []*Object {
	sortObjects(s.Objects)
	var dups []*Object
	for i := 1; i < len(s.Objects); i++ {
		if s.Objects[i].Name == s.Objects[i-1].Name {
			s.Objects[i].Kind = ObjDuplicate
			dups = append(dups, s.Objects[i])
		}
	}
	return dups
}

// Built-in ids. These double as VM entry locations (spec.md §6): each
// built-in compiles to one `bfun` opcode at the bottom of the instruction
// array, in this exact order.
const (
	BFMonotime = iota
	BFMalloc
	BFCalloc
	BFRealloc
	BFFree
	BFPS
	BFPU8
	BFPI8
	BFPU16
	BFPI16
	BFPU32
	BFPI32
	BFPU64
	BFPI64
	BFPNL
	BFExit
	NumBuiltins
)

// BuiltinSignature describes a built-in function's fixed signature
// (spec.md §6) for scope injection and call-site checking.
type BuiltinSignature struct {
	Name       string
	ID         int
	Params     []*types.Descriptor
	ReturnType *types.Descriptor // nil means void
}

func ptrU8() *types.Descriptor { return &types.Descriptor{Kind: types.Ptr, Count: 1, Subtype: types.New(types.U8)} }

var builtinFuncs = []BuiltinSignature{
	{Name: "monotime", ID: BFMonotime, ReturnType: types.New(types.U64)},
	{Name: "malloc", ID: BFMalloc, Params: []*types.Descriptor{types.New(types.USize)}, ReturnType: types.New(types.VPtr)},
	{Name: "calloc", ID: BFCalloc, Params: []*types.Descriptor{types.New(types.USize)}, ReturnType: types.New(types.VPtr)},
	{Name: "realloc", ID: BFRealloc, Params: []*types.Descriptor{types.New(types.VPtr), types.New(types.USize)}, ReturnType: types.New(types.VPtr)},
	{Name: "free", ID: BFFree, Params: []*types.Descriptor{types.New(types.VPtr)}},
	{Name: "ps", ID: BFPS, Params: []*types.Descriptor{ptrU8()}},
	{Name: "pu8", ID: BFPU8, Params: []*types.Descriptor{types.New(types.U8)}},
	{Name: "pi8", ID: BFPI8, Params: []*types.Descriptor{types.New(types.I8)}},
	{Name: "pu16", ID: BFPU16, Params: []*types.Descriptor{types.New(types.U16)}},
	{Name: "pi16", ID: BFPI16, Params: []*types.Descriptor{types.New(types.I16)}},
	{Name: "pu32", ID: BFPU32, Params: []*types.Descriptor{types.New(types.U32)}},
	{Name: "pi32", ID: BFPI32, Params: []*types.Descriptor{types.New(types.I32)}},
	{Name: "pu64", ID: BFPU64, Params: []*types.Descriptor{types.New(types.U64)}},
	{Name: "pi64", ID: BFPI64, Params: []*types.Descriptor{types.New(types.I64)}},
	{Name: "pnl", ID: BFPNL},
	{Name: "exit", ID: BFExit, Params: []*types.Descriptor{types.New(types.I32)}},
}

// BuiltinFuncs returns the fixed table of built-in functions in VM entry
// order (index == ID).
func BuiltinFuncs() []BuiltinSignature { return builtinFuncs }

// injectBuiltins populates the unit scope with built-in constants and
// functions before user symbols are added, per spec.md §4.2.
func injectBuiltins(s *Scope) {
	s.Insert(&Object{Name: "null", Kind: ObjBuiltinConst, Type: types.New(types.VPtr)})
	s.Insert(&Object{Name: "true", Kind: ObjBuiltinConst, Type: types.New(types.U8)})
	s.Insert(&Object{Name: "false", Kind: ObjBuiltinConst, Type: types.New(types.U8)})
	for _, bf := range builtinFuncs {
		s.Insert(&Object{Name: bf.Name, Kind: ObjBuiltinFunc, BuiltinID: bf.ID})
	}
}
