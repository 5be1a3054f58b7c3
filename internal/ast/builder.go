package ast

import (
	"strings"

	"quaintlang/internal/cst"
	"quaintlang/internal/diag"
	"quaintlang/internal/token"
	"quaintlang/internal/types"
)

// Builder lowers a parsed concrete syntax tree (internal/cst) into the
// typed Unit defined in ast.go, per spec.md §4.1. It owns the unit's type
// table so that type declarations can be pre-registered before their
// bodies are built — the only way a struct can legally hold a pointer to
// its own type.
type Builder struct {
	unit *Unit
	bag  *diag.Bag
}

// NewBuilder creates a Builder reporting into bag.
func NewBuilder(bag *diag.Bag) *Builder {
	return &Builder{
		unit: &Unit{Types: types.NewTable()},
		bag:  bag,
	}
}

// Build lowers root (a TagUnit node) into a *Unit and finishes it by
// running BuildScopes over the result. Callers that need the type table
// quantified (internal/check does, before any sizing-dependent check)
// call types.Table.QuantifyAll separately, since quantification can
// itself raise out_of_memory and belongs to the checking phase, not
// construction.
func Build(root *cst.Node, bag *diag.Bag) *Unit {
	b := NewBuilder(bag)
	b.buildUnit(root)
	BuildScopes(b.unit, bag)
	return b.unit
}

func (b *Builder) buildUnit(root *cst.Node) {
	// Pass 1: pre-register every declared type name with a placeholder
	// descriptor so a composite body can reference its own name (spec.md
	// §4.3's deep-copy rule is relaxed for pointer/quaint subtypes
	// specifically so this works; see buildPointeeTypeSpec).
	for _, n := range root.Children {
		if n.Tag == cst.TagTypeDecl {
			name := n.Children[0].Tok.Lexeme
			placeholder := &types.Descriptor{}
			if err := b.unit.Types.Insert(name, placeholder); err != nil {
				b.bag.Error(n.Span(), "duplicate type declaration %q", name)
			}
		}
	}

	for _, n := range root.Children {
		switch n.Tag {
		case cst.TagTypeDecl:
			b.buildTypeDeclBody(n)
		case cst.TagVarDecl:
			b.unit.VarDecls = append(b.unit.VarDecls, b.buildVarDecl(n, true))
		case cst.TagFuncDecl:
			b.unit.Funcs = append(b.unit.Funcs, b.buildFuncDecl(n))
		}
	}
}

// buildTypeDeclBody fills in the placeholder descriptor registered for n's
// name in pass 1, in place, so every reference already holding that
// pointer (including a self-reference discovered while building the body
// itself) sees the finished shape once this returns.
func (b *Builder) buildTypeDeclBody(n *cst.Node) {
	name := n.Children[0].Tok.Lexeme
	placeholder, ok := b.unit.Types.Lookup(name)
	if !ok {
		return // duplicate already reported in pass 1
	}
	spec := b.buildTypeSpec(n.Children[1])
	*placeholder = *spec
	b.unit.TypeDecls = append(b.unit.TypeDecls, &TypeDecl{
		stmtBase: stmtBase{Sp: n.Span()},
		Name:     name,
		Type:     placeholder,
	})
}

func parseQualifiers(op string) (exposed, static, cnst bool) {
	for _, q := range strings.Split(op, ",") {
		switch q {
		case "exposed":
			exposed = true
		case "static":
			static = true
		case "const":
			cnst = true
		}
	}
	return
}

func (b *Builder) buildVarDecl(n *cst.Node, atUnit bool) *VarDecl {
	exposed, static, cnst := parseQualifiers(n.Op)
	if static && atUnit {
		b.bag.Error(n.Span(), "static is not legal on a unit-level declaration")
	}
	if exposed && !atUnit {
		b.bag.Error(n.Span(), "exposed is only legal on a unit-level declaration")
	}
	nameList := n.Children[0]
	var names []string
	var namePos []token.Position
	seen := map[string]bool{}
	for _, nm := range nameList.Children {
		if seen[nm.Tok.Lexeme] {
			b.bag.Error(nm.Span(), "duplicate name %q in declaration", nm.Tok.Lexeme)
		}
		seen[nm.Tok.Lexeme] = true
		names = append(names, nm.Tok.Lexeme)
		namePos = append(namePos, nm.Tok.Pos)
	}
	typ := b.buildTypeSpec(n.Children[1])
	var init Expr
	if len(n.Children) > 2 {
		init = b.buildExpr(n.Children[2])
	}
	return &VarDecl{
		stmtBase: stmtBase{Sp: n.Span()},
		Names:    names,
		NamePos:  namePos,
		Type:     typ,
		Init:     init,
		Exposed:  exposed,
		Static:   static,
		Const:    cnst,
		IsGlobal: atUnit,
	}
}

func (b *Builder) buildFuncDecl(n *cst.Node) *FuncDecl {
	name := n.Children[0].Tok.Lexeme
	paramList := n.Children[1]
	body := n.Children[2]
	var retType *types.Descriptor
	if len(n.Children) > 3 {
		retType = b.buildTypeSpec(n.Children[3])
	}
	var params []*Param
	for _, pn := range paramList.Children {
		params = append(params, &Param{
			Name: pn.Children[0].Tok.Lexeme,
			Type: b.buildTypeSpec(pn.Children[1]),
		})
	}
	fn := &FuncDecl{
		stmtBase:   stmtBase{Sp: n.Span()},
		Name:       name,
		Params:     params,
		ReturnType: retType,
		Exposed:    n.Op == "exposed",
	}
	fn.Body = b.buildBlock(body)
	return fn
}
