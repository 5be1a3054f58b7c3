package ast

import (
	"strconv"

	"quaintlang/internal/cst"
	"quaintlang/internal/types"
)

// primitiveKinds is the fixed table the AST builder matches bare type
// names against, per spec.md §4.1 ("The builder distinguishes primitives
// by string match against a fixed table").
var primitiveKinds = map[string]types.Kind{
	"void": types.Void,
	"u8": types.U8, "i8": types.I8,
	"u16": types.U16, "i16": types.I16,
	"u32": types.U32, "i32": types.I32,
	"u64": types.U64, "i64": types.I64,
	"usize": types.USize, "ssize": types.SSize,
	"uptr": types.UPtr, "iptr": types.IPtr,
	"vptr": types.VPtr,
}

// buildTypeSpec converts a CST type-specifier node into an unquantified
// type descriptor, resolving named-type references against the unit's
// table (deep-copying them per spec.md §4.3) and rejecting composite
// argument lists on bare primitives.
func (b *Builder) buildTypeSpec(n *cst.Node) *types.Descriptor {
	switch n.Tag {
	case cst.TagTypeName:
		name := n.Tok.Lexeme
		if k, ok := primitiveKinds[name]; ok {
			return types.New(k)
		}
		if d, ok := b.unit.Types.Lookup(name); ok {
			return types.Copy(d)
		}
		b.bag.Error(n.Span(), "unknown type %q", name)
		return types.New(types.Void)
	case cst.TagTypeArray:
		base := b.buildTypeSpec(n.Children[0])
		countTok := n.Children[1].Tok
		count, err := strconv.Atoi(countTok.Lexeme)
		if err != nil || count <= 1 {
			b.bag.Error(n.Span(), "array count must be an integer greater than 1")
			count = 2
		}
		base.Count = count
		return base
	case cst.TagTypeCall:
		return b.buildTypeCall(n)
	}
	b.bag.Error(n.Span(), "malformed type specifier")
	return types.New(types.Void)
}

// buildPointeeTypeSpec resolves the type a ptr()/quaint() points at. Unlike
// buildTypeSpec, a bare name reference to a table entry is NOT deep-copied:
// a pointer's size/alignment never depends on its pointee's layout, and
// sharing the canonical entry is what lets a struct hold a pointer to its
// own type (the entry is pre-registered by buildUnit before its body
// is built, so the self-reference resolves to the same, eventually-filled,
// Descriptor).
func (b *Builder) buildPointeeTypeSpec(n *cst.Node) *types.Descriptor {
	if n.Tag == cst.TagTypeName {
		name := n.Tok.Lexeme
		if k, ok := primitiveKinds[name]; ok {
			return types.New(k)
		}
		if d, ok := b.unit.Types.Lookup(name); ok {
			return d
		}
		b.bag.Error(n.Span(), "unknown type %q", name)
		return types.New(types.Void)
	}
	return b.buildTypeSpec(n)
}

func (b *Builder) buildTypeCall(n *cst.Node) *types.Descriptor {
	switch n.Op {
	case "ptr":
		sub := b.buildPointeeTypeSpec(n.Children[0])
		return &types.Descriptor{Kind: types.Ptr, Count: 1, Subtype: sub}
	case "quaint":
		sub := b.buildPointeeTypeSpec(n.Children[0])
		return &types.Descriptor{Kind: types.Quaint, Count: 1, Subtype: sub}
	case "struct", "union":
		k := types.Struct
		if n.Op == "union" {
			k = types.Union
		}
		d := &types.Descriptor{Kind: k, Count: 1}
		seen := map[string]bool{}
		for _, f := range n.Children {
			name := f.Children[0].Tok.Lexeme
			ftype := b.buildTypeSpec(f.Children[1])
			if seen[name] {
				b.bag.Error(f.Span(), "duplicate field %q", name)
			}
			seen[name] = true
			d.Members = append(d.Members, types.Member{Name: name, Type: ftype})
		}
		return d
	case "fptr", "fptr-ret":
		d := &types.Descriptor{Kind: types.FPtr, Count: 1}
		children := n.Children
		hasRet := n.Op == "fptr-ret"
		paramChildren := children
		if hasRet {
			paramChildren = children[:len(children)-1]
		}
		for _, f := range paramChildren {
			var name string
			var typeNode *cst.Node
			if len(f.Children) == 2 {
				name = f.Children[0].Tok.Lexeme
				typeNode = f.Children[1]
			} else {
				typeNode = f.Children[0]
			}
			d.Params = append(d.Params, types.Param{Name: name, Type: b.buildTypeSpec(typeNode)})
		}
		if hasRet {
			d.ReturnType = b.buildTypeSpec(children[len(children)-1])
		}
		return d
	case "enum", "enum-under":
		d := &types.Descriptor{Kind: types.Enum, Count: 1, Underlying: types.U32}
		children := n.Children
		hasUnder := n.Op == "enum-under"
		valueChildren := children
		if hasUnder {
			valueChildren = children[:len(children)-1]
		}
		next := uint64(0)
		seen := map[string]bool{}
		for _, f := range valueChildren {
			name := f.Children[0].Tok.Lexeme
			val := next
			if len(f.Children) == 2 {
				v, err := strconv.ParseUint(f.Children[1].Tok.Lexeme, 10, 64)
				if err == nil {
					val = v
				}
			}
			if seen[name] {
				b.bag.Error(f.Span(), "duplicate enum value %q", name)
			}
			seen[name] = true
			d.Values = append(d.Values, types.EnumValue{Name: name, Value: val})
			next = val + 1
		}
		if hasUnder {
			under := b.buildTypeSpec(children[len(children)-1])
			d.Underlying = under.Kind
		}
		return d
	}
	b.bag.Error(n.Span(), "unknown type constructor %q", n.Op)
	return types.New(types.Void)
}
