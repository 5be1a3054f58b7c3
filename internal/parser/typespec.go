package parser

import "quaintlang/internal/cst"
import "quaintlang/internal/token"

// primitiveNames is the fixed table of bare type-specifier spellings. The
// AST builder (internal/ast/typespec.go) maps these same spellings to
// types.Kind; the parser only needs to know a bare name is not a
// composite-type call form.
var primitiveNames = map[string]bool{
	"void": true, "u8": true, "i8": true, "u16": true, "i16": true,
	"u32": true, "i32": true, "u64": true, "i64": true,
	"usize": true, "ssize": true, "uptr": true, "iptr": true, "vptr": true,
}

// parseTypeSpec parses a type specifier: a bare name, a name with an array
// subscript, or a parameterized call form (ptr/fptr/struct/union/quaint/enum).
func (p *Parser) parseTypeSpec() (*cst.Node, error) {
	if p.at(token.Ident) {
		nameTok := p.cur()
		if isComposite(nameTok.Lexeme) && p.peekAt(1).Kind == token.LParen {
			return p.parseTypeCall(nameTok.Lexeme)
		}
		p.advance()
		base := cst.Leaf(cst.TagTypeName, nameTok)
		return p.maybeArray(base)
	}
	return nil, &ParseError{Pos: p.cur().Pos, Message: "expected type specifier"}
}

func isComposite(name string) bool {
	switch name {
	case "ptr", "fptr", "struct", "union", "quaint", "enum":
		return true
	}
	return false
}

func (p *Parser) maybeArray(base *cst.Node) (*cst.Node, error) {
	if p.at(token.LBracket) {
		p.advance()
		count, err := p.expect(token.Number)
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(token.RBracket); err != nil {
			return nil, err
		}
		return cst.New(cst.TagTypeArray, base, cst.Leaf(cst.TagNumber, count)), nil
	}
	return base, nil
}

func (p *Parser) parseTypeCall(kind string) (*cst.Node, error) {
	kindTok := p.advance() // the keyword-like identifier, e.g. "ptr"
	if _, err := p.expect(token.LParen); err != nil {
		return nil, err
	}
	var args []*cst.Node
	switch kind {
	case "ptr", "quaint":
		inner, err := p.parseTypeSpec()
		if err != nil {
			return nil, err
		}
		args = append(args, inner)
	case "fptr":
		for !p.at(token.RParen) {
			var pname *token.Token
			if p.at(token.Ident) && p.peekAt(1).Kind == token.Colon {
				t := p.advance()
				pname = &t
				p.advance() // colon
			}
			ptype, err := p.parseTypeSpec()
			if err != nil {
				return nil, err
			}
			field := cst.New(cst.TagField, ptype)
			if pname != nil {
				field.Children = append([]*cst.Node{cst.Leaf(cst.TagName, *pname)}, field.Children...)
			}
			args = append(args, field)
			if p.at(token.Comma) {
				p.advance()
				continue
			}
			break
		}
	case "struct", "union":
		for !p.at(token.RParen) {
			fname, err := p.expect(token.Ident)
			if err != nil {
				return nil, err
			}
			if _, err := p.expect(token.Colon); err != nil {
				return nil, err
			}
			ftype, err := p.parseTypeSpec()
			if err != nil {
				return nil, err
			}
			args = append(args, cst.New(cst.TagField, cst.Leaf(cst.TagName, fname), ftype))
			if p.at(token.Comma) {
				p.advance()
				continue
			}
			break
		}
	case "enum":
		for !p.at(token.RParen) {
			ename, err := p.expect(token.Ident)
			if err != nil {
				return nil, err
			}
			var val *token.Token
			if p.at(token.Equal) {
				p.advance()
				t, err := p.expect(token.Number)
				if err != nil {
					return nil, err
				}
				val = &t
			}
			field := cst.New(cst.TagField, cst.Leaf(cst.TagName, ename))
			if val != nil {
				field.Children = append(field.Children, cst.Leaf(cst.TagNumber, *val))
			}
			args = append(args, field)
			if p.at(token.Comma) {
				p.advance()
				continue
			}
			break
		}
	}
	if _, err := p.expect(token.RParen); err != nil {
		return nil, err
	}
	n := cst.New(cst.TagTypeCall, args...)
	n.Tok = &kindTok
	n.Op = kind
	if kind == "fptr" && p.at(token.Colon) {
		p.advance()
		ret, err := p.parseTypeSpec()
		if err != nil {
			return nil, err
		}
		n.Children = append(n.Children, ret)
		n.Op = "fptr-ret"
	}
	if kind == "enum" && p.at(token.Colon) {
		p.advance()
		under, err := p.parseTypeSpec()
		if err != nil {
			return nil, err
		}
		n.Children = append(n.Children, under)
		n.Op = "enum-under"
	}
	return p.maybeArray(n)
}
