package parser

import (
	"quaintlang/internal/cst"
	"quaintlang/internal/token"
)

func (p *Parser) parseBlock() (*cst.Node, error) {
	open, err := p.expect(token.LBrace)
	if err != nil {
		return nil, err
	}
	var stmts []*cst.Node
	for !p.at(token.RBrace) && !p.at(token.EOF) {
		s, err := p.parseStmt()
		if err != nil {
			return nil, err
		}
		stmts = append(stmts, s)
	}
	close, err := p.expect(token.RBrace)
	if err != nil {
		return nil, err
	}
	n := cst.New(cst.TagBlock, stmts...)
	n.Tok = &open
	_ = close
	return n, nil
}

func (p *Parser) parseStmt() (*cst.Node, error) {
	switch p.cur().Kind {
	case token.LBrace:
		return p.parseBlock()
	case token.KwNoint:
		kw := p.advance()
		b, err := p.parseBlock()
		if err != nil {
			return nil, err
		}
		n := cst.New(cst.TagNointBlock, b)
		n.Tok = &kw
		return n, nil
	case token.KwIf:
		return p.parseIf()
	case token.KwWhile:
		return p.parseWhile()
	case token.KwDo:
		return p.parseDoWhile()
	case token.KwReturn:
		return p.parseReturn()
	case token.KwWait:
		return p.parseWait()
	case token.LBracket:
		return p.parseWaitLabel()
	case token.KwStatic, token.KwConst, token.KwExposed:
		return p.parseVarDecl(false)
	case token.Ident:
		if p.isDeclAhead() {
			return p.parseVarDecl(false)
		}
	}
	return p.parseExprStmt()
}

// isDeclAhead looks ahead for `name (, name)* :` which marks a local
// declaration as opposed to an expression statement.
func (p *Parser) isDeclAhead() bool {
	save := p.pos
	defer func() { p.pos = save }()
	if !p.at(token.Ident) {
		return false
	}
	p.advance()
	for p.at(token.Comma) {
		p.advance()
		if !p.at(token.Ident) {
			return false
		}
		p.advance()
	}
	return p.at(token.Colon)
}

func (p *Parser) parseIf() (*cst.Node, error) {
	kw := p.advance()
	if _, err := p.expect(token.LParen); err != nil {
		return nil, err
	}
	cond, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.RParen); err != nil {
		return nil, err
	}
	then, err := p.parseBlock()
	if err != nil {
		return nil, err
	}
	children := []*cst.Node{cond, then}
	for p.at(token.KwElif) {
		p.advance()
		if _, err := p.expect(token.LParen); err != nil {
			return nil, err
		}
		ec, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(token.RParen); err != nil {
			return nil, err
		}
		eb, err := p.parseBlock()
		if err != nil {
			return nil, err
		}
		children = append(children, cst.New(cst.TagElif, ec, eb))
	}
	if p.at(token.KwElse) {
		p.advance()
		eb, err := p.parseBlock()
		if err != nil {
			return nil, err
		}
		children = append(children, cst.New(cst.TagElse, eb))
	}
	n := cst.New(cst.TagIf, children...)
	n.Tok = &kw
	return n, nil
}

func (p *Parser) parseWhile() (*cst.Node, error) {
	kw := p.advance()
	if _, err := p.expect(token.LParen); err != nil {
		return nil, err
	}
	cond, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.RParen); err != nil {
		return nil, err
	}
	body, err := p.parseBlock()
	if err != nil {
		return nil, err
	}
	n := cst.New(cst.TagWhile, cond, body)
	n.Tok = &kw
	return n, nil
}

func (p *Parser) parseDoWhile() (*cst.Node, error) {
	kw := p.advance()
	body, err := p.parseBlock()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.KwWhile); err != nil {
		return nil, err
	}
	if _, err := p.expect(token.LParen); err != nil {
		return nil, err
	}
	cond, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.RParen); err != nil {
		return nil, err
	}
	if _, err := p.expect(token.Semicolon); err != nil {
		return nil, err
	}
	n := cst.New(cst.TagDoWhile, body, cond)
	n.Tok = &kw
	return n, nil
}

func (p *Parser) parseReturn() (*cst.Node, error) {
	kw := p.advance()
	var val *cst.Node
	if !p.at(token.Semicolon) {
		v, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		val = v
	}
	if _, err := p.expect(token.Semicolon); err != nil {
		return nil, err
	}
	var children []*cst.Node
	if val != nil {
		children = append(children, val)
	}
	n := cst.New(cst.TagReturn, children...)
	n.Tok = &kw
	return n, nil
}

func (p *Parser) parseWaitLabel() (*cst.Node, error) {
	open := p.advance() // '['
	name, err := p.expect(token.Ident)
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.RBracket); err != nil {
		return nil, err
	}
	if _, err := p.expect(token.Semicolon); err != nil {
		return nil, err
	}
	n := cst.New(cst.TagWaitLabel, cst.Leaf(cst.TagName, name))
	n.Tok = &open
	return n, nil
}

func (p *Parser) parseWait() (*cst.Node, error) {
	kw := p.advance()
	q, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	var spec *cst.Node
	switch p.cur().Kind {
	case token.KwUntil:
		p.advance()
		fname, err := p.expect(token.Ident)
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(token.ColonColon); err != nil {
			return nil, err
		}
		lname, err := p.expect(token.Ident)
		if err != nil {
			return nil, err
		}
		spec = cst.New(cst.TagWaitUntil, cst.Leaf(cst.TagName, fname), cst.Leaf(cst.TagName, lname))
		if p.at(token.KwNoblock) {
			p.advance()
			spec.Op = "noblock"
		}
	case token.KwFor:
		p.advance()
		amount, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		var unit token.Token
		if p.at(token.KwMsec) {
			unit = p.advance()
		} else if _, err := p.expect(token.KwSec); err == nil {
			unit = p.toks[p.pos-1]
		} else {
			return nil, &ParseError{Pos: p.cur().Pos, Message: "expected msec or sec"}
		}
		spec = cst.New(cst.TagWaitFor, amount)
		spec.Tok = &unit
		if p.at(token.KwNoblock) {
			p.advance()
			spec.Op = "noblock"
		}
	default:
		return nil, &ParseError{Pos: p.cur().Pos, Message: "expected until or for after wait"}
	}
	if _, err := p.expect(token.Semicolon); err != nil {
		return nil, err
	}
	n := cst.New(cst.TagWait, q, spec)
	n.Tok = &kw
	return n, nil
}

func (p *Parser) parseExprStmt() (*cst.Node, error) {
	e, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.Semicolon); err != nil {
		return nil, err
	}
	return cst.New(cst.TagExprStmt, e), nil
}
