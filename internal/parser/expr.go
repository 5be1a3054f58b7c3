package parser

import (
	"quaintlang/internal/cst"
	"quaintlang/internal/token"
)

func (p *Parser) parseExpr() (*cst.Node, error) {
	return p.parseAssignment()
}

var assignOps = map[token.Kind]bool{
	token.Equal: true, token.PlusEqual: true, token.MinusEqual: true,
	token.StarEqual: true, token.SlashEqual: true, token.PercentEqual: true,
	token.LessLessEqual: true, token.GreaterGreaterEqual: true,
	token.AmpEqual: true, token.PipeEqual: true, token.CaretEqual: true,
}

func (p *Parser) parseAssignment() (*cst.Node, error) {
	left, err := p.parseTernary()
	if err != nil {
		return nil, err
	}
	if assignOps[p.cur().Kind] {
		op := p.advance()
		right, err := p.parseAssignment()
		if err != nil {
			return nil, err
		}
		n := cst.New(cst.TagBinary, left, right)
		n.Op = op.Lexeme
		n.Tok = &op
		return n, nil
	}
	return left, nil
}

func (p *Parser) parseTernary() (*cst.Node, error) {
	cond, err := p.parseLogicalOr()
	if err != nil {
		return nil, err
	}
	if p.at(token.Question) {
		q := p.advance()
		then, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(token.Colon); err != nil {
			return nil, err
		}
		els, err := p.parseTernary()
		if err != nil {
			return nil, err
		}
		n := cst.New(cst.TagTernary, cond, then, els)
		n.Tok = &q
		return n, nil
	}
	return cond, nil
}

func (p *Parser) binaryLevel(next func() (*cst.Node, error), kinds ...token.Kind) (*cst.Node, error) {
	left, err := next()
	if err != nil {
		return nil, err
	}
	for {
		matched := false
		for _, k := range kinds {
			if p.at(k) {
				matched = true
				break
			}
		}
		if !matched {
			return left, nil
		}
		op := p.advance()
		right, err := next()
		if err != nil {
			return nil, err
		}
		n := cst.New(cst.TagBinary, left, right)
		n.Op = op.Lexeme
		n.Tok = &op
		left = n
	}
}

func (p *Parser) parseLogicalOr() (*cst.Node, error) {
	return p.binaryLevel(p.parseLogicalAnd, token.PipePipe)
}
func (p *Parser) parseLogicalAnd() (*cst.Node, error) {
	return p.binaryLevel(p.parseBitOr, token.AmpAmp)
}
func (p *Parser) parseBitOr() (*cst.Node, error) {
	return p.binaryLevel(p.parseBitXor, token.Pipe)
}
func (p *Parser) parseBitXor() (*cst.Node, error) {
	return p.binaryLevel(p.parseBitAnd, token.Caret)
}
func (p *Parser) parseBitAnd() (*cst.Node, error) {
	return p.binaryLevel(p.parseEquality, token.Amp)
}
func (p *Parser) parseEquality() (*cst.Node, error) {
	return p.binaryLevel(p.parseRelational, token.EqualEqual, token.BangEqual)
}
func (p *Parser) parseRelational() (*cst.Node, error) {
	return p.binaryLevel(p.parseShift, token.Less, token.Greater, token.LessEqual, token.GreaterEqual)
}
func (p *Parser) parseShift() (*cst.Node, error) {
	return p.binaryLevel(p.parseAdditive, token.LessLess, token.GreaterGreater)
}
func (p *Parser) parseAdditive() (*cst.Node, error) {
	return p.binaryLevel(p.parseMultiplicative, token.Plus, token.Minus)
}
func (p *Parser) parseMultiplicative() (*cst.Node, error) {
	return p.binaryLevel(p.parseCast, token.Star, token.Slash, token.Percent)
}

// parseCast handles the `expr : Type` colon-annotation/cast form, which
// binds tighter than arithmetic but looser than unary.
func (p *Parser) parseCast() (*cst.Node, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	// A type specifier always starts with an identifier, so a colon followed
	// by anything else is left for an enclosing ternary (`c ? 2 : 3`).
	for p.at(token.Colon) && p.peekAt(1).Kind == token.Ident {
		colon := p.advance()
		t, err := p.parseTypeSpec()
		if err != nil {
			return nil, err
		}
		n := cst.New(cst.TagCast, left, t)
		n.Tok = &colon
		left = n
	}
	return left, nil
}

// Unary prefix operators. '^' is bitwise-not (reusing the infix XOR glyph,
// disambiguated by grammar position the way Go itself overloads '^'); '~'
// is reserved exclusively for quaint construction so the two never collide.
func (p *Parser) parseUnary() (*cst.Node, error) {
	switch p.cur().Kind {
	case token.Minus, token.Bang, token.Caret, token.Star, token.Amp, token.PlusPlus, token.MinusMinus:
		op := p.advance()
		operand, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		n := cst.New(cst.TagUnary, operand)
		n.Op = op.Lexeme
		n.Tok = &op
		return n, nil
	case token.Tilde:
		tl := p.advance()
		operand, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		n := cst.New(cst.TagQuaint, operand)
		n.Tok = &tl
		return n, nil
	}
	return p.parsePostfix()
}

func (p *Parser) parsePostfix() (*cst.Node, error) {
	expr, err := p.parsePrimary()
	if err != nil {
		return nil, err
	}
	for {
		switch p.cur().Kind {
		case token.LParen:
			p.advance()
			var args []*cst.Node
			for !p.at(token.RParen) {
				a, err := p.parseExpr()
				if err != nil {
					return nil, err
				}
				args = append(args, a)
				if p.at(token.Comma) {
					p.advance()
					continue
				}
				break
			}
			if _, err := p.expect(token.RParen); err != nil {
				return nil, err
			}
			n := cst.New(cst.TagCall, expr, cst.New(cst.TagArgList, args...))
			expr = n
		case token.LBracket:
			p.advance()
			idx, err := p.parseExpr()
			if err != nil {
				return nil, err
			}
			if _, err := p.expect(token.RBracket); err != nil {
				return nil, err
			}
			expr = cst.New(cst.TagIndex, expr, idx)
		case token.Dot:
			p.advance()
			m, err := p.expect(token.Ident)
			if err != nil {
				return nil, err
			}
			n := cst.New(cst.TagMember, expr, cst.Leaf(cst.TagName, m))
			expr = n
		case token.Arrow:
			p.advance()
			m, err := p.expect(token.Ident)
			if err != nil {
				return nil, err
			}
			n := cst.New(cst.TagMember, expr, cst.Leaf(cst.TagName, m))
			n.Op = "arrow"
			expr = n
		case token.PlusPlus, token.MinusMinus:
			op := p.advance()
			n := cst.New(cst.TagPostfix, expr)
			n.Op = op.Lexeme
			n.Tok = &op
			expr = n
		case token.At:
			at := p.advance()
			operand, err := p.parseAtOperand()
			if err != nil {
				return nil, err
			}
			n := cst.New(cst.TagAt, expr, operand)
			n.Tok = &at
			expr = n
		default:
			return expr, nil
		}
	}
}

func (p *Parser) parseAtOperand() (*cst.Node, error) {
	switch p.cur().Kind {
	case token.KwStart:
		t := p.advance()
		return cst.Leaf(cst.TagAtStart, t), nil
	case token.KwEnd:
		t := p.advance()
		return cst.Leaf(cst.TagAtEnd, t), nil
	case token.Ident:
		fname := p.advance()
		if _, err := p.expect(token.ColonColon); err != nil {
			return nil, err
		}
		lname, err := p.expect(token.Ident)
		if err != nil {
			return nil, err
		}
		return cst.New(cst.TagAtLabel, cst.Leaf(cst.TagName, fname), cst.Leaf(cst.TagName, lname)), nil
	}
	return nil, &ParseError{Pos: p.cur().Pos, Message: "expected start, end, or Func::Label after @"}
}

func (p *Parser) parsePrimary() (*cst.Node, error) {
	switch p.cur().Kind {
	case token.Number:
		t := p.advance()
		return cst.Leaf(cst.TagNumber, t), nil
	case token.String:
		t := p.advance()
		return cst.Leaf(cst.TagString, t), nil
	case token.KwTrue, token.KwFalse, token.KwNull:
		t := p.advance()
		return cst.Leaf(cst.TagName, t), nil
	case token.Ident:
		t := p.advance()
		return cst.Leaf(cst.TagName, t), nil
	case token.LParen:
		p.advance()
		e, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(token.RParen); err != nil {
			return nil, err
		}
		return e, nil
	}
	return nil, &ParseError{Pos: p.cur().Pos, Message: "expected expression"}
}
