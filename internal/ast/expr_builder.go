package ast

import (
	"strconv"
	"strings"

	"quaintlang/internal/cst"
	"quaintlang/internal/token"
)

// buildExpr lowers one CST expression node into its typed ast.Expr
// counterpart. Types are left nil here; internal/check fills Ty once every
// name has been resolved against scope (spec.md §4.3).
func (b *Builder) buildExpr(n *cst.Node) Expr {
	base := exprBase{Sp: n.Span()}
	switch n.Tag {
	case cst.TagName:
		switch n.Tok.Kind {
		case token.KwTrue:
			return &NumberExpr{exprBase: base, Value: 1}
		case token.KwFalse:
			return &NumberExpr{exprBase: base, Value: 0}
		case token.KwNull:
			return &NumberExpr{exprBase: base, Value: 0}
		}
		return &NameExpr{exprBase: base, Name: n.Tok.Lexeme}

	case cst.TagNumber:
		return &NumberExpr{exprBase: base, Value: parseNumberLiteral(n.Tok.Lexeme)}

	case cst.TagString:
		// The lexer already resolves escapes while scanning, so the token
		// lexeme here is already the decoded string value.
		return &StringExpr{exprBase: base, Value: n.Tok.Lexeme}

	case cst.TagBinary:
		return &BinaryExpr{
			exprBase: base,
			Op:       n.Op,
			Left:     b.buildExpr(n.Children[0]),
			Right:    b.buildExpr(n.Children[1]),
		}

	case cst.TagUnary:
		return &UnaryExpr{exprBase: base, Op: n.Op, Operand: b.buildExpr(n.Children[0])}

	case cst.TagPostfix:
		return &PostfixExpr{exprBase: base, Op: n.Op, Operand: b.buildExpr(n.Children[0])}

	case cst.TagCall:
		callee := b.buildExpr(n.Children[0])
		var args []Expr
		for _, a := range n.Children[1].Children {
			args = append(args, b.buildExpr(a))
		}
		return &CallExpr{exprBase: base, Callee: callee, Args: args}

	case cst.TagIndex:
		return &IndexExpr{
			exprBase: base,
			Base:     b.buildExpr(n.Children[0]),
			Index:    b.buildExpr(n.Children[1]),
		}

	case cst.TagMember:
		return &MemberExpr{
			exprBase: base,
			Base:     b.buildExpr(n.Children[0]),
			Member:   n.Children[1].Tok.Lexeme,
			Arrow:    n.Op == "arrow",
		}

	case cst.TagTernary:
		return &TernaryExpr{
			exprBase: base,
			Cond:     b.buildExpr(n.Children[0]),
			Then:     b.buildExpr(n.Children[1]),
			Else:     b.buildExpr(n.Children[2]),
		}

	case cst.TagCast:
		return &CastExpr{
			exprBase: base,
			Operand:  b.buildExpr(n.Children[0]),
			Target:   b.buildTypeSpec(n.Children[1]),
		}

	case cst.TagQuaint:
		return b.buildQuaintExpr(base, n)

	case cst.TagAt:
		return b.buildAtExpr(base, n)
	}

	b.bag.Error(n.Span(), "malformed expression")
	return &NumberExpr{exprBase: base, Value: 0}
}

// buildQuaintExpr handles both `~f(args)` (the operand parses as a CallExpr
// CST node, meaning "run as a coroutine") and `~v` (any other operand,
// meaning "wrap an already-completed value"), per spec.md §3/§4.4.
func (b *Builder) buildQuaintExpr(base exprBase, n *cst.Node) Expr {
	operand := n.Children[0]
	if operand.Tag == cst.TagCall {
		callee := b.buildExpr(operand.Children[0])
		var args []Expr
		for _, a := range operand.Children[1].Children {
			args = append(args, b.buildExpr(a))
		}
		return &QuaintExpr{exprBase: base, IsCall: true, Callee: callee, Args: args}
	}
	return &QuaintExpr{exprBase: base, IsCall: false, Value: b.buildExpr(operand)}
}

func (b *Builder) buildAtExpr(base exprBase, n *cst.Node) Expr {
	quaint := b.buildExpr(n.Children[0])
	operand := n.Children[1]
	e := &QuaintAtExpr{exprBase: base, Quaint: quaint}
	switch operand.Tag {
	case cst.TagAtStart:
		e.Kind = AtStart
	case cst.TagAtEnd:
		e.Kind = AtEnd
	case cst.TagAtLabel:
		e.Kind = AtLabel
		e.FuncName = operand.Children[0].Tok.Lexeme
		e.LabelName = operand.Children[1].Tok.Lexeme
	}
	return e
}

// parseNumberLiteral accepts the lexer's decimal and 0x-hex spellings. A
// plain base-0 strconv parse would misread a leading-zero decimal literal
// such as "019" as octal, so hex is detected explicitly instead.
func parseNumberLiteral(lexeme string) uint64 {
	if strings.HasPrefix(lexeme, "0x") || strings.HasPrefix(lexeme, "0X") {
		v, _ := strconv.ParseUint(lexeme[2:], 16, 64)
		return v
	}
	v, _ := strconv.ParseUint(lexeme, 10, 64)
	return v
}
