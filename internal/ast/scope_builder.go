package ast

import (
	"quaintlang/internal/diag"
	"quaintlang/internal/token"
)

// BuildScopes attaches a Scope to the unit, to every function, and to
// every block/while/do-while body, per spec.md §4.2. It runs in two
// passes per scope as the spec prescribes: first the scope is sized by
// counting declarations (here realized as simple append, since Go slices
// already amortize growth — the "count first" step from the original
// design is preserved conceptually in sortObjects/Finalize running only
// once all entries are known), then populated and sorted.
func BuildScopes(u *Unit, bag *diag.Bag) {
	u.Scope = NewScope(nil)
	injectBuiltins(u.Scope)

	// Type names are not inserted here: they resolve through u.Types, a
	// separate namespace from the term-level scope built below.
	for _, vd := range u.VarDecls {
		for i, name := range vd.Names {
			u.Scope.Insert(&Object{Name: name, Kind: ObjGlobalVar, Decl: vd, NameIndex: i, Pos: vd.Sp.Begin.Pos})
		}
	}
	for _, fn := range u.Funcs {
		u.Scope.Insert(&Object{Name: fn.Name, Kind: ObjFunction, Decl: fn, Pos: fn.Sp.Begin.Pos})
	}
	reportDuplicates(u.Scope, bag)

	for i, fn := range u.Funcs {
		fn.ID = i
		buildFuncScope(fn, u.Scope, bag)
		fn.Labels = collectLabels(fn.Body)
		backfillLabelIDs(fn.Body, fn.Labels)
	}
}

func reportDuplicates(s *Scope, bag *diag.Bag) {
	dups := s.Finalize()
	for _, d := range dups {
		bag.Error(spanAt(d.Pos), "duplicate declaration of %q", d.Name)
	}
}

// spanAt builds a degenerate single-token span from a bare position, for
// diagnostics raised after only a Position (not a full token) is on hand.
func spanAt(pos token.Position) token.Span {
	t := token.Token{Pos: pos}
	return token.Span{Begin: t, End: t}
}

func buildFuncScope(fn *FuncDecl, unitScope *Scope, bag *diag.Bag) {
	fnScope := NewScope(unitScope)
	for _, p := range fn.Params {
		fnScope.Insert(&Object{Name: p.Name, Kind: ObjParam, Decl: fn, Type: p.Type, Pos: fn.Sp.Begin.Pos})
	}
	// Parameters and the body's top-level locals share fnScope, which
	// buildBlockBody finalizes (and reports duplicates in) exactly once.
	fn.Scope = fnScope
	fn.Body.Scope = fnScope
	buildBlockBody(fn.Body, fnScope, bag)
}

// buildBlockBody populates b's own scope additions directly into parent
// (blocks share the enclosing scope for automatics declared at their own
// level) and recurses into nested scope-introducing statements. A fresh
// child Scope is created for each nested Block/While/DoWhile body so that
// names declared inside a loop or `if` body don't leak to sibling
// statements, while still chaining outward to the function and unit scopes
// for lookup.
func buildBlockBody(b *Block, scope *Scope, bag *diag.Bag) {
	for _, stmt := range b.Stmts {
		switch n := stmt.(type) {
		case *VarDecl:
			for i, name := range n.Names {
				scope.Insert(&Object{Name: name, Kind: ObjAutoVar, Decl: n, NameIndex: i, Pos: n.NamePos[i]})
			}
		case *Block:
			n.Scope = NewScope(scope)
			buildBlockBody(n, n.Scope, bag)
		case *NointBlock:
			n.Body.Scope = NewScope(scope)
			buildBlockBody(n.Body, n.Body.Scope, bag)
		case *If:
			n.Then.Scope = NewScope(scope)
			buildBlockBody(n.Then, n.Then.Scope, bag)
			for i := range n.Elifs {
				n.Elifs[i].Body.Scope = NewScope(scope)
				buildBlockBody(n.Elifs[i].Body, n.Elifs[i].Body.Scope, bag)
			}
			if n.Else != nil {
				n.Else.Scope = NewScope(scope)
				buildBlockBody(n.Else, n.Else.Scope, bag)
			}
		case *While:
			n.Scope = NewScope(scope)
			n.Body.Scope = n.Scope
			buildBlockBody(n.Body, n.Scope, bag)
		case *DoWhile:
			n.Scope = NewScope(scope)
			n.Body.Scope = n.Scope
			buildBlockBody(n.Body, n.Scope, bag)
		}
	}
	reportDuplicates(scope, bag)
}
