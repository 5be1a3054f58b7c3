// Package check implements the type checker from spec.md §4.3, grounded on
// the teacher's two-pass compiler front end (internal/compiler/compiler.go,
// internal/compiler/stmt_compiler.go): a single visitor that both resolves
// names against the scopes internal/ast already built and attaches/
// quantifies a types.Descriptor to every expression.
package check

import (
	"quaintlang/internal/ast"
	"quaintlang/internal/diag"
	"quaintlang/internal/types"
)

// Checker carries the whole-unit state a single expression visit needs:
// the function table for `@`/`wait until`/quaint-call resolution, and the
// diagnostic bag every rule in spec.md §4.3 reports into.
type Checker struct {
	unit    *ast.Unit
	bag     *diag.Bag
	funcs   map[string]*ast.FuncDecl
	curFunc *ast.FuncDecl
}

// Check runs the full type-checking pass over u, reporting into bag.
// Quantification failures (spec.md §7's out_of_memory) abort the pass
// immediately; ordinary rule violations accumulate as invalid diagnostics
// and checking continues.
func Check(u *ast.Unit, bag *diag.Bag) {
	c := &Checker{unit: u, bag: bag, funcs: map[string]*ast.FuncDecl{}}
	for _, fn := range u.Funcs {
		c.funcs[fn.Name] = fn
	}

	if err := u.Types.QuantifyAll(); err != nil {
		bag.OOM("type table quantification", err)
		return
	}

	for _, td := range u.TypeDecls {
		_ = td // already quantified via QuantifyAll; kept for traversal symmetry
	}

	for _, vd := range u.VarDecls {
		c.checkVarDecl(vd, u.Scope)
		if bag.Status() == diag.OutOfMemory {
			return
		}
	}

	for _, fn := range u.Funcs {
		c.checkFunc(fn)
		if bag.Status() == diag.OutOfMemory {
			return
		}
	}
}

func (c *Checker) quantify(d *types.Descriptor) bool {
	if d == nil {
		return true
	}
	if err := types.Quantify(d); err != nil {
		c.bag.OOM("quantification", err)
		return false
	}
	return true
}

func (c *Checker) checkVarDecl(vd *ast.VarDecl, scope *ast.Scope) {
	if !c.quantify(vd.Type) {
		return
	}
	if vd.Init == nil {
		return
	}
	initType := c.checkExpr(vd.Init, scope)
	if initType != nil && !types.Equal(vd.Type, initType) {
		c.bag.Error(vd.Init.Span(), "cannot initialize %s with a value of type %s", vd.Type, initType)
	}
}

func (c *Checker) checkFunc(fn *ast.FuncDecl) {
	c.curFunc = fn
	for _, p := range fn.Params {
		if !c.quantify(p.Type) {
			return
		}
	}
	if fn.ReturnType != nil && !c.quantify(fn.ReturnType) {
		return
	}
	c.checkBlock(fn.Body)
}
