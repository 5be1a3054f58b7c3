package ast

import "golang.org/x/exp/slices"

// LabelTable holds one function's wait-labels, grouped by spelling so that
// multiple occurrences of the same name share one id (spec.md §3, §4.2):
// "All labels with identical names share the same numeric id".
type LabelTable struct {
	byName map[string]int
	names  []string
}

// NewLabelTable creates an empty label table.
func NewLabelTable() *LabelTable {
	return &LabelTable{byName: make(map[string]int)}
}

// collectLabels walks a function body gathering every WaitLabelStmt name
// (first pass), then assigns ids in sorted order (second pass) so that the
// id assignment is a pure function of the set of distinct spellings, not of
// encounter order — matching the "sorted by name and assigned identifiers"
// rule in spec.md §4.2 and keeping compiler output deterministic (§8).
func collectLabels(body *Block) *LabelTable {
	lt := NewLabelTable()
	seen := map[string]bool{}
	var walkBlock func(b *Block)
	var walkStmt func(s Stmt)
	walkStmt = func(s Stmt) {
		switch n := s.(type) {
		case *WaitLabelStmt:
			if !seen[n.Name] {
				seen[n.Name] = true
				lt.names = append(lt.names, n.Name)
			}
		case *Block:
			walkBlock(n)
		case *NointBlock:
			walkBlock(n.Body)
		case *If:
			walkBlock(n.Then)
			for _, e := range n.Elifs {
				walkBlock(e.Body)
			}
			if n.Else != nil {
				walkBlock(n.Else)
			}
		case *While:
			walkBlock(n.Body)
		case *DoWhile:
			walkBlock(n.Body)
		}
	}
	walkBlock = func(b *Block) {
		for _, s := range b.Stmts {
			walkStmt(s)
		}
	}
	walkBlock(body)

	slices.Sort(lt.names)
	for i, name := range lt.names {
		lt.byName[name] = i
	}
	return lt
}

// IDFor returns the shared id for name, or -1 if name was never declared
// as a wait-label in this function.
func (lt *LabelTable) IDFor(name string) int {
	if id, ok := lt.byName[name]; ok {
		return id
	}
	return -1
}

// Count is the number of distinct label ids in this function.
func (lt *LabelTable) Count() int { return len(lt.names) }

// Names returns label spellings ordered by id.
func (lt *LabelTable) Names() []string { return append([]string(nil), lt.names...) }

// backfillLabelIDs assigns each WaitLabelStmt its shared id, once lt is built.
func backfillLabelIDs(body *Block, lt *LabelTable) {
	var walkBlock func(b *Block)
	var walkStmt func(s Stmt)
	walkStmt = func(s Stmt) {
		switch n := s.(type) {
		case *WaitLabelStmt:
			n.LabelID = lt.IDFor(n.Name)
		case *Block:
			walkBlock(n)
		case *NointBlock:
			walkBlock(n.Body)
		case *If:
			walkBlock(n.Then)
			for i := range n.Elifs {
				walkBlock(n.Elifs[i].Body)
			}
			if n.Else != nil {
				walkBlock(n.Else)
			}
		case *While:
			walkBlock(n.Body)
		case *DoWhile:
			walkBlock(n.Body)
		}
	}
	walkBlock = func(b *Block) {
		for _, s := range b.Stmts {
			walkStmt(s)
		}
	}
	walkBlock(body)
}
