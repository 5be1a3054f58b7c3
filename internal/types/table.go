package types

import "fmt"

// Table is the unit-wide named-type table from spec.md §3: insertion fails
// on duplicate name, and the whole table is torn down together at unit
// teardown (simply dropping the Table value; nothing it owns is shared
// with using sites once Copy has run).
type Table struct {
	byName map[string]*Descriptor
	order  []string
}

// NewTable creates an empty named-type table.
func NewTable() *Table {
	return &Table{byName: make(map[string]*Descriptor)}
}

// Insert registers name -> d. It fails if name is already present.
func (t *Table) Insert(name string, d *Descriptor) error {
	if _, exists := t.byName[name]; exists {
		return fmt.Errorf("type %q already declared", name)
	}
	t.byName[name] = d
	t.order = append(t.order, name)
	return nil
}

// Lookup returns the owning descriptor for name, or nil, false.
func (t *Table) Lookup(name string) (*Descriptor, bool) {
	d, ok := t.byName[name]
	return d, ok
}

// Names returns declared type names in insertion order.
func (t *Table) Names() []string {
	return append([]string(nil), t.order...)
}

// QuantifyAll quantifies every registered named type. Order doesn't matter:
// Quantify recurses into subtypes/members itself and is safe to call twice.
func (t *Table) QuantifyAll() error {
	for _, name := range t.order {
		if err := Quantify(t.byName[name]); err != nil {
			return fmt.Errorf("type %q: %w", name, err)
		}
	}
	return nil
}
