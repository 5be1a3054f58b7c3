// Package types implements the type descriptor model from spec.md §3: a
// tagged record with a fixed set of kinds, quantification (size/alignment
// computation), and a unit-wide named-type table.
package types

import (
	"fmt"
	"strconv"
)

// Kind is the tag of a type descriptor.
type Kind int

const (
	Void Kind = iota
	U8
	I8
	U16
	I16
	U32
	I32
	U64
	I64
	USize // 8-byte unsigned size class alias
	SSize // 8-byte signed size class alias
	UPtr  // pointer-sized unsigned integer alias
	IPtr  // pointer-sized signed integer alias
	Ptr   // pointer-to-T
	VPtr  // void pointer
	FPtr  // function pointer
	Quaint
	Struct
	Union
	Enum
)

func (k Kind) String() string {
	switch k {
	case Void:
		return "void"
	case U8:
		return "u8"
	case I8:
		return "i8"
	case U16:
		return "u16"
	case I16:
		return "i16"
	case U32:
		return "u32"
	case I32:
		return "i32"
	case U64:
		return "u64"
	case I64:
		return "i64"
	case USize:
		return "usize"
	case SSize:
		return "ssize"
	case UPtr:
		return "uptr"
	case IPtr:
		return "iptr"
	case Ptr:
		return "ptr"
	case VPtr:
		return "vptr"
	case FPtr:
		return "fptr"
	case Quaint:
		return "quaint"
	case Struct:
		return "struct"
	case Union:
		return "union"
	case Enum:
		return "enum"
	}
	return "?"
}

// Member is one field of a struct or union type.
type Member struct {
	Name string
	Type *Descriptor
}

// Param is one parameter of a function-pointer type.
type Param struct {
	Name string // may be empty for anonymous fptr parameters
	Type *Descriptor
}

// EnumValue is one named constant of an enum type.
type EnumValue struct {
	Name  string
	Value uint64
}

// Descriptor is a type descriptor per spec.md §3. Size and Alignment are
// zero until Quantify has run.
type Descriptor struct {
	Kind      Kind
	Count     int // >1 marks an array of this element type
	Size      int // bytes; 0 before quantification
	Alignment int // bytes; 0 before quantification

	Subtype *Descriptor // Ptr, Quaint

	Members []Member // Struct, Union
	Offsets []int    // Struct, Union; parallel to Members, filled at quantification

	Params     []Param // FPtr
	ReturnType *Descriptor // FPtr; nil means void return

	Values     []EnumValue // Enum
	Underlying Kind        // Enum; must be an integer kind
}

// IsInteger reports whether k is one of the eight sized integer kinds or
// the usize/ssize/uptr/iptr aliases.
func IsInteger(k Kind) bool {
	switch k {
	case U8, I8, U16, I16, U32, I32, U64, I64, USize, SSize, UPtr, IPtr:
		return true
	}
	return false
}

// IsUnsigned reports whether k is an unsigned integer kind.
func IsUnsigned(k Kind) bool {
	switch k {
	case U8, U16, U32, U64, USize, UPtr:
		return true
	}
	return false
}

// IsSigned reports whether k is a signed integer kind.
func IsSigned(k Kind) bool {
	return IsInteger(k) && !IsUnsigned(k)
}

// IsPointerLike reports whether k carries an 8-byte address (pointer,
// void-pointer, function-pointer, or quaint handle).
func IsPointerLike(k Kind) bool {
	switch k {
	case Ptr, VPtr, FPtr, Quaint:
		return true
	}
	return false
}

// IsArray reports whether d describes an array (any kind with Count>1).
func (d *Descriptor) IsArray() bool { return d.Count > 1 }

// ElementType returns the type of a single element: d itself for a scalar,
// or a copy of d with Count reset to 1 for an array.
func (d *Descriptor) ElementType() *Descriptor {
	if !d.IsArray() {
		return d
	}
	e := *d
	e.Count = 1
	return &e
}

// String renders a short, human-readable spelling of d for diagnostics.
// It does not attempt to round-trip the original type-specifier syntax.
func (d *Descriptor) String() string {
	if d == nil {
		return "<nil type>"
	}
	suffix := ""
	if d.IsArray() {
		suffix = "[" + strconv.Itoa(d.Count) + "]"
	}
	switch d.Kind {
	case Ptr:
		return "ptr(" + d.Subtype.String() + ")" + suffix
	case Quaint:
		return "quaint(" + d.Subtype.String() + ")" + suffix
	case FPtr:
		return "fptr(...)" + suffix
	case Struct:
		return "struct{...}" + suffix
	case Union:
		return "union{...}" + suffix
	case Enum:
		return "enum(" + d.Underlying.String() + ")" + suffix
	}
	return d.Kind.String() + suffix
}


// intSizes gives the fixed byte size of each sized integer kind per
// spec.md §3's sizing table.
var intSizes = map[Kind]int{
	U8: 1, I8: 1,
	U16: 2, I16: 2,
	U32: 4, I32: 4,
	U64: 8, I64: 8,
	USize: 8, SSize: 8,
	UPtr: 8, IPtr: 8,
}

// New builds an unquantified scalar descriptor of the given kind.
func New(k Kind) *Descriptor { return &Descriptor{Kind: k, Count: 1} }

// NewArray builds an unquantified array descriptor of n elements of kind k
// (for scalar element kinds) — composite element arrays are built by
// setting Count directly on the composite descriptor.
func NewArray(k Kind, n int) *Descriptor { return &Descriptor{Kind: k, Count: n} }

// Equal reports structural equality as required throughout spec.md §4.3:
// same kind, same count, and (recursively) same shape. Member/param names
// are NOT compared for struct/union/fptr — "structurally equal" means
// layout-compatible, not name-identical, matching how the checker treats
// two independently-declared structs with identical fields as assignable.
func Equal(a, b *Descriptor) bool {
	if a == b {
		return true
	}
	if a == nil || b == nil {
		return false
	}
	if a.Kind != b.Kind || a.Count != b.Count {
		return false
	}
	switch a.Kind {
	case Ptr, Quaint:
		return Equal(a.Subtype, b.Subtype)
	case Struct, Union:
		if len(a.Members) != len(b.Members) {
			return false
		}
		for i := range a.Members {
			if !Equal(a.Members[i].Type, b.Members[i].Type) {
				return false
			}
		}
		return true
	case FPtr:
		if len(a.Params) != len(b.Params) {
			return false
		}
		for i := range a.Params {
			if !Equal(a.Params[i].Type, b.Params[i].Type) {
				return false
			}
		}
		return Equal(a.ReturnType, b.ReturnType)
	case Enum:
		return a.Underlying == b.Underlying
	}
	return true
}

// Copy performs the deep copy required when a named type is referenced
// inside a type specifier (spec.md §4.3: "named types referenced inside
// specifiers are deep-copied from the type table into the using site so
// subsequent quantification is local").
func Copy(d *Descriptor) *Descriptor {
	if d == nil {
		return nil
	}
	c := *d
	// A pointer's own size never depends on its pointee's layout, so the
	// subtype is shared rather than deep-copied. This also breaks the
	// recursion a self-referential struct (a linked-list node holding a
	// ptr to its own type) would otherwise cause.
	if d.Kind != Ptr && d.Kind != Quaint {
		c.Subtype = Copy(d.Subtype)
	}
	c.ReturnType = Copy(d.ReturnType)
	if d.Members != nil {
		c.Members = make([]Member, len(d.Members))
		for i, m := range d.Members {
			c.Members[i] = Member{Name: m.Name, Type: Copy(m.Type)}
		}
	}
	if d.Offsets != nil {
		c.Offsets = append([]int(nil), d.Offsets...)
	}
	if d.Params != nil {
		c.Params = make([]Param, len(d.Params))
		for i, p := range d.Params {
			c.Params[i] = Param{Name: p.Name, Type: Copy(p.Type)}
		}
	}
	if d.Values != nil {
		c.Values = append([]EnumValue(nil), d.Values...)
	}
	// Reset layout so quantification at the using site is independent of
	// whatever quantification the table entry already underwent.
	c.Size, c.Alignment = 0, 0
	for i := range c.Offsets {
		c.Offsets[i] = 0
	}
	return &c
}

func alignUp(off, align int) int {
	if align <= 1 {
		return off
	}
	return (off + align - 1) &^ (align - 1)
}

// Quantify computes Size and Alignment (and, for struct/union, Offsets)
// recursively, per the sizing rules in spec.md §3. It is idempotent:
// running it again on an already-quantified descriptor recomputes the same
// values.
func Quantify(d *Descriptor) error {
	return quantify(d, map[*Descriptor]bool{})
}

func quantify(d *Descriptor, seen map[*Descriptor]bool) error {
	if d == nil {
		return nil
	}
	if seen[d] {
		return nil // recursive pointer/quaint subtype already in progress
	}
	seen[d] = true

	var elemSize, elemAlign int
	switch d.Kind {
	case Void:
		elemSize, elemAlign = 0, 1
	case U8, I8, U16, I16, U32, I32, U64, I64, USize, SSize, UPtr, IPtr:
		sz, ok := intSizes[d.Kind]
		if !ok {
			return fmt.Errorf("types: unknown integer kind %v", d.Kind)
		}
		elemSize, elemAlign = sz, sz
	case Ptr, VPtr, FPtr, Quaint:
		elemSize, elemAlign = 8, 8
		if d.Kind == Ptr || d.Kind == Quaint {
			if err := quantify(d.Subtype, seen); err != nil {
				return err
			}
		}
		if d.Kind == FPtr {
			for _, p := range d.Params {
				if err := quantify(p.Type, seen); err != nil {
					return err
				}
			}
			if err := quantify(d.ReturnType, seen); err != nil {
				return err
			}
		}
	case Struct:
		if len(d.Offsets) != len(d.Members) {
			d.Offsets = make([]int, len(d.Members))
		}
		off := 0
		maxAlign := 1
		for i, m := range d.Members {
			if err := quantify(m.Type, seen); err != nil {
				return err
			}
			msize := memberBytes(m.Type)
			malign := m.Type.Alignment
			if malign == 0 {
				malign = 1
			}
			off = alignUp(off, malign)
			d.Offsets[i] = off
			off += msize
			if malign > maxAlign {
				maxAlign = malign
			}
		}
		elemSize = alignUp(off, maxAlign)
		elemAlign = maxAlign
	case Union:
		if len(d.Offsets) != len(d.Members) {
			d.Offsets = make([]int, len(d.Members))
		}
		maxSize, maxAlign := 0, 1
		for i, m := range d.Members {
			if err := quantify(m.Type, seen); err != nil {
				return err
			}
			d.Offsets[i] = 0
			msize := memberBytes(m.Type)
			if msize > maxSize {
				maxSize = msize
			}
			if m.Type.Alignment > maxAlign {
				maxAlign = m.Type.Alignment
			}
		}
		elemSize = alignUp(maxSize, maxAlign)
		elemAlign = maxAlign
	case Enum:
		if !IsInteger(d.Underlying) {
			return fmt.Errorf("types: enum underlying kind %v is not an integer kind", d.Underlying)
		}
		elemSize, elemAlign = intSizes[d.Underlying], intSizes[d.Underlying]
	default:
		return fmt.Errorf("types: cannot quantify unknown kind %v", d.Kind)
	}

	d.Size = elemSize
	d.Alignment = elemAlign
	if d.Count > 1 {
		d.Size = elemSize * d.Count
	}
	return nil
}

// memberBytes is the byte footprint of a (possibly array) member type,
// already-quantified.
func memberBytes(d *Descriptor) int {
	if d.Count > 1 {
		return d.Size
	}
	return d.Size
}
