// Package scope implements name binding for the parser.
//
// Tables live in an arena and refer to their parent by ID. Each table
// hands out dense indices independently per binding kind and remembers
// names that were reserved by a forward call but not yet declared.
package scope

import (
	"fmt"
	"sort"

	"github.com/orizon-lang/wasmast/internal/errors"
)

// Kind is the kind of a binding
type Kind int

const (
	FunctionRef Kind = iota
	Param
	Local

	numKinds
)

// String returns the string representation of Kind.
func (k Kind) String() string {
	switch k {
	case FunctionRef:
		return "FunctionRef"
	case Param:
		return "Param"
	case Local:
		return "Local"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Binding ties a declared name to its kind and dense index.
type Binding struct {
	Name  string
	Kind  Kind
	Index int
}

// ID addresses a table in the arena.
type ID int

// Root is the program-level table.
const Root ID = 0

const noParent ID = -1

type table struct {
	parent     ID
	names      map[string]Binding
	next       [numKinds]int
	unresolved map[string]struct{}
}

// Tree is the arena of scope tables used by one parse.
type Tree struct {
	tables []*table
}

// NewTree creates a tree holding only the root table.
func NewTree() *Tree {
	t := &Tree{}
	t.tables = append(t.tables, newTable(noParent))
	return t
}

func newTable(parent ID) *table {
	return &table{
		parent:     parent,
		names:      make(map[string]Binding),
		unresolved: make(map[string]struct{}),
	}
}

// Push creates a child table of parent and returns its ID.
func (t *Tree) Push(parent ID) ID {
	t.tables = append(t.tables, newTable(parent))
	return ID(len(t.tables) - 1)
}

// Pop discards the most recently pushed table. Tables are strictly
// nested, so only the innermost one may be popped.
func (t *Tree) Pop(id ID) {
	if id == Root || int(id) != len(t.tables)-1 {
		panic(fmt.Sprintf("scope: pop of non-innermost table %d", id))
	}
	t.tables[id] = nil
	t.tables = t.tables[:id]
}

// Parent returns the parent of id, and false for the root.
func (t *Tree) Parent(id ID) (ID, bool) {
	p := t.tables[id].parent
	return p, p != noParent
}

// Assign declares name in table id, allocating the next index of kind.
func (t *Tree) Assign(id ID, name string, kind Kind) (Binding, error) {
	tab := t.tables[id]
	if _, exists := tab.names[name]; exists {
		return Binding{}, errors.Redeclaration(name)
	}
	b := Binding{Name: name, Kind: kind, Index: tab.next[kind]}
	tab.next[kind]++
	tab.names[name] = b
	return b, nil
}

// Fulfill declares name in table id. A name previously reserved there by
// a forward reference keeps its speculative binding.
func (t *Tree) Fulfill(id ID, name string, kind Kind) (Binding, error) {
	tab := t.tables[id]
	if _, pending := tab.unresolved[name]; !pending {
		return t.Assign(id, name, kind)
	}

	b := tab.names[name]
	if b.Kind != kind {
		return Binding{}, errors.KindMismatch(name, kind.String(), b.Kind.String())
	}
	delete(tab.unresolved, name)
	return b, nil
}

// Lookup resolves name in table id or one of its ancestors.
func (t *Tree) Lookup(id ID, name string) (Binding, error) {
	if b, ok := t.find(id, name); ok {
		return b, nil
	}
	return Binding{}, errors.UnresolvedReferences(name)
}

// LookupKind is Lookup that also requires the binding to be of kind.
func (t *Tree) LookupKind(id ID, name string, kind Kind) (Binding, error) {
	b, err := t.Lookup(id, name)
	if err != nil {
		return Binding{}, err
	}
	if b.Kind != kind {
		return Binding{}, errors.KindMismatch(name, kind.String(), b.Kind.String())
	}
	return b, nil
}

// Reserve resolves name like Lookup; when it is unknown, a binding of kind
// is created in table id and marked unresolved until Fulfill.
func (t *Tree) Reserve(id ID, name string, kind Kind) (Binding, error) {
	if b, ok := t.find(id, name); ok {
		if b.Kind != kind {
			return Binding{}, errors.KindMismatch(name, kind.String(), b.Kind.String())
		}
		return b, nil
	}

	b, err := t.Assign(id, name, kind)
	if err != nil {
		return Binding{}, err
	}
	t.tables[id].unresolved[name] = struct{}{}
	return b, nil
}

// Check fails if table id still has unresolved names. Names are reported
// in sorted order.
func (t *Tree) Check(id ID) error {
	tab := t.tables[id]
	if len(tab.unresolved) == 0 {
		return nil
	}
	names := make([]string, 0, len(tab.unresolved))
	for name := range tab.unresolved {
		names = append(names, name)
	}
	sort.Strings(names)
	return errors.UnresolvedReferences(names...)
}

// Count returns how many bindings of kind table id has allocated.
func (t *Tree) Count(id ID, kind Kind) int {
	return t.tables[id].next[kind]
}

// LocalCount returns the number of locals declared in table id.
func (t *Tree) LocalCount(id ID) int {
	return t.Count(id, Local)
}

func (t *Tree) find(id ID, name string) (Binding, bool) {
	for cur := id; cur != noParent; cur = t.tables[cur].parent {
		if b, ok := t.tables[cur].names[name]; ok {
			return b, true
		}
	}
	return Binding{}, false
}
