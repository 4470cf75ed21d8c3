package reloc

import (
	"fmt"
	"strings"
)

// Mapping relocates [Old, Old+Length) to [New, New+Length).
type Mapping struct {
	Old    uint32 `cbor:"old"`
	New    uint32 `cbor:"new"`
	Length int    `cbor:"length"`
}

// Table maps offsets in the original area buffer to offsets in the
// rewritten one.
type Table struct {
	mappings []Mapping
}

func NewTable() *Table {
	return &Table{}
}

func (t *Table) Add(old, new uint32, length int) {
	t.mappings = append(t.mappings, Mapping{
		Old:    old,
		New:    new,
		Length: length,
	})
}

func (t *Table) Mappings() []Mapping {
	return t.mappings
}

// Lookup relocates an offset using the first mapping that contains it.
func (t *Table) Lookup(old uint32) (uint32, bool) {
	mapping, ok := t.find(old)
	if !ok {
		return 0, false
	}
	return mapping.New + (old - mapping.Old), true
}

// Resolve relocates an offset or explains why it could not.
func (t *Table) Resolve(what string, old uint32) (uint32, error) {
	if new, ok := t.Lookup(old); ok {
		return new, nil
	}
	return 0, &UnmappedError{
		What:    what,
		Pointer: old,
		Dump:    t.Dump(),
	}
}

// ResolveRange relocates [old, old+length). Every byte of the range must be
// mapped, and consecutive mappings covering it must also sit next to each
// other in the new buffer.
func (t *Table) ResolveRange(what string, old uint32, length int) (uint32, error) {
	start, err := t.Resolve(what, old)
	if err != nil {
		return 0, err
	}

	pointer, expected := old, start
	for end := uint64(old) + uint64(length); uint64(pointer) < end; {
		mapping, ok := t.find(pointer)
		if !ok || mapping.New+(pointer-mapping.Old) != expected {
			return 0, &UnmappedError{
				What:    what,
				Pointer: pointer,
				Dump:    t.Dump(),
			}
		}
		next := mapping.Old + uint32(mapping.Length)
		expected += next - pointer
		pointer = next
	}
	return start, nil
}

func (t *Table) find(old uint32) (Mapping, bool) {
	for _, mapping := range t.mappings {
		if old >= mapping.Old && uint64(old-mapping.Old) < uint64(mapping.Length) {
			return mapping, true
		}
	}
	return Mapping{}, false
}

func (t *Table) Dump() string {
	var b strings.Builder
	for _, mapping := range t.mappings {
		fmt.Fprintf(&b, "%06X -> %06X len: %X\n", mapping.Old, mapping.New, mapping.Length)
	}
	return b.String()
}

// UnmappedError is returned for a pointer that falls outside every block
// copied into the new buffer.
type UnmappedError struct {
	What    string
	Pointer uint32
	Dump    string
}

func (e *UnmappedError) Error() string {
	return fmt.Sprintf("failed to map %s pointer %06X", e.What, e.Pointer)
}
