package bank

import (
	"bytes"
	"sort"

	"github.com/cespare/xxhash/v2"
)

// Entry is a distinct texture block and the number of areas that use it.
type Entry struct {
	Hash      uint64
	Data      []byte
	Frequency int
}

func (e *Entry) Len() int {
	return len(e.Data)
}

// Saving is the number of bytes sharing the block saves over giving every
// area its own copy.
func (e *Entry) Saving() int {
	return e.Len() * (e.Frequency - 1)
}

// Table counts distinct blocks by content. Entries keep insertion order.
type Table struct {
	index   map[uint64][]*Entry
	entries []*Entry
}

func NewTable() *Table {
	return &Table{
		index: make(map[uint64][]*Entry),
	}
}

// Lookup returns the entry with exactly this content, if any.
func (t *Table) Lookup(data []byte) *Entry {
	return t.lookup(xxhash.Sum64(data), data)
}

func (t *Table) lookup(hash uint64, data []byte) *Entry {
	for _, entry := range t.index[hash] {
		if bytes.Equal(entry.Data, data) {
			return entry
		}
	}
	return nil
}

// Add counts one more use of data.
func (t *Table) Add(data []byte) *Entry {
	hash := xxhash.Sum64(data)
	if entry := t.lookup(hash, data); entry != nil {
		entry.Frequency++
		return entry
	}

	entry := &Entry{
		Hash:      hash,
		Data:      data,
		Frequency: 1,
	}
	t.index[hash] = append(t.index[hash], entry)
	t.entries = append(t.entries, entry)
	return entry
}

func (t *Table) Entries() []*Entry {
	return t.entries
}

func (t *Table) Len() int {
	return len(t.entries)
}

// Selection is the outcome of packing blocks into a byte budget.
type Selection struct {
	Admitted []*Entry
	// Committed is the number of bytes the admitted blocks occupy.
	Committed int
	// Saved is the number of bytes sharing them saves.
	Saved int
}

// Select greedily admits shared blocks, best saving first, skipping any
// block that would push the committed bytes past budget. Blocks used only
// once are never admitted. Equal savings are ordered by content, so the
// result does not depend on the order entries were discovered in.
func Select(entries []*Entry, budget int) Selection {
	candidates := make([]*Entry, 0, len(entries))
	for _, entry := range entries {
		if entry.Frequency > 1 {
			candidates = append(candidates, entry)
		}
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		a, b := candidates[i], candidates[j]
		if a.Saving() != b.Saving() {
			return a.Saving() > b.Saving()
		}
		if a.Hash != b.Hash {
			return a.Hash < b.Hash
		}
		return bytes.Compare(a.Data, b.Data) < 0
	})

	selection := Selection{}
	for _, entry := range candidates {
		if selection.Committed+entry.Len() > budget {
			continue
		}

		selection.Admitted = append(selection.Admitted, entry)
		selection.Committed += entry.Len()
		selection.Saved += entry.Saving()
	}

	return selection
}

func (s Selection) index() *Table {
	table := NewTable()
	for _, entry := range s.Admitted {
		table.Add(entry.Data)
	}
	return table
}
