// Package report records what an optimizer run did to each area.
package report

import (
	"context"
	"sort"

	"github.com/cfoust/f3dopt/pkg/assets"
	"github.com/cfoust/f3dopt/pkg/bank"
	"github.com/cfoust/f3dopt/pkg/compact"
	"github.com/cfoust/f3dopt/pkg/material"
	"github.com/cfoust/f3dopt/pkg/reloc"

	"github.com/fxamacker/cbor/v2"
)

type Tier struct {
	Group     int `cbor:"group"`
	Admitted  int `cbor:"admitted"`
	Committed int `cbor:"committed"`
	Saved     int `cbor:"saved"`
}

type Bank struct {
	GlobalLimit int    `cbor:"globalLimit"`
	LocalLimit  int    `cbor:"localLimit"`
	Global      Tier   `cbor:"global"`
	Local       []Tier `cbor:"local"`
}

type Geometry struct {
	Degenerate int `cbor:"degenerate"`
	Merged     int `cbor:"merged"`
}

type Area struct {
	Level       int             `cbor:"level"`
	Area        int             `cbor:"area"`
	Name        string          `cbor:"name,omitempty"`
	Skipped     bool            `cbor:"skipped,omitempty"`
	OldSize     int             `cbor:"oldSize"`
	NewSize     int             `cbor:"newSize"`
	Descriptors int             `cbor:"descriptors"`
	Compact     compact.Stats   `cbor:"compact"`
	Geometry    Geometry        `cbor:"geometry"`
	Material    material.Stats  `cbor:"material"`
	Relocations []reloc.Mapping `cbor:"relocations"`
}

type Report struct {
	Version string  `cbor:"version"`
	Bank    *Bank   `cbor:"bank,omitempty"`
	Areas   []*Area `cbor:"areas"`
}

func tier(group int, selection bank.Selection) Tier {
	return Tier{
		Group:     group,
		Admitted:  len(selection.Admitted),
		Committed: selection.Committed,
		Saved:     selection.Saved,
	}
}

// FromBank summarizes both tiers of a bank. Local tiers are ordered by
// group.
func FromBank(b *bank.Bank, opts bank.Options) *Bank {
	if b == nil {
		return nil
	}

	out := &Bank{
		GlobalLimit: opts.GlobalLimit,
		LocalLimit:  opts.LocalLimit,
		Global:      tier(-1, b.Global),
	}

	groups := make([]int, 0, len(b.Local))
	for group := range b.Local {
		groups = append(groups, group)
	}
	sort.Ints(groups)

	for _, group := range groups {
		out.Local = append(out.Local, tier(group, b.Local[group]))
	}
	return out
}

// Saved is the number of bytes the run removed from all areas.
func (r *Report) Saved() int {
	saved := 0
	for _, area := range r.Areas {
		saved += area.OldSize - area.NewSize
	}
	return saved
}

func (r *Report) Encode() ([]byte, error) {
	return cbor.Marshal(r)
}

// Write stores the encoded report under key.
func (r *Report) Write(ctx context.Context, store assets.Store, key string) error {
	data, err := r.Encode()
	if err != nil {
		return err
	}
	return store.Set(ctx, key, data)
}

func Decode(data []byte) (*Report, error) {
	var r Report
	if err := cbor.Unmarshal(data, &r); err != nil {
		return nil, err
	}
	return &r, nil
}
