package bank

import (
	"context"
	"fmt"

	"github.com/cfoust/f3dopt/pkg/scan"

	"github.com/rs/zerolog/log"
	"github.com/sasha-s/go-deadlock"
	"golang.org/x/sync/errgroup"
)

const (
	DEFAULT_GLOBAL_LIMIT = 256 * 1024
	DEFAULT_LOCAL_LIMIT  = 256 * 1024
	// Blocks are padded to this alignment when copied into an area.
	BLOCK_ALIGNMENT = 0x10
)

// Tier is where a texture block would live.
type Tier int

const (
	TierNone Tier = iota
	TierGlobal
	TierLocal
)

func (t Tier) String() string {
	switch t {
	case TierGlobal:
		return "global"
	case TierLocal:
		return "local"
	}
	return "none"
}

// Source is an area's display lists as the bank sees them.
type Source struct {
	// Group is the area group (level) the area belongs to.
	Group   int
	Name    string
	Buffer  []byte
	Entries []uint32
	Scan    scan.Options
}

type Options struct {
	GlobalLimit int
	LocalLimit  int
	Workers     int
}

// Bank holds the blocks admitted to the shared tiers. It is read-only once
// built.
type Bank struct {
	Global Selection
	Local  map[int]Selection

	global *Table
	local  map[int]*Table
}

func align(n int) int {
	return (n + BLOCK_ALIGNMENT - 1) &^ (BLOCK_ALIGNMENT - 1)
}

// Blocks returns the distinct texture blocks an area loads, each padded to
// the block alignment.
func Blocks(source Source) ([][]byte, error) {
	loads, err := scan.Area(source.Buffer, source.Entries, source.Scan)
	if err != nil {
		return nil, err
	}

	unique := NewTable()
	for _, load := range loads {
		if load.Kind != scan.KindTexture {
			continue
		}

		data, _ := scan.Read(source.Buffer, load.Pointer, align(load.Length))
		unique.Add(data)
	}

	blocks := make([][]byte, 0, unique.Len())
	for _, entry := range unique.Entries() {
		blocks = append(blocks, entry.Data)
	}
	return blocks, nil
}

// frequencies counts how many areas load each distinct block. Discovery
// workers share one.
type frequencies struct {
	mutex deadlock.Mutex
	table *Table
}

func (f *frequencies) add(blocks [][]byte) {
	f.mutex.Lock()
	defer f.mutex.Unlock()

	for _, block := range blocks {
		f.table.Add(block)
	}
}

// Discovery is what the bank learns from scanning every area.
type Discovery struct {
	// Blocks holds the distinct blocks of each source, indexed like the
	// sources.
	Blocks [][][]byte
	// Frequencies counts the areas that load each distinct block.
	Frequencies *Table
}

// Discover finds the distinct texture blocks of every source in parallel
// and counts them across all sources.
func Discover(ctx context.Context, sources []Source, workers int) (*Discovery, error) {
	results := make([][][]byte, len(sources))
	counts := &frequencies{table: NewTable()}

	g, _ := errgroup.WithContext(ctx)
	if workers > 0 {
		g.SetLimit(workers)
	}

	for i, source := range sources {
		i, source := i, source
		g.Go(func() error {
			blocks, err := Blocks(source)
			if err != nil {
				return fmt.Errorf("%s: %w", source.Name, err)
			}
			results[i] = blocks
			counts.add(blocks)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	return &Discovery{
		Blocks:      results,
		Frequencies: counts.table,
	}, nil
}

// Build runs both bank phases. Every area is scanned before any block is
// admitted.
func Build(ctx context.Context, sources []Source, opts Options) (*Bank, error) {
	discovery, err := Discover(ctx, sources, opts.Workers)
	if err != nil {
		return nil, err
	}

	return Allocate(sources, discovery, opts), nil
}

// Allocate packs discovered blocks into the global tier, then packs each
// group's remaining shared blocks into that group's local tier.
func Allocate(sources []Source, discovery *Discovery, opts Options) *Bank {
	frequencies := discovery.Frequencies

	bank := &Bank{
		Global: Select(frequencies.Entries(), opts.GlobalLimit),
		Local:  make(map[int]Selection),
		local:  make(map[int]*Table),
	}
	bank.global = bank.Global.index()

	log.Info().
		Int("distinct", frequencies.Len()).
		Int("admitted", len(bank.Global.Admitted)).
		Int("committed", bank.Global.Committed).
		Int("saved", bank.Global.Saved).
		Msg("global texture bank")

	var groups []int
	perGroup := make(map[int]*Table)
	for i, source := range sources {
		table, ok := perGroup[source.Group]
		if !ok {
			table = NewTable()
			perGroup[source.Group] = table
			groups = append(groups, source.Group)
		}

		for _, block := range discovery.Blocks[i] {
			if bank.global.Lookup(block) != nil {
				continue
			}
			table.Add(block)
		}
	}

	for _, group := range groups {
		selection := Select(perGroup[group].Entries(), opts.LocalLimit)
		bank.Local[group] = selection
		bank.local[group] = selection.index()

		log.Info().
			Int("group", group).
			Int("admitted", len(selection.Admitted)).
			Int("committed", selection.Committed).
			Int("saved", selection.Saved).
			Msg("local texture bank")
	}

	return bank
}

// Classify reports which tier, if any, holds the texture a load reads.
func (b *Bank) Classify(group int, buf []byte, load scan.Descriptor) Tier {
	if b == nil || load.Kind != scan.KindTexture {
		return TierNone
	}

	data, _ := scan.Read(buf, load.Pointer, align(load.Length))
	if b.global != nil && b.global.Lookup(data) != nil {
		return TierGlobal
	}
	if local, ok := b.local[group]; ok && local.Lookup(data) != nil {
		return TierLocal
	}
	return TierNone
}

// Saved is the total number of bytes both tiers save.
func (b *Bank) Saved() int {
	if b == nil {
		return 0
	}

	saved := b.Global.Saved
	for _, selection := range b.Local {
		saved += selection.Saved
	}
	return saved
}
