// Package symgroup merges DWARF functions and raw ELF function symbols
// into one ascending-by-address sequence of entry-point groups.
package symgroup

import (
	"sort"

	"probegen/internal/debuginfo"
)

// Entity is a tagged variant: either a DWARF function or a bare symbol.
// Exactly one side is non-nil. Bare symbols never carry parameter data.
type Entity struct {
	Fn  *debuginfo.Function
	Sym *debuginfo.Symbol
}

func (e Entity) IsFunction() bool { return e.Fn != nil }

func (e Entity) Name() string {
	if e.Fn != nil {
		return e.Fn.Name
	}
	return e.Sym.Name
}

// Addr returns the even-aligned entry address (the Thumb interworking bit
// is not part of the canonical key).
func (e Entity) Addr() uint64 {
	if e.Fn != nil {
		return e.Fn.Lo &^ 1
	}
	return e.Sym.Addr &^ 1
}

// End returns the exclusive end of the entity's declared range.
func (e Entity) End() uint64 {
	if e.Fn != nil {
		return e.Fn.Hi
	}
	return e.Addr() + e.Sym.Size
}

// Group is all entities sharing one canonical entry address. End is the
// effective span end: the declared maximum, truncated to the next group's
// address when ranges overlap (Overlapping is then set so exit handling
// can emit a synthetic boundary instead of trusting epilogue matching
// beyond the truncation).
type Group struct {
	Addr        uint64
	Entities    []Entity
	End         uint64
	Overlapping bool
}

// Names returns all entity names in insertion order, DWARF first.
func (g *Group) Names() []string {
	out := make([]string, 0, len(g.Entities))
	for _, e := range g.Entities {
		out = append(out, e.Name())
	}
	return out
}

// Function returns the group's DWARF function, if any.
func (g *Group) Function() *debuginfo.Function {
	for _, e := range g.Entities {
		if e.Fn != nil {
			return e.Fn
		}
	}
	return nil
}

// Build produces the ordered groups. DWARF functions claim their entry
// address first; a function-typed, named, non-zero-sized symbol joins
// only when no DWARF function claims the address (two bare symbols at one
// address coalesce as aliases, and duplicates of a DWARF claim are
// dropped). When filter is non-nil, an entity is kept only if one of its
// names matches.
func Build(funcs []*debuginfo.Function, syms []*debuginfo.Symbol, filter *NameFilter) []Group {
	byAddr := make(map[uint64]*Group)
	hasDWARF := make(map[uint64]bool)

	keep := func(name string) bool {
		return filter == nil || filter.Match(name)
	}
	add := func(e Entity) {
		addr := e.Addr()
		g, ok := byAddr[addr]
		if !ok {
			g = &Group{Addr: addr}
			byAddr[addr] = g
		}
		for _, have := range g.Entities {
			if have.Name() == e.Name() {
				return
			}
		}
		g.Entities = append(g.Entities, e)
		if end := e.End(); end > g.End {
			g.End = end
		}
	}

	for _, fn := range funcs {
		if !keep(fn.Name) {
			continue
		}
		add(Entity{Fn: fn})
		hasDWARF[fn.Lo&^1] = true
	}
	for _, s := range syms {
		if !s.IsFunc || s.Size == 0 || s.Name == "" {
			continue
		}
		if hasDWARF[s.Addr&^1] {
			continue
		}
		if !keep(s.Name) {
			continue
		}
		add(Entity{Sym: s})
	}

	out := make([]Group, 0, len(byAddr))
	for _, g := range byAddr {
		out = append(out, *g)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Addr < out[j].Addr })

	for i := range out {
		if i+1 < len(out) && out[i+1].Addr < out[i].End {
			out[i].End = out[i+1].Addr
			out[i].Overlapping = true
		}
	}
	return out
}
