package debuginfo

import (
	"debug/elf"
	"sort"

	"probegen/internal/elfx"
	"probegen/internal/isa"
)

// marker is one classification boundary: from Addr (inclusive) onwards
// the given kind applies, until the next marker.
type marker struct {
	Addr uint64
	Kind isa.Kind
}

// buildMarkers derives the address classification from ARM mapping
// symbols ($a ARM, $t Thumb, $d data; $x A64 code). When a 32-bit binary
// has no mapping symbols, Thumb entry points are inferred from the
// interworking bit on function symbol values.
func buildMarkers(ef *elfx.File, mappings []elf.Symbol, syms []*Symbol) []marker {
	defaultKind := isa.ARM
	if ef.Is64() {
		defaultKind = isa.ARM64
	}

	var ms []marker
	for _, s := range mappings {
		var k isa.Kind
		switch s.Name[1] {
		case 'a':
			k = isa.ARM
		case 't':
			k = isa.Thumb
		case 'x':
			k = isa.ARM64
		case 'd':
			k = isa.None
		}
		ms = append(ms, marker{Addr: s.Value &^ 1, Kind: k})
	}

	if len(ms) == 0 {
		// Executable sections carry the machine default; 32-bit
		// function symbols with bit 0 set mark Thumb spans.
		for _, sec := range ef.ExecSections() {
			ms = append(ms, marker{Addr: sec.Addr, Kind: defaultKind})
			ms = append(ms, marker{Addr: sec.Addr + sec.Size, Kind: isa.None})
		}
		if !ef.Is64() {
			for _, s := range syms {
				if s.IsFunc && s.Addr&1 != 0 {
					ms = append(ms, marker{Addr: s.Addr &^ 1, Kind: isa.Thumb})
					if s.Size > 0 {
						ms = append(ms, marker{Addr: (s.Addr &^ 1) + s.Size, Kind: defaultKind})
					}
				}
			}
		}
	}

	sort.SliceStable(ms, func(i, j int) bool { return ms[i].Addr < ms[j].Addr })
	return ms
}

// KindAt returns the instruction-set kind governing the address. The kind
// may change within a single function.
func (p *Provider) KindAt(addr uint64) isa.Kind {
	addr &^= 1
	i := sort.Search(len(p.markers), func(i int) bool { return p.markers[i].Addr > addr })
	if i == 0 {
		return isa.None
	}
	return p.markers[i-1].Kind
}
