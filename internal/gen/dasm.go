package gen

import (
	"fmt"
	"io"
	"strings"

	log "github.com/sirupsen/logrus"

	"probegen/internal/boundary"
	"probegen/internal/decode"
)

// symbolLookup resolves exact entry addresses to names for listing
// annotations. DWARF names win over symbol-table names.
func (g *Generator) symbolLookup() decode.SymbolLookup {
	names := make(map[uint64]string)
	for _, s := range g.src.Symbols() {
		if s.Name == "" {
			continue
		}
		if _, ok := names[s.Addr&^1]; !ok {
			names[s.Addr&^1] = s.Name
		}
	}
	for _, f := range g.src.Functions() {
		names[f.Lo&^1] = f.Name
	}
	return func(addr uint64) (string, bool) {
		n, ok := names[addr]
		return n, ok
	}
}

// Dasm lists the instructions of every grouped function/symbol span.
func (g *Generator) Dasm() error {
	lookup := g.symbolLookup()
	for _, grp := range g.groups() {
		nameList := strings.Join(grp.Names(), ", ")
		fmt.Fprintf(g.w, "\n%s:\n", nameList)
		insts, err := g.scan(grp.Addr, grp.End)
		if err != nil {
			log.Warnf("gen: disassemble %s at 0x%08x: %v", nameList, grp.Addr, err)
		}
		io.WriteString(g.w, decode.Format(insts, lookup))
	}
	return nil
}

// DasmAll lists every executable section end to end, including ranges
// classified as data (rendered as .word).
func (g *Generator) DasmAll() error {
	lookup := g.symbolLookup()
	for _, sec := range g.src.ExecSections() {
		fmt.Fprintf(g.w, "\n; section %s\n", sec.Name)
		sc := g.reg.Scan(g.src, g.src.KindAt, sec.Addr, int64(sec.Offset), int(sec.Size))
		insts, err := sc.All()
		if err != nil {
			log.Warnf("gen: disassemble section %s: %v", sec.Name, err)
		}
		io.WriteString(g.w, decode.Format(insts, lookup))
	}
	return nil
}

// DwarfDasm lists every DWARF function with prologue/epilogue
// annotations.
func (g *Generator) DwarfDasm() error {
	for _, fn := range g.src.Functions() {
		lo := fn.Lo &^ 1
		fmt.Fprintf(g.w, "\n%s [0x%08x, 0x%08x):\n", fn.Name, lo, fn.Hi)
		insts, err := g.scan(lo, fn.Hi)
		if err != nil {
			log.Warnf("gen: disassemble %s: %v", fn.Name, err)
		}
		var b strings.Builder
		for _, inst := range insts {
			decode.FormatInto(&b, inst, nil)
			if _, ok := boundary.IsPrologue(inst); ok {
				b.WriteString("  ; prologue")
			} else if _, ok := boundary.IsExit(inst, lo, fn.Hi); ok {
				b.WriteString("  ; epilogue")
			}
			b.WriteByte('\n')
		}
		io.WriteString(g.w, b.String())
	}
	return nil
}
