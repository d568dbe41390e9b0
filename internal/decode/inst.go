// Package decode routes byte spans to per-ISA decoders and produces a
// uniform instruction stream for the boundary matchers and generators.
package decode

import (
	"fmt"
	"strings"

	"probegen/internal/isa"
)

// Inst is one decoded instruction. Text is a normalized lowercase
// mnemonic + operand string; undecodable units carry a ".word" placeholder.
// Immutable once produced.
type Inst struct {
	Addr uint64
	Raw  uint64 // 16 or 32 significant bits depending on Size
	Size int    // 2 or 4
	Kind isa.Kind
	Text string
}

// Mnemonic returns the first whitespace-delimited token of Text.
func (i Inst) Mnemonic() string {
	if sp := strings.IndexByte(i.Text, ' '); sp >= 0 {
		return i.Text[:sp]
	}
	return i.Text
}

// SymbolLookup resolves an address to a symbolic name. Returns ("", false)
// if unknown.
type SymbolLookup func(addr uint64) (name string, ok bool)

// Format renders instructions as stable text, one per line:
// <addr>  <raw hex>  <disasm>  ; <symbol>
func Format(insts []Inst, lookup SymbolLookup) string {
	var b strings.Builder
	for _, inst := range insts {
		FormatInto(&b, inst, lookup)
		b.WriteByte('\n')
	}
	return b.String()
}

// FormatInto writes one formatted instruction line without the trailing
// newline.
func FormatInto(b *strings.Builder, inst Inst, lookup SymbolLookup) {
	fmt.Fprintf(b, "0x%08x  ", inst.Addr)
	if inst.Size == 2 {
		fmt.Fprintf(b, "    %04x  ", uint16(inst.Raw))
	} else {
		fmt.Fprintf(b, "%08x  ", uint32(inst.Raw))
	}
	b.WriteString(inst.Text)
	if lookup != nil {
		if name, ok := lookup(inst.Addr); ok {
			fmt.Fprintf(b, "  ; <%s>", name)
		}
	}
}

func wordText(raw uint32) string {
	return fmt.Sprintf(".word 0x%08x", raw)
}

// normalize canonicalizes operand separators to ", " and strips leading
// and trailing whitespace, so downstream text matching never depends on
// a syntax printer's spacing. GNU syntax printers pad zero-operand
// mnemonics with a trailing space.
func normalize(s string) string {
	s = strings.TrimSpace(s)
	s = strings.ReplaceAll(s, ", ", ",")
	return strings.ReplaceAll(s, ",", ", ")
}
