// Package debuginfo loads the per-binary metadata the generators consume:
// DWARF functions with their formal parameters, raw ELF symbols, and a
// per-address instruction-set classification built from ARM mapping
// symbols.
package debuginfo

import (
	"debug/elf"
	"fmt"
	"strings"

	log "github.com/sirupsen/logrus"

	"probegen/internal/elfx"
)

// Symbol is a raw ELF symbol. Multiple symbols may share an address
// (aliases); a symbol with size 0 is label-only.
type Symbol struct {
	Name    string
	Addr    uint64
	Size    uint64
	Section int
	IsFunc  bool
}

// Function is a DWARF subprogram with an address range and ordered formal
// parameters. Bare symbols never carry parameter data.
type Function struct {
	Name   string
	Lo, Hi uint64
	Params []*Param
}

// Provider owns one binary's debug metadata for the duration of a
// generation pass.
type Provider struct {
	file    *elfx.File
	funcs   []*Function
	syms    []*Symbol
	markers []marker
}

// Load opens the binary and derives all metadata. A DWARF load failure is
// a warning, not an error: processing continues with symbols only.
func Load(path string) (*Provider, error) {
	ef, err := elfx.Open(path)
	if err != nil {
		return nil, err
	}

	p := &Provider{file: ef}

	rawSyms, err := ef.Symbols()
	if err != nil {
		ef.Close()
		return nil, fmt.Errorf("debuginfo: %w", err)
	}
	var mappings []elf.Symbol
	for _, s := range rawSyms {
		if isMappingSymbol(s.Name) {
			mappings = append(mappings, s)
			continue
		}
		p.syms = append(p.syms, &Symbol{
			Name:    s.Name,
			Addr:    s.Value,
			Size:    s.Size,
			Section: int(s.Section),
			IsFunc:  elf.ST_TYPE(s.Info) == elf.STT_FUNC,
		})
	}
	p.markers = buildMarkers(ef, mappings, p.syms)

	dw, err := ef.ELF.DWARF()
	if err != nil {
		log.Warnf("debuginfo: no usable DWARF in %s: %v", path, err)
	} else {
		p.funcs, err = loadFunctions(dw)
		if err != nil {
			log.Warnf("debuginfo: DWARF walk failed for %s: %v", path, err)
		}
	}
	return p, nil
}

// Close releases the underlying file.
func (p *Provider) Close() error { return p.file.Close() }

// File exposes the ELF byte source for instruction scans.
func (p *Provider) File() *elfx.File { return p.file }

// Binary returns the path identity of the loaded binary.
func (p *Provider) Binary() string { return p.file.Path() }

// Functions returns all DWARF functions, ascending by low address.
func (p *Provider) Functions() []*Function { return p.funcs }

// ExecSections forwards to the underlying binary.
func (p *Provider) ExecSections() []elfx.Section { return p.file.ExecSections() }

// VAToFileOffset forwards to the underlying binary.
func (p *Provider) VAToFileOffset(va uint64) (uint64, error) {
	return p.file.VAToFileOffset(va)
}

// ReadAt reads raw bytes at a file offset.
func (p *Provider) ReadAt(b []byte, off int64) (int, error) {
	return p.file.ReadAt(b, off)
}

// Symbols returns all non-mapping ELF symbols in table order.
func (p *Provider) Symbols() []*Symbol { return p.syms }

// isMappingSymbol recognizes ARM ELF mapping symbols: $a, $t, $d, $x,
// optionally with a ".<n>" suffix.
func isMappingSymbol(name string) bool {
	if len(name) < 2 || name[0] != '$' {
		return false
	}
	switch name[1] {
	case 'a', 't', 'd', 'x':
	default:
		return false
	}
	return len(name) == 2 || strings.HasPrefix(name[2:], ".")
}
