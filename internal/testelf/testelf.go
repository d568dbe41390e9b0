// Package testelf builds minimal ARM and ARM64 ELF images for tests.
// The images carry one executable .text section, a symbol table and a
// PT_LOAD segment, which is enough for the loader, the decoder dispatch
// and the generators.
package testelf

import (
	"bytes"
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"
)

// Sym describes one symbol to place in the image. Mapping symbols
// ($a, $t, $d) are emitted as local no-type symbols; everything else as
// global function symbols.
type Sym struct {
	Name string
	Addr uint64
	Size uint64
}

func isMapping(name string) bool {
	return len(name) >= 2 && name[0] == '$'
}

// BuildARM32 writes a little-endian EM_ARM executable whose .text section
// holds text at textAddr, and returns its path.
func BuildARM32(t *testing.T, textAddr uint64, text []byte, syms []Sym) string {
	t.Helper()
	return write(t, elfLayout{
		class64:  false,
		machine:  40, // EM_ARM
		textAddr: textAddr,
		text:     text,
		syms:     syms,
	})
}

// BuildARM64 writes a little-endian EM_AARCH64 executable.
func BuildARM64(t *testing.T, textAddr uint64, text []byte, syms []Sym) string {
	t.Helper()
	return write(t, elfLayout{
		class64:  true,
		machine:  183, // EM_AARCH64
		textAddr: textAddr,
		text:     text,
		syms:     syms,
	})
}

type elfLayout struct {
	class64  bool
	machine  uint16
	textAddr uint64
	text     []byte
	syms     []Sym
}

// Section header indexes. Fixed layout:
// 0 null, 1 .text, 2 .symtab, 3 .strtab, 4 .shstrtab
const (
	shnText     = 1
	shnSymtab   = 2
	shnStrtab   = 3
	shnShstrtab = 4
	shnum       = 5
)

func write(t *testing.T, l elfLayout) string {
	t.Helper()
	le := binary.LittleEndian

	var ehsize, phentsize, shentsize, symsize int
	if l.class64 {
		ehsize, phentsize, shentsize, symsize = 64, 56, 64, 24
	} else {
		ehsize, phentsize, shentsize, symsize = 52, 32, 40, 16
	}

	// String tables.
	strtab := []byte{0}
	nameOff := make([]uint32, len(l.syms))
	// Locals (mapping symbols) must precede globals; reorder.
	order := make([]int, 0, len(l.syms))
	for i, s := range l.syms {
		if isMapping(s.Name) {
			order = append(order, i)
		}
	}
	numLocal := len(order) + 1 // +1 for the null symbol
	for i, s := range l.syms {
		if !isMapping(s.Name) {
			order = append(order, i)
		}
	}
	for _, i := range order {
		nameOff[i] = uint32(len(strtab))
		strtab = append(strtab, l.syms[i].Name...)
		strtab = append(strtab, 0)
	}

	shstrtab := []byte("\x00.text\x00.symtab\x00.strtab\x00.shstrtab\x00")
	shname := map[int]uint32{shnText: 1, shnSymtab: 7, shnStrtab: 15, shnShstrtab: 23}

	// File layout: ehdr, phdr, .text, .symtab, .strtab, .shstrtab, shdrs.
	textOff := ehsize + phentsize
	symtabOff := textOff + len(l.text)
	nsyms := len(l.syms) + 1
	strtabOff := symtabOff + nsyms*symsize
	shstrtabOff := strtabOff + len(strtab)
	shoff := shstrtabOff + len(shstrtab)

	var buf bytes.Buffer

	// ELF header.
	ident := make([]byte, 16)
	copy(ident, "\x7fELF")
	if l.class64 {
		ident[4] = 2
	} else {
		ident[4] = 1
	}
	ident[5] = 1 // little-endian
	ident[6] = 1 // EV_CURRENT
	buf.Write(ident)
	u16 := func(v uint16) { _ = binary.Write(&buf, le, v) }
	u32 := func(v uint32) { _ = binary.Write(&buf, le, v) }
	u64 := func(v uint64) { _ = binary.Write(&buf, le, v) }
	addr := func(v uint64) {
		if l.class64 {
			u64(v)
		} else {
			u32(uint32(v))
		}
	}
	u16(2) // ET_EXEC
	u16(l.machine)
	u32(1)               // version
	addr(l.textAddr)     // entry
	addr(uint64(ehsize)) // phoff
	addr(uint64(shoff))  // shoff
	u32(0)               // flags
	u16(uint16(ehsize))
	u16(uint16(phentsize))
	u16(1) // phnum
	u16(uint16(shentsize))
	u16(shnum)
	u16(shnShstrtab)

	// PT_LOAD covering .text.
	if l.class64 {
		u32(1)               // PT_LOAD
		u32(5)               // R+X
		u64(uint64(textOff)) // offset
		u64(l.textAddr)      // vaddr
		u64(l.textAddr)      // paddr
		u64(uint64(len(l.text)))
		u64(uint64(len(l.text)))
		u64(4)
	} else {
		u32(1)               // PT_LOAD
		u32(uint32(textOff)) // offset
		u32(uint32(l.textAddr))
		u32(uint32(l.textAddr))
		u32(uint32(len(l.text)))
		u32(uint32(len(l.text)))
		u32(5) // R+X
		u32(4)
	}

	buf.Write(l.text)

	// Symbol table: null symbol, then the reordered symbols.
	writeSym := func(name uint32, value, size uint64, info byte, shndx uint16) {
		if l.class64 {
			u32(name)
			buf.WriteByte(info)
			buf.WriteByte(0)
			u16(shndx)
			u64(value)
			u64(size)
		} else {
			u32(name)
			u32(uint32(value))
			u32(uint32(size))
			buf.WriteByte(info)
			buf.WriteByte(0)
			u16(shndx)
		}
	}
	writeSym(0, 0, 0, 0, 0)
	for _, i := range order {
		s := l.syms[i]
		info := byte(0x12) // GLOBAL | STT_FUNC
		if isMapping(s.Name) {
			info = 0 // LOCAL | STT_NOTYPE
		}
		writeSym(nameOff[i], s.Addr, s.Size, info, shnText)
	}

	buf.Write(strtab)
	buf.Write(shstrtab)

	// Section headers.
	writeShdr := func(name uint32, typ, flags uint64, a, off, size, link, info, align, entsize uint64) {
		u32(name)
		u32(uint32(typ))
		if l.class64 {
			u64(flags)
			u64(a)
			u64(off)
			u64(size)
			u32(uint32(link))
			u32(uint32(info))
			u64(align)
			u64(entsize)
		} else {
			u32(uint32(flags))
			u32(uint32(a))
			u32(uint32(off))
			u32(uint32(size))
			u32(uint32(link))
			u32(uint32(info))
			u32(uint32(align))
			u32(uint32(entsize))
		}
	}
	writeShdr(0, 0, 0, 0, 0, 0, 0, 0, 0, 0)
	// .text: SHT_PROGBITS, SHF_ALLOC|SHF_EXECINSTR.
	writeShdr(shname[shnText], 1, 0x6, l.textAddr, uint64(textOff), uint64(len(l.text)), 0, 0, 4, 0)
	// .symtab: SHT_SYMTAB, link=.strtab, info=first global.
	writeShdr(shname[shnSymtab], 2, 0, 0, uint64(symtabOff), uint64(nsyms*symsize), shnStrtab, uint64(numLocal), 4, uint64(symsize))
	// .strtab / .shstrtab: SHT_STRTAB.
	writeShdr(shname[shnStrtab], 3, 0, 0, uint64(strtabOff), uint64(len(strtab)), 0, 0, 1, 0)
	writeShdr(shname[shnShstrtab], 3, 0, 0, uint64(shstrtabOff), uint64(len(shstrtab)), 0, 0, 1, 0)

	path := filepath.Join(t.TempDir(), "fixture.so")
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	return path
}

// Words packs little-endian 32-bit instruction words.
func Words(ws ...uint32) []byte {
	out := make([]byte, 0, len(ws)*4)
	for _, w := range ws {
		var b [4]byte
		binary.LittleEndian.PutUint32(b[:], w)
		out = append(out, b[:]...)
	}
	return out
}

// Halfwords packs little-endian 16-bit Thumb halfwords.
func Halfwords(hs ...uint16) []byte {
	out := make([]byte, 0, len(hs)*2)
	for _, h := range hs {
		var b [2]byte
		binary.LittleEndian.PutUint16(b[:], h)
		out = append(out, b[:]...)
	}
	return out
}
