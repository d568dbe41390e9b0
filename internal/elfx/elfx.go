// Package elfx provides ELF loading helpers for ARM and ARM64 binaries.
package elfx

import (
	"debug/elf"
	"errors"
	"fmt"
	"io"
	"os"
)

var (
	ErrNotELF    = errors.New("elfx: not an ELF file")
	ErrNotARM    = errors.New("elfx: not an ARM or ARM64 binary")
	ErrNoSegment = errors.New("elfx: no PT_LOAD segment covers address")
)

// File wraps a debug/elf.File with convenience methods for probe generation.
// All reads go through an io.ReaderAt, so a nested scan never disturbs an
// outer scan's read position.
type File struct {
	ELF  *elf.File
	path string
	raw  io.ReaderAt
	size int64
}

// Open opens an ELF file and validates it is an ARM (EM_ARM) or ARM64
// (EM_AARCH64) executable or shared object.
func Open(path string) (*File, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("elfx: open: %w", err)
	}

	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("elfx: stat: %w", err)
	}

	ef, err := elf.NewFile(f)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("%w: %v", ErrNotELF, err)
	}

	if ef.Machine != elf.EM_ARM && ef.Machine != elf.EM_AARCH64 {
		ef.Close()
		return nil, fmt.Errorf("%w: machine %v", ErrNotARM, ef.Machine)
	}

	return &File{ELF: ef, path: path, raw: f, size: info.Size()}, nil
}

// Close releases resources.
func (f *File) Close() error {
	return f.ELF.Close()
}

// Path returns the path the file was opened from.
func (f *File) Path() string { return f.path }

// Is64 reports whether this is a 64-bit (ARM64) binary.
func (f *File) Is64() bool { return f.ELF.Class == elf.ELFCLASS64 }

// Section describes an executable section selected by ExecSections.
type Section struct {
	Name   string
	Addr   uint64
	Size   uint64
	Offset uint64
	Type   elf.SectionType
}

// ExecSections returns all allocated executable sections
// (SHF_ALLOC|SHF_EXECINSTR) in file order. NOBITS sections are skipped:
// they have no backing bytes to decode.
func (f *File) ExecSections() []Section {
	want := elf.SHF_ALLOC | elf.SHF_EXECINSTR
	var out []Section
	for _, s := range f.ELF.Sections {
		if s.Flags&want != want || s.Type == elf.SHT_NOBITS {
			continue
		}
		out = append(out, Section{
			Name:   s.Name,
			Addr:   s.Addr,
			Size:   s.Size,
			Offset: s.Offset,
			Type:   s.Type,
		})
	}
	return out
}

// Symbols returns the static symbol table, falling back to the dynamic
// table when .symtab is absent (stripped binaries). A binary with no
// symbols at all yields an empty slice, not an error.
func (f *File) Symbols() ([]elf.Symbol, error) {
	syms, err := f.ELF.Symbols()
	if err == nil {
		return syms, nil
	}
	if !errors.Is(err, elf.ErrNoSymbols) {
		return nil, fmt.Errorf("elfx: symtab: %w", err)
	}
	dyn, derr := f.ELF.DynamicSymbols()
	if derr != nil {
		if errors.Is(derr, elf.ErrNoSymbols) {
			return nil, nil
		}
		return nil, fmt.Errorf("elfx: dynsym: %w", derr)
	}
	return dyn, nil
}

// VAToFileOffset converts a virtual address to a file offset using PT_LOAD
// segments.
func (f *File) VAToFileOffset(va uint64) (uint64, error) {
	for _, p := range f.ELF.Progs {
		if p.Type != elf.PT_LOAD {
			continue
		}
		if va >= p.Vaddr && va < p.Vaddr+p.Memsz {
			offset := va - p.Vaddr + p.Off
			if offset >= uint64(f.size) {
				return 0, fmt.Errorf("elfx: VA 0x%x maps to offset 0x%x beyond file size 0x%x", va, offset, f.size)
			}
			return offset, nil
		}
	}
	return 0, fmt.Errorf("%w: VA 0x%x", ErrNoSegment, va)
}

// ReadAt reads bytes from the underlying file at the given file offset.
func (f *File) ReadAt(buf []byte, off int64) (int, error) {
	return f.raw.ReadAt(buf, off)
}

// ReadBytes reads n bytes starting at the given file offset, clamped to
// the file size.
func (f *File) ReadBytes(off int64, n int) ([]byte, error) {
	avail := f.size - off
	if avail <= 0 {
		return nil, fmt.Errorf("elfx: offset 0x%x at or past end of file", off)
	}
	if int64(n) > avail {
		n = int(avail)
	}
	buf := make([]byte, n)
	_, err := f.raw.ReadAt(buf, off)
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("elfx: read at 0x%x: %w", off, err)
	}
	return buf, nil
}
