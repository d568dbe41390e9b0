package elfx

import (
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"

	"probegen/internal/testelf"
)

func TestOpenValid(t *testing.T) {
	path := testelf.BuildARM32(t, 0x8000,
		testelf.Words(0xe92d4000, 0xe12fff1e), // push {lr}; bx lr
		[]testelf.Sym{{Name: "add", Addr: 0x8000, Size: 8}})
	f, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	if f.Is64() {
		t.Error("ARM32 fixture reported as 64-bit")
	}
	if f.Path() != path {
		t.Errorf("Path() = %q, want %q", f.Path(), path)
	}
}

func TestOpenRejectsNonELF(t *testing.T) {
	tmp := filepath.Join(t.TempDir(), "notelf")
	if err := os.WriteFile(tmp, []byte("not an ELF file at all"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := Open(tmp); err == nil {
		t.Fatal("expected error for non-ELF file")
	}
}

func TestExecSections(t *testing.T) {
	path := testelf.BuildARM32(t, 0x8000, testelf.Words(0xe12fff1e), nil)
	f, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	secs := f.ExecSections()
	if len(secs) != 1 {
		t.Fatalf("got %d exec sections, want 1", len(secs))
	}
	if secs[0].Name != ".text" || secs[0].Addr != 0x8000 || secs[0].Size != 4 {
		t.Errorf("unexpected section: %+v", secs[0])
	}
}

func TestSymbols(t *testing.T) {
	path := testelf.BuildARM64(t, 0x10000,
		testelf.Words(0xd65f03c0), // ret
		[]testelf.Sym{{Name: "f", Addr: 0x10000, Size: 4}})
	f, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	if !f.Is64() {
		t.Error("ARM64 fixture reported as 32-bit")
	}
	syms, err := f.Symbols()
	if err != nil {
		t.Fatal(err)
	}
	found := false
	for _, s := range syms {
		if s.Name == "f" && s.Value == 0x10000 && s.Size == 4 {
			found = true
		}
	}
	if !found {
		t.Errorf("symbol f not found in %v", syms)
	}
}

func TestReadBytesAndVAMapping(t *testing.T) {
	text := testelf.Words(0xe92d4000, 0xe12fff1e)
	path := testelf.BuildARM32(t, 0x8000, text,
		[]testelf.Sym{{Name: "add", Addr: 0x8000, Size: 8}})
	f, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	off, err := f.VAToFileOffset(0x8004)
	if err != nil {
		t.Fatal(err)
	}
	b, err := f.ReadBytes(int64(off), 4)
	if err != nil {
		t.Fatal(err)
	}
	if got := binary.LittleEndian.Uint32(b); got != 0xe12fff1e {
		t.Errorf("word at 0x8004 = %#x, want 0xe12fff1e", got)
	}

	if _, err := f.VAToFileOffset(0xdead0000); err == nil {
		t.Error("expected error for unmapped VA")
	}
}
