package decode

import (
	"errors"
	"fmt"
	"io"

	"probegen/internal/isa"
)

// ErrTruncated reports a span tail shorter than the decoder's minimum
// unit. Callers are expected to bound spans from symbol/function sizes,
// so this is fatal for the stream.
var ErrTruncated = errors.New("decode: truncated instruction span")

// KindFunc classifies an address into an instruction-set kind.
type KindFunc func(addr uint64) isa.Kind

// Scanner lazily decodes one address span, ascending by address. It is a
// single-pass, non-restartable sequence: Next yields instructions until
// the span is exhausted or a fatal error occurs.
type Scanner struct {
	reg      *Registry
	src      io.ReaderAt
	classify KindFunc

	addr   uint64
	off    int64
	remain int

	chunk     []byte
	chunkKind isa.Kind
	chunkPos  int

	err error
}

// Scan prepares a scanner over (startAddr, byteOffset, byteLength) of src.
// Thumb entry addresses carry the interworking marker in bit 0; it is
// masked off before decoding.
func (r *Registry) Scan(src io.ReaderAt, classify KindFunc, startAddr uint64, byteOffset int64, byteLength int) *Scanner {
	if startAddr&1 != 0 {
		startAddr &^= 1
	}
	return &Scanner{
		reg:      r,
		src:      src,
		classify: classify,
		addr:     startAddr,
		off:      byteOffset,
		remain:   byteLength,
	}
}

// Next returns the next instruction. ok is false when the span is
// exhausted or after a fatal error; check Err afterwards.
func (s *Scanner) Next() (Inst, bool) {
	if s.err != nil {
		return Inst{}, false
	}
	if s.chunkPos >= len(s.chunk) {
		if !s.fill() {
			return Inst{}, false
		}
	}

	addr := s.addr
	raw, text, size, err := s.reg.decoder(s.chunkKind).DecodeOne(s.chunk[s.chunkPos:], addr)
	if err != nil {
		s.err = fmt.Errorf("%w at 0x%x", err, addr)
		return Inst{}, false
	}
	s.chunkPos += size
	s.addr += uint64(size)
	return Inst{Addr: addr, Raw: raw, Size: size, Kind: s.chunkKind, Text: text}, true
}

// Err returns the fatal error that ended the stream, if any.
func (s *Scanner) Err() error { return s.err }

// All drains the scanner into a slice.
func (s *Scanner) All() ([]Inst, error) {
	var out []Inst
	for {
		inst, ok := s.Next()
		if !ok {
			return out, s.err
		}
		out = append(out, inst)
	}
}

// fill reads the next classification chunk: from the current address up to
// the next kind boundary or the end of the span, whichever is closer.
func (s *Scanner) fill() bool {
	if s.remain <= 0 {
		return false
	}
	kind := s.classify(s.addr)
	if kind.MinUnit() > s.remain {
		s.err = fmt.Errorf("%w at 0x%x", ErrTruncated, s.addr)
		return false
	}

	// Look ahead for the classification boundary at the kind's unit
	// granularity.
	n := kind.MinUnit()
	for n < s.remain && s.classify(s.addr+uint64(n)) == kind {
		n += kind.MinUnit()
	}
	if n > s.remain {
		n = s.remain
	}

	buf := make([]byte, n)
	if _, err := s.src.ReadAt(buf, s.off); err != nil {
		s.err = fmt.Errorf("decode: read at offset 0x%x: %w", s.off, err)
		return false
	}
	s.chunk = buf
	s.chunkKind = kind
	s.chunkPos = 0
	s.off += int64(n)
	s.remain -= n
	return true
}
