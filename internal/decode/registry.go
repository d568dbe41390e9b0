package decode

import (
	"encoding/binary"

	"probegen/internal/isa"
)

// Decoder decodes a single instruction unit from the head of b. On an
// undecodable but well-sized unit it returns a ".word" placeholder text,
// not an error; an error means b is shorter than the minimum unit.
type Decoder interface {
	DecodeOne(b []byte, addr uint64) (raw uint64, text string, size int, err error)
}

// Registry maps instruction-set kinds to decoders. One registry is
// constructed per run and passed into every scan; there is no process-wide
// decoder state.
type Registry struct {
	decoders map[isa.Kind]Decoder
}

// NewRegistry returns a registry with the standard ARM, Thumb, ARM64 and
// raw-word decoders.
func NewRegistry() *Registry {
	return &Registry{decoders: map[isa.Kind]Decoder{
		isa.ARM:   armDecoder{},
		isa.Thumb: thumbDecoder{},
		isa.ARM64: arm64Decoder{},
		isa.None:  noneDecoder{},
	}}
}

// Register replaces the decoder for a kind. Tests use this to inject
// scripted decoders.
func (r *Registry) Register(k isa.Kind, d Decoder) {
	r.decoders[k] = d
}

func (r *Registry) decoder(k isa.Kind) Decoder {
	if d, ok := r.decoders[k]; ok {
		return d
	}
	return noneDecoder{}
}

// noneDecoder renders unclassified ranges as opaque 4-byte words.
type noneDecoder struct{}

func (noneDecoder) DecodeOne(b []byte, _ uint64) (uint64, string, int, error) {
	if len(b) < 4 {
		return 0, "", 0, ErrTruncated
	}
	raw := binary.LittleEndian.Uint32(b)
	return uint64(raw), wordText(raw), 4, nil
}
