// Package isa defines the instruction-set kinds and ARM condition codes
// shared by the decoder, boundary matchers and generators.
package isa

// Kind identifies the instruction set governing a code address.
// A single function may span more than one kind (ARM/Thumb interworking).
type Kind uint8

const (
	// None marks data or unclassifiable ranges; decoded as raw words.
	None Kind = iota
	ARM
	Thumb
	ARM64
)

func (k Kind) String() string {
	switch k {
	case ARM:
		return "arm"
	case Thumb:
		return "thumb"
	case ARM64:
		return "arm64"
	}
	return "none"
}

// MinUnit returns the smallest decodable unit in bytes for the kind.
func (k Kind) MinUnit() int {
	if k == Thumb {
		return 2
	}
	return 4
}
