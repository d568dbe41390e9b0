package isa

import "fmt"

// Cond is an ARM condition code. AL (always) and Und (undecodable) are
// treated as "no guard" by the handler model.
type Cond uint8

const (
	EQ Cond = iota
	NE
	CS
	CC
	MI
	PL
	VS
	VC
	HI
	LS
	GE
	LT
	GT
	LE
	AL
	Und
)

var condStrings = [...]string{"eq", "ne", "cs", "cc", "mi", "pl", "vs",
	"vc", "hi", "ls", "ge", "lt", "gt", "le", "al", "und"}

func (c Cond) String() string {
	if int(c) >= len(condStrings) {
		return "und"
	}
	return condStrings[c]
}

// Trivial reports whether the condition needs no runtime guard.
func (c Cond) Trivial() bool { return c == AL || c == Und }

// TestExpr returns the generated-script expression testing the condition
// against the saved CPSR.
func (c Cond) TestExpr() string {
	return fmt.Sprintf("cpsr_is_%s(get_cpsr())", c)
}

// ParseCond parses a condition mnemonic. The empty string parses as AL.
// HS and LO are accepted as the usual aliases for CS and CC. An unknown
// string is a configuration error.
func ParseCond(s string) (Cond, error) {
	if s == "" {
		return AL, nil
	}
	switch s {
	case "hs":
		return CS, nil
	case "lo":
		return CC, nil
	}
	for i, cs := range condStrings {
		if s == cs {
			return Cond(i), nil
		}
	}
	return Und, fmt.Errorf("isa: unknown condition code %q", s)
}

// SuffixAlternation returns a regexp alternation matching every condition
// suffix that can appear on an instruction mnemonic, including the hs/lo
// aliases. AL is omitted: assemblers never print it.
func SuffixAlternation() string {
	return "eq|ne|cs|hs|cc|lo|mi|pl|vs|vc|hi|ls|ge|lt|gt|le"
}
