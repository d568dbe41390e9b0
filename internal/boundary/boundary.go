// Package boundary locates function prologue and epilogue instructions by
// pattern-matching decoded instruction text. It has no knowledge of the
// decoders themselves; everything works off the normalized Text field.
package boundary

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"probegen/internal/decode"
	"probegen/internal/isa"
)

// Match is one prologue or epilogue hit.
type Match struct {
	Addr uint64
	Raw  uint64
	Kind isa.Kind
	Cond isa.Cond
	Text string
}

var (
	condAlt = isa.SuffixAlternation()

	// Width qualifiers (.w/.n) may trail any Thumb-2 mnemonic.
	reRet = regexp.MustCompile(`^ret(?:\.w|\.n)?$`)
	rePop = regexp.MustCompile(`^pop(` + condAlt + `)?(?:\.w|\.n)?$`)

	// Assemblers disagree on whether the condition precedes or follows
	// the addressing mode, so the mode is allowed on both sides.
	reLdm = regexp.MustCompile(`^ldm(?:ia|ib|da|db|fd|fa|ed|ea)?(` + condAlt + `)?(?:ia|ib|da|db|fd|fa|ed|ea)?(?:\.w|\.n)?$`)
	reStm = regexp.MustCompile(`^stm(?:ia|ib|da|db|fd|fa|ed|ea)?(` + condAlt + `)?(?:ia|ib|da|db|fd|fa|ed|ea)?(?:\.w|\.n)?$`)

	reBx   = regexp.MustCompile(`^bx(` + condAlt + `)?(?:\.w|\.n)?$`)
	reB    = regexp.MustCompile(`^b\.?(` + condAlt + `)?(?:\.w|\.n)?$`)
	rePush = regexp.MustCompile(`^push(` + condAlt + `)?(?:\.w|\.n)?$`)
)

func splitText(text string) (mnemonic, rest string) {
	if sp := strings.IndexByte(text, ' '); sp >= 0 {
		return text[:sp], text[sp+1:]
	}
	return text, ""
}

// listHas reports whether a {reg, ...} list in the operand text contains
// the named register.
func listHas(rest, reg string) bool {
	open := strings.IndexByte(rest, '{')
	close := strings.IndexByte(rest, '}')
	if open < 0 || close < open {
		return false
	}
	for _, tok := range strings.Split(rest[open+1:close], ", ") {
		if tok == reg {
			return true
		}
	}
	return false
}

func condOf(group string) isa.Cond {
	c, err := isa.ParseCond(group)
	if err != nil {
		return isa.Und
	}
	return c
}

// IsPrologue reports whether the instruction sets up a stack frame:
// a store-multiple to sp! whose list includes lr, or a push whose list
// includes lr or pc. The governing condition is returned alongside.
func IsPrologue(inst decode.Inst) (isa.Cond, bool) {
	mnem, rest := splitText(inst.Text)

	if m := rePush.FindStringSubmatch(mnem); m != nil {
		if listHas(rest, "lr") || listHas(rest, "pc") {
			return condOf(m[1]), true
		}
		return isa.Und, false
	}
	if m := reStm.FindStringSubmatch(mnem); m != nil {
		if strings.HasPrefix(rest, "sp!") && listHas(rest, "lr") {
			return condOf(m[1]), true
		}
	}
	return isa.Und, false
}

// IsExit classifies the instruction as a function exit for a function
// spanning [lo, hi). Patterns are tried in priority order: bare return,
// load-multiple from sp! into pc, pop into pc, bx lr, and finally an
// immediate branch whose target falls outside the span. A branch back
// into the body is ordinary control flow, not an exit.
func IsExit(inst decode.Inst, lo, hi uint64) (isa.Cond, bool) {
	mnem, rest := splitText(inst.Text)

	if reRet.MatchString(mnem) && rest == "" {
		return isa.AL, true
	}
	if m := reLdm.FindStringSubmatch(mnem); m != nil {
		if strings.HasPrefix(rest, "sp!") && listHas(rest, "pc") {
			return condOf(m[1]), true
		}
		return isa.Und, false
	}
	if m := rePop.FindStringSubmatch(mnem); m != nil {
		if listHas(rest, "pc") {
			return condOf(m[1]), true
		}
		return isa.Und, false
	}
	if m := reBx.FindStringSubmatch(mnem); m != nil {
		if rest == "lr" {
			return condOf(m[1]), true
		}
		return isa.Und, false
	}
	if m := reB.FindStringSubmatch(mnem); m != nil {
		target, err := parseTarget(rest)
		if err != nil {
			return isa.Und, false
		}
		if target < lo || target >= hi {
			return condOf(m[1]), true
		}
	}
	return isa.Und, false
}

func parseTarget(rest string) (uint64, error) {
	if !strings.HasPrefix(rest, "0x") {
		return 0, fmt.Errorf("boundary: operand %q is not an absolute target", rest)
	}
	return strconv.ParseUint(rest[2:], 16, 64)
}

// Prologues yields every frame-setup instruction in the span, ascending.
func Prologues(insts []decode.Inst) []Match {
	var out []Match
	for _, inst := range insts {
		if cond, ok := IsPrologue(inst); ok {
			out = append(out, Match{inst.Addr, inst.Raw, inst.Kind, cond, inst.Text})
		}
	}
	return out
}

// Epilogues yields every exit instruction for a function spanning
// [lo, hi), ascending. A function may have several exits; each one is an
// instrumentation point.
func Epilogues(insts []decode.Inst, lo, hi uint64) []Match {
	var out []Match
	for _, inst := range insts {
		if cond, ok := IsExit(inst, lo, hi); ok {
			out = append(out, Match{inst.Addr, inst.Raw, inst.Kind, cond, inst.Text})
		}
	}
	return out
}
