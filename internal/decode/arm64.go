package decode

import (
	"encoding/binary"
	"fmt"
	"strings"

	"golang.org/x/arch/arm64/arm64asm"
)

// arm64Decoder decodes fixed-width 4-byte A64 instructions using
// golang.org/x/arch.
type arm64Decoder struct{}

func (arm64Decoder) DecodeOne(b []byte, addr uint64) (uint64, string, int, error) {
	if len(b) < 4 {
		return 0, "", 0, ErrTruncated
	}
	raw := binary.LittleEndian.Uint32(b)
	inst, err := arm64asm.Decode(b[:4])
	if err != nil {
		return uint64(raw), wordText(raw), 4, nil
	}
	return uint64(raw), arm64Text(inst, addr), 4, nil
}

// arm64Text renders GNU syntax with immediate branches resolved to
// absolute targets (A64 PC-relative offsets are relative to the
// instruction itself).
func arm64Text(inst arm64asm.Inst, addr uint64) string {
	switch inst.Op {
	case arm64asm.B:
		// Unconditional: [PCRel]. Conditional: [Cond, PCRel].
		if rel, ok := inst.Args[0].(arm64asm.PCRel); ok {
			return fmt.Sprintf("b 0x%x", uint64(int64(addr)+int64(rel)))
		}
		if cond, ok := inst.Args[0].(arm64asm.Cond); ok {
			if rel, ok := inst.Args[1].(arm64asm.PCRel); ok {
				return fmt.Sprintf("b.%s 0x%x",
					strings.ToLower(cond.String()), uint64(int64(addr)+int64(rel)))
			}
		}
	case arm64asm.BL:
		if rel, ok := inst.Args[0].(arm64asm.PCRel); ok {
			return fmt.Sprintf("bl 0x%x", uint64(int64(addr)+int64(rel)))
		}
	}
	return normalize(strings.ToLower(arm64asm.GNUSyntax(inst)))
}
