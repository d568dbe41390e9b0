package decode

import (
	"encoding/binary"
	"fmt"
	"strings"

	"golang.org/x/arch/arm/armasm"
)

// armDecoder decodes fixed-width 4-byte ARM (A32) instructions using
// golang.org/x/arch. Branch targets are rendered as absolute hex so the
// epilogue matcher can gate on them.
type armDecoder struct{}

func (armDecoder) DecodeOne(b []byte, addr uint64) (uint64, string, int, error) {
	if len(b) < 4 {
		return 0, "", 0, ErrTruncated
	}
	raw := binary.LittleEndian.Uint32(b)
	inst, err := armasm.Decode(b[:4], armasm.ModeARM)
	if err != nil {
		return uint64(raw), wordText(raw), 4, nil
	}
	return uint64(raw), armText(inst, addr), 4, nil
}

// armText renders GNU syntax, except that PC-relative operands are
// resolved to absolute addresses (ARM reads PC as instruction + 8).
func armText(inst armasm.Inst, addr uint64) string {
	for _, a := range inst.Args {
		if a == nil {
			break
		}
		if rel, ok := a.(armasm.PCRel); ok {
			op := strings.ReplaceAll(strings.ToLower(inst.Op.String()), ".", "")
			target := uint64(int64(addr) + 8 + int64(rel))
			return fmt.Sprintf("%s 0x%x", op, target)
		}
	}
	return normalize(strings.ToLower(armasm.GNUSyntax(inst)))
}
