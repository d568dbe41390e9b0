package decode

import (
	"encoding/binary"
	"fmt"
	"strings"

	"probegen/internal/isa"
)

// thumbDecoder decodes Thumb instructions: the full 16-bit (T16) space at
// mnemonic level plus the 32-bit encodings that matter for boundary
// detection (BL, B.W, LDMIA.W/POP.W, STMDB/PUSH.W). golang.org/x/arch has
// no Thumb mode, so this decoder is local. Anything else 32-bit renders as
// a ".word" placeholder.
type thumbDecoder struct{}

// Thumb32 reports whether the halfword starts a 32-bit Thumb instruction
// (top five bits 0b11101, 0b11110 or 0b11111).
func Thumb32(hw uint16) bool {
	return hw&0xF800 == 0xE800 || hw&0xF000 == 0xF000
}

func (thumbDecoder) DecodeOne(b []byte, addr uint64) (uint64, string, int, error) {
	if len(b) < 2 {
		return 0, "", 0, ErrTruncated
	}
	hw1 := binary.LittleEndian.Uint16(b)
	if !Thumb32(hw1) {
		return uint64(hw1), thumb16Text(hw1, addr), 2, nil
	}
	if len(b) < 4 {
		return 0, "", 0, ErrTruncated
	}
	hw2 := binary.LittleEndian.Uint16(b[2:])
	raw := uint64(hw1)<<16 | uint64(hw2)
	return raw, thumb32Text(hw1, hw2, addr), 4, nil
}

var thumbRegNames = [...]string{"r0", "r1", "r2", "r3", "r4", "r5", "r6",
	"r7", "r8", "r9", "r10", "r11", "r12", "sp", "lr", "pc"}

func regName(n int) string { return thumbRegNames[n&0xF] }

func regListText(mask uint32) string {
	var names []string
	for i := 0; i < 16; i++ {
		if mask&(1<<i) != 0 {
			names = append(names, thumbRegNames[i])
		}
	}
	return "{" + strings.Join(names, ", ") + "}"
}

func signExtend(v uint32, bits int) int32 {
	shift := 32 - bits
	return int32(v<<shift) >> shift
}

var thumbALUOps = [...]string{"ands", "eors", "lsls", "lsrs", "asrs",
	"adcs", "sbcs", "rors", "tst", "negs", "cmp", "cmn", "orrs", "muls",
	"bics", "mvns"}

func thumb16Text(hw uint16, addr uint64) string {
	switch {
	case hw == 0xBF00:
		return "nop"

	// push {...} / pop {...}
	case hw&0xFE00 == 0xB400:
		list := uint32(hw & 0xFF)
		if hw&0x100 != 0 {
			list |= 1 << 14 // lr
		}
		return "push " + regListText(list)
	case hw&0xFE00 == 0xBC00:
		list := uint32(hw & 0xFF)
		if hw&0x100 != 0 {
			list |= 1 << 15 // pc
		}
		return "pop " + regListText(list)

	// bx / blx register
	case hw&0xFF00 == 0x4700:
		rm := int(hw>>3) & 0xF
		if hw&0x80 != 0 {
			return "blx " + regName(rm)
		}
		return "bx " + regName(rm)

	// svc
	case hw&0xFF00 == 0xDF00:
		return fmt.Sprintf("svc 0x%02x", hw&0xFF)

	// conditional branch (cond 14 is permanently undefined)
	case hw&0xF000 == 0xD000:
		cond := isa.Cond(hw >> 8 & 0xF)
		if cond == 14 {
			return fmt.Sprintf(".short 0x%04x", hw)
		}
		target := uint64(int64(addr) + 4 + int64(signExtend(uint32(hw&0xFF), 8))*2)
		return fmt.Sprintf("b%s 0x%x", cond, target)

	// unconditional branch
	case hw&0xF800 == 0xE000:
		target := uint64(int64(addr) + 4 + int64(signExtend(uint32(hw&0x7FF), 11))*2)
		return fmt.Sprintf("b 0x%x", target)

	// ldmia / stmia
	case hw&0xF800 == 0xC800:
		return fmt.Sprintf("ldmia %s!, %s", regName(int(hw>>8)&7), regListText(uint32(hw&0xFF)))
	case hw&0xF800 == 0xC000:
		return fmt.Sprintf("stmia %s!, %s", regName(int(hw>>8)&7), regListText(uint32(hw&0xFF)))

	// add/sub sp, #imm
	case hw&0xFF80 == 0xB000:
		return fmt.Sprintf("add sp, #%d", (hw&0x7F)<<2)
	case hw&0xFF80 == 0xB080:
		return fmt.Sprintf("sub sp, #%d", (hw&0x7F)<<2)

	// sp/pc-relative address generation
	case hw&0xF800 == 0xA000:
		return fmt.Sprintf("add %s, pc, #%d", regName(int(hw>>8)&7), (hw&0xFF)<<2)
	case hw&0xF800 == 0xA800:
		return fmt.Sprintf("add %s, sp, #%d", regName(int(hw>>8)&7), (hw&0xFF)<<2)

	// pc-relative load
	case hw&0xF800 == 0x4800:
		return fmt.Sprintf("ldr %s, [pc, #%d]", regName(int(hw>>8)&7), (hw&0xFF)<<2)

	// sp-relative load/store
	case hw&0xF800 == 0x9000:
		return fmt.Sprintf("str %s, [sp, #%d]", regName(int(hw>>8)&7), (hw&0xFF)<<2)
	case hw&0xF800 == 0x9800:
		return fmt.Sprintf("ldr %s, [sp, #%d]", regName(int(hw>>8)&7), (hw&0xFF)<<2)

	// alu operations (register)
	case hw&0xFC00 == 0x4000:
		op := thumbALUOps[(hw>>6)&0xF]
		return fmt.Sprintf("%s %s, %s", op, regName(int(hw)&7), regName(int(hw>>3)&7))

	// hi register add/cmp/mov
	case hw&0xFC00 == 0x4400:
		rd := int(hw)&7 | int(hw>>4)&8
		rm := int(hw>>3) & 0xF
		switch hw >> 8 & 3 {
		case 0:
			return fmt.Sprintf("add %s, %s", regName(rd), regName(rm))
		case 1:
			return fmt.Sprintf("cmp %s, %s", regName(rd), regName(rm))
		case 2:
			return fmt.Sprintf("mov %s, %s", regName(rd), regName(rm))
		}

	// add/sub register or 3-bit immediate
	case hw&0xF800 == 0x1800:
		op := "adds"
		if hw&0x200 != 0 {
			op = "subs"
		}
		rd, rn := regName(int(hw)&7), regName(int(hw>>3)&7)
		if hw&0x400 != 0 {
			return fmt.Sprintf("%s %s, %s, #%d", op, rd, rn, hw>>6&7)
		}
		return fmt.Sprintf("%s %s, %s, %s", op, rd, rn, regName(int(hw>>6)&7))

	// shift by immediate
	case hw&0xE000 == 0x0000:
		ops := [...]string{"lsls", "lsrs", "asrs"}
		return fmt.Sprintf("%s %s, %s, #%d", ops[hw>>11&3],
			regName(int(hw)&7), regName(int(hw>>3)&7), hw>>6&0x1F)

	// mov/cmp/add/sub 8-bit immediate
	case hw&0xE000 == 0x2000:
		ops := [...]string{"movs", "cmp", "adds", "subs"}
		return fmt.Sprintf("%s %s, #%d", ops[hw>>11&3], regName(int(hw>>8)&7), hw&0xFF)

	// word/byte load/store with immediate or register offset
	case hw&0xE000 == 0x6000:
		ops := [...]string{"str", "ldr", "strb", "ldrb"}
		op := ops[hw>>11&3]
		scale := 2
		if hw&0x1000 != 0 {
			scale = 0
		}
		return fmt.Sprintf("%s %s, [%s, #%d]", op,
			regName(int(hw)&7), regName(int(hw>>3)&7), (hw>>6&0x1F)<<scale)
	case hw&0xF000 == 0x5000:
		ops := [...]string{"str", "strh", "strb", "ldrsb", "ldr", "ldrh", "ldrb", "ldrsh"}
		return fmt.Sprintf("%s %s, [%s, %s]", ops[hw>>9&7],
			regName(int(hw)&7), regName(int(hw>>3)&7), regName(int(hw>>6)&7))

	// halfword load/store
	case hw&0xF000 == 0x8000:
		op := "strh"
		if hw&0x800 != 0 {
			op = "ldrh"
		}
		return fmt.Sprintf("%s %s, [%s, #%d]", op,
			regName(int(hw)&7), regName(int(hw>>3)&7), (hw>>6&0x1F)<<1)
	}
	return fmt.Sprintf(".short 0x%04x", hw)
}

func thumb32Text(hw1, hw2 uint16, addr uint64) string {
	// 32-bit branches: 11110 S ... ; hw2 top bits select the form.
	if hw1&0xF800 == 0xF000 {
		s := uint32(hw1>>10) & 1
		j1 := uint32(hw2>>13) & 1
		j2 := uint32(hw2>>11) & 1
		imm11 := uint32(hw2) & 0x7FF

		switch {
		case hw2&0xD000 == 0xD000: // BL
			target := thumbBranch25(addr, s, j1, j2, uint32(hw1)&0x3FF, imm11)
			return fmt.Sprintf("bl 0x%x", target)
		case hw2&0xD000 == 0xC000: // BLX (target is ARM, word-aligned)
			target := thumbBranch25(addr, s, j1, j2, uint32(hw1)&0x3FF, imm11) &^ 3
			return fmt.Sprintf("blx 0x%x", target)
		case hw2&0xD000 == 0x9000: // B.W (T4)
			target := thumbBranch25(addr, s, j1, j2, uint32(hw1)&0x3FF, imm11)
			return fmt.Sprintf("b.w 0x%x", target)
		case hw2&0xD000 == 0x8000: // B<cond>.W (T3)
			cond := isa.Cond(hw1 >> 6 & 0xF)
			if cond < 14 {
				imm := s<<20 | j2<<19 | j1<<18 | uint32(hw1&0x3F)<<12 | imm11<<1
				target := uint64(int64(addr) + 4 + int64(signExtend(imm, 21)))
				return fmt.Sprintf("b%s.w 0x%x", cond, target)
			}
		}
	}

	// LDMIA.W / POP.W
	if hw1&0xFFD0 == 0xE890 {
		rn := int(hw1) & 0xF
		wback := hw1&0x20 != 0
		list := regListText(uint32(hw2))
		if rn == 13 && wback {
			return "pop.w " + list
		}
		if wback {
			return fmt.Sprintf("ldmia.w %s!, %s", regName(rn), list)
		}
		return fmt.Sprintf("ldmia.w %s, %s", regName(rn), list)
	}

	// STMDB / PUSH.W
	if hw1&0xFFD0 == 0xE900 {
		rn := int(hw1) & 0xF
		wback := hw1&0x20 != 0
		list := regListText(uint32(hw2))
		if rn == 13 && wback {
			return "push.w " + list
		}
		if wback {
			return fmt.Sprintf("stmdb %s!, %s", regName(rn), list)
		}
		return fmt.Sprintf("stmdb %s, %s", regName(rn), list)
	}

	return wordText(uint32(hw1)<<16 | uint32(hw2))
}

// thumbBranch25 computes the target of a 25-bit Thumb-2 branch
// (S:I1:I2:imm10:imm11:0 with I1 = ^(J1^S), I2 = ^(J2^S)).
func thumbBranch25(addr uint64, s, j1, j2, imm10, imm11 uint32) uint64 {
	i1 := ^(j1 ^ s) & 1
	i2 := ^(j2 ^ s) & 1
	imm := s<<24 | i1<<23 | i2<<22 | imm10<<12 | imm11<<1
	return uint64(int64(addr) + 4 + int64(signExtend(imm, 25)))
}
