package decode

import "testing"

func TestThumb32Predicate(t *testing.T) {
	cases := []struct {
		hw   uint16
		wide bool
	}{
		{0xB510, false}, // push {r4, lr}
		{0x4770, false}, // bx lr
		{0xE000, false}, // b (16-bit)
		{0xE800, true},
		{0xF000, true}, // bl prefix
		{0xF800, true},
		{0xE92D, true}, // push.w prefix
	}
	for _, tc := range cases {
		if got := Thumb32(tc.hw); got != tc.wide {
			t.Errorf("Thumb32(%#04x) = %v, want %v", tc.hw, got, tc.wide)
		}
	}
}

func TestThumb16Text(t *testing.T) {
	cases := []struct {
		hw   uint16
		addr uint64
		want string
	}{
		{0xB510, 0, "push {r4, lr}"},
		{0xB500, 0, "push {lr}"},
		{0xBD10, 0, "pop {r4, pc}"},
		{0x4770, 0, "bx lr"},
		{0x4798, 0, "blx r3"},
		{0xDF00, 0, "svc 0x00"},
		{0xBF00, 0, "nop"},
		{0xD0FE, 0x100, "beq 0x100"}, // branch to self
		{0xD1FC, 0x100, "bne 0xfc"},  // backwards
		{0xE7FE, 0x200, "b 0x200"},   // branch to self
		{0x2A05, 0, "cmp r2, #5"},
		{0x2107, 0, "movs r1, #7"},
		{0x4448, 0, "add r0, r9"},
		{0x9801, 0, "ldr r0, [sp, #4]"},
		{0xC8F0, 0, "ldmia r0!, {r4, r5, r6, r7}"},
	}
	for _, tc := range cases {
		if got := thumb16Text(tc.hw, tc.addr); got != tc.want {
			t.Errorf("thumb16Text(%#04x) = %q, want %q", tc.hw, got, tc.want)
		}
	}
}

func TestThumb32Text(t *testing.T) {
	cases := []struct {
		hw1, hw2 uint16
		addr     uint64
		want     string
	}{
		{0xF000, 0xF804, 0x200, "bl 0x20c"},
		{0xE8BD, 0x8010, 0, "pop.w {r4, pc}"},
		{0xE92D, 0x4010, 0, "push.w {r4, lr}"},
		{0xE8B0, 0x00F0, 0, "ldmia.w r0!, {r4, r5, r6, r7}"},
	}
	for _, tc := range cases {
		if got := thumb32Text(tc.hw1, tc.hw2, tc.addr); got != tc.want {
			t.Errorf("thumb32Text(%#04x,%#04x) = %q, want %q", tc.hw1, tc.hw2, got, tc.want)
		}
	}
}
