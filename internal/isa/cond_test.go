package isa

import "testing"

func TestParseCond(t *testing.T) {
	cases := []struct {
		in   string
		want Cond
	}{
		{"", AL},
		{"eq", EQ},
		{"ne", NE},
		{"hs", CS},
		{"lo", CC},
		{"al", AL},
		{"und", Und},
		{"le", LE},
	}
	for _, tc := range cases {
		got, err := ParseCond(tc.in)
		if err != nil {
			t.Errorf("ParseCond(%q): %v", tc.in, err)
			continue
		}
		if got != tc.want {
			t.Errorf("ParseCond(%q) = %v, want %v", tc.in, got, tc.want)
		}
	}
}

func TestParseCondUnknown(t *testing.T) {
	if _, err := ParseCond("xx"); err == nil {
		t.Fatal("expected error for unknown condition")
	}
}

func TestCondTrivial(t *testing.T) {
	if !AL.Trivial() || !Und.Trivial() {
		t.Error("al/und must be trivial")
	}
	if NE.Trivial() {
		t.Error("ne must not be trivial")
	}
}

func TestCondTestExpr(t *testing.T) {
	if got := NE.TestExpr(); got != "cpsr_is_ne(get_cpsr())" {
		t.Errorf("TestExpr = %q", got)
	}
}

func TestKindMinUnit(t *testing.T) {
	if Thumb.MinUnit() != 2 {
		t.Error("thumb min unit must be 2")
	}
	if ARM.MinUnit() != 4 || ARM64.MinUnit() != 4 || None.MinUnit() != 4 {
		t.Error("fixed-width kinds must be 4")
	}
}
