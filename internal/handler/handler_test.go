package handler

import (
	"strings"
	"testing"

	"probegen/internal/isa"
)

func TestConditionalWrapping(t *testing.T) {
	h := New("*0x00001000", nil, []string{"X;"}, nil, isa.NE, false, "")
	want := []string{
		"if (cpsr_is_ne(get_cpsr())) {",
		"    X;",
		"}",
	}
	if len(h.Body) != len(want) {
		t.Fatalf("body = %q", h.Body)
	}
	for i := range want {
		if h.Body[i] != want[i] {
			t.Errorf("body[%d] = %q, want %q", i, h.Body[i], want[i])
		}
	}
}

func TestTrivialGuardUnchanged(t *testing.T) {
	for _, cond := range []isa.Cond{isa.AL, isa.Und} {
		h := New("*0x00001000", nil, []string{"X;"}, nil, cond, false, "")
		if len(h.Body) != 1 || h.Body[0] != "X;" {
			t.Errorf("guard %v: body = %q, want [X;]", cond, h.Body)
		}
	}
}

func TestMergeSameLocation(t *testing.T) {
	a := New("*0x00001000", []string{"f"}, []string{"A;"}, nil, isa.AL, false, "begin")
	b := New("*0x00001000", []string{"g", "f"}, []string{"B;"}, []string{"end of f"}, isa.AL, false, "end")

	m, err := Merge(a, b)
	if err != nil {
		t.Fatal(err)
	}
	wantBody := []string{"A;", "", "/* end of f */", "B;"}
	if len(m.Body) != len(wantBody) {
		t.Fatalf("merged body = %q", m.Body)
	}
	for i := range wantBody {
		if m.Body[i] != wantBody[i] {
			t.Errorf("body[%d] = %q, want %q", i, m.Body[i], wantBody[i])
		}
	}
	if len(m.Names) != 2 || m.Names[0] != "f" || m.Names[1] != "g" {
		t.Errorf("names = %v", m.Names)
	}
	if len(m.Meta) != 2 {
		t.Errorf("meta = %v", m.Meta)
	}
}

func TestMergeLocationMismatch(t *testing.T) {
	a := New("*0x00001000", nil, []string{"A;"}, nil, isa.AL, false, "")
	c := New("*0x00002000", nil, []string{"C;"}, nil, isa.AL, false, "")
	if _, err := Merge(a, c); err == nil {
		t.Fatal("merge across locations must fail")
	}
}

func TestMergeSuppressionORs(t *testing.T) {
	a := New("*0x00001000", nil, []string{"A;"}, nil, isa.AL, false, "")
	b := New("*0x00001000", nil, []string{"B;"}, nil, isa.AL, true, "")
	m, err := Merge(a, b)
	if err != nil {
		t.Fatal(err)
	}
	if !m.Suppressed {
		t.Error("suppression must OR across merge")
	}
}

func TestRender(t *testing.T) {
	h := New("*0x00001000", nil, []string{"X;"}, []string{"probe f"}, isa.AL, false, "")
	got := h.Render()
	want := "/* probe f */\n#handler *0x00001000\nX;\n#endhandler\n"
	if got != want {
		t.Errorf("render = %q, want %q", got, want)
	}
}

func TestRenderSuppressed(t *testing.T) {
	h := New("*0x00001000", nil, []string{"X;"}, nil, isa.AL, true, "")
	got := h.Render()
	for _, line := range strings.Split(strings.TrimRight(got, "\n"), "\n") {
		if !strings.HasPrefix(line, "//") {
			t.Errorf("suppressed line %q not commented out", line)
		}
	}
	if !strings.Contains(got, "#handler *0x00001000") {
		t.Errorf("suppressed render lost the marker: %q", got)
	}
}
