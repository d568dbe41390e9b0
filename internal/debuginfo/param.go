package debuginfo

import (
	"debug/dwarf"
	"fmt"
)

// Param is one formal parameter of a DWARF function, in declaration
// order. Name may be empty (anonymous parameter) and Type may be nil when
// the type DIE was unreadable.
type Param struct {
	Name string
	Type dwarf.Type
	loc  []byte // single DWARF location expression, nil if unrecoverable
}

// NewParam constructs a parameter with a single-location expression.
// Synthetic providers use this; DWARF loading fills the same fields
// directly.
func NewParam(name string, typ dwarf.Type, loc []byte) *Param {
	return &Param{Name: name, Type: typ, loc: loc}
}

// AccessibleAt reports whether the parameter's value can be fetched at
// the given PC. A single location expression is valid across the whole
// function; parameters described only by a location list resolve to
// "inaccessible" and degrade to a placeholder in the output.
func (p *Param) AccessibleAt(pc uint64) bool {
	_ = pc
	return p.loc != nil && p.Type != nil
}

// stripType unwraps typedefs and qualifiers to the underlying type.
func stripType(t dwarf.Type) dwarf.Type {
	for {
		switch tt := t.(type) {
		case *dwarf.TypedefType:
			t = tt.Type
		case *dwarf.QualType:
			t = tt.Type
		default:
			return t
		}
	}
}

// PrintfFragment returns a format fragment and argument expressions for
// the diagnostic print template. expr is the C expression holding the
// parameter's value. Unsupported types return an error; the caller emits
// the line as an inert comment instead of failing the function.
func (p *Param) PrintfFragment(expr string) (string, []string, error) {
	return p.fragment(expr, false)
}

// TraceFragment is the systrace-safe flavor: it never dereferences, so
// character pointers print as plain pointers.
func (p *Param) TraceFragment(expr string) (string, []string, error) {
	return p.fragment(expr, true)
}

func (p *Param) fragment(expr string, traceSafe bool) (string, []string, error) {
	if p.Type == nil {
		return "", nil, fmt.Errorf("debuginfo: parameter %q has no type information", p.Name)
	}
	switch t := stripType(p.Type).(type) {
	case *dwarf.PtrType:
		if !traceSafe {
			if _, ok := stripType(t.Type).(*dwarf.CharType); ok {
				return "\\\"%s\\\"", []string{"(const char *) " + expr}, nil
			}
		}
		return "%p", []string{"(void *) " + expr}, nil
	case *dwarf.IntType:
		if t.ByteSize > 4 {
			return "%lld", []string{"(long long) " + expr}, nil
		}
		return "%d", []string{"(int) " + expr}, nil
	case *dwarf.UintType:
		if t.ByteSize > 4 {
			return "%llu", []string{"(unsigned long long) " + expr}, nil
		}
		return "%u", []string{"(unsigned int) " + expr}, nil
	case *dwarf.CharType:
		if traceSafe {
			return "%d", []string{"(int) " + expr}, nil
		}
		return "'%c'", []string{"(char) " + expr}, nil
	case *dwarf.UcharType:
		return "%u", []string{"(unsigned int) " + expr}, nil
	case *dwarf.BoolType:
		return "%d", []string{"(int) " + expr}, nil
	case *dwarf.EnumType:
		return "%d", []string{"(int) " + expr}, nil
	case *dwarf.FloatType:
		return "%f", []string{"(double) " + expr}, nil
	default:
		return "", nil, fmt.Errorf("debuginfo: parameter %q: unsupported type %s", p.Name, t.String())
	}
}
