// Package handler models one instrumentation probe: a located, optionally
// conditional, optionally suppressed code fragment. It is pure text and
// structure assembly; it knows nothing about disassembly or addresses
// beyond the opaque location string.
package handler

import (
	"fmt"
	"sort"
	"strings"

	"probegen/internal/isa"
)

// Handler is one probe unit. Body already has the guard applied: New
// wraps the body in a condition test when the guard is a real condition.
type Handler struct {
	Location   string
	Names      []string // sorted set of associated symbol names
	Body       []string
	Comment    []string
	Guard      isa.Cond
	Suppressed bool
	Meta       []string // diagnostic provenance, not behavior
}

const indent = "    "

// New constructs a handler. If cond is a real condition (not al/und), the
// body is wrapped as
//
//	if (cpsr_is_<cond>(get_cpsr())) {
//	    <body>
//	}
//
// at construction time; rendering never re-applies the guard.
func New(location string, names []string, body, comment []string, cond isa.Cond, suppressed bool, meta string) *Handler {
	h := &Handler{
		Location:   location,
		Names:      nameSet(names),
		Body:       body,
		Comment:    comment,
		Guard:      cond,
		Suppressed: suppressed,
	}
	if meta != "" {
		h.Meta = []string{meta}
	}
	if !cond.Trivial() {
		wrapped := make([]string, 0, len(body)+2)
		wrapped = append(wrapped, fmt.Sprintf("if (%s) {", cond.TestExpr()))
		for _, line := range body {
			wrapped = append(wrapped, indent+line)
		}
		wrapped = append(wrapped, "}")
		h.Body = wrapped
	}
	return h
}

func nameSet(names []string) []string {
	seen := make(map[string]bool, len(names))
	var out []string
	for _, n := range names {
		if n == "" || seen[n] {
			continue
		}
		seen[n] = true
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

// Merge combines two handlers at the same location: a's body, a blank
// separator, b's leading comment, then b's body. Names become the set
// union and suppression ORs. Merging handlers with different locations is
// a configuration error.
func Merge(a, b *Handler) (*Handler, error) {
	if a.Location != b.Location {
		return nil, fmt.Errorf("handler: cannot merge handlers at %s and %s", a.Location, b.Location)
	}
	body := make([]string, 0, len(a.Body)+len(b.Body)+len(b.Comment)+1)
	body = append(body, a.Body...)
	body = append(body, "")
	for _, c := range b.Comment {
		body = append(body, "/* "+c+" */")
	}
	body = append(body, b.Body...)

	return &Handler{
		Location:   a.Location,
		Names:      nameSet(append(append([]string{}, a.Names...), b.Names...)),
		Body:       body,
		Comment:    a.Comment,
		Guard:      a.Guard,
		Suppressed: a.Suppressed || b.Suppressed,
		Meta:       append(append([]string{}, a.Meta...), b.Meta...),
	}, nil
}

// Render produces the final text block. A suppressed handler is emitted
// with every line commented out, so the gap stays visible but inert.
func (h *Handler) Render() string {
	var b strings.Builder
	line := func(s string) {
		switch {
		case h.Suppressed && s == "":
			b.WriteString("//")
		case h.Suppressed:
			b.WriteString("// " + s)
		default:
			b.WriteString(s)
		}
		b.WriteByte('\n')
	}
	for _, c := range h.Comment {
		line("/* " + c + " */")
	}
	line("#handler " + h.Location)
	for _, l := range h.Body {
		line(l)
	}
	line("#endhandler")
	return b.String()
}
