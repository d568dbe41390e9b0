package gen

import (
	"fmt"
	"strings"

	log "github.com/sirupsen/logrus"

	"probegen/internal/boundary"
	"probegen/internal/handler"
	"probegen/internal/isa"
	"probegen/internal/symgroup"
)

func traceCall(format string, args []string) string {
	return fmt.Sprintf("trace_write(\"%s\\n\", %s);", format, strings.Join(args, ", "))
}

// signature synthesizes the human-readable begin text: the name list
// and, for DWARF functions, a parenthesized argument list. Anonymous
// parameters render as <unused>, inaccessible ones as <optimized-out>.
func (g *Generator) signature(grp symgroup.Group) (string, []string) {
	nameList := strings.Join(grp.Names(), ", ")
	fn := grp.Function()
	if fn == nil {
		return nameList, nil
	}
	var frags, args []string
	for _, p := range fn.Params {
		if p.Name == "" {
			frags = append(frags, "<unused>")
			continue
		}
		if !p.AccessibleAt(fn.Lo) {
			frags = append(frags, p.Name+"=<optimized-out>")
			continue
		}
		f, ax, err := p.TraceFragment(fmt.Sprintf("adbi_get_var(\"%s\")", p.Name))
		if err != nil {
			frags = append(frags, p.Name+"=<?>")
			continue
		}
		frags = append(frags, p.Name+"="+f)
		args = append(args, ax...)
	}
	return fmt.Sprintf("%s (%s)", nameList, strings.Join(frags, ", ")), args
}

func (g *Generator) systraceEnd(m boundary.Match, names []string, comment []string, meta string) *handler.Handler {
	nameList := strings.Join(names, ", ")
	body := []string{traceCall(
		fmt.Sprintf("E|%%d|%x %s 0x%%x", m.Addr, nameList),
		[]string{"get_pid()", "get_reg(0)"})}
	if c := g.disasmComment(m.Addr); c != nil {
		comment = append(comment, c...)
	}
	return handler.New(g.location(m.Addr, nil), names, body, comment, m.Cond, false, meta)
}

// systraceFns emits one B| begin handler per function and one E| end
// handler per detected epilogue. Special cases, in order: an exit at
// the entry address merges into the begin handler; an overlapping group
// without epilogues gets a synthetic end at the last decoded
// instruction; a group with neither is logged and emitted suppressed.
func (g *Generator) systraceFns() error {
	for _, grp := range g.groups() {
		nameList := strings.Join(grp.Names(), ", ")
		sig, sigArgs := g.signature(grp)
		begin := handler.New(
			g.location(grp.Addr, grp.Names()), grp.Names(),
			[]string{traceCall("B|%d|"+sig, append([]string{"get_pid()"}, sigArgs...))},
			g.disasmComment(grp.Addr), isa.AL, false, "")

		insts, err := g.scan(grp.Addr, grp.End)
		if err != nil {
			log.Warnf("gen: scan %s at 0x%08x: %v", nameList, grp.Addr, err)
		}

		// The truncated span end gates "branch exits the function".
		epis := boundary.Epilogues(insts, grp.Addr, grp.End)
		if grp.Overlapping && len(epis) > 0 {
			log.Debugf("gen: %s exits gated by truncated span end 0x%08x", nameList, grp.End)
		}

		var endComment []string
		if len(epis) == 0 && grp.Overlapping && len(insts) > 0 {
			last := insts[len(insts)-1]
			epis = []boundary.Match{{Addr: last.Addr, Raw: last.Raw, Kind: last.Kind, Cond: isa.AL, Text: last.Text}}
			endComment = []string{"overlapping"}
		}

		if len(epis) == 0 {
			log.Warnf("gen: no epilogue found for %s at 0x%08x, suppressing begin handler", nameList, grp.Addr)
			begin.Suppressed = true
			g.emit(begin)
			continue
		}

		emittedBegin := false
		for _, e := range epis {
			end := g.systraceEnd(e, grp.Names(), endComment, "")
			if !emittedBegin && end.Location == begin.Location {
				merged, merr := handler.Merge(begin, end)
				if merr != nil {
					return fmt.Errorf("gen: %w", merr)
				}
				g.emit(merged)
				emittedBegin = true
				continue
			}
			if !emittedBegin {
				g.emit(begin)
				emittedBegin = true
			}
			g.emit(end)
		}
	}
	return nil
}

// openTrack is one still-open tracked-instruction scope: the hit's
// condition and the address right after it, where the end marker lands.
type openTrack struct {
	cond isa.Cond
	next uint64
}

// systraceInsn tracks instruction hits as begin/end scopes. Each hit
// opens a begin marker; the scope's end lands on the following
// instruction. Back-to-back hits merge the pending end into the next
// begin; the first non-matching instruction flushes every open handler
// in FIFO order.
func (g *Generator) systraceInsn() error {
	re := trackRegexp(g.opts.TrackInsn)
	for _, grp := range g.groups() {
		insts, err := g.scan(grp.Addr, grp.End)
		if err != nil {
			log.Warnf("gen: scan %s at 0x%08x: %v", strings.Join(grp.Names(), ", "), grp.Addr, err)
		}
		nameList := strings.Join(grp.Names(), " ")

		var open []*handler.Handler
		var pending *openTrack
		flush := func() {
			for _, h := range open {
				g.emit(h)
			}
			open = open[:0]
		}

		insnEnd := func(addr uint64, tr *openTrack) *handler.Handler {
			body := []string{traceCall(
				fmt.Sprintf("E|%%d|%x %s %s", addr, g.opts.TrackInsn, nameList),
				[]string{"get_pid()"})}
			return handler.New(g.location(addr, nil), grp.Names(), body, nil, tr.cond, false, "")
		}

		for _, inst := range insts {
			m := re.FindStringSubmatch(inst.Mnemonic())

			var end *handler.Handler
			if pending != nil {
				end = insnEnd(inst.Addr, pending)
				pending = nil
			}

			if m == nil {
				if end != nil {
					open = append(open, end)
				}
				flush()
				continue
			}

			begin := handler.New(
				g.location(inst.Addr, nil), grp.Names(),
				[]string{traceCall("B|%d|"+g.opts.TrackInsn+" "+nameList, []string{"get_pid()"})},
				g.disasmComment(inst.Addr), condFrom(m[1]), false, "")
			if end != nil {
				merged, merr := handler.Merge(end, begin)
				if merr != nil {
					return fmt.Errorf("gen: %w", merr)
				}
				begin = merged
			}
			open = append(open, begin)
			pending = &openTrack{cond: condFrom(m[1]), next: inst.Addr + uint64(inst.Size)}
		}

		if pending != nil {
			open = append(open, insnEnd(pending.next, pending))
		}
		flush()
	}
	return nil
}
