// Package gen renders instrumentation probe scripts: a fixed preamble
// (binary identity, host declarations, lifecycle hooks) followed by
// #handler blocks in ascending address order. Two templates are
// supported: direct diagnostic printing (adbi_printf) and systrace
// begin/end markers (trace_write).
package gen

import (
	"fmt"
	"io"
	"regexp"
	"strings"

	"probegen/internal/debuginfo"
	"probegen/internal/decode"
	"probegen/internal/elfx"
	"probegen/internal/handler"
	"probegen/internal/isa"
	"probegen/internal/symgroup"
)

// Template names, matching the --template flag values.
const (
	TemplatePrintf   = "adbi_printf"
	TemplateSystrace = "systrace"
)

// Source is the view of one loaded binary the generators consume.
// *debuginfo.Provider satisfies it.
type Source interface {
	Binary() string
	Functions() []*debuginfo.Function
	Symbols() []*debuginfo.Symbol
	KindAt(addr uint64) isa.Kind
	ExecSections() []elfx.Section
	VAToFileOffset(va uint64) (uint64, error)
	ReadAt(p []byte, off int64) (int, error)
}

// Options selects template and output shaping for one generation pass.
type Options struct {
	Template    string
	UseNames    bool // symbolic handler locations instead of addresses
	TrackInsn   string
	Disassemble bool // embed per-instruction disassembly comments
	Filter      *symgroup.NameFilter

	// BinaryPath overrides the #binary identity line; it differs from
	// Source.Binary() when the file was resolved through a sysroot.
	BinaryPath string
}

// Generator drives one pass over the binary. Output goes to w as it is
// produced; the pass degrades on recoverable problems instead of
// aborting.
type Generator struct {
	src  Source
	reg  *decode.Registry
	opts Options
	w    io.Writer
}

// New constructs a generator. Zero-value options default to the
// adbi_printf template tracking supervisor calls.
func New(src Source, reg *decode.Registry, opts Options, w io.Writer) *Generator {
	if opts.Template == "" {
		opts.Template = TemplatePrintf
	}
	if opts.TrackInsn == "" {
		opts.TrackInsn = "svc"
	}
	return &Generator{src: src, reg: reg, opts: opts, w: w}
}

var printfDecls = []string{
	"extern void adbi_printf(const char * format, ...);",
	"extern unsigned int get_cpsr(void);",
	"extern unsigned long get_reg(int reg);",
	"extern unsigned long adbi_get_var(const char * name);",
}

var systraceDecls = []string{
	"extern void adbi_printf(const char * format, ...);",
	"extern unsigned int get_cpsr(void);",
	"extern unsigned long get_reg(int reg);",
	"extern unsigned long adbi_get_var(const char * name);",
	"extern int get_pid(void);",
	"extern void trace_write(const char * format, ...);",
}

// Fns emits function entry/exit probes per the selected template.
func (g *Generator) Fns() error {
	g.preamble()
	if g.opts.Template == TemplateSystrace {
		return g.systraceFns()
	}
	return g.printfFns()
}

// Insn emits probes for every tracked-instruction hit per the selected
// template.
func (g *Generator) Insn() error {
	g.preamble()
	if g.opts.Template == TemplateSystrace {
		return g.systraceInsn()
	}
	return g.printfInsn()
}

func (g *Generator) preamble() {
	fmt.Fprintf(g.w, "#binary %s\n\n", g.binaryIdentity())

	decls := printfDecls
	if g.opts.Template == TemplateSystrace {
		decls = systraceDecls
	}
	for _, d := range decls {
		fmt.Fprintln(g.w, d)
	}
	fmt.Fprintln(g.w)

	for _, hook := range []string{"INIT", "NEW_PROCESS", "EXIT"} {
		g.emit(handler.New(hook, nil, nil, nil, isa.AL, false, ""))
	}
}

func (g *Generator) binaryIdentity() string {
	if g.opts.BinaryPath != "" {
		return g.opts.BinaryPath
	}
	return g.src.Binary()
}

func (g *Generator) emit(h *handler.Handler) {
	io.WriteString(g.w, h.Render())
	io.WriteString(g.w, "\n")
}

func (g *Generator) groups() []symgroup.Group {
	return symgroup.Build(g.src.Functions(), g.src.Symbols(), g.opts.Filter)
}

// location renders a handler location: a bare symbol name under
// --use-function-names, otherwise *0x<addr>. Thumb addresses carry the
// interworking marker in bit 0 so the injector resolves the right ISA.
func (g *Generator) location(addr uint64, names []string) string {
	if g.opts.UseNames && len(names) > 0 {
		return names[0]
	}
	if g.src.KindAt(addr) == isa.Thumb {
		addr |= 1
	}
	return fmt.Sprintf("*0x%08x", addr)
}

// scan decodes [lo, hi). On error the instructions decoded so far are
// still returned, so callers can degrade to partial output.
func (g *Generator) scan(lo, hi uint64) ([]decode.Inst, error) {
	lo &^= 1
	if hi <= lo {
		return nil, nil
	}
	off, err := g.src.VAToFileOffset(lo)
	if err != nil {
		return nil, err
	}
	sc := g.reg.Scan(g.src, g.src.KindAt, lo, int64(off), int(hi-lo))
	return sc.All()
}

// disasmComment returns a one-line disassembly of the instruction at
// addr, for embedding as a handler comment under --disassemble.
func (g *Generator) disasmComment(addr uint64) []string {
	if !g.opts.Disassemble {
		return nil
	}
	insts, err := g.scan(addr, addr+4)
	if err != nil || len(insts) == 0 {
		return nil
	}
	var b strings.Builder
	decode.FormatInto(&b, insts[0], nil)
	return []string{b.String()}
}

// trackRegexp matches the tracked mnemonic with an optional condition
// suffix and width qualifier.
func trackRegexp(track string) *regexp.Regexp {
	return regexp.MustCompile(`^` + regexp.QuoteMeta(track) +
		`(` + isa.SuffixAlternation() + `)?(?:\.w|\.n)?$`)
}

func condFrom(group string) isa.Cond {
	c, err := isa.ParseCond(group)
	if err != nil {
		return isa.AL
	}
	return c
}
