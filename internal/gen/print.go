package gen

import (
	"fmt"
	"strings"

	log "github.com/sirupsen/logrus"

	"probegen/internal/handler"
	"probegen/internal/isa"
)

// printfFns emits one begin handler per function with typed parameters:
// a get-variable line per accessible parameter, then a single
// adbi_printf of the synthesized signature. Inaccessible or unnamed
// parameters degrade to placeholders; fragment failures degrade to an
// inert comment carrying the error.
func (g *Generator) printfFns() error {
	for _, grp := range g.groups() {
		fn := grp.Function()
		if fn == nil || len(fn.Params) == 0 {
			continue
		}

		var body []string
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
			f, ax, err := p.PrintfFragment(p.Name)
			if err != nil {
				body = append(body, "/* "+p.Name+": "+err.Error()+" */")
				frags = append(frags, p.Name+"=<?>")
				continue
			}
			body = append(body, fmt.Sprintf("unsigned long %s = adbi_get_var(\"%s\");", p.Name, p.Name))
			frags = append(frags, p.Name+"="+f)
			args = append(args, ax...)
		}

		call := fmt.Sprintf("adbi_printf(\"%s(%s)\\n\"", fn.Name, strings.Join(frags, ", "))
		if len(args) > 0 {
			call += ", " + strings.Join(args, ", ")
		}
		call += ");"
		body = append(body, call)

		g.emit(handler.New(
			g.location(grp.Addr, grp.Names()), grp.Names(),
			body, g.disasmComment(grp.Addr), isa.AL, false, ""))
	}
	return nil
}

// printfInsn scans every grouped span and emits one print handler per
// tracked-instruction hit, guarded by the hit's condition suffix.
func (g *Generator) printfInsn() error {
	re := trackRegexp(g.opts.TrackInsn)
	for _, grp := range g.groups() {
		insts, err := g.scan(grp.Addr, grp.End)
		if err != nil {
			log.Warnf("gen: scan %s at 0x%08x: %v", strings.Join(grp.Names(), ", "), grp.Addr, err)
		}
		nameList := strings.Join(grp.Names(), ", ")
		for _, inst := range insts {
			m := re.FindStringSubmatch(inst.Mnemonic())
			if m == nil {
				continue
			}
			body := []string{fmt.Sprintf(
				"adbi_printf(\"%s @ 0x%08x in %s\\n\");",
				inst.Mnemonic(), inst.Addr, nameList)}
			g.emit(handler.New(
				g.location(inst.Addr, nil), grp.Names(),
				body, g.disasmComment(inst.Addr), condFrom(m[1]), false, ""))
		}
	}
	return nil
}
