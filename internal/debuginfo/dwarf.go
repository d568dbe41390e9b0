package debuginfo

import (
	"debug/dwarf"
	"sort"

	log "github.com/sirupsen/logrus"
)

// loadFunctions walks the DWARF tree and collects named subprograms with
// an address range, plus their direct formal parameters in declaration
// order. Inlined and nested subtrees are skipped.
func loadFunctions(dw *dwarf.Data) ([]*Function, error) {
	var funcs []*Function
	r := dw.Reader()
	for {
		e, err := r.Next()
		if err != nil {
			return funcs, err
		}
		if e == nil {
			break
		}
		if e.Tag != dwarf.TagSubprogram {
			continue
		}

		fn := subprogram(dw, e)
		if fn == nil {
			if e.Children {
				r.SkipChildren()
			}
			continue
		}
		if e.Children {
			for {
				c, err := r.Next()
				if err != nil {
					return funcs, err
				}
				if c == nil || c.Tag == 0 {
					break
				}
				if c.Tag == dwarf.TagFormalParameter {
					fn.Params = append(fn.Params, formalParameter(dw, c))
				}
				if c.Children {
					r.SkipChildren()
				}
			}
		}
		funcs = append(funcs, fn)
	}

	sort.Slice(funcs, func(i, j int) bool { return funcs[i].Lo < funcs[j].Lo })
	return funcs, nil
}

func subprogram(dw *dwarf.Data, e *dwarf.Entry) *Function {
	name, _ := e.Val(dwarf.AttrName).(string)
	if name == "" {
		return nil
	}
	lo, ok := e.Val(dwarf.AttrLowpc).(uint64)
	if !ok {
		return nil
	}
	// Thumb entry points carry the interworking marker in bit 0.
	lo &^= 1

	var hi uint64
	switch v := e.Val(dwarf.AttrHighpc).(type) {
	case uint64:
		hi = v
	case int64:
		hi = lo + uint64(v)
	default:
		return nil
	}
	if hi <= lo {
		return nil
	}
	return &Function{Name: name, Lo: lo, Hi: hi}
}

func formalParameter(dw *dwarf.Data, e *dwarf.Entry) *Param {
	p := &Param{}
	p.Name, _ = e.Val(dwarf.AttrName).(string)
	if off, ok := e.Val(dwarf.AttrType).(dwarf.Offset); ok {
		typ, err := dw.Type(off)
		if err != nil {
			log.Debugf("debuginfo: parameter %q: unreadable type: %v", p.Name, err)
		} else {
			p.Type = typ
		}
	}
	// A single location expression is valid for the whole function; a
	// location-list reference would need per-PC resolution from
	// .debug_loc, which this provider treats as inaccessible.
	if loc, ok := e.Val(dwarf.AttrLocation).([]byte); ok {
		p.loc = loc
	}
	return p
}
