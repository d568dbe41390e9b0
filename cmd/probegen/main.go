// Command probegen analyzes an ARM, Thumb or ARM64 ELF binary and emits
// instrumentation probe script text on stdout.
package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/peterbourgon/ff/v3"
	log "github.com/sirupsen/logrus"

	"probegen/internal/debuginfo"
	"probegen/internal/decode"
	"probegen/internal/gen"
	"probegen/internal/symgroup"
)

func main() {
	if err := run(os.Args[1:], os.Stdout); err != nil {
		log.Error(err)
		os.Exit(1)
	}
}

func run(args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("probegen", flag.ContinueOnError)
	var (
		action      = fs.String("action", "fns", "fns, insn, dasm, dasm_all or dwarf_dasm")
		template    = fs.String("template", gen.TemplatePrintf, "adbi_printf or systrace")
		track       = fs.String("track-instruction", "svc", "mnemonic prefix matched in insn mode")
		filterPath  = fs.String("filter", "", "file with one full-match name pattern per line")
		useNames    = fs.Bool("use-function-names", false, "emit symbolic handler locations")
		disassemble = fs.Bool("disassemble", false, "embed disassembly comments in handlers")
		sysroot     = fs.String("sysroot", "", "root prefixed to absolute binary paths")
		logLevel    = fs.String("log", "warning", "log level (trace, debug, info, warning, error)")
	)
	if err := ff.Parse(fs, args, ff.WithEnvVarPrefix("PROBEGEN")); err != nil {
		return err
	}

	lvl, err := log.ParseLevel(*logLevel)
	if err != nil {
		return fmt.Errorf("probegen: bad log level %q: %w", *logLevel, err)
	}
	log.SetLevel(lvl)
	log.SetOutput(os.Stderr)

	if fs.NArg() != 1 {
		fs.Usage()
		return fmt.Errorf("probegen: exactly one input binary expected")
	}
	input := fs.Arg(0)
	path := input
	if *sysroot != "" && filepath.IsAbs(input) {
		path = filepath.Join(*sysroot, input)
	}

	var filter *symgroup.NameFilter
	if *filterPath != "" {
		filter, err = symgroup.LoadFilter(*filterPath)
		if err != nil {
			return err
		}
	}

	prov, err := debuginfo.Load(path)
	if err != nil {
		return err
	}
	defer prov.Close()

	g := gen.New(prov, decode.NewRegistry(), gen.Options{
		Template:    *template,
		UseNames:    *useNames,
		TrackInsn:   *track,
		Disassemble: *disassemble,
		Filter:      filter,
		BinaryPath:  input,
	}, stdout)

	switch *action {
	case "fns":
		err = g.Fns()
	case "insn":
		err = g.Insn()
	case "dasm":
		err = g.Dasm()
	case "dasm_all":
		err = g.DasmAll()
	case "dwarf_dasm":
		err = g.DwarfDasm()
	default:
		return fmt.Errorf("probegen: unknown action %q", *action)
	}
	if err != nil {
		return err
	}

	if filter != nil {
		for _, st := range filter.Stats() {
			if st.Hits == 0 {
				log.Warnf("filter pattern %q never matched", st.Pattern)
			} else {
				log.Infof("filter pattern %q matched %d time(s)", st.Pattern, st.Hits)
			}
		}
	}
	return nil
}
