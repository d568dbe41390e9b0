package symgroup

import (
	"bufio"
	"fmt"
	"os"
	"regexp"
	"strings"
)

// NameFilter is a set of compiled whole-string patterns with per-pattern
// hit counters. Counters are read only after the full pass completes, as
// a batch diagnostic.
type NameFilter struct {
	patterns []*pattern
}

type pattern struct {
	src  string
	re   *regexp.Regexp
	hits int
}

// NewFilter compiles one full-match, case-sensitive pattern per
// expression.
func NewFilter(exprs []string) (*NameFilter, error) {
	f := &NameFilter{}
	for _, expr := range exprs {
		re, err := regexp.Compile("^(?:" + expr + ")$")
		if err != nil {
			return nil, fmt.Errorf("symgroup: bad filter pattern %q: %w", expr, err)
		}
		f.patterns = append(f.patterns, &pattern{src: expr, re: re})
	}
	return f, nil
}

// LoadFilter reads a filter file: one pattern per line, blank lines
// skipped.
func LoadFilter(path string) (*NameFilter, error) {
	fh, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("symgroup: open filter: %w", err)
	}
	defer fh.Close()

	var exprs []string
	sc := bufio.NewScanner(fh)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		exprs = append(exprs, line)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("symgroup: read filter: %w", err)
	}
	return NewFilter(exprs)
}

// Match reports whether any pattern fully matches name, incrementing the
// counter of every pattern that does.
func (f *NameFilter) Match(name string) bool {
	matched := false
	for _, p := range f.patterns {
		if p.re.MatchString(name) {
			p.hits++
			matched = true
		}
	}
	return matched
}

// PatternStat is one pattern's post-run diagnostic.
type PatternStat struct {
	Pattern string
	Hits    int
}

// Stats returns per-pattern hit counts in declaration order.
func (f *NameFilter) Stats() []PatternStat {
	out := make([]PatternStat, 0, len(f.patterns))
	for _, p := range f.patterns {
		out = append(out, PatternStat{Pattern: p.src, Hits: p.hits})
	}
	return out
}
