package symgroup

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"probegen/internal/debuginfo"
)

func fn(name string, lo, hi uint64) *debuginfo.Function {
	return &debuginfo.Function{Name: name, Lo: lo, Hi: hi}
}

func sym(name string, addr, size uint64) *debuginfo.Symbol {
	return &debuginfo.Symbol{Name: name, Addr: addr, Size: size, IsFunc: true}
}

func TestBuildOrdersByAddress(t *testing.T) {
	gs := Build(
		[]*debuginfo.Function{fn("b", 0x2000, 0x2010), fn("a", 0x1000, 0x1008)},
		nil, nil)
	require.Len(t, gs, 2)
	assert.Equal(t, uint64(0x1000), gs[0].Addr)
	assert.Equal(t, uint64(0x2000), gs[1].Addr)
	assert.Equal(t, []string{"a"}, gs[0].Names())
}

func TestBuildDWARFClaimsAddress(t *testing.T) {
	gs := Build(
		[]*debuginfo.Function{fn("add", 0x1000, 0x1010)},
		[]*debuginfo.Symbol{sym("add", 0x1000, 16), sym("other", 0x2000, 8)},
		nil)
	require.Len(t, gs, 2)
	assert.Equal(t, []string{"add"}, gs[0].Names())
	assert.True(t, gs[0].Entities[0].IsFunction())
	assert.Equal(t, []string{"other"}, gs[1].Names())
	assert.False(t, gs[1].Entities[0].IsFunction())
}

func TestBuildBareAliasesCoalesce(t *testing.T) {
	gs := Build(nil,
		[]*debuginfo.Symbol{sym("strtod", 0x3000, 32), sym("__strtod", 0x3000, 32)},
		nil)
	require.Len(t, gs, 1)
	assert.ElementsMatch(t, []string{"strtod", "__strtod"}, gs[0].Names())
	assert.Equal(t, uint64(0x3020), gs[0].End)
}

func TestBuildSkipsUnusableSymbols(t *testing.T) {
	gs := Build(nil, []*debuginfo.Symbol{
		sym("zerosize", 0x1000, 0),
		{Name: "object", Addr: 0x2000, Size: 8, IsFunc: false},
		sym("", 0x3000, 8),
		sym("keep", 0x4000, 8),
	}, nil)
	require.Len(t, gs, 1)
	assert.Equal(t, "keep", gs[0].Entities[0].Name())
}

func TestBuildThumbBitCanonicalized(t *testing.T) {
	gs := Build(nil, []*debuginfo.Symbol{sym("t", 0x1001, 6)}, nil)
	require.Len(t, gs, 1)
	assert.Equal(t, uint64(0x1000), gs[0].Addr)
	assert.Equal(t, uint64(0x1006), gs[0].End)
}

func TestBuildOverlapTruncation(t *testing.T) {
	// A 16-byte span at 0x2000 collides with the next entry at 0x2004:
	// the first group is truncated there and flagged.
	gs := Build(nil, []*debuginfo.Symbol{
		sym("big", 0x2000, 16),
		sym("inner", 0x2004, 4),
	}, nil)
	require.Len(t, gs, 2)
	assert.Equal(t, uint64(0x2004), gs[0].End)
	assert.True(t, gs[0].Overlapping)
	assert.Equal(t, uint64(0x2008), gs[1].End)
	assert.False(t, gs[1].Overlapping)
}

func TestBuildAdjacentNotOverlapping(t *testing.T) {
	gs := Build(nil, []*debuginfo.Symbol{
		sym("a", 0x1000, 8),
		sym("b", 0x1008, 8),
	}, nil)
	require.Len(t, gs, 2)
	assert.Equal(t, uint64(0x1008), gs[0].End)
	assert.False(t, gs[0].Overlapping)
}

func TestBuildWithFilter(t *testing.T) {
	f, err := NewFilter([]string{"add.*", "mul"})
	require.NoError(t, err)

	gs := Build(
		[]*debuginfo.Function{fn("add", 0x1000, 0x1008), fn("sub", 0x2000, 0x2008)},
		[]*debuginfo.Symbol{sym("adder", 0x3000, 8), sym("mul", 0x4000, 8), sym("div", 0x5000, 8)},
		f)
	require.Len(t, gs, 3)
	assert.Equal(t, "add", gs[0].Entities[0].Name())
	assert.Equal(t, "adder", gs[1].Entities[0].Name())
	assert.Equal(t, "mul", gs[2].Entities[0].Name())
}

func TestGroupFunctionAccessor(t *testing.T) {
	gs := Build([]*debuginfo.Function{fn("f", 0x1000, 0x1008)}, nil, nil)
	require.Len(t, gs, 1)
	require.NotNil(t, gs[0].Function())
	assert.Equal(t, "f", gs[0].Function().Name)

	gs = Build(nil, []*debuginfo.Symbol{sym("s", 0x1000, 8)}, nil)
	require.Len(t, gs, 1)
	assert.Nil(t, gs[0].Function())
}
