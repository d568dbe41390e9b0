package debuginfo

import (
	"debug/dwarf"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func intType(size int64) dwarf.Type {
	return &dwarf.IntType{BasicType: dwarf.BasicType{
		CommonType: dwarf.CommonType{ByteSize: size, Name: "int"},
	}}
}

func charPtrType() dwarf.Type {
	return &dwarf.PtrType{
		CommonType: dwarf.CommonType{ByteSize: 4, Name: "char*"},
		Type: &dwarf.CharType{BasicType: dwarf.BasicType{
			CommonType: dwarf.CommonType{ByteSize: 1, Name: "char"},
		}},
	}
}

var fbreg = []byte{0x91, 0x08} // DW_OP_fbreg 8

func TestAccessibleAt(t *testing.T) {
	p := NewParam("a", intType(4), fbreg)
	assert.True(t, p.AccessibleAt(0x1000))

	// No recovered location expression: inaccessible everywhere.
	q := NewParam("b", intType(4), nil)
	assert.False(t, q.AccessibleAt(0x1000))
}

func TestPrintfFragmentInt(t *testing.T) {
	p := NewParam("a", intType(4), fbreg)
	fmtStr, args, err := p.PrintfFragment("a")
	require.NoError(t, err)
	assert.Equal(t, "%d", fmtStr)
	assert.Equal(t, []string{"(int) a"}, args)
}

func TestPrintfFragmentWideInt(t *testing.T) {
	p := NewParam("n", intType(8), fbreg)
	fmtStr, args, err := p.PrintfFragment("n")
	require.NoError(t, err)
	assert.Equal(t, "%lld", fmtStr)
	assert.Equal(t, []string{"(long long) n"}, args)
}

func TestPrintfFragmentCharPointer(t *testing.T) {
	p := NewParam("s", charPtrType(), fbreg)
	fmtStr, args, err := p.PrintfFragment("s")
	require.NoError(t, err)
	assert.Equal(t, `\"%s\"`, fmtStr)
	assert.Equal(t, []string{"(const char *) s"}, args)
}

func TestTraceFragmentNeverDereferences(t *testing.T) {
	p := NewParam("s", charPtrType(), fbreg)
	fmtStr, args, err := p.TraceFragment("s")
	require.NoError(t, err)
	assert.Equal(t, "%p", fmtStr)
	assert.Equal(t, []string{"(void *) s"}, args)
}

func TestFragmentTypedefUnwrapped(t *testing.T) {
	td := &dwarf.TypedefType{
		CommonType: dwarf.CommonType{Name: "size_t"},
		Type:       intType(4),
	}
	p := NewParam("n", td, fbreg)
	fmtStr, _, err := p.PrintfFragment("n")
	require.NoError(t, err)
	assert.Equal(t, "%d", fmtStr)
}

func TestFragmentUnsupportedType(t *testing.T) {
	st := &dwarf.StructType{StructName: "opts", Kind: "struct"}
	p := NewParam("o", st, fbreg)
	_, _, err := p.PrintfFragment("o")
	assert.Error(t, err)

	// Missing type information is also a soft failure.
	q := NewParam("x", nil, fbreg)
	_, _, err = q.PrintfFragment("x")
	assert.Error(t, err)
}
