package trace

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/l3aro/go-interpolant-deps/pkg/ir"
	"github.com/l3aro/go-interpolant-deps/pkg/state"
)

const sampleTrace = `# simple path through f
alloc %L
store %L 10
load %X %L
compute %Z %X 1
call %c1 @f (%Z) -> (%p)
enter %c1
store %L ?S!
leave
`

func TestParse_Sample(t *testing.T) {
	events, err := Parse(strings.NewReader(sampleTrace))
	require.NoError(t, err)
	require.Len(t, events, 8)

	assert.Equal(t, ir.Alloc{Result: "L"}, events[0].Instr)

	st, ok := events[1].Instr.(ir.Store)
	require.True(t, ok)
	assert.Equal(t, ir.ValueID("L"), st.Address)
	assert.Equal(t, ir.ValueID("10"), st.Value)
	assert.Equal(t, "10", st.ValueExpr.Text)
	assert.False(t, st.ValueExpr.Symbolic())

	ld, ok := events[2].Instr.(ir.Load)
	require.True(t, ok)
	assert.Equal(t, ir.ValueID("X"), ld.Result)
	assert.Equal(t, ir.ValueID("L"), ld.Address)

	cp, ok := events[3].Instr.(ir.Compute)
	require.True(t, ok)
	assert.Equal(t, []ir.ValueID{"X", "1"}, cp.Operands)

	call, ok := events[4].Instr.(ir.Call)
	require.True(t, ok)
	assert.Equal(t, ir.FuncID("f"), call.Callee)
	assert.Equal(t, []ir.ValueID{"Z"}, call.Args)
	assert.Equal(t, []ir.ValueID{"p"}, call.Params)

	assert.Equal(t, OpEnter, events[5].Op)
	assert.Equal(t, ir.ValueID("c1"), events[5].Site)

	sym, ok := events[6].Instr.(ir.Store)
	require.True(t, ok)
	assert.True(t, sym.ValueExpr.Symbolic())
	assert.True(t, sym.ValueExpr.InCore)
	assert.Equal(t, []string{"S"}, sym.ValueExpr.Arrays)

	assert.Equal(t, OpLeave, events[7].Op)
}

func TestParse_SkipsBlankAndComments(t *testing.T) {
	events, err := Parse(strings.NewReader("\n# comment\n\nalloc %x\n"))
	require.NoError(t, err)
	assert.Len(t, events, 1)
	assert.Equal(t, 4, events[0].Line)
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"unknown op", "frobnicate %x", `line 1: unknown operation "frobnicate"`},
		{"alloc arity", "alloc %x %y", "line 1: alloc expects 1 operand"},
		{"alloc bad ref", "alloc x", "line 1: expected a %ref"},
		{"load arity", "load %x", "line 1: load expects 2 operands"},
		{"store arity", "store %x", "line 1: store expects 2 operands"},
		{"compute arity", "compute", "line 1: compute expects a result operand"},
		{"call missing fn", "call %c1 f (%a) -> (%p)", "line 1: call expects a site and an @function"},
		{"call missing arrow", "call %c1 @f (%a)", "line 1: call expects (args) -> (params)"},
		{"enter arity", "enter", "line 1: enter expects a call site"},
		{"leave arity", "leave %x", "line 1: leave takes no operands"},
		{"bare bang", "store %x !", "line 1: empty operand before !"},
		{"error line number", "alloc %x\nbogus %y", `line 2: unknown operation "bogus"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(strings.NewReader(tt.input))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestParseFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sample.trace")
	require.NoError(t, os.WriteFile(path, []byte(sampleTrace), 0644))

	events, err := ParseFile(path)
	require.NoError(t, err)
	assert.Len(t, events, 8)

	_, err = ParseFile(filepath.Join(t.TempDir(), "missing.trace"))
	assert.Error(t, err)
}

func TestReplay_EndToEnd(t *testing.T) {
	events, err := Parse(strings.NewReader(sampleTrace))
	require.NoError(t, err)

	st := state.New()
	require.NoError(t, Replay(events, st))

	f := st.Frame()
	ten := f.LatestValue("10")
	x := f.LatestValue("X")
	assert.True(t, f.Depends(ten, x))

	// the callee's symbolic store landed in the concrete partition keyed by L
	concrete, _ := st.GetInterpolant(nil, false)
	require.Contains(t, concrete, ir.ValueID("L"))
}

func TestReplay_UnmatchedLeave(t *testing.T) {
	events, err := Parse(strings.NewReader("leave\n"))
	require.NoError(t, err)

	err = Replay(events, state.New())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "line 1: leave without a matching enter")
}
