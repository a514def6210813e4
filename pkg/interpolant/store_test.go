package interpolant

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/l3aro/go-interpolant-deps/pkg/ir"
)

func concreteAddr(base ir.ValueID, offset int64) Address {
	return Address{Base: base, Offset: offset, Expr: ir.Expr{Text: string(base)}}
}

func symbolicAddr(base ir.ValueID, array string) Address {
	return Address{Base: base, Expr: ir.Expr{Text: "(select " + array + " 0)", Arrays: []string{array}}}
}

func TestAddressKey(t *testing.T) {
	a := concreteAddr("L", 8)
	assert.False(t, a.Symbolic())
	assert.Equal(t, "L+8", a.Key())

	s := symbolicAddr("L", "A")
	assert.True(t, s.Symbolic())
	assert.Equal(t, "L?(select A 0)", s.Key())
	assert.NotEqual(t, a.Key(), s.Key(), "concreteness change is a new logical location")
}

func TestUpdateStore_OverwriteKeepsSingleKey(t *testing.T) {
	s := NewStore()
	addr := concreteAddr("L", 0)

	s.UpdateStore(addr, ir.Expr{Text: "L"}, ir.Expr{Text: "10"})
	s.UpdateStore(addr, ir.Expr{Text: "L"}, ir.Expr{Text: "20"})

	assert.Equal(t, 1, s.ConcreteLen())
	got, ok := s.Lookup(addr)
	require.True(t, ok)
	assert.Equal(t, "20", got.Text)
}

func TestUpdateStore_Partitioning(t *testing.T) {
	s := NewStore()
	s.UpdateStore(concreteAddr("L", 0), ir.Expr{Text: "L"}, ir.Expr{Text: "10"})
	s.UpdateStore(symbolicAddr("M", "A"), ir.Expr{}, ir.Expr{Text: "v"})

	assert.Equal(t, 1, s.ConcreteLen())
	assert.Equal(t, 1, s.SymbolicLen())
}

func TestUpdateStoreWithLoadedValue(t *testing.T) {
	s := NewStore()
	addr := concreteAddr("L", 0)
	s.UpdateStoreWithLoadedValue(addr, ir.Expr{Text: "L"}, ir.Expr{Text: "x"})

	got, ok := s.Lookup(addr)
	require.True(t, ok)
	assert.Equal(t, "x", got.Text)
}

func TestLookup_Missing(t *testing.T) {
	s := NewStore()
	_, ok := s.Lookup(concreteAddr("L", 0))
	assert.False(t, ok)
}

func TestClone_SharesEntries(t *testing.T) {
	s := NewStore()
	addr := concreteAddr("L", 0)
	s.UpdateStore(addr, ir.Expr{Text: "L"}, ir.Expr{Text: "10"})

	c := s.Clone()
	assert.Same(t, s.entry(addr.Key()), c.entry(addr.Key()), "clone shares entries by reference")

	got, ok := c.Lookup(addr)
	require.True(t, ok)
	assert.Equal(t, "10", got.Text)
}

func TestClone_CopyOnWriteIsolation(t *testing.T) {
	s := NewStore()
	addr := concreteAddr("L", 0)
	s.UpdateStore(addr, ir.Expr{Text: "L"}, ir.Expr{Text: "10"})

	c := s.Clone()
	s.UpdateStore(addr, ir.Expr{Text: "L"}, ir.Expr{Text: "20"})

	mine, _ := s.Lookup(addr)
	theirs, _ := c.Lookup(addr)
	assert.Equal(t, "20", mine.Text)
	assert.Equal(t, "10", theirs.Text, "overwrite in the original must not change the fork's view")
	assert.NotSame(t, s.entry(addr.Key()), c.entry(addr.Key()))
}

func TestGetStoredExpressions_Basic(t *testing.T) {
	s := NewStore()
	s.UpdateStore(concreteAddr("L", 0), ir.Expr{Text: "L"}, ir.Expr{Text: "10"})
	s.UpdateStore(concreteAddr("L", 8), ir.Expr{Text: "L"}, ir.Expr{Text: "11"})
	s.UpdateStore(symbolicAddr("M", "A"), ir.Expr{}, ir.Expr{Text: "(select A 0)", Arrays: []string{"A"}})

	concrete, symbolic := s.GetStoredExpressions(nil, nil, false)

	require.Contains(t, concrete, ir.ValueID("L"))
	assert.Len(t, concrete[ir.ValueID("L")], 2)
	assert.Equal(t, "10", concrete[ir.ValueID("L")]["L+0"].Text)
	assert.Equal(t, "11", concrete[ir.ValueID("L")]["L+8"].Text)

	require.Contains(t, symbolic, ir.ValueID("M"))
	assert.Len(t, symbolic[ir.ValueID("M")], 1)
}

func TestGetStoredExpressions_CallHistoryQualification(t *testing.T) {
	s := NewStore()
	s.UpdateStore(concreteAddr("L", 0), ir.Expr{Text: "L"}, ir.Expr{Text: "10"})

	outer, _ := s.GetStoredExpressions([]ir.ValueID{"c1"}, nil, false)
	inner, _ := s.GetStoredExpressions([]ir.ValueID{"c1", "c2"}, nil, false)

	assert.Contains(t, outer[ir.ValueID("L")], "c1::L+0")
	assert.Contains(t, inner[ir.ValueID("L")], "c1>c2::L+0")
}

func TestGetStoredExpressions_CoreOnlySubset(t *testing.T) {
	s := NewStore()
	s.UpdateStore(concreteAddr("L", 0), ir.Expr{Text: "L"}, ir.Expr{Text: "10", InCore: true})
	s.UpdateStore(concreteAddr("M", 0), ir.Expr{Text: "M"}, ir.Expr{Text: "11"})

	full, _ := s.GetStoredExpressions(nil, nil, false)
	core, _ := s.GetStoredExpressions(nil, nil, true)

	assert.Len(t, full, 2)
	assert.Len(t, core, 1)
	assert.Contains(t, core, ir.ValueID("L"))
	for entity, lower := range core {
		for variable := range lower {
			assert.Contains(t, full[entity], variable, "coreOnly result must be a key subset")
		}
	}
}

func TestGetStoredExpressions_Replacements(t *testing.T) {
	s := NewStore()
	s.UpdateStore(symbolicAddr("M", "A"), ir.Expr{}, ir.Expr{Text: "(add (select A 0) 1)", Arrays: []string{"A"}})

	repl := NewReplacements()
	_, symbolic := s.GetStoredExpressions(nil, repl, false)

	require.Contains(t, symbolic, ir.ValueID("M"))
	for _, value := range symbolic[ir.ValueID("M")] {
		assert.Equal(t, "(add (select __shadow0 0) 1)", value.Text)
		assert.Equal(t, []string{"__shadow0"}, value.Arrays)
	}
	assert.Equal(t, []string{"A"}, repl.Arrays())
}

func TestGetStoredExpressions_ReplacementsRebindKeys(t *testing.T) {
	s := NewStore()
	s.UpdateStore(symbolicAddr("M", "A"), ir.Expr{}, ir.Expr{Text: "(select A 0)", Arrays: []string{"A"}})

	repl := NewReplacements()
	_, symbolic := s.GetStoredExpressions(nil, repl, false)

	require.Contains(t, symbolic, ir.ValueID("M"))
	assert.Contains(t, symbolic[ir.ValueID("M")], "M?(select __shadow0 0)",
		"exported symbolic keys are phrased in bound variables")
}

func TestReplacements_StableBinding(t *testing.T) {
	r := NewReplacements()
	assert.Equal(t, "__shadow0", r.Bind("A"))
	assert.Equal(t, "__shadow1", r.Bind("B"))
	assert.Equal(t, "__shadow0", r.Bind("A"), "rebinding returns the same name")
	assert.Equal(t, 2, r.Len())
}

func TestStorePrint_InsertionOrder(t *testing.T) {
	s := NewStore()
	s.UpdateStore(concreteAddr("B", 0), ir.Expr{Text: "B"}, ir.Expr{Text: "2"})
	s.UpdateStore(concreteAddr("A", 0), ir.Expr{Text: "A"}, ir.Expr{Text: "1"})

	out := s.String()
	assert.Less(t, strings.Index(out, "B+0"), strings.Index(out, "A+0"), "dump follows insertion order")
}
