package interpolant

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/l3aro/go-interpolant-deps/pkg/ir"
)

func sampleStore() *Store {
	s := NewStore()
	s.UpdateStore(concreteAddr("L", 0), ir.Expr{Text: "L"}, ir.Expr{Text: "10", InCore: true})
	s.UpdateStore(concreteAddr("M", 0), ir.Expr{Text: "M"}, ir.Expr{Text: "11"})
	s.UpdateStore(symbolicAddr("N", "A"), ir.Expr{}, ir.Expr{Text: "(select A 0)", Arrays: []string{"A"}})
	return s
}

func TestSnapshot_PreservesInsertionOrder(t *testing.T) {
	snap := sampleStore().Snapshot(nil, nil, false)

	require.Len(t, snap.Concrete, 2)
	assert.Equal(t, "L+0", snap.Concrete[0].Variable)
	assert.Equal(t, "M+0", snap.Concrete[1].Variable)
	require.Len(t, snap.Symbolic, 1)
	assert.Equal(t, ir.ValueID("N"), snap.Symbolic[0].Entity)
}

func TestSnapshot_CoreOnly(t *testing.T) {
	snap := sampleStore().Snapshot(nil, nil, true)
	require.Len(t, snap.Concrete, 1)
	assert.Equal(t, "10", snap.Concrete[0].Value.Text)
	assert.Empty(t, snap.Symbolic)
}

func TestSnapshot_SaveLoadRoundTrip(t *testing.T) {
	snap := sampleStore().Snapshot([]ir.ValueID{"c1"}, NewReplacements(), false)

	var buf bytes.Buffer
	require.NoError(t, snap.Save(&buf))

	loaded, err := Load(&buf)
	require.NoError(t, err)
	assert.Equal(t, snap.Concrete, loaded.Concrete)
	assert.Equal(t, snap.Symbolic, loaded.Symbolic)
}

func TestSnapshot_FileRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.txsnap")
	snap := sampleStore().Snapshot(nil, nil, false)
	require.NoError(t, snap.SaveToFile(path))

	loaded, err := LoadFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, snap, loaded)
}

func TestSnapshot_ReplacementsRebindKeys(t *testing.T) {
	snap := sampleStore().Snapshot(nil, NewReplacements(), false)

	require.Len(t, snap.Symbolic, 1)
	assert.Equal(t, "N?(select __shadow0 0)", snap.Symbolic[0].Variable)
	assert.Equal(t, "(select __shadow0 0)", snap.Symbolic[0].Value.Text)
}

func TestSnapshot_Top(t *testing.T) {
	snap := sampleStore().Snapshot([]ir.ValueID{"c1"}, nil, false)
	concrete, symbolic := snap.Top()

	require.Contains(t, concrete, ir.ValueID("L"))
	assert.Equal(t, "10", concrete[ir.ValueID("L")]["c1::L+0"].Text)
	require.Contains(t, symbolic, ir.ValueID("N"))
}

func TestLoad_Malformed(t *testing.T) {
	_, err := Load(bytes.NewReader([]byte("not msgpack at all")))
	assert.Error(t, err)
}

func TestLoadFromFile_Missing(t *testing.T) {
	_, err := LoadFromFile(filepath.Join(t.TempDir(), "nope.txsnap"))
	assert.Error(t, err)
}
