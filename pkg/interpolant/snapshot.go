package interpolant

import (
	"fmt"
	"io"
	"os"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/l3aro/go-interpolant-deps/pkg/ir"
)

// SnapshotEntry is one exported location in a persisted interpolant store.
type SnapshotEntry struct {
	Entity   ir.ValueID `msgpack:"entity"`   // defining program entity (outer key)
	Variable string     `msgpack:"variable"` // call-history-qualified canonical variable
	Value    ir.Expr    `msgpack:"value"`    // interpolant-value expression
}

// Snapshot is the persistable form of an exported interpolant store. Entries
// keep the store's insertion order so a reload reproduces the original
// iteration order.
type Snapshot struct {
	Concrete []SnapshotEntry `msgpack:"concrete"`
	Symbolic []SnapshotEntry `msgpack:"symbolic"`
}

// Snapshot exports the store in persistable, order-preserving form, applying
// the same call-history qualification, replacements, and core filtering as
// GetStoredExpressions.
func (s *Store) Snapshot(callHistory []ir.ValueID, repl *Replacements, coreOnly bool) *Snapshot {
	snap := &Snapshot{}
	snap.Concrete = export(callHistory, s.concrete, s.concreteKeys, repl, coreOnly)
	snap.Symbolic = export(callHistory, s.symbolic, s.symbolicKeys, repl, coreOnly)
	return snap
}

func export(callHistory []ir.ValueID, part map[string]*Entry, keys []string, repl *Replacements, coreOnly bool) []SnapshotEntry {
	entries := make([]SnapshotEntry, 0, len(keys))
	for _, key := range keys {
		e := part[key]
		if coreOnly && !e.Content.InCore {
			continue
		}
		content := e.Content
		if repl != nil {
			content = content.Rename(repl.BindAll(content.Arrays))
		}
		entries = append(entries, SnapshotEntry{
			Entity:   e.Address.Base,
			Variable: qualifyKey(callHistory, exportKey(e, key, repl)),
			Value:    content,
		})
	}
	return entries
}

// Top rebuilds the two-level interpolant maps from the snapshot.
func (snap *Snapshot) Top() (TopInterpolantStore, TopInterpolantStore) {
	return top(snap.Concrete), top(snap.Symbolic)
}

func top(entries []SnapshotEntry) TopInterpolantStore {
	out := make(TopInterpolantStore)
	for _, e := range entries {
		lower, ok := out[e.Entity]
		if !ok {
			lower = make(LowerInterpolantStore)
			out[e.Entity] = lower
		}
		lower[e.Variable] = e.Value
	}
	return out
}

// Save persists the snapshot to the writer using msgpack.
func (snap *Snapshot) Save(w io.Writer) error {
	enc := msgpack.NewEncoder(w)
	return enc.Encode(snap)
}

// Load restores a snapshot from the reader.
func Load(r io.Reader) (*Snapshot, error) {
	var snap Snapshot
	dec := msgpack.NewDecoder(r)
	if err := dec.Decode(&snap); err != nil {
		return nil, fmt.Errorf("failed to decode snapshot: %w", err)
	}
	return &snap, nil
}

// SaveToFile persists the snapshot to a file.
func (snap *Snapshot) SaveToFile(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create snapshot file: %w", err)
	}
	defer f.Close()
	return snap.Save(f)
}

// LoadFromFile restores a snapshot from a file.
func LoadFromFile(path string) (*Snapshot, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open snapshot file: %w", err)
	}
	defer f.Close()
	return Load(f)
}
