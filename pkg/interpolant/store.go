// Package interpolant implements the shadow store: a snapshot mapping of
// memory addresses to the expressions currently held there, split into
// concretely- and symbolically-addressed partitions. The store is queried to
// emit the two top-level interpolant maps consumed by the subsumption
// checker, optionally restricted to locations implicated in an
// unsatisfiability core.
package interpolant

import (
	"fmt"
	"io"
	"strings"

	"github.com/l3aro/go-interpolant-deps/pkg/ir"
)

// Address is the canonical, interpolant-style location of a stored value.
// Concrete addresses keep their constant offset; symbolic addresses keep the
// rendered address expression instead.
type Address struct {
	Base   ir.ValueID `json:"base" msgpack:"base"`     // defining program entity
	Offset int64      `json:"offset" msgpack:"offset"` // constant offset from Base
	Expr   ir.Expr    `json:"expr" msgpack:"expr"`     // rendered address expression
}

// Symbolic reports whether the address depends on symbolic input. The
// decision is made once, at insertion; an address whose concreteness later
// changes is a new logical location.
func (a Address) Symbolic() bool {
	return a.Expr.Symbolic()
}

// Key returns the canonical store key for the address.
func (a Address) Key() string {
	if a.Symbolic() {
		return fmt.Sprintf("%s?%s", a.Base, a.Expr.Text)
	}
	return fmt.Sprintf("%s+%d", a.Base, a.Offset)
}

// Entry relates an address to its stored content. Entries are immutable and
// shared by reference across store clones made at state-fork time; an
// overwrite rebinds the map key to a fresh entry rather than mutating in
// place, so sibling forks keep their view.
type Entry struct {
	Address      Address
	AddressValue ir.Expr
	Content      ir.Expr
}

// LowerInterpolantStore maps a call-history-qualified canonical variable to
// the interpolant-value expression stored there.
type LowerInterpolantStore map[string]ir.Expr

// TopInterpolantStore is the externally consumable two-level map, keyed
// first by the defining program entity of an address.
type TopInterpolantStore map[ir.ValueID]LowerInterpolantStore

// Store is the shadow memory of one execution state: two keyed partitions,
// each paired with an insertion-ordered key list so iteration order is
// reproducible regardless of map implementation.
type Store struct {
	concrete     map[string]*Entry
	concreteKeys []string
	symbolic     map[string]*Entry
	symbolicKeys []string
}

// NewStore returns an empty shadow store.
func NewStore() *Store {
	return &Store{
		concrete: make(map[string]*Entry),
		symbolic: make(map[string]*Entry),
	}
}

// Clone duplicates the map structure while sharing the entries, realizing
// cheap state-fork snapshotting: the cost is the size of the two key-ordered
// maps, not of the entry payloads.
func (s *Store) Clone() *Store {
	c := &Store{
		concrete:     make(map[string]*Entry, len(s.concrete)),
		concreteKeys: append([]string(nil), s.concreteKeys...),
		symbolic:     make(map[string]*Entry, len(s.symbolic)),
		symbolicKeys: append([]string(nil), s.symbolicKeys...),
	}
	for k, e := range s.concrete {
		c.concrete[k] = e
	}
	for k, e := range s.symbolic {
		c.symbolic[k] = e
	}
	return c
}

// UpdateStore inserts or overwrites the entry for the address in the
// partition chosen by the address's concreteness. Overwriting reuses the
// key's order position.
func (s *Store) UpdateStore(addr Address, addressValue, content ir.Expr) {
	entry := &Entry{Address: addr, AddressValue: addressValue, Content: content}
	key := addr.Key()
	if addr.Symbolic() {
		if _, exists := s.symbolic[key]; !exists {
			s.symbolicKeys = append(s.symbolicKeys, key)
		}
		s.symbolic[key] = entry
		return
	}
	if _, exists := s.concrete[key]; !exists {
		s.concreteKeys = append(s.concreteKeys, key)
	}
	s.concrete[key] = entry
}

// UpdateStoreWithLoadedValue records what was read on the load path. The map
// semantics are identical to UpdateStore; the separate entry point keeps the
// two update paths auditable separately.
func (s *Store) UpdateStoreWithLoadedValue(addr Address, addressValue, value ir.Expr) {
	s.UpdateStore(addr, addressValue, value)
}

// Lookup returns the content stored for the address, with false when the
// location was never recorded.
func (s *Store) Lookup(addr Address) (ir.Expr, bool) {
	var e *Entry
	if addr.Symbolic() {
		e = s.symbolic[addr.Key()]
	} else {
		e = s.concrete[addr.Key()]
	}
	if e == nil {
		return ir.Expr{}, false
	}
	return e.Content, true
}

// ConcreteLen returns the number of concretely-addressed entries.
func (s *Store) ConcreteLen() int { return len(s.concreteKeys) }

// SymbolicLen returns the number of symbolically-addressed entries.
func (s *Store) SymbolicLen() int { return len(s.symbolicKeys) }

// entry returns the shared entry for a key in either partition. Nil when
// absent; used by tests and diagnostics.
func (s *Store) entry(key string) *Entry {
	if e, ok := s.concrete[key]; ok {
		return e
	}
	return s.symbolic[key]
}

// qualifyKey derives the call-history-qualified canonical variable for an
// address key, so the same static location in distinct recursive call
// instances produces distinct keys.
func qualifyKey(callHistory []ir.ValueID, key string) string {
	if len(callHistory) == 0 {
		return key
	}
	sites := make([]string, len(callHistory))
	for i, site := range callHistory {
		sites[i] = string(site)
	}
	return strings.Join(sites, ">") + "::" + key
}

// exportKey returns the partition key for an entry as it should appear in an
// exported store. With an active replacement set, a symbolic address key is
// rephrased in bound variables so persisted keys match the rebound contents
// instead of carrying execution-local array names.
func exportKey(e *Entry, key string, repl *Replacements) string {
	if repl == nil || !e.Address.Symbolic() {
		return key
	}
	addr := e.Address
	addr.Expr = addr.Expr.Rename(repl.BindAll(addr.Expr.Arrays))
	return addr.Key()
}

// GetStoredExpressions produces the externally consumable two-level maps for
// the concrete and symbolic partitions. With coreOnly set, entries whose
// content is not flagged as relevant to the current unsatisfiability core
// are omitted. When repl is non-nil, symbolic array identifiers in emitted
// expressions and in symbolic address keys are rebound through it so the
// result can live in a reusable subsumption table.
func (s *Store) GetStoredExpressions(callHistory []ir.ValueID, repl *Replacements, coreOnly bool) (TopInterpolantStore, TopInterpolantStore) {
	concrete := make(TopInterpolantStore)
	symbolic := make(TopInterpolantStore)
	collect(callHistory, s.concrete, s.concreteKeys, repl, coreOnly, concrete)
	collect(callHistory, s.symbolic, s.symbolicKeys, repl, coreOnly, symbolic)
	return concrete, symbolic
}

func collect(callHistory []ir.ValueID, part map[string]*Entry, keys []string, repl *Replacements, coreOnly bool, out TopInterpolantStore) {
	for _, key := range keys {
		e := part[key]
		if coreOnly && !e.Content.InCore {
			continue
		}
		content := e.Content
		if repl != nil {
			content = content.Rename(repl.BindAll(content.Arrays))
		}
		lower, ok := out[e.Address.Base]
		if !ok {
			lower = make(LowerInterpolantStore)
			out[e.Address.Base] = lower
		}
		lower[qualifyKey(callHistory, exportKey(e, key, repl))] = content
	}
}

// Print writes a human-readable dump of both partitions in insertion order.
// Diagnostics only; the format carries no compatibility guarantee.
func (s *Store) Print(w io.Writer) {
	s.print(w, 0)
}

func (s *Store) print(w io.Writer, depth int) {
	pad := strings.Repeat("  ", depth)
	fmt.Fprintf(w, "%sconcretely addressed store:\n", pad)
	for _, key := range s.concreteKeys {
		e := s.concrete[key]
		fmt.Fprintf(w, "%s  %s = %s\n", pad, key, e.Content.Text)
	}
	fmt.Fprintf(w, "%ssymbolically addressed store:\n", pad)
	for _, key := range s.symbolicKeys {
		e := s.symbolic[key]
		fmt.Fprintf(w, "%s  %s = %s\n", pad, key, e.Content.Text)
	}
}

func (s *Store) String() string {
	var sb strings.Builder
	s.Print(&sb)
	return sb.String()
}
