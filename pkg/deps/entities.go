// Package deps implements the versioned data-flow dependency tracker built
// while a program path is explored. A chain of frames accumulates facts
// (pointer equalities, storage cells, flows-to edges) over versioned values
// and allocations, and answers reachability and aliasing queries against the
// chain. Absent facts are reported as nil results, never as errors.
package deps

import (
	"fmt"

	"github.com/l3aro/go-interpolant-deps/pkg/ir"
)

// VersionedValue is one dynamic incarnation of a program value. Identity is
// the (value, version) pair; instances are immutable once created and owned
// by the frame that created them.
type VersionedValue struct {
	value   ir.ValueID
	version uint64
}

// Value returns the underlying value identifier.
func (v *VersionedValue) Value() ir.ValueID { return v.value }

// Version returns the version number assigned at creation.
func (v *VersionedValue) Version() uint64 { return v.version }

func (v *VersionedValue) String() string {
	return fmt.Sprintf("%s#%d", v.value, v.version)
}

// VersionedAllocation is one dynamic incarnation of a static allocation
// site. The same site with a different version denotes re-allocation, such
// as a new stack frame instance of the same static alloca.
type VersionedAllocation struct {
	site    ir.ValueID
	version uint64
}

// Site returns the allocation site identifier.
func (a *VersionedAllocation) Site() ir.ValueID { return a.site }

// Version returns the version number assigned at creation.
func (a *VersionedAllocation) Version() uint64 { return a.version }

func (a *VersionedAllocation) String() string {
	return fmt.Sprintf("&%s#%d", a.site, a.version)
}

// PointerEquality records that a value's runtime content equals the address
// of an allocation.
type PointerEquality struct {
	value      *VersionedValue
	allocation *VersionedAllocation
}

// Equals returns the allocation the given value points to, or nil when this
// fact is about a different value.
func (p *PointerEquality) Equals(v *VersionedValue) *VersionedAllocation {
	if p.value == v {
		return p.allocation
	}
	return nil
}

func (p *PointerEquality) String() string {
	return fmt.Sprintf("%s == %s", p.value, p.allocation)
}

// StorageCell records that an allocation currently holds a value as content.
type StorageCell struct {
	allocation *VersionedAllocation
	value      *VersionedValue
}

// Stores returns the value held by the given allocation, or nil when this
// cell belongs to a different allocation.
func (c *StorageCell) Stores(a *VersionedAllocation) *VersionedValue {
	if c.allocation == a {
		return c.value
	}
	return nil
}

// StorageOf returns the allocation holding the given value, or nil. This is
// the provenance query used when inverting a load.
func (c *StorageCell) StorageOf(v *VersionedValue) *VersionedAllocation {
	if c.value == v {
		return c.allocation
	}
	return nil
}

func (c *StorageCell) String() string {
	return fmt.Sprintf("%s <- %s", c.allocation, c.value)
}

// FlowsTo is a directed data-dependency edge: target is computed from
// source. Monotone versioning precludes cycles among these edges.
type FlowsTo struct {
	source *VersionedValue
	target *VersionedValue
}

// Source returns the edge's source value.
func (e *FlowsTo) Source() *VersionedValue { return e.source }

// Target returns the edge's target value.
func (e *FlowsTo) Target() *VersionedValue { return e.target }

func (e *FlowsTo) String() string {
	return fmt.Sprintf("%s -> %s", e.source, e.target)
}
