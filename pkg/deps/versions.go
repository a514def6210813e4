package deps

import "sync/atomic"

// Versions issues the version numbers that give dynamic identity to values
// and allocations. One Versions instance is owned by the top-level execution
// state and shared by every frame in its chain, including the chains of
// forked sibling states; increments are atomic so siblings may be explored
// by independent workers. The counter is never reset mid-run. The value and
// allocation streams are independent.
type Versions struct {
	value      atomic.Uint64
	allocation atomic.Uint64
}

// NewVersions returns a counter starting a fresh top-level run.
func NewVersions() *Versions {
	return &Versions{}
}

func (v *Versions) nextValue() uint64 {
	return v.value.Add(1)
}

func (v *Versions) nextAllocation() uint64 {
	return v.allocation.Add(1)
}
