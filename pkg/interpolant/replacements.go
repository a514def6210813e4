package interpolant

import "fmt"

// Replacements collects the symbolic array identifiers seen while exporting
// a store and assigns each a stable bound name, so emitted expressions are
// phrased in variables suitable for a reusable subsumption table instead of
// variables local to one execution.
type Replacements struct {
	bound map[string]string
	order []string
}

// NewReplacements returns an empty replacement set.
func NewReplacements() *Replacements {
	return &Replacements{bound: make(map[string]string)}
}

// Bind returns the bound name for the array, assigning the next one on first
// sight.
func (r *Replacements) Bind(array string) string {
	if name, ok := r.bound[array]; ok {
		return name
	}
	name := fmt.Sprintf("__shadow%d", len(r.order))
	r.bound[array] = name
	r.order = append(r.order, array)
	return name
}

// BindAll binds every array in the list and returns the full mapping
// accumulated so far.
func (r *Replacements) BindAll(arrays []string) map[string]string {
	for _, a := range arrays {
		r.Bind(a)
	}
	return r.bound
}

// Arrays returns the original array identifiers in binding order.
func (r *Replacements) Arrays() []string {
	return append([]string(nil), r.order...)
}

// Len returns the number of bound arrays.
func (r *Replacements) Len() int {
	return len(r.order)
}
