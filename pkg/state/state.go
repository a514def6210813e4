// Package state ties the dependency frame chain and the shadow store
// together into one execution-state object: the unit that the surrounding
// exploration scheduler forks at branches and destroys when a path is
// abandoned. A state assumes exclusive, non-reentrant access during any
// single operation; no internal locking is provided or required.
package state

import (
	"fmt"
	"io"

	"github.com/l3aro/go-interpolant-deps/pkg/deps"
	"github.com/l3aro/go-interpolant-deps/pkg/interpolant"
	"github.com/l3aro/go-interpolant-deps/pkg/ir"
)

// State is one execution state: a frame chain, a shadow store, and the
// ordered call history identifying the current recursive call context.
type State struct {
	frame       *deps.Frame
	store       *interpolant.Store
	callHistory []ir.ValueID
}

// New returns a fresh root state with its own version counter.
func New() *State {
	return &State{
		frame: deps.NewFrame(nil, deps.NewVersions()),
		store: interpolant.NewStore(),
	}
}

// Frame returns the current (innermost) dependency frame.
func (s *State) Frame() *deps.Frame { return s.frame }

// Store returns the state's shadow store.
func (s *State) Store() *interpolant.Store { return s.store }

// CallHistory returns the ordered call-site sequence of the current context.
func (s *State) CallHistory() []ir.ValueID {
	return append([]ir.ValueID(nil), s.callHistory...)
}

// CallDepth returns the number of calls entered and not yet left.
func (s *State) CallDepth() int { return len(s.callHistory) }

// Execute runs one instruction through the dependency frame and, for loads
// and stores, mirrors the address/value pair into the shadow store.
func (s *State) Execute(instr ir.Instruction) {
	s.frame.Execute(instr)
	switch in := instr.(type) {
	case ir.Load:
		s.store.UpdateStoreWithLoadedValue(s.address(in.Address, in.AddressExpr), in.AddressExpr, in.ResultExpr)
	case ir.Store:
		s.store.UpdateStore(s.address(in.Address, in.AddressExpr), in.AddressExpr, in.ValueExpr)
	}
}

// address derives the canonical store address for an address operand. The
// base entity is the resolved allocation site when the operand is a tracked
// pointer, the operand itself otherwise.
func (s *State) address(operand ir.ValueID, expr ir.Expr) interpolant.Address {
	base := operand
	if alloc := s.frame.ResolveAllocation(s.frame.LatestValue(operand)); alloc != nil {
		base = alloc.Site()
	}
	return interpolant.Address{Base: base, Expr: expr}
}

// EnterCall pushes a callee frame after a call instruction was executed,
// binds the pending arguments to the callee's formal parameters, and extends
// the call history with the call site.
func (s *State) EnterCall(site ir.ValueID) {
	s.frame = deps.NewCallFrame(s.frame)
	s.frame.BindCallArguments()
	s.callHistory = append(s.callHistory, site)
}

// LeaveCall unwinds to the innermost call frame, discards it together with
// any fork frames pushed inside the call, and truncates the call history.
// The caller resumes in a fresh frame chained to its pre-call facts, so a
// sibling forked inside the call keeps an unchanged view of the chain.
// Leaving with no call entered is a fatal invariant violation.
func (s *State) LeaveCall() {
	boundary := s.frame
	for boundary != nil && !boundary.CallBoundary() {
		boundary = boundary.Tail()
	}
	if boundary == nil {
		panic("state: LeaveCall on the root frame")
	}
	s.frame = deps.NewFrame(boundary.Tail(), nil)
	s.callHistory = s.callHistory[:len(s.callHistory)-1]
}

// Fork copies the state at a branch. The shadow store is cloned with shared
// entries; the frame chain up to this point is frozen and both sides get a
// fresh frame chained to it, so neither fork mutates state the other sees.
// Fork frames do not count as call boundaries: the call depth of both sides
// stays that of the original state.
func (s *State) Fork() *State {
	parentFrame, childFrame := s.frame.Fork()
	child := &State{
		frame:       childFrame,
		store:       s.store.Clone(),
		callHistory: append([]ir.ValueID(nil), s.callHistory...),
	}
	s.frame = parentFrame
	return child
}

// GetInterpolant exports the concretely- and symbolically-addressed
// interpolant maps for the current call context.
func (s *State) GetInterpolant(repl *interpolant.Replacements, coreOnly bool) (interpolant.TopInterpolantStore, interpolant.TopInterpolantStore) {
	return s.store.GetStoredExpressions(s.callHistory, repl, coreOnly)
}

// Snapshot exports the store in persistable form for the current context.
func (s *State) Snapshot(repl *interpolant.Replacements, coreOnly bool) *interpolant.Snapshot {
	return s.store.Snapshot(s.callHistory, repl, coreOnly)
}

// Print writes a diagnostic dump of the frame chain and the store.
func (s *State) Print(w io.Writer) {
	fmt.Fprintln(w, "=== dependency frames ===")
	s.frame.Print(w)
	fmt.Fprintln(w, "=== shadow store ===")
	s.store.Print(w)
}
