package deps

import (
	"container/list"
	"fmt"
	"io"
	"strings"

	"github.com/l3aro/go-interpolant-deps/pkg/ir"
)

// Frame accumulates dependency facts for one path segment and chains to the
// frame of the enclosing segment through its tail. A frame's effective fact
// set is its own records plus, recursively, its tail's; lookups search the
// current frame first, so nearer facts shadow ancestor facts.
type Frame struct {
	tail         *Frame
	versions     *Versions
	callBoundary bool

	// pending call, recorded by RegisterCallArguments and consumed by the
	// callee frame's BindCallArguments
	pendingCall  bool
	callee       ir.FuncID
	argumentVals []*VersionedValue
	formalParams []ir.ValueID

	equalities  []*PointerEquality
	cells       []*StorageCell
	flows       []*FlowsTo
	values      []*VersionedValue
	allocations []*VersionedAllocation
}

// NewFrame creates a frame chained to tail; tail is nil for the root path
// segment. The root frame must be given a Versions counter; child frames
// inherit their tail's when versions is nil.
func NewFrame(tail *Frame, versions *Versions) *Frame {
	if versions == nil {
		if tail == nil {
			panic("deps: root frame requires a versions counter")
		}
		versions = tail.versions
	}
	return &Frame{tail: tail, versions: versions}
}

// NewCallFrame creates the frame for a callee body. Call frames are what
// call-stack unwinding stops at; plain frames (branch forks, post-return
// continuations) are transparent to it.
func NewCallFrame(tail *Frame) *Frame {
	f := NewFrame(tail, nil)
	f.callBoundary = true
	return f
}

// Tail returns the parent frame, nil for the root.
func (f *Frame) Tail() *Frame { return f.tail }

// CallBoundary reports whether the frame opens a callee body.
func (f *Frame) CallBoundary() bool { return f.callBoundary }

// Fork freezes the frame and returns two fresh frames chained to it, one per
// side of a state fork. Neither side writes to the frozen chain again, so
// each keeps an unchanged view of the other's history. A call registered but
// not yet entered is carried into both sides so either may still enter the
// callee.
func (f *Frame) Fork() (*Frame, *Frame) {
	a := NewFrame(f, nil)
	b := NewFrame(f, nil)
	a.adoptPending(f)
	b.adoptPending(f)
	return a, b
}

func (f *Frame) adoptPending(from *Frame) {
	if !from.pendingCall {
		return
	}
	f.pendingCall = true
	f.callee = from.callee
	f.argumentVals = append([]*VersionedValue(nil), from.argumentVals...)
	f.formalParams = append([]ir.ValueID(nil), from.formalParams...)
}

// Callee returns the function recorded by the last RegisterCallArguments.
func (f *Frame) Callee() ir.FuncID { return f.callee }

func (f *Frame) newValue(v ir.ValueID) *VersionedValue {
	vv := &VersionedValue{value: v, version: f.versions.nextValue()}
	f.values = append(f.values, vv)
	return vv
}

func (f *Frame) newAllocation(site ir.ValueID) *VersionedAllocation {
	va := &VersionedAllocation{site: site, version: f.versions.nextAllocation()}
	f.allocations = append(f.allocations, va)
	return va
}

// LatestValue returns the most recently created value for the identifier,
// searching this frame newest-first and then the tail chain. Nil when the
// identifier has never been seen.
func (f *Frame) LatestValue(v ir.ValueID) *VersionedValue {
	for fr := f; fr != nil; fr = fr.tail {
		for i := len(fr.values) - 1; i >= 0; i-- {
			if fr.values[i].value == v {
				return fr.values[i]
			}
		}
	}
	return nil
}

func (f *Frame) addPointerEquality(v *VersionedValue, a *VersionedAllocation) {
	f.equalities = append(f.equalities, &PointerEquality{value: v, allocation: a})
}

func (f *Frame) addDependency(source, target *VersionedValue) {
	f.flows = append(f.flows, &FlowsTo{source: source, target: target})
}

// updateStore replaces any prior storage cell for the allocation in this
// frame with a fresh one. Ancestor cells are left untouched; the replacement
// shadows them through nearest-frame-first lookup.
func (f *Frame) updateStore(a *VersionedAllocation, v *VersionedValue) {
	for i, c := range f.cells {
		if c.allocation == a {
			f.cells[i] = &StorageCell{allocation: a, value: v}
			return
		}
	}
	f.cells = append(f.cells, &StorageCell{allocation: a, value: v})
}

// ResolveAllocation returns the allocation the value is known to point to,
// searching pointer equalities in this frame and then the tail chain. Nil
// when the value is not a tracked pointer.
func (f *Frame) ResolveAllocation(v *VersionedValue) *VersionedAllocation {
	if v == nil {
		return nil
	}
	for fr := f; fr != nil; fr = fr.tail {
		for i := len(fr.equalities) - 1; i >= 0; i-- {
			if a := fr.equalities[i].Equals(v); a != nil {
				return a
			}
		}
	}
	return nil
}

// storedValue returns the value currently held by the allocation, nearest
// frame first. Nil when the location was never written.
func (f *Frame) storedValue(a *VersionedAllocation) *VersionedValue {
	for fr := f; fr != nil; fr = fr.tail {
		for i := len(fr.cells) - 1; i >= 0; i-- {
			if v := fr.cells[i].Stores(a); v != nil {
				return v
			}
		}
	}
	return nil
}

// StorageOf returns the allocation whose cell holds the given value, used to
// recover the provenance of a loaded value. Nil when no cell holds it.
func (f *Frame) StorageOf(v *VersionedValue) *VersionedAllocation {
	for fr := f; fr != nil; fr = fr.tail {
		for i := len(fr.cells) - 1; i >= 0; i-- {
			if a := fr.cells[i].StorageOf(v); a != nil {
				return a
			}
		}
	}
	return nil
}

// Depends reports whether a directed path of flows-to edges leads from
// source to target through this frame's edges and the tail chain.
// Traversal terminates because versions increase monotonically along edges.
func (f *Frame) Depends(source, target *VersionedValue) bool {
	if source == nil || target == nil || source == target {
		return false
	}

	visited := make(map[*VersionedValue]bool)
	queue := list.New()
	queue.PushBack(source)
	visited[source] = true

	for queue.Len() > 0 {
		cur := queue.Remove(queue.Front()).(*VersionedValue)
		for fr := f; fr != nil; fr = fr.tail {
			for _, e := range fr.flows {
				if e.source != cur {
					continue
				}
				if e.target == target {
					return true
				}
				if !visited[e.target] {
					visited[e.target] = true
					queue.PushBack(e.target)
				}
			}
		}
	}
	return false
}

// Execute is the sole instruction-level entry point. It dispatches on the
// instruction variant and records the resulting facts in this frame.
func (f *Frame) Execute(instr ir.Instruction) {
	switch in := instr.(type) {
	case ir.Alloc:
		f.executeAlloc(in)
	case ir.Load:
		f.executeLoad(in)
	case ir.Store:
		f.executeStore(in)
	case ir.Compute:
		f.executeCompute(in)
	case ir.Call:
		f.RegisterCallArguments(in)
	default:
		panic(fmt.Sprintf("deps: unknown instruction %T", instr))
	}
}

func (f *Frame) executeAlloc(in ir.Alloc) {
	v := f.newValue(in.Result)
	a := f.newAllocation(in.Result)
	f.addPointerEquality(v, a)
}

// executeLoad builds the load dependency: the loaded result flows from the
// value currently stored at the resolved allocation. A load from memory
// never written stays a fresh root value, modeling reads of external or
// uninitialized memory.
func (f *Frame) executeLoad(in ir.Load) {
	addr := f.LatestValue(in.Address)
	alloc := f.ResolveAllocation(addr)
	result := f.newValue(in.Result)
	if alloc == nil {
		return
	}
	if stored := f.storedValue(alloc); stored != nil {
		f.addDependency(stored, result)
	}
}

func (f *Frame) executeStore(in ir.Store) {
	val := f.LatestValue(in.Value)
	if val == nil {
		val = f.newValue(in.Value)
	}
	addr := f.LatestValue(in.Address)
	if addr == nil {
		addr = f.newValue(in.Address)
	}
	alloc := f.ResolveAllocation(addr)
	if alloc == nil {
		// first write through an untracked pointer: the address operand
		// becomes a tracked pointer to a fresh allocation
		alloc = f.newAllocation(in.Address)
		f.addPointerEquality(addr, alloc)
	}
	f.updateStore(alloc, val)
}

func (f *Frame) executeCompute(in ir.Compute) {
	result := f.newValue(in.Result)
	for _, op := range in.Operands {
		if src := f.LatestValue(op); src != nil {
			f.addDependency(src, result)
		}
	}
}

// RegisterCallArguments resolves each actual argument to its current value
// and records the pending call for the callee frame to bind.
func (f *Frame) RegisterCallArguments(in ir.Call) {
	f.pendingCall = true
	f.callee = in.Callee
	f.formalParams = append([]ir.ValueID(nil), in.Params...)
	f.argumentVals = f.argumentVals[:0]
	for _, arg := range in.Args {
		v := f.LatestValue(arg)
		if v == nil {
			v = f.newValue(arg)
		}
		f.argumentVals = append(f.argumentVals, v)
	}
}

// BindCallArguments is invoked on the callee's frame after entry. It creates
// fresh values for the formal parameters and flows-to edges from the caller's
// argument values, carrying data dependency across the call boundary without
// exposing the caller's whole fact set. A missing pending call or an
// argument/parameter count mismatch is a fatal invariant violation.
func (f *Frame) BindCallArguments() {
	if f.tail == nil {
		panic("deps: BindCallArguments on a root frame")
	}
	caller := f.tail
	if !caller.pendingCall {
		panic("deps: BindCallArguments without a registered call")
	}
	if len(caller.argumentVals) != len(caller.formalParams) {
		panic(fmt.Sprintf("deps: call to %s binds %d arguments to %d parameters",
			caller.callee, len(caller.argumentVals), len(caller.formalParams)))
	}
	for i, param := range caller.formalParams {
		pv := f.newValue(param)
		f.addDependency(caller.argumentVals[i], pv)
	}
	caller.pendingCall = false
	caller.argumentVals = nil
	caller.formalParams = nil
}

// Print writes a human-readable dump of the frame and its tail chain.
// Diagnostics only; the format carries no compatibility guarantee.
func (f *Frame) Print(w io.Writer) {
	f.print(w, 0)
}

func (f *Frame) print(w io.Writer, depth int) {
	pad := strings.Repeat("  ", depth)
	fmt.Fprintf(w, "%sFRAME", pad)
	if f.callee != "" {
		fmt.Fprintf(w, " (callee @%s)", f.callee)
	}
	fmt.Fprintln(w)
	fmt.Fprintf(w, "%sequalities:\n", pad)
	for _, e := range f.equalities {
		fmt.Fprintf(w, "%s  %s\n", pad, e)
	}
	fmt.Fprintf(w, "%sstores:\n", pad)
	for _, c := range f.cells {
		fmt.Fprintf(w, "%s  %s\n", pad, c)
	}
	fmt.Fprintf(w, "%sflows:\n", pad)
	for _, fl := range f.flows {
		fmt.Fprintf(w, "%s  %s\n", pad, fl)
	}
	if f.tail != nil {
		fmt.Fprintf(w, "%s--- tail ---\n", pad)
		f.tail.print(w, depth+1)
	}
}

func (f *Frame) String() string {
	var sb strings.Builder
	f.Print(&sb)
	return sb.String()
}
