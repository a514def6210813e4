// Package ir defines the instruction-level input consumed by the dependency
// tracking engine. Instructions, values, and functions are opaque identifiers
// owned by the external program representation; this package assigns them no
// semantics beyond identity and equality.
package ir

import (
	"fmt"
	"strings"
)

// ValueID identifies a program value or instruction result.
type ValueID string

// FuncID identifies a program function.
type FuncID string

// Expr is a rendered expression payload attached to load/store instructions
// by the external interpreter. An expression is symbolic when it references
// at least one symbolic array.
type Expr struct {
	Text   string   `json:"text" msgpack:"text"`     // rendered expression
	Arrays []string `json:"arrays" msgpack:"arrays"` // symbolic array identifiers referenced by Text
	InCore bool     `json:"in_core" msgpack:"in_core"` // flagged relevant to the current unsatisfiability core
}

// Symbolic reports whether the expression depends on symbolic input.
func (e Expr) Symbolic() bool {
	return len(e.Arrays) > 0
}

// Rename returns a copy of the expression with each array identifier
// replaced according to the mapping. Occurrences inside Text are rewritten
// as whole words delimited by the SMT-LIB punctuation the renderer emits.
func (e Expr) Rename(mapping map[string]string) Expr {
	if len(e.Arrays) == 0 {
		return e
	}
	out := Expr{Text: e.Text, Arrays: make([]string, len(e.Arrays)), InCore: e.InCore}
	for i, a := range e.Arrays {
		bound, ok := mapping[a]
		if !ok {
			out.Arrays[i] = a
			continue
		}
		out.Arrays[i] = bound
		out.Text = replaceWord(out.Text, a, bound)
	}
	return out
}

// replaceWord substitutes whole-token occurrences of old in s.
func replaceWord(s, old, bound string) string {
	var sb strings.Builder
	start := 0
	for {
		i := strings.Index(s[start:], old)
		if i < 0 {
			sb.WriteString(s[start:])
			break
		}
		i += start
		before := i == 0 || isDelim(s[i-1])
		afterIdx := i + len(old)
		after := afterIdx == len(s) || isDelim(s[afterIdx])
		sb.WriteString(s[start:i])
		if before && after {
			sb.WriteString(bound)
		} else {
			sb.WriteString(old)
		}
		start = afterIdx
	}
	return sb.String()
}

func isDelim(c byte) bool {
	return c == ' ' || c == '(' || c == ')' || c == ','
}

// Kind enumerates the instruction variants relevant to dependency tracking.
type Kind string

const (
	KindAlloc   Kind = "alloc"   // memory allocation
	KindLoad    Kind = "load"    // read from memory
	KindStore   Kind = "store"   // write to memory
	KindCompute Kind = "compute" // arithmetic, cast, or other value computation
	KindCall    Kind = "call"    // function call
)

// Instruction is the closed set of instruction variants the engine executes.
// The set is sealed; Frame.Execute switches exhaustively over it.
type Instruction interface {
	Kind() Kind
	String() string
}

// Alloc creates a memory location. Result names both the allocation site and
// the pointer value it defines.
type Alloc struct {
	Result ValueID
}

// Load reads the value currently stored at Address into Result.
type Load struct {
	Result  ValueID
	Address ValueID
	// AddressExpr and ResultExpr are supplied by the interpreter for
	// mirroring the read into the shadow store.
	AddressExpr Expr
	ResultExpr  Expr
}

// Store writes Value to the location Address points to.
type Store struct {
	Address ValueID
	Value   ValueID
	// AddressExpr and ValueExpr are supplied by the interpreter for
	// mirroring the write into the shadow store.
	AddressExpr Expr
	ValueExpr   Expr
}

// Compute produces Result from the operand values (arithmetic, cast, phi,
// comparison; the distinction is irrelevant to dependency tracking).
type Compute struct {
	Result   ValueID
	Operands []ValueID
}

// Call transfers control to Callee, passing Args bound to the formal Params.
type Call struct {
	Site   ValueID
	Callee FuncID
	Args   []ValueID
	Params []ValueID
}

func (Alloc) Kind() Kind   { return KindAlloc }
func (Load) Kind() Kind    { return KindLoad }
func (Store) Kind() Kind   { return KindStore }
func (Compute) Kind() Kind { return KindCompute }
func (Call) Kind() Kind    { return KindCall }

func (i Alloc) String() string { return fmt.Sprintf("alloc %s", i.Result) }
func (i Load) String() string  { return fmt.Sprintf("load %s <- %s", i.Result, i.Address) }
func (i Store) String() string { return fmt.Sprintf("store %s -> %s", i.Value, i.Address) }

func (i Compute) String() string {
	ops := make([]string, len(i.Operands))
	for j, op := range i.Operands {
		ops[j] = string(op)
	}
	return fmt.Sprintf("compute %s <- [%s]", i.Result, strings.Join(ops, " "))
}

func (i Call) String() string {
	args := make([]string, len(i.Args))
	for j, a := range i.Args {
		args[j] = string(a)
	}
	return fmt.Sprintf("call %s @%s(%s)", i.Site, i.Callee, strings.Join(args, " "))
}
