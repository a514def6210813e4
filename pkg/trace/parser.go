// Package trace parses the line-based instruction trace format consumed by
// the txdep replay tool. Each line is one instruction or frame directive;
// blank lines and #-comments are skipped. Operand tokens are %name value
// references, bare literals, or ?array symbolic references; a trailing !
// flags the operand as relevant to the unsatisfiability core.
package trace

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/l3aro/go-interpolant-deps/pkg/ir"
)

// Op distinguishes trace events.
type Op string

const (
	OpInstruction Op = "instruction" // carries an ir.Instruction
	OpEnter       Op = "enter"       // enter the callee frame of the pending call
	OpLeave       Op = "leave"       // leave the current frame
)

// Event is one parsed trace line.
type Event struct {
	Op    Op
	Instr ir.Instruction // set when Op == OpInstruction
	Site  ir.ValueID     // set when Op == OpEnter
	Line  int            // 1-based source line, for error reporting
}

// ParseFile parses a trace file.
func ParseFile(path string) ([]Event, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open trace file: %w", err)
	}
	defer f.Close()
	return Parse(f)
}

// Parse reads trace events from the reader.
func Parse(r io.Reader) ([]Event, error) {
	var events []Event
	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		ev, err := parseLine(line, lineNo)
		if err != nil {
			return nil, err
		}
		events = append(events, ev)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read trace: %w", err)
	}
	return events, nil
}

func parseLine(line string, lineNo int) (Event, error) {
	fields := strings.Fields(line)
	op, args := fields[0], fields[1:]
	switch op {
	case "alloc":
		if len(args) != 1 {
			return Event{}, fmt.Errorf("line %d: alloc expects 1 operand, got %d", lineNo, len(args))
		}
		id, err := valueRef(args[0], lineNo)
		if err != nil {
			return Event{}, err
		}
		return Event{Op: OpInstruction, Instr: ir.Alloc{Result: id}, Line: lineNo}, nil

	case "load":
		if len(args) != 2 {
			return Event{}, fmt.Errorf("line %d: load expects 2 operands, got %d", lineNo, len(args))
		}
		result, err := valueRef(args[0], lineNo)
		if err != nil {
			return Event{}, err
		}
		addrID, addrExpr, err := operand(args[1], lineNo)
		if err != nil {
			return Event{}, err
		}
		resultExpr := ir.Expr{Text: string(result)}
		return Event{Op: OpInstruction, Line: lineNo, Instr: ir.Load{
			Result:      result,
			Address:     addrID,
			AddressExpr: addrExpr,
			ResultExpr:  resultExpr,
		}}, nil

	case "store":
		if len(args) != 2 {
			return Event{}, fmt.Errorf("line %d: store expects 2 operands, got %d", lineNo, len(args))
		}
		addrID, addrExpr, err := operand(args[0], lineNo)
		if err != nil {
			return Event{}, err
		}
		valID, valExpr, err := operand(args[1], lineNo)
		if err != nil {
			return Event{}, err
		}
		return Event{Op: OpInstruction, Line: lineNo, Instr: ir.Store{
			Address:     addrID,
			Value:       valID,
			AddressExpr: addrExpr,
			ValueExpr:   valExpr,
		}}, nil

	case "compute":
		if len(args) < 1 {
			return Event{}, fmt.Errorf("line %d: compute expects a result operand", lineNo)
		}
		result, err := valueRef(args[0], lineNo)
		if err != nil {
			return Event{}, err
		}
		operands := make([]ir.ValueID, 0, len(args)-1)
		for _, tok := range args[1:] {
			id, _, err := operand(tok, lineNo)
			if err != nil {
				return Event{}, err
			}
			operands = append(operands, id)
		}
		return Event{Op: OpInstruction, Line: lineNo, Instr: ir.Compute{Result: result, Operands: operands}}, nil

	case "call":
		return parseCall(args, lineNo)

	case "enter":
		if len(args) != 1 {
			return Event{}, fmt.Errorf("line %d: enter expects a call site", lineNo)
		}
		site, err := valueRef(args[0], lineNo)
		if err != nil {
			return Event{}, err
		}
		return Event{Op: OpEnter, Site: site, Line: lineNo}, nil

	case "leave":
		if len(args) != 0 {
			return Event{}, fmt.Errorf("line %d: leave takes no operands", lineNo)
		}
		return Event{Op: OpLeave, Line: lineNo}, nil

	default:
		return Event{}, fmt.Errorf("line %d: unknown operation %q", lineNo, op)
	}
}

// parseCall parses: call %site @fn (%a1 %a2) -> (%p1 %p2)
func parseCall(args []string, lineNo int) (Event, error) {
	rest := strings.Join(args, " ")
	fields := strings.Fields(rest)
	if len(fields) < 2 || !strings.HasPrefix(fields[1], "@") {
		return Event{}, fmt.Errorf("line %d: call expects a site and an @function", lineNo)
	}
	site, err := valueRef(fields[0], lineNo)
	if err != nil {
		return Event{}, err
	}
	callee := ir.FuncID(strings.TrimPrefix(fields[1], "@"))

	open := strings.Index(rest, "(")
	arrow := strings.Index(rest, "->")
	if open < 0 || arrow < 0 || arrow < open {
		return Event{}, fmt.Errorf("line %d: call expects (args) -> (params)", lineNo)
	}
	argList, err := refList(rest[open:arrow], lineNo)
	if err != nil {
		return Event{}, err
	}
	paramList, err := refList(rest[arrow+2:], lineNo)
	if err != nil {
		return Event{}, err
	}
	return Event{Op: OpInstruction, Line: lineNo, Instr: ir.Call{
		Site:   site,
		Callee: callee,
		Args:   argList,
		Params: paramList,
	}}, nil
}

// refList parses a parenthesized space-separated list of %refs.
func refList(s string, lineNo int) ([]ir.ValueID, error) {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "(") || !strings.HasSuffix(s, ")") {
		return nil, fmt.Errorf("line %d: expected a parenthesized list, got %q", lineNo, s)
	}
	inner := strings.TrimSpace(s[1 : len(s)-1])
	if inner == "" {
		return nil, nil
	}
	var ids []ir.ValueID
	for _, tok := range strings.Fields(inner) {
		id, err := valueRef(tok, lineNo)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// valueRef parses a %name reference.
func valueRef(tok string, lineNo int) (ir.ValueID, error) {
	if !strings.HasPrefix(tok, "%") || len(tok) < 2 {
		return "", fmt.Errorf("line %d: expected a %%ref, got %q", lineNo, tok)
	}
	return ir.ValueID(tok[1:]), nil
}

// operand parses a general operand token: %name reference, ?array symbolic
// reference, or a bare literal. A trailing ! marks the operand in-core.
func operand(tok string, lineNo int) (ir.ValueID, ir.Expr, error) {
	if tok == "" {
		return "", ir.Expr{}, fmt.Errorf("line %d: empty operand", lineNo)
	}
	inCore := false
	if strings.HasSuffix(tok, "!") {
		inCore = true
		tok = strings.TrimSuffix(tok, "!")
		if tok == "" {
			return "", ir.Expr{}, fmt.Errorf("line %d: empty operand before !", lineNo)
		}
	}
	switch {
	case strings.HasPrefix(tok, "%"):
		if len(tok) < 2 {
			return "", ir.Expr{}, fmt.Errorf("line %d: expected a name after %%", lineNo)
		}
		id := ir.ValueID(tok[1:])
		return id, ir.Expr{Text: string(id), InCore: inCore}, nil
	case strings.HasPrefix(tok, "?"):
		if len(tok) < 2 {
			return "", ir.Expr{}, fmt.Errorf("line %d: expected an array name after ?", lineNo)
		}
		array := tok[1:]
		return ir.ValueID(array), ir.Expr{
			Text:   fmt.Sprintf("(select %s 0)", array),
			Arrays: []string{array},
			InCore: inCore,
		}, nil
	default:
		return ir.ValueID(tok), ir.Expr{Text: tok, InCore: inCore}, nil
	}
}
