package trace

import (
	"fmt"

	"github.com/l3aro/go-interpolant-deps/pkg/state"
)

// Replay applies parsed trace events to an execution state in order.
// Frame-directive errors are reported with the offending line; instruction
// execution itself follows the engine's missing-fact-is-not-an-error model
// and cannot fail.
func Replay(events []Event, s *state.State) error {
	for _, ev := range events {
		switch ev.Op {
		case OpInstruction:
			s.Execute(ev.Instr)
		case OpEnter:
			s.EnterCall(ev.Site)
		case OpLeave:
			if s.CallDepth() == 0 {
				return fmt.Errorf("line %d: leave without a matching enter", ev.Line)
			}
			s.LeaveCall()
		default:
			return fmt.Errorf("line %d: unknown event %q", ev.Line, ev.Op)
		}
	}
	return nil
}
