// Package machine implements the stack-based parsing machine: a compiler
// from the expression IR to a flat instruction stream, and an interpreter
// that executes it with an explicit backtrack/return/mark stack, following
// the scheme of Medeiros & Ierusalimschy.
package machine

import "github.com/hucsmn/pego/internal/actions"

// Opcode is the instruction operation.
type Opcode int

const (
	OpSCAN Opcode = iota
	OpBRANCH
	OpCOMMIT
	OpUPDATE
	OpRESTORE
	OpFAILTWICE
	OpCALL
	OpRETURN
	OpJUMP
	OpFAIL
	OpPASS
	OpNOOP
)

func (op Opcode) String() string {
	switch op {
	case OpSCAN:
		return "SCAN"
	case OpBRANCH:
		return "BRANCH"
	case OpCOMMIT:
		return "COMMIT"
	case OpUPDATE:
		return "UPDATE"
	case OpRESTORE:
		return "RESTORE"
	case OpFAILTWICE:
		return "FAILTWICE"
	case OpCALL:
		return "CALL"
	case OpRETURN:
		return "RETURN"
	case OpJUMP:
		return "JUMP"
	case OpFAIL:
		return "FAIL"
	case OpPASS:
		return "PASS"
	case OpNOOP:
		return "NOOP"
	}
	return "?"
}

// Instr is one instruction: an opcode, an offset (for the jump family) or a
// scanner (for SCAN), and the three flags that a mark/capture/action may be
// spliced onto: Marking, Capturing, HasAction.
type Instr struct {
	Op Opcode

	Off     int
	Scanner Scanner

	// Target is the symbolic CALL destination before linking; TargetIP is
	// the patched absolute instruction index after linking.
	Target   string
	TargetIP int

	Marking   bool
	Capturing bool
	HasAction bool
	Action    actions.Action
}

// dataCapable reports whether an instruction is of a kind that can carry any
// mark/capture/action flag at all. Only SCAN and NOOP are eligible: every
// control-flow opcode (CALL, BRANCH, COMMIT, UPDATE, RESTORE, FAILTWICE,
// JUMP, RETURN, FAIL, PASS) either has no single, unambiguous "success"
// moment to hang a data-producing flag on, or (CALL) produces its observable
// effect inside the callee rather than at the call site itself.
func dataCapable(in Instr) bool {
	return in.Op == OpSCAN || in.Op == OpNOOP
}

// canCarryMarking reports whether in can be the first instruction of a
// CAP/RUL/BND compilation, carrying the Marking flag.
func canCarryMarking(in Instr) bool {
	return dataCapable(in) && !in.Marking
}

// canCarryFinal reports whether in can be the last instruction of a
// CAP/RUL/BND compilation, carrying Capturing or HasAction.
func canCarryFinal(in Instr) bool {
	return dataCapable(in) && !in.Capturing && !in.HasAction
}
