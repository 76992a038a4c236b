package machine

import (
	"github.com/hucsmn/pego/internal/actions"
	"github.com/hucsmn/pego/internal/ir"
)

// Program is a fully linked instruction stream ready for the VM, plus the
// entry point for each definition.
type Program struct {
	Instrs    []Instr
	DefStart  map[string]int
	PassIndex int
}

// Compile compiles every definition in the grammar and links them into one
// Program. Layout: a leading FAIL at index 0, then for each name in order
// ⟨body⟩ RETURN, then a trailing PASS. CALL targets are patched to absolute
// indices once every definition's start offset is known.
func Compile(order []string, defs map[string]*ir.Expression) *Program {
	prog := &Program{DefStart: make(map[string]int, len(order))}
	prog.Instrs = append(prog.Instrs, Instr{Op: OpFAIL})

	for _, name := range order {
		prog.DefStart[name] = len(prog.Instrs)
		body := compileExpr(defs[name])
		prog.Instrs = append(prog.Instrs, body...)
		prog.Instrs = append(prog.Instrs, Instr{Op: OpRETURN})
	}
	prog.PassIndex = len(prog.Instrs)
	prog.Instrs = append(prog.Instrs, Instr{Op: OpPASS})

	for i := range prog.Instrs {
		if prog.Instrs[i].Op == OpCALL {
			prog.Instrs[i].TargetIP = prog.DefStart[prog.Instrs[i].Target]
		}
	}
	return prog
}

func compileExpr(e *ir.Expression) []Instr {
	switch e.Op {
	case ir.DOT:
		return []Instr{{Op: OpSCAN, Scanner: DotScanner{}}}
	case ir.LIT:
		return []Instr{{Op: OpSCAN, Scanner: LiteralScanner{Lit: e.Lit}}}
	case ir.CLS:
		return []Instr{{Op: OpSCAN, Scanner: CharClassScanner{Ranges: e.Ranges, Negate: e.Negate, Min: 1, Max: 1}}}
	case ir.RGX:
		return []Instr{{Op: OpSCAN, Scanner: RegexScanner{Re: e.Regex}}}
	case ir.SYM:
		return []Instr{{Op: OpCALL, Target: e.Name}}
	case ir.OPT:
		return compileOpt(e.Child)
	case ir.STR:
		return compileRepeat(e.Child, 0)
	case ir.PLS:
		body := compileExpr(e.Child)
		rest := compileRepeat(e.Child, 0)
		return append(append([]Instr{}, body...), rest...)
	case ir.AND:
		return compileAnd(e.Child)
	case ir.NOT:
		return compileNot(e.Child)
	case ir.CAP:
		body := compileExpr(e.Child)
		return wrapMark(body, e.Child.Op == ir.CHC,
			func(in *Instr) { in.Marking = true },
			func(in *Instr) { in.Capturing = true })
	case ir.BND:
		return compileRul(e.Child, actions.Bind{Name: e.Name})
	case ir.DIS:
		return compileExpr(e.Child)
	case ir.RUL:
		if e.Action == nil {
			return compileExpr(e.Child)
		}
		return compileRul(e.Child, e.Action)
	case ir.SEQ:
		var out []Instr
		for _, c := range e.Children {
			out = append(out, compileExpr(c)...)
		}
		return out
	case ir.CHC:
		return compileChc(e.Children)
	}
	// IGN must have been eliminated by the optimizer before compilation.
	return []Instr{{Op: OpFAIL}}
}

func compileRul(child *ir.Expression, action actions.Action) []Instr {
	body := compileExpr(child)
	return wrapMark(body, child.Op == ir.CHC,
		func(in *Instr) { in.Marking = true },
		func(in *Instr) { in.HasAction = true; in.Action = action })
}

// wrapMark implements the shared CAP/RUL placement rule: mark the first
// instruction, finalize the last, splicing a dedicated NOOP carrier whenever
// the natural candidate cannot take the flag (wrong opcode, already
// carrying a flag from an inner wrap, or isChc, which always forces a
// trailing NOOP since marking on any single branch of a CHC would not cover
// whichever branch actually committed).
func wrapMark(body []Instr, isChc bool, setFirst, setLast func(*Instr)) []Instr {
	out := make([]Instr, len(body))
	copy(out, body)
	if len(out) == 0 {
		out = []Instr{{Op: OpNOOP}}
	}

	if !canCarryMarking(out[0]) {
		out = append([]Instr{{Op: OpNOOP}}, out...)
	}
	setFirst(&out[0])

	last := len(out) - 1
	if isChc || !canCarryFinal(out[last]) {
		out = append(out, Instr{Op: OpNOOP})
		last = len(out) - 1
	}
	setLast(&out[last])
	return out
}

// compileOpt: BRANCH L1; <e>; COMMIT 1; L1:
func compileOpt(e *ir.Expression) []Instr {
	body := compileExpr(e)
	n := len(body)
	out := make([]Instr, 0, n+2)
	out = append(out, Instr{Op: OpBRANCH, Off: n + 2})
	out = append(out, body...)
	out = append(out, Instr{Op: OpCOMMIT, Off: 1})
	return out
}

// compileRepeat builds the zero-or-more loop template shared by STR and the
// tail of PLS: BRANCH L1; <e>; UPDATE -n; L1:, folding into a single
// possessive CharClassScanner when e is a bare, unflagged class scan.
func compileRepeat(e *ir.Expression, min int) []Instr {
	if sc, ok := foldableClass(e); ok {
		sc.Min = min
		sc.Max = -1
		return []Instr{{Op: OpSCAN, Scanner: sc}}
	}
	body := compileExpr(e)
	n := len(body)
	out := make([]Instr, 0, n+2)
	out = append(out, Instr{Op: OpBRANCH, Off: n + 2})
	out = append(out, body...)
	out = append(out, Instr{Op: OpUPDATE, Off: -n})
	return out
}

func foldableClass(e *ir.Expression) (CharClassScanner, bool) {
	if e.Op != ir.CLS {
		return CharClassScanner{}, false
	}
	return CharClassScanner{Ranges: e.Ranges, Negate: e.Negate}, true
}

// compileAnd implements the classic "BackCommit" encoding for positive
// lookahead: BRANCH F; <e>; RESTORE 2; FAIL; (exit). On success of e, falls
// through to RESTORE, which undoes any consumption and jumps past FAIL to
// the exit. On failure of e, the generic fail handler restores the entry we
// pushed and resumes at the FAIL instruction, forcing a second failure that
// propagates past our (already-consumed) entry to the caller's.
func compileAnd(e *ir.Expression) []Instr {
	body := compileExpr(e)
	n := len(body)
	out := make([]Instr, 0, n+3)
	out = append(out, Instr{Op: OpBRANCH, Off: n + 2})
	out = append(out, body...)
	out = append(out, Instr{Op: OpRESTORE, Off: 2})
	out = append(out, Instr{Op: OpFAIL})
	return out
}

// compileNot: BRANCH L1; <e>; FAILTWICE; L1: On success of e, FAILTWICE pops
// our entry, restores position, and forces a failure that searches past it
// for the caller's entry. On failure of e, the generic fail handler finds
// our entry and resumes at L1: (zero-width success).
func compileNot(e *ir.Expression) []Instr {
	body := compileExpr(e)
	n := len(body)
	out := make([]Instr, 0, n+2)
	out = append(out, Instr{Op: OpBRANCH, Off: n + 2})
	out = append(out, body...)
	out = append(out, Instr{Op: OpFAILTWICE})
	return out
}

// compileChc builds the ordered-choice chain back-to-front: the last
// alternative is compiled bare (its own failure propagates outward
// normally); each earlier alternative is wrapped with a BRANCH to the start
// of the remaining chain and a COMMIT past it to the overall exit.
func compileChc(es []*ir.Expression) []Instr {
	rest := compileExpr(es[len(es)-1])
	for i := len(es) - 2; i >= 0; i-- {
		body := compileExpr(es[i])
		nb, nr := len(body), len(rest)
		block := make([]Instr, 0, nb+nr+2)
		block = append(block, Instr{Op: OpBRANCH, Off: nb + 2})
		block = append(block, body...)
		block = append(block, Instr{Op: OpCOMMIT, Off: nr + 1})
		block = append(block, rest...)
		rest = block
	}
	return rest
}
