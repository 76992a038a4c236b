package machine

import "github.com/hucsmn/pego/internal/actions"

// frame is the single stack entry type shared by backtrack points (pushed
// by BRANCH/UPDATE, Pos >= 0), return addresses (pushed by CALL, Pos == -1),
// and mark entries (pushed when an instruction carries Marking, Pos == -1,
// Mark holds the actual recorded start position). Pos < 0 is exactly the
// sentinel the generic failure search uses to skip non-backtrack entries.
type frame struct {
	IP   int
	Pos  int
	Mark int
	Argc int
	Kwc  int
}

type kv struct {
	Name  string
	Value interface{}
}

// VM executes a compiled Program's start definition against one input
// string per Match call; it holds no state across calls.
type VM struct {
	prog  *Program
	start string
}

// New wraps a compiled Program and names its entry definition for Match.
func New(prog *Program, start string) *VM {
	return &VM{prog: prog, start: start}
}

// Match runs the program from its start definition against input, returning
// the observable result tuple. ok is false for an ordinary parse failure (no
// error); err is non-nil only when an action raised one.
func (vm *VM) Match(input string) (end int, args []interface{}, kwargs map[string]interface{}, ok bool, err error) {
	startIP, known := vm.prog.DefStart[vm.start]
	if !known {
		return 0, nil, nil, false, nil
	}

	var stack []frame
	// Bottom failure sentinel and the top-level return entry (RETURN from
	// the start rule lands on PASS).
	stack = append(stack, frame{IP: 0, Pos: -1, Mark: -1, Argc: 0, Kwc: 0})
	stack = append(stack, frame{IP: vm.prog.PassIndex, Pos: -1, Mark: -1, Argc: 0, Kwc: 0})

	ip := startIP
	pos := 0
	var argv []interface{}
	var kwv []kv

	for {
		in := vm.prog.Instrs[ip]

		if in.Marking {
			stack = append(stack, frame{IP: 0, Pos: -1, Mark: pos, Argc: len(argv), Kwc: len(kwv)})
		}

		failed := false
		switch in.Op {
		case OpSCAN:
			newpos, matched := in.Scanner.Scan(input, pos)
			if matched {
				pos = newpos
				ip++
			} else {
				failed = true
			}

		case OpBRANCH:
			stack = append(stack, frame{IP: ip + in.Off, Pos: pos, Mark: -1, Argc: len(argv), Kwc: len(kwv)})
			ip++

		case OpCOMMIT:
			stack = stack[:len(stack)-1]
			ip += in.Off

		case OpUPDATE:
			top := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			if top.Pos == pos {
				// Zero-width successful iteration: stop looping rather
				// than re-push an identical entry and loop forever.
				ip++
			} else {
				stack = append(stack, frame{IP: ip + 1, Pos: pos, Mark: top.Mark, Argc: len(argv), Kwc: len(kwv)})
				ip += in.Off
			}

		case OpRESTORE:
			top := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			pos = top.Pos
			argv = argv[:top.Argc]
			kwv = kwv[:top.Kwc]
			ip += in.Off

		case OpFAILTWICE:
			top := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			pos = top.Pos
			argv = argv[:top.Argc]
			kwv = kwv[:top.Kwc]
			failed = true

		case OpCALL:
			stack = append(stack, frame{IP: ip + 1, Pos: -1, Mark: -1, Argc: -1, Kwc: -1})
			ip = in.TargetIP

		case OpRETURN:
			top := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			ip = top.IP

		case OpJUMP:
			ip += in.Off

		case OpFAIL:
			failed = true

		case OpPASS:
			return pos, append([]interface{}{}, argv...), kvToMap(kwv), true, nil

		case OpNOOP:
			ip++
		}

		if failed {
			found := false
			for len(stack) > 0 {
				top := stack[len(stack)-1]
				stack = stack[:len(stack)-1]
				if top.Pos >= 0 {
					pos = top.Pos
					argv = argv[:top.Argc]
					kwv = kwv[:top.Kwc]
					ip = top.IP
					found = true
					break
				}
			}
			if !found {
				return 0, nil, nil, false, nil
			}
			continue
		}

		if in.Capturing {
			mark := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			argv = append(argv[:mark.Argc], input[mark.Mark:pos])
			kwv = kwv[:mark.Kwc]
		} else if in.HasAction {
			mark := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			childArgs := append([]interface{}{}, argv[mark.Argc:]...)
			childKwargs := kvToMap(kwv[mark.Kwc:])
			newArgs, newKwargs, aerr := in.Action.Invoke(input, actions.Pos{Start: mark.Mark, End: pos}, childArgs, childKwargs)
			if aerr != nil {
				return 0, nil, nil, false, aerr
			}
			argv = append(argv[:mark.Argc], newArgs...)
			kwv = kwv[:mark.Kwc]
			for k, v := range newKwargs {
				kwv = append(kwv, kv{Name: k, Value: v})
			}
		}
	}
}

func kvToMap(s []kv) map[string]interface{} {
	if len(s) == 0 {
		return nil
	}
	m := make(map[string]interface{}, len(s))
	for _, e := range s {
		m[e.Name] = e.Value
	}
	return m
}
