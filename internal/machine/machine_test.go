package machine_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hucsmn/pego/internal/actions"
	"github.com/hucsmn/pego/internal/ir"
	"github.com/hucsmn/pego/internal/machine"
)

func mustCompile(t *testing.T, defs map[string]*ir.Expression, start string) *machine.VM {
	t.Helper()
	order := make([]string, 0, len(defs))
	for name := range defs {
		order = append(order, name)
	}
	prog := machine.Compile(order, defs)
	return machine.New(prog, start)
}

func TestMachineLiteralAndClass(t *testing.T) {
	defs := map[string]*ir.Expression{
		"S": ir.Seq(ir.Lit("ab"), ir.Cls([]ir.Range{{Lo: 'c', Hi: 'z', HasHi: true}}, false)),
	}
	vm := mustCompile(t, defs, "S")

	end, _, _, ok, err := vm.Match("abc")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 3, end)

	_, _, _, ok, err = vm.Match("abA")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMachineChoiceAndRepetition(t *testing.T) {
	digit := ir.Cls([]ir.Range{{Lo: '0', Hi: '9', HasHi: true}}, false)
	defs := map[string]*ir.Expression{
		"S": ir.Seq(ir.Chc(ir.Lit("x"), ir.Lit("y")), ir.Pls(digit)),
	}
	vm := mustCompile(t, defs, "S")

	end, _, _, ok, err := vm.Match("y123")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 4, end)

	_, _, _, ok, err = vm.Match("z123")
	require.NoError(t, err)
	assert.False(t, ok)

	// PLS requires at least one repetition.
	_, _, _, ok, err = vm.Match("x")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMachineLookahead(t *testing.T) {
	digit := ir.Cls([]ir.Range{{Lo: '0', Hi: '9', HasHi: true}}, false)
	defs := map[string]*ir.Expression{
		// "a" followed by a digit, lookahead must not consume it.
		"S": ir.Seq(ir.Lit("a"), ir.And(digit), ir.Dot()),
	}
	vm := mustCompile(t, defs, "S")

	end, _, _, ok, err := vm.Match("a5")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 2, end)

	_, _, _, ok, err = vm.Match("ax")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMachineNotNotEquivalentToAnd(t *testing.T) {
	digit := ir.Cls([]ir.Range{{Lo: '0', Hi: '9', HasHi: true}}, false)
	and := map[string]*ir.Expression{"S": ir.Seq(ir.And(digit), ir.Dot())}
	notnot := map[string]*ir.Expression{"S": ir.Seq(ir.Not(ir.Not(digit)), ir.Dot())}

	vmAnd := mustCompile(t, and, "S")
	vmNotNot := mustCompile(t, notnot, "S")

	for _, in := range []string{"5", "x"} {
		endA, _, _, okA, errA := vmAnd.Match(in)
		endB, _, _, okB, errB := vmNotNot.Match(in)
		require.NoError(t, errA)
		require.NoError(t, errB)
		assert.Equal(t, okA, okB, "input %q", in)
		assert.Equal(t, endA, endB, "input %q", in)
	}
}

func TestMachineZeroWidthRepetitionTerminates(t *testing.T) {
	defs := map[string]*ir.Expression{
		"S": ir.Str(ir.Opt(ir.Lit("a"))),
	}
	vm := mustCompile(t, defs, "S")

	end, _, _, ok, err := vm.Match("bbb")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 0, end)
}

func TestMachineCaptureAndBind(t *testing.T) {
	digit := ir.Cls([]ir.Range{{Lo: '0', Hi: '9', HasHi: true}}, false)
	defs := map[string]*ir.Expression{
		"S": ir.Bnd(ir.Cap(ir.Pls(digit)), "num"),
	}
	vm := mustCompile(t, defs, "S")

	end, args, kwargs, ok, err := vm.Match("42x")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 2, end)
	assert.Empty(t, args)
	assert.Equal(t, "42", kwargs["num"])
}

func TestMachineActionFailurePropagates(t *testing.T) {
	failing := actions.Fail{Msg: "boom"}
	defs := map[string]*ir.Expression{
		"S": ir.Rul(ir.Lit("a"), failing, "S"),
	}
	vm := mustCompile(t, defs, "S")

	_, _, _, ok, err := vm.Match("a")
	assert.False(t, ok)
	require.Error(t, err)
	var perr *actions.ParseError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, "boom", perr.Msg)
}
