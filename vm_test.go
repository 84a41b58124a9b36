package cubescript

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCoercePreservesTypeOnRetNull(t *testing.T) {
	in := New()
	th := in.Main()
	assert.Equal(t, IntVal(3), th.coerce(IntVal(3), retNull))
}

func TestCoerceForcesRequestedType(t *testing.T) {
	in := New()
	th := in.Main()
	assert.Equal(t, IntVal(3), th.coerce(StringVal(in.state.pool, "3"), retInt))
	assert.Equal(t, FloatVal(3), th.coerce(IntVal(3), retFloat))
	assert.Equal(t, "3", th.coerce(IntVal(3), retString).AsString())
}

func TestSetIntVarOverridableSnapshotsOnce(t *testing.T) {
	in := New()
	th := in.Main()
	v := &IntVar{identHeader: identHeader{name: "x", flags: FlagOverridable}, Value: 1, Min: 0, Max: 100}

	th.setIntVar(v, 5)
	assert.Equal(t, IntValue(1), v.override, "first override snapshots the pre-write value")
	assert.True(t, v.Flags().Has(FlagOverridden))

	th.setIntVar(v, 9)
	assert.Equal(t, IntValue(1), v.override, "subsequent overrides do not re-snapshot")
	assert.Equal(t, IntValue(9), v.Value)
}

func TestSetIntVarClampsToRange(t *testing.T) {
	in := New()
	th := in.Main()
	v := &IntVar{identHeader: identHeader{name: "x"}, Value: 5, Min: 0, Max: 10}

	th.setIntVar(v, 999)
	assert.Equal(t, IntValue(10), v.Value)

	th.setIntVar(v, -999)
	assert.Equal(t, IntValue(0), v.Value)
}

func TestSetIntVarReadOnlyRaises(t *testing.T) {
	in := New()
	th := in.Main()
	v := &IntVar{identHeader: identHeader{name: "x", flags: FlagReadOnly}, Value: 1}

	assert.Panics(t, func() { th.setIntVar(v, 2) })
}

func TestSetIntVarRunsOnChangeHook(t *testing.T) {
	in := New()
	th := in.Main()
	called := false
	v := &IntVar{identHeader: identHeader{name: "x"}, OnChange: func(th *Thread, v *IntVar) { called = true }}

	th.setIntVar(v, 2)
	assert.True(t, called)
}

func TestSetStringVarReinternsValue(t *testing.T) {
	in := New()
	th := in.Main()
	v := &StringVar{identHeader: identHeader{name: "s"}, Value: in.state.pool.Intern("old")}

	th.setStringVar(v, "new")
	assert.Equal(t, "new", v.Value.Bytes())
}

func TestCallAliasBindsArgNSlots(t *testing.T) {
	in := New()
	registerArith(t, in)
	th := in.Main()

	v, err := th.Run(context.Background(), `alias greet [result $arg1]; greet hello`)
	require.NoError(t, err)
	assert.Equal(t, "hello", v.AsString())
}

func TestCallAliasTooManyArgumentsRaises(t *testing.T) {
	in := New()
	th := in.Main()
	a, err := in.NewAlias("f", IntVal(0))
	require.NoError(t, err)

	args := make([]Value, MaxArguments+1)
	for i := range args {
		args[i] = IntVal(IntValue(i))
	}
	assert.Panics(t, func() { th.callAlias(context.Background(), a, args) })
}

func TestCallAliasUndefinedRaises(t *testing.T) {
	in := New()
	th := in.Main()
	assert.Panics(t, func() { th.callAlias(context.Background(), nil, nil) })
}

func TestReduceAndOrShortCircuitsOnFirstFalsy(t *testing.T) {
	in := New()
	th := in.Main()

	evaluated := 0
	_, err := in.NewCommand("mark", "", func(th *Thread, args []Value, ret *Value) error {
		evaluated++
		*ret = IntVal(1)
		return nil
	})
	require.NoError(t, err)

	v, err := th.Run(context.Background(), `&& 0 (mark) (mark)`)
	require.NoError(t, err)
	assert.False(t, v.AsBool())
	assert.Equal(t, 0, evaluated, "operands after the short-circuiting one must not run")
}
