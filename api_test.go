package cubescript

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewIntVarClamping(t *testing.T) {
	in := New()
	th := in.Main()
	v, err := in.NewIntVar("health", 0, 100, 50, 0)
	require.NoError(t, err)

	th.setIntVar(v, 1000)
	assert.Equal(t, IntValue(100), v.Value, "over-range write must clamp to Max")

	th.setIntVar(v, -50)
	assert.Equal(t, IntValue(0), v.Value, "under-range write must clamp to Min")
}

func TestNewStringVarAndAssignValue(t *testing.T) {
	in := New()
	th := in.Main()
	_, err := in.NewStringVar("name", "default", 0)
	require.NoError(t, err)

	require.NoError(t, th.AssignValue("name", StringVal(in.state.pool, "changed")))

	id, ok := in.GetIdent("name")
	require.True(t, ok)
	sv := id.(*StringVar)
	assert.Equal(t, "changed", sv.Value.Bytes())
}

func TestAssignValueUnknownIdent(t *testing.T) {
	in := New()
	th := in.Main()
	err := th.AssignValue("nosuchvar", IntVal(1))
	assert.Error(t, err)
}

func TestResetValueRestoresOverride(t *testing.T) {
	in := New()
	th := in.Main()
	v, err := in.NewIntVar("sensitivity", 0, 10, 5, FlagOverridable)
	require.NoError(t, err)

	require.NoError(t, th.AssignValue("sensitivity", IntVal(9)))
	assert.Equal(t, IntValue(9), v.Value)
	require.True(t, v.Flags().Has(FlagOverridden))

	require.NoError(t, th.ResetValue("sensitivity"))
	assert.Equal(t, IntValue(5), v.Value, "ResetValue must restore the pre-override snapshot")
	assert.False(t, v.Flags().Has(FlagOverridden))
}

func TestResetValueOnAliasRestoresInitial(t *testing.T) {
	in := New()
	th := in.Main()
	_, err := in.NewAlias("greeting", IntVal(1))
	require.NoError(t, err)

	require.NoError(t, th.AssignValue("greeting", IntVal(99)))
	require.NoError(t, th.ResetValue("greeting"))

	id, ok := in.GetIdent("greeting")
	require.True(t, ok)
	assert.Equal(t, IntVal(1), id.(*Alias).Value())
}

func TestReadOnlyVarRejectsWrite(t *testing.T) {
	in := New()
	th := in.Main()
	_, err := in.NewIntVar("ro", 0, 10, 1, FlagReadOnly)
	require.NoError(t, err)

	err = th.AssignValue("ro", IntVal(2))
	assert.Error(t, err, "writing a read-only var must fail")
}
