package cubescript

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProtectedCallSuccess(t *testing.T) {
	in := New()
	th := in.Main()

	msgAlias, err := in.NewAlias("err", Null)
	require.NoError(t, err)
	stackAlias, err := in.NewAlias("tb", Null)
	require.NoError(t, err)

	body, err := compileSource(in.state, `result done`)
	require.NoError(t, err)
	defer body.Unref()

	result, ok := th.ProtectedCall(context.Background(), body, msgAlias, stackAlias)
	assert.True(t, ok)
	assert.Equal(t, IntValue(1), result.AsInt())
	assert.Equal(t, "", msgAlias.Value().AsString(), "untouched on success")
	assert.Equal(t, "", stackAlias.Value().AsString(), "untouched on success")
}

func TestProtectedCallCapturesRaisedError(t *testing.T) {
	in := New()
	th := in.Main()

	_, err := in.NewCommand("error", "s", func(th *Thread, args []Value, ret *Value) error {
		raise(ErrExecution, nil, "%s", args[0].AsString())
		return nil
	})
	require.NoError(t, err)

	msgAlias, err := in.NewAlias("err", Null)
	require.NoError(t, err)
	stackAlias, err := in.NewAlias("tb", Null)
	require.NoError(t, err)

	body, err := compileSource(in.state, `error boom`)
	require.NoError(t, err)
	defer body.Unref()

	result, ok := th.ProtectedCall(context.Background(), body, msgAlias, stackAlias)
	assert.False(t, ok)
	assert.Equal(t, IntValue(0), result.AsInt())
	assert.Equal(t, "boom", msgAlias.Value().AsString())
}

func TestProtectedCallOnActualError(t *testing.T) {
	in := New()
	th := in.Main()

	msgAlias, err := in.NewAlias("err", Null)
	require.NoError(t, err)

	body, err := compileSource(in.state, `break`)
	require.NoError(t, err)
	defer body.Unref()

	result, ok := th.ProtectedCall(context.Background(), body, msgAlias, nil)
	assert.False(t, ok)
	assert.Equal(t, IntValue(0), result.AsInt())
	assert.NotEmpty(t, msgAlias.Value().AsString())
}
