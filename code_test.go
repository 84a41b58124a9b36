package cubescript

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCodeRefUnrefRoundTrip(t *testing.T) {
	in := New()
	code, err := compileSource(in.state, `result 1`)
	require.NoError(t, err)

	before := code.Refs()
	code.Ref()
	assert.Equal(t, before+1, code.Refs())

	code.Unref()
	assert.Equal(t, before, code.Refs())

	code.Unref()
}

func TestCodeWordsAndSourceNonEmpty(t *testing.T) {
	in := New()
	code, err := compileSource(in.state, `result 1`)
	require.NoError(t, err)
	defer code.Unref()

	assert.NotEmpty(t, code.Words())
	assert.NotEmpty(t, code.Source())
}

func TestCodeNilReceiverIsSafe(t *testing.T) {
	var c *Code
	assert.Equal(t, Null, c.Const(0))
	assert.Nil(t, c.Words())
	assert.Equal(t, "", c.Source())
	assert.Equal(t, int32(0), c.Refs())
	assert.NotPanics(t, func() { c.Ref() })
	assert.NotPanics(t, func() { c.Unref() })
}

func TestCodeConstOutOfRange(t *testing.T) {
	c := &Code{consts: []Value{IntVal(1), IntVal(2)}}
	assert.Equal(t, IntVal(1), c.Const(0))
	assert.Equal(t, Null, c.Const(-1))
	assert.Equal(t, Null, c.Const(99))
}
