package cubescript

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMainCreatesThreadOnce(t *testing.T) {
	in := New()
	a := in.Main()
	b := in.Main()
	assert.Same(t, a, b, "Main must memoize the default thread")
}

func TestNewThreadIsIndependent(t *testing.T) {
	in := New()
	main := in.Main()
	aux := in.NewThread()
	assert.NotSame(t, main, aux)
	assert.Same(t, main.state, aux.state, "auxiliary threads share the interpreter's state")
	assert.NotNil(t, aux.frame, "a fresh thread starts with a root call frame")
}

func TestRunLoopReportsBreak(t *testing.T) {
	in := New()
	th := in.Main()
	code, err := compileSource(in.state, `break`)
	require.NoError(t, err)
	defer code.Unref()

	sig, err := th.RunLoop(context.Background(), code)
	require.NoError(t, err)
	assert.Equal(t, LoopBreak, sig)
}

func TestRunLoopReportsContinue(t *testing.T) {
	in := New()
	th := in.Main()
	code, err := compileSource(in.state, `continue`)
	require.NoError(t, err)
	defer code.Unref()

	sig, err := th.RunLoop(context.Background(), code)
	require.NoError(t, err)
	assert.Equal(t, LoopContinue, sig)
}

func TestRunLoopNormalCompletion(t *testing.T) {
	in := New()
	th := in.Main()
	code, err := compileSource(in.state, `result done`)
	require.NoError(t, err)
	defer code.Unref()

	sig, err := th.RunLoop(context.Background(), code)
	require.NoError(t, err)
	assert.Equal(t, LoopNormal, sig)
}

func TestSetCallHookCanAbortRun(t *testing.T) {
	in := New()
	th := in.Main()
	th.SetCallHook(func(th *Thread) error {
		return context.Canceled
	})

	_, err := th.Run(context.Background(), `result done`)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestSetMaxRunDepthOverridesState(t *testing.T) {
	in := New()
	th := in.Main()
	th.SetMaxRunDepth(2)
	assert.Equal(t, 2, th.maxRunDepth)
}
