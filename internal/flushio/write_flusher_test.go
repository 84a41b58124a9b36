package flushio

import (
	"bufio"
	"bytes"
	"io/ioutil"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewWriteFlusherDiscardIsSingleton(t *testing.T) {
	wf := NewWriteFlusher(ioutil.Discard)
	assert.Same(t, discardWriteFlusher, wf)
	assert.NoError(t, wf.Flush())
}

func TestNewWriteFlusherBufferNeedsNoFlush(t *testing.T) {
	var buf bytes.Buffer
	wf := NewWriteFlusher(&buf)

	n, err := wf.Write([]byte("hi"))
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, "hi", buf.String(), "buffer writes must be visible without an explicit Flush")
	assert.NoError(t, wf.Flush())
}

func TestNewWriteFlusherPlainWriterIsBuffered(t *testing.T) {
	var sink countingWriter
	wf := NewWriteFlusher(&sink)
	_, ok := wf.(*bufio.Writer)
	require.True(t, ok)

	_, err := wf.Write([]byte("hi"))
	require.NoError(t, err)
	assert.Equal(t, 0, sink.n, "bufio.Writer withholds bytes until Flush")

	require.NoError(t, wf.Flush())
	assert.Equal(t, 2, sink.n)
}

func TestNewWriteFlusherPassesThroughAlreadyFlushable(t *testing.T) {
	inner := nopFlusher{ioutil.Discard}
	wf := NewWriteFlusher(inner)
	assert.Equal(t, inner, wf)
}

type countingWriter struct{ n int }

func (w *countingWriter) Write(p []byte) (int, error) {
	w.n += len(p)
	return len(p), nil
}
