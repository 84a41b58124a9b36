package runeio

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteANSIRuneASCII(t *testing.T) {
	var buf bytes.Buffer
	n, err := WriteANSIRune(&buf, 'a')
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, "a", buf.String())
}

func TestWriteANSIRuneNELBecomesCRLF(t *testing.T) {
	var buf bytes.Buffer
	_, err := WriteANSIRune(&buf, 0x85)
	require.NoError(t, err)
	assert.Equal(t, "\r\n", buf.String())
}

func TestWriteANSIRuneC1Control(t *testing.T) {
	var buf bytes.Buffer
	_, err := WriteANSIRune(&buf, 0x9b)
	require.NoError(t, err)
	assert.Equal(t, []byte{0x1b, 0x9b ^ 0xc0}, buf.Bytes())
}

func TestWriteANSIRuneUTF8(t *testing.T) {
	var buf bytes.Buffer
	_, err := WriteANSIRune(&buf, 'é')
	require.NoError(t, err)
	assert.Equal(t, "é", buf.String())
}

func TestWriteANSIStringMixed(t *testing.T) {
	var buf bytes.Buffer
	n, err := WriteANSIString(&buf, "a\u0085b")
	require.NoError(t, err)
	assert.Equal(t, "a\r\nb", buf.String())
	assert.Equal(t, len("a\r\nb"), n)
}
