package cubescript

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func tokens(t *testing.T, src string) []token {
	t.Helper()
	lx := newLexer(src)
	var out []token
	for {
		tok := lx.next()
		if tok.kind == tokEOF {
			return out
		}
		out = append(out, tok)
	}
}

func TestLexerBareWords(t *testing.T) {
	toks := tokens(t, "echo hello world")
	require.Len(t, toks, 3)
	for i, want := range []string{"echo", "hello", "world"} {
		assert.Equal(t, tokWord, toks[i].kind)
		assert.Equal(t, want, toks[i].text)
	}
}

func TestLexerStringEscapes(t *testing.T) {
	toks := tokens(t, `"a^nb^tc^"d^^e"`)
	require.Len(t, toks, 1)
	assert.Equal(t, tokString, toks[0].kind)
	assert.Equal(t, "a\nb\tc\"d^e", toks[0].text)
}

func TestLexerBlockAndParen(t *testing.T) {
	toks := tokens(t, `[a b] (c d)`)
	require.Len(t, toks, 2)
	assert.Equal(t, tokBlock, toks[0].kind)
	assert.Equal(t, "a b", toks[0].text)
	assert.Equal(t, tokParen, toks[1].kind)
	assert.Equal(t, "c d", toks[1].text)
}

func TestLexerNestedBlocks(t *testing.T) {
	toks := tokens(t, `[a [b c] d]`)
	require.Len(t, toks, 1)
	assert.Equal(t, "a [b c] d", toks[0].text)
}

func TestLexerSemicolonIsItsOwnToken(t *testing.T) {
	toks := tokens(t, `a; b`)
	require.Len(t, toks, 3)
	assert.Equal(t, ";", toks[1].text)
}

func TestLexerCommentsAndContinuation(t *testing.T) {
	toks := tokens(t, "a // a comment\nb \\\nc")
	require.Len(t, toks, 3)
	assert.Equal(t, "a", toks[0].text)
	assert.Equal(t, "b", toks[1].text)
	assert.Equal(t, "c", toks[2].text)
}

func TestLexerBareWordEmbeddedBrackets(t *testing.T) {
	toks := tokens(t, "foo(bar)baz")
	require.Len(t, toks, 1)
	assert.Equal(t, tokWord, toks[0].kind)
	assert.Equal(t, "foo(bar)baz", toks[0].text)
}

func TestLexerUnterminatedStringPanics(t *testing.T) {
	defer func() {
		r := recover()
		require.NotNil(t, r)
		e, ok := r.(*Error)
		require.True(t, ok)
		assert.Equal(t, ErrLex, e.Kind)
	}()
	tokens(t, `"unterminated`)
}

func TestLexerMissingCloseBracketPanics(t *testing.T) {
	defer func() {
		r := recover()
		require.NotNil(t, r)
		e, ok := r.(*Error)
		require.True(t, ok)
		assert.Equal(t, ErrLex, e.Kind)
	}()
	tokens(t, `[a b`)
}
