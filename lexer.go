package cubescript

// tokenKind classifies one lexer token (spec §4.5).
type tokenKind uint8

const (
	tokEOF tokenKind = iota
	tokString    // double-quoted, already unescaped
	tokBlock     // [...] contents, brackets stripped
	tokParen     // (...) contents, parens stripped
	tokWord      // bare word
)

type token struct {
	kind tokenKind
	text string
	line int
}

// lexer is a byte-oriented tokenizer over a source buffer, grounded on
// the teacher's vm.scan() (internals.go: a rune-by-rune whitespace-
// delimited scanner) generalized from FIRST's one token kind to the
// richer grammar of spec §4.5: line continuations, `//` comments,
// escaped strings, and balanced bracket/paren/bare words.
type lexer struct {
	src  []byte
	pos  int
	line int
}

func newLexer(src string) *lexer {
	return &lexer{src: []byte(src), line: 1}
}

func (lx *lexer) peek() byte {
	if lx.pos >= len(lx.src) {
		return 0
	}
	return lx.src[lx.pos]
}

func (lx *lexer) at(off int) byte {
	if lx.pos+off >= len(lx.src) {
		return 0
	}
	return lx.src[lx.pos+off]
}

func (lx *lexer) advance() byte {
	b := lx.peek()
	lx.pos++
	if b == '\n' {
		lx.line++
	}
	return b
}

// skipSpace consumes horizontal whitespace, line-continuation
// backslashes, and `//` comments, per §4.5.
func (lx *lexer) skipSpace() {
	for lx.pos < len(lx.src) {
		b := lx.peek()
		switch {
		case b == ' ' || b == '\t' || b == '\r' || b == '\n':
			lx.advance()
		case b == '\\' && lx.isLineEnd(lx.at(1)):
			lx.advance()
			lx.consumeLineEnd()
		case b == '/' && lx.at(1) == '/':
			for lx.pos < len(lx.src) && lx.peek() != '\n' {
				lx.advance()
			}
		default:
			return
		}
	}
}

func (lx *lexer) isLineEnd(b byte) bool { return b == '\n' || b == '\r' }

// consumeLineEnd eats one CR, LF, or CRLF sequence.
func (lx *lexer) consumeLineEnd() {
	if lx.peek() == '\r' {
		lx.advance()
	}
	if lx.peek() == '\n' {
		lx.advance()
	}
}

// isBareEnd reports whether b terminates a bare word per §6.2.1's list:
// space, tab, CR, LF, `"`, `;`, `(`, `)`, `[`, `]`, or `//`.
func (lx *lexer) isBareEnd(b byte, next byte) bool {
	switch b {
	case 0, ' ', '\t', '\r', '\n', '"', ';', '(', ')', '[', ']':
		return true
	case '/':
		return next == '/'
	default:
		return false
	}
}

// next returns the next token, or tokEOF at end of input. It panics
// with an *Error (kind ErrLex) on malformed input, to be recovered at
// the compiler's top-level entry point.
func (lx *lexer) next() token {
	lx.skipSpace()
	if lx.pos >= len(lx.src) {
		return token{kind: tokEOF, line: lx.line}
	}
	line := lx.line
	switch b := lx.peek(); {
	case b == '"':
		return token{kind: tokString, text: lx.scanString(), line: line}
	case b == '[':
		return token{kind: tokBlock, text: lx.scanBalanced('[', ']'), line: line}
	case b == '(':
		return token{kind: tokParen, text: lx.scanBalanced('(', ')'), line: line}
	case b == ';':
		lx.advance()
		return token{kind: tokWord, text: ";", line: line}
	default:
		return token{kind: tokWord, text: lx.scanBare(), line: line}
	}
}

// scanString consumes a double-quoted string, applying §4.5's escape
// rules: `^n`, `^t`, `^f`, `^"`, `^^`, generic `^x`→x, and a backslash
// immediately followed by a newline as a soft line continuation.
// Literal LF inside the string is forbidden.
func (lx *lexer) scanString() string {
	lx.advance() // opening quote
	var out []byte
	for {
		if lx.pos >= len(lx.src) {
			raise(ErrLex, nil, "unfinished string literal at line %d", lx.line)
		}
		b := lx.peek()
		switch {
		case b == '"':
			lx.advance()
			return string(out)
		case b == '\n':
			raise(ErrLex, nil, "newline in string literal at line %d", lx.line)
		case b == '\\' && lx.isLineEnd(lx.at(1)):
			lx.advance()
			lx.consumeLineEnd()
		case b == '^':
			lx.advance()
			out = append(out, lx.scanCaretEscape()...)
		default:
			out = append(out, b)
			lx.advance()
		}
	}
}

func (lx *lexer) scanCaretEscape() []byte {
	if lx.pos >= len(lx.src) {
		raise(ErrLex, nil, "unfinished string literal at line %d", lx.line)
	}
	b := lx.advance()
	switch b {
	case 'n':
		return []byte{'\n'}
	case 't':
		return []byte{'\t'}
	case 'f':
		return []byte{'\f'}
	case '"':
		return []byte{'"'}
	case '^':
		return []byte{'^'}
	default:
		return []byte{b}
	}
}

// scanBalanced consumes an open/close delimited group, requiring
// balance; the contents (delimiters stripped) are returned.
func (lx *lexer) scanBalanced(open, close byte) string {
	start := lx.pos
	lx.advance() // opening delimiter
	depth := 1
	for {
		if lx.pos >= len(lx.src) {
			raise(ErrLex, nil, "missing %q at line %d", close, lx.line)
		}
		b := lx.peek()
		switch b {
		case open:
			depth++
			lx.advance()
		case close:
			depth--
			lx.advance()
			if depth == 0 {
				return string(lx.src[start+1 : lx.pos-1])
			}
		case '"':
			lx.scanString()
		default:
			lx.advance()
		}
	}
}

// scanBare consumes a bare word: it ends at whitespace, `"`, `//`, `;`,
// or any of `()[]`, but `[...]`/`(...)` occurring within the word must
// themselves balance (so e.g. `foo(bar)baz` is one bare word).
func (lx *lexer) scanBare() string {
	start := lx.pos
	for lx.pos < len(lx.src) {
		b := lx.peek()
		if lx.isBareEnd(b, lx.at(1)) {
			if b == '[' || b == '(' {
				lx.scanBalanced(b, matchingClose(b))
				continue
			}
			break
		}
		lx.advance()
	}
	if lx.pos == start {
		// isBareEnd matched immediately: next() gets here on a stray
		// `]`, `)` or NUL byte, which is malformed input.
		raise(ErrLex, nil, "unexpected %q at line %d", lx.peek(), lx.line)
	}
	return string(lx.src[start:lx.pos])
}

func matchingClose(open byte) byte {
	if open == '[' {
		return ']'
	}
	return ')'
}
