package cubescript

// listItem is one element produced by a ListParser (spec §4.6): Raw is
// the contents with quotes/brackets stripped, Quoted includes them
// (both are the same slice for a bare word).
type listItem struct {
	Raw    string
	Quoted string
}

// ListParser is a restartable iterator over a byte slice that yields
// whitespace/semicolon-separated items, skipping `//` comments between
// them (spec §4.6). New relative to the teacher (FIRST has no lists);
// grounded on original_source/src/cs_util.cc's cs_list_parser, reusing
// this package's lexer primitives for quoted-string and
// bracket/paren-balanced scanning instead of duplicating them.
type ListParser struct {
	src []byte
	pos int
}

// NewListParser constructs a parser over list.
func NewListParser(list string) *ListParser {
	return &ListParser{src: []byte(list)}
}

func (lp *ListParser) peek() byte {
	if lp.pos >= len(lp.src) {
		return 0
	}
	return lp.src[lp.pos]
}

// skipUntilItem consumes whitespace and semicolons and `//` comments
// until an item or end of input is reached.
func (lp *ListParser) skipUntilItem() {
	for {
		for lp.pos < len(lp.src) {
			switch lp.src[lp.pos] {
			case ' ', '\t', '\r', '\n', ';':
				lp.pos++
				continue
			}
			break
		}
		if lp.pos+1 >= len(lp.src) {
			return
		}
		if lp.src[lp.pos] != '/' || lp.src[lp.pos+1] != '/' {
			return
		}
		for lp.pos < len(lp.src) && lp.src[lp.pos] != '\n' {
			lp.pos++
		}
	}
}

// Next produces the next item, or false at end of input or at an
// unbalanced `)`/`]`.
func (lp *ListParser) Next() (listItem, bool) {
	lp.skipUntilItem()
	if lp.pos >= len(lp.src) {
		return listItem{}, false
	}
	switch b := lp.peek(); b {
	case ')', ']':
		return listItem{}, false
	case '"':
		lx := &lexer{src: lp.src, pos: lp.pos}
		start := lp.pos
		raw := lx.scanString()
		quoted := string(lp.src[start:lx.pos])
		lp.pos = lx.pos
		return listItem{Raw: raw, Quoted: quoted}, true
	case '(', '[':
		lx := &lexer{src: lp.src, pos: lp.pos}
		start := lp.pos
		raw := lx.scanBalanced(b, matchingClose(b))
		quoted := string(lp.src[start:lx.pos])
		lp.pos = lx.pos
		return listItem{Raw: raw, Quoted: quoted}, true
	default:
		start := lp.pos
		for lp.pos < len(lp.src) {
			c := lp.src[lp.pos]
			if c == ' ' || c == '\t' || c == '\r' || c == '\n' || c == ';' {
				break
			}
			if c == '"' {
				break
			}
			if c == '/' && lp.pos+1 < len(lp.src) && lp.src[lp.pos+1] == '/' {
				break
			}
			if c == '(' || c == '[' {
				lx := &lexer{src: lp.src, pos: lp.pos}
				lx.scanBalanced(c, matchingClose(c))
				lp.pos = lx.pos
				continue
			}
			if c == ')' || c == ']' {
				break
			}
			lp.pos++
		}
		word := string(lp.src[start:lp.pos])
		return listItem{Raw: word, Quoted: word}, true
	}
}

// Count consumes the rest of the list, returning how many items remain.
func (lp *ListParser) Count() int {
	n := 0
	for {
		if _, ok := lp.Next(); !ok {
			return n
		}
		n++
	}
}

// ListItems splits list into its raw items, discarding quoting.
func ListItems(list string) []string {
	lp := NewListParser(list)
	var out []string
	for {
		item, ok := lp.Next()
		if !ok {
			break
		}
		out = append(out, item.Raw)
	}
	return out
}

// ListLen counts the items in list (backs the `listlen` builtin).
func ListLen(list string) int {
	return NewListParser(list).Count()
}

// ListAt returns the raw item at index i of list, or "" if out of
// range (backs the `at` builtin).
func ListAt(list string, i int) string {
	items := ListItems(list)
	if i < 0 || i >= len(items) {
		return ""
	}
	return items[i]
}

// ListConcat joins vals with sep, used by CONC/CONC_W's implementation
// and the concat/concatword builtins. Grounded on
// original_source/src/cs_util.cc's value_list_concat.
func ListConcat(vals []Value, sep string) string {
	out := ""
	for i, v := range vals {
		out += v.AsString()
		if i != len(vals)-1 {
			out += sep
		}
	}
	return out
}
