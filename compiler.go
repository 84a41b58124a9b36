package cubescript

import (
	"strings"

	"github.com/OctaForge/libcubescript-sub000/internal/codeheap"
)

// compiler is a one-shot recursive-descent compiler over a lexer's token
// stream, accumulating instruction words into a *codeheap.Builder and
// literal payloads into a parallel constant pool (see code.go's doc
// comment for why constants live here rather than inline in the word
// stream). Grounded on the teacher's compile()/compileHeader() pair
// (internals.go) and original_source/src/cs_gen.cc's gen_state, adapted
// from FIRST's flat word-list grammar to CubeScript's statement/
// argument/builtin-keyword grammar (spec §4.7).
type compiler struct {
	state  *State
	b      *codeheap.Builder
	consts []Value
}

// compileSource compiles source into a fresh, independently refcounted
// *Code. Lexer and compiler errors (raised via raise/raiseif as panics)
// are recovered here and returned as an *Error; any other panic value
// propagates, since it indicates a genuine implementation bug rather
// than a scripting error.
func compileSource(state *State, source string) (code *Code, err error) {
	defer func() {
		if r := recover(); r != nil {
			if e := recoverError(r); e != nil {
				err = e
				return
			}
		}
	}()
	if isBlankSource(source) {
		return wrapCode(state.codeHeap.Empty(int(retNull)), nil), nil
	}
	lex := newLexer(source)
	c := &compiler{state: state, b: codeheap.NewBuilder(0)}
	for {
		tok := lex.next()
		if tok.kind == tokEOF {
			break
		}
		if tok.kind == tokWord && tok.text == ";" {
			continue
		}
		c.compileStatement(lex, tok)
	}
	c.emit(OpExit, retNull, 0)
	block := c.b.Finish(source)
	return wrapCode(block, c.consts), nil
}

// isBlankSource reports whether source compiles to no statements at
// all (only `;` separators and/or nothing), in which case compileSource
// hands back one of the heap's shared empty-block sentinels (spec
// §3.5) instead of allocating a fresh one-instruction block.
func isBlankSource(source string) bool {
	lex := newLexer(source)
	for {
		tok := lex.next()
		if tok.kind == tokEOF {
			return true
		}
		if tok.kind == tokWord && tok.text == ";" {
			continue
		}
		return false
	}
}

func (c *compiler) emit(op Opcode, ret retTag, data int32) int {
	return c.b.Emit(encodeInstr(op, ret, data))
}

func (c *compiler) emitRaw(word uint32) int { return c.b.Emit(word) }

func (c *compiler) addConst(v Value) int32 {
	c.consts = append(c.consts, v)
	return int32(len(c.consts) - 1)
}

// compileStatement compiles one statement beginning at head, leaving
// exactly one value on the operand stack, then stores it into the
// thread's `result` slot (spec §4.8's RESULT semantics) so that the
// program's overall value is always whatever its last statement
// produced.
//
// Statements are terminated by `;` or end of input only; this
// implementation does not treat a bare newline as a statement
// terminator the way spec §4.7 literally describes (see DESIGN.md's
// "Implementation simplifications" entry — distinguishing a
// statement-ending newline from a backslash-continued one would need
// the lexer to track that distinction explicitly, which it currently
// doesn't).
func (c *compiler) compileStatement(lex *lexer, head token) {
	switch head.kind {
	case tokWord, tokString:
		if head.text == "" {
			return
		}
		c.compileCallStatement(lex, head.text)
	case tokParen:
		c.compileParenValue(head.text)
	case tokBlock:
		c.emitBlockConst(head.text)
	default:
		return
	}
	c.emit(OpResult, retNull, 0)
}

// gatherArgTokens consumes tokens up to (and including) the next `;` or
// EOF, returning them unparsed for the caller to compile.
func (c *compiler) gatherArgTokens(lex *lexer) []token {
	var toks []token
	for {
		t := lex.next()
		if t.kind == tokEOF || (t.kind == tokWord && t.text == ";") {
			return toks
		}
		toks = append(toks, t)
	}
}

// compileCallStatement resolves name as a statement head: assignment
// sugar (`name = value`), a builtin keyword, an alias call, a command
// call, a var read/write, a bare numeric literal, or (as a last resort)
// dynamic dispatch via CALL_U.
func (c *compiler) compileCallStatement(lex *lexer, name string) {
	save := *lex
	next := lex.next()
	if next.kind == tokWord && next.text == "=" {
		c.compileAssign(lex, name)
		return
	}
	*lex = save
	argTokens := c.gatherArgTokens(lex)
	c.compileDispatch(name, argTokens)
}

// compileAssign implements the `name = value` assignment sugar (spec
// §4.7): value is the (space-unaware, first-token) argument that
// follows; assigning to an existing alias or var behaves exactly as
// that ident's ordinary write path, and an unrecognized name defines a
// fresh alias (spec §4.9).
func (c *compiler) compileAssign(lex *lexer, name string) {
	argTokens := c.gatherArgTokens(lex)
	if id, ok := c.state.idents.Lookup(name); ok {
		switch t := id.(type) {
		case *Alias:
			c.compileAssignValue(argTokens)
			c.emit(OpAlias, retNull, int32(t.Index()))
			c.emit(OpNull, retNull, 0)
			return
		case *IntVar, *FloatVar, *StringVar:
			c.compileVarStatement(t, argTokens)
			return
		}
	}
	c.compileAssignValue(argTokens)
	idx := c.addConst(StringVal(c.state.pool, name))
	c.emit(OpVal, retNull, idx)
	c.emit(OpAliasU, retNull, 0)
	c.emit(OpNull, retNull, 0)
}

func (c *compiler) compileAssignValue(tokens []token) {
	if len(tokens) == 0 {
		idx := c.addConst(StringVal(c.state.pool, ""))
		c.emit(OpVal, retNull, idx)
		return
	}
	c.compileArgToken(tokens[0])
}

// compileDispatch implements spec §4.7's head-word resolution: builtin
// keyword, alias, command, var, bare numeric literal, or CALL_U.
func (c *compiler) compileDispatch(name string, argTokens []token) {
	if id, ok := c.state.idents.Lookup(name); ok {
		switch t := id.(type) {
		case *BuiltinKeyword:
			c.compileBuiltin(t.Builtin, argTokens)
			return
		case *Alias:
			n := c.compileArgs(argTokens)
			op := OpCall
			if t.Flags().Has(FlagArg) {
				// the callee is one of the reserved arg1..argN slots:
				// CALL_ARG additionally checks that this frame's
				// usedargs bit for that slot is set (spec §3.4/
				// §4.8.1), since calling an unsupplied arg slot isn't
				// the same as calling a real alias.
				op = OpCallArg
			}
			c.emit(op, retNull, int32(t.Index()))
			c.emitRaw(uint32(n))
			return
		case *Command:
			c.compileCommandCall(t, argTokens)
			return
		case *IntVar, *FloatVar, *StringVar:
			c.compileVarStatement(t, argTokens)
			return
		}
	}
	if len(argTokens) == 0 {
		if n, rest, ok := parseInt(name); ok && rest == "" {
			c.emitIntLiteral(n)
			return
		}
		if f, rest, ok := parseFloat(name); ok && rest == "" {
			idx := c.addConst(FloatVal(f))
			c.emit(OpVal, retNull, idx)
			return
		}
	}
	n := c.compileArgs(argTokens)
	idx := c.addConst(StringVal(c.state.pool, name))
	c.emit(OpCallU, retNull, idx)
	c.emitRaw(uint32(n))
}

// compileArgs compiles each token as a pushed value, left to right, and
// returns the final argument count after clamping to MaxArguments: args
// beyond the limit are the most recently pushed (the tail of the list),
// so the overflow is dropped with trailing POPs (spec §4.7.1).
func (c *compiler) compileArgs(tokens []token) int {
	for _, t := range tokens {
		c.compileArgToken(t)
	}
	n := len(tokens)
	if n > MaxArguments {
		for i := 0; i < n-MaxArguments; i++ {
			c.emit(OpPop, retNull, 0)
		}
		n = MaxArguments
	}
	return n
}

// compileVarStatement compiles a var ident used as a statement head:
// with no further tokens it's a read (PRINT); otherwise the first
// token's value is coerced and written, and also left as the
// statement's result.
func (c *compiler) compileVarStatement(id Ident, argTokens []token) {
	if len(argTokens) == 0 {
		c.emit(OpPrint, retNull, int32(id.Index()))
		c.emit(OpNull, retNull, 0)
		return
	}
	c.compileArgToken(argTokens[0])
	c.emit(OpDup, retNull, 0)
	switch id.(type) {
	case *IntVar:
		c.emit(OpIVar1, retNull, int32(id.Index()))
	case *FloatVar:
		c.emit(OpFVar1, retNull, int32(id.Index()))
	case *StringVar:
		c.emit(OpSVar1, retNull, int32(id.Index()))
	}
}

// compileBuiltin emits the specialized opcode(s) for one of the ten
// identity-known keywords (spec §6.2.1).
func (c *compiler) compileBuiltin(id BuiltinID, argTokens []token) {
	switch id {
	case BuiltinDo, BuiltinDoArgs:
		if len(argTokens) > 0 {
			c.compileArgToken(argTokens[0])
		} else {
			c.emit(OpNull, retNull, 0)
		}
		op := OpDo
		if id == BuiltinDoArgs {
			op = OpDoArgs
		}
		c.emit(op, retNull, 0)
	case BuiltinIf:
		var condTok, thenTok, elseTok *token
		if len(argTokens) > 0 {
			condTok = &argTokens[0]
		}
		if len(argTokens) > 1 {
			thenTok = &argTokens[1]
		}
		if len(argTokens) > 2 {
			elseTok = &argTokens[2]
		}
		c.compileIf(condTok, thenTok, elseTok)
	case BuiltinResult:
		if len(argTokens) > 0 {
			c.compileArgToken(argTokens[0])
		} else {
			c.emit(OpNull, retNull, 0)
		}
		c.emit(OpResult, retNull, 0)
		c.emit(OpResultArg, retNull, 0)
	case BuiltinNot:
		if len(argTokens) > 0 {
			c.compileArgToken(argTokens[0])
		} else {
			c.emit(OpNull, retNull, 0)
		}
		c.emit(OpNot, retNull, 0)
	case BuiltinAnd, BuiltinOr:
		c.compileAndOr(id, argTokens)
	case BuiltinLocal:
		c.compileLocal(argTokens)
	case BuiltinBreak:
		c.emit(OpBreak, retNull, 0)
	case BuiltinContinue:
		c.emit(OpContinue, retNull, 0)
	}
}

// compileIf implements §4.7.2's branch fusion using real jump patching
// (rather than the spec's BLOCK-instruction rewrite, since this
// implementation never emits a bare BLOCK for a then/else argument in
// the first place — it compiles straight to a conditional jump over an
// inline sequence instead of having to recognize and rewrite one after
// the fact).
func (c *compiler) compileIf(condTok, thenTok, elseTok *token) {
	if condTok != nil {
		c.compileArgToken(*condTok)
	} else {
		c.emit(OpNull, retNull, 0)
	}
	jumpFalse := c.emit(OpJumpB, retNull, 0)

	if thenTok != nil {
		c.compileArgToken(*thenTok)
		if thenTok.kind == tokBlock {
			c.emit(OpDo, retNull, 0)
		}
	} else {
		c.emit(OpNull, retNull, 0)
	}
	jumpEnd := c.emit(OpJump, retNull, 0)

	elseStart := int32(c.b.Len())
	c.b.Patch(jumpFalse, encodeInstr(OpJumpB, retNull, elseStart))

	if elseTok != nil {
		c.compileArgToken(*elseTok)
		if elseTok.kind == tokBlock {
			c.emit(OpDo, retNull, 0)
		}
	} else {
		c.emit(OpNull, retNull, 0)
	}

	endPos := int32(c.b.Len())
	c.b.Patch(jumpEnd, encodeInstr(OpJump, retNull, endPos))
}

// compileAndOr implements this package's simplified &&/|| reduction: each
// argument compiles to its own independent Code (see
// compileValueProgram), referenced by a contiguous run of constant-pool
// entries; JUMP_RESULT's data field packs (count<<16 | baseIndex) and
// its return tag distinguishes AND (int) from OR (float) for vm.go's
// reduceAndOr to consume. This trades the spec's literal
// JUMP_RESULT-over-BLOCK splicing for a simpler encoding with the same
// observable short-circuit behavior (see DESIGN.md).
func (c *compiler) compileAndOr(id BuiltinID, argTokens []token) {
	base := int32(len(c.consts))
	for _, t := range argTokens {
		prog, err := c.compileValueProgram(t)
		if err != nil {
			panic(err)
		}
		c.addConst(CodeVal(prog))
		prog.Unref()
	}
	count := int32(len(argTokens))
	data := (count << 16) | (base & 0xFFFF)
	ret := retFloat
	if id == BuiltinAnd {
		ret = retInt
	}
	c.emit(OpJumpResult, ret, data)
}

// compileLocal implements LOCAL (spec §4.8): each argument names an
// alias (defining a fresh one if unknown), pushed as an IDENT value;
// OpLocal then pushes a null frame onto each for the remainder of the
// enclosing Code's execution, popped automatically when that Code's
// EXIT is reached (execCode's pendingLocals) — since every nested
// `[...]`/`(...)` compiles to its own independent Code, this already
// gives LOCAL exactly the nested scoping spec §4.8 describes without
// needing a separate explicit recursion step.
func (c *compiler) compileLocal(argTokens []token) {
	for _, t := range argTokens {
		if t.kind != tokWord {
			continue
		}
		id, ok := c.state.idents.Lookup(t.text)
		if !ok {
			a := &Alias{identHeader: identHeader{name: t.text}}
			c.state.idents.Define(a)
			id = a
		}
		c.emit(OpIdent, retNull, int32(id.Index()))
	}
	c.emit(OpLocal, retNull, int32(len(argTokens)))
	c.emit(OpNull, retNull, 0)
}

// compileArgToken compiles one argument-position token (spec §4.7's
// argument forms), leaving exactly one value on the stack.
func (c *compiler) compileArgToken(t token) {
	switch t.kind {
	case tokString:
		idx := c.addConst(StringVal(c.state.pool, t.text))
		c.emit(OpVal, retNull, idx)
	case tokBlock:
		c.emitBlockConst(t.text)
	case tokParen:
		c.compileParenValue(t.text)
	case tokWord:
		c.compileWordArg(t.text)
	default:
		c.emit(OpNull, retNull, 0)
	}
}

// emitBlockConst compiles src as its own independent Code (not
// executed) and pushes it as a CODE value — the `[...]` argument form
// (spec §4.7's "compiles to BLOCK + inner code + EXIT").
func (c *compiler) emitBlockConst(src string) {
	nested, err := compileSource(c.state, src)
	if err != nil {
		panic(err)
	}
	idx := c.addConst(CodeVal(nested))
	nested.Unref()
	c.emit(OpVal, retNull, idx)
}

// compileParenValue compiles src as its own independent Code and
// immediately executes it (the `(...)` argument form, a recursive VM
// invocation per spec §4.7/§4.8's ENTER).
func (c *compiler) compileParenValue(src string) {
	nested, err := compileSource(c.state, src)
	if err != nil {
		panic(err)
	}
	idx := c.addConst(CodeVal(nested))
	nested.Unref()
	c.emit(OpVal, retNull, idx)
	c.emit(OpDo, retNull, 0)
}

// compileValueProgram compiles one token in a fresh sub-compiler sharing
// c's state, producing an independent single-value program: the
// token's value, stored to `result` and returned via EXIT. Used by
// compileAndOr to give each `&&`/`||` operand its own lazily evaluated
// Code.
func (c *compiler) compileValueProgram(t token) (code *Code, err error) {
	defer func() {
		if r := recover(); r != nil {
			if e := recoverError(r); e != nil {
				err = e
				return
			}
			panic(r)
		}
	}()
	sub := &compiler{state: c.state, b: codeheap.NewBuilder(0)}
	sub.compileArgToken(t)
	sub.emit(OpResult, retNull, 0)
	sub.emit(OpExit, retNull, 0)
	block := sub.b.Finish(t.text)
	return wrapCode(block, sub.consts), nil
}

// compileWordArg compiles a bare word argument: a `$name`, `$(expr)`,
// or `$[expr]` lookup, a numeric literal, or a plain string (spec
// §4.7's bare-word form).
func (c *compiler) compileWordArg(text string) {
	if len(text) > 1 && text[0] == '$' {
		rest := text[1:]
		if n := len(rest); n >= 2 && (rest[0] == '(' && rest[n-1] == ')' || rest[0] == '[' && rest[n-1] == ']') {
			c.compileComputedLookup(rest[1 : n-1])
			return
		}
		if !strings.ContainsAny(rest, "()[]") {
			c.compileLookupByName(rest)
			return
		}
	}
	if n, rest, ok := parseInt(text); ok && rest == "" {
		c.emitIntLiteral(n)
		return
	}
	if f, rest, ok := parseFloat(text); ok && rest == "" {
		idx := c.addConst(FloatVal(f))
		c.emit(OpVal, retNull, idx)
		return
	}
	idx := c.addConst(StringVal(c.state.pool, text))
	c.emit(OpVal, retNull, idx)
}

func (c *compiler) emitIntLiteral(n IntValue) {
	if n >= -(1<<23) && n < (1<<23) {
		c.emit(OpValInt, retNull, int32(n))
		return
	}
	idx := c.addConst(IntVal(n))
	c.emit(OpVal, retNull, idx)
}

// compileComputedLookup implements the `$(expr)`/`$[expr]` dynamic-name
// forms of spec §4.7: expr is compiled and run eagerly, the same
// recursive-invocation path a bare `(...)` argument takes, and the
// resulting value's string form names the ident to read. The lookup
// itself dispatches at runtime via LOOKUP_U sourcing its name from the
// stack (a negative data field) rather than the constant pool, since
// the name isn't known until the expression has actually run.
func (c *compiler) compileComputedLookup(src string) {
	c.compileParenValue(src)
	c.emit(OpLookupU, retNull, -1)
}

func (c *compiler) compileLookupByName(name string) {
	if id, ok := c.state.idents.Lookup(name); ok {
		c.emit(OpLookup, retNull, int32(id.Index()))
		return
	}
	idx := c.addConst(StringVal(c.state.pool, name))
	c.emit(OpLookupU, retNull, idx)
}
