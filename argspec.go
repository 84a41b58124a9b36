package cubescript

import "math"

// compileCommandCall implements spec §4.7.1's argspec-driven argument
// compilation for a command call: cmd.Argspec is walked one formal at
// a time, emitting COM / COM_V / COM_C per §4.8 rather than always
// falling back to a plain push-everything-and-COM. Grounded on
// original_source/src/cs_gen.cc's per-formal-character argument
// compiler, generalized from its inline bytecode emission to this
// package's stack-machine opcodes.
func (c *compiler) compileCommandCall(cmd *Command, argTokens []token) {
	pushed, fixed, tail, isConcat, isVariadic := c.compileCommandArgs(cmd, argTokens)
	switch {
	case isConcat:
		c.emit(OpComC, retNull, int32(cmd.Index()))
		c.emitRaw(uint32(fixed))
		c.emitRaw(uint32(tail))
	case isVariadic:
		c.emit(OpComV, retNull, int32(cmd.Index()))
		c.emitRaw(uint32(pushed))
	default:
		c.emit(OpCom, retNull, int32(cmd.Index()))
		c.emitRaw(uint32(pushed))
	}
}

// compileCommandArgs compiles each formal named by cmd.Argspec,
// returning how many stack values it pushed in total, how many of
// those belong to the fixed (non-variadic) prefix, how many belong to
// a trailing variadic tail, and whether that tail should be
// concatenated (C) or passed as a span (V). A command with no argspec
// falls back to the old uniform push-every-token behavior.
func (c *compiler) compileCommandArgs(cmd *Command, argTokens []token) (pushed, fixed, tail int, isConcat, isVariadic bool) {
	spec := cmd.Argspec
	if spec == "" {
		n := c.compileArgs(argTokens)
		return n, n, 0, false, false
	}

	ti := 0
	next := func() *token {
		if ti < len(argTokens) {
			t := &argTokens[ti]
			ti++
			return t
		}
		return nil
	}

	var history []byte
	compileOne := func(ch byte) {
		switch ch {
		case 's':
			c.compileFormalToken(next(), retString)
		case 'i':
			c.compileFormalToken(next(), retInt)
		case 'b':
			c.compileFormalIntOrMin(next())
		case 'f':
			c.compileFormalToken(next(), retFloat)
		case 'F':
			c.compileFormalFloatOrPrev(next(), pushed > 0)
		case 't':
			c.compileFormalToken(next(), retNull)
		case 'E':
			c.compileFormalCond(next())
		case 'e':
			c.compileFormalCode(next())
		case 'r':
			c.compileFormalIdent(next())
		case '$':
			c.compileFormalSelf(cmd)
		case 'N':
			c.emitIntLiteral(IntValue(len(argTokens)))
		default:
			return
		}
		pushed++
		history = append(history, ch)
	}

	for i := 0; i < len(spec); i++ {
		ch := spec[i]
		switch {
		case ch >= '1' && ch <= '4':
			n := int(ch - '0')
			if n > len(history) {
				n = len(history)
			}
			group := append([]byte(nil), history[len(history)-n:]...)
			for ti < len(argTokens) {
				for _, gc := range group {
					compileOne(gc)
				}
			}
		case ch == 'C' || ch == 'V':
			fixed = pushed
			for t := next(); t != nil; t = next() {
				c.compileArgToken(*t)
				pushed++
			}
			tail = pushed - fixed
			isVariadic = true
			isConcat = ch == 'C'
			i = len(spec) // exactly one C/V, and only as the last form
		default:
			compileOne(ch)
		}
	}

	if pushed > MaxArguments {
		over := pushed - MaxArguments
		for i := 0; i < over; i++ {
			c.emit(OpPop, retNull, 0)
		}
		pushed = MaxArguments
		if isVariadic {
			tail -= over
			if tail < 0 {
				tail = 0
				fixed = pushed
			}
		}
	}
	return pushed, fixed, tail, isConcat, isVariadic
}

// compileFormalToken compiles a plain typed formal (s/i/f/t): present
// tokens compile normally then FORCE to tag; a missing token pushes
// NULL, which FORCE coerces to that type's zero value. The t formal
// emits no FORCE, so it receives NULL unchanged.
func (c *compiler) compileFormalToken(t *token, tag retTag) {
	if t != nil {
		c.compileArgToken(*t)
	} else {
		c.emit(OpNull, retNull, 0)
	}
	if tag != retNull {
		c.emit(OpForce, tag, 0)
	}
}

// compileFormalIntOrMin implements 'b': an integer defaulting to
// math.MinInt64 (rather than zero) when the argument is missing, so a
// command body can distinguish "not supplied" from "supplied as 0".
func (c *compiler) compileFormalIntOrMin(t *token) {
	if t == nil {
		idx := c.addConst(IntVal(math.MinInt64))
		c.emit(OpVal, retNull, idx)
		return
	}
	c.compileArgToken(*t)
	c.emit(OpForce, retInt, 0)
}

// compileFormalFloatOrPrev implements 'F': a float defaulting to the
// previously pushed formal's value (duplicated off the stack) rather
// than zero, when one exists; the first formal in a call has no
// "previous" to copy.
func (c *compiler) compileFormalFloatOrPrev(t *token, havePrev bool) {
	if t != nil {
		c.compileArgToken(*t)
		c.emit(OpForce, retFloat, 0)
		return
	}
	if havePrev {
		c.emit(OpDup, retNull, 0)
		c.emit(OpForce, retFloat, 0)
		return
	}
	idx := c.addConst(FloatVal(0))
	c.emit(OpVal, retNull, idx)
}

// compileFormalCond implements 'E': a condition value (spec §4.7.1),
// using COND's existing empty-string-is-null/auto-compile behavior.
func (c *compiler) compileFormalCond(t *token) {
	if t != nil {
		c.compileArgToken(*t)
	} else {
		c.emit(OpNull, retNull, 0)
	}
	c.emit(OpCond, retNull, 0)
}

// compileFormalCode implements 'e': a code-block value, reusing the
// shared empty-block sentinel (spec §3.5) when the argument is
// missing rather than compiling and allocating a fresh one.
func (c *compiler) compileFormalCode(t *token) {
	if t == nil {
		c.emitEmptyCodeConst()
		return
	}
	if t.kind == tokBlock {
		c.compileArgToken(*t)
		return
	}
	c.compileArgToken(*t)
	c.emit(OpCompile, retNull, 0)
}

// compileFormalIdent implements 'r': an ident reference, defining a
// fresh alias for an unrecognized bare word exactly as LOCAL does
// (compileLocal), or pushing a throwaway dummy ident if the argument
// is missing.
func (c *compiler) compileFormalIdent(t *token) {
	name := ""
	if t != nil {
		name = t.text
	}
	if name == "" {
		dummy := &Alias{identHeader: identHeader{name: ""}}
		idx := c.addConst(IdentVal(dummy))
		c.emit(OpVal, retNull, idx)
		return
	}
	id, ok := c.state.idents.Lookup(name)
	if !ok {
		a := &Alias{identHeader: identHeader{name: name}}
		c.state.idents.Define(a)
		id = a
	}
	c.emit(OpIdent, retNull, int32(id.Index()))
}

// compileFormalSelf implements '$': a literal reference to the command
// being invoked, for native bodies that need their own identity (e.g.
// to report their own name in a message).
func (c *compiler) compileFormalSelf(cmd *Command) {
	idx := c.addConst(IdentVal(cmd))
	c.emit(OpVal, retNull, idx)
}

// emitEmptyCodeConst pushes one of the heap's shared empty-block
// sentinels as a CODE constant (spec §3.5) for a missing 'e' argspec
// formal. A literal `[]` reaches the same sentinel separately, through
// emitBlockConst and compileSource's isBlankSource fast path.
func (c *compiler) emitEmptyCodeConst() {
	code := wrapCode(c.state.codeHeap.Empty(int(retNull)), nil)
	idx := c.addConst(CodeVal(code))
	code.Unref()
	c.emit(OpVal, retNull, idx)
}
