package cubescript

import (
	"context"
	"fmt"
)

// coerce applies a return-type tag to v per spec §4.7/§4.8: retNull
// preserves v's current type unchanged (mirroring
// original_source/src/cs_bcode.hh's VAL_ANY/"null in general preserves
// the type" note), the other three tags force-convert.
func (th *Thread) coerce(v Value, tag retTag) Value {
	switch tag {
	case retInt:
		n := v.AsInt()
		return IntVal(n)
	case retFloat:
		return FloatVal(v.AsFloat())
	case retString:
		return StringVal(th.state.pool, v.AsString())
	default:
		return v
	}
}

// execCode is the VM's interpretive loop (spec §4.8): a flat
// fetch-decode-dispatch loop over code's instruction words, maintaining
// a local Go-stack-resident operand stack. Grounded on the teacher's
// step()/exec()/run() trio (internals.go: a for-loop fetch-decode-
// dispatch over a flat vmCodeTable [vmCodeMax]func(vm *VM) opcode
// table) and first.go's opcode-table-by-identity pattern. Nested
// evaluation (DO, `(...)` arguments, alias calls) recurses into execCode
// using Go's own call stack, which is how this implementation realizes
// spec §4.8's "recursively invoke the VM" wording for ENTER/DO without
// needing to splice instruction streams inline (see DESIGN.md for why
// this trades the spec's literal inline-ENTER/EXIT encoding for
// independently compiled sub-blocks).
func (th *Thread) execCode(ctx context.Context, code *Code, args []Value) (Value, error) {
	if err := ctx.Err(); err != nil {
		return Null, err
	}
	th.callDepth++
	defer func() { th.callDepth-- }()
	raiseif(th.callDepth > th.maxRunDepth, ErrExecution, th.frame.snapshot(th.dbgaliasDepth()),
		"recursion limit exceeded (%d)", th.maxRunDepth)

	words := code.Words()
	var stack []Value
	var pendingLocals []*Alias
	result := Null

	defer func() {
		for i := len(pendingLocals) - 1; i >= 0; i-- {
			popAlias(pendingLocals[i])
		}
	}()

	pc := 0
	for pc < len(words) {
		in := decodeInstr(words[pc])
		th.trace.emit(TraceOpcode, nil, in.op, th.callDepth)
		switch in.op {
		case OpStart, OpOffset:
			// no-op headers; present for the family's completeness.

		case OpNull:
			stack = append(stack, Null)
		case OpTrue:
			stack = append(stack, IntVal(1))
		case OpFalse:
			stack = append(stack, IntVal(0))
		case OpNot:
			v := pop(&stack)
			stack = append(stack, th.coerce(boolValue(!v.AsBool()), in.ret))

		case OpPop:
			pop(&stack)
		case OpDup:
			v := top(stack)
			stack = append(stack, v)
		case OpForce:
			v := pop(&stack)
			stack = append(stack, th.coerce(v, in.ret))

		case OpVal:
			stack = append(stack, code.Const(in.data))
		case OpValInt:
			stack = append(stack, IntVal(IntValue(in.data)))

		case OpResult:
			result = pop(&stack)
		case OpResultArg:
			stack = append(stack, th.coerce(result, in.ret))

		case OpEnter:
			// Sub-expression nesting is realized via independently
			// compiled Code constants (see func doc); a bare ENTER with
			// no such constant is a no-op continuation.
		case OpEnterResult:

		case OpExit:
			v := result
			if len(stack) > 0 {
				v = top(stack)
			}
			return th.coerce(v, in.ret), nil

		case OpBlock, OpEmpty:
			stack = append(stack, code.Const(in.data))
		case OpCompile:
			v := pop(&stack)
			c, err := compileSource(th.state, v.AsString())
			if err != nil {
				return Null, err
			}
			stack = append(stack, CodeVal(c))
			c.Unref()
		case OpCond:
			v := pop(&stack)
			if v.Tag() == TagString && v.AsString() == "" {
				stack = append(stack, Null)
			} else if v.Tag() == TagString {
				c, err := compileSource(th.state, v.AsString())
				if err != nil {
					return Null, err
				}
				stack = append(stack, CodeVal(c))
				c.Unref()
			} else {
				stack = append(stack, v)
			}

		case OpIdent, OpIdentArg, OpIdentU:
			id := th.state.idents.At(int(in.dataU()))
			stack = append(stack, IdentVal(id))

		case OpLookup, OpLookupArg:
			id := th.state.idents.At(int(in.dataU()))
			stack = append(stack, th.coerce(th.readIdent(id), in.ret))
		case OpLookupU:
			var name string
			if in.data < 0 {
				// computed name: `$(expr)`/`$[expr]` (spec §4.7) already
				// ran expr and left its string form on the stack instead
				// of a constant-pool index.
				name = pop(&stack).AsString()
			} else {
				name = code.Const(in.data).AsString()
			}
			id, ok := th.state.idents.Lookup(name)
			if !ok {
				raise(ErrName, th.frame.snapshot(th.dbgaliasDepth()), "unknown identifier %q", name)
			}
			stack = append(stack, th.coerce(th.readIdent(id), in.ret))

		case OpSVar, OpIVar, OpFVar:
			id := th.state.idents.At(int(in.dataU()))
			stack = append(stack, th.coerce(th.readIdent(id), in.ret))

		case OpIVar1:
			v := pop(&stack)
			iv, _ := th.state.idents.At(int(in.dataU())).(*IntVar)
			th.setIntVar(iv, v.AsInt())
		case OpFVar1:
			v := pop(&stack)
			fv, _ := th.state.idents.At(int(in.dataU())).(*FloatVar)
			th.setFloatVar(fv, v.AsFloat())
		case OpSVar1:
			v := pop(&stack)
			sv, _ := th.state.idents.At(int(in.dataU())).(*StringVar)
			th.setStringVar(sv, v.AsString())
		case OpIVar2, OpIVar3:
			// Packed multi-field int-var writers (color-like fields);
			// not emitted by this compiler, kept for opcode-family
			// completeness.
			n := 1
			if in.op == OpIVar3 {
				n = 2
			}
			for i := 0; i < n; i++ {
				pop(&stack)
			}
			pop(&stack)

		case OpPrint:
			id := th.state.idents.At(int(in.dataU()))
			th.state.varPrinter(th, id)

		case OpAlias:
			v := pop(&stack)
			a, _ := th.state.idents.At(int(in.dataU())).(*Alias)
			if a != nil {
				setAlias(a, v)
			}
		case OpAliasArg:
			v := pop(&stack)
			a, _ := th.state.idents.At(int(in.dataU())).(*Alias)
			if a != nil {
				a.value = v
			}
		case OpAliasU:
			name := pop(&stack).AsString()
			v := pop(&stack)
			id, ok := th.state.idents.Lookup(name)
			if !ok {
				id = &Alias{identHeader: identHeader{name: name}}
				th.state.idents.Define(id)
			}
			if a, ok := id.(*Alias); ok {
				setAlias(a, v)
			}

		case OpLocal:
			n := int(in.dataU())
			for i := 0; i < n; i++ {
				v := pop(&stack)
				if a, ok := v.id.(*Alias); ok && v.Tag() == TagIdent {
					pushAlias(a, Null)
					pendingLocals = append(pendingLocals, a)
				}
			}

		case OpDo:
			v := pop(&stack)
			rv, err := th.doValue(ctx, v)
			if err != nil {
				return Null, err
			}
			stack = append(stack, th.coerce(rv, in.ret))
		case OpDoArgs:
			v := pop(&stack)
			rv, err := th.doValue(ctx, v)
			if err != nil {
				return Null, err
			}
			stack = append(stack, th.coerce(rv, in.ret))

		case OpJump:
			pc = int(in.dataU())
			continue
		case OpJumpB:
			v := pop(&stack)
			if !v.AsBool() {
				pc = int(in.dataU())
				continue
			}
		case OpJumpResult:
			v, err := th.reduceAndOr(ctx, code, in)
			if err != nil {
				return Null, err
			}
			stack = append(stack, v)

		case OpBreak, OpContinue:
			kind := loopBreak
			if in.op == OpContinue {
				kind = loopContinue
			}
			raiseif(th.loopLevel == 0, ErrExecution, th.frame.snapshot(th.dbgaliasDepth()),
				"break/continue outside loop")
			panic(loopSignal{kind: kind})

		case OpConc, OpConcW, OpConcM:
			n := int(in.dataU())
			vals := popN(&stack, n)
			sep := " "
			if in.op == OpConcW {
				sep = ""
			}
			s := ListConcat(vals, sep)
			v := th.coerce(StringVal(th.state.pool, s), in.ret)
			if in.op == OpConcM {
				result = v
			} else {
				stack = append(stack, v)
			}

		case OpCom, OpComV:
			idx := int(in.dataU())
			pc++
			n := int(words[pc])
			args := popN(&stack, n)
			cmd, _ := th.state.idents.At(idx).(*Command)
			v, err := th.callCommand(cmd, args)
			if err != nil {
				return Null, err
			}
			stack = append(stack, th.coerce(v, in.ret))

		case OpComC:
			// unlike COM/COM_V, COM_C's trailing words split the popped
			// span into a fixed prefix and a tail that gets concatenated
			// into one string argument (spec §4.7.1's C formal), so a
			// leading run of typed formals ahead of the variadic tail
			// stays positional instead of being swallowed into it.
			idx := int(in.dataU())
			pc++
			fixedN := int(words[pc])
			pc++
			tailN := int(words[pc])
			tailArgs := popN(&stack, tailN)
			fixedArgs := popN(&stack, fixedN)
			cmd, _ := th.state.idents.At(idx).(*Command)
			args := append(fixedArgs, StringVal(th.state.pool, ListConcat(tailArgs, " ")))
			v, err := th.callCommand(cmd, args)
			if err != nil {
				return Null, err
			}
			stack = append(stack, th.coerce(v, in.ret))

		case OpCall:
			idx := int(in.dataU())
			pc++
			n := int(words[pc])
			args := popN(&stack, n)
			a, _ := th.state.idents.At(idx).(*Alias)
			v, err := th.callAlias(ctx, a, args)
			if err != nil {
				return Null, err
			}
			stack = append(stack, th.coerce(v, in.ret))

		case OpCallArg:
			idx := int(in.dataU())
			pc++
			n := int(words[pc])
			args := popN(&stack, n)
			a, _ := th.state.idents.At(idx).(*Alias)
			if a == nil || !th.frame.isUsed(idx) {
				// calling one of the reserved arg1..argN slots when the
				// enclosing alias call didn't actually supply that slot
				// (spec §3.4/§4.8.1's usedargs) is an unset-name error,
				// not a call to an alias bound to the empty string.
				name := "argument"
				if a != nil {
					name = a.Name()
				}
				raise(ErrName, th.frame.snapshot(th.dbgaliasDepth()), "call to unset argument %q", name)
			}
			v, err := th.callAlias(ctx, a, args)
			if err != nil {
				return Null, err
			}
			stack = append(stack, th.coerce(v, in.ret))

		case OpCallU:
			name := code.Const(in.data).AsString()
			pc++
			n := int(words[pc])
			args := popN(&stack, n)
			id, ok := th.state.idents.Lookup(name)
			if !ok {
				raise(ErrName, th.frame.snapshot(th.dbgaliasDepth()), "unknown command %q", name)
			}
			var v Value
			var err error
			switch t := id.(type) {
			case *Alias:
				v, err = th.callAlias(ctx, t, args)
			case *Command:
				v, err = th.callCommand(t, args)
			default:
				v = th.readIdent(id)
			}
			if err != nil {
				return Null, err
			}
			stack = append(stack, th.coerce(v, in.ret))

		default:
			panic(fmt.Sprintf("cubescript: unhandled opcode %d", in.op))
		}
		pc++
	}
	v := result
	if len(stack) > 0 {
		v = top(stack)
	}
	return v, nil
}

func boolValue(b bool) Value {
	if b {
		return IntVal(1)
	}
	return IntVal(0)
}

func pop(stack *[]Value) Value {
	s := *stack
	if len(s) == 0 {
		return Null
	}
	v := s[len(s)-1]
	*stack = s[:len(s)-1]
	return v
}

func top(stack []Value) Value {
	if len(stack) == 0 {
		return Null
	}
	return stack[len(stack)-1]
}

func popN(stack *[]Value, n int) []Value {
	s := *stack
	if n > len(s) {
		n = len(s)
	}
	out := make([]Value, n)
	copy(out, s[len(s)-n:])
	*stack = s[:len(s)-n]
	return out
}

// readIdent dispatches an ident read per LOOKUP's family semantics:
// alias value, var value, or a zero-arg command invocation.
func (th *Thread) readIdent(id Ident) Value {
	switch t := id.(type) {
	case *Alias:
		return t.value
	case *IntVar:
		return IntVal(t.Value)
	case *FloatVar:
		return FloatVal(t.Value)
	case *StringVar:
		return stringValFromStr(th.state.pool.Ref(t.Value))
	case *Command:
		v, err := th.callCommand(t, nil)
		if err != nil {
			panic(err)
		}
		return v
	default:
		return Null
	}
}

// doValue executes v as nested code if it is a CODE value, else
// returns it unchanged (DO's semantics per spec §4.8).
func (th *Thread) doValue(ctx context.Context, v Value) (Value, error) {
	if v.Tag() != TagCode || v.c == nil {
		return v, nil
	}
	return th.execCode(ctx, v.c, nil)
}

// reduceAndOr implements this package's simplified, non-short-circuit-
// free reduction of `&&`/`||` (see compileAndOr's doc comment): data
// packs (count<<16 | baseConstIndex); ret == retInt means AND, anything
// else means OR.
func (th *Thread) reduceAndOr(ctx context.Context, code *Code, in instr) (Value, error) {
	count := int(uint32(in.data) >> 16)
	base := int32(uint32(in.data) & 0xFFFF)
	isAnd := in.ret == retInt
	result := boolValue(!isAnd)
	for i := 0; i < count; i++ {
		branch := code.Const(base + int32(i))
		v, err := th.doValue(ctx, branch)
		if err != nil {
			return Null, err
		}
		result = v
		if isAnd && !v.AsBool() {
			break
		}
		if !isAnd && v.AsBool() {
			break
		}
	}
	return result, nil
}

func (th *Thread) dbgaliasDepth() int {
	if th.state.dbgalias == nil {
		return 4
	}
	return int(th.state.dbgalias.Value)
}

// setIntVar applies the checked setter of spec §4.9.
func (th *Thread) setIntVar(v *IntVar, n IntValue) {
	if v == nil {
		return
	}
	raiseif(v.Flags().Has(FlagReadOnly), ErrName, nil, "variable %q is read-only", v.Name())
	if th.overrideMode || v.Flags().Has(FlagOverridable) {
		if !v.Flags().Has(FlagOverridden) {
			v.override = v.Value
			v.setFlags(v.Flags() | FlagOverridden)
		}
	}
	if v.Min != 0 || v.Max != 0 {
		if n < v.Min {
			n = v.Min
		}
		if n > v.Max {
			n = v.Max
		}
	}
	v.Value = n
	if v.OnChange != nil {
		v.OnChange(th, v)
	}
}

func (th *Thread) setFloatVar(v *FloatVar, f FloatValue) {
	if v == nil {
		return
	}
	raiseif(v.Flags().Has(FlagReadOnly), ErrName, nil, "variable %q is read-only", v.Name())
	if th.overrideMode || v.Flags().Has(FlagOverridable) {
		if !v.Flags().Has(FlagOverridden) {
			v.override = v.Value
			v.setFlags(v.Flags() | FlagOverridden)
		}
	}
	if v.Min != 0 || v.Max != 0 {
		if f < v.Min {
			f = v.Min
		}
		if f > v.Max {
			f = v.Max
		}
	}
	v.Value = f
	if v.OnChange != nil {
		v.OnChange(th, v)
	}
}

func (th *Thread) setStringVar(v *StringVar, s string) {
	if v == nil {
		return
	}
	raiseif(v.Flags().Has(FlagReadOnly), ErrName, nil, "variable %q is read-only", v.Name())
	if th.overrideMode || v.Flags().Has(FlagOverridable) {
		if !v.Flags().Has(FlagOverridden) {
			v.override = v.Value
			v.setFlags(v.Flags() | FlagOverridden)
		}
	}
	th.state.pool.Unref(v.Value)
	v.Value = th.state.pool.Intern(s)
	if v.OnChange != nil {
		v.OnChange(th, v)
	}
}

// callAlias invokes alias a with args per spec §4.8.1's alias-
// invocation recipe.
func (th *Thread) callAlias(ctx context.Context, a *Alias, args []Value) (Value, error) {
	if a == nil {
		raise(ErrName, th.frame.snapshot(th.dbgaliasDepth()), "call to undefined alias")
	}
	raiseif(len(args) > MaxArguments, ErrArgument, th.frame.snapshot(th.dbgaliasDepth()),
		"too many arguments (%d > %d)", len(args), MaxArguments)

	// 1. push each argN alias's current value, replacing with the
	// caller's argument.
	argAliases := make([]*Alias, len(args))
	for i, v := range args {
		argIdent, _ := th.state.idents.Lookup(fmt.Sprintf("arg%d", i+1))
		argAlias := argIdent.(*Alias)
		pushAlias(argAlias, v)
		argAliases[i] = argAlias
	}

	// 2. save numargs and the ident-flag bitmask.
	prevNumargs := th.state.numargs.Value
	th.state.numargs.Value = IntValue(len(args))
	prevFlags := a.Flags()
	a.setFlags(prevFlags | FlagOverridden)

	// 3. push a new call-stack frame.
	frame := &callFrame{ident: a, parent: th.frame, usedargs: (uint32(1) << uint(len(args))) - 1, depth: th.frame.depth + 1}
	th.frame = frame
	th.trace.emit(TraceAliasCall, a, 0, th.callDepth)

	defer func() {
		// 6. on return (including by exception): pop the frame, restore
		// numargs and flags, pop the argN stacks.
		th.frame = frame.parent
		th.state.numargs.Value = prevNumargs
		a.setFlags(prevFlags)
		for _, argAlias := range argAliases {
			popAlias(argAlias)
		}
	}()

	// 4. compile (or reuse cached) bytecode for a's string value.
	if a.code == nil {
		c, err := compileSource(th.state, a.value.AsString())
		if err != nil {
			return Null, err
		}
		a.code = c
	}
	code := a.code.Ref()
	defer code.Unref()

	// 5. recurse the VM into the body.
	return th.execCode(ctx, code, args)
}

// callCommand invokes a native command. All of argspec's per-formal
// coercion (spec §4.7.1's s/i/b/f/F/t/E/e/r/$/N/C/V forms) already
// happened at the call site — compileCommandArgs built the bytecode
// that pushed and typed each argument — so by the time callCommand
// runs, args are just the already-coerced values in call order.
func (th *Thread) callCommand(cmd *Command, args []Value) (Value, error) {
	if cmd == nil {
		raise(ErrName, th.frame.snapshot(th.dbgaliasDepth()), "call to undefined command")
	}
	th.trace.emit(TraceCommandCall, cmd, 0, th.callDepth)
	var ret Value
	if cmd.Fn != nil {
		if err := cmd.Fn(th, args, &ret); err != nil {
			if e, ok := err.(*Error); ok {
				panic(e)
			}
			raise(ErrExecution, th.frame.snapshot(th.dbgaliasDepth()), "%v", err)
		}
	}
	return ret, nil
}
