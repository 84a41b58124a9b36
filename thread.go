package cubescript

import (
	"context"
	"errors"

	"github.com/OctaForge/libcubescript-sub000/internal/panicerr"
)

// CallHook is invoked at VM entry (spec §5's cancellation hook): RunCode
// calls it once before executing, outside the panic-recovery wrapper. A
// non-nil error returned by the hook aborts the run and is returned from
// RunCode.
type CallHook func(th *Thread) error

// Interp is an interpreter instance: the embedder-facing handle that
// owns a *State and can mint one or more *Thread contexts over it
// (spec §5: "multiple interpreter instances may exist independently;
// additionally, auxiliary thread contexts may share an internal state
// with a main context"). Grounded on the teacher's top-level *VM type
// (core.go/api.go), split per original_source's state/thread
// separation.
type Interp struct {
	state *State
	main  *Thread
}

// Main returns the interpreter's default thread context, creating it on
// first use.
func (in *Interp) Main() *Thread {
	if in.main == nil {
		in.main = in.NewThread()
	}
	return in.main
}

// NewThread creates an additional thread context sharing in's state
// (spec §5's "auxiliary thread contexts"). Only one thread context may
// run at a time; the caller is responsible for that discipline (the
// core provides no locking, matching the single-threaded cooperative
// model of spec §5).
func (in *Interp) NewThread() *Thread {
	return &Thread{
		state:        in.state,
		frame:        rootFrame(),
		maxRunDepth:  in.state.maxRunDepth,
		aliasOverride: make(map[*Alias]bool),
	}
}

// Thread is a per-thread execution context (spec §3.4, §4.8, §5).
// Grounded on original_source/src/cs_thread.hh's thread_state: VM
// stack, ident stack, call stack, alias-stack map, call depth, loop
// level, error buffer, call hook, all scoped per-thread rather than
// shared, so that auxiliary thread contexts reentering the same
// *State do not clobber each other's in-flight call stacks.
type Thread struct {
	state *State

	frame       *callFrame
	callDepth   int
	maxRunDepth int
	loopLevel   int

	hook  CallHook
	trace callTrace

	overrideMode bool
	persistMode  bool

	// aliasOverride is allocated by NewThread but nothing reads or
	// writes it; ResetValue restores an alias to its registered value
	// without consulting it.
	aliasOverride map[*Alias]bool

	loopSignal loopSignal
}

// loopSignal is the non-local transfer raised by BREAK/CONTINUE and
// caught by the nearest loop driver (spec §4.8, §7), modeled as a
// distinct Go error type per spec §9's guidance rather than an untyped
// panic value.
type loopSignal struct {
	kind loopSignalKind
}

type loopSignalKind uint8

const (
	loopNone loopSignalKind = iota
	loopBreak
	loopContinue
)

func (loopSignal) Error() string { return "loop control outside a loop driver" }

// SetCallHook installs fn to run at the start of each RunCode (and so
// each Run/RunFile) on th. RunIdent, RunLoop and nested alias calls do
// not invoke it.
func (th *Thread) SetCallHook(fn CallHook) { th.hook = fn }

// SetMaxRunDepth overrides the recursion limit (spec §4.8.2).
func (th *Thread) SetMaxRunDepth(n int) { th.maxRunDepth = n }

// SetOverrideMode toggles override mode (spec §4.9).
func (th *Thread) SetOverrideMode(on bool) { th.overrideMode = on }

// SetPersistMode toggles persist mode (spec §4.9, §6.1).
func (th *Thread) SetPersistMode(on bool) { th.persistMode = on }

// SetTraceHook installs a TraceHook, optionally including opcode-level
// events (expensive; most embedders want call-boundary events only).
func (th *Thread) SetTraceHook(fn TraceHook, traceOps bool) {
	th.trace = callTrace{hook: fn, traceOps: traceOps}
}

// Run compiles and executes source, returning its result value (spec
// §6.1's run(source) -> value).
func (th *Thread) Run(ctx context.Context, source string) (v Value, err error) {
	code, err := compileSource(th.state, source)
	if err != nil {
		return Null, err
	}
	defer code.Unref()
	return th.RunCode(ctx, code)
}

// RunFile is Run with a filename recorded for diagnostics (spec
// §6.1's run(source, filename)).
func (th *Thread) RunFile(ctx context.Context, source, filename string) (Value, error) {
	// filename is accepted for API-contract parity (spec §6.1); this
	// core does not yet attach it to error call-stack snapshots, which
	// would require threading a source-name field through *Error.
	return th.Run(ctx, source)
}

// RunCode executes an already-compiled bytecode block (spec §6.1's
// run(bytecode) -> value). The body runs in an errgroup-isolated
// goroutine (internal/panicerr, grounded on the teacher's api.go entry
// point) so a raise/raiseif panic, or a stray runtime.Goexit, surfaces
// here as a plain error rather than unwinding past this call.
func (th *Thread) RunCode(ctx context.Context, code *Code) (Value, error) {
	if th.hook != nil {
		if herr := th.hook(th); herr != nil {
			return Null, herr
		}
	}
	var v Value
	err := panicerr.Recover("cubescript", func() error {
		var rerr error
		v, rerr = th.execCode(ctx, code, nil)
		return rerr
	})
	if err == nil {
		return v, nil
	}
	var ce *Error
	if errors.As(err, &ce) {
		return Null, ce
	}
	return Null, err
}

// RunIdent invokes id directly with args (spec §6.1's run(ident, args)).
func (th *Thread) RunIdent(ctx context.Context, id Ident, args []Value) (Value, error) {
	var v Value
	err := panicerr.Recover("cubescript", func() error {
		var rerr error
		switch t := id.(type) {
		case *Alias:
			v, rerr = th.callAlias(ctx, t, args)
		case *Command:
			v, rerr = th.callCommand(t, args)
		}
		return rerr
	})
	if err == nil {
		return v, nil
	}
	var ce *Error
	if errors.As(err, &ce) {
		return Null, ce
	}
	return Null, err
}

// LoopSignal reports a run_loop's termination reason (spec §6.1's
// run_loop(bytecode) -> {Normal,Break,Continue}).
type LoopSignal uint8

const (
	LoopNormal LoopSignal = iota
	LoopBreak
	LoopContinue
)

// RunLoop executes code as one loop-body iteration, reporting whether
// a break/continue occurred (spec §6.1).
func (th *Thread) RunLoop(ctx context.Context, code *Code) (LoopSignal, error) {
	th.loopLevel++
	defer func() { th.loopLevel-- }()

	runErr := panicerr.Recover("cubescript", func() error {
		_, rerr := th.execCode(ctx, code, nil)
		return rerr
	})
	if runErr == nil {
		return LoopNormal, nil
	}
	var ls loopSignal
	if errors.As(runErr, &ls) {
		switch ls.kind {
		case loopBreak:
			return LoopBreak, nil
		case loopContinue:
			return LoopContinue, nil
		}
		return LoopNormal, nil
	}
	var ce *Error
	if errors.As(runErr, &ce) {
		return LoopNormal, ce
	}
	return LoopNormal, runErr
}
