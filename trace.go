package cubescript

// TraceEventKind classifies one TraceEvent.
type TraceEventKind uint8

const (
	TraceAliasCall TraceEventKind = iota
	TraceCommandCall
	TraceOpcode
)

// TraceEvent is delivered to a configured trace hook at alias-call and
// command-call boundaries, and at each opcode dispatch when
// instruction-level tracing is enabled (spec §2's ambient logging,
// generalized from the teacher's `logging` struct — a logfn hook plus
// column-width bookkeeping consumed by VM.step()'s trace line — into a
// structured event instead of a preformatted string, since CubeScript's
// events carry ident/opcode identity an embedder may want to filter on
// rather than just print).
type TraceEvent struct {
	Kind   TraceEventKind
	Ident  Ident  // set for TraceAliasCall/TraceCommandCall
	Opcode Opcode // set for TraceOpcode
	Depth  int
}

// TraceHook receives TraceEvents; it must not itself recurse into the
// VM.
type TraceHook func(TraceEvent)

// callTrace holds a thread's trace configuration: the hook, and whether
// opcode-level tracing is enabled (most embedders only want call-
// boundary events, which are cheap; opcode tracing is comparatively
// expensive and opt-in).
type callTrace struct {
	hook       TraceHook
	traceOps   bool
}

func (t *callTrace) emit(kind TraceEventKind, id Ident, op Opcode, depth int) {
	if t.hook == nil {
		return
	}
	if kind == TraceOpcode && !t.traceOps {
		return
	}
	t.hook(TraceEvent{Kind: kind, Ident: id, Opcode: op, Depth: depth})
}
