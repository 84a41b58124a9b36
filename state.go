package cubescript

import (
	"github.com/OctaForge/libcubescript-sub000/internal/codeheap"
	"github.com/OctaForge/libcubescript-sub000/internal/flushio"
	"github.com/OctaForge/libcubescript-sub000/internal/strpool"
)

// State is the internal state shared by every *Thread reentering the
// same interpreter: the identifier table, string pool, and the default
// output sink used by the PRINT opcode's var-printer. Grounded on the
// teacher's VM struct composition (core.go embedding `logging` +
// fileinput.Input in one flat struct) split here into a shared-state /
// per-thread-context pair per original_source/src/cs_state.hh and
// cs_thread.hh, since CubeScript's concurrency model (spec §5) requires
// several thread contexts to reenter one shared state non-concurrently.
type State struct {
	idents   *IdentTable
	pool     *strpool.Pool
	codeHeap *codeheap.Heap

	maxRunDepth int

	varPrinter func(th *Thread, id Ident)
	out        flushio.WriteFlusher

	numargs  *IntVar
	dbgalias *IntVar
}

// Option configures a new Interp at construction time (spec §2's
// ambient "Configuration" concern). Grounded directly on the teacher's
// VMOption/options/noption composite pattern (options.go).
type Option interface{ apply(st *State) }

type options []Option

func (opts options) apply(st *State) {
	for _, opt := range opts {
		if opt != nil {
			opt.apply(st)
		}
	}
}

type noption struct{}

func (noption) apply(*State) {}

// Options composes opts into one Option, exactly as the teacher's
// VMOptions does.
func Options(opts ...Option) Option {
	var res options
	for _, opt := range opts {
		switch impl := opt.(type) {
		case nil, noption:
		case options:
			res = append(res, impl...)
		default:
			res = append(res, opt)
		}
	}
	switch len(res) {
	case 0:
		return noption{}
	case 1:
		return res[0]
	default:
		return res
	}
}

type maxRunDepthOption int

func (o maxRunDepthOption) apply(st *State) { st.maxRunDepth = int(o) }

// WithMaxRunDepth bounds the VM's call-stack recursion depth (spec
// §4.8.2's max_call_depth, default 1024).
func WithMaxRunDepth(n int) Option { return maxRunDepthOption(n) }

type outputOption struct{ w flushio.WriteFlusher }

func (o outputOption) apply(st *State) { st.out = o.w }

// WithOutput sets the sink the PRINT opcode's var-printer writes to.
func WithOutput(w flushio.WriteFlusher) Option { return outputOption{w} }

type varPrinterOption func(*Thread, Ident)

func (o varPrinterOption) apply(st *State) { st.varPrinter = o }

// WithVarPrinter overrides the default `name = value` var-printer (spec
// §6.3).
func WithVarPrinter(fn func(th *Thread, id Ident)) Option {
	return varPrinterOption(fn)
}

// New constructs a fresh interpreter state: identifier table (with
// reserved arg aliases and builtin keywords installed), string pool,
// and the numargs/dbgalias supplemented vars (spec's Supplemented
// Features section: these are real table entries, grounded on
// original_source/src/cs_state.hh's ivar_numargs/ivar_dbgalias).
func New(opts ...Option) *Interp {
	st := &State{
		idents:      NewIdentTable(),
		pool:        strpool.NewPool(),
		maxRunDepth: 1024,
	}
	st.idents.DefineBuiltins()

	// One shared sentinel block per return tag (spec §3.5): an empty
	// `[]`, a missing 'e' argspec formal, and any alias bound to the
	// empty string all compile down to the same zero-alloc EXIT-only
	// block rather than each minting their own.
	var exitWords [4]uint32
	for tag := range exitWords {
		exitWords[tag] = encodeInstr(OpExit, retTag(tag), 0)
	}
	st.codeHeap = codeheap.NewHeap(exitWords)

	st.numargs = &IntVar{identHeader: identHeader{name: "numargs", flags: FlagReadOnly}, Min: 0, Max: MaxArguments}
	st.idents.insert(st.numargs)
	st.dbgalias = &IntVar{identHeader: identHeader{name: "dbgalias"}, Value: 4, Min: 0, Max: 256}
	st.idents.insert(st.dbgalias)

	Options(opts...).apply(st)
	if st.out == nil {
		st.out = flushio.NewWriteFlusher(discardWriter{})
	}
	if st.varPrinter == nil {
		st.varPrinter = defaultVarPrinter
	}
	return &Interp{state: st}
}

type discardWriter struct{}

func (discardWriter) Write(p []byte) (int, error) { return len(p), nil }
