package cubescript

// usedArgsAll is the root frame's usedargs value: "all-ones" per spec
// §3.4, meaning every argN slot is considered explicitly supplied.
const usedArgsAll = ^uint32(0)

// callFrame is one entry of the call stack (spec §3.4): the ident that
// was called, a bitset of which argN slots the caller explicitly
// supplied (the VM sets it once per call and never calls markUsed, so
// IDENT-family opcodes do not add slots to it), and a link to the caller's
// frame for building error-message call-stack snapshots (spec §4.10).
type callFrame struct {
	ident    Ident
	parent   *callFrame
	usedargs uint32
	depth    int // logical depth from the outermost call, for §4.10
}

// rootFrame constructs the implicit outermost call-stack frame.
func rootFrame() *callFrame {
	return &callFrame{usedargs: usedArgsAll}
}

// markUsed records that slot i (0-based) was observed during this call.
func (f *callFrame) markUsed(i int) {
	if i >= 0 && i < 32 {
		f.usedargs |= 1 << uint(i)
	}
}

// isUsed reports whether slot i was observed during this call.
func (f *callFrame) isUsed(i int) bool {
	if i < 0 || i >= 32 {
		return false
	}
	return f.usedargs&(1<<uint(i)) != 0
}

// snapshot walks up to depth frames from f (inclusive), producing the
// {ident, logical-depth} pairs spec §4.10 requires for error messages.
// dbgalias bounds how many frames are captured, default 4.
func (f *callFrame) snapshot(dbgalias int) []CallStackEntry {
	if dbgalias <= 0 {
		dbgalias = 4
	}
	var entries []CallStackEntry
	for cur := f; cur != nil && cur.ident != nil && len(entries) < dbgalias; cur = cur.parent {
		entries = append(entries, CallStackEntry{Ident: cur.ident, Depth: cur.depth})
	}
	return entries
}

// CallStackEntry is one frame of an error's call-stack snapshot (spec
// §4.10).
type CallStackEntry struct {
	Ident Ident
	Depth int
}
