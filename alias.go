package cubescript

// aliasFrame is a linked stack node per alias (spec §3.4): pushing a new
// value for the duration of a `push`, `local`, or call-argument binding
// is implemented by threading a new frame onto the alias's stack head
// and popping it again on the way out, rather than the teacher's
// array-indexed pushr/popr return stack (FIRST has no per-name stacks,
// only one flat return stack; CubeScript needs one per alias).
type aliasFrame struct {
	value Value
	prev  *aliasFrame
}

// pushAlias pushes v as a's new current value, saving the old one on
// the per-alias stack.
func pushAlias(a *Alias, v Value) {
	a.stack = &aliasFrame{value: a.value, prev: a.stack}
	a.value = v
	a.invalidateCode()
}

// popAlias restores a's previous value from its per-alias stack. It is
// a programmer error to call popAlias without a matching pushAlias;
// callers (the VM's LOCAL/CALL/CALL_ARG handlers) always pair the two.
func popAlias(a *Alias) {
	frame := a.stack
	a.value = frame.value
	a.stack = frame.prev
	a.invalidateCode()
}

// setAlias replaces a's current value outright (spec §4.9: "assigning
// to an alias replaces its value and invalidates its cached bytecode"),
// with no stack interaction.
func setAlias(a *Alias, v Value) {
	a.value = v
	a.invalidateCode()
}

