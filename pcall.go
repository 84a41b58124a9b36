package cubescript

import "context"

// ProtectedCall executes body and converts a raised *Error into a
// status return instead of propagating the panic (spec §7, §8 scenario
// 7: "pcall [error "boom"] err tb sets alias err to "boom" and returns
// 0; without error, it returns 1"). msgAlias and stackAlias, if
// non-nil, are bound to the error's message and a space-separated
// rendering of its call-stack snapshot on failure; on success neither
// is touched.
//
// Grounded on original_source/command.cc's pcall implementation
// pattern (cs_error.hh/cs_vm.cc's error_p::make capture at an alias
// boundary), adapted from a panic/longjmp-style unwind to Go's
// recover.
func (th *Thread) ProtectedCall(ctx context.Context, body *Code, msgAlias, stackAlias *Alias) (result Value, ok bool) {
	savedDepth := th.callDepth
	defer func() {
		if r := recover(); r != nil {
			e := recoverError(r)
			if e == nil {
				panic(r)
			}
			th.callDepth = savedDepth
			if msgAlias != nil {
				setAlias(msgAlias, stringValFromStr(th.state.pool.Intern(e.Message)))
			}
			if stackAlias != nil {
				setAlias(stackAlias, stringValFromStr(th.state.pool.Intern(formatCallStack(e.Stack))))
			}
			result = IntVal(0)
			ok = false
		}
	}()
	_, err := th.execCode(ctx, body, nil)
	if err != nil {
		if e, isErr := err.(*Error); isErr {
			if msgAlias != nil {
				setAlias(msgAlias, stringValFromStr(th.state.pool.Intern(e.Message)))
			}
			if stackAlias != nil {
				setAlias(stackAlias, stringValFromStr(th.state.pool.Intern(formatCallStack(e.Stack))))
			}
			return IntVal(0), false
		}
		panic(err)
	}
	return IntVal(1), true
}

// formatCallStack renders a call-stack snapshot as a space-separated
// list of ident names, for binding to pcall's stack-trace alias. Names
// are joined as-is; a name that contains spaces is not quoted.
func formatCallStack(stack []CallStackEntry) string {
	s := ""
	for i, f := range stack {
		if f.Ident == nil {
			continue
		}
		if i > 0 {
			s += " "
		}
		s += f.Ident.Name()
	}
	return s
}
