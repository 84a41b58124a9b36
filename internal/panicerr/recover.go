package panicerr

import "golang.org/x/sync/errgroup"

// Recover runs f in an isolated goroutine, managed by an errgroup.Group so
// that a goroutine leaked by runtime.Goexit or a recovered panic surfaces as
// a plain error rather than crashing the caller; this is how a thread's Run
// isolates one interpreter invocation from the rest of the process.
func Recover(name string, f func() error) error {
	var g errgroup.Group
	done := false
	g.Go(func() (ferr error) {
		defer func() {
			if !done {
				ferr = exitError(name)
			}
		}()
		defer func() {
			if e := recover(); e != nil {
				done = true
				ferr = newPanicError(name, e)
			}
		}()
		ferr = f()
		done = true
		return ferr
	})
	return g.Wait()
}
