// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package await

// AsyncFunc is the body signature required by StartAsync. Returning nil
// completes the awaitable, returning an error fails it. Uncaught panics
// fail it as well, with the same identity when the value is an error.
type AsyncFunc func(self *Awaitable) error

// StartAsync runs fn in a new coro and returns an awaitable that settles
// when fn exits. The body runs synchronously through its first
// suspension before StartAsync returns; stackSize is the stack pool hint
// as in NewCoro.
//
// Closing the returned awaitable while fn is still running interrupts it
// with a forced unwind. fn must exit promptly on it; make sure not to
// swallow it in a blanket recover.
func StartAsync(tag string, fn AsyncFunc, stackSize ...int) *Awaitable {
	if fn == nil {
		panic("await: nil async body")
	}
	a := New(tag)
	// The runtime owns completion while the bound coro runs.
	a.armed = true
	debugf("start async '%s' #%d", tag, a.serial)

	c := NewEmptyCoro(tag, stackSize...)
	a.bound = c
	c.Start(func(any) {
		var err error
		func() {
			defer func() {
				if r := recover(); r != nil {
					if e, ok := r.(error); ok && e == ErrForcedUnwind {
						err = ErrForcedUnwind
						return
					}
					err = asError(r)
				}
			}()
			err = fn(a)
		}()

		if a.IsDone() {
			panic("await: async body settled its own awaitable")
		}

		// Rewire the parent so that the final yield, performed after this
		// function returns and the stack is fully unwound, lands on the
		// right target.
		if aw := a.awaiter; aw != nil {
			c.SetParent(aw)
			a.awaiter = nil
		} else {
			c.SetParent(MasterCoro())
		}

		// awaiter is cleared, so settling here records the outcome
		// without yielding from within the body.
		if err == nil {
			a.complete()
		} else {
			a.fail(err)
		}
	})

	// Run the body through its first suspension (or to completion)
	// before returning to the caller.
	g := PushMaster()
	receive(CurrentCoro().transfer(c, transferValue(nil)))
	g.Pop()
	return a
}
