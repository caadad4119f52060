// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package await

// An Awaitable is a single-shot object standing for an in-flight
// asynchronous operation. It is created in the nil state, armed by
// TakeCompleter (or by StartAsync, where the runtime owns completion
// while the bound coro runs), and ends in exactly one of the terminal
// states: completed or failed.
//
// An awaitable exclusively owns its bound coro, if any, and destroys it
// when closed. The awaiting-coro relation is a non-owning back-reference
// cleared after resumption.
//
// Not thread safe. Awaitables are designed for single-threaded use.
type Awaitable struct {
	serial    Serial
	tag       string
	bound     *Coro
	awaiter   *Coro
	completed bool
	err       error
	guard     *completerGuard
	// armed is set while completion is owed: a completer is outstanding
	// or a bound coro is running.
	armed    bool
	onDone   notifier
	userData any
	userFree func()
	closed   bool
}

// New creates an awaitable in the nil state: no completer taken, not
// done. The scheduler hook must be installed first.
func New(tag string) *Awaitable {
	if scheduleHook == nil {
		panic("await: scheduler not initialized, call InitScheduler")
	}
	initMain()
	a := &Awaitable{serial: nextSerial(), tag: tag}
	debugf("create awaitable '%s' #%d", tag, a.serial)
	return a
}

// Completed creates an awaitable already in the completed state, without
// allocating a completer.
func Completed(tag string) *Awaitable {
	a := New(tag)
	a.completed = true
	return a
}

// Failed creates an awaitable already in the failed state, without
// allocating a completer.
func Failed(tag string, err error) *Awaitable {
	if err == nil {
		panic("await: Failed with nil error")
	}
	a := New(tag)
	a.err = err
	return a
}

// Tag returns the awaitable's identifier for debugging.
func (a *Awaitable) Tag() string {
	return a.tag
}

// SetTag sets an identifier for debugging.
func (a *Awaitable) SetTag(tag string) {
	a.tag = tag
}

// Serial returns the serial number assigned to this awaitable.
func (a *Awaitable) Serial() Serial {
	return a.serial
}

// DidComplete reports whether the operation completed successfully.
func (a *Awaitable) DidComplete() bool {
	return a.completed
}

// DidFail reports whether the operation failed.
func (a *Awaitable) DidFail() bool {
	return a.err != nil
}

// IsDone reports whether the awaitable reached a terminal state.
func (a *Awaitable) IsDone() bool {
	return a.completed || a.err != nil
}

// Err returns the failure recorded on the awaitable, or nil.
func (a *Awaitable) Err() error {
	return a.err
}

// OnDone adds fn to be called when the awaitable reaches a terminal
// state and returns a removable connection. The signal fires before the
// awaiting coro is resumed, so fn observes the terminal state.
func (a *Awaitable) OnDone(fn func(*Awaitable)) Connection {
	if fn == nil {
		panic("await: nil done handler")
	}
	return a.onDone.connect(fn)
}

// OnDoneLight adds a non-removable done handler.
func (a *Awaitable) OnDoneLight(fn func(*Awaitable)) {
	if fn == nil {
		panic("await: nil done handler")
	}
	a.onDone.connectLight(fn)
}

// BindUserData associates custom data with the awaitable. A previously
// bound deleter runs first. If free is non-nil it runs when the
// awaitable is closed.
func (a *Awaitable) BindUserData(v any, free func()) {
	if a.userFree != nil {
		a.userFree()
	}
	a.userData = v
	a.userFree = free
}

// UserData returns the data bound with BindUserData.
func (a *Awaitable) UserData() any {
	return a.userData
}

// Await suspends the current coro until the awaitable is done. It must
// be called from a non-master coro; at most one coro may await a given
// awaitable at a time.
//
// A completed awaitable returns nil immediately; a failed one returns
// its recorded error, on this and every subsequent call. Otherwise the
// awaitable must be armed: the current coro is recorded as the awaiter
// and control yields to the master coro until a completer (or the bound
// coro's exit) resumes it.
func (a *Awaitable) Await() error {
	cur := CurrentCoro()
	if cur == MasterCoro() {
		panic("await: Await called from the master coro")
	}
	debugf("coro '%s' awaits '%s'", cur.tag, a.tag)
	if a.IsDone() {
		return a.err
	}
	if !a.armed {
		panic("await: awaitable has no completer")
	}
	if a.awaiter != nil {
		panic("await: awaitable is already being awaited")
	}
	a.awaiter = cur
	receive(cur.transfer(MasterCoro(), transferValue(nil)))
	if !a.IsDone() {
		panic("await: awaitable resumed while not done")
	}
	a.awaiter = nil
	return a.err
}

// complete flips the awaitable to the completed state, fires the done
// signal, and resumes the awaiter if one is registered.
func (a *Awaitable) complete() {
	debugf("complete awaitable '%s' #%d", a.tag, a.serial)
	if a.completed {
		panic("await: awaitable already completed")
	}
	if a.err != nil {
		panic("await: cannot complete, awaitable already failed")
	}
	a.completed = true
	a.armed = false
	a.settle()
}

// fail flips the awaitable to the failed state, storing err.
func (a *Awaitable) fail(err error) {
	debugf("fail awaitable '%s' #%d: %v", a.tag, a.serial, err)
	if err == nil {
		panic("await: fail with nil error")
	}
	if a.err != nil {
		panic("await: awaitable already failed")
	}
	if a.completed {
		panic("await: cannot fail, awaitable already completed")
	}
	a.err = err
	a.armed = false
	a.settle()
}

// settle runs the shared tail of complete and fail: expire outstanding
// completer copies, notify observers, then transfer to the awaiter. The
// awaiter resumes before the completer invocation returns.
func (a *Awaitable) settle() {
	a.dropGuard()
	a.onDone.fire(a)
	if aw := a.awaiter; aw != nil {
		cur := CurrentCoro()
		if cur != MasterCoro() && cur != a.bound {
			panic("await: awaitable settled from the wrong coro")
		}
		receive(cur.transfer(aw, transferValue(nil)))
	}
}

func (a *Awaitable) dropGuard() {
	if a.guard != nil {
		a.guard.done = true
		a.guard = nil
	}
}

// Close destroys the awaitable, canceling the operation if it is still
// in flight:
//
//   - the awaiting coro, if any, is detached (it may outlive this
//     awaitable);
//   - a still-running bound coro is resumed exactly once with a forced
//     unwind and must exit promptly;
//   - an armed awaitable with no bound coro is failed with
//     ErrYieldForbidden, notifying observers, since its completer can no
//     longer resume anyone;
//   - the bound coro's stack returns to the pool, and the user-data
//     deleter runs.
//
// Close is idempotent.
func (a *Awaitable) Close() {
	if a.closed {
		return
	}
	a.closed = true
	status := "interrupted"
	if a.completed {
		status = "completed"
	} else if a.err != nil {
		status = "failed"
	}
	debugf("destroy awaitable '%s' #%d (%s)", a.tag, a.serial, status)
	if a.IsDone() {
		if a.awaiter != nil {
			panic("await: destroying a done awaitable that is still awaited")
		}
	} else {
		a.awaiter = nil
		if a.bound != nil && a.bound.IsRunning() {
			g := PushMaster()
			a.bound.SetParent(CurrentCoro())
			ForceUnwind(a.bound)
			g.Pop()
		} else if a.armed {
			a.err = ErrYieldForbidden
			a.armed = false
			a.dropGuard()
			a.onDone.fire(a)
		}
	}
	if a.bound != nil {
		a.bound.Close()
		a.bound = nil
	}
	if a.userFree != nil {
		free := a.userFree
		a.userFree = nil
		free()
	}
}
