// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package await

// completerGuard is the shared expiry sentinel behind every copy of a
// completer. Completing, failing, or destroying the awaitable marks it
// done, turning all copies into no-ops at once.
type completerGuard struct {
	done bool
}

// A Completer is a copyable handle that fulfills its awaitable. However
// many copies exist, at most one invocation produces a state transition;
// the rest observe an expired guard and do nothing. An expired completer
// remains safe to invoke after the awaitable has been destroyed.
//
// Completers must be invoked from the master coro. Callbacks arriving on
// another stack or thread must hop through Schedule first.
type Completer struct {
	a     *Awaitable
	guard *completerGuard
}

// TakeCompleter arms the awaitable and returns its completion handle.
// It may be called exactly once per awaitable, before the awaitable is
// done.
func (a *Awaitable) TakeCompleter() Completer {
	switch {
	case a.closed:
		panic("await: awaitable is closed")
	case a.bound != nil:
		panic("await: awaitable is bound to a coro")
	case a.armed || a.guard != nil:
		panic("await: completer already taken")
	case a.IsDone():
		panic("await: awaitable is already done")
	}
	a.armed = true
	a.guard = &completerGuard{}
	return Completer{a: a, guard: a.guard}
}

// Expired reports whether invoking the completer would be a no-op: the
// awaitable is done, destroyed, or this is a zero Completer.
func (c Completer) Expired() bool {
	return c.guard == nil || c.guard.done
}

// Complete transitions the awaitable to completed and resumes the
// awaiting coro, if any, before returning. No-op when expired.
func (c Completer) Complete() {
	if c.Expired() {
		return
	}
	if CurrentCoro() != MasterCoro() {
		panic("await: completer invoked outside the master coro")
	}
	c.a.complete()
}

// Fail transitions the awaitable to failed with err and resumes the
// awaiting coro, if any, before returning. No-op when expired.
func (c Completer) Fail(err error) {
	if err == nil {
		panic("await: Fail with nil error")
	}
	if c.Expired() {
		return
	}
	if CurrentCoro() != MasterCoro() {
		panic("await: completer invoked outside the master coro")
	}
	c.a.fail(err)
}

// Wrap adapts a raw callback. The wrapper invokes f and finishes the
// awaitable from its return value: nil completes, non-nil fails. The
// wrapper is a no-op once the completer has expired, so late callbacks
// from an already-destroyed operation are ignored.
func (c Completer) Wrap(f func() error) func() {
	return func() {
		if c.Expired() {
			return
		}
		if err := f(); err != nil {
			c.Fail(err)
		} else {
			c.Complete()
		}
	}
}

// Wrap1 is Wrap for callbacks taking one argument.
func Wrap1[T any](c Completer, f func(T) error) func(T) {
	return func(arg T) {
		if c.Expired() {
			return
		}
		if err := f(arg); err != nil {
			c.Fail(err)
		} else {
			c.Complete()
		}
	}
}

// Wrap2 is Wrap for callbacks taking two arguments.
func Wrap2[T1, T2 any](c Completer, f func(T1, T2) error) func(T1, T2) {
	return func(a1 T1, a2 T2) {
		if c.Expired() {
			return
		}
		if err := f(a1, a2); err != nil {
			c.Fail(err)
		} else {
			c.Complete()
		}
	}
}
