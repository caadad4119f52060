// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package await

import (
	"code.hybscloud.com/kont"
)

// A transfer is the payload carried across a coroutine switch.
// Right holds a yielded value, Left an in-flight exception that the
// receiving side re-raises after the switch. The receiver owns the box.
type transfer = kont.Either[error, any]

func transferValue(v any) transfer {
	return kont.Right[error](v)
}

func transferErr(err error) transfer {
	return kont.Left[error, any](err)
}

// receive unpacks a transfer on the receiving stack, re-raising an
// in-flight exception as a panic.
func receive(p transfer) any {
	if p.IsLeft() {
		err, _ := p.GetLeft()
		panic(err)
	}
	v, _ := p.GetRight()
	return v
}

// Body is the function executed on a coro's stack. The argument is the
// value carried by the first resume. Any uncaught panic pops out on the
// parent coro, except ErrForcedUnwind which is swallowed silently.
type Body func(v any)

// A Coro is a stackful coroutine: an independent execution stack plus a
// parked continuation. Coros switch cooperatively via Yield and YieldTo;
// at most one executes at any instant.
//
// The main coro has no stack cell of its own: it stands for the host
// thread's native stack and is running from creation.
//
// Not safe for concurrent use. Coros are designed for single-threaded use.
type Coro struct {
	serial  Serial
	tag     string
	cell    *stackCell
	resume  chan transfer
	parent  *Coro
	running bool
	// unwound marks a coro whose stack holds no live frames: either not
	// yet started or already fully unwound. Such a coro is not a legal
	// transfer target.
	unwound bool
	main    bool
}

// NewCoro creates a coro that runs body on its own stack, suspended at
// its start. The body is not entered until the first resume. stackSize
// is a recycling hint for the stack pool; when omitted, DefaultStackSize
// applies.
func NewCoro(tag string, body Body, stackSize ...int) *Coro {
	c := NewEmptyCoro(tag, stackSize...)
	c.Start(body)
	return c
}

// NewEmptyCoro creates a coro without a body. Start must be called before
// the coro can be resumed.
func NewEmptyCoro(tag string, stackSize ...int) *Coro {
	initMain()
	size := defaultStackSize
	if len(stackSize) > 0 && stackSize[0] > 0 {
		size = stackSize[0]
	}
	cell := pool.obtain(size)
	c := &Coro{
		serial:  nextSerial(),
		tag:     tag,
		cell:    cell,
		resume:  cell.resume,
		unwound: true,
	}
	debugf("create coro '%s' #%d (stack %d)", tag, c.serial, cell.size)
	return c
}

// Start installs body on a coro created by NewEmptyCoro. The coro records
// the current coro as its parent and is left suspended at its start.
// A coro may not be restarted.
func (c *Coro) Start(body Body) {
	switch {
	case body == nil:
		panic("await: nil coro body")
	case c.cell == nil:
		panic("await: coro is closed")
	case c.running:
		panic("await: coro may not be restarted")
	}
	c.parent = CurrentCoro()
	c.running = true
	c.unwound = false
	c.cell.bind <- coroBinding{c: c, body: body}
}

// Tag returns the coro's identifier for debugging.
func (c *Coro) Tag() string {
	return c.tag
}

// Serial returns the serial number assigned to this coro.
func (c *Coro) Serial() Serial {
	return c.serial
}

// IsRunning reports whether the coro's body has started and not yet
// finished. The main coro is always running.
func (c *Coro) IsRunning() bool {
	return c.running
}

// Parent returns the coro that Yield resumes by default.
func (c *Coro) Parent() *Coro {
	return c.parent
}

// SetParent redirects the default yield target.
func (c *Coro) SetParent(p *Coro) {
	if p == nil {
		panic("await: nil parent coro")
	}
	if p == c {
		panic("await: coro cannot be its own parent")
	}
	c.parent = p
}

// Close destroys the coro and returns its stack to the pool. Closing a
// running coro is a programmer error; force-unwind it first. Close is
// idempotent.
func (c *Coro) Close() {
	if c.main {
		panic("await: cannot destroy the main coro")
	}
	if c.cell == nil {
		return
	}
	if c.running {
		panic("await: cannot destroy a running coro")
	}
	debugf("destroy coro '%s' #%d", c.tag, c.serial)
	pool.recycle(c.cell)
	c.cell = nil
	c.resume = nil
}

// transfer suspends c and resumes target, delivering p. It returns the
// payload carried by whichever transfer later resumes c.
func (c *Coro) transfer(target *Coro, p transfer) transfer {
	switch {
	case c != currentC:
		panic("await: transfer from a coro that is not current")
	case target == nil:
		panic("await: nil transfer target")
	case target == c:
		panic("await: coro cannot yield to itself")
	case target.unwound:
		panic("await: transfer target has finished unwinding")
	}
	debugf("jump '%s' -> '%s'", c.tag, target.tag)
	currentC = target
	target.resume <- p
	got := <-c.resume
	if c.main {
		drainIdle()
	}
	return got
}

// run is the trampoline executed on the stack cell's goroutine. It parks
// until the first resume, invokes body, and finally transfers back to the
// parent: a nil value after a normal return or a forced unwind, the boxed
// exception otherwise.
func (c *Coro) run(body Body) {
	p := <-c.resume
	out := transferValue(nil)
	func() {
		defer func() {
			if r := recover(); r != nil {
				if err, ok := r.(error); ok && err == ErrForcedUnwind {
					debugf("coro '%s' #%d done (forced unwind)", c.tag, c.serial)
					return
				}
				err := asError(r)
				debugf("coro '%s' #%d done (exception: %v)", c.tag, c.serial, err)
				out = transferErr(err)
			}
		}()
		body(receive(p))
		debugf("coro '%s' #%d done", c.tag, c.serial)
	}()
	c.running = false
	c.unwound = true
	c.finish(out)
}

// finish performs the final transfer to the parent without parking: the
// coro is fully unwound and its goroutine goes back to waiting for the
// next binding.
func (c *Coro) finish(p transfer) {
	target := c.parent
	if target == nil || target.unwound {
		panic("await: coro finished with no live parent")
	}
	debugf("jump '%s' -> '%s' (final)", c.tag, target.tag)
	currentC = target
	target.resume <- p
}

// Yield suspends the current coro and resumes its parent, carrying v.
// It returns the value delivered by the transfer that later resumes the
// current coro, re-raising a delivered exception.
func Yield(v any) any {
	c := CurrentCoro()
	return receive(c.transfer(c.parent, transferValue(v)))
}

// YieldTo suspends the current coro and resumes target, carrying v.
func YieldTo(target *Coro, v any) any {
	c := CurrentCoro()
	return receive(c.transfer(target, transferValue(v)))
}

// YieldException suspends the current coro and re-raises err on the
// parent coro.
func YieldException(err error) any {
	c := CurrentCoro()
	if err == nil {
		panic("await: YieldException with nil error")
	}
	return receive(c.transfer(c.parent, transferErr(err)))
}

// YieldExceptionTo suspends the current coro and re-raises err on target.
func YieldExceptionTo(target *Coro, err error) any {
	c := CurrentCoro()
	if err == nil {
		panic("await: YieldExceptionTo with nil error")
	}
	return receive(c.transfer(target, transferErr(err)))
}

// ForceUnwind raises ErrForcedUnwind into target, making it exit
// promptly. The target's body must not swallow the unwind; ForceUnwind
// panics if target raises anything back.
func ForceUnwind(target *Coro) {
	c := CurrentCoro()
	got := c.transfer(target, transferErr(ErrForcedUnwind))
	if got.IsLeft() {
		panic("await: coro may not raise on forced unwind")
	}
}
