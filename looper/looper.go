// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package looper provides a host main loop for the await runtime: a FIFO
// run queue, delayed actions, cooperative cancellation, and a lock-free
// inbox for posts arriving from other goroutines.
//
// The loop itself is single-threaded: Run executes every action on the
// calling goroutine, which becomes the runtime's master stack. Only Post
// may be called from elsewhere.
package looper

import (
	"sync"
	"time"

	"code.hybscloud.com/iox"
	"code.hybscloud.com/lfq"

	"code.hybscloud.com/await"
)

// A Ticket identifies a delayed action for cancellation.
type Ticket = int

// NoTicket is the reserved zero ticket.
const NoTicket Ticket = 0

// inboxCapacity bounds the cross-goroutine post queue. Producers retry
// with backoff when the ring is full.
const inboxCapacity = 256

// A Looper drains queued actions on its host goroutine until Quit.
type Looper struct {
	name       string
	queue      []func()
	pending    timerHeap
	inbox      lfq.SPSC[func()]
	postMu     sync.Mutex // serializes Post producers onto the SPSC ring
	nextTicket Ticket
	running    bool
	quit       bool
}

// New creates a looper. Run must be called on the goroutine that will
// own the runtime.
func New(name string) *Looper {
	l := &Looper{name: name, nextTicket: NoTicket + 1}
	l.inbox.Init(inboxCapacity)
	return l
}

// Name returns the looper's identifier.
func (l *Looper) Name() string {
	return l.name
}

// Install wires the await runtime's scheduling hook to this looper.
func (l *Looper) Install() {
	await.InitScheduler(l.Schedule)
}

// Schedule enqueues action for the next turn of the loop. It satisfies
// the runtime's hook contract: the action never runs synchronously, and
// enqueue order is preserved.
//
// Loop goroutine only; use Post from elsewhere.
func (l *Looper) Schedule(action func()) {
	if action == nil {
		panic("looper: nil action")
	}
	l.queue = append(l.queue, action)
}

// ScheduleDelayed enqueues action to run once delay has elapsed. The
// returned ticket cancels it until it is promoted to the run queue.
//
// Loop goroutine only.
func (l *Looper) ScheduleDelayed(delay time.Duration, action func()) Ticket {
	if action == nil {
		panic("looper: nil action")
	}
	t := l.nextTicket
	l.nextTicket++
	l.pending.add(&pendingAction{
		ticket: t,
		when:   time.Now().Add(delay),
		action: action,
	})
	return t
}

// Cancel drops a delayed action. It reports false if the action has
// already run, been promoted, or the ticket is unknown.
func (l *Looper) Cancel(t Ticket) bool {
	return l.pending.cancel(t)
}

// CancelAll drops every delayed action.
func (l *Looper) CancelAll() {
	l.pending.clear()
}

// Post submits action from any goroutine. It hops through the lock-free
// inbox and is picked up by the next turn of the loop, which is the hop
// external callbacks must take before touching any awaitable.
func (l *Looper) Post(action func()) {
	if action == nil {
		panic("looper: nil action")
	}
	l.postMu.Lock()
	var bo iox.Backoff
	for l.inbox.Enqueue(&action) != nil {
		bo.Wait()
	}
	l.postMu.Unlock()
}

// Quit stops the loop after the current action returns and drops
// everything still queued or pending. Loop goroutine only.
func (l *Looper) Quit() {
	if !l.running {
		panic("looper: Quit called outside Run")
	}
	l.quit = true
}

// Run drains the loop on the calling goroutine until Quit: due delayed
// actions are promoted in deadline order, cross-goroutine posts drained,
// then the queued batch runs FIFO. When nothing is runnable the loop
// waits with adaptive backoff.
func (l *Looper) Run() {
	l.running = true
	l.quit = false
	var bo iox.Backoff
	for !l.quit {
		if l.step() {
			bo.Reset()
			continue
		}
		bo.Wait()
	}
	l.running = false
	l.queue = nil
	l.pending.clear()
}

// step runs one batch. It reports whether any action ran.
func (l *Looper) step() bool {
	now := time.Now()
	for l.pending.len() > 0 && !l.pending.peek().when.After(now) {
		pa := l.pending.pop()
		l.queue = append(l.queue, pa.action)
	}
	for {
		f, err := l.inbox.Dequeue()
		if err != nil {
			break
		}
		l.queue = append(l.queue, f)
	}
	if len(l.queue) == 0 {
		return false
	}
	batch := l.queue
	l.queue = nil
	for _, a := range batch {
		a()
		if l.quit {
			break
		}
	}
	return true
}
