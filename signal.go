// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package await

// notifier is a slim multi-subscriber done signal. Firing is
// re-entrant-safe: subscribers added during a fire see the next fire
// only, and removals during a fire are honored.
type notifier struct {
	slots  []doneSlot
	nextID uint64
	firing bool
}

// doneSlot holds one subscriber. id is zero for lightweight,
// non-removable subscribers.
type doneSlot struct {
	id uint64
	fn func(*Awaitable)
}

// A Connection identifies a removable done subscriber.
// The zero Connection is inert.
type Connection struct {
	n  *notifier
	id uint64
}

// Disconnect removes the subscriber. Safe to call during a fire (the
// subscriber will not run if it has not yet) and after the awaitable is
// done. Disconnecting twice has no effect.
func (c Connection) Disconnect() {
	if c.n == nil || c.id == 0 {
		return
	}
	for i := range c.n.slots {
		if c.n.slots[i].id == c.id {
			if c.n.firing {
				// Mark only; the fire loop skips cleared slots and
				// compacts afterwards.
				c.n.slots[i] = doneSlot{}
			} else {
				c.n.slots = append(c.n.slots[:i], c.n.slots[i+1:]...)
			}
			return
		}
	}
}

func (n *notifier) connect(fn func(*Awaitable)) Connection {
	n.nextID++
	n.slots = append(n.slots, doneSlot{id: n.nextID, fn: fn})
	return Connection{n: n, id: n.nextID}
}

func (n *notifier) connectLight(fn func(*Awaitable)) {
	n.slots = append(n.slots, doneSlot{fn: fn})
}

func (n *notifier) fire(a *Awaitable) {
	if n.firing {
		return
	}
	n.firing = true
	// Snapshot the length: subscribers appended by a running handler are
	// not invoked in this fire.
	count := len(n.slots)
	for i := 0; i < count; i++ {
		s := n.slots[i]
		if s.fn == nil {
			continue
		}
		s.fn(a)
	}
	n.firing = false
	// Compact slots cleared by Disconnect during the fire.
	live := n.slots[:0]
	for _, s := range n.slots {
		if s.fn != nil {
			live = append(live, s)
		}
	}
	n.slots = live
}
