// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package await

// Action is a unit of work enqueued on the host loop.
type Action = func()

// scheduleHook is the single process-wide hook into the host main loop.
var scheduleHook func(Action)

// InitScheduler installs the scheduling hook. It must be called before
// any awaitable is used. The hook must enqueue the action for a later
// turn of the host loop, never run it synchronously, and must preserve
// enqueue order.
func InitScheduler(hook func(Action)) {
	if hook == nil {
		panic("await: nil schedule hook")
	}
	scheduleHook = hook
}

// Schedule enqueues action on the host loop via the installed hook.
func Schedule(action Action) {
	if scheduleHook == nil {
		panic("await: scheduler not initialized, call InitScheduler")
	}
	if action == nil {
		panic("await: nil action")
	}
	scheduleHook(action)
}

// ticketCell is the shared cell between a scheduled wrapper and the
// Ticket that owns it. Emptying the cell cancels the action; the wrapper
// finds an empty cell on dispatch and does nothing.
type ticketCell struct {
	action Action
}

// A Ticket owns a scheduled action's cell. Cancel empties the cell,
// providing cooperative cancellation without requiring the host loop to
// support removal. The zero Ticket is inert.
type Ticket struct {
	cell *ticketCell
}

// ScheduleWithTicket enqueues action and returns a Ticket that can cancel
// it until it is dispatched.
func ScheduleWithTicket(action Action) Ticket {
	if action == nil {
		panic("await: nil action")
	}
	cell := &ticketCell{action: action}
	Schedule(func() {
		run := cell.action
		// Drop the reference either way so the action does not outlive
		// dispatch while the ticket is still held.
		cell.action = nil
		if run != nil {
			run()
		}
	})
	return Ticket{cell: cell}
}

// Cancel empties the ticket's cell. Canceling after dispatch, or twice,
// has no effect.
func (t Ticket) Cancel() {
	if t.cell != nil {
		t.cell.action = nil
	}
}

// Pending reports whether the action has neither run nor been canceled.
func (t Ticket) Pending() bool {
	return t.cell != nil && t.cell.action != nil
}
