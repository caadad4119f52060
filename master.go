// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package await

// Process-wide coro registry. The chain is never empty once initialized:
// its head is the main coro, its tail the temporarily elevated masters.
// currentC is always the master or a descendant reachable via parent
// links. Single-threaded by construction, so no synchronization.
var (
	mainC    *Coro
	currentC *Coro
	masters  []*Coro

	idleQ        []func()
	idleDraining bool
)

// initMain lazily installs the coro standing for the host thread's native
// stack. It has no stack cell and is running from creation.
func initMain() {
	if mainC != nil {
		return
	}
	mainC = &Coro{
		serial:  nextSerial(),
		tag:     "main",
		resume:  make(chan transfer),
		running: true,
		main:    true,
	}
	currentC = mainC
	masters = append(masters, mainC)
}

// CurrentCoro returns the coro that is currently executing.
func CurrentCoro() *Coro {
	initMain()
	return currentC
}

// MasterCoro returns the top of the master chain: the coro that an
// ordinary Await yields to. Normally this is the main coro; PushMaster
// elevates others temporarily.
func MasterCoro() *Coro {
	initMain()
	return masters[len(masters)-1]
}

// A MasterGuard records one elevation made by PushMaster.
type MasterGuard struct {
	co *Coro
}

// PushMaster elevates the currently executing coro to master and returns
// a guard that undoes the elevation:
//
//	defer PushMaster().Pop()
//
// Used whenever internal transfers must be performed from a coro that is
// not itself the master, e.g. completing an awaitable from a nested
// helper.
func PushMaster() *MasterGuard {
	initMain()
	co := currentC
	masters = append(masters, co)
	return &MasterGuard{co: co}
}

// Pop removes the guard's entry from the master chain. Out-of-order pops
// are tolerated: the chain is scanned from the top for the recorded
// entry. Popping twice is a programmer error.
func (g *MasterGuard) Pop() {
	if g.co == nil {
		panic("await: master guard already popped")
	}
	for i := len(masters) - 1; i > 0; i-- {
		if masters[i] == g.co {
			masters = append(masters[:i], masters[i+1:]...)
			g.co = nil
			return
		}
	}
	panic("await: master guard entry not found")
}

// PostIdle queues f to run on the main coro's native stack. The queue is
// drained in FIFO order by the outermost transfer that lands back on the
// main coro, before control returns to the host loop.
func PostIdle(f func()) {
	if f == nil {
		panic("await: nil idle action")
	}
	initMain()
	idleQ = append(idleQ, f)
}

func drainIdle() {
	if idleDraining {
		return
	}
	idleDraining = true
	for len(idleQ) > 0 {
		f := idleQ[0]
		idleQ = idleQ[1:]
		f()
	}
	idleDraining = false
}
