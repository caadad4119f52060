// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package await provides stackful coroutines and single-shot awaitables for
// writing callback-driven asynchronous code in a linear style.
//
// A [Coro] is a coroutine with an independent execution stack. Coros yield
// control to one another explicitly, carrying either a value or an in-flight
// exception across every switch. An [Awaitable] represents one in-flight
// asynchronous operation; a coro that calls [Awaitable.Await] is suspended
// until a [Completer] flips the awaitable to its terminal state.
//
// # Architecture
//
//   - Coros: one dedicated goroutine per stack cell, switched by channel
//     handoff. Transfers carry [code.hybscloud.com/kont.Either] payloads:
//     Right is a yielded value, Left an exception re-raised after the switch.
//   - Stack pool: cells are recycled smallest-fit by requested stack size,
//     so short-lived coros reuse already-grown stacks.
//   - Master chain: [CurrentCoro] and [MasterCoro] form a process-wide
//     registry; [PushMaster] temporarily elevates the running coro so that
//     library code can complete awaitables from nested helpers.
//   - Scheduling: the runtime owns no loop. [InitScheduler] installs a host
//     hook; [ScheduleWithTicket] adds cooperative cancellation on top of it.
//   - Completion: a [Completer] is a copyable handle with at-most-once
//     semantics; completing drops a shared guard, expiring every other copy.
//
// # Concurrency
//
// The runtime is single-threaded by construction. Every transfer, await and
// completion must happen on the owning thread; callbacks that originate
// elsewhere must hop through [Schedule] first. Package looper provides a
// host loop whose Post method is that hop.
//
// # Example
//
//	l := looper.New("main")
//	l.Install()
//	l.Schedule(func() {
//		op := await.StartAsync("fetch", func(self *await.Awaitable) error {
//			return looper.Delay(l, 100*time.Millisecond).Await()
//		})
//		op.OnDoneLight(func(*await.Awaitable) { l.Quit() })
//	})
//	l.Run()
package await
