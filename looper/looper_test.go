// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package looper_test

import (
	"testing"
	"time"

	"code.hybscloud.com/await"
	"code.hybscloud.com/await/looper"
)

// startScenario schedules body as an async operation on a fresh looper
// and quits the loop when it settles. It returns the operation and the
// elapsed run time.
func startScenario(t *testing.T, body func(l *looper.Looper) error) (*await.Awaitable, time.Duration) {
	t.Helper()
	l := looper.New(t.Name())
	l.Install()
	var op *await.Awaitable
	l.Schedule(func() {
		op = await.StartAsync(t.Name(), func(*await.Awaitable) error {
			return body(l)
		})
		op.OnDoneLight(func(*await.Awaitable) { l.Quit() })
	})
	start := time.Now()
	l.Run()
	return op, time.Since(start)
}

func TestSequentialDelays(t *testing.T) {
	op, elapsed := startScenario(t, func(l *looper.Looper) error {
		for i := 0; i < 3; i++ {
			if err := looper.Delay(l, 100*time.Millisecond).Await(); err != nil {
				return err
			}
		}
		return nil
	})
	if !op.DidComplete() {
		t.Fatalf("scenario failed: %v", op.Err())
	}
	if elapsed < 300*time.Millisecond {
		t.Fatalf("elapsed %v, want >= 300ms", elapsed)
	}
	op.Close()
}

func TestParallelDelays(t *testing.T) {
	var items []*await.Awaitable
	op, elapsed := startScenario(t, func(l *looper.Looper) error {
		items = []*await.Awaitable{
			looper.Delay(l, 100*time.Millisecond),
			looper.Delay(l, 200*time.Millisecond),
			looper.Delay(l, 300*time.Millisecond),
		}
		return await.AwaitAll(items)
	})
	if !op.DidComplete() {
		t.Fatalf("scenario failed: %v", op.Err())
	}
	for i, a := range items {
		if !a.DidComplete() {
			t.Fatalf("delay %d not completed", i)
		}
		a.Close()
	}
	if elapsed < 300*time.Millisecond {
		t.Fatalf("elapsed %v, want >= 300ms", elapsed)
	}
	if elapsed >= 600*time.Millisecond {
		t.Fatalf("elapsed %v, want < 600ms: delays did not overlap", elapsed)
	}
	op.Close()
}

func TestRaceFirstDelayWins(t *testing.T) {
	op, elapsed := startScenario(t, func(l *looper.Looper) error {
		fast := looper.Delay(l, 100*time.Millisecond)
		slow := looper.Delay(l, 1000*time.Millisecond)
		defer slow.Close() // scope exit cancels the loser
		idx := await.AwaitAny([]*await.Awaitable{fast, slow})
		if idx != 0 {
			t.Errorf("AwaitAny index %d, want 0", idx)
		}
		if slow.IsDone() {
			t.Error("slow delay settled early")
		}
		return fast.Await()
	})
	if !op.DidComplete() {
		t.Fatalf("scenario failed: %v", op.Err())
	}
	if elapsed >= 1000*time.Millisecond {
		t.Fatalf("elapsed %v, the loop waited for the loser", elapsed)
	}
	op.Close()
}

func TestMidFlightCancellation(t *testing.T) {
	unwound := false
	var inner *await.Awaitable
	op, _ := startScenario(t, func(l *looper.Looper) error {
		inner = await.StartAsync("inner", func(*await.Awaitable) error {
			defer func() { unwound = true }()
			return looper.Delay(l, time.Hour).Await()
		})
		defer inner.Close()
		return looper.Delay(l, 10*time.Millisecond).Await()
	})
	if !op.DidComplete() {
		t.Fatalf("outer failed: %v", op.Err())
	}
	if !unwound {
		t.Fatal("inner body did not unwind when the outer returned")
	}
	if inner.Err() != await.ErrForcedUnwind {
		t.Fatalf("inner err %v, want ErrForcedUnwind", inner.Err())
	}
	op.Close()
}

func TestTicketCanceledOnSameTurn(t *testing.T) {
	l := looper.New(t.Name())
	l.Install()
	ran := false
	l.Schedule(func() {
		tk := await.ScheduleWithTicket(func() { ran = true })
		tk.Cancel()
		l.Schedule(func() { l.Quit() })
	})
	l.Run()
	if ran {
		t.Fatal("action ran despite same-turn cancellation")
	}
}

func TestScheduleDelayedCancel(t *testing.T) {
	l := looper.New(t.Name())
	l.Install()
	ran := false
	l.Schedule(func() {
		tk := l.ScheduleDelayed(10*time.Millisecond, func() { ran = true })
		if !l.Cancel(tk) {
			t.Error("cancel of a pending action reported false")
		}
		if l.Cancel(tk) {
			t.Error("second cancel reported true")
		}
		l.ScheduleDelayed(30*time.Millisecond, func() { l.Quit() })
	})
	l.Run()
	if ran {
		t.Fatal("canceled delayed action ran")
	}
}

func TestDelayedOrdering(t *testing.T) {
	l := looper.New(t.Name())
	l.Install()
	var order []int
	l.Schedule(func() {
		// Scheduled shortest-last; must still fire deadline-first.
		l.ScheduleDelayed(30*time.Millisecond, func() { order = append(order, 3) })
		l.ScheduleDelayed(20*time.Millisecond, func() { order = append(order, 2) })
		l.ScheduleDelayed(10*time.Millisecond, func() { order = append(order, 1) })
		l.ScheduleDelayed(50*time.Millisecond, func() { l.Quit() })
	})
	l.Run()
	if len(order) != 3 || order[0] != 1 || order[1] != 2 || order[2] != 3 {
		t.Fatalf("order %v, want [1 2 3]", order)
	}
}

func TestClosedDelayExpiresItsCompleter(t *testing.T) {
	l := looper.New(t.Name())
	l.Install()
	var d *await.Awaitable
	l.Schedule(func() {
		d = looper.Delay(l, 10*time.Millisecond)
		d.Close() // destroyed while armed: synthesized failure
		l.ScheduleDelayed(30*time.Millisecond, func() { l.Quit() })
	})
	l.Run() // the delayed completion fires as a no-op
	if d.Err() != await.ErrYieldForbidden {
		t.Fatalf("err %v, want ErrYieldForbidden", d.Err())
	}
}

func TestPostFromAnotherGoroutine(t *testing.T) {
	skipRace(t)
	l := looper.New(t.Name())
	l.Install()
	delivered := false
	go func() {
		time.Sleep(10 * time.Millisecond)
		l.Post(func() {
			delivered = true
			l.Quit()
		})
	}()
	l.Run()
	if !delivered {
		t.Fatal("posted action did not run on the loop")
	}
}
