// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package await

// AsAwaitable extracts an awaitable from a collection element, so that
// AwaitAll and friends can walk collections of richer shapes. It is
// implemented by *Awaitable itself and by Pair; implement it on your own
// element types as needed. A nil result skips the element.
type AsAwaitable interface {
	AsAwaitable() *Awaitable
}

// AsAwaitable implements the selector on the awaitable itself.
func (a *Awaitable) AsAwaitable() *Awaitable {
	return a
}

// Pair couples an awaitable-bearing element with arbitrary data while
// remaining selectable.
type Pair[F AsAwaitable, S any] struct {
	First  F
	Second S
}

// AsAwaitable selects from the pair's first element.
func (p Pair[F, S]) AsAwaitable() *Awaitable {
	return p.First.AsAwaitable()
}

func awaitableOf[E AsAwaitable](e E) *Awaitable {
	if any(e) == nil {
		return nil
	}
	return e.AsAwaitable()
}

// AwaitAll suspends until every awaitable in items is done, awaiting
// each in order. On the first failure its error is returned and the
// remaining awaitables are left in whatever state they reached.
//
// Must be called from a non-master coro. No coro is created.
func AwaitAll[E AsAwaitable](items []E) error {
	if CurrentCoro() == MasterCoro() {
		panic("await: AwaitAll called from the master coro")
	}
	for _, it := range items {
		a := awaitableOf(it)
		if a == nil {
			continue
		}
		if err := a.Await(); err != nil {
			return err
		}
	}
	return nil
}

// AwaitAny suspends until any awaitable in items is done and returns the
// index of the first done element. Elements that were already done short
// circuit. A failure is not surfaced here; await the returned element to
// raise it. Returns -1 when items holds nothing to await.
//
// Must be called from a non-master coro. All other elements are left
// armed, each with its awaiter cleared.
func AwaitAny[E AsAwaitable](items []E) int {
	cur := CurrentCoro()
	if cur == MasterCoro() {
		panic("await: AwaitAny called from the master coro")
	}

	pending := false
	for i, it := range items {
		a := awaitableOf(it)
		if a == nil {
			continue
		}
		if a.IsDone() {
			return i
		}
		pending = true
	}
	if !pending {
		return -1
	}

	for _, it := range items {
		a := awaitableOf(it)
		if a == nil {
			continue
		}
		if a.awaiter != nil {
			panic("await: awaitable is already being awaited")
		}
		a.awaiter = cur
	}

	receive(cur.transfer(MasterCoro(), transferValue(nil)))

	pos := -1
	for i, it := range items {
		a := awaitableOf(it)
		if a == nil {
			continue
		}
		a.awaiter = nil
		if pos == -1 && a.IsDone() {
			pos = i
		}
	}
	if pos == -1 {
		panic("await: AwaitAny resumed with no done awaitable")
	}
	return pos
}

// AsyncAll wraps AwaitAll in its own coro so the composition can itself
// be awaited. The returned awaitable completes when every element is
// done, or fails with the error of the first failing element in order.
func AsyncAll[E AsAwaitable](items []E) *Awaitable {
	return StartAsync("async-all", func(*Awaitable) error {
		return AwaitAll(items)
	})
}

// AsyncAny wraps AwaitAny in its own coro. When the returned awaitable
// completes, *pos holds the index of the first done element. With empty
// items the awaitable never settles on its own; closing it cancels as
// usual.
func AsyncAny[E AsAwaitable](items []E, pos *int) *Awaitable {
	if pos == nil {
		panic("await: AsyncAny with nil pos")
	}
	return StartAsync("async-any", func(*Awaitable) error {
		if len(items) == 0 {
			YieldTo(MasterCoro(), nil)
		}
		*pos = AwaitAny(items)
		return nil
	})
}
