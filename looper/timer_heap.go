// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package looper

import (
	"container/heap"
	"time"
)

// pendingAction is one delayed entry, position-tracked for removal.
type pendingAction struct {
	ticket Ticket
	when   time.Time
	action func()
	pos    int
}

// pendingHeap implements heap.Interface ordered by deadline.
type pendingHeap []*pendingAction

func (h pendingHeap) Len() int { return len(h) }

func (h pendingHeap) Less(i, j int) bool { return h[i].when.Before(h[j].when) }

func (h pendingHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].pos = i
	h[j].pos = j
}

func (h *pendingHeap) Push(x any) {
	pa := x.(*pendingAction)
	if pa.pos != -1 {
		panic("looper: pending action already queued")
	}
	pa.pos = len(*h)
	*h = append(*h, pa)
}

func (h *pendingHeap) Pop() any {
	old := *h
	n := len(old)
	x := old[n-1]
	old[n-1] = nil
	*h = old[:n-1]
	x.pos = -1
	return x
}

type timerHeap struct {
	entries pendingHeap
}

func (t *timerHeap) add(pa *pendingAction) {
	pa.pos = -1
	heap.Push(&t.entries, pa)
}

func (t *timerHeap) len() int {
	return len(t.entries)
}

func (t *timerHeap) peek() *pendingAction {
	return t.entries[0]
}

func (t *timerHeap) pop() *pendingAction {
	return heap.Pop(&t.entries).(*pendingAction)
}

func (t *timerHeap) cancel(ticket Ticket) bool {
	for _, pa := range t.entries {
		if pa.ticket == ticket {
			heap.Remove(&t.entries, pa.pos)
			return true
		}
	}
	return false
}

func (t *timerHeap) clear() {
	t.entries = nil
}
