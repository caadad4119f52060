// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package await_test

import (
	"testing"

	"code.hybscloud.com/await"
)

// manualQueue is a minimal host loop for tests: a FIFO drained by hand,
// satisfying the scheduler hook contract (asynchronous, order-keeping).
type manualQueue struct {
	q []func()
}

func (m *manualQueue) hook(a func()) {
	m.q = append(m.q, a)
}

// drainAll runs queued actions in order, including actions enqueued
// while draining.
func (m *manualQueue) drainAll() {
	for len(m.q) > 0 {
		a := m.q[0]
		m.q = m.q[1:]
		a()
	}
}

// installQueue wires the runtime's scheduler hook to a fresh manual
// queue for the duration of a test.
func installQueue(tb testing.TB) *manualQueue {
	tb.Helper()
	m := &manualQueue{}
	await.InitScheduler(m.hook)
	return m
}

// expectPanic runs f and fails the test unless it panics.
func expectPanic(tb testing.TB, what string, f func()) {
	tb.Helper()
	defer func() {
		if recover() == nil {
			tb.Errorf("%s: expected panic", what)
		}
	}()
	f()
}
