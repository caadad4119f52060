// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package await

import (
	"slices"
	"sort"
)

// MinStackSize is the smallest stack a cell is created with. Requests
// below it are rounded up.
const MinStackSize = 32 << 10

// defaultStackSize applies when a coro is created without an explicit
// stack size.
var defaultStackSize = 256 << 10

// DefaultStackSize returns the stack size used when none is requested.
func DefaultStackSize() int {
	return defaultStackSize
}

// SetDefaultStackSize changes the default stack size for new coros.
func SetDefaultStackSize(size int) {
	if size < MinStackSize {
		size = MinStackSize
	}
	defaultStackSize = size
}

// DrainStackPool discards all cached stack cells, terminating their
// goroutines. Cells bound to live coros are unaffected.
func DrainStackPool() {
	pool.drain()
}

// coroBinding attaches a coro and its body to a stack cell.
type coroBinding struct {
	c    *Coro
	body Body
}

// A stackCell is one reusable execution stack: a dedicated goroutine that
// runs one coro at a time. Reusing a cell reuses a goroutine stack that
// has already grown to its working size.
type stackCell struct {
	size   int
	bind   chan coroBinding
	resume chan transfer
}

func newStackCell(size int) *stackCell {
	cell := &stackCell{
		size:   size,
		bind:   make(chan coroBinding, 1),
		resume: make(chan transfer),
	}
	go cell.loop()
	return cell
}

func (cell *stackCell) loop() {
	for b := range cell.bind {
		b.c.run(b.body)
	}
}

// stackPool recycles stack cells keyed by size. Lookup is smallest-fit:
// the smallest free cell whose size covers the request.
//
// Process-global and not thread-safe, matching the single-threaded
// runtime.
type stackPool struct {
	free []*stackCell // ordered by size, smallest first
}

var pool stackPool

func (p *stackPool) obtain(minSize int) *stackCell {
	i := sort.Search(len(p.free), func(i int) bool {
		return p.free[i].size >= minSize
	})
	if i < len(p.free) {
		cell := p.free[i]
		p.free = slices.Delete(p.free, i, i+1)
		debugf("obtained stack cell of size %d", cell.size)
		return cell
	}
	size := minSize
	if size < MinStackSize {
		size = MinStackSize
	}
	debugf("allocated stack cell of size %d", size)
	return newStackCell(size)
}

func (p *stackPool) recycle(cell *stackCell) {
	i := sort.Search(len(p.free), func(i int) bool {
		return p.free[i].size >= cell.size
	})
	p.free = slices.Insert(p.free, i, cell)
	debugf("recycled stack cell of size %d", cell.size)
}

func (p *stackPool) drain() {
	for _, cell := range p.free {
		close(cell.bind)
	}
	p.free = nil
}
