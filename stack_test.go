// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package await

import "testing"

// White-box tests: cell identity is how stack recycling is observed.

func TestStackPoolRecyclesSmallestFit(t *testing.T) {
	DrainStackPool()

	c1 := NewCoro("s1", func(any) {}, 64<<10)
	YieldTo(c1, nil)
	cell64 := c1.cell
	c1.Close()

	c2 := NewCoro("s2", func(any) {}, 128<<10)
	YieldTo(c2, nil)
	cell128 := c2.cell
	c2.Close()

	// Free multiset now holds {64k, 128k}. A 100k request must take the
	// 128k cell (ceiling lookup), not allocate.
	c3 := NewEmptyCoro("s3", 100<<10)
	if c3.cell != cell128 {
		t.Fatal("100k request did not reuse the 128k cell")
	}
	c3.Close()

	// A small request takes the smallest cell that fits.
	c4 := NewEmptyCoro("s4", 16<<10)
	if c4.cell != cell64 {
		t.Fatal("16k request did not reuse the 64k cell")
	}
	c4.Close()

	DrainStackPool()
}

func TestStackPoolRoundsUpToMinimum(t *testing.T) {
	DrainStackPool()
	c := NewEmptyCoro("tiny", 1)
	if c.cell.size != MinStackSize {
		t.Fatalf("cell size %d, want MinStackSize %d", c.cell.size, MinStackSize)
	}
	c.Close()
	DrainStackPool()
}

func TestDrainDiscardsCachedCells(t *testing.T) {
	DrainStackPool()
	c1 := NewEmptyCoro("d1", 64<<10)
	cell := c1.cell
	c1.Close()
	DrainStackPool()
	c2 := NewEmptyCoro("d2", 64<<10)
	if c2.cell == cell {
		t.Fatal("drained cell was handed out again")
	}
	c2.Close()
	DrainStackPool()
}

func TestDefaultStackSizeClamped(t *testing.T) {
	old := DefaultStackSize()
	defer SetDefaultStackSize(old)
	SetDefaultStackSize(1)
	if DefaultStackSize() != MinStackSize {
		t.Fatalf("default %d, want clamp to %d", DefaultStackSize(), MinStackSize)
	}
}
