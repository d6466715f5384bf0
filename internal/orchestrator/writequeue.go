package orchestrator

import "github.com/objsched/disksim/internal/protocol"

// writeEntry is one buffered write awaiting dispatch, carrying the heat it
// was scored with at buffer time so the heap doesn't re-read tag_heat on
// every comparison.
type writeEntry struct {
	op   protocol.WriteOp
	heat float64
}

// writeHeap dispatches the hottest tag first, breaking ties by larger
// size, mirroring original_source/main.cpp's write_action comparator.
type writeHeap []writeEntry

func (h writeHeap) Len() int { return len(h) }

func (h writeHeap) Less(i, j int) bool {
	if h[i].heat != h[j].heat {
		return h[i].heat > h[j].heat
	}
	return h[i].op.Size > h[j].op.Size
}

func (h writeHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *writeHeap) Push(x any) { *h = append(*h, x.(writeEntry)) }

func (h *writeHeap) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}
