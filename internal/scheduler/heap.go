// Package scheduler drives the per-slice, per-disk head-action planner: a
// max-heap of pending/reading request IDs feeds a task-assignment phase,
// followed by a token-budgeted execution phase per disk (spec §4.6).
/*
 * Copyright (c) 2018-2024, NVIDIA CORPORATION. All rights reserved.
 */
package scheduler

import "container/heap"

// entry is one heap slot: a request ID and the priority it was enqueued
// with. Priorities are assigned once (spec §4.5/§9) and may go stale as
// head positions shift; staleness is tolerated, not corrected.
type entry struct {
	requestID int
	priority  float64
}

// requestHeap is a max-heap on priority. Ghost entries (requests that no
// longer exist, or have already completed) are filtered at dequeue time by
// the scheduler, not removed from the heap proactively (spec §9).
type requestHeap []entry

func (h requestHeap) Len() int            { return len(h) }
func (h requestHeap) Less(i, j int) bool  { return h[i].priority > h[j].priority }
func (h requestHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *requestHeap) Push(x any)         { *h = append(*h, x.(entry)) }
func (h *requestHeap) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}

// PriorityQueue wraps requestHeap behind the push/pop vocabulary the
// scheduler uses.
type PriorityQueue struct {
	h requestHeap
}

// NewPriorityQueue returns an empty max-heap.
func NewPriorityQueue() *PriorityQueue {
	pq := &PriorityQueue{}
	heap.Init(&pq.h)
	return pq
}

// Push enqueues a request ID with the priority it was assigned at enqueue
// time.
func (pq *PriorityQueue) Push(requestID int, priority float64) {
	heap.Push(&pq.h, entry{requestID: requestID, priority: priority})
}

// Pop removes and returns the highest-priority request ID. ok is false if
// the queue is empty.
func (pq *PriorityQueue) Pop() (requestID int, ok bool) {
	if pq.h.Len() == 0 {
		return 0, false
	}
	e := heap.Pop(&pq.h).(entry)
	return e.requestID, true
}

// Len reports the number of entries still in the heap, including any
// ghosts not yet filtered out.
func (pq *PriorityQueue) Len() int { return pq.h.Len() }
