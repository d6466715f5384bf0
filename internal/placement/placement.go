// Package placement implements the write-time disk-selection policy: a
// weighted score combining free-space contiguity and tag load, choosing
// three distinct disks per object. Grounded on
// original_source/DiskScheduler.hpp's select_write_disk, restructured per
// spec §4.3.
/*
 * Copyright (c) 2018-2024, NVIDIA CORPORATION. All rights reserved.
 */
package placement

import (
	"sort"

	"github.com/objsched/disksim/internal/disk"
	"github.com/objsched/disksim/internal/object"
)

// scored is one disk's placement score, kept alongside its ID for the
// final stable sort.
type scored struct {
	diskID int
	score  float64
}

// Choose picks object.ReplicaCount distinct disk IDs for a new object of
// the given size and tag, highest score first, ties broken by lowest disk
// ID. Returns fewer than ReplicaCount IDs if fewer disks qualify (score
// higher than the veto sentinel).
func Choose(disks []*disk.Disk, tag, size int) []int {
	candidates := make([]scored, 0, len(disks))
	for _, d := range disks {
		candidates = append(candidates, scored{diskID: d.ID, score: score(d, tag, size)})
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].score != candidates[j].score {
			return candidates[i].score > candidates[j].score
		}
		return candidates[i].diskID < candidates[j].diskID
	})

	out := make([]int, 0, object.ReplicaCount)
	for _, c := range candidates {
		if c.score < 0 {
			break // veto'd disks sort last; once we hit one, nothing further qualifies
		}
		out = append(out, c.diskID)
		if len(out) == object.ReplicaCount {
			break
		}
	}
	return out
}

// score computes spec §4.3's weighted placement score for one disk, or -1
// (a hard veto) once the disk is strictly above 90% full.
func score(d *disk.Disk, tag, size int) float64 {
	if d.IsNearlyFull() {
		return -1
	}
	sizeRatio := float64(size) / float64(object.MaxObjSize)
	wContig := 0.7 + 0.2*sizeRatio
	wTag := 1 - wContig

	sContig := clamp01(float64(d.Alloc.LargestFreeBlock()) / float64(object.MaxObjSize))
	sTag := 1 - float64(d.TagSlots[tag])/float64(d.Size)

	return wContig*sContig + wTag*sTag
}

func clamp01(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}
