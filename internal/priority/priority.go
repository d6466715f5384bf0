// Package priority scores pending read requests for the head scheduler's
// max-heap, combining summed head distance across an object's three
// replicas with the object's tag heat (spec §4.5).
/*
 * Copyright (c) 2018-2024, NVIDIA CORPORATION. All rights reserved.
 */
package priority

import (
	"github.com/objsched/disksim/internal/disk"
	"github.com/objsched/disksim/internal/object"
	"github.com/objsched/disksim/internal/tagheat"
)

const (
	distanceWeight = 0.4
	tagWeight      = 0.6
)

// Score assigns a request's priority at enqueue time, per spec §4.5.
// Assign-once: callers re-invoke this only when the default policy calls
// for a refresh (the scheduler does not; staleness is tolerated, see §9).
func Score(req *object.Request, obj *object.Object, disks map[int]*disk.Disk, heat *tagheat.Model) float64 {
	switch req.Status {
	case object.StatusCompleted:
		return 0
	case object.StatusReading:
		return object.ReadingSentinelPriority
	}

	var distance int
	for _, r := range obj.Replicas {
		d, ok := disks[r.DiskID]
		if !ok || len(r.Units) == 0 {
			continue
		}
		distance += d.Distance(r.Units[0])
	}

	epoch := tagheat.EpochOf(req.StartTimestamp)
	tagScore := heat.Heat(obj.Tag, epoch)

	return distanceWeight*float64(distance) + tagWeight*tagScore
}
