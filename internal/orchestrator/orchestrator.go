// Package orchestrator wires one time slice's worth of driver events —
// deletes, writes, reads — across the placement, allocator, tag-heat, and
// head-scheduler packages, in the fixed per-slice order the protocol
// demands (spec §4.7). It owns nothing the other packages don't already
// own; its job is sequencing and dispatch order only.
/*
 * Copyright (c) 2018-2024, NVIDIA CORPORATION. All rights reserved.
 */
package orchestrator

import (
	"container/heap"
	"strconv"
	"strings"

	"github.com/objsched/disksim/internal/disk"
	"github.com/objsched/disksim/internal/metrics"
	"github.com/objsched/disksim/internal/nlog"
	"github.com/objsched/disksim/internal/object"
	"github.com/objsched/disksim/internal/placement"
	"github.com/objsched/disksim/internal/priority"
	"github.com/objsched/disksim/internal/protocol"
	"github.com/objsched/disksim/internal/schederr"
	"github.com/objsched/disksim/internal/scheduler"
	"github.com/objsched/disksim/internal/snapshot"
	"github.com/objsched/disksim/internal/tagheat"
)

// Orchestrator holds the live object table and the collaborators that act
// on it for one simulated run.
type Orchestrator struct {
	disks    []*disk.Disk
	diskByID map[int]*disk.Disk
	objects  map[int]*object.Object
	heat     *tagheat.Model
	sched    *scheduler.Scheduler
	tokens   int
	epoch    int

	metrics   *metrics.Registry // nil disables metric updates
	snap      *snapshot.Manager // nil disables periodic snapshots
	snapEvery int
}

// New builds an Orchestrator over disks (ascending by ID) with a per-disk
// token budget of tokens. metricsReg and snap may be nil.
func New(disks []*disk.Disk, tokens int, heat *tagheat.Model, metricsReg *metrics.Registry, snap *snapshot.Manager, snapEvery int) *Orchestrator {
	byID := make(map[int]*disk.Disk, len(disks))
	for _, d := range disks {
		byID[d.ID] = d
	}
	return &Orchestrator{
		disks:     disks,
		diskByID:  byID,
		objects:   make(map[int]*object.Object),
		heat:      heat,
		sched:     scheduler.New(disks, tokens),
		tokens:    tokens,
		metrics:   metricsReg,
		snap:      snap,
		snapEvery: snapEvery,
	}
}

// RunSlice drives one full timestamp/delete/write/read exchange over
// codec, advancing every owned collaborator in the process (spec §4.7).
func (o *Orchestrator) RunSlice(codec *protocol.Codec, t int) error {
	if (t-1)%tagheat.SlicesPerEpoch == 0 {
		o.heat.RecomputeEpoch(tagheat.EpochOf(t))
	}
	o.epoch = tagheat.EpochOf(t)

	ts, err := codec.ReadTimestamp()
	if err != nil {
		return err
	}
	if err := codec.WriteTimestamp(ts); err != nil {
		return err
	}

	deleteIDs, err := codec.ReadDeletes()
	if err != nil {
		return err
	}
	aborted := o.handleDeletes(deleteIDs)
	if err := codec.WriteAborted(aborted); err != nil {
		return err
	}
	codec.Dump("delete", map[string]any{"timestamp": ts, "ids": deleteIDs, "aborted": aborted})

	writeOps, err := codec.ReadWrites()
	if err != nil {
		return err
	}
	results := o.handleWrites(writeOps)
	if err := codec.WriteResults(results); err != nil {
		return err
	}
	codec.Dump("write", map[string]any{"timestamp": ts, "ops": writeOps, "results": results})

	readOps, err := codec.ReadReads()
	if err != nil {
		return err
	}
	o.handleReads(readOps, ts)
	actions, completed := o.sched.Run(o.objects)
	o.recordTokensSpent(actions)
	if o.metrics != nil {
		o.metrics.ReadsCompleted.Add(float64(len(completed)))
	}
	if err := codec.WriteActions(actions); err != nil {
		return err
	}
	if err := codec.WriteCompleted(completed); err != nil {
		return err
	}
	codec.Dump("read", map[string]any{"timestamp": ts, "ops": readOps, "actions": actions, "completed": completed})

	o.updateMetrics()
	if o.snap != nil && o.snapEvery > 0 && t%o.snapEvery == 0 {
		if _, err := o.snap.Dump(o.disks, o.objects); err != nil {
			nlog.Warnf("snapshot at slice %d failed: %v", t, err)
		}
	}
	return nil
}

// handleDeletes tombstones each existing, not-yet-deleted object, releases
// its replicas' cells, and aborts any of its still-live requests (spec
// §4.2). Unknown or already-deleted IDs are silent no-ops.
func (o *Orchestrator) handleDeletes(ids []int) []int {
	var aborted []int
	for _, id := range ids {
		obj, ok := o.objects[id]
		if !ok || obj.IsDeleted {
			continue
		}
		obj.IsDeleted = true
		for _, r := range obj.Replicas {
			if r.Units == nil {
				continue
			}
			if d, ok := o.diskByID[r.DiskID]; ok {
				d.Release(r.Units, obj.Tag)
			}
		}
		aborted = append(aborted, o.sched.AbortByObject(obj.ID)...)
	}
	return aborted
}

// handleWrites dispatches the slice's buffered writes hottest-tag-first
// (ties by larger size), placing and allocating each in turn. A write that
// can't find three qualifying disks, or whose allocator can't honor the
// placement it was given, is skipped entirely — no output lines for it
// (spec §7).
func (o *Orchestrator) handleWrites(ops []protocol.WriteOp) []protocol.WriteResult {
	wh := &writeHeap{}
	heap.Init(wh)
	for _, op := range ops {
		heap.Push(wh, writeEntry{op: op, heat: o.heat.Heat(op.Tag, o.epoch)})
	}

	var results []protocol.WriteResult
	for wh.Len() > 0 {
		op := heap.Pop(wh).(writeEntry).op

		diskIDs := placement.Choose(o.disks, op.Tag, op.Size)
		if len(diskIDs) < object.ReplicaCount {
			nlog.Warnf("%v", schederr.NewErrPlacementFailed(op.ID, len(diskIDs)))
			if o.metrics != nil {
				o.metrics.PlacementsRejected.Inc()
			}
			continue
		}

		obj := object.New(op.ID, op.Size, op.Tag)
		reservedOn := make([]int, 0, object.ReplicaCount)
		reservedCells := make([][]int, 0, object.ReplicaCount)
		var allocErr error
		for i, diskID := range diskIDs {
			d := o.diskByID[diskID]
			cells := d.Reserve(op.Size, op.Tag)
			if cells == nil {
				allocErr = schederr.NewErrAllocationFailed(op.ID, diskID, op.Size)
				break
			}
			obj.Replicas[i] = object.Replica{DiskID: diskID, Units: cells}
			reservedOn = append(reservedOn, diskID)
			reservedCells = append(reservedCells, cells)
		}
		if allocErr != nil {
			for i, diskID := range reservedOn {
				o.diskByID[diskID].Release(reservedCells[i], op.Tag)
			}
			nlog.Warnf("%v", allocErr)
			if o.metrics != nil {
				o.metrics.PlacementsRejected.Inc()
			}
			continue
		}

		o.objects[obj.ID] = obj
		results = append(results, protocol.WriteResult{ObjectID: obj.ID, Replicas: obj.Replicas})
	}
	return results
}

// handleReads scores and enqueues each new read request (spec §4.5);
// execution happens afterward in the caller via the scheduler's own Run.
func (o *Orchestrator) handleReads(ops []protocol.ReadOp, timestamp int) {
	for _, op := range ops {
		obj, ok := o.objects[op.ObjectID]
		if !ok || obj.IsDeleted {
			continue
		}
		req := object.NewRequest(op.RequestID, op.ObjectID, timestamp)
		req.Priority = priority.Score(req, obj, o.diskByID, o.heat)
		o.sched.Enqueue(req)
	}
}

// updateMetrics is a no-op when no registry was wired in.
func (o *Orchestrator) updateMetrics() {
	if o.metrics == nil {
		return
	}
	for _, d := range o.disks {
		label := diskLabel(d.ID)
		o.metrics.UsedUnits.WithLabelValues(label).Set(float64(d.UsedUnits))
		o.metrics.LargestFreeBlock.WithLabelValues(label).Set(float64(d.Alloc.LargestFreeBlock()))
		o.metrics.HeadPoint.WithLabelValues(label).Set(float64(d.HeadPoint))
	}
}

// recordTokensSpent is an observability-only counter derived from each
// emitted action line; it never feeds back into scheduling. A jump always
// spends the full per-disk budget (spec §4.6); pass and read characters
// are counted at one token apiece, which undercounts read cost (a read
// costs 16-64 tokens, not 1) but still tracks action-volume trends.
func (o *Orchestrator) recordTokensSpent(actions []string) {
	if o.metrics == nil {
		return
	}
	for i, line := range actions {
		if i >= len(o.disks) {
			break
		}
		label := diskLabel(o.disks[i].ID)
		if strings.HasPrefix(line, "j ") {
			o.metrics.TokensSpentTotal.WithLabelValues(label).Add(float64(o.tokens))
			continue
		}
		if spent := strings.Count(line, "p") + strings.Count(line, "r"); spent > 0 {
			o.metrics.TokensSpentTotal.WithLabelValues(label).Add(float64(spent))
		}
	}
}

func diskLabel(id int) string { return strconv.Itoa(id) }
