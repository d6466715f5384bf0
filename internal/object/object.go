// Package object holds the value types shared by the placement, allocator,
// and scheduler packages: objects, their replicas, and pending read requests.
/*
 * Copyright (c) 2018-2024, NVIDIA CORPORATION. All rights reserved.
 */
package object

// MaxObjSize is the largest single object size the system accepts, and the
// allocator's largest fixed-size bucket boundary.
const MaxObjSize = 5

// ReplicaCount is the number of disjoint-disk copies every object keeps.
const ReplicaCount = 3

// Replica is one of an Object's three placements: the disk it lives on and
// the (not necessarily contiguous) cells it occupies, in read order.
type Replica struct {
	DiskID int
	Units  []int
}

// Object is a single write's worth of state: identity, tag, size, and the
// three replicas the placement policy chose for it.
type Object struct {
	ID        int
	Size      int
	Tag       int
	Replicas  [ReplicaCount]Replica
	IsDeleted bool
}

// New constructs an Object with empty replica slots; the orchestrator fills
// them in after a successful placement + allocation.
func New(id, size, tag int) *Object {
	return &Object{ID: id, Size: size, Tag: tag}
}

// Status is a Request's position in its lifecycle.
type Status int

const (
	StatusPending Status = iota
	StatusReading
	StatusCompleted
)

func (s Status) String() string {
	switch s {
	case StatusPending:
		return "PENDING"
	case StatusReading:
		return "READING"
	case StatusCompleted:
		return "COMPLETED"
	default:
		return "UNKNOWN"
	}
}

// ReadingSentinelPriority is assigned to requests already claimed by a disk;
// it must outrank any computed priority so a claimed request is never
// re-evaluated ahead of finishing its read.
const ReadingSentinelPriority = 1e7

// Request is one pending (or in-flight, or finished) read of an object.
type Request struct {
	ID                int
	ObjectID          int
	StartTimestamp    int
	Status            Status
	Priority          float64
	ResponsibleDiskID int // -1 when unassigned
}

// NewRequest creates a PENDING request with no disk assignment yet.
func NewRequest(id, objectID, startTimestamp int) *Request {
	return &Request{
		ID:                id,
		ObjectID:          objectID,
		StartTimestamp:    startTimestamp,
		Status:            StatusPending,
		ResponsibleDiskID: -1,
	}
}
