// Package schederr defines the scheduler's own error sentinels and wrapper
// constructors, in the shape of aistore's cmn.NewErrAborted /
// cmn.NewErrXactUsePrev: named constructors over bare fmt.Errorf, wrapped
// with github.com/pkg/errors so callers at the orchestrator boundary get a
// stack trace on the first wrap.
/*
 * Copyright (c) 2018-2024, NVIDIA CORPORATION. All rights reserved.
 */
package schederr

import (
	"fmt"

	"github.com/pkg/errors"
)

// ErrPlacementFailed reports that fewer than three disks passed the
// 90%-full veto for a write. The orchestrator logs it and skips the write
// (no output lines for it); it does not end the slice or the run.
type ErrPlacementFailed struct {
	ObjectID int
	Eligible int
}

func (e *ErrPlacementFailed) Error() string {
	return fmt.Sprintf("object %d: placement failed, only %d disk(s) eligible (need %d)",
		e.ObjectID, e.Eligible, 3)
}

// NewErrPlacementFailed wraps an ErrPlacementFailed with a stack trace.
func NewErrPlacementFailed(objectID, eligible int) error {
	return errors.WithStack(&ErrPlacementFailed{ObjectID: objectID, Eligible: eligible})
}

// ErrAllocationFailed reports that placement succeeded but a chosen disk's
// allocator could not actually produce the requested cells (a placement/
// allocator disagreement — the allocator is the ground truth).
type ErrAllocationFailed struct {
	ObjectID int
	DiskID   int
	Size     int
}

func (e *ErrAllocationFailed) Error() string {
	return fmt.Sprintf("object %d: disk %d could not allocate %d cell(s)", e.ObjectID, e.DiskID, e.Size)
}

// NewErrAllocationFailed wraps an ErrAllocationFailed with a stack trace.
func NewErrAllocationFailed(objectID, diskID, size int) error {
	return errors.WithStack(&ErrAllocationFailed{ObjectID: objectID, DiskID: diskID, Size: size})
}

// IsPlacementOrAllocation reports whether err is one of the two write-time
// failures above, regardless of how many times it's been wrapped.
func IsPlacementOrAllocation(err error) bool {
	var pf *ErrPlacementFailed
	var af *ErrAllocationFailed
	return errors.As(err, &pf) || errors.As(err, &af)
}
