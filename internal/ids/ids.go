// Package ids generates the scheduler's own internal correlation IDs —
// currently only snapshot run IDs — kept distinct from the
// driver-supplied object and request IDs which are never generated, only
// echoed. Grounded on the teacher's use of github.com/teris-io/shortid for
// xaction UUIDs (xact/xs/tcb.go's p.UUID()).
/*
 * Copyright (c) 2018-2024, NVIDIA CORPORATION. All rights reserved.
 */
package ids

import "github.com/teris-io/shortid"

// New returns a new short, URL-safe correlation ID, or a fixed fallback if
// the generator's entropy source errors (never fatal: an internal ID
// collision only degrades diagnostics, not correctness).
func New() string {
	id, err := shortid.Generate()
	if err != nil {
		return "disksim-run"
	}
	return id
}
