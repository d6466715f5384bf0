// Command disksim runs the storage scheduler against the turn-based stdio
// protocol: it reads the preamble and per-slice blocks from stdin and
// writes the corresponding action blocks to stdout, exiting 0 once
// T + EXTRA_TIME slices have been processed.
/*
 * Copyright (c) 2018-2024, NVIDIA CORPORATION. All rights reserved.
 */
package main

import (
	"os"

	"github.com/objsched/disksim/internal/config"
	"github.com/objsched/disksim/internal/disk"
	"github.com/objsched/disksim/internal/metrics"
	"github.com/objsched/disksim/internal/nlog"
	"github.com/objsched/disksim/internal/orchestrator"
	"github.com/objsched/disksim/internal/protocol"
	"github.com/objsched/disksim/internal/snapshot"
	"github.com/objsched/disksim/internal/tagheat"
)

func main() {
	cfg, err := config.Parse(os.Args[1:])
	if err != nil {
		nlog.Fatalln("parsing flags:", err)
	}
	nlog.SetVerbosity(cfg.Verbosity)

	codec := protocol.New(os.Stdin, os.Stdout)
	if cfg.DumpJSONPath != "" {
		f, err := os.Create(cfg.DumpJSONPath)
		if err != nil {
			nlog.Fatalln("opening dump-json sink:", err)
		}
		defer f.Close()
		codec = codec.WithDump(f)
	}

	preamble, err := codec.ReadPreamble()
	if err != nil {
		nlog.Fatalln("reading preamble:", err)
	}
	if err := codec.WriteOK(); err != nil {
		nlog.Fatalln("acking preamble:", err)
	}

	disks := make([]*disk.Disk, preamble.N)
	for i := range disks {
		disks[i] = disk.New(i+1, preamble.V)
	}

	heat := tagheat.New(preamble.M, tagheat.NumEpochs(preamble.T), preamble.Stats)

	var metricsReg *metrics.Registry
	if cfg.MetricsAddr != "" {
		metricsReg = metrics.New()
		if err := metricsReg.Serve(cfg.MetricsAddr); err != nil {
			nlog.Warnf("metrics server not started: %v", err)
		}
	}

	var snap *snapshot.Manager
	if cfg.SnapshotEvery > 0 {
		snap, err = snapshot.NewManager()
		if err != nil {
			nlog.Fatalln("opening snapshot store:", err)
		}
		defer snap.Close()
	}

	orch := orchestrator.New(disks, preamble.G, heat, metricsReg, snap, cfg.SnapshotEvery)

	extraTime := protocol.DefaultExtraTime
	if cfg.ExtraTimeOverride > 0 {
		extraTime = cfg.ExtraTimeOverride
	}

	for t := 1; t <= preamble.T+extraTime; t++ {
		if err := orch.RunSlice(codec, t); err != nil {
			nlog.Fatalln("slice", t, "failed:", err)
		}
	}
}
