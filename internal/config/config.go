// Package config holds the handful of process-startup flags the simulator
// binary accepts. The teacher's own cmd/cli tool is a multi-command admin
// client built on urfave/cli; this binary only ever runs one way (read the
// protocol from stdin, write it to stdout), so its flag surface is small
// enough that the stdlib flag package is the right-altitude match rather
// than pulling in a command framework meant for subcommand dispatch (see
// DESIGN.md).
/*
 * Copyright (c) 2018-2024, NVIDIA CORPORATION. All rights reserved.
 */
package config

import "flag"

// Config is the process's read-only startup configuration.
type Config struct {
	Verbosity       int
	MetricsAddr     string
	DumpJSONPath    string
	SnapshotEvery   int // slices between diagnostic snapshots; 0 disables
	ExtraTimeOverride int // 0 means use the protocol default (EXTRA_TIME)
}

// Parse parses os.Args[1:]-style arguments into a Config.
func Parse(args []string) (*Config, error) {
	fs := flag.NewFlagSet("disksim", flag.ContinueOnError)
	cfg := &Config{}
	fs.IntVar(&cfg.Verbosity, "v", 0, "log verbosity (0 = quiet)")
	fs.StringVar(&cfg.MetricsAddr, "metrics-addr", "", "if set, serve Prometheus metrics on this address")
	fs.StringVar(&cfg.DumpJSONPath, "dump-json", "", "if set, mirror every parsed slice and emitted action block to this JSON-lines file")
	fs.IntVar(&cfg.SnapshotEvery, "snapshot-interval", 0, "if > 0, dump a diagnostic snapshot every N slices (0 disables)")
	fs.IntVar(&cfg.ExtraTimeOverride, "extra-time", 0, "override EXTRA_TIME (0 = protocol default)")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	return cfg, nil
}
