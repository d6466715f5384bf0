// Package tagheat computes per-tag, per-epoch heat from the historical
// delete/write/read statistics the driver preamble supplies, and exposes a
// cuckoo-filter-backed fast path for the hot per-request lookup in the
// priority model (spec §4.4, §4.5).
/*
 * Copyright (c) 2018-2024, NVIDIA CORPORATION. All rights reserved.
 */
package tagheat

import (
	cuckoo "github.com/seiflotfy/cuckoofilter"
)

// Window is the number of forward epochs summed into a single epoch's heat
// (spec §3: W = 2).
const Window = 2

// SlicesPerEpoch is the number of time slices per epoch (spec §3:
// FRE_PER_SLICING = 1800).
const SlicesPerEpoch = 1800

// EpochOf returns the 1-based epoch index of timestamp t (spec §3).
func EpochOf(t int) int {
	return (t-1)/SlicesPerEpoch + 1
}

// NumEpochs returns the number of epochs spanned by a T-slice horizon
// (ceil(T/SlicesPerEpoch), same formula as a timestamp's epoch index).
func NumEpochs(t int) int { return EpochOf(t) }

// Stats holds the known-up-front per-tag, per-epoch (deletes, writes, reads)
// triples, 1-indexed by tag and by epoch.
type Stats struct {
	Deletes [][]int
	Writes  [][]int
	Reads   [][]int
}

// Model recomputes and serves tag_heat[tag][epoch] per spec §4.4.
type Model struct {
	stats    Stats
	numTags  int
	numEpoch int
	heat     [][]float64 // heat[tag][epoch], recomputed in place per epoch
	seen     *cuckoo.Filter
}

// New builds a Model over M tags and the given per-epoch stats matrices
// (each sized [M+1][numEpoch+1], 1-indexed).
func New(numTags, numEpoch int, stats Stats) *Model {
	heat := make([][]float64, numTags+1)
	for t := range heat {
		heat[t] = make([]float64, numEpoch+1)
	}
	return &Model{
		stats:    stats,
		numTags:  numTags,
		numEpoch: numEpoch,
		heat:     heat,
		seen:     cuckoo.NewFilter(1024),
	}
}

// RecomputeEpoch recomputes heat[t][epoch] for every tag at the start of the
// given epoch, per spec §4.4: heat = (sum reads over [epoch, epoch+W)) /
// (1 + sum deletes over [epoch, epoch+W)). Epochs past the horizon
// contribute zero.
func (m *Model) RecomputeEpoch(epoch int) {
	for t := 1; t <= m.numTags; t++ {
		var reads, deletes int
		for e := epoch; e < epoch+Window; e++ {
			if e < 1 || e > m.numEpoch {
				continue
			}
			reads += m.stats.Reads[t][e]
			deletes += m.stats.Deletes[t][e]
		}
		m.heat[t][epoch] = float64(reads) / float64(1+deletes)
		if reads > 0 || deletes > 0 {
			m.seen.Insert(tagEpochKey(t, epoch))
		}
	}
}

// Heat returns tag_heat[tag][epoch]; zero for a tag/epoch with no recorded
// activity that was never inserted into the cuckoo pre-filter, short-
// circuiting the (otherwise always-safe) map-free slice lookup below for
// tags that have never been touched.
func (m *Model) Heat(tag, epoch int) float64 {
	if tag < 1 || tag > m.numTags || epoch < 1 || epoch > m.numEpoch {
		return 0
	}
	if !m.seen.Lookup(tagEpochKey(tag, epoch)) {
		return 0
	}
	return m.heat[tag][epoch]
}

func tagEpochKey(tag, epoch int) []byte {
	return []byte{byte(tag >> 24), byte(tag >> 16), byte(tag >> 8), byte(tag), byte(epoch >> 8), byte(epoch)}
}
