// Package snapshot provides a write-only, in-memory periodic dump of disk
// and object state for inspection while the process runs. The store is
// never flushed to disk, so nothing survives the process. It is purely
// diagnostic and is never read back into a running scheduler
// — persistence across runs remains a Non-goal (spec §1); this is a
// debugging aid, not restart state. Grounded on the teacher's embedded use
// of github.com/tidwall/buntdb, with github.com/google/uuid unused in
// favor of internal/ids for the run-ID (teacher-idiom parity).
/*
 * Copyright (c) 2018-2024, NVIDIA CORPORATION. All rights reserved.
 */
package snapshot

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/tidwall/buntdb"
	"golang.org/x/sync/singleflight"

	"github.com/objsched/disksim/internal/disk"
	"github.com/objsched/disksim/internal/ids"
	"github.com/objsched/disksim/internal/nlog"
	"github.com/objsched/disksim/internal/object"
)

// diskSnap is the JSON shape of one disk's diagnostic snapshot.
type diskSnap struct {
	ID        int `json:"id"`
	HeadPoint int `json:"head_point"`
	UsedUnits int `json:"used_units"`
}

// objSnap is the JSON shape of one object's diagnostic snapshot.
type objSnap struct {
	ID        int   `json:"id"`
	Size      int   `json:"size"`
	Tag       int   `json:"tag"`
	IsDeleted bool  `json:"is_deleted"`
	Disks     [3]int `json:"disks"`
}

// Manager owns an in-memory buntdb instance used purely as a keyed write
// target; it is opened once per process and never persisted to disk.
type Manager struct {
	db    *buntdb.DB
	group singleflight.Group
}

// NewManager opens a fresh in-memory snapshot store.
func NewManager() (*Manager, error) {
	db, err := buntdb.Open(":memory:")
	if err != nil {
		return nil, err
	}
	return &Manager{db: db}, nil
}

// Close releases the in-memory store.
func (m *Manager) Close() error { return m.db.Close() }

// Dump writes the current disk and object state under a fresh run ID,
// collapsing any concurrent callers (e.g. simultaneous admin-HTTP triggers
// and a periodic timer) into a single underlying write.
func (m *Manager) Dump(disks []*disk.Disk, objects map[int]*object.Object) (runID string, err error) {
	v, err, _ := m.group.Do("dump", func() (any, error) {
		runID := ids.New()
		werr := m.db.Update(func(tx *buntdb.Tx) error {
			for _, d := range disks {
				b, jerr := json.Marshal(diskSnap{ID: d.ID, HeadPoint: d.HeadPoint, UsedUnits: d.UsedUnits})
				if jerr != nil {
					return jerr
				}
				if _, _, serr := tx.Set(fmt.Sprintf("%s:disk:%d", runID, d.ID), string(b), nil); serr != nil {
					return serr
				}
			}
			for _, o := range objects {
				snap := objSnap{ID: o.ID, Size: o.Size, Tag: o.Tag, IsDeleted: o.IsDeleted}
				for i, r := range o.Replicas {
					snap.Disks[i] = r.DiskID
				}
				b, jerr := json.Marshal(snap)
				if jerr != nil {
					return jerr
				}
				if _, _, serr := tx.Set(fmt.Sprintf("%s:obj:%d", runID, o.ID), string(b), nil); serr != nil {
					return serr
				}
			}
			return nil
		})
		if werr != nil {
			return "", werr
		}
		return runID, nil
	})
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

// ServeAdmin starts a background HTTP listener whose /snapshot endpoint
// (any method) triggers an out-of-band Dump, for manual capture.
func (m *Manager) ServeAdmin(addr string, disks []*disk.Disk, objects map[int]*object.Object) {
	mux := http.NewServeMux()
	mux.HandleFunc("/snapshot", func(w http.ResponseWriter, r *http.Request) {
		runID, err := m.Dump(disks, objects)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		fmt.Fprintln(w, runID)
	})
	srv := &http.Server{Addr: addr, Handler: mux}
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			nlog.Errorln("snapshot admin server:", err)
		}
	}()
}
