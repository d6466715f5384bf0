package scheduler

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/objsched/disksim/internal/disk"
	"github.com/objsched/disksim/internal/object"
)

func oneDisk(size int) *disk.Disk { return disk.New(1, size) }

func TestJumpRuleFiresOnlyAtSliceHead(t *testing.T) {
	d := oneDisk(10)
	s := New([]*disk.Disk{d}, 5)
	obj := &object.Object{ID: 1, Size: 1, Replicas: [object.ReplicaCount]object.Replica{
		{DiskID: 1, Units: []int{9}},
	}}
	objects := map[int]*object.Object{1: obj}

	req := object.NewRequest(100, 1, 1)
	s.Enqueue(req)

	actions, completed := s.Run(objects)
	require.Len(t, actions, 1)
	assert.True(t, strings.HasPrefix(actions[0], "j "))
	assert.False(t, strings.Contains(actions[0], "#"))
	assert.Equal(t, "j 9", actions[0])
	assert.Empty(t, completed)
	assert.Equal(t, 9, d.HeadPoint)
}

func TestPassThenReadWithinBudget(t *testing.T) {
	d := oneDisk(10)
	s := New([]*disk.Disk{d}, 100)
	obj := &object.Object{ID: 1, Size: 1, Replicas: [object.ReplicaCount]object.Replica{
		{DiskID: 1, Units: []int{3}},
	}}
	objects := map[int]*object.Object{1: obj}
	s.Enqueue(object.NewRequest(1, 1, 1))

	actions, completed := s.Run(objects)
	require.Len(t, actions, 1)
	assert.Equal(t, "ppr#", actions[0])
	assert.Equal(t, []int{1}, completed)
}

func TestReadCostDecaySequence(t *testing.T) {
	d := oneDisk(20)
	s := New([]*disk.Disk{d}, 1<<30)
	units := make([]int, 20)
	for i := range units {
		units[i] = i + 1
	}
	obj := &object.Object{ID: 1, Size: len(units), Replicas: [object.ReplicaCount]object.Replica{
		{DiskID: 1, Units: units},
	}}
	objects := map[int]*object.Object{1: obj}
	s.Enqueue(object.NewRequest(1, 1, 1))

	_, completed := s.Run(objects)
	assert.Equal(t, []int{1}, completed)
	assert.True(t, d.LastActionWasRead)
	// 20 reads decay 64,52,42,34,28,23,19,16,16,... — the 20th lands on the floor.
	assert.Equal(t, 16, d.LastReadCost)
}

func TestDeleteAbortsInFlightRead(t *testing.T) {
	d1, d2, d3 := oneDisk(10), oneDisk(10), oneDisk(10)
	s := New([]*disk.Disk{d1, d2, d3}, 5)
	obj := &object.Object{ID: 1, Size: 1, Replicas: [object.ReplicaCount]object.Replica{
		{DiskID: 1, Units: []int{9}},
		{DiskID: 2, Units: []int{9}},
		{DiskID: 3, Units: []int{9}},
	}}
	objects := map[int]*object.Object{1: obj}
	s.Enqueue(object.NewRequest(1, 1, 1))

	s.Run(objects) // claims disk 1, jumps, not yet completed
	req := s.requests[1]
	require.NotNil(t, req)
	assert.Equal(t, object.StatusReading, req.Status)

	aborted := s.AbortByObject(1)
	assert.Equal(t, []int{1}, aborted)
	_, live := s.requests[1]
	assert.False(t, live)
	assert.Nil(t, s.tasks[req.ResponsibleDiskID])
}

func TestTwoReadsSameObjectClaimDistinctDisks(t *testing.T) {
	d1, d2, d3 := oneDisk(10), oneDisk(10), oneDisk(10)
	s := New([]*disk.Disk{d1, d2, d3}, 100)
	obj := &object.Object{ID: 1, Size: 1, Replicas: [object.ReplicaCount]object.Replica{
		{DiskID: 1, Units: []int{1}},
		{DiskID: 2, Units: []int{1}},
		{DiskID: 3, Units: []int{1}},
	}}
	objects := map[int]*object.Object{1: obj}
	s.Enqueue(object.NewRequest(1, 1, 1))
	s.Enqueue(object.NewRequest(2, 1, 1))

	s.assign(objects)
	claimedDisks := map[int]bool{}
	for diskID, task := range s.tasks {
		if task != nil {
			claimedDisks[diskID] = true
		}
	}
	assert.Len(t, claimedDisks, 2)
}

func TestCompletionIsReportedExactlyOnce(t *testing.T) {
	d := oneDisk(5)
	s := New([]*disk.Disk{d}, 1000)
	obj := &object.Object{ID: 1, Size: 1, Replicas: [object.ReplicaCount]object.Replica{
		{DiskID: 1, Units: []int{1}},
	}}
	objects := map[int]*object.Object{1: obj}
	s.Enqueue(object.NewRequest(1, 1, 1))

	_, completed := s.Run(objects)
	assert.Equal(t, []int{1}, completed)

	_, completedAgain := s.Run(objects)
	assert.Empty(t, completedAgain)
}
