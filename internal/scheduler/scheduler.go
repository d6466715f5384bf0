package scheduler

import (
	"fmt"
	"math"
	"strings"

	"github.com/objsched/disksim/internal/disk"
	"github.com/objsched/disksim/internal/object"
)

// coldReadCost is the token cost of a read immediately following a non-read
// action (spec §4.6).
const coldReadCost = 64

// minReadCost is the floor the read-cost decay never drops below.
const minReadCost = 16

// readDecay is the fraction of the previous read's cost the next
// consecutive read costs, before applying the floor.
const readDecay = 0.8

// task is a disk's single-slot assignment: the request it's serving and
// the cells still to be read, in order. The first element is always the
// execution phase's current seek target; the queue is drained front to
// back as reads complete.
type task struct {
	requestID int
	objectID  int
	diskID    int
	queue     []int
}

// Scheduler owns the live request map, the max-heap over pending/reading
// request IDs, and the single-slot per-disk task assignments, for one
// simulated cluster of disks (spec §4.6).
type Scheduler struct {
	disks    []*disk.Disk // ascending by ID; execution phase honors this order
	diskByID map[int]*disk.Disk
	requests map[int]*object.Request
	queue    *PriorityQueue
	tasks    map[int]*task // diskID -> assignment; absent/nil means idle
	tokens   int           // G, the per-disk per-slice token budget
}

// New builds a Scheduler over disks (already sorted by ID) with a per-disk
// token budget of tokens.
func New(disks []*disk.Disk, tokens int) *Scheduler {
	byID := make(map[int]*disk.Disk, len(disks))
	for _, d := range disks {
		byID[d.ID] = d
	}
	return &Scheduler{
		disks:    disks,
		diskByID: byID,
		requests: make(map[int]*object.Request),
		queue:    NewPriorityQueue(),
		tasks:    make(map[int]*task),
		tokens:   tokens,
	}
}

// Enqueue registers a new PENDING request (already scored by the priority
// model) and pushes it onto the heap.
func (s *Scheduler) Enqueue(req *object.Request) {
	s.requests[req.ID] = req
	s.queue.Push(req.ID, req.Priority)
}

// Abort marks a live request COMPLETED as a result of its object being
// deleted mid-flight, clears any disk task slot serving it, and removes it
// from the live map (spec §4.2). Returns true if the request was live.
func (s *Scheduler) Abort(requestID int) bool {
	req, ok := s.requests[requestID]
	if !ok {
		return false
	}
	req.Status = object.StatusCompleted
	for diskID, t := range s.tasks {
		if t != nil && t.requestID == requestID {
			delete(s.tasks, diskID)
		}
	}
	delete(s.requests, requestID)
	return true
}

// AbortByObject completes every live (PENDING or READING) request against
// objectID, clearing any disk task slot serving one of them, and returns
// their IDs for the driver's aborted-request report (spec §4.2).
func (s *Scheduler) AbortByObject(objectID int) []int {
	var aborted []int
	for id, req := range s.requests {
		if req.ObjectID != objectID {
			continue
		}
		aborted = append(aborted, id)
		req.Status = object.StatusCompleted
		for diskID, t := range s.tasks {
			if t != nil && t.requestID == id {
				delete(s.tasks, diskID)
			}
		}
		delete(s.requests, id)
	}
	return aborted
}

// idleCount reports how many disks currently have no task assigned.
func (s *Scheduler) idleCount() int {
	n := 0
	for _, d := range s.disks {
		if s.tasks[d.ID] == nil {
			n++
		}
	}
	return n
}

// assign runs the task-assignment phase: while the heap is non-empty and
// at least one disk is idle, claim idle disks for the highest-priority
// requests whose object has a replica there (spec §4.6).
func (s *Scheduler) assign(objects map[int]*object.Object) {
	var holdover []entry

	for s.queue.Len() > 0 && s.idleCount() > 0 {
		requestID, ok := s.queue.Pop()
		if !ok {
			break
		}
		req, live := s.requests[requestID]
		if !live {
			continue // ghost: request deleted or already completed
		}
		if req.Status == object.StatusReading {
			// already claimed in a previous slice; nothing to do here but it
			// stays live until its disk finishes it.
			continue
		}
		obj, ok := objects[req.ObjectID]
		if !ok {
			continue
		}

		claimed := false
		for _, r := range obj.Replicas {
			d, ok := s.diskByID[r.DiskID]
			if !ok || s.tasks[d.ID] != nil {
				continue
			}
			s.tasks[d.ID] = &task{
				requestID: req.ID,
				objectID:  obj.ID,
				diskID:    d.ID,
				queue:     append([]int(nil), r.Units...),
			}
			req.Status = object.StatusReading
			req.ResponsibleDiskID = d.ID
			claimed = true
			break
		}
		if !claimed {
			holdover = append(holdover, entry{requestID: requestID, priority: req.Priority})
		}
	}

	for _, e := range holdover {
		s.queue.Push(e.requestID, e.priority)
	}
}

// Run executes one full time slice: the task-assignment phase followed by
// the per-disk execution phase, in ascending disk-ID order (spec §5). It
// returns one head-action line per disk (in ID order) and the list of
// request IDs that completed this slice.
func (s *Scheduler) Run(objects map[int]*object.Object) (actions []string, completed []int) {
	s.assign(objects)

	actions = make([]string, len(s.disks))
	for i, d := range s.disks {
		var line string
		line, completed = s.execute(d, completed)
		actions[i] = line
	}
	return actions, completed
}

// execute drives one disk's token-budgeted motion for the slice (spec
// §4.6), returning its action line and the (possibly extended) completed
// list.
func (s *Scheduler) execute(d *disk.Disk, completed []int) (string, []int) {
	t := s.tasks[d.ID]
	if t == nil {
		return "#", completed
	}

	var sb strings.Builder
	budget := s.tokens
	tokens := budget

	for tokens > 0 && len(t.queue) > 0 {
		target := t.queue[0]
		dist := d.Distance(target)

		if tokens == budget && dist >= tokens {
			// Jump rule: spend the whole budget, no trailing '#'.
			sb.WriteString(fmt.Sprintf("j %d", target))
			d.HeadPoint = target
			d.LastActionWasRead = false
			d.LastReadCost = budget
			tokens = 0
			return sb.String(), completed
		}

		if dist > 0 {
			// Pass rule: spend min(dist, tokens) tokens' worth of 'p'.
			steps := dist
			if steps > tokens {
				steps = tokens
			}
			sb.WriteString(strings.Repeat("p", steps))
			tokens -= steps
			if steps == dist {
				d.HeadPoint = target
				d.LastActionWasRead = false
				d.LastReadCost = dist
			} else {
				// ran out of tokens mid-pass; head stops short of target.
				d.HeadPoint = ((d.HeadPoint-1+steps)%d.Size + d.Size) % d.Size + 1
				d.LastActionWasRead = false
				d.LastReadCost = steps
				break
			}
			continue
		}

		// Read rule: dist == 0.
		cost := coldReadCost
		if d.LastActionWasRead {
			cost = int(math.Max(minReadCost, math.Ceil(float64(d.LastReadCost)*readDecay)))
		}
		if tokens < cost {
			break
		}
		tokens -= cost
		sb.WriteByte('r')
		d.AdvanceHead()
		d.LastActionWasRead = true
		d.LastReadCost = cost
		t.queue = t.queue[1:]

		if len(t.queue) == 0 {
			completed = append(completed, t.requestID)
			if req, ok := s.requests[t.requestID]; ok {
				req.Status = object.StatusCompleted
			}
			delete(s.requests, t.requestID)
			delete(s.tasks, d.ID)
			break
		}
	}

	sb.WriteByte('#')
	return sb.String(), completed
}
