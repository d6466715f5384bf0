// Package protocol implements the line-oriented stdio wire format the
// driver speaks: a one-shot preamble of counts and per-tag historical
// statistics, then one four-block exchange per time slice (timestamp,
// deletes, writes, reads). Tokens are whitespace-delimited, matching the
// original driver's scanf-based reader (original_source/main.cpp), so the
// block structure here is purely a read/emit convention layered over a
// single whitespace-split token stream — not a line-by-line grammar.
/*
 * Copyright (c) 2018-2024, NVIDIA CORPORATION. All rights reserved.
 */
package protocol

import (
	"bufio"
	"fmt"
	"io"
	"strconv"

	jsoniter "github.com/json-iterator/go"
	"github.com/pkg/errors"

	"github.com/objsched/disksim/internal/object"
	"github.com/objsched/disksim/internal/tagheat"
)

// DefaultExtraTime is the drain period appended to the driver's T slices
// when the process isn't told otherwise (config.ExtraTimeOverride).
const DefaultExtraTime = 105

// Preamble is the parsed first line plus the three per-tag, per-epoch
// statistics matrices that follow it.
type Preamble struct {
	T, M, N, V, G int
	Stats         tagheat.Stats
}

// WriteOp is one parsed write request: a new object's id, size, and tag.
type WriteOp struct {
	ID, Size, Tag int
}

// ReadOp is one parsed read request: a request id against an existing
// object id.
type ReadOp struct {
	RequestID, ObjectID int
}

// WriteResult is one object's placement outcome, ready for emission.
type WriteResult struct {
	ObjectID int
	Replicas [object.ReplicaCount]object.Replica
}

// Codec reads driver input and writes scheduler output over a single
// whitespace-tokenized stream, with an optional JSON-lines mirror for
// offline debugging.
type Codec struct {
	scanner *bufio.Scanner
	out     *bufio.Writer
	dump    *jsoniter.Encoder
}

// New wraps r and w as a Codec. The scanner's buffer is sized generously
// since a single preamble line can list V*G or M*E tokens.
func New(r io.Reader, w io.Writer) *Codec {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), 16*1024*1024)
	sc.Split(bufio.ScanWords)
	return &Codec{scanner: sc, out: bufio.NewWriter(w)}
}

// WithDump mirrors every parsed slice and emitted action block as a JSON
// object per line to w. Passing a nil w is a no-op (debug dumping stays
// off).
func (c *Codec) WithDump(w io.Writer) *Codec {
	if w != nil {
		c.dump = jsoniter.NewEncoder(w)
	}
	return c
}

type dumpRecord struct {
	Event string `json:"event"`
	Data  any    `json:"data"`
}

// Dump appends one debug record if a dump sink was configured; otherwise
// it's a no-op.
func (c *Codec) Dump(event string, data any) {
	if c.dump == nil {
		return
	}
	_ = c.dump.Encode(dumpRecord{Event: event, Data: data})
}

func (c *Codec) nextToken() (string, error) {
	if !c.scanner.Scan() {
		if err := c.scanner.Err(); err != nil {
			return "", errors.Wrap(err, "protocol: reading token")
		}
		return "", io.EOF
	}
	return c.scanner.Text(), nil
}

func (c *Codec) nextInt() (int, error) {
	tok, err := c.nextToken()
	if err != nil {
		return 0, err
	}
	n, err := strconv.Atoi(tok)
	if err != nil {
		return 0, errors.Wrapf(err, "protocol: expected integer, got %q", tok)
	}
	return n, nil
}

// ReadPreamble reads `T M N V G` followed by the three M x E delete/write/
// read matrices (spec §6).
func (c *Codec) ReadPreamble() (*Preamble, error) {
	p := &Preamble{}
	for _, dst := range []*int{&p.T, &p.M, &p.N, &p.V, &p.G} {
		v, err := c.nextInt()
		if err != nil {
			return nil, errors.Wrap(err, "protocol: reading preamble counts")
		}
		*dst = v
	}

	numEpoch := tagheat.NumEpochs(p.T)
	p.Stats = tagheat.Stats{
		Deletes: make([][]int, p.M+1),
		Writes:  make([][]int, p.M+1),
		Reads:   make([][]int, p.M+1),
	}
	for t := 1; t <= p.M; t++ {
		p.Stats.Deletes[t] = make([]int, numEpoch+1)
		p.Stats.Writes[t] = make([]int, numEpoch+1)
		p.Stats.Reads[t] = make([]int, numEpoch+1)
	}

	matrices := []struct {
		name string
		rows [][]int
	}{
		{"deletes", p.Stats.Deletes},
		{"writes", p.Stats.Writes},
		{"reads", p.Stats.Reads},
	}
	for _, m := range matrices {
		for t := 1; t <= p.M; t++ {
			for e := 1; e <= numEpoch; e++ {
				v, err := c.nextInt()
				if err != nil {
					return nil, errors.Wrapf(err, "protocol: reading %s matrix", m.name)
				}
				m.rows[t][e] = v
			}
		}
	}
	return p, nil
}

// ReadTimestamp reads the `TIMESTAMP <t>` block.
func (c *Codec) ReadTimestamp() (int, error) {
	tok, err := c.nextToken()
	if err != nil {
		return 0, errors.Wrap(err, "protocol: reading timestamp marker")
	}
	if tok != "TIMESTAMP" {
		return 0, errors.Errorf("protocol: expected TIMESTAMP, got %q", tok)
	}
	t, err := c.nextInt()
	if err != nil {
		return 0, errors.Wrap(err, "protocol: reading timestamp value")
	}
	return t, nil
}

// ReadDeletes reads `<n_delete>` followed by that many object IDs.
func (c *Codec) ReadDeletes() ([]int, error) {
	n, err := c.nextInt()
	if err != nil {
		return nil, errors.Wrap(err, "protocol: reading delete count")
	}
	ids := make([]int, n)
	for i := range ids {
		if ids[i], err = c.nextInt(); err != nil {
			return nil, errors.Wrap(err, "protocol: reading delete id")
		}
	}
	return ids, nil
}

// ReadWrites reads `<n_write>` followed by that many `<id> <size> <tag>`
// triples.
func (c *Codec) ReadWrites() ([]WriteOp, error) {
	n, err := c.nextInt()
	if err != nil {
		return nil, errors.Wrap(err, "protocol: reading write count")
	}
	ops := make([]WriteOp, n)
	for i := range ops {
		id, err := c.nextInt()
		if err != nil {
			return nil, errors.Wrap(err, "protocol: reading write id")
		}
		size, err := c.nextInt()
		if err != nil {
			return nil, errors.Wrap(err, "protocol: reading write size")
		}
		tag, err := c.nextInt()
		if err != nil {
			return nil, errors.Wrap(err, "protocol: reading write tag")
		}
		ops[i] = WriteOp{ID: id, Size: size, Tag: tag}
	}
	return ops, nil
}

// ReadReads reads `<n_read>` followed by that many `<req_id> <obj_id>`
// pairs.
func (c *Codec) ReadReads() ([]ReadOp, error) {
	n, err := c.nextInt()
	if err != nil {
		return nil, errors.Wrap(err, "protocol: reading read count")
	}
	ops := make([]ReadOp, n)
	for i := range ops {
		reqID, err := c.nextInt()
		if err != nil {
			return nil, errors.Wrap(err, "protocol: reading request id")
		}
		objID, err := c.nextInt()
		if err != nil {
			return nil, errors.Wrap(err, "protocol: reading object id")
		}
		ops[i] = ReadOp{RequestID: reqID, ObjectID: objID}
	}
	return ops, nil
}

// WriteOK emits the preamble's terminating acknowledgement.
func (c *Codec) WriteOK() error {
	fmt.Fprintln(c.out, "OK")
	return c.out.Flush()
}

// WriteTimestamp echoes the slice's timestamp block.
func (c *Codec) WriteTimestamp(t int) error {
	fmt.Fprintf(c.out, "TIMESTAMP %d\n", t)
	return c.out.Flush()
}

// WriteAborted emits the delete block's aborted-request-id output.
func (c *Codec) WriteAborted(ids []int) error {
	fmt.Fprintln(c.out, len(ids))
	for _, id := range ids {
		fmt.Fprintln(c.out, id)
	}
	return c.out.Flush()
}

// WriteResults emits the write block's per-object placement output, in
// the dispatch order results is already sorted into.
func (c *Codec) WriteResults(results []WriteResult) error {
	for _, res := range results {
		fmt.Fprintln(c.out, res.ObjectID)
		for _, r := range res.Replicas {
			fmt.Fprint(c.out, r.DiskID)
			for _, u := range r.Units {
				fmt.Fprintf(c.out, " %d", u)
			}
			fmt.Fprintln(c.out)
		}
	}
	return c.out.Flush()
}

// WriteActions emits one head-action line per disk, in ascending disk-ID
// order.
func (c *Codec) WriteActions(actions []string) error {
	for _, a := range actions {
		fmt.Fprintln(c.out, a)
	}
	return c.out.Flush()
}

// WriteCompleted emits the read block's completed-request-id output.
func (c *Codec) WriteCompleted(ids []int) error {
	fmt.Fprintln(c.out, len(ids))
	for _, id := range ids {
		fmt.Fprintln(c.out, id)
	}
	return c.out.Flush()
}
