/*
 * SPDX-FileCopyrightText: © Hypermode Inc. <hello@hypermode.com>
 * SPDX-License-Identifier: Apache-2.0
 */

package chain

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/golang/glog"
	"github.com/pkg/errors"
	"go.opencensus.io/stats"
	"go.opencensus.io/tag"
	"golang.org/x/sync/errgroup"

	"github.com/sakyalin/udacity-BDND-private-blockchain/ledger"
	"github.com/sakyalin/udacity-BDND-private-blockchain/types"
	"github.com/sakyalin/udacity-BDND-private-blockchain/x"
)

// ViolationKind tells which check a block failed.
type ViolationKind int

const (
	// SelfHash: the stored hash is not the hash of the stored fields.
	SelfHash ViolationKind = iota
	// Link: the block's hash differs from its successor's previous hash.
	Link
	// Unreadable: no record, or a record that does not decode, at a height
	// below the ledger length.
	Unreadable
)

func (k ViolationKind) String() string {
	switch k {
	case SelfHash:
		return "self-hash"
	case Link:
		return "link"
	case Unreadable:
		return "unreadable"
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// MarshalText makes kinds print by name in JSON.
func (k ViolationKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnmarshalText parses a kind name written by MarshalText.
func (k *ViolationKind) UnmarshalText(text []byte) error {
	switch string(text) {
	case "self-hash":
		*k = SelfHash
	case "link":
		*k = Link
	case "unreadable":
		*k = Unreadable
	default:
		return errors.Errorf("unknown violation kind %q", text)
	}
	return nil
}

// Violation is one failed integrity check. It is data, not an error: audits
// collect violations and keep going.
type Violation struct {
	Height uint64        `json:"height"`
	Kind   ViolationKind `json:"kind"`
	// Want and Got are the two digests that differ. For SelfHash, Want is
	// the recomputed hash and Got the stored one. For Link, Want is the
	// block's hash and Got the successor's previousBlockHash.
	Want string `json:"want,omitempty"`
	Got  string `json:"got,omitempty"`
	// Reason describes an Unreadable record.
	Reason string `json:"reason,omitempty"`
}

func (v Violation) String() string {
	if v.Kind == Unreadable {
		return fmt.Sprintf("Block #%d unreadable: %s", v.Height, v.Reason)
	}
	return fmt.Sprintf("Block #%d invalid %s:\n%s<>%s", v.Height, v.Kind, v.Got, v.Want)
}

// Reporter receives integrity violations as they are found.
type Reporter interface {
	Violation(v Violation)
}

// Report is the outcome of a full audit.
type Report struct {
	// Length is the number of blocks the ledger held when the audit started.
	Length uint64 `json:"length"`
	// Violations are sorted by height, then kind.
	Violations []Violation `json:"violations"`
	Duration   time.Duration `json:"duration"`
}

// OK reports whether the audit found nothing wrong.
func (r *Report) OK() bool {
	return len(r.Violations) == 0
}

// Heights returns the sorted, distinct heights that failed a check.
func (r *Report) Heights() []uint64 {
	heights := make([]uint64, 0, len(r.Violations))
	for _, v := range r.Violations {
		if n := len(heights); n > 0 && heights[n-1] == v.Height {
			continue
		}
		heights = append(heights, v.Height)
	}
	return heights
}

// ValidateBlock recomputes the hash of the block at height and compares it
// with the stored one. A mismatch is logged, reported and returned as false;
// only a failure to read the block is an error.
func (e *Engine) ValidateBlock(ctx context.Context, height uint64) (bool, error) {
	b, err := e.readBlock(height)
	if err != nil {
		return false, err
	}
	v, ok := checkSelf(height, b)
	if !ok {
		e.report(ctx, []Violation{v})
	}
	return ok, nil
}

// ValidateChain audits every block and returns the sorted, distinct heights
// that failed. An empty result means the chain is intact.
func (e *Engine) ValidateChain(ctx context.Context) ([]uint64, error) {
	r, err := e.Audit(ctx)
	if err != nil {
		return nil, err
	}
	return r.Heights(), nil
}

// Audit checks every height of the ledger. Each height is an independent
// task: the self check of block i and, when i is not the last height, the
// link check between block i and block i+1. Tasks run concurrently, bounded
// by Options.Concurrency, and write into their own slot, so the report does
// not depend on completion order.
//
// Missing or undecodable records become Unreadable violations. Only a store
// failure (or ctx cancellation) aborts the audit.
func (e *Engine) Audit(ctx context.Context) (*Report, error) {
	ctx = x.WithMethod(ctx, "Audit")
	start := time.Now()

	r, err := e.audit(ctx)
	x.RecordLatency(ctx, start, err)
	if err != nil {
		return nil, err
	}
	r.Duration = time.Since(start)
	stats.Record(ctx, x.NumAudits.M(1))
	e.report(ctx, r.Violations)
	if r.OK() {
		glog.V(1).Infof("Audit of %d blocks found no errors in %v", r.Length, r.Duration)
	} else {
		glog.Warningf("Audit of %d blocks found %d errors at heights %v",
			r.Length, len(r.Violations), r.Heights())
	}
	return r, nil
}

func (e *Engine) audit(ctx context.Context) (*Report, error) {
	length, err := e.store.Len()
	if err != nil {
		return nil, errors.Wrapf(err, "while reading ledger length")
	}

	slots := make([][]Violation, length)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.opt.Concurrency)
	for i := uint64(0); i < length; i++ {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			vs, err := e.checkHeight(i, length)
			if err != nil {
				return err
			}
			if glog.V(2) {
				glog.Infof("Checked block %d: %d violations", i, len(vs))
			}
			slots[i] = vs
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, errors.Wrapf(err, "while auditing chain")
	}

	r := &Report{Length: length, Violations: []Violation{}}
	for _, vs := range slots {
		r.Violations = append(r.Violations, vs...)
	}
	sort.SliceStable(r.Violations, func(i, j int) bool {
		a, b := r.Violations[i], r.Violations[j]
		if a.Height != b.Height {
			return a.Height < b.Height
		}
		return a.Kind < b.Kind
	})
	return r, nil
}

func (e *Engine) checkHeight(height, length uint64) ([]Violation, error) {
	cur, err := e.readBlock(height)
	if err != nil {
		if isUnreadable(err) {
			return []Violation{{Height: height, Kind: Unreadable, Reason: err.Error()}}, nil
		}
		return nil, err
	}

	var vs []Violation
	if v, ok := checkSelf(height, cur); !ok {
		vs = append(vs, v)
	}
	if height+1 >= length {
		return vs, nil
	}

	next, err := e.readBlock(height + 1)
	switch {
	case err != nil && isUnreadable(err):
		// The successor's own task reports it as Unreadable.
	case err != nil:
		return nil, err
	case next.PreviousBlockHash != cur.Hash:
		vs = append(vs, Violation{
			Height: height,
			Kind:   Link,
			Want:   cur.Hash,
			Got:    next.PreviousBlockHash,
		})
	}
	return vs, nil
}

// checkSelf reports against the height the block is stored at, which is
// what a corrupted Height field would no longer match.
func checkSelf(height uint64, b *types.Block) (Violation, bool) {
	computed := b.ComputeHash()
	if computed == b.Hash {
		return Violation{}, true
	}
	return Violation{Height: height, Kind: SelfHash, Want: computed, Got: b.Hash}, false
}

func isUnreadable(err error) bool {
	return errors.Is(err, ledger.ErrNotFound) || errors.Is(err, types.ErrDecode)
}

func (e *Engine) report(ctx context.Context, vs []Violation) {
	for _, v := range vs {
		glog.Warningf("%s", v)
		if kctx, err := tag.New(ctx, tag.Upsert(x.KeyKind, v.Kind.String())); err == nil {
			stats.Record(kctx, x.NumViolations.M(1))
		}
		if e.opt.Reporter != nil {
			e.opt.Reporter.Violation(v)
		}
	}
}
