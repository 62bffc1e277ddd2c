/*
 * SPDX-FileCopyrightText: © Hypermode Inc. <hello@hypermode.com>
 * SPDX-License-Identifier: Apache-2.0
 */

package chain

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"

	"github.com/sakyalin/udacity-BDND-private-blockchain/ledger"
	"github.com/sakyalin/udacity-BDND-private-blockchain/types"
)

// tamper rewrites the record at height behind the engine's back.
func tamper(t *testing.T, store ledger.Store, height uint64, fn func(b *types.Block)) {
	record, err := store.Get(height)
	require.NoError(t, err)
	b, err := types.Unmarshal(record)
	require.NoError(t, err)
	fn(b)
	require.NoError(t, store.Put(height, b.Marshal()))
}

func buildChain(t *testing.T, e *Engine, n int) {
	_, err := e.CreateGenesisBlock(context.Background())
	require.NoError(t, err)
	for i := 1; i < n; i++ {
		addBodies(t, e, fmt.Sprintf("block %d", i))
	}
}

type collector struct {
	sync.Mutex
	got []Violation
}

func (c *collector) Violation(v Violation) {
	c.Lock()
	defer c.Unlock()
	c.got = append(c.got, v)
}

func TestValidateIntactChain(t *testing.T) {
	ctx := context.Background()
	e, _ := newTestEngine(t, Options{})
	buildChain(t, e, 10)

	for h := uint64(0); h < 10; h++ {
		ok, err := e.ValidateBlock(ctx, h)
		require.NoError(t, err)
		require.True(t, ok, "height %d", h)
	}
	r, err := e.Audit(ctx)
	require.NoError(t, err)
	require.True(t, r.OK())
	require.Equal(t, uint64(10), r.Length)
	require.Empty(t, r.Heights())
}

func TestValidateEmptyChain(t *testing.T) {
	e, _ := newTestEngine(t, Options{})
	failed, err := e.ValidateChain(context.Background())
	require.NoError(t, err)
	require.Empty(t, failed)
}

func TestSelfTamper(t *testing.T) {
	ctx := context.Background()
	e, store := newTestEngine(t, Options{})
	buildChain(t, e, 3)

	tamper(t, store, 1, func(b *types.Block) { b.Body = "induced chain error" })

	ok, err := e.ValidateBlock(ctx, 1)
	require.NoError(t, err)
	require.False(t, ok)
	for _, h := range []uint64{0, 2} {
		ok, err := e.ValidateBlock(ctx, h)
		require.NoError(t, err)
		require.True(t, ok)
	}

	failed, err := e.ValidateChain(ctx)
	require.NoError(t, err)
	require.Equal(t, []uint64{1}, failed)

	r, err := e.Audit(ctx)
	require.NoError(t, err)
	require.Len(t, r.Violations, 1)
	v := r.Violations[0]
	require.Equal(t, SelfHash, v.Kind)
	require.NotEqual(t, v.Want, v.Got)
}

func TestLinkTamperResealed(t *testing.T) {
	ctx := context.Background()
	e, store := newTestEngine(t, Options{})
	buildChain(t, e, 3)

	// Block 1 stays self-consistent but gets a new hash.
	tamper(t, store, 1, func(b *types.Block) {
		b.PreviousBlockHash = ""
		b.Seal()
	})

	ok, err := e.ValidateBlock(ctx, 1)
	require.NoError(t, err)
	require.True(t, ok)

	r, err := e.Audit(ctx)
	require.NoError(t, err)
	require.Equal(t, []uint64{0, 1}, r.Heights(),
		"block 1 got a new hash, so block 2 no longer links to it")
	want := []ViolationKind{Link, Link}
	var got []ViolationKind
	for _, v := range r.Violations {
		got = append(got, v.Kind)
	}
	require.Equal(t, want, got)
}

func TestLinkTamperResealedAtTip(t *testing.T) {
	ctx := context.Background()
	e, store := newTestEngine(t, Options{})
	buildChain(t, e, 2)

	tamper(t, store, 1, func(b *types.Block) {
		b.PreviousBlockHash = ""
		b.Seal()
	})

	ok, err := e.ValidateBlock(ctx, 1)
	require.NoError(t, err)
	require.True(t, ok)

	failed, err := e.ValidateChain(ctx)
	require.NoError(t, err)
	require.Equal(t, []uint64{0}, failed)
}

func TestLinkTamperNotResealed(t *testing.T) {
	ctx := context.Background()
	e, store := newTestEngine(t, Options{})
	buildChain(t, e, 3)

	tamper(t, store, 1, func(b *types.Block) { b.PreviousBlockHash = "" })

	ok, err := e.ValidateBlock(ctx, 1)
	require.NoError(t, err)
	require.False(t, ok)

	r, err := e.Audit(ctx)
	require.NoError(t, err)
	require.Equal(t, []uint64{0, 1}, r.Heights())
	require.Equal(t, Link, r.Violations[0].Kind)
	require.Equal(t, SelfHash, r.Violations[1].Kind)
}

func TestTamperedTipIsChecked(t *testing.T) {
	ctx := context.Background()
	e, store := newTestEngine(t, Options{})
	buildChain(t, e, 4)

	tamper(t, store, 3, func(b *types.Block) { b.Body = "rewritten tip" })

	failed, err := e.ValidateChain(ctx)
	require.NoError(t, err)
	require.Equal(t, []uint64{3}, failed)
}

func TestUnreadableRecords(t *testing.T) {
	ctx := context.Background()
	e, store := newTestEngine(t, Options{})
	buildChain(t, e, 4)

	require.NoError(t, store.Put(2, []byte("not a block")))

	_, err := e.GetBlock(ctx, 2)
	require.True(t, errors.Is(err, types.ErrDecode), "got %v", err)
	_, err = e.ValidateBlock(ctx, 2)
	require.True(t, errors.Is(err, types.ErrDecode), "got %v", err)

	r, err := e.Audit(ctx)
	require.NoError(t, err)
	require.Equal(t, []uint64{2}, r.Heights())
	require.Equal(t, Unreadable, r.Violations[0].Kind)
	require.NotEmpty(t, r.Violations[0].Reason)

	// The tip is still readable, so appends keep working.
	b, err := e.AddBody(ctx, "after corruption")
	require.NoError(t, err)
	require.Equal(t, uint64(4), b.Height)

	require.NoError(t, store.Put(4, []byte{0xff}))
	_, err = e.AddBody(ctx, "on a broken tip")
	require.True(t, errors.Is(err, types.ErrDecode), "got %v", err)
}

func TestAuditIndependentOfConcurrency(t *testing.T) {
	ctx := context.Background()
	store, err := ledger.NewInMemory()
	require.NoError(t, err)
	defer store.Close()

	writer, err := New(store, Options{Now: tickingClock()})
	require.NoError(t, err)
	buildChain(t, writer, 50)
	tamper(t, store, 7, func(b *types.Block) { b.Body = "x" })
	tamper(t, store, 20, func(b *types.Block) { b.PreviousBlockHash = "" })
	tamper(t, store, 33, func(b *types.Block) { b.Time++; b.Seal() })
	require.NoError(t, store.Put(41, []byte{}))

	var reports []*Report
	for _, c := range []int{1, 4, 64} {
		e, err := New(store, Options{Concurrency: c})
		require.NoError(t, err)
		r, err := e.Audit(ctx)
		require.NoError(t, err)
		reports = append(reports, r)
	}
	for _, r := range reports[1:] {
		if diff := cmp.Diff(reports[0].Violations, r.Violations); diff != "" {
			t.Fatalf("audit depends on concurrency (-want +got):\n%s", diff)
		}
	}
	require.Equal(t, []uint64{7, 19, 20, 33, 41}, reports[0].Heights())
}

func TestReporterReceivesViolations(t *testing.T) {
	ctx := context.Background()
	c := &collector{}
	e, store := newTestEngine(t, Options{Reporter: c})
	buildChain(t, e, 3)

	_, err := e.ValidateChain(ctx)
	require.NoError(t, err)
	require.Empty(t, c.got)

	tamper(t, store, 2, func(b *types.Block) { b.Body = "y" })
	ok, err := e.ValidateBlock(ctx, 2)
	require.NoError(t, err)
	require.False(t, ok)
	require.Len(t, c.got, 1)
	require.Equal(t, uint64(2), c.got[0].Height)

	e.SetReporter(nil)
	_, err = e.ValidateChain(ctx)
	require.NoError(t, err)
	require.Len(t, c.got, 1)
}

func TestAuditCanceled(t *testing.T) {
	e, _ := newTestEngine(t, Options{})
	buildChain(t, e, 5)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := e.Audit(ctx)
	require.True(t, errors.Is(err, context.Canceled), "got %v", err)
}

func TestViolationString(t *testing.T) {
	v := Violation{Height: 3, Kind: SelfHash, Want: "aa", Got: "bb"}
	require.Equal(t, "Block #3 invalid self-hash:\nbb<>aa", v.String())
	v = Violation{Height: 4, Kind: Unreadable, Reason: "malformed block record"}
	require.Equal(t, "Block #4 unreadable: malformed block record", v.String())

	text, err := Link.MarshalText()
	require.NoError(t, err)
	require.Equal(t, "link", string(text))
}

func TestReportJSONRoundTrip(t *testing.T) {
	ctx := context.Background()
	e, store := newTestEngine(t, Options{})
	buildChain(t, e, 4)
	tamper(t, store, 2, func(b *types.Block) { b.PreviousBlockHash = "" })
	require.NoError(t, store.Put(3, []byte("not a block")))

	r, err := e.Audit(ctx)
	require.NoError(t, err)
	require.Len(t, r.Violations, 3)

	data, err := json.Marshal(r)
	require.NoError(t, err)
	require.Contains(t, string(data), `"kind":"self-hash"`)
	require.Contains(t, string(data), `"kind":"link"`)
	require.Contains(t, string(data), `"kind":"unreadable"`)

	var got Report
	require.NoError(t, json.Unmarshal(data, &got))
	if diff := cmp.Diff(*r, got); diff != "" {
		t.Fatalf("report changed after JSON round trip (-want +got):\n%s", diff)
	}

	var k ViolationKind
	require.Error(t, k.UnmarshalText([]byte("self_hash")))
	require.Error(t, json.Unmarshal([]byte(`{"kind":"bogus"}`), &Violation{}))
}
