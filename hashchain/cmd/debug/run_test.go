/*
 * SPDX-FileCopyrightText: © Hypermode Inc. <hello@hypermode.com>
 * SPDX-License-Identifier: Apache-2.0
 */

package debug

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sakyalin/udacity-BDND-private-blockchain/chain"
	"github.com/sakyalin/udacity-BDND-private-blockchain/ledger"
)

func newChain(t *testing.T) (*chain.Engine, *ledger.Badger) {
	store, err := ledger.NewInMemory()
	require.NoError(t, err)
	e, err := chain.New(store, chain.Options{GenesisBody: "genesis"})
	require.NoError(t, err)
	t.Cleanup(func() {
		require.NoError(t, e.Close())
		require.NoError(t, store.Close())
	})

	ctx := context.Background()
	_, err = e.CreateGenesisBlock(ctx)
	require.NoError(t, err)
	for _, body := range []string{"a", "b"} {
		_, err := e.AddBody(ctx, body)
		require.NoError(t, err)
	}
	return e, store
}

func TestDump(t *testing.T) {
	_, store := newChain(t)
	require.NoError(t, store.Put(3, []byte{0x00, 0x01}))

	var buf bytes.Buffer
	require.NoError(t, dumpLedger(store, &buf))
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 4)
	require.Contains(t, lines[0], `body: "genesis"`)
	require.Contains(t, lines[2], `body: "b"`)
	require.Contains(t, lines[3], "unreadable")
}

func TestInfo(t *testing.T) {
	_, store := newChain(t)

	var buf bytes.Buffer
	require.NoError(t, printInfo(store, &buf))
	require.Contains(t, buf.String(), "Blocks      : 3")
	require.Contains(t, buf.String(), "Compression : snappy")
}

func TestCorrupt(t *testing.T) {
	ctx := context.Background()
	e, store := newChain(t)

	b, err := corruptBlock(store, flagOptions{height: 2, field: "previousBlockHash"})
	require.NoError(t, err)
	require.Empty(t, b.PreviousBlockHash)
	failed, err := e.ValidateChain(ctx)
	require.NoError(t, err)
	require.Equal(t, []uint64{1, 2}, failed)

	_, err = corruptBlock(store, flagOptions{height: 2, field: "previousBlockHash", reseal: true})
	require.NoError(t, err)
	failed, err = e.ValidateChain(ctx)
	require.NoError(t, err)
	require.Equal(t, []uint64{1}, failed)

	_, err = corruptBlock(store, flagOptions{height: 0, field: "time", value: "soon"})
	require.Error(t, err)
	_, err = corruptBlock(store, flagOptions{height: 0, field: "height"})
	require.Error(t, err)
	_, err = corruptBlock(store, flagOptions{height: 9, field: "body"})
	require.ErrorIs(t, err, ledger.ErrNotFound)
}
