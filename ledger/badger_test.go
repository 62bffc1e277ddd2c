/*
 * SPDX-FileCopyrightText: © Hypermode Inc. <hello@hypermode.com>
 * SPDX-License-Identifier: Apache-2.0
 */

package ledger

import (
	"fmt"
	"os"
	"testing"

	"github.com/dgraph-io/badger/v4"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"

	"github.com/sakyalin/udacity-BDND-private-blockchain/types"
	"github.com/sakyalin/udacity-BDND-private-blockchain/x"
)

func newTestStore(t *testing.T) *Badger {
	s, err := NewInMemory()
	require.NoError(t, err)
	t.Cleanup(func() { require.NoError(t, s.Close()) })
	return s
}

func TestEmptyStore(t *testing.T) {
	s := newTestStore(t)

	n, err := s.Len()
	require.NoError(t, err)
	require.Zero(t, n)

	_, err = s.Get(0)
	require.True(t, errors.Is(err, ErrNotFound), "got %v", err)
}

func TestPutGetOverwrite(t *testing.T) {
	s := newTestStore(t)

	require.NoError(t, s.Put(0, []byte("zero")))
	require.NoError(t, s.Put(1, []byte("one")))

	got, err := s.Get(1)
	require.NoError(t, err)
	require.Equal(t, []byte("one"), got)

	require.NoError(t, s.Put(1, []byte("uno")))
	got, err = s.Get(1)
	require.NoError(t, err)
	require.Equal(t, []byte("uno"), got)

	n, err := s.Len()
	require.NoError(t, err)
	require.Equal(t, uint64(2), n)
}

func TestIterateInHeightOrder(t *testing.T) {
	s := newTestStore(t)

	// Written out of order and across a byte boundary of the big-endian key.
	heights := []uint64{300, 2, 256, 0, 10, 1, 255}
	for _, h := range heights {
		require.NoError(t, s.Put(h, []byte(fmt.Sprintf("record-%d", h))))
	}

	var seen []uint64
	err := s.Iterate(func(height uint64, record []byte) error {
		require.Equal(t, fmt.Sprintf("record-%d", height), string(record))
		seen = append(seen, height)
		return nil
	})
	require.NoError(t, err)
	require.Equal(t, []uint64{0, 1, 2, 10, 255, 256, 300}, seen)

	n, err := s.Len()
	require.NoError(t, err)
	require.Equal(t, uint64(len(heights)), n)
}

func TestIterateStopsOnCallbackError(t *testing.T) {
	s := newTestStore(t)
	for h := uint64(0); h < 5; h++ {
		require.NoError(t, s.Put(h, []byte{byte(h)}))
	}

	stop := errors.New("stop here")
	var calls int
	err := s.Iterate(func(height uint64, _ []byte) error {
		calls++
		if height == 2 {
			return stop
		}
		return nil
	})
	require.Equal(t, stop, err)
	require.Equal(t, 3, calls)
}

func TestClosedStore(t *testing.T) {
	s, err := NewInMemory()
	require.NoError(t, err)
	require.NoError(t, s.Put(0, []byte("x")))
	require.NoError(t, s.Close())
	require.NoError(t, s.Close())

	_, err = s.Get(0)
	require.True(t, errors.Is(err, ErrStoreUnavailable), "got %v", err)
	_, err = s.Len()
	require.True(t, errors.Is(err, ErrStoreUnavailable), "got %v", err)
	err = s.Put(1, []byte("y"))
	require.True(t, errors.Is(err, ErrStoreUnavailable), "got %v", err)
	err = s.Iterate(func(uint64, []byte) error { return nil })
	require.True(t, errors.Is(err, ErrStoreUnavailable), "got %v", err)
}

func TestReopenKeepsRecords(t *testing.T) {
	dir, err := os.MkdirTemp("", "ledgertest_")
	require.NoError(t, err)
	defer os.RemoveAll(dir)

	s, err := OpenFromFlag(dir, "compression=zstd;")
	require.NoError(t, err)
	for h := uint64(0); h < 20; h++ {
		require.NoError(t, s.Put(h, []byte(fmt.Sprintf("block %d", h))))
	}
	require.NoError(t, s.Close())

	// Reopen with a different compression: old values must stay readable.
	s, err = OpenFromFlag(dir, "compression=none;")
	require.NoError(t, err)
	defer s.Close()

	n, err := s.Len()
	require.NoError(t, err)
	require.Equal(t, uint64(20), n)
	got, err := s.Get(13)
	require.NoError(t, err)
	require.Equal(t, "block 13", string(got))

	require.NoError(t, s.Put(20, []byte("block 20")))
	got, err = s.Get(20)
	require.NoError(t, err)
	require.Equal(t, "block 20", string(got))
}

func TestOpenRequiresDir(t *testing.T) {
	_, err := OpenBadger(Options{})
	require.Error(t, err)
}

func TestOptionsFromFlag(t *testing.T) {
	opt, err := OptionsFromFlag("p", "")
	require.NoError(t, err)
	require.Equal(t, "p", opt.Dir)
	require.Equal(t, CompressionSnappy, opt.Compression)
	require.True(t, opt.SyncWrites)
	require.False(t, opt.InMemory)

	opt, err = OptionsFromFlag("p", "compression=zstd; sync-writes=false; in-memory=true;")
	require.NoError(t, err)
	require.Equal(t, CompressionZSTD, opt.Compression)
	require.False(t, opt.SyncWrites)
	require.True(t, opt.InMemory)

	_, err = OptionsFromFlag("p", "compression=lz4;")
	require.Error(t, err)
}

func TestCorruptValueIsDecodeError(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.Put(0, []byte("fine")))

	// Bypass the codec to simulate on-disk corruption of the value tag.
	require.NoError(t, s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(x.HeightKey(0), []byte{0x7f, 'x'})
	}))
	_, err := s.Get(0)
	require.True(t, errors.Is(err, types.ErrDecode), "got %v", err)
}
