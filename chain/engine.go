/*
 * SPDX-FileCopyrightText: © Hypermode Inc. <hello@hypermode.com>
 * SPDX-License-Identifier: Apache-2.0
 */

// Package chain builds, appends, reads and audits the blocks of a hash chain
// kept in a ledger.Store.
package chain

import (
	"bytes"
	"context"
	"sync"
	"time"

	"github.com/dgraph-io/ristretto/v2"
	"github.com/golang/glog"
	"github.com/pkg/errors"
	"go.opencensus.io/stats"

	"github.com/sakyalin/udacity-BDND-private-blockchain/ledger"
	"github.com/sakyalin/udacity-BDND-private-blockchain/types"
	"github.com/sakyalin/udacity-BDND-private-blockchain/x"
)

// Engine is the only component that assigns heights, links and hashes.
//
// Appends (AddBlock, CreateGenesisBlock) are serialized by writeLock: the
// height is the ledger length read at the start of the append, so the
// length-read and the final Put must not interleave with another append.
// Reads and audits take no lock.
type Engine struct {
	store     ledger.Store
	ownsStore bool
	opt       Options
	cache     *ristretto.Cache[uint64, *cachedBlock]

	writeLock sync.Mutex
}

// cachedBlock is a decoded block together with the record it was decoded
// from. It is only served while the stored record is still the same bytes.
type cachedBlock struct {
	record []byte
	block  *types.Block
}

// New returns an engine on top of store. The caller keeps ownership of store.
func New(store ledger.Store, opt Options) (*Engine, error) {
	if store == nil {
		return nil, errors.New("chain: nil ledger store")
	}
	opt.fillDefaults()
	e := &Engine{store: store, opt: opt}
	if opt.CacheBlocks > 0 {
		cache, err := ristretto.NewCache(&ristretto.Config[uint64, *cachedBlock]{
			NumCounters: opt.CacheBlocks * 10,
			MaxCost:     opt.CacheBlocks,
			BufferItems: 64,
			// Every block costs 1, MaxCost is a block count.
			IgnoreInternalCost: true,
		})
		if err != nil {
			return nil, errors.Wrapf(err, "while creating block cache")
		}
		e.cache = cache
	}
	return e, nil
}

// Open opens the badger ledger in dir and returns an engine owning it.
// badgerFlag and chainFlag are superflag strings, see ledger.BadgerDefaults
// and ChainDefaults.
func Open(dir, badgerFlag, chainFlag string) (*Engine, error) {
	store, err := ledger.OpenFromFlag(dir, badgerFlag)
	if err != nil {
		return nil, err
	}
	e, err := New(store, OptionsFromFlag(chainFlag))
	if err != nil {
		x.Ignore(store.Close())
		return nil, err
	}
	e.ownsStore = true
	return e, nil
}

// Store returns the ledger the engine writes to.
func (e *Engine) Store() ledger.Store {
	return e.store
}

// SetReporter replaces the violation reporter. It must be called before the
// engine is shared between goroutines.
func (e *Engine) SetReporter(r Reporter) {
	e.opt.Reporter = r
}

// Close releases the block cache and, if the engine opened it, the ledger.
func (e *Engine) Close() error {
	if e.cache != nil {
		e.cache.Close()
	}
	if e.ownsStore {
		return e.store.Close()
	}
	return nil
}

// AddBlock assigns height, time, previous hash and hash to a copy of
// candidate, in that order, and writes it at its height. Only the Body of
// candidate is used. The appended block is returned.
func (e *Engine) AddBlock(ctx context.Context, candidate *types.Block) (*types.Block, error) {
	if candidate == nil {
		return nil, errors.New("chain: nil candidate block")
	}
	ctx = x.WithMethod(ctx, "AddBlock")
	start := time.Now()

	e.writeLock.Lock()
	b, err := e.addBlockLocked(candidate)
	e.writeLock.Unlock()

	x.RecordLatency(ctx, start, err)
	if err != nil {
		return nil, err
	}
	stats.Record(ctx, x.NumBlocksAppended.M(1), x.ChainHeight.M(int64(b.Height)))
	return b.Copy(), nil
}

// AddBody appends a new block carrying body.
func (e *Engine) AddBody(ctx context.Context, body string) (*types.Block, error) {
	return e.AddBlock(ctx, types.NewBlock(body))
}

func (e *Engine) addBlockLocked(candidate *types.Block) (*types.Block, error) {
	length, err := e.store.Len()
	if err != nil {
		return nil, errors.Wrapf(err, "while reading ledger length")
	}

	b := &types.Block{
		Height: length,
		Body:   candidate.Body,
		Time:   e.opt.Now().Unix(),
	}
	if length > 0 {
		prev, err := e.readBlock(length - 1)
		if err != nil {
			return nil, errors.Wrapf(err, "while reading previous block")
		}
		b.PreviousBlockHash = prev.Hash
	}
	b.Seal()

	record := b.Marshal()
	if err := e.store.Put(b.Height, record); err != nil {
		return nil, errors.Wrapf(err, "while appending block")
	}
	e.cacheBlock(record, b)
	glog.V(1).Infof("Appended block %d hash: %s prev: %s", b.Height, b.Hash, b.PreviousBlockHash)
	return b, nil
}

// GetBlockHeight returns the height of the last block, -1 if the ledger is empty.
func (e *Engine) GetBlockHeight(ctx context.Context) (int64, error) {
	length, err := e.store.Len()
	if err != nil {
		return 0, errors.Wrapf(err, "while reading ledger length")
	}
	return int64(length) - 1, nil
}

// GetBlock returns the block stored at height. It fails with
// ledger.ErrNotFound if there is none and types.ErrDecode if the stored
// record is malformed.
//
// The record is always read from the store. The cache only saves decoding
// a record that has not changed since it was cached, so a record rewritten
// behind the engine is seen on the next call.
func (e *Engine) GetBlock(ctx context.Context, height uint64) (*types.Block, error) {
	record, err := e.store.Get(height)
	if err != nil {
		return nil, err
	}
	if e.cache != nil {
		if c, ok := e.cache.Get(height); ok && bytes.Equal(c.record, record) {
			return c.block.Copy(), nil
		}
	}
	b, err := decodeBlock(height, record)
	if err != nil {
		if e.cache != nil {
			e.cache.Del(height)
		}
		return nil, err
	}
	e.cacheBlock(record, b)
	return b, nil
}

func (e *Engine) cacheBlock(record []byte, b *types.Block) {
	if e.cache == nil {
		return
	}
	rec := make([]byte, len(record))
	copy(rec, record)
	e.cache.Set(b.Height, &cachedBlock{record: rec, block: b.Copy()}, 1)
}

// readBlock always goes to the store.
func (e *Engine) readBlock(height uint64) (*types.Block, error) {
	record, err := e.store.Get(height)
	if err != nil {
		return nil, err
	}
	return decodeBlock(height, record)
}

func decodeBlock(height uint64, record []byte) (*types.Block, error) {
	b, err := types.Unmarshal(record)
	if err != nil {
		return nil, errors.Wrapf(err, "height %d", height)
	}
	return b, nil
}
