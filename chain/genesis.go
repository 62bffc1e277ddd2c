/*
 * SPDX-FileCopyrightText: © Hypermode Inc. <hello@hypermode.com>
 * SPDX-License-Identifier: Apache-2.0
 */

package chain

import (
	"context"
	"time"

	"github.com/golang/glog"
	"github.com/pkg/errors"
	"go.opencensus.io/stats"

	"github.com/sakyalin/udacity-BDND-private-blockchain/types"
	"github.com/sakyalin/udacity-BDND-private-blockchain/x"
)

// CreateGenesisBlock appends the genesis block if the ledger is empty and
// returns it. On a non-empty ledger it does nothing and returns nil.
// It must complete before any other engine method is used.
func (e *Engine) CreateGenesisBlock(ctx context.Context) (*types.Block, error) {
	ctx = x.WithMethod(ctx, "CreateGenesisBlock")
	start := time.Now()

	e.writeLock.Lock()
	defer e.writeLock.Unlock()

	length, err := e.store.Len()
	if err != nil {
		x.RecordLatency(ctx, start, err)
		return nil, errors.Wrapf(err, "while reading ledger length")
	}
	if length > 0 {
		glog.V(2).Infof("Ledger has %d blocks, not creating genesis block", length)
		x.RecordLatency(ctx, start, nil)
		return nil, nil
	}

	b, err := e.addBlockLocked(types.NewBlock(e.opt.GenesisBody))
	x.RecordLatency(ctx, start, err)
	if err != nil {
		return nil, errors.Wrapf(err, "while creating genesis block")
	}
	stats.Record(ctx, x.NumBlocksAppended.M(1), x.ChainHeight.M(0))
	glog.Infof("Created genesis block %s", b.Hash)
	return b.Copy(), nil
}
