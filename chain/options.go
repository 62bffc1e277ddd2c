/*
 * SPDX-FileCopyrightText: © Hypermode Inc. <hello@hypermode.com>
 * SPDX-License-Identifier: Apache-2.0
 */

package chain

import (
	"time"

	"github.com/dgraph-io/ristretto/v2/z"
)

// DefaultGenesisBody is the payload of the block created at height 0.
const DefaultGenesisBody = "First block in the chain - Genesis block"

// ChainDefaults are the default values of the --chain superflag.
const ChainDefaults = "genesis-body=" + DefaultGenesisBody + "; cache-blocks=1024; concurrency=16;"

// Options configures an Engine.
type Options struct {
	// GenesisBody is the payload of the genesis block. Empty means DefaultGenesisBody.
	GenesisBody string
	// CacheBlocks is the number of decoded blocks GetBlock keeps in memory.
	// Zero disables the cache. Audits never read from the cache.
	CacheBlocks int64
	// Concurrency bounds the number of per-height checks an audit runs at once.
	Concurrency int
	// Now is the clock used to timestamp new blocks.
	Now func() time.Time
	// Reporter, if set, receives every integrity violation found by
	// ValidateBlock and Audit.
	Reporter Reporter
}

// DefaultOptions returns the options described by ChainDefaults.
func DefaultOptions() Options {
	return OptionsFromFlag("")
}

// OptionsFromFlag builds Options from a --chain superflag string.
func OptionsFromFlag(flag string) Options {
	sf := z.NewSuperFlag(flag).MergeAndCheckDefault(ChainDefaults)
	return Options{
		GenesisBody: sf.GetString("genesis-body"),
		CacheBlocks: sf.GetInt64("cache-blocks"),
		Concurrency: int(sf.GetInt64("concurrency")),
	}
}

func (opt *Options) fillDefaults() {
	if opt.GenesisBody == "" {
		opt.GenesisBody = DefaultGenesisBody
	}
	if opt.Concurrency <= 0 {
		opt.Concurrency = 16
	}
	if opt.CacheBlocks < 0 {
		opt.CacheBlocks = 0
	}
	if opt.Now == nil {
		opt.Now = time.Now
	}
}
