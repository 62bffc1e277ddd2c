/*
 * SPDX-FileCopyrightText: © Hypermode Inc. <hello@hypermode.com>
 * SPDX-License-Identifier: Apache-2.0
 */

// Package types holds the block record stored at each height of the ledger,
// its canonical encoding and its hashing rule.
package types

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Block is the record stored at one height.
//
// A block is created with only Body set. The chain engine then fills Height,
// Time, PreviousBlockHash and finally Hash, in that order.
type Block struct {
	Height            uint64 `json:"height"`
	Body              string `json:"body"`
	Time              int64  `json:"time"`
	PreviousBlockHash string `json:"previousBlockHash"`
	Hash              string `json:"hash"`
}

// NewBlock returns a candidate block carrying body.
func NewBlock(body string) *Block {
	return &Block{Body: body}
}

// IsGenesis reports whether b sits at height 0.
func (b *Block) IsGenesis() bool {
	return b.Height == 0
}

// ComputeHash returns the digest of the canonical encoding of b with the
// Hash field treated as empty. b itself is not modified.
func (b *Block) ComputeHash() string {
	unsealed := *b
	unsealed.Hash = ""
	return HashBytes(unsealed.Marshal())
}

// Seal sets Hash from the current values of all other fields.
func (b *Block) Seal() {
	b.Hash = b.ComputeHash()
}

// Copy returns a deep copy of b.
func (b *Block) Copy() *Block {
	if b == nil {
		return nil
	}
	cp := *b
	return &cp
}

func (b *Block) String() string {
	return fmt.Sprintf("Block{height: %d, time: %d, body: %q, prev: %s, hash: %s}",
		b.Height, b.Time, b.Body, short(b.PreviousBlockHash), short(b.Hash))
}

// HashBytes returns the lowercase hex SHA-256 digest of data.
func HashBytes(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

func short(hash string) string {
	if len(hash) > 12 {
		return hash[:12]
	}
	return hash
}
