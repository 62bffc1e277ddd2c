/*
 * SPDX-FileCopyrightText: © Hypermode Inc. <hello@hypermode.com>
 * SPDX-License-Identifier: Apache-2.0
 */

// Package ledger maps block heights to serialized block records on top of a
// durable key-value store.
package ledger

import (
	"github.com/pkg/errors"
)

var (
	// ErrStoreUnavailable is returned when the underlying store cannot be
	// read (i/o failure, corruption, closed handle).
	ErrStoreUnavailable = errors.New("ledger store unavailable")
	// ErrNotFound is returned when no record exists at the requested height.
	ErrNotFound = errors.New("block not found")
	// ErrWriteFailed is returned when a record could not be written.
	ErrWriteFailed = errors.New("block write failed")
)

// Store is the ledger as seen by the chain engine. Implementations must
// allow concurrent reads. Writes are serialized by the caller.
type Store interface {
	// Get returns the record stored at height, or ErrNotFound.
	Get(height uint64) ([]byte, error)
	// Put writes record at height, overwriting any existing record.
	Put(height uint64, record []byte) error
	// Len counts the stored records. It scans the whole ledger.
	Len() (uint64, error)
	// Iterate calls fn for every record in ascending height order. Iteration
	// stops at the first error returned by fn, which is passed through.
	Iterate(fn func(height uint64, record []byte) error) error
	// Close releases the store. Every later call fails with ErrStoreUnavailable.
	Close() error
}
