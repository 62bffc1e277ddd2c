/*
 * SPDX-FileCopyrightText: © Hypermode Inc. <hello@hypermode.com>
 * SPDX-License-Identifier: Apache-2.0
 */

package x

import (
	"encoding/binary"

	"github.com/pkg/errors"
)

const (
	// ByteBlock is the prefix of every block record key. Keys are laid out as
	// prefix | big-endian height, so iteration order equals height order.
	ByteBlock = byte(0x01)

	heightKeyLen = 1 + 8
)

// HeightKey returns the store key of the block at the given height.
func HeightKey(height uint64) []byte {
	buf := make([]byte, heightKeyLen)
	buf[0] = ByteBlock
	binary.BigEndian.PutUint64(buf[1:], height)
	return buf
}

// BlockPrefix returns the prefix shared by all block keys.
func BlockPrefix() []byte {
	return []byte{ByteBlock}
}

// ParseHeightKey returns the height encoded in key.
func ParseHeightKey(key []byte) (uint64, error) {
	if len(key) != heightKeyLen || key[0] != ByteBlock {
		return 0, errors.Errorf("invalid block key: %x", key)
	}
	return binary.BigEndian.Uint64(key[1:]), nil
}
