/*
 * SPDX-FileCopyrightText: © Hypermode Inc. <hello@hypermode.com>
 * SPDX-License-Identifier: Apache-2.0
 */

package types

import (
	"github.com/pkg/errors"
	"google.golang.org/protobuf/encoding/protowire"
)

// Field numbers of the canonical encoding. The order is fixed: the hash
// preimage depends on it.
const (
	fieldHeight            protowire.Number = 1
	fieldBody              protowire.Number = 2
	fieldTime              protowire.Number = 3
	fieldPreviousBlockHash protowire.Number = 4
	fieldHash              protowire.Number = 5

	numFields = 5
)

// ErrDecode is returned when stored bytes do not parse into a block.
var ErrDecode = errors.New("malformed block record")

// Marshal returns the canonical encoding of b. Every field is written, empty
// or not, in field-number order, using protobuf wire primitives.
func (b *Block) Marshal() []byte {
	buf := make([]byte, 0, 32+len(b.Body)+len(b.PreviousBlockHash)+len(b.Hash))
	buf = protowire.AppendTag(buf, fieldHeight, protowire.VarintType)
	buf = protowire.AppendVarint(buf, b.Height)
	buf = protowire.AppendTag(buf, fieldBody, protowire.BytesType)
	buf = protowire.AppendString(buf, b.Body)
	buf = protowire.AppendTag(buf, fieldTime, protowire.VarintType)
	buf = protowire.AppendVarint(buf, protowire.EncodeZigZag(b.Time))
	buf = protowire.AppendTag(buf, fieldPreviousBlockHash, protowire.BytesType)
	buf = protowire.AppendString(buf, b.PreviousBlockHash)
	buf = protowire.AppendTag(buf, fieldHash, protowire.BytesType)
	buf = protowire.AppendString(buf, b.Hash)
	return buf
}

// Unmarshal decodes data produced by Marshal. Fields must appear exactly
// once each, in order, with the expected wire types. Anything else is
// reported as ErrDecode.
func Unmarshal(data []byte) (*Block, error) {
	var b Block
	for want := protowire.Number(1); want <= numFields; want++ {
		num, typ, n := protowire.ConsumeTag(data)
		if n < 0 {
			return nil, errors.Wrapf(ErrDecode, "field %d: %v", want, protowire.ParseError(n))
		}
		if num != want {
			return nil, errors.Wrapf(ErrDecode, "got field %d, want field %d", num, want)
		}
		data = data[n:]

		switch num {
		case fieldHeight, fieldTime:
			if typ != protowire.VarintType {
				return nil, errors.Wrapf(ErrDecode, "field %d: unexpected wire type %d", num, typ)
			}
			v, n := protowire.ConsumeVarint(data)
			if n < 0 {
				return nil, errors.Wrapf(ErrDecode, "field %d: %v", num, protowire.ParseError(n))
			}
			data = data[n:]
			if num == fieldHeight {
				b.Height = v
			} else {
				b.Time = protowire.DecodeZigZag(v)
			}
		default:
			if typ != protowire.BytesType {
				return nil, errors.Wrapf(ErrDecode, "field %d: unexpected wire type %d", num, typ)
			}
			v, n := protowire.ConsumeString(data)
			if n < 0 {
				return nil, errors.Wrapf(ErrDecode, "field %d: %v", num, protowire.ParseError(n))
			}
			data = data[n:]
			switch num {
			case fieldBody:
				b.Body = v
			case fieldPreviousBlockHash:
				b.PreviousBlockHash = v
			case fieldHash:
				b.Hash = v
			}
		}
	}
	if len(data) != 0 {
		return nil, errors.Wrapf(ErrDecode, "%d trailing bytes", len(data))
	}
	return &b, nil
}
