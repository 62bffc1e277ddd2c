/*
 * SPDX-FileCopyrightText: © Hypermode Inc. <hello@hypermode.com>
 * SPDX-License-Identifier: Apache-2.0
 */

package ledger

import (
	"fmt"

	"github.com/golang/snappy"
	"github.com/klauspost/compress/zstd"
	"github.com/pkg/errors"

	"github.com/sakyalin/udacity-BDND-private-blockchain/types"
)

// Compression selects how record values are compressed before they reach
// badger. Every stored value starts with a one byte tag naming its
// compression, so a ledger stays readable when the setting changes.
type Compression byte

const (
	CompressionNone   Compression = 0
	CompressionSnappy Compression = 1
	CompressionZSTD   Compression = 2
)

func (c Compression) String() string {
	switch c {
	case CompressionNone:
		return "none"
	case CompressionSnappy:
		return "snappy"
	case CompressionZSTD:
		return "zstd"
	default:
		return fmt.Sprintf("unknown(%d)", byte(c))
	}
}

// ParseCompression parses the value of the compression option.
func ParseCompression(s string) (Compression, error) {
	switch s {
	case "", "none":
		return CompressionNone, nil
	case "snappy":
		return CompressionSnappy, nil
	case "zstd":
		return CompressionZSTD, nil
	}
	return CompressionNone, errors.Errorf("invalid compression %q, must be one of [none, snappy, zstd]", s)
}

// valueCodec is safe for concurrent use. zstd encoders and decoders support
// concurrent EncodeAll/DecodeAll calls.
type valueCodec struct {
	compression Compression
	zenc        *zstd.Encoder
	zdec        *zstd.Decoder
}

func newValueCodec(c Compression) (*valueCodec, error) {
	zenc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return nil, errors.Wrapf(err, "while creating zstd encoder")
	}
	zdec, err := zstd.NewReader(nil)
	if err != nil {
		return nil, errors.Wrapf(err, "while creating zstd decoder")
	}
	return &valueCodec{compression: c, zenc: zenc, zdec: zdec}, nil
}

func (vc *valueCodec) encode(record []byte) []byte {
	out := []byte{byte(vc.compression)}
	switch vc.compression {
	case CompressionSnappy:
		return append(out, snappy.Encode(nil, record)...)
	case CompressionZSTD:
		return vc.zenc.EncodeAll(record, out)
	default:
		return append(out, record...)
	}
}

func (vc *valueCodec) decode(val []byte) ([]byte, error) {
	if len(val) == 0 {
		return nil, errors.Wrapf(types.ErrDecode, "empty value")
	}
	switch c := Compression(val[0]); c {
	case CompressionNone:
		return append([]byte(nil), val[1:]...), nil
	case CompressionSnappy:
		out, err := snappy.Decode(nil, val[1:])
		if err != nil {
			return nil, errors.Wrapf(types.ErrDecode, "snappy: %v", err)
		}
		return out, nil
	case CompressionZSTD:
		out, err := vc.zdec.DecodeAll(val[1:], nil)
		if err != nil {
			return nil, errors.Wrapf(types.ErrDecode, "zstd: %v", err)
		}
		return out, nil
	default:
		return nil, errors.Wrapf(types.ErrDecode, "value compression %s", c)
	}
}

func (vc *valueCodec) close() {
	vc.zdec.Close()
	_ = vc.zenc.Close()
}
