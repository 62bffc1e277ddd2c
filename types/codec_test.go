/*
 * SPDX-FileCopyrightText: © Hypermode Inc. <hello@hypermode.com>
 * SPDX-License-Identifier: Apache-2.0
 */

package types

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/encoding/protowire"
)

func sampleBlock() *Block {
	b := &Block{
		Height:            7,
		Body:              "hello, ledger",
		Time:              1546300800,
		PreviousBlockHash: HashBytes([]byte("previous")),
	}
	b.Seal()
	return b
}

func TestRoundTrip(t *testing.T) {
	blocks := []*Block{
		{},
		{Height: 0, Body: "First block in the chain - Genesis block", Time: 1546300800},
		{Height: 1, Body: "", Time: -5, PreviousBlockHash: "abc"},
		{Height: 1 << 62, Body: string([]byte{0, 1, 2, 0xff}), Time: 1 << 40},
		sampleBlock(),
	}
	for _, b := range blocks {
		got, err := Unmarshal(b.Marshal())
		require.NoError(t, err)
		if diff := cmp.Diff(b, got); diff != "" {
			t.Fatalf("round trip mismatch (-want +got):\n%s", diff)
		}
	}
}

func TestMarshalIsDeterministic(t *testing.T) {
	b := sampleBlock()
	require.Equal(t, b.Marshal(), b.Copy().Marshal())
	require.Equal(t, b.Marshal(), sampleBlock().Marshal())
}

func TestHashExcludesItself(t *testing.T) {
	b := sampleBlock()
	sealed := b.Hash
	require.Len(t, sealed, 64)

	b.Hash = "something else entirely"
	require.Equal(t, sealed, b.ComputeHash())
	require.Equal(t, "something else entirely", b.Hash, "ComputeHash must not modify the block")
}

func TestHashChangesWithEveryField(t *testing.T) {
	base := sampleBlock()
	mutations := map[string]func(b *Block){
		"height": func(b *Block) { b.Height++ },
		"body":   func(b *Block) { b.Body += "!" },
		"time":   func(b *Block) { b.Time++ },
		"prev":   func(b *Block) { b.PreviousBlockHash = "" },
	}
	for name, mutate := range mutations {
		t.Run(name, func(t *testing.T) {
			b := base.Copy()
			mutate(b)
			require.NotEqual(t, base.Hash, b.ComputeHash())
		})
	}
}

func TestHashBytes(t *testing.T) {
	// sha256("")
	require.Equal(t,
		"e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855",
		HashBytes(nil))
	require.Equal(t, HashBytes([]byte("a")), HashBytes([]byte("a")))
}

func TestUnmarshalErrors(t *testing.T) {
	valid := sampleBlock().Marshal()

	reordered := protowire.AppendTag(nil, fieldBody, protowire.BytesType)
	reordered = protowire.AppendString(reordered, "x")
	reordered = append(reordered, valid...)

	wrongType := protowire.AppendTag(nil, fieldHeight, protowire.BytesType)
	wrongType = protowire.AppendString(wrongType, "7")

	cases := map[string][]byte{
		"empty":      {},
		"truncated":  valid[:len(valid)-3],
		"trailing":   append(append([]byte{}, valid...), 0x01),
		"reordered":  reordered,
		"wrong type": wrongType,
		"json":       []byte(`{"hash":"","height":0,"body":"a","time":"1","previousBlockHash":""}`),
	}
	for name, data := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Unmarshal(data)
			require.Error(t, err)
			require.True(t, errors.Is(err, ErrDecode), "got %v", err)
		})
	}
}
