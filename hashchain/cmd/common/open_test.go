/*
 * SPDX-FileCopyrightText: © Hypermode Inc. <hello@hypermode.com>
 * SPDX-License-Identifier: Apache-2.0
 */

package common

import (
	"bufio"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/require"

	"github.com/sakyalin/udacity-BDND-private-blockchain/chain"
	"github.com/sakyalin/udacity-BDND-private-blockchain/types"
)

func TestOpenCreatesGenesis(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	conf := viper.New()
	conf.Set("dir", dir)
	conf.Set("chain", "genesis-body=hello;")

	l, err := Open(ctx, conf)
	require.NoError(t, err)
	g, err := l.GetBlock(ctx, 0)
	require.NoError(t, err)
	require.Equal(t, "hello", g.Body)
	require.Nil(t, l.Events)
	l.Close()

	// A second open keeps the existing genesis block.
	conf.Set("chain", "genesis-body=other;")
	l, err = Open(ctx, conf)
	require.NoError(t, err)
	defer l.Close()
	h, err := l.GetBlockHeight(ctx)
	require.NoError(t, err)
	require.Equal(t, int64(0), h)
	g2, err := l.GetBlock(ctx, 0)
	require.NoError(t, err)
	require.Equal(t, g, g2)
}

func TestOpenWithAuditLog(t *testing.T) {
	ctx := context.Background()
	auditPath := filepath.Join(t.TempDir(), "audit.log")
	conf := viper.New()
	conf.Set("badger", "in-memory=true;")
	conf.Set("audit", "output="+auditPath+";")

	l, err := Open(ctx, conf)
	require.NoError(t, err)
	require.NotNil(t, l.Events)

	store := l.Store()
	record, err := store.Get(0)
	require.NoError(t, err)
	b, err := types.Unmarshal(record)
	require.NoError(t, err)
	b.Body = "tampered"
	require.NoError(t, store.Put(0, b.Marshal()))

	ok, err := l.ValidateBlock(ctx, 0)
	require.NoError(t, err)
	require.False(t, ok)
	l.Close()

	f, err := os.Open(auditPath)
	require.NoError(t, err)
	defer f.Close()
	sc := bufio.NewScanner(f)
	require.True(t, sc.Scan())
	require.Contains(t, sc.Text(), `"kind":"`+chain.SelfHash.String()+`"`)
}

func TestOpenRequiresDir(t *testing.T) {
	_, err := Open(context.Background(), viper.New())
	require.Error(t, err)
}
