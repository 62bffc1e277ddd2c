/*
 * SPDX-FileCopyrightText: © Hypermode Inc. <hello@hypermode.com>
 * SPDX-License-Identifier: Apache-2.0
 */

// Package common holds what every hashchain subcommand needs to get at the
// ledger.
package common

import (
	"context"

	"github.com/golang/glog"
	"github.com/spf13/viper"

	"github.com/sakyalin/udacity-BDND-private-blockchain/audit"
	"github.com/sakyalin/udacity-BDND-private-blockchain/chain"
	"github.com/sakyalin/udacity-BDND-private-blockchain/x"
)

// EnvPrefix is the prefix of the environment variables read by all
// subcommands, e.g. HASHCHAIN_DIR.
const EnvPrefix = "HASHCHAIN"

// Ledger is an open chain engine plus its audit event log.
type Ledger struct {
	*chain.Engine
	Events *audit.Logger
}

// Open opens the ledger configured in conf and makes sure it has a genesis
// block.
func Open(ctx context.Context, conf *viper.Viper) (*Ledger, error) {
	e, err := chain.Open(conf.GetString(x.LedgerDirFlag),
		conf.GetString(x.BadgerFlag), conf.GetString(x.ChainFlag))
	if err != nil {
		return nil, err
	}
	l, err := Wrap(ctx, e, conf.GetString(x.AuditFlag))
	if err != nil {
		x.Ignore(e.Close())
		return nil, err
	}
	return l, nil
}

// Wrap attaches the audit log described by auditFlag to e and creates the
// genesis block if the ledger is empty.
func Wrap(ctx context.Context, e *chain.Engine, auditFlag string) (*Ledger, error) {
	a, err := audit.NewFromFlag(auditFlag)
	if err != nil {
		return nil, err
	}
	if a != nil {
		e.SetReporter(a)
	}
	if _, err := e.CreateGenesisBlock(ctx); err != nil {
		a.Close()
		return nil, err
	}
	return &Ledger{Engine: e, Events: a}, nil
}

// Close flushes the audit log and closes the ledger.
func (l *Ledger) Close() {
	l.Events.Close()
	if err := l.Engine.Close(); err != nil {
		glog.Errorf("Error while closing ledger: %v", err)
	}
}
