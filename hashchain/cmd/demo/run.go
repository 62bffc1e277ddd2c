/*
 * SPDX-FileCopyrightText: © Hypermode Inc. <hello@hypermode.com>
 * SPDX-License-Identifier: Apache-2.0
 */

package demo

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/sakyalin/udacity-BDND-private-blockchain/chain"
	"github.com/sakyalin/udacity-BDND-private-blockchain/hashchain/cmd/common"
	"github.com/sakyalin/udacity-BDND-private-blockchain/ledger"
	"github.com/sakyalin/udacity-BDND-private-blockchain/types"
	"github.com/sakyalin/udacity-BDND-private-blockchain/x"
)

// Demo is the sub-command invoked when running "hashchain demo".
var Demo x.SubCommand

func init() {
	Demo.Cmd = &cobra.Command{
		Use:   "demo",
		Short: "Build a three block chain, break a link and validate it",
		Long: `Demo appends "a" and "b" after the genesis block, prints the chain and
validates it, then clears the previousBlockHash of block 2 directly in the
ledger and validates again. With --in_memory=false the ledger in --dir must
not hold anything but the genesis block.`,
		Args: cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			if err := run(context.Background(), Demo.Conf, cmd.OutOrStdout()); err != nil {
				fmt.Fprintln(os.Stderr, err)
				os.Exit(1)
			}
		},
		Annotations: map[string]string{"group": "default"},
	}
	Demo.EnvPrefix = common.EnvPrefix
	Demo.Cmd.SetHelpTemplate(x.NonRootTemplate)
	Demo.Cmd.Flags().Bool("in_memory", true,
		"Run against a throwaway in-memory ledger instead of --dir.")
}

func run(ctx context.Context, conf *viper.Viper, out io.Writer) error {
	var l *common.Ledger
	if conf.GetBool("in_memory") {
		store, err := ledger.NewInMemory()
		if err != nil {
			return err
		}
		defer func() {
			x.Ignore(store.Close())
		}()
		e, err := chain.New(store, chain.OptionsFromFlag(conf.GetString(x.ChainFlag)))
		if err != nil {
			return err
		}
		if l, err = common.Wrap(ctx, e, conf.GetString(x.AuditFlag)); err != nil {
			return err
		}
	} else {
		var err error
		if l, err = common.Open(ctx, conf); err != nil {
			return err
		}
	}
	defer l.Close()
	return demo(ctx, l, out)
}

func demo(ctx context.Context, l *common.Ledger, out io.Writer) error {
	// The demo tampers with block 2, which must be its own block.
	h, err := l.GetBlockHeight(ctx)
	if err != nil {
		return err
	}
	if h > 0 {
		return errors.Errorf("demo needs a ledger holding only the genesis block, found %d blocks",
			h+1)
	}

	for _, body := range []string{"a", "b"} {
		if _, err := l.AddBody(ctx, body); err != nil {
			return err
		}
	}
	h, err = l.GetBlockHeight(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintln(out, h+1)

	enc := json.NewEncoder(out)
	for i := uint64(0); i <= 2; i++ {
		b, err := l.GetBlock(ctx, i)
		if err != nil {
			return err
		}
		if err := enc.Encode(b); err != nil {
			return err
		}
	}

	fmt.Fprintln(out, "---- validateChain ----")
	if err := validate(ctx, l, out); err != nil {
		return err
	}

	fmt.Fprintln(out, "---- remove previousBlockHash of block 2 ----")
	store := l.Store()
	record, err := store.Get(2)
	if err != nil {
		return err
	}
	b, err := types.Unmarshal(record)
	if err != nil {
		return err
	}
	b.PreviousBlockHash = ""
	if err := enc.Encode(b); err != nil {
		return err
	}
	if err := store.Put(2, b.Marshal()); err != nil {
		return err
	}

	fmt.Fprintln(out, "---- validateChain again ----")
	return validate(ctx, l, out)
}

func validate(ctx context.Context, l *common.Ledger, out io.Writer) error {
	r, err := l.Audit(ctx)
	if err != nil {
		return err
	}
	l.Events.AuditChain(r)
	if r.OK() {
		fmt.Fprintln(out, "No errors detected")
		return nil
	}
	fmt.Fprintf(out, "Block errors = %d\n", len(r.Heights()))
	fmt.Fprintf(out, "Blocks: %v\n", r.Heights())
	return nil
}
