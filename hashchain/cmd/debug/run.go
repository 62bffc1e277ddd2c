/*
 * SPDX-FileCopyrightText: © Hypermode Inc. <hello@hypermode.com>
 * SPDX-License-Identifier: Apache-2.0
 */

package debug

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/pkg/errors"
	"github.com/spf13/cast"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/sakyalin/udacity-BDND-private-blockchain/hashchain/cmd/common"
	"github.com/sakyalin/udacity-BDND-private-blockchain/ledger"
	"github.com/sakyalin/udacity-BDND-private-blockchain/types"
	"github.com/sakyalin/udacity-BDND-private-blockchain/x"
)

// Debug is the sub-command invoked when running "hashchain debug".
var Debug x.SubCommand

var opt flagOptions

type flagOptions struct {
	height uint64
	field  string
	value  string
	reseal bool
}

func init() {
	Debug.Cmd = &cobra.Command{
		Use:         "debug",
		Short:       "Inspect or tamper with the raw ledger",
		Annotations: map[string]string{"group": "debug"},
	}
	Debug.EnvPrefix = common.EnvPrefix
	Debug.Cmd.SetHelpTemplate(x.NonRootTemplate)

	dump := &cobra.Command{
		Use:   "dump",
		Short: "Print every stored record in height order",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			exitOnErr(withStore(Debug.Conf, func(s *ledger.Badger) error {
				return dumpLedger(s, cmd.OutOrStdout())
			}))
		},
	}
	info := &cobra.Command{
		Use:   "info",
		Short: "Print ledger location, length and size",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			exitOnErr(withStore(Debug.Conf, func(s *ledger.Badger) error {
				return printInfo(s, cmd.OutOrStdout())
			}))
		},
	}
	corrupt := &cobra.Command{
		Use:   "corrupt",
		Short: "Overwrite one field of a stored block",
		Long: `Corrupt rewrites one field of the block stored at --height without going
through the chain engine. Unless --reseal is given the stored hash is left as it
was, so a later validate reports the block.`,
		Args: cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			exitOnErr(withStore(Debug.Conf, func(s *ledger.Badger) error {
				b, err := corruptBlock(s, opt)
				if err != nil {
					return err
				}
				return json.NewEncoder(cmd.OutOrStdout()).Encode(b)
			}))
		},
	}
	flag := corrupt.Flags()
	flag.Uint64Var(&opt.height, "height", 0, "Height of the block to overwrite.")
	flag.StringVar(&opt.field, "field", "previousBlockHash",
		"Field to overwrite, one of [body, time, previousBlockHash, hash].")
	flag.StringVar(&opt.value, "value", "", "New value of the field.")
	flag.BoolVar(&opt.reseal, "reseal", false, "Recompute the hash after the edit.")

	Debug.Cmd.AddCommand(dump, info, corrupt)
}

func exitOnErr(err error) {
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func withStore(conf *viper.Viper, fn func(s *ledger.Badger) error) error {
	s, err := ledger.OpenFromFlag(conf.GetString(x.LedgerDirFlag), conf.GetString(x.BadgerFlag))
	if err != nil {
		return err
	}
	defer func() {
		x.Ignore(s.Close())
	}()
	return fn(s)
}

func dumpLedger(s ledger.Store, out io.Writer) error {
	return s.Iterate(func(height uint64, record []byte) error {
		b, err := types.Unmarshal(record)
		if err != nil {
			fmt.Fprintf(out, "%6d  <unreadable: %v> %d bytes\n", height, err, len(record))
			return nil
		}
		fmt.Fprintf(out, "%6d  hash: %s prev: %s time: %d body: %q\n",
			height, b.Hash, b.PreviousBlockHash, b.Time, b.Body)
		return nil
	})
}

func printInfo(s *ledger.Badger, out io.Writer) error {
	n, err := s.Len()
	if err != nil {
		return err
	}
	lsm, vlog := s.Size()
	o := s.Options()
	fmt.Fprintf(out, "Ledger      : %s\n", s.Path())
	fmt.Fprintf(out, "Blocks      : %s\n", humanize.Comma(int64(n)))
	fmt.Fprintf(out, "Compression : %s\n", o.Compression)
	fmt.Fprintf(out, "LSM size    : %s\n", humanize.IBytes(uint64(lsm)))
	fmt.Fprintf(out, "Vlog size   : %s\n", humanize.IBytes(uint64(vlog)))
	return nil
}

func corruptBlock(s ledger.Store, o flagOptions) (*types.Block, error) {
	record, err := s.Get(o.height)
	if err != nil {
		return nil, err
	}
	b, err := types.Unmarshal(record)
	if err != nil {
		return nil, errors.Wrapf(err, "height %d", o.height)
	}

	switch o.field {
	case "body":
		b.Body = o.value
	case "time":
		t, err := cast.ToInt64E(o.value)
		if err != nil {
			return nil, errors.Wrapf(err, "invalid time %q", o.value)
		}
		b.Time = t
	case "previousBlockHash":
		b.PreviousBlockHash = o.value
	case "hash":
		b.Hash = o.value
	default:
		return nil, errors.Errorf("unknown block field %q", o.field)
	}
	if o.reseal {
		b.Seal()
	}
	if err := s.Put(o.height, b.Marshal()); err != nil {
		return nil, err
	}
	return b, nil
}
