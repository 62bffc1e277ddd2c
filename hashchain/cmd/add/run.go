/*
 * SPDX-FileCopyrightText: © Hypermode Inc. <hello@hypermode.com>
 * SPDX-License-Identifier: Apache-2.0
 */

package add

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/sakyalin/udacity-BDND-private-blockchain/hashchain/cmd/common"
	"github.com/sakyalin/udacity-BDND-private-blockchain/x"
)

// Add is the sub-command invoked when running "hashchain add".
var Add x.SubCommand

func init() {
	Add.Cmd = &cobra.Command{
		Use:   "add BODY...",
		Short: "Append blocks to the chain",
		Long: `Add appends one block per argument, creating the genesis block first if the
ledger is empty. Every appended block is printed as JSON.`,
		Args: cobra.MinimumNArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			defer x.StartProfile(Add.Conf).Stop()
			if err := run(context.Background(), Add.Conf, cmd.OutOrStdout(), args); err != nil {
				fmt.Fprintln(os.Stderr, err)
				os.Exit(1)
			}
		},
		Annotations: map[string]string{"group": "default"},
	}
	Add.EnvPrefix = common.EnvPrefix
	Add.Cmd.SetHelpTemplate(x.NonRootTemplate)
}

func run(ctx context.Context, conf *viper.Viper, out io.Writer, bodies []string) error {
	l, err := common.Open(ctx, conf)
	if err != nil {
		return err
	}
	defer l.Close()

	enc := json.NewEncoder(out)
	for _, body := range bodies {
		b, err := l.AddBody(ctx, body)
		if err != nil {
			return err
		}
		if err := enc.Encode(b); err != nil {
			return err
		}
	}
	return nil
}
