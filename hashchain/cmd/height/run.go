/*
 * SPDX-FileCopyrightText: © Hypermode Inc. <hello@hypermode.com>
 * SPDX-License-Identifier: Apache-2.0
 */

package height

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/sakyalin/udacity-BDND-private-blockchain/hashchain/cmd/common"
	"github.com/sakyalin/udacity-BDND-private-blockchain/x"
)

// Height is the sub-command invoked when running "hashchain height".
var Height x.SubCommand

func init() {
	Height.Cmd = &cobra.Command{
		Use:   "height",
		Short: "Print the height of the last block",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			if err := run(context.Background(), Height.Conf, cmd.OutOrStdout()); err != nil {
				fmt.Fprintln(os.Stderr, err)
				os.Exit(1)
			}
		},
		Annotations: map[string]string{"group": "default"},
	}
	Height.EnvPrefix = common.EnvPrefix
	Height.Cmd.SetHelpTemplate(x.NonRootTemplate)
}

func run(ctx context.Context, conf *viper.Viper, out io.Writer) error {
	l, err := common.Open(ctx, conf)
	if err != nil {
		return err
	}
	defer l.Close()

	h, err := l.GetBlockHeight(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintln(out, h)
	return nil
}
