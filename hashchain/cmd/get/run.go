/*
 * SPDX-FileCopyrightText: © Hypermode Inc. <hello@hypermode.com>
 * SPDX-License-Identifier: Apache-2.0
 */

package get

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/pkg/errors"
	"github.com/spf13/cast"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/term"

	"github.com/sakyalin/udacity-BDND-private-blockchain/hashchain/cmd/common"
	"github.com/sakyalin/udacity-BDND-private-blockchain/x"
)

// Get is the sub-command invoked when running "hashchain get".
var Get x.SubCommand

func init() {
	Get.Cmd = &cobra.Command{
		Use:   "get HEIGHT...",
		Short: "Print blocks by height",
		Args:  cobra.MinimumNArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			defer x.StartProfile(Get.Conf).Stop()
			if err := run(context.Background(), Get.Conf, cmd.OutOrStdout(), args); err != nil {
				fmt.Fprintln(os.Stderr, err)
				os.Exit(1)
			}
		},
		Annotations: map[string]string{"group": "default"},
	}
	Get.EnvPrefix = common.EnvPrefix
	Get.Cmd.SetHelpTemplate(x.NonRootTemplate)
	Get.Cmd.Flags().Bool("indent", term.IsTerminal(int(os.Stdout.Fd())),
		"Indent the printed JSON. Defaults to true when writing to a terminal.")
}

func run(ctx context.Context, conf *viper.Viper, out io.Writer, args []string) error {
	heights := make([]uint64, 0, len(args))
	for _, arg := range args {
		h, err := cast.ToUint64E(arg)
		if err != nil {
			return errors.Wrapf(err, "invalid height %q", arg)
		}
		heights = append(heights, h)
	}

	l, err := common.Open(ctx, conf)
	if err != nil {
		return err
	}
	defer l.Close()

	enc := json.NewEncoder(out)
	if conf.GetBool("indent") {
		enc.SetIndent("", "  ")
	}
	for _, h := range heights {
		b, err := l.GetBlock(ctx, h)
		if err != nil {
			return err
		}
		if err := enc.Encode(b); err != nil {
			return err
		}
	}
	return nil
}
