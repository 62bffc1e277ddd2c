/*
 * SPDX-FileCopyrightText: © Hypermode Inc. <hello@hypermode.com>
 * SPDX-License-Identifier: Apache-2.0
 */

package validate

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

// Validate is the sub-command invoked when running "hashchain validate".
var Validate x.SubCommand

func init() {
	Validate.Cmd = &cobra.Command{
		Use:   "validate",
		Short: "Check the integrity of the chain",
		Long: `Validate recomputes the hash of every block and checks that each block links
to its predecessor. With --height only that block's own hash is checked.
The exit status is 1 if anything is wrong.`,
		Args: cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			defer x.StartProfile(Validate.Conf).Stop()
			ok, err := run(context.Background(), Validate.Conf, cmd.OutOrStdout())
			if err != nil {
				fmt.Fprintln(os.Stderr, err)
				os.Exit(1)
			}
			if !ok {
				os.Exit(1)
			}
		},
		Annotations: map[string]string{"group": "default"},
	}
	Validate.EnvPrefix = common.EnvPrefix
	Validate.Cmd.SetHelpTemplate(x.NonRootTemplate)
	Validate.Cmd.Flags().Int64("height", -1, "Only validate the block at this height.")
}

func run(ctx context.Context, conf *viper.Viper, out io.Writer) (bool, error) {
	l, err := common.Open(ctx, conf)
	if err != nil {
		return false, err
	}
	defer l.Close()

	if h := conf.GetInt64("height"); h >= 0 {
		ok, err := l.ValidateBlock(ctx, uint64(h))
		if err != nil {
			return false, err
		}
		if ok {
			fmt.Fprintf(out, "Block #%d is valid\n", h)
		} else {
			fmt.Fprintf(out, "Block #%d is invalid\n", h)
		}
		return ok, nil
	}

	r, err := l.Audit(ctx)
	if err != nil {
		return false, err
	}
	l.Events.AuditChain(r)
	if r.OK() {
		fmt.Fprintln(out, "No errors detected")
		return true, nil
	}
	fmt.Fprintf(out, "Block errors = %d\n", len(r.Heights()))
	fmt.Fprintf(out, "Blocks: %v\n", r.Heights())
	for _, v := range r.Violations {
		fmt.Fprintln(out, v)
	}
	return false, nil
}
