/*
 * SPDX-FileCopyrightText: © Hypermode Inc. <hello@hypermode.com>
 * SPDX-License-Identifier: Apache-2.0
 */

package version

import (
	"github.com/spf13/cobra"

	"github.com/sakyalin/udacity-BDND-private-blockchain/x"
)

// Version is the sub-command invoked when running "hashchain version".
var Version x.SubCommand

func init() {
	Version.Cmd = &cobra.Command{
		Use:   "version",
		Short: "Prints the hashchain version details",
		Long:  "Version prints the hashchain version as reported by the build details.",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			x.PrintVersion(cmd.OutOrStdout())
		},
		Annotations: map[string]string{"group": "default"},
	}
	Version.Cmd.SetHelpTemplate(x.NonRootTemplate)
}
