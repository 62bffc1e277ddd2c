/*
 * SPDX-FileCopyrightText: © Hypermode Inc. <hello@hypermode.com>
 * SPDX-License-Identifier: Apache-2.0
 */

package x

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// SubCommand couples a cobra command with the viper instance that holds its
// resolved configuration (flags, environment, config file).
type SubCommand struct {
	Cmd  *cobra.Command
	Conf *viper.Viper

	EnvPrefix string
}

const (
	// LedgerDirFlag names the persistent flag holding the ledger directory.
	LedgerDirFlag = "dir"
	// BadgerFlag names the superflag with badger options.
	BadgerFlag = "badger"
	// ChainFlag names the superflag with chain engine options.
	ChainFlag = "chain"
	// AuditFlag names the superflag with audit log options.
	AuditFlag = "audit"
)

// NonRootTemplate is the help template used by all subcommands.
const NonRootTemplate = `{{if .Long}}{{.Long | trimTrailingWhitespaces}}

{{end}}Usage:{{if .Runnable}}
  {{.UseLine}}{{end}}{{if .HasAvailableSubCommands}}
  {{.CommandPath}} [command]{{end}}{{if .HasAvailableSubCommands}}

Available Commands:{{range .Commands}}{{if (or .IsAvailableCommand (eq .Name "help"))}}
  {{rpad .Name .NamePadding }} {{.Short}}{{end}}{{end}}{{end}}{{if .HasAvailableLocalFlags}}

Flags:
{{.LocalFlags.FlagUsages | trimTrailingWhitespaces}}{{end}}{{if .HasAvailableInheritedFlags}}

Global Flags:
{{.InheritedFlags.FlagUsages | trimTrailingWhitespaces}}{{end}}{{if .HasAvailableSubCommands}}

Use "{{.CommandPath}} [command] --help" for more information about a command.{{end}}
`
