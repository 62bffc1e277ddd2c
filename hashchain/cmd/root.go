/*
 * SPDX-FileCopyrightText: © Hypermode Inc. <hello@hypermode.com>
 * SPDX-License-Identifier: Apache-2.0
 */

package cmd

import (
	goflag "flag"
	"fmt"
	"os"

	"github.com/dgraph-io/ristretto/v2/z"
	"github.com/spf13/cobra"
	flag "github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/sakyalin/udacity-BDND-private-blockchain/audit"
	"github.com/sakyalin/udacity-BDND-private-blockchain/chain"
	"github.com/sakyalin/udacity-BDND-private-blockchain/hashchain/cmd/add"
	"github.com/sakyalin/udacity-BDND-private-blockchain/hashchain/cmd/bench"
	"github.com/sakyalin/udacity-BDND-private-blockchain/hashchain/cmd/debug"
	"github.com/sakyalin/udacity-BDND-private-blockchain/hashchain/cmd/demo"
	"github.com/sakyalin/udacity-BDND-private-blockchain/hashchain/cmd/get"
	"github.com/sakyalin/udacity-BDND-private-blockchain/hashchain/cmd/height"
	"github.com/sakyalin/udacity-BDND-private-blockchain/hashchain/cmd/serve"
	"github.com/sakyalin/udacity-BDND-private-blockchain/hashchain/cmd/validate"
	"github.com/sakyalin/udacity-BDND-private-blockchain/hashchain/cmd/version"
	"github.com/sakyalin/udacity-BDND-private-blockchain/ledger"
	"github.com/sakyalin/udacity-BDND-private-blockchain/x"
)

// RootCmd represents the base command when called without any subcommands
var RootCmd = &cobra.Command{
	Use:   "hashchain",
	Short: "hashchain: a tamper-evident chain of blocks",
	Long: `
hashchain keeps an append-only chain of blocks in a local badger ledger. Every
block carries the SHA-256 hash of its own contents and the hash of the block
before it, so any later edit to a stored block is detected by validate.
` + x.BuildDetails(),
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	goflag.Parse()
	if err := RootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

var rootConf = viper.New()

var subcommands = []*x.SubCommand{
	&add.Add, &get.Get, &height.Height, &validate.Validate, &serve.Serve,
	&debug.Debug, &bench.Bench, &demo.Demo, &version.Version,
}

func init() {
	pflags := RootCmd.PersistentFlags()
	pflags.StringP(x.LedgerDirFlag, "d", "blockchaindata", "Directory of the block ledger.")
	pflags.String(x.BadgerFlag, ledger.BadgerDefaults, z.NewSuperFlagHelp(ledger.BadgerDefaults).
		Head("Badger options").
		Flag("compression",
			"[none, snappy, zstd] Compression of newly written block records. Records "+
				"written with another compression stay readable.").
		Flag("sync-writes",
			"Sync every append to disk before returning.").
		Flag("in-memory",
			"Keep the ledger in memory only. --dir is ignored.").
		Flag("numversions",
			"Number of versions badger keeps per key.").
		Flag("value-threshold",
			"Records larger than this many bytes go to the value log.").
		String())
	pflags.String(x.ChainFlag, chain.ChainDefaults, z.NewSuperFlagHelp(chain.ChainDefaults).
		Head("Chain options").
		Flag("genesis-body",
			"Body of the block created at height 0 of an empty ledger.").
		Flag("cache-blocks",
			"Number of decoded blocks kept in memory for reads. 0 disables the cache.").
		Flag("concurrency",
			"Maximum number of blocks checked at once by validate.").
		String())
	pflags.String(x.AuditFlag, audit.AuditDefaults, z.NewSuperFlagHelp(audit.AuditDefaults).
		Head("Audit options").
		Flag("output",
			`[stdout, /path/to/file] Where JSON audit events about integrity violations are
			written. Empty disables audit events.`).
		String())
	pflags.String("profile_mode", "",
		"Enable profiling mode, one of [cpu, mem, mutex, block]")
	pflags.Int("block_rate", 0,
		"Block profiling rate. Must be used along with block profile_mode")
	pflags.String("config", "",
		"Configuration file. Takes precedence over default values, but is "+
			"overridden to values set with environment variables and flags.")
	x.Check(rootConf.BindPFlags(pflags))

	flag.CommandLine.AddGoFlagSet(goflag.CommandLine)
	// Always set stderrthreshold=0. Don't let users set it themselves.
	x.Check(flag.Set("stderrthreshold", "0"))
	x.Check(flag.CommandLine.MarkDeprecated("stderrthreshold",
		"hashchain always sets this flag to 0. It can't be overwritten."))

	for _, sc := range subcommands {
		RootCmd.AddCommand(sc.Cmd)
		sc.Conf = viper.New()
		x.Checkf(sc.Conf.BindPFlags(sc.Cmd.Flags()), "while binding flags of %s", sc.Cmd.Name())
		x.Check(sc.Conf.BindPFlags(pflags))
		sc.Conf.AutomaticEnv()
		sc.Conf.SetEnvPrefix(sc.EnvPrefix)
	}
	cobra.OnInitialize(func() {
		cfg := rootConf.GetString("config")
		if cfg == "" {
			return
		}
		for _, sc := range subcommands {
			r, err := readConfig(cfg)
			x.CheckfNoTrace(err)
			sc.Conf.SetConfigType("yaml")
			x.Check(x.Wrapf(sc.Conf.ReadConfig(r), "reading config"))
		}
	})
}
