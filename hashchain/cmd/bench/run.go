/*
 * SPDX-FileCopyrightText: © Hypermode Inc. <hello@hypermode.com>
 * SPDX-License-Identifier: Apache-2.0
 */

package bench

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/sync/errgroup"

	"github.com/sakyalin/udacity-BDND-private-blockchain/hashchain/cmd/common"
	"github.com/sakyalin/udacity-BDND-private-blockchain/x"
)

// Bench is the sub-command invoked when running "hashchain bench".
var Bench x.SubCommand

func init() {
	Bench.Cmd = &cobra.Command{
		Use:   "bench",
		Short: "Measure append and audit latency",
		Long: `Bench appends --n blocks of --body_size bytes from --writers goroutines,
prints append latency percentiles and then times a full audit of the chain.`,
		Args: cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			defer x.StartProfile(Bench.Conf).Stop()
			if err := run(context.Background(), Bench.Conf, cmd.OutOrStdout()); err != nil {
				fmt.Fprintln(os.Stderr, err)
				os.Exit(1)
			}
		},
		Annotations: map[string]string{"group": "tool"},
	}
	Bench.EnvPrefix = common.EnvPrefix
	Bench.Cmd.SetHelpTemplate(x.NonRootTemplate)

	flag := Bench.Cmd.Flags()
	flag.Int("n", 1000, "Number of blocks to append.")
	flag.Int("body_size", 64, "Size in bytes of every block body.")
	flag.Int("writers", 1, "Number of goroutines appending concurrently.")
}

type result struct {
	appends  *x.Histogram
	elapsed  time.Duration
	audit    time.Duration
	length   uint64
	failures int
}

func run(ctx context.Context, conf *viper.Viper, out io.Writer) error {
	l, err := common.Open(ctx, conf)
	if err != nil {
		return err
	}
	defer l.Close()

	res, err := bench(ctx, l, conf.GetInt("n"), conf.GetInt("body_size"), conf.GetInt("writers"))
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "Appended %s blocks in %v (%s blocks/s)\n",
		humanize.Comma(res.appends.Count()), res.elapsed.Round(time.Millisecond),
		humanize.Commaf(float64(res.appends.Count())/res.elapsed.Seconds()))
	fmt.Fprintf(out, "Append latency: %s\n", res.appends.Stats())
	fmt.Fprintf(out, "Audit of %s blocks took %v, %d blocks failed\n",
		humanize.Comma(int64(res.length)), res.audit.Round(time.Millisecond), res.failures)
	return nil
}

func bench(ctx context.Context, l *common.Ledger, n, bodySize, writers int) (*result, error) {
	if writers < 1 {
		writers = 1
	}
	body := strings.Repeat("x", bodySize)
	res := &result{appends: x.NewHistogram(time.Minute, 3)}

	start := time.Now()
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(writers)
	for i := 0; i < n; i++ {
		g.Go(func() error {
			t := time.Now()
			if _, err := l.AddBody(gctx, body); err != nil {
				return err
			}
			res.appends.Record(time.Since(t))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	res.elapsed = time.Since(start)

	r, err := l.Audit(ctx)
	if err != nil {
		return nil, err
	}
	l.Events.AuditChain(r)
	res.audit = r.Duration
	res.length = r.Length
	res.failures = len(r.Heights())
	return res, nil
}
