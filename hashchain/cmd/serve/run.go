/*
 * SPDX-FileCopyrightText: © Hypermode Inc. <hello@hypermode.com>
 * SPDX-License-Identifier: Apache-2.0
 */

package serve

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/golang/glog"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/sakyalin/udacity-BDND-private-blockchain/hashchain/cmd/common"
	"github.com/sakyalin/udacity-BDND-private-blockchain/x"
)

// Serve is the sub-command invoked when running "hashchain serve".
var Serve x.SubCommand

func init() {
	Serve.Cmd = &cobra.Command{
		Use:   "serve",
		Short: "Serve the chain over HTTP",
		Long: `Serve exposes the chain over HTTP:

  POST /blocks            append a block, the request body is its payload
  GET  /blocks/{height}   the block at height
  GET  /height            the height of the last block
  GET  /validate          a full audit of the chain

Metrics are served at /debug/prometheus_metrics.`,
		Args: cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			defer x.StartProfile(Serve.Conf).Stop()
			if err := run(Serve.Conf); err != nil {
				glog.Errorf("%v", err)
				os.Exit(1)
			}
		},
		Annotations: map[string]string{"group": "default"},
	}
	Serve.EnvPrefix = common.EnvPrefix
	Serve.Cmd.SetHelpTemplate(x.NonRootTemplate)

	flag := Serve.Cmd.Flags()
	flag.String("addr", "localhost:8000", "Address to listen on.")
	flag.Int64("max_body", 1<<20, "Maximum size in bytes of a block payload.")
	flag.Duration("shutdown_timeout", 10*time.Second,
		"Time allowed for in-flight requests to finish on shutdown.")
}

func run(conf *viper.Viper) error {
	ctx := context.Background()
	l, err := common.Open(ctx, conf)
	if err != nil {
		return err
	}
	defer l.Close()

	handler, err := newHandler(l, conf.GetInt64("max_body"))
	if err != nil {
		return err
	}
	srv := &http.Server{
		Addr:              conf.GetString("addr"),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	sdCh := make(chan os.Signal, 1)
	signal.Notify(sdCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sdCh)

	errCh := make(chan error, 1)
	go func() {
		glog.Infof("Serving chain at %s on http://%s", conf.GetString(x.LedgerDirFlag), srv.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != http.ErrServerClosed {
			return err
		}
		return nil
	case sig := <-sdCh:
		glog.Infof("Received %v, shutting down", sig)
	}

	sctx, cancel := context.WithTimeout(ctx, conf.GetDuration("shutdown_timeout"))
	defer cancel()
	if err := srv.Shutdown(sctx); err != nil {
		return errors.Wrapf(err, "while shutting down HTTP server")
	}
	return nil
}
