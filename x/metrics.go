/*
 * SPDX-FileCopyrightText: © Hypermode Inc. <hello@hypermode.com>
 * SPDX-License-Identifier: Apache-2.0
 */

package x

import (
	"context"
	"net/http"
	"sync"
	"time"

	"contrib.go.opencensus.io/exporter/prometheus"
	"github.com/golang/glog"
	"github.com/pkg/errors"
	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.opencensus.io/stats"
	"go.opencensus.io/stats/view"
	"go.opencensus.io/tag"
)

var (
	// Cumulative metrics.
	NumBlocksAppended = stats.Int64("num_blocks_appended_total",
		"Total number of blocks appended to the ledger", stats.UnitDimensionless)
	NumViolations = stats.Int64("num_integrity_violations_total",
		"Total number of integrity violations found by audits", stats.UnitDimensionless)
	NumAudits = stats.Int64("num_audits_total",
		"Total number of full chain audits", stats.UnitDimensionless)
	LatencyMs = stats.Float64("latency",
		"Latency of the chain engine methods", stats.UnitMilliseconds)

	// Point-in-time metrics.
	ChainHeight = stats.Int64("chain_height",
		"Height of the most recently appended block", stats.UnitDimensionless)

	// Tag keys here
	KeyStatus = tag.MustNewKey("status")
	KeyMethod = tag.MustNewKey("method")
	KeyKind   = tag.MustNewKey("kind")

	// Tag values here
	TagValueStatusOK    = "ok"
	TagValueStatusError = "error"

	defaultLatencyMsDistribution = view.Distribution(
		0, 0.01, 0.05, 0.1, 0.3, 0.6, 0.8, 1, 2, 3, 4, 5, 6, 8, 10, 13, 16,
		20, 25, 30, 40, 50, 65, 80, 100, 130, 160, 200, 250, 300, 400, 500,
		650, 800, 1000, 2000, 5000, 10000, 20000, 50000, 100000)

	allTagKeys = []tag.Key{
		KeyStatus, KeyMethod,
	}

	allViews = []*view.View{
		{
			Name:        LatencyMs.Name(),
			Measure:     LatencyMs,
			Description: LatencyMs.Description(),
			Aggregation: defaultLatencyMsDistribution,
			TagKeys:     allTagKeys,
		},
		{
			Name:        NumBlocksAppended.Name(),
			Measure:     NumBlocksAppended,
			Description: NumBlocksAppended.Description(),
			Aggregation: view.Count(),
			TagKeys:     allTagKeys,
		},
		{
			Name:        NumViolations.Name(),
			Measure:     NumViolations,
			Description: NumViolations.Description(),
			Aggregation: view.Sum(),
			TagKeys:     []tag.Key{KeyKind},
		},
		{
			Name:        NumAudits.Name(),
			Measure:     NumAudits,
			Description: NumAudits.Description(),
			Aggregation: view.Count(),
			TagKeys:     allTagKeys,
		},

		// Last value aggregations
		{
			Name:        ChainHeight.Name(),
			Measure:     ChainHeight,
			Description: ChainHeight.Description(),
			Aggregation: view.LastValue(),
		},
	}

	registerOnce sync.Once
	registerErr  error
)

// RegisterViews registers all hashchain views with opencensus. It is safe to
// call more than once.
func RegisterViews() error {
	registerOnce.Do(func() {
		registerErr = view.Register(allViews...)
	})
	return registerErr
}

// PrometheusHandler registers the views and returns an http.Handler that
// exposes them, along with Go runtime and process metrics, in the prometheus
// text format.
func PrometheusHandler() (http.Handler, error) {
	if err := RegisterViews(); err != nil {
		return nil, errors.Wrapf(err, "while registering views")
	}
	reg := prom.NewRegistry()
	if err := reg.Register(collectors.NewGoCollector()); err != nil {
		return nil, errors.Wrapf(err, "while registering go collector")
	}
	if err := reg.Register(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{})); err != nil {
		return nil, errors.Wrapf(err, "while registering process collector")
	}
	pe, err := prometheus.NewExporter(prometheus.Options{
		Namespace: "hashchain",
		Registry:  reg,
		OnError:   func(err error) { glog.Errorf("%v", err) },
	})
	if err != nil {
		return nil, errors.Wrapf(err, "failed to create OpenCensus Prometheus exporter")
	}
	return pe, nil
}

// WithMethod returns a new updated context with the tag KeyMethod set to the given value.
func WithMethod(parent context.Context, method string) context.Context {
	ctx, err := tag.New(parent, tag.Upsert(KeyMethod, method))
	if err != nil {
		return parent
	}
	return ctx
}

// RecordLatency records the time since start against LatencyMs, tagged with
// the status derived from err.
func RecordLatency(ctx context.Context, start time.Time, err error) {
	status := TagValueStatusOK
	if err != nil {
		status = TagValueStatusError
	}
	ctx, terr := tag.New(ctx, tag.Upsert(KeyStatus, status))
	if terr != nil {
		return
	}
	stats.Record(ctx, LatencyMs.M(SinceMs(start)))
}

// SinceMs returns the time since startTime in milliseconds (as a float).
func SinceMs(startTime time.Time) float64 {
	return float64(time.Since(startTime)) / 1e6
}
