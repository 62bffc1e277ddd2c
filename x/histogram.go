/*
 * SPDX-FileCopyrightText: © Hypermode Inc. <hello@hypermode.com>
 * SPDX-License-Identifier: Apache-2.0
 */

package x

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/HdrHistogram/hdrhistogram-go"
)

// A Histogram collects latencies in microseconds. It is safe for concurrent
// use.
type Histogram struct {
	sync.Mutex
	hist   *hdrhistogram.Histogram
	maxVal int64
}

// NewHistogram tracks latencies up to maxVal with sigFigs significant digits.
func NewHistogram(maxVal time.Duration, sigFigs int) *Histogram {
	maxUs := maxVal.Microseconds()
	return &Histogram{
		hist:   hdrhistogram.New(1, maxUs, sigFigs),
		maxVal: maxUs,
	}
}

// Record adds d to the histogram. Durations above the maximum are recorded as
// the maximum.
func (h *Histogram) Record(d time.Duration) {
	h.Lock()
	defer h.Unlock()

	v := d.Microseconds()
	if v < 1 {
		v = 1
	}
	if h.hist.RecordValue(v) != nil {
		_ = h.hist.RecordValue(h.maxVal)
	}
}

// Count returns the number of recorded values.
func (h *Histogram) Count() int64 {
	h.Lock()
	defer h.Unlock()
	return h.hist.TotalCount()
}

// Quantile returns the latency at quantile q, in [0, 100].
func (h *Histogram) Quantile(q float64) time.Duration {
	h.Lock()
	defer h.Unlock()
	return time.Duration(h.hist.ValueAtQuantile(q)) * time.Microsecond
}

// Stats summarizes the histogram on one line.
func (h *Histogram) Stats() string {
	h.Lock()
	defer h.Unlock()

	var sb strings.Builder
	fmt.Fprintf(&sb, "n: %d mean: %v", h.hist.TotalCount(),
		time.Duration(h.hist.Mean())*time.Microsecond)
	for _, q := range []float64{50, 90, 99} {
		fmt.Fprintf(&sb, " p%.0f: %v", q,
			time.Duration(h.hist.ValueAtQuantile(q))*time.Microsecond)
	}
	fmt.Fprintf(&sb, " max: %v", time.Duration(h.hist.Max())*time.Microsecond)
	return sb.String()
}
