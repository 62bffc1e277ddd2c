/*
 * SPDX-FileCopyrightText: © Hypermode Inc. <hello@hypermode.com>
 * SPDX-License-Identifier: Apache-2.0
 */

// Package audit writes integrity violations and audit summaries as JSON
// events, apart from the glog output.
package audit

import (
	"os"

	"github.com/dgraph-io/ristretto/v2/z"
	"github.com/golang/glog"
	"github.com/google/uuid"
	"go.uber.org/zap/zapcore"

	"github.com/sakyalin/udacity-BDND-private-blockchain/chain"
	"github.com/sakyalin/udacity-BDND-private-blockchain/x"
)

const (
	// AuditDefaults are the default values of the --audit superflag. An empty
	// output disables audit events.
	AuditDefaults = "output=;"

	EventViolation = "violation"
	EventAudit     = "audit"
)

// Logger emits audit events. It implements chain.Reporter. A nil *Logger
// drops every event.
type Logger struct {
	log  *x.Logger
	host string

	// session tells apart events of different processes sharing an output.
	session string
}

var _ chain.Reporter = (*Logger)(nil)

// New returns a logger writing to output: "stdout", a file path, or "" for
// no logger at all.
func New(output string) (*Logger, error) {
	if output == "" {
		return nil, nil
	}
	l, err := x.InitLogger(output)
	if err != nil {
		return nil, err
	}
	glog.Infof("audit events are written to %s", output)
	return newLogger(l), nil
}

// NewFromFlag builds a logger from an --audit superflag string.
func NewFromFlag(flag string) (*Logger, error) {
	sf := z.NewSuperFlag(flag).MergeAndCheckDefault(AuditDefaults)
	out := sf.GetString("output")
	if out != "" && out != "stdout" && out != "stderr" {
		out = sf.GetPath("output")
	}
	return New(out)
}

// NewWithCore returns a logger writing to core.
func NewWithCore(core zapcore.Core) *Logger {
	return newLogger(x.NewLogger(core))
}

func newLogger(l *x.Logger) *Logger {
	host, err := os.Hostname()
	if err != nil {
		host = "unknown"
	}
	return &Logger{log: l, host: host, session: uuid.NewString()}
}

// Violation logs one failed integrity check.
func (a *Logger) Violation(v chain.Violation) {
	if a == nil {
		return
	}
	a.log.AuditW(EventViolation,
		"level", "AUDIT",
		"server", a.host,
		"session", a.session,
		"height", v.Height,
		"kind", v.Kind.String(),
		"want", v.Want,
		"got", v.Got,
		"reason", v.Reason)
}

// AuditChain logs the summary of a full audit.
func (a *Logger) AuditChain(r *chain.Report) {
	if a == nil || r == nil {
		return
	}
	status := "OK"
	if !r.OK() {
		status = "FAILED"
	}
	a.log.AuditI(EventAudit,
		"level", "AUDIT",
		"server", a.host,
		"session", a.session,
		"length", r.Length,
		"violations", len(r.Violations),
		"heights", r.Heights(),
		"duration_ms", r.Duration.Milliseconds(),
		"status", status)
}

// Sync flushes buffered events.
func (a *Logger) Sync() {
	if a == nil {
		return
	}
	a.log.Sync()
}

// Close flushes events and closes the output file.
func (a *Logger) Close() {
	if a == nil {
		return
	}
	a.log.Close()
}
