/*
 * SPDX-FileCopyrightText: © Hypermode Inc. <hello@hypermode.com>
 * SPDX-License-Identifier: Apache-2.0
 */

package x

import (
	"github.com/pkg/errors"
	"github.com/spf13/cast"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// InitLogger returns a JSON logger appending to output, which is "stdout",
// "stderr" or a file path.
func InitLogger(output string) (*Logger, error) {
	if output == "" {
		return nil, errors.New("logger output is not provided")
	}
	ws, closeOut, err := zap.Open(output)
	if err != nil {
		return nil, errors.Wrapf(err, "while opening log output %q", output)
	}
	core := zapcore.NewCore(zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig()),
		ws, zap.DebugLevel)
	l := NewLogger(core)
	l.closeOut = closeOut
	return l, nil
}

// NewLogger returns a logger writing to core.
func NewLogger(core zapcore.Core) *Logger {
	return &Logger{logger: zap.New(core)}
}

// Logger writes structured events. A nil *Logger discards them.
type Logger struct {
	logger   *zap.Logger
	closeOut func()
}

func fields(args []interface{}) []zap.Field {
	flds := make([]zap.Field, 0, len(args)/2)
	for i := 0; i+1 < len(args); i += 2 {
		flds = append(flds, zap.Any(cast.ToString(args[i]), args[i+1]))
	}
	return flds
}

// AuditI logs msg at info level with alternating key, value args.
func (l *Logger) AuditI(msg string, args ...interface{}) {
	if l == nil {
		return
	}
	l.logger.Info(msg, fields(args)...)
}

// AuditW logs msg at warn level with alternating key, value args.
func (l *Logger) AuditW(msg string, args ...interface{}) {
	if l == nil {
		return
	}
	l.logger.Warn(msg, fields(args)...)
}

func (l *Logger) Sync() {
	if l == nil {
		return
	}
	_ = l.logger.Sync()
}

// Close flushes the logger and closes its output file, if any.
func (l *Logger) Close() {
	if l == nil {
		return
	}
	l.Sync()
	if l.closeOut != nil {
		l.closeOut()
	}
}
