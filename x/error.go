/*
 * SPDX-FileCopyrightText: © Hypermode Inc. <hello@hypermode.com>
 * SPDX-License-Identifier: Apache-2.0
 */

package x

// This file contains the fatal-check helpers used by the hashchain binary.
// Library packages (types, ledger, chain) never call these: they return
// errors wrapped with errors.Wrapf and leave the decision to the caller.
//  (1) An error from an external lib that should stop the process: x.Check, x.Checkf,
//      x.Check2, or x.CheckfNoTrace for errors the user caused.
//  (2) An error that should carry context upwards: x.Wrapf or errors.Wrapf.
//  (3) A new error with a stack trace: errors.Errorf.

import (
	"log"

	"github.com/pkg/errors"
)

// Check logs fatal if err != nil.
func Check(err error) {
	if err != nil {
		log.Fatalf("%+v", errors.Wrap(err, ""))
	}
}

// Checkf is Check with extra info.
func Checkf(err error, format string, args ...interface{}) {
	if err != nil {
		log.Fatalf("%+v", errors.Wrapf(err, format, args...))
	}
}

// CheckfNoTrace is Checkf without a stack trace.
func CheckfNoTrace(err error) {
	if err != nil {
		log.Fatal(err.Error())
	}
}

// Check2 acts as convenience wrapper around Check, using the 2nd argument as error.
func Check2(_ interface{}, err error) {
	Check(err)
}

// Ignore is used to drop an error deliberately while keeping the linter happy.
func Ignore(_ error) {}

// Wrapf wraps err with a message. It returns nil if err is nil.
func Wrapf(err error, format string, args ...interface{}) error {
	return errors.Wrapf(err, format, args...)
}
