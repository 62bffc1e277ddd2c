/*
 * SPDX-FileCopyrightText: © Hypermode Inc. <hello@hypermode.com>
 * SPDX-License-Identifier: Apache-2.0
 */

package x

import (
	"fmt"
	"io"
	"runtime"
)

var (
	// These variables are set using -ldflags
	hashchainVersion string
	gitBranch        string
	lastCommitSHA    string
	lastCommitTime   string
)

// BuildDetails returns a string containing details about the hashchain binary.
func BuildDetails() string {
	return fmt.Sprintf(`
hashchain version : %v
Commit SHA-1      : %v
Commit timestamp  : %v
Branch            : %v
Go version        : %v

`,
		Version(), lastCommitSHA, lastCommitTime, gitBranch, runtime.Version())
}

// PrintVersion writes version and other helpful information to w.
func PrintVersion(w io.Writer) {
	Check2(fmt.Fprint(w, BuildDetails()))
}

// Version returns a string containing the hashchain version.
func Version() string {
	if hashchainVersion == "" {
		return "dev"
	}
	return hashchainVersion
}
