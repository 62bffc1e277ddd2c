/*
 * SPDX-FileCopyrightText: © Hypermode Inc. <hello@hypermode.com>
 * SPDX-License-Identifier: Apache-2.0
 */

package main

import (
	"github.com/sakyalin/udacity-BDND-private-blockchain/hashchain/cmd"
)

func main() {
	cmd.Execute()
}
