/*
 * SPDX-FileCopyrightText: © Hypermode Inc. <hello@hypermode.com>
 * SPDX-License-Identifier: Apache-2.0
 */

package cmd

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// readConfig reads a YAML or JSON config file and flattens every nested
// section into a superflag string, so that
//
//	badger:
//	  compression: zstd
//	  sync-writes: false
//
// becomes badger: "compression=zstd; sync-writes=false;".
func readConfig(path string) (io.Reader, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "reading config %q", path)
	}
	return convertConfig(data)
}

func convertConfig(data []byte) (io.Reader, error) {
	// JSON is a subset of YAML.
	var conf map[string]interface{}
	if err := yaml.Unmarshal(data, &conf); err != nil {
		return nil, errors.Wrapf(err, "parsing config")
	}
	for key, val := range conf {
		if section, ok := val.(map[string]interface{}); ok {
			conf[key] = flatten(section)
		}
	}
	out, err := yaml.Marshal(conf)
	if err != nil {
		return nil, err
	}
	return bytes.NewReader(out), nil
}

func flatten(section map[string]interface{}) string {
	keys := make([]string, 0, len(section))
	for k := range section {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var sb strings.Builder
	for i, k := range keys {
		if i > 0 {
			sb.WriteByte(' ')
		}
		fmt.Fprintf(&sb, "%s=%v;", k, section[k])
	}
	return sb.String()
}
