/*
 * SPDX-FileCopyrightText: © Hypermode Inc. <hello@hypermode.com>
 * SPDX-License-Identifier: Apache-2.0
 */

package x

import (
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"github.com/golang/glog"
	"github.com/klauspost/compress/gzip"
	"github.com/pkg/errors"
)

// Error codes returned in the "code" field of a failed HTTP response.
const (
	Error               = "Error"
	ErrorInvalidMethod  = "ErrorInvalidMethod"
	ErrorInvalidRequest = "ErrorInvalidRequest"
	ErrorNotFound       = "ErrorNotFound"
	ErrorUnavailable    = "ErrorUnavailable"
)

// Status is the body of a failed HTTP response.
type Status struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// SetStatus writes status with a JSON Status body.
func SetStatus(w http.ResponseWriter, status int, code, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(&Status{Code: code, Message: msg}); err != nil {
		glog.Errorf("Unable to write status %q: %v", code, err)
	}
}

// Reply writes rep as JSON with the given status, gzip compressed when the
// client accepts it.
func Reply(w http.ResponseWriter, r *http.Request, status int, rep interface{}) {
	js, err := json.Marshal(rep)
	if err != nil {
		SetStatus(w, http.StatusInternalServerError, Error, "Internal server error")
		return
	}
	w.Header().Set("Content-Type", "application/json")

	var out io.Writer = w
	if strings.Contains(r.Header.Get("Accept-Encoding"), "gzip") {
		w.Header().Set("Content-Encoding", "gzip")
		gzw := gzip.NewWriter(w)
		defer gzw.Close()
		out = gzw
	}
	w.WriteHeader(status)
	if _, err := out.Write(js); err != nil {
		glog.V(2).Infof("Unable to write response: %v", err)
	}
}

// ReadRequest reads at most limit bytes of the request body, decompressing it
// if it was sent with Content-Encoding: gzip.
func ReadRequest(r *http.Request, limit int64) ([]byte, error) {
	var in io.Reader = r.Body
	switch enc := r.Header.Get("Content-Encoding"); enc {
	case "", "identity":
	case "gzip":
		gz, err := gzip.NewReader(r.Body)
		if err != nil {
			return nil, errors.Wrapf(err, "unable to create decompressor")
		}
		defer gz.Close()
		in = gz
	default:
		return nil, errors.Errorf("unsupported content encoding %q", enc)
	}

	body, err := io.ReadAll(io.LimitReader(in, limit+1))
	if err != nil {
		return nil, err
	}
	if int64(len(body)) > limit {
		return nil, errors.Errorf("request body is larger than %d bytes", limit)
	}
	return body, nil
}
