/*
 * SPDX-FileCopyrightText: © Hypermode Inc. <hello@hypermode.com>
 * SPDX-License-Identifier: Apache-2.0
 */

package serve

import (
	"net/http"
	"strings"

	"github.com/golang/glog"
	"github.com/pkg/errors"
	"github.com/spf13/cast"

	"github.com/sakyalin/udacity-BDND-private-blockchain/chain"
	"github.com/sakyalin/udacity-BDND-private-blockchain/hashchain/cmd/common"
	"github.com/sakyalin/udacity-BDND-private-blockchain/ledger"
	"github.com/sakyalin/udacity-BDND-private-blockchain/types"
	"github.com/sakyalin/udacity-BDND-private-blockchain/x"
)

type server struct {
	ledger  *common.Ledger
	maxBody int64
}

type heightResponse struct {
	Height int64 `json:"height"`
}

type validateResponse struct {
	OK      bool          `json:"ok"`
	Heights []uint64      `json:"heights"`
	Report  *chain.Report `json:"report"`
}

func newHandler(l *common.Ledger, maxBody int64) (http.Handler, error) {
	pe, err := x.PrometheusHandler()
	if err != nil {
		return nil, err
	}
	s := &server{ledger: l, maxBody: maxBody}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /blocks", s.addBlockHandler)
	mux.HandleFunc("GET /blocks/{height}", s.getBlockHandler)
	mux.HandleFunc("GET /height", s.heightHandler)
	mux.HandleFunc("GET /validate", s.validateHandler)
	mux.HandleFunc("/blocks", allowOnly(http.MethodPost))
	mux.HandleFunc("/blocks/{height}", allowOnly(http.MethodGet, http.MethodHead))
	mux.HandleFunc("/height", allowOnly(http.MethodGet, http.MethodHead))
	mux.HandleFunc("/validate", allowOnly(http.MethodGet, http.MethodHead))
	mux.Handle("/debug/prometheus_metrics", pe)
	return mux, nil
}

// allowOnly answers requests that matched a route by path but not by method.
func allowOnly(methods ...string) http.HandlerFunc {
	allow := strings.Join(methods, ", ")
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Allow", allow)
		x.SetStatus(w, http.StatusMethodNotAllowed, x.ErrorInvalidMethod,
			"Invalid method "+r.Method+", expected one of "+allow)
	}
}

// setError maps engine errors to HTTP statuses.
func setError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ledger.ErrNotFound):
		x.SetStatus(w, http.StatusNotFound, x.ErrorNotFound, err.Error())
	case errors.Is(err, ledger.ErrStoreUnavailable):
		x.SetStatus(w, http.StatusServiceUnavailable, x.ErrorUnavailable, err.Error())
	default:
		glog.Errorf("Error while serving request: %v", err)
		x.SetStatus(w, http.StatusInternalServerError, x.Error, err.Error())
	}
}

func (s *server) addBlockHandler(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()
	body, err := x.ReadRequest(r, s.maxBody)
	if err != nil {
		x.SetStatus(w, http.StatusBadRequest, x.ErrorInvalidRequest, err.Error())
		return
	}
	if len(body) == 0 {
		x.SetStatus(w, http.StatusBadRequest, x.ErrorInvalidRequest, "empty block body")
		return
	}

	b, err := s.ledger.AddBlock(r.Context(), types.NewBlock(string(body)))
	if err != nil {
		setError(w, err)
		return
	}
	x.Reply(w, r, http.StatusCreated, b)
}

func (s *server) getBlockHandler(w http.ResponseWriter, r *http.Request) {
	height, err := cast.ToUint64E(r.PathValue("height"))
	if err != nil {
		x.SetStatus(w, http.StatusBadRequest, x.ErrorInvalidRequest,
			"invalid height "+r.PathValue("height"))
		return
	}
	b, err := s.ledger.GetBlock(r.Context(), height)
	if err != nil {
		setError(w, err)
		return
	}
	x.Reply(w, r, http.StatusOK, b)
}

func (s *server) heightHandler(w http.ResponseWriter, r *http.Request) {
	h, err := s.ledger.GetBlockHeight(r.Context())
	if err != nil {
		setError(w, err)
		return
	}
	x.Reply(w, r, http.StatusOK, heightResponse{Height: h})
}

func (s *server) validateHandler(w http.ResponseWriter, r *http.Request) {
	rep, err := s.ledger.Audit(r.Context())
	if err != nil {
		setError(w, err)
		return
	}
	s.ledger.Events.AuditChain(rep)
	x.Reply(w, r, http.StatusOK, validateResponse{
		OK:      rep.OK(),
		Heights: rep.Heights(),
		Report:  rep,
	})
}
