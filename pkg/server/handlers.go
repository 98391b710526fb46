package server

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/matzehuels/mindweave/pkg/branch"
	"github.com/matzehuels/mindweave/pkg/buildinfo"
	"github.com/matzehuels/mindweave/pkg/errors"
	"github.com/matzehuels/mindweave/pkg/layout"
	"github.com/matzehuels/mindweave/pkg/mindmap"
	"github.com/matzehuels/mindweave/pkg/render/nodelink"
)

type healthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
	Nodes   int    `json:"nodes"`
}

type nodeResponse struct {
	Node     mindmap.Node    `json:"node"`
	Depth    int             `json:"depth"`
	Branches []branch.Branch `json:"branches"`
}

type searchResponse struct {
	Query   string         `json:"query"`
	Results []mindmap.Node `json:"results"`
}

type pathResponse struct {
	From  string   `json:"from"`
	To    string   `json:"to"`
	Found bool     `json:"found"`
	Path  []string `json:"path"`
}

type layoutResponse struct {
	Algorithm string           `json:"algorithm"`
	Positions layout.Positions `json:"positions"`
}

type errorBody struct {
	Code    errors.Code `json:"code"`
	Message string      `json:"message"`
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, healthResponse{Status: "ok", Version: buildinfo.Get().Version, Nodes: s.engine.Len()})
}

func (s *Server) getMap(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, s.engine.Snapshot())
}

func (s *Server) getNode(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	n, ok := s.engine.Node(id)
	if !ok {
		s.respondError(w, errors.NotFound("node", id))
		return
	}
	s.respondJSON(w, http.StatusOK, nodeResponse{
		Node:     n,
		Depth:    s.engine.Depth(id),
		Branches: nonNil(s.engine.BranchesFor(id)),
	})
}

func (s *Server) search(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	if q == "" {
		s.respondError(w, errors.New(errors.ErrCodeInvalidInput, "missing query parameter q"))
		return
	}
	s.respondJSON(w, http.StatusOK, searchResponse{Query: q, Results: nonNil(s.engine.Search(q))})
}

func (s *Server) path(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	from, to := query.Get("from"), query.Get("to")
	if from == "" || to == "" {
		s.respondError(w, errors.New(errors.ErrCodeInvalidInput, "from and to are required"))
		return
	}
	maxDepth := 0
	if v := query.Get("max_depth"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			s.respondError(w, errors.New(errors.ErrCodeInvalidInput, "max_depth must be a non-negative integer"))
			return
		}
		maxDepth = n
	}
	path, err := s.engine.FindPath(from, to, maxDepth)
	if err != nil {
		s.respondError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, pathResponse{From: from, To: to, Found: path != nil, Path: nonNil(path)})
}

func (s *Server) getLayout(w http.ResponseWriter, r *http.Request) {
	alg := s.alg
	if name := r.URL.Query().Get("algorithm"); name != "" {
		parsed, err := layout.ParseAlgorithm(name)
		if err != nil {
			s.respondError(w, err)
			return
		}
		alg = parsed
	}
	pos, err := s.engine.ComputeLayout(r.Context(), alg, s.layout)
	if err != nil {
		s.respondError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, layoutResponse{Algorithm: string(alg), Positions: pos})
}

var contentTypes = map[nodelink.Format]string{
	nodelink.FormatDOT: "text/vnd.graphviz; charset=utf-8",
	nodelink.FormatSVG: "image/svg+xml",
	nodelink.FormatPNG: "image/png",
}

func (s *Server) export(format nodelink.Format) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		detailed, _ := strconv.ParseBool(r.URL.Query().Get("detailed"))
		exp, err := nodelink.NewExporter(format, nodelink.Options{Detailed: detailed})
		if err != nil {
			s.respondError(w, err)
			return
		}
		data, err := s.engine.Export(r.Context(), exp)
		if err != nil {
			s.respondError(w, err)
			return
		}
		w.Header().Set("Content-Type", contentTypes[format])
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(data)
	}
}

func (s *Server) sessionLog(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, nonNil(s.engine.Log()))
}

func (s *Server) sessionUsers(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, nonNil(s.engine.Session().Users()))
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.logger.Error("encode response", "err", err)
	}
}

func (s *Server) respondError(w http.ResponseWriter, err error) {
	status := statusFor(err)
	code := errors.GetCode(err)
	if code == "" {
		code = errors.ErrCodeInternal
	}
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", "err", err)
	}
	s.respondJSON(w, status, map[string]errorBody{
		"error": {Code: code, Message: errors.UserMessage(err)},
	})
}

// statusFor maps error codes to HTTP status codes.
func statusFor(err error) int {
	switch errors.GetCode(err) {
	case errors.ErrCodeNotFound:
		return http.StatusNotFound
	case errors.ErrCodeInvalidInput, errors.ErrCodeInvalidConfig, errors.ErrCodeUnsupported:
		return http.StatusBadRequest
	case errors.ErrCodeConflict:
		return http.StatusConflict
	case errors.ErrCodeCycle, errors.ErrCodeInvalidOperation:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

// nonNil keeps empty lists encoding as [] rather than null.
func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
