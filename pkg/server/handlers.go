package server

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	errs "github.com/matzehuels/deptree/pkg/errors"
	"github.com/matzehuels/deptree/pkg/expand"
	"github.com/matzehuels/deptree/pkg/graph"
	"github.com/matzehuels/deptree/pkg/pipeline"
)

type errorResponse struct {
	Code    errs.Code `json:"code"`
	Error   string    `json:"error"`
	Partial string    `json:"partial,omitempty"`
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	io.WriteString(w, "ok\n")
}

func (s *Server) handleExpand(w http.ResponseWriter, r *http.Request) {
	g, ok := s.readGraph(w, r, "format")
	if !ok {
		return
	}

	q := r.URL.Query()
	opts := pipeline.Options{
		Roots:  q["root"],
		Logger: s.logger.With("id", RequestID(r.Context())),
	}
	var err error
	if opts.MaxNodes, err = intParam(q.Get("max_nodes")); err != nil {
		s.writeError(w, http.StatusBadRequest, errs.Wrap(errs.ErrCodeInvalidInput, err, "max_nodes"), "")
		return
	}
	if opts.MaxNodes == 0 || opts.MaxNodes > s.maxNodes {
		opts.MaxNodes = s.maxNodes
	}
	if opts.Duplicates, err = boolParam(q.Get("duplicates")); err != nil {
		s.writeError(w, http.StatusBadRequest, errs.Wrap(errs.ErrCodeInvalidInput, err, "duplicates"), "")
		return
	}
	if opts.Strict, err = boolParam(q.Get("strict")); err != nil {
		s.writeError(w, http.StatusBadRequest, errs.Wrap(errs.ErrCodeInvalidInput, err, "strict"), "")
		return
	}

	var out bytes.Buffer
	if _, err := s.runner.Expand(r.Context(), &out, g, opts); err != nil {
		switch {
		case errs.Is(err, errs.ErrCodeInvalidInput):
			s.writeError(w, http.StatusBadRequest, err, "")
		case expand.IsCoreError(err) || errors.Is(err, expand.ErrNodeLimit):
			s.writeError(w, http.StatusUnprocessableEntity, err, out.String())
		default:
			s.writeError(w, http.StatusInternalServerError, err, "")
		}
		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("Content-Length", strconv.Itoa(out.Len()))
	w.Write(out.Bytes())
}

func (s *Server) handleDOT(w http.ResponseWriter, r *http.Request) {
	g, ok := s.readGraph(w, r, "input")
	if !ok {
		return
	}

	q := r.URL.Query()
	opts := pipeline.DOTOptions{Roots: q["root"], Format: q.Get("format")}
	var err error
	if opts.Detailed, err = boolParam(q.Get("detailed")); err != nil {
		s.writeError(w, http.StatusBadRequest, errs.Wrap(errs.ErrCodeInvalidInput, err, "detailed"), "")
		return
	}
	// PNG and PDF need an external converter; the API only serves what it
	// can render in-process.
	if opts.Format != "" && opts.Format != pipeline.FormatDOT && opts.Format != pipeline.FormatSVG {
		s.writeError(w, http.StatusBadRequest, errs.New(errs.ErrCodeInvalidFormat, "unsupported export format %q (supported: dot, svg)", opts.Format), "")
		return
	}

	data, _, err := s.runner.DOT(r.Context(), g, opts)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err, "")
		return
	}
	if opts.Format == pipeline.FormatSVG {
		w.Header().Set("Content-Type", "image/svg+xml")
	} else {
		w.Header().Set("Content-Type", "text/vnd.graphviz; charset=utf-8")
	}
	w.Write(data)
}

// readGraph decodes the request body in the input format named by the
// query parameter param. On failure it writes the error response and
// returns false.
func (s *Server) readGraph(w http.ResponseWriter, r *http.Request, param string) (*graph.Graph, bool) {
	format, err := graph.ParseFormat(r.URL.Query().Get(param))
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err, "")
		return nil, false
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, s.maxBody))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			s.writeError(w, http.StatusRequestEntityTooLarge,
				errs.New(errs.ErrCodeLimitExceeded, "request body exceeds %d bytes", tooLarge.Limit), "")
			return nil, false
		}
		s.writeError(w, http.StatusBadRequest, errs.Wrap(errs.ErrCodeInvalidInput, err, "read body"), "")
		return nil, false
	}

	g, err := s.runner.Load(r.Context(), bytes.NewReader(body), format)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err, "")
		return nil, false
	}
	return g, true
}

func (s *Server) writeError(w http.ResponseWriter, status int, err error, partial string) {
	code := errs.GetCode(err)
	if code == "" {
		code = errs.ErrCodeInternal
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(errorResponse{Code: code, Error: err.Error(), Partial: partial})
}

func intParam(s string) (int, error) {
	if s == "" {
		return 0, nil
	}
	return strconv.Atoi(s)
}

func boolParam(s string) (bool, error) {
	if s == "" {
		return false, nil
	}
	return strconv.ParseBool(s)
}
