package server

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	errs "github.com/matzehuels/deptree/pkg/errors"
	"github.com/matzehuels/deptree/pkg/observability"
	"github.com/matzehuels/deptree/pkg/pipeline"
)

func newTestServer(opts ...Option) *Server {
	logger := log.NewWithOptions(io.Discard, log.Options{})
	return New(pipeline.NewRunner(nil, nil, logger), logger, opts...)
}

func do(t *testing.T, s *Server, method, target, body string, header ...string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	for i := 0; i+1 < len(header); i += 2 {
		req.Header.Set(header[i], header[i+1])
	}
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) errorResponse {
	t.Helper()
	var resp errorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("error body is not JSON: %q", rec.Body.String())
	}
	return resp
}

func TestHealth(t *testing.T) {
	rec := do(t, newTestServer(), http.MethodGet, "/healthz", "")
	if rec.Code != http.StatusOK || rec.Body.String() != "ok\n" {
		t.Errorf("GET /healthz = %d %q", rec.Code, rec.Body.String())
	}
}

func TestExpand(t *testing.T) {
	tests := []struct {
		name   string
		target string
		body   string
		want   string
	}{
		{"Empty", "/v1/expand", `{}`, ""},
		{"Single", "/v1/expand", `{"pkg1": []}`, "-pkg1\n"},
		{"SelfReference", "/v1/expand", `{"pkg1": ["pkg1"], "pkg2": []}`, "-pkg1\n-pkg2\n"},
		{"Roots", "/v1/expand?root=b&root=a", `{"a": ["b"], "b": []}`, "-b\n-a\n  -b\n"},
		{"YAML", "/v1/expand?format=yaml", "z: [y]\ny: []\n", "-z\n  -y\n-y\n"},
		{"TOML", "/v1/expand?format=toml", "z = [\"y\"]\ny = []\n", "-z\n  -y\n-y\n"},
		{"Duplicates", "/v1/expand?duplicates=true&root=a", `{"a": ["b", "b"], "b": []}`, "-a\n  -b\n  -b\n"},
	}
	s := newTestServer()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, s, http.MethodPost, tt.target, tt.body)
			if rec.Code != http.StatusOK {
				t.Fatalf("status = %d, body %q", rec.Code, rec.Body.String())
			}
			if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/plain") {
				t.Errorf("Content-Type = %q", ct)
			}
			if rec.Body.String() != tt.want {
				t.Errorf("body = %q, want %q", rec.Body.String(), tt.want)
			}
		})
	}
}

func TestExpandErrors(t *testing.T) {
	tests := []struct {
		name        string
		target      string
		body        string
		wantStatus  int
		wantCode    errs.Code
		wantPartial string
	}{
		{"SyntaxError", "/v1/expand", `{"a": [`, http.StatusBadRequest, errs.ErrCodeInvalidFormat, ""},
		{"NotAnObject", "/v1/expand", `["a"]`, http.StatusBadRequest, errs.ErrCodeInvalidFormat, ""},
		{"UnknownFormat", "/v1/expand?format=xml", `{}`, http.StatusBadRequest, errs.ErrCodeInvalidFormat, ""},
		{"InvalidKey", "/v1/expand", `{"a": [1]}`, http.StatusBadRequest, errs.ErrCodeInvalidKey, ""},
		{"Malformed", "/v1/expand", `{"a": "b"}`, http.StatusBadRequest, errs.ErrCodeMalformedGraph, ""},
		{"BadMaxNodes", "/v1/expand?max_nodes=many", `{}`, http.StatusBadRequest, errs.ErrCodeInvalidInput, ""},
		{"NegativeMaxNodes", "/v1/expand?max_nodes=-1", `{}`, http.StatusBadRequest, errs.ErrCodeInvalidInput, ""},
		{
			"MissingDependency", "/v1/expand", `{"pkg1": ["pkg2"]}`,
			http.StatusUnprocessableEntity, errs.ErrCodeMissingDependency, "-pkg1\n  -pkg2\n",
		},
		{
			"Strict", "/v1/expand?strict=1", `{"pkg1": ["pkg1"]}`,
			http.StatusUnprocessableEntity, errs.ErrCodeSelfDependency, "-pkg1\n",
		},
		{
			"NodeLimit", "/v1/expand?max_nodes=2", `{"a": ["b", "c"], "b": [], "c": []}`,
			http.StatusUnprocessableEntity, errs.ErrCodeLimitExceeded, "-a\n  -b\n",
		},
	}
	s := newTestServer()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, s, http.MethodPost, tt.target, tt.body)
			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d (body %q)", rec.Code, tt.wantStatus, rec.Body.String())
			}
			resp := decodeError(t, rec)
			if resp.Code != tt.wantCode {
				t.Errorf("code = %s, want %s", resp.Code, tt.wantCode)
			}
			if resp.Error == "" {
				t.Error("error message is empty")
			}
			if resp.Partial != tt.wantPartial {
				t.Errorf("partial = %q, want %q", resp.Partial, tt.wantPartial)
			}
		})
	}
}

func TestExpandNodeCap(t *testing.T) {
	// Every package depends on all packages of the next layer, so the
	// expansion grows as 4^layers while the body stays tiny.
	body := `{"a0": ["b0","b1","b2","b3"], "a1": ["b0","b1","b2","b3"],
		"b0": ["c0","c1","c2","c3"], "b1": ["c0","c1","c2","c3"],
		"b2": ["c0","c1","c2","c3"], "b3": ["c0","c1","c2","c3"],
		"c0": [], "c1": [], "c2": [], "c3": []}`
	s := newTestServer(WithMaxNodes(5))

	tests := []struct {
		name        string
		target      string
		wantPartial int
	}{
		{"NoQuery", "/v1/expand", 5},
		{"QueryAboveCap", "/v1/expand?max_nodes=1000", 5},
		{"QueryBelowCap", "/v1/expand?max_nodes=3", 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, s, http.MethodPost, tt.target, body)
			if rec.Code != http.StatusUnprocessableEntity {
				t.Fatalf("status = %d, want 422 (body %q)", rec.Code, rec.Body.String())
			}
			resp := decodeError(t, rec)
			if resp.Code != errs.ErrCodeLimitExceeded {
				t.Errorf("code = %s, want %s", resp.Code, errs.ErrCodeLimitExceeded)
			}
			if got := strings.Count(resp.Partial, "\n"); got != tt.wantPartial {
				t.Errorf("partial has %d lines, want %d", got, tt.wantPartial)
			}
		})
	}

	rec := do(t, s, http.MethodPost, "/v1/expand?root=c0", body)
	if rec.Code != http.StatusOK || rec.Body.String() != "-c0\n" {
		t.Errorf("small expansion under the cap = %d %q", rec.Code, rec.Body.String())
	}
}

func TestDefaultNodeCap(t *testing.T) {
	if s := newTestServer(); s.maxNodes != DefaultMaxNodes {
		t.Errorf("maxNodes = %d, want DefaultMaxNodes", s.maxNodes)
	}
	if s := newTestServer(WithMaxNodes(0)); s.maxNodes != DefaultMaxNodes {
		t.Errorf("WithMaxNodes(0) maxNodes = %d, want DefaultMaxNodes", s.maxNodes)
	}
}

func TestExpandBodyLimit(t *testing.T) {
	s := newTestServer(WithMaxBody(16))
	rec := do(t, s, http.MethodPost, "/v1/expand", `{"a": [], "b": [], "c": []}`)
	if rec.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("status = %d, want 413", rec.Code)
	}
	if resp := decodeError(t, rec); resp.Code != errs.ErrCodeLimitExceeded {
		t.Errorf("code = %s", resp.Code)
	}
}

func TestDOT(t *testing.T) {
	s := newTestServer()
	rec := do(t, s, http.MethodPost, "/v1/dot?input=yaml", "a: [b]\nb: []\n")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %q", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), `"a" -> "b";`) {
		t.Errorf("body = %q", rec.Body.String())
	}

	rec = do(t, s, http.MethodPost, "/v1/dot?format=png", `{}`)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("png export status = %d, want 400", rec.Code)
	}
}

func TestRequestID(t *testing.T) {
	s := newTestServer()

	rec := do(t, s, http.MethodGet, "/healthz", "")
	if _, err := uuid.Parse(rec.Header().Get(RequestIDHeader)); err != nil {
		t.Errorf("assigned request ID %q is not a UUID", rec.Header().Get(RequestIDHeader))
	}

	rec = do(t, s, http.MethodGet, "/healthz", "", RequestIDHeader, "abc-123")
	if got := rec.Header().Get(RequestIDHeader); got != "abc-123" {
		t.Errorf("request ID = %q, want echoed abc-123", got)
	}
}

type recordingHTTPHooks struct {
	observability.NoopHTTPHooks
	routes   []string
	statuses []int
}

func (h *recordingHTTPHooks) OnResponse(_ context.Context, _, route string, status int, _ time.Duration) {
	h.routes = append(h.routes, route)
	h.statuses = append(h.statuses, status)
}

func TestHTTPHooks(t *testing.T) {
	h := &recordingHTTPHooks{}
	observability.SetHTTPHooks(h)
	defer observability.Reset()

	s := newTestServer()
	do(t, s, http.MethodPost, "/v1/expand", `{"a": ["x"]}`)
	do(t, s, http.MethodGet, "/nope", "")

	if len(h.routes) != 2 || h.routes[0] != "/v1/expand" || h.statuses[0] != http.StatusUnprocessableEntity {
		t.Errorf("routes = %v, statuses = %v", h.routes, h.statuses)
	}
	if h.statuses[1] != http.StatusNotFound {
		t.Errorf("unknown route status = %d, want 404", h.statuses[1])
	}
}

func TestListenAndServeShutdown(t *testing.T) {
	s := newTestServer()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.ListenAndServe(ctx, "127.0.0.1:0") }()

	time.Sleep(50 * time.Millisecond)
	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("ListenAndServe: %v", err)
		}
	case <-time.After(10 * time.Second):
		t.Fatal("server did not shut down")
	}
}
