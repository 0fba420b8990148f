package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	mdwlog "github.com/msto63/lox/foundation/core/log"
	"github.com/msto63/lox/internal/frontend/service"
	"github.com/msto63/lox/internal/store"
	"github.com/msto63/lox/pkg/core/health"
)

func newTestHandler(t *testing.T, cfg service.Config) (*Handler, *store.Store) {
	t.Helper()

	st, err := store.Open(store.Config{Path: filepath.Join(t.TempDir(), "runs.db")})
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	t.Cleanup(func() { st.Close() })

	logger := mdwlog.NewNop()
	registry := health.NewRegistry("lox", "test")
	registry.Register(health.ErrorCheck("store", false, st.Ping))

	svc := service.NewService(cfg, logger, st)
	return NewHandler(DefaultConfig(), svc, st, registry, logger), st
}

func doRequest(h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var m map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &m); err != nil {
		t.Fatalf("Invalid JSON body %q: %v", rec.Body.String(), err)
	}
	return m
}

func TestHealthz(t *testing.T) {
	h, _ := newTestHandler(t, service.DefaultConfig())

	rec := doRequest(h, http.MethodGet, "/healthz", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}
	body := decodeBody(t, rec)
	if body["status"] != "healthy" {
		t.Errorf("Expected healthy, got %v", body["status"])
	}

	if rec := doRequest(h, http.MethodPost, "/healthz", ""); rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("Expected 405, got %d", rec.Code)
	}
}

func TestUnhealthyReturns503(t *testing.T) {
	registry := health.NewRegistry("lox", "test")
	registry.Register(health.ErrorCheck("engine", true, func(context.Context) error { return errors.New("down") }))
	h := NewHandler(DefaultConfig(), service.NewService(service.DefaultConfig(), mdwlog.NewNop(), nil), nil, registry, mdwlog.NewNop())

	if rec := doRequest(h, http.MethodGet, "/healthz", ""); rec.Code != http.StatusServiceUnavailable {
		t.Errorf("Expected 503, got %d", rec.Code)
	}
}

func TestParseEndpoint(t *testing.T) {
	h, _ := newTestHandler(t, service.DefaultConfig())

	tests := []struct {
		name   string
		method string
		body   string
		code   int
		ok     bool
		sexpr  interface{}
	}{
		{"valid", http.MethodPost, `{"source":"1 + 2 * 3"}`, http.StatusOK, true, "(+ 1 (* 2 3))"},
		{"syntax error", http.MethodPost, `{"source":"(1"}`, http.StatusOK, false, nil},
		{"empty source", http.MethodPost, `{"source":""}`, http.StatusOK, false, nil},
		{"missing source", http.MethodPost, `{}`, http.StatusBadRequest, false, nil},
		{"bad json", http.MethodPost, `{`, http.StatusBadRequest, false, nil},
		{"wrong method", http.MethodGet, ``, http.StatusMethodNotAllowed, false, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := doRequest(h, tt.method, "/v1/parse", tt.body)
			if rec.Code != tt.code {
				t.Fatalf("Expected %d, got %d: %s", tt.code, rec.Code, rec.Body.String())
			}
			if tt.code != http.StatusOK {
				return
			}
			body := decodeBody(t, rec)
			if body["ok"] != tt.ok {
				t.Errorf("Expected ok=%v, got %v", tt.ok, body["ok"])
			}
			if body["sexpr"] != tt.sexpr {
				t.Errorf("Expected sexpr %v, got %v", tt.sexpr, body["sexpr"])
			}
		})
	}
}

func TestScanEndpoint(t *testing.T) {
	h, _ := newTestHandler(t, service.DefaultConfig())

	rec := doRequest(h, http.MethodPost, "/v1/scan", `{"source":"a\n#"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}

	body := decodeBody(t, rec)
	tokens := body["tokens"].([]interface{})
	if len(tokens) != 2 {
		t.Fatalf("Expected IDENTIFIER and EOF, got %v", tokens)
	}
	eof := tokens[1].(map[string]interface{})
	if eof["type"] != "EOF" || eof["line"] != float64(2) {
		t.Errorf("Expected EOF on line 2, got %v", eof)
	}

	diags := body["diagnostics"].([]interface{})
	if len(diags) != 1 {
		t.Fatalf("Expected 1 diagnostic, got %v", diags)
	}
	if text := diags[0].(map[string]interface{})["text"]; text != "[line 2] Error: Unexpected character." {
		t.Errorf("Unexpected diagnostic text %v", text)
	}
}

func TestOversizedSource(t *testing.T) {
	h, _ := newTestHandler(t, service.Config{MaxSourceBytes: 4})

	rec := doRequest(h, http.MethodPost, "/v1/parse", `{"source":"1 + 2 + 3"}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("Expected 400, got %d", rec.Code)
	}
	if code := decodeBody(t, rec)["code"]; code != "invalid_input" {
		t.Errorf("Expected invalid_input, got %v", code)
	}
}

func TestRunsEndpoint(t *testing.T) {
	h, _ := newTestHandler(t, service.DefaultConfig())

	doRequest(h, http.MethodPost, "/v1/parse", `{"source":"1"}`)
	doRequest(h, http.MethodPost, "/v1/parse", `{"source":")"}`)
	doRequest(h, http.MethodPost, "/v1/scan", `{"source":"1"}`)

	tests := []struct {
		query string
		total int
		code  int
	}{
		{"", 3, http.StatusOK},
		{"?kind=parse", 2, http.StatusOK},
		{"?failed=true", 1, http.StatusOK},
		{"?limit=1", 1, http.StatusOK},
		{"?limit=zero", 0, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			rec := doRequest(h, http.MethodGet, "/v1/runs"+tt.query, "")
			if rec.Code != tt.code {
				t.Fatalf("Expected %d, got %d", tt.code, rec.Code)
			}
			if tt.code != http.StatusOK {
				return
			}
			var resp RunsResponse
			if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
				t.Fatalf("Invalid body: %v", err)
			}
			if resp.Total != tt.total || len(resp.Runs) != tt.total {
				t.Errorf("Expected %d runs, got %d", tt.total, resp.Total)
			}
			for _, run := range resp.Runs {
				if run.Origin != "http" {
					t.Errorf("Expected origin http, got %q", run.Origin)
				}
			}
		})
	}
}

func TestNotFound(t *testing.T) {
	h, _ := newTestHandler(t, service.DefaultConfig())
	if rec := doRequest(h, http.MethodGet, "/v2/parse", ""); rec.Code != http.StatusNotFound {
		t.Errorf("Expected 404, got %d", rec.Code)
	}
}

func TestWebSocket(t *testing.T) {
	h, _ := newTestHandler(t, service.DefaultConfig())
	srv := httptest.NewServer(h)
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/v1/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("Dial failed: %v", err)
	}
	defer conn.Close()
	conn.SetReadDeadline(time.Now().Add(5 * time.Second))

	tests := []struct {
		msg      WSMessage
		respType string
		check    func(t *testing.T, payload map[string]interface{})
	}{
		{WSMessage{Type: "ping", ID: "1"}, "pong", nil},
		{WSMessage{Type: "parse", ID: "2", Source: "a == b"}, "result", func(t *testing.T, p map[string]interface{}) {
			if p["kind"] != "parse" || p["sexpr"] != "(== a b)" {
				t.Errorf("Unexpected parse payload %v", p)
			}
		}},
		{WSMessage{Type: "scan", ID: "3", Source: "\"open"}, "result", func(t *testing.T, p map[string]interface{}) {
			if p["kind"] != "scan" || p["ok"] != false {
				t.Errorf("Unexpected scan payload %v", p)
			}
		}},
		{WSMessage{Type: "format", ID: "4"}, "error", func(t *testing.T, p map[string]interface{}) {
			if p["code"] != "unknown_type" {
				t.Errorf("Expected unknown_type, got %v", p)
			}
		}},
	}

	for _, tt := range tests {
		t.Run(tt.msg.Type, func(t *testing.T) {
			if err := conn.WriteJSON(tt.msg); err != nil {
				t.Fatalf("WriteJSON failed: %v", err)
			}
			var resp struct {
				Type    string                 `json:"type"`
				ID      string                 `json:"id"`
				Payload map[string]interface{} `json:"payload"`
			}
			if err := conn.ReadJSON(&resp); err != nil {
				t.Fatalf("ReadJSON failed: %v", err)
			}
			if resp.Type != tt.respType || resp.ID != tt.msg.ID {
				t.Errorf("Expected %s for id %s, got %s for id %s", tt.respType, tt.msg.ID, resp.Type, resp.ID)
			}
			if tt.check != nil {
				tt.check(t, resp.Payload)
			}
		})
	}
}

func TestWebSocketClosesOversizedMessage(t *testing.T) {
	svc := service.NewService(service.DefaultConfig(), mdwlog.NewNop(), nil)
	cfg := DefaultConfig()
	cfg.MaxBodyBytes = 1024
	srv := httptest.NewServer(NewHandler(cfg, svc, nil, nil, mdwlog.NewNop()))
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/v1/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("Dial failed: %v", err)
	}
	defer conn.Close()
	conn.SetReadDeadline(time.Now().Add(5 * time.Second))

	source := strings.Repeat("1+", 4096) + "1"
	if err := conn.WriteJSON(WSMessage{Type: "parse", ID: "big", Source: source}); err != nil {
		t.Fatalf("WriteJSON failed: %v", err)
	}

	var resp WSResponse
	err = conn.ReadJSON(&resp)
	if err == nil {
		t.Fatalf("Expected connection to close, got %s response", resp.Type)
	}
	var closeErr *websocket.CloseError
	if errors.As(err, &closeErr) && closeErr.Code != websocket.CloseMessageTooBig {
		t.Errorf("Expected close code %d, got %d", websocket.CloseMessageTooBig, closeErr.Code)
	}
}

func TestRequestIDHeader(t *testing.T) {
	h, st := newTestHandler(t, service.DefaultConfig())

	t.Run("echoes caller id", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/v1/parse", strings.NewReader(`{"source":"1"}`))
		req.Header.Set(RequestIDHeader, "req-42")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)

		if got := rec.Header().Get(RequestIDHeader); got != "req-42" {
			t.Errorf("Expected echoed id req-42, got %q", got)
		}
	})

	t.Run("generates id", func(t *testing.T) {
		rec := doRequest(h, http.MethodPost, "/v1/scan", `{"source":"1"}`)
		if got := rec.Header().Get(RequestIDHeader); len(got) != 36 {
			t.Errorf("Expected generated uuid, got %q", got)
		}
	})

	runs, err := st.ListRuns(context.Background(), store.RunFilter{Kind: store.RunKindParse})
	if err != nil {
		t.Fatalf("ListRuns failed: %v", err)
	}
	if len(runs) != 1 || runs[0].RequestID != "req-42" {
		t.Errorf("Expected recorded request id req-42, got %+v", runs)
	}
}
