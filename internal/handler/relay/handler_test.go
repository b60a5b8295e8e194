package relay

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/nemawashi-ai/nema/backend/internal/service/webhook"
)

func setupRouter(upstreamURL string) *chi.Mux {
	forwarder := webhook.NewForwarder(upstreamURL, 5*time.Second)
	handler := New(forwarder)

	r := chi.NewRouter()
	handler.RegisterRoutes(r)
	return r
}

func decodeBody(t *testing.T, resp *httptest.ResponseRecorder) map[string]string {
	t.Helper()
	body := make(map[string]string)
	if err := json.Unmarshal(resp.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return body
}

func TestProxyRejectsNonPost(t *testing.T) {
	r := setupRouter("http://unused.invalid")

	req := httptest.NewRequest(http.MethodGet, "/chat-proxy", nil)
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)

	if resp.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405, got %d", resp.Code)
	}
	if body := decodeBody(t, resp); body["error"] != "Method Not Allowed" {
		t.Fatalf("unexpected body: %v", body)
	}
}

func TestProxyRejectsMissingFields(t *testing.T) {
	r := setupRouter("http://unused.invalid")

	cases := []string{`{}`, `{"message":"hola"}`, `{"userId":"u"}`, ``}
	for _, payload := range cases {
		req := httptest.NewRequest(http.MethodPost, "/chat-proxy", bytes.NewReader([]byte(payload)))
		req.Header.Set("Content-Type", "application/json")
		resp := httptest.NewRecorder()
		r.ServeHTTP(resp, req)

		if resp.Code != http.StatusBadRequest {
			t.Fatalf("payload %q: expected 400, got %d", payload, resp.Code)
		}
		if body := decodeBody(t, resp); body["error"] != "Missing message or userId" {
			t.Fatalf("payload %q: unexpected body: %v", payload, body)
		}
	}
}

func TestProxyWrapsUpstreamText(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("hello"))
	}))
	defer upstream.Close()

	r := setupRouter(upstream.URL)
	payload := []byte(`{"message":"hola","userId":"u"}`)
	req := httptest.NewRequest(http.MethodPost, "/chat-proxy", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	if body := decodeBody(t, resp); body["raw"] != "hello" {
		t.Fatalf("unexpected body: %v", body)
	}
}

func TestProxyPassesThroughUpstreamErrorStatus(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte("upstream broke"))
	}))
	defer upstream.Close()

	r := setupRouter(upstream.URL)
	payload := []byte(`{"message":"hola","userId":"u"}`)
	req := httptest.NewRequest(http.MethodPost, "/chat-proxy", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected pass-through 200, got %d", resp.Code)
	}
	if body := decodeBody(t, resp); body["raw"] != "upstream broke" {
		t.Fatalf("unexpected body: %v", body)
	}
}

func TestProxyReportsForwardingFailure(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	upstream.Close()

	r := setupRouter(upstream.URL)
	payload := []byte(`{"message":"hola","userId":"u"}`)
	req := httptest.NewRequest(http.MethodPost, "/chat-proxy", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)

	if resp.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", resp.Code)
	}
	body := decodeBody(t, resp)
	if body["error"] != "Proxy error" || body["details"] == "" {
		t.Fatalf("unexpected body: %v", body)
	}
}
