package llmclient

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/aiautotool/chathub/internal/core"
)

func TestClient_Do_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"message":"hello"}`))
	}))
	defer server.Close()

	client := New(
		Config{ProviderName: "test", BaseURL: server.URL},
		func(req *http.Request) {
			req.Header.Set("X-Test", "value")
		},
	)

	resp, err := client.Do(context.Background(), Request{
		Method:   http.MethodGet,
		Endpoint: "/test",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Errorf("expected status 200, got %d", resp.StatusCode)
	}
	if string(resp.Body) != `{"message":"hello"}` {
		t.Errorf("unexpected body: %s", resp.Body)
	}
}

func TestClient_Do_WithRequestBody(t *testing.T) {
	var receivedBody map[string]interface{}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("expected POST, got %s", r.Method)
		}
		if r.Header.Get("Content-Type") != "application/json" {
			t.Errorf("expected Content-Type 'application/json', got '%s'", r.Header.Get("Content-Type"))
		}
		body, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(body, &receivedBody)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	}))
	defer server.Close()

	client := New(Config{ProviderName: "test", BaseURL: server.URL}, nil)

	_, err := client.Do(context.Background(), Request{
		Method:   http.MethodPost,
		Endpoint: "/test",
		Body:     map[string]string{"input": "test"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if receivedBody["input"] != "test" {
		t.Errorf("expected input 'test', got '%v'", receivedBody["input"])
	}
}

func TestClient_Do_Headers(t *testing.T) {
	var receivedHeaders http.Header

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		receivedHeaders = r.Header.Clone()
		_, _ = w.Write([]byte(`{}`))
	}))
	defer server.Close()

	client := New(
		Config{ProviderName: "test", BaseURL: server.URL},
		func(req *http.Request) {
			req.Header.Set("Authorization", "Bearer token")
		},
	)

	ctx := core.WithRequestID(context.Background(), "req-123")
	_, err := client.Do(ctx, Request{
		Method:   http.MethodGet,
		Endpoint: "/test",
		Headers: map[string]string{
			"X-Custom": "custom-value",
		},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if receivedHeaders.Get("Authorization") != "Bearer token" {
		t.Errorf("expected Authorization header 'Bearer token', got '%s'", receivedHeaders.Get("Authorization"))
	}
	if receivedHeaders.Get("X-Custom") != "custom-value" {
		t.Errorf("expected X-Custom header 'custom-value', got '%s'", receivedHeaders.Get("X-Custom"))
	}
	if receivedHeaders.Get("X-Request-ID") != "req-123" {
		t.Errorf("expected X-Request-ID 'req-123', got '%s'", receivedHeaders.Get("X-Request-ID"))
	}
}

func TestClient_Do_ErrorStatusIsNotRetried(t *testing.T) {
	tests := []struct {
		name       string
		statusCode int
		body       string
		wantMsg    string
	}{
		{
			name:       "rate limit",
			statusCode: http.StatusTooManyRequests,
			body:       `{"error":{"message":"Rate limited"}}`,
			wantMsg:    "API error (status 429): Rate limited",
		},
		{
			name:       "authentication",
			statusCode: http.StatusUnauthorized,
			body:       `{"error":{"message":"Invalid API key"}}`,
			wantMsg:    "API error (status 401): Invalid API key",
		},
		{
			name:       "server error",
			statusCode: http.StatusServiceUnavailable,
			body:       `overloaded`,
			wantMsg:    "API error (status 503): overloaded",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var attempts int32
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				atomic.AddInt32(&attempts, 1)
				w.WriteHeader(tt.statusCode)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer server.Close()

			client := New(Config{ProviderName: "test", BaseURL: server.URL}, nil)

			_, err := client.Do(context.Background(), Request{Method: http.MethodPost, Endpoint: "/test"})
			if err == nil {
				t.Fatal("expected error, got nil")
			}
			var gatewayErr *core.GatewayError
			if !errors.As(err, &gatewayErr) {
				t.Fatalf("expected GatewayError, got %T", err)
			}
			if gatewayErr.Type != core.ErrorTypeProvider {
				t.Errorf("expected error type %s, got %s", core.ErrorTypeProvider, gatewayErr.Type)
			}
			if gatewayErr.UpstreamStatus != tt.statusCode {
				t.Errorf("expected upstream status %d, got %d", tt.statusCode, gatewayErr.UpstreamStatus)
			}
			if gatewayErr.Message != tt.wantMsg {
				t.Errorf("expected message %q, got %q", tt.wantMsg, gatewayErr.Message)
			}
			if n := atomic.LoadInt32(&attempts); n != 1 {
				t.Errorf("expected exactly 1 attempt, got %d", n)
			}
		})
	}
}

func TestClient_Do_NetworkError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close()

	client := New(Config{ProviderName: "test", BaseURL: url}, nil)

	_, err := client.Do(context.Background(), Request{Method: http.MethodPost, Endpoint: "/test"})
	var gatewayErr *core.GatewayError
	if !errors.As(err, &gatewayErr) {
		t.Fatalf("expected GatewayError, got %T (%v)", err, err)
	}
	if gatewayErr.Type != core.ErrorTypeProvider {
		t.Errorf("expected provider error, got %s", gatewayErr.Type)
	}
	if gatewayErr.UpstreamStatus != 0 {
		t.Errorf("expected no upstream status, got %d", gatewayErr.UpstreamStatus)
	}
}

func TestClient_Do_ContextCanceled(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{}`))
	}))
	defer server.Close()

	client := New(Config{ProviderName: "test", BaseURL: server.URL}, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := client.Do(ctx, Request{Method: http.MethodPost, Endpoint: "/test"})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled in chain, got %v", err)
	}
}

func TestClient_Do_Hooks(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/fail" {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_, _ = w.Write([]byte(`{}`))
	}))
	defer server.Close()

	var calls []CallInfo
	client := New(Config{
		ProviderName: "test",
		BaseURL:      server.URL,
		Hooks: Hooks{OnCallDone: func(_ context.Context, info CallInfo) {
			calls = append(calls, info)
		}},
	}, nil)

	_, _ = client.Do(context.Background(), Request{Method: http.MethodPost, Endpoint: "/ok", Model: "grok-2"})
	_, _ = client.Do(context.Background(), Request{Method: http.MethodPost, Endpoint: "/fail", Model: "grok-2"})

	if len(calls) != 2 {
		t.Fatalf("expected 2 hook calls, got %d", len(calls))
	}
	if calls[0].StatusCode != http.StatusOK || calls[0].Err != nil || calls[0].Model != "grok-2" {
		t.Errorf("unexpected success info: %+v", calls[0])
	}
	if calls[1].StatusCode != http.StatusBadGateway || calls[1].Err == nil {
		t.Errorf("unexpected failure info: %+v", calls[1])
	}
	if calls[0].Provider != "test" {
		t.Errorf("expected provider 'test', got %q", calls[0].Provider)
	}
}

func TestClient_SetBaseURL(t *testing.T) {
	client := New(Config{ProviderName: "test", BaseURL: "https://a.example"}, nil)
	client.SetBaseURL("https://b.example")
	if client.BaseURL() != "https://b.example" {
		t.Errorf("expected updated base URL, got %s", client.BaseURL())
	}
}
