package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/aiautotool/chathub/internal/core"
)

// mockDispatcher implements core.Dispatcher for testing
type mockDispatcher struct {
	response *core.ChatResponse
	err      error
	calls    int
	lastReq  *core.ChatRequest
	models   []core.ModelInfo
}

func (m *mockDispatcher) Dispatch(ctx context.Context, req *core.ChatRequest) (*core.ChatResponse, error) {
	m.calls++
	m.lastReq = req
	if m.err != nil {
		return nil, m.err
	}
	return m.response, nil
}

func (m *mockDispatcher) Models() []core.ModelInfo {
	return m.models
}

func serveChat(t *testing.T, h *Handler, body string) *httptest.ResponseRecorder {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/api/chat", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := h.Chat(c); err != nil {
		t.Fatalf("unexpected handler error: %v", err)
	}
	return rec
}

func TestChat(t *testing.T) {
	ts := int64(1700000000000)
	mock := &mockDispatcher{
		response: &core.ChatResponse{
			Message:   core.Message{Role: core.RoleAssistant, Content: "Hello!", Timestamp: &ts},
			ModelUsed: core.ModelGrok2,
		},
	}
	handler := NewHandler(mock)

	rec := serveChat(t, handler, `{"model":"grok-2","messages":[{"role":"user","content":"Hi"}],"temperature":0.5}`)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if mock.calls != 1 {
		t.Fatalf("expected 1 dispatch, got %d", mock.calls)
	}
	if mock.lastReq.Model != core.ModelGrok2 || len(mock.lastReq.Messages) != 1 {
		t.Errorf("dispatched request = %+v", mock.lastReq)
	}

	var resp core.ChatResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Message.Content != "Hello!" || resp.Message.Role != core.RoleAssistant {
		t.Errorf("unexpected message: %+v", resp.Message)
	}
	if resp.ModelUsed != core.ModelGrok2 {
		t.Errorf("modelUsed = %q, want grok-2", resp.ModelUsed)
	}
	if !strings.Contains(rec.Body.String(), `"modelUsed":"grok-2"`) {
		t.Errorf("response missing modelUsed field: %s", rec.Body.String())
	}
}

func TestChat_ValidationRejectedBeforeDispatch(t *testing.T) {
	tests := []struct {
		name      string
		body      string
		wantField string
		wantCode  string
	}{
		{
			name:      "unknown model",
			body:      `{"model":"not-a-real-model","messages":[{"role":"user","content":"hi"}],"temperature":0.5}`,
			wantField: "model",
			wantCode:  "invalid_enum_value",
		},
		{
			name:      "temperature too high",
			body:      `{"model":"grok-2","messages":[{"role":"user","content":"hi"}],"temperature":1.3}`,
			wantField: "temperature",
			wantCode:  "too_big",
		},
		{
			name:      "negative maxTokens",
			body:      `{"model":"grok-2","messages":[{"role":"user","content":"hi"}],"temperature":0.5,"maxTokens":-1}`,
			wantField: "maxTokens",
			wantCode:  "too_small",
		},
		{
			name:      "bad role",
			body:      `{"model":"grok-2","messages":[{"role":"tool","content":"hi"}],"temperature":0.5}`,
			wantField: "messages[0].role",
			wantCode:  "invalid_enum_value",
		},
		{
			name:      "malformed json",
			body:      `{"model":`,
			wantField: "",
			wantCode:  "invalid_json",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock := &mockDispatcher{}
			rec := serveChat(t, NewHandler(mock), tt.body)

			if rec.Code != http.StatusBadRequest {
				t.Fatalf("expected status 400, got %d", rec.Code)
			}
			if mock.calls != 0 {
				t.Errorf("dispatcher called %d times for an invalid request", mock.calls)
			}

			var body struct {
				Message string            `json:"message"`
				Errors  []core.FieldError `json:"errors"`
			}
			if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
				t.Fatalf("failed to decode response: %v", err)
			}
			if body.Message != "Invalid request format" {
				t.Errorf("message = %q", body.Message)
			}
			found := false
			for _, fe := range body.Errors {
				if fe.Field == tt.wantField && fe.Code == tt.wantCode {
					found = true
				}
			}
			if !found {
				t.Errorf("errors %+v do not contain %s/%s", body.Errors, tt.wantField, tt.wantCode)
			}
		})
	}
}

func TestChat_DispatchErrors(t *testing.T) {
	tests := []struct {
		name        string
		err         error
		wantStatus  int
		wantMessage string
	}{
		{
			name:        "vendor failure",
			err:         core.NewProviderError("anthropic", 529, "API error (status 529): Overloaded", nil),
			wantStatus:  http.StatusInternalServerError,
			wantMessage: "failed to get response from Anthropic: API error (status 529): Overloaded",
		},
		{
			name:        "missing credential",
			err:         core.NewMissingCredentialError("xai", "XAI_API_KEY"),
			wantStatus:  http.StatusInternalServerError,
			wantMessage: "failed to get response from xAI: XAI_API_KEY is not set",
		},
		{
			name:        "unrouted model",
			err:         core.NewUnsupportedModelError(core.ModelGrok2),
			wantStatus:  http.StatusBadRequest,
			wantMessage: "Model 'grok-2' is not supported",
		},
		{
			name:        "unknown error",
			err:         errors.New("boom"),
			wantStatus:  http.StatusInternalServerError,
			wantMessage: "an unexpected error occurred",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock := &mockDispatcher{err: tt.err}
			rec := serveChat(t, NewHandler(mock), `{"model":"grok-2","messages":[{"role":"user","content":"hi"}],"temperature":0.5}`)

			if rec.Code != tt.wantStatus {
				t.Errorf("expected status %d, got %d", tt.wantStatus, rec.Code)
			}
			var body map[string]any
			if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
				t.Fatalf("failed to decode response: %v", err)
			}
			if body["message"] != tt.wantMessage {
				t.Errorf("message = %q, want %q", body["message"], tt.wantMessage)
			}
		})
	}
}

func TestHealth(t *testing.T) {
	e := echo.New()
	handler := NewHandler(&mockDispatcher{})

	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := handler.Health(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Errorf("expected status 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"status":"ok"`) {
		t.Errorf("unexpected body: %s", rec.Body.String())
	}
}

func TestListModels(t *testing.T) {
	mock := &mockDispatcher{
		models: []core.ModelInfo{
			{ID: core.ModelDeepSeekR1, Name: "DeepSeek-R1", Provider: "DeepSeek", Description: "Free"},
		},
	}
	e := echo.New()
	handler := NewHandler(mock)

	req := httptest.NewRequest(http.MethodGet, "/api/models", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := handler.ListModels(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var resp core.ModelsResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(resp.Models) != 1 || resp.Models[0].ID != core.ModelDeepSeekR1 {
		t.Errorf("unexpected models: %+v", resp.Models)
	}
}
