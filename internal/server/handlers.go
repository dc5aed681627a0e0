// Package server provides HTTP handlers and server setup for the chat service.
package server

import (
	"errors"
	"io"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/aiautotool/chathub/internal/core"
)

// Handler holds the HTTP handlers
type Handler struct {
	dispatcher core.Dispatcher
}

// NewHandler creates a new handler with the given dispatcher
func NewHandler(dispatcher core.Dispatcher) *Handler {
	return &Handler{
		dispatcher: dispatcher,
	}
}

// Chat handles POST /api/chat.
// The body is validated in full before any vendor is contacted.
func (h *Handler) Chat(c echo.Context) error {
	body, err := io.ReadAll(c.Request().Body)
	if err != nil {
		var httpErr *echo.HTTPError
		if errors.As(err, &httpErr) {
			// body limit exceeded; let echo render 413
			return httpErr
		}
		return handleError(c, core.NewInvalidRequestError("failed to read request body", err))
	}

	req, err := core.ValidateChatRequest(body)
	if err != nil {
		return handleError(c, err)
	}

	resp, err := h.dispatcher.Dispatch(c.Request().Context(), req)
	if err != nil {
		return handleError(c, err)
	}

	return c.JSON(http.StatusOK, resp)
}

// Health handles GET /api/health
func (h *Handler) Health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

// ListModels handles GET /api/models
func (h *Handler) ListModels(c echo.Context) error {
	return c.JSON(http.StatusOK, core.ModelsResponse{Models: h.dispatcher.Models()})
}

// handleError converts gateway errors to appropriate HTTP responses
func handleError(c echo.Context, err error) error {
	var gatewayErr *core.GatewayError
	if errors.As(err, &gatewayErr) {
		return c.JSON(gatewayErr.HTTPStatusCode(), gatewayErr.ToJSON())
	}

	core.Logger(c.Request().Context()).Error("unexpected error", "error", err)

	// Fallback for unexpected errors
	return c.JSON(http.StatusInternalServerError, map[string]interface{}{
		"type":    "internal_error",
		"message": "an unexpected error occurred",
	})
}
