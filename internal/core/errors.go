// Package core provides the chat contract shared by the HTTP layer, the dispatcher
// and the vendor adapters.
package core

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/tidwall/gjson"
)

// ErrorType represents the type of error that occurred
type ErrorType string

const (
	// ErrorTypeInvalidRequest indicates a malformed or out-of-range request body (400)
	ErrorTypeInvalidRequest ErrorType = "invalid_request_error"
	// ErrorTypeUnsupportedModel indicates a model the dispatcher cannot route (400)
	ErrorTypeUnsupportedModel ErrorType = "unsupported_model"
	// ErrorTypeConfiguration indicates an operator mistake such as a missing credential (500)
	ErrorTypeConfiguration ErrorType = "configuration_error"
	// ErrorTypeProvider indicates a failed call to the upstream vendor (500)
	ErrorTypeProvider ErrorType = "provider_error"
	// ErrorTypeAuthentication indicates a missing or wrong master key (401)
	ErrorTypeAuthentication ErrorType = "authentication_error"
)

var (
	// ErrMissingCredential is wrapped by configuration errors for absent API keys.
	ErrMissingCredential = errors.New("missing credential")
	// ErrUnsupportedModel is wrapped by errors for models that no table knows about.
	ErrUnsupportedModel = errors.New("unsupported model")
)

// GatewayError is the base error type for all chat errors
type GatewayError struct {
	Type       ErrorType `json:"type"`
	Message    string    `json:"message"`
	StatusCode int       `json:"status_code"`
	Provider   string    `json:"provider,omitempty"`
	// Fields lists every offending request field for validation errors.
	Fields []FieldError `json:"errors,omitempty"`
	// UpstreamStatus is the vendor's HTTP status, zero when no response was received.
	UpstreamStatus int `json:"-"`
	// Original error for debugging (not exposed to clients)
	Err error `json:"-"`
}

// Error implements the error interface
func (e *GatewayError) Error() string {
	if e.Provider != "" {
		return fmt.Sprintf("[%s] %s: %s", e.Provider, e.Type, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap implements the error unwrapping interface
func (e *GatewayError) Unwrap() error {
	return e.Err
}

// HTTPStatusCode returns the appropriate HTTP status code for this error
func (e *GatewayError) HTTPStatusCode() int {
	if e.StatusCode != 0 {
		return e.StatusCode
	}
	switch e.Type {
	case ErrorTypeInvalidRequest, ErrorTypeUnsupportedModel:
		return http.StatusBadRequest
	case ErrorTypeAuthentication:
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}

// ClientMessage is the text shown to API callers. Errors raised by a vendor
// adapter name the vendor so the UI can tell which model failed.
func (e *GatewayError) ClientMessage() string {
	if e.Provider == "" {
		return e.Message
	}
	return fmt.Sprintf("failed to get response from %s: %s", DisplayProviderName(e.Provider), e.Message)
}

// ToJSON converts the error to a JSON-compatible map
func (e *GatewayError) ToJSON() map[string]interface{} {
	body := map[string]interface{}{
		"type":    e.Type,
		"message": e.ClientMessage(),
	}
	if len(e.Fields) > 0 {
		body["errors"] = e.Fields
	}
	return body
}

// NewInvalidRequestError creates a new invalid request error (400)
func NewInvalidRequestError(message string, err error) *GatewayError {
	return &GatewayError{
		Type:       ErrorTypeInvalidRequest,
		Message:    message,
		StatusCode: http.StatusBadRequest,
		Err:        err,
	}
}

// NewUnsupportedModelError creates an error for a model the dispatcher cannot route (400)
func NewUnsupportedModelError(model ModelType) *GatewayError {
	return &GatewayError{
		Type:       ErrorTypeUnsupportedModel,
		Message:    fmt.Sprintf("Model '%s' is not supported", model),
		StatusCode: http.StatusBadRequest,
		Err:        ErrUnsupportedModel,
	}
}

// NewConfigurationError creates a new configuration error (500)
func NewConfigurationError(provider string, message string, err error) *GatewayError {
	return &GatewayError{
		Type:       ErrorTypeConfiguration,
		Message:    message,
		StatusCode: http.StatusInternalServerError,
		Provider:   provider,
		Err:        err,
	}
}

// NewMissingCredentialError reports an unset API key by its environment name.
func NewMissingCredentialError(provider, envName string) *GatewayError {
	return NewConfigurationError(provider, envName+" is not set", ErrMissingCredential)
}

// NewProviderError creates a new vendor error (500)
func NewProviderError(provider string, upstreamStatus int, message string, err error) *GatewayError {
	return &GatewayError{
		Type:           ErrorTypeProvider,
		Message:        message,
		StatusCode:     http.StatusInternalServerError,
		Provider:       provider,
		UpstreamStatus: upstreamStatus,
		Err:            err,
	}
}

// NewAuthenticationError creates a new authentication error (401)
func NewAuthenticationError(message string) *GatewayError {
	return &GatewayError{
		Type:       ErrorTypeAuthentication,
		Message:    message,
		StatusCode: http.StatusUnauthorized,
	}
}

// ParseProviderError turns a non-2xx vendor response into a provider error.
// The detail is the vendor's error message when the body carries one in a
// known envelope, else the trimmed raw body.
func ParseProviderError(provider string, statusCode int, body []byte) *GatewayError {
	message := strings.TrimSpace(string(body))
	if gjson.ValidBytes(body) {
		for _, path := range []string{"error.message", "message", "error"} {
			if r := gjson.GetBytes(body, path); r.Type == gjson.String && r.String() != "" {
				message = r.String()
				break
			}
		}
	}
	if message == "" {
		message = http.StatusText(statusCode)
	}
	return NewProviderError(provider, statusCode, fmt.Sprintf("API error (status %d): %s", statusCode, message), nil)
}

var providerDisplayNames = map[string]string{
	"deepseek":  "DeepSeek",
	"anthropic": "Anthropic",
	"gemini":    "Gemini",
	"openai":    "OpenAI",
	"xai":       "xAI",
}

// DisplayProviderName returns the human-readable vendor name for a provider type.
func DisplayProviderName(provider string) string {
	if name, ok := providerDisplayNames[provider]; ok {
		return name
	}
	return provider
}
