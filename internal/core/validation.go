package core

import (
	"errors"
	"fmt"
	"math"
	"net/http"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/tidwall/gjson"
)

// FieldError describes one offending field of a request body.
// Field uses JSON names, e.g. "messages[2].role"; the root is "".
type FieldError struct {
	Field   string `json:"field"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// NewValidationError creates an invalid request error carrying every field error.
func NewValidationError(fields []FieldError) *GatewayError {
	return &GatewayError{
		Type:       ErrorTypeInvalidRequest,
		Message:    "Invalid request format",
		StatusCode: http.StatusBadRequest,
		Fields:     fields,
	}
}

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

func getValidator() *validator.Validate {
	validateOnce.Do(func() {
		v := validator.New(validator.WithRequiredStructEnabled())
		v.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			return name
		})
		if err := v.RegisterValidation("modeltype", func(fl validator.FieldLevel) bool {
			return ModelType(fl.Field().String()).Valid()
		}); err != nil {
			panic(err)
		}
		validate = v
	})
	return validate
}

// fieldErrors collects field errors in discovery order.
type fieldErrors []FieldError

func (f *fieldErrors) add(field, code, message string) {
	*f = append(*f, FieldError{Field: field, Code: code, Message: message})
}

// covers reports whether field, or a parent of it, already has an error.
func (f fieldErrors) covers(field string) bool {
	for _, fe := range f {
		if fe.Field == field || strings.HasPrefix(field, fe.Field+".") || strings.HasPrefix(field, fe.Field+"[") {
			return true
		}
	}
	return false
}

// ValidateChatRequest decodes and validates a raw chat request body.
// On failure it returns a *GatewayError whose Fields list every problem found.
func ValidateChatRequest(raw []byte) (*ChatRequest, error) {
	if !gjson.ValidBytes(raw) {
		return nil, NewValidationError([]FieldError{{Code: "invalid_json", Message: "request body is not valid JSON"}})
	}
	doc := gjson.ParseBytes(raw)
	if !doc.IsObject() {
		return nil, NewValidationError([]FieldError{{Code: "invalid_type", Message: "request body must be a JSON object"}})
	}

	var fields fieldErrors
	req := &ChatRequest{Temperature: DefaultTemperature}

	if model := doc.Get("model"); !model.Exists() {
		fields.add("model", "required", "model is required")
	} else if model.Type != gjson.String {
		fields.add("model", "invalid_type", "model must be a string")
	} else {
		req.Model = ModelType(model.String())
	}

	if messages := doc.Get("messages"); !messages.Exists() {
		fields.add("messages", "required", "messages is required")
	} else if !messages.IsArray() {
		fields.add("messages", "invalid_type", "messages must be an array")
	} else {
		items := messages.Array()
		req.Messages = make([]Message, 0, len(items))
		for i, item := range items {
			req.Messages = append(req.Messages, decodeMessage(item, fmt.Sprintf("messages[%d]", i), &fields))
		}
	}

	if temperature := doc.Get("temperature"); temperature.Exists() {
		if temperature.Type != gjson.Number {
			fields.add("temperature", "invalid_type", "temperature must be a number")
		} else {
			req.Temperature = temperature.Float()
		}
	}

	if maxTokens := doc.Get("maxTokens"); maxTokens.Exists() {
		if !isInteger(maxTokens) {
			fields.add("maxTokens", "invalid_type", "maxTokens must be an integer")
		} else if maxTokens.Float() > math.MaxInt32 {
			fields.add("maxTokens", "too_big", fmt.Sprintf("maxTokens must be less than or equal to %d", math.MaxInt32))
		} else {
			n := int(maxTokens.Int())
			req.MaxTokens = &n
		}
	}

	if err := getValidator().Struct(req); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return nil, NewInvalidRequestError("failed to validate request: "+err.Error(), err)
		}
		for _, fe := range verrs {
			field := fieldPath(fe.Namespace())
			if fields.covers(field) {
				continue
			}
			code, message := describe(field, fe)
			fields.add(field, code, message)
		}
	}

	if len(fields) > 0 {
		return nil, NewValidationError(fields)
	}
	return req, nil
}

// decodeMessage reads one message, recording type problems under prefix.
// Role values are left to the struct validator.
func decodeMessage(item gjson.Result, prefix string, fields *fieldErrors) Message {
	var msg Message
	if !item.IsObject() {
		fields.add(prefix, "invalid_type", prefix+" must be an object")
		return msg
	}

	if role := item.Get("role"); role.Exists() {
		if role.Type != gjson.String {
			fields.add(prefix+".role", "invalid_type", prefix+".role must be a string")
		} else {
			msg.Role = Role(role.String())
		}
	}

	if content := item.Get("content"); !content.Exists() {
		fields.add(prefix+".content", "required", prefix+".content is required")
	} else if content.Type != gjson.String {
		fields.add(prefix+".content", "invalid_type", prefix+".content must be a string")
	} else {
		msg.Content = content.String()
	}

	if ts := item.Get("timestamp"); ts.Exists() {
		if !isInteger(ts) {
			fields.add(prefix+".timestamp", "invalid_type", prefix+".timestamp must be an integer")
		} else {
			v := ts.Int()
			msg.Timestamp = &v
		}
	}
	return msg
}

func isInteger(r gjson.Result) bool {
	if r.Type != gjson.Number {
		return false
	}
	f := r.Float()
	return f == math.Trunc(f) && !math.IsInf(f, 0)
}

// fieldPath drops the struct name from a validator namespace:
// "ChatRequest.messages[0].role" -> "messages[0].role".
func fieldPath(namespace string) string {
	if i := strings.IndexByte(namespace, '.'); i >= 0 {
		return namespace[i+1:]
	}
	return namespace
}

func describe(field string, fe validator.FieldError) (code, message string) {
	switch fe.Tag() {
	case "required":
		return "required", field + " is required"
	case "modeltype":
		names := make([]string, len(AllModelTypes))
		for i, m := range AllModelTypes {
			names[i] = string(m)
		}
		return "invalid_enum_value", fmt.Sprintf("%s must be one of: %s", field, strings.Join(names, ", "))
	case "oneof":
		return "invalid_enum_value", fmt.Sprintf("%s must be one of: %s", field, strings.ReplaceAll(fe.Param(), " ", ", "))
	case "gt":
		return "too_small", fmt.Sprintf("%s must be greater than %s", field, fe.Param())
	case "gte":
		return "too_small", fmt.Sprintf("%s must be greater than or equal to %s", field, fe.Param())
	case "lte":
		return "too_big", fmt.Sprintf("%s must be less than or equal to %s", field, fe.Param())
	default:
		return "invalid", fmt.Sprintf("%s failed on the '%s' rule", field, fe.Tag())
	}
}
