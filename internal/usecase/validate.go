package usecase

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"uigen/internal/domain"
)

// ValidationError describes the first shape violation found in a request.
// Validation stops at the first violation; Path locates it (e.g. "messages[2].role").
type ValidationError struct {
	Path    string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Path == "" {
		return e.Message
	}
	return e.Path + ": " + e.Message
}

func violation(path, format string, args ...any) *ValidationError {
	return &ValidationError{Path: path, Message: fmt.Sprintf(format, args...)}
}

// DecodeRequest parses a JSON body and validates it with ValidateRequest.
func DecodeRequest(body []byte) (domain.GenerationRequest, error) {
	var payload any
	dec := json.NewDecoder(bytes.NewReader(body))
	if err := dec.Decode(&payload); err != nil {
		return domain.GenerationRequest{}, violation("", "invalid JSON body: %v", err)
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return domain.GenerationRequest{}, violation("", "invalid JSON body: trailing data after request object")
	}
	return ValidateRequest(payload)
}

// ValidateRequest checks a decoded JSON value against the request shape:
// a string model and a non-empty messages array of {role, content} objects
// with role "user" or "assistant" and string content.
//
// A model that is empty or only whitespace is rejected here even though the
// shape only asks for a string. Every provider refuses a blank model, and
// rejecting it before the call keeps the failure a 422 instead of an
// upstream error.
func ValidateRequest(payload any) (domain.GenerationRequest, error) {
	obj, ok := payload.(map[string]any)
	if !ok {
		return domain.GenerationRequest{}, violation("", "expected object, received %s", jsonType(payload))
	}

	rawModel, present := obj["model"]
	if !present {
		return domain.GenerationRequest{}, violation("model", "required")
	}
	model, ok := rawModel.(string)
	if !ok {
		return domain.GenerationRequest{}, violation("model", "expected string, received %s", jsonType(rawModel))
	}
	if strings.TrimSpace(model) == "" {
		return domain.GenerationRequest{}, violation("model", "must not be empty")
	}

	rawMessages, present := obj["messages"]
	if !present {
		return domain.GenerationRequest{}, violation("messages", "required")
	}
	list, ok := rawMessages.([]any)
	if !ok {
		return domain.GenerationRequest{}, violation("messages", "expected array, received %s", jsonType(rawMessages))
	}
	if len(list) == 0 {
		return domain.GenerationRequest{}, violation("messages", "must contain at least 1 element")
	}

	messages := make([]domain.ChatMessage, 0, len(list))
	for i, item := range list {
		msg, err := validateTurn(fmt.Sprintf("messages[%d]", i), item)
		if err != nil {
			return domain.GenerationRequest{}, err
		}
		messages = append(messages, msg)
	}

	return domain.GenerationRequest{Model: model, Messages: messages}, nil
}

func validateTurn(path string, item any) (domain.ChatMessage, error) {
	obj, ok := item.(map[string]any)
	if !ok {
		return domain.ChatMessage{}, violation(path, "expected object, received %s", jsonType(item))
	}

	rawRole, present := obj["role"]
	if !present {
		return domain.ChatMessage{}, violation(path+".role", "required")
	}
	role, ok := rawRole.(string)
	if !ok || (role != domain.RoleUser && role != domain.RoleAssistant) {
		return domain.ChatMessage{}, violation(path+".role",
			"invalid enum value, expected %q | %q, received %s",
			domain.RoleUser, domain.RoleAssistant, describe(rawRole))
	}

	rawContent, present := obj["content"]
	if !present {
		return domain.ChatMessage{}, violation(path+".content", "required")
	}
	content, ok := rawContent.(string)
	if !ok {
		return domain.ChatMessage{}, violation(path+".content", "expected string, received %s", jsonType(rawContent))
	}

	return domain.ChatMessage{Role: role, Content: content}, nil
}

func jsonType(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case string:
		return "string"
	case bool:
		return "boolean"
	case float64, json.Number:
		return "number"
	case []any:
		return "array"
	case map[string]any:
		return "object"
	default:
		return fmt.Sprintf("%T", v)
	}
}

func describe(v any) string {
	if s, ok := v.(string); ok {
		return fmt.Sprintf("%q", s)
	}
	return jsonType(v)
}
