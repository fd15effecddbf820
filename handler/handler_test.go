package handler

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"testing"

	"github.com/aws/aws-lambda-go/events"
	"github.com/stretchr/testify/require"

	"uigen/internal/catalog"
	"uigen/internal/domain"
	"uigen/internal/usecase"
)

const component = "export default function Button() {\n  return <button>Hi</button>\n}"

type stubUseCase struct {
	out   usecase.GenerateOutput
	err   error
	in    usecase.GenerateInput
	calls int
}

func (s *stubUseCase) Generate(_ context.Context, in usecase.GenerateInput) (usecase.GenerateOutput, error) {
	s.in = in
	s.calls++
	return s.out, s.err
}

func makeEvent(body string) events.APIGatewayProxyRequest {
	return events.APIGatewayProxyRequest{
		HTTPMethod: http.MethodPost,
		Path:       "/api/generateCode",
		Headers:    map[string]string{"Content-Type": "application/json"},
		Body:       body,
	}
}

func parseBody[T any](t *testing.T, body string) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal([]byte(body), &v))
	return v
}

func TestNewHandler_ValidatesDependency(t *testing.T) {
	_, err := NewHandler(nil)
	require.Error(t, err)
}

func TestHandle_HappyPath(t *testing.T) {
	uc := &stubUseCase{out: usecase.GenerateOutput{Source: component}}
	h, err := NewHandler(uc)
	require.NoError(t, err)

	body := `{"model":"gpt-x","messages":[{"role":"user","content":"a button"}]}`
	resp, err := h.Handle(context.Background(), makeEvent(body))
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, component, resp.Body)
	require.Equal(t, "text/plain; charset=utf-8", resp.Headers["Content-Type"])
	require.Equal(t, body, string(uc.in.Payload))
	require.NotEmpty(t, resp.Headers["X-Correlation-Id"])
}

func TestHandle_Base64Body(t *testing.T) {
	uc := &stubUseCase{out: usecase.GenerateOutput{Source: component}}
	h, err := NewHandler(uc)
	require.NoError(t, err)

	event := makeEvent(base64.StdEncoding.EncodeToString([]byte(`{"model":"m"}`)))
	event.IsBase64Encoded = true
	_, err = h.Handle(context.Background(), event)
	require.NoError(t, err)
	require.Equal(t, `{"model":"m"}`, string(uc.in.Payload))
}

func TestHandle_InvalidRequestIsPlainText(t *testing.T) {
	uc := &stubUseCase{err: &usecase.Error{
		Code:   usecase.ErrorInvalidRequest,
		Reason: "validation_failed",
		Err:    &usecase.ValidationError{Path: "messages", Message: "must contain at least 1 element"},
	}}
	h, err := NewHandler(uc)
	require.NoError(t, err)

	resp, err := h.Handle(context.Background(), makeEvent(`{"model":"m","messages":[]}`))
	require.NoError(t, err)
	require.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	require.Equal(t, "text/plain; charset=utf-8", resp.Headers["Content-Type"])
	require.Equal(t, "messages: must contain at least 1 element", resp.Body)
}

func TestHandle_MapsUseCaseErrors(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		status int
		want   errorResponse
	}{
		{
			name:   "timeout",
			err:    &usecase.Error{Code: usecase.ErrorTimeout, Reason: "llm_error", Err: context.DeadlineExceeded},
			status: http.StatusRequestTimeout,
			want:   errorResponse{Error: "Request timeout", Details: "The request took too long to complete"},
		},
		{
			name:   "auth failure",
			err:    &usecase.Error{Code: usecase.ErrorAuthFailure, Reason: "llm_error"},
			status: http.StatusUnauthorized,
			want:   errorResponse{Error: "Authentication error", Details: "Invalid API key or authentication issue"},
		},
		{
			name:   "rate limited",
			err:    &usecase.Error{Code: usecase.ErrorRateLimited, Reason: "llm_error"},
			status: http.StatusTooManyRequests,
			want:   errorResponse{Error: "Rate limit exceeded", Details: "Too many requests, please try again later"},
		},
		{
			name:   "incomplete",
			err:    &usecase.Error{Code: usecase.ErrorIncompleteGeneration, Reason: "output_check_failed", Err: errors.New("generated output has no default export")},
			status: http.StatusInternalServerError,
			want:   errorResponse{Error: "Generated code is incomplete", Details: "generated output has no default export", Type: "INCOMPLETE_GENERATION"},
		},
		{
			name:   "internal",
			err:    &usecase.Error{Code: usecase.ErrorInternal, Reason: "llm_error", Err: errors.New("boom")},
			status: http.StatusInternalServerError,
			want:   errorResponse{Error: "Internal server error", Details: "boom", Type: "*errors.errorString"},
		},
		{
			name:   "unexpected",
			err:    errors.New("boom"),
			status: http.StatusInternalServerError,
			want:   errorResponse{Error: "Internal server error", Details: "boom", Type: "*errors.errorString"},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			uc := &stubUseCase{err: tc.err}
			h, err := NewHandler(uc)
			require.NoError(t, err)

			resp, err := h.Handle(context.Background(), makeEvent(`{"model":"m","messages":[{"role":"user","content":"x"}]}`))
			require.NoError(t, err)
			require.Equal(t, tc.status, resp.StatusCode)
			require.Equal(t, "application/json", resp.Headers["Content-Type"])
			require.Equal(t, tc.want, parseBody[errorResponse](t, resp.Body))
		})
	}
}

func TestHandle_TimeoutBodyShape(t *testing.T) {
	uc := &stubUseCase{err: &usecase.Error{Code: usecase.ErrorTimeout, Reason: "llm_error"}}
	h, err := NewHandler(uc)
	require.NoError(t, err)

	resp, err := h.Handle(context.Background(), makeEvent(`{}`))
	require.NoError(t, err)
	require.JSONEq(t, `{"error":"Request timeout","details":"The request took too long to complete"}`, resp.Body)
}

func TestHandle_UsesProvidedCorrelationID_CaseInsensitive(t *testing.T) {
	uc := &stubUseCase{out: usecase.GenerateOutput{Source: component}}
	h, err := NewHandler(uc)
	require.NoError(t, err)

	event := makeEvent(`{}`)
	event.Headers["x-correlation-id"] = "corr-123"
	resp, err := h.Handle(context.Background(), event)
	require.NoError(t, err)
	require.Equal(t, "corr-123", resp.Headers["X-Correlation-Id"])
}

func TestHandle_GeneratesCorrelationID(t *testing.T) {
	orig := newUUID
	newUUID = func() string { return "generated-id" }
	t.Cleanup(func() { newUUID = orig })

	h, err := NewHandler(&stubUseCase{err: errors.New("boom")})
	require.NoError(t, err)
	resp, err := h.Handle(context.Background(), makeEvent(`{}`))
	require.NoError(t, err)
	require.Equal(t, "generated-id", resp.Headers["X-Correlation-Id"])
}

func TestHandle_AuthToken(t *testing.T) {
	cases := []struct {
		name    string
		header  string
		status  int
		reached bool
	}{
		{name: "missing", header: "", status: http.StatusUnauthorized},
		{name: "wrong scheme", header: "Basic s3cret", status: http.StatusUnauthorized},
		{name: "wrong token", header: "Bearer nope", status: http.StatusUnauthorized},
		{name: "valid", header: "Bearer s3cret", status: http.StatusOK, reached: true},
		{name: "valid lowercase scheme", header: "bearer s3cret", status: http.StatusOK, reached: true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			uc := &stubUseCase{out: usecase.GenerateOutput{Source: component}}
			h, err := NewHandler(uc, WithAuthToken("s3cret"))
			require.NoError(t, err)

			event := makeEvent(`{}`)
			if tc.header != "" {
				event.Headers["authorization"] = tc.header
			}
			resp, err := h.Handle(context.Background(), event)
			require.NoError(t, err)
			require.Equal(t, tc.status, resp.StatusCode)
			require.Equal(t, tc.reached, uc.calls == 1)
			if !tc.reached {
				require.JSONEq(t, `{"error":"Unauthorized"}`, resp.Body)
			}
		})
	}
}

func TestRespond_LogsClassifiedFailure(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))
	uc := &stubUseCase{err: &usecase.Error{Code: usecase.ErrorInternal, Reason: "llm_error", Err: errors.New("boom")}}
	h, err := NewHandler(uc, WithLogger(logger))
	require.NoError(t, err)

	reply := h.Respond(context.Background(), Request{Body: []byte(`{}`), CorrelationID: "c-1"})
	require.Equal(t, http.StatusInternalServerError, reply.StatusCode)

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	require.Equal(t, "ERROR", entry["level"])
	require.Equal(t, "c-1", entry["correlation_id"])
	require.Equal(t, "INTERNAL_ERROR", entry["code"])
	require.Equal(t, "*errors.errorString", entry["type"])
}

type stubCompleter struct {
	out domain.Completion
	err error
}

func (s stubCompleter) Complete(context.Context, domain.CompletionRequest) (domain.Completion, error) {
	return s.out, s.err
}

func TestHandle_GenerationPipeline(t *testing.T) {
	const source = "import { Button } from \"@/components/ui/button\"\n\nexport default function X() {\n  return <Button>Go</Button>\n}"
	body := `{"model":"gpt-x","messages":[{"role":"user","content":"a button"}]}`

	cases := []struct {
		name        string
		llm         stubCompleter
		status      int
		contentType string
		wantBody    string
		wantJSON    string
	}{
		{
			name:        "complete component",
			llm:         stubCompleter{out: domain.Completion{Content: source, FinishReason: "stop"}},
			status:      http.StatusOK,
			contentType: "text/plain; charset=utf-8",
			wantBody:    source,
		},
		{
			name:        "provider deadline",
			llm:         stubCompleter{err: fmt.Errorf("openai: request failed: %w", context.DeadlineExceeded)},
			status:      http.StatusRequestTimeout,
			contentType: "application/json",
			wantJSON:    `{"error":"Request timeout","details":"The request took too long to complete"}`,
		},
		{
			name:        "truncated output",
			llm:         stubCompleter{out: domain.Completion{Content: "export default function X() {\n  return <div>", FinishReason: "length"}},
			status:      http.StatusInternalServerError,
			contentType: "application/json",
			wantJSON:    `{"error":"Generated code is incomplete","details":"generated output does not end with a closing brace","type":"INCOMPLETE_GENERATION"}`,
		},
	}

	cat, err := catalog.Builtin()
	require.NoError(t, err)

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			svc, err := usecase.NewGenerateService(tc.llm, cat)
			require.NoError(t, err)
			h, err := NewHandler(svc)
			require.NoError(t, err)

			resp, err := h.Handle(context.Background(), makeEvent(body))
			require.NoError(t, err)
			require.Equal(t, tc.status, resp.StatusCode)
			require.Equal(t, tc.contentType, resp.Headers["Content-Type"])
			if tc.wantJSON != "" {
				require.JSONEq(t, tc.wantJSON, resp.Body)
				return
			}
			require.Equal(t, tc.wantBody, resp.Body)
		})
	}
}
