package handler

import (
	"context"
	"crypto/subtle"
	"encoding/base64"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/aws/aws-lambda-go/events"
	"github.com/google/uuid"

	"uigen/internal/metrics"
	"uigen/internal/usecase"
)

const (
	HeaderCorrelationID = "X-Correlation-Id"
	HeaderAuthorization = "Authorization"

	contentTypeJSON = "application/json"
	contentTypeText = "text/plain; charset=utf-8"
)

type Generator interface {
	Generate(ctx context.Context, in usecase.GenerateInput) (usecase.GenerateOutput, error)
}

// Handler shapes generation results into HTTP responses. It is shared by the
// Lambda adapter and the standalone server.
type Handler struct {
	uc        Generator
	logger    *slog.Logger
	authToken string
}

type Option func(*Handler)

func WithLogger(l *slog.Logger) Option {
	return func(h *Handler) {
		if l != nil {
			h.logger = l
		}
	}
}

// WithAuthToken requires "Authorization: Bearer <token>" on every request.
// An empty token disables the check.
func WithAuthToken(token string) Option {
	return func(h *Handler) {
		h.authToken = strings.TrimSpace(token)
	}
}

func NewHandler(uc Generator, opts ...Option) (*Handler, error) {
	if uc == nil {
		return nil, errors.New("handler: generator must not be nil")
	}
	h := &Handler{uc: uc, logger: slog.Default()}
	for _, opt := range opts {
		opt(h)
	}
	return h, nil
}

// Request is the transport-neutral view of an inbound generation request.
type Request struct {
	Body          []byte
	Authorization string
	CorrelationID string
}

// Reply is the transport-neutral response.
type Reply struct {
	StatusCode int
	Headers    map[string]string
	Body       string
}

type errorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
	Type    string `json:"type,omitempty"`
}

// Respond runs the generation pipeline for req and always returns a reply.
func (h *Handler) Respond(ctx context.Context, req Request) Reply {
	corrID := strings.TrimSpace(req.CorrelationID)
	if corrID == "" {
		corrID = newUUID()
	}
	logger := h.logger.With("correlation_id", corrID)

	if !h.authorized(req.Authorization) {
		logger.Warn("request rejected", "status", http.StatusUnauthorized, "reason", "missing_or_invalid_token")
		metrics.IncError("handler", "unauthorized")
		return jsonReply(corrID, http.StatusUnauthorized, errorResponse{Error: "Unauthorized"})
	}

	out, err := h.uc.Generate(ctx, usecase.GenerateInput{Payload: req.Body})
	if err != nil {
		return h.errorReply(logger, corrID, err)
	}

	return Reply{
		StatusCode: http.StatusOK,
		Headers: map[string]string{
			"Content-Type":      contentTypeText,
			HeaderCorrelationID: corrID,
		},
		Body: out.Source,
	}
}

func (h *Handler) authorized(header string) bool {
	if h.authToken == "" {
		return true
	}
	scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(strings.TrimSpace(token)), []byte(h.authToken)) == 1
}

func (h *Handler) errorReply(logger *slog.Logger, corrID string, err error) Reply {
	c := usecase.Classify(err)
	metrics.IncError("handler", string(c.Code))

	attrs := []any{
		"code", c.Code,
		"reason", c.Reason,
		"status", c.Status,
		"err", err,
	}
	if c.Type != "" {
		attrs = append(attrs, "type", c.Type)
	}
	if c.Status >= http.StatusInternalServerError {
		logger.Error("generation failed", attrs...)
	} else {
		logger.Warn("generation failed", attrs...)
	}

	if c.Code == usecase.ErrorInvalidRequest {
		return Reply{
			StatusCode: c.Status,
			Headers: map[string]string{
				"Content-Type":      contentTypeText,
				HeaderCorrelationID: corrID,
			},
			Body: c.Details,
		}
	}
	return jsonReply(corrID, c.Status, errorResponse{Error: c.Error, Details: c.Details, Type: c.Type})
}

func jsonReply(corrID string, status int, v any) Reply {
	body, err := json.Marshal(v)
	if err != nil {
		status = http.StatusInternalServerError
		body = []byte(`{"error":"Internal server error"}`)
	}
	return Reply{
		StatusCode: status,
		Headers: map[string]string{
			"Content-Type":      contentTypeJSON,
			HeaderCorrelationID: corrID,
		},
		Body: string(body),
	}
}

// Handle is the AWS Lambda entrypoint for API Gateway proxy events.
func (h *Handler) Handle(ctx context.Context, event events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	body := []byte(event.Body)
	if event.IsBase64Encoded {
		decoded, err := base64.StdEncoding.DecodeString(event.Body)
		if err != nil {
			// Undecodable bodies reach the validator as-is and fail there.
			decoded = body
		}
		body = decoded
	}

	reply := h.Respond(ctx, Request{
		Body:          body,
		Authorization: headerValue(event.Headers, HeaderAuthorization),
		CorrelationID: headerValue(event.Headers, HeaderCorrelationID),
	})
	return events.APIGatewayProxyResponse{
		StatusCode: reply.StatusCode,
		Headers:    reply.Headers,
		Body:       reply.Body,
	}, nil
}

// headerValue looks up name case-insensitively; API Gateway preserves the
// caller's header casing.
func headerValue(headers map[string]string, name string) string {
	if v, ok := headers[name]; ok {
		return v
	}
	for k, v := range headers {
		if strings.EqualFold(k, name) {
			return v
		}
	}
	return ""
}

var newUUID = func() string {
	return uuid.NewString()
}
