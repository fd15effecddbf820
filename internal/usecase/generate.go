package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"uigen/internal/domain"
	"uigen/internal/metrics"
)

const (
	DefaultTemperature = 0.9
	DefaultMaxTokens   = 6000

	spanGenAIChat = "gen_ai.chat"
)

// Completer performs one non-streaming completion call. Implementations
// bound the call by their own timeout and never retry.
type Completer interface {
	Complete(ctx context.Context, req domain.CompletionRequest) (domain.Completion, error)
}

// ComponentSource supplies the descriptors embedded in the system instruction.
type ComponentSource interface {
	Components() []domain.ComponentDescriptor
}

type GenerateService struct {
	llm        Completer
	catalog    ComponentSource
	logger     *slog.Logger
	tracer     trace.Tracer
	classifier FailureClassifier

	temperature   float64
	maxTokens     int
	allowedModels []string
}

type Option func(*GenerateService)

// WithFailureClassifier replaces DefaultFailureRules for provider failures.
func WithFailureClassifier(c FailureClassifier) Option {
	return func(s *GenerateService) {
		if len(c) > 0 {
			s.classifier = c
		}
	}
}

func WithTracer(t trace.Tracer) Option {
	return func(s *GenerateService) {
		if t != nil {
			s.tracer = t
		}
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(s *GenerateService) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithAllowedModels restricts requests to the named models. An empty list
// allows any model.
func WithAllowedModels(models ...string) Option {
	return func(s *GenerateService) {
		s.allowedModels = nil
		for _, m := range models {
			if m = strings.TrimSpace(m); m != "" {
				s.allowedModels = append(s.allowedModels, m)
			}
		}
	}
}

func WithTemperature(t float64) Option {
	return func(s *GenerateService) {
		s.temperature = t
	}
}

func WithMaxTokens(n int) Option {
	return func(s *GenerateService) {
		if n > 0 {
			s.maxTokens = n
		}
	}
}

type GenerateInput struct {
	// Payload is the raw JSON request body.
	Payload []byte
}

type GenerateOutput struct {
	Source       string
	Model        string
	FinishReason string
}

func NewGenerateService(llm Completer, catalog ComponentSource, opts ...Option) (*GenerateService, error) {
	if llm == nil {
		return nil, errors.New("usecase: llm client must not be nil")
	}
	if catalog == nil {
		return nil, errors.New("usecase: component catalog must not be nil")
	}
	s := &GenerateService{
		llm:         llm,
		catalog:     catalog,
		logger:      slog.Default(),
		tracer:      otel.Tracer("uigen/usecase"),
		classifier:  DefaultFailureRules(),
		temperature: DefaultTemperature,
		maxTokens:   DefaultMaxTokens,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Generate runs one request through validation, prompt assembly, a single
// completion call and the output check. Every returned error is a *Error.
func (s *GenerateService) Generate(ctx context.Context, in GenerateInput) (GenerateOutput, error) {
	start := time.Now()

	req, err := DecodeRequest(in.Payload)
	if err != nil {
		return GenerateOutput{}, s.fail(metrics.ModelOther, start, newError(ErrorInvalidRequest, "validation_failed", err))
	}
	if len(s.allowedModels) > 0 && !slices.Contains(s.allowedModels, req.Model) {
		err := &ValidationError{Path: "model", Message: fmt.Sprintf("model %q is not allowed", req.Model)}
		return GenerateOutput{}, s.fail(metrics.ModelOther, start, newError(ErrorInvalidRequest, "model_not_allowed", err))
	}

	prompt := AssemblePrompt(req, s.catalog.Components())
	completion, err := s.complete(ctx, domain.CompletionRequest{
		Model:       req.Model,
		Messages:    prompt.Messages(),
		Temperature: s.temperature,
		MaxTokens:   s.maxTokens,
	})
	if err != nil {
		code := s.classifier.Classify(err)
		return GenerateOutput{}, s.fail(s.modelLabel(req.Model), start, newError(code, "llm_error", err))
	}

	if completion.FinishReason == domain.FinishReasonLength {
		s.logger.Warn("completion stopped at output token ceiling",
			"model", req.Model,
			"max_tokens", s.maxTokens,
			"output_tokens", completion.OutputTokens,
		)
	}

	if err := VerifyOutput(completion.Content); err != nil {
		metrics.IncOutputCheck("fail")
		s.logger.Warn("generated output failed completeness check",
			"model", req.Model,
			"err", err,
			"finish_reason", completion.FinishReason,
			"output_len", len(completion.Content),
			"output_tail", tail(completion.Content, 80),
		)
		return GenerateOutput{}, s.fail(s.modelLabel(req.Model), start, newError(ErrorIncompleteGeneration, "output_check_failed", err))
	}
	metrics.IncOutputCheck("pass")

	elapsed := time.Since(start)
	metrics.ObserveGeneration(s.modelLabel(req.Model), "ok", elapsed)
	s.logger.Info("generation completed",
		"model", req.Model,
		"duration_ms", elapsed.Milliseconds(),
		"finish_reason", completion.FinishReason,
		"input_tokens", completion.InputTokens,
		"output_tokens", completion.OutputTokens,
	)

	return GenerateOutput{
		Source:       completion.Content,
		Model:        req.Model,
		FinishReason: completion.FinishReason,
	}, nil
}

func (s *GenerateService) complete(ctx context.Context, req domain.CompletionRequest) (domain.Completion, error) {
	ctx, span := s.tracer.Start(ctx, spanGenAIChat, trace.WithAttributes(
		attribute.String("gen_ai.request.model", req.Model),
		attribute.Float64("gen_ai.request.temperature", req.Temperature),
		attribute.Int("gen_ai.request.max_tokens", req.MaxTokens),
		attribute.Int("gen_ai.request.message_count", len(req.Messages)),
	))
	defer span.End()

	res, err := s.llm.Complete(ctx, req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		span.SetAttributes(attribute.String("error.type", fmt.Sprintf("%T", err)))
		return domain.Completion{}, err
	}

	if res.FinishReason != "" {
		span.SetAttributes(attribute.String("gen_ai.response.finish_reason", res.FinishReason))
	}
	if res.InputTokens > 0 {
		span.SetAttributes(attribute.Int64("gen_ai.usage.input_tokens", res.InputTokens))
	}
	if res.OutputTokens > 0 {
		span.SetAttributes(attribute.Int64("gen_ai.usage.output_tokens", res.OutputTokens))
	}
	span.SetStatus(codes.Ok, "")
	return res, nil
}

// modelLabel bounds the metric label set to the allowlist. Without an
// allowlist every caller-supplied model collapses to metrics.ModelOther.
func (s *GenerateService) modelLabel(model string) string {
	if slices.Contains(s.allowedModels, model) {
		return model
	}
	return metrics.ModelOther
}

func (s *GenerateService) fail(modelLabel string, start time.Time, err *Error) *Error {
	metrics.ObserveGeneration(modelLabel, string(err.Code), time.Since(start))
	return err
}
