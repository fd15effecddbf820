package ollama

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ollama/ollama/api"

	"uigen/internal/domain"
	"uigen/internal/metrics"
)

const (
	Provider = "ollama"

	defaultBaseURL = "http://localhost:11434"
	defaultTimeout = 120 * time.Second
)

// HTTPStatusError captures non-2xx responses from the Ollama server.
type HTTPStatusError struct {
	StatusCode int
	Message    string
}

func (e *HTTPStatusError) Error() string {
	return fmt.Sprintf("ollama: unexpected status %d: %s", e.StatusCode, e.Message)
}

func (e *HTTPStatusError) HTTPStatusCode() int {
	return e.StatusCode
}

// chatter is the subset of *api.Client used here.
type chatter interface {
	Chat(ctx context.Context, req *api.ChatRequest, fn api.ChatResponseFunc) error
}

// Client sends non-streaming chat requests to an Ollama server.
type Client struct {
	api     chatter
	timeout time.Duration
}

type config struct {
	baseURL    string
	httpClient *http.Client
	timeout    time.Duration
}

type Option func(*config)

func WithBaseURL(baseURL string) Option {
	return func(c *config) {
		if baseURL = strings.TrimSpace(baseURL); baseURL != "" {
			c.baseURL = baseURL
		}
	}
}

func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *config) {
		c.httpClient = httpClient
	}
}

func WithTimeout(d time.Duration) Option {
	return func(c *config) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// NewClient creates a Client for the Ollama server at the configured base
// URL, defaulting to a local server. The URL must carry a scheme and host.
func NewClient(opts ...Option) (*Client, error) {
	cfg := config{
		baseURL:    defaultBaseURL,
		httpClient: http.DefaultClient,
		timeout:    defaultTimeout,
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	endpoint, err := url.Parse(cfg.baseURL)
	if err != nil {
		return nil, fmt.Errorf("ollama: invalid base URL %q: %w", cfg.baseURL, err)
	}
	if endpoint.Scheme == "" || endpoint.Host == "" {
		return nil, fmt.Errorf("ollama: base URL %q must include scheme and host", cfg.baseURL)
	}
	if cfg.httpClient == nil {
		cfg.httpClient = http.DefaultClient
	}
	return &Client{
		api:     api.NewClient(endpoint, cfg.httpClient),
		timeout: cfg.timeout,
	}, nil
}

func toOllamaMessages(messages []domain.ChatMessage) []api.Message {
	out := make([]api.Message, 0, len(messages))
	for _, msg := range messages {
		out = append(out, api.Message{Role: msg.Role, Content: msg.Content})
	}
	return out
}

// Complete sends one chat request with streaming disabled. num_predict carries
// the output-token ceiling.
func (c *Client) Complete(ctx context.Context, req domain.CompletionRequest) (domain.Completion, error) {
	if req.Model == "" {
		return domain.Completion{}, errors.New("ollama: model must not be empty")
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	stream := false
	var (
		content strings.Builder
		last    api.ChatResponse
	)

	metrics.IncLLMRequest(Provider)
	start := time.Now()
	err := c.api.Chat(ctx, &api.ChatRequest{
		Model:    req.Model,
		Messages: toOllamaMessages(req.Messages),
		Stream:   &stream,
		Options: map[string]any{
			"temperature": req.Temperature,
			"num_predict": req.MaxTokens,
		},
	}, func(resp api.ChatResponse) error {
		content.WriteString(resp.Message.Content)
		last = resp
		return nil
	})
	metrics.ObserveLLMDuration(Provider, time.Since(start))
	if err != nil {
		return domain.Completion{}, wrapError(ctx, err)
	}

	in, out := int64(last.PromptEvalCount), int64(last.EvalCount)
	metrics.AddTokens(Provider, in, out)
	return domain.Completion{
		Content:      content.String(),
		FinishReason: last.DoneReason,
		InputTokens:  in,
		OutputTokens: out,
	}, nil
}

func wrapError(ctx context.Context, err error) error {
	var statusErr api.StatusError
	if errors.As(err, &statusErr) {
		metrics.IncError(Provider, "http_status")
		msg := statusErr.ErrorMessage
		if msg == "" {
			msg = statusErr.Status
		}
		return fmt.Errorf("ollama: chat: %w", &HTTPStatusError{StatusCode: statusErr.StatusCode, Message: msg})
	}

	metrics.IncError(Provider, "http_do")
	if ctxErr := ctx.Err(); ctxErr != nil && !errors.Is(err, ctxErr) {
		return fmt.Errorf("ollama: chat: %w: %w", ctxErr, err)
	}
	return fmt.Errorf("ollama: chat: %w", err)
}
