package openai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	sdk "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"uigen/internal/domain"
	"uigen/internal/metrics"
)

const (
	Provider = "openai"

	defaultBaseURL = "https://api.openai.com/v1"
	defaultTimeout = 120 * time.Second
)

// tokenPayload is the expected JSON shape stored in SSM for the API token.
type tokenPayload struct {
	Token string `json:"token"`
}

// Getter is the interface that wraps GetParameter.
// *paramstore.Client satisfies it; tests use in-memory fakes.
type Getter interface {
	GetParameter(ctx context.Context, name string) (string, error)
}

// HTTPStatusError captures non-2xx upstream responses with status-aware context.
type HTTPStatusError struct {
	StatusCode int
	URL        string
	Body       string
}

func (e *HTTPStatusError) Error() string {
	return fmt.Sprintf("openai: unexpected status %d from %s: %s", e.StatusCode, e.URL, e.Body)
}

func (e *HTTPStatusError) HTTPStatusCode() int {
	return e.StatusCode
}

// chatCompleter is the subset of the SDK's chat completion service used here.
type chatCompleter interface {
	New(ctx context.Context, body sdk.ChatCompletionNewParams, opts ...option.RequestOption) (*sdk.ChatCompletion, error)
}

// Client performs single-attempt chat completions against an
// OpenAI-compatible endpoint.
type Client struct {
	baseURL     string
	httpClient  *http.Client
	timeout     time.Duration
	apiKey      string
	getter      Getter
	paramPrefix string

	// mu guards completions, which is set only after a successful key lookup.
	mu          sync.Mutex
	completions chatCompleter
}

// Option configures a Client.
type Option func(*Client)

func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		if baseURL = strings.TrimSpace(baseURL); baseURL != "" {
			c.baseURL = baseURL
		}
	}
}

func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// WithTimeout bounds every completion call, including reading the response.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithAPIKey sets the key directly; Parameter Store is not consulted.
func WithAPIKey(key string) Option {
	return func(c *Client) {
		c.apiKey = strings.TrimSpace(key)
	}
}

// WithParamStore reads the API key from "<prefix>/llm-api-key" when no key is
// configured directly. The value is fetched on the first call and, once the
// lookup succeeds, reused for the lifetime of the process.
func WithParamStore(getter Getter, prefix string) Option {
	return func(c *Client) {
		c.getter = getter
		c.paramPrefix = strings.TrimRight(strings.TrimSpace(prefix), "/")
	}
}

// NewClient creates a Client with the given options applied. Either WithAPIKey
// or WithParamStore must supply a key source; the endpoint defaults to the
// public OpenAI API with a 120s timeout.
func NewClient(opts ...Option) (*Client, error) {
	c := &Client{
		baseURL: defaultBaseURL,
		timeout: defaultTimeout,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.apiKey == "" {
		if c.getter == nil {
			return nil, errors.New("openai: api key or paramstore getter must be set")
		}
		if c.paramPrefix == "" {
			return nil, errors.New("openai: parameter prefix must not be empty")
		}
	}
	return c, nil
}

func (c *Client) tokenParameterName() string {
	return c.paramPrefix + "/llm-api-key"
}

// resolveAPIKey returns the configured key, or fetches it from SSM.
func (c *Client) resolveAPIKey(ctx context.Context) (string, error) {
	if c.apiKey != "" {
		return c.apiKey, nil
	}
	return fetchAPIKeyFromParamStore(ctx, c.getter, c.tokenParameterName())
}

// completer builds the SDK client on first use. A failed key lookup is not
// cached, so the next request retries it. The lookup runs detached from the
// caller's cancellation and bounded by the client timeout.
func (c *Client) completer(ctx context.Context) (chatCompleter, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.completions != nil {
		return c.completions, nil
	}

	lookupCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.timeout)
	defer cancel()
	apiKey, err := c.resolveAPIKey(lookupCtx)
	if err != nil {
		return nil, err
	}

	opts := []option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithBaseURL(apiBaseURL(c.baseURL)),
		option.WithMaxRetries(0),
	}
	if c.httpClient != nil {
		opts = append(opts, option.WithHTTPClient(c.httpClient))
	}
	client := sdk.NewClient(opts...)
	c.completions = &client.Chat.Completions
	return c.completions, nil
}

// apiBaseURL normalises a configured endpoint to the SDK's base URL form,
// which must end in "/v1/".
func apiBaseURL(baseURL string) string {
	base := strings.TrimRight(baseURL, "/")
	if base == "" {
		base = defaultBaseURL
	}
	if strings.HasSuffix(base, "/v1") {
		return base + "/"
	}
	return base + "/v1/"
}

func toSDKMessages(messages []domain.ChatMessage) []sdk.ChatCompletionMessageParamUnion {
	out := make([]sdk.ChatCompletionMessageParamUnion, 0, len(messages))
	for _, msg := range messages {
		switch msg.Role {
		case domain.RoleSystem:
			out = append(out, sdk.SystemMessage(msg.Content))
		case domain.RoleAssistant:
			out = append(out, sdk.AssistantMessage(msg.Content))
		default:
			out = append(out, sdk.UserMessage(msg.Content))
		}
	}
	return out
}

// Complete sends one non-streaming chat completion. The SDK retry policy is
// disabled, so a failure is returned as-is after a single attempt.
func (c *Client) Complete(ctx context.Context, req domain.CompletionRequest) (domain.Completion, error) {
	if req.Model == "" {
		return domain.Completion{}, errors.New("openai: model must not be empty")
	}

	completions, err := c.completer(ctx)
	if err != nil {
		metrics.IncError(Provider, "api_key")
		return domain.Completion{}, err
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	metrics.IncLLMRequest(Provider)
	start := time.Now()
	res, err := completions.New(ctx, sdk.ChatCompletionNewParams{
		Model:       req.Model,
		Messages:    toSDKMessages(req.Messages),
		Temperature: sdk.Float(req.Temperature),
		MaxTokens:   sdk.Int(int64(req.MaxTokens)),
		N:           sdk.Int(1),
	})
	metrics.ObserveLLMDuration(Provider, time.Since(start))
	if err != nil {
		return domain.Completion{}, c.wrapError(ctx, err)
	}

	if len(res.Choices) == 0 {
		metrics.IncError(Provider, "no_choices")
		return domain.Completion{}, errors.New("openai: no choices in response")
	}
	metrics.AddTokens(Provider, res.Usage.PromptTokens, res.Usage.CompletionTokens)

	choice := res.Choices[0]
	return domain.Completion{
		Content:      choice.Message.Content,
		FinishReason: string(choice.FinishReason),
		InputTokens:  res.Usage.PromptTokens,
		OutputTokens: res.Usage.CompletionTokens,
	}, nil
}

func (c *Client) wrapError(ctx context.Context, err error) error {
	var apiErr *sdk.Error
	if errors.As(err, &apiErr) {
		metrics.IncError(Provider, "http_status")
		statusErr := &HTTPStatusError{StatusCode: apiErr.StatusCode, Body: apiErr.Message}
		if apiErr.Request != nil && apiErr.Request.URL != nil {
			statusErr.URL = apiErr.Request.URL.String()
		}
		if statusErr.Body == "" {
			statusErr.Body = apiErr.Error()
		}
		return fmt.Errorf("openai: request failed: %w", statusErr)
	}

	metrics.IncError(Provider, "http_do")
	if ctxErr := ctx.Err(); ctxErr != nil && !errors.Is(err, ctxErr) {
		return fmt.Errorf("openai: request failed: %w: %w", ctxErr, err)
	}
	return fmt.Errorf("openai: request failed: %w", err)
}

func fetchAPIKeyFromParamStore(ctx context.Context, getter Getter, name string) (string, error) {
	if getter == nil {
		return "", errors.New("openai: paramstore getter is nil")
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return "", errors.New("openai: token parameter name is empty")
	}

	raw, err := getter.GetParameter(ctx, name)
	if err != nil {
		return "", fmt.Errorf("openai: fetch token from paramstore: %w", err)
	}
	var tp tokenPayload
	if err := json.Unmarshal([]byte(raw), &tp); err != nil {
		return "", fmt.Errorf("openai: unmarshal paramstore token value as JSON: %w", err)
	}
	if tp.Token == "" {
		return "", fmt.Errorf("openai: API token is empty")
	}
	return tp.Token, nil
}
