package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"uigen/internal/catalog"
	"uigen/internal/config"
	"uigen/internal/integrations/ollama"
	"uigen/internal/integrations/openai"
	"uigen/internal/integrations/paramstore"
	"uigen/internal/usecase"
)

// App holds the wired dependencies shared by the CLI, the HTTP server and
// the Lambda entrypoint.
type App struct {
	Config  config.Config
	Logger  *slog.Logger
	Catalog *catalog.Catalog
	Service *usecase.GenerateService
}

// NewLogger builds the process logger from the log settings.
func NewLogger(cfg config.LogConfig, w io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{Level: parseLevel(cfg.Level)}
	if cfg.Format == "text" {
		return slog.New(slog.NewTextHandler(w, opts))
	}
	return slog.New(slog.NewJSONHandler(w, opts))
}

func parseLevel(s string) slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return slog.LevelInfo
	}
	return level
}

// LoadCatalog returns the catalog at path, or the built-in one when path is empty.
func LoadCatalog(path string) (*catalog.Catalog, error) {
	if path == "" {
		return catalog.Builtin()
	}
	return catalog.Load(path)
}

// ParamGetterFactory builds the Parameter Store client used for API key lookup.
type ParamGetterFactory func(ctx context.Context, region string) (openai.Getter, error)

func defaultParamGetter(ctx context.Context, region string) (openai.Getter, error) {
	return paramstore.NewFromEnvironment(ctx, region)
}

// NewCompleter returns the completion client for the configured provider.
func NewCompleter(ctx context.Context, cfg config.LLMConfig, params ParamGetterFactory) (usecase.Completer, error) {
	switch cfg.Provider {
	case config.ProviderOpenAI:
		opts := []openai.Option{
			openai.WithBaseURL(cfg.BaseURL),
			openai.WithTimeout(cfg.Timeout),
			openai.WithAPIKey(cfg.APIKey),
		}
		if cfg.APIKey == "" {
			if cfg.ParamPrefix == "" {
				return nil, errors.New("app: llm.api_key or llm.param_prefix is required for the openai provider")
			}
			if params == nil {
				params = defaultParamGetter
			}
			getter, err := params(ctx, cfg.Region)
			if err != nil {
				return nil, fmt.Errorf("app: create paramstore client: %w", err)
			}
			opts = append(opts, openai.WithParamStore(getter, cfg.ParamPrefix))
		}
		return openai.NewClient(opts...)
	case config.ProviderOllama:
		return ollama.NewClient(
			ollama.WithBaseURL(cfg.BaseURL),
			ollama.WithTimeout(cfg.Timeout),
		)
	default:
		return nil, fmt.Errorf("app: %s: invalid provider", cfg.Provider)
	}
}

// New wires the generation service from cfg. A nil completer selects the
// configured provider.
func New(ctx context.Context, cfg config.Config, logger *slog.Logger, llm usecase.Completer) (*App, error) {
	if logger == nil {
		logger = slog.Default()
	}

	cat, err := LoadCatalog(cfg.Catalog.Path)
	if err != nil {
		return nil, fmt.Errorf("app: load catalog: %w", err)
	}

	if llm == nil {
		llm, err = NewCompleter(ctx, cfg.LLM, nil)
		if err != nil {
			return nil, err
		}
	}

	svc, err := usecase.NewGenerateService(llm, cat,
		usecase.WithLogger(logger),
		usecase.WithTemperature(cfg.LLM.Temperature),
		usecase.WithMaxTokens(cfg.LLM.MaxTokens),
		usecase.WithAllowedModels(cfg.LLM.AllowedModels...),
	)
	if err != nil {
		return nil, fmt.Errorf("app: create generate service: %w", err)
	}

	logger.Info("generation service ready",
		"provider", cfg.LLM.Provider,
		"components", cat.Len(),
		"max_tokens", cfg.LLM.MaxTokens,
		"timeout", cfg.LLM.Timeout.String(),
	)

	return &App{
		Config:  cfg,
		Logger:  logger,
		Catalog: cat,
		Service: svc,
	}, nil
}
