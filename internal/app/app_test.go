package app

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"uigen/internal/config"
	"uigen/internal/domain"
	"uigen/internal/integrations/ollama"
	"uigen/internal/integrations/openai"
	"uigen/internal/usecase"
)

type stubCompleter struct{}

func (stubCompleter) Complete(context.Context, domain.CompletionRequest) (domain.Completion, error) {
	return domain.Completion{Content: "export default function A() {}"}, nil
}

type stubGetter struct{}

func (stubGetter) GetParameter(context.Context, string) (string, error) {
	return `{"token":"sk"}`, nil
}

func defaultConfig(t *testing.T) config.Config {
	t.Helper()
	cfg, err := config.Load(config.New())
	require.NoError(t, err)
	return cfg
}

func TestNewLogger_Format(t *testing.T) {
	var buf bytes.Buffer
	NewLogger(config.LogConfig{Level: "debug", Format: "json"}, &buf).Debug("hello", "k", "v")
	require.Contains(t, buf.String(), `"msg":"hello"`)

	buf.Reset()
	NewLogger(config.LogConfig{Level: "warn", Format: "text"}, &buf).Info("dropped")
	require.Empty(t, buf.String())
}

func TestParseLevel(t *testing.T) {
	require.Equal(t, slog.LevelError, parseLevel("error"))
	require.Equal(t, slog.LevelInfo, parseLevel("verbose"))
}

func TestLoadCatalog(t *testing.T) {
	cat, err := LoadCatalog("")
	require.NoError(t, err)
	require.Equal(t, 11, cat.Len())

	path := filepath.Join(t.TempDir(), "catalog.yaml")
	require.NoError(t, os.WriteFile(path, []byte("components:\n  - name: Switch\n    import: import { Switch }\n    usage: <Switch />\n"), 0o600))
	cat, err = LoadCatalog(path)
	require.NoError(t, err)
	require.Equal(t, 1, cat.Len())
}

func TestNewCompleter(t *testing.T) {
	c, err := NewCompleter(context.Background(), config.LLMConfig{Provider: config.ProviderOpenAI, APIKey: "sk", Timeout: time.Second}, nil)
	require.NoError(t, err)
	require.IsType(t, &openai.Client{}, c)

	c, err = NewCompleter(context.Background(), config.LLMConfig{Provider: config.ProviderOllama, Timeout: time.Second}, nil)
	require.NoError(t, err)
	require.IsType(t, &ollama.Client{}, c)

	_, err = NewCompleter(context.Background(), config.LLMConfig{Provider: config.ProviderOpenAI}, nil)
	require.ErrorContains(t, err, "llm.param_prefix")

	_, err = NewCompleter(context.Background(), config.LLMConfig{Provider: "bogus"}, nil)
	require.ErrorContains(t, err, "invalid provider")
}

func TestNewCompleter_ParamStore(t *testing.T) {
	var gotRegion string
	factory := func(_ context.Context, region string) (openai.Getter, error) {
		gotRegion = region
		return stubGetter{}, nil
	}
	c, err := NewCompleter(context.Background(), config.LLMConfig{
		Provider:    config.ProviderOpenAI,
		ParamPrefix: "/uigen",
		Region:      "eu-west-1",
	}, factory)
	require.NoError(t, err)
	require.NotNil(t, c)
	require.Equal(t, "eu-west-1", gotRegion)

	failing := func(context.Context, string) (openai.Getter, error) { return nil, errors.New("no credentials") }
	_, err = NewCompleter(context.Background(), config.LLMConfig{Provider: config.ProviderOpenAI, ParamPrefix: "/uigen"}, failing)
	require.ErrorContains(t, err, "no credentials")
}

func TestNew(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(config.LogConfig{Level: "info", Format: "json"}, &buf)

	a, err := New(context.Background(), defaultConfig(t), logger, stubCompleter{})
	require.NoError(t, err)
	require.NotNil(t, a.Service)
	require.Equal(t, 11, a.Catalog.Len())
	require.Contains(t, buf.String(), "generation service ready")

	out, err := a.Service.Generate(context.Background(), usecase.GenerateInput{
		Payload: []byte(`{"model":"gpt-4o","messages":[{"role":"user","content":"x"}]}`),
	})
	require.NoError(t, err)
	require.Equal(t, "export default function A() {}", out.Source)
}

func TestNew_BadCatalogPath(t *testing.T) {
	cfg := defaultConfig(t)
	cfg.Catalog.Path = filepath.Join(t.TempDir(), "missing.yaml")
	_, err := New(context.Background(), cfg, nil, stubCompleter{})
	require.ErrorContains(t, err, "load catalog")
}
