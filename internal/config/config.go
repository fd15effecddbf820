package config

import (
	"errors"
	"fmt"
	"net"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const EnvPrefix = "UIGEN"

// Configuration keys. Each maps to UIGEN_<KEY> with dots replaced by underscores.
const (
	KeyConfigFile          = "config"
	KeyServerHost          = "server.host"
	KeyServerPort          = "server.port"
	KeyServerReadTimeout   = "server.read_timeout"
	KeyServerWriteTimeout  = "server.write_timeout"
	KeyServerMaxBodyBytes  = "server.max_body_bytes"
	KeyServerAllowedOrigin = "server.allowed_origins"
	KeyAuthToken           = "auth.token"
	KeyLLMProvider         = "llm.provider"
	KeyLLMBaseURL          = "llm.base_url"
	KeyLLMAPIKey           = "llm.api_key"
	KeyLLMParamPrefix      = "llm.param_prefix"
	KeyLLMRegion           = "llm.region"
	KeyLLMTimeout          = "llm.timeout"
	KeyLLMMaxTokens        = "llm.max_tokens"
	KeyLLMTemperature      = "llm.temperature"
	KeyLLMAllowedModels    = "llm.allowed_models"
	KeyCatalogPath         = "catalog.path"
	KeyLogLevel            = "log.level"
	KeyLogFormat           = "log.format"
	KeyMetricsEnabled      = "metrics.enabled"
)

const (
	ProviderOpenAI = "openai"
	ProviderOllama = "ollama"
)

var Providers = []string{ProviderOpenAI, ProviderOllama}

type Config struct {
	Server  ServerConfig
	Auth    AuthConfig
	LLM     LLMConfig
	Catalog CatalogConfig
	Log     LogConfig
	Metrics MetricsConfig
}

type ServerConfig struct {
	Host           string
	Port           int
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	MaxBodyBytes   int64
	AllowedOrigins []string
}

// Addr is the listen address in host:port form.
func (s ServerConfig) Addr() string {
	return net.JoinHostPort(s.Host, strconv.Itoa(s.Port))
}

type AuthConfig struct {
	// Token, when set, must be presented as a bearer token on generation routes.
	Token string
}

type LLMConfig struct {
	Provider      string
	BaseURL       string
	APIKey        string
	ParamPrefix   string
	Region        string
	Timeout       time.Duration
	MaxTokens     int
	Temperature   float64
	AllowedModels []string
}

type CatalogConfig struct {
	Path string
}

type LogConfig struct {
	Level  string
	Format string
}

type MetricsConfig struct {
	Enabled bool
}

// SetDefaults registers every key with its default value.
func SetDefaults(v *viper.Viper) {
	v.SetDefault(KeyServerHost, "0.0.0.0")
	v.SetDefault(KeyServerPort, 8080)
	v.SetDefault(KeyServerReadTimeout, 30*time.Second)
	v.SetDefault(KeyServerWriteTimeout, 150*time.Second)
	v.SetDefault(KeyServerMaxBodyBytes, int64(1<<20))
	v.SetDefault(KeyServerAllowedOrigin, []string{"*"})
	v.SetDefault(KeyAuthToken, "")
	v.SetDefault(KeyLLMProvider, ProviderOpenAI)
	v.SetDefault(KeyLLMBaseURL, "")
	v.SetDefault(KeyLLMAPIKey, "")
	v.SetDefault(KeyLLMParamPrefix, "")
	v.SetDefault(KeyLLMRegion, "")
	v.SetDefault(KeyLLMTimeout, 120*time.Second)
	v.SetDefault(KeyLLMMaxTokens, 6000)
	v.SetDefault(KeyLLMTemperature, 0.9)
	v.SetDefault(KeyLLMAllowedModels, []string{})
	v.SetDefault(KeyCatalogPath, "")
	v.SetDefault(KeyLogLevel, "info")
	v.SetDefault(KeyLogFormat, "json")
	v.SetDefault(KeyMetricsEnabled, true)
}

// New returns a viper instance with defaults and UIGEN_ environment binding.
func New() *viper.Viper {
	v := viper.New()
	SetDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// Load reads the optional config file named by the "config" key and returns
// the validated configuration.
func Load(v *viper.Viper) (Config, error) {
	if path := strings.TrimSpace(v.GetString(KeyConfigFile)); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("config: read %s: %w", path, err)
		}
	}

	cfg := Config{
		Server: ServerConfig{
			Host:           v.GetString(KeyServerHost),
			Port:           v.GetInt(KeyServerPort),
			ReadTimeout:    v.GetDuration(KeyServerReadTimeout),
			WriteTimeout:   v.GetDuration(KeyServerWriteTimeout),
			MaxBodyBytes:   v.GetInt64(KeyServerMaxBodyBytes),
			AllowedOrigins: splitList(v.GetStringSlice(KeyServerAllowedOrigin)),
		},
		Auth: AuthConfig{
			Token: strings.TrimSpace(v.GetString(KeyAuthToken)),
		},
		LLM: LLMConfig{
			Provider:      strings.ToLower(strings.TrimSpace(v.GetString(KeyLLMProvider))),
			BaseURL:       strings.TrimSpace(v.GetString(KeyLLMBaseURL)),
			APIKey:        strings.TrimSpace(v.GetString(KeyLLMAPIKey)),
			ParamPrefix:   strings.TrimSpace(v.GetString(KeyLLMParamPrefix)),
			Region:        strings.TrimSpace(v.GetString(KeyLLMRegion)),
			Timeout:       v.GetDuration(KeyLLMTimeout),
			MaxTokens:     v.GetInt(KeyLLMMaxTokens),
			Temperature:   v.GetFloat64(KeyLLMTemperature),
			AllowedModels: splitList(v.GetStringSlice(KeyLLMAllowedModels)),
		},
		Catalog: CatalogConfig{
			Path: strings.TrimSpace(v.GetString(KeyCatalogPath)),
		},
		Log: LogConfig{
			Level:  strings.ToLower(strings.TrimSpace(v.GetString(KeyLogLevel))),
			Format: strings.ToLower(strings.TrimSpace(v.GetString(KeyLogFormat))),
		},
		Metrics: MetricsConfig{
			Enabled: v.GetBool(KeyMetricsEnabled),
		},
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	var errs []error
	if !slices.Contains(Providers, c.LLM.Provider) {
		errs = append(errs, fmt.Errorf("%s: invalid provider %q, valid providers are %v", KeyLLMProvider, c.LLM.Provider, Providers))
	}
	if c.LLM.Timeout <= 0 {
		errs = append(errs, fmt.Errorf("%s: must be positive", KeyLLMTimeout))
	}
	if c.LLM.MaxTokens <= 0 {
		errs = append(errs, fmt.Errorf("%s: must be positive", KeyLLMMaxTokens))
	}
	if c.LLM.Temperature < 0 || c.LLM.Temperature > 2 {
		errs = append(errs, fmt.Errorf("%s: must be between 0 and 2", KeyLLMTemperature))
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("%s: out of range", KeyServerPort))
	}
	if c.Server.MaxBodyBytes <= 0 {
		errs = append(errs, fmt.Errorf("%s: must be positive", KeyServerMaxBodyBytes))
	}
	if c.Log.Format != "json" && c.Log.Format != "text" {
		errs = append(errs, fmt.Errorf("%s: must be json or text", KeyLogFormat))
	}
	if len(errs) > 0 {
		return fmt.Errorf("config: %w", errors.Join(errs...))
	}
	return nil
}

// splitList accepts both YAML lists and comma-separated environment values.
func splitList(in []string) []string {
	var out []string
	for _, item := range in {
		for _, part := range strings.Split(item, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}
