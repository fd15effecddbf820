package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/charmbracelet/glamour"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"uigen/internal/app"
	"uigen/internal/config"
	"uigen/internal/usecase"
)

// Deps lets callers replace the provider client and renderer.
type Deps struct {
	// Completer, when set, is used instead of the configured provider.
	Completer usecase.Completer
	// Render formats markdown for the terminal. Defaults to glamour's dark style.
	Render func(markdown string) (string, error)
}

func renderMarkdown(markdown string) (string, error) {
	return glamour.Render(markdown, "dark")
}

type cli struct {
	v    *viper.Viper
	deps Deps
}

// NewRootCommand builds the uigen command tree.
func NewRootCommand(deps Deps) *cobra.Command {
	if deps.Render == nil {
		deps.Render = renderMarkdown
	}
	c := &cli{v: config.New(), deps: deps}

	root := &cobra.Command{
		Use:           "uigen",
		Short:         "Generate React UI components from a conversation using an LLM.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags := root.PersistentFlags()
	flags.String("config", "", fmt.Sprintf("Path to a YAML config file. (env: %s_CONFIG)", config.EnvPrefix))
	flags.String("provider", "", fmt.Sprintf("LLM provider, one of %v. (env: %s_LLM_PROVIDER)", config.Providers, config.EnvPrefix))
	flags.String("base-url", "", fmt.Sprintf("Provider endpoint override. (env: %s_LLM_BASE_URL)", config.EnvPrefix))
	flags.Duration("timeout", 0, fmt.Sprintf("Timeout for the completion call. (env: %s_LLM_TIMEOUT)", config.EnvPrefix))
	flags.String("catalog", "", fmt.Sprintf("YAML component catalog replacing the built-in one. (env: %s_CATALOG_PATH)", config.EnvPrefix))
	flags.String("log-level", "", fmt.Sprintf("Log level: debug, info, warn, error. (env: %s_LOG_LEVEL)", config.EnvPrefix))
	flags.String("log-format", "", fmt.Sprintf("Log format: json or text. (env: %s_LOG_FORMAT)", config.EnvPrefix))

	c.bind(flags, map[string]string{
		config.KeyConfigFile:  "config",
		config.KeyLLMProvider: "provider",
		config.KeyLLMBaseURL:  "base-url",
		config.KeyLLMTimeout:  "timeout",
		config.KeyCatalogPath: "catalog",
		config.KeyLogLevel:    "log-level",
		config.KeyLogFormat:   "log-format",
	})

	root.AddCommand(
		c.serveCommand(),
		c.generateCommand(),
		c.catalogCommand(),
	)
	return root
}

// bind maps configuration keys to flags. Only flags set on the command line
// override environment and file values.
func (c *cli) bind(flags *pflag.FlagSet, keys map[string]string) {
	for key, name := range keys {
		_ = c.v.BindPFlag(key, flags.Lookup(name))
	}
}

// newApp loads configuration and wires the service. Logs go to logOut so
// they never mix with generated source on stdout.
func (c *cli) newApp(ctx context.Context, logOut io.Writer) (*app.App, error) {
	cfg, err := config.Load(c.v)
	if err != nil {
		return nil, err
	}
	return app.New(ctx, cfg, app.NewLogger(cfg.Log, logOut), c.deps.Completer)
}

// Execute runs the root command with the process arguments.
func Execute(ctx context.Context) error {
	return NewRootCommand(Deps{}).ExecuteContext(ctx)
}
