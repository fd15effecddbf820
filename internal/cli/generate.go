package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"uigen/internal/config"
	"uigen/internal/domain"
	"uigen/internal/usecase"
)

type generateOptions struct {
	model   string
	request string
	raw     bool
}

type requestBody struct {
	Model    string               `json:"model"`
	Messages []domain.ChatMessage `json:"messages"`
}

func (c *cli) generateCommand() *cobra.Command {
	var opts generateOptions

	cmd := &cobra.Command{
		Use:   "generate [prompt...]",
		Short: "Generate a single React component and print it.",
		Long: `Generate sends one conversation to the configured provider and prints the
resulting component. The prompt words become a single user message; use
--request to send a full request body (model and messages) instead.`,
		Example: `  uigen generate --model gpt-4o "a login form with remember me"
  uigen generate --request conversation.json --raw > Login.tsx`,
		RunE: func(cmd *cobra.Command, args []string) error {
			payload, err := opts.payload(cmd.InOrStdin(), args)
			if err != nil {
				return err
			}

			a, err := c.newApp(cmd.Context(), cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			out, err := a.Service.Generate(cmd.Context(), usecase.GenerateInput{Payload: payload})
			if err != nil {
				cl := usecase.Classify(err)
				return fmt.Errorf("%s (%d %s): %s", cl.Error, cl.Status, cl.Code, cl.Details)
			}

			if opts.raw {
				_, err = fmt.Fprintln(cmd.OutOrStdout(), out.Source)
				return err
			}
			rendered, err := c.deps.Render("```tsx\n" + out.Source + "\n```\n")
			if err != nil {
				return fmt.Errorf("render output: %w", err)
			}
			_, err = fmt.Fprint(cmd.OutOrStdout(), rendered)
			return err
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&opts.model, "model", "m", "", "Model identifier sent to the provider.")
	flags.StringVar(&opts.request, "request", "", `JSON request body file, or "-" for stdin.`)
	flags.BoolVar(&opts.raw, "raw", false, "Print the source without terminal formatting.")
	flags.Int("max-tokens", 0, fmt.Sprintf("Output token cap. (env: %s_LLM_MAX_TOKENS)", config.EnvPrefix))
	flags.Float64("temperature", 0, fmt.Sprintf("Sampling temperature. (env: %s_LLM_TEMPERATURE)", config.EnvPrefix))

	c.bind(flags, map[string]string{
		config.KeyLLMMaxTokens:   "max-tokens",
		config.KeyLLMTemperature: "temperature",
	})
	return cmd
}

// payload builds the request body. The pipeline validates it exactly as it
// would an HTTP body.
func (o generateOptions) payload(stdin io.Reader, args []string) ([]byte, error) {
	if o.request != "" {
		if len(args) > 0 || o.model != "" {
			return nil, errors.New("--request cannot be combined with --model or a prompt")
		}
		if o.request == "-" {
			return io.ReadAll(stdin)
		}
		return os.ReadFile(o.request)
	}

	prompt := strings.TrimSpace(strings.Join(args, " "))
	if prompt == "" {
		return nil, errors.New("a prompt or --request is required")
	}
	if o.model == "" {
		return nil, errors.New("--model is required")
	}
	return json.Marshal(requestBody{
		Model:    o.model,
		Messages: []domain.ChatMessage{{Role: domain.RoleUser, Content: prompt}},
	})
}
