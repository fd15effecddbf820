package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"uigen/internal/app"
	"uigen/internal/config"
)

func (c *cli) catalogCommand() *cobra.Command {
	var asYAML bool

	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "List the components offered to the model.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(c.v)
			if err != nil {
				return err
			}
			cat, err := app.LoadCatalog(cfg.Catalog.Path)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if asYAML {
				enc := yaml.NewEncoder(out)
				enc.SetIndent(2)
				if err := enc.Encode(map[string]any{"components": cat.Components()}); err != nil {
					return err
				}
				return enc.Close()
			}

			tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "NAME\tIMPORT")
			for _, d := range cat.Components() {
				fmt.Fprintf(tw, "%s\t%s\n", d.Name, d.ImportContract)
			}
			return tw.Flush()
		},
	}
	cmd.Flags().BoolVar(&asYAML, "yaml", false, "Print the catalog as a YAML document accepted by --catalog.")
	return cmd
}
