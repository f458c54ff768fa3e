package commands

import (
	"encoding/json"

	"github.com/spf13/cobra"

	"github.com/Lixing-Zhang/product-catalog/cmd/catalog/output"
)

func newListCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all products",
		Long: `List all products in the order the server returns them.

Examples:
  catalog list
  catalog list --json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			products, err := opts.catalog.Products(cmd.Context())
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			if opts.jsonOutput {
				enc := json.NewEncoder(w)
				enc.SetIndent("", "  ")
				return enc.Encode(products)
			}

			if len(products) == 0 {
				output.Warning(w, "No products found")
				return nil
			}
			output.Products(w, products)
			output.Muted(w, "\n%d product(s)", len(products))
			return nil
		},
	}
}
