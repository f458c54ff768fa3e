package commands

import (
	"encoding/json"

	"github.com/spf13/cobra"

	"github.com/Lixing-Zhang/product-catalog/cmd/catalog/output"
	"github.com/Lixing-Zhang/product-catalog/internal/models"
)

func newCreateCmd(opts *rootOptions) *cobra.Command {
	var draft models.Draft

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a product",
		Long: `Create a product. The server assigns its id.

Examples:
  catalog create --name Widget --description "A widget" --price 9.99 --category Tools`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := opts.catalog.Create(cmd.Context(), draft, nil)
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			if opts.jsonOutput {
				return json.NewEncoder(w).Encode(draft.WithID(id))
			}
			output.Success(w, "Created product %d (%s)", id, draft.Name)
			return nil
		},
	}

	cmd.Flags().StringVar(&draft.Name, "name", "", "Product name")
	cmd.Flags().StringVar(&draft.Description, "description", "", "Product description")
	cmd.Flags().Float64Var(&draft.Price, "price", 0, "Price, non-negative")
	cmd.Flags().StringVar(&draft.Category, "category", "", "Product category")
	_ = cmd.MarkFlagRequired("name")
	_ = cmd.MarkFlagRequired("price")
	_ = cmd.MarkFlagRequired("category")

	return cmd
}
