package commands

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/Lixing-Zhang/product-catalog/cmd/catalog/output"
	"github.com/Lixing-Zhang/product-catalog/internal/client"
	"github.com/Lixing-Zhang/product-catalog/internal/models"
)

func newUpdateCmd(opts *rootOptions) *cobra.Command {
	var changes models.Draft

	cmd := &cobra.Command{
		Use:   "update ID",
		Short: "Update a product",
		Long: `Update a product. Fields without a flag keep their current value; the
product is sent to the server as a full replacement.

Examples:
  catalog update 7 --price 12.50
  catalog update 7 --name "Widget Pro" --category Gadgets`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}

			products, err := opts.catalog.Products(cmd.Context())
			if err != nil {
				return err
			}
			current, ok := findProduct(products, id)
			if !ok {
				return fmt.Errorf("product %d: %w", id, client.ErrNotFound)
			}

			draft := current.Draft()
			flags := cmd.Flags()
			if flags.Changed("name") {
				draft.Name = changes.Name
			}
			if flags.Changed("description") {
				draft.Description = changes.Description
			}
			if flags.Changed("price") {
				draft.Price = changes.Price
			}
			if flags.Changed("category") {
				draft.Category = changes.Category
			}

			if err := opts.catalog.Update(cmd.Context(), id, draft, nil); err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			if opts.jsonOutput {
				return json.NewEncoder(w).Encode(draft.WithID(id))
			}
			output.Success(w, "Updated product %d (%s)", id, draft.Name)
			return nil
		},
	}

	cmd.Flags().StringVar(&changes.Name, "name", "", "New product name")
	cmd.Flags().StringVar(&changes.Description, "description", "", "New description")
	cmd.Flags().Float64Var(&changes.Price, "price", 0, "New price")
	cmd.Flags().StringVar(&changes.Category, "category", "", "New category")

	return cmd
}

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid product id %q", s)
	}
	return id, nil
}

func findProduct(products []models.Product, id int64) (models.Product, bool) {
	for _, p := range products {
		if p.ID == id {
			return p, true
		}
	}
	return models.Product{}, false
}
