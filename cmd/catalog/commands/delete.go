package commands

import (
	"encoding/json"

	"github.com/spf13/cobra"

	"github.com/Lixing-Zhang/product-catalog/cmd/catalog/output"
)

func newDeleteCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "delete ID",
		Short: "Delete a product",
		Long: `Delete a product. Unknown ids are reported by the server.

Examples:
  catalog delete 7`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			if err := opts.catalog.Delete(cmd.Context(), id, nil); err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			if opts.jsonOutput {
				return json.NewEncoder(w).Encode(map[string]int64{"deleted": id})
			}
			output.Success(w, "Deleted product %d", id)
			return nil
		},
	}
}
