package commands

import (
	"github.com/spf13/cobra"

	"github.com/Lixing-Zhang/product-catalog/internal/tui"
)

func newUICmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "ui",
		Short: "Open the interactive product catalog",
		Long: `Open the interactive product catalog.

Keys:
  n        add a product
  e/enter  edit the selected product
  d        delete the selected product
  r        refresh (or try again after an error)
  q        quit`,
		Args:        cobra.NoArgs,
		Annotations: map[string]string{interactiveAnnotation: "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runUI(cmd, opts)
		},
	}
}

func runUI(cmd *cobra.Command, opts *rootOptions) error {
	return tui.Run(cmd.Context(), opts.catalog, opts.logger)
}
