package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/diogo/agi/internal/views"
)

func newViewsCmd(deps *Dependencies) *cobra.Command {
	return &cobra.Command{
		Use:   "views",
		Short: "List the interface views",
		Long:  `List the content views of the interactive interface in navigation order.`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			for i, v := range views.All() {
				page, _ := views.PageFor(v)
				fmt.Fprintf(deps.Stdout, "%d  %-13s %-12s %s\n", i+1, v, page.NavLabel, page.Title)
			}
			return nil
		},
	}
}
