package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sablepay/coffee-pos/pkg/pos"
)

func menuCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "menu",
		Short: "Print the menu",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, item := range pos.Menu() {
				fmt.Fprintf(cmd.OutOrStdout(), "%s %-10s %s\n", item.Emoji, item.Name, item.Price.StringFixed(2))
			}
			return nil
		},
	}
}
