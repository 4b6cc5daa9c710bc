package main

import (
	"context"

	"github.com/aretw0/teiinfo/internal/cli"
	"github.com/spf13/cobra"
)

var inventoryCmd = &cobra.Command{
	Use:   "inventory",
	Short: "Count elements, attributes and page breaks across the corpus",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(ctx context.Context, app *cli.App) error {
			return cli.RunInventory(ctx, app, cmd.OutOrStdout())
		})
	},
}

var headerCmd = &cobra.Command{
	Use:   "header [id...]",
	Short: "Print the teiHeader metadata of documents (all when no id is given)",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(ctx context.Context, app *cli.App) error {
			return cli.RunHeader(ctx, app, cmd.OutOrStdout(), args)
		})
	},
}

var queryCmd = &cobra.Command{
	Use:   "query <xpath> [id...]",
	Short: "Evaluate an XPath 1.0 expression; the tei: prefix is bound",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")
		return withApp(cmd, func(ctx context.Context, app *cli.App) error {
			return cli.RunQuery(ctx, app, cmd.OutOrStdout(), args[0], args[1:], limit)
		})
	},
}

var textCmd = &cobra.Command{
	Use:   "text <id>",
	Short: "Print the normalised plain text of a document",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(ctx context.Context, app *cli.App) error {
			return cli.RunText(ctx, app, cmd.OutOrStdout(), args[0])
		})
	},
}

func init() {
	rootCmd.AddCommand(inventoryCmd, headerCmd, queryCmd, textCmd)
	queryCmd.Flags().IntP("limit", "n", 0, "Maximum number of matches (0: all)")
}
