package main

import (
	"context"

	"github.com/aretw0/teiinfo/internal/cli"
	"github.com/spf13/cobra"
)

var validateCmd = &cobra.Command{
	Use:   "validate <schema> [id...]",
	Short: "Validate documents against a RELAX NG schema with jing",
	Long: `Validates the given documents, or the whole corpus, with jing.
The command exits with status 1 when any document is invalid.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(ctx context.Context, app *cli.App) error {
			return cli.RunValidate(ctx, app, cmd.OutOrStdout(), args[0], args[1:])
		})
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
}
