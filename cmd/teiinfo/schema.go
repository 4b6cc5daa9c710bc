package main

import (
	"context"

	"github.com/aretw0/teiinfo/internal/cli"
	"github.com/spf13/cobra"
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze <schema>",
	Short: "Classify the elements of an XSD (or RELAX NG) schema as mixed or pure",
	Long: `Reads an XML Schema, following includes, imports and redefines, and
reports which elements allow mixed content. RELAX NG schemas (.rng, .rnc) are
converted with trang first. Results are cached in the configured store.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(ctx context.Context, app *cli.App) error {
			return cli.RunAnalyze(ctx, app, cmd.OutOrStdout(), args[0])
		})
	},
}

var compareCmd = &cobra.Command{
	Use:   "compare <base> <customisation>",
	Short: "Report elements added, removed or reclassified by a customisation",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(ctx context.Context, app *cli.App) error {
			return cli.RunCompare(ctx, app, cmd.OutOrStdout(), args[0], args[1])
		})
	},
}

var convertCmd = &cobra.Command{
	Use:   "convert <schema.rng>",
	Short: "Convert a RELAX NG schema to XSD with trang",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		out, _ := cmd.Flags().GetString("out")
		return withApp(cmd, func(ctx context.Context, app *cli.App) error {
			return cli.RunConvert(ctx, app, cmd.OutOrStdout(), args[0], out)
		})
	},
}

func init() {
	rootCmd.AddCommand(analyzeCmd, compareCmd, convertCmd)
	convertCmd.Flags().StringP("out", "o", "xsd", "Output directory")
}
