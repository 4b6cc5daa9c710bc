package main

import (
	"context"

	"github.com/aretw0/teiinfo/internal/cli"
	"github.com/spf13/cobra"
)

var iiifCmd = &cobra.Command{
	Use:   "iiif",
	Short: "Write IIIF manifests and a Mirador viewer for the page scans",
	RunE: func(cmd *cobra.Command, args []string) error {
		var opts cli.IIIFOptions
		opts.Config, _ = cmd.Flags().GetString("iiif-config")
		opts.ScanDir, _ = cmd.Flags().GetString("scans")
		opts.OutDir, _ = cmd.Flags().GetString("out")
		opts.Args, _ = cmd.Flags().GetStringToString("arg")
		opts.Placeholder, _ = cmd.Flags().GetBool("placeholder")
		opts.Publish, _ = cmd.Flags().GetBool("publish")
		return withApp(cmd, func(ctx context.Context, app *cli.App) error {
			return cli.RunIIIF(ctx, app, cmd.OutOrStdout(), opts)
		})
	},
}

var scanInfoCmd = &cobra.Command{
	Use:   "scaninfo <scan-dir>",
	Short: "Measure page and cover scans and write the sizes_*.tsv reports",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		report, _ := cmd.Flags().GetString("report")
		force, _ := cmd.Flags().GetBool("force")
		return withApp(cmd, func(ctx context.Context, app *cli.App) error {
			return cli.RunScanInfo(ctx, app, cmd.OutOrStdout(), args[0], report, force)
		})
	},
}

var mergeIntroCmd = &cobra.Command{
	Use:   "merge-intro <file.xml>...",
	Short: "Merge the bodies of several TEI intro texts into one document",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		out, _ := cmd.Flags().GetString("out")
		return cli.RunMergeIntro(cmd.OutOrStdout(), out, args)
	},
}

func init() {
	rootCmd.AddCommand(iiifCmd, scanInfoCmd, mergeIntroCmd)

	iiifCmd.Flags().String("iiif-config", "", "Path of iiif.yaml (default: iiif.config)")
	iiifCmd.Flags().String("scans", "", "Scan directory with pages/ and covers/")
	iiifCmd.Flags().StringP("out", "o", "", "Output directory")
	iiifCmd.Flags().StringToString("arg", nil, "Values for [[name]] markers, as name=value")
	iiifCmd.Flags().Bool("placeholder", false, "Write a filenotfound image for missing scans")
	iiifCmd.Flags().Bool("publish", false, "Upload the manifests to the configured S3 bucket")

	scanInfoCmd.Flags().String("report", "report", "Directory for the sizes_*.tsv reports")
	scanInfoCmd.Flags().BoolP("force", "f", false, "Measure even when the reports are up to date")

	mergeIntroCmd.Flags().StringP("out", "o", "", "Output file (default: stdout)")
}
