package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/aretw0/teiinfo/internal/cli"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "teiinfo",
	Short: "teiinfo inspects TEI corpora and their schemas",
	Long: `teiinfo reads a corpus of TEI XML files, classifies the elements of XML
schemas as mixed or pure content, validates documents with jing and writes
IIIF manifests for the scanned pages of an edition.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		if !errors.Is(err, cli.ErrInvalid) {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		} else {
			fmt.Fprintln(os.Stderr, err)
		}
		os.Exit(1)
	}
}

func init() {
	// Persistent flags (available to all commands)
	rootCmd.PersistentFlags().String("dir", "", "Directory containing the TEI corpus (overrides the config)")
	rootCmd.PersistentFlags().String("config", "", "Path of teiinfo.yaml (default: <dir>/teiinfo.yaml)")
	rootCmd.PersistentFlags().Bool("debug", false, "Enable debug logging")
	rootCmd.PersistentFlags().Bool("json", false, "Print JSON instead of Markdown")
}

func globalOptions(cmd *cobra.Command) cli.Options {
	dir, _ := cmd.Flags().GetString("dir")
	cfg, _ := cmd.Flags().GetString("config")
	debug, _ := cmd.Flags().GetBool("debug")
	jsonOut, _ := cmd.Flags().GetBool("json")
	return cli.Options{Dir: dir, ConfigPath: cfg, Debug: debug, JSON: jsonOut}
}

// withApp builds the application from the global flags, runs fn with a
// context cancelled on SIGINT/SIGTERM and releases the application.
func withApp(cmd *cobra.Command, fn func(ctx context.Context, app *cli.App) error) error {
	app, err := cli.NewApp(globalOptions(cmd))
	if err != nil {
		return err
	}
	defer app.Close()

	sigCtx := cli.NewSignalContext(cmd.Context())
	defer sigCtx.Cancel()

	err = fn(sigCtx, app)
	if sig := sigCtx.Signal(); sig != nil {
		app.Logger.Info("Interrupted", "signal", sig)
	}
	return err
}
