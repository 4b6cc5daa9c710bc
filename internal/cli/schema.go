package cli

import (
	"context"
	"io"

	"github.com/aretw0/teiinfo/internal/presentation/report"
	"github.com/aretw0/teiinfo/pkg/domain"
)

// RunAnalyze classifies the elements of a schema and archives the result when
// an archive is configured.
func RunAnalyze(ctx context.Context, app *App, w io.Writer, path string) error {
	analysis, err := app.Toolkit.AnalyzeSchema(ctx, path)
	if err != nil {
		return err
	}
	if app.Archive != nil {
		id, err := app.Archive.SaveAnalysis(ctx, analysis)
		if err != nil {
			return err
		}
		app.Logger.Info("Analysis archived", "id", id)
	}

	out := struct {
		Schema   string              `json:"schema"`
		Checksum string              `json:"checksum"`
		Mixed    []string            `json:"mixed"`
		Pure     []string            `json:"pure"`
		Elements []domain.ElementDef `json:"elements"`
	}{analysis.Schema, analysis.Checksum, analysis.Mixed(), analysis.Pure(), analysis.Elements}
	return app.emit(w, out, func() string { return report.Analysis(analysis) })
}

// RunCompare reports how a customisation reclassifies the elements of its base.
func RunCompare(ctx context.Context, app *App, w io.Writer, base, override string) error {
	diff, err := app.Toolkit.CompareSchemas(ctx, base, override)
	if err != nil {
		return err
	}
	return app.emit(w, diff, func() string { return report.Diff(base, override, diff) })
}

// RunConvert converts a RELAX NG schema to XSD with trang.
func RunConvert(ctx context.Context, app *App, w io.Writer, rng, outDir string) error {
	xsd, err := app.Toolkit.ConvertSchema(ctx, rng, outDir)
	if err != nil {
		return err
	}
	if app.JSON {
		return app.emit(w, map[string]string{"schema": rng, "xsd": xsd}, nil)
	}
	printSystemMessage(w, "Wrote %s", xsd)
	return nil
}
