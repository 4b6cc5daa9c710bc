package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/aretw0/teiinfo"
	"github.com/aretw0/teiinfo/internal/presentation/report"
	"github.com/aretw0/teiinfo/pkg/iiif"
	"github.com/aretw0/teiinfo/pkg/intro"
	"github.com/aretw0/teiinfo/pkg/scans"
)

// IIIFOptions are the flags of the iiif command. Empty fields fall back to
// the iiif section of the configuration.
type IIIFOptions struct {
	Config      string
	ScanDir     string
	OutDir      string
	Args        map[string]string
	Placeholder bool
	Publish     bool
}

// RunIIIF writes the IIIF manifests of the corpus and optionally uploads them.
func RunIIIF(ctx context.Context, app *App, w io.Writer, opts IIIFOptions) error {
	cfg := app.Config.IIIF
	mo := teiinfo.ManifestOptions{
		Config:      firstOf(opts.Config, cfg.Config),
		ScanDir:     firstOf(opts.ScanDir, cfg.ScanDir),
		OutDir:      firstOf(opts.OutDir, cfg.OutDir),
		Args:        make(map[string]any, len(cfg.Args)+len(opts.Args)),
		Placeholder: opts.Placeholder,
	}
	for k, v := range cfg.Args {
		mo.Args[k] = v
	}
	for k, v := range opts.Args {
		mo.Args[k] = v
	}

	summary, err := app.Toolkit.Manifests(ctx, mo)
	if err != nil {
		return err
	}

	if opts.Publish {
		s3 := cfg.S3
		if s3.Endpoint == "" || s3.Bucket == "" {
			return errors.New("iiif.s3.endpoint and iiif.s3.bucket are required to publish")
		}
		client, err := iiif.NewS3Client(s3)
		if err != nil {
			return err
		}
		keys, err := iiif.Publish(ctx, client, s3.Bucket, s3.Prefix, filepath.Join(mo.OutDir, "manifests"))
		if err != nil {
			return err
		}
		app.Logger.Info("Manifests published", "bucket", s3.Bucket, "objects", len(keys))
		if !app.JSON {
			printSystemMessage(w, "Published %d objects to %s", len(keys), s3.Bucket)
		}
	}

	return app.emit(w, summary, func() string { return report.Manifests(summary) })
}

// RunScanInfo measures the scans under src and writes the size reports into reportDir.
func RunScanInfo(ctx context.Context, app *App, w io.Writer, src, reportDir string, force bool) error {
	res, err := scans.Process(ctx, src, reportDir, force,
		scans.WithLogger(app.Logger),
		scans.WithWorkers(app.Config.Workers),
	)
	if err != nil {
		return err
	}
	return app.emit(w, res, func() string { return report.Scans(res) })
}

// RunMergeIntro merges the bodies of several TEI files into one document,
// written to out or to w when out is empty.
func RunMergeIntro(w io.Writer, out string, paths []string) error {
	doc, err := intro.Merge(paths...)
	if err != nil {
		return err
	}
	if out == "" {
		_, err = doc.WriteTo(w)
		return err
	}
	if err := os.MkdirAll(filepath.Dir(out), 0755); err != nil {
		return fmt.Errorf("failed to create output dir: %w", err)
	}
	return doc.WriteToFile(out)
}

func firstOf(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
