package teiinfo

import (
	"context"
	"fmt"

	"github.com/aretw0/teiinfo/pkg/iiif"
	"github.com/aretw0/teiinfo/pkg/scans"
)

// ManifestOptions drives Manifests.
type ManifestOptions struct {
	// Config is the path of the iiif.yaml file.
	Config string
	// ScanDir holds the pages/ and covers/ scan directories.
	ScanDir string
	// OutDir receives manifests/, mirador.html and facsMissing.tsv.
	OutDir string
	// Args fill the [[name]] markers of the config.
	Args map[string]any
	// Placeholder writes a filenotfound image into the scan dir for missing scans.
	Placeholder bool
}

// Manifests surveys the corpus for page breaks, measures the scans and writes
// IIIF manifests for every page.
func (t *Toolkit) Manifests(ctx context.Context, opts ManifestOptions) (*iiif.Summary, error) {
	cfg, err := iiif.LoadConfig(opts.Config)
	if err != nil {
		return nil, err
	}
	info, err := scans.Collect(ctx, opts.ScanDir, scans.WithLogger(t.logger), scans.WithWorkers(t.workers))
	if err != nil {
		return nil, fmt.Errorf("failed to collect scans: %w", err)
	}
	inv, err := t.Inventory(ctx)
	if err != nil {
		return nil, err
	}

	genOpts := []iiif.GeneratorOption{iiif.WithLogger(t.logger)}
	if opts.Placeholder {
		genOpts = append(genOpts, iiif.WithScanDir(opts.ScanDir))
	}
	gen, err := iiif.NewGenerator(cfg, info, opts.OutDir, opts.Args, genOpts...)
	if err != nil {
		return nil, err
	}
	return gen.Manifests(ctx, inv.Pages)
}
