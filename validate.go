package teiinfo

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/aretw0/teiinfo/pkg/domain"
	"golang.org/x/sync/errgroup"
)

// Validate checks an instance file against a schema. An invalid instance is
// reported in the returned report; errors mean the check could not run.
func (t *Toolkit) Validate(ctx context.Context, schema, instance string) (*domain.ValidationReport, error) {
	report, err := t.validator.Validate(ctx, schema, instance)
	t.hooks.Validation(ctx, &domain.ValidationEvent{Report: report, Err: err})
	if err != nil {
		return nil, err
	}
	t.logger.Debug("Validated", "instance", instance, "valid", report.Valid, "diagnostics", len(report.Diagnostics))
	return report, nil
}

// ValidateDocument validates one corpus document by ID. Documents that do not
// live on disk are copied to a temporary file first.
func (t *Toolkit) ValidateDocument(ctx context.Context, schema, id string) (*domain.ValidationReport, error) {
	path, cleanup, err := t.instancePath(ctx, id)
	if err != nil {
		return nil, err
	}
	defer cleanup()

	report, err := t.Validate(ctx, schema, path)
	if err != nil {
		return nil, fmt.Errorf("document %s: %w", id, err)
	}
	report.Instance = id
	return report, nil
}

// ValidateCorpus validates every document against schema with bounded
// concurrency. Reports come back in document ID order. The first error that
// prevents validation (for instance a missing Java runtime) stops the run.
func (t *Toolkit) ValidateCorpus(ctx context.Context, schema string) ([]*domain.ValidationReport, error) {
	ids, err := t.loader.ListDocuments(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list documents: %w", err)
	}

	reports := make([]*domain.ValidationReport, len(ids))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(t.workers)
	for i, id := range ids {
		g.Go(func() error {
			r, err := t.ValidateDocument(gctx, schema, id)
			if err != nil {
				return err
			}
			reports[i] = r
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	invalid := 0
	for _, r := range reports {
		if !r.Valid {
			invalid++
		}
	}
	t.logger.Info("Corpus validated", "schema", filepath.Base(schema), "documents", len(reports), "invalid", invalid)
	return reports, nil
}

func (t *Toolkit) instancePath(ctx context.Context, id string) (string, func(), error) {
	if p := t.path(id); p != "" {
		if _, err := os.Stat(p); err == nil {
			return p, func() {}, nil
		}
	}

	data, err := t.loader.GetDocument(ctx, id)
	if err != nil {
		return "", nil, err
	}
	f, err := os.CreateTemp(t.workDir, "teiinfo-"+strings.ReplaceAll(id, "/", "_")+"-*.xml")
	if err != nil {
		return "", nil, fmt.Errorf("failed to stage %s: %w", id, err)
	}
	cleanup := func() { os.Remove(f.Name()) }
	if _, err := f.Write(data); err != nil {
		f.Close()
		cleanup()
		return "", nil, fmt.Errorf("failed to stage %s: %w", id, err)
	}
	if err := f.Close(); err != nil {
		cleanup()
		return "", nil, err
	}
	return f.Name(), cleanup, nil
}
