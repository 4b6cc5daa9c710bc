package teiinfo

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/aretw0/teiinfo/pkg/domain"
	"github.com/aretw0/teiinfo/pkg/xmlschema"
)

// IsRelaxNG reports whether path names a RELAX NG schema (XML or compact syntax).
func IsRelaxNG(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".rng", ".rnc":
		return true
	}
	return false
}

// AnalyzeSchema classifies the elements of an XSD, or of a RELAX NG schema
// after converting it with the converter. Results are cached in the store
// under the checksum of the input; concurrent analyses of the same input wait
// for each other when a locker is available.
func (t *Toolkit) AnalyzeSchema(ctx context.Context, path string) (*domain.SchemaAnalysis, error) {
	label := filepath.Base(path)

	if IsRelaxNG(path) {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read schema: %w", err)
		}
		key := "rng-" + checksum(data)
		return t.cached(ctx, label, key, func() (*domain.SchemaAnalysis, error) {
			dir, err := os.MkdirTemp(t.workDir, "teiinfo-trang-")
			if err != nil {
				return nil, fmt.Errorf("failed to create work dir: %w", err)
			}
			defer os.RemoveAll(dir)

			xsd, err := t.converter.ToXSD(ctx, path, dir)
			if err != nil {
				return nil, fmt.Errorf("failed to convert %s: %w", label, err)
			}
			return xmlschema.AnalyzeFiles(label, []string{xsd}, xmlschema.WithLogger(t.logger))
		})
	}

	a := xmlschema.New(xmlschema.WithLogger(t.logger))
	if err := a.AddFile(path); err != nil {
		return nil, err
	}
	return t.cached(ctx, label, a.Checksum(), func() (*domain.SchemaAnalysis, error) {
		return a.Analyze(label)
	})
}

// AnalyzeBytes classifies a standalone XSD held in memory, such as an upload.
// The document may not pull in other files: imports are skipped and includes,
// redefines and overrides fail with domain.ErrUnsupportedSchema.
func (t *Toolkit) AnalyzeBytes(ctx context.Context, label string, data []byte) (*domain.SchemaAnalysis, error) {
	a := xmlschema.New(xmlschema.WithLogger(t.logger), xmlschema.WithoutFollow())
	if err := a.AddBytes(label, data); err != nil {
		return nil, err
	}
	return t.cached(ctx, label, a.Checksum(), func() (*domain.SchemaAnalysis, error) {
		return a.Analyze(label)
	})
}

// CompareSchemas analyses a base schema and a customisation of it and
// reports the elements that were added, removed or reclassified.
func (t *Toolkit) CompareSchemas(ctx context.Context, base, override string) (domain.AnalysisDiff, error) {
	b, err := t.AnalyzeSchema(ctx, base)
	if err != nil {
		return domain.AnalysisDiff{}, fmt.Errorf("base schema: %w", err)
	}
	o, err := t.AnalyzeSchema(ctx, override)
	if err != nil {
		return domain.AnalysisDiff{}, fmt.Errorf("override schema: %w", err)
	}
	return xmlschema.Compare(b, o), nil
}

// ConvertSchema converts a RELAX NG schema into outDir and returns the main XSD.
func (t *Toolkit) ConvertSchema(ctx context.Context, rngPath, outDir string) (string, error) {
	if err := os.MkdirAll(outDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create output dir: %w", err)
	}
	return t.converter.ToXSD(ctx, rngPath, outDir)
}

func (t *Toolkit) cached(ctx context.Context, label, key string, analyze func() (*domain.SchemaAnalysis, error)) (*domain.SchemaAnalysis, error) {
	start := time.Now()

	if a, err := t.store.Load(ctx, key); err == nil {
		t.hooks.Analysis(ctx, &domain.AnalysisEvent{Schema: label, Elements: len(a.Elements), Cached: true, Duration: time.Since(start)})
		return relabel(a, label), nil
	} else if !errors.Is(err, domain.ErrAnalysisNotFound) {
		t.logger.Warn("Analysis cache unavailable", "schema", label, "err", err)
	}

	if t.locker != nil {
		unlock, err := t.locker.Lock(ctx, key, t.lockTTL)
		if err != nil {
			return nil, fmt.Errorf("failed to lock analysis of %s: %w", label, err)
		}
		defer func() {
			if err := unlock(context.WithoutCancel(ctx)); err != nil {
				t.logger.Warn("Failed to release analysis lock", "schema", label, "err", err)
			}
		}()

		// Another process may have finished while we waited.
		if a, err := t.store.Load(ctx, key); err == nil {
			t.hooks.Analysis(ctx, &domain.AnalysisEvent{Schema: label, Elements: len(a.Elements), Cached: true, Duration: time.Since(start)})
			return relabel(a, label), nil
		}
	}

	a, err := analyze()
	if err != nil {
		t.hooks.Analysis(ctx, &domain.AnalysisEvent{Schema: label, Duration: time.Since(start), Err: err})
		return nil, err
	}
	if err := t.store.Save(ctx, key, a); err != nil {
		t.logger.Warn("Failed to cache analysis", "schema", label, "err", err)
	}
	t.logger.Info("Schema analysed", "schema", label, "elements", len(a.Elements),
		"mixed", len(a.Mixed()), "duration", time.Since(start))
	t.hooks.Analysis(ctx, &domain.AnalysisEvent{Schema: label, Elements: len(a.Elements), Duration: time.Since(start)})
	return a, nil
}

// relabel names a cached analysis after the current request. The cache is
// keyed by content, so the stored label may belong to an earlier caller.
func relabel(a *domain.SchemaAnalysis, label string) *domain.SchemaAnalysis {
	if a.Schema == label {
		return a
	}
	out := *a
	out.Schema = label
	return &out
}

func checksum(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
