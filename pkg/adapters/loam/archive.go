package loam

import (
	"context"
	"fmt"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/aretw0/loam"
	"github.com/aretw0/teiinfo/internal/presentation/report"
	"github.com/aretw0/teiinfo/pkg/domain"
)

// Archive publishes analysis and validation summaries as Markdown documents
// with YAML front matter, so a report directory can be browsed or versioned
// like any other notes folder.
type Archive struct {
	Repo *loam.TypedRepository[ReportMetadata]
}

// New wraps an existing typed repository.
func New(repo *loam.TypedRepository[ReportMetadata]) *Archive {
	return &Archive{Repo: repo}
}

// Open initialises (or reuses) a plain, unversioned report directory.
func Open(dir string) (*Archive, error) {
	absPath, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve archive path: %w", err)
	}
	repo, err := loam.Init(absPath, loam.WithVersioning(false))
	if err != nil {
		return nil, fmt.Errorf("failed to init loam archive: %w", err)
	}
	return New(loam.NewTypedRepository[ReportMetadata](repo)), nil
}

var unsafeID = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

func slug(s string) string {
	s = strings.Trim(unsafeID.ReplaceAllString(s, "-"), "-")
	if s == "" {
		return "report"
	}
	return s
}

// SaveAnalysis archives a schema analysis and returns the document ID.
// Re-saving the same schema and checksum overwrites the earlier report.
func (a *Archive) SaveAnalysis(ctx context.Context, analysis *domain.SchemaAnalysis) (string, error) {
	sum := analysis.Checksum
	if len(sum) > 12 {
		sum = sum[:12]
	}
	id := slug("analysis-" + analysis.Schema + "-" + sum)

	meta := ReportMetadata{
		ID:       id,
		Kind:     KindAnalysis,
		Schema:   analysis.Schema,
		Created:  analysis.Created.UTC().Format(time.RFC3339),
		Checksum: analysis.Checksum,
		Elements: len(analysis.Elements),
		Mixed:    len(analysis.Mixed()),
		Pure:     len(analysis.Pure()),
	}
	return id, a.save(ctx, id, meta, report.Analysis(analysis))
}

// SaveValidation archives a validation report and returns the document ID.
func (a *Archive) SaveValidation(ctx context.Context, r *domain.ValidationReport) (string, error) {
	id := slug("validation-" + r.ID)

	meta := ReportMetadata{
		ID:       id,
		Kind:     KindValidation,
		Schema:   r.Schema,
		Created:  r.Started.UTC().Format(time.RFC3339),
		Instance: r.Instance,
		Engine:   r.Engine,
		Valid:    r.Valid,
		Errors:   len(r.Errors()),
	}
	return id, a.save(ctx, id, meta, report.Validation(r))
}

func (a *Archive) save(ctx context.Context, id string, meta ReportMetadata, body string) error {
	err := a.Repo.Save(ctx, &loam.DocumentModel[ReportMetadata]{
		ID:      id,
		Content: body,
		Data:    meta,
	})
	if err != nil {
		return fmt.Errorf("failed to archive report %s: %w", id, err)
	}
	return nil
}

// Get returns the front matter and Markdown body of an archived report.
func (a *Archive) Get(ctx context.Context, id string) (ReportMetadata, string, error) {
	doc, err := a.Repo.Get(ctx, id)
	if err != nil {
		return ReportMetadata{}, "", fmt.Errorf("loam get failed for %s: %w", id, err)
	}
	meta := doc.Data
	if meta.ID == "" {
		meta.ID = normalizeID(doc.ID)
	}
	return meta, doc.Content, nil
}

// List returns the metadata of every archived report of the given kind
// (all kinds when empty), newest first.
func (a *Archive) List(ctx context.Context, kind string) ([]ReportMetadata, error) {
	docs, err := a.Repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("loam list failed: %w", err)
	}

	out := make([]ReportMetadata, 0, len(docs))
	for _, doc := range docs {
		meta := doc.Data
		if meta.Kind == "" || (kind != "" && meta.Kind != kind) {
			continue
		}
		if meta.ID == "" {
			meta.ID = normalizeID(doc.ID)
		}
		out = append(out, meta)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Created != out[j].Created {
			return out[i].Created > out[j].Created
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func normalizeID(id string) string {
	return strings.TrimSuffix(filepath.ToSlash(id), filepath.Ext(id))
}
