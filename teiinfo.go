package teiinfo

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"runtime"
	"time"

	"github.com/aretw0/teiinfo/pkg/adapters/file"
	"github.com/aretw0/teiinfo/pkg/adapters/java"
	"github.com/aretw0/teiinfo/pkg/adapters/memory"
	"github.com/aretw0/teiinfo/pkg/adapters/process"
	"github.com/aretw0/teiinfo/pkg/domain"
	"github.com/aretw0/teiinfo/pkg/ports"
	"github.com/aretw0/teiinfo/pkg/tei"
)

// DefaultLockTTL bounds how long a schema analysis may hold its lock.
const DefaultLockTTL = 5 * time.Minute

// Toolkit is the high-level entry point of the library.
// It ties a corpus loader to the reader, the schema analyzer and the validator.
type Toolkit struct {
	corpus    *tei.Corpus
	loader    ports.CorpusLoader
	store     ports.AnalysisStore
	locker    ports.DistributedLocker
	validator ports.Validator
	converter ports.Converter
	hooks     domain.Hooks
	workers   int
	workDir   string
	lockTTL   time.Duration
	javaCfg   *process.ConfigFile
	logger    *slog.Logger
	Name      string
}

// Option defines a functional option for configuring the Toolkit.
type Option func(*Toolkit)

// WithLogger sets a custom structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(t *Toolkit) {
		t.logger = logger
	}
}

// WithLoader injects a custom CorpusLoader, bypassing the default filesystem loader.
func WithLoader(l ports.CorpusLoader) Option {
	return func(t *Toolkit) {
		t.loader = l
	}
}

// WithStore sets the cache for schema analyses (default: in memory).
// A store that can hand out a locker (the redis store) is also used for
// per-schema locking unless WithLocker is given.
func WithStore(s ports.AnalysisStore) Option {
	return func(t *Toolkit) {
		t.store = s
	}
}

// WithLocker sets the lock manager guarding schema analyses.
func WithLocker(l ports.DistributedLocker) Option {
	return func(t *Toolkit) {
		t.locker = l
	}
}

// WithValidator sets the instance validator (default: jing, unconfigured).
func WithValidator(v ports.Validator) Option {
	return func(t *Toolkit) {
		t.validator = v
	}
}

// WithConverter sets the RELAX NG to XSD converter (default: trang, unconfigured).
func WithConverter(c ports.Converter) Option {
	return func(t *Toolkit) {
		t.converter = c
	}
}

// WithJava configures the default validator and converter from a tools
// configuration. It has no effect on a validator or converter set explicitly.
func WithJava(cfg process.ConfigFile) Option {
	return func(t *Toolkit) {
		t.javaCfg = &cfg
	}
}

// WithHooks registers observability hooks.
func WithHooks(hooks domain.Hooks) Option {
	return func(t *Toolkit) {
		t.hooks = hooks
	}
}

// WithWorkers bounds the number of documents processed concurrently.
func WithWorkers(n int) Option {
	return func(t *Toolkit) {
		if n > 0 {
			t.workers = n
		}
	}
}

// WithWorkDir sets where converted schemas and temporary instances are written
// (default: the system temp dir).
func WithWorkDir(dir string) Option {
	return func(t *Toolkit) {
		t.workDir = dir
	}
}

// New initializes a Toolkit.
// By default, it reads the TEI files under corpusDir.
// If WithLoader option is provided, corpusDir can be empty and is only used as a label.
func New(corpusDir string, opts ...Option) (*Toolkit, error) {
	t := &Toolkit{
		workers: runtime.GOMAXPROCS(0),
		lockTTL: DefaultLockTTL,
	}
	for _, opt := range opts {
		opt(t)
	}

	if t.logger == nil {
		t.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	if t.loader == nil {
		if corpusDir == "" {
			return nil, fmt.Errorf("corpusDir is required when no custom loader is provided")
		}
		absPath, err := filepath.Abs(corpusDir)
		if err != nil {
			return nil, fmt.Errorf("invalid path: %w", err)
		}
		t.Name = filepath.Base(absPath)
		t.loader = file.NewLoader(absPath, file.WithLogger(t.logger))
	} else if corpusDir != "" {
		t.Name = filepath.Base(corpusDir)
	}

	if t.Name != "" {
		t.logger = t.logger.With("corpus", t.Name)
	}

	if t.store == nil {
		t.store = memory.NewStore()
	}
	if t.locker == nil {
		if lp, ok := t.store.(interface{ Locker() ports.DistributedLocker }); ok {
			t.locker = lp.Locker()
		}
	}

	if t.validator == nil || t.converter == nil {
		cfg := process.ConfigFile{}
		if t.javaCfg != nil {
			cfg = *t.javaCfg
		}
		tools := java.New(cfg, java.WithLogger(t.logger))
		if t.validator == nil {
			t.validator = tools
		}
		if t.converter == nil {
			t.converter = tools
		}
	}

	t.corpus = tei.NewCorpus(t.loader,
		tei.WithWorkers(t.workers),
		tei.WithHooks(t.hooks),
		tei.WithLogger(t.logger),
	)
	return t, nil
}

// Corpus exposes the underlying corpus reader.
func (t *Toolkit) Corpus() *tei.Corpus {
	return t.corpus
}

// Loader returns the underlying CorpusLoader.
func (t *Toolkit) Loader() ports.CorpusLoader {
	return t.loader
}

// Store returns the analysis cache.
func (t *Toolkit) Store() ports.AnalysisStore {
	return t.store
}

// Documents returns the IDs of all documents, sorted.
func (t *Toolkit) Documents(ctx context.Context) ([]string, error) {
	return t.corpus.Documents(ctx)
}

// Header returns the bibliographic metadata of one document.
func (t *Toolkit) Header(ctx context.Context, id string) (domain.Document, error) {
	doc, err := t.corpus.Open(ctx, id)
	if err != nil {
		return domain.Document{}, err
	}
	return domain.Document{ID: id, Path: t.path(id), Header: doc.Header()}, nil
}

// Headers returns the metadata of every parseable document.
func (t *Toolkit) Headers(ctx context.Context) ([]domain.Document, error) {
	docs, err := t.corpus.Headers(ctx)
	if err != nil {
		return nil, err
	}
	for i := range docs {
		docs[i].Path = t.path(docs[i].ID)
	}
	return docs, nil
}

// Query evaluates an XPath expression. Without ids the whole corpus is
// searched; otherwise only the given documents, in the given order.
func (t *Toolkit) Query(ctx context.Context, expr string, ids ...string) ([]tei.CorpusMatch, error) {
	if len(ids) == 0 {
		return t.corpus.Query(ctx, expr)
	}
	compiled, err := tei.Compile(expr)
	if err != nil {
		return nil, err
	}
	var out []tei.CorpusMatch
	for _, id := range ids {
		doc, err := t.corpus.Open(ctx, id)
		if err != nil {
			return nil, err
		}
		for _, m := range doc.QueryCompiled(compiled) {
			out = append(out, tei.CorpusMatch{Document: id, Match: m})
		}
	}
	return out, nil
}

// Text returns the normalised plain text of one document.
func (t *Toolkit) Text(ctx context.Context, id string) (string, error) {
	doc, err := t.corpus.Open(ctx, id)
	if err != nil {
		return "", err
	}
	return doc.Text(), nil
}

// Inventory surveys the whole corpus.
func (t *Toolkit) Inventory(ctx context.Context) (domain.Inventory, error) {
	start := time.Now()
	inv, err := t.corpus.Inventory(ctx)
	if err != nil {
		return inv, err
	}
	t.logger.Info("Inventory complete",
		"documents", inv.Documents, "elements", len(inv.Elements),
		"failures", len(inv.Failures), "duration", time.Since(start))
	return inv, nil
}

// Watch returns a channel that receives the IDs of changed documents.
// Returns error if the loader does not support watching.
func (t *Toolkit) Watch(ctx context.Context) (<-chan string, error) {
	if w, ok := t.loader.(ports.Watchable); ok {
		return w.Watch(ctx)
	}
	return nil, fmt.Errorf("current loader does not support watching")
}

func (t *Toolkit) path(id string) string {
	if p, ok := t.loader.(interface{ Path(string) string }); ok {
		return p.Path(id)
	}
	return ""
}
