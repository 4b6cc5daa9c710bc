package tei

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"runtime"
	"sort"
	"sync"
	"time"

	"github.com/aretw0/teiinfo/pkg/domain"
	"github.com/aretw0/teiinfo/pkg/ports"
	"golang.org/x/sync/errgroup"
)

// Corpus gives access to the documents served by a loader.
type Corpus struct {
	loader  ports.CorpusLoader
	workers int
	hooks   domain.Hooks
	logger  *slog.Logger
}

// CorpusOption configures a Corpus.
type CorpusOption func(*Corpus)

// WithWorkers bounds the number of documents parsed concurrently.
func WithWorkers(n int) CorpusOption {
	return func(c *Corpus) {
		if n > 0 {
			c.workers = n
		}
	}
}

// WithHooks registers observability hooks.
func WithHooks(h domain.Hooks) CorpusOption {
	return func(c *Corpus) {
		c.hooks = h
	}
}

// WithLogger sets the logger used to report skipped documents.
func WithLogger(l *slog.Logger) CorpusOption {
	return func(c *Corpus) {
		c.logger = l
	}
}

// NewCorpus creates a Corpus over loader.
func NewCorpus(loader ports.CorpusLoader, opts ...CorpusOption) *Corpus {
	c := &Corpus{
		loader:  loader,
		workers: runtime.GOMAXPROCS(0),
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Documents returns the IDs of all documents, sorted.
func (c *Corpus) Documents(ctx context.Context) ([]string, error) {
	return c.loader.ListDocuments(ctx)
}

// Open loads and parses one document.
func (c *Corpus) Open(ctx context.Context, id string) (*Document, error) {
	start := time.Now()
	data, err := c.loader.GetDocument(ctx, id)
	if err != nil {
		return nil, err
	}
	doc, err := ParseBytes(id, data)
	c.hooks.DocumentParsed(ctx, &domain.DocumentEvent{DocumentID: id, Duration: time.Since(start), Err: err})
	if err != nil {
		return nil, fmt.Errorf("document %s: %w", id, err)
	}
	return doc, nil
}

// Inventory surveys every document of the corpus.
// Documents are parsed concurrently, but the result is merged in ID order so it
// is deterministic. A document that cannot be parsed is recorded in Failures
// and does not abort the survey; only loader errors and cancellation do.
func (c *Corpus) Inventory(ctx context.Context) (domain.Inventory, error) {
	ids, err := c.loader.ListDocuments(ctx)
	if err != nil {
		return domain.Inventory{}, fmt.Errorf("failed to list documents: %w", err)
	}

	parts := make([]domain.Inventory, len(ids))
	err = c.each(ctx, ids, func(i int, doc *Document, perr error) {
		if perr != nil {
			part := domain.NewInventory()
			part.Failures[ids[i]] = perr.Error()
			parts[i] = part
			return
		}
		parts[i] = doc.Inventory()
	})
	if err != nil {
		return domain.Inventory{}, err
	}

	total := domain.NewInventory()
	for _, part := range parts {
		Merge(&total, part)
	}
	return total, nil
}

// CorpusMatch is a query match together with the document it was found in.
type CorpusMatch struct {
	Document string `json:"document"`
	Match
}

// Query evaluates expr against every document, in ID order.
// Unparseable documents are skipped and logged.
func (c *Corpus) Query(ctx context.Context, expr string) ([]CorpusMatch, error) {
	if _, err := Compile(expr); err != nil {
		return nil, err
	}
	ids, err := c.loader.ListDocuments(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list documents: %w", err)
	}

	results := make([][]CorpusMatch, len(ids))
	err = c.each(ctx, ids, func(i int, doc *Document, perr error) {
		if perr != nil {
			c.logger.Warn("Skipping document", "document", ids[i], "err", perr)
			return
		}
		// Documents are queried concurrently, so each gets its own compiled expression.
		matches, qerr := doc.Query(expr)
		if qerr != nil {
			c.logger.Warn("Query failed", "document", ids[i], "err", qerr)
			return
		}
		for _, m := range matches {
			results[i] = append(results[i], CorpusMatch{Document: ids[i], Match: m})
		}
	})
	if err != nil {
		return nil, err
	}

	var out []CorpusMatch
	for _, r := range results {
		out = append(out, r...)
	}
	return out, nil
}

// Headers returns the header of every parseable document, keyed by ID.
func (c *Corpus) Headers(ctx context.Context) ([]domain.Document, error) {
	ids, err := c.loader.ListDocuments(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list documents: %w", err)
	}

	var mu sync.Mutex
	var out []domain.Document
	err = c.each(ctx, ids, func(i int, doc *Document, perr error) {
		if perr != nil {
			c.logger.Warn("Skipping document", "document", ids[i], "err", perr)
			return
		}
		mu.Lock()
		out = append(out, domain.Document{ID: ids[i], Header: doc.Header()})
		mu.Unlock()
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// each parses the documents with bounded concurrency and hands every result to
// fn. Every Open error, whether from the loader or the parser, is passed to fn;
// only context cancellation stops the iteration.
func (c *Corpus) each(ctx context.Context, ids []string, fn func(i int, doc *Document, err error)) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.workers)

	for i, id := range ids {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			doc, err := c.Open(gctx, id)
			if err != nil && gctx.Err() != nil {
				return gctx.Err()
			}
			fn(i, doc, err)
			return nil
		})
	}
	return g.Wait()
}
