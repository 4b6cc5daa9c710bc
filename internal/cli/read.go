package cli

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/aretw0/teiinfo/internal/presentation/report"
	"github.com/aretw0/teiinfo/pkg/domain"
	"github.com/aretw0/teiinfo/pkg/tei"
)

// RunInventory surveys the corpus.
func RunInventory(ctx context.Context, app *App, w io.Writer) error {
	inv, err := app.Toolkit.Inventory(ctx)
	if err != nil {
		return err
	}
	return app.emit(w, inv, func() string { return report.Inventory(inv) })
}

// RunHeader prints the headers of the given documents, or of all of them.
func RunHeader(ctx context.Context, app *App, w io.Writer, ids []string) error {
	var docs []domain.Document
	if len(ids) == 0 {
		all, err := app.Toolkit.Headers(ctx)
		if err != nil {
			return err
		}
		docs = all
	} else {
		for _, id := range ids {
			doc, err := app.Toolkit.Header(ctx, id)
			if err != nil {
				return err
			}
			docs = append(docs, doc)
		}
	}

	return app.emit(w, docs, func() string {
		parts := make([]string, len(docs))
		for i, doc := range docs {
			parts[i] = report.Header(doc)
		}
		return strings.Join(parts, "\n")
	})
}

// RunQuery evaluates an XPath expression. A positive limit truncates the matches.
func RunQuery(ctx context.Context, app *App, w io.Writer, expr string, ids []string, limit int) error {
	matches, err := app.Toolkit.Query(ctx, expr, ids...)
	if err != nil {
		return err
	}
	if limit > 0 && len(matches) > limit {
		matches = matches[:limit]
	}
	if matches == nil {
		matches = []tei.CorpusMatch{}
	}
	return app.emit(w, matches, func() string { return report.Matches(expr, matches) })
}

// RunText prints the plain text of one document.
func RunText(ctx context.Context, app *App, w io.Writer, id string) error {
	text, err := app.Toolkit.Text(ctx, id)
	if err != nil {
		return err
	}
	if app.JSON {
		return app.emit(w, map[string]string{"id": id, "text": text}, nil)
	}
	_, err = fmt.Fprintln(w, text)
	return err
}
