package cli

import (
	"context"
	"errors"
	"io"

	"github.com/aretw0/teiinfo/internal/presentation/report"
	"github.com/aretw0/teiinfo/pkg/domain"
)

// RunWatch reports on every document that changes until ctx is cancelled.
// With a schema the changed document is validated; otherwise it is re-read
// and its header printed, which surfaces parse errors.
func RunWatch(ctx context.Context, app *App, w io.Writer, schema string) error {
	events, err := app.Toolkit.Watch(ctx)
	if err != nil {
		return err
	}
	app.Logger.Info("Starting Watcher", "corpus", app.Config.Corpus)
	if !app.JSON {
		printSystemMessage(w, "Watching %s", app.Config.Corpus)
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case id, ok := <-events:
			if !ok {
				return nil
			}
			app.Logger.Info("Change detected", "document", id)
			if err := watchIteration(ctx, app, w, schema, id); err != nil {
				if errors.Is(err, context.Canceled) {
					return nil
				}
				// Keep watching: the next save may fix it.
				app.Logger.Error("Check failed", "document", id, "err", err)
				if !app.JSON {
					printSystemMessage(w, "%s: %v", id, err)
				}
			}
		}
	}
}

func watchIteration(ctx context.Context, app *App, w io.Writer, schema, id string) error {
	if schema != "" {
		r, err := app.Toolkit.ValidateDocument(ctx, schema, id)
		if err != nil {
			return err
		}
		if app.Archive != nil {
			if _, err := app.Archive.SaveValidation(ctx, r); err != nil {
				return err
			}
		}
		return app.emit(w, r, func() string { return report.Validation(r) })
	}

	doc, err := app.Toolkit.Header(ctx, id)
	if errors.Is(err, domain.ErrDocumentNotFound) {
		if !app.JSON {
			printSystemMessage(w, "%s removed", id)
		}
		return nil
	}
	if err != nil {
		return err
	}
	return app.emit(w, doc, func() string { return report.Header(doc) })
}
