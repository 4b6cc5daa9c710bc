package cli

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/aretw0/teiinfo/internal/presentation/report"
	"github.com/aretw0/teiinfo/pkg/domain"
)

// RunValidate validates the given documents, or the whole corpus, against a
// schema. It returns ErrInvalid when any document is invalid.
func RunValidate(ctx context.Context, app *App, w io.Writer, schema string, ids []string) error {
	var reports []*domain.ValidationReport
	if len(ids) == 0 {
		all, err := app.Toolkit.ValidateCorpus(ctx, schema)
		if err != nil {
			return err
		}
		reports = all
	} else {
		for _, id := range ids {
			r, err := app.Toolkit.ValidateDocument(ctx, schema, id)
			if err != nil {
				return err
			}
			reports = append(reports, r)
		}
	}

	invalid := 0
	for _, r := range reports {
		if !r.Valid {
			invalid++
		}
		if app.Archive != nil {
			if _, err := app.Archive.SaveValidation(ctx, r); err != nil {
				return err
			}
		}
	}

	err := app.emit(w, reports, func() string {
		var sb strings.Builder
		fmt.Fprintf(&sb, "# Validation\n\n%d documents, %d invalid.\n\n", len(reports), invalid)
		for _, r := range reports {
			if !r.Valid || len(r.Diagnostics) > 0 {
				sb.WriteString(report.Validation(r))
			}
		}
		return sb.String()
	})
	if err != nil {
		return err
	}
	if invalid > 0 {
		return fmt.Errorf("%w: %d of %d documents invalid", ErrInvalid, invalid, len(reports))
	}
	return nil
}
