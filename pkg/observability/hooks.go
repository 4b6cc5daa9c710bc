package observability

import (
	"context"
	"log/slog"

	"github.com/aretw0/teiinfo/pkg/domain"
)

// Combine fans every event out to all hook sets, in order.
func Combine(sets ...domain.Hooks) domain.Hooks {
	return domain.Hooks{
		OnDocumentParsed: func(ctx context.Context, e *domain.DocumentEvent) {
			for _, h := range sets {
				h.DocumentParsed(ctx, e)
			}
		},
		OnAnalysis: func(ctx context.Context, e *domain.AnalysisEvent) {
			for _, h := range sets {
				h.Analysis(ctx, e)
			}
		},
		OnValidation: func(ctx context.Context, e *domain.ValidationEvent) {
			for _, h := range sets {
				h.Validation(ctx, e)
			}
		},
	}
}

// LoggingHooks logs every event at debug level, and failures at warn.
func LoggingHooks(logger *slog.Logger) domain.Hooks {
	return domain.Hooks{
		OnDocumentParsed: func(ctx context.Context, e *domain.DocumentEvent) {
			if e.Err != nil {
				logger.WarnContext(ctx, "document_parse_failed", "document", e.DocumentID, "err", e.Err)
				return
			}
			logger.DebugContext(ctx, "document_parsed", "document", e.DocumentID, "duration", e.Duration)
		},
		OnAnalysis: func(ctx context.Context, e *domain.AnalysisEvent) {
			if e.Err != nil {
				logger.WarnContext(ctx, "schema_analysis_failed", "schema", e.Schema, "err", e.Err)
				return
			}
			logger.DebugContext(ctx, "schema_analysed", "schema", e.Schema, "elements", e.Elements, "cached", e.Cached)
		},
		OnValidation: func(ctx context.Context, e *domain.ValidationEvent) {
			if e.Err != nil {
				logger.WarnContext(ctx, "validation_failed", "err", e.Err)
				return
			}
			logger.DebugContext(ctx, "validated", "instance", e.Report.Instance, "valid", e.Report.Valid)
		},
	}
}
