package domain

import (
	"context"
	"time"
)

// DocumentEvent is emitted after a corpus document has been parsed.
type DocumentEvent struct {
	DocumentID string
	Duration   time.Duration
	Err        error
}

// AnalysisEvent is emitted after a schema has been analysed.
type AnalysisEvent struct {
	Schema   string
	Elements int
	Cached   bool
	Duration time.Duration
	Err      error
}

// ValidationEvent is emitted after an instance has been validated.
type ValidationEvent struct {
	Report *ValidationReport
	Err    error
}

// Hooks defines optional callbacks for observability.
type Hooks struct {
	OnDocumentParsed func(context.Context, *DocumentEvent)
	OnAnalysis       func(context.Context, *AnalysisEvent)
	OnValidation     func(context.Context, *ValidationEvent)
}

// DocumentParsed invokes OnDocumentParsed when set.
func (h Hooks) DocumentParsed(ctx context.Context, e *DocumentEvent) {
	if h.OnDocumentParsed != nil {
		h.OnDocumentParsed(ctx, e)
	}
}

// Analysis invokes OnAnalysis when set.
func (h Hooks) Analysis(ctx context.Context, e *AnalysisEvent) {
	if h.OnAnalysis != nil {
		h.OnAnalysis(ctx, e)
	}
}

// Validation invokes OnValidation when set.
func (h Hooks) Validation(ctx context.Context, e *ValidationEvent) {
	if h.OnValidation != nil {
		h.OnValidation(ctx, e)
	}
}
