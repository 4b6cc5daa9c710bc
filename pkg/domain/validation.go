package domain

import (
	"fmt"
	"time"
)

// Severity of a diagnostic.
type Severity string

const (
	SeverityWarning Severity = "warning"
	SeverityError   Severity = "error"
	SeverityFatal   Severity = "fatal"
)

// Diagnostic is one message produced while checking an instance.
// Line and Column are zero when the engine did not report a position.
type Diagnostic struct {
	Severity Severity `json:"severity"`
	File     string   `json:"file,omitempty"`
	Line     int      `json:"line,omitempty"`
	Column   int      `json:"column,omitempty"`
	Message  string   `json:"message"`
}

func (d Diagnostic) String() string {
	switch {
	case d.Line > 0 && d.Column > 0:
		return fmt.Sprintf("%s:%d:%d: %s: %s", d.File, d.Line, d.Column, d.Severity, d.Message)
	case d.Line > 0:
		return fmt.Sprintf("%s:%d: %s: %s", d.File, d.Line, d.Severity, d.Message)
	case d.File != "":
		return fmt.Sprintf("%s: %s: %s", d.File, d.Severity, d.Message)
	}
	return fmt.Sprintf("%s: %s", d.Severity, d.Message)
}

// Engine names recorded in validation reports.
const (
	EngineJing       = "jing"
	EngineWellFormed = "wellformed"
)

// ValidationReport is the outcome of validating one instance against one schema.
type ValidationReport struct {
	ID          string        `json:"id"`
	Schema      string        `json:"schema"`
	Instance    string        `json:"instance"`
	Engine      string        `json:"engine"`
	Valid       bool          `json:"valid"`
	Diagnostics []Diagnostic  `json:"diagnostics,omitempty"`
	Started     time.Time     `json:"started"`
	Duration    time.Duration `json:"duration"`
}

// Errors returns the diagnostics with error or fatal severity.
func (r *ValidationReport) Errors() []Diagnostic {
	var out []Diagnostic
	for _, d := range r.Diagnostics {
		if d.Severity != SeverityWarning {
			out = append(out, d)
		}
	}
	return out
}
