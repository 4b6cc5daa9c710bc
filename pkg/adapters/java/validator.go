package java

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/aretw0/teiinfo/pkg/domain"
	"github.com/aretw0/teiinfo/pkg/tei"
	"github.com/google/uuid"
)

// jing reports problems as "file:line:col: severity: message".
var diagnosticLine = regexp.MustCompile(`^(.*?):(\d+):(\d+): (error|warning|fatal)(?: error)?: (.*)$`)

// Validate checks instance against schema with jing.
//
// The instance is first checked for well-formedness in-process; a malformed
// instance yields an invalid report from the "wellformed" engine without
// starting Java. Exit status 1 with diagnostics means invalid, not failure.
func (t *Tools) Validate(ctx context.Context, schema, instance string) (*domain.ValidationReport, error) {
	report := &domain.ValidationReport{
		ID:       uuid.NewString(),
		Schema:   schema,
		Instance: instance,
		Engine:   domain.EngineWellFormed,
		Started:  t.now(),
	}
	finish := func() *domain.ValidationReport {
		report.Duration = t.now().Sub(report.Started)
		return report
	}

	// 1. Well-formedness
	f, err := os.Open(instance)
	if err != nil {
		return nil, fmt.Errorf("failed to open instance: %w", err)
	}
	diags := tei.CheckWellFormed(instance, f)
	f.Close()
	if len(diags) > 0 {
		report.Diagnostics = diags
		return finish(), nil
	}

	// 2. Grammar
	report.Engine = domain.EngineJing
	args := []string{schema, instance}
	if strings.EqualFold(filepath.Ext(schema), ".rnc") {
		args = append([]string{"-c"}, args...)
	}
	res, err := t.run(ctx, ToolJing, args...)
	if err != nil {
		return nil, err
	}

	diags, err = ParseDiagnostics(res.Stdout + "\n" + res.Stderr)
	if err != nil {
		return nil, err
	}
	switch {
	case res.Good:
		// Exit status 0 is valid; output without a position is JVM noise.
		report.Valid = true
		for _, d := range diags {
			if d.File == "" {
				t.logger.Debug("Ignoring jing output", "line", d.Message)
				continue
			}
			report.Diagnostics = append(report.Diagnostics, d)
		}
	case res.ReturnCode == 1 && len(diags) > 0:
		report.Valid = false
		report.Diagnostics = diags
	default:
		return nil, fmt.Errorf("jing exited with status %d: %s", res.ReturnCode, strings.TrimSpace(res.Stderr))
	}

	t.logger.Debug("Validated", "instance", instance, "schema", schema, "valid", report.Valid, "diagnostics", len(report.Diagnostics))
	return finish(), nil
}

// maxDiagnosticLine bounds a single line of jing output.
const maxDiagnosticLine = 1 << 20

// ParseDiagnostics converts jing output into diagnostics. Lines that do not
// carry a position become errors without one; blank lines are dropped.
func ParseDiagnostics(output string) ([]domain.Diagnostic, error) {
	var out []domain.Diagnostic
	sc := bufio.NewScanner(strings.NewReader(output))
	sc.Buffer(make([]byte, 0, 64*1024), maxDiagnosticLine)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		m := diagnosticLine.FindStringSubmatch(line)
		if m == nil {
			out = append(out, domain.Diagnostic{Severity: domain.SeverityError, Message: line})
			continue
		}
		ln, _ := strconv.Atoi(m[2])
		col, _ := strconv.Atoi(m[3])
		out = append(out, domain.Diagnostic{
			Severity: domain.Severity(m[4]),
			File:     m[1],
			Line:     ln,
			Column:   col,
			Message:  m[5],
		})
	}
	if err := sc.Err(); err != nil {
		return out, fmt.Errorf("failed to read jing output: %w", err)
	}
	return out, nil
}
