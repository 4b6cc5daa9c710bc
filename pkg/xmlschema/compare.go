package xmlschema

import (
	"github.com/aretw0/teiinfo/pkg/domain"
)

// Compare reports how a customised schema departs from its base: elements it
// adds, elements it removes and elements whose content kind changed.
func Compare(base, override *domain.SchemaAnalysis) domain.AnalysisDiff {
	return domain.Diff(base, override)
}

// AnalyzeFiles is a shortcut for loading paths into a new Analyzer and
// analysing them under label.
func AnalyzeFiles(label string, paths []string, opts ...Option) (*domain.SchemaAnalysis, error) {
	a := New(opts...)
	for _, p := range paths {
		if err := a.AddFile(p); err != nil {
			return nil, err
		}
	}
	return a.Analyze(label)
}
