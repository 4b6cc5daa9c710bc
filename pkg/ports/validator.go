package ports

import (
	"context"

	"github.com/aretw0/teiinfo/pkg/domain"
)

// Validator checks an XML instance against a schema.
// An invalid instance is reported through the returned report, not as an error;
// errors are reserved for failures to run the check at all.
type Validator interface {
	Validate(ctx context.Context, schemaPath, instancePath string) (*domain.ValidationReport, error)
}

// Converter turns a RELAX NG schema into one or more XML Schema files.
type Converter interface {
	// ToXSD converts rngPath into outDir and returns the path of the main XSD file.
	ToXSD(ctx context.Context, rngPath, outDir string) (string, error)
}
