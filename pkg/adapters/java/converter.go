package java

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ToXSD converts a RELAX NG grammar (.rng or .rnc) into XML Schema with
// trang and returns the path of the main XSD written to outDir. trang may
// write further XSD files next to it, one per namespace.
func (t *Tools) ToXSD(ctx context.Context, rngPath, outDir string) (string, error) {
	if err := os.MkdirAll(outDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}

	base := strings.TrimSuffix(filepath.Base(rngPath), filepath.Ext(rngPath))
	out := filepath.Join(outDir, base+".xsd")

	res, err := t.run(ctx, ToolTrang, rngPath, out)
	if err != nil {
		return "", err
	}
	if !res.Good {
		return "", fmt.Errorf("trang exited with status %d: %s", res.ReturnCode, strings.TrimSpace(res.Stderr))
	}

	t.logger.Debug("Converted schema", "input", rngPath, "output", out, "duration", res.Duration)
	return out, nil
}
