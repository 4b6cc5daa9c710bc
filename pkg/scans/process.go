package scans

import (
	"context"
	"os"
	"path/filepath"
)

// Result of Process.
type Result struct {
	Info    *Info    `json:"info,omitempty"`
	Written []string `json:"written,omitempty"`
	// UpToDate is set when nothing was done because the reports are current.
	UpToDate bool `json:"up_to_date,omitempty"`
}

// Process collects the scans under srcDir and writes the size reports into
// reportDir. When every report is newer than every scan and force is false
// it does nothing.
func Process(ctx context.Context, srcDir, reportDir string, force bool, opts ...Option) (*Result, error) {
	if !force {
		var outputs []string
		for _, kind := range []string{KindPages, KindCovers} {
			if dirExists(filepath.Join(srcDir, kind)) {
				outputs = append(outputs, filepath.Join(reportDir, SizesFile(kind)))
			}
		}
		ok, err := UpToDate(outputs, srcDir)
		if err != nil {
			return nil, err
		}
		if ok {
			return &Result{UpToDate: true}, nil
		}
	}

	info, err := Collect(ctx, srcDir, opts...)
	if err != nil {
		return nil, err
	}
	written, err := WriteSizes(reportDir, info)
	if err != nil {
		return nil, err
	}
	return &Result{Info: info, Written: written}, nil
}

func dirExists(path string) bool {
	st, err := os.Stat(path)
	return err == nil && st.IsDir()
}
