package scans

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// SizesFile is the name of the report written for a scan kind.
func SizesFile(kind string) string {
	return "sizes_" + kind + ".tsv"
}

// WriteSizes writes one sizes_<kind>.tsv per kind into outDir and returns the
// written paths.
func WriteSizes(outDir string, info *Info) ([]string, error) {
	if err := os.MkdirAll(outDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create report dir: %w", err)
	}

	kinds := make([]string, 0, len(info.Sizes))
	for kind := range info.Sizes {
		kinds = append(kinds, kind)
	}
	SortVersions(kinds)

	var written []string
	for _, kind := range kinds {
		path := filepath.Join(outDir, SizesFile(kind))
		if err := writeSizes(path, info, kind); err != nil {
			return written, err
		}
		written = append(written, path)
	}
	return written, nil
}

func writeSizes(path string, info *Info, kind string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	w := bufio.NewWriter(f)
	fmt.Fprintln(w, "file\twidth\theight")
	for _, page := range info.Pages(kind) {
		s := info.Sizes[kind][page]
		fmt.Fprintf(w, "%s\t%d\t%d\n", page, s.Width, s.Height)
	}
	if err := w.Flush(); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// ReadSizes parses a file written by WriteSizes.
func ReadSizes(path string) (map[string]Size, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	out := make(map[string]Size)
	for i, line := range strings.Split(strings.TrimRight(string(data), "\n"), "\n") {
		if i == 0 || line == "" {
			continue
		}
		fields := strings.Split(line, "\t")
		if len(fields) != 3 {
			return nil, fmt.Errorf("%s:%d: expected 3 fields", filepath.Base(path), i+1)
		}
		w, errW := strconv.Atoi(fields[1])
		h, errH := strconv.Atoi(fields[2])
		if err := errors.Join(errW, errH); err != nil {
			return nil, fmt.Errorf("%s:%d: %w", filepath.Base(path), i+1, err)
		}
		out[fields[0]] = Size{Width: w, Height: h}
	}
	return out, nil
}

// UpToDate reports whether every output exists and is newer than the newest
// file under the given inputs (files or directories, walked recursively).
// Directories holding outputs are not inputs, so reports may live below the
// scans.
func UpToDate(outputs []string, inputs ...string) (bool, error) {
	if len(outputs) == 0 {
		return false, nil
	}
	outDirs := make(map[string]bool, len(outputs))
	oldest := time.Time{}
	for i, out := range outputs {
		if abs, err := filepath.Abs(filepath.Dir(out)); err == nil {
			outDirs[abs] = true
		}
		st, err := os.Stat(out)
		if errors.Is(err, os.ErrNotExist) {
			return false, nil
		}
		if err != nil {
			return false, err
		}
		if i == 0 || st.ModTime().Before(oldest) {
			oldest = st.ModTime()
		}
	}

	for _, in := range inputs {
		err := filepath.WalkDir(in, func(path string, d os.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				if abs, err := filepath.Abs(path); err == nil && outDirs[abs] {
					return filepath.SkipDir
				}
				return nil
			}
			st, err := d.Info()
			if err != nil {
				return err
			}
			if !st.ModTime().Before(oldest) {
				return errNewer
			}
			return nil
		})
		if errors.Is(err, errNewer) {
			return false, nil
		}
		if err != nil && !errors.Is(err, os.ErrNotExist) {
			return false, err
		}
	}
	return true, nil
}

var errNewer = errors.New("input newer than output")
