// Package scans collects information about the page scans of a corpus:
// image dimensions per scan kind and the rotations that have to be applied.
package scans

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"
)

// Scan kinds, each stored in a subdirectory of the scan root.
const (
	KindPages  = "pages"
	KindCovers = "covers"
)

// RotationFile holds the page rotations, relative to the scan root.
const RotationFile = "rotation_pages.tsv"

const dsStore = ".DS_Store"

// Size is the pixel size of one scan.
type Size struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Info is everything known about the scans of a corpus.
type Info struct {
	// Sizes maps a kind to the sizes of its scans, keyed by file name without extension.
	Sizes map[string]map[string]Size `json:"sizes"`
	// Rotations maps a page to its rotation in degrees.
	Rotations map[string]int `json:"rotations,omitempty"`
	// Skipped maps files that could not be decoded to the reason.
	Skipped map[string]string `json:"skipped,omitempty"`
}

// Pages returns the names of the scans of a kind in version order.
func (i *Info) Pages(kind string) []string {
	out := make([]string, 0, len(i.Sizes[kind]))
	for p := range i.Sizes[kind] {
		out = append(out, p)
	}
	SortVersions(out)
	return out
}

// Option configures Collect.
type Option func(*collector)

type collector struct {
	logger  *slog.Logger
	workers int
	kinds   []string
}

// WithLogger sets the logger for skipped files.
func WithLogger(l *slog.Logger) Option {
	return func(c *collector) { c.logger = l }
}

// WithWorkers bounds the number of images decoded concurrently.
func WithWorkers(n int) Option {
	return func(c *collector) {
		if n > 0 {
			c.workers = n
		}
	}
}

// WithKinds restricts the scan directories that are read.
func WithKinds(kinds ...string) Option {
	return func(c *collector) { c.kinds = kinds }
}

// Collect reads the dimensions of every scan under dir/pages and dir/covers
// and the rotations in dir/rotation_pages.tsv. Missing kind directories and a
// missing rotation file are not errors.
func Collect(ctx context.Context, dir string, opts ...Option) (*Info, error) {
	c := &collector{
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
		workers: runtime.NumCPU(),
		kinds:   []string{KindPages, KindCovers},
	}
	for _, opt := range opts {
		opt(c)
	}

	info := &Info{
		Sizes:   make(map[string]map[string]Size),
		Skipped: make(map[string]string),
	}

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.workers)

	for _, kind := range c.kinds {
		entries, err := os.ReadDir(filepath.Join(dir, kind))
		if errors.Is(err, os.ErrNotExist) {
			c.logger.Debug("scan directory not found", "kind", kind, "dir", dir)
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read %s scans: %w", kind, err)
		}
		sizes := make(map[string]Size, len(entries))
		info.Sizes[kind] = sizes

		for _, e := range entries {
			if e.IsDir() || e.Name() == dsStore || strings.HasPrefix(e.Name(), ".") {
				continue
			}
			path := filepath.Join(dir, kind, e.Name())
			page := strings.TrimSuffix(e.Name(), filepath.Ext(e.Name()))

			g.Go(func() error {
				if err := gctx.Err(); err != nil {
					return err
				}
				size, err := ImageSize(path)
				mu.Lock()
				defer mu.Unlock()
				if err != nil {
					c.logger.Warn("skipping scan", "path", path, "err", err)
					info.Skipped[filepath.ToSlash(filepath.Join(kind, e.Name()))] = err.Error()
					return nil
				}
				sizes[page] = size
				return nil
			})
		}
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	rotations, err := ReadRotations(filepath.Join(dir, RotationFile))
	switch {
	case errors.Is(err, os.ErrNotExist):
		c.logger.Debug("rotation file not found", "dir", dir)
	case err != nil:
		return nil, err
	default:
		info.Rotations = rotations
	}
	return info, nil
}

// ImageSize decodes only the header of a JPEG, PNG or GIF file.
func ImageSize(path string) (Size, error) {
	f, err := os.Open(path)
	if err != nil {
		return Size{}, err
	}
	defer f.Close()

	cfg, _, err := image.DecodeConfig(bufio.NewReader(f))
	if err != nil {
		return Size{}, fmt.Errorf("decode %s: %w", filepath.Base(path), err)
	}
	return Size{Width: cfg.Width, Height: cfg.Height}, nil
}

// ReadRotations parses a rotation file: a header line, then page<TAB>degrees.
func ReadRotations(path string) (map[string]int, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	out := make(map[string]int)
	sc := bufio.NewScanner(f)
	line := 0
	for sc.Scan() {
		line++
		if line == 1 || strings.TrimSpace(sc.Text()) == "" {
			continue
		}
		fields := strings.Split(sc.Text(), "\t")
		if len(fields) < 2 {
			return nil, fmt.Errorf("%s:%d: expected page and rotation", filepath.Base(path), line)
		}
		deg, err := strconv.Atoi(strings.TrimSpace(fields[1]))
		if err != nil {
			return nil, fmt.Errorf("%s:%d: invalid rotation %q", filepath.Base(path), line, fields[1])
		}
		out[fields[0]] = deg
	}
	return out, sc.Err()
}
