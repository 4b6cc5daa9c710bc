package file

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/aretw0/teiinfo/pkg/domain"
	"github.com/fsnotify/fsnotify"
)

// Loader implements ports.CorpusLoader over a directory tree.
// Every *.xml file below Root is a document; its ID is the slash separated
// path relative to Root without the extension.
type Loader struct {
	Root string

	debounce time.Duration
	exclude  map[string]bool
	logger   *slog.Logger
}

// LoaderOption configures a Loader.
type LoaderOption func(*Loader)

// WithDebounce sets how long Watch waits for a burst of changes to settle.
func WithDebounce(d time.Duration) LoaderOption {
	return func(l *Loader) {
		l.debounce = d
	}
}

// WithExcludedDirs skips directories with the given base names.
func WithExcludedDirs(names ...string) LoaderOption {
	return func(l *Loader) {
		for _, n := range names {
			l.exclude[n] = true
		}
	}
}

// WithLogger sets the logger used by Watch.
func WithLogger(logger *slog.Logger) LoaderOption {
	return func(l *Loader) {
		l.logger = logger
	}
}

// NewLoader creates a loader rooted at root.
func NewLoader(root string, opts ...LoaderOption) *Loader {
	l := &Loader{
		Root:     root,
		debounce: 300 * time.Millisecond,
		exclude:  map[string]bool{".git": true, ".teiinfo": true},
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// GetDocument reads the document with the given ID.
func (l *Loader) GetDocument(ctx context.Context, id string) ([]byte, error) {
	clean := path.Clean("/" + id)[1:]
	if clean == "" || clean != id {
		return nil, fmt.Errorf("%w: %s", domain.ErrDocumentNotFound, id)
	}

	data, err := os.ReadFile(l.Path(id))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", domain.ErrDocumentNotFound, id)
		}
		return nil, fmt.Errorf("failed to read document %s: %w", id, err)
	}
	return data, nil
}

// Path returns the file path of a document ID.
func (l *Loader) Path(id string) string {
	return filepath.Join(l.Root, filepath.FromSlash(id)+".xml")
}

// ListDocuments walks Root and returns every document ID, sorted.
func (l *Loader) ListDocuments(ctx context.Context) ([]string, error) {
	var ids []string
	err := filepath.WalkDir(l.Root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if d.IsDir() {
			if p != l.Root && l.exclude[d.Name()] {
				return filepath.SkipDir
			}
			return nil
		}
		if id, ok := l.idOf(p); ok {
			ids = append(ids, id)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list corpus %s: %w", l.Root, err)
	}
	sort.Strings(ids)
	return ids, nil
}

func (l *Loader) idOf(p string) (string, bool) {
	if !strings.EqualFold(filepath.Ext(p), ".xml") {
		return "", false
	}
	rel, err := filepath.Rel(l.Root, p)
	if err != nil {
		return "", false
	}
	return filepath.ToSlash(strings.TrimSuffix(rel, filepath.Ext(rel))), true
}

// Watch reports the IDs of documents that were written, created or removed.
// Bursts of events are debounced: an ID is emitted once the tree has been
// quiet for the debounce period. New subdirectories are watched as they appear.
func (l *Loader) Watch(ctx context.Context) (<-chan string, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}

	if err := l.addTree(watcher, l.Root); err != nil {
		watcher.Close()
		return nil, err
	}

	out := make(chan string, 16)
	go l.watchLoop(ctx, watcher, out)
	return out, nil
}

func (l *Loader) addTree(watcher *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if p != root && l.exclude[d.Name()] {
			return filepath.SkipDir
		}
		if err := watcher.Add(p); err != nil {
			return fmt.Errorf("failed to watch %s: %w", p, err)
		}
		return nil
	})
}

func (l *Loader) watchLoop(ctx context.Context, watcher *fsnotify.Watcher, out chan<- string) {
	defer close(out)
	defer watcher.Close()

	var (
		mu      sync.Mutex
		pending = make(map[string]bool)
		timer   *time.Timer
	)
	flush := func() {
		mu.Lock()
		ids := make([]string, 0, len(pending))
		for id := range pending {
			ids = append(ids, id)
		}
		pending = make(map[string]bool)
		mu.Unlock()

		sort.Strings(ids)
		for _, id := range ids {
			select {
			case out <- id:
			case <-ctx.Done():
				return
			}
		}
	}
	flushCh := make(chan struct{}, 1)

	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			return

		case <-flushCh:
			flush()

		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if event.Has(fsnotify.Create) {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					if err := l.addTree(watcher, event.Name); err != nil {
						l.logger.Warn("Failed to watch new directory", "path", event.Name, "err", err)
					}
					continue
				}
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) &&
				!event.Has(fsnotify.Remove) && !event.Has(fsnotify.Rename) {
				continue
			}
			id, ok := l.idOf(event.Name)
			if !ok {
				continue
			}
			l.logger.Debug("Corpus change detected", "document", id, "op", event.Op.String())

			mu.Lock()
			pending[id] = true
			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(l.debounce, func() {
				select {
				case flushCh <- struct{}{}:
				default:
				}
			})
			mu.Unlock()

		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			l.logger.Warn("Corpus watcher error", "err", err)
		}
	}
}
