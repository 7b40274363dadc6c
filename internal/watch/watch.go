// Package watch follows a growing log file and extracts error records from
// the text appended to it.
package watch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/mydoor3520/log-detective/pkg/core"
	"github.com/mydoor3520/log-detective/pkg/extract"
)

// DefaultDebounce is the quiet period used when Options.Debounce is zero.
const DefaultDebounce = 300 * time.Millisecond

// Options configures a Watcher.
type Options struct {
	// Path is the file to follow.
	Path string
	// Debounce is the quiet period after the last write before parsing.
	Debounce time.Duration
	// FromStart parses the existing contents before following.
	FromStart bool
	// Language forces an extractor. EcosystemUnknown detects per chunk.
	Language core.Ecosystem
}

// Handler receives each document that contains at least one record.
// Returning an error stops the watcher.
type Handler func(doc extract.Document) error

// Watcher follows one file.
type Watcher struct {
	opts   Options
	logger *slog.Logger

	mu      sync.Mutex
	offset  int64
	pending string // text after the last newline, held until completed
}

// New creates a watcher for opts.Path. The file must exist.
// A nil logger discards output.
func New(opts Options, logger *slog.Logger) (*Watcher, error) {
	if opts.Path == "" {
		return nil, errors.New("watch: file path is required")
	}
	if opts.Debounce <= 0 {
		opts.Debounce = DefaultDebounce
	}
	if opts.Language == "" {
		opts.Language = core.EcosystemUnknown
	}
	if opts.Language != core.EcosystemUnknown {
		if _, ok := extract.ForEcosystem(opts.Language); !ok {
			return nil, &extract.UnsupportedEcosystemError{Ecosystem: opts.Language, Available: extract.Ecosystems()}
		}
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	info, err := os.Stat(opts.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to stat %s: %w", opts.Path, err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%s is a directory", opts.Path)
	}

	w := &Watcher{opts: opts, logger: logger}
	if !opts.FromStart {
		w.offset = info.Size()
	}
	return w, nil
}

// Offset returns the byte offset up to which the file has been consumed.
func (w *Watcher) Offset() int64 {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.offset
}

// Drain reads everything appended since the last call and extracts records
// from the complete lines. A file shorter than the current offset is treated
// as truncated and read again from the start.
func (w *Watcher) Drain() (extract.Document, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	text, err := w.readNew()
	if err != nil {
		return extract.Document{}, err
	}

	text = w.pending + text
	cut := strings.LastIndexByte(text, '\n')
	if cut < 0 {
		w.pending = text
		return w.document(core.EcosystemUnknown, nil), nil
	}
	w.pending = text[cut+1:]
	chunk := text[:cut+1]

	if strings.TrimSpace(chunk) == "" {
		return w.document(core.EcosystemUnknown, nil), nil
	}

	if w.opts.Language != core.EcosystemUnknown {
		records, err := extract.ParseAs(chunk, w.opts.Language)
		if err != nil {
			return extract.Document{}, err
		}
		return w.document(w.opts.Language, records), nil
	}
	eco, records := extract.Parse(chunk)
	return w.document(eco, records), nil
}

func (w *Watcher) document(eco core.Ecosystem, records []core.ErrorRecord) extract.Document {
	return extract.NewDocument(w.opts.Path, eco, records)
}

// readNew returns the bytes between the stored offset and EOF.
func (w *Watcher) readNew() (string, error) {
	f, err := os.Open(w.opts.Path)
	if err != nil {
		return "", fmt.Errorf("failed to open %s: %w", w.opts.Path, err)
	}
	defer func() { _ = f.Close() }()

	info, err := f.Stat()
	if err != nil {
		return "", fmt.Errorf("failed to stat %s: %w", w.opts.Path, err)
	}
	if info.Size() < w.offset {
		w.logger.Info("file truncated, reading from start", "path", w.opts.Path)
		w.offset = 0
		w.pending = ""
	}
	if info.Size() == w.offset {
		return "", nil
	}

	if _, err := f.Seek(w.offset, io.SeekStart); err != nil {
		return "", fmt.Errorf("failed to seek %s: %w", w.opts.Path, err)
	}
	data, err := io.ReadAll(f)
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", w.opts.Path, err)
	}
	w.offset += int64(len(data))
	return string(data), nil
}

// reset forgets the offset after the file was removed or renamed.
func (w *Watcher) reset() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.offset = 0
	w.pending = ""
}

// Run follows the file until ctx is cancelled or handle returns an error.
// With FromStart the existing contents are handled first.
func (w *Watcher) Run(ctx context.Context, handle Handler) error {
	if w.opts.FromStart {
		if err := w.flush(handle); err != nil {
			return err
		}
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer func() { _ = watcher.Close() }()

	// Watch the directory so rotation (remove + create) is seen.
	target, err := filepath.Abs(w.opts.Path)
	if err != nil {
		return fmt.Errorf("failed to resolve %s: %w", w.opts.Path, err)
	}
	if err := watcher.Add(filepath.Dir(target)); err != nil {
		return fmt.Errorf("failed to watch %s: %w", filepath.Dir(target), err)
	}
	w.logger.Debug("watching file", "path", target, "debounce", w.opts.Debounce)

	var debounce *time.Timer
	var fire <-chan time.Time
	defer func() {
		if debounce != nil {
			debounce.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != target {
				continue
			}

			if event.Op&(fsnotify.Remove|fsnotify.Rename) != 0 {
				w.logger.Info("file moved or removed, waiting for it to reappear", "path", w.opts.Path)
				w.reset()
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}

			// Debounce parses
			if debounce == nil {
				debounce = time.NewTimer(w.opts.Debounce)
			} else {
				if !debounce.Stop() {
					select {
					case <-debounce.C:
					default:
					}
				}
				debounce.Reset(w.opts.Debounce)
			}
			fire = debounce.C

		case <-fire:
			fire = nil
			if err := w.flush(handle); err != nil {
				return err
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("watcher error", "error", err)
		}
	}
}

// flush drains the file and passes a non-empty document to handle.
func (w *Watcher) flush(handle Handler) error {
	doc, err := w.Drain()
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			w.logger.Debug("file not present yet", "path", w.opts.Path)
			return nil
		}
		return err
	}
	if doc.ErrorCount == 0 {
		return nil
	}
	w.logger.Debug("records extracted", "path", w.opts.Path, "count", doc.ErrorCount, "language", doc.Language)
	return handle(doc)
}
