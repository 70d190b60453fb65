// Package document is the handle to the single task document. It
// serializes mutations and maps storage failures onto the engine's error
// kinds.
package document

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"strings"
	"sync"

	"github.com/starford/orgtasks/internal/apperr"
	"github.com/starford/orgtasks/internal/checksum"
	"github.com/starford/orgtasks/internal/storage"
)

// Document reads and rewrites one file through a storage.Provider.
type Document struct {
	store     storage.Provider
	name      string
	crossProc bool
	logger    *slog.Logger

	mu sync.Mutex // serializes read-modify-write cycles within the process
}

// Option configures a Document.
type Option func(*Document)

// WithFileLock additionally holds an advisory file lock for every
// mutation, so separate processes editing the same file serialize too.
func WithFileLock(enabled bool) Option {
	return func(d *Document) { d.crossProc = enabled }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(d *Document) { d.logger = l }
}

// New creates a handle for name, relative to store's root.
func New(store storage.Provider, name string, opts ...Option) *Document {
	d := &Document{store: store, name: name, logger: slog.Default()}
	for _, o := range opts {
		o(d)
	}
	return d
}

// Name returns the document path relative to the storage root.
func (d *Document) Name() string { return d.name }

// Ensure creates the document empty when it does not exist yet.
func (d *Document) Ensure() error {
	exists, _, err := d.store.Stat(d.name)
	if err != nil {
		return fmt.Errorf("%w: %v", apperr.ErrDocumentUnreadable, err)
	}
	if exists {
		return nil
	}
	d.logger.Info("creating task document", slog.String("path", d.name))
	if err := d.store.Write(d.name, nil); err != nil {
		return fmt.Errorf("%w: %v", apperr.ErrDocumentUnwritable, err)
	}
	return nil
}

// Read returns the full document text.
func (d *Document) Read() (string, error) {
	data, err := d.store.Read(d.name)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", fmt.Errorf("%w: %s does not exist", apperr.ErrDocumentUnreadable, d.name)
		}
		return "", fmt.Errorf("%w: %v", apperr.ErrDocumentUnreadable, err)
	}
	return string(data), nil
}

// Lines returns the document split into lines.
func (d *Document) Lines() ([]string, error) {
	text, err := d.Read()
	if err != nil {
		return nil, err
	}
	return SplitLines(text), nil
}

// Mutate runs one read → compute → write cycle on the document lines.
// fn receives a fresh read and returns the replacement lines; returning an
// error aborts without writing. Concurrent Mutate calls never interleave.
func (d *Document) Mutate(ctx context.Context, fn func(lines []string) ([]string, error)) error {
	return d.MutateText(ctx, func(text string) (string, error) {
		out, err := fn(SplitLines(text))
		if err != nil {
			return "", err
		}
		return strings.Join(out, "\n"), nil
	})
}

// MutateText is Mutate over the raw text.
func (d *Document) MutateText(ctx context.Context, fn func(text string) (string, error)) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if d.crossProc {
		unlock, err := d.store.Lock(d.name)
		if err != nil {
			return fmt.Errorf("%w: %v", apperr.ErrDocumentUnwritable, err)
		}
		defer func() {
			if err := unlock(); err != nil {
				d.logger.Warn("release document lock", slog.String("error", err.Error()))
			}
		}()
	}

	text, err := d.Read()
	if err != nil {
		return err
	}
	out, err := fn(text)
	if err != nil {
		return err
	}
	if out == text {
		return nil
	}
	if err := d.store.Write(d.name, []byte(out)); err != nil {
		return fmt.Errorf("%w: %v", apperr.ErrDocumentUnwritable, err)
	}
	return nil
}

// Replace overwrites the whole document when its current checksum equals
// ifMatch. An empty ifMatch skips the check.
func (d *Document) Replace(ctx context.Context, text, ifMatch string) error {
	return d.MutateText(ctx, func(cur string) (string, error) {
		if ifMatch != "" && checksum.Sum([]byte(cur)) != ifMatch {
			return "", fmt.Errorf("%w: document changed since it was read", apperr.ErrConflict)
		}
		return text, nil
	})
}

// SplitLines splits on "\n". A final newline yields a trailing empty
// element so that joining restores the text exactly.
func SplitLines(text string) []string {
	return strings.Split(text, "\n")
}
