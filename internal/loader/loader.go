// Package loader reads the knowledge-base directory into documents.
package loader

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/bmatcuk/doublestar/v4"

	"finchat/internal/domain"
)

// MinContentLength is the number of characters a trimmed file must exceed to be indexed.
const MinContentLength = 5

// DefaultExtensions are the text-like file types read from the corpus.
var DefaultExtensions = []string{"txt", "md", "json"}

// Loader collects eligible files from a single flat directory.
type Loader struct {
	extensions []string
	logger     *slog.Logger
}

// New creates a loader for the given extensions (without dots).
// An empty list selects DefaultExtensions.
func New(extensions []string, logger *slog.Logger) *Loader {
	if len(extensions) == 0 {
		extensions = DefaultExtensions
	}
	cleaned := make([]string, 0, len(extensions))
	for _, ext := range extensions {
		ext = strings.TrimPrefix(strings.ToLower(strings.TrimSpace(ext)), ".")
		if ext != "" {
			cleaned = append(cleaned, ext)
		}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Loader{extensions: cleaned, logger: logger}
}

// Pattern returns the glob matched against file names in the corpus root.
func (l *Loader) Pattern() string {
	if len(l.extensions) == 1 {
		return "*." + l.extensions[0]
	}
	return "*.{" + strings.Join(l.extensions, ",") + "}"
}

// Matches reports whether a file name is one the loader would read.
func (l *Loader) Matches(name string) bool {
	ok, err := doublestar.Match(l.Pattern(), strings.ToLower(path.Base(filepath.ToSlash(name))))
	return err == nil && ok
}

// Load reads every matching file directly under root. Unreadable, empty or
// too-short files are skipped. A missing root yields no documents and no error.
func (l *Loader) Load(ctx context.Context, root string) ([]domain.Document, error) {
	info, err := os.Stat(root)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			l.logger.Warn("corpus directory not found", "root", root)
			return nil, nil
		}
		return nil, err
	}
	if !info.IsDir() {
		l.logger.Warn("corpus root is not a directory", "root", root)
		return nil, nil
	}

	fsys := os.DirFS(root)
	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return nil, err
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() || !l.Matches(e.Name()) {
			continue
		}
		names = append(names, e.Name())
	}
	sort.Strings(names)

	docs := make([]domain.Document, 0, len(names))
	for _, name := range names {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		data, err := fs.ReadFile(fsys, name)
		if err != nil {
			l.logger.Debug("skipping unreadable file", "file", name, "error", err)
			continue
		}
		text := strings.TrimSpace(string(data))
		if n := utf8.RuneCountInString(text); n <= MinContentLength {
			l.logger.Debug("skipping short file", "file", name, "length", n)
			continue
		}
		full := filepath.Join(root, name)
		docs = append(docs, domain.Document{
			ID:      DocumentID(full),
			Path:    full,
			Content: text,
		})
	}
	l.logger.Info("corpus loaded", "root", root, "documents", len(docs), "pattern", l.Pattern())
	return docs, nil
}

// DocumentID derives a stable identifier from a source path.
func DocumentID(p string) string {
	return strings.ReplaceAll(filepath.ToSlash(p), "/", "_")
}
