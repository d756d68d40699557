// Package vault persists rendered documents as a flat directory of
// markdown files. Filenames are the only index.
package vault

import (
	"bufio"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"stockpile/pkg/markdown"
)

// ErrNotFound is returned when a lookup or append targets a file that does
// not exist.
var ErrNotFound = errors.New("article file not found")

// Store writes documents under one root directory.
type Store struct {
	dir    string
	mu     sync.Mutex // serializes comment appends
	logger *slog.Logger
}

// New creates a Store rooted at dir, creating the directory if missing.
func New(dir string, logger *slog.Logger) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create vault dir %s: %w", dir, err)
	}
	return &Store{dir: dir, logger: logger.With("component", "vault")}, nil
}

// Dir returns the root directory of the store.
func (s *Store) Dir() string { return s.dir }

// SaveArticle writes content under a filename derived from title and
// returns the path. An existing file with the same name is overwritten.
func (s *Store) SaveArticle(title, content string) (string, error) {
	path := filepath.Join(s.dir, markdown.GenerateFilename(title))
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return "", fmt.Errorf("save article %q: %w", title, err)
	}
	s.logger.Info("article saved", "path", path)
	return path, nil
}

// SaveMemo writes content under a timestamped memo filename, avoiding title
// collisions entirely.
func (s *Store) SaveMemo(content string) (string, error) {
	name := time.Now().Format("2006-01-02_150405") + "_memo.md"
	path := filepath.Join(s.dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return "", fmt.Errorf("save memo: %w", err)
	}
	s.logger.Info("memo saved", "path", path)
	return path, nil
}

// AppendComment adds a dated comment entry to the end of an existing
// document, creating the comments section when it is missing. Prior content
// is preserved apart from trailing whitespace.
func (s *Store) AppendComment(path, comment string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		return fmt.Errorf("read %s: %w", path, err)
	}

	existing := strings.TrimRight(string(data), " \t\r\n")
	entry := markdown.CommentEntry(comment)

	var updated string
	if strings.Contains(existing, markdown.CommentsHeading) {
		updated = existing + entry
	} else {
		updated = existing + "\n\n" + markdown.CommentsHeading + "\n" + entry
	}

	if err := os.WriteFile(path, []byte(updated), 0o644); err != nil {
		return fmt.Errorf("append comment to %s: %w", path, err)
	}
	s.logger.Info("comment appended", "path", path)
	return nil
}

// FindByURL scans the stored documents for a front-matter line holding the
// given url and returns the first match. The scan is linear; fine for a
// personal archive.
func (s *Store) FindByURL(url string) (string, error) {
	paths, err := filepath.Glob(filepath.Join(s.dir, "*.md"))
	if err != nil {
		return "", fmt.Errorf("scan vault: %w", err)
	}

	target := "url: " + url
	for _, path := range paths {
		ok, err := fileHasLine(path, target)
		if err != nil {
			s.logger.Warn("skipping unreadable file", "path", path, "err", err)
			continue
		}
		if ok {
			s.logger.Info("article found by url", "url", url, "path", path)
			return path, nil
		}
	}
	return "", fmt.Errorf("%w: no document for %s", ErrNotFound, url)
}

func fileHasLine(path, line string) (bool, error) {
	f, err := os.Open(path)
	if err != nil {
		return false, err
	}
	defer f.Close()

	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 64*1024), 1024*1024)
	for sc.Scan() {
		if strings.TrimRight(sc.Text(), "\r") == line {
			return true, nil
		}
	}
	return false, sc.Err()
}
