// Package markdown reads crawler output written as a directory of Markdown
// files, one page per file.
//
// A page's URL comes from a "url" front-matter field. Without one it is
// base URL + the file's path relative to the root, minus the extension.
// Without a base URL it is a file:// URL.
package markdown

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"gopkg.in/yaml.v3"

	"github.com/custodia-labs/docrag/internal/core/domain"
	"github.com/custodia-labs/docrag/internal/core/ports/driven"
	"github.com/custodia-labs/docrag/internal/logger"
)

var _ driven.WatchableSource = (*Source)(nil)

// ErrClosed is returned after Close.
var ErrClosed = errors.New("markdown source closed")

// frontMatter holds the fields docrag reads from a file header.
type frontMatter struct {
	URL       string    `yaml:"url"`
	Title     string    `yaml:"title"`
	FetchedAt time.Time `yaml:"fetched_at"`
	Source    string    `yaml:"source"`
}

// Source walks a directory tree of .md files.
type Source struct {
	root    string
	baseURL string

	mu     sync.Mutex
	closed bool
}

// New creates a source rooted at root. baseURL may be empty.
func New(root, baseURL string) *Source {
	return &Source{root: root, baseURL: strings.TrimRight(baseURL, "/")}
}

// Name returns "markdown:<root>".
func (s *Source) Name() string {
	return "markdown:" + s.root
}

// Documents reads every Markdown file under the root.
func (s *Source) Documents(ctx context.Context) (<-chan domain.Document, <-chan error) {
	docs := make(chan domain.Document)
	errs := make(chan error, 1)

	go func() {
		defer close(docs)
		defer close(errs)

		if err := s.checkRoot(); err != nil {
			errs <- err
			return
		}
		err := filepath.WalkDir(s.root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if path != s.root && isHidden(d.Name()) {
				if d.IsDir() {
					return filepath.SkipDir
				}
				return nil
			}
			if d.IsDir() || !isMarkdown(path) {
				return nil
			}
			doc, err := s.read(path)
			if err != nil {
				logger.Warn("skipping %s: %v", path, err)
				return nil
			}
			select {
			case docs <- doc:
				return nil
			case <-ctx.Done():
				return ctx.Err()
			}
		})
		if err != nil {
			errs <- err
		}
	}()

	return docs, errs
}

// Watch emits a document whenever a Markdown file is created or written.
// Removed files are ignored; their chunks stay until the page is re-ingested.
func (s *Source) Watch(ctx context.Context) (<-chan domain.Document, <-chan error) {
	docs := make(chan domain.Document)
	errs := make(chan error, 1)

	watcher, err := s.newWatcher()
	if err != nil {
		close(docs)
		errs <- err
		close(errs)
		return docs, errs
	}

	go func() {
		defer close(docs)
		defer close(errs)
		defer watcher.Close()

		for {
			select {
			case <-ctx.Done():
				return
			case werr, ok := <-watcher.Errors:
				if !ok {
					return
				}
				logger.Warn("watch %s: %v", s.root, werr)
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				doc, ok := s.handleEvent(watcher, event)
				if !ok {
					continue
				}
				select {
				case docs <- doc:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return docs, errs
}

func (s *Source) newWatcher() (*fsnotify.Watcher, error) {
	s.mu.Lock()
	closed := s.closed
	s.mu.Unlock()
	if closed {
		return nil, ErrClosed
	}
	if err := s.checkRoot(); err != nil {
		return nil, err
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating watcher: %w", err)
	}
	err = filepath.WalkDir(s.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil || !d.IsDir() {
			return err
		}
		if path != s.root && isHidden(d.Name()) {
			return filepath.SkipDir
		}
		return watcher.Add(path)
	})
	if err != nil {
		watcher.Close()
		return nil, fmt.Errorf("watching %s: %w", s.root, err)
	}
	return watcher, nil
}

// handleEvent turns a create or write event into a document. New
// directories are added to the watcher.
func (s *Source) handleEvent(watcher *fsnotify.Watcher, event fsnotify.Event) (domain.Document, bool) {
	if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
		return domain.Document{}, false
	}
	if isHidden(filepath.Base(event.Name)) {
		return domain.Document{}, false
	}
	info, err := os.Stat(event.Name)
	if err != nil {
		return domain.Document{}, false
	}
	if info.IsDir() {
		if err := watcher.Add(event.Name); err != nil {
			logger.Warn("watch %s: %v", event.Name, err)
		}
		return domain.Document{}, false
	}
	if !isMarkdown(event.Name) {
		return domain.Document{}, false
	}
	doc, err := s.read(event.Name)
	if err != nil {
		logger.Warn("skipping %s: %v", event.Name, err)
		return domain.Document{}, false
	}
	return doc, true
}

func (s *Source) checkRoot() error {
	info, err := os.Stat(s.root)
	if err != nil {
		return fmt.Errorf("%w: root path: %w", domain.ErrInvalidInput, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%w: root path %s is not a directory", domain.ErrInvalidInput, s.root)
	}
	return nil
}

// read loads one file and resolves its URL.
func (s *Source) read(path string) (domain.Document, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return domain.Document{}, err
	}
	fm, body, err := splitFrontMatter(raw)
	if err != nil {
		return domain.Document{}, err
	}

	doc := domain.Document{
		URL:       fm.URL,
		Content:   body,
		FetchedAt: fm.FetchedAt,
		Source:    fm.Source,
	}
	if doc.URL == "" {
		doc.URL, err = s.urlFor(path)
		if err != nil {
			return domain.Document{}, err
		}
	}
	if doc.FetchedAt.IsZero() {
		if info, err := os.Stat(path); err == nil {
			doc.FetchedAt = info.ModTime().UTC()
		}
	}
	if fm.Title != "" && !strings.HasPrefix(strings.TrimSpace(body), "#") {
		doc.Content = "# " + fm.Title + "\n\n" + body
	}
	return doc, nil
}

func (s *Source) urlFor(path string) (string, error) {
	if s.baseURL == "" {
		abs, err := filepath.Abs(path)
		if err != nil {
			return "", err
		}
		return (&url.URL{Scheme: "file", Path: filepath.ToSlash(abs)}).String(), nil
	}
	rel, err := filepath.Rel(s.root, path)
	if err != nil {
		return "", err
	}
	rel = strings.TrimSuffix(filepath.ToSlash(rel), filepath.Ext(rel))
	rel = strings.TrimSuffix(rel, "index")
	return s.baseURL + "/" + rel, nil
}

var fence = []byte("---")

// splitFrontMatter parses a leading YAML block delimited by --- lines.
func splitFrontMatter(raw []byte) (frontMatter, string, error) {
	var fm frontMatter
	raw = bytes.TrimPrefix(raw, []byte("\xef\xbb\xbf"))
	if !bytes.HasPrefix(raw, fence) {
		return fm, string(raw), nil
	}
	first := bytes.IndexByte(raw, '\n')
	if first < 0 || len(bytes.TrimSpace(raw[:first])) != len(fence) {
		return fm, string(raw), nil
	}
	rest := raw[first+1:]
	end := bytes.Index(rest, []byte("\n---"))
	if end < 0 {
		return fm, string(raw), nil
	}
	if err := yaml.Unmarshal(rest[:end], &fm); err != nil {
		return fm, "", fmt.Errorf("front matter: %w", err)
	}
	body := rest[end+len("\n---"):]
	if i := bytes.IndexByte(body, '\n'); i >= 0 {
		body = body[i+1:]
	} else {
		body = nil
	}
	return fm, string(body), nil
}

func isMarkdown(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".md", ".markdown", ".mdx":
		return true
	}
	return false
}

func isHidden(name string) bool {
	return len(name) > 1 && strings.HasPrefix(name, ".") && name != ".."
}

// Close stops future watches.
func (s *Source) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}
