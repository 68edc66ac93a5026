// Package jsonl reads crawler output written as JSON Lines, one page per line:
//
//	{"url": "...", "markdown": "...", "fetched_at": "2026-01-02T03:04:05Z"}
//
// "content" is accepted in place of "markdown". Lines that cannot be parsed
// or have no URL are skipped with a warning.
package jsonl

import (
	"bufio"
	"cmp"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/custodia-labs/docrag/internal/core/domain"
	"github.com/custodia-labs/docrag/internal/core/ports/driven"
	"github.com/custodia-labs/docrag/internal/logger"
)

var _ driven.DocumentSource = (*Source)(nil)

// maxLine bounds a single page record.
const maxLine = 16 << 20

type record struct {
	URL       string    `json:"url"`
	Markdown  string    `json:"markdown"`
	Content   string    `json:"content"`
	FetchedAt time.Time `json:"fetched_at"`
	Source    string    `json:"source"`
}

// Source reads a JSONL file. The path "-" reads from the given stdin reader.
type Source struct {
	path  string
	stdin io.Reader
}

// New creates a source for path.
func New(path string) *Source {
	return &Source{path: path, stdin: os.Stdin}
}

// NewReader creates a source reading r once.
func NewReader(r io.Reader) *Source {
	return &Source{path: "-", stdin: r}
}

// Name returns "jsonl:<path>".
func (s *Source) Name() string {
	return "jsonl:" + s.path
}

// Documents streams the records of the file.
func (s *Source) Documents(ctx context.Context) (<-chan domain.Document, <-chan error) {
	docs := make(chan domain.Document)
	errs := make(chan error, 1)

	go func() {
		defer close(docs)
		defer close(errs)
		if err := s.read(ctx, docs); err != nil {
			errs <- err
		}
	}()

	return docs, errs
}

func (s *Source) read(ctx context.Context, docs chan<- domain.Document) error {
	r := s.stdin
	if s.path != "-" {
		f, err := os.Open(s.path)
		if err != nil {
			return fmt.Errorf("%w: %w", domain.ErrInvalidInput, err)
		}
		defer f.Close()
		r = f
	}

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64<<10), maxLine)

	line := 0
	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return err
		}
		line++
		text := strings.TrimSpace(scanner.Text())
		if text == "" {
			continue
		}
		doc, err := parse(text)
		if err != nil {
			logger.Warn("%s:%d: %v", s.path, line, err)
			continue
		}
		select {
		case docs <- doc:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("reading %s: %w", s.path, err)
	}
	return nil
}

func parse(text string) (domain.Document, error) {
	var rec record
	if err := json.Unmarshal([]byte(text), &rec); err != nil {
		return domain.Document{}, fmt.Errorf("invalid record: %w", err)
	}
	if rec.URL == "" {
		return domain.Document{}, fmt.Errorf("record has no url")
	}
	return domain.Document{
		URL:       rec.URL,
		Content:   cmp.Or(rec.Markdown, rec.Content),
		FetchedAt: rec.FetchedAt,
		Source:    rec.Source,
	}, nil
}
