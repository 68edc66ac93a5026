package mcp

import (
	"context"

	"github.com/custodia-labs/docrag/internal/core/domain"
)

// mockAnswerService is a mock implementation of driving.AnswerService.
type mockAnswerService struct {
	result domain.RetrievalResult
	answer string
	err    error
}

func (m *mockAnswerService) Retrieve(_ context.Context, _ string, _, _ int) (domain.RetrievalResult, error) {
	return m.result, m.err
}

func (m *mockAnswerService) Answer(_ context.Context, _ string) string {
	return m.answer
}

// mockPageService is a mock implementation of driving.PageService.
type mockPageService struct {
	pages   []string
	page    *domain.Page
	err     error
	lastURL string
}

func (m *mockPageService) ListPages(_ context.Context) ([]string, error) {
	return m.pages, m.err
}

func (m *mockPageService) PageContent(_ context.Context, url string) (*domain.Page, error) {
	m.lastURL = url
	return m.page, m.err
}
