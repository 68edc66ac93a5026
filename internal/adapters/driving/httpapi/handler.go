package httpapi

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/samber/lo"

	"github.com/custodia-labs/docrag/internal/core/domain"
)

type handler struct {
	ports *Ports
}

func (h *handler) handleHealthy(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"result": "ok"})
}

// handleAnswer always replies 200: the answer service degrades to a fixed
// message instead of failing.
func (h *handler) handleAnswer(c *fiber.Ctx) error {
	var params QueryParams
	if c.BodyParser(&params) != nil {
		return errBadRequest()
	}
	if err := check(&params); err != nil {
		return err
	}

	answer := h.ports.Answer.Answer(c.UserContext(), params.Query)
	return c.JSON(AnswerResponse{Answer: answer})
}

func (h *handler) handleRetrieve(c *fiber.Ctx) error {
	var params QueryParams
	if c.BodyParser(&params) != nil {
		return errBadRequest()
	}
	if err := check(&params); err != nil {
		return err
	}

	result, err := h.ports.Answer.Retrieve(c.UserContext(), params.Query, params.K, params.Budget)
	if err != nil {
		return err
	}
	return c.JSON(newRetrieveResponse(result))
}

func (h *handler) handleListPages(c *fiber.Ctx) error {
	if h.ports.Pages == nil {
		return fiber.ErrNotImplemented
	}
	pages, err := h.ports.Pages.ListPages(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(PagesResponse{Pages: lo.Ternary(pages == nil, []string{}, pages)})
}

func (h *handler) handlePageContent(c *fiber.Ctx) error {
	if h.ports.Pages == nil {
		return fiber.ErrNotImplemented
	}
	url := strings.TrimSpace(c.Query("url"))
	if url == "" {
		return NewError(fiber.StatusBadRequest, "query parameter url is required")
	}

	page, err := h.ports.Pages.PageContent(c.UserContext(), url)
	if err != nil {
		return err
	}
	return c.JSON(PageResponse{
		URL:     page.URL,
		Title:   page.Title,
		Content: page.Content,
		Chunks:  page.Chunks,
	})
}

func (h *handler) handleIngest(c *fiber.Ctx) error {
	if h.ports.Ingest == nil {
		return fiber.ErrNotImplemented
	}
	var params IngestParams
	if c.BodyParser(&params) != nil {
		return errBadRequest()
	}
	if err := check(&params); err != nil {
		return err
	}

	docs := lo.Map(params.Documents, func(d DocumentParams, _ int) domain.Document {
		return domain.Document{URL: d.URL, Content: d.Content, FetchedAt: d.FetchedAt, Source: d.Source}
	})
	report, err := h.ports.Ingest.IngestDocuments(c.UserContext(), docs)
	if err != nil && report == nil {
		return err
	}
	if err != nil {
		// The batch ran but the store rejected every chunk.
		return c.Status(statusFor(err)).JSON(newIngestResponse(report))
	}
	return c.JSON(newIngestResponse(report))
}

func (h *handler) handleIngestStatus(c *fiber.Ctx) error {
	if h.ports.Ingest == nil {
		return fiber.ErrNotImplemented
	}
	status := h.ports.Ingest.Status()
	return c.JSON(fiber.Map{
		"running":             status.Running,
		"documents_processed": status.DocumentsProcessed,
		"chunks_stored":       status.ChunksStored,
		"error_count":         status.ErrorCount,
	})
}

func (h *handler) handleRuns(c *fiber.Ctx) error {
	if h.ports.History == nil {
		return fiber.ErrNotImplemented
	}
	limit := c.QueryInt("limit", 0)
	if limit < 0 {
		return NewError(fiber.StatusBadRequest, "limit must not be negative")
	}

	runs, err := h.ports.History.Recent(c.UserContext(), limit)
	if err != nil {
		return err
	}
	return c.JSON(lo.Map(runs, func(r domain.IngestRun, _ int) RunResponse { return newRunResponse(r) }))
}
