package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/application-tracker/internal/storage"
)

// DocumentsHandler serves stored documents back by reference.
type DocumentsHandler struct {
	documents *storage.DocumentStore
}

// NewDocumentsHandler constructs handler.
func NewDocumentsHandler(documents *storage.DocumentStore) *DocumentsHandler {
	return &DocumentsHandler{documents: documents}
}

// Fetch handles GET /media/:ref.
func (h *DocumentsHandler) Fetch(c *fiber.Ctx) error {
	data, err := h.documents.Fetch(c.Params("ref"))
	if err != nil {
		return err
	}
	c.Attachment(c.Params("ref"))
	return c.Send(data)
}
