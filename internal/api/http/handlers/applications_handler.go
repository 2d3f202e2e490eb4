package handlers

import (
	"io"
	"mime/multipart"
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/application-tracker/internal/api/dto"
	"github.com/spec-kit/application-tracker/internal/auth"
	"github.com/spec-kit/application-tracker/internal/domain"
	"github.com/spec-kit/application-tracker/internal/service"
	"github.com/spec-kit/application-tracker/internal/storage"
	apperrors "github.com/spec-kit/application-tracker/pkg/util"
)

// ApplicationsHandler exposes the application ledger over HTTP.
type ApplicationsHandler struct {
	ledger    *service.LedgerService
	documents *storage.DocumentStore
}

// NewApplicationsHandler constructs handler.
func NewApplicationsHandler(ledger *service.LedgerService, documents *storage.DocumentStore) *ApplicationsHandler {
	return &ApplicationsHandler{ledger: ledger, documents: documents}
}

// Create handles POST /api/applications. The body is multipart so an
// optional document can ride along with the form fields.
func (h *ApplicationsHandler) Create(c *fiber.Ctx) error {
	caller, ok := auth.CallerFromContext(c)
	if !ok {
		return apperrors.NewUnauthenticated("missing session")
	}

	input := service.CreateInput{
		Description:        c.FormValue("description"),
		ReceiverRole:       domain.UserRole(c.FormValue("receiver_role")),
		ReceiverDepartment: c.FormValue("receiver_department"),
	}

	if file, err := c.FormFile("document"); err == nil && file != nil {
		ref, err := h.storeUpload(file)
		if err != nil {
			return err
		}
		input.DocumentRef = &ref
	}

	app, err := h.ledger.Create(c.UserContext(), caller, input)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": dto.FromApplication(*app)})
}

// ListMine handles GET /api/applications.
func (h *ApplicationsHandler) ListMine(c *fiber.Ctx) error {
	caller, ok := auth.CallerFromContext(c)
	if !ok {
		return apperrors.NewUnauthenticated("missing session")
	}

	apps, err := h.ledger.ListMine(c.UserContext(), caller)
	if err != nil {
		return err
	}

	rows := make([]dto.ApplicationResponse, 0, len(apps))
	for _, app := range apps {
		rows = append(rows, dto.FromApplication(app))
	}
	return c.JSON(fiber.Map{"data": rows})
}

// Get handles GET /api/applications/:id and returns the application
// with its full action history.
func (h *ApplicationsHandler) Get(c *fiber.Ctx) error {
	caller, ok := auth.CallerFromContext(c)
	if !ok {
		return apperrors.NewUnauthenticated("missing session")
	}

	detail, err := h.ledger.Get(c.UserContext(), caller, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": fiber.Map{
		"application": dto.FromApplication(detail.Application),
		"creator":     detail.Creator,
		"actions":     detail.Actions,
	}})
}

// Forward handles POST /api/applications/:id/forward.
func (h *ApplicationsHandler) Forward(c *fiber.Ctx) error {
	caller, ok := auth.CallerFromContext(c)
	if !ok {
		return apperrors.NewUnauthenticated("missing session")
	}

	var req dto.ForwardApplicationRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	app, err := h.ledger.Forward(c.UserContext(), caller, c.Params("id"), domain.UserRole(req.Role), req.Department, req.Remark)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.FromApplication(*app)})
}

// Update handles PATCH /api/applications/:id and settles the
// application as accepted or rejected.
func (h *ApplicationsHandler) Update(c *fiber.Ctx) error {
	caller, ok := auth.CallerFromContext(c)
	if !ok {
		return apperrors.NewUnauthenticated("missing session")
	}

	var req dto.UpdateApplicationRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	app, err := h.ledger.Update(c.UserContext(), caller, c.Params("id"), domain.ApplicationStatus(req.Status), req.Remark, req.ReferenceNumber)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.FromApplication(*app)})
}

// Verify handles POST /api/applications/:id/verify.
func (h *ApplicationsHandler) Verify(c *fiber.Ctx) error {
	caller, ok := auth.CallerFromContext(c)
	if !ok {
		return apperrors.NewUnauthenticated("missing session")
	}

	app, err := h.ledger.Verify(c.UserContext(), caller, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.FromApplication(*app)})
}

func (h *ApplicationsHandler) storeUpload(file *multipart.FileHeader) (string, error) {
	src, err := file.Open()
	if err != nil {
		return "", apperrors.NewValidationError("unreadable upload", nil)
	}
	defer src.Close()

	data, err := io.ReadAll(src)
	if err != nil {
		return "", apperrors.NewValidationError("unreadable upload", nil)
	}
	return h.documents.Store(data, file.Filename)
}
