package dto

import (
	"time"

	"github.com/spec-kit/application-tracker/internal/domain"
)

// ForwardApplicationRequest reassigns an application to a new handler.
type ForwardApplicationRequest struct {
	Role       string `json:"role"`
	Department string `json:"department"`
	Remark     string `json:"remark"`
}

// UpdateApplicationRequest settles an application.
type UpdateApplicationRequest struct {
	Status          string  `json:"status"`
	Remark          string  `json:"remark"`
	ReferenceNumber *string `json:"reference_number,omitempty"`
}

// ApplicationResponse is the row shape used by list endpoints.
type ApplicationResponse struct {
	ID              string                   `json:"id"`
	Description     string                   `json:"description"`
	DocumentRef     *string                  `json:"document,omitempty"`
	CreatedBy       string                   `json:"created_by"`
	CurrentHandler  string                   `json:"current_handler"`
	Status          domain.ApplicationStatus `json:"status"`
	IsVerified      bool                     `json:"is_verified"`
	AcceptReference *string                  `json:"accept_reference_number,omitempty"`
	CreatedAt       time.Time                `json:"created_at"`
	UpdatedAt       time.Time                `json:"updated_at"`
}

// FromApplication maps the domain aggregate onto the response row.
func FromApplication(app domain.Application) ApplicationResponse {
	return ApplicationResponse{
		ID:              app.ID,
		Description:     app.Description,
		DocumentRef:     app.DocumentRef,
		CreatedBy:       app.CreatedBy,
		CurrentHandler:  app.CurrentHandler,
		Status:          app.Status,
		IsVerified:      app.IsVerified,
		AcceptReference: app.AcceptReference,
		CreatedAt:       app.CreatedAt,
		UpdatedAt:       app.UpdatedAt,
	}
}
