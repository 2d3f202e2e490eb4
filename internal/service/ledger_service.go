package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/application-tracker/internal/domain"
	"github.com/spec-kit/application-tracker/internal/events"
	"github.com/spec-kit/application-tracker/internal/repository"
	apperrors "github.com/spec-kit/application-tracker/pkg/util"
)

// LedgerService owns application records and their append-only action
// history. Every successful transition writes the mutation and exactly
// one audit action in a single transaction.
type LedgerService struct {
	ledger     repository.Ledger
	users      repository.UserRepository
	dispatcher events.Dispatcher
}

// LedgerDependencies bundles collaborators for the ledger service.
type LedgerDependencies struct {
	Ledger     repository.Ledger
	UserRepo   repository.UserRepository
	Dispatcher events.Dispatcher
}

// NewLedgerService constructs the service.
func NewLedgerService(deps LedgerDependencies) *LedgerService {
	return &LedgerService{
		ledger:     deps.Ledger,
		users:      deps.UserRepo,
		dispatcher: deps.Dispatcher,
	}
}

// CreateInput describes application creation payload. The receiving
// handler is resolved by role and department.
type CreateInput struct {
	Description        string
	DocumentRef        *string
	ReceiverRole       domain.UserRole
	ReceiverDepartment string
}

// UserRef is an identity resolved to display fields.
type UserRef struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Role       string `json:"role"`
	Department string `json:"department"`
}

// ActionDetail is an audit entry with actor identities resolved.
type ActionDetail struct {
	ID        string            `json:"id"`
	Type      domain.ActionType `json:"action_type"`
	Comment   *string           `json:"comment,omitempty"`
	From      UserRef           `json:"from_user"`
	To        *UserRef          `json:"to_user,omitempty"`
	CreatedAt time.Time         `json:"created_at"`
}

// ApplicationDetail is an application with its full history.
type ApplicationDetail struct {
	Application domain.Application
	Creator     UserRef
	Actions     []ActionDetail
}

// Create resolves the receiving handler by role and department, opens
// the application in PENDING, and appends the INWARD action.
func (s *LedgerService) Create(ctx context.Context, caller *domain.User, input CreateInput) (*domain.Application, error) {
	if strings.TrimSpace(input.Description) == "" {
		return nil, apperrors.NewValidationError("description required", nil)
	}
	if !domain.ValidRole(input.ReceiverRole) {
		return nil, apperrors.NewValidationError("unknown receiver role", map[string]any{"role": string(input.ReceiverRole)})
	}

	receiver, err := s.resolveHandler(ctx, input.ReceiverRole, input.ReceiverDepartment)
	if err != nil {
		return nil, err
	}

	app := &domain.Application{
		Description:    strings.TrimSpace(input.Description),
		DocumentRef:    input.DocumentRef,
		CreatedBy:      caller.ID,
		CurrentHandler: receiver.ID,
		Status:         domain.StatusPending,
	}
	err = s.ledger.InTx(ctx, func(tx repository.Ledger) error {
		if err := tx.Applications().Create(ctx, app); err != nil {
			return err
		}
		return tx.Actions().Create(ctx, &domain.ApplicationAction{
			ApplicationID: app.ID,
			FromUser:      caller.ID,
			ToUser:        &receiver.ID,
			Type:          domain.ActionInward,
		})
	})
	if err != nil {
		return nil, apperrors.MapError(err)
	}

	s.publish(ctx, events.Event{
		Type:          events.EventApplicationCreated,
		ApplicationID: app.ID,
		ActorID:       caller.ID,
		Payload: events.ApplicationCreatedPayload{
			Description:   app.Description,
			HandlerID:     receiver.ID,
			HandlerEmail:  receiver.Email,
			CreatorEmail:  caller.Email,
			HandlerRole:   string(receiver.Role),
			HandlerDepart: receiver.Department,
		},
	})
	return app, nil
}

// Forward reassigns the application to a new handler resolved by role
// and department. Only the current handler may forward, and never out
// of a terminal state.
func (s *LedgerService) Forward(ctx context.Context, caller *domain.User, applicationID string, role domain.UserRole, department, remark string) (*domain.Application, error) {
	if !domain.ValidRole(role) {
		return nil, apperrors.NewValidationError("unknown receiver role", map[string]any{"role": string(role)})
	}

	receiver, err := s.resolveHandler(ctx, role, department)
	if err != nil {
		return nil, err
	}

	var app *domain.Application
	err = s.ledger.InTx(ctx, func(tx repository.Ledger) error {
		app, err = s.loadForTransition(ctx, tx, caller, applicationID)
		if err != nil {
			return err
		}
		app.CurrentHandler = receiver.ID
		app.Status = domain.StatusForwarded
		if err := tx.Applications().Update(ctx, app); err != nil {
			return err
		}
		return tx.Actions().Create(ctx, &domain.ApplicationAction{
			ApplicationID: app.ID,
			FromUser:      caller.ID,
			ToUser:        &receiver.ID,
			Type:          domain.ActionForward,
			Comment:       optionalComment(remark),
		})
	})
	if err != nil {
		return nil, apperrors.MapError(err)
	}

	s.publish(ctx, events.Event{
		Type:          events.EventApplicationForwarded,
		ApplicationID: app.ID,
		ActorID:       caller.ID,
		Payload: events.ApplicationForwardedPayload{
			NewHandlerID:    receiver.ID,
			NewHandlerEmail: receiver.Email,
			Remark:          remark,
		},
	})
	return app, nil
}

// Update settles the application as ACCEPTED or REJECTED. Only the
// current handler may decide; both outcomes are terminal. The
// reference number is stored only for acceptances.
func (s *LedgerService) Update(ctx context.Context, caller *domain.User, applicationID string, status domain.ApplicationStatus, remark string, referenceNumber *string) (*domain.Application, error) {
	var actionType domain.ActionType
	switch status {
	case domain.StatusAccepted:
		actionType = domain.ActionAccept
	case domain.StatusRejected:
		actionType = domain.ActionReject
	default:
		return nil, apperrors.NewValidationError("status must be accepted or rejected", map[string]any{"status": string(status)})
	}

	var app *domain.Application
	err := s.ledger.InTx(ctx, func(tx repository.Ledger) error {
		var err error
		app, err = s.loadForTransition(ctx, tx, caller, applicationID)
		if err != nil {
			return err
		}
		app.Status = status
		if status == domain.StatusAccepted && referenceNumber != nil && *referenceNumber != "" {
			app.AcceptReference = referenceNumber
		}
		if err := tx.Applications().Update(ctx, app); err != nil {
			return err
		}
		creatorID := app.CreatedBy
		return tx.Actions().Create(ctx, &domain.ApplicationAction{
			ApplicationID: app.ID,
			FromUser:      caller.ID,
			ToUser:        &creatorID,
			Type:          actionType,
			Comment:       optionalComment(remark),
		})
	})
	if err != nil {
		return nil, apperrors.MapError(err)
	}

	creatorEmail := ""
	if creator, err := s.users.GetByID(ctx, app.CreatedBy); err == nil {
		creatorEmail = creator.Email
	}
	s.publish(ctx, events.Event{
		Type:          events.EventApplicationDecided,
		ApplicationID: app.ID,
		ActorID:       caller.ID,
		Payload: events.ApplicationDecidedPayload{
			Status:          app.Status,
			Remark:          remark,
			ReferenceNumber: app.AcceptReference,
			CreatorEmail:    creatorEmail,
		},
	})
	return app, nil
}

// Verify marks the application verified and hands it to the principal.
// The verified flag is orthogonal to status and is never cleared.
func (s *LedgerService) Verify(ctx context.Context, caller *domain.User, applicationID string) (*domain.Application, error) {
	principal, err := s.users.FindByRole(ctx, domain.RolePrincipal)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewReceiverNotFound(string(domain.RolePrincipal), "")
		}
		return nil, apperrors.MapError(err)
	}

	var app *domain.Application
	err = s.ledger.InTx(ctx, func(tx repository.Ledger) error {
		app, err = tx.Applications().GetByID(ctx, applicationID)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return apperrors.NewNotFound("application", map[string]any{"application_id": applicationID})
			}
			return err
		}
		if app.CurrentHandler != caller.ID {
			return apperrors.NewForbidden("only the current handler may act on this application")
		}
		app.IsVerified = true
		app.CurrentHandler = principal.ID
		if err := tx.Applications().Update(ctx, app); err != nil {
			return err
		}
		return tx.Actions().Create(ctx, &domain.ApplicationAction{
			ApplicationID: app.ID,
			FromUser:      caller.ID,
			ToUser:        &principal.ID,
			Type:          domain.ActionVerified,
		})
	})
	if err != nil {
		return nil, apperrors.MapError(err)
	}

	s.publish(ctx, events.Event{
		Type:          events.EventApplicationVerified,
		ApplicationID: app.ID,
		ActorID:       caller.ID,
		Payload: events.ApplicationVerifiedPayload{
			NewHandlerID:    principal.ID,
			NewHandlerEmail: principal.Email,
		},
	})
	return app, nil
}

// Get returns the application with its full history, each action's
// identities resolved to display fields. Access is restricted to the
// creator, the current handler, and action participants.
func (s *LedgerService) Get(ctx context.Context, caller *domain.User, applicationID string) (*ApplicationDetail, error) {
	app, err := s.ledger.Applications().GetByID(ctx, applicationID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("application", map[string]any{"application_id": applicationID})
		}
		return nil, apperrors.MapError(err)
	}

	actions, err := s.ledger.Actions().ListByApplication(ctx, applicationID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}

	if !isParticipant(caller.ID, app, actions) {
		return nil, apperrors.NewForbidden("not a participant of this application")
	}

	refs := map[string]UserRef{}
	resolve := func(id string) UserRef {
		if ref, ok := refs[id]; ok {
			return ref
		}
		ref := UserRef{ID: id}
		if user, err := s.users.GetByID(ctx, id); err == nil {
			ref = UserRef{ID: user.ID, Name: user.Name, Role: string(user.Role), Department: user.Department}
		}
		refs[id] = ref
		return ref
	}

	detail := &ApplicationDetail{
		Application: *app,
		Creator:     resolve(app.CreatedBy),
		Actions:     make([]ActionDetail, 0, len(actions)),
	}
	for _, action := range actions {
		entry := ActionDetail{
			ID:        action.ID,
			Type:      action.Type,
			Comment:   action.Comment,
			From:      resolve(action.FromUser),
			CreatedAt: action.CreatedAt,
		}
		if action.ToUser != nil {
			to := resolve(*action.ToUser)
			entry.To = &to
		}
		detail.Actions = append(detail.Actions, entry)
	}
	return detail, nil
}

// ListMine returns applications the caller created or currently
// handles, newest first.
func (s *LedgerService) ListMine(ctx context.Context, caller *domain.User) ([]domain.Application, error) {
	apps, err := s.ledger.Applications().ListByParticipant(ctx, caller.ID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	if apps == nil {
		apps = []domain.Application{}
	}
	return apps, nil
}

// loadForTransition fetches the application and runs the guards shared
// by forward and update: only the current handler may act, and
// terminal states admit no further transitions.
func (s *LedgerService) loadForTransition(ctx context.Context, tx repository.Ledger, caller *domain.User, applicationID string) (*domain.Application, error) {
	app, err := tx.Applications().GetByID(ctx, applicationID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("application", map[string]any{"application_id": applicationID})
		}
		return nil, err
	}
	if app.CurrentHandler != caller.ID {
		return nil, apperrors.NewForbidden("only the current handler may act on this application")
	}
	if app.Status.Terminal() {
		return nil, apperrors.NewConflict("application already settled", map[string]any{"status": string(app.Status)})
	}
	return app, nil
}

func (s *LedgerService) resolveHandler(ctx context.Context, role domain.UserRole, department string) (*domain.User, error) {
	receiver, err := s.users.FindByRoleAndDepartment(ctx, role, department)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewReceiverNotFound(string(role), department)
		}
		return nil, apperrors.MapError(err)
	}
	return receiver, nil
}

func (s *LedgerService) publish(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	_ = s.dispatcher.Publish(ctx, event)
}

func isParticipant(userID string, app *domain.Application, actions []domain.ApplicationAction) bool {
	if app.CreatedBy == userID || app.CurrentHandler == userID {
		return true
	}
	for _, action := range actions {
		if action.FromUser == userID {
			return true
		}
		if action.ToUser != nil && *action.ToUser == userID {
			return true
		}
	}
	return false
}

func optionalComment(remark string) *string {
	remark = strings.TrimSpace(remark)
	if remark == "" {
		return nil
	}
	return &remark
}
