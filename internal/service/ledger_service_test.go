package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/application-tracker/internal/domain"
	"github.com/spec-kit/application-tracker/internal/events"
	apperrors "github.com/spec-kit/application-tracker/pkg/util"
)

type ledgerFixture struct {
	svc        *LedgerService
	users      *fakeUserRepo
	ledger     *fakeLedger
	dispatcher *captureDispatcher

	student   *domain.User
	clerk     *domain.User
	hod       *domain.User
	principal *domain.User
}

func newLedgerFixture(t *testing.T) *ledgerFixture {
	t.Helper()

	f := &ledgerFixture{
		users:      newFakeUserRepo(),
		ledger:     newFakeLedger(),
		dispatcher: &captureDispatcher{},
	}
	f.student = f.users.add(domain.User{ID: "10-student", Name: "Ada", Role: domain.RoleStudent, Department: "Computer", Email: "ada@example.com"})
	f.clerk = f.users.add(domain.User{ID: "20-clerk", Name: "Carl", Role: domain.RoleClerk, Department: "Computer", Email: "carl@example.com"})
	f.hod = f.users.add(domain.User{ID: "30-hod", Name: "Hana", Role: domain.RoleHOD, Department: "Computer", Email: "hana@example.com"})
	f.principal = f.users.add(domain.User{ID: "40-principal", Name: "Pat", Role: domain.RolePrincipal, Department: "Administration", Email: "pat@example.com"})

	f.svc = NewLedgerService(LedgerDependencies{
		Ledger:     f.ledger,
		UserRepo:   f.users,
		Dispatcher: f.dispatcher,
	})
	return f
}

func (f *ledgerFixture) create(t *testing.T) *domain.Application {
	t.Helper()
	app, err := f.svc.Create(context.Background(), f.student, CreateInput{
		Description:        "bonafide certificate request",
		ReceiverRole:       domain.RoleClerk,
		ReceiverDepartment: "Computer",
	})
	require.NoError(t, err)
	return app
}

func TestCreateOpensPendingWithInwardAction(t *testing.T) {
	f := newLedgerFixture(t)
	app := f.create(t)

	assert.Equal(t, domain.StatusPending, app.Status)
	assert.Equal(t, f.clerk.ID, app.CurrentHandler)
	assert.False(t, app.IsVerified)

	actions, err := f.ledger.Actions().ListByApplication(context.Background(), app.ID)
	require.NoError(t, err)
	require.Len(t, actions, 1)
	assert.Equal(t, domain.ActionInward, actions[0].Type)
	assert.Equal(t, f.student.ID, actions[0].FromUser)
	require.NotNil(t, actions[0].ToUser)
	assert.Equal(t, f.clerk.ID, *actions[0].ToUser)
}

func TestCreateRequiresBothRoleAndDepartmentToMatch(t *testing.T) {
	f := newLedgerFixture(t)

	// A clerk exists, but not in this department.
	_, err := f.svc.Create(context.Background(), f.student, CreateInput{
		Description:        "transcript request",
		ReceiverRole:       domain.RoleClerk,
		ReceiverDepartment: "Civil",
	})
	assert.True(t, apperrors.IsCode(err, "RECEIVER_NOT_FOUND"))
}

func TestCreateResolvesLowestIDOnTie(t *testing.T) {
	f := newLedgerFixture(t)
	f.users.add(domain.User{ID: "05-clerk", Name: "Cleo", Role: domain.RoleClerk, Department: "Computer", Email: "cleo@example.com"})

	app := f.create(t)
	assert.Equal(t, "05-clerk", app.CurrentHandler)
}

func TestForwardReassignsHandler(t *testing.T) {
	f := newLedgerFixture(t)
	app := f.create(t)

	updated, err := f.svc.Forward(context.Background(), f.clerk, app.ID, domain.RoleHOD, "Computer", "please review")
	require.NoError(t, err)

	assert.Equal(t, domain.StatusForwarded, updated.Status)
	assert.Equal(t, f.hod.ID, updated.CurrentHandler)

	actions, err := f.ledger.Actions().ListByApplication(context.Background(), app.ID)
	require.NoError(t, err)
	require.Len(t, actions, 2)
	assert.Equal(t, domain.ActionForward, actions[1].Type)
	require.NotNil(t, actions[1].Comment)
	assert.Equal(t, "please review", *actions[1].Comment)
}

func TestForwardByNonHandlerLeavesNoTrace(t *testing.T) {
	f := newLedgerFixture(t)
	app := f.create(t)

	_, err := f.svc.Forward(context.Background(), f.hod, app.ID, domain.RoleClerk, "Computer", "")
	assert.True(t, apperrors.IsCode(err, "FORBIDDEN"))

	// The refused call must not mutate the record or the trail.
	stored, err := f.ledger.Applications().GetByID(context.Background(), app.ID)
	require.NoError(t, err)
	assert.Equal(t, f.clerk.ID, stored.CurrentHandler)
	assert.Equal(t, domain.StatusPending, stored.Status)

	actions, err := f.ledger.Actions().ListByApplication(context.Background(), app.ID)
	require.NoError(t, err)
	assert.Len(t, actions, 1)
}

func TestAcceptStoresReferenceAndNotifiesCreator(t *testing.T) {
	f := newLedgerFixture(t)
	app := f.create(t)

	ref := "REF123"
	updated, err := f.svc.Update(context.Background(), f.clerk, app.ID, domain.StatusAccepted, "approved", &ref)
	require.NoError(t, err)

	assert.Equal(t, domain.StatusAccepted, updated.Status)
	require.NotNil(t, updated.AcceptReference)
	assert.Equal(t, "REF123", *updated.AcceptReference)

	decided := f.dispatcher.byType(events.EventApplicationDecided)
	require.Len(t, decided, 1)
	payload := decided[0].Payload.(events.ApplicationDecidedPayload)
	assert.Equal(t, f.student.Email, payload.CreatorEmail)
}

func TestRejectIgnoresReferenceNumber(t *testing.T) {
	f := newLedgerFixture(t)
	app := f.create(t)

	ref := "REF123"
	updated, err := f.svc.Update(context.Background(), f.clerk, app.ID, domain.StatusRejected, "incomplete", &ref)
	require.NoError(t, err)

	assert.Equal(t, domain.StatusRejected, updated.Status)
	assert.Nil(t, updated.AcceptReference)
}

func TestUpdateRejectsNonTerminalStatus(t *testing.T) {
	f := newLedgerFixture(t)
	app := f.create(t)

	_, err := f.svc.Update(context.Background(), f.clerk, app.ID, domain.StatusPending, "", nil)
	assert.True(t, apperrors.IsCode(err, "VALIDATION_FAILED"))
}

func TestSettledApplicationAdmitsNoFurtherTransitions(t *testing.T) {
	f := newLedgerFixture(t)
	app := f.create(t)

	_, err := f.svc.Update(context.Background(), f.clerk, app.ID, domain.StatusRejected, "incomplete", nil)
	require.NoError(t, err)

	_, err = f.svc.Forward(context.Background(), f.clerk, app.ID, domain.RoleHOD, "Computer", "")
	assert.True(t, apperrors.IsCode(err, "CONFLICT"))

	_, err = f.svc.Update(context.Background(), f.clerk, app.ID, domain.StatusAccepted, "", nil)
	assert.True(t, apperrors.IsCode(err, "CONFLICT"))
}

func TestVerifyHandsOffToPrincipal(t *testing.T) {
	f := newLedgerFixture(t)
	app := f.create(t)

	updated, err := f.svc.Verify(context.Background(), f.clerk, app.ID)
	require.NoError(t, err)

	assert.True(t, updated.IsVerified)
	assert.Equal(t, f.principal.ID, updated.CurrentHandler)
	// Status is untouched; verification is orthogonal to settling.
	assert.Equal(t, domain.StatusPending, updated.Status)

	actions, err := f.ledger.Actions().ListByApplication(context.Background(), app.ID)
	require.NoError(t, err)
	require.Len(t, actions, 2)
	assert.Equal(t, domain.ActionVerified, actions[1].Type)
}

func TestVerifyRequiresCurrentHandler(t *testing.T) {
	f := newLedgerFixture(t)
	app := f.create(t)

	_, err := f.svc.Verify(context.Background(), f.student, app.ID)
	assert.True(t, apperrors.IsCode(err, "FORBIDDEN"))
}

func TestGetReplaysFullHistory(t *testing.T) {
	f := newLedgerFixture(t)
	ctx := context.Background()
	app := f.create(t)

	_, err := f.svc.Forward(ctx, f.clerk, app.ID, domain.RoleHOD, "Computer", "please review")
	require.NoError(t, err)
	ref := "REF123"
	_, err = f.svc.Update(ctx, f.hod, app.ID, domain.StatusAccepted, "approved", &ref)
	require.NoError(t, err)

	detail, err := f.svc.Get(ctx, f.student, app.ID)
	require.NoError(t, err)

	require.Len(t, detail.Actions, 3)
	assert.Equal(t, domain.ActionInward, detail.Actions[0].Type)
	assert.Equal(t, domain.ActionForward, detail.Actions[1].Type)
	assert.Equal(t, domain.ActionAccept, detail.Actions[2].Type)

	// Identities come back resolved, not as bare ids.
	assert.Equal(t, "Ada", detail.Creator.Name)
	assert.Equal(t, "Carl", detail.Actions[1].From.Name)
	require.NotNil(t, detail.Actions[1].To)
	assert.Equal(t, "Hana", detail.Actions[1].To.Name)

	assert.Equal(t, domain.StatusAccepted, detail.Application.Status)
	require.NotNil(t, detail.Application.AcceptReference)
	assert.Equal(t, "REF123", *detail.Application.AcceptReference)
}

func TestGetDeniedToOutsiders(t *testing.T) {
	f := newLedgerFixture(t)
	app := f.create(t)

	outsider := f.users.add(domain.User{ID: "90-outsider", Name: "Olaf", Role: domain.RoleStudent, Department: "Civil", Email: "olaf@example.com"})

	_, err := f.svc.Get(context.Background(), outsider, app.ID)
	assert.True(t, apperrors.IsCode(err, "FORBIDDEN"))
}

func TestGetAllowsPastParticipants(t *testing.T) {
	f := newLedgerFixture(t)
	ctx := context.Background()
	app := f.create(t)

	_, err := f.svc.Forward(ctx, f.clerk, app.ID, domain.RoleHOD, "Computer", "")
	require.NoError(t, err)

	// The clerk is no longer the handler but appears in the trail.
	_, err = f.svc.Get(ctx, f.clerk, app.ID)
	assert.NoError(t, err)
}

func TestListMineCoversBothSides(t *testing.T) {
	f := newLedgerFixture(t)
	ctx := context.Background()
	app := f.create(t)

	mine, err := f.svc.ListMine(ctx, f.student)
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, app.ID, mine[0].ID)

	handled, err := f.svc.ListMine(ctx, f.clerk)
	require.NoError(t, err)
	assert.Len(t, handled, 1)

	none, err := f.svc.ListMine(ctx, f.hod)
	require.NoError(t, err)
	assert.Empty(t, none)
	assert.NotNil(t, none)
}

func TestCreateValidatesInput(t *testing.T) {
	f := newLedgerFixture(t)
	ctx := context.Background()

	_, err := f.svc.Create(ctx, f.student, CreateInput{
		Description:  "   ",
		ReceiverRole: domain.RoleClerk,
	})
	assert.True(t, apperrors.IsCode(err, "VALIDATION_FAILED"))

	_, err = f.svc.Create(ctx, f.student, CreateInput{
		Description:  "transcript request",
		ReceiverRole: domain.UserRole("janitor"),
	})
	assert.True(t, apperrors.IsCode(err, "VALIDATION_FAILED"))
}
