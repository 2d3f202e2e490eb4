package repository

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/application-tracker/internal/domain"
)

// ApplicationRepository encapsulates application persistence.
type ApplicationRepository interface {
	Create(ctx context.Context, app *domain.Application) error
	Update(ctx context.Context, app *domain.Application) error
	GetByID(ctx context.Context, id string) (*domain.Application, error)
	// ListByParticipant returns applications the user created or
	// currently handles, newest first.
	ListByParticipant(ctx context.Context, userID string) ([]domain.Application, error)
}

type applicationRepository struct {
	db DB
}

// NewApplicationRepository instantiates repository.
func NewApplicationRepository(db DB) ApplicationRepository {
	return &applicationRepository{db: db}
}

const applicationColumns = `id, description, document_ref, created_by, current_handler,
               status, is_verified, accept_reference_number, created_at, updated_at`

func (r *applicationRepository) Create(ctx context.Context, app *domain.Application) error {
	const query = `
        INSERT INTO applications (description, document_ref, created_by, current_handler, status)
        VALUES ($1,$2,$3,$4,$5)
        RETURNING id, created_at, updated_at`
	return r.db.QueryRow(ctx, query,
		app.Description,
		app.DocumentRef,
		app.CreatedBy,
		app.CurrentHandler,
		app.Status,
	).Scan(&app.ID, &app.CreatedAt, &app.UpdatedAt)
}

func (r *applicationRepository) Update(ctx context.Context, app *domain.Application) error {
	const query = `
        UPDATE applications
        SET current_handler=$1, status=$2, is_verified=$3, accept_reference_number=$4, updated_at=NOW()
        WHERE id=$5`
	cmd, err := r.db.Exec(ctx, query,
		app.CurrentHandler,
		app.Status,
		app.IsVerified,
		app.AcceptReference,
		app.ID,
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *applicationRepository) GetByID(ctx context.Context, id string) (*domain.Application, error) {
	const query = `SELECT ` + applicationColumns + ` FROM applications WHERE id=$1`
	var app domain.Application
	if err := r.db.QueryRow(ctx, query, id).Scan(
		&app.ID,
		&app.Description,
		&app.DocumentRef,
		&app.CreatedBy,
		&app.CurrentHandler,
		&app.Status,
		&app.IsVerified,
		&app.AcceptReference,
		&app.CreatedAt,
		&app.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &app, nil
}

func (r *applicationRepository) ListByParticipant(ctx context.Context, userID string) ([]domain.Application, error) {
	const query = `
        SELECT ` + applicationColumns + `
        FROM applications
        WHERE created_by=$1 OR current_handler=$1
        ORDER BY created_at DESC`
	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Application
	for rows.Next() {
		var app domain.Application
		if err := rows.Scan(
			&app.ID,
			&app.Description,
			&app.DocumentRef,
			&app.CreatedBy,
			&app.CurrentHandler,
			&app.Status,
			&app.IsVerified,
			&app.AcceptReference,
			&app.CreatedAt,
			&app.UpdatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, app)
	}
	return result, rows.Err()
}
