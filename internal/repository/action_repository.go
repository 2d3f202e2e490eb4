package repository

import (
	"context"

	"github.com/spec-kit/application-tracker/internal/domain"
)

// ActionRepository stores the append-only audit trail. Entries are
// never updated or deleted.
type ActionRepository interface {
	Create(ctx context.Context, action *domain.ApplicationAction) error
	ListByApplication(ctx context.Context, applicationID string) ([]domain.ApplicationAction, error)
}

type actionRepository struct {
	db DB
}

// NewActionRepository builds repository.
func NewActionRepository(db DB) ActionRepository {
	return &actionRepository{db: db}
}

func (r *actionRepository) Create(ctx context.Context, action *domain.ApplicationAction) error {
	const query = `
        INSERT INTO application_actions (application_id, from_user, to_user, action_type, comment)
        VALUES ($1,$2,$3,$4,$5)
        RETURNING id, created_at`
	return r.db.QueryRow(ctx, query,
		action.ApplicationID,
		action.FromUser,
		action.ToUser,
		action.Type,
		action.Comment,
	).Scan(&action.ID, &action.CreatedAt)
}

func (r *actionRepository) ListByApplication(ctx context.Context, applicationID string) ([]domain.ApplicationAction, error) {
	const query = `
        SELECT id, application_id, from_user, to_user, action_type, comment, created_at
        FROM application_actions WHERE application_id=$1 ORDER BY created_at ASC, id ASC`
	rows, err := r.db.Query(ctx, query, applicationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.ApplicationAction
	for rows.Next() {
		var action domain.ApplicationAction
		if err := rows.Scan(
			&action.ID,
			&action.ApplicationID,
			&action.FromUser,
			&action.ToUser,
			&action.Type,
			&action.Comment,
			&action.CreatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, action)
	}
	return result, rows.Err()
}
