package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/lib/pq"

	"eventpass/internal/domain"
)

type draftRepository struct {
	DB *sql.DB
}

func NewDraftRepository(db *sql.DB) domain.DraftRepository {
	return &draftRepository{DB: db}
}

func (r *draftRepository) Create(ctx context.Context, draft *domain.RegistrationDraft) error {
	query := `
		INSERT INTO registration_drafts
			(event_id, user_id, step, name, email, phone, emergency_contact, notes,
			 selected_tier_id, terms_accepted, touched, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING id
	`
	return r.DB.QueryRowContext(ctx, query,
		draft.EventID, draft.UserID, draft.Step,
		draft.Name, draft.Email, draft.Phone, draft.EmergencyContact, draft.Notes,
		nullableString(draft.SelectedTierID), draft.TermsAccepted, pq.Array(draft.Touched),
		draft.CreatedAt, draft.UpdatedAt,
	).Scan(&draft.ID)
}

func (r *draftRepository) GetByID(ctx context.Context, id string) (*domain.RegistrationDraft, error) {
	query := `
		SELECT id, event_id, user_id, step, name, email, phone, emergency_contact, notes,
		       selected_tier_id, terms_accepted, touched, created_at, updated_at
		FROM registration_drafts
		WHERE id = $1
	`
	d := &domain.RegistrationDraft{}
	var selectedTier sql.NullString
	err := r.DB.QueryRowContext(ctx, query, id).Scan(
		&d.ID, &d.EventID, &d.UserID, &d.Step,
		&d.Name, &d.Email, &d.Phone, &d.EmergencyContact, &d.Notes,
		&selectedTier, &d.TermsAccepted, pq.Array(&d.Touched),
		&d.CreatedAt, &d.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	d.SelectedTierID = selectedTier.String
	if d.Touched == nil {
		d.Touched = []string{}
	}
	return d, nil
}

func (r *draftRepository) Update(ctx context.Context, draft *domain.RegistrationDraft) error {
	query := `
		UPDATE registration_drafts
		SET step = $2, name = $3, email = $4, phone = $5, emergency_contact = $6,
		    notes = $7, selected_tier_id = $8, terms_accepted = $9, touched = $10,
		    updated_at = $11
		WHERE id = $1
	`
	res, err := r.DB.ExecContext(ctx, query,
		draft.ID, draft.Step,
		draft.Name, draft.Email, draft.Phone, draft.EmergencyContact, draft.Notes,
		nullableString(draft.SelectedTierID), draft.TermsAccepted, pq.Array(draft.Touched),
		draft.UpdatedAt,
	)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// nullableString maps "" to NULL for optional foreign keys.
func nullableString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
