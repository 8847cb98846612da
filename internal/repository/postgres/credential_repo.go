package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"eventpass/internal/domain"
)

type credentialRepository struct {
	DB *sql.DB
}

func NewCredentialRepository(db *sql.DB) domain.CredentialRepository {
	return &credentialRepository{DB: db}
}

func (r *credentialRepository) Create(ctx context.Context, cred *domain.Credential) error {
	query := `
		INSERT INTO credentials
			(code, label, registration_id, event_id, tier_id, user_id, status, issued_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id
	`
	return r.DB.QueryRowContext(ctx, query,
		cred.Code, cred.Label, cred.RegistrationID, cred.EventID, cred.TierID,
		cred.UserID, cred.Status, cred.IssuedAt,
	).Scan(&cred.ID)
}

func (r *credentialRepository) GetByCodeAndEvent(ctx context.Context, code, eventID string) (*domain.Credential, error) {
	query := `
		SELECT id, code, label, registration_id, event_id, tier_id, user_id, status, issued_at, redeemed_at
		FROM credentials
		WHERE code = $1 AND event_id = $2
	`
	return r.scanOne(r.DB.QueryRowContext(ctx, query, code, eventID))
}

func (r *credentialRepository) GetByRegistrationID(ctx context.Context, registrationID string) (*domain.Credential, error) {
	query := `
		SELECT id, code, label, registration_id, event_id, tier_id, user_id, status, issued_at, redeemed_at
		FROM credentials
		WHERE registration_id = $1
	`
	return r.scanOne(r.DB.QueryRowContext(ctx, query, registrationID))
}

func (r *credentialRepository) scanOne(row *sql.Row) (*domain.Credential, error) {
	c := &domain.Credential{}
	var redeemedAt sql.NullTime
	err := row.Scan(&c.ID, &c.Code, &c.Label, &c.RegistrationID, &c.EventID, &c.TierID,
		&c.UserID, &c.Status, &c.IssuedAt, &redeemedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	if redeemedAt.Valid {
		t := redeemedAt.Time
		c.RedeemedAt = &t
	}
	return c, nil
}

func (r *credentialRepository) ListByUserID(ctx context.Context, userID string, params domain.PaginationParams) ([]*domain.Credential, int, error) {
	var total int
	if err := r.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM credentials WHERE user_id = $1`, userID).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := `
		SELECT id, code, label, registration_id, event_id, tier_id, user_id, status, issued_at, redeemed_at
		FROM credentials
		WHERE user_id = $1
		ORDER BY issued_at DESC
		LIMIT $2 OFFSET $3
	`
	rows, err := r.DB.QueryContext(ctx, query, userID, params.PageSize, params.Offset())
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var creds []*domain.Credential
	for rows.Next() {
		c := &domain.Credential{}
		var redeemedAt sql.NullTime
		if err := rows.Scan(&c.ID, &c.Code, &c.Label, &c.RegistrationID, &c.EventID, &c.TierID,
			&c.UserID, &c.Status, &c.IssuedAt, &redeemedAt); err != nil {
			return nil, 0, err
		}
		if redeemedAt.Valid {
			t := redeemedAt.Time
			c.RedeemedAt = &t
		}
		creds = append(creds, c)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	if creds == nil {
		creds = []*domain.Credential{}
	}
	return creds, total, nil
}

// Redeem is the compare-and-swap transition issued -> redeemed. The status
// predicate in the WHERE clause guarantees that of any number of concurrent
// redemptions of one code, exactly one observes rows-affected 1.
func (r *credentialRepository) Redeem(ctx context.Context, code, eventID string, redeemedAt time.Time) (bool, error) {
	query := `
		UPDATE credentials
		SET status = $3, redeemed_at = $4
		WHERE code = $1 AND event_id = $2 AND status = $5
	`
	res, err := r.DB.ExecContext(ctx, query, code, eventID,
		domain.CredentialStatusRedeemed, redeemedAt, domain.CredentialStatusIssued)
	if err != nil {
		return false, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected == 1, nil
}
