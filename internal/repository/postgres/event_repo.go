package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"eventpass/internal/domain"
)

type eventRepository struct {
	DB *sql.DB
}

// NewEventRepository returns the catalog repository, which also implements
// domain.TierLedger: the tier row is the serialization point for capacity
// accounting.
func NewEventRepository(db *sql.DB) *eventRepository {
	return &eventRepository{DB: db}
}

var _ domain.EventRepository = (*eventRepository)(nil)
var _ domain.TierLedger = (*eventRepository)(nil)

func (r *eventRepository) GetByID(ctx context.Context, id string) (*domain.Event, error) {
	query := `
		SELECT id, name, location, start_time, end_time, status, created_at, updated_at
		FROM events
		WHERE id = $1
	`
	e := &domain.Event{}
	err := r.DB.QueryRowContext(ctx, query, id).
		Scan(&e.ID, &e.Name, &e.Location, &e.StartTime, &e.EndTime, &e.Status, &e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return e, nil
}

func (r *eventRepository) List(ctx context.Context, params domain.PaginationParams) ([]*domain.Event, int, error) {
	var total int
	if err := r.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM events`).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := `
		SELECT id, name, location, start_time, end_time, status, created_at, updated_at
		FROM events
		ORDER BY start_time ASC
		LIMIT $1 OFFSET $2
	`
	rows, err := r.DB.QueryContext(ctx, query, params.PageSize, params.Offset())
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var events []*domain.Event
	for rows.Next() {
		e := &domain.Event{}
		if err := rows.Scan(&e.ID, &e.Name, &e.Location, &e.StartTime, &e.EndTime, &e.Status, &e.CreatedAt, &e.UpdatedAt); err != nil {
			return nil, 0, err
		}
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	if events == nil {
		events = []*domain.Event{}
	}
	return events, total, nil
}

func (r *eventRepository) GetTier(ctx context.Context, tierID string) (*domain.TicketTier, error) {
	query := `
		SELECT id, event_id, name, description, price_label, total_capacity, reserved, created_at, updated_at
		FROM ticket_tiers
		WHERE id = $1
	`
	t := &domain.TicketTier{}
	err := r.DB.QueryRowContext(ctx, query, tierID).
		Scan(&t.ID, &t.EventID, &t.Name, &t.Description, &t.PriceLabel, &t.TotalCapacity, &t.Reserved, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return t, nil
}

func (r *eventRepository) ListTiersByEventID(ctx context.Context, eventID string) ([]*domain.TicketTier, error) {
	query := `
		SELECT id, event_id, name, description, price_label, total_capacity, reserved, created_at, updated_at
		FROM ticket_tiers
		WHERE event_id = $1
		ORDER BY price_label ASC, name ASC
	`
	rows, err := r.DB.QueryContext(ctx, query, eventID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tiers []*domain.TicketTier
	for rows.Next() {
		t := &domain.TicketTier{}
		if err := rows.Scan(&t.ID, &t.EventID, &t.Name, &t.Description, &t.PriceLabel, &t.TotalCapacity, &t.Reserved, &t.CreatedAt, &t.UpdatedAt); err != nil {
			return nil, err
		}
		tiers = append(tiers, t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if tiers == nil {
		tiers = []*domain.TicketTier{}
	}
	return tiers, nil
}

// Reserve claims quantity units against the tier in a single conditional
// update. The WHERE clause makes the increment and the capacity check one
// atomic statement, so concurrent reservations can never oversell.
func (r *eventRepository) Reserve(ctx context.Context, tierID string, quantity int) error {
	if quantity <= 0 {
		return fmt.Errorf("%w: quantity must be positive", domain.ErrInvalidInput)
	}
	query := `
		UPDATE ticket_tiers
		SET reserved = reserved + $2, updated_at = NOW()
		WHERE id = $1 AND reserved + $2 <= total_capacity
	`
	res, err := r.DB.ExecContext(ctx, query, tierID, quantity)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		// Distinguish a missing tier from a full one.
		var exists bool
		if err := r.DB.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM ticket_tiers WHERE id = $1)`, tierID).Scan(&exists); err != nil {
			return err
		}
		if !exists {
			return domain.ErrNotFound
		}
		return domain.ErrOutOfCapacity
	}
	return nil
}

// Release returns quantity units to the tier, floored at zero. Used as the
// compensating action when issuance fails after a successful Reserve.
func (r *eventRepository) Release(ctx context.Context, tierID string, quantity int) error {
	if quantity <= 0 {
		return fmt.Errorf("%w: quantity must be positive", domain.ErrInvalidInput)
	}
	query := `
		UPDATE ticket_tiers
		SET reserved = GREATEST(reserved - $2, 0), updated_at = NOW()
		WHERE id = $1
	`
	res, err := r.DB.ExecContext(ctx, query, tierID, quantity)
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
