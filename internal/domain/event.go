package domain

import (
	"context"
	"time"
)

// EventStatus is the lifecycle state of an event in the catalog.
type EventStatus string

const (
	EventStatusUpcoming  EventStatus = "upcoming"
	EventStatusOngoing   EventStatus = "ongoing"
	EventStatusCompleted EventStatus = "completed"
)

// Event represents a catalog event. The catalog is owned externally; this
// service reads tier capacity and event timing and never writes event rows
// outside of seeding.
// swagger:model Event
type Event struct {
	ID        string      `json:"id"`
	Name      string      `json:"name"`
	Location  string      `json:"location"`
	StartTime time.Time   `json:"start_time"`
	EndTime   time.Time   `json:"end_time"`
	Status    EventStatus `json:"status"`
	CreatedAt time.Time   `json:"created_at"`
	UpdatedAt time.Time   `json:"updated_at"`
}

// AdmissionWindow returns the interval during which credentials for this
// event may be redeemed. Admission opens openBefore ahead of the start time
// and closes when the event ends.
func (e *Event) AdmissionWindow(openBefore time.Duration) (open, close time.Time) {
	return e.StartTime.Add(-openBefore), e.EndTime
}

// TicketTier is a priced admission category with its own fixed capacity.
// TotalCapacity is fixed at creation; Reserved only moves through the
// ledger operations and always satisfies 0 <= Reserved <= TotalCapacity.
// swagger:model TicketTier
type TicketTier struct {
	ID            string    `json:"id"`
	EventID       string    `json:"event_id"`
	Name          string    `json:"name"`
	Description   string    `json:"description"`
	PriceLabel    string    `json:"price_label"`
	TotalCapacity int       `json:"total_capacity"`
	Reserved      int       `json:"reserved"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// Available returns the number of units still open for reservation.
func (t *TicketTier) Available() int {
	return t.TotalCapacity - t.Reserved
}

// EventWithTiers bundles an event with its ticket tiers for detail views.
type EventWithTiers struct {
	Event *Event        `json:"event"`
	Tiers []*TicketTier `json:"tiers"`
}

// EventRepository defines read access to the event catalog.
type EventRepository interface {
	GetByID(ctx context.Context, id string) (*Event, error)
	List(ctx context.Context, params PaginationParams) ([]*Event, int, error)
	GetTier(ctx context.Context, tierID string) (*TicketTier, error)
	ListTiersByEventID(ctx context.Context, eventID string) ([]*TicketTier, error)
}

// TierLedger performs atomic capacity accounting against ticket tiers.
//
// Reserve succeeds only if reserved+quantity <= total_capacity at the instant
// of execution; otherwise it returns ErrOutOfCapacity and leaves state
// unchanged. Two concurrent Reserve calls can never both succeed if doing so
// would exceed capacity. Release decrements reserved, floored at zero; it is
// the compensating action when issuance fails after a successful Reserve.
type TierLedger interface {
	Reserve(ctx context.Context, tierID string, quantity int) error
	Release(ctx context.Context, tierID string, quantity int) error
}

// CatalogService exposes the read-only event catalog to the API.
type CatalogService interface {
	ListEvents(ctx context.Context, params PaginationParams) ([]*Event, int, error)
	GetEvent(ctx context.Context, eventID string) (*EventWithTiers, error)
}
