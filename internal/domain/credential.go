package domain

import (
	"context"
	"time"
)

// CredentialStatus is the lifecycle state of an entry credential.
type CredentialStatus string

const (
	CredentialStatusIssued   CredentialStatus = "issued"
	CredentialStatusRedeemed CredentialStatus = "redeemed"
	CredentialStatusVoid     CredentialStatus = "void"
)

// Credential is the unique, scannable proof of a successful reservation,
// redeemable exactly once. Code is the authoritative opaque identifier
// embedded in the QR encoding; Label is a human-readable display string with
// no uniqueness guarantee.
// swagger:model Credential
type Credential struct {
	ID             string           `json:"id"`
	Code           string           `json:"code"`
	Label          string           `json:"label"`
	RegistrationID string           `json:"registration_id"`
	EventID        string           `json:"event_id"`
	TierID         string           `json:"tier_id"`
	UserID         string           `json:"user_id"`
	Status         CredentialStatus `json:"status"`
	IssuedAt       time.Time        `json:"issued_at"`
	RedeemedAt     *time.Time       `json:"redeemed_at,omitempty"`
}

// CredentialRepository defines storage operations for credentials.
type CredentialRepository interface {
	Create(ctx context.Context, cred *Credential) error
	GetByCodeAndEvent(ctx context.Context, code, eventID string) (*Credential, error)
	GetByRegistrationID(ctx context.Context, registrationID string) (*Credential, error)
	ListByUserID(ctx context.Context, userID string, params PaginationParams) ([]*Credential, int, error)

	// Redeem atomically transitions the credential from issued to redeemed
	// and stamps redeemed_at. It returns false when the credential was not in
	// the issued state, so concurrent redemptions of one code yield exactly
	// one true.
	Redeem(ctx context.Context, code, eventID string, redeemedAt time.Time) (bool, error)
}

// CheckInResult is returned to the scanning operator on a successful
// redemption.
// swagger:model CheckInResult
type CheckInResult struct {
	Credential *Credential `json:"credential"`
	Event      *Event      `json:"event"`
	Tier       *TicketTier `json:"tier"`
}

// CheckInService validates and redeems scanned entry credentials.
type CheckInService interface {
	// ValidateAndRedeem looks up the credential for the scanned code and
	// event, enforces the admission window at the given instant, and redeems
	// it exactly once. Denials are ErrNotFound, ErrAlreadyRedeemed,
	// ErrCredentialVoid, or ErrOutsideWindow.
	ValidateAndRedeem(ctx context.Context, scannedCode, eventID string, now time.Time) (*CheckInResult, error)
}

// CredentialService lists issued credentials for the "my tickets" surface.
type CredentialService interface {
	ListMyCredentials(ctx context.Context, userID string, params PaginationParams) ([]*Credential, int, error)
}
