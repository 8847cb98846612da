package domain

import (
	"context"
	"time"
)

// Step is a state of the registration flow.
type Step string

const (
	StepContactInfo     Step = "contact_info"
	StepTicketSelection Step = "ticket_selection"
	StepConfirmation    Step = "confirmation"
	StepSubmitted       Step = "submitted"
	StepAbandoned       Step = "abandoned"
)

// Closed reports whether the step is terminal; closed drafts reject edits.
func (s Step) Closed() bool {
	return s == StepSubmitted || s == StepAbandoned
}

// RegistrationDraft is an in-progress registration session. It is owned by a
// single user interaction stream; edits are sequenced by the caller, so the
// draft itself carries no locking.
// swagger:model RegistrationDraft
type RegistrationDraft struct {
	ID      string `json:"id"`
	EventID string `json:"event_id"`
	UserID  string `json:"user_id"`
	Step    Step   `json:"step"`

	Name             string `json:"name"`
	Email            string `json:"email"`
	Phone            string `json:"phone"`
	EmergencyContact string `json:"emergency_contact"`
	Notes            string `json:"notes"`

	// SelectedTierID is empty until the ticket-selection step completes.
	SelectedTierID string `json:"selected_tier_id,omitempty"`
	TermsAccepted  bool   `json:"terms_accepted"`

	// Touched holds the fields the registrant has exited at least once.
	// Validation errors are only surfaced for touched fields.
	Touched []string `json:"touched"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewRegistrationDraft returns a draft at the first step. ID is typically set
// by the repository on create.
func NewRegistrationDraft(eventID, userID string, createdAt time.Time) *RegistrationDraft {
	return &RegistrationDraft{
		EventID:   eventID,
		UserID:    userID,
		Step:      StepContactInfo,
		Touched:   []string{},
		CreatedAt: createdAt,
		UpdatedAt: createdAt,
	}
}

// FieldValue returns the current value of the named form field.
func (d *RegistrationDraft) FieldValue(f Field) string {
	switch f {
	case FieldName:
		return d.Name
	case FieldEmail:
		return d.Email
	case FieldPhone:
		return d.Phone
	case FieldEmergencyContact:
		return d.EmergencyContact
	case FieldNotes:
		return d.Notes
	}
	return ""
}

// SetFieldValue updates the named form field. Unknown fields are rejected by
// the service before this is called.
func (d *RegistrationDraft) SetFieldValue(f Field, v string) {
	switch f {
	case FieldName:
		d.Name = v
	case FieldEmail:
		d.Email = v
	case FieldPhone:
		d.Phone = v
	case FieldEmergencyContact:
		d.EmergencyContact = v
	case FieldNotes:
		d.Notes = v
	}
}

// IsTouched reports whether the registrant has exited the field at least once.
func (d *RegistrationDraft) IsTouched(f Field) bool {
	for _, t := range d.Touched {
		if t == string(f) {
			return true
		}
	}
	return false
}

// MarkTouched records that the registrant exited the field.
func (d *RegistrationDraft) MarkTouched(f Field) {
	if !d.IsTouched(f) {
		d.Touched = append(d.Touched, string(f))
	}
}

// FieldState is the validation state of one form field. Error is set whenever
// the value is invalid; Visible additionally requires the field to have been
// touched, so callers never show an error before the registrant has
// interacted with the field.
// swagger:model FieldState
type FieldState struct {
	Value   string         `json:"value"`
	Valid   bool           `json:"valid"`
	Error   FieldErrorKind `json:"error,omitempty"`
	Touched bool           `json:"touched"`
	Visible bool           `json:"visible"`
}

// FieldStates computes the validation state of every form field.
func (d *RegistrationDraft) FieldStates() map[Field]FieldState {
	states := make(map[Field]FieldState, len(DraftFields))
	for _, f := range DraftFields {
		v := d.FieldValue(f)
		kind, ok := ValidateField(f, v)
		touched := d.IsTouched(f)
		states[f] = FieldState{
			Value:   v,
			Valid:   ok,
			Error:   kind,
			Touched: touched,
			Visible: !ok && touched,
		}
	}
	return states
}

// ContactInfoValid reports whether the contact-info gate holds: name, email,
// and phone all valid, regardless of touched state.
func (d *RegistrationDraft) ContactInfoValid() bool {
	for _, f := range []Field{FieldName, FieldEmail, FieldPhone} {
		if _, ok := ValidateField(f, d.FieldValue(f)); !ok {
			return false
		}
	}
	return true
}

// InvalidFields returns the fields that currently fail validation with their
// reason codes.
func (d *RegistrationDraft) InvalidFields() map[Field]FieldErrorKind {
	invalid := make(map[Field]FieldErrorKind)
	for _, f := range DraftFields {
		if kind, ok := ValidateField(f, d.FieldValue(f)); !ok {
			invalid[f] = kind
		}
	}
	return invalid
}

// DraftRepository defines storage operations for registration drafts.
type DraftRepository interface {
	Create(ctx context.Context, draft *RegistrationDraft) error
	GetByID(ctx context.Context, id string) (*RegistrationDraft, error)
	Update(ctx context.Context, draft *RegistrationDraft) error
}

// AdvanceResult reports the outcome of a successful Advance call. Credential
// is set only when advancing past confirmation submitted the registration.
type AdvanceResult struct {
	Step       Step        `json:"step"`
	Credential *Credential `json:"credential,omitempty"`
}

// RegistrationService drives the registration state machine. All operations
// verify that the caller owns the draft.
type RegistrationService interface {
	CreateDraft(ctx context.Context, eventID, userID string) (*RegistrationDraft, error)
	GetDraft(ctx context.Context, draftID, userID string) (*RegistrationDraft, error)
	EditField(ctx context.Context, draftID, userID string, field Field, value string) (*RegistrationDraft, error)
	TouchField(ctx context.Context, draftID, userID string, field Field) (*RegistrationDraft, error)
	SelectTier(ctx context.Context, draftID, userID, tierID string) (*RegistrationDraft, error)
	SetTermsAccepted(ctx context.Context, draftID, userID string, accepted bool) (*RegistrationDraft, error)
	Advance(ctx context.Context, draftID, userID string) (*AdvanceResult, error)
	Retreat(ctx context.Context, draftID, userID string) (*RegistrationDraft, error)
	Cancel(ctx context.Context, draftID, userID string) error
	GetCredential(ctx context.Context, draftID, userID string) (*Credential, error)
}
