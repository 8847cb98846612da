package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	"eventpass/internal/domain"
)

type registrationService struct {
	draftRepo domain.DraftRepository
	eventRepo domain.EventRepository
	ledger    domain.TierLedger
	credRepo  domain.CredentialRepository
	email     domain.EmailService
}

// NewRegistrationService creates a RegistrationService with the given
// repositories and ledger. email may be nil; confirmation sending is then
// skipped.
func NewRegistrationService(
	draftRepo domain.DraftRepository,
	eventRepo domain.EventRepository,
	ledger domain.TierLedger,
	credRepo domain.CredentialRepository,
	email domain.EmailService,
) domain.RegistrationService {
	return &registrationService{
		draftRepo: draftRepo,
		eventRepo: eventRepo,
		ledger:    ledger,
		credRepo:  credRepo,
		email:     email,
	}
}

// advanceTransitions maps each step to its successor. Steps absent from the
// table (terminal ones) cannot advance.
var advanceTransitions = map[domain.Step]domain.Step{
	domain.StepContactInfo:     domain.StepTicketSelection,
	domain.StepTicketSelection: domain.StepConfirmation,
	domain.StepConfirmation:    domain.StepSubmitted,
}

// retreatTransitions maps each step to its predecessor.
var retreatTransitions = map[domain.Step]domain.Step{
	domain.StepTicketSelection: domain.StepContactInfo,
	domain.StepConfirmation:    domain.StepTicketSelection,
}

func (s *registrationService) CreateDraft(ctx context.Context, eventID, userID string) (*domain.RegistrationDraft, error) {
	event, err := s.eventRepo.GetByID(ctx, eventID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get event: %w", err)
	}
	if event.Status == domain.EventStatusCompleted {
		return nil, fmt.Errorf("%w: event has ended", domain.ErrInvalidInput)
	}

	now := time.Now()
	draft := domain.NewRegistrationDraft(eventID, userID, now)
	if err := s.draftRepo.Create(ctx, draft); err != nil {
		return nil, fmt.Errorf("create draft: %w", err)
	}
	return draft, nil
}

// ownedDraft loads the draft and checks that userID owns it.
func (s *registrationService) ownedDraft(ctx context.Context, draftID, userID string) (*domain.RegistrationDraft, error) {
	draft, err := s.draftRepo.GetByID(ctx, draftID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get draft: %w", err)
	}
	if draft.UserID != userID {
		return nil, domain.ErrForbidden
	}
	return draft, nil
}

func (s *registrationService) GetDraft(ctx context.Context, draftID, userID string) (*domain.RegistrationDraft, error) {
	return s.ownedDraft(ctx, draftID, userID)
}

func knownField(f domain.Field) bool {
	for _, known := range domain.DraftFields {
		if f == known {
			return true
		}
	}
	return false
}

func (s *registrationService) EditField(ctx context.Context, draftID, userID string, field domain.Field, value string) (*domain.RegistrationDraft, error) {
	if !knownField(field) {
		return nil, fmt.Errorf("%w: unknown field %q", domain.ErrInvalidInput, field)
	}
	draft, err := s.ownedDraft(ctx, draftID, userID)
	if err != nil {
		return nil, err
	}
	if draft.Step.Closed() {
		return nil, domain.ErrDraftClosed
	}

	// Validity is recomputed on read; an edit never changes the step.
	draft.SetFieldValue(field, value)
	draft.UpdatedAt = time.Now()
	if err := s.draftRepo.Update(ctx, draft); err != nil {
		return nil, fmt.Errorf("update draft: %w", err)
	}
	return draft, nil
}

func (s *registrationService) TouchField(ctx context.Context, draftID, userID string, field domain.Field) (*domain.RegistrationDraft, error) {
	if !knownField(field) {
		return nil, fmt.Errorf("%w: unknown field %q", domain.ErrInvalidInput, field)
	}
	draft, err := s.ownedDraft(ctx, draftID, userID)
	if err != nil {
		return nil, err
	}
	if draft.Step.Closed() {
		return nil, domain.ErrDraftClosed
	}

	draft.MarkTouched(field)
	draft.UpdatedAt = time.Now()
	if err := s.draftRepo.Update(ctx, draft); err != nil {
		return nil, fmt.Errorf("update draft: %w", err)
	}
	return draft, nil
}

func (s *registrationService) SelectTier(ctx context.Context, draftID, userID, tierID string) (*domain.RegistrationDraft, error) {
	draft, err := s.ownedDraft(ctx, draftID, userID)
	if err != nil {
		return nil, err
	}
	if draft.Step.Closed() {
		return nil, domain.ErrDraftClosed
	}

	tier, err := s.eventRepo.GetTier(ctx, tierID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get tier: %w", err)
	}
	if tier.EventID != draft.EventID {
		return nil, fmt.Errorf("%w: tier belongs to a different event", domain.ErrInvalidInput)
	}

	draft.SelectedTierID = tierID
	draft.UpdatedAt = time.Now()
	if err := s.draftRepo.Update(ctx, draft); err != nil {
		return nil, fmt.Errorf("update draft: %w", err)
	}
	return draft, nil
}

func (s *registrationService) SetTermsAccepted(ctx context.Context, draftID, userID string, accepted bool) (*domain.RegistrationDraft, error) {
	draft, err := s.ownedDraft(ctx, draftID, userID)
	if err != nil {
		return nil, err
	}
	if draft.Step.Closed() {
		return nil, domain.ErrDraftClosed
	}

	draft.TermsAccepted = accepted
	draft.UpdatedAt = time.Now()
	if err := s.draftRepo.Update(ctx, draft); err != nil {
		return nil, fmt.Errorf("update draft: %w", err)
	}
	return draft, nil
}

func (s *registrationService) Advance(ctx context.Context, draftID, userID string) (*domain.AdvanceResult, error) {
	draft, err := s.ownedDraft(ctx, draftID, userID)
	if err != nil {
		return nil, err
	}
	next, ok := advanceTransitions[draft.Step]
	if !ok {
		return nil, domain.ErrDraftClosed
	}

	switch draft.Step {
	case domain.StepContactInfo:
		if !draft.ContactInfoValid() {
			return nil, domain.ErrValidationFailed
		}

	case domain.StepTicketSelection:
		if draft.SelectedTierID == "" {
			return nil, domain.ErrValidationFailed
		}
		// Availability is always re-read from the store; a cached value may
		// be stale after a failed reservation or concurrent registrations.
		tier, err := s.eventRepo.GetTier(ctx, draft.SelectedTierID)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return nil, domain.ErrNotFound
			}
			return nil, fmt.Errorf("get tier: %w", err)
		}
		if tier.Available() <= 0 {
			return nil, domain.ErrOutOfCapacity
		}

	case domain.StepConfirmation:
		if !draft.TermsAccepted {
			return nil, domain.ErrTermsNotAccepted
		}
		return s.submit(ctx, draft)
	}

	draft.Step = next
	draft.UpdatedAt = time.Now()
	if err := s.draftRepo.Update(ctx, draft); err != nil {
		return nil, fmt.Errorf("update draft: %w", err)
	}
	return &domain.AdvanceResult{Step: draft.Step}, nil
}

// submit performs the final confirmation: one capacity unit is reserved
// atomically, then the credential is issued. A failed issuance releases the
// reservation so the ledger stays consistent. On ErrOutOfCapacity the draft
// is routed back to ticket selection and no credential exists.
func (s *registrationService) submit(ctx context.Context, draft *domain.RegistrationDraft) (*domain.AdvanceResult, error) {
	if err := s.ledger.Reserve(ctx, draft.SelectedTierID, 1); err != nil {
		if errors.Is(err, domain.ErrOutOfCapacity) {
			draft.Step = domain.StepTicketSelection
			draft.UpdatedAt = time.Now()
			if uerr := s.draftRepo.Update(ctx, draft); uerr != nil {
				return nil, fmt.Errorf("update draft after capacity failure: %w", uerr)
			}
			return nil, domain.ErrOutOfCapacity
		}
		return nil, fmt.Errorf("reserve tier: %w", err)
	}

	now := time.Now()
	cred := &domain.Credential{
		Code:           uuid.NewString(),
		Label:          credentialLabel(draft.EventID, draft.SelectedTierID),
		RegistrationID: draft.ID,
		EventID:        draft.EventID,
		TierID:         draft.SelectedTierID,
		UserID:         draft.UserID,
		Status:         domain.CredentialStatusIssued,
		IssuedAt:       now,
	}
	if err := s.credRepo.Create(ctx, cred); err != nil {
		if rerr := s.ledger.Release(ctx, draft.SelectedTierID, 1); rerr != nil {
			log.Printf("[REGISTRATION] failed to release reservation for tier %s after issuance failure: %v", draft.SelectedTierID, rerr)
		}
		return nil, fmt.Errorf("issue credential: %w", err)
	}

	draft.Step = domain.StepSubmitted
	draft.UpdatedAt = now
	if err := s.draftRepo.Update(ctx, draft); err != nil {
		return nil, fmt.Errorf("update draft: %w", err)
	}

	s.sendConfirmation(ctx, draft, cred)

	return &domain.AdvanceResult{Step: domain.StepSubmitted, Credential: cred}, nil
}

// sendConfirmation emails the credential to the registrant. Failures are
// logged and never fail the registration.
func (s *registrationService) sendConfirmation(ctx context.Context, draft *domain.RegistrationDraft, cred *domain.Credential) {
	if s.email == nil {
		return
	}
	data := &domain.TicketEmailData{
		Email: draft.Email,
		Name:  draft.Name,
		Code:  cred.Code,
		Label: cred.Label,
	}
	if event, err := s.eventRepo.GetByID(ctx, draft.EventID); err == nil {
		data.EventName = event.Name
	}
	if tier, err := s.eventRepo.GetTier(ctx, cred.TierID); err == nil {
		data.TierName = tier.Name
	}
	if err := s.email.SendTicketConfirmation(ctx, data); err != nil {
		log.Printf("[REGISTRATION] failed to send confirmation to %s: %v", draft.Email, err)
	}
}

// credentialLabel builds the human-readable display label printed alongside
// the QR encoding. It carries no uniqueness guarantee; the opaque Code is the
// authoritative identifier.
func credentialLabel(eventID, tierID string) string {
	return strings.ToUpper(fmt.Sprintf("EV%s-T%s-%s", shortID(eventID), shortID(tierID), shortID(uuid.NewString())))
}

func shortID(id string) string {
	id = strings.ReplaceAll(id, "-", "")
	if len(id) > 6 {
		return id[:6]
	}
	return id
}

func (s *registrationService) Retreat(ctx context.Context, draftID, userID string) (*domain.RegistrationDraft, error) {
	draft, err := s.ownedDraft(ctx, draftID, userID)
	if err != nil {
		return nil, err
	}
	if draft.Step.Closed() {
		return nil, domain.ErrDraftClosed
	}
	prev, ok := retreatTransitions[draft.Step]
	if !ok {
		return nil, fmt.Errorf("%w: cannot retreat from %s", domain.ErrInvalidInput, draft.Step)
	}

	// Retreat has no side effects and clears no field data.
	draft.Step = prev
	draft.UpdatedAt = time.Now()
	if err := s.draftRepo.Update(ctx, draft); err != nil {
		return nil, fmt.Errorf("update draft: %w", err)
	}
	return draft, nil
}

func (s *registrationService) Cancel(ctx context.Context, draftID, userID string) error {
	draft, err := s.ownedDraft(ctx, draftID, userID)
	if err != nil {
		return err
	}
	if draft.Step.Closed() {
		return domain.ErrDraftClosed
	}

	// No ledger or credential state exists before a successful submission,
	// so cancelling is a pure status change.
	draft.Step = domain.StepAbandoned
	draft.UpdatedAt = time.Now()
	if err := s.draftRepo.Update(ctx, draft); err != nil {
		return fmt.Errorf("update draft: %w", err)
	}
	return nil
}

func (s *registrationService) GetCredential(ctx context.Context, draftID, userID string) (*domain.Credential, error) {
	draft, err := s.ownedDraft(ctx, draftID, userID)
	if err != nil {
		return nil, err
	}
	cred, err := s.credRepo.GetByRegistrationID(ctx, draft.ID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get credential: %w", err)
	}
	return cred, nil
}
