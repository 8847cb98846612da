package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"eventpass/internal/domain"
)

type checkInService struct {
	credRepo   domain.CredentialRepository
	eventRepo  domain.EventRepository
	openBefore time.Duration
}

const defaultCheckInOpenBefore = time.Hour

// NewCheckInService creates a CheckInService. openBefore is how long before
// the event start time the admission window opens; zero or negative selects
// the default.
func NewCheckInService(credRepo domain.CredentialRepository, eventRepo domain.EventRepository, openBefore time.Duration) domain.CheckInService {
	if openBefore <= 0 {
		openBefore = defaultCheckInOpenBefore
	}
	return &checkInService{
		credRepo:   credRepo,
		eventRepo:  eventRepo,
		openBefore: openBefore,
	}
}

func (s *checkInService) ValidateAndRedeem(ctx context.Context, scannedCode, eventID string, now time.Time) (*domain.CheckInResult, error) {
	cred, err := s.credRepo.GetByCodeAndEvent(ctx, scannedCode, eventID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get credential: %w", err)
	}

	switch cred.Status {
	case domain.CredentialStatusRedeemed:
		return nil, domain.ErrAlreadyRedeemed
	case domain.CredentialStatusVoid:
		return nil, domain.ErrCredentialVoid
	}

	event, err := s.eventRepo.GetByID(ctx, cred.EventID)
	if err != nil {
		return nil, fmt.Errorf("get event: %w", err)
	}
	opensAt, closesAt := event.AdmissionWindow(s.openBefore)
	if now.Before(opensAt) || now.After(closesAt) {
		return nil, domain.ErrOutsideWindow
	}

	// The status read above may be stale under concurrent scans; the store
	// transition is compare-and-swap, so exactly one caller wins.
	redeemed, err := s.credRepo.Redeem(ctx, scannedCode, eventID, now)
	if err != nil {
		return nil, fmt.Errorf("redeem credential: %w", err)
	}
	if !redeemed {
		return nil, domain.ErrAlreadyRedeemed
	}

	cred.Status = domain.CredentialStatusRedeemed
	redeemedAt := now
	cred.RedeemedAt = &redeemedAt

	tier, err := s.eventRepo.GetTier(ctx, cred.TierID)
	if err != nil {
		// The admission already happened; report it even if the tier summary
		// cannot be loaded.
		tier = nil
	}

	return &domain.CheckInResult{
		Credential: cred,
		Event:      event,
		Tier:       tier,
	}, nil
}
