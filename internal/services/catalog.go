package services

import (
	"context"
	"errors"
	"fmt"

	"eventpass/internal/domain"
)

type catalogService struct {
	eventRepo domain.EventRepository
}

// NewCatalogService creates the read-only catalog service over the event
// repository.
func NewCatalogService(eventRepo domain.EventRepository) domain.CatalogService {
	return &catalogService{eventRepo: eventRepo}
}

func (s *catalogService) ListEvents(ctx context.Context, params domain.PaginationParams) ([]*domain.Event, int, error) {
	events, total, err := s.eventRepo.List(ctx, params)
	if err != nil {
		return nil, 0, fmt.Errorf("list events: %w", err)
	}
	if events == nil {
		events = []*domain.Event{}
	}
	return events, total, nil
}

func (s *catalogService) GetEvent(ctx context.Context, eventID string) (*domain.EventWithTiers, error) {
	event, err := s.eventRepo.GetByID(ctx, eventID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get event: %w", err)
	}
	tiers, err := s.eventRepo.ListTiersByEventID(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("list tiers: %w", err)
	}
	if tiers == nil {
		tiers = []*domain.TicketTier{}
	}
	return &domain.EventWithTiers{Event: event, Tiers: tiers}, nil
}
