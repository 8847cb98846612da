package services

import (
	"context"
	"fmt"

	"eventpass/internal/domain"
)

type credentialService struct {
	credRepo domain.CredentialRepository
}

// NewCredentialService creates the service backing the "my tickets" surface.
func NewCredentialService(credRepo domain.CredentialRepository) domain.CredentialService {
	return &credentialService{credRepo: credRepo}
}

func (s *credentialService) ListMyCredentials(ctx context.Context, userID string, params domain.PaginationParams) ([]*domain.Credential, int, error) {
	creds, total, err := s.credRepo.ListByUserID(ctx, userID, params)
	if err != nil {
		return nil, 0, fmt.Errorf("list credentials: %w", err)
	}
	if creds == nil {
		creds = []*domain.Credential{}
	}
	return creds, total, nil
}
