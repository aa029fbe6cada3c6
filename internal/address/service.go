package address

import (
	"context"
	"fmt"

	"github.com/gofrs/uuid"
	"github.com/rs/zerolog/log"
)

type Service interface {
	Add(ctx context.Context, a *Address) (*Address, error)
	List(ctx context.Context, userID uuid.UUID) ([]Address, error)
}

type service struct {
	repo Repository
}

func NewService(repo Repository) Service {
	return &service{repo: repo}
}

func (s *service) Add(ctx context.Context, a *Address) (*Address, error) {
	if _, err := s.repo.Create(ctx, a); err != nil {
		log.Error().Err(err).Stringer("user_id", a.UserID).Msg("service: failed to add address")
		return nil, fmt.Errorf("service: failed to add address: %w", err)
	}

	log.Info().Stringer("address_id", a.ID).Stringer("user_id", a.UserID).Msg("service: address added")
	return a, nil
}

func (s *service) List(ctx context.Context, userID uuid.UUID) ([]Address, error) {
	addresses, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		log.Error().Err(err).Stringer("user_id", userID).Msg("service: failed to list addresses")
		return nil, fmt.Errorf("service: failed to list addresses: %w", err)
	}

	return addresses, nil
}
