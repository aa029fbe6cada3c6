package book

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/gofrs/uuid"
	"github.com/rs/zerolog/log"

	"github.com/mkuznetsov/bookstore-api/internal/cache"
)

const cacheTTL = time.Hour

type Service interface {
	Add(ctx context.Context, b *Book) (*Book, error)
	GetByID(ctx context.Context, id uuid.UUID) (*Book, error)
	List(ctx context.Context, page, perPage int) ([]Book, error)
	Update(ctx context.Context, b *Book) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type service struct {
	repo  Repository
	cache cache.Cache
}

func NewService(repo Repository, c cache.Cache) Service {
	return &service{repo: repo, cache: c}
}

func (s *service) Add(ctx context.Context, b *Book) (*Book, error) {
	if b.Quantity < 0 {
		return nil, errors.New("service: book quantity cannot be negative")
	}
	if b.Price.IsNegative() {
		return nil, errors.New("service: book price cannot be negative")
	}

	if _, err := s.repo.Create(ctx, b); err != nil {
		if errors.Is(err, ErrNameExists) {
			return nil, ErrNameExists
		}
		log.Error().Err(err).Msg("service: failed to create book in repository")
		return nil, fmt.Errorf("service: failed to create book: %w", err)
	}

	log.Info().Stringer("book_id", b.ID).Str("name", b.Name).Msg("service: book added")
	return b, nil
}

// GetByID reads through the id-keyed cache. Cache failures degrade to a
// direct repository read, never to an error.
func (s *service) GetByID(ctx context.Context, id uuid.UUID) (*Book, error) {
	key := s.cache.Key("book", id.String())

	if raw, err := s.cache.Get(ctx, key); err == nil {
		var b Book
		if err := json.Unmarshal(raw, &b); err == nil {
			return &b, nil
		}
	} else if !errors.Is(err, cache.ErrMiss) {
		log.Warn().Err(err).Stringer("book_id", id).Msg("service: book cache read failed")
	}

	b, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("service: failed to fetch book by id: %w", err)
	}

	if raw, err := json.Marshal(b); err == nil {
		if err := s.cache.Set(ctx, key, raw, cacheTTL); err != nil {
			log.Warn().Err(err).Stringer("book_id", id).Msg("service: book cache write failed")
		}
	}

	return b, nil
}

func (s *service) List(ctx context.Context, page, perPage int) ([]Book, error) {
	if page < 1 {
		page = 1
	}
	if perPage < 1 || perPage > 100 {
		perPage = 10
	}

	books, err := s.repo.List(ctx, perPage, (page-1)*perPage)
	if err != nil {
		log.Error().Err(err).Msg("service: failed to list books")
		return nil, fmt.Errorf("service: failed to list books: %w", err)
	}

	return books, nil
}

func (s *service) Update(ctx context.Context, b *Book) error {
	if b.Quantity < 0 {
		return errors.New("service: book quantity cannot be negative")
	}
	if b.Price.IsNegative() {
		return errors.New("service: book price cannot be negative")
	}

	if err := s.repo.Update(ctx, b); err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			return ErrNotFound
		case errors.Is(err, ErrNameExists):
			return ErrNameExists
		}
		log.Error().Err(err).Stringer("book_id", b.ID).Msg("service: failed to update book")
		return fmt.Errorf("service: failed to update book: %w", err)
	}

	s.invalidate(ctx, b.ID)
	log.Info().Stringer("book_id", b.ID).Msg("service: book updated")
	return nil
}

func (s *service) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, ErrNotFound) {
			return ErrNotFound
		}
		log.Error().Err(err).Stringer("book_id", id).Msg("service: failed to delete book")
		return fmt.Errorf("service: failed to delete book: %w", err)
	}

	s.invalidate(ctx, id)
	log.Info().Stringer("book_id", id).Msg("service: book deleted")
	return nil
}

func (s *service) invalidate(ctx context.Context, id uuid.UUID) {
	if err := s.cache.Delete(ctx, s.cache.Key("book", id.String())); err != nil {
		log.Warn().Err(err).Stringer("book_id", id).Msg("service: book cache invalidation failed")
	}
}
