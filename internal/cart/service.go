package cart

import (
	"context"
	"errors"
	"fmt"

	"github.com/gofrs/uuid"
	"github.com/rs/zerolog/log"

	"github.com/mkuznetsov/bookstore-api/internal/book"
)

var ErrOutOfStock = errors.New("book is out of stock")

// BookFinder is the slice of the book store the cart needs.
type BookFinder interface {
	GetByID(ctx context.Context, id uuid.UUID) (*book.Book, error)
}

type Service interface {
	AddBook(ctx context.Context, userID, bookID uuid.UUID, quantity int) (*Line, error)
	AddQuantity(ctx context.Context, id, userID uuid.UUID, delta int) error
	Remove(ctx context.Context, id, userID uuid.UUID) error
	List(ctx context.Context, userID uuid.UUID) ([]Item, error)
}

type service struct {
	repo  Repository
	books BookFinder
}

func NewService(repo Repository, books BookFinder) Service {
	return &service{repo: repo, books: books}
}

func (s *service) AddBook(ctx context.Context, userID, bookID uuid.UUID, quantity int) (*Line, error) {
	if quantity < 1 {
		quantity = 1
	}

	b, err := s.books.GetByID(ctx, bookID)
	if err != nil {
		if errors.Is(err, book.ErrNotFound) {
			return nil, book.ErrNotFound
		}
		log.Error().Err(err).Stringer("book_id", bookID).Msg("service: failed to fetch book for cart")
		return nil, fmt.Errorf("service: failed to fetch book: %w", err)
	}

	if b.Quantity == 0 {
		return nil, ErrOutOfStock
	}

	line := &Line{UserID: userID, BookID: bookID, Quantity: quantity}
	if _, err := s.repo.Create(ctx, line); err != nil {
		if errors.Is(err, ErrAlreadyInCart) {
			return nil, ErrAlreadyInCart
		}
		log.Error().Err(err).Stringer("book_id", bookID).Msg("service: failed to add book to cart")
		return nil, fmt.Errorf("service: failed to add book to cart: %w", err)
	}

	log.Info().Stringer("cart_id", line.ID).Stringer("user_id", userID).Stringer("book_id", bookID).Msg("service: book added to cart")
	return line, nil
}

func (s *service) AddQuantity(ctx context.Context, id, userID uuid.UUID, delta int) error {
	if delta < 1 {
		return errors.New("service: quantity to add must be positive")
	}

	if err := s.repo.AddQuantity(ctx, id, userID, delta); err != nil {
		if errors.Is(err, ErrNotFound) {
			return ErrNotFound
		}
		log.Error().Err(err).Stringer("cart_id", id).Msg("service: failed to update cart quantity")
		return fmt.Errorf("service: failed to update cart quantity: %w", err)
	}

	return nil
}

func (s *service) Remove(ctx context.Context, id, userID uuid.UUID) error {
	if err := s.repo.Delete(ctx, id, userID); err != nil {
		if errors.Is(err, ErrNotFound) {
			return ErrNotFound
		}
		log.Error().Err(err).Stringer("cart_id", id).Msg("service: failed to remove cart line")
		return fmt.Errorf("service: failed to remove cart line: %w", err)
	}

	log.Info().Stringer("cart_id", id).Stringer("user_id", userID).Msg("service: cart line removed")
	return nil
}

func (s *service) List(ctx context.Context, userID uuid.UUID) ([]Item, error) {
	items, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		log.Error().Err(err).Stringer("user_id", userID).Msg("service: failed to list cart")
		return nil, fmt.Errorf("service: failed to list cart: %w", err)
	}

	return items, nil
}
