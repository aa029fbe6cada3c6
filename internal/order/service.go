package order

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gofrs/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"github.com/mkuznetsov/bookstore-api/internal/book"
	"github.com/mkuznetsov/bookstore-api/internal/cache"
	"github.com/mkuznetsov/bookstore-api/internal/cart"
	"github.com/mkuznetsov/bookstore-api/internal/notify"
	"github.com/mkuznetsov/bookstore-api/internal/user"
)

var (
	ErrCartNotFound    = errors.New("cart line not found")
	ErrBookNotFound    = errors.New("book not found")
	ErrAddressNotFound = errors.New("address not found")
)

// InsufficientStockError reports how many copies are actually available so
// the client can correct the request.
type InsufficientStockError struct {
	Available int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock: %d available", e.Available)
}

// codeAttempts bounds the retries on an order-code collision before the
// placement fails as internal.
const codeAttempts = 3

type BookRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*book.Book, error)
}

type CartRepository interface {
	GetByIDAndUser(ctx context.Context, id, userID uuid.UUID) (*cart.Line, error)
}

type AddressRepository interface {
	ExistsForUser(ctx context.Context, id, userID uuid.UUID) (bool, error)
}

type UserRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*user.User, error)
}

type Service interface {
	PlaceOrder(ctx context.Context, userID, cartID, addressID uuid.UUID) (*Order, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]Order, error)
	GetByCode(ctx context.Context, code string, userID uuid.UUID) (*Order, error)
}

type service struct {
	repo        Repository
	books       BookRepository
	carts       CartRepository
	addresses   AddressRepository
	users       UserRepository
	notifier    notify.Notifier
	cache       cache.Cache
	notifyDelay time.Duration
}

func NewService(
	repo Repository,
	books BookRepository,
	carts CartRepository,
	addresses AddressRepository,
	users UserRepository,
	notifier notify.Notifier,
	c cache.Cache,
	notifyDelay time.Duration,
) Service {
	return &service{
		repo:        repo,
		books:       books,
		carts:       carts,
		addresses:   addresses,
		users:       users,
		notifier:    notifier,
		cache:       c,
		notifyDelay: notifyDelay,
	}
}

// PlaceOrder validates that the cart line and address belong to userID,
// checks stock, snapshots the book into an order and consumes the cart line.
// The snapshot insert and the stock decrement commit atomically; a
// confirmation notification is scheduled best-effort after the commit.
func (s *service) PlaceOrder(ctx context.Context, userID, cartID, addressID uuid.UUID) (*Order, error) {
	line, err := s.carts.GetByIDAndUser(ctx, cartID, userID)
	if err != nil {
		if errors.Is(err, cart.ErrNotFound) {
			return nil, ErrCartNotFound
		}
		log.Error().Err(err).Stringer("cart_id", cartID).Msg("service: failed to fetch cart line")
		return nil, fmt.Errorf("service: failed to fetch cart line: %w", err)
	}

	b, err := s.books.GetByID(ctx, line.BookID)
	if err != nil {
		if errors.Is(err, book.ErrNotFound) {
			return nil, ErrBookNotFound
		}
		log.Error().Err(err).Stringer("book_id", line.BookID).Msg("service: failed to fetch book")
		return nil, fmt.Errorf("service: failed to fetch book: %w", err)
	}

	// Early stock guard; the authoritative check is the conditional
	// decrement inside the placement transaction.
	if b.Quantity < line.Quantity {
		return nil, &InsufficientStockError{Available: b.Quantity}
	}

	exists, err := s.addresses.ExistsForUser(ctx, addressID, userID)
	if err != nil {
		log.Error().Err(err).Stringer("address_id", addressID).Msg("service: failed to check address")
		return nil, fmt.Errorf("service: failed to check address: %w", err)
	}
	if !exists {
		return nil, ErrAddressNotFound
	}

	o := &Order{
		UserID:     userID,
		CartID:     cartID,
		AddressID:  addressID,
		BookID:     b.ID,
		BookName:   b.Name,
		BookAuthor: b.Author,
		BookPrice:  b.Price,
		Quantity:   line.Quantity,
		TotalPrice: b.Price.Mul(decimal.NewFromInt(int64(line.Quantity))),
	}

	for attempt := 0; ; attempt++ {
		o.Code = NewCode()
		err = s.repo.PlaceOrder(ctx, o)
		if errors.Is(err, ErrCodeExists) && attempt < codeAttempts-1 {
			log.Warn().Str("order_code", o.Code).Msg("service: order code collision, regenerating")
			continue
		}
		break
	}
	if err != nil {
		var stockErr *InsufficientStockError
		switch {
		case errors.Is(err, ErrCartNotFound):
			return nil, ErrCartNotFound
		case errors.Is(err, ErrBookNotFound):
			return nil, ErrBookNotFound
		case errors.As(err, &stockErr):
			return nil, stockErr
		case errors.Is(err, ErrCodeExists):
			log.Error().Stringer("user_id", userID).Msg("service: order code generation exhausted")
			return nil, fmt.Errorf("service: failed to place order: %w", err)
		}
		log.Error().Err(err).Stringer("user_id", userID).Msg("service: failed to place order")
		return nil, fmt.Errorf("service: failed to place order: %w", err)
	}

	s.invalidateBook(ctx, b.ID)
	s.scheduleConfirmation(ctx, o)

	log.Info().
		Str("order_code", o.Code).
		Stringer("user_id", userID).
		Stringer("book_id", b.ID).
		Int("quantity", o.Quantity).
		Str("total_price", o.TotalPrice.StringFixed(2)).
		Msg("service: order placed")

	return o, nil
}

func (s *service) ListByUser(ctx context.Context, userID uuid.UUID) ([]Order, error) {
	orders, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		log.Error().Err(err).Stringer("user_id", userID).Msg("service: failed to fetch user orders")
		return nil, fmt.Errorf("service: failed to fetch user orders: %w", err)
	}

	return orders, nil
}

func (s *service) GetByCode(ctx context.Context, code string, userID uuid.UUID) (*Order, error) {
	o, err := s.repo.GetByCodeAndUser(ctx, code, userID)
	if err != nil {
		if errors.Is(err, ErrOrderNotFound) {
			return nil, ErrOrderNotFound
		}
		log.Error().Err(err).Str("order_code", code).Msg("service: failed to fetch order by code")
		return nil, fmt.Errorf("service: failed to fetch order by code: %w", err)
	}

	return o, nil
}

func (s *service) invalidateBook(ctx context.Context, bookID uuid.UUID) {
	if err := s.cache.Delete(ctx, s.cache.Key("book", bookID.String())); err != nil {
		log.Warn().Err(err).Stringer("book_id", bookID).Msg("service: book cache invalidation failed")
	}
}

// scheduleConfirmation is fire-and-forget: the order is already committed, so
// enqueue failures are logged and swallowed. The context is detached from the
// request so a client disconnect cannot cancel the enqueue.
func (s *service) scheduleConfirmation(ctx context.Context, o *Order) {
	u, err := s.users.GetByID(ctx, o.UserID)
	if err != nil {
		log.Error().Err(err).Str("order_code", o.Code).Msg("service: failed to resolve recipient for confirmation")
		return
	}

	msg := notify.OrderConfirmation{
		OrderCode:  o.Code,
		BookName:   o.BookName,
		BookAuthor: o.BookAuthor,
		Quantity:   o.Quantity,
		TotalPrice: o.TotalPrice,
	}

	enqueueCtx := context.WithoutCancel(ctx)
	if err := s.notifier.ScheduleOrderConfirmation(enqueueCtx, u.Email, msg, s.notifyDelay); err != nil {
		log.Error().Err(err).Str("order_code", o.Code).Msg("service: failed to schedule order confirmation")
	}
}
