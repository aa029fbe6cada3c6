package cart

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gofrs/uuid"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	ErrNotFound      = errors.New("cart line not found")
	ErrAlreadyInCart = errors.New("book already added in cart")
)

type Repository interface {
	Create(ctx context.Context, line *Line) (uuid.UUID, error)
	GetByIDAndUser(ctx context.Context, id, userID uuid.UUID) (*Line, error)
	AddQuantity(ctx context.Context, id, userID uuid.UUID, delta int) error
	Delete(ctx context.Context, id, userID uuid.UUID) error
	ListByUser(ctx context.Context, userID uuid.UUID) ([]Item, error)
}

type postgresRepository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) Repository {
	return &postgresRepository{db: db}
}

func (r *postgresRepository) Create(ctx context.Context, line *Line) (uuid.UUID, error) {
	id, err := uuid.NewV4()
	if err != nil {
		return uuid.Nil, fmt.Errorf("repository: failed to generate cart line ID: %w", err)
	}

	now := time.Now().UTC()

	query := `
		INSERT INTO carts (id, user_id, book_id, quantity, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err = r.db.Exec(ctx, query, id, line.UserID, line.BookID, line.Quantity, now, now)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return uuid.Nil, ErrAlreadyInCart
		}
		return uuid.Nil, fmt.Errorf("repository: failed to insert cart line: %w", err)
	}

	line.ID = id
	line.CreatedAt = now
	line.UpdatedAt = now

	return id, nil
}

func (r *postgresRepository) GetByIDAndUser(ctx context.Context, id, userID uuid.UUID) (*Line, error) {
	query := `
		SELECT id, user_id, book_id, quantity, created_at, updated_at
		FROM carts
		WHERE id = $1 AND user_id = $2
	`

	var line Line
	err := r.db.QueryRow(ctx, query, id, userID).Scan(
		&line.ID, &line.UserID, &line.BookID, &line.Quantity, &line.CreatedAt, &line.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("repository: failed to select cart line %s: %w", id, err)
	}

	return &line, nil
}

func (r *postgresRepository) AddQuantity(ctx context.Context, id, userID uuid.UUID, delta int) error {
	query := `
		UPDATE carts
		SET quantity = quantity + $1, updated_at = $2
		WHERE id = $3 AND user_id = $4
	`

	cmdTag, err := r.db.Exec(ctx, query, delta, time.Now().UTC(), id, userID)
	if err != nil {
		return fmt.Errorf("repository: failed to update cart line %s quantity: %w", id, err)
	}

	if cmdTag.RowsAffected() == 0 {
		return ErrNotFound
	}

	return nil
}

func (r *postgresRepository) Delete(ctx context.Context, id, userID uuid.UUID) error {
	cmdTag, err := r.db.Exec(ctx, `DELETE FROM carts WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return fmt.Errorf("repository: failed to delete cart line %s: %w", id, err)
	}

	if cmdTag.RowsAffected() == 0 {
		return ErrNotFound
	}

	return nil
}

func (r *postgresRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]Item, error) {
	query := `
		SELECT c.id, b.id, b.name, b.author, b.price, c.quantity
		FROM carts c
		JOIN books b ON b.id = c.book_id
		WHERE c.user_id = $1
		ORDER BY c.created_at
	`

	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("repository: failed to query cart for user %s: %w", userID, err)
	}
	defer rows.Close()

	items := make([]Item, 0)
	for rows.Next() {
		var item Item
		if err := rows.Scan(&item.ID, &item.BookID, &item.Name, &item.Author, &item.Price, &item.Quantity); err != nil {
			return nil, fmt.Errorf("repository: failed to scan cart item: %w", err)
		}
		items = append(items, item)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repository: error iterating cart items: %w", err)
	}

	return items, nil
}
