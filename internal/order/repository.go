package order

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
	"github.com/rs/zerolog/log"
)

var (
	ErrOrderNotFound = errors.New("order not found")
	ErrCodeExists    = errors.New("order code already exists")
)

type Repository interface {
	// PlaceOrder commits the stock decrement, the order snapshot insert and
	// the cart line delete as one transaction. It fills o.ID and o.CreatedAt.
	PlaceOrder(ctx context.Context, o *Order) error
	ListByUser(ctx context.Context, userID uuid.UUID) ([]Order, error)
	GetByCodeAndUser(ctx context.Context, code string, userID uuid.UUID) (*Order, error)
}

type postgresRepository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) Repository {
	return &postgresRepository{db: db}
}

func (r *postgresRepository) PlaceOrder(ctx context.Context, o *Order) (err error) {
	id, genErr := uuid.NewV4()
	if genErr != nil {
		return fmt.Errorf("repository: failed to generate order ID: %w", genErr)
	}

	tx, beginErr := r.db.Begin(ctx)
	if beginErr != nil {
		return fmt.Errorf("repository: failed to begin transaction: %w", beginErr)
	}
	defer func() {
		if p := recover(); p != nil {
			if rbErr := tx.Rollback(ctx); rbErr != nil {
				log.Error().Err(rbErr).Str("order_code", o.Code).Msg("failed to rollback transaction after panic")
			}
			panic(p)
		} else if err != nil {
			if rbErr := tx.Rollback(ctx); rbErr != nil {
				log.Error().Err(rbErr).Str("order_code", o.Code).Msg("failed to rollback transaction")
			}
		} else {
			if commitErr := tx.Commit(ctx); commitErr != nil {
				err = fmt.Errorf("repository: failed to commit transaction: %w", commitErr)
			}
		}
	}()

	// Conditional decrement: the WHERE clause is what makes concurrent
	// over-capacity placements lose instead of overselling.
	decrement := `
		UPDATE books
		SET quantity = quantity - $1, updated_at = $2
		WHERE id = $3 AND quantity >= $1
	`
	cmdTag, err := tx.Exec(ctx, decrement, o.Quantity, time.Now().UTC(), o.BookID)
	if err != nil {
		return fmt.Errorf("repository: failed to decrement stock for book %s: %w", o.BookID, err)
	}
	if cmdTag.RowsAffected() == 0 {
		var available int
		scanErr := tx.QueryRow(ctx, `SELECT quantity FROM books WHERE id = $1`, o.BookID).Scan(&available)
		if scanErr != nil {
			if errors.Is(scanErr, pgx.ErrNoRows) {
				err = ErrBookNotFound
				return err
			}
			err = fmt.Errorf("repository: failed to read stock for book %s: %w", o.BookID, scanErr)
			return err
		}
		err = &InsufficientStockError{Available: available}
		return err
	}

	createdAt := time.Now().UTC()

	insert := `
		INSERT INTO orders (id, code, user_id, cart_id, address_id, book_id, book_name, book_author, book_price, quantity, total_price, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`
	_, err = tx.Exec(ctx, insert,
		id, o.Code, o.UserID, o.CartID, o.AddressID, o.BookID,
		o.BookName, o.BookAuthor, o.BookPrice, o.Quantity, o.TotalPrice, createdAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			err = ErrCodeExists
			return err
		}
		return fmt.Errorf("repository: failed to insert order: %w", err)
	}

	// The cart line is consumed by the order; a concurrent placement of the
	// same line loses here and the whole transaction unwinds.
	cmdTag, err = tx.Exec(ctx, `DELETE FROM carts WHERE id = $1 AND user_id = $2`, o.CartID, o.UserID)
	if err != nil {
		return fmt.Errorf("repository: failed to consume cart line %s: %w", o.CartID, err)
	}
	if cmdTag.RowsAffected() == 0 {
		err = ErrCartNotFound
		return err
	}

	o.ID = id
	o.CreatedAt = createdAt

	return nil
}

const orderColumns = `id, code, user_id, cart_id, address_id, book_id, book_name, book_author, book_price, quantity, total_price, created_at`

func scanOrder(row pgx.Row, o *Order) error {
	return row.Scan(
		&o.ID, &o.Code, &o.UserID, &o.CartID, &o.AddressID, &o.BookID,
		&o.BookName, &o.BookAuthor, &o.BookPrice, &o.Quantity, &o.TotalPrice, &o.CreatedAt)
}

func (r *postgresRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE user_id = $1 ORDER BY created_at DESC`

	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("repository: failed to query orders for user %s: %w", userID, err)
	}
	defer rows.Close()

	orders := make([]Order, 0)
	for rows.Next() {
		var o Order
		if err := scanOrder(rows, &o); err != nil {
			return nil, fmt.Errorf("repository: failed to scan order: %w", err)
		}
		orders = append(orders, o)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repository: error iterating orders: %w", err)
	}

	return orders, nil
}

func (r *postgresRepository) GetByCodeAndUser(ctx context.Context, code string, userID uuid.UUID) (*Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE code = $1 AND user_id = $2`

	var o Order
	if err := scanOrder(r.db.QueryRow(ctx, query, code, userID), &o); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("repository: failed to select order by code %s: %w", code, err)
	}

	return &o, nil
}
