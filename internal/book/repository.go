package book

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
	ErrNotFound   = errors.New("book not found")
	ErrNameExists = errors.New("book already exists in store")
)

type Repository interface {
	Create(ctx context.Context, b *Book) (uuid.UUID, error)
	GetByID(ctx context.Context, id uuid.UUID) (*Book, error)
	List(ctx context.Context, limit, offset int) ([]Book, error)
	Update(ctx context.Context, b *Book) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type postgresRepository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) Repository {
	return &postgresRepository{db: db}
}

const bookColumns = `id, name, author, description, image_url, price, quantity, user_id, created_at, updated_at`

func scanBook(row pgx.Row, b *Book) error {
	return row.Scan(
		&b.ID, &b.Name, &b.Author, &b.Description, &b.ImageURL,
		&b.Price, &b.Quantity, &b.UserID, &b.CreatedAt, &b.UpdatedAt)
}

func (r *postgresRepository) Create(ctx context.Context, b *Book) (uuid.UUID, error) {
	id, err := uuid.NewV4()
	if err != nil {
		return uuid.Nil, fmt.Errorf("repository: failed to generate book ID: %w", err)
	}

	now := time.Now().UTC()

	query := `
		INSERT INTO books (id, name, author, description, image_url, price, quantity, user_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	_, err = r.db.Exec(ctx, query,
		id, b.Name, b.Author, b.Description, b.ImageURL, b.Price, b.Quantity, b.UserID, now, now)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return uuid.Nil, ErrNameExists
		}
		return uuid.Nil, fmt.Errorf("repository: failed to insert book: %w", err)
	}

	b.ID = id
	b.CreatedAt = now
	b.UpdatedAt = now

	return id, nil
}

func (r *postgresRepository) GetByID(ctx context.Context, id uuid.UUID) (*Book, error) {
	query := `SELECT ` + bookColumns + ` FROM books WHERE id = $1`

	var b Book
	if err := scanBook(r.db.QueryRow(ctx, query, id), &b); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("repository: failed to select book by id %s: %w", id, err)
	}

	return &b, nil
}

func (r *postgresRepository) List(ctx context.Context, limit, offset int) ([]Book, error) {
	query := `SELECT ` + bookColumns + ` FROM books ORDER BY created_at DESC LIMIT $1 OFFSET $2`

	rows, err := r.db.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("repository: failed to query books: %w", err)
	}
	defer rows.Close()

	books := make([]Book, 0)
	for rows.Next() {
		var b Book
		if err := scanBook(rows, &b); err != nil {
			return nil, fmt.Errorf("repository: failed to scan book: %w", err)
		}
		books = append(books, b)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repository: error iterating books: %w", err)
	}

	return books, nil
}

func (r *postgresRepository) Update(ctx context.Context, b *Book) error {
	query := `
		UPDATE books
		SET name = $1, author = $2, description = $3, image_url = $4, price = $5, quantity = $6, updated_at = $7
		WHERE id = $8
	`

	cmdTag, err := r.db.Exec(ctx, query,
		b.Name, b.Author, b.Description, b.ImageURL, b.Price, b.Quantity, time.Now().UTC(), b.ID)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return ErrNameExists
		}
		return fmt.Errorf("repository: failed to update book %s: %w", b.ID, err)
	}

	if cmdTag.RowsAffected() == 0 {
		return ErrNotFound
	}

	return nil
}

func (r *postgresRepository) Delete(ctx context.Context, id uuid.UUID) error {
	cmdTag, err := r.db.Exec(ctx, `DELETE FROM books WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("repository: failed to delete book %s: %w", id, err)
	}

	if cmdTag.RowsAffected() == 0 {
		return ErrNotFound
	}

	return nil
}
