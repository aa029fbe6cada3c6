package address

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gofrs/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrNotFound = errors.New("address not found")

type Repository interface {
	Create(ctx context.Context, a *Address) (uuid.UUID, error)
	ExistsForUser(ctx context.Context, id, userID uuid.UUID) (bool, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]Address, error)
}

type postgresRepository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) Repository {
	return &postgresRepository{db: db}
}

func (r *postgresRepository) Create(ctx context.Context, a *Address) (uuid.UUID, error) {
	id, err := uuid.NewV4()
	if err != nil {
		return uuid.Nil, fmt.Errorf("repository: failed to generate address ID: %w", err)
	}

	now := time.Now().UTC()

	query := `
		INSERT INTO addresses (id, user_id, address, city, state, landmark, pincode, address_type, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	_, err = r.db.Exec(ctx, query,
		id, a.UserID, a.Address, a.City, a.State, a.Landmark, a.Pincode, a.AddressType, now)
	if err != nil {
		return uuid.Nil, fmt.Errorf("repository: failed to insert address: %w", err)
	}

	a.ID = id
	a.CreatedAt = now

	return id, nil
}

func (r *postgresRepository) ExistsForUser(ctx context.Context, id, userID uuid.UUID) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM addresses WHERE id = $1 AND user_id = $2)`, id, userID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("repository: failed to check address %s: %w", id, err)
	}

	return exists, nil
}

func (r *postgresRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]Address, error) {
	query := `
		SELECT id, user_id, address, city, state, landmark, pincode, address_type, created_at
		FROM addresses
		WHERE user_id = $1
		ORDER BY created_at
	`

	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("repository: failed to query addresses for user %s: %w", userID, err)
	}
	defer rows.Close()

	addresses := make([]Address, 0)
	for rows.Next() {
		var a Address
		err := rows.Scan(&a.ID, &a.UserID, &a.Address, &a.City, &a.State, &a.Landmark, &a.Pincode, &a.AddressType, &a.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("repository: failed to scan address: %w", err)
		}
		addresses = append(addresses, a)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repository: error iterating addresses: %w", err)
	}

	return addresses, nil
}
