package user

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gofrs/uuid"
	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"
)

var ErrInvalidCredentials = errors.New("invalid credentials")

// TokenIssuer issues signed bearer tokens. Reset tokens are mailed out, so
// they carry a much shorter lifetime than login tokens.
type TokenIssuer interface {
	IssueToken(userID uuid.UUID, role string) (string, error)
	IssueResetToken(userID uuid.UUID, role string) (string, error)
}

// ResetNotifier schedules a password-reset message. Delivery is best-effort.
type ResetNotifier interface {
	SchedulePasswordReset(ctx context.Context, email, token string, delay time.Duration) error
}

type Service interface {
	Register(ctx context.Context, u *User, password string) (*User, error)
	Login(ctx context.Context, email, password string) (string, *User, error)
	GetByID(ctx context.Context, id uuid.UUID) (*User, error)
	RequestPasswordReset(ctx context.Context, email string) error
	ResetPassword(ctx context.Context, id uuid.UUID, newPassword string) error
}

type service struct {
	repo        Repository
	tokens      TokenIssuer
	notifier    ResetNotifier
	notifyDelay time.Duration
}

func NewService(repo Repository, tokens TokenIssuer, notifier ResetNotifier, notifyDelay time.Duration) Service {
	return &service{
		repo:        repo,
		tokens:      tokens,
		notifier:    notifier,
		notifyDelay: notifyDelay,
	}
}

func (s *service) Register(ctx context.Context, u *User, password string) (*User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		log.Error().Err(err).Msg("service: failed to hash password")
		return nil, fmt.Errorf("service: failed to hash password: %w", err)
	}
	u.PasswordHash = string(hash)

	if _, err := s.repo.Create(ctx, u); err != nil {
		if errors.Is(err, ErrEmailExists) {
			return nil, ErrEmailExists
		}
		log.Error().Err(err).Msg("service: failed to create user in repository")
		return nil, fmt.Errorf("service: failed to create user: %w", err)
	}

	log.Info().Stringer("user_id", u.ID).Str("role", u.Role).Msg("service: user registered")
	return u, nil
}

func (s *service) Login(ctx context.Context, email, password string) (string, *User, error) {
	u, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return "", nil, ErrInvalidCredentials
		}
		log.Error().Err(err).Msg("service: failed to fetch user by email")
		return "", nil, fmt.Errorf("service: failed to fetch user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return "", nil, ErrInvalidCredentials
	}

	token, err := s.tokens.IssueToken(u.ID, u.Role)
	if err != nil {
		log.Error().Err(err).Stringer("user_id", u.ID).Msg("service: failed to issue token")
		return "", nil, fmt.Errorf("service: failed to issue token: %w", err)
	}

	log.Info().Stringer("user_id", u.ID).Msg("service: user logged in")
	return token, u, nil
}

func (s *service) GetByID(ctx context.Context, id uuid.UUID) (*User, error) {
	u, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("service: failed to fetch user by id: %w", err)
	}
	return u, nil
}

func (s *service) RequestPasswordReset(ctx context.Context, email string) error {
	u, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return ErrNotFound
		}
		log.Error().Err(err).Msg("service: failed to fetch user for password reset")
		return fmt.Errorf("service: failed to fetch user: %w", err)
	}

	token, err := s.tokens.IssueResetToken(u.ID, u.Role)
	if err != nil {
		log.Error().Err(err).Stringer("user_id", u.ID).Msg("service: failed to issue reset token")
		return fmt.Errorf("service: failed to issue reset token: %w", err)
	}

	if err := s.notifier.SchedulePasswordReset(ctx, u.Email, token, s.notifyDelay); err != nil {
		log.Error().Err(err).Stringer("user_id", u.ID).Msg("service: failed to schedule password reset notification")
		return fmt.Errorf("service: failed to schedule password reset: %w", err)
	}

	log.Info().Stringer("user_id", u.ID).Msg("service: password reset scheduled")
	return nil
}

func (s *service) ResetPassword(ctx context.Context, id uuid.UUID, newPassword string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		log.Error().Err(err).Msg("service: failed to hash new password")
		return fmt.Errorf("service: failed to hash new password: %w", err)
	}

	if err := s.repo.UpdatePassword(ctx, id, string(hash)); err != nil {
		if errors.Is(err, ErrNotFound) {
			return ErrNotFound
		}
		log.Error().Err(err).Stringer("user_id", id).Msg("service: failed to update password")
		return fmt.Errorf("service: failed to update password: %w", err)
	}

	log.Info().Stringer("user_id", id).Msg("service: password reset")
	return nil
}
