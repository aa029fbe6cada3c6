package user_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/gofrs/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/mkuznetsov/bookstore-api/internal/user"
)

type mockRepository struct {
	createFunc         func(ctx context.Context, u *user.User) (uuid.UUID, error)
	getByIDFunc        func(ctx context.Context, id uuid.UUID) (*user.User, error)
	getByEmailFunc     func(ctx context.Context, email string) (*user.User, error)
	updatePasswordFunc func(ctx context.Context, id uuid.UUID, passwordHash string) error
}

func (m *mockRepository) Create(ctx context.Context, u *user.User) (uuid.UUID, error) {
	return m.createFunc(ctx, u)
}

func (m *mockRepository) GetByID(ctx context.Context, id uuid.UUID) (*user.User, error) {
	return m.getByIDFunc(ctx, id)
}

func (m *mockRepository) GetByEmail(ctx context.Context, email string) (*user.User, error) {
	return m.getByEmailFunc(ctx, email)
}

func (m *mockRepository) UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash string) error {
	return m.updatePasswordFunc(ctx, id, passwordHash)
}

type mockTokenIssuer struct {
	token      string
	resetToken string
	err        error
}

func (m *mockTokenIssuer) IssueToken(uuid.UUID, string) (string, error) {
	return m.token, m.err
}

func (m *mockTokenIssuer) IssueResetToken(uuid.UUID, string) (string, error) {
	return m.resetToken, m.err
}

type mockResetNotifier struct {
	email string
	token string
	err   error
}

func (m *mockResetNotifier) SchedulePasswordReset(_ context.Context, email, token string, _ time.Duration) error {
	if m.err != nil {
		return m.err
	}
	m.email = email
	m.token = token
	return nil
}

func TestUserService_Register_HashesPassword(t *testing.T) {
	var created *user.User
	repo := &mockRepository{
		createFunc: func(_ context.Context, u *user.User) (uuid.UUID, error) {
			created = u
			u.ID = uuid.Must(uuid.NewV4())
			return u.ID, nil
		},
	}
	svc := user.NewService(repo, &mockTokenIssuer{}, &mockResetNotifier{}, time.Second)

	registered, err := svc.Register(context.Background(), &user.User{
		FirstName: "Alice",
		LastName:  "Reader",
		Email:     "alice@example.com",
		Role:      user.RoleUser,
	}, "s3cret-pass")

	require.NoError(t, err)
	require.NotNil(t, created)
	assert.NotEqual(t, "s3cret-pass", created.PasswordHash, "password must be stored hashed")
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(created.PasswordHash), []byte("s3cret-pass")))
	assert.Equal(t, created.ID, registered.ID)
}

func TestUserService_Register_DuplicateEmail(t *testing.T) {
	repo := &mockRepository{
		createFunc: func(context.Context, *user.User) (uuid.UUID, error) {
			return uuid.Nil, user.ErrEmailExists
		},
	}
	svc := user.NewService(repo, &mockTokenIssuer{}, &mockResetNotifier{}, time.Second)

	_, err := svc.Register(context.Background(), &user.User{Email: "dup@example.com"}, "pw")
	assert.ErrorIs(t, err, user.ErrEmailExists)
}

func TestUserService_Login(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("correct-pass"), bcrypt.MinCost)
	require.NoError(t, err)

	stored := &user.User{
		ID:           uuid.Must(uuid.NewV4()),
		Email:        "alice@example.com",
		Role:         user.RoleUser,
		PasswordHash: string(hash),
	}

	tests := []struct {
		name      string
		email     string
		password  string
		issuerErr error
		wantErr   error
		wantToken string
	}{
		{name: "ok", email: "alice@example.com", password: "correct-pass", wantToken: "signed-token"},
		{name: "wrong_password", email: "alice@example.com", password: "nope", wantErr: user.ErrInvalidCredentials},
		{name: "unknown_email", email: "nobody@example.com", password: "correct-pass", wantErr: user.ErrInvalidCredentials},
		{name: "issuer_failure", email: "alice@example.com", password: "correct-pass", issuerErr: errors.New("hs256: bad key"), wantErr: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := &mockRepository{
				getByEmailFunc: func(_ context.Context, email string) (*user.User, error) {
					if email != stored.Email {
						return nil, user.ErrNotFound
					}
					return stored, nil
				},
			}
			issuer := &mockTokenIssuer{token: "signed-token", err: tt.issuerErr}
			svc := user.NewService(repo, issuer, &mockResetNotifier{}, time.Second)

			token, u, err := svc.Login(context.Background(), tt.email, tt.password)

			switch {
			case tt.wantErr != nil:
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Empty(t, token)
			case tt.issuerErr != nil:
				require.Error(t, err)
				assert.NotErrorIs(t, err, user.ErrInvalidCredentials)
			default:
				require.NoError(t, err)
				assert.Equal(t, tt.wantToken, token)
				assert.Equal(t, stored.ID, u.ID)
			}
		})
	}
}

func TestUserService_RequestPasswordReset(t *testing.T) {
	stored := &user.User{
		ID:    uuid.Must(uuid.NewV4()),
		Email: "alice@example.com",
		Role:  user.RoleUser,
	}
	repo := &mockRepository{
		getByEmailFunc: func(_ context.Context, email string) (*user.User, error) {
			if email != stored.Email {
				return nil, user.ErrNotFound
			}
			return stored, nil
		},
	}
	notifier := &mockResetNotifier{}
	issuer := &mockTokenIssuer{token: "login-token", resetToken: "reset-token"}
	svc := user.NewService(repo, issuer, notifier, time.Second)

	require.NoError(t, svc.RequestPasswordReset(context.Background(), "alice@example.com"))
	assert.Equal(t, "alice@example.com", notifier.email)
	assert.Equal(t, "reset-token", notifier.token, "the mailed token must be the short-lived reset one")

	err := svc.RequestPasswordReset(context.Background(), "nobody@example.com")
	assert.ErrorIs(t, err, user.ErrNotFound)
}

func TestUserService_ResetPassword(t *testing.T) {
	id := uuid.Must(uuid.NewV4())

	var storedHash string
	repo := &mockRepository{
		updatePasswordFunc: func(_ context.Context, got uuid.UUID, passwordHash string) error {
			if got != id {
				return user.ErrNotFound
			}
			storedHash = passwordHash
			return nil
		},
	}
	svc := user.NewService(repo, &mockTokenIssuer{}, &mockResetNotifier{}, time.Second)

	require.NoError(t, svc.ResetPassword(context.Background(), id, "new-pass"))
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(storedHash), []byte("new-pass")))

	err := svc.ResetPassword(context.Background(), uuid.Must(uuid.NewV4()), "new-pass")
	assert.ErrorIs(t, err, user.ErrNotFound)
}
