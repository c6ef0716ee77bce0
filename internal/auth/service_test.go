package auth_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vstoleru/storefront/internal/auth"
	"github.com/vstoleru/storefront/internal/user"
)

type mockCodeRepository struct {
	insertCodeFunc  func(ctx context.Context, userID int64, code string) (*auth.Code, error)
	consumeCodeFunc func(ctx context.Context, userID int64, code string, ttl time.Duration) error
}

func (m *mockCodeRepository) InsertCode(ctx context.Context, userID int64, code string) (*auth.Code, error) {
	return m.insertCodeFunc(ctx, userID, code)
}

func (m *mockCodeRepository) ConsumeCode(ctx context.Context, userID int64, code string, ttl time.Duration) error {
	return m.consumeCodeFunc(ctx, userID, code, ttl)
}

type mockUserService struct {
	createUserFunc     func(ctx context.Context, u *user.User) (*user.User, error)
	getUserByEmailFunc func(ctx context.Context, email string) (*user.User, error)
}

func (m *mockUserService) CreateUser(ctx context.Context, u *user.User) (*user.User, error) {
	return m.createUserFunc(ctx, u)
}

func (m *mockUserService) GetUserByID(ctx context.Context, id int64) (*user.User, error) {
	return nil, user.ErrNotFound
}

func (m *mockUserService) GetUserByEmail(ctx context.Context, email string) (*user.User, error) {
	return m.getUserByEmailFunc(ctx, email)
}

func (m *mockUserService) ListUsers(ctx context.Context) ([]user.User, error) {
	return nil, nil
}

type mockNotifier struct {
	sent []string
	err  error
}

func (m *mockNotifier) Send(ctx context.Context, to, subject, text, html string) error {
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, to)
	return nil
}

func knownUser() *user.User {
	return &user.User{ID: 5, Name: "User", Email: "user@example.com", Role: user.RoleUser}
}

func TestAuthService_IssueCode(t *testing.T) {
	tests := []struct {
		name         string
		userErr      error
		notifierErr  error
		wantErrIs    error
		wantPersist  bool
		wantDispatch bool
	}{
		{
			name:         "success",
			wantPersist:  true,
			wantDispatch: true,
		},
		{
			name:      "unknown_email",
			userErr:   user.ErrNotFound,
			wantErrIs: auth.ErrUserNotFound,
		},
		{
			name:        "dispatch_failure_keeps_code_valid",
			notifierErr: errors.New("connection refused"),
			wantErrIs:   auth.ErrDispatchFailed,
			wantPersist: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var persisted string

			mockRepo := &mockCodeRepository{
				insertCodeFunc: func(ctx context.Context, userID int64, code string) (*auth.Code, error) {
					persisted = code
					return &auth.Code{ID: 1, UserID: userID, Code: code, CreatedAt: time.Now()}, nil
				},
			}
			users := &mockUserService{
				getUserByEmailFunc: func(ctx context.Context, email string) (*user.User, error) {
					if tt.userErr != nil {
						return nil, tt.userErr
					}
					return knownUser(), nil
				},
			}
			notifier := &mockNotifier{err: tt.notifierErr}

			svc := auth.NewService(mockRepo, users, notifier, 10*time.Minute)
			err := svc.IssueCode(context.Background(), "user@example.com")

			if tt.wantErrIs != nil {
				assert.ErrorIs(t, err, tt.wantErrIs)
			} else {
				require.NoError(t, err)
			}

			if tt.wantPersist {
				// Код выпущен и шестизначный, даже если доставка упала.
				assert.Len(t, persisted, 6)
			} else {
				assert.Empty(t, persisted)
			}

			if tt.wantDispatch {
				assert.Equal(t, []string{"user@example.com"}, notifier.sent)
			}
		})
	}
}

func TestAuthService_VerifyCode(t *testing.T) {
	tests := []struct {
		name       string
		userErr    error
		consumeErr error
		wantErrIs  error
	}{
		{
			name: "success",
		},
		{
			name:       "wrong_code",
			consumeErr: auth.ErrCodeNotFound,
			wantErrIs:  auth.ErrCodeInvalid,
		},
		{
			name:      "unknown_email",
			userErr:   user.ErrNotFound,
			wantErrIs: auth.ErrUserNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockRepo := &mockCodeRepository{
				consumeCodeFunc: func(ctx context.Context, userID int64, code string, ttl time.Duration) error {
					return tt.consumeErr
				},
			}
			users := &mockUserService{
				getUserByEmailFunc: func(ctx context.Context, email string) (*user.User, error) {
					if tt.userErr != nil {
						return nil, tt.userErr
					}
					return knownUser(), nil
				},
			}

			svc := auth.NewService(mockRepo, users, &mockNotifier{}, 10*time.Minute)
			verified, err := svc.VerifyCode(context.Background(), "user@example.com", "123456")

			if tt.wantErrIs != nil {
				assert.ErrorIs(t, err, tt.wantErrIs)
				assert.Nil(t, verified)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, int64(5), verified.ID)
		})
	}
}

func TestAuthService_VerifyCode_SingleUse(t *testing.T) {
	// Первая проверка гасит код, вторая с тем же кодом проваливается.
	consumed := false

	mockRepo := &mockCodeRepository{
		consumeCodeFunc: func(ctx context.Context, userID int64, code string, ttl time.Duration) error {
			if consumed {
				return auth.ErrCodeNotFound
			}
			consumed = true
			return nil
		},
	}
	users := &mockUserService{
		getUserByEmailFunc: func(ctx context.Context, email string) (*user.User, error) {
			return knownUser(), nil
		},
	}

	svc := auth.NewService(mockRepo, users, &mockNotifier{}, 10*time.Minute)

	_, err := svc.VerifyCode(context.Background(), "user@example.com", "123456")
	require.NoError(t, err)

	_, err = svc.VerifyCode(context.Background(), "user@example.com", "123456")
	assert.ErrorIs(t, err, auth.ErrCodeInvalid)
}

func TestAuthService_Register(t *testing.T) {
	var createdUser *user.User

	mockRepo := &mockCodeRepository{
		insertCodeFunc: func(ctx context.Context, userID int64, code string) (*auth.Code, error) {
			return &auth.Code{ID: 1, UserID: userID, Code: code, CreatedAt: time.Now()}, nil
		},
	}
	users := &mockUserService{
		createUserFunc: func(ctx context.Context, u *user.User) (*user.User, error) {
			u.ID = 9
			createdUser = u
			return u, nil
		},
	}
	notifier := &mockNotifier{}

	svc := auth.NewService(mockRepo, users, notifier, 10*time.Minute)
	created, err := svc.Register(context.Background(), "New User", "new@example.com", "secret1")

	require.NoError(t, err)
	assert.Equal(t, int64(9), created.ID)
	assert.Equal(t, user.RoleUser, createdUser.Role)
	assert.Equal(t, []string{"new@example.com"}, notifier.sent)
}

func TestAuthService_Register_CodePersistFailureKeepsUser(t *testing.T) {
	// Пользователь создан, но код не сохранился: регистрация не
	// откатывается, наружу уходит ErrCodeIssueFailed вместе с пользователем.
	mockRepo := &mockCodeRepository{
		insertCodeFunc: func(ctx context.Context, userID int64, code string) (*auth.Code, error) {
			return nil, errors.New("connection reset")
		},
	}
	users := &mockUserService{
		createUserFunc: func(ctx context.Context, u *user.User) (*user.User, error) {
			u.ID = 9
			return u, nil
		},
	}
	notifier := &mockNotifier{}

	svc := auth.NewService(mockRepo, users, notifier, 10*time.Minute)
	created, err := svc.Register(context.Background(), "New User", "new@example.com", "secret1")

	assert.ErrorIs(t, err, auth.ErrCodeIssueFailed)
	require.NotNil(t, created)
	assert.Equal(t, int64(9), created.ID)
	assert.Empty(t, notifier.sent)
}

func TestAuthService_Register_DuplicateEmail(t *testing.T) {
	users := &mockUserService{
		createUserFunc: func(ctx context.Context, u *user.User) (*user.User, error) {
			return nil, user.ErrEmailExists
		},
	}

	svc := auth.NewService(&mockCodeRepository{}, users, &mockNotifier{}, 10*time.Minute)
	_, err := svc.Register(context.Background(), "New User", "dup@example.com", "secret1")
	assert.ErrorIs(t, err, user.ErrEmailExists)
}

func TestAuthService_Login(t *testing.T) {
	issued := false
	consumed := false

	mockRepo := &mockCodeRepository{
		insertCodeFunc: func(ctx context.Context, userID int64, code string) (*auth.Code, error) {
			issued = true
			return &auth.Code{ID: 1, UserID: userID, Code: code, CreatedAt: time.Now()}, nil
		},
		consumeCodeFunc: func(ctx context.Context, userID int64, code string, ttl time.Duration) error {
			consumed = true
			return nil
		},
	}
	users := &mockUserService{
		getUserByEmailFunc: func(ctx context.Context, email string) (*user.User, error) {
			return knownUser(), nil
		},
	}

	svc := auth.NewService(mockRepo, users, &mockNotifier{}, 10*time.Minute)

	// Без кода — выпуск нового кода, личность ещё не подтверждена.
	identity, err := svc.Login(context.Background(), "user@example.com", "")
	require.NoError(t, err)
	assert.Nil(t, identity)
	assert.True(t, issued)
	assert.False(t, consumed)

	// С кодом — проверка и подтверждённая личность.
	identity, err = svc.Login(context.Background(), "user@example.com", "123456")
	require.NoError(t, err)
	require.NotNil(t, identity)
	assert.Equal(t, int64(5), identity.ID)
	assert.True(t, consumed)
}
