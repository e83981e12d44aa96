package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/sepehrad/unienroll/internal/app/models"
	"github.com/sepehrad/unienroll/internal/app/models/dto"
	"github.com/sepehrad/unienroll/internal/pkg/apperrors"
	"github.com/sepehrad/unienroll/internal/pkg/auth"
)

// fakeUserStore is an in-memory UserStore.
type fakeUserStore struct {
	nextID int64
	users  map[string]*models.User
}

func newFakeUserStore() *fakeUserStore {
	return &fakeUserStore{nextID: 1, users: make(map[string]*models.User)}
}

func (f *fakeUserStore) Create(_ context.Context, user *models.User) error {
	if _, ok := f.users[user.Email]; ok {
		return apperrors.ErrEmailAlreadyExists
	}
	user.ID = f.nextID
	f.nextID++
	f.users[user.Email] = user
	return nil
}

func (f *fakeUserStore) GetByEmail(_ context.Context, email string) (*models.User, error) {
	u, ok := f.users[email]
	if !ok {
		return nil, apperrors.ErrUserNotFound
	}
	return u, nil
}

func (f *fakeUserStore) GetByID(_ context.Context, id int64) (*models.User, error) {
	for _, u := range f.users {
		if u.ID == id {
			return u, nil
		}
	}
	return nil, apperrors.ErrUserNotFound
}

func (f *fakeUserStore) EmailExists(_ context.Context, email string) (bool, error) {
	_, ok := f.users[email]
	return ok, nil
}

func newAuthFixture(t *testing.T) (*AuthService, *fakeUserStore, *fakeTokenStore) {
	t.Helper()
	users := newFakeUserStore()
	tokens := newFakeTokenStore()
	jwtService := auth.NewJWTService(auth.JWTConfig{
		SecretKey:       "test-secret",
		AccessTokenExp:  time.Hour,
		RefreshTokenExp: 24 * time.Hour,
		TokenIssuer:     "unienroll.test",
	})
	sessions := NewSessionService(tokens, zerolog.Nop())
	return NewAuthService(users, sessions, jwtService, zerolog.Nop()), users, tokens
}

func registerStudent(t *testing.T, svc *AuthService, email, password string) *models.User {
	t.Helper()
	user, err := svc.Register(context.Background(), &dto.RegisterRequest{
		Email:     email,
		Password:  password,
		FirstName: "Sara",
		LastName:  "Moradi",
		RoleType:  string(models.RoleStudent),
	})
	if err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	return user
}

func TestRegisterHashesPassword(t *testing.T) {
	svc, users, _ := newAuthFixture(t)

	registerStudent(t, svc, "sara@example.edu", "correct-horse-9")

	stored := users.users["sara@example.edu"]
	if stored.Password == "correct-horse-9" {
		t.Fatal("password stored in plain text")
	}
	if !auth.CheckPassword(stored.Password, "correct-horse-9") {
		t.Error("stored hash does not verify")
	}
}

func TestRegisterInvalidRole(t *testing.T) {
	svc, _, _ := newAuthFixture(t)

	_, err := svc.Register(context.Background(), &dto.RegisterRequest{
		Email: "x@example.edu", Password: "password-123",
		FirstName: "X", LastName: "Y", RoleType: "SUPERUSER",
	})
	if !errors.Is(err, apperrors.ErrBadRequest) {
		t.Fatalf("Register() error = %v, want ErrBadRequest", err)
	}
}

func TestLoginIssuesSessionBackedPair(t *testing.T) {
	svc, _, tokens := newAuthFixture(t)
	registerStudent(t, svc, "sara@example.edu", "correct-horse-9")

	pair, err := svc.Login(context.Background(), &dto.LoginRequest{
		Email: "sara@example.edu", Password: "correct-horse-9",
	})
	if err != nil {
		t.Fatalf("Login() error = %v", err)
	}
	if pair.AccessToken == "" || pair.RefreshToken == "" {
		t.Fatal("Login() returned empty tokens")
	}

	ctx := context.Background()
	access, _ := tokens.ListByUser(ctx, 1, models.TokenAccess)
	refresh, _ := tokens.ListByUser(ctx, 1, models.TokenRefresh)
	if len(access) != 1 || len(refresh) != 1 {
		t.Errorf("session rows: access = %d, refresh = %d, want 1 and 1", len(access), len(refresh))
	}
}

func TestLoginWrongPassword(t *testing.T) {
	svc, _, _ := newAuthFixture(t)
	registerStudent(t, svc, "sara@example.edu", "correct-horse-9")

	_, err := svc.Login(context.Background(), &dto.LoginRequest{
		Email: "sara@example.edu", Password: "wrong",
	})
	if !errors.Is(err, apperrors.ErrInvalidCredentials) {
		t.Fatalf("Login() error = %v, want ErrInvalidCredentials", err)
	}
}

// An unknown email reports the same error as a wrong password.
func TestLoginUnknownEmail(t *testing.T) {
	svc, _, _ := newAuthFixture(t)

	_, err := svc.Login(context.Background(), &dto.LoginRequest{
		Email: "ghost@example.edu", Password: "whatever",
	})
	if !errors.Is(err, apperrors.ErrInvalidCredentials) {
		t.Fatalf("Login() error = %v, want ErrInvalidCredentials", err)
	}
}

func TestLoginDisabledAccount(t *testing.T) {
	svc, users, _ := newAuthFixture(t)
	registerStudent(t, svc, "sara@example.edu", "correct-horse-9")
	users.users["sara@example.edu"].IsActive = false

	_, err := svc.Login(context.Background(), &dto.LoginRequest{
		Email: "sara@example.edu", Password: "correct-horse-9",
	})
	if !errors.Is(err, apperrors.ErrAccountDisabled) {
		t.Fatalf("Login() error = %v, want ErrAccountDisabled", err)
	}
}

// A third login evicts the student's first session pair.
func TestLoginEvictsOldestSession(t *testing.T) {
	svc, _, tokens := newAuthFixture(t)
	registerStudent(t, svc, "sara@example.edu", "correct-horse-9")
	ctx := context.Background()

	req := &dto.LoginRequest{Email: "sara@example.edu", Password: "correct-horse-9"}
	first, err := svc.Login(ctx, req)
	if err != nil {
		t.Fatalf("Login() error = %v", err)
	}
	for i := 0; i < 2; i++ {
		if _, err := svc.Login(ctx, req); err != nil {
			t.Fatalf("Login() error = %v", err)
		}
	}

	if _, err := tokens.GetByTokenID(ctx, first.RefreshToken, models.TokenRefresh); !errors.Is(err, apperrors.ErrTokenNotFound) {
		t.Errorf("first refresh token lookup error = %v, want ErrTokenNotFound", err)
	}
	access, _ := tokens.ListByUser(ctx, 1, models.TokenAccess)
	if len(access) != 2 {
		t.Errorf("access session rows = %d, want 2", len(access))
	}
}

func TestRefreshRotatesToken(t *testing.T) {
	svc, _, tokens := newAuthFixture(t)
	registerStudent(t, svc, "sara@example.edu", "correct-horse-9")
	ctx := context.Background()

	pair, err := svc.Login(ctx, &dto.LoginRequest{Email: "sara@example.edu", Password: "correct-horse-9"})
	if err != nil {
		t.Fatalf("Login() error = %v", err)
	}

	rotated, err := svc.Refresh(ctx, &dto.RefreshRequest{RefreshToken: pair.RefreshToken})
	if err != nil {
		t.Fatalf("Refresh() error = %v", err)
	}
	if rotated.RefreshToken == pair.RefreshToken {
		t.Error("refresh token was not rotated")
	}

	// The presented token is dead after rotation
	if _, err := svc.Refresh(ctx, &dto.RefreshRequest{RefreshToken: pair.RefreshToken}); !errors.Is(err, apperrors.ErrTokenInvalid) {
		t.Errorf("replayed Refresh() error = %v, want ErrTokenInvalid", err)
	}

	if live, _ := tokens.IsLive(ctx, rotated.RefreshToken, models.TokenRefresh); !live {
		t.Error("rotated refresh token should be live")
	}
}

func TestRefreshUnknownToken(t *testing.T) {
	svc, _, _ := newAuthFixture(t)

	_, err := svc.Refresh(context.Background(), &dto.RefreshRequest{RefreshToken: "nope"})
	if !errors.Is(err, apperrors.ErrTokenInvalid) {
		t.Fatalf("Refresh() error = %v, want ErrTokenInvalid", err)
	}
}

func TestLogoutRevokesEverything(t *testing.T) {
	svc, _, tokens := newAuthFixture(t)
	user := registerStudent(t, svc, "sara@example.edu", "correct-horse-9")
	ctx := context.Background()

	pair, err := svc.Login(ctx, &dto.LoginRequest{Email: "sara@example.edu", Password: "correct-horse-9"})
	if err != nil {
		t.Fatalf("Login() error = %v", err)
	}

	if err := svc.Logout(ctx, user.ID); err != nil {
		t.Fatalf("Logout() error = %v", err)
	}

	if live, _ := tokens.IsLive(ctx, pair.RefreshToken, models.TokenRefresh); live {
		t.Error("refresh token should be revoked after logout")
	}
	access, _ := tokens.ListByUser(ctx, user.ID, models.TokenAccess)
	if len(access) != 0 {
		t.Errorf("access session rows after logout = %d, want 0", len(access))
	}
}
