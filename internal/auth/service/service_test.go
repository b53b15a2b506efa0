package service

import (
	"context"
	"testing"
	"time"

	"clinicportal_backend/internal/auth/password"
	"clinicportal_backend/internal/auth/repository"
	"clinicportal_backend/internal/auth/token"
	"clinicportal_backend/platform/apperr"
	"clinicportal_backend/platform/httpkit"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

type fakeStore struct {
	users         map[uuid.UUID]repository.User
	roles         map[uuid.UUID][]string
	refreshTokens map[string]struct {
		userID    uuid.UUID
		expiresAt time.Time
	}
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		users: make(map[uuid.UUID]repository.User),
		roles: make(map[uuid.UUID][]string),
		refreshTokens: make(map[string]struct {
			userID    uuid.UUID
			expiresAt time.Time
		}),
	}
}

func (f *fakeStore) addUser(t *testing.T, clinicID uuid.UUID, email, plain string, roles []string) repository.User {
	t.Helper()
	hash, err := password.Hash(plain)
	if err != nil {
		t.Fatal(err)
	}
	user := repository.User{ID: uuid.New(), ClinicID: clinicID, Email: email, PasswordHash: hash}
	f.users[user.ID] = user
	f.roles[user.ID] = roles
	return user
}

func (f *fakeStore) CreateUser(_ context.Context, clinicID uuid.UUID, email, passwordHash string) (repository.User, error) {
	user := repository.User{ID: uuid.New(), ClinicID: clinicID, Email: email, PasswordHash: passwordHash}
	f.users[user.ID] = user
	return user, nil
}

func (f *fakeStore) GetUserByEmail(_ context.Context, email string) (repository.User, error) {
	for _, u := range f.users {
		if u.Email == email {
			return u, nil
		}
	}
	return repository.User{}, repository.ErrNotFound
}

func (f *fakeStore) GetUserByID(_ context.Context, id uuid.UUID) (repository.User, error) {
	u, ok := f.users[id]
	if !ok {
		return repository.User{}, repository.ErrNotFound
	}
	return u, nil
}

func (f *fakeStore) SetUserRoles(_ context.Context, userID uuid.UUID, roles []string) error {
	f.roles[userID] = roles
	return nil
}

func (f *fakeStore) GetUserRoles(_ context.Context, userID uuid.UUID) ([]string, error) {
	return f.roles[userID], nil
}

func (f *fakeStore) CreateRefreshToken(_ context.Context, userID uuid.UUID, tokenHash string, expiresAt time.Time) error {
	f.refreshTokens[tokenHash] = struct {
		userID    uuid.UUID
		expiresAt time.Time
	}{userID, expiresAt}
	return nil
}

func (f *fakeStore) GetRefreshToken(_ context.Context, tokenHash string) (uuid.UUID, time.Time, error) {
	entry, ok := f.refreshTokens[tokenHash]
	if !ok {
		return uuid.Nil, time.Time{}, repository.ErrNotFound
	}
	return entry.userID, entry.expiresAt, nil
}

func (f *fakeStore) RevokeRefreshToken(_ context.Context, tokenHash string) error {
	delete(f.refreshTokens, tokenHash)
	return nil
}

func (f *fakeStore) RevokeAllRefreshTokens(_ context.Context, userID uuid.UUID) error {
	for hash, entry := range f.refreshTokens {
		if entry.userID == userID {
			delete(f.refreshTokens, hash)
		}
	}
	return nil
}

type testConfig struct{}

func (testConfig) GetJWTAccessSecret() string        { return "test-secret" }
func (testConfig) GetAccessTokenTTL() time.Duration  { return 15 * time.Minute }
func (testConfig) GetRefreshTokenTTL() time.Duration { return 24 * time.Hour }

func TestSignInIssuesClaimsForClinic(t *testing.T) {
	store := newFakeStore()
	clinicID := uuid.New()
	user := store.addUser(t, clinicID, "dr@clinic.example", "correct horse battery", []string{"staff"})

	svc := New(store, testConfig{})

	pair, err := svc.SignIn(context.Background(), "dr@clinic.example", "correct horse battery")
	if err != nil {
		t.Fatalf("sign in failed: %v", err)
	}
	if pair.AccessToken == "" || pair.RefreshToken == "" {
		t.Fatal("both tokens must be issued")
	}

	claims := &httpkit.AccessClaims{}
	parsed, err := jwt.ParseWithClaims(pair.AccessToken, claims, func(t *jwt.Token) (interface{}, error) {
		return []byte("test-secret"), nil
	})
	if err != nil || !parsed.Valid {
		t.Fatalf("access token does not parse: %v", err)
	}
	if claims.ClinicID != clinicID.String() {
		t.Fatalf("claims carry clinic %s, want %s", claims.ClinicID, clinicID)
	}
	if claims.Subject != user.ID.String() {
		t.Fatalf("claims carry subject %s, want %s", claims.Subject, user.ID)
	}
	if len(claims.Roles) != 1 || claims.Roles[0] != "staff" {
		t.Fatalf("unexpected roles: %v", claims.Roles)
	}
}

func TestSignInRejectsWrongPassword(t *testing.T) {
	store := newFakeStore()
	store.addUser(t, uuid.New(), "dr@clinic.example", "right password!", []string{"staff"})

	svc := New(store, testConfig{})

	_, err := svc.SignIn(context.Background(), "dr@clinic.example", "wrong password!")
	if !apperr.Is(err, apperr.KindUnauthorized) {
		t.Fatalf("expected unauthorized, got %v", err)
	}

	_, err = svc.SignIn(context.Background(), "nobody@clinic.example", "right password!")
	if !apperr.Is(err, apperr.KindUnauthorized) {
		t.Fatalf("unknown email must look identical, got %v", err)
	}
}

func TestRefreshRotatesToken(t *testing.T) {
	store := newFakeStore()
	store.addUser(t, uuid.New(), "dr@clinic.example", "correct horse battery", []string{"staff"})

	svc := New(store, testConfig{})

	pair, err := svc.SignIn(context.Background(), "dr@clinic.example", "correct horse battery")
	if err != nil {
		t.Fatal(err)
	}

	next, err := svc.Refresh(context.Background(), pair.RefreshToken)
	if err != nil {
		t.Fatalf("refresh failed: %v", err)
	}
	if next.RefreshToken == pair.RefreshToken {
		t.Fatal("refresh must rotate the token")
	}

	// The old token is revoked.
	if _, err := svc.Refresh(context.Background(), pair.RefreshToken); !apperr.Is(err, apperr.KindUnauthorized) {
		t.Fatalf("reused refresh token must be rejected, got %v", err)
	}
}

func TestRefreshRejectsExpiredToken(t *testing.T) {
	store := newFakeStore()
	user := store.addUser(t, uuid.New(), "dr@clinic.example", "correct horse battery", []string{"staff"})

	raw, err := token.GenerateOpaque(48)
	if err != nil {
		t.Fatal(err)
	}
	if err := store.CreateRefreshToken(context.Background(), user.ID, token.Hash(raw), time.Now().Add(-time.Minute)); err != nil {
		t.Fatal(err)
	}

	svc := New(store, testConfig{})

	if _, err := svc.Refresh(context.Background(), raw); !apperr.Is(err, apperr.KindUnauthorized) {
		t.Fatalf("expected unauthorized for expired token, got %v", err)
	}
	if len(store.refreshTokens) != 0 {
		t.Fatal("expired token must be revoked on use")
	}
}
