package auth

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/zellow-enterprises/zellow/internal/shared"
)

type memoryRepo struct {
	byEmail map[string]*User
	byID    map[int64]*User
	nextID  int64
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{
		byEmail: make(map[string]*User),
		byID:    make(map[int64]*User),
		nextID:  1,
	}
}

func (r *memoryRepo) FindByEmail(ctx context.Context, email string) (*User, error) {
	if u, ok := r.byEmail[email]; ok {
		cp := *u
		return &cp, nil
	}
	return nil, shared.ErrNotFound
}

func (r *memoryRepo) FindByID(ctx context.Context, id int64) (*User, error) {
	if u, ok := r.byID[id]; ok {
		cp := *u
		return &cp, nil
	}
	return nil, shared.ErrNotFound
}

func (r *memoryRepo) Create(ctx context.Context, user User) (int64, error) {
	if _, ok := r.byEmail[user.Email]; ok {
		return 0, ErrEmailTaken
	}
	user.ID = r.nextID
	user.IsActive = true
	r.nextID++
	r.byEmail[user.Email] = &user
	r.byID[user.ID] = &user
	return user.ID, nil
}

func (r *memoryRepo) add(t *testing.T, email, password, role string, active bool) *User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	u := &User{
		ID:           r.nextID,
		Email:        email,
		Name:         "Test User",
		PasswordHash: string(hash),
		Role:         role,
		IsActive:     active,
	}
	r.nextID++
	r.byEmail[email] = u
	r.byID[u.ID] = u
	return u
}

func TestAuthenticate(t *testing.T) {
	repo := newMemoryRepo()
	repo.add(t, "ops@zellow.test", "s3cretpass", RoleManager, true)
	svc := NewService(repo)
	ctx := context.Background()

	user, err := svc.Authenticate(ctx, "ops@zellow.test", "s3cretpass")
	require.NoError(t, err)
	require.Equal(t, RoleManager, user.Role)

	// email is folded and trimmed before lookup
	user, err = svc.Authenticate(ctx, "  OPS@Zellow.Test ", "s3cretpass")
	require.NoError(t, err)
	require.Equal(t, "ops@zellow.test", user.Email)
}

func TestAuthenticateRejects(t *testing.T) {
	repo := newMemoryRepo()
	repo.add(t, "ops@zellow.test", "s3cretpass", RoleManager, true)
	repo.add(t, "gone@zellow.test", "s3cretpass", RoleStaff, false)
	svc := NewService(repo)
	ctx := context.Background()

	_, err := svc.Authenticate(ctx, "ops@zellow.test", "wrongpass")
	require.ErrorIs(t, err, shared.ErrInvalidCredentials)

	_, err = svc.Authenticate(ctx, "nobody@zellow.test", "s3cretpass")
	require.ErrorIs(t, err, shared.ErrInvalidCredentials)

	_, err = svc.Authenticate(ctx, "gone@zellow.test", "s3cretpass")
	require.ErrorIs(t, err, shared.ErrInvalidCredentials)
}

func TestRegister(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo)
	ctx := context.Background()

	user, err := svc.Register(ctx, RegisterInput{
		Email:    "  New@Zellow.Test ",
		Name:     " New Hire ",
		Password: "longenough",
		Role:     RoleTechnician,
	})
	require.NoError(t, err)
	require.Equal(t, "new@zellow.test", user.Email)
	require.Equal(t, "New Hire", user.Name)
	require.Equal(t, RoleTechnician, user.Role)
	require.True(t, user.IsActive)
	require.NoError(t, bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte("longenough")))

	_, err = svc.Authenticate(ctx, "new@zellow.test", "longenough")
	require.NoError(t, err)
}

func TestRegisterDefaultsUnknownRole(t *testing.T) {
	svc := NewService(newMemoryRepo())

	user, err := svc.Register(context.Background(), RegisterInput{
		Email:    "x@zellow.test",
		Password: "longenough",
		Role:     "superuser",
	})
	require.NoError(t, err)
	require.Equal(t, RoleStaff, user.Role)
}

func TestRegisterWeakPassword(t *testing.T) {
	svc := NewService(newMemoryRepo())

	_, err := svc.Register(context.Background(), RegisterInput{
		Email:    "x@zellow.test",
		Password: "short",
	})
	require.ErrorIs(t, err, ErrWeakPassword)
}

func TestRegisterDuplicateEmail(t *testing.T) {
	repo := newMemoryRepo()
	repo.add(t, "taken@zellow.test", "s3cretpass", RoleStaff, true)
	svc := NewService(repo)

	_, err := svc.Register(context.Background(), RegisterInput{
		Email:    "taken@zellow.test",
		Password: "longenough",
	})
	require.ErrorIs(t, err, ErrEmailTaken)
}

func TestTokenRoundTrip(t *testing.T) {
	cfg := TokenConfig{Secret: "test-secret", Issuer: "zellow", TTL: time.Hour}
	user := &User{ID: 42, Email: "ops@zellow.test", Role: RoleAdmin}

	signed, err := MintToken(cfg, time.Now(), user)
	require.NoError(t, err)

	claims, err := ParseToken(cfg, signed)
	require.NoError(t, err)
	require.Equal(t, int64(42), claims.UserID)
	require.Equal(t, "ops@zellow.test", claims.Email)
	require.Equal(t, RoleAdmin, claims.Role)
	require.Equal(t, "zellow", claims.Issuer)
	require.NotEmpty(t, claims.ID)
}

func TestParseTokenRejectsWrongSecret(t *testing.T) {
	cfg := TokenConfig{Secret: "test-secret", Issuer: "zellow", TTL: time.Hour}
	signed, err := MintToken(cfg, time.Now(), &User{ID: 1, Role: RoleStaff})
	require.NoError(t, err)

	_, err = ParseToken(TokenConfig{Secret: "other-secret", Issuer: "zellow"}, signed)
	require.Error(t, err)
}

func TestParseTokenRejectsExpired(t *testing.T) {
	cfg := TokenConfig{Secret: "test-secret", Issuer: "zellow", TTL: time.Hour}
	signed, err := MintToken(cfg, time.Now().Add(-2*time.Hour), &User{ID: 1, Role: RoleStaff})
	require.NoError(t, err)

	_, err = ParseToken(cfg, signed)
	require.Error(t, err)
}

func TestParseTokenRejectsWrongIssuer(t *testing.T) {
	cfg := TokenConfig{Secret: "test-secret", Issuer: "someone-else", TTL: time.Hour}
	signed, err := MintToken(cfg, time.Now(), &User{ID: 1, Role: RoleStaff})
	require.NoError(t, err)

	_, err = ParseToken(TokenConfig{Secret: "test-secret", Issuer: "zellow"}, signed)
	require.Error(t, err)
}

func TestMintTokenRequiresConfig(t *testing.T) {
	user := &User{ID: 1, Role: RoleStaff}

	_, err := MintToken(TokenConfig{Issuer: "zellow", TTL: time.Hour}, time.Now(), user)
	require.Error(t, err)

	_, err = MintToken(TokenConfig{Secret: "x", Issuer: "zellow"}, time.Now(), user)
	require.Error(t, err)
}
