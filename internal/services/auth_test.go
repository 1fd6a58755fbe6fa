package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"goa.design/goa/v3/security"

	"lumenai/internal/domain"
	"lumenai/internal/util"
	apperrors "lumenai/pkg/errors"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func newTestAuthService(t *testing.T) (*AuthService, *clock) {
	t.Helper()
	c := newClock()
	s := NewAuthService(newTestDB(t), util.NewTokenManager(testSecret, time.Hour))
	s.now = c.Now
	return s, c
}

func createAdmin(t *testing.T, s *AuthService, email string, role domain.AdminRole) *domain.AdminUser {
	t.Helper()
	user, err := s.CreateAdmin(context.Background(), AdminInput{
		Email:     email,
		Password:  "correct-horse",
		FirstName: "Dana",
		LastName:  "Admin",
		Role:      role,
	})
	require.NoError(t, err)
	return user
}

func TestLoginSuccess(t *testing.T) {
	ctx := context.Background()
	s, clk := newTestAuthService(t)
	created := createAdmin(t, s, "Dana@Lumen.example", domain.RoleAdmin)
	assert.Equal(t, "dana@lumen.example", created.Email)

	res, err := s.Login(ctx, "  DANA@lumen.example ", "correct-horse")
	require.NoError(t, err)
	assert.Equal(t, "bearer", res.TokenType)
	assert.NotEmpty(t, res.AccessToken)
	assert.Equal(t, created.ID, res.User.ID)
	require.NotNil(t, res.User.LastLogin)
	assert.True(t, res.User.LastLogin.Equal(clk.Now()))

	authed, err := s.JWTAuth(ctx, res.AccessToken, &security.JWTScheme{RequiredScopes: []string{ScopeAdmin}})
	require.NoError(t, err)
	claims, ok := ClaimsFromContext(authed)
	require.True(t, ok)
	assert.Equal(t, "dana@lumen.example", claims.Email)
	assert.Equal(t, "admin", claims.Role)

	me, err := s.Me(authed)
	require.NoError(t, err)
	assert.Equal(t, created.ID, me.ID)
	assert.Equal(t, "Dana Admin", me.FullName())
}

func TestLoginFailuresAreGeneric(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestAuthService(t)
	user := createAdmin(t, s, "dana@lumen.example", domain.RoleAdmin)

	_, err := s.Login(ctx, "nobody@lumen.example", "correct-horse")
	unknown := requireCode(t, err, apperrors.ErrCodeUnauthorized)

	_, err = s.Login(ctx, "dana@lumen.example", "wrong-horse")
	wrong := requireCode(t, err, apperrors.ErrCodeUnauthorized)

	require.NoError(t, s.db.Model(user).Update("is_active", false).Error)
	_, err = s.Login(ctx, "dana@lumen.example", "correct-horse")
	inactive := requireCode(t, err, apperrors.ErrCodeUnauthorized)

	assert.Equal(t, unknown.Message, wrong.Message)
	assert.Equal(t, unknown.Message, inactive.Message)
}

func TestJWTAuthRejectsBadTokens(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestAuthService(t)
	scheme := &security.JWTScheme{RequiredScopes: []string{ScopeAdmin}}

	foreign, _, err := util.NewTokenManager("ffffffffffffffffffffffffffffffff", time.Hour).GenerateToken(1, "a@b.co", "admin")
	require.NoError(t, err)
	expired, _, err := util.NewTokenManager(testSecret, -time.Minute).GenerateToken(1, "a@b.co", "admin")
	require.NoError(t, err)

	tests := []struct {
		name  string
		token string
		want  string
	}{
		{"missing", "", "missing bearer token"},
		{"garbage", "not.a.jwt", "invalid token"},
		{"wrong secret", foreign, "invalid token"},
		{"expired", expired, "token expired"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := s.JWTAuth(ctx, tt.token, scheme)
			appErr := requireCode(t, err, apperrors.ErrCodeUnauthorized)
			assert.Equal(t, tt.want, appErr.Message)
		})
	}
}

func TestJWTAuthScopes(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestAuthService(t)
	adminToken, _, err := s.tokens.GenerateToken(1, "a@lumen.example", "admin")
	require.NoError(t, err)
	superToken, _, err := s.tokens.GenerateToken(2, "s@lumen.example", "super-admin")
	require.NoError(t, err)
	oddToken, _, err := s.tokens.GenerateToken(3, "x@lumen.example", "viewer")
	require.NoError(t, err)

	super := &security.JWTScheme{RequiredScopes: []string{ScopeSuperAdmin}}
	admin := &security.JWTScheme{RequiredScopes: []string{ScopeAdmin}}

	_, err = s.JWTAuth(ctx, superToken, super)
	assert.NoError(t, err)
	_, err = s.JWTAuth(ctx, superToken, admin)
	assert.NoError(t, err)

	_, err = s.JWTAuth(ctx, adminToken, super)
	requireCode(t, err, apperrors.ErrCodeForbidden)
	_, err = s.JWTAuth(ctx, oddToken, admin)
	requireCode(t, err, apperrors.ErrCodeForbidden)
}

func TestMeRequiresLiveAccount(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestAuthService(t)

	_, err := s.Me(ctx)
	requireCode(t, err, apperrors.ErrCodeUnauthorized)

	token, _, err := s.tokens.GenerateToken(42, "ghost@lumen.example", "admin")
	require.NoError(t, err)
	authed, err := s.JWTAuth(ctx, token, nil)
	require.NoError(t, err)
	_, err = s.Me(authed)
	requireCode(t, err, apperrors.ErrCodeUnauthorized)
}

func TestCreateAdminValidation(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestAuthService(t)
	createAdmin(t, s, "dana@lumen.example", "")

	_, err := s.CreateAdmin(ctx, AdminInput{Email: "DANA@lumen.example", Password: "another-pass"})
	appErr := requireCode(t, err, apperrors.ErrCodeValidation)
	assert.Equal(t, []string{"email"}, fieldsOf(appErr))

	_, err = s.CreateAdmin(ctx, AdminInput{Email: "bad", Password: "short", Role: "owner"})
	appErr = requireCode(t, err, apperrors.ErrCodeValidation)
	assert.ElementsMatch(t, []string{"email", "password", "role"}, fieldsOf(appErr))
	for _, d := range appErr.Details {
		assert.NotContains(t, d.Message, "short")
	}
}

func TestEnsureAdmin(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestAuthService(t)
	in := AdminInput{Email: "root@lumen.example", Password: "bootstrap-pass"}

	created, err := s.EnsureAdmin(ctx, in)
	require.NoError(t, err)
	assert.True(t, created)

	created, err = s.EnsureAdmin(ctx, AdminInput{Email: "other@lumen.example", Password: "bootstrap-pass"})
	require.NoError(t, err)
	assert.False(t, created)

	res, err := s.Login(ctx, "root@lumen.example", "bootstrap-pass")
	require.NoError(t, err)
	assert.Equal(t, domain.RoleSuperAdmin, res.User.Role)
}

func fieldsOf(appErr *apperrors.AppError) []string {
	fields := make([]string, 0, len(appErr.Details))
	for _, d := range appErr.Details {
		fields = append(fields, d.Field)
	}
	return fields
}
