package services

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"goa.design/goa/v3/security"
	"gorm.io/gorm"

	"lumenai/internal/domain"
	"lumenai/internal/metrics"
	"lumenai/internal/util"
	apperrors "lumenai/pkg/errors"
)

const (
	// ScopeAdmin is satisfied by every admin role.
	ScopeAdmin = "admin"
	// ScopeSuperAdmin is satisfied only by super-admins.
	ScopeSuperAdmin = "super-admin"

	MinPasswordLength = 8
	MaxPasswordLength = 128

	invalidCredentials = "invalid credentials"
)

type contextKey int

const claimsKey contextKey = iota

// ClaimsFromContext returns the verified token claims stored by JWTAuth.
func ClaimsFromContext(ctx context.Context) (*util.Claims, bool) {
	claims, ok := ctx.Value(claimsKey).(*util.Claims)
	return claims, ok
}

// WithClaims stores verified claims in ctx.
func WithClaims(ctx context.Context, claims *util.Claims) context.Context {
	return context.WithValue(ctx, claimsKey, claims)
}

// LoginResult is returned by a successful login.
type LoginResult struct {
	AccessToken string            `json:"token"`
	TokenType   string            `json:"tokenType"`
	ExpiresAt   time.Time         `json:"expiresAt"`
	User        *domain.AdminUser `json:"user"`
}

// AdminInput describes an admin account to create.
type AdminInput struct {
	Email     string
	Password  string
	FirstName string
	LastName  string
	Role      domain.AdminRole
}

// AuthService implements admin login and bearer token checks
type AuthService struct {
	db     *gorm.DB
	tokens *util.TokenManager
	log    serviceLog
	now    func() time.Time

	dummyOnce sync.Once
	dummyHash string
}

// NewAuthService creates a new auth service
func NewAuthService(db *gorm.DB, tokens *util.TokenManager) *AuthService {
	return &AuthService{
		db:     db,
		tokens: tokens,
		log:    serviceLog("auth"),
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// JWTAuth implements the authorization logic for the JWT security scheme.
// It only verifies the token; no store access happens here.
func (s *AuthService) JWTAuth(ctx context.Context, token string, schema *security.JWTScheme) (context.Context, error) {
	if token == "" {
		return ctx, apperrors.Unauthorized("missing bearer token")
	}

	claims, err := s.tokens.ValidateToken(token)
	if err != nil {
		if errors.Is(err, util.ErrExpiredToken) {
			return ctx, apperrors.Unauthorized("token expired")
		}
		return ctx, apperrors.Unauthorized("invalid token")
	}

	if schema != nil && !hasScopes(domain.AdminRole(claims.Role), schema.RequiredScopes) {
		return ctx, apperrors.New(apperrors.ErrCodeForbidden, "insufficient permissions")
	}

	return WithClaims(ctx, claims), nil
}

func hasScopes(role domain.AdminRole, required []string) bool {
	for _, scope := range required {
		switch scope {
		case ScopeAdmin:
			if !role.Valid() {
				return false
			}
		case ScopeSuperAdmin:
			if role != domain.RoleSuperAdmin {
				return false
			}
		default:
			return false
		}
	}
	return true
}

// Login checks credentials and issues a bearer token.
func (s *AuthService) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	email = util.NormalizeEmail(email)
	s.log.For(ctx).Info("Login attempt", zap.String("email", email))

	var user domain.AdminUser
	err := s.db.WithContext(ctx).Where("email = ?", email).First(&user).Error
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		s.log.For(ctx).Error("Login failed: database error", zap.Error(err))
		metrics.RecordAuthAttempt(false)
		return nil, storeError("load admin", err)
	}

	if err != nil {
		// Spend the same hashing time as a real check.
		util.CheckPasswordHash(password, s.dummy())
		s.log.For(ctx).Info("Login failed: unknown email", zap.String("email", email))
		metrics.RecordAuthAttempt(false)
		return nil, apperrors.Unauthorized(invalidCredentials)
	}

	if !util.CheckPasswordHash(password, user.PasswordHash) {
		s.log.For(ctx).Info("Login failed: invalid password", zap.Uint("id", user.ID))
		metrics.RecordAuthAttempt(false)
		return nil, apperrors.Unauthorized(invalidCredentials)
	}

	if !user.IsActive {
		s.log.For(ctx).Info("Login failed: account inactive", zap.Uint("id", user.ID))
		metrics.RecordAuthAttempt(false)
		return nil, apperrors.Unauthorized(invalidCredentials)
	}

	now := s.now()
	if err := s.db.WithContext(ctx).Model(&user).UpdateColumn("last_login", now).Error; err != nil {
		s.log.For(ctx).Warn("Failed to record last login", zap.Uint("id", user.ID), zap.Error(err))
	} else {
		user.LastLogin = &now
	}

	token, expiresAt, err := s.tokens.GenerateToken(user.ID, user.Email, string(user.Role))
	if err != nil {
		s.log.For(ctx).Error("Login failed: token generation error", zap.Error(err))
		return nil, apperrors.Internal("failed to generate token", err)
	}

	s.log.For(ctx).Info("Login successful", zap.Uint("id", user.ID), zap.String("role", string(user.Role)))
	metrics.RecordAuthAttempt(true)

	return &LoginResult{
		AccessToken: token,
		TokenType:   "bearer",
		ExpiresAt:   expiresAt,
		User:        &user,
	}, nil
}

func (s *AuthService) dummy() string {
	s.dummyOnce.Do(func() {
		s.dummyHash, _ = util.HashPassword("not-a-real-password")
	})
	return s.dummyHash
}

// Me returns the admin identified by the token in ctx.
func (s *AuthService) Me(ctx context.Context) (*domain.AdminUser, error) {
	claims, ok := ClaimsFromContext(ctx)
	if !ok {
		return nil, apperrors.Unauthorized("missing bearer token")
	}
	id, err := claims.UserID()
	if err != nil {
		return nil, apperrors.Unauthorized("invalid token")
	}

	var user domain.AdminUser
	if err := s.db.WithContext(ctx).First(&user, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.Unauthorized("account no longer exists")
		}
		return nil, storeError("load admin", err)
	}
	if !user.IsActive {
		return nil, apperrors.Unauthorized("account is inactive")
	}
	return &user, nil
}

// CreateAdmin validates and stores a new admin account.
func (s *AuthService) CreateAdmin(ctx context.Context, in AdminInput) (*domain.AdminUser, error) {
	in.Email = util.NormalizeEmail(in.Email)
	s.log.For(ctx).Info("CreateAdmin request", zap.String("email", in.Email))

	if in.Role == "" {
		in.Role = domain.RoleAdmin
	}
	if err := validateAdminInput(&in); err != nil {
		return nil, err
	}

	hash, err := util.HashPassword(in.Password)
	if err != nil {
		return nil, apperrors.Internal("failed to hash password", err)
	}

	user := &domain.AdminUser{
		Email:        in.Email,
		PasswordHash: hash,
		FirstName:    strings.TrimSpace(in.FirstName),
		LastName:     strings.TrimSpace(in.LastName),
		Role:         in.Role,
		IsActive:     true,
	}
	if err := s.db.WithContext(ctx).Create(user).Error; err != nil {
		if isUniqueViolation(err) {
			return nil, apperrors.Validation("invalid admin", apperrors.FieldError{Field: "email", Message: "email already registered"})
		}
		s.log.For(ctx).Error("CreateAdmin failed: database error", zap.Error(err))
		return nil, storeError("create admin", err)
	}

	s.log.For(ctx).Info("CreateAdmin successful", zap.Uint("id", user.ID), zap.String("role", string(user.Role)))
	return user, nil
}

// EnsureAdmin creates the given account only when no admin exists yet.
// It reports whether an account was created.
func (s *AuthService) EnsureAdmin(ctx context.Context, in AdminInput) (bool, error) {
	var count int64
	if err := s.db.WithContext(ctx).Model(&domain.AdminUser{}).Count(&count).Error; err != nil {
		return false, storeError("count admins", err)
	}
	if count > 0 {
		return false, nil
	}
	if in.Role == "" {
		in.Role = domain.RoleSuperAdmin
	}
	if _, err := s.CreateAdmin(ctx, in); err != nil {
		return false, err
	}
	return true, nil
}

func validateAdminInput(in *AdminInput) error {
	var details []apperrors.FieldError
	if !domain.EmailPattern.MatchString(in.Email) {
		details = append(details, apperrors.FieldError{Field: "email", Message: "invalid email address"})
	}
	if msg := passwordProblem(in.Password); msg != "" {
		details = append(details, apperrors.FieldError{Field: "password", Message: msg})
	}
	if !in.Role.Valid() {
		details = append(details, apperrors.FieldError{Field: "role", Message: "role must be admin or super-admin"})
	}
	if len(details) > 0 {
		return apperrors.Validation("invalid admin", details...)
	}
	return nil
}

// passwordProblem describes why a password is unacceptable, or returns "".
// The password itself never appears in the message.
func passwordProblem(password string) string {
	n := len([]rune(password))
	switch {
	case n < MinPasswordLength:
		return "password must be at least 8 characters"
	case n > MaxPasswordLength:
		return "password must be at most 128 characters"
	}
	return ""
}
