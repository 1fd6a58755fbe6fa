package services

import (
	"context"
	"crypto/subtle"
	"errors"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"lumenai/internal/domain"
	"lumenai/internal/metrics"
	"lumenai/internal/util"
	apperrors "lumenai/pkg/errors"
)

const (
	// ForgotPasswordMessage is returned whether or not the email is registered.
	ForgotPasswordMessage = "If that email belongs to an admin account, a reset code has been sent."

	resetRequestWindow  = 15 * time.Minute
	maxResetRequests    = 5
	invalidResetCode    = "invalid or expired code"
	invalidResetSession = "invalid or expired reset token"
	stageRequested      = "requested"
	stageVerified       = "verified"
	stageCompleted      = "completed"
)

// PasswordResetService runs the email OTP password reset flow.
type PasswordResetService struct {
	db       *gorm.DB
	notifier *Notifier
	log      serviceLog
	now      func() time.Time
	newCode  func() (string, error)
}

// NewPasswordResetService creates a new password reset service
func NewPasswordResetService(db *gorm.DB, notifier *Notifier) *PasswordResetService {
	return &PasswordResetService{
		db:       db,
		notifier: notifier,
		log:      serviceLog("password_reset"),
		now:      func() time.Time { return time.Now().UTC() },
		newCode:  util.GenerateOTP,
	}
}

// ForgotPassword issues a fresh code to an active admin. Callers always answer
// with ForgotPasswordMessage so the response does not reveal which emails exist.
func (s *PasswordResetService) ForgotPassword(ctx context.Context, email string) error {
	email = util.NormalizeEmail(email)
	s.log.For(ctx).Info("ForgotPassword request", zap.String("email", email))

	var user domain.AdminUser
	err := s.db.WithContext(ctx).Where("email = ? AND is_active = ?", email, true).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		s.log.For(ctx).Info("ForgotPassword ignored: no active admin", zap.String("email", email))
		metrics.RecordPasswordReset(stageRequested, false)
		return nil
	}
	if err != nil {
		return storeError("load admin", err)
	}

	now := s.now()
	var recent int64
	err = s.db.WithContext(ctx).Model(&domain.PasswordResetToken{}).
		Where("email = ? AND created_at > ?", email, now.Add(-resetRequestWindow)).
		Count(&recent).Error
	if err != nil {
		return storeError("count reset tokens", err)
	}
	if recent >= maxResetRequests {
		s.log.For(ctx).Warn("ForgotPassword throttled", zap.String("email", email), zap.Int64("recent", recent))
		metrics.RecordPasswordReset(stageRequested, false)
		return nil
	}

	code, err := s.newCode()
	if err != nil {
		return apperrors.Internal("failed to generate code", err)
	}

	token := &domain.PasswordResetToken{
		Email:     email,
		CodeHash:  util.HashSecret(code),
		ExpiresAt: now.Add(util.OTPValidity),
		CreatedAt: now,
	}
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// Only the newest code for an email is ever valid.
		if err := tx.Model(&domain.PasswordResetToken{}).
			Where("email = ? AND used = ?", email, false).
			Update("used", true).Error; err != nil {
			return err
		}
		return tx.Create(token).Error
	})
	if err != nil {
		s.log.For(ctx).Error("ForgotPassword failed: database error", zap.Error(err))
		return storeError("create reset token", err)
	}

	if s.notifier != nil {
		s.notifier.SendResetCode(email, code)
	}
	s.log.For(ctx).Info("ForgotPassword successful", zap.String("email", email), zap.Uint("tokenId", token.ID))
	metrics.RecordPasswordReset(stageRequested, true)
	return nil
}

// VerifyOTP checks a code against the newest usable token for email and, on
// success, returns a one-time reset token bound to that record.
func (s *PasswordResetService) VerifyOTP(ctx context.Context, email, code string) (string, error) {
	email = util.NormalizeEmail(email)
	now := s.now()
	s.log.For(ctx).Info("VerifyOTP request", zap.String("email", email))

	var token domain.PasswordResetToken
	err := s.db.WithContext(ctx).
		Where("email = ? AND used = ? AND expires_at > ? AND attempts < ?", email, false, now, domain.MaxResetAttempts).
		Order("created_at DESC").Order("id DESC").
		First(&token).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		metrics.RecordPasswordReset(stageVerified, false)
		return "", resetCodeError()
	}
	if err != nil {
		return "", storeError("load reset token", err)
	}

	if subtle.ConstantTimeCompare([]byte(util.HashSecret(code)), []byte(token.CodeHash)) != 1 {
		attempts := token.Attempts + 1
		changes := map[string]any{"attempts": attempts}
		if attempts >= domain.MaxResetAttempts {
			changes["used"] = true
		}
		if err := s.db.WithContext(ctx).Model(&token).Updates(changes).Error; err != nil {
			return "", storeError("record failed attempt", err)
		}
		s.log.For(ctx).Info("VerifyOTP failed: wrong code", zap.Uint("tokenId", token.ID), zap.Int("attempts", attempts))
		metrics.RecordPasswordReset(stageVerified, false)
		return "", resetCodeError()
	}

	resetToken, err := util.GenerateResetToken()
	if err != nil {
		return "", apperrors.Internal("failed to generate reset token", err)
	}
	sessionHash := util.HashSecret(resetToken)
	err = s.db.WithContext(ctx).Model(&token).Updates(map[string]any{
		"session_hash": sessionHash,
		"verified_at":  now,
	}).Error
	if err != nil {
		return "", storeError("store reset session", err)
	}

	s.log.For(ctx).Info("VerifyOTP successful", zap.Uint("tokenId", token.ID))
	metrics.RecordPasswordReset(stageVerified, true)
	return resetToken, nil
}

// ResetPassword sets a new password for the admin whose code produced resetToken.
func (s *PasswordResetService) ResetPassword(ctx context.Context, resetToken, newPassword string) error {
	if msg := passwordProblem(newPassword); msg != "" {
		return apperrors.Validation("invalid password", apperrors.FieldError{Field: "newPassword", Message: msg})
	}
	if resetToken == "" {
		return resetSessionError()
	}

	now := s.now()
	var token domain.PasswordResetToken
	err := s.db.WithContext(ctx).Where("session_hash = ?", util.HashSecret(resetToken)).First(&token).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		metrics.RecordPasswordReset(stageCompleted, false)
		return resetSessionError()
	}
	if err != nil {
		return storeError("load reset token", err)
	}
	if token.VerifiedAt == nil || !token.Usable(now) {
		metrics.RecordPasswordReset(stageCompleted, false)
		return resetSessionError()
	}

	hash, err := util.HashPassword(newPassword)
	if err != nil {
		return apperrors.Internal("failed to hash password", err)
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&domain.PasswordResetToken{}).
			Where("id = ? AND used = ?", token.ID, false).
			Update("used", true)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return errResetRaced
		}
		res = tx.Model(&domain.AdminUser{}).
			Where("email = ? AND is_active = ?", token.Email, true).
			Updates(map[string]any{"password_hash": hash, "updated_at": now})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return errResetRaced
		}
		return nil
	})
	if errors.Is(err, errResetRaced) {
		metrics.RecordPasswordReset(stageCompleted, false)
		return resetSessionError()
	}
	if err != nil {
		s.log.For(ctx).Error("ResetPassword failed: database error", zap.Error(err))
		return storeError("reset password", err)
	}

	s.log.For(ctx).Info("ResetPassword successful", zap.String("email", token.Email), zap.Uint("tokenId", token.ID))
	metrics.RecordPasswordReset(stageCompleted, true)
	return nil
}

// PurgeExpired deletes tokens that can no longer be used.
func (s *PasswordResetService) PurgeExpired(ctx context.Context) (int64, error) {
	res := s.db.WithContext(ctx).
		Where("expires_at <= ? OR used = ?", s.now(), true).
		Delete(&domain.PasswordResetToken{})
	if res.Error != nil {
		return 0, storeError("purge reset tokens", res.Error)
	}
	metrics.RecordTokensPurged(res.RowsAffected)
	return res.RowsAffected, nil
}

var errResetRaced = errors.New("reset token consumed concurrently")

func resetCodeError() error {
	return apperrors.Validation(invalidResetCode, apperrors.FieldError{Field: "otp", Message: invalidResetCode})
}

func resetSessionError() error {
	return apperrors.Validation(invalidResetSession, apperrors.FieldError{Field: "resetToken", Message: invalidResetSession})
}
