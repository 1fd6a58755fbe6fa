package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lumenai/internal/domain"
	"lumenai/internal/util"
	apperrors "lumenai/pkg/errors"
)

type resetFixture struct {
	auth  *AuthService
	reset *PasswordResetService
	clock *clock
	codes []string
}

func newResetFixture(t *testing.T) *resetFixture {
	t.Helper()
	f := &resetFixture{clock: newClock()}
	db := newTestDB(t)

	f.auth = NewAuthService(db, util.NewTokenManager(testSecret, time.Hour))
	f.auth.now = f.clock.Now
	createAdmin(t, f.auth, "dana@lumen.example", domain.RoleAdmin)

	f.reset = NewPasswordResetService(db, nil)
	f.reset.now = f.clock.Now
	f.reset.newCode = func() (string, error) {
		code, err := util.GenerateOTP()
		if err == nil {
			f.codes = append(f.codes, code)
		}
		return code, err
	}
	return f
}

func (f *resetFixture) lastCode(t *testing.T) string {
	t.Helper()
	require.NotEmpty(t, f.codes, "no code issued")
	return f.codes[len(f.codes)-1]
}

func wrongCode(code string) string {
	if code == "000000" {
		return "111111"
	}
	return "000000"
}

func TestPasswordResetFlow(t *testing.T) {
	ctx := context.Background()
	f := newResetFixture(t)

	require.NoError(t, f.reset.ForgotPassword(ctx, "Dana@Lumen.example"))
	code := f.lastCode(t)
	assert.Len(t, code, util.OTPLength)

	resetToken, err := f.reset.VerifyOTP(ctx, "dana@lumen.example", code)
	require.NoError(t, err)
	assert.NotEmpty(t, resetToken)

	require.NoError(t, f.reset.ResetPassword(ctx, resetToken, "brand-new-pass"))

	_, err = f.auth.Login(ctx, "dana@lumen.example", "correct-horse")
	requireCode(t, err, apperrors.ErrCodeUnauthorized)
	_, err = f.auth.Login(ctx, "dana@lumen.example", "brand-new-pass")
	require.NoError(t, err)

	err = f.reset.ResetPassword(ctx, resetToken, "third-password")
	appErr := requireCode(t, err, apperrors.ErrCodeValidation)
	assert.Equal(t, "resetToken", appErr.Details[0].Field)

	_, err = f.reset.VerifyOTP(ctx, "dana@lumen.example", code)
	requireCode(t, err, apperrors.ErrCodeValidation)
}

func TestForgotPasswordUnknownEmailIssuesNothing(t *testing.T) {
	f := newResetFixture(t)
	require.NoError(t, f.reset.ForgotPassword(context.Background(), "nobody@lumen.example"))
	assert.Empty(t, f.codes)
}

func TestForgotPasswordThrottles(t *testing.T) {
	ctx := context.Background()
	f := newResetFixture(t)

	for i := 0; i < maxResetRequests+2; i++ {
		require.NoError(t, f.reset.ForgotPassword(ctx, "dana@lumen.example"))
	}
	assert.Len(t, f.codes, maxResetRequests)

	f.clock.Advance(resetRequestWindow + time.Second)
	require.NoError(t, f.reset.ForgotPassword(ctx, "dana@lumen.example"))
	assert.Len(t, f.codes, maxResetRequests+1)
}

func TestVerifyOTPBurnsTokenAfterMaxAttempts(t *testing.T) {
	ctx := context.Background()
	f := newResetFixture(t)
	require.NoError(t, f.reset.ForgotPassword(ctx, "dana@lumen.example"))
	code := f.lastCode(t)

	for i := 0; i < domain.MaxResetAttempts; i++ {
		_, err := f.reset.VerifyOTP(ctx, "dana@lumen.example", wrongCode(code))
		appErr := requireCode(t, err, apperrors.ErrCodeValidation)
		assert.Equal(t, "otp", appErr.Details[0].Field)
	}

	_, err := f.reset.VerifyOTP(ctx, "dana@lumen.example", code)
	requireCode(t, err, apperrors.ErrCodeValidation)
}

func TestVerifyOTPScopedToEmail(t *testing.T) {
	ctx := context.Background()
	f := newResetFixture(t)
	createAdmin(t, f.auth, "eve@lumen.example", domain.RoleAdmin)

	require.NoError(t, f.reset.ForgotPassword(ctx, "dana@lumen.example"))
	code := f.lastCode(t)

	_, err := f.reset.VerifyOTP(ctx, "eve@lumen.example", code)
	requireCode(t, err, apperrors.ErrCodeValidation)

	_, err = f.reset.VerifyOTP(ctx, "dana@lumen.example", code)
	assert.NoError(t, err)
}

func TestNewCodeInvalidatesOlder(t *testing.T) {
	ctx := context.Background()
	f := newResetFixture(t)

	require.NoError(t, f.reset.ForgotPassword(ctx, "dana@lumen.example"))
	first := f.lastCode(t)
	f.clock.Advance(time.Minute)
	require.NoError(t, f.reset.ForgotPassword(ctx, "dana@lumen.example"))
	second := f.lastCode(t)

	if first != second {
		_, err := f.reset.VerifyOTP(ctx, "dana@lumen.example", first)
		requireCode(t, err, apperrors.ErrCodeValidation)
	}
	_, err := f.reset.VerifyOTP(ctx, "dana@lumen.example", second)
	assert.NoError(t, err)
}

func TestCodeExpires(t *testing.T) {
	ctx := context.Background()
	f := newResetFixture(t)
	require.NoError(t, f.reset.ForgotPassword(ctx, "dana@lumen.example"))
	code := f.lastCode(t)

	f.clock.Advance(util.OTPValidity)
	_, err := f.reset.VerifyOTP(ctx, "dana@lumen.example", code)
	requireCode(t, err, apperrors.ErrCodeValidation)
}

func TestResetPasswordValidation(t *testing.T) {
	ctx := context.Background()
	f := newResetFixture(t)

	err := f.reset.ResetPassword(ctx, "whatever", "short")
	appErr := requireCode(t, err, apperrors.ErrCodeValidation)
	assert.Equal(t, "newPassword", appErr.Details[0].Field)

	err = f.reset.ResetPassword(ctx, "", "long-enough-pass")
	appErr = requireCode(t, err, apperrors.ErrCodeValidation)
	assert.Equal(t, "resetToken", appErr.Details[0].Field)

	err = f.reset.ResetPassword(ctx, "forged-token", "long-enough-pass")
	requireCode(t, err, apperrors.ErrCodeValidation)
}

func TestResetSessionExpiresWithCode(t *testing.T) {
	ctx := context.Background()
	f := newResetFixture(t)
	require.NoError(t, f.reset.ForgotPassword(ctx, "dana@lumen.example"))
	resetToken, err := f.reset.VerifyOTP(ctx, "dana@lumen.example", f.lastCode(t))
	require.NoError(t, err)

	f.clock.Advance(util.OTPValidity)
	err = f.reset.ResetPassword(ctx, resetToken, "brand-new-pass")
	requireCode(t, err, apperrors.ErrCodeValidation)
}

func TestPurgeExpired(t *testing.T) {
	ctx := context.Background()
	f := newResetFixture(t)

	require.NoError(t, f.reset.ForgotPassword(ctx, "dana@lumen.example"))
	f.clock.Advance(time.Minute)
	require.NoError(t, f.reset.ForgotPassword(ctx, "dana@lumen.example"))

	// The first token was superseded; the second is still live.
	n, err := f.reset.PurgeExpired(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	f.clock.Advance(util.OTPValidity)
	n, err = f.reset.PurgeExpired(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	var left int64
	require.NoError(t, f.reset.db.Model(&domain.PasswordResetToken{}).Count(&left).Error)
	assert.Zero(t, left)
}
