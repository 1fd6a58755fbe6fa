package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"lumenai/internal/database/databasetest"
	"lumenai/internal/domain"
	apperrors "lumenai/pkg/errors"
)

// clock is a settable time source for services under test.
type clock struct{ t time.Time }

func newClock() *clock {
	return &clock{t: time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)}
}

func (c *clock) Now() time.Time          { return c.t }
func (c *clock) Advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	return databasetest.Open(t)
}

func newTestInquiryService(t *testing.T) (*InquiryService, *clock) {
	t.Helper()
	c := newClock()
	s := NewInquiryService(newTestDB(t), nil)
	s.now = c.Now
	return s, c
}

func annLee() *domain.InquiryInput {
	return &domain.InquiryInput{
		Name:           "Ann Lee",
		Email:          "ann@x.com",
		Phone:          "+15551234567",
		CompanyName:    "Acme",
		Country:        "US",
		JobTitle:       "CTO",
		JobDescription: "Need help automating support.",
	}
}

func requireCode(t *testing.T, err error, code apperrors.ErrorCode) *apperrors.AppError {
	t.Helper()
	require.Error(t, err)
	appErr, ok := apperrors.As(err)
	require.True(t, ok, "expected AppError, got %T: %v", err, err)
	assert.Equal(t, code, appErr.Code)
	return appErr
}
