package domain

import "time"

// MaxResetAttempts is how many wrong codes burn a reset token.
const MaxResetAttempts = 5

// PasswordResetToken is a one-time code issued to an admin email.
// The code and the follow-up reset session are stored only as SHA-256 hashes.
type PasswordResetToken struct {
	ID          uint       `gorm:"primaryKey" json:"id"`
	Email       string     `gorm:"size:254;not null;index" json:"email"`
	CodeHash    string     `gorm:"size:64;not null" json:"-"`
	SessionHash *string    `gorm:"size:64;uniqueIndex" json:"-"`
	Attempts    int        `gorm:"not null" json:"attempts"`
	Used        bool       `gorm:"not null;index" json:"used"`
	VerifiedAt  *time.Time `json:"verifiedAt"`
	ExpiresAt   time.Time  `gorm:"not null;index" json:"expiresAt"`
	CreatedAt   time.Time  `json:"createdAt"`
}

// TableName specifies the table name for PasswordResetToken
func (PasswordResetToken) TableName() string {
	return "password_reset_tokens"
}

// Usable reports whether the token can still be verified or redeemed at now.
func (t *PasswordResetToken) Usable(now time.Time) bool {
	return !t.Used && t.Attempts < MaxResetAttempts && now.Before(t.ExpiresAt)
}
