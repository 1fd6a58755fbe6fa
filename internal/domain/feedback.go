package domain

import (
	"strings"
	"time"
)

// Feedback is a client testimonial; only approved entries are public.
type Feedback struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"size:100;not null" json:"name"`
	Email     string    `gorm:"size:254;not null" json:"email,omitempty"`
	Company   string    `gorm:"size:100" json:"company"`
	Rating    int       `gorm:"not null" json:"rating"`
	Message   string    `gorm:"type:text;not null" json:"message"`
	Approved  bool      `gorm:"not null;index" json:"approved"`
	CreatedAt time.Time `gorm:"index" json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// TableName specifies the table name for Feedback
func (Feedback) TableName() string {
	return "feedback"
}

// FeedbackInput is the public submission payload.
type FeedbackInput struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Company string `json:"company"`
	Rating  int    `json:"rating"`
	Message string `json:"message"`
}

func (in *FeedbackInput) Normalize() {
	in.Name = cleanText(in.Name)
	in.Email = strings.ToLower(cleanText(in.Email))
	in.Company = cleanText(in.Company)
	in.Message = cleanText(in.Message)
}

func (in *FeedbackInput) Validate() error {
	v := &validator{}
	v.text("name", in.Name, 1, 100)
	v.pattern("email", in.Email, EmailPattern)
	v.optional("company", in.Company, 100)
	v.rangeInt("rating", in.Rating, 1, 5)
	v.text("message", in.Message, 10, 1000)
	return v.result("invalid feedback")
}

// Feedback builds an unapproved record.
func (in *FeedbackInput) Feedback() *Feedback {
	return &Feedback{
		Name:    in.Name,
		Email:   in.Email,
		Company: in.Company,
		Rating:  in.Rating,
		Message: in.Message,
	}
}
