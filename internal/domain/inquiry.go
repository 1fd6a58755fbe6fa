package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// InquiryStatus is the lifecycle label of an inquiry. Any status may follow any other.
type InquiryStatus string

const (
	StatusPending    InquiryStatus = "pending"
	StatusInProgress InquiryStatus = "in-progress"
	StatusCompleted  InquiryStatus = "completed"
	StatusRejected   InquiryStatus = "rejected"
)

// InquiryStatuses lists every valid status in display order.
var InquiryStatuses = []InquiryStatus{StatusPending, StatusInProgress, StatusCompleted, StatusRejected}

// Valid reports whether s is one of the four known statuses.
func (s InquiryStatus) Valid() bool {
	switch s {
	case StatusPending, StatusInProgress, StatusCompleted, StatusRejected:
		return true
	}
	return false
}

// ParseInquiryStatus converts a raw string into a status.
func ParseInquiryStatus(raw string) (InquiryStatus, bool) {
	s := InquiryStatus(raw)
	return s, s.Valid()
}

func statusValues() []any {
	values := make([]any, len(InquiryStatuses))
	for i, s := range InquiryStatuses {
		values[i] = string(s)
	}
	return values
}

const (
	MaxAdminNotesLength = 2000
	inquiryTextMax      = 100
	phoneMin            = 7
	phoneMax            = 20
)

// Inquiry represents a contact form submission
type Inquiry struct {
	ID             string        `gorm:"primaryKey;size:36" json:"id"`
	Name           string        `gorm:"size:100;not null" json:"name"`
	Email          string        `gorm:"size:254;not null;index" json:"email"`
	Phone          string        `gorm:"size:20;not null" json:"phone"`
	CompanyName    string        `gorm:"size:100;not null;index" json:"companyName"`
	Country        string        `gorm:"size:100;not null" json:"country"`
	JobTitle       string        `gorm:"size:100;not null" json:"jobTitle"`
	JobDescription string        `gorm:"type:text;not null" json:"jobDescription"`
	Status         InquiryStatus `gorm:"size:20;not null;index" json:"status"`
	AdminNotes     string        `gorm:"type:text;not null" json:"adminNotes"`
	CreatedAt      time.Time     `gorm:"index" json:"createdAt"`
	UpdatedAt      time.Time     `json:"updatedAt"`
}

// TableName specifies the table name for Inquiry
func (Inquiry) TableName() string {
	return "inquiries"
}

// BeforeCreate hook
func (i *Inquiry) BeforeCreate(tx *gorm.DB) error {
	if i.ID == "" {
		i.ID = uuid.NewString()
	}
	if i.Status == "" {
		i.Status = StatusPending
	}
	return nil
}

// InquiryInput is the payload of the contact form and of admin-created inquiries.
type InquiryInput struct {
	Name           string `json:"name"`
	Email          string `json:"email"`
	Phone          string `json:"phone"`
	CompanyName    string `json:"companyName"`
	Country        string `json:"country"`
	JobTitle       string `json:"jobTitle"`
	JobDescription string `json:"jobDescription"`
}

// Normalize trims every field and lowercases the email.
func (in *InquiryInput) Normalize() {
	in.Name = cleanText(in.Name)
	in.Email = strings.ToLower(cleanText(in.Email))
	in.Phone = cleanText(in.Phone)
	in.CompanyName = cleanText(in.CompanyName)
	in.Country = cleanText(in.Country)
	in.JobTitle = cleanText(in.JobTitle)
	in.JobDescription = cleanText(in.JobDescription)
}

// Validate checks every field constraint and reports all violations at once.
func (in *InquiryInput) Validate() error {
	v := &validator{}
	v.text("name", in.Name, 1, inquiryTextMax)
	v.pattern("email", in.Email, EmailPattern)
	v.pattern("phone", in.Phone, PhonePattern)
	if in.Phone != "" {
		v.length("phone", in.Phone, phoneMin, phoneMax)
	}
	v.text("companyName", in.CompanyName, 1, inquiryTextMax)
	v.text("country", in.Country, 1, inquiryTextMax)
	v.text("jobTitle", in.JobTitle, 1, inquiryTextMax)
	v.text("jobDescription", in.JobDescription, 10, 1000)
	return v.result("invalid inquiry")
}

// Inquiry builds a new pending record from the input.
func (in *InquiryInput) Inquiry() *Inquiry {
	return &Inquiry{
		Name:           in.Name,
		Email:          in.Email,
		Phone:          in.Phone,
		CompanyName:    in.CompanyName,
		Country:        in.Country,
		JobTitle:       in.JobTitle,
		JobDescription: in.JobDescription,
		Status:         StatusPending,
		AdminNotes:     "",
	}
}

// InquiryUpdate is a partial update; nil fields are left unchanged.
type InquiryUpdate struct {
	Status     *string `json:"status,omitempty"`
	AdminNotes *string `json:"adminNotes,omitempty"`
}

// Validate checks the supplied fields.
func (u *InquiryUpdate) Validate() error {
	v := &validator{}
	if u.Status == nil && u.AdminNotes == nil {
		v.custom("body", "at least one of status or adminNotes must be provided")
	}
	if u.Status != nil {
		if _, ok := ParseInquiryStatus(*u.Status); !ok {
			v.enum("status", *u.Status, statusValues())
		}
	}
	if u.AdminNotes != nil {
		v.optional("adminNotes", *u.AdminNotes, MaxAdminNotesLength)
	}
	return v.result("invalid inquiry update")
}
