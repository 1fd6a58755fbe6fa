package domain

import (
	"strings"
	"time"

	"gorm.io/gorm"
)

// ContentMeta holds the columns shared by every publishable content type.
type ContentMeta struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Slug      string    `gorm:"size:220;uniqueIndex;not null" json:"slug"`
	Published bool      `gorm:"not null;index" json:"published"`
	CreatedAt time.Time `gorm:"index" json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Meta gives generic code access to the shared columns.
func (m *ContentMeta) Meta() *ContentMeta { return m }

// Content is implemented by Blog, CaseStudy and Event.
type Content interface {
	Meta() *ContentMeta
	// SlugSource is the text a slug is derived from.
	SlugSource() string
	// PublicOrder is the ORDER BY clause for public listings.
	PublicOrder() string
	Normalize()
	Validate() error
}

func trimTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		if t = strings.TrimSpace(t); t != "" {
			out = append(out, t)
		}
	}
	return out
}

// Blog is an article rendered from markdown.
type Blog struct {
	ContentMeta
	Title         string     `gorm:"size:200;not null" json:"title"`
	Excerpt       string     `gorm:"size:500" json:"excerpt"`
	Content       string     `gorm:"type:text;not null" json:"content"`
	ContentHTML   string     `gorm:"-" json:"contentHtml,omitempty"`
	Author        string     `gorm:"size:100;not null" json:"author"`
	Tags          []string   `gorm:"type:text;serializer:json" json:"tags"`
	CoverImageURL string     `gorm:"size:500" json:"coverImageUrl"`
	PublishedAt   *time.Time `gorm:"index" json:"publishedAt"`
}

// TableName specifies the table name for Blog
func (Blog) TableName() string {
	return "blogs"
}

// BeforeSave stamps the first publication time.
func (b *Blog) BeforeSave(tx *gorm.DB) error {
	if b.Published && b.PublishedAt == nil {
		now := time.Now().UTC()
		b.PublishedAt = &now
	}
	return nil
}

func (b *Blog) SlugSource() string  { return b.Title }
func (b *Blog) PublicOrder() string { return "published_at DESC, id DESC" }

func (b *Blog) Normalize() {
	b.Title = strings.TrimSpace(b.Title)
	b.Excerpt = strings.TrimSpace(b.Excerpt)
	b.Content = strings.TrimSpace(b.Content)
	b.Author = strings.TrimSpace(b.Author)
	b.CoverImageURL = strings.TrimSpace(b.CoverImageURL)
	b.Tags = trimTags(b.Tags)
}

func (b *Blog) Validate() error {
	v := &validator{}
	v.text("title", b.Title, 1, 200)
	v.optional("excerpt", b.Excerpt, 500)
	v.text("content", b.Content, 1, 0)
	v.text("author", b.Author, 1, 100)
	v.url("coverImageUrl", b.CoverImageURL)
	return v.result("invalid blog")
}

// CaseStudy describes a completed client engagement.
type CaseStudy struct {
	ContentMeta
	Title        string   `gorm:"size:200;not null" json:"title"`
	Client       string   `gorm:"size:100;not null" json:"client"`
	Industry     string   `gorm:"size:100;not null;index" json:"industry"`
	Challenge    string   `gorm:"type:text;not null" json:"challenge"`
	Solution     string   `gorm:"type:text;not null" json:"solution"`
	Results      string   `gorm:"type:text;not null" json:"results"`
	Technologies []string `gorm:"type:text;serializer:json" json:"technologies"`
}

// TableName specifies the table name for CaseStudy
func (CaseStudy) TableName() string {
	return "case_studies"
}

func (c *CaseStudy) SlugSource() string  { return c.Title }
func (c *CaseStudy) PublicOrder() string { return "created_at DESC, id DESC" }

func (c *CaseStudy) Normalize() {
	c.Title = strings.TrimSpace(c.Title)
	c.Client = strings.TrimSpace(c.Client)
	c.Industry = strings.TrimSpace(c.Industry)
	c.Challenge = strings.TrimSpace(c.Challenge)
	c.Solution = strings.TrimSpace(c.Solution)
	c.Results = strings.TrimSpace(c.Results)
	c.Technologies = trimTags(c.Technologies)
}

func (c *CaseStudy) Validate() error {
	v := &validator{}
	v.text("title", c.Title, 1, 200)
	v.text("client", c.Client, 1, 100)
	v.text("industry", c.Industry, 1, 100)
	v.text("challenge", c.Challenge, 10, 5000)
	v.text("solution", c.Solution, 10, 5000)
	v.text("results", c.Results, 10, 5000)
	return v.result("invalid case study")
}

// Event is a webinar, meetup or conference appearance.
type Event struct {
	ContentMeta
	Title           string    `gorm:"size:200;not null" json:"title"`
	Description     string    `gorm:"type:text;not null" json:"description"`
	Location        string    `gorm:"size:200;not null" json:"location"`
	StartsAt        time.Time `gorm:"not null;index" json:"startsAt"`
	EndsAt          time.Time `gorm:"not null" json:"endsAt"`
	RegistrationURL string    `gorm:"size:500" json:"registrationUrl"`
}

// TableName specifies the table name for Event
func (Event) TableName() string {
	return "events"
}

func (e *Event) SlugSource() string  { return e.Title }
func (e *Event) PublicOrder() string { return "starts_at ASC, id ASC" }

func (e *Event) Normalize() {
	e.Title = strings.TrimSpace(e.Title)
	e.Description = strings.TrimSpace(e.Description)
	e.Location = strings.TrimSpace(e.Location)
	e.RegistrationURL = strings.TrimSpace(e.RegistrationURL)
}

func (e *Event) Validate() error {
	v := &validator{}
	v.text("title", e.Title, 1, 200)
	v.text("description", e.Description, 10, 5000)
	v.text("location", e.Location, 1, 200)
	if e.StartsAt.IsZero() {
		v.custom("startsAt", "startsAt is required")
	}
	if e.EndsAt.IsZero() {
		v.custom("endsAt", "endsAt is required")
	} else if e.EndsAt.Before(e.StartsAt) {
		v.custom("endsAt", "endsAt must not precede startsAt")
	}
	v.url("registrationUrl", e.RegistrationURL)
	return v.result("invalid event")
}
