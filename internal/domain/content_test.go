package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBlogValidate(t *testing.T) {
	b := &Blog{Title: " Shipping RAG ", Content: "# Hello", Author: "Lumen Team", Tags: []string{" ai ", "", "rag"}}
	b.Normalize()
	require.NoError(t, b.Validate())
	assert.Equal(t, "Shipping RAG", b.Title)
	assert.Equal(t, []string{"ai", "rag"}, b.Tags)

	b.CoverImageURL = "not a url"
	assert.Equal(t, []string{"coverImageUrl"}, fieldsOf(t, b.Validate()))
}

func TestBlogBeforeSaveStampsFirstPublish(t *testing.T) {
	b := &Blog{}
	require.NoError(t, b.BeforeSave(nil))
	assert.Nil(t, b.PublishedAt)

	b.Published = true
	require.NoError(t, b.BeforeSave(nil))
	require.NotNil(t, b.PublishedAt)

	first := *b.PublishedAt
	require.NoError(t, b.BeforeSave(nil))
	assert.Equal(t, first, *b.PublishedAt)
}

func TestCaseStudyValidate(t *testing.T) {
	c := &CaseStudy{Title: "Forecasting", Client: "Acme", Industry: "Retail", Challenge: "too short"}
	fields := fieldsOf(t, c.Validate())
	assert.ElementsMatch(t, []string{"challenge", "solution", "results"}, fields)
}

func TestEventValidateDates(t *testing.T) {
	start := time.Date(2026, 11, 3, 17, 0, 0, 0, time.UTC)
	e := &Event{Title: "Applied AI meetup", Description: "An evening of talks", Location: "Berlin", StartsAt: start, EndsAt: start.Add(2 * time.Hour)}
	require.NoError(t, e.Validate())

	e.EndsAt = start.Add(-time.Hour)
	assert.Equal(t, []string{"endsAt"}, fieldsOf(t, e.Validate()))

	e.EndsAt = time.Time{}
	e.StartsAt = time.Time{}
	assert.ElementsMatch(t, []string{"startsAt", "endsAt"}, fieldsOf(t, e.Validate()))
}

func TestFeedbackInputValidate(t *testing.T) {
	in := &FeedbackInput{Name: "Bo", Email: "bo@corp.com", Rating: 5, Message: "Great partner to work with"}
	require.NoError(t, in.Validate())
	assert.False(t, in.Feedback().Approved)

	in.Rating = 0
	assert.Equal(t, []string{"rating"}, fieldsOf(t, in.Validate()))
	in.Rating = 6
	assert.Equal(t, []string{"rating"}, fieldsOf(t, in.Validate()))
}

func TestPasswordResetTokenUsable(t *testing.T) {
	now := time.Now()
	tok := &PasswordResetToken{ExpiresAt: now.Add(time.Minute)}
	assert.True(t, tok.Usable(now))

	tok.Attempts = MaxResetAttempts
	assert.False(t, tok.Usable(now))

	tok.Attempts = 0
	tok.Used = true
	assert.False(t, tok.Usable(now))

	tok.Used = false
	assert.False(t, tok.Usable(now.Add(2*time.Minute)))
}
