package util

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSlugify(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Hello World", "hello-world"},
		{"  Shipping RAG to production!  ", "shipping-rag-to-production"},
		{"Café Déjà Vu", "cafe-deja-vu"},
		{"Straße & Co.", "strasse-co"},
		{"AI/ML -- what's next?", "ai-ml-what-s-next"},
		{"Привет мир", "privet-mir"},
		{"---", ""},
		{"__a..b__", "a-b"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Slugify(tt.in), tt.in)
	}
}

func TestSlugifyTruncates(t *testing.T) {
	s := Slugify(strings.Repeat("word ", 100))
	assert.LessOrEqual(t, len(s), MaxSlugLength)
	assert.True(t, IsValidSlug(s))
}

func TestIsValidSlug(t *testing.T) {
	assert.True(t, IsValidSlug("hello-world-2"))
	assert.False(t, IsValidSlug(""))
	assert.False(t, IsValidSlug("-lead"))
	assert.False(t, IsValidSlug("trail-"))
	assert.False(t, IsValidSlug("double--hyphen"))
	assert.False(t, IsValidSlug("Upper"))
}
