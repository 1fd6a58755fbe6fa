package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lumenai/internal/util"
)

func TestCatalog(t *testing.T) {
	c, err := NewCatalog()
	require.NoError(t, err)

	offerings := c.List()
	require.Len(t, offerings, 6)
	seen := map[string]bool{}
	for _, o := range offerings {
		assert.True(t, util.IsValidSlug(o.Slug), o.Slug)
		assert.False(t, seen[o.Slug], "duplicate slug %s", o.Slug)
		seen[o.Slug] = true
		assert.NotEmpty(t, o.Name)
		assert.NotEmpty(t, o.Summary)
		assert.NotEmpty(t, o.Highlights)
	}

	offerings[0].Name = "changed"
	assert.NotEqual(t, "changed", c.List()[0].Name)
}
