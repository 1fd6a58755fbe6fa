package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCreateAdminRequiresCredentials(t *testing.T) {
	rootCmd.SetArgs([]string{"--password", "correct-horse-battery"})
	err := rootCmd.Execute()
	assert.ErrorContains(t, err, `required flag(s) "email" not set`)

	rootCmd.SetArgs([]string{"--email", "ops@lumen.example", "--password", ""})
	err = rootCmd.Execute()
	assert.ErrorContains(t, err, "ADMIN_PASSWORD is required")
}
