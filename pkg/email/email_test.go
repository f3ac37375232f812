package email

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDeriveNameFromEmail(t *testing.T) {
	t.Run("two part local", func(t *testing.T) {
		first, last := DeriveNameFromEmail("jamie.rivera@example.com")
		assert.Equal(t, "Jamie", first)
		assert.Equal(t, "Rivera", last)
	})

	t.Run("single part local", func(t *testing.T) {
		first, last := DeriveNameFromEmail("jamie@example.com")
		assert.Equal(t, "Jamie", first)
		assert.Equal(t, "Applicant", last)
	})

	t.Run("empty local", func(t *testing.T) {
		first, last := DeriveNameFromEmail("@example.com")
		assert.Equal(t, "Applicant", first)
		assert.Equal(t, "Applicant", last)
	})
}

func TestMask(t *testing.T) {
	assert.Equal(t, "j***e@example.com", Mask("jamie@example.com"))
	assert.Equal(t, "ab@example.com", Mask("ab@example.com"))
	assert.Equal(t, "no-at-sign", Mask("no-at-sign"))
}
