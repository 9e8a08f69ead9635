package auth_test

import (
	"testing"
	"time"

	"github.com/dangerclosesec/orgtodo/internal/auth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenManager(t *testing.T) {
	tm := auth.NewTokenManager("secret", time.Hour)

	t.Run("round trip carries groups", func(t *testing.T) {
		token, err := tm.Generate("u-1", " Alice@Example.com ", "Admin")
		require.NoError(t, err)

		claims, err := tm.Validate(token)
		require.NoError(t, err)

		p := claims.Principal()
		assert.Equal(t, "u-1", p.UserID)
		assert.Equal(t, "alice@example.com", p.Email)
		assert.True(t, p.InGroup("Admin"))
		assert.False(t, p.InGroup("Member"))
	})

	t.Run("wrong secret", func(t *testing.T) {
		token, err := auth.NewTokenManager("other", time.Hour).Generate("u-1", "a@example.com")
		require.NoError(t, err)

		_, err = tm.Validate(token)
		assert.Error(t, err)
	})

	t.Run("expired", func(t *testing.T) {
		token, err := auth.NewTokenManager("secret", -time.Minute).Generate("u-1", "a@example.com")
		require.NoError(t, err)

		_, err = tm.Validate(token)
		assert.Error(t, err)
	})
}
