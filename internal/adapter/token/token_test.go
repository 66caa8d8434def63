package token

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/niksmo/storefront/internal/core/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testUser = domain.User{UserID: "u1", Email: "jane@example.com", Name: "jane"}

func TestIssuer(t *testing.T) {
	t.Run("EmptySecret", func(t *testing.T) {
		_, err := NewIssuer("", time.Hour)
		assert.ErrorIs(t, err, ErrEmptySecret)
	})

	t.Run("IssueVerify", func(t *testing.T) {
		i, err := NewIssuer("secret", time.Hour)
		require.NoError(t, err)

		s, err := i.Issue(testUser)
		require.NoError(t, err)

		u, err := i.Verify(s)
		require.NoError(t, err)
		assert.Equal(t, testUser, u)
	})

	t.Run("Expired", func(t *testing.T) {
		i, err := NewIssuer("secret", time.Minute)
		require.NoError(t, err)
		i.now = func() time.Time { return time.Now().Add(-time.Hour) }

		s, err := i.Issue(testUser)
		require.NoError(t, err)

		i.now = time.Now
		_, err = i.Verify(s)
		assert.ErrorIs(t, err, jwt.ErrTokenExpired)
	})

	t.Run("NoExpiry", func(t *testing.T) {
		i, err := NewIssuer("secret", 0)
		require.NoError(t, err)

		s, err := i.Issue(testUser)
		require.NoError(t, err)
		_, err = i.Verify(s)
		assert.NoError(t, err)
	})

	t.Run("OtherSecret", func(t *testing.T) {
		a, _ := NewIssuer("secret-a", time.Hour)
		b, _ := NewIssuer("secret-b", time.Hour)

		s, err := a.Issue(testUser)
		require.NoError(t, err)
		_, err = b.Verify(s)
		assert.ErrorIs(t, err, jwt.ErrTokenSignatureInvalid)
	})

	t.Run("OtherMethod", func(t *testing.T) {
		i, _ := NewIssuer("secret", time.Hour)

		s, err := jwt.NewWithClaims(jwt.SigningMethodHS512, jwt.RegisteredClaims{
			Issuer: issuer, Subject: "u1",
		}).SignedString([]byte("secret"))
		require.NoError(t, err)

		_, err = i.Verify(s)
		assert.Error(t, err)
	})

	t.Run("Garbage", func(t *testing.T) {
		i, _ := NewIssuer("secret", time.Hour)
		_, err := i.Verify("not.a.token")
		assert.Error(t, err)
	})
}
