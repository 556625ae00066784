package token

import (
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"

	"railroad-api/internal/access"
)

func fixedClock(at time.Time) func() time.Time {
	return func() time.Time { return at }
}

func TestIssueAndVerify(t *testing.T) {
	t.Parallel()

	issuedAt := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	codec, err := NewCodec("test-secret", time.Hour, WithClock(fixedClock(issuedAt)))
	require.NoError(t, err)

	raw, err := codec.Issue("user-1", access.RoleEmployee)
	require.NoError(t, err)
	require.Equal(t, 2, strings.Count(raw, "."))

	claims, err := codec.Verify(raw)
	require.NoError(t, err)
	require.Equal(t, "user-1", claims.SubjectID)
	require.Equal(t, access.RoleEmployee, claims.Role)
	require.True(t, claims.IssuedAt.Equal(issuedAt))
	require.True(t, claims.ExpiresAt.Equal(issuedAt.Add(time.Hour)))
}

func TestIssueIsDeterministicForFixedClock(t *testing.T) {
	t.Parallel()

	clock := fixedClock(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))
	codec, err := NewCodec("test-secret", time.Hour, WithClock(clock))
	require.NoError(t, err)

	first, err := codec.Issue("user-1", access.RoleUser)
	require.NoError(t, err)
	second, err := codec.Issue("user-1", access.RoleUser)
	require.NoError(t, err)
	require.Equal(t, first, second)
}

func TestVerifyRejectsForeignSecret(t *testing.T) {
	t.Parallel()

	signer, err := NewCodec("secret-a", time.Hour)
	require.NoError(t, err)
	verifier, err := NewCodec("secret-b", time.Hour)
	require.NoError(t, err)

	for _, role := range []access.Role{access.RoleUser, access.RoleEmployee, access.RoleAdmin} {
		raw, issueErr := signer.Issue("user-1", role)
		require.NoError(t, issueErr)

		_, err = verifier.Verify(raw)
		require.ErrorIs(t, err, ErrBadSignature)
	}
}

func TestVerifyRejectsExpired(t *testing.T) {
	t.Parallel()

	past, err := NewCodec("test-secret", time.Hour, WithClock(fixedClock(time.Now().Add(-3*time.Hour))))
	require.NoError(t, err)
	raw, err := past.Issue("user-1", access.RoleAdmin)
	require.NoError(t, err)

	current, err := NewCodec("test-secret", time.Hour)
	require.NoError(t, err)
	_, err = current.Verify(raw)
	require.ErrorIs(t, err, ErrExpired)
	require.Equal(t, "expired", Reason(err))
}

func TestVerifyRejectsMalformed(t *testing.T) {
	t.Parallel()

	codec, err := NewCodec("test-secret", time.Hour)
	require.NoError(t, err)

	for _, raw := range []string{"", "not-a-token", "a.b.c"} {
		_, err = codec.Verify(raw)
		require.ErrorIs(t, err, ErrMalformed, raw)
	}
}

func TestVerifyRejectsOtherAlgorithms(t *testing.T) {
	t.Parallel()

	codec, err := NewCodec("test-secret", time.Hour)
	require.NoError(t, err)

	claims := jwt.MapClaims{
		"sub":  "user-1",
		"role": "admin",
		"exp":  time.Now().Add(time.Hour).Unix(),
	}

	hs512, err := jwt.NewWithClaims(jwt.SigningMethodHS512, claims).SignedString([]byte("test-secret"))
	require.NoError(t, err)
	_, err = codec.Verify(hs512)
	require.ErrorIs(t, err, ErrBadSignature)

	none, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)
	_, err = codec.Verify(none)
	require.Error(t, err)
}

func TestVerifyRequiresExpiry(t *testing.T) {
	t.Parallel()

	codec, err := NewCodec("test-secret", time.Hour)
	require.NoError(t, err)

	raw, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"sub": "user-1"}).SignedString([]byte("test-secret"))
	require.NoError(t, err)

	_, err = codec.Verify(raw)
	require.Error(t, err)
}

func TestCodecFailsClosedWithoutSecret(t *testing.T) {
	t.Parallel()

	_, err := NewCodec("   ", time.Hour)
	require.ErrorIs(t, err, ErrNoSecret)

	var zero Codec
	_, err = zero.Issue("user-1", access.RoleUser)
	require.ErrorIs(t, err, ErrNoSecret)
	_, err = zero.Verify("anything")
	require.ErrorIs(t, err, ErrNoSecret)

	var nilCodec *Codec
	_, err = nilCodec.Verify("anything")
	require.ErrorIs(t, err, ErrNoSecret)
}

func TestDefaultTTL(t *testing.T) {
	t.Parallel()

	codec, err := NewCodec("test-secret", 0)
	require.NoError(t, err)
	require.Equal(t, time.Hour, codec.TTL())
}
