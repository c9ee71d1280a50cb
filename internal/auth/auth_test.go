package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	fbauth "firebase.google.com/go/v4/auth"
	"github.com/anonto42/nano-feed/backend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestJWTManager_RoundTrip(t *testing.T) {
	t.Parallel()
	m := NewJWTManager("0123456789abcdef0123456789abcdef", 0)
	assert.Equal(t, DefaultTokenTTL, m.TTL())

	token, err := m.Generate(42)
	require.NoError(t, err)

	id, err := m.Verify(context.Background(), token)
	require.NoError(t, err)
	assert.Equal(t, uint(42), id)
}

func TestJWTManager_Rejects(t *testing.T) {
	t.Parallel()
	issuer := NewJWTManager("0123456789abcdef0123456789abcdef", time.Hour)
	good, err := issuer.Generate(7)
	require.NoError(t, err)

	expiredIssuer := NewJWTManager("0123456789abcdef0123456789abcdef", time.Hour)
	expiredIssuer.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	expired, err := expiredIssuer.Generate(7)
	require.NoError(t, err)

	zeroUser, err := issuer.Generate(0)
	require.NoError(t, err)

	tests := []struct {
		name     string
		verifier *JWTManager
		token    string
	}{
		{name: "wrong secret", verifier: NewJWTManager("another-secret-another-secret-xx", time.Hour), token: good},
		{name: "expired", verifier: issuer, token: expired},
		{name: "garbage", verifier: issuer, token: "not-a-jwt"},
		{name: "empty", verifier: issuer, token: ""},
		{name: "no user id", verifier: issuer, token: zeroUser},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := tt.verifier.Verify(context.Background(), tt.token)
			require.Error(t, err)
			assert.Equal(t, models.CodeUnauthorized, models.ErrorCode(err))
		})
	}
}

func TestBcryptHasher(t *testing.T) {
	t.Parallel()
	h := &BcryptHasher{Cost: bcrypt.MinCost}

	hash, err := h.Hash("secret123")
	require.NoError(t, err)
	assert.NotEqual(t, "secret123", hash)
	assert.True(t, h.Compare(hash, "secret123"))
	assert.False(t, h.Compare(hash, "secret124"))
	assert.False(t, h.Compare("", "secret123"))
}

type fakeIDTokens map[string]*fbauth.Token

func (f fakeIDTokens) VerifyIDToken(_ context.Context, idToken string) (*fbauth.Token, error) {
	if tok, ok := f[idToken]; ok {
		return tok, nil
	}
	return nil, errors.New("invalid id token")
}

func TestFirebaseVerifier(t *testing.T) {
	t.Parallel()
	tokens := fakeIDTokens{
		"known":   {UID: "uid-1", Claims: map[string]interface{}{"email": "a@example.com", "name": "Ada"}},
		"unknown": {UID: "uid-2", Claims: map[string]interface{}{}},
	}
	v := NewFirebaseVerifier(tokens, func(_ context.Context, uid string) (uint, error) {
		if uid == "uid-1" {
			return 11, nil
		}
		return 0, models.NewNotFoundError("User", uid)
	})

	id, err := v.Identify(context.Background(), "known")
	require.NoError(t, err)
	assert.Equal(t, &FirebaseIdentity{UID: "uid-1", Email: "a@example.com", Name: "Ada"}, id)

	userID, err := v.Verify(context.Background(), "known")
	require.NoError(t, err)
	assert.Equal(t, uint(11), userID)

	_, err = v.Verify(context.Background(), "unknown")
	assert.Equal(t, models.CodeUnauthorized, models.ErrorCode(err))

	_, err = v.Verify(context.Background(), "forged")
	assert.Equal(t, models.CodeUnauthorized, models.ErrorCode(err))
}

func TestChain(t *testing.T) {
	t.Parallel()
	jwtm := NewJWTManager("0123456789abcdef0123456789abcdef", time.Hour)
	fb := NewFirebaseVerifier(fakeIDTokens{"fb": {UID: "u"}}, func(context.Context, string) (uint, error) { return 5, nil })
	chain := Chain{jwtm, fb}

	token, err := jwtm.Generate(3)
	require.NoError(t, err)

	id, err := chain.Verify(context.Background(), token)
	require.NoError(t, err)
	assert.Equal(t, uint(3), id)

	id, err = chain.Verify(context.Background(), "fb")
	require.NoError(t, err)
	assert.Equal(t, uint(5), id)

	_, err = chain.Verify(context.Background(), "nope")
	assert.Equal(t, models.CodeUnauthorized, models.ErrorCode(err))

	_, err = Chain{}.Verify(context.Background(), "nope")
	assert.Equal(t, models.CodeUnauthorized, models.ErrorCode(err))
}
