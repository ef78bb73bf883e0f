package auth

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSignInSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Contains(t, r.URL.Path, "accounts:signInWithPassword")
		assert.Equal(t, "test-key", r.URL.Query().Get("key"))

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"localId":"uid-1","email":"chef@example.com","idToken":"tok","refreshToken":"ref"}`))
	}))
	defer srv.Close()

	client := NewIdentityClient("test-key")
	client.baseURL = srv.URL

	identity, err := client.SignIn(context.Background(), "chef@example.com", "secret")
	require.NoError(t, err)
	assert.Equal(t, "uid-1", identity.UID)
	assert.Equal(t, "chef@example.com", identity.Email)
	assert.Equal(t, "tok", identity.IDToken)
}

func TestSignInProviderError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error":{"message":"INVALID_LOGIN_CREDENTIALS"}}`))
	}))
	defer srv.Close()

	client := NewIdentityClient("test-key")
	client.baseURL = srv.URL

	_, err := client.SignIn(context.Background(), "chef@example.com", "wrong")
	var idErr *IdentityError
	require.True(t, errors.As(err, &idErr))
	assert.Equal(t, "INVALID_LOGIN_CREDENTIALS", idErr.Code)
}

func TestErrorCodeStripsDetail(t *testing.T) {
	assert.Equal(t, "WEAK_PASSWORD", errorCode("WEAK_PASSWORD : Password should be at least 6 characters"))
	assert.Equal(t, "EMAIL_EXISTS", errorCode("EMAIL_EXISTS"))
	assert.Equal(t, "", errorCode(""))
}
