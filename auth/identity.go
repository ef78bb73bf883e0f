package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
)

const identityToolkitURL = "https://identitytoolkit.googleapis.com/v1"

// Identity is the result of a successful sign-in or sign-up against the
// identity provider.
type Identity struct {
	UID          string
	Email        string
	IDToken      string
	RefreshToken string
}

// IdentityError carries the provider's machine code (EMAIL_NOT_FOUND,
// WEAK_PASSWORD, ...) alongside its raw message.
type IdentityError struct {
	Code    string
	Message string
}

func (e *IdentityError) Error() string {
	return fmt.Sprintf("identity provider: %s", e.Message)
}

// IdentityClient performs email/password operations against the Firebase
// Identity Toolkit REST API. Password verification and account storage are
// entirely the provider's problem.
type IdentityClient struct {
	apiKey  string
	baseURL string
	http    *http.Client
}

// NewIdentityClient creates a client using the project's web API key.
func NewIdentityClient(apiKey string) *IdentityClient {
	return &IdentityClient{
		apiKey:  apiKey,
		baseURL: identityToolkitURL,
		http:    &http.Client{Timeout: 15 * time.Second},
	}
}

// SignIn verifies an email/password pair and returns the identity.
func (c *IdentityClient) SignIn(ctx context.Context, email, password string) (*Identity, error) {
	return c.call(ctx, "accounts:signInWithPassword", email, password)
}

// SignUp creates a new email/password account and returns the identity.
func (c *IdentityClient) SignUp(ctx context.Context, email, password string) (*Identity, error) {
	return c.call(ctx, "accounts:signUp", email, password)
}

func (c *IdentityClient) call(ctx context.Context, endpoint, email, password string) (*Identity, error) {
	payload, err := json.Marshal(map[string]interface{}{
		"email":             email,
		"password":          password,
		"returnSecureToken": true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to encode identity request: %w", err)
	}

	url := fmt.Sprintf("%s/%s?key=%s", c.baseURL, endpoint, c.apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to build identity request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("identity request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var body struct {
			Error struct {
				Message string `json:"message"`
			} `json:"error"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&body); err != nil || body.Error.Message == "" {
			return nil, &IdentityError{Code: "UNKNOWN", Message: fmt.Sprintf("status %d", resp.StatusCode)}
		}
		return nil, &IdentityError{Code: errorCode(body.Error.Message), Message: body.Error.Message}
	}

	var body struct {
		LocalID      string `json:"localId"`
		Email        string `json:"email"`
		IDToken      string `json:"idToken"`
		RefreshToken string `json:"refreshToken"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("failed to decode identity response: %w", err)
	}

	return &Identity{
		UID:          body.LocalID,
		Email:        body.Email,
		IDToken:      body.IDToken,
		RefreshToken: body.RefreshToken,
	}, nil
}

// errorCode strips the detail the provider appends to some codes, e.g.
// "WEAK_PASSWORD : Password should be at least 6 characters".
func errorCode(message string) string {
	code := message
	if i := strings.IndexAny(code, " :"); i > 0 {
		code = code[:i]
	}
	return strings.TrimSpace(code)
}
