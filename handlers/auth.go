package handlers

import (
	"errors"
	"log"
	"net/http"
	"strings"

	"github.com/jobrie31/trailers-contremaitres/access"
	"github.com/jobrie31/trailers-contremaitres/auth"
	"github.com/jobrie31/trailers-contremaitres/db"
	"github.com/jobrie31/trailers-contremaitres/i18n"
	"github.com/jobrie31/trailers-contremaitres/middleware"
)

type AuthHandler struct {
	db         *db.FirestoreDB
	jwtManager *auth.JWTManager
	identity   *auth.IdentityClient
	access     *access.Service
}

func NewAuthHandler(firestoreDB *db.FirestoreDB, jwtManager *auth.JWTManager, identity *auth.IdentityClient, accessService *access.Service) *AuthHandler {
	return &AuthHandler{
		db:         firestoreDB,
		jwtManager: jwtManager,
		identity:   identity,
		access:     accessService,
	}
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type SessionUser struct {
	UID       string  `json:"uid"`
	Email     string  `json:"email"`
	IsAdmin   bool    `json:"isAdmin"`
	TrailerID *string `json:"trailerId"`
}

type SessionResponse struct {
	Token        string      `json:"token"`
	RefreshToken string      `json:"refresh_token"`
	User         SessionUser `json:"user"`
}

// Login verifies credentials with the identity provider, runs the access
// gate and mints session tokens
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if !decodeBody(w, r, &req) {
		return
	}

	req.Email = strings.TrimSpace(req.Email)
	if req.Email == "" || req.Password == "" {
		writeError(w, i18n.AuthMessage("MISSING_FIELDS", "Courriel et mot de passe requis."), http.StatusBadRequest)
		return
	}

	identity, err := h.identity.SignIn(r.Context(), req.Email, req.Password)
	if err != nil {
		var idErr *auth.IdentityError
		if errors.As(err, &idErr) {
			log.Printf("Login failed for %s: %s", req.Email, idErr.Code)
			writeError(w, i18n.AuthMessage(idErr.Code, ""), http.StatusUnauthorized)
			return
		}
		log.Printf("❌ Identity provider unreachable: %v", err)
		writeError(w, "Authentication service unavailable", http.StatusBadGateway)
		return
	}

	h.openSession(w, r, identity)
}

type RegisterRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Code     string `json:"code"`
}

// Register completes an invitation: the activation code is checked against
// the pending employee record, the identity account is created, and the
// record is linked with its profile and trailer provisioned
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if !decodeBody(w, r, &req) {
		return
	}

	emp, err := h.access.VerifyActivation(r.Context(), req.Email, req.Code)
	if err != nil {
		switch {
		case errors.Is(err, access.ErrNoInvitation):
			writeError(w, "Aucune invitation pour ce courriel.", http.StatusNotFound)
		case errors.Is(err, access.ErrAlreadyActivated):
			writeError(w, "Ce compte est déjà activé.", http.StatusConflict)
		case errors.Is(err, access.ErrBadCode):
			writeError(w, "Code d'activation invalide.", http.StatusUnauthorized)
		case errors.Is(err, access.ErrInvalidEmail):
			writeError(w, "Courriel invalide.", http.StatusBadRequest)
		default:
			log.Printf("❌ Failed to verify activation for %s: %v", req.Email, err)
			writeError(w, "Failed to verify activation", http.StatusInternalServerError)
		}
		return
	}

	identity, err := h.identity.SignUp(r.Context(), strings.TrimSpace(req.Email), req.Password)
	if err != nil {
		var idErr *auth.IdentityError
		if errors.As(err, &idErr) {
			log.Printf("Registration failed for %s: %s", req.Email, idErr.Code)
			writeError(w, i18n.AuthMessage(idErr.Code, ""), http.StatusBadRequest)
			return
		}
		log.Printf("❌ Identity provider unreachable: %v", err)
		writeError(w, "Authentication service unavailable", http.StatusBadGateway)
		return
	}

	if err := h.access.CompleteActivation(r.Context(), emp, identity.UID); err != nil {
		log.Printf("❌ Failed to complete activation for %s: %v", req.Email, err)
		writeError(w, "Failed to complete activation", http.StatusInternalServerError)
		return
	}

	log.Printf("✅ Invitation activated: %s (admin: %t)", emp.Email, emp.IsAdmin)
	h.openSession(w, r, identity)
}

func (h *AuthHandler) openSession(w http.ResponseWriter, r *http.Request, identity *auth.Identity) {
	grant, err := h.access.Resolve(r.Context(), identity.UID, identity.Email)
	if err != nil {
		log.Printf("❌ Access gate failed for %s: %v", identity.Email, err)
		writeError(w, "Failed to resolve access", http.StatusInternalServerError)
		return
	}

	token, err := h.jwtManager.GenerateToken(identity.UID, identity.Email, grant.IsAdmin)
	if err != nil {
		log.Printf("Failed to generate token for %s: %v", identity.Email, err)
		writeError(w, "Failed to generate authentication token", http.StatusInternalServerError)
		return
	}

	refreshToken, err := h.jwtManager.GenerateRefreshToken(identity.UID, identity.Email, grant.IsAdmin)
	if err != nil {
		log.Printf("Failed to generate refresh token for %s: %v", identity.Email, err)
		writeError(w, "Failed to generate refresh token", http.StatusInternalServerError)
		return
	}

	if grant.Bootstrap {
		log.Printf("✅ Bootstrap admin created: %s", identity.Email)
	}
	log.Printf("✅ User logged in: %s (admin: %t)", identity.Email, grant.IsAdmin)

	writeJSON(w, http.StatusOK, SessionResponse{
		Token:        token,
		RefreshToken: refreshToken,
		User: SessionUser{
			UID:       identity.UID,
			Email:     identity.Email,
			IsAdmin:   grant.IsAdmin,
			TrailerID: grant.TrailerID,
		},
	})
}

type RefreshTokenRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type RefreshTokenResponse struct {
	Token string `json:"token"`
}

// RefreshToken handles token refresh
func (h *AuthHandler) RefreshToken(w http.ResponseWriter, r *http.Request) {
	var req RefreshTokenRequest
	if !decodeBody(w, r, &req) {
		return
	}

	claims, err := h.jwtManager.ValidateToken(req.RefreshToken)
	if err != nil {
		writeError(w, "Invalid or expired refresh token", http.StatusUnauthorized)
		return
	}

	profile, err := h.db.UserProfile(r.Context(), claims.UID)
	if err != nil || profile == nil {
		writeError(w, "User not found", http.StatusUnauthorized)
		return
	}

	token, err := h.jwtManager.GenerateToken(profile.UID, profile.Email, profile.IsAdmin)
	if err != nil {
		log.Printf("Failed to generate token for %s: %v", profile.Email, err)
		writeError(w, "Failed to generate authentication token", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, RefreshTokenResponse{Token: token})
}

// Me returns the caller's profile
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUserFromContext(r.Context())
	if !ok {
		writeError(w, "User not found in context", http.StatusUnauthorized)
		return
	}

	writeJSON(w, http.StatusOK, SessionUser{
		UID:       user.UID,
		Email:     user.Email,
		IsAdmin:   user.IsAdmin,
		TrailerID: user.TrailerID,
	})
}
