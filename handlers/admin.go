package handlers

import (
	"errors"
	"log"
	"net/http"

	"github.com/jobrie31/trailers-contremaitres/access"
	"github.com/jobrie31/trailers-contremaitres/middleware"
)

type AdminHandler struct {
	access *access.Service
}

func NewAdminHandler(accessService *access.Service) *AdminHandler {
	return &AdminHandler{access: accessService}
}

func accessStatus(err error) (int, string) {
	switch {
	case errors.Is(err, access.ErrEmptyName):
		return http.StatusBadRequest, "Name is required"
	case errors.Is(err, access.ErrInvalidEmail):
		return http.StatusBadRequest, "A valid email is required"
	case errors.Is(err, access.ErrDuplicateEmail):
		return http.StatusConflict, "An invitation already exists for this email"
	case errors.Is(err, access.ErrAlreadyActivated):
		return http.StatusConflict, "This account is already activated"
	case errors.Is(err, access.ErrSelfChange):
		return http.StatusForbidden, "You cannot modify your own record"
	case errors.Is(err, access.ErrNotFound):
		return http.StatusNotFound, "Employee not found"
	default:
		return http.StatusInternalServerError, "Internal error"
	}
}

// ListEmployes returns all employee records sorted by name
func (h *AdminHandler) ListEmployes(w http.ResponseWriter, r *http.Request) {
	employes, err := h.access.List(r.Context())
	if err != nil {
		log.Printf("❌ Failed to get employees: %v", err)
		writeError(w, "Failed to retrieve employees", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"employes": employes,
		"count":    len(employes),
	})
}

type InviteRequest struct {
	Nom     string `json:"nom"`
	Email   string `json:"email"`
	IsAdmin bool   `json:"isAdmin"`
}

type InviteResponse struct {
	ID             string `json:"id"`
	ActivationCode string `json:"activationCode"`
}

// InviteEmploye creates a pending invitation. The activation code is
// returned exactly once; only its hash is stored.
func (h *AdminHandler) InviteEmploye(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUserFromContext(r.Context())
	if !ok {
		writeError(w, "User not found in context", http.StatusUnauthorized)
		return
	}

	var req InviteRequest
	if !decodeBody(w, r, &req) {
		return
	}

	id, code, err := h.access.Invite(r.Context(), req.Nom, req.Email, req.IsAdmin, user.UID)
	if err != nil {
		status, msg := accessStatus(err)
		if status == http.StatusInternalServerError {
			log.Printf("❌ Failed to invite employee: %v", err)
		}
		writeError(w, msg, status)
		return
	}

	log.Printf("✅ Invitation created: %s (admin: %t)", req.Email, req.IsAdmin)
	writeJSON(w, http.StatusCreated, InviteResponse{ID: id, ActivationCode: code})
}

// ResetActivationCode issues a fresh code for a still-pending invitation
func (h *AdminHandler) ResetActivationCode(w http.ResponseWriter, r *http.Request) {
	code, err := h.access.ResetActivationCode(r.Context(), r.PathValue("id"))
	if err != nil {
		status, msg := accessStatus(err)
		if status == http.StatusInternalServerError {
			log.Printf("❌ Failed to reset activation code: %v", err)
		}
		writeError(w, msg, status)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"activationCode": code})
}

type SetAdminRequest struct {
	IsAdmin bool `json:"isAdmin"`
}

// SetAdmin flips an employee's admin flag
func (h *AdminHandler) SetAdmin(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUserFromContext(r.Context())
	if !ok {
		writeError(w, "User not found in context", http.StatusUnauthorized)
		return
	}

	var req SetAdminRequest
	if !decodeBody(w, r, &req) {
		return
	}

	if err := h.access.SetAdmin(r.Context(), user.UID, r.PathValue("id"), req.IsAdmin); err != nil {
		status, msg := accessStatus(err)
		if status == http.StatusInternalServerError {
			log.Printf("❌ Failed to update employee: %v", err)
		}
		writeError(w, msg, status)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// DeleteEmploye removes an employee record and, for activated accounts,
// the matching user profile and personal trailer
func (h *AdminHandler) DeleteEmploye(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUserFromContext(r.Context())
	if !ok {
		writeError(w, "User not found in context", http.StatusUnauthorized)
		return
	}

	if err := h.access.Delete(r.Context(), user.UID, r.PathValue("id")); err != nil {
		status, msg := accessStatus(err)
		if status == http.StatusInternalServerError {
			log.Printf("❌ Failed to delete employee: %v", err)
		}
		writeError(w, msg, status)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
