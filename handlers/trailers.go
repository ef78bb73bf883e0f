package handlers

import (
	"errors"
	"log"
	"net/http"
	"strings"

	"github.com/jobrie31/trailers-contremaitres/db"
	"github.com/jobrie31/trailers-contremaitres/inventory"
	"github.com/jobrie31/trailers-contremaitres/middleware"
	"github.com/jobrie31/trailers-contremaitres/models"
	"github.com/jobrie31/trailers-contremaitres/textsort"
)

type TrailerHandler struct {
	db        *db.FirestoreDB
	inventory *inventory.Service
}

func NewTrailerHandler(firestoreDB *db.FirestoreDB, inventoryService *inventory.Service) *TrailerHandler {
	return &TrailerHandler{
		db:        firestoreDB,
		inventory: inventoryService,
	}
}

func inventoryStatus(err error) (int, string) {
	switch {
	case errors.Is(err, inventory.ErrInvalidQuantity):
		return http.StatusBadRequest, "Quantity must be at least 1"
	case errors.Is(err, inventory.ErrInsufficientQuantity):
		return http.StatusConflict, "Not enough quantity to transfer"
	case errors.Is(err, inventory.ErrInvalidSelection):
		return http.StatusNotFound, "Trailer, category or item not found"
	default:
		return http.StatusInternalServerError, "Internal error"
	}
}

// requireTrailer resolves the trailer from the path and checks the caller
// may touch it. Returns "" after writing the error response.
func requireTrailer(w http.ResponseWriter, r *http.Request) string {
	user, ok := middleware.GetUserFromContext(r.Context())
	if !ok {
		writeError(w, "User not found in context", http.StatusUnauthorized)
		return ""
	}
	trailerID := r.PathValue("id")
	if trailerID == "" {
		writeError(w, "Trailer ID is required", http.StatusBadRequest)
		return ""
	}
	if !middleware.CanAccessTrailer(user, trailerID) {
		writeError(w, "Insufficient permissions", http.StatusForbidden)
		return ""
	}
	return trailerID
}

// ListTrailers returns the trailers the caller may see: all of them for
// admins, only their own for foremen
func (h *TrailerHandler) ListTrailers(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUserFromContext(r.Context())
	if !ok {
		writeError(w, "User not found in context", http.StatusUnauthorized)
		return
	}

	trailers, err := h.db.Trailers(r.Context())
	if err != nil {
		log.Printf("❌ Failed to get trailers: %v", err)
		writeError(w, "Failed to retrieve trailers", http.StatusInternalServerError)
		return
	}

	visible := make([]models.Trailer, 0, len(trailers))
	for _, t := range trailers {
		if middleware.CanAccessTrailer(user, t.ID) {
			visible = append(visible, t)
		}
	}
	textsort.SortBy(visible, func(t models.Trailer) string { return t.TrailerNom })

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"trailers": visible,
		"count":    len(visible),
	})
}

type TrailerRequest struct {
	TrailerNom string `json:"trailerNom"`
	OwnerUID   string `json:"ownerUid"`
}

// CreateTrailer creates a trailer (admin)
func (h *TrailerHandler) CreateTrailer(w http.ResponseWriter, r *http.Request) {
	var req TrailerRequest
	if !decodeBody(w, r, &req) {
		return
	}

	req.TrailerNom = strings.TrimSpace(req.TrailerNom)
	if req.TrailerNom == "" {
		writeError(w, "Trailer name is required", http.StatusBadRequest)
		return
	}

	id, err := h.db.CreateTrailer(r.Context(), &models.Trailer{
		TrailerNom: req.TrailerNom,
		OwnerUID:   req.OwnerUID,
	})
	if err != nil {
		log.Printf("❌ Failed to create trailer: %v", err)
		writeError(w, "Failed to create trailer", http.StatusInternalServerError)
		return
	}

	log.Printf("✅ Trailer created: %s (%s)", req.TrailerNom, id)
	writeJSON(w, http.StatusCreated, map[string]string{"id": id})
}

// RenameTrailer renames a trailer (admin)
func (h *TrailerHandler) RenameTrailer(w http.ResponseWriter, r *http.Request) {
	var req TrailerRequest
	if !decodeBody(w, r, &req) {
		return
	}

	req.TrailerNom = strings.TrimSpace(req.TrailerNom)
	if req.TrailerNom == "" {
		writeError(w, "Trailer name is required", http.StatusBadRequest)
		return
	}

	if err := h.db.UpdateTrailerNom(r.Context(), r.PathValue("id"), req.TrailerNom); err != nil {
		log.Printf("❌ Failed to rename trailer: %v", err)
		writeError(w, "Failed to rename trailer", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// DeleteTrailer deletes a trailer document (admin)
func (h *TrailerHandler) DeleteTrailer(w http.ResponseWriter, r *http.Request) {
	if err := h.db.DeleteTrailer(r.Context(), r.PathValue("id")); err != nil {
		log.Printf("❌ Failed to delete trailer: %v", err)
		writeError(w, "Failed to delete trailer", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// SyncCategories reconciles the trailer's mirrors with the global
// categories
func (h *TrailerHandler) SyncCategories(w http.ResponseWriter, r *http.Request) {
	trailerID := requireTrailer(w, r)
	if trailerID == "" {
		return
	}

	if err := h.inventory.EnsureCategories(r.Context(), trailerID); err != nil {
		status, msg := inventoryStatus(err)
		if status == http.StatusInternalServerError {
			log.Printf("❌ Failed to sync categories for %s: %v", trailerID, err)
		}
		writeError(w, msg, status)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GetInventory reconciles the mirrors and returns the grouped inventory
// view
func (h *TrailerHandler) GetInventory(w http.ResponseWriter, r *http.Request) {
	trailerID := requireTrailer(w, r)
	if trailerID == "" {
		return
	}

	if err := h.inventory.EnsureCategories(r.Context(), trailerID); err != nil {
		log.Printf("Warning: failed to sync categories for %s: %v", trailerID, err)
	}

	view, err := h.inventory.Grouped(r.Context(), trailerID)
	if err != nil {
		status, msg := inventoryStatus(err)
		if status == http.StatusInternalServerError {
			log.Printf("❌ Failed to load inventory for %s: %v", trailerID, err)
		}
		writeError(w, msg, status)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

type AddItemRequest struct {
	CategorieID  string `json:"categorieId"`
	EquipementID string `json:"equipementId"`
	Qty          int    `json:"qty"`
}

// AddItem puts units of an equipment into the trailer's mirror of a
// global category
func (h *TrailerHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	trailerID := requireTrailer(w, r)
	if trailerID == "" {
		return
	}

	var req AddItemRequest
	if !decodeBody(w, r, &req) {
		return
	}

	if err := h.inventory.AddEquipement(r.Context(), trailerID, req.CategorieID, req.EquipementID, req.Qty); err != nil {
		status, msg := inventoryStatus(err)
		if status == http.StatusInternalServerError {
			log.Printf("❌ Failed to add item for %s: %v", trailerID, err)
		}
		writeError(w, msg, status)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type AdjustItemRequest struct {
	Delta     int    `json:"delta"`
	Direction string `json:"direction"`
}

// AdjustItem applies a quantity delta to one ledger row; reaching zero
// removes the row
func (h *TrailerHandler) AdjustItem(w http.ResponseWriter, r *http.Request) {
	trailerID := requireTrailer(w, r)
	if trailerID == "" {
		return
	}

	var req AdjustItemRequest
	if !decodeBody(w, r, &req) {
		return
	}

	ref := inventory.ItemRef{
		TrailerID:   trailerID,
		CategorieID: r.PathValue("catId"),
		ItemID:      r.PathValue("itemId"),
	}
	if err := h.inventory.AdjustQuantity(r.Context(), ref, req.Delta, inventory.Direction(req.Direction)); err != nil {
		status, msg := inventoryStatus(err)
		if status == http.StatusInternalServerError {
			log.Printf("❌ Failed to adjust item for %s: %v", trailerID, err)
		}
		writeError(w, msg, status)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// DeleteItem removes one ledger row regardless of quantity
func (h *TrailerHandler) DeleteItem(w http.ResponseWriter, r *http.Request) {
	trailerID := requireTrailer(w, r)
	if trailerID == "" {
		return
	}

	ref := inventory.ItemRef{
		TrailerID:   trailerID,
		CategorieID: r.PathValue("catId"),
		ItemID:      r.PathValue("itemId"),
	}
	if err := h.inventory.DeleteItem(r.Context(), ref); err != nil {
		status, msg := inventoryStatus(err)
		if status == http.StatusInternalServerError {
			log.Printf("❌ Failed to delete item for %s: %v", trailerID, err)
		}
		writeError(w, msg, status)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type TransferRequest struct {
	FromCategorieID string `json:"fromCategorieId"`
	ItemID          string `json:"itemId"`
	ToTrailerID     string `json:"toTrailerId"`
	ToCategorieID   string `json:"toCategorieId"`
	Qty             int    `json:"qty"`
}

// TransferItem moves quantity between two trailers in one atomic batch
// (admin)
func (h *TrailerHandler) TransferItem(w http.ResponseWriter, r *http.Request) {
	trailerID := r.PathValue("id")

	var req TransferRequest
	if !decodeBody(w, r, &req) {
		return
	}

	from := inventory.ItemRef{
		TrailerID:   trailerID,
		CategorieID: req.FromCategorieID,
		ItemID:      req.ItemID,
	}
	if err := h.inventory.Transfer(r.Context(), from, req.ToTrailerID, req.ToCategorieID, req.Qty); err != nil {
		status, msg := inventoryStatus(err)
		if status == http.StatusInternalServerError {
			log.Printf("❌ Failed to transfer item from %s: %v", trailerID, err)
		}
		writeError(w, msg, status)
		return
	}

	log.Printf("✅ Transferred %d unit(s) from trailer %s to %s", req.Qty, trailerID, req.ToTrailerID)
	w.WriteHeader(http.StatusNoContent)
}

// RemoveCategorie deletes a mirror and all its ledger rows in bounded
// batches
func (h *TrailerHandler) RemoveCategorie(w http.ResponseWriter, r *http.Request) {
	trailerID := requireTrailer(w, r)
	if trailerID == "" {
		return
	}

	if err := h.inventory.RemoveCategorie(r.Context(), trailerID, r.PathValue("catId")); err != nil {
		status, msg := inventoryStatus(err)
		if status == http.StatusInternalServerError {
			log.Printf("❌ Failed to remove category for %s: %v", trailerID, err)
		}
		writeError(w, msg, status)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
