package handlers

import (
	"errors"
	"log"
	"net/http"

	"github.com/jobrie31/trailers-contremaitres/middleware"
	"github.com/jobrie31/trailers-contremaitres/models"
	"github.com/jobrie31/trailers-contremaitres/repairs"
)

type RepairHandler struct {
	repairs *repairs.Service
}

func NewRepairHandler(repairService *repairs.Service) *RepairHandler {
	return &RepairHandler{repairs: repairService}
}

func repairStatus(err error) (int, string) {
	switch {
	case errors.Is(err, repairs.ErrInvalidQuantity):
		return http.StatusBadRequest, "Quantity must be at least 1"
	case errors.Is(err, repairs.ErrInvalidSelection):
		return http.StatusNotFound, "Equipment not found"
	case errors.Is(err, repairs.ErrNotFound):
		return http.StatusNotFound, "Repair row not found"
	default:
		return http.StatusInternalServerError, "Internal error"
	}
}

// GetBoard returns the trailer's repair panel, split by status
func (h *RepairHandler) GetBoard(w http.ResponseWriter, r *http.Request) {
	trailerID := requireTrailer(w, r)
	if trailerID == "" {
		return
	}

	board, err := h.repairs.Board(r.Context(), trailerID)
	if err != nil {
		log.Printf("❌ Failed to load repair board for %s: %v", trailerID, err)
		writeError(w, "Failed to load repair board", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, board)
}

type AddBrokenRequest struct {
	EquipementID string `json:"equipementId"`
	Qty          int    `json:"qty"`
}

// AddBroken creates a broken row from the manual form
func (h *RepairHandler) AddBroken(w http.ResponseWriter, r *http.Request) {
	trailerID := requireTrailer(w, r)
	if trailerID == "" {
		return
	}
	user, _ := middleware.GetUserFromContext(r.Context())

	var req AddBrokenRequest
	if !decodeBody(w, r, &req) {
		return
	}

	id, err := h.repairs.AddBroken(r.Context(), trailerID, req.EquipementID, req.Qty, user.UID)
	if err != nil {
		status, msg := repairStatus(err)
		if status == http.StatusInternalServerError {
			log.Printf("❌ Failed to add broken row for %s: %v", trailerID, err)
		}
		writeError(w, msg, status)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"id": id})
}

type DropBrokenRequest struct {
	EquipementID string `json:"equipementId"`
	Nom          string `json:"nom"`
}

// DropBroken creates a broken row from a dragged inventory item, always
// one unit
func (h *RepairHandler) DropBroken(w http.ResponseWriter, r *http.Request) {
	trailerID := requireTrailer(w, r)
	if trailerID == "" {
		return
	}
	user, _ := middleware.GetUserFromContext(r.Context())

	var req DropBrokenRequest
	if !decodeBody(w, r, &req) {
		return
	}

	id, err := h.repairs.AddBrokenFromDrop(r.Context(), trailerID, req.EquipementID, req.Nom, user.UID)
	if err != nil {
		status, msg := repairStatus(err)
		if status == http.StatusInternalServerError {
			log.Printf("❌ Failed to add dropped row for %s: %v", trailerID, err)
		}
		writeError(w, msg, status)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"id": id})
}

type MoveRepairRequest struct {
	Status  models.RepairStatus `json:"status"`
	Po      string              `json:"po"`
	Endroit string              `json:"endroit"`
	Note    string              `json:"note"`
}

// UpdateStatus moves a row between the broken and in-repair states.
// Only admins may move rows.
func (h *RepairHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	trailerID := requireTrailer(w, r)
	if trailerID == "" {
		return
	}

	user, _ := middleware.GetUserFromContext(r.Context())
	if !user.IsAdmin {
		writeError(w, "Insufficient permissions", http.StatusForbidden)
		return
	}

	var req MoveRepairRequest
	if !decodeBody(w, r, &req) {
		return
	}

	id := r.PathValue("repId")
	var err error
	switch req.Status {
	case models.RepairInRepair:
		err = h.repairs.MoveToRepair(r.Context(), trailerID, id, req.Po, req.Endroit, req.Note, user.UID)
	case models.RepairBroken:
		err = h.repairs.MoveToBroken(r.Context(), trailerID, id, user.UID)
	default:
		writeError(w, "Invalid status", http.StatusBadRequest)
		return
	}
	if err != nil {
		status, msg := repairStatus(err)
		if status == http.StatusInternalServerError {
			log.Printf("❌ Failed to move repair row for %s: %v", trailerID, err)
		}
		writeError(w, msg, status)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// DeleteRepair removes a row in either state
func (h *RepairHandler) DeleteRepair(w http.ResponseWriter, r *http.Request) {
	trailerID := requireTrailer(w, r)
	if trailerID == "" {
		return
	}

	if err := h.repairs.Delete(r.Context(), trailerID, r.PathValue("repId")); err != nil {
		log.Printf("❌ Failed to delete repair row for %s: %v", trailerID, err)
		writeError(w, "Failed to delete repair row", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
