package handlers

import (
	"errors"
	"log"
	"net/http"

	"github.com/jobrie31/trailers-contremaitres/catalog"
)

type CatalogHandler struct {
	catalog *catalog.Service
}

func NewCatalogHandler(catalogService *catalog.Service) *CatalogHandler {
	return &CatalogHandler{catalog: catalogService}
}

func catalogStatus(err error) (int, string) {
	switch {
	case errors.Is(err, catalog.ErrEmptyName):
		return http.StatusBadRequest, "Name is required"
	case errors.Is(err, catalog.ErrDuplicateName):
		return http.StatusConflict, "A category with this name already exists"
	case errors.Is(err, catalog.ErrDuplicateField):
		return http.StatusConflict, "A field with this name already exists"
	case errors.Is(err, catalog.ErrInvalidSelection):
		return http.StatusNotFound, "Category or equipment not found"
	default:
		return http.StatusInternalServerError, "Internal error"
	}
}

// GetCatalog returns the grouped catalog view
func (h *CatalogHandler) GetCatalog(w http.ResponseWriter, r *http.Request) {
	view, err := h.catalog.Grouped(r.Context())
	if err != nil {
		log.Printf("❌ Failed to load catalog: %v", err)
		writeError(w, "Failed to load catalog", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

type CreateCategorieRequest struct {
	Nom    string   `json:"nom"`
	Icon   string   `json:"icon"`
	Color  string   `json:"color"`
	Fields []string `json:"fields"`
}

// CreateCategorie creates a global category
func (h *CatalogHandler) CreateCategorie(w http.ResponseWriter, r *http.Request) {
	var req CreateCategorieRequest
	if !decodeBody(w, r, &req) {
		return
	}

	id, err := h.catalog.CreateCategorie(r.Context(), req.Nom, req.Icon, req.Color, req.Fields)
	if err != nil {
		status, msg := catalogStatus(err)
		if status == http.StatusInternalServerError {
			log.Printf("❌ Failed to create category: %v", err)
		}
		writeError(w, msg, status)
		return
	}

	log.Printf("✅ Category created: %s (%s)", req.Nom, id)
	writeJSON(w, http.StatusCreated, map[string]string{"id": id})
}

type FieldRequest struct {
	Nom string `json:"nom"`
}

// AddField appends a field to a category's schema
func (h *CatalogHandler) AddField(w http.ResponseWriter, r *http.Request) {
	var req FieldRequest
	if !decodeBody(w, r, &req) {
		return
	}

	if err := h.catalog.AddField(r.Context(), r.PathValue("id"), req.Nom); err != nil {
		status, msg := catalogStatus(err)
		if status == http.StatusInternalServerError {
			log.Printf("❌ Failed to add field: %v", err)
		}
		writeError(w, msg, status)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// RemoveField drops a field from a category's schema
func (h *CatalogHandler) RemoveField(w http.ResponseWriter, r *http.Request) {
	if err := h.catalog.RemoveField(r.Context(), r.PathValue("id"), r.PathValue("fieldId")); err != nil {
		status, msg := catalogStatus(err)
		if status == http.StatusInternalServerError {
			log.Printf("❌ Failed to remove field: %v", err)
		}
		writeError(w, msg, status)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type ColorRequest struct {
	Color string `json:"color"`
}

// UpdateColor changes a category's display color
func (h *CatalogHandler) UpdateColor(w http.ResponseWriter, r *http.Request) {
	var req ColorRequest
	if !decodeBody(w, r, &req) {
		return
	}

	if err := h.catalog.UpdateColor(r.Context(), r.PathValue("id"), req.Color); err != nil {
		status, msg := catalogStatus(err)
		if status == http.StatusInternalServerError {
			log.Printf("❌ Failed to update color: %v", err)
		}
		writeError(w, msg, status)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type IconRequest struct {
	Icon string `json:"icon"`
}

// UpdateIcon changes a category's emoji icon
func (h *CatalogHandler) UpdateIcon(w http.ResponseWriter, r *http.Request) {
	var req IconRequest
	if !decodeBody(w, r, &req) {
		return
	}

	if err := h.catalog.UpdateIcon(r.Context(), r.PathValue("id"), req.Icon); err != nil {
		status, msg := catalogStatus(err)
		if status == http.StatusInternalServerError {
			log.Printf("❌ Failed to update icon: %v", err)
		}
		writeError(w, msg, status)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// DeleteCategorie removes a global category. Equipment referencing it
// falls into the "Sans catégorie" bucket.
func (h *CatalogHandler) DeleteCategorie(w http.ResponseWriter, r *http.Request) {
	if err := h.catalog.DeleteCategorie(r.Context(), r.PathValue("id")); err != nil {
		log.Printf("❌ Failed to delete category: %v", err)
		writeError(w, "Failed to delete category", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type EquipementRequest struct {
	Nom         string            `json:"nom"`
	CategorieID string            `json:"categorieId"`
	Details     map[string]string `json:"details"`
}

// CreateEquipement adds an equipment to the bank
func (h *CatalogHandler) CreateEquipement(w http.ResponseWriter, r *http.Request) {
	var req EquipementRequest
	if !decodeBody(w, r, &req) {
		return
	}

	id, err := h.catalog.CreateEquipement(r.Context(), req.Nom, req.CategorieID, req.Details)
	if err != nil {
		status, msg := catalogStatus(err)
		if status == http.StatusInternalServerError {
			log.Printf("❌ Failed to create equipment: %v", err)
		}
		writeError(w, msg, status)
		return
	}

	log.Printf("✅ Equipment created: %s (%s)", req.Nom, id)
	writeJSON(w, http.StatusCreated, map[string]string{"id": id})
}

// UpdateEquipement rewrites an equipment
func (h *CatalogHandler) UpdateEquipement(w http.ResponseWriter, r *http.Request) {
	var req EquipementRequest
	if !decodeBody(w, r, &req) {
		return
	}

	if err := h.catalog.UpdateEquipement(r.Context(), r.PathValue("id"), req.Nom, req.CategorieID, req.Details); err != nil {
		status, msg := catalogStatus(err)
		if status == http.StatusInternalServerError {
			log.Printf("❌ Failed to update equipment: %v", err)
		}
		writeError(w, msg, status)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// DeleteEquipement removes an equipment from the bank
func (h *CatalogHandler) DeleteEquipement(w http.ResponseWriter, r *http.Request) {
	if err := h.catalog.DeleteEquipement(r.Context(), r.PathValue("id")); err != nil {
		log.Printf("❌ Failed to delete equipment: %v", err)
		writeError(w, "Failed to delete equipment", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
