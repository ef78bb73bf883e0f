package handlers

import (
	"encoding/csv"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/jobrie31/trailers-contremaitres/inventory"
)

type ExportHandler struct {
	inventory *inventory.Service
}

func NewExportHandler(inventoryService *inventory.Service) *ExportHandler {
	return &ExportHandler{inventory: inventoryService}
}

// ExportInventory exports a trailer's grouped inventory to CSV
func (h *ExportHandler) ExportInventory(w http.ResponseWriter, r *http.Request) {
	trailerID := requireTrailer(w, r)
	if trailerID == "" {
		return
	}

	view, err := h.inventory.Grouped(r.Context(), trailerID)
	if err != nil {
		log.Printf("❌ Failed to load inventory for %s: %v", trailerID, err)
		writeError(w, "Failed to retrieve inventory", http.StatusInternalServerError)
		return
	}

	// Set headers for CSV download
	timestamp := time.Now().Format("2006-01-02_15-04-05")
	filename := fmt.Sprintf("inventaire_%s_%s.csv", trailerID, timestamp)
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%s", filename))

	writer := csv.NewWriter(w)
	defer writer.Flush()

	header := []string{"Catégorie", "Équipement", "Unité", "Quantité"}
	if err := writer.Write(header); err != nil {
		log.Printf("❌ Failed to write CSV header: %v", err)
		return
	}

	for _, section := range view.Sections {
		nom := section.Mirror.Nom
		if section.Categorie != nil && section.Categorie.Nom != "" {
			nom = section.Categorie.Nom
		}
		for _, item := range section.Items {
			row := []string{nom, item.Nom, item.Unite, strconv.Itoa(item.Qty)}
			if err := writer.Write(row); err != nil {
				log.Printf("❌ Failed to write CSV row: %v", err)
				return
			}
		}
	}
	for _, item := range view.SansCategorie {
		row := []string{"Sans catégorie", item.Nom, item.Unite, strconv.Itoa(item.Qty)}
		if err := writer.Write(row); err != nil {
			log.Printf("❌ Failed to write CSV row: %v", err)
			return
		}
	}

	log.Printf("✅ Exported inventory for trailer %s", trailerID)
}
