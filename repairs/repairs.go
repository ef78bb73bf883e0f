// Package repairs tracks equipment units reported broken or sent to
// repair, per trailer.
//
// State machine: rows are created as "brise" (manually with an explicit
// quantity, or by drag-and-drop with a fixed quantity of 1); an admin moves
// them to "reparation" with a PO number and a location, and back again.
// Any authorized user of the trailer can delete a row in either state.
package repairs

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jobrie31/trailers-contremaitres/models"
)

var (
	// ErrInvalidQuantity is returned when a manual quantity is missing,
	// zero or negative.
	ErrInvalidQuantity = errors.New("invalid quantity")
	// ErrInvalidSelection is returned when the equipment reference does
	// not resolve.
	ErrInvalidSelection = errors.New("invalid selection")
	// ErrNotFound is returned when the repair row does not exist.
	ErrNotFound = errors.New("repair row not found")
)

// Store is the slice of the document store the repair tracker needs.
type Store interface {
	Reparations(ctx context.Context, trailerID string) ([]models.Reparation, error)
	ReparationByID(ctx context.Context, trailerID, id string) (*models.Reparation, error)
	CreateReparation(ctx context.Context, trailerID string, r *models.Reparation) (string, error)
	// MoveReparationToRepair rewrites status, po, endroit and note and
	// stamps movedAt/movedByUid.
	MoveReparationToRepair(ctx context.Context, trailerID, id string, po, endroit, note *string, movedByUID string) error
	// MoveReparationToBroken rewrites status and stamps
	// movedAt/movedByUid; po, endroit and note stay on the document.
	MoveReparationToBroken(ctx context.Context, trailerID, id, movedByUID string) error
	DeleteReparation(ctx context.Context, trailerID, id string) error

	EquipementByID(ctx context.Context, id string) (*models.Equipement, error)
}

// Service implements the repair tracker operations.
type Service struct {
	store Store
}

// NewService returns a Service backed by store.
func NewService(store Store) *Service {
	return &Service{store: store}
}

// AddBroken creates a "brise" row from the manual form: a resolvable
// equipment and an explicit quantity of at least 1.
func (s *Service) AddBroken(ctx context.Context, trailerID, equipementID string, qty int, createdByUID string) (string, error) {
	if trailerID == "" || equipementID == "" {
		return "", ErrInvalidSelection
	}
	if qty < 1 {
		return "", ErrInvalidQuantity
	}

	eq, err := s.store.EquipementByID(ctx, equipementID)
	if err != nil {
		return "", fmt.Errorf("failed to load equipment: %w", err)
	}
	if eq == nil {
		return "", ErrInvalidSelection
	}

	nom := strings.TrimSpace(eq.Nom)
	if nom == "" {
		nom = "—"
	}

	id, err := s.store.CreateReparation(ctx, trailerID, &models.Reparation{
		Status:       models.RepairBroken,
		EquipementID: equipementID,
		Nom:          nom,
		Qty:          qty,
		Source:       models.RepairSourceManual,
		CreatedByUID: createdByUID,
	})
	if err != nil {
		return "", fmt.Errorf("failed to create repair row: %w", err)
	}
	return id, nil
}

// AddBrokenFromDrop creates a "brise" row from a dragged trailer item.
// The quantity is always 1 so a drop never breaks a whole stack by
// accident; the name travels with the drag payload since the equipment
// reference may be absent on legacy rows.
func (s *Service) AddBrokenFromDrop(ctx context.Context, trailerID, equipementID, nom, createdByUID string) (string, error) {
	if trailerID == "" {
		return "", ErrInvalidSelection
	}

	nom = strings.TrimSpace(nom)
	if nom == "" {
		nom = "—"
	}

	id, err := s.store.CreateReparation(ctx, trailerID, &models.Reparation{
		Status:       models.RepairBroken,
		EquipementID: strings.TrimSpace(equipementID),
		Nom:          nom,
		Qty:          1,
		Source:       models.RepairSourceDragDrop,
		CreatedByUID: createdByUID,
	})
	if err != nil {
		return "", fmt.Errorf("failed to create repair row: %w", err)
	}
	return id, nil
}

// MoveToRepair transitions a row to "reparation", attaching the PO number,
// location and note. Blank input is stored as null, never as the empty
// string, and movedAt/movedByUid are always stamped.
func (s *Service) MoveToRepair(ctx context.Context, trailerID, id, po, endroit, note, movedByUID string) error {
	row, err := s.store.ReparationByID(ctx, trailerID, id)
	if err != nil {
		return fmt.Errorf("failed to load repair row: %w", err)
	}
	if row == nil {
		return ErrNotFound
	}

	if err := s.store.MoveReparationToRepair(ctx, trailerID, id, nilIfBlank(po), nilIfBlank(endroit), nilIfBlank(note), movedByUID); err != nil {
		return fmt.Errorf("failed to move to repair: %w", err)
	}
	return nil
}

// MoveToBroken transitions a row back to "brise".
func (s *Service) MoveToBroken(ctx context.Context, trailerID, id, movedByUID string) error {
	row, err := s.store.ReparationByID(ctx, trailerID, id)
	if err != nil {
		return fmt.Errorf("failed to load repair row: %w", err)
	}
	if row == nil {
		return ErrNotFound
	}

	if err := s.store.MoveReparationToBroken(ctx, trailerID, id, movedByUID); err != nil {
		return fmt.Errorf("failed to move to broken: %w", err)
	}
	return nil
}

// Delete removes a row in either state.
func (s *Service) Delete(ctx context.Context, trailerID, id string) error {
	if err := s.store.DeleteReparation(ctx, trailerID, id); err != nil {
		return fmt.Errorf("failed to delete repair row: %w", err)
	}
	return nil
}

// Board is the per-trailer repair panel: broken rows and in-repair rows.
type Board struct {
	Brise      []models.Reparation `json:"brise"`
	Reparation []models.Reparation `json:"reparation"`
}

// Board partitions the trailer's rows by status.
func (s *Service) Board(ctx context.Context, trailerID string) (*Board, error) {
	rows, err := s.store.Reparations(ctx, trailerID)
	if err != nil {
		return nil, fmt.Errorf("failed to load repair rows: %w", err)
	}

	board := &Board{}
	for _, r := range rows {
		switch r.Status {
		case models.RepairBroken:
			board.Brise = append(board.Brise, r)
		case models.RepairInRepair:
			board.Reparation = append(board.Reparation, r)
		}
	}
	return board, nil
}

func nilIfBlank(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}
