// Package inventory keeps per-trailer category mirrors and quantity
// ledgers consistent with the global catalog: reconciliation of missing
// mirrors, merge-by-key quantity accumulation, transfers between trailers
// and bounded cleanup of whole categories.
package inventory

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jobrie31/trailers-contremaitres/models"
	"github.com/jobrie31/trailers-contremaitres/textsort"
)

var (
	// ErrInvalidQuantity is returned when a quantity is missing, zero or
	// negative.
	ErrInvalidQuantity = errors.New("invalid quantity")
	// ErrInsufficientQuantity is returned when a transfer asks for more
	// than the source row holds.
	ErrInsufficientQuantity = errors.New("insufficient quantity")
	// ErrInvalidSelection is returned when a trailer, category, item or
	// equipment reference does not resolve.
	ErrInvalidSelection = errors.New("invalid selection")
)

// deleteBatchSize bounds per-batch deletes well under the store's 500
// writes-per-batch limit.
const deleteBatchSize = 400

// Direction tells AdjustQuantity which way the delta goes.
type Direction string

const (
	DirectionAdd    Direction = "add"
	DirectionRemove Direction = "remove"
)

// ItemRef addresses one ledger row.
type ItemRef struct {
	TrailerID   string
	CategorieID string
	ItemID      string
}

// WriteKind discriminates ItemWrite operations.
type WriteKind int

const (
	WriteCreate WriteKind = iota
	WriteSetQty
	WriteDelete
)

// ItemWrite is one write of an atomic batch against the ledger.
type ItemWrite struct {
	Kind WriteKind
	Ref  ItemRef // Ref.ItemID is empty for creates
	Item *models.TrailerItem
	Qty  int
}

// Store is the slice of the document store the inventory service needs.
// ApplyItemWrites and CreateTrailerCategories must be atomic: every write
// commits or none does.
type Store interface {
	GlobalCategories(ctx context.Context) ([]models.Categorie, error)
	Equipements(ctx context.Context) ([]models.Equipement, error)
	EquipementByID(ctx context.Context, id string) (*models.Equipement, error)

	TrailerCategories(ctx context.Context, trailerID string) ([]models.TrailerCategorie, error)
	CreateTrailerCategories(ctx context.Context, trailerID string, cats []models.TrailerCategorie) error
	DeleteTrailerCategorie(ctx context.Context, trailerID, categorieID string) error

	TrailerItems(ctx context.Context, trailerID, categorieID string) ([]models.TrailerItem, error)
	ItemByID(ctx context.Context, ref ItemRef) (*models.TrailerItem, error)
	ItemByEquipement(ctx context.Context, trailerID, categorieID, equipementID string) (*models.TrailerItem, error)
	ApplyItemWrites(ctx context.Context, writes []ItemWrite) error
	DeleteItemsPage(ctx context.Context, trailerID, categorieID string, limit int) (int, error)
}

// Service implements the trailer inventory operations.
type Service struct {
	store Store
}

// NewService returns a Service backed by store.
func NewService(store Store) *Service {
	return &Service{store: store}
}

// EnsureCategories creates a mirror under the trailer for every global
// category it is missing, in one atomic batch. Safe to call repeatedly:
// the set difference is computed from a fresh read, so a second pass
// creates nothing. Two concurrent passes can still both observe a gap and
// double-create; readers tolerate that by keying on categorieId.
func (s *Service) EnsureCategories(ctx context.Context, trailerID string) error {
	if trailerID == "" {
		return ErrInvalidSelection
	}

	global, err := s.store.GlobalCategories(ctx)
	if err != nil {
		return fmt.Errorf("failed to load global categories: %w", err)
	}
	if len(global) == 0 {
		return nil
	}

	existing, err := s.store.TrailerCategories(ctx, trailerID)
	if err != nil {
		return fmt.Errorf("failed to load trailer categories: %w", err)
	}

	have := make(map[string]bool, len(existing))
	for _, c := range existing {
		if gid := strings.TrimSpace(c.CategorieID); gid != "" {
			have[gid] = true
		}
	}

	var missing []models.TrailerCategorie
	for _, g := range global {
		if have[strings.TrimSpace(g.ID)] {
			continue
		}
		missing = append(missing, models.TrailerCategorie{
			CategorieID: g.ID,
			Nom:         g.Nom,
			Source:      models.MirrorSourceAuto,
		})
	}
	if len(missing) == 0 {
		return nil
	}

	if err := s.store.CreateTrailerCategories(ctx, trailerID, missing); err != nil {
		return fmt.Errorf("failed to create missing categories: %w", err)
	}
	return nil
}

// AddEquipement puts qty units of an equipment into the trailer's mirror
// of the given global category. If the mirror is missing it is provisioned
// first; if a row for the equipment already exists its quantity is
// increased instead of creating a duplicate.
func (s *Service) AddEquipement(ctx context.Context, trailerID, globalCategorieID, equipementID string, qty int) error {
	if trailerID == "" || globalCategorieID == "" || equipementID == "" {
		return ErrInvalidSelection
	}
	if qty < 1 {
		return ErrInvalidQuantity
	}

	eq, err := s.store.EquipementByID(ctx, equipementID)
	if err != nil {
		return fmt.Errorf("failed to load equipment: %w", err)
	}
	if eq == nil {
		return ErrInvalidSelection
	}

	mirrorID, err := s.mirrorFor(ctx, trailerID, globalCategorieID)
	if err != nil {
		return err
	}
	if mirrorID == "" {
		if err := s.EnsureCategories(ctx, trailerID); err != nil {
			return err
		}
		if mirrorID, err = s.mirrorFor(ctx, trailerID, globalCategorieID); err != nil {
			return err
		}
		if mirrorID == "" {
			return ErrInvalidSelection
		}
	}

	existing, err := s.store.ItemByEquipement(ctx, trailerID, mirrorID, equipementID)
	if err != nil {
		return fmt.Errorf("failed to look up existing item: %w", err)
	}

	var write ItemWrite
	if existing != nil {
		write = ItemWrite{
			Kind: WriteSetQty,
			Ref:  ItemRef{TrailerID: trailerID, CategorieID: mirrorID, ItemID: existing.ID},
			Qty:  existing.Qty + qty,
		}
	} else {
		write = ItemWrite{
			Kind: WriteCreate,
			Ref:  ItemRef{TrailerID: trailerID, CategorieID: mirrorID},
			Item: &models.TrailerItem{
				EquipementID: equipementID,
				Nom:          eq.Nom,
				Unite:        eq.Unite,
				Qty:          qty,
			},
		}
	}

	if err := s.store.ApplyItemWrites(ctx, []ItemWrite{write}); err != nil {
		return fmt.Errorf("failed to add equipment: %w", err)
	}
	return nil
}

// AdjustQuantity applies a delta to a ledger row. The row is read once and
// the computed value written back without a transaction, so concurrent
// adjustments on the same row follow last-write-wins. A result of zero or
// below removes the row entirely.
func (s *Service) AdjustQuantity(ctx context.Context, ref ItemRef, delta int, direction Direction) error {
	if delta < 1 {
		return ErrInvalidQuantity
	}
	if direction != DirectionAdd && direction != DirectionRemove {
		return ErrInvalidSelection
	}

	item, err := s.store.ItemByID(ctx, ref)
	if err != nil {
		return fmt.Errorf("failed to load item: %w", err)
	}
	if item == nil {
		return ErrInvalidSelection
	}

	next := item.Qty + delta
	if direction == DirectionRemove {
		next = item.Qty - delta
	}

	var write ItemWrite
	if next <= 0 {
		write = ItemWrite{Kind: WriteDelete, Ref: ref}
	} else {
		write = ItemWrite{Kind: WriteSetQty, Ref: ref, Qty: next}
	}
	if err := s.store.ApplyItemWrites(ctx, []ItemWrite{write}); err != nil {
		return fmt.Errorf("failed to adjust quantity: %w", err)
	}
	return nil
}

// DeleteItem removes a ledger row regardless of its quantity.
func (s *Service) DeleteItem(ctx context.Context, ref ItemRef) error {
	if ref.TrailerID == "" || ref.CategorieID == "" || ref.ItemID == "" {
		return ErrInvalidSelection
	}
	if err := s.store.ApplyItemWrites(ctx, []ItemWrite{{Kind: WriteDelete, Ref: ref}}); err != nil {
		return fmt.Errorf("failed to delete item: %w", err)
	}
	return nil
}

// Transfer moves qty units from one trailer's ledger row into another
// trailer's mirror, in a single atomic batch: the source row shrinks or
// disappears and the destination row grows or is created, so the total
// quantity across both trailers is conserved.
func (s *Service) Transfer(ctx context.Context, from ItemRef, toTrailerID, toCategorieID string, qty int) error {
	if from.TrailerID == "" || from.CategorieID == "" || from.ItemID == "" || toTrailerID == "" || toCategorieID == "" {
		return ErrInvalidSelection
	}
	if qty < 1 {
		return ErrInvalidQuantity
	}

	item, err := s.store.ItemByID(ctx, from)
	if err != nil {
		return fmt.Errorf("failed to load source item: %w", err)
	}
	if item == nil {
		return ErrInvalidSelection
	}
	if qty > item.Qty {
		return ErrInsufficientQuantity
	}

	destCats, err := s.store.TrailerCategories(ctx, toTrailerID)
	if err != nil {
		return fmt.Errorf("failed to load destination categories: %w", err)
	}
	destOK := false
	for _, c := range destCats {
		if c.ID == toCategorieID {
			destOK = true
			break
		}
	}
	if !destOK {
		return ErrInvalidSelection
	}

	writes := make([]ItemWrite, 0, 2)

	remaining := item.Qty - qty
	if remaining <= 0 {
		writes = append(writes, ItemWrite{Kind: WriteDelete, Ref: from})
	} else {
		writes = append(writes, ItemWrite{Kind: WriteSetQty, Ref: from, Qty: remaining})
	}

	// Merge-by-key on the destination: legacy rows without an equipment
	// reference always create a fresh destination row.
	var dest *models.TrailerItem
	if item.EquipementID != "" {
		dest, err = s.store.ItemByEquipement(ctx, toTrailerID, toCategorieID, item.EquipementID)
		if err != nil {
			return fmt.Errorf("failed to look up destination item: %w", err)
		}
	}

	if dest != nil {
		writes = append(writes, ItemWrite{
			Kind: WriteSetQty,
			Ref:  ItemRef{TrailerID: toTrailerID, CategorieID: toCategorieID, ItemID: dest.ID},
			Qty:  dest.Qty + qty,
		})
	} else {
		writes = append(writes, ItemWrite{
			Kind: WriteCreate,
			Ref:  ItemRef{TrailerID: toTrailerID, CategorieID: toCategorieID},
			Item: &models.TrailerItem{
				EquipementID: item.EquipementID,
				Nom:          item.Nom,
				Unite:        item.Unite,
				Qty:          qty,
			},
		})
	}

	if err := s.store.ApplyItemWrites(ctx, writes); err != nil {
		return fmt.Errorf("failed to transfer item: %w", err)
	}
	return nil
}

// RemoveCategorie deletes every ledger row under a mirror in bounded
// batches, then the mirror document itself. A failure mid-way leaves a
// smaller category behind; re-invoking finishes the job.
func (s *Service) RemoveCategorie(ctx context.Context, trailerID, categorieID string) error {
	if trailerID == "" || categorieID == "" {
		return ErrInvalidSelection
	}
	for {
		n, err := s.store.DeleteItemsPage(ctx, trailerID, categorieID, deleteBatchSize)
		if err != nil {
			return fmt.Errorf("failed to delete items: %w", err)
		}
		if n == 0 {
			break
		}
	}
	if err := s.store.DeleteTrailerCategorie(ctx, trailerID, categorieID); err != nil {
		return fmt.Errorf("failed to delete category: %w", err)
	}
	return nil
}

func (s *Service) mirrorFor(ctx context.Context, trailerID, globalCategorieID string) (string, error) {
	cats, err := s.store.TrailerCategories(ctx, trailerID)
	if err != nil {
		return "", fmt.Errorf("failed to load trailer categories: %w", err)
	}
	gid := strings.TrimSpace(globalCategorieID)
	for _, c := range cats {
		if strings.TrimSpace(c.CategorieID) == gid {
			return c.ID, nil
		}
	}
	return "", nil
}

// Section is one category block of the grouped inventory view.
type Section struct {
	Mirror    models.TrailerCategorie `json:"mirror"`
	Categorie *models.Categorie       `json:"categorie"`
	Items     []models.TrailerItem    `json:"items"`
}

// Grouped is the derived per-trailer view: one section per mirror whose
// global category still resolves, plus a bucket for items whose category
// is gone. It is computed, never stored.
type Grouped struct {
	Sections      []Section            `json:"sections"`
	SansCategorie []models.TrailerItem `json:"sansCategorie"`
}

// Grouped partitions the trailer's ledger rows per category, sorted with
// the accent- and emoji-insensitive French ordering used everywhere else.
func (s *Service) Grouped(ctx context.Context, trailerID string) (*Grouped, error) {
	if trailerID == "" {
		return nil, ErrInvalidSelection
	}

	global, err := s.store.GlobalCategories(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load global categories: %w", err)
	}
	globalByID := make(map[string]models.Categorie, len(global))
	for _, g := range global {
		globalByID[g.ID] = g
	}

	mirrors, err := s.store.TrailerCategories(ctx, trailerID)
	if err != nil {
		return nil, fmt.Errorf("failed to load trailer categories: %w", err)
	}

	out := &Grouped{}
	for _, m := range mirrors {
		items, err := s.store.TrailerItems(ctx, trailerID, m.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to load items: %w", err)
		}
		textsort.SortBy(items, func(it models.TrailerItem) string { return it.Nom })

		if g, ok := globalByID[strings.TrimSpace(m.CategorieID)]; ok {
			cat := g
			out.Sections = append(out.Sections, Section{Mirror: m, Categorie: &cat, Items: items})
		} else {
			out.SansCategorie = append(out.SansCategorie, items...)
		}
	}

	textsort.SortBy(out.Sections, func(sec Section) string {
		if sec.Categorie != nil && sec.Categorie.Nom != "" {
			return sec.Categorie.Nom
		}
		return sec.Mirror.Nom
	})
	textsort.SortBy(out.SansCategorie, func(it models.TrailerItem) string { return it.Nom })
	return out, nil
}
