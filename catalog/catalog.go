// Package catalog owns the global equipment taxonomy: categories with
// their custom field schemas and the equipment bank referencing them.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jobrie31/trailers-contremaitres/models"
	"github.com/jobrie31/trailers-contremaitres/textsort"
)

// DefaultColor is applied to categories created without a color.
const DefaultColor = "#4F46E5"

var (
	// ErrEmptyName is returned when a required name is blank.
	ErrEmptyName = errors.New("empty name")
	// ErrDuplicateName is returned when a category name collides
	// case-insensitively with an existing one.
	ErrDuplicateName = errors.New("duplicate category name")
	// ErrDuplicateField is returned when a field name collides
	// case-insensitively within one category.
	ErrDuplicateField = errors.New("duplicate field name")
	// ErrInvalidSelection is returned when a referenced category or
	// equipment does not resolve.
	ErrInvalidSelection = errors.New("invalid selection")
)

// Store is the slice of the document store the catalog service needs.
type Store interface {
	Categories(ctx context.Context) ([]models.Categorie, error)
	CategorieByID(ctx context.Context, id string) (*models.Categorie, error)
	CreateCategorie(ctx context.Context, cat *models.Categorie) (string, error)
	UpdateCategorieFields(ctx context.Context, id string, fields []models.FieldDef) error
	UpdateCategorieColor(ctx context.Context, id, color string) error
	UpdateCategorieIcon(ctx context.Context, id, icon string) error
	DeleteCategorie(ctx context.Context, id string) error

	Equipements(ctx context.Context) ([]models.Equipement, error)
	CreateEquipement(ctx context.Context, eq *models.Equipement) (string, error)
	UpdateEquipement(ctx context.Context, id string, eq *models.Equipement) error
	DeleteEquipement(ctx context.Context, id string) error
}

// Service implements the catalog operations.
type Service struct {
	store Store
}

// NewService returns a Service backed by store.
func NewService(store Store) *Service {
	return &Service{store: store}
}

func sameName(a, b string) bool {
	return strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
}

// CreateCategorie persists a new category. The name must not collide
// case-insensitively with an existing category; blank field names are
// dropped and duplicates within the initial list are collapsed.
func (s *Service) CreateCategorie(ctx context.Context, nom, icon, color string, fieldNames []string) (string, error) {
	nom = strings.TrimSpace(nom)
	if nom == "" {
		return "", ErrEmptyName
	}

	existing, err := s.store.Categories(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to load categories: %w", err)
	}
	for _, c := range existing {
		if sameName(c.Nom, nom) {
			return "", ErrDuplicateName
		}
	}

	var fields []models.FieldDef
	for _, fn := range fieldNames {
		fn = strings.TrimSpace(fn)
		if fn == "" {
			continue
		}
		dup := false
		for _, f := range fields {
			if sameName(f.Nom, fn) {
				dup = true
				break
			}
		}
		if dup {
			continue
		}
		fields = append(fields, models.FieldDef{ID: models.NewFieldID(), Nom: fn})
	}

	if strings.TrimSpace(color) == "" {
		color = DefaultColor
	}

	id, err := s.store.CreateCategorie(ctx, &models.Categorie{
		Nom:    nom,
		Icon:   strings.TrimSpace(icon),
		Color:  strings.TrimSpace(color),
		Fields: fields,
	})
	if err != nil {
		return "", fmt.Errorf("failed to create category: %w", err)
	}
	return id, nil
}

// AddField appends a named field to a category. Field names are unique
// case-insensitively within the category.
func (s *Service) AddField(ctx context.Context, categorieID, nom string) error {
	nom = strings.TrimSpace(nom)
	if nom == "" {
		return ErrEmptyName
	}

	cat, err := s.store.CategorieByID(ctx, categorieID)
	if err != nil {
		return fmt.Errorf("failed to load category: %w", err)
	}
	if cat == nil {
		return ErrInvalidSelection
	}
	for _, f := range cat.Fields {
		if sameName(f.Nom, nom) {
			return ErrDuplicateField
		}
	}

	next := append(append([]models.FieldDef(nil), cat.Fields...), models.FieldDef{ID: models.NewFieldID(), Nom: nom})
	if err := s.store.UpdateCategorieFields(ctx, categorieID, next); err != nil {
		return fmt.Errorf("failed to add field: %w", err)
	}
	return nil
}

// RemoveField drops a field from a category's schema. Values already saved
// under that field on existing equipment are left in place; they simply
// stop being displayed.
func (s *Service) RemoveField(ctx context.Context, categorieID, fieldID string) error {
	cat, err := s.store.CategorieByID(ctx, categorieID)
	if err != nil {
		return fmt.Errorf("failed to load category: %w", err)
	}
	if cat == nil {
		return ErrInvalidSelection
	}

	next := make([]models.FieldDef, 0, len(cat.Fields))
	for _, f := range cat.Fields {
		if f.ID != fieldID {
			next = append(next, f)
		}
	}
	if err := s.store.UpdateCategorieFields(ctx, categorieID, next); err != nil {
		return fmt.Errorf("failed to remove field: %w", err)
	}
	return nil
}

// UpdateColor changes a category's display color.
func (s *Service) UpdateColor(ctx context.Context, categorieID, color string) error {
	color = strings.TrimSpace(color)
	if color == "" {
		color = DefaultColor
	}
	if err := s.store.UpdateCategorieColor(ctx, categorieID, color); err != nil {
		return fmt.Errorf("failed to update color: %w", err)
	}
	return nil
}

// UpdateIcon changes a category's emoji icon.
func (s *Service) UpdateIcon(ctx context.Context, categorieID, icon string) error {
	if err := s.store.UpdateCategorieIcon(ctx, categorieID, strings.TrimSpace(icon)); err != nil {
		return fmt.Errorf("failed to update icon: %w", err)
	}
	return nil
}

// DeleteCategorie removes a category. Equipment referencing it is not
// touched; it surfaces in the "Sans catégorie" bucket from then on.
func (s *Service) DeleteCategorie(ctx context.Context, categorieID string) error {
	if err := s.store.DeleteCategorie(ctx, categorieID); err != nil {
		return fmt.Errorf("failed to delete category: %w", err)
	}
	return nil
}

// CreateEquipement saves a new equipment. Details are filtered to the
// category's current field ids and the legacy unit copy is derived from
// the field recognized as "Unité".
func (s *Service) CreateEquipement(ctx context.Context, nom, categorieID string, details map[string]string) (string, error) {
	eq, err := s.buildEquipement(ctx, nom, categorieID, details)
	if err != nil {
		return "", err
	}
	id, err := s.store.CreateEquipement(ctx, eq)
	if err != nil {
		return "", fmt.Errorf("failed to create equipment: %w", err)
	}
	return id, nil
}

// UpdateEquipement rewrites an equipment. Changing the category discards
// values for fields the new category does not define.
func (s *Service) UpdateEquipement(ctx context.Context, id, nom, categorieID string, details map[string]string) error {
	eq, err := s.buildEquipement(ctx, nom, categorieID, details)
	if err != nil {
		return err
	}
	if err := s.store.UpdateEquipement(ctx, id, eq); err != nil {
		return fmt.Errorf("failed to update equipment: %w", err)
	}
	return nil
}

// DeleteEquipement removes an equipment from the bank.
func (s *Service) DeleteEquipement(ctx context.Context, id string) error {
	if err := s.store.DeleteEquipement(ctx, id); err != nil {
		return fmt.Errorf("failed to delete equipment: %w", err)
	}
	return nil
}

func (s *Service) buildEquipement(ctx context.Context, nom, categorieID string, details map[string]string) (*models.Equipement, error) {
	nom = strings.TrimSpace(nom)
	if nom == "" {
		return nil, ErrEmptyName
	}
	if categorieID == "" {
		return nil, ErrInvalidSelection
	}

	cat, err := s.store.CategorieByID(ctx, categorieID)
	if err != nil {
		return nil, fmt.Errorf("failed to load category: %w", err)
	}
	if cat == nil {
		return nil, ErrInvalidSelection
	}

	cleaned := make(map[string]string, len(cat.Fields))
	for _, f := range cat.Fields {
		cleaned[f.ID] = details[f.ID]
	}

	return &models.Equipement{
		Nom:         nom,
		CategorieID: categorieID,
		Categorie:   cat.Nom,
		Details:     cleaned,
		Unite:       models.LegacyUnite(cat.Fields, cleaned),
	}, nil
}

// Group is one category tab of the grouped catalog view.
type Group struct {
	Categorie   models.Categorie    `json:"categorie"`
	Equipements []models.Equipement `json:"equipements"`
}

// Grouped is the derived catalog view: equipment partitioned per sorted
// category, plus the bucket of equipment whose category no longer
// resolves. SansCategorieFields lists the synthetic columns the bucket
// needs (legacy unit, stray detail values).
type Grouped struct {
	Groups              []Group             `json:"groups"`
	SansCategorie       []models.Equipement `json:"sansCategorie"`
	SansCategorieFields []models.FieldDef   `json:"sansCategorieFields"`
}

// Grouped computes the catalog view. The "Sans catégorie" bucket is purely
// derived; it is never materialized as a real category.
func (s *Service) Grouped(ctx context.Context) (*Grouped, error) {
	cats, err := s.store.Categories(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load categories: %w", err)
	}
	textsort.SortBy(cats, func(c models.Categorie) string { return c.Nom })

	equipements, err := s.store.Equipements(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load equipment: %w", err)
	}

	byCat := make(map[string][]models.Equipement, len(cats))
	known := make(map[string]bool, len(cats))
	for _, c := range cats {
		known[c.ID] = true
	}

	out := &Grouped{}
	for _, eq := range equipements {
		cid := strings.TrimSpace(eq.CategorieID)
		if cid != "" && known[cid] {
			byCat[cid] = append(byCat[cid], eq)
		} else {
			out.SansCategorie = append(out.SansCategorie, eq)
		}
	}

	for _, c := range cats {
		list := byCat[c.ID]
		textsort.SortBy(list, func(e models.Equipement) string { return e.Nom })
		out.Groups = append(out.Groups, Group{Categorie: c, Equipements: list})
	}
	textsort.SortBy(out.SansCategorie, func(e models.Equipement) string { return e.Nom })

	// Synthetic columns for the uncategorized bucket: a unit column when
	// any legacy unit survives, an info column when stray details do.
	hasUnite, hasInfos := false, false
	for _, eq := range out.SansCategorie {
		if strings.TrimSpace(eq.Unite) != "" {
			hasUnite = true
		}
		for _, v := range eq.Details {
			if strings.TrimSpace(v) != "" {
				hasInfos = true
				break
			}
		}
	}
	if hasUnite {
		out.SansCategorieFields = append(out.SansCategorieFields, models.FieldDef{ID: "legacy:unite", Nom: "Unité"})
	}
	if hasInfos {
		out.SansCategorieFields = append(out.SansCategorieFields, models.FieldDef{ID: "legacy:infos", Nom: "Infos"})
	}

	return out, nil
}
