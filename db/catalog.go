package db

import (
	"context"
	"fmt"
	"log"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"

	"github.com/jobrie31/trailers-contremaitres/models"
)

// --- Category Operations ---

// decodeCategorie reads a category document. The "fields" array is a
// tagged union on old documents (bare strings mixed with {id, nom} maps),
// so it is decoded from the raw data instead of struct reflection.
func decodeCategorie(doc *firestore.DocumentSnapshot) (models.Categorie, error) {
	var cat models.Categorie
	if err := doc.DataTo(&cat); err != nil {
		return cat, err
	}
	cat.ID = doc.Ref.ID
	cat.Fields = models.DecodeFields(doc.Data()["fields"])
	return cat, nil
}

// Categories retrieves all global categories
func (db *FirestoreDB) Categories(ctx context.Context) ([]models.Categorie, error) {
	iter := db.client.Collection(collCategories).Documents(ctx)
	defer iter.Stop()

	var cats []models.Categorie
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to iterate categories: %w", err)
		}

		cat, err := decodeCategorie(doc)
		if err != nil {
			log.Printf("Warning: failed to parse category %s: %v", doc.Ref.ID, err)
			continue
		}
		cats = append(cats, cat)
	}

	return cats, nil
}

// GlobalCategories is the inventory-side name for Categories.
func (db *FirestoreDB) GlobalCategories(ctx context.Context) ([]models.Categorie, error) {
	return db.Categories(ctx)
}

// CategorieByID retrieves a category by ID; nil when it does not exist
func (db *FirestoreDB) CategorieByID(ctx context.Context, id string) (*models.Categorie, error) {
	doc, err := db.client.Collection(collCategories).Doc(id).Get(ctx)
	if err != nil {
		if isNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get category: %w", err)
	}

	cat, err := decodeCategorie(doc)
	if err != nil {
		return nil, fmt.Errorf("failed to parse category: %w", err)
	}
	return &cat, nil
}

// CreateCategorie creates a new category and returns its generated ID
func (db *FirestoreDB) CreateCategorie(ctx context.Context, cat *models.Categorie) (string, error) {
	ref := db.client.Collection(collCategories).NewDoc()
	_, err := ref.Set(ctx, map[string]interface{}{
		"nom":       cat.Nom,
		"icon":      cat.Icon,
		"color":     cat.Color,
		"fields":    models.EncodeFields(cat.Fields),
		"createdAt": firestore.ServerTimestamp,
	})
	if err != nil {
		return "", fmt.Errorf("failed to create category: %w", err)
	}
	return ref.ID, nil
}

// UpdateCategorieFields rewrites a category's field schema
func (db *FirestoreDB) UpdateCategorieFields(ctx context.Context, id string, fields []models.FieldDef) error {
	_, err := db.client.Collection(collCategories).Doc(id).Update(ctx, []firestore.Update{
		{Path: "fields", Value: models.EncodeFields(fields)},
	})
	if err != nil {
		return fmt.Errorf("failed to update category fields: %w", err)
	}
	return nil
}

// UpdateCategorieColor updates a category's display color
func (db *FirestoreDB) UpdateCategorieColor(ctx context.Context, id, color string) error {
	_, err := db.client.Collection(collCategories).Doc(id).Update(ctx, []firestore.Update{
		{Path: "color", Value: color},
	})
	if err != nil {
		return fmt.Errorf("failed to update category color: %w", err)
	}
	return nil
}

// UpdateCategorieIcon updates a category's emoji icon
func (db *FirestoreDB) UpdateCategorieIcon(ctx context.Context, id, icon string) error {
	_, err := db.client.Collection(collCategories).Doc(id).Update(ctx, []firestore.Update{
		{Path: "icon", Value: icon},
	})
	if err != nil {
		return fmt.Errorf("failed to update category icon: %w", err)
	}
	return nil
}

// DeleteCategorie deletes a category document
func (db *FirestoreDB) DeleteCategorie(ctx context.Context, id string) error {
	_, err := db.client.Collection(collCategories).Doc(id).Delete(ctx)
	if err != nil {
		return fmt.Errorf("failed to delete category: %w", err)
	}
	return nil
}

// --- Equipment Operations ---

// Equipements retrieves the whole equipment bank
func (db *FirestoreDB) Equipements(ctx context.Context) ([]models.Equipement, error) {
	iter := db.client.Collection(collEquipements).Documents(ctx)
	defer iter.Stop()

	var equipements []models.Equipement
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to iterate equipment: %w", err)
		}

		var eq models.Equipement
		if err := doc.DataTo(&eq); err != nil {
			log.Printf("Warning: failed to parse equipment %s: %v", doc.Ref.ID, err)
			continue
		}
		eq.ID = doc.Ref.ID
		equipements = append(equipements, eq)
	}

	return equipements, nil
}

// EquipementByID retrieves an equipment by ID; nil when it does not exist
func (db *FirestoreDB) EquipementByID(ctx context.Context, id string) (*models.Equipement, error) {
	doc, err := db.client.Collection(collEquipements).Doc(id).Get(ctx)
	if err != nil {
		if isNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get equipment: %w", err)
	}

	var eq models.Equipement
	if err := doc.DataTo(&eq); err != nil {
		return nil, fmt.Errorf("failed to parse equipment: %w", err)
	}
	eq.ID = doc.Ref.ID
	return &eq, nil
}

// CreateEquipement creates a new equipment and returns its generated ID
func (db *FirestoreDB) CreateEquipement(ctx context.Context, eq *models.Equipement) (string, error) {
	ref, _, err := db.client.Collection(collEquipements).Add(ctx, eq)
	if err != nil {
		return "", fmt.Errorf("failed to create equipment: %w", err)
	}
	return ref.ID, nil
}

// UpdateEquipement rewrites an equipment's editable fields, leaving
// createdAt untouched
func (db *FirestoreDB) UpdateEquipement(ctx context.Context, id string, eq *models.Equipement) error {
	_, err := db.client.Collection(collEquipements).Doc(id).Update(ctx, []firestore.Update{
		{Path: "nom", Value: eq.Nom},
		{Path: "categorieId", Value: eq.CategorieID},
		{Path: "categorie", Value: eq.Categorie},
		{Path: "details", Value: eq.Details},
		{Path: "unite", Value: eq.Unite},
	})
	if err != nil {
		return fmt.Errorf("failed to update equipment: %w", err)
	}
	return nil
}

// DeleteEquipement deletes an equipment document
func (db *FirestoreDB) DeleteEquipement(ctx context.Context, id string) error {
	_, err := db.client.Collection(collEquipements).Doc(id).Delete(ctx)
	if err != nil {
		return fmt.Errorf("failed to delete equipment: %w", err)
	}
	return nil
}
