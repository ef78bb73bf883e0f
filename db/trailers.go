package db

import (
	"context"
	"fmt"
	"log"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"

	"github.com/jobrie31/trailers-contremaitres/inventory"
	"github.com/jobrie31/trailers-contremaitres/models"
)

func (db *FirestoreDB) trailerRef(trailerID string) *firestore.DocumentRef {
	return db.client.Collection(collTrailers).Doc(trailerID)
}

func (db *FirestoreDB) itemsRef(trailerID, categorieID string) *firestore.CollectionRef {
	return db.trailerRef(trailerID).Collection(subCategories).Doc(categorieID).Collection(subItems)
}

// --- Trailer Operations ---

// Trailers retrieves all trailers
func (db *FirestoreDB) Trailers(ctx context.Context) ([]models.Trailer, error) {
	iter := db.client.Collection(collTrailers).Documents(ctx)
	defer iter.Stop()

	var trailers []models.Trailer
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to iterate trailers: %w", err)
		}

		var t models.Trailer
		if err := doc.DataTo(&t); err != nil {
			log.Printf("Warning: failed to parse trailer %s: %v", doc.Ref.ID, err)
			continue
		}
		t.ID = doc.Ref.ID
		trailers = append(trailers, t)
	}

	return trailers, nil
}

// TrailerByID retrieves a trailer by ID; nil when it does not exist
func (db *FirestoreDB) TrailerByID(ctx context.Context, id string) (*models.Trailer, error) {
	doc, err := db.trailerRef(id).Get(ctx)
	if err != nil {
		if isNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get trailer: %w", err)
	}

	var t models.Trailer
	if err := doc.DataTo(&t); err != nil {
		return nil, fmt.Errorf("failed to parse trailer: %w", err)
	}
	t.ID = doc.Ref.ID
	return &t, nil
}

// CreateTrailer creates a trailer with a generated ID
func (db *FirestoreDB) CreateTrailer(ctx context.Context, t *models.Trailer) (string, error) {
	ref, _, err := db.client.Collection(collTrailers).Add(ctx, t)
	if err != nil {
		return "", fmt.Errorf("failed to create trailer: %w", err)
	}
	return ref.ID, nil
}

// CreateTrailerWithID creates a trailer at a caller-chosen ID. Used for
// personal trailers, which live at trailers/{uid}.
func (db *FirestoreDB) CreateTrailerWithID(ctx context.Context, id string, t *models.Trailer) error {
	if _, err := db.trailerRef(id).Set(ctx, t); err != nil {
		return fmt.Errorf("failed to create trailer: %w", err)
	}
	return nil
}

// UpdateTrailerNom renames a trailer
func (db *FirestoreDB) UpdateTrailerNom(ctx context.Context, id, nom string) error {
	_, err := db.trailerRef(id).Update(ctx, []firestore.Update{
		{Path: "trailerNom", Value: nom},
	})
	if err != nil {
		return fmt.Errorf("failed to rename trailer: %w", err)
	}
	return nil
}

// DeleteTrailer deletes the trailer document. Subcollections are not
// cascaded here; orphaned mirrors are invisible once the parent is gone.
func (db *FirestoreDB) DeleteTrailer(ctx context.Context, id string) error {
	_, err := db.trailerRef(id).Delete(ctx)
	if err != nil {
		return fmt.Errorf("failed to delete trailer: %w", err)
	}
	return nil
}

// --- Trailer Category Mirrors ---

// TrailerCategories retrieves a trailer's category mirrors
func (db *FirestoreDB) TrailerCategories(ctx context.Context, trailerID string) ([]models.TrailerCategorie, error) {
	iter := db.trailerRef(trailerID).Collection(subCategories).Documents(ctx)
	defer iter.Stop()

	var cats []models.TrailerCategorie
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to iterate trailer categories: %w", err)
		}

		var c models.TrailerCategorie
		if err := doc.DataTo(&c); err != nil {
			log.Printf("Warning: failed to parse trailer category %s: %v", doc.Ref.ID, err)
			continue
		}
		c.ID = doc.Ref.ID
		cats = append(cats, c)
	}

	return cats, nil
}

// CreateTrailerCategories creates mirrors in one atomic batch
func (db *FirestoreDB) CreateTrailerCategories(ctx context.Context, trailerID string, cats []models.TrailerCategorie) error {
	if len(cats) == 0 {
		return nil
	}

	batch := db.client.Batch()
	for _, c := range cats {
		ref := db.trailerRef(trailerID).Collection(subCategories).NewDoc()
		batch.Set(ref, map[string]interface{}{
			"categorieId": c.CategorieID,
			"nom":         c.Nom,
			"source":      c.Source,
			"createdAt":   firestore.ServerTimestamp,
		})
	}
	if _, err := batch.Commit(ctx); err != nil {
		return fmt.Errorf("failed to create trailer categories: %w", err)
	}
	return nil
}

// DeleteTrailerCategorie deletes one mirror document
func (db *FirestoreDB) DeleteTrailerCategorie(ctx context.Context, trailerID, categorieID string) error {
	_, err := db.trailerRef(trailerID).Collection(subCategories).Doc(categorieID).Delete(ctx)
	if err != nil {
		return fmt.Errorf("failed to delete trailer category: %w", err)
	}
	return nil
}

// --- Item Ledger Operations ---

// TrailerItems retrieves the ledger rows under one mirror
func (db *FirestoreDB) TrailerItems(ctx context.Context, trailerID, categorieID string) ([]models.TrailerItem, error) {
	iter := db.itemsRef(trailerID, categorieID).Documents(ctx)
	defer iter.Stop()

	var items []models.TrailerItem
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to iterate items: %w", err)
		}

		var it models.TrailerItem
		if err := doc.DataTo(&it); err != nil {
			log.Printf("Warning: failed to parse item %s: %v", doc.Ref.ID, err)
			continue
		}
		it.ID = doc.Ref.ID
		items = append(items, it)
	}

	return items, nil
}

// ItemByID retrieves one ledger row; nil when it does not exist
func (db *FirestoreDB) ItemByID(ctx context.Context, ref inventory.ItemRef) (*models.TrailerItem, error) {
	doc, err := db.itemsRef(ref.TrailerID, ref.CategorieID).Doc(ref.ItemID).Get(ctx)
	if err != nil {
		if isNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get item: %w", err)
	}

	var it models.TrailerItem
	if err := doc.DataTo(&it); err != nil {
		return nil, fmt.Errorf("failed to parse item: %w", err)
	}
	it.ID = doc.Ref.ID
	return &it, nil
}

// ItemByEquipement finds the ledger row holding an equipment under one
// mirror; nil when no row exists
func (db *FirestoreDB) ItemByEquipement(ctx context.Context, trailerID, categorieID, equipementID string) (*models.TrailerItem, error) {
	iter := db.itemsRef(trailerID, categorieID).
		Where("equipementId", "==", equipementID).
		Limit(1).
		Documents(ctx)
	defer iter.Stop()

	doc, err := iter.Next()
	if err == iterator.Done {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to look up item: %w", err)
	}

	var it models.TrailerItem
	if err := doc.DataTo(&it); err != nil {
		return nil, fmt.Errorf("failed to parse item: %w", err)
	}
	it.ID = doc.Ref.ID
	return &it, nil
}

// ApplyItemWrites commits a set of ledger writes in one atomic batch
func (db *FirestoreDB) ApplyItemWrites(ctx context.Context, writes []inventory.ItemWrite) error {
	if len(writes) == 0 {
		return nil
	}

	batch := db.client.Batch()
	for _, w := range writes {
		switch w.Kind {
		case inventory.WriteCreate:
			ref := db.itemsRef(w.Ref.TrailerID, w.Ref.CategorieID).NewDoc()
			batch.Set(ref, w.Item)
		case inventory.WriteSetQty:
			ref := db.itemsRef(w.Ref.TrailerID, w.Ref.CategorieID).Doc(w.Ref.ItemID)
			batch.Update(ref, []firestore.Update{{Path: "qty", Value: w.Qty}})
		case inventory.WriteDelete:
			ref := db.itemsRef(w.Ref.TrailerID, w.Ref.CategorieID).Doc(w.Ref.ItemID)
			batch.Delete(ref)
		}
	}
	if _, err := batch.Commit(ctx); err != nil {
		return fmt.Errorf("failed to apply item writes: %w", err)
	}
	return nil
}

// DeleteItemsPage deletes up to limit ledger rows under one mirror and
// reports how many were removed
func (db *FirestoreDB) DeleteItemsPage(ctx context.Context, trailerID, categorieID string, limit int) (int, error) {
	iter := db.itemsRef(trailerID, categorieID).Limit(limit).Documents(ctx)
	defer iter.Stop()

	batch := db.client.Batch()
	n := 0
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return 0, fmt.Errorf("failed to iterate items: %w", err)
		}
		batch.Delete(doc.Ref)
		n++
	}
	if n == 0 {
		return 0, nil
	}

	if _, err := batch.Commit(ctx); err != nil {
		return 0, fmt.Errorf("failed to delete items: %w", err)
	}
	return n, nil
}
