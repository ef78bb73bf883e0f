package db

import (
	"context"
	"fmt"
	"log"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"

	"github.com/jobrie31/trailers-contremaitres/models"
)

func (db *FirestoreDB) reparationsRef(trailerID string) *firestore.CollectionRef {
	return db.trailerRef(trailerID).Collection(subReparations)
}

// Reparations retrieves a trailer's repair rows, newest first
func (db *FirestoreDB) Reparations(ctx context.Context, trailerID string) ([]models.Reparation, error) {
	iter := db.reparationsRef(trailerID).
		OrderBy("createdAt", firestore.Desc).
		Documents(ctx)
	defer iter.Stop()

	var rows []models.Reparation
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to iterate repair rows: %w", err)
		}

		var r models.Reparation
		if err := doc.DataTo(&r); err != nil {
			log.Printf("Warning: failed to parse repair row %s: %v", doc.Ref.ID, err)
			continue
		}
		r.ID = doc.Ref.ID
		rows = append(rows, r)
	}

	return rows, nil
}

// ReparationByID retrieves one repair row; nil when it does not exist
func (db *FirestoreDB) ReparationByID(ctx context.Context, trailerID, id string) (*models.Reparation, error) {
	doc, err := db.reparationsRef(trailerID).Doc(id).Get(ctx)
	if err != nil {
		if isNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get repair row: %w", err)
	}

	var r models.Reparation
	if err := doc.DataTo(&r); err != nil {
		return nil, fmt.Errorf("failed to parse repair row: %w", err)
	}
	r.ID = doc.Ref.ID
	return &r, nil
}

// CreateReparation creates a repair row and returns its generated ID
func (db *FirestoreDB) CreateReparation(ctx context.Context, trailerID string, r *models.Reparation) (string, error) {
	ref, _, err := db.reparationsRef(trailerID).Add(ctx, r)
	if err != nil {
		return "", fmt.Errorf("failed to create repair row: %w", err)
	}
	return ref.ID, nil
}

// MoveReparationToRepair flips a row to "reparation", rewriting po,
// endroit and note and stamping movedAt/movedByUid
func (db *FirestoreDB) MoveReparationToRepair(ctx context.Context, trailerID, id string, po, endroit, note *string, movedByUID string) error {
	_, err := db.reparationsRef(trailerID).Doc(id).Update(ctx, []firestore.Update{
		{Path: "status", Value: models.RepairInRepair},
		{Path: "po", Value: po},
		{Path: "endroit", Value: endroit},
		{Path: "note", Value: note},
		{Path: "movedAt", Value: firestore.ServerTimestamp},
		{Path: "movedByUid", Value: movedByUID},
	})
	if err != nil {
		return fmt.Errorf("failed to move repair row: %w", err)
	}
	return nil
}

// MoveReparationToBroken flips a row back to "brise", stamping
// movedAt/movedByUid; po, endroit and note stay on the document
func (db *FirestoreDB) MoveReparationToBroken(ctx context.Context, trailerID, id, movedByUID string) error {
	_, err := db.reparationsRef(trailerID).Doc(id).Update(ctx, []firestore.Update{
		{Path: "status", Value: models.RepairBroken},
		{Path: "movedAt", Value: firestore.ServerTimestamp},
		{Path: "movedByUid", Value: movedByUID},
	})
	if err != nil {
		return fmt.Errorf("failed to move repair row: %w", err)
	}
	return nil
}

// DeleteReparation deletes one repair row
func (db *FirestoreDB) DeleteReparation(ctx context.Context, trailerID, id string) error {
	_, err := db.reparationsRef(trailerID).Doc(id).Delete(ctx)
	if err != nil {
		return fmt.Errorf("failed to delete repair row: %w", err)
	}
	return nil
}
