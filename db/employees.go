package db

import (
	"context"
	"fmt"
	"log"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"

	"github.com/jobrie31/trailers-contremaitres/models"
)

// --- Employee Operations ---

func decodeEmploye(doc *firestore.DocumentSnapshot) (models.Employe, error) {
	var e models.Employe
	if err := doc.DataTo(&e); err != nil {
		return e, err
	}
	e.ID = doc.Ref.ID
	return e, nil
}

// Employes retrieves all employee records
func (db *FirestoreDB) Employes(ctx context.Context) ([]models.Employe, error) {
	iter := db.client.Collection(collEmployes).Documents(ctx)
	defer iter.Stop()

	var employes []models.Employe
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to iterate employees: %w", err)
		}

		e, err := decodeEmploye(doc)
		if err != nil {
			log.Printf("Warning: failed to parse employee %s: %v", doc.Ref.ID, err)
			continue
		}
		employes = append(employes, e)
	}

	return employes, nil
}

// EmployeByID retrieves an employee by document ID; nil when absent
func (db *FirestoreDB) EmployeByID(ctx context.Context, id string) (*models.Employe, error) {
	doc, err := db.client.Collection(collEmployes).Doc(id).Get(ctx)
	if err != nil {
		if isNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get employee: %w", err)
	}

	e, err := decodeEmploye(doc)
	if err != nil {
		return nil, fmt.Errorf("failed to parse employee: %w", err)
	}
	return &e, nil
}

func (db *FirestoreDB) employeWhere(ctx context.Context, field, value string) (*models.Employe, error) {
	iter := db.client.Collection(collEmployes).
		Where(field, "==", value).
		Limit(1).
		Documents(ctx)
	defer iter.Stop()

	doc, err := iter.Next()
	if err == iterator.Done {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to look up employee: %w", err)
	}

	e, err := decodeEmploye(doc)
	if err != nil {
		return nil, fmt.Errorf("failed to parse employee: %w", err)
	}
	return &e, nil
}

// EmployeByUID retrieves the employee linked to an identity uid
func (db *FirestoreDB) EmployeByUID(ctx context.Context, uid string) (*models.Employe, error) {
	return db.employeWhere(ctx, "uid", uid)
}

// EmployeByEmailLower retrieves the employee matching a lowercased email
func (db *FirestoreDB) EmployeByEmailLower(ctx context.Context, emailLower string) (*models.Employe, error) {
	return db.employeWhere(ctx, "emailLower", emailLower)
}

// HasEmployes reports whether any employee record exists
func (db *FirestoreDB) HasEmployes(ctx context.Context) (bool, error) {
	iter := db.client.Collection(collEmployes).Limit(1).Documents(ctx)
	defer iter.Stop()

	_, err := iter.Next()
	if err == iterator.Done {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to check employees: %w", err)
	}
	return true, nil
}

// CreateEmploye creates an employee record and returns its generated ID
func (db *FirestoreDB) CreateEmploye(ctx context.Context, e *models.Employe) (string, error) {
	ref, _, err := db.client.Collection(collEmployes).Add(ctx, e)
	if err != nil {
		return "", fmt.Errorf("failed to create employee: %w", err)
	}
	return ref.ID, nil
}

// UpdateEmployeAdmin flips the admin flag on an employee record
func (db *FirestoreDB) UpdateEmployeAdmin(ctx context.Context, id string, isAdmin bool) error {
	_, err := db.client.Collection(collEmployes).Doc(id).Update(ctx, []firestore.Update{
		{Path: "isAdmin", Value: isAdmin},
	})
	if err != nil {
		return fmt.Errorf("failed to update employee: %w", err)
	}
	return nil
}

// UpdateEmployeActivationHash replaces the stored code hash; nil clears it
func (db *FirestoreDB) UpdateEmployeActivationHash(ctx context.Context, id string, hash *string) error {
	_, err := db.client.Collection(collEmployes).Doc(id).Update(ctx, []firestore.Update{
		{Path: "activationCode", Value: hash},
	})
	if err != nil {
		return fmt.Errorf("failed to update activation code: %w", err)
	}
	return nil
}

// LinkEmployeUID attaches an identity uid to an employee record
func (db *FirestoreDB) LinkEmployeUID(ctx context.Context, id, uid string) error {
	_, err := db.client.Collection(collEmployes).Doc(id).Update(ctx, []firestore.Update{
		{Path: "uid", Value: uid},
		{Path: "activatedAt", Value: firestore.ServerTimestamp},
	})
	if err != nil {
		return fmt.Errorf("failed to link employee: %w", err)
	}
	return nil
}

// ActivateEmploye links the uid and clears the one-time code in one update
func (db *FirestoreDB) ActivateEmploye(ctx context.Context, id, uid string) error {
	_, err := db.client.Collection(collEmployes).Doc(id).Update(ctx, []firestore.Update{
		{Path: "uid", Value: uid},
		{Path: "activatedAt", Value: firestore.ServerTimestamp},
		{Path: "activationCode", Value: nil},
	})
	if err != nil {
		return fmt.Errorf("failed to activate employee: %w", err)
	}
	return nil
}

// DeleteEmploye deletes an employee record
func (db *FirestoreDB) DeleteEmploye(ctx context.Context, id string) error {
	_, err := db.client.Collection(collEmployes).Doc(id).Delete(ctx)
	if err != nil {
		return fmt.Errorf("failed to delete employee: %w", err)
	}
	return nil
}

// --- User Profile Operations ---

// UserProfile retrieves users/{uid}; nil when absent
func (db *FirestoreDB) UserProfile(ctx context.Context, uid string) (*models.UserProfile, error) {
	doc, err := db.client.Collection(collUsers).Doc(uid).Get(ctx)
	if err != nil {
		if isNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get user profile: %w", err)
	}

	var p models.UserProfile
	if err := doc.DataTo(&p); err != nil {
		return nil, fmt.Errorf("failed to parse user profile: %w", err)
	}
	return &p, nil
}

// SetUserProfile merge-writes users/{uid}. createdAt is only stamped the
// first time; updatedAt on every write.
func (db *FirestoreDB) SetUserProfile(ctx context.Context, p *models.UserProfile) error {
	data := map[string]interface{}{
		"uid":       p.UID,
		"email":     p.Email,
		"isAdmin":   p.IsAdmin,
		"trailerId": p.TrailerID,
		"updatedAt": firestore.ServerTimestamp,
	}
	if p.Bootstrap {
		data["bootstrap"] = true
	}

	existing, err := db.client.Collection(collUsers).Doc(p.UID).Get(ctx)
	if err != nil && !isNotFound(err) {
		return fmt.Errorf("failed to check user profile: %w", err)
	}
	if err != nil || !existing.Exists() {
		data["createdAt"] = firestore.ServerTimestamp
	}

	_, err = db.client.Collection(collUsers).Doc(p.UID).Set(ctx, data, firestore.MergeAll)
	if err != nil {
		return fmt.Errorf("failed to save user profile: %w", err)
	}
	return nil
}

// UpdateUserAdmin flips the admin flag on users/{uid}
func (db *FirestoreDB) UpdateUserAdmin(ctx context.Context, uid string, isAdmin bool) error {
	_, err := db.client.Collection(collUsers).Doc(uid).Update(ctx, []firestore.Update{
		{Path: "isAdmin", Value: isAdmin},
		{Path: "updatedAt", Value: firestore.ServerTimestamp},
	})
	if err != nil {
		return fmt.Errorf("failed to update user profile: %w", err)
	}
	return nil
}

// DeleteUserProfile deletes users/{uid}
func (db *FirestoreDB) DeleteUserProfile(ctx context.Context, uid string) error {
	_, err := db.client.Collection(collUsers).Doc(uid).Delete(ctx)
	if err != nil {
		return fmt.Errorf("failed to delete user profile: %w", err)
	}
	return nil
}
