// Package access implements the access-control gate and the employee
// invitation lifecycle.
//
// Authentication proves who the caller is; this package decides what they
// are: admin, foreman bound to a trailer, or unknown. The source of truth
// is the "employes" collection, with users/{uid} kept as a fast-path
// profile document.
package access

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/jobrie31/trailers-contremaitres/auth"
	"github.com/jobrie31/trailers-contremaitres/models"
	"github.com/jobrie31/trailers-contremaitres/textsort"
)

var (
	// ErrEmptyName is returned when a required name is blank.
	ErrEmptyName = errors.New("empty name")
	// ErrInvalidEmail is returned when the email address is malformed.
	ErrInvalidEmail = errors.New("invalid email")
	// ErrDuplicateEmail is returned when an invitation already exists for
	// the address.
	ErrDuplicateEmail = errors.New("duplicate email")
	// ErrNoInvitation is returned when no pending invitation matches the
	// address.
	ErrNoInvitation = errors.New("no invitation for this email")
	// ErrAlreadyActivated is returned when the invitation was already
	// completed.
	ErrAlreadyActivated = errors.New("invitation already activated")
	// ErrBadCode is returned when the activation code does not match.
	ErrBadCode = errors.New("invalid activation code")
	// ErrSelfChange is returned when an admin tries to demote or delete
	// their own employee record.
	ErrSelfChange = errors.New("cannot modify own record")
	// ErrNotFound is returned when the employee record does not exist.
	ErrNotFound = errors.New("employee not found")
)

// Store is the slice of the document store the access gate needs.
type Store interface {
	Employes(ctx context.Context) ([]models.Employe, error)
	EmployeByID(ctx context.Context, id string) (*models.Employe, error)
	EmployeByUID(ctx context.Context, uid string) (*models.Employe, error)
	EmployeByEmailLower(ctx context.Context, emailLower string) (*models.Employe, error)
	HasEmployes(ctx context.Context) (bool, error)
	CreateEmploye(ctx context.Context, e *models.Employe) (string, error)
	UpdateEmployeAdmin(ctx context.Context, id string, isAdmin bool) error
	// UpdateEmployeActivationHash replaces the stored code hash; nil
	// clears it.
	UpdateEmployeActivationHash(ctx context.Context, id string, hash *string) error
	// LinkEmployeUID attaches an identity uid to an invitation and stamps
	// activatedAt. ActivateEmploye does the same and clears the code hash.
	LinkEmployeUID(ctx context.Context, id, uid string) error
	ActivateEmploye(ctx context.Context, id, uid string) error
	DeleteEmploye(ctx context.Context, id string) error

	UserProfile(ctx context.Context, uid string) (*models.UserProfile, error)
	// SetUserProfile merge-writes users/{uid}.
	SetUserProfile(ctx context.Context, p *models.UserProfile) error
	UpdateUserAdmin(ctx context.Context, uid string, isAdmin bool) error
	DeleteUserProfile(ctx context.Context, uid string) error

	CreateTrailerWithID(ctx context.Context, id string, t *models.Trailer) error
	DeleteTrailer(ctx context.Context, id string) error
}

// Grant is the outcome of the access gate for one signed-in identity.
type Grant struct {
	IsAdmin   bool
	TrailerID *string
	Bootstrap bool
}

// Service implements the gate and the invitation operations.
type Service struct {
	store Store
}

// NewService returns a Service backed by store.
func NewService(store Store) *Service {
	return &Service{store: store}
}

// Resolve runs the access gate for a signed-in identity:
//
//  1. an employee record linked to the uid wins;
//  2. otherwise a record matching the lowercased email is auto-linked to
//     the uid, covering accounts created before the invitation flow;
//  3. otherwise, if the employes collection is empty, the caller becomes
//     the bootstrap admin;
//  4. otherwise the caller is a plain non-admin bound to trailers/{uid}.
//
// The users/{uid} profile is refreshed on every resolution.
func (s *Service) Resolve(ctx context.Context, uid, email string) (*Grant, error) {
	emailLower := strings.ToLower(strings.TrimSpace(email))

	emp, err := s.store.EmployeByUID(ctx, uid)
	if err != nil {
		return nil, fmt.Errorf("failed to look up employee by uid: %w", err)
	}

	if emp == nil && emailLower != "" {
		emp, err = s.store.EmployeByEmailLower(ctx, emailLower)
		if err != nil {
			return nil, fmt.Errorf("failed to look up employee by email: %w", err)
		}
		switch {
		case emp == nil:
		case emp.UID == "":
			if err := s.store.LinkEmployeUID(ctx, emp.ID, uid); err != nil {
				return nil, fmt.Errorf("failed to link employee: %w", err)
			}
		case emp.UID != uid:
			// already bound to another identity; no grant through it
			emp = nil
		}
	}

	grant := &Grant{}
	switch {
	case emp != nil:
		grant.IsAdmin = emp.IsAdmin
	default:
		any, err := s.store.HasEmployes(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to check employee collection: %w", err)
		}
		if !any {
			// First sign-in ever: this identity becomes the admin.
			_, err := s.store.CreateEmploye(ctx, &models.Employe{
				Nom:          emailLower,
				Email:        email,
				EmailLower:   emailLower,
				IsAdmin:      true,
				UID:          uid,
				Bootstrap:    true,
				CreatedByUID: uid,
			})
			if err != nil {
				return nil, fmt.Errorf("failed to bootstrap admin: %w", err)
			}
			grant.IsAdmin = true
			grant.Bootstrap = true
		}
	}

	if !grant.IsAdmin {
		trailerID := uid
		grant.TrailerID = &trailerID
	}

	if err := s.store.SetUserProfile(ctx, &models.UserProfile{
		UID:       uid,
		Email:     email,
		IsAdmin:   grant.IsAdmin,
		TrailerID: grant.TrailerID,
		Bootstrap: grant.Bootstrap,
	}); err != nil {
		return nil, fmt.Errorf("failed to save user profile: %w", err)
	}

	return grant, nil
}

// VerifyActivation checks that a pending invitation exists for the email
// and that the submitted code matches its hash.
func (s *Service) VerifyActivation(ctx context.Context, email, code string) (*models.Employe, error) {
	emailLower := strings.ToLower(strings.TrimSpace(email))
	if emailLower == "" {
		return nil, ErrInvalidEmail
	}

	emp, err := s.store.EmployeByEmailLower(ctx, emailLower)
	if err != nil {
		return nil, fmt.Errorf("failed to look up invitation: %w", err)
	}
	if emp == nil {
		return nil, ErrNoInvitation
	}
	if emp.Activated() {
		return nil, ErrAlreadyActivated
	}
	if emp.ActivationHash == nil || auth.CheckActivationCode(strings.TrimSpace(code), *emp.ActivationHash) != nil {
		return nil, ErrBadCode
	}
	return emp, nil
}

// CompleteActivation finishes registration once the identity account
// exists: the invitation is linked to the uid with its code cleared, the
// users/{uid} profile is written, and non-admins get their personal
// trailer provisioned under the same id.
func (s *Service) CompleteActivation(ctx context.Context, emp *models.Employe, uid string) error {
	if err := s.store.ActivateEmploye(ctx, emp.ID, uid); err != nil {
		return fmt.Errorf("failed to activate employee: %w", err)
	}

	var trailerID *string
	if !emp.IsAdmin {
		id := uid
		trailerID = &id
		if err := s.store.CreateTrailerWithID(ctx, uid, &models.Trailer{
			TrailerNom: emp.Nom,
			OwnerUID:   uid,
		}); err != nil {
			return fmt.Errorf("failed to provision trailer: %w", err)
		}
	}

	if err := s.store.SetUserProfile(ctx, &models.UserProfile{
		UID:       uid,
		Email:     emp.Email,
		IsAdmin:   emp.IsAdmin,
		TrailerID: trailerID,
	}); err != nil {
		return fmt.Errorf("failed to save user profile: %w", err)
	}
	return nil
}

// Invite creates a pending invitation and returns its id along with the
// one-time activation code. The code is only ever returned here; at rest
// the record keeps a bcrypt hash.
func (s *Service) Invite(ctx context.Context, nom, email string, isAdmin bool, createdByUID string) (string, string, error) {
	nom = strings.TrimSpace(nom)
	if nom == "" {
		return "", "", ErrEmptyName
	}
	email = strings.TrimSpace(email)
	if email == "" || !strings.Contains(email, "@") {
		return "", "", ErrInvalidEmail
	}
	emailLower := strings.ToLower(email)

	existing, err := s.store.EmployeByEmailLower(ctx, emailLower)
	if err != nil {
		return "", "", fmt.Errorf("failed to check for existing invitation: %w", err)
	}
	if existing != nil {
		return "", "", ErrDuplicateEmail
	}

	code, err := auth.GenerateActivationCode()
	if err != nil {
		return "", "", err
	}
	hash, err := auth.HashActivationCode(code)
	if err != nil {
		return "", "", err
	}

	id, err := s.store.CreateEmploye(ctx, &models.Employe{
		Nom:            nom,
		Email:          email,
		EmailLower:     emailLower,
		ActivationHash: &hash,
		IsAdmin:        isAdmin,
		CreatedByUID:   createdByUID,
	})
	if err != nil {
		return "", "", fmt.Errorf("failed to create invitation: %w", err)
	}
	return id, code, nil
}

// ResetActivationCode issues a fresh code for a still-pending invitation.
func (s *Service) ResetActivationCode(ctx context.Context, employeID string) (string, error) {
	emp, err := s.store.EmployeByID(ctx, employeID)
	if err != nil {
		return "", fmt.Errorf("failed to load employee: %w", err)
	}
	if emp == nil {
		return "", ErrNotFound
	}
	if emp.Activated() {
		return "", ErrAlreadyActivated
	}

	code, err := auth.GenerateActivationCode()
	if err != nil {
		return "", err
	}
	hash, err := auth.HashActivationCode(code)
	if err != nil {
		return "", err
	}
	if err := s.store.UpdateEmployeActivationHash(ctx, employeID, &hash); err != nil {
		return "", fmt.Errorf("failed to reset activation code: %w", err)
	}
	return code, nil
}

// SetAdmin flips an employee's admin flag. An admin cannot demote their
// own record; activated employees get their users/{uid} profile updated
// in the same call.
func (s *Service) SetAdmin(ctx context.Context, actorUID, employeID string, isAdmin bool) error {
	emp, err := s.store.EmployeByID(ctx, employeID)
	if err != nil {
		return fmt.Errorf("failed to load employee: %w", err)
	}
	if emp == nil {
		return ErrNotFound
	}
	if emp.UID != "" && emp.UID == actorUID && !isAdmin {
		return ErrSelfChange
	}

	if err := s.store.UpdateEmployeAdmin(ctx, employeID, isAdmin); err != nil {
		return fmt.Errorf("failed to update employee: %w", err)
	}
	if emp.Activated() {
		if err := s.store.UpdateUserAdmin(ctx, emp.UID, isAdmin); err != nil {
			return fmt.Errorf("failed to update user profile: %w", err)
		}
	}
	return nil
}

// Delete removes an employee record. Self-deletion is refused. For
// activated employees the users/{uid} profile and the personal trailer
// are removed too, best effort.
func (s *Service) Delete(ctx context.Context, actorUID, employeID string) error {
	emp, err := s.store.EmployeByID(ctx, employeID)
	if err != nil {
		return fmt.Errorf("failed to load employee: %w", err)
	}
	if emp == nil {
		return ErrNotFound
	}
	if emp.UID != "" && emp.UID == actorUID {
		return ErrSelfChange
	}

	if err := s.store.DeleteEmploye(ctx, employeID); err != nil {
		return fmt.Errorf("failed to delete employee: %w", err)
	}

	if emp.Activated() {
		if err := s.store.DeleteUserProfile(ctx, emp.UID); err != nil {
			log.Printf("⚠️ Failed to delete user profile %s: %v", emp.UID, err)
		}
		if !emp.IsAdmin {
			if err := s.store.DeleteTrailer(ctx, emp.UID); err != nil {
				log.Printf("⚠️ Failed to delete trailer %s: %v", emp.UID, err)
			}
		}
	}
	return nil
}

// List returns all employee records sorted by name.
func (s *Service) List(ctx context.Context) ([]models.Employe, error) {
	employes, err := s.store.Employes(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load employees: %w", err)
	}
	textsort.SortBy(employes, func(e models.Employe) string { return e.Nom })
	return employes, nil
}
