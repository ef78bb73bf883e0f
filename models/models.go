// models.go
// Defines the Firestore document structures shared by the API, the db layer
// and the domain services. Field names mirror the collections used by the
// web client (nom, unite, categorieId, ...), so documents stay readable by
// both sides.

package models

import (
	"time"
)

// RepairStatus is the state of a reparations document.
type RepairStatus string

const (
	RepairBroken   RepairStatus = "brise"
	RepairInRepair RepairStatus = "reparation"
)

// RepairSource records how a reparations document was created.
type RepairSource string

const (
	RepairSourceManual   RepairSource = "manual"
	RepairSourceDragDrop RepairSource = "dragdrop"
)

// MirrorSourceAuto marks trailer category mirrors created by the
// reconciliation pass rather than by an explicit admin action.
const MirrorSourceAuto = "global_auto"

// Categorie is a document of the global "categories" collection.
// Fields is decoded from a tagged union (see fields.go) and is therefore
// written back explicitly by the db layer, never via struct reflection.
type Categorie struct {
	ID        string     `firestore:"-" json:"id"`
	Nom       string     `firestore:"nom" json:"nom"`
	Icon      string     `firestore:"icon" json:"icon"`
	Color     string     `firestore:"color" json:"color"`
	Fields    []FieldDef `firestore:"-" json:"fields"`
	CreatedAt time.Time  `firestore:"createdAt,serverTimestamp" json:"createdAt"`
}

// Equipement is a document of the global "equipements" collection.
// Categorie is a denormalized name snapshot taken when the document is
// saved; Unite is the legacy copy of the value held by the category's
// "Unité" field, kept for older clients.
type Equipement struct {
	ID          string            `firestore:"-" json:"id"`
	Nom         string            `firestore:"nom" json:"nom"`
	CategorieID string            `firestore:"categorieId" json:"categorieId"`
	Categorie   string            `firestore:"categorie" json:"categorie"`
	Details     map[string]string `firestore:"details" json:"details"`
	Unite       string            `firestore:"unite" json:"unite"`
	CreatedAt   time.Time         `firestore:"createdAt,serverTimestamp" json:"createdAt"`
}

// Trailer is a document of the "trailers" collection. OwnerUID is empty
// for trailers only admins should see.
type Trailer struct {
	ID         string    `firestore:"-" json:"id"`
	TrailerNom string    `firestore:"trailerNom" json:"trailerNom"`
	OwnerUID   string    `firestore:"ownerUid" json:"ownerUid"`
	CreatedAt  time.Time `firestore:"createdAt,serverTimestamp" json:"createdAt"`
}

// TrailerCategorie mirrors one global category inside a trailer
// (trailers/{id}/categories). CategorieID points back at the global
// document; Nom is a snapshot of its name at mirror-creation time.
type TrailerCategorie struct {
	ID          string    `firestore:"-" json:"id"`
	CategorieID string    `firestore:"categorieId" json:"categorieId"`
	Nom         string    `firestore:"nom" json:"nom"`
	Source      string    `firestore:"source" json:"source"`
	CreatedAt   time.Time `firestore:"createdAt,serverTimestamp" json:"createdAt"`
}

// TrailerItem is one quantity ledger row
// (trailers/{id}/categories/{id}/items). At most one row exists per
// (mirror, equipementId) pair; Qty is always >= 1 for a stored row.
type TrailerItem struct {
	ID           string    `firestore:"-" json:"id"`
	EquipementID string    `firestore:"equipementId" json:"equipementId"`
	Nom          string    `firestore:"nom" json:"nom"`
	Unite        string    `firestore:"unite" json:"unite"`
	Qty          int       `firestore:"qty" json:"qty"`
	CreatedAt    time.Time `firestore:"createdAt,serverTimestamp" json:"createdAt"`
}

// Reparation is a document of trailers/{id}/reparations. Po, Endroit and
// Note are nil when never supplied; blank form input is stored as null,
// never as the empty string.
type Reparation struct {
	ID           string       `firestore:"-" json:"id"`
	Status       RepairStatus `firestore:"status" json:"status"`
	EquipementID string       `firestore:"equipementId" json:"equipementId"`
	Nom          string       `firestore:"nom" json:"nom"`
	Qty          int          `firestore:"qty" json:"qty"`
	Po           *string      `firestore:"po" json:"po"`
	Endroit      *string      `firestore:"endroit" json:"endroit"`
	Note         *string      `firestore:"note" json:"note"`
	Source       RepairSource `firestore:"source,omitempty" json:"source,omitempty"`
	CreatedAt    time.Time    `firestore:"createdAt,serverTimestamp" json:"createdAt"`
	CreatedByUID string       `firestore:"createdByUid" json:"createdByUid"`
	MovedAt      *time.Time   `firestore:"movedAt" json:"movedAt"`
	MovedByUID   string       `firestore:"movedByUid,omitempty" json:"movedByUid,omitempty"`
}

// Employe is a document of the "employes" collection. A document with no
// UID is a pending invitation; ActivationHash holds the bcrypt hash of the
// one-time activation code while the invitation is pending.
type Employe struct {
	ID             string     `firestore:"-" json:"id"`
	Nom            string     `firestore:"nom" json:"nom"`
	Email          string     `firestore:"email" json:"email"`
	EmailLower     string     `firestore:"emailLower" json:"emailLower"`
	ActivationHash *string    `firestore:"activationCode" json:"-"`
	IsAdmin        bool       `firestore:"isAdmin" json:"isAdmin"`
	UID            string     `firestore:"uid" json:"uid"`
	ActivatedAt    *time.Time `firestore:"activatedAt" json:"activatedAt"`
	Bootstrap      bool       `firestore:"bootstrap,omitempty" json:"bootstrap,omitempty"`
	CreatedAt      time.Time  `firestore:"createdAt,serverTimestamp" json:"createdAt"`
	CreatedByUID   string     `firestore:"createdByUid" json:"createdByUid"`
}

// Activated reports whether the invitation was completed.
func (e *Employe) Activated() bool { return e.UID != "" }

// UserProfile is the users/{uid} document consulted for access control.
// Admins carry a nil TrailerID by convention.
type UserProfile struct {
	UID       string    `firestore:"uid" json:"uid"`
	Email     string    `firestore:"email" json:"email"`
	IsAdmin   bool      `firestore:"isAdmin" json:"isAdmin"`
	TrailerID *string   `firestore:"trailerId" json:"trailerId"`
	Bootstrap bool      `firestore:"bootstrap,omitempty" json:"bootstrap,omitempty"`
	CreatedAt time.Time `firestore:"createdAt,serverTimestamp" json:"createdAt"`
	UpdatedAt time.Time `firestore:"updatedAt,serverTimestamp" json:"updatedAt"`
}
