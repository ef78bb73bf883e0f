package repairs

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jobrie31/trailers-contremaitres/models"
)

type fakeStore struct {
	rows        map[string]map[string]models.Reparation
	equipements map[string]models.Equipement
	nextID      int
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		rows:        make(map[string]map[string]models.Reparation),
		equipements: make(map[string]models.Equipement),
	}
}

func (f *fakeStore) bucket(trailerID string) map[string]models.Reparation {
	if f.rows[trailerID] == nil {
		f.rows[trailerID] = make(map[string]models.Reparation)
	}
	return f.rows[trailerID]
}

func (f *fakeStore) Reparations(ctx context.Context, trailerID string) ([]models.Reparation, error) {
	var out []models.Reparation
	for _, r := range f.bucket(trailerID) {
		out = append(out, r)
	}
	return out, nil
}

func (f *fakeStore) ReparationByID(ctx context.Context, trailerID, id string) (*models.Reparation, error) {
	if r, ok := f.bucket(trailerID)[id]; ok {
		return &r, nil
	}
	return nil, nil
}

func (f *fakeStore) CreateReparation(ctx context.Context, trailerID string, r *models.Reparation) (string, error) {
	f.nextID++
	row := *r
	row.ID = fmt.Sprintf("rep-%d", f.nextID)
	f.bucket(trailerID)[row.ID] = row
	return row.ID, nil
}

func (f *fakeStore) MoveReparationToRepair(ctx context.Context, trailerID, id string, po, endroit, note *string, movedByUID string) error {
	r := f.bucket(trailerID)[id]
	now := time.Now()
	r.Status = models.RepairInRepair
	r.Po, r.Endroit, r.Note = po, endroit, note
	r.MovedAt, r.MovedByUID = &now, movedByUID
	f.bucket(trailerID)[id] = r
	return nil
}

func (f *fakeStore) MoveReparationToBroken(ctx context.Context, trailerID, id, movedByUID string) error {
	r := f.bucket(trailerID)[id]
	now := time.Now()
	r.Status = models.RepairBroken
	r.MovedAt, r.MovedByUID = &now, movedByUID
	f.bucket(trailerID)[id] = r
	return nil
}

func (f *fakeStore) DeleteReparation(ctx context.Context, trailerID, id string) error {
	delete(f.bucket(trailerID), id)
	return nil
}

func (f *fakeStore) EquipementByID(ctx context.Context, id string) (*models.Equipement, error) {
	if eq, ok := f.equipements[id]; ok {
		return &eq, nil
	}
	return nil, nil
}

func TestAddBrokenManual(t *testing.T) {
	store := newFakeStore()
	store.equipements["e1"] = models.Equipement{ID: "e1", Nom: "Perceuse"}
	svc := NewService(store)

	id, err := svc.AddBroken(context.Background(), "t1", "e1", 3, "u1")
	require.NoError(t, err)

	row := store.bucket("t1")[id]
	assert.Equal(t, models.RepairBroken, row.Status)
	assert.Equal(t, "Perceuse", row.Nom)
	assert.Equal(t, 3, row.Qty)
	assert.Equal(t, models.RepairSourceManual, row.Source)
	assert.Equal(t, "u1", row.CreatedByUID)
	assert.Nil(t, row.Po)
	assert.Nil(t, row.Endroit)
}

func TestAddBrokenValidation(t *testing.T) {
	store := newFakeStore()
	store.equipements["e1"] = models.Equipement{ID: "e1", Nom: "Perceuse"}
	svc := NewService(store)
	ctx := context.Background()

	_, err := svc.AddBroken(ctx, "t1", "e1", 0, "u1")
	assert.ErrorIs(t, err, ErrInvalidQuantity)

	_, err = svc.AddBroken(ctx, "t1", "nope", 1, "u1")
	assert.ErrorIs(t, err, ErrInvalidSelection)

	_, err = svc.AddBroken(ctx, "t1", "", 1, "u1")
	assert.ErrorIs(t, err, ErrInvalidSelection)
}

func TestAddBrokenFromDropForcesSingleUnit(t *testing.T) {
	store := newFakeStore()
	svc := NewService(store)

	id, err := svc.AddBrokenFromDrop(context.Background(), "t1", "e1", "Perceuse", "u1")
	require.NoError(t, err)

	row := store.bucket("t1")[id]
	assert.Equal(t, 1, row.Qty)
	assert.Equal(t, models.RepairBroken, row.Status)
	assert.Equal(t, models.RepairSourceDragDrop, row.Source)
}

func TestAddBrokenFromDropPlaceholderName(t *testing.T) {
	store := newFakeStore()
	svc := NewService(store)

	id, err := svc.AddBrokenFromDrop(context.Background(), "t1", "", "   ", "u1")
	require.NoError(t, err)
	assert.Equal(t, "—", store.bucket("t1")[id].Nom)
}

func TestMoveToRepairStampsAndNullsBlanks(t *testing.T) {
	store := newFakeStore()
	store.equipements["e1"] = models.Equipement{ID: "e1", Nom: "Perceuse"}
	svc := NewService(store)
	ctx := context.Background()

	id, err := svc.AddBroken(ctx, "t1", "e1", 1, "u1")
	require.NoError(t, err)

	require.NoError(t, svc.MoveToRepair(ctx, "t1", id, "PO-42", "", "  ", "admin-1"))

	row := store.bucket("t1")[id]
	assert.Equal(t, models.RepairInRepair, row.Status)
	require.NotNil(t, row.Po)
	assert.Equal(t, "PO-42", *row.Po)
	assert.Nil(t, row.Endroit, "blank input is stored as null")
	assert.Nil(t, row.Note)
	assert.NotNil(t, row.MovedAt)
	assert.Equal(t, "admin-1", row.MovedByUID)
}

func TestMoveToBrokenKeepsPaperTrail(t *testing.T) {
	store := newFakeStore()
	store.equipements["e1"] = models.Equipement{ID: "e1", Nom: "Perceuse"}
	svc := NewService(store)
	ctx := context.Background()

	id, err := svc.AddBroken(ctx, "t1", "e1", 1, "u1")
	require.NoError(t, err)
	require.NoError(t, svc.MoveToRepair(ctx, "t1", id, "PO-42", "Atelier", "", "admin-1"))

	require.NoError(t, svc.MoveToBroken(ctx, "t1", id, "admin-2"))

	row := store.bucket("t1")[id]
	assert.Equal(t, models.RepairBroken, row.Status)
	require.NotNil(t, row.Po)
	assert.Equal(t, "PO-42", *row.Po)
	require.NotNil(t, row.Endroit)
	assert.Equal(t, "Atelier", *row.Endroit)
	assert.Equal(t, "admin-2", row.MovedByUID)
}

func TestMoveMissingRow(t *testing.T) {
	svc := NewService(newFakeStore())
	ctx := context.Background()

	assert.ErrorIs(t, svc.MoveToRepair(ctx, "t1", "nope", "", "", "", "u1"), ErrNotFound)
	assert.ErrorIs(t, svc.MoveToBroken(ctx, "t1", "nope", "u1"), ErrNotFound)
}

func TestBoardPartitionsByStatus(t *testing.T) {
	store := newFakeStore()
	store.equipements["e1"] = models.Equipement{ID: "e1", Nom: "Perceuse"}
	svc := NewService(store)
	ctx := context.Background()

	first, err := svc.AddBroken(ctx, "t1", "e1", 1, "u1")
	require.NoError(t, err)
	_, err = svc.AddBroken(ctx, "t1", "e1", 2, "u1")
	require.NoError(t, err)
	require.NoError(t, svc.MoveToRepair(ctx, "t1", first, "PO-1", "", "", "admin-1"))

	board, err := svc.Board(ctx, "t1")
	require.NoError(t, err)
	assert.Len(t, board.Brise, 1)
	assert.Len(t, board.Reparation, 1)
}
