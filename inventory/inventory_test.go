package inventory

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jobrie31/trailers-contremaitres/models"
)

// fakeStore is an in-memory Store. ApplyItemWrites and
// CreateTrailerCategories apply everything or nothing, like the real
// batched writes.
type fakeStore struct {
	categories  []models.Categorie
	equipements map[string]models.Equipement
	mirrors     map[string][]models.TrailerCategorie
	items       map[string]map[string]map[string]models.TrailerItem

	nextID          int
	deletePageCalls []int
	failWrites      bool
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		equipements: make(map[string]models.Equipement),
		mirrors:     make(map[string][]models.TrailerCategorie),
		items:       make(map[string]map[string]map[string]models.TrailerItem),
	}
}

func (f *fakeStore) genID() string {
	f.nextID++
	return fmt.Sprintf("id-%d", f.nextID)
}

func (f *fakeStore) GlobalCategories(ctx context.Context) ([]models.Categorie, error) {
	return append([]models.Categorie(nil), f.categories...), nil
}

func (f *fakeStore) Equipements(ctx context.Context) ([]models.Equipement, error) {
	var out []models.Equipement
	for _, eq := range f.equipements {
		out = append(out, eq)
	}
	return out, nil
}

func (f *fakeStore) EquipementByID(ctx context.Context, id string) (*models.Equipement, error) {
	if eq, ok := f.equipements[id]; ok {
		return &eq, nil
	}
	return nil, nil
}

func (f *fakeStore) TrailerCategories(ctx context.Context, trailerID string) ([]models.TrailerCategorie, error) {
	return append([]models.TrailerCategorie(nil), f.mirrors[trailerID]...), nil
}

func (f *fakeStore) CreateTrailerCategories(ctx context.Context, trailerID string, cats []models.TrailerCategorie) error {
	if f.failWrites {
		return fmt.Errorf("batch failed")
	}
	for _, c := range cats {
		c.ID = f.genID()
		f.mirrors[trailerID] = append(f.mirrors[trailerID], c)
	}
	return nil
}

func (f *fakeStore) DeleteTrailerCategorie(ctx context.Context, trailerID, categorieID string) error {
	kept := f.mirrors[trailerID][:0]
	for _, c := range f.mirrors[trailerID] {
		if c.ID != categorieID {
			kept = append(kept, c)
		}
	}
	f.mirrors[trailerID] = kept
	return nil
}

func (f *fakeStore) bucket(trailerID, categorieID string) map[string]models.TrailerItem {
	if f.items[trailerID] == nil {
		f.items[trailerID] = make(map[string]map[string]models.TrailerItem)
	}
	if f.items[trailerID][categorieID] == nil {
		f.items[trailerID][categorieID] = make(map[string]models.TrailerItem)
	}
	return f.items[trailerID][categorieID]
}

func (f *fakeStore) TrailerItems(ctx context.Context, trailerID, categorieID string) ([]models.TrailerItem, error) {
	var out []models.TrailerItem
	for _, it := range f.bucket(trailerID, categorieID) {
		out = append(out, it)
	}
	return out, nil
}

func (f *fakeStore) ItemByID(ctx context.Context, ref ItemRef) (*models.TrailerItem, error) {
	if it, ok := f.bucket(ref.TrailerID, ref.CategorieID)[ref.ItemID]; ok {
		return &it, nil
	}
	return nil, nil
}

func (f *fakeStore) ItemByEquipement(ctx context.Context, trailerID, categorieID, equipementID string) (*models.TrailerItem, error) {
	for _, it := range f.bucket(trailerID, categorieID) {
		if it.EquipementID == equipementID {
			found := it
			return &found, nil
		}
	}
	return nil, nil
}

func (f *fakeStore) ApplyItemWrites(ctx context.Context, writes []ItemWrite) error {
	if f.failWrites {
		return fmt.Errorf("batch failed")
	}
	for _, w := range writes {
		switch w.Kind {
		case WriteCreate:
			item := *w.Item
			item.ID = f.genID()
			f.bucket(w.Ref.TrailerID, w.Ref.CategorieID)[item.ID] = item
		case WriteSetQty:
			b := f.bucket(w.Ref.TrailerID, w.Ref.CategorieID)
			it, ok := b[w.Ref.ItemID]
			if !ok {
				return fmt.Errorf("missing item %s", w.Ref.ItemID)
			}
			it.Qty = w.Qty
			b[w.Ref.ItemID] = it
		case WriteDelete:
			delete(f.bucket(w.Ref.TrailerID, w.Ref.CategorieID), w.Ref.ItemID)
		}
	}
	return nil
}

func (f *fakeStore) DeleteItemsPage(ctx context.Context, trailerID, categorieID string, limit int) (int, error) {
	f.deletePageCalls = append(f.deletePageCalls, limit)
	b := f.bucket(trailerID, categorieID)
	n := 0
	for id := range b {
		if n == limit {
			break
		}
		delete(b, id)
		n++
	}
	return n, nil
}

func (f *fakeStore) addCategorie(id, nom string) {
	f.categories = append(f.categories, models.Categorie{ID: id, Nom: nom})
}

func (f *fakeStore) addEquipement(id, nom, catID, unite string) {
	f.equipements[id] = models.Equipement{ID: id, Nom: nom, CategorieID: catID, Unite: unite}
}

func (f *fakeStore) mirrorID(trailerID, globalID string) string {
	for _, c := range f.mirrors[trailerID] {
		if c.CategorieID == globalID {
			return c.ID
		}
	}
	return ""
}

func (f *fakeStore) itemsIn(trailerID, categorieID string) []models.TrailerItem {
	var out []models.TrailerItem
	for _, it := range f.bucket(trailerID, categorieID) {
		out = append(out, it)
	}
	return out
}

func TestEnsureCategoriesCreatesMissingMirrors(t *testing.T) {
	store := newFakeStore()
	store.addCategorie("g1", "Outils")
	store.addCategorie("g2", "Sécurité")
	svc := NewService(store)

	require.NoError(t, svc.EnsureCategories(context.Background(), "t1"))

	mirrors := store.mirrors["t1"]
	require.Len(t, mirrors, 2)
	for _, m := range mirrors {
		assert.Equal(t, models.MirrorSourceAuto, m.Source)
	}
	assert.NotEmpty(t, store.mirrorID("t1", "g1"))
	assert.NotEmpty(t, store.mirrorID("t1", "g2"))
}

func TestEnsureCategoriesIsIdempotent(t *testing.T) {
	store := newFakeStore()
	store.addCategorie("g1", "Outils")
	svc := NewService(store)

	require.NoError(t, svc.EnsureCategories(context.Background(), "t1"))
	require.NoError(t, svc.EnsureCategories(context.Background(), "t1"))

	assert.Len(t, store.mirrors["t1"], 1)
}

func TestAddEquipementMergesByKey(t *testing.T) {
	store := newFakeStore()
	store.addCategorie("g1", "Outils")
	store.addEquipement("e1", "Marteau", "g1", "unité")
	svc := NewService(store)

	require.NoError(t, svc.AddEquipement(context.Background(), "t1", "g1", "e1", 2))
	require.NoError(t, svc.AddEquipement(context.Background(), "t1", "g1", "e1", 3))

	mirror := store.mirrorID("t1", "g1")
	items := store.itemsIn("t1", mirror)
	require.Len(t, items, 1, "same equipment must accumulate on one row")
	assert.Equal(t, 5, items[0].Qty)
	assert.Equal(t, "Marteau", items[0].Nom)
	assert.Equal(t, "unité", items[0].Unite)
}

func TestAddEquipementProvisionsMissingMirror(t *testing.T) {
	store := newFakeStore()
	store.addCategorie("g1", "Outils")
	store.addEquipement("e1", "Marteau", "g1", "")
	svc := NewService(store)

	require.Empty(t, store.mirrors["t1"])
	require.NoError(t, svc.AddEquipement(context.Background(), "t1", "g1", "e1", 1))
	assert.NotEmpty(t, store.mirrorID("t1", "g1"))
}

func TestAddEquipementUnknownEquipment(t *testing.T) {
	store := newFakeStore()
	store.addCategorie("g1", "Outils")
	svc := NewService(store)

	err := svc.AddEquipement(context.Background(), "t1", "g1", "nope", 1)
	assert.ErrorIs(t, err, ErrInvalidSelection)
}

func TestAddEquipementRejectsBadQty(t *testing.T) {
	store := newFakeStore()
	store.addCategorie("g1", "Outils")
	store.addEquipement("e1", "Marteau", "g1", "")
	svc := NewService(store)

	assert.ErrorIs(t, svc.AddEquipement(context.Background(), "t1", "g1", "e1", 0), ErrInvalidQuantity)
	assert.ErrorIs(t, svc.AddEquipement(context.Background(), "t1", "g1", "e1", -2), ErrInvalidQuantity)
}

func seedItem(store *fakeStore, trailerID, mirrorID, equipementID string, qty int) string {
	id := store.genID()
	store.bucket(trailerID, mirrorID)[id] = models.TrailerItem{
		ID: id, EquipementID: equipementID, Nom: "Marteau", Qty: qty,
	}
	return id
}

func TestAdjustQuantityRemoveToZeroDeletesRow(t *testing.T) {
	store := newFakeStore()
	itemID := seedItem(store, "t1", "m1", "e1", 2)
	svc := NewService(store)
	ref := ItemRef{TrailerID: "t1", CategorieID: "m1", ItemID: itemID}

	require.NoError(t, svc.AdjustQuantity(context.Background(), ref, 2, DirectionRemove))
	assert.Empty(t, store.itemsIn("t1", "m1"))
}

func TestAdjustQuantityKeepsPositiveRemainder(t *testing.T) {
	store := newFakeStore()
	itemID := seedItem(store, "t1", "m1", "e1", 2)
	svc := NewService(store)
	ref := ItemRef{TrailerID: "t1", CategorieID: "m1", ItemID: itemID}

	require.NoError(t, svc.AdjustQuantity(context.Background(), ref, 1, DirectionRemove))
	items := store.itemsIn("t1", "m1")
	require.Len(t, items, 1)
	assert.Equal(t, 1, items[0].Qty)

	require.NoError(t, svc.AdjustQuantity(context.Background(), ref, 4, DirectionAdd))
	items = store.itemsIn("t1", "m1")
	require.Len(t, items, 1)
	assert.Equal(t, 5, items[0].Qty)
}

func TestAdjustQuantityValidation(t *testing.T) {
	store := newFakeStore()
	itemID := seedItem(store, "t1", "m1", "e1", 2)
	svc := NewService(store)
	ref := ItemRef{TrailerID: "t1", CategorieID: "m1", ItemID: itemID}

	assert.ErrorIs(t, svc.AdjustQuantity(context.Background(), ref, 0, DirectionAdd), ErrInvalidQuantity)
	assert.ErrorIs(t, svc.AdjustQuantity(context.Background(), ref, 1, Direction("sideways")), ErrInvalidSelection)

	missing := ItemRef{TrailerID: "t1", CategorieID: "m1", ItemID: "nope"}
	assert.ErrorIs(t, svc.AdjustQuantity(context.Background(), missing, 1, DirectionAdd), ErrInvalidSelection)
}

func transferFixture() (*fakeStore, *Service, ItemRef, string) {
	store := newFakeStore()
	store.mirrors["t1"] = []models.TrailerCategorie{{ID: "m1", CategorieID: "g1"}}
	store.mirrors["t2"] = []models.TrailerCategorie{{ID: "m2", CategorieID: "g1"}}
	itemID := seedItem(store, "t1", "m1", "e1", 5)
	svc := NewService(store)
	return store, svc, ItemRef{TrailerID: "t1", CategorieID: "m1", ItemID: itemID}, "m2"
}

func TestTransferInsufficientLeavesBothUnchanged(t *testing.T) {
	store, svc, from, destMirror := transferFixture()

	err := svc.Transfer(context.Background(), from, "t2", destMirror, 6)
	assert.ErrorIs(t, err, ErrInsufficientQuantity)

	src := store.itemsIn("t1", "m1")
	require.Len(t, src, 1)
	assert.Equal(t, 5, src[0].Qty)
	assert.Empty(t, store.itemsIn("t2", destMirror))
}

func TestTransferPartialConservesTotal(t *testing.T) {
	store, svc, from, destMirror := transferFixture()

	require.NoError(t, svc.Transfer(context.Background(), from, "t2", destMirror, 2))

	src := store.itemsIn("t1", "m1")
	require.Len(t, src, 1)
	assert.Equal(t, 3, src[0].Qty)

	dst := store.itemsIn("t2", destMirror)
	require.Len(t, dst, 1)
	assert.Equal(t, 2, dst[0].Qty)
	assert.Equal(t, "e1", dst[0].EquipementID)
}

func TestTransferFullMovesRowAndMerges(t *testing.T) {
	store, svc, from, destMirror := transferFixture()
	seedItem(store, "t2", destMirror, "e1", 4)

	require.NoError(t, svc.Transfer(context.Background(), from, "t2", destMirror, 5))

	assert.Empty(t, store.itemsIn("t1", "m1"), "full transfer deletes the source row")
	dst := store.itemsIn("t2", destMirror)
	require.Len(t, dst, 1, "destination must merge onto the existing row")
	assert.Equal(t, 9, dst[0].Qty)
}

func TestTransferLegacyRowAlwaysCreatesFreshDest(t *testing.T) {
	store, svc, _, destMirror := transferFixture()
	legacyID := store.genID()
	store.bucket("t1", "m1")[legacyID] = models.TrailerItem{ID: legacyID, Nom: "Vieux câble", Qty: 2}
	seedItem(store, "t2", destMirror, "e1", 4)
	from := ItemRef{TrailerID: "t1", CategorieID: "m1", ItemID: legacyID}

	require.NoError(t, svc.Transfer(context.Background(), from, "t2", destMirror, 2))

	dst := store.itemsIn("t2", destMirror)
	assert.Len(t, dst, 2, "rows without an equipment reference never merge")
}

func TestTransferUnknownDestinationMirror(t *testing.T) {
	_, svc, from, _ := transferFixture()

	err := svc.Transfer(context.Background(), from, "t2", "nope", 1)
	assert.ErrorIs(t, err, ErrInvalidSelection)
}

func TestRemoveCategorieDrainsThenDeletesMirror(t *testing.T) {
	store := newFakeStore()
	store.mirrors["t1"] = []models.TrailerCategorie{{ID: "m1", CategorieID: "g1"}}
	for i := 0; i < 7; i++ {
		seedItem(store, "t1", "m1", fmt.Sprintf("e%d", i), 1)
	}
	svc := NewService(store)

	require.NoError(t, svc.RemoveCategorie(context.Background(), "t1", "m1"))

	assert.Empty(t, store.itemsIn("t1", "m1"))
	assert.Empty(t, store.mirrors["t1"])
	// one full page plus the empty page that stops the loop
	assert.GreaterOrEqual(t, len(store.deletePageCalls), 2)
	for _, limit := range store.deletePageCalls {
		assert.Equal(t, deleteBatchSize, limit)
	}
}

func TestGroupedPartitionsAndBucketsOrphans(t *testing.T) {
	store := newFakeStore()
	store.addCategorie("g1", "Outils")
	store.mirrors["t1"] = []models.TrailerCategorie{
		{ID: "m1", CategorieID: "g1", Nom: "Outils"},
		{ID: "m2", CategorieID: "g-deleted", Nom: "Ancienne"},
	}
	seedItem(store, "t1", "m1", "e1", 2)
	orphanID := store.genID()
	store.bucket("t1", "m2")[orphanID] = models.TrailerItem{ID: orphanID, Nom: "Orphelin", Qty: 1}
	svc := NewService(store)

	view, err := svc.Grouped(context.Background(), "t1")
	require.NoError(t, err)

	require.Len(t, view.Sections, 1)
	assert.Equal(t, "Outils", view.Sections[0].Categorie.Nom)
	assert.Len(t, view.Sections[0].Items, 1)

	require.Len(t, view.SansCategorie, 1)
	assert.Equal(t, "Orphelin", view.SansCategorie[0].Nom)
}
