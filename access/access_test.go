package access

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jobrie31/trailers-contremaitres/auth"
	"github.com/jobrie31/trailers-contremaitres/models"
)

type fakeStore struct {
	employes map[string]models.Employe
	profiles map[string]models.UserProfile
	trailers map[string]models.Trailer
	nextID   int
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		employes: make(map[string]models.Employe),
		profiles: make(map[string]models.UserProfile),
		trailers: make(map[string]models.Trailer),
	}
}

func (f *fakeStore) Employes(ctx context.Context) ([]models.Employe, error) {
	var out []models.Employe
	for _, e := range f.employes {
		out = append(out, e)
	}
	return out, nil
}

func (f *fakeStore) EmployeByID(ctx context.Context, id string) (*models.Employe, error) {
	if e, ok := f.employes[id]; ok {
		return &e, nil
	}
	return nil, nil
}

func (f *fakeStore) EmployeByUID(ctx context.Context, uid string) (*models.Employe, error) {
	for _, e := range f.employes {
		if e.UID == uid && uid != "" {
			found := e
			return &found, nil
		}
	}
	return nil, nil
}

func (f *fakeStore) EmployeByEmailLower(ctx context.Context, emailLower string) (*models.Employe, error) {
	for _, e := range f.employes {
		if e.EmailLower == emailLower {
			found := e
			return &found, nil
		}
	}
	return nil, nil
}

func (f *fakeStore) HasEmployes(ctx context.Context) (bool, error) {
	return len(f.employes) > 0, nil
}

func (f *fakeStore) CreateEmploye(ctx context.Context, e *models.Employe) (string, error) {
	f.nextID++
	emp := *e
	emp.ID = fmt.Sprintf("emp-%d", f.nextID)
	f.employes[emp.ID] = emp
	return emp.ID, nil
}

func (f *fakeStore) UpdateEmployeAdmin(ctx context.Context, id string, isAdmin bool) error {
	e := f.employes[id]
	e.IsAdmin = isAdmin
	f.employes[id] = e
	return nil
}

func (f *fakeStore) UpdateEmployeActivationHash(ctx context.Context, id string, hash *string) error {
	e := f.employes[id]
	e.ActivationHash = hash
	f.employes[id] = e
	return nil
}

func (f *fakeStore) LinkEmployeUID(ctx context.Context, id, uid string) error {
	e := f.employes[id]
	now := time.Now()
	e.UID = uid
	e.ActivatedAt = &now
	f.employes[id] = e
	return nil
}

func (f *fakeStore) ActivateEmploye(ctx context.Context, id, uid string) error {
	e := f.employes[id]
	now := time.Now()
	e.UID = uid
	e.ActivatedAt = &now
	e.ActivationHash = nil
	f.employes[id] = e
	return nil
}

func (f *fakeStore) DeleteEmploye(ctx context.Context, id string) error {
	delete(f.employes, id)
	return nil
}

func (f *fakeStore) UserProfile(ctx context.Context, uid string) (*models.UserProfile, error) {
	if p, ok := f.profiles[uid]; ok {
		return &p, nil
	}
	return nil, nil
}

func (f *fakeStore) SetUserProfile(ctx context.Context, p *models.UserProfile) error {
	f.profiles[p.UID] = *p
	return nil
}

func (f *fakeStore) UpdateUserAdmin(ctx context.Context, uid string, isAdmin bool) error {
	p := f.profiles[uid]
	p.IsAdmin = isAdmin
	f.profiles[uid] = p
	return nil
}

func (f *fakeStore) DeleteUserProfile(ctx context.Context, uid string) error {
	delete(f.profiles, uid)
	return nil
}

func (f *fakeStore) CreateTrailerWithID(ctx context.Context, id string, t *models.Trailer) error {
	tr := *t
	tr.ID = id
	f.trailers[id] = tr
	return nil
}

func (f *fakeStore) DeleteTrailer(ctx context.Context, id string) error {
	delete(f.trailers, id)
	return nil
}

func TestResolveBootstrapsFirstAdmin(t *testing.T) {
	store := newFakeStore()
	svc := NewService(store)

	grant, err := svc.Resolve(context.Background(), "uid-1", "Boss@Example.com")
	require.NoError(t, err)

	assert.True(t, grant.IsAdmin)
	assert.True(t, grant.Bootstrap)
	assert.Nil(t, grant.TrailerID, "admins carry no trailer binding")

	require.Len(t, store.employes, 1)
	for _, e := range store.employes {
		assert.True(t, e.IsAdmin)
		assert.True(t, e.Bootstrap)
		assert.Equal(t, "uid-1", e.UID)
		assert.Equal(t, "boss@example.com", e.EmailLower)
	}

	profile := store.profiles["uid-1"]
	assert.True(t, profile.IsAdmin)
	assert.Nil(t, profile.TrailerID)
}

func TestResolveUnknownUserIsNonAdmin(t *testing.T) {
	store := newFakeStore()
	store.employes["emp-x"] = models.Employe{ID: "emp-x", EmailLower: "boss@example.com", UID: "uid-boss", IsAdmin: true}
	svc := NewService(store)

	grant, err := svc.Resolve(context.Background(), "uid-2", "guy@example.com")
	require.NoError(t, err)

	assert.False(t, grant.IsAdmin)
	assert.False(t, grant.Bootstrap)
	require.NotNil(t, grant.TrailerID)
	assert.Equal(t, "uid-2", *grant.TrailerID)
	assert.Len(t, store.employes, 1, "no bootstrap once an employee exists")
}

func TestResolveAutoLinksByEmail(t *testing.T) {
	store := newFakeStore()
	store.employes["emp-1"] = models.Employe{ID: "emp-1", Email: "Guy@Example.com", EmailLower: "guy@example.com", IsAdmin: true}
	svc := NewService(store)

	grant, err := svc.Resolve(context.Background(), "uid-9", "Guy@Example.com")
	require.NoError(t, err)

	assert.True(t, grant.IsAdmin)
	assert.Equal(t, "uid-9", store.employes["emp-1"].UID, "record linked to the identity uid")
	assert.NotNil(t, store.employes["emp-1"].ActivatedAt)
}

func TestResolveByUIDWins(t *testing.T) {
	store := newFakeStore()
	store.employes["emp-1"] = models.Employe{ID: "emp-1", EmailLower: "guy@example.com", UID: "uid-9", IsAdmin: false}
	svc := NewService(store)

	grant, err := svc.Resolve(context.Background(), "uid-9", "guy@example.com")
	require.NoError(t, err)
	assert.False(t, grant.IsAdmin)
	require.NotNil(t, grant.TrailerID)
	assert.Equal(t, "uid-9", *grant.TrailerID)
}

func TestInviteAndVerifyActivation(t *testing.T) {
	store := newFakeStore()
	svc := NewService(store)
	ctx := context.Background()

	id, code, err := svc.Invite(ctx, "Guy Tremblay", "Guy@Example.com", false, "admin-1")
	require.NoError(t, err)
	require.Len(t, code, auth.ActivationCodeLength)

	emp := store.employes[id]
	assert.Equal(t, "guy@example.com", emp.EmailLower)
	require.NotNil(t, emp.ActivationHash)
	assert.NotEqual(t, code, *emp.ActivationHash, "only the hash is stored")

	_, err = svc.VerifyActivation(ctx, "guy@example.com", "000000")
	assert.ErrorIs(t, err, ErrBadCode)

	found, err := svc.VerifyActivation(ctx, " Guy@example.COM ", code)
	require.NoError(t, err)
	assert.Equal(t, id, found.ID)

	_, err = svc.VerifyActivation(ctx, "nobody@example.com", code)
	assert.ErrorIs(t, err, ErrNoInvitation)
}

func TestInviteValidation(t *testing.T) {
	store := newFakeStore()
	svc := NewService(store)
	ctx := context.Background()

	_, _, err := svc.Invite(ctx, "", "guy@example.com", false, "admin-1")
	assert.ErrorIs(t, err, ErrEmptyName)

	_, _, err = svc.Invite(ctx, "Guy", "not-an-email", false, "admin-1")
	assert.ErrorIs(t, err, ErrInvalidEmail)

	_, _, err = svc.Invite(ctx, "Guy", "guy@example.com", false, "admin-1")
	require.NoError(t, err)
	_, _, err = svc.Invite(ctx, "Guy Bis", "GUY@example.com", true, "admin-1")
	assert.ErrorIs(t, err, ErrDuplicateEmail)
}

func TestCompleteActivationProvisionsTrailer(t *testing.T) {
	store := newFakeStore()
	svc := NewService(store)
	ctx := context.Background()

	id, code, err := svc.Invite(ctx, "Guy Tremblay", "guy@example.com", false, "admin-1")
	require.NoError(t, err)

	emp, err := svc.VerifyActivation(ctx, "guy@example.com", code)
	require.NoError(t, err)
	require.NoError(t, svc.CompleteActivation(ctx, emp, "uid-7"))

	linked := store.employes[id]
	assert.Equal(t, "uid-7", linked.UID)
	assert.Nil(t, linked.ActivationHash, "code cleared once used")

	profile := store.profiles["uid-7"]
	require.NotNil(t, profile.TrailerID)
	assert.Equal(t, "uid-7", *profile.TrailerID)

	trailer := store.trailers["uid-7"]
	assert.Equal(t, "Guy Tremblay", trailer.TrailerNom)
	assert.Equal(t, "uid-7", trailer.OwnerUID)

	_, err = svc.VerifyActivation(ctx, "guy@example.com", code)
	assert.ErrorIs(t, err, ErrAlreadyActivated)
}

func TestCompleteActivationAdminHasNoTrailer(t *testing.T) {
	store := newFakeStore()
	svc := NewService(store)
	ctx := context.Background()

	_, code, err := svc.Invite(ctx, "Chef", "chef@example.com", true, "admin-1")
	require.NoError(t, err)

	emp, err := svc.VerifyActivation(ctx, "chef@example.com", code)
	require.NoError(t, err)
	require.NoError(t, svc.CompleteActivation(ctx, emp, "uid-8"))

	assert.Empty(t, store.trailers)
	assert.Nil(t, store.profiles["uid-8"].TrailerID)
}

func TestResetActivationCode(t *testing.T) {
	store := newFakeStore()
	svc := NewService(store)
	ctx := context.Background()

	id, code, err := svc.Invite(ctx, "Guy", "guy@example.com", false, "admin-1")
	require.NoError(t, err)

	fresh, err := svc.ResetActivationCode(ctx, id)
	require.NoError(t, err)
	assert.NotEqual(t, code, fresh)

	_, err = svc.VerifyActivation(ctx, "guy@example.com", code)
	assert.ErrorIs(t, err, ErrBadCode)
	_, err = svc.VerifyActivation(ctx, "guy@example.com", fresh)
	assert.NoError(t, err)
}

func TestResetActivationCodeBlockedOnceActivated(t *testing.T) {
	store := newFakeStore()
	svc := NewService(store)
	ctx := context.Background()

	id, code, err := svc.Invite(ctx, "Guy", "guy@example.com", false, "admin-1")
	require.NoError(t, err)
	emp, err := svc.VerifyActivation(ctx, "guy@example.com", code)
	require.NoError(t, err)
	require.NoError(t, svc.CompleteActivation(ctx, emp, "uid-7"))

	_, err = svc.ResetActivationCode(ctx, id)
	assert.ErrorIs(t, err, ErrAlreadyActivated)

	_, err = svc.ResetActivationCode(ctx, "nope")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSetAdminBlocksSelfDemotion(t *testing.T) {
	store := newFakeStore()
	store.employes["emp-1"] = models.Employe{ID: "emp-1", UID: "uid-1", IsAdmin: true}
	store.profiles["uid-1"] = models.UserProfile{UID: "uid-1", IsAdmin: true}
	svc := NewService(store)
	ctx := context.Background()

	err := svc.SetAdmin(ctx, "uid-1", "emp-1", false)
	assert.ErrorIs(t, err, ErrSelfChange)

	// promoting yourself again is a no-op, not an error
	require.NoError(t, svc.SetAdmin(ctx, "uid-1", "emp-1", true))
}

func TestSetAdminSyncsProfile(t *testing.T) {
	store := newFakeStore()
	store.employes["emp-2"] = models.Employe{ID: "emp-2", UID: "uid-2", IsAdmin: false}
	store.profiles["uid-2"] = models.UserProfile{UID: "uid-2", IsAdmin: false}
	svc := NewService(store)

	require.NoError(t, svc.SetAdmin(context.Background(), "uid-1", "emp-2", true))

	assert.True(t, store.employes["emp-2"].IsAdmin)
	assert.True(t, store.profiles["uid-2"].IsAdmin)
}

func TestDeleteCascadesForActivatedForeman(t *testing.T) {
	store := newFakeStore()
	store.employes["emp-2"] = models.Employe{ID: "emp-2", UID: "uid-2", IsAdmin: false}
	store.profiles["uid-2"] = models.UserProfile{UID: "uid-2"}
	store.trailers["uid-2"] = models.Trailer{ID: "uid-2", TrailerNom: "Guy"}
	svc := NewService(store)

	require.NoError(t, svc.Delete(context.Background(), "uid-1", "emp-2"))

	assert.Empty(t, store.employes)
	assert.Empty(t, store.profiles)
	assert.Empty(t, store.trailers)
}

func TestDeleteBlocksSelf(t *testing.T) {
	store := newFakeStore()
	store.employes["emp-1"] = models.Employe{ID: "emp-1", UID: "uid-1", IsAdmin: true}
	svc := NewService(store)

	err := svc.Delete(context.Background(), "uid-1", "emp-1")
	assert.ErrorIs(t, err, ErrSelfChange)
	assert.Len(t, store.employes, 1)
}

func TestListSortsByName(t *testing.T) {
	store := newFakeStore()
	store.employes["a"] = models.Employe{ID: "a", Nom: "Éric"}
	store.employes["b"] = models.Employe{ID: "b", Nom: "alain"}
	store.employes["c"] = models.Employe{ID: "c", Nom: "Zoé"}
	svc := NewService(store)

	employes, err := svc.List(context.Background())
	require.NoError(t, err)
	require.Len(t, employes, 3)
	assert.Equal(t, "alain", employes[0].Nom)
	assert.Equal(t, "Éric", employes[1].Nom)
	assert.Equal(t, "Zoé", employes[2].Nom)
}
