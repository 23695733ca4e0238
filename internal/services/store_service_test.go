package services

import (
	"testing"
	"time"

	"github.com/kasirpos/backend/internal/dto"
	"github.com/kasirpos/backend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateStoreGatedByEntitlement(t *testing.T) {
	db := newTestDB(t)
	subs := NewSubscriptionService(db, nil)
	svc := NewStoreService(db, subs)

	owner := seedUser(t, db, true)
	pkg := seedPackage(t, db, "basic", 50000, 1, 2)
	seedSubscription(t, db, owner.ID, pkg.ID, models.SubscriptionActive, 20*24*time.Hour)

	store, decision, err := svc.CreateStore(owner.ID, &dto.CreateStoreRequest{Name: "Toko Satu"})
	require.NoError(t, err)
	require.NotNil(t, store)
	assert.True(t, decision.Allowed)

	// The limit is one store on this package; the refusal is a decision, not
	// an error.
	store, decision, err = svc.CreateStore(owner.ID, &dto.CreateStoreRequest{Name: "Toko Dua"})
	require.NoError(t, err)
	assert.Nil(t, store)
	require.NotNil(t, decision)
	assert.False(t, decision.Allowed)
	assert.Contains(t, decision.Reason, "store limit reached")
}

func TestCreateStoreWithoutSubscription(t *testing.T) {
	db := newTestDB(t)
	svc := NewStoreService(db, NewSubscriptionService(db, nil))
	owner := seedUser(t, db, true)

	store, decision, err := svc.CreateStore(owner.ID, &dto.CreateStoreRequest{Name: "Toko"})
	require.NoError(t, err)
	assert.Nil(t, store)
	require.NotNil(t, decision)
	assert.False(t, decision.Allowed)
	assert.Equal(t, "no active subscription", decision.Reason)
}

func TestAddMemberOwnerOnly(t *testing.T) {
	db := newTestDB(t)
	subs := NewSubscriptionService(db, nil)
	svc := NewStoreService(db, subs)

	owner := seedUser(t, db, true)
	pkg := seedPackage(t, db, "basic", 50000, 1, 2)
	seedSubscription(t, db, owner.ID, pkg.ID, models.SubscriptionActive, 20*24*time.Hour)
	store := seedStore(t, db, owner.ID, 0)

	cashier := seedUser(t, db, true)
	stranger := seedUser(t, db, true)

	_, _, err := svc.AddMember(store.ID, stranger.ID, &dto.AddMemberRequest{Email: cashier.Email})
	assert.ErrorIs(t, err, ErrNotStoreOwner)

	member, decision, err := svc.AddMember(store.ID, owner.ID, &dto.AddMemberRequest{Email: cashier.Email})
	require.NoError(t, err)
	require.NotNil(t, member)
	assert.True(t, decision.Allowed)
	assert.Equal(t, "cashier", member.Role)
	assert.True(t, member.IsActive)

	_, _, err = svc.AddMember(store.ID, owner.ID, &dto.AddMemberRequest{Email: "ghost@example.com"})
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestAddMemberReactivates(t *testing.T) {
	db := newTestDB(t)
	subs := NewSubscriptionService(db, nil)
	svc := NewStoreService(db, subs)

	owner := seedUser(t, db, true)
	pkg := seedPackage(t, db, "basic", 50000, 1, 2)
	seedSubscription(t, db, owner.ID, pkg.ID, models.SubscriptionActive, 20*24*time.Hour)
	store := seedStore(t, db, owner.ID, 0)
	cashier := seedUser(t, db, true)

	member, _, err := svc.AddMember(store.ID, owner.ID, &dto.AddMemberRequest{Email: cashier.Email, Role: "manager"})
	require.NoError(t, err)
	require.NoError(t, db.Model(member).UpdateColumn("is_active", false).Error)

	again, _, err := svc.AddMember(store.ID, owner.ID, &dto.AddMemberRequest{Email: cashier.Email, Role: "manager"})
	require.NoError(t, err)
	assert.Equal(t, member.ID, again.ID)
	assert.True(t, again.IsActive)

	var rows int64
	require.NoError(t, db.Model(&models.StoreMember{}).Count(&rows).Error)
	assert.EqualValues(t, 1, rows)
}

func TestListStoresIncludesMemberships(t *testing.T) {
	db := newTestDB(t)
	svc := NewStoreService(db, NewSubscriptionService(db, nil))

	owner := seedUser(t, db, true)
	other := seedUser(t, db, true)
	owned := seedStore(t, db, owner.ID, 0)
	foreign := seedStore(t, db, other.ID, 0)
	seedStore(t, db, other.ID, 0)

	require.NoError(t, db.Create(&models.StoreMember{
		StoreID: foreign.ID, UserID: owner.ID, IsActive: true,
	}).Error)

	stores, err := svc.ListStores(owner.ID)
	require.NoError(t, err)
	require.Len(t, stores, 2)

	ids := []string{stores[0].ID.String(), stores[1].ID.String()}
	assert.Contains(t, ids, owned.ID.String())
	assert.Contains(t, ids, foreign.ID.String())
}
