package services

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/kasirpos/backend/internal/dto"
	"github.com/kasirpos/backend/internal/models"
	"github.com/kasirpos/backend/internal/tenant"
	"gorm.io/gorm"
)

var ErrNotStoreOwner = errors.New("only the store owner can manage members")

type StoreService struct {
	db            *gorm.DB
	subscriptions *SubscriptionService
}

func NewStoreService(db *gorm.DB, subs *SubscriptionService) *StoreService {
	return &StoreService{db: db, subscriptions: subs}
}

// CreateStore is the single creation path for first and additional stores;
// the entitlement decision is computed up front and carried in the result
// when creation is refused.
func (s *StoreService) CreateStore(userID uuid.UUID, req *dto.CreateStoreRequest) (*models.Store, *dto.EntitlementDecision, error) {
	if req.Name == "" {
		return nil, nil, errors.New("store name is required")
	}

	decision, err := s.subscriptions.CanCreateStore(userID)
	if err != nil {
		return nil, nil, err
	}
	if !decision.Allowed {
		return nil, decision, nil
	}

	store := models.Store{
		ID:      uuid.New(),
		OwnerID: userID,
		Name:    req.Name,
		Address: req.Address,
		Phone:   req.Phone,
	}
	if err := s.db.Create(&store).Error; err != nil {
		return nil, nil, fmt.Errorf("failed to create store: %w", err)
	}
	return &store, decision, nil
}

// AddMember adds (or reactivates) a staff member on a store, gated by the
// owner's maxMembers entitlement.
func (s *StoreService) AddMember(storeID, ownerID uuid.UUID, req *dto.AddMemberRequest) (*models.StoreMember, *dto.EntitlementDecision, error) {
	var store models.Store
	if err := s.db.First(&store, "id = ?", storeID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, ErrStoreNotFound
		}
		return nil, nil, fmt.Errorf("failed to load store: %w", err)
	}
	if store.OwnerID != ownerID {
		return nil, nil, ErrNotStoreOwner
	}

	var user models.User
	if err := s.db.Where("email = ?", req.Email).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, ErrUserNotFound
		}
		return nil, nil, fmt.Errorf("failed to load user: %w", err)
	}

	decision, err := s.subscriptions.CanAddMember(storeID, ownerID)
	if err != nil {
		return nil, nil, err
	}
	if !decision.Allowed {
		return nil, decision, nil
	}

	role := req.Role
	if role == "" {
		role = "cashier"
	}

	var member models.StoreMember
	err = s.db.Where(models.StoreMember{StoreID: storeID, UserID: user.ID}).
		Assign(models.StoreMember{Role: role, IsActive: true}).
		FirstOrCreate(&member).Error
	if err != nil {
		return nil, nil, fmt.Errorf("failed to add member: %w", err)
	}
	return &member, decision, nil
}

// ListStores returns stores the user owns plus stores they are an active
// member of.
func (s *StoreService) ListStores(userID uuid.UUID) ([]models.Store, error) {
	var memberStoreIDs []uuid.UUID
	if err := s.db.Model(&models.StoreMember{}).
		Scopes(tenant.ForUser(userID)).
		Where("is_active = ?", true).
		Pluck("store_id", &memberStoreIDs).Error; err != nil {
		return nil, fmt.Errorf("failed to load memberships: %w", err)
	}

	var stores []models.Store
	query := s.db.Where("owner_id = ?", userID)
	if len(memberStoreIDs) > 0 {
		query = query.Or("id IN ?", memberStoreIDs)
	}
	if err := query.Order("created_at ASC").Find(&stores).Error; err != nil {
		return nil, fmt.Errorf("failed to load stores: %w", err)
	}
	return stores, nil
}
