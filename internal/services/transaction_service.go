package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/kasirpos/backend/internal/dto"
	"github.com/kasirpos/backend/internal/models"
	"github.com/kasirpos/backend/internal/tenant"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	ErrNoItems              = errors.New("transaction requires at least one item")
	ErrInvalidPaymentMethod = errors.New("payment method must be CASH or CREDIT")
	ErrNoStoreAccess        = errors.New("user has no access to this store")
	ErrStoreNotFound        = errors.New("store not found")
	ErrVariantNotFound      = errors.New("product variant not found in this store")
	ErrCustomerRequired     = errors.New("credit sales require customer name and phone")
	ErrInsufficientStock    = errors.New("insufficient stock")
	ErrInsufficientPayment  = errors.New("amount paid is below total")
	ErrTransactionNotFound  = errors.New("transaction not found")
)

type TransactionService struct {
	db *gorm.DB
}

func NewTransactionService(db *gorm.DB) *TransactionService {
	return &TransactionService{db: db}
}

// CreateTransaction commits a sale as one atomic unit: customer upsert,
// stock floor-check decrements, invoice counter claim and row inserts all
// succeed or roll back together. Prices are re-read server-side and
// snapshotted into the items; client-supplied prices are never trusted.
func (s *TransactionService) CreateTransaction(ctx context.Context, storeID, userID uuid.UUID, req *dto.CreateTransactionRequest) (*models.Transaction, error) {
	if len(req.Items) == 0 {
		return nil, ErrNoItems
	}
	if req.PaymentMethod != models.PaymentMethodCash && req.PaymentMethod != models.PaymentMethodCredit {
		return nil, ErrInvalidPaymentMethod
	}
	for _, item := range req.Items {
		if item.Quantity <= 0 {
			return nil, fmt.Errorf("%w: quantity must be positive", ErrNoItems)
		}
	}
	if req.PaymentMethod == models.PaymentMethodCredit &&
		(req.CustomerName == "" || req.CustomerPhone == "") {
		return nil, ErrCustomerRequired
	}

	var store models.Store
	if err := s.db.First(&store, "id = ?", storeID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrStoreNotFound
		}
		return nil, fmt.Errorf("failed to load store: %w", err)
	}

	ok, err := s.HasStoreAccess(storeID, userID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrNoStoreAccess
	}

	var created models.Transaction
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var customerID *uuid.UUID
		if req.PaymentMethod == models.PaymentMethodCredit {
			// Same phone in the same store reuses the customer record.
			var customer models.Customer
			if err := tx.Where(models.Customer{StoreID: storeID, Phone: req.CustomerPhone}).
				Assign(models.Customer{Name: req.CustomerName}).
				FirstOrCreate(&customer).Error; err != nil {
				return fmt.Errorf("failed to upsert customer: %w", err)
			}
			customerID = &customer.ID
		}

		var subtotal int64
		items := make([]models.TransactionItem, 0, len(req.Items))
		for _, line := range req.Items {
			var variant models.ProductVariant
			if err := tx.Preload("Product").First(&variant, "id = ?", line.VariantID).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return ErrVariantNotFound
				}
				return fmt.Errorf("failed to load variant: %w", err)
			}
			if variant.Product.StoreID != storeID || variant.ProductID != line.ProductID {
				return ErrVariantNotFound
			}

			// Atomic decrement with floor check: the quantity guard and the
			// decrement are one statement, so a concurrent sale cannot both
			// pass a stale stock read.
			res := tx.Model(&models.ProductVariant{}).
				Where("id = ? AND quantity >= ?", variant.ID, line.Quantity).
				UpdateColumn("quantity", gorm.Expr("quantity - ?", line.Quantity))
			if res.Error != nil {
				return fmt.Errorf("failed to decrement stock: %w", res.Error)
			}
			if res.RowsAffected == 0 {
				return fmt.Errorf("%w for %q", ErrInsufficientStock, variant.Product.Name)
			}

			name := variant.Product.Name
			if variant.Name != "" {
				name = name + " - " + variant.Name
			}
			lineSubtotal := variant.Price * line.Quantity
			subtotal += lineSubtotal
			items = append(items, models.TransactionItem{
				ProductID: variant.ProductID,
				VariantID: variant.ID,
				Name:      name,
				Quantity:  line.Quantity,
				Price:     variant.Price,
				Subtotal:  lineSubtotal,
			})
		}

		tax := subtotal * store.TaxPercent / 100
		var discount int64 // reserved, always 0 at creation time
		total := subtotal + tax - discount

		var amountPaid, change int64
		if req.PaymentMethod == models.PaymentMethodCash {
			if req.AmountPaid < total {
				return fmt.Errorf("%w: short by %d", ErrInsufficientPayment, total-req.AmountPaid)
			}
			amountPaid = req.AmountPaid
			change = amountPaid - total
		}

		// Claim the next invoice number with a single atomic increment;
		// RETURNING serializes concurrent sales on the counter row.
		var claimed models.Store
		res := tx.Model(&claimed).
			Clauses(clause.Returning{Columns: []clause.Column{{Name: "invoice_counter"}}}).
			Where("id = ?", storeID).
			UpdateColumn("invoice_counter", gorm.Expr("invoice_counter + ?", 1))
		if res.Error != nil {
			return fmt.Errorf("failed to advance invoice counter: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return ErrStoreNotFound
		}
		seq := claimed.InvoiceCounter

		created = models.Transaction{
			ID:            uuid.New(),
			StoreID:       storeID,
			UserID:        userID,
			CustomerID:    customerID,
			InvoiceSeq:    seq,
			InvoiceNumber: fmt.Sprintf("INV-%06d", seq),
			PaymentMethod: req.PaymentMethod,
			Subtotal:      subtotal,
			Tax:           tax,
			Discount:      discount,
			Total:         total,
			AmountPaid:    amountPaid,
			Change:        change,
			Items:         items,
		}
		if err := tx.Create(&created).Error; err != nil {
			return fmt.Errorf("failed to create transaction: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	var full models.Transaction
	if err := s.db.Preload("Items").Preload("Customer").Preload("Cashier").
		First(&full, "id = ?", created.ID).Error; err != nil {
		return nil, fmt.Errorf("failed to reload transaction: %w", err)
	}
	return &full, nil
}

// GetHistoryAll lists a store's transactions, newest first. Owner or active
// member only.
func (s *TransactionService) GetHistoryAll(storeID, userID uuid.UUID, limit, offset int) ([]models.Transaction, error) {
	ok, err := s.HasStoreAccess(storeID, userID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrNoStoreAccess
	}

	if limit <= 0 || limit > 100 {
		limit = 50
	}

	var txns []models.Transaction
	err = s.db.Preload("Items").Preload("Customer").
		Scopes(tenant.ForStore(storeID)).
		Order("invoice_seq DESC").
		Limit(limit).Offset(offset).
		Find(&txns).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load transactions: %w", err)
	}
	return txns, nil
}

// GetHistoryByID loads one transaction. Owner or active member only.
func (s *TransactionService) GetHistoryByID(storeID, userID, txnID uuid.UUID) (*models.Transaction, error) {
	ok, err := s.HasStoreAccess(storeID, userID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrNoStoreAccess
	}

	var txn models.Transaction
	err = s.db.Preload("Items").Preload("Customer").Preload("Cashier").
		Scopes(tenant.ForStore(storeID)).
		First(&txn, "id = ?", txnID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTransactionNotFound
		}
		return nil, fmt.Errorf("failed to load transaction: %w", err)
	}
	return &txn, nil
}

// HasStoreAccess reports whether the user owns the store or is an active
// member of it.
func (s *TransactionService) HasStoreAccess(storeID, userID uuid.UUID) (bool, error) {
	var owned int64
	if err := s.db.Model(&models.Store{}).
		Where("id = ? AND owner_id = ?", storeID, userID).
		Count(&owned).Error; err != nil {
		return false, fmt.Errorf("failed to check store ownership: %w", err)
	}
	if owned > 0 {
		return true, nil
	}

	var member int64
	if err := s.db.Model(&models.StoreMember{}).
		Scopes(tenant.ForStore(storeID), tenant.ForUser(userID)).
		Where("is_active = ?", true).
		Count(&member).Error; err != nil {
		return false, fmt.Errorf("failed to check store membership: %w", err)
	}
	return member > 0, nil
}
