package repository

import (
	"context"
	"fmt"
	"strings"

	"expense_tracker/internal/calendar"
	"expense_tracker/internal/domain"

	"gorm.io/gorm"
)

// TransactionFilter narrows ListForOwner
type TransactionFilter struct {
	Type *domain.TransactionType
}

// TransactionRepository persists transactions and enforces ownership
type TransactionRepository struct {
	db  *gorm.DB
	cal calendar.Converter
}

// NewTransactionRepository returns a repository using cal to derive display dates
func NewTransactionRepository(db *gorm.DB, cal calendar.Converter) *TransactionRepository {
	return &TransactionRepository{db: db, cal: cal}
}

// Create stores a new transaction owned by ownerID
func (r *TransactionRepository) Create(ctx context.Context, ownerID uint, in domain.NewTransaction) (*domain.Transaction, error) {
	in.Normalize()
	if err := in.Validate(); err != nil {
		return nil, err
	}
	t := domain.Transaction{
		UserID:      ownerID,
		Type:        in.Type,
		Amount:      in.Amount,
		Category:    in.Category,
		Description: in.Description,
		Date:        in.Date,
		BSDate:      r.cal.Format(in.Date),
	}
	if err := r.db.WithContext(ctx).Create(&t).Error; err != nil {
		return nil, fmt.Errorf("create transaction: %w", translate(err))
	}
	return &t, nil
}

// ListForOwner returns the owner's transactions, newest created first
func (r *TransactionRepository) ListForOwner(ctx context.Context, ownerID uint, f TransactionFilter) ([]domain.Transaction, error) {
	q := r.db.WithContext(ctx).Where("user_id = ?", ownerID)
	if f.Type != nil {
		q = q.Where("type = ?", *f.Type)
	}
	txs := []domain.Transaction{}
	if err := q.Order("created_at desc").Order("id desc").Find(&txs).Error; err != nil {
		return nil, fmt.Errorf("list transactions for user %d: %w", ownerID, err)
	}
	return txs, nil
}

// Get returns one transaction if ownerID owns it
func (r *TransactionRepository) Get(ctx context.Context, ownerID, id uint) (*domain.Transaction, error) {
	var t domain.Transaction
	if err := r.db.WithContext(ctx).Where("id = ? AND user_id = ?", id, ownerID).First(&t).Error; err != nil {
		return nil, fmt.Errorf("get transaction %d: %w", id, translate(err))
	}
	return &t, nil
}

// Update applies patch to the transaction if ownerID owns it.
// Ownership and the write are one conditional statement, so a concurrent
// delete either wins before it (ErrNotFound) or after it.
func (r *TransactionRepository) Update(ctx context.Context, ownerID, id uint, patch domain.TransactionPatch) (*domain.Transaction, error) {
	if err := patch.Validate(); err != nil {
		return nil, err
	}
	updates := map[string]any{}
	if patch.Type != nil {
		updates["type"] = *patch.Type
	}
	if patch.Amount != nil {
		updates["amount"] = *patch.Amount
	}
	if patch.Category != nil {
		updates["category"] = strings.TrimSpace(*patch.Category)
	}
	if patch.Description != nil {
		updates["description"] = strings.TrimSpace(*patch.Description)
	}
	if patch.Date != nil {
		date := domain.DateOnly(*patch.Date)
		updates["date"] = date
		updates["bs_date"] = r.cal.Format(date)
	}

	var out domain.Transaction
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&domain.Transaction{}).Where("id = ? AND user_id = ?", id, ownerID).Updates(updates)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return domain.ErrNotFound
		}
		return tx.First(&out, id).Error
	})
	if err != nil {
		return nil, fmt.Errorf("update transaction %d: %w", id, translate(err))
	}
	return &out, nil
}

// Delete removes the transaction if ownerID owns it
func (r *TransactionRepository) Delete(ctx context.Context, ownerID, id uint) error {
	res := r.db.WithContext(ctx).Where("id = ? AND user_id = ?", id, ownerID).Delete(&domain.Transaction{})
	if res.Error != nil {
		return fmt.Errorf("delete transaction %d: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("delete transaction %d: %w", id, domain.ErrNotFound)
	}
	return nil
}

// ListAll returns one page of every user's transactions with the owner preloaded
func (r *TransactionRepository) ListAll(ctx context.Context, p Page) ([]domain.Transaction, int64, error) {
	var total int64
	if err := r.db.WithContext(ctx).Model(&domain.Transaction{}).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("count transactions: %w", err)
	}
	txs := []domain.Transaction{}
	err := r.db.WithContext(ctx).
		Preload("User").
		Order("created_at desc").Order("id desc").
		Offset(p.Offset()).Limit(p.Limit).
		Find(&txs).Error
	if err != nil {
		return nil, 0, fmt.Errorf("list transactions: %w", err)
	}
	return txs, total, nil
}
