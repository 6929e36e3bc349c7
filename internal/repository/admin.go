package repository

import (
	"context"
	"fmt"
	"strings"

	"expense_tracker/internal/domain"

	"gorm.io/gorm"
)

// AdminRepository persists admins
type AdminRepository struct {
	db *gorm.DB
}

// NewAdminRepository returns an AdminRepository
func NewAdminRepository(db *gorm.DB) *AdminRepository {
	return &AdminRepository{db: db}
}

// Create stores a, rejecting a taken username or email with ErrConflict
func (r *AdminRepository) Create(ctx context.Context, a *domain.Admin) error {
	a.Username = strings.ToLower(strings.TrimSpace(a.Username))
	a.Email = strings.ToLower(strings.TrimSpace(a.Email))
	if a.Role == "" {
		a.Role = domain.RoleAdmin
	}
	a.IsActive = true

	var n int64
	err := r.db.WithContext(ctx).Model(&domain.Admin{}).
		Where("username = ? OR email = ?", a.Username, a.Email).Count(&n).Error
	if err != nil {
		return fmt.Errorf("check admin uniqueness: %w", err)
	}
	if n > 0 {
		return fmt.Errorf("create admin %q: %w", a.Username, domain.ErrConflict)
	}
	if err := r.db.WithContext(ctx).Create(a).Error; err != nil {
		return fmt.Errorf("create admin %q: %w", a.Username, translate(err))
	}
	return nil
}

// ActiveByEmail returns the active admin registered with email
func (r *AdminRepository) ActiveByEmail(ctx context.Context, email string) (*domain.Admin, error) {
	var a domain.Admin
	err := r.db.WithContext(ctx).
		Where("email = ? AND is_active = ?", strings.ToLower(strings.TrimSpace(email)), true).
		First(&a).Error
	if err != nil {
		return nil, fmt.Errorf("get admin by email: %w", translate(err))
	}
	return &a, nil
}

// ActiveByID returns the admin with id if it is still active
func (r *AdminRepository) ActiveByID(ctx context.Context, id uint) (*domain.Admin, error) {
	var a domain.Admin
	if err := r.db.WithContext(ctx).Where("id = ? AND is_active = ?", id, true).First(&a).Error; err != nil {
		return nil, fmt.Errorf("get admin %d: %w", id, translate(err))
	}
	return &a, nil
}

// SetActive enables or disables the admin with email
func (r *AdminRepository) SetActive(ctx context.Context, email string, active bool) error {
	res := r.db.WithContext(ctx).Model(&domain.Admin{}).
		Where("email = ?", strings.ToLower(strings.TrimSpace(email))).
		Update("is_active", active)
	if res.Error != nil {
		return fmt.Errorf("set admin active: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("set admin active: %w", domain.ErrNotFound)
	}
	return nil
}
