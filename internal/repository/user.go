package repository

import (
	"context"
	"fmt"
	"strings"

	"expense_tracker/internal/domain"

	"gorm.io/gorm"
)

// UserRepository persists users
type UserRepository struct {
	db *gorm.DB
}

// NewUserRepository returns a UserRepository
func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

// Create stores u, rejecting a taken username or email with ErrConflict
func (r *UserRepository) Create(ctx context.Context, u *domain.User) error {
	u.Username = strings.ToLower(strings.TrimSpace(u.Username))
	u.Email = strings.ToLower(strings.TrimSpace(u.Email))
	taken, err := r.taken(ctx, u.Username, u.Email, 0)
	if err != nil {
		return err
	}
	if taken {
		return fmt.Errorf("create user %q: %w", u.Username, domain.ErrConflict)
	}
	if err := r.db.WithContext(ctx).Create(u).Error; err != nil {
		return fmt.Errorf("create user %q: %w", u.Username, translate(err))
	}
	return nil
}

// ByID returns the user with id
func (r *UserRepository) ByID(ctx context.Context, id uint) (*domain.User, error) {
	var u domain.User
	if err := r.db.WithContext(ctx).First(&u, id).Error; err != nil {
		return nil, fmt.Errorf("get user %d: %w", id, translate(err))
	}
	return &u, nil
}

// ByEmail returns the user registered with email
func (r *UserRepository) ByEmail(ctx context.Context, email string) (*domain.User, error) {
	var u domain.User
	err := r.db.WithContext(ctx).Where("email = ?", strings.ToLower(strings.TrimSpace(email))).First(&u).Error
	if err != nil {
		return nil, fmt.Errorf("get user by email: %w", translate(err))
	}
	return &u, nil
}

// UpdateProfile applies patch to the user's own profile
func (r *UserRepository) UpdateProfile(ctx context.Context, id uint, patch domain.ProfilePatch) (*domain.User, error) {
	updates := map[string]any{}
	var username, email string
	if patch.Username != nil {
		username = strings.ToLower(strings.TrimSpace(*patch.Username))
		updates["username"] = username
	}
	if patch.Email != nil {
		email = strings.ToLower(strings.TrimSpace(*patch.Email))
		updates["email"] = email
	}
	if patch.FirstName != nil {
		updates["first_name"] = strings.TrimSpace(*patch.FirstName)
	}
	if patch.LastName != nil {
		updates["last_name"] = strings.TrimSpace(*patch.LastName)
	}
	if username != "" || email != "" {
		taken, err := r.taken(ctx, username, email, id)
		if err != nil {
			return nil, err
		}
		if taken {
			return nil, fmt.Errorf("update user %d: %w", id, domain.ErrConflict)
		}
	}
	if len(updates) > 0 {
		res := r.db.WithContext(ctx).Model(&domain.User{}).Where("id = ?", id).Updates(updates)
		if res.Error != nil {
			return nil, fmt.Errorf("update user %d: %w", id, translate(res.Error))
		}
		if res.RowsAffected == 0 {
			return nil, fmt.Errorf("update user %d: %w", id, domain.ErrNotFound)
		}
	}
	return r.ByID(ctx, id)
}

// List returns one page of users, newest first
func (r *UserRepository) List(ctx context.Context, p Page) ([]domain.User, int64, error) {
	var total int64
	if err := r.db.WithContext(ctx).Model(&domain.User{}).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("count users: %w", err)
	}
	users := []domain.User{}
	err := r.db.WithContext(ctx).Order("created_at desc").Order("id desc").
		Offset(p.Offset()).Limit(p.Limit).Find(&users).Error
	if err != nil {
		return nil, 0, fmt.Errorf("list users: %w", err)
	}
	return users, total, nil
}

// taken reports whether username or email belongs to a user other than exceptID
func (r *UserRepository) taken(ctx context.Context, username, email string, exceptID uint) (bool, error) {
	q := r.db.WithContext(ctx).Model(&domain.User{})
	switch {
	case username != "" && email != "":
		q = q.Where("username = ? OR email = ?", username, email)
	case username != "":
		q = q.Where("username = ?", username)
	default:
		q = q.Where("email = ?", email)
	}
	if exceptID != 0 {
		q = q.Where("id <> ?", exceptID)
	}
	var n int64
	if err := q.Count(&n).Error; err != nil {
		return false, fmt.Errorf("check user uniqueness: %w", err)
	}
	return n > 0, nil
}
