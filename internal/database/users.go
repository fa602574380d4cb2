package database

import (
	"context"
	"errors"
	"fmt"

	"github.com/benvon/sneaker-inventory/internal/models"
	"gorm.io/gorm"
)

// UserRepository handles user database operations
type UserRepository struct {
	conn *gorm.DB
}

// NewUserRepository creates a new user repository. conn may be a transaction handle.
func NewUserRepository(conn *gorm.DB) *UserRepository {
	return &UserRepository{conn: conn}
}

// Create inserts a new user and fills in its generated ID and timestamps
func (r *UserRepository) Create(ctx context.Context, user *models.User) error {
	if err := r.conn.WithContext(ctx).Create(user).Error; err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

// GetBySubjectID retrieves a user by the identity provider's subject id
func (r *UserRepository) GetBySubjectID(ctx context.Context, subjectID string) (*models.User, error) {
	return r.first(ctx, "firebase_uid = ?", subjectID)
}

// GetByEmail retrieves a user by email. Matching is exact.
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.first(ctx, "email = ?", email)
}

func (r *UserRepository) first(ctx context.Context, query string, arg any) (*models.User, error) {
	user := &models.User{}
	err := r.conn.WithContext(ctx).Where(query, arg).Take(user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("user not found: %w", ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return user, nil
}

// UpdateSubjectID rebinds an existing user to a new subject id
func (r *UserRepository) UpdateSubjectID(ctx context.Context, user *models.User, subjectID string) error {
	result := r.conn.WithContext(ctx).Model(user).Update("firebase_uid", subjectID)
	if result.Error != nil {
		return fmt.Errorf("failed to update user subject id: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("user not found: %w", ErrNotFound)
	}
	user.FirebaseUID = subjectID
	return nil
}

// Delete removes a user. Inventory rows go with it through ON DELETE CASCADE.
func (r *UserRepository) Delete(ctx context.Context, id int64) error {
	result := r.conn.WithContext(ctx).Delete(&models.User{}, id)
	if result.Error != nil {
		return fmt.Errorf("failed to delete user: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("user not found: %w", ErrNotFound)
	}
	return nil
}
