package database

import (
	"context"

	"github.com/benvon/sneaker-inventory/internal/models"
)

// UserRepositoryInterface defines the user lookups and writes used during identity reconciliation
type UserRepositoryInterface interface {
	Create(ctx context.Context, user *models.User) error
	GetBySubjectID(ctx context.Context, subjectID string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	UpdateSubjectID(ctx context.Context, user *models.User, subjectID string) error
}

// InventoryRepositoryInterface defines the interface for inventory repository operations
type InventoryRepositoryInterface interface {
	Create(ctx context.Context, item *models.InventoryItem) error
}

// Ensure concrete types implement the interfaces
var (
	_ UserRepositoryInterface      = (*UserRepository)(nil)
	_ InventoryRepositoryInterface = (*InventoryRepository)(nil)
)
