package database

import (
	"context"
	"fmt"

	"github.com/benvon/sneaker-inventory/internal/models"
	"gorm.io/gorm"
)

// InventoryRepository handles inventory database operations
type InventoryRepository struct {
	conn *gorm.DB
}

// NewInventoryRepository creates a new inventory repository. conn may be a transaction handle.
func NewInventoryRepository(conn *gorm.DB) *InventoryRepository {
	return &InventoryRepository{conn: conn}
}

// Create inserts an item and fills in its generated ID
func (r *InventoryRepository) Create(ctx context.Context, item *models.InventoryItem) error {
	if item.Status == "" {
		item.Status = models.StatusInStock
	}
	if err := r.conn.WithContext(ctx).Create(item).Error; err != nil {
		return fmt.Errorf("failed to create inventory item: %w", err)
	}
	return nil
}

// CountByOwner returns how many items a user owns
func (r *InventoryRepository) CountByOwner(ctx context.Context, ownerID int64) (int64, error) {
	var count int64
	err := r.conn.WithContext(ctx).Model(&models.InventoryItem{}).Where("owner_id = ?", ownerID).Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("failed to count inventory items: %w", err)
	}
	return count, nil
}
