package models

import "time"

// StatusInStock is the status every newly added item starts with.
const StatusInStock = "In Stock"

// InventoryItem is a single sneaker owned by a user
type InventoryItem struct {
	ID            int64     `gorm:"primaryKey" json:"id"`
	UPC           string    `gorm:"column:upc;type:text;not null;index:idx_inventory_upc" json:"upc"`
	Name          string    `gorm:"column:name;type:text;not null" json:"name"`
	Size          *string   `gorm:"column:size;type:text" json:"size,omitempty"`
	Condition     *string   `gorm:"column:condition;type:text" json:"condition,omitempty"`
	PurchasePrice float64   `gorm:"column:purchase_price;not null;default:0" json:"purchase_price"`
	Status        string    `gorm:"column:status;type:text;not null;default:'In Stock'" json:"status"`
	OwnerID       int64     `gorm:"column:owner_id;not null;index:idx_inventory_owner_id" json:"owner_id"`
	CreatedAt     time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
}

// TableName pins the table name used by the migrations.
func (InventoryItem) TableName() string {
	return "inventory"
}

// ShoeCreateRequest is the body accepted by POST /api/inventory/add
type ShoeCreateRequest struct {
	UPC           string   `json:"upc" validate:"required,max=64"`
	Name          string   `json:"name" validate:"required,max=200"`
	Size          string   `json:"size" validate:"required,max=32"`
	Condition     string   `json:"condition" validate:"required,max=64"`
	PurchasePrice *float64 `json:"purchase_price" validate:"required,finite,gte=0"`
}
