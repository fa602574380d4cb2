package models

import "time"

// User is the local account bound to a Firebase identity.
// Deleting a user removes their inventory rows through the owner_id foreign key.
type User struct {
	ID          int64           `gorm:"primaryKey" json:"id"`
	FirebaseUID string          `gorm:"column:firebase_uid;type:text;not null;uniqueIndex:users_firebase_uid_key" json:"firebase_uid"`
	Email       string          `gorm:"column:email;type:text;not null;uniqueIndex:users_email_key" json:"email"`
	Inventory   []InventoryItem `gorm:"foreignKey:OwnerID;constraint:OnDelete:CASCADE" json:"-"`
	CreatedAt   time.Time       `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time       `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

// TableName pins the table name used by the migrations.
func (User) TableName() string {
	return "users"
}
