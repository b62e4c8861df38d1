package model

import "time"

// InventoryRecord authoritative inventory line, unique per composite key
type InventoryRecord struct {
	ID int64 `gorm:"primaryKey;autoIncrement" json:"id"`

	CompositeKey string `gorm:"type:varchar(191);uniqueIndex" json:"composite_key"`
	InventoryFields

	LastSessionId string `gorm:"type:varchar(64)" json:"last_session_id"` // Session that last wrote this record

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// TableName sets custom table name
func (InventoryRecord) TableName() string {
	return "tb_inventory_record"
}

// ApplyFields overwrites quantities, pricing and descriptive fields
func (r *InventoryRecord) ApplyFields(key string, f InventoryFields) {
	r.CompositeKey = key
	r.InventoryFields = f
	locations := make([]LocationQuantity, len(f.LocationQuantities))
	copy(locations, f.LocationQuantities)
	r.LocationQuantities = locations
}
