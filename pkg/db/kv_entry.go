package db

import "time"

// KVEntry is one row of the SQL key-value backend holding a serialized cart.
type KVEntry struct {
	Key       string    `gorm:"column:key;primaryKey;size:255"`
	Value     string    `gorm:"column:value;type:text;not null"`
	UpdatedAt time.Time `gorm:"column:updated_at;not null"`
}

func (KVEntry) TableName() string {
	return "cart_kv_entries"
}
