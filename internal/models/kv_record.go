package models

import "time"

// KVRecord is one key of the local key-value store.
// Values are serialized JSON documents.
type KVRecord struct {
	Key       string `gorm:"column:record_key;primaryKey"`
	Value     string `gorm:"type:text;not null"`
	UpdatedAt time.Time
}

// TableName pins the table name independent of gorm's pluralization.
func (KVRecord) TableName() string {
	return "kv_records"
}
