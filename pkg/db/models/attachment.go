package models

import "time"

// Attachment is a file reference stored against an order.
type Attachment struct {
	ID        int64     `gorm:"column:id;primaryKey;autoIncrement"`
	OrderID   int64     `gorm:"column:order_id;not null"`
	FilePath  string    `gorm:"column:file_path;type:varchar(500);not null"`
	Label     *string   `gorm:"column:label;type:varchar(200)"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
