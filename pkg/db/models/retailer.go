package models

import "time"

// Retailer owns gift cards and orders. Code and name are both unique.
type Retailer struct {
	ID          int64     `gorm:"column:id;primaryKey;autoIncrement"`
	Code        string    `gorm:"column:code;type:varchar(16);not null;uniqueIndex"`
	Name        string    `gorm:"column:name;type:varchar(100);not null;uniqueIndex"`
	RequiresPin bool      `gorm:"column:requires_pin;not null;default:false"`
	Notes       *string   `gorm:"column:notes;type:varchar(500)"`
	CreatedAt   time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
