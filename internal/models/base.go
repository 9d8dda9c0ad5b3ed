package models

import "time"

// Base holds the columns shared by every table. CreatedAt is written on insert only.
type Base struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `gorm:"<-:create;autoCreateTime;not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// All lists every model in dependency order for AutoMigrate.
func All() []any {
	return []any{
		&User{},
		&Seller{},
		&Profile{},
		&Product{},
		&ProductImage{},
		&ProductVariation{},
	}
}

func (b Base) GetID() uint {
	return b.ID
}
