package schema

import (
	"time"
)

// Purchase represents the credit_purchases table - an immutable record of credits bought by a business
type Purchase struct {
	// ID is the internal database primary key
	ID           uint64 `gorm:"column:id;primaryKey;autoIncrement"`
	PlantationID uint64 `gorm:"column:plantation_id;not null;index"`
	BusinessID   uint64 `gorm:"column:business_id;not null;index"`
	// CreditsBought is always positive
	CreditsBought float64   `gorm:"column:credits_bought;not null"`
	CreatedAt     time.Time `gorm:"column:created_at;not null;autoCreateTime"`

	// Associations
	Plantation *Plantation `gorm:"foreignKey:PlantationID;constraint:OnDelete:RESTRICT"`
	Business   *Business   `gorm:"foreignKey:BusinessID;constraint:OnDelete:RESTRICT"`
}

// TableName specifies the table name for the Purchase model
func (Purchase) TableName() string {
	return "credit_purchases"
}
