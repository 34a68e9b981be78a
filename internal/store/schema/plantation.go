package schema

import (
	"time"

	"github.com/feral-file/carbon-marketplace/internal/domain"
)

// Plantation represents the plantations table - a registered tree parcel and its credit balance
type Plantation struct {
	// ID is the internal database primary key
	ID uint64 `gorm:"column:id;primaryKey;autoIncrement"`
	// FarmerID references the owning farmer
	FarmerID  uint64  `gorm:"column:farmer_id;not null;index"`
	Latitude  float64 `gorm:"column:latitude;not null"`
	Longitude float64 `gorm:"column:longitude;not null"`
	TreeType  string  `gorm:"column:tree_type;not null;type:text"`
	// Area is the parcel size in hectares
	Area float64 `gorm:"column:area;not null"`
	// NDVI is the vegetation index in [0, 1]
	NDVI float64 `gorm:"column:ndvi;not null;default:0"`
	// Credits is the available balance; Formula(area, ndvi) minus settled purchases while verified, 0 otherwise
	Credits float64 `gorm:"column:credits;not null;default:0"`
	// ImageURL is the public delivery URL of the uploaded parcel photo
	ImageURL *string `gorm:"column:image_url;type:text"`
	// ImageID is the blob store identifier of the uploaded parcel photo
	ImageID *string `gorm:"column:image_id;type:text"`
	// VerificationStatus is one of pending, verified, rejected
	VerificationStatus domain.VerificationStatus `gorm:"column:verification_status;not null;default:'pending';type:text;index"`
	// Version is incremented on every update and guards against concurrent writes
	Version int64 `gorm:"column:version;not null;default:1"`
	// VerifiedAt is set the first time the plantation is verified and never changed afterwards
	VerifiedAt *time.Time `gorm:"column:verified_at"`
	CreatedAt  time.Time  `gorm:"column:created_at;not null;autoCreateTime"`
	UpdatedAt  time.Time  `gorm:"column:updated_at;not null;autoUpdateTime"`

	// Associations
	Farmer *Farmer `gorm:"foreignKey:FarmerID;constraint:OnDelete:RESTRICT"`
}

// TableName specifies the table name for the Plantation model
func (Plantation) TableName() string {
	return "plantations"
}
