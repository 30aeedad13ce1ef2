package models

import (
	"time"

	"gorm.io/datatypes"
)

type PropertyType string

const (
	PropertyTypeApartment  PropertyType = "apartment"
	PropertyTypeHouse      PropertyType = "house"
	PropertyTypeStudio     PropertyType = "studio"
	PropertyTypeCommercial PropertyType = "commercial"
	PropertyTypeParking    PropertyType = "parking"
	PropertyTypeOther      PropertyType = "other"
)

func (t PropertyType) Valid() bool {
	switch t {
	case PropertyTypeApartment, PropertyTypeHouse, PropertyTypeStudio,
		PropertyTypeCommercial, PropertyTypeParking, PropertyTypeOther:
		return true
	}
	return false
}

type PropertyStatus string

const (
	PropertyVacant      PropertyStatus = "vacant"
	PropertyOccupied    PropertyStatus = "occupied"
	PropertyMaintenance PropertyStatus = "maintenance"
)

func (s PropertyStatus) Valid() bool {
	return s == PropertyVacant || s == PropertyOccupied || s == PropertyMaintenance
}

// Property is a rentable unit. Photos holds document ids in display order.
type Property struct {
	ID        uint                      `gorm:"primaryKey;autoIncrement" json:"id"`
	Name      string                    `gorm:"size:255;not null" json:"name"`
	Address   string                    `json:"address"`
	Type      PropertyType              `gorm:"size:32" json:"type"`
	Surface   float64                   `json:"surface"`
	Rooms     int                       `json:"rooms"`
	Rent      float64                   `json:"rent"`
	Charges   float64                   `json:"charges"`
	Status    PropertyStatus            `gorm:"size:32;not null" json:"status"`
	Photos    datatypes.JSONSlice[uint] `json:"photos"`
	CreatedAt time.Time                 `json:"createdAt"`
	UpdatedAt time.Time                 `json:"updatedAt"`
}

func (Property) TableName() string {
	return "properties"
}
