package models

import (
	"time"

	"gorm.io/datatypes"
)

// RentStatus is the persisted status of a rent. "late" is a cache of a read-time
// computation and may be rewritten at any moment; "paid" is terminal.
type RentStatus string

const (
	RentPending RentStatus = "pending"
	RentPaid    RentStatus = "paid"
	RentLate    RentStatus = "late"
	RentPartial RentStatus = "partial"
)

func (s RentStatus) Valid() bool {
	switch s {
	case RentPending, RentPaid, RentLate, RentPartial:
		return true
	}
	return false
}

type Rent struct {
	ID         uint       `gorm:"primaryKey;autoIncrement" json:"id"`
	LeaseID    uint       `gorm:"not null" json:"leaseId"`
	DueDate    time.Time  `gorm:"not null" json:"dueDate"`
	Amount     float64    `json:"amount"`
	Charges    float64    `json:"charges"`
	Status     RentStatus `gorm:"size:16;not null" json:"status"`
	PaidDate   *time.Time `json:"paidDate,omitempty"`
	PaidAmount *float64   `json:"paidAmount,omitempty"`
	CreatedAt  time.Time  `json:"createdAt"`
	UpdatedAt  time.Time  `json:"updatedAt"`
}

func (Rent) TableName() string {
	return "rents"
}

// Total is the amount due for the rent, charges included.
func (r *Rent) Total() float64 {
	return r.Amount + r.Charges
}

// ChargesAdjustment holds the yearly charges reconciliation of one lease. At most one
// row exists per (LeaseID, Year).
type ChargesAdjustment struct {
	ID                   uint                                    `gorm:"primaryKey;autoIncrement" json:"id"`
	LeaseID              uint                                    `gorm:"not null" json:"leaseId"`
	Year                 int                                     `gorm:"not null" json:"year"`
	MonthlyRent          float64                                 `json:"monthlyRent"`
	AnnualCharges        float64                                 `json:"annualCharges"`
	ChargesProvisionPaid float64                                 `json:"chargesProvisionPaid"`
	RentsPaidCount       int                                     `json:"rentsPaidCount"`
	RentsPaidTotal       float64                                 `json:"rentsPaidTotal"`
	CustomCharges        datatypes.JSONType[map[string]float64] `json:"customCharges"`
	CreatedAt            time.Time                               `json:"createdAt"`
	UpdatedAt            time.Time                               `json:"updatedAt"`
}

func (ChargesAdjustment) TableName() string {
	return "charges_adjustments"
}

// Charges returns a copy of the custom charges map, never nil.
func (c *ChargesAdjustment) Charges() map[string]float64 {
	out := make(map[string]float64)
	for label, amount := range c.CustomCharges.Data() {
		out[label] = amount
	}
	return out
}

// SetCharges replaces the custom charges map.
func (c *ChargesAdjustment) SetCharges(charges map[string]float64) {
	c.CustomCharges = datatypes.NewJSONType(charges)
}

// ChargesAdjustmentPatch carries the fields of an upsert. Nil scalars are left
// untouched; CustomCharges entries are merged key by key.
type ChargesAdjustmentPatch struct {
	MonthlyRent          *float64
	AnnualCharges        *float64
	ChargesProvisionPaid *float64
	RentsPaidCount       *int
	RentsPaidTotal       *float64
	CustomCharges        map[string]float64
}
