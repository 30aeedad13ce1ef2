package models

import (
	"time"

	"gorm.io/datatypes"
)

type LeaseStatus string

const (
	LeasePending LeaseStatus = "pending"
	LeaseActive  LeaseStatus = "active"
	LeaseEnded   LeaseStatus = "ended"
)

func (s LeaseStatus) Valid() bool {
	return s == LeasePending || s == LeaseActive || s == LeaseEnded
}

// Lease binds a property to an ordered set of tenants. The property is owned, the
// tenants are only referenced.
type Lease struct {
	ID         uint                      `gorm:"primaryKey;autoIncrement" json:"id"`
	PropertyID uint                      `gorm:"not null" json:"propertyId"`
	TenantIDs  datatypes.JSONSlice[uint] `gorm:"column:tenant_ids" json:"tenantIds"`
	StartDate  time.Time                 `json:"startDate"`
	EndDate    *time.Time                `json:"endDate,omitempty"`
	Rent       float64                   `json:"rent"`
	Charges    float64                   `json:"charges"`
	Deposit    float64                   `json:"deposit"`
	PaymentDay int                       `gorm:"not null" json:"paymentDay"`
	Status     LeaseStatus               `gorm:"size:32;not null" json:"status"`
	CreatedAt  time.Time                 `json:"createdAt"`
	UpdatedAt  time.Time                 `json:"updatedAt"`
}

func (Lease) TableName() string {
	return "leases"
}

// Validate checks the invariants that hold for any stored lease.
func (l *Lease) Validate() error {
	if l.PaymentDay < 1 || l.PaymentDay > 31 {
		return invalid("paymentDay", "must be between 1 and 31, got %d", l.PaymentDay)
	}
	if !l.Status.Valid() {
		return invalid("status", "unknown lease status %q", l.Status)
	}
	if l.Status == LeaseActive && len(l.TenantIDs) == 0 {
		return invalid("tenantIds", "an active lease needs at least one tenant")
	}
	seen := make(map[uint]bool, len(l.TenantIDs))
	for _, id := range l.TenantIDs {
		if seen[id] {
			return invalid("tenantIds", "tenant %d listed twice", id)
		}
		seen[id] = true
	}
	if l.EndDate != nil && !l.StartDate.IsZero() && l.EndDate.Before(l.StartDate) {
		return invalid("endDate", "ends before it starts")
	}
	return nil
}

// Inventory is a check-in or check-out report attached to a lease.
type Inventory struct {
	ID        uint                      `gorm:"primaryKey;autoIncrement" json:"id"`
	LeaseID   uint                      `gorm:"not null" json:"leaseId"`
	Type      InventoryType             `gorm:"size:16;not null" json:"type"`
	Date      time.Time                 `json:"date"`
	Photos    datatypes.JSONSlice[uint] `json:"photos"`
	Notes     string                    `json:"notes"`
	CreatedAt time.Time                 `json:"createdAt"`
	UpdatedAt time.Time                 `json:"updatedAt"`
}

type InventoryType string

const (
	InventoryCheckin  InventoryType = "checkin"
	InventoryCheckout InventoryType = "checkout"
)

func (t InventoryType) Valid() bool {
	return t == InventoryCheckin || t == InventoryCheckout
}

func (Inventory) TableName() string {
	return "inventories"
}
