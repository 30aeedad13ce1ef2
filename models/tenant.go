package models

import (
	"time"

	"gorm.io/datatypes"
)

type TenantStatus string

const (
	TenantCandidate          TenantStatus = "candidate"
	TenantActive             TenantStatus = "active"
	TenantCandidatureRefused TenantStatus = "candidature-refused"
	TenantFormer             TenantStatus = "former"
)

func (s TenantStatus) Valid() bool {
	switch s {
	case TenantCandidate, TenantActive, TenantCandidatureRefused, TenantFormer:
		return true
	}
	return false
}

// tenantTransitions lists the statuses reachable from each status.
var tenantTransitions = map[TenantStatus][]TenantStatus{
	TenantCandidate:          {TenantActive, TenantCandidatureRefused},
	TenantActive:             {TenantFormer},
	TenantCandidatureRefused: {TenantCandidate},
	TenantFormer:             {TenantCandidate},
}

// CanTransition reports whether a tenant may move from s to next.
func (s TenantStatus) CanTransition(next TenantStatus) bool {
	for _, allowed := range tenantTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

type Tenant struct {
	ID        uint         `gorm:"primaryKey;autoIncrement" json:"id"`
	FirstName string       `gorm:"size:255" json:"firstName"`
	LastName  string       `gorm:"size:255;not null" json:"lastName"`
	Email     string       `gorm:"size:255" json:"email"`
	Phone     string       `gorm:"size:64" json:"phone"`
	Status    TenantStatus `gorm:"size:32;not null" json:"status"`
	CreatedAt time.Time    `json:"createdAt"`
	UpdatedAt time.Time    `json:"updatedAt"`
}

func (Tenant) TableName() string {
	return "tenants"
}

// TenantDocument is an attachment owned by a tenant (identity papers, payslips...).
type TenantDocument struct {
	ID        uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	TenantID  uint      `gorm:"not null" json:"tenantId"`
	Name      string    `gorm:"size:255;not null" json:"name"`
	Category  string    `gorm:"size:64" json:"category"`
	MimeType  string    `gorm:"size:255" json:"mimeType"`
	Size      int64     `json:"size"`
	Data      []byte    `json:"-"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (TenantDocument) TableName() string {
	return "tenant_documents"
}

// TenantAudit is one status-transition event. Rows are append-only.
type TenantAudit struct {
	ID          uint                      `gorm:"primaryKey;autoIncrement" json:"id"`
	EventID     string                    `gorm:"size:36;not null" json:"eventId"`
	TenantID    uint                      `gorm:"not null" json:"tenantId"`
	Action      string                    `gorm:"size:64;not null" json:"action"`
	FromStatus  TenantStatus              `gorm:"size:32" json:"fromStatus"`
	ToStatus    TenantStatus              `gorm:"size:32" json:"toStatus"`
	Actor       string                    `gorm:"size:255" json:"actor"`
	Reason      string                    `json:"reason"`
	DocumentIDs datatypes.JSONSlice[uint] `json:"documentIds"`
	CreatedAt   time.Time                 `json:"createdAt"`
}

func (TenantAudit) TableName() string {
	return "tenant_audits"
}
