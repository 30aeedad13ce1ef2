package models

import "github.com/beesaferoot/rentstore/errdefs"

// ModelTypeRegistry maps every persisted table to its model.
var ModelTypeRegistry = map[string]any{
	"properties":          Property{},
	"tenants":             Tenant{},
	"leases":              Lease{},
	"rents":               Rent{},
	"documents":           Document{},
	"inventories":         Inventory{},
	"communications":      Communication{},
	"tenant_documents":    TenantDocument{},
	"tenant_audits":       TenantAudit{},
	"settings":            Setting{},
	"charges_adjustments": ChargesAdjustment{},
}

// BusinessTables lists the tables covered by export, import and clear, in insertion
// order: a table only references tables listed before it.
func BusinessTables() []string {
	return []string{"properties", "tenants", "leases", "rents", "documents", "inventories"}
}

func invalid(field, reason string, args ...any) error {
	return errdefs.Invalid(field, reason, args...)
}
