package migration

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/beesaferoot/rentstore/models"
)

// Declared returns the schema history of the store, oldest first. Entries are never
// edited once released; a new release appends a version.
func Declared() []*Migration {
	return []*Migration{
		{
			Version:     1,
			Description: "initial tables",
			Tables:      initialTables(),
		},
		{
			Version:     2,
			Description: "add communications, tenant documents and tenant audits",
			Tables:      tenantTables(),
		},
		{
			Version:     3,
			Description: "add charges adjustments",
			Tables:      chargesTables(),
		},
		{
			Version:     4,
			Description: "backfill empty id lists",
			Tables:      chargesTables(),
			Up:          backfillIDLists,
		},
		{
			Version:     5,
			Description: "rename rent status overdue to late",
			Tables:      chargesTables(),
			Up:          renameOverdueStatus,
		},
		{
			Version:     6,
			Description: "release marker",
			Tables:      chargesTables(),
		},
	}
}

func index(name string, columns ...string) IndexSpec {
	return IndexSpec{Name: name, Columns: columns}
}

func uniqueIndex(name string, columns ...string) IndexSpec {
	return IndexSpec{Name: name, Columns: columns, Unique: true}
}

func initialTables() []TableSpec {
	return []TableSpec{
		{Name: "properties", Model: &models.Property{}, Indexes: []IndexSpec{
			index("idx_properties_name", "name"),
			index("idx_properties_status", "status"),
			index("idx_properties_created_at", "created_at"),
		}},
		{Name: "tenants", Model: &models.Tenant{}, Indexes: []IndexSpec{
			index("idx_tenants_email", "email"),
			index("idx_tenants_status", "status"),
		}},
		{Name: "leases", Model: &models.Lease{}, Indexes: []IndexSpec{
			index("idx_leases_property_id", "property_id"),
			index("idx_leases_status", "status"),
		}},
		{Name: "rents", Model: &models.Rent{}, Indexes: []IndexSpec{
			index("idx_rents_lease_id", "lease_id"),
			index("idx_rents_status", "status"),
			index("idx_rents_due_date", "due_date"),
		}},
		{Name: "documents", Model: &models.Document{}, Indexes: []IndexSpec{
			index("idx_documents_type", "type"),
			index("idx_documents_related_type", "related_entity_type"),
		}},
		{Name: "inventories", Model: &models.Inventory{}, Indexes: []IndexSpec{
			index("idx_inventories_lease_id", "lease_id"),
		}},
		{Name: "settings", Model: &models.Setting{}, Indexes: []IndexSpec{
			uniqueIndex("idx_settings_key", "key"),
		}},
	}
}

// tenantTables also replaces the single-column document association index with a
// compound one.
func tenantTables() []TableSpec {
	tables := initialTables()
	for n := range tables {
		if tables[n].Name == "documents" {
			tables[n].Indexes = []IndexSpec{
				index("idx_documents_type", "type"),
				index("idx_documents_related", "related_entity_type", "related_entity_id"),
			}
		}
	}
	return append(tables,
		TableSpec{Name: "communications", Model: &models.Communication{}, Indexes: []IndexSpec{
			index("idx_communications_tenant_id", "tenant_id"),
		}},
		TableSpec{Name: "tenant_documents", Model: &models.TenantDocument{}, Indexes: []IndexSpec{
			index("idx_tenant_documents_tenant_id", "tenant_id"),
		}},
		TableSpec{Name: "tenant_audits", Model: &models.TenantAudit{}, Indexes: []IndexSpec{
			index("idx_tenant_audits_tenant_id", "tenant_id"),
			uniqueIndex("idx_tenant_audits_event_id", "event_id"),
		}},
	)
}

func chargesTables() []TableSpec {
	return append(tenantTables(),
		TableSpec{Name: "charges_adjustments", Model: &models.ChargesAdjustment{}, Indexes: []IndexSpec{
			index("idx_charges_adjustments_lease_year", "lease_id", "year"),
		}},
	)
}

var idListColumns = []struct{ table, column string }{
	{"properties", "photos"},
	{"leases", "tenant_ids"},
	{"inventories", "photos"},
	{"tenant_audits", "document_ids"},
}

func backfillIDLists(tx *gorm.DB) error {
	for _, c := range idListColumns {
		sql := fmt.Sprintf(`UPDATE %q SET %q = '[]' WHERE %q IS NULL OR %q = 'null'`,
			c.table, c.column, c.column, c.column)
		if err := tx.Exec(sql).Error; err != nil {
			return fmt.Errorf("failed to backfill %s.%s: %w", c.table, c.column, err)
		}
	}
	return nil
}

func renameOverdueStatus(tx *gorm.DB) error {
	return tx.Model(&models.Rent{}).
		Where("status = ?", "overdue").
		Update("status", models.RentLate).Error
}
