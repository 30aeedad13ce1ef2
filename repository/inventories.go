package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/beesaferoot/rentstore/errdefs"
	"github.com/beesaferoot/rentstore/models"
	"github.com/beesaferoot/rentstore/store"
)

type InventoryRepository struct {
	crud[models.Inventory]
}

func NewInventoryRepository(st *store.Store) *InventoryRepository {
	r := &InventoryRepository{crud[models.Inventory]{st: st, entity: "inventory", table: "inventories"}}
	r.beforeCreate = func(tx *gorm.DB, inv *models.Inventory) error {
		if inv.Photos == nil {
			inv.Photos = []uint{}
		}
		return checkInventory(tx, inv)
	}
	r.beforeUpdate = func(tx *gorm.DB, _, inv *models.Inventory) error {
		return checkInventory(tx, inv)
	}
	return r
}

func checkInventory(tx *gorm.DB, inv *models.Inventory) error {
	if !inv.Type.Valid() {
		return errdefs.Invalid("type", "unknown inventory type %q", inv.Type)
	}
	ok, err := exists[models.Lease](tx, "leases", inv.LeaseID)
	if err != nil {
		return err
	}
	if !ok {
		return errdefs.Invalid("leaseId", "lease %d does not exist", inv.LeaseID)
	}
	return nil
}

func (r *InventoryRepository) ByLeaseID(ctx context.Context, leaseID uint) ([]models.Inventory, error) {
	return r.find(r.st.DB(ctx).Where("lease_id = ?", leaseID).Order("date, id"))
}

type CommunicationRepository struct {
	crud[models.Communication]
}

func NewCommunicationRepository(st *store.Store) *CommunicationRepository {
	r := &CommunicationRepository{crud[models.Communication]{st: st, entity: "communication", table: "communications"}}
	r.beforeCreate = func(_ *gorm.DB, c *models.Communication) error {
		if c.Channel == "" {
			c.Channel = models.ChannelOther
		}
		return checkChannel(c)
	}
	r.beforeUpdate = func(_ *gorm.DB, _, c *models.Communication) error {
		return checkChannel(c)
	}
	return r
}

func checkChannel(c *models.Communication) error {
	if !c.Channel.Valid() {
		return errdefs.Invalid("channel", "unknown channel %q", c.Channel)
	}
	return nil
}

func (r *CommunicationRepository) ByTenantID(ctx context.Context, tenantID uint) ([]models.Communication, error) {
	return r.find(r.st.DB(ctx).Where("tenant_id = ?", tenantID).Order("sent_at, id"))
}

func (r *CommunicationRepository) ByPropertyID(ctx context.Context, propertyID uint) ([]models.Communication, error) {
	return r.find(r.st.DB(ctx).Where("property_id = ?", propertyID).Order("sent_at, id"))
}

type TenantDocumentRepository struct {
	crud[models.TenantDocument]
}

func NewTenantDocumentRepository(st *store.Store) *TenantDocumentRepository {
	r := &TenantDocumentRepository{crud[models.TenantDocument]{st: st, entity: "tenant document", table: "tenant_documents"}}
	r.beforeCreate = func(tx *gorm.DB, d *models.TenantDocument) error {
		if d.Data != nil {
			d.Size = int64(len(d.Data))
		}
		ok, err := exists[models.Tenant](tx, "tenants", d.TenantID)
		if err != nil {
			return err
		}
		if !ok {
			return errdefs.Invalid("tenantId", "tenant %d does not exist", d.TenantID)
		}
		return nil
	}
	return r
}

func (r *TenantDocumentRepository) ByTenantID(ctx context.Context, tenantID uint) ([]models.TenantDocument, error) {
	return r.find(r.st.DB(ctx).Where("tenant_id = ?", tenantID).Order("id"))
}
