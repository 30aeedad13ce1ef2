package repository

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/beesaferoot/rentstore/errdefs"
	"github.com/beesaferoot/rentstore/models"
	"github.com/beesaferoot/rentstore/store"
)

// LeaseRepository writes leases and keeps the status of their property in step:
// a property with an active lease is occupied, and becomes vacant again once its
// last active lease is gone.
type LeaseRepository struct {
	crud[models.Lease]
}

func NewLeaseRepository(st *store.Store) *LeaseRepository {
	r := &LeaseRepository{crud[models.Lease]{st: st, entity: "lease", table: "leases"}}
	r.beforeCreate = func(tx *gorm.DB, l *models.Lease) error {
		if l.Status == "" {
			l.Status = models.LeasePending
		}
		if l.TenantIDs == nil {
			l.TenantIDs = []uint{}
		}
		return checkLease(tx, l)
	}
	r.beforeUpdate = func(tx *gorm.DB, _, l *models.Lease) error {
		return checkLease(tx, l)
	}
	r.afterWrite = func(tx *gorm.DB, l *models.Lease) error {
		return syncPropertyStatus(tx, l.PropertyID)
	}
	return r
}

// checkLease validates the lease and the rows it references.
func checkLease(tx *gorm.DB, l *models.Lease) error {
	if err := l.Validate(); err != nil {
		return err
	}
	ok, err := exists[models.Property](tx, "properties", l.PropertyID)
	if err != nil {
		return err
	}
	if !ok {
		return errdefs.Invalid("propertyId", "property %d does not exist", l.PropertyID)
	}
	if len(l.TenantIDs) == 0 {
		return nil
	}

	var found int64
	if err := tx.Model(&models.Tenant{}).Where("id IN ?", []uint(l.TenantIDs)).Count(&found).Error; err != nil {
		return errdefs.Storage("get", "tenants", err)
	}
	if found != int64(len(l.TenantIDs)) {
		return errdefs.Invalid("tenantIds", "references a tenant that does not exist")
	}
	return nil
}

// syncPropertyStatus marks the property occupied while an active lease references
// it, and vacant when the last one is gone. A property under maintenance without an
// active lease is left alone.
func syncPropertyStatus(tx *gorm.DB, propertyID uint) error {
	var property models.Property
	err := tx.Select("id", "status").First(&property, propertyID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil
	}
	if err != nil {
		return errdefs.Storage("get", "properties", err)
	}

	var active int64
	err = tx.Model(&models.Lease{}).
		Where("property_id = ? AND status = ?", propertyID, models.LeaseActive).
		Count(&active).Error
	if err != nil {
		return errdefs.Storage("get", "leases", err)
	}

	next := property.Status
	switch {
	case active > 0:
		next = models.PropertyOccupied
	case property.Status == models.PropertyOccupied:
		next = models.PropertyVacant
	}
	if next == property.Status {
		return nil
	}
	err = tx.Model(&models.Property{}).Where("id = ?", propertyID).Update("status", next).Error
	return errdefs.Storage("update", "properties", err)
}

// Update applies mutate to the lease. When the lease moves to another property,
// both properties get their status recomputed.
func (r *LeaseRepository) Update(ctx context.Context, id uint, mutate func(*models.Lease)) (*models.Lease, error) {
	var updated *models.Lease
	err := r.st.Transaction(ctx, func(tx *gorm.DB) error {
		before, err := r.byID(tx, id)
		if err != nil {
			return err
		}
		updated, err = r.update(tx, id, mutate)
		if err != nil {
			return err
		}
		if before.PropertyID != updated.PropertyID {
			return syncPropertyStatus(tx, before.PropertyID)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (r *LeaseRepository) Delete(ctx context.Context, id uint) error {
	return r.st.Transaction(ctx, func(tx *gorm.DB) error {
		lease, err := r.byID(tx, id)
		if err != nil {
			return err
		}
		if err := tx.Delete(&models.Lease{}, id).Error; err != nil {
			return errdefs.Storage("delete", r.table, err)
		}
		return syncPropertyStatus(tx, lease.PropertyID)
	})
}

// End moves the lease to ended, stamping endDate when it has none.
func (r *LeaseRepository) End(ctx context.Context, id uint, endDate time.Time) (*models.Lease, error) {
	return r.Update(ctx, id, func(l *models.Lease) {
		l.Status = models.LeaseEnded
		if l.EndDate == nil {
			l.EndDate = &endDate
		}
	})
}

func (r *LeaseRepository) ByPropertyID(ctx context.Context, propertyID uint) ([]models.Lease, error) {
	return r.find(r.st.DB(ctx).Where("property_id = ?", propertyID).Order("id"))
}

func (r *LeaseRepository) ByStatus(ctx context.Context, status models.LeaseStatus) ([]models.Lease, error) {
	return r.find(r.st.DB(ctx).Where("status = ?", status).Order("id"))
}

func (r *LeaseRepository) Active(ctx context.Context) ([]models.Lease, error) {
	return r.ByStatus(ctx, models.LeaseActive)
}

// ByTenantID returns the leases listing the tenant.
func (r *LeaseRepository) ByTenantID(ctx context.Context, tenantID uint) ([]models.Lease, error) {
	return r.find(r.st.DB(ctx).
		Where("EXISTS (SELECT 1 FROM json_each(leases.tenant_ids) WHERE json_each.value = ?)", tenantID).
		Order("id"))
}
