package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/beesaferoot/rentstore/errdefs"
	"github.com/beesaferoot/rentstore/models"
	"github.com/beesaferoot/rentstore/store"
)

// ChargesAdjustmentRepository keeps at most one row per (lease, year). Rows are only
// written through Upsert and never deleted.
type ChargesAdjustmentRepository struct {
	base crud[models.ChargesAdjustment]
}

func NewChargesAdjustmentRepository(st *store.Store) *ChargesAdjustmentRepository {
	return &ChargesAdjustmentRepository{
		base: crud[models.ChargesAdjustment]{st: st, entity: "charges adjustment", table: "charges_adjustments"},
	}
}

func (r *ChargesAdjustmentRepository) List(ctx context.Context) ([]models.ChargesAdjustment, error) {
	return r.base.List(ctx)
}

func (r *ChargesAdjustmentRepository) ByID(ctx context.Context, id uint) (*models.ChargesAdjustment, error) {
	return r.base.ByID(ctx, id)
}

func (r *ChargesAdjustmentRepository) ByLeaseID(ctx context.Context, leaseID uint) ([]models.ChargesAdjustment, error) {
	return r.base.find(r.base.st.DB(ctx).Where("lease_id = ?", leaseID).Order("year"))
}

func (r *ChargesAdjustmentRepository) ByLeaseYear(ctx context.Context, leaseID uint, year int) (*models.ChargesAdjustment, error) {
	return r.byLeaseYear(r.base.st.DB(ctx), leaseID, year)
}

func (r *ChargesAdjustmentRepository) byLeaseYear(db *gorm.DB, leaseID uint, year int) (*models.ChargesAdjustment, error) {
	var row models.ChargesAdjustment
	err := db.Where("lease_id = ? AND year = ?", leaseID, year).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, errdefs.NotFound(r.base.entity, map[string]any{"leaseId": leaseID, "year": year})
	}
	if err != nil {
		return nil, errdefs.Storage("get", r.base.table, err)
	}
	return &row, nil
}

// Upsert creates the (leaseID, year) row or merges patch into it, in one
// transaction. Supplied scalars replace stored ones; custom charges are merged key by
// key, so labels absent from the patch are kept.
func (r *ChargesAdjustmentRepository) Upsert(ctx context.Context, leaseID uint, year int, patch models.ChargesAdjustmentPatch) (*models.ChargesAdjustment, error) {
	if year <= 0 {
		return nil, errdefs.Invalid("year", "must be positive, got %d", year)
	}

	var out *models.ChargesAdjustment
	err := r.base.st.Transaction(ctx, func(tx *gorm.DB) error {
		ok, err := exists[models.Lease](tx, "leases", leaseID)
		if err != nil {
			return err
		}
		if !ok {
			return errdefs.Invalid("leaseId", "lease %d does not exist", leaseID)
		}

		row, err := r.byLeaseYear(tx, leaseID, year)
		switch {
		case errdefs.IsNotFound(err):
			row = &models.ChargesAdjustment{LeaseID: leaseID, Year: year}
			applyPatch(row, patch)
			if err := tx.Create(row).Error; err != nil {
				return errdefs.Storage("create", r.base.table, err)
			}
		case err != nil:
			return err
		default:
			applyPatch(row, patch)
			if err := tx.Save(row).Error; err != nil {
				return errdefs.Storage("update", r.base.table, err)
			}
		}

		out, err = r.base.byID(tx, row.ID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func applyPatch(row *models.ChargesAdjustment, patch models.ChargesAdjustmentPatch) {
	if patch.MonthlyRent != nil {
		row.MonthlyRent = *patch.MonthlyRent
	}
	if patch.AnnualCharges != nil {
		row.AnnualCharges = *patch.AnnualCharges
	}
	if patch.ChargesProvisionPaid != nil {
		row.ChargesProvisionPaid = *patch.ChargesProvisionPaid
	}
	if patch.RentsPaidCount != nil {
		row.RentsPaidCount = *patch.RentsPaidCount
	}
	if patch.RentsPaidTotal != nil {
		row.RentsPaidTotal = *patch.RentsPaidTotal
	}
	charges := row.Charges()
	for label, amount := range patch.CustomCharges {
		charges[label] = amount
	}
	row.SetCharges(charges)
}
