package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/beesaferoot/rentstore/errdefs"
	"github.com/beesaferoot/rentstore/models"
	"github.com/beesaferoot/rentstore/store"
)

// amountTolerance absorbs float rounding when comparing a payment to the amount due.
const amountTolerance = 0.005

// RentRepository stores rents. Paid is terminal: MarkPaid is the only way in, and
// nothing moves a rent out of it.
type RentRepository struct {
	crud[models.Rent]
}

func NewRentRepository(st *store.Store) *RentRepository {
	r := &RentRepository{crud[models.Rent]{st: st, entity: "rent", table: "rents"}}
	r.beforeCreate = func(tx *gorm.DB, rent *models.Rent) error {
		if rent.Status == "" {
			rent.Status = models.RentPending
		}
		if rent.Status == models.RentPaid {
			return errdefs.Invalid("status", "rents are marked paid with MarkPaid")
		}
		return checkRent(tx, rent)
	}
	r.beforeUpdate = func(tx *gorm.DB, before, after *models.Rent) error {
		if before.Status == models.RentPaid && after.Status != models.RentPaid {
			return errdefs.Invalid("status", "rent %d is paid and cannot move to %s", before.ID, after.Status)
		}
		if before.Status != models.RentPaid && after.Status == models.RentPaid {
			return errdefs.Invalid("status", "rents are marked paid with MarkPaid")
		}
		return checkRent(tx, after)
	}
	return r
}

func checkRent(tx *gorm.DB, rent *models.Rent) error {
	if !rent.Status.Valid() {
		return errdefs.Invalid("status", "unknown rent status %q", rent.Status)
	}
	if rent.DueDate.IsZero() {
		return errdefs.Invalid("dueDate", "must be set")
	}
	ok, err := exists[models.Lease](tx, "leases", rent.LeaseID)
	if err != nil {
		return err
	}
	if !ok {
		return errdefs.Invalid("leaseId", "lease %d does not exist", rent.LeaseID)
	}
	return nil
}

// MarkPaid records a payment. Payments on a partial rent add up: once their sum
// covers amount plus charges the rent is paid, below that it is partial. A paid rent
// cannot be paid again.
func (r *RentRepository) MarkPaid(ctx context.Context, id uint, paidDate time.Time, paidAmount float64) (*models.Rent, error) {
	if paidAmount <= 0 {
		return nil, errdefs.Invalid("paidAmount", "must be positive, got %.2f", paidAmount)
	}
	if paidDate.IsZero() {
		return nil, errdefs.Invalid("paidDate", "must be set")
	}

	var rent *models.Rent
	err := r.st.Transaction(ctx, func(tx *gorm.DB) error {
		current, err := r.byID(tx, id)
		if err != nil {
			return err
		}
		if current.Status == models.RentPaid {
			return errdefs.Invalid("status", "rent %d is already paid", id)
		}

		total := paidAmount
		if current.Status == models.RentPartial && current.PaidAmount != nil {
			total += *current.PaidAmount
		}
		status := models.RentPartial
		if total+amountTolerance >= current.Total() {
			status = models.RentPaid
		}
		err = tx.Model(&models.Rent{}).Where("id = ?", id).Updates(map[string]any{
			"status":      status,
			"paid_date":   paidDate,
			"paid_amount": total,
		}).Error
		if err != nil {
			return errdefs.Storage("update", r.table, err)
		}

		rent, err = r.byID(tx, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return rent, nil
}

// MarkLate writes the derived late label back on the given pending rents in one
// transaction and returns how many rows changed. Paid and partial rents keep their
// status.
func (r *RentRepository) MarkLate(ctx context.Context, ids []uint) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	var changed int64
	err := r.st.Transaction(ctx, func(tx *gorm.DB) error {
		res := tx.Model(&models.Rent{}).
			Where("id IN ? AND status = ?", ids, models.RentPending).
			Update("status", models.RentLate)
		changed = res.RowsAffected
		return errdefs.Storage("update", r.table, res.Error)
	})
	if err != nil {
		return 0, err
	}
	return changed, nil
}

// CreateForMonth creates rent unless its lease already has a rent due in the same
// month. The check and the insert share one transaction.
func (r *RentRepository) CreateForMonth(ctx context.Context, rent *models.Rent) error {
	return r.st.Transaction(ctx, func(tx *gorm.DB) error {
		y, m, _ := rent.DueDate.Date()
		first := time.Date(y, m, 1, 0, 0, 0, 0, time.UTC)
		var count int64
		err := tx.Model(&models.Rent{}).
			Where("lease_id = ? AND due_date >= ? AND due_date < ?", rent.LeaseID, first, first.AddDate(0, 1, 0)).
			Count(&count).Error
		if err != nil {
			return errdefs.Storage("create", r.table, err)
		}
		if count > 0 {
			return errdefs.Invalid("dueDate", "lease %d already has a rent for %s", rent.LeaseID, first.Format("2006-01"))
		}
		return r.create(tx, rent)
	})
}

func (r *RentRepository) ByLeaseID(ctx context.Context, leaseID uint) ([]models.Rent, error) {
	return r.find(r.st.DB(ctx).Where("lease_id = ?", leaseID).Order("due_date, id"))
}

func (r *RentRepository) ByStatus(ctx context.Context, status models.RentStatus) ([]models.Rent, error) {
	return r.find(r.st.DB(ctx).Where("status = ?", status).Order("due_date, id"))
}

// DueBetween returns rents due in [from, to), ordered by due date.
func (r *RentRepository) DueBetween(ctx context.Context, from, to time.Time) ([]models.Rent, error) {
	return r.find(r.st.DB(ctx).Where("due_date >= ? AND due_date < ?", from, to).Order("due_date, id"))
}

func (r *RentRepository) Unpaid(ctx context.Context) ([]models.Rent, error) {
	return r.find(r.st.DB(ctx).Where("status <> ?", models.RentPaid).Order("due_date, id"))
}
