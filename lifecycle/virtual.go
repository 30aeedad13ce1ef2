package lifecycle

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/beesaferoot/rentstore/models"
)

// VirtualRent is the projection of a rent an active lease will owe in its next
// billing cycle, for a month no stored rent covers yet. It has no storage identity.
type VirtualRent struct {
	ID        string            `json:"id"`
	LeaseID   uint              `json:"leaseId"`
	DueDate   time.Time         `json:"dueDate"`
	Amount    float64           `json:"amount"`
	Charges   float64           `json:"charges"`
	Status    models.RentStatus `json:"status"`
	IsVirtual bool              `json:"isVirtual"`
}

// VirtualID names the virtual rent of a lease for a month.
func VirtualID(leaseID uint, year int, month time.Month) string {
	return fmt.Sprintf("virtual-%d-%04d-%02d", leaseID, year, int(month))
}

func (v VirtualRent) Total() float64 {
	return v.Amount + v.Charges
}

// GenerateVirtualRents returns one virtual rent per active lease whose next due date
// on or after ref falls in a month without a stored rent for that lease. Leases that
// end before that date, start after it, or carry an invalid payment day get none.
// The result is sorted by due date, then lease id.
func GenerateVirtualRents(leases []models.Lease, existing []models.Rent, ref time.Time) []VirtualRent {
	covered := make(map[uint][]time.Time)
	for _, rent := range existing {
		if rent.DueDate.IsZero() {
			continue
		}
		covered[rent.LeaseID] = append(covered[rent.LeaseID], civil(rent.DueDate))
	}

	out := make([]VirtualRent, 0)
	for _, lease := range leases {
		if lease.Status != models.LeaseActive {
			continue
		}
		due := NextDueDate(lease.PaymentDay, ref)
		if due.IsZero() {
			continue
		}
		if lease.EndDate != nil && !lease.EndDate.IsZero() && civil(*lease.EndDate).Before(due) {
			continue
		}
		if !lease.StartDate.IsZero() && civil(lease.StartDate).After(due) {
			continue
		}
		if hasRentInMonth(covered[lease.ID], due) {
			continue
		}
		out = append(out, VirtualRent{
			ID:        VirtualID(lease.ID, due.Year(), due.Month()),
			LeaseID:   lease.ID,
			DueDate:   due,
			Amount:    lease.Rent,
			Charges:   lease.Charges,
			Status:    models.RentPending,
			IsVirtual: true,
		})
	}

	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].DueDate.Equal(out[j].DueDate) {
			return out[i].DueDate.Before(out[j].DueDate)
		}
		return out[i].LeaseID < out[j].LeaseID
	})
	return out
}

func hasRentInMonth(dues []time.Time, due time.Time) bool {
	for _, d := range dues {
		if sameMonth(d, due) {
			return true
		}
	}
	return false
}

// RentCreator persists a rent unless its lease already has one due that month. The
// rent repository satisfies it.
type RentCreator interface {
	CreateForMonth(ctx context.Context, rent *models.Rent) error
}

// Materialize stores v as a real pending rent. Once stored, the lease and month it
// covers no longer produce a virtual rent, and materializing a descriptor for them
// again fails.
func Materialize(ctx context.Context, creator RentCreator, v VirtualRent) (*models.Rent, error) {
	if !v.IsVirtual {
		return nil, fmt.Errorf("rent %s is not virtual", v.ID)
	}
	rent := &models.Rent{
		LeaseID: v.LeaseID,
		DueDate: v.DueDate,
		Amount:  v.Amount,
		Charges: v.Charges,
		Status:  models.RentPending,
	}
	if err := creator.CreateForMonth(ctx, rent); err != nil {
		return nil, fmt.Errorf("failed to materialize %s: %w", v.ID, err)
	}
	return rent, nil
}

// Entry is one line of a rent list mixing stored and virtual rents. Only a
// PersistedEntry carries a stored rent that can be updated or deleted.
type Entry interface {
	Due() time.Time
	Lease() uint
	Key() string
	isEntry()
}

type PersistedEntry struct {
	Rent models.Rent
}

func (e PersistedEntry) Due() time.Time { return e.Rent.DueDate }
func (e PersistedEntry) Lease() uint { return e.Rent.LeaseID }
func (e PersistedEntry) Key() string { return fmt.Sprintf("rent-%d", e.Rent.ID) }
func (PersistedEntry) isEntry() {}

type VirtualEntry struct {
	Rent VirtualRent
}

func (e VirtualEntry) Due() time.Time { return e.Rent.DueDate }
func (e VirtualEntry) Lease() uint { return e.Rent.LeaseID }
func (e VirtualEntry) Key() string { return e.Rent.ID }
func (VirtualEntry) isEntry() {}

// Entries merges stored and virtual rents, ordered by due day then key.
func Entries(rents []models.Rent, virtual []VirtualRent) []Entry {
	out := make([]Entry, 0, len(rents)+len(virtual))
	for _, rent := range rents {
		out = append(out, PersistedEntry{Rent: rent})
	}
	for _, v := range virtual {
		out = append(out, VirtualEntry{Rent: v})
	}
	sort.SliceStable(out, func(i, j int) bool {
		di, dj := civil(out[i].Due()), civil(out[j].Due())
		if !di.Equal(dj) {
			return di.Before(dj)
		}
		return out[i].Key() < out[j].Key()
	})
	return out
}
