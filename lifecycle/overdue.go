package lifecycle

import (
	"time"

	"github.com/beesaferoot/rentstore/models"
)

// IsOverdue reports whether rent is unpaid and due on a calendar day before now's.
// Rents without a due date are never overdue.
func IsOverdue(rent models.Rent, now time.Time) bool {
	if rent.Status == models.RentPaid || rent.DueDate.IsZero() {
		return false
	}
	return civil(rent.DueDate).Before(civil(now))
}

// ComputeOverdueIDs returns, in input order, the ids of the overdue rents.
func ComputeOverdueIDs(rents []models.Rent, now time.Time) []uint {
	ids := make([]uint, 0)
	for _, rent := range rents {
		if IsOverdue(rent, now) {
			ids = append(ids, rent.ID)
		}
	}
	return ids
}

type DisplayStatus string

const (
	DisplayPending DisplayStatus = "pending"
	DisplayPaid    DisplayStatus = "paid"
	DisplayOverdue DisplayStatus = "overdue"
)

// Display maps a stored rent to the status shown to users. Late shows as overdue,
// partial as pending, and a pending rent past its due day as overdue.
func Display(rent models.Rent, now time.Time) DisplayStatus {
	switch rent.Status {
	case models.RentPaid:
		return DisplayPaid
	case models.RentLate:
		return DisplayOverdue
	case models.RentPartial:
		return DisplayPending
	}
	if IsOverdue(rent, now) {
		return DisplayOverdue
	}
	return DisplayPending
}
