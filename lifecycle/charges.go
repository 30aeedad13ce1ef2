package lifecycle

import (
	"time"

	"github.com/beesaferoot/rentstore/models"
)

// MonthsLeased counts the months of year during which the lease runs for at least
// one day. A lease without a start date runs from the start of the year.
func MonthsLeased(lease models.Lease, year int) int {
	months := 0
	for m := time.January; m <= time.December; m++ {
		first := time.Date(year, m, 1, 0, 0, 0, 0, time.UTC)
		last := time.Date(year, m, daysIn(year, m), 0, 0, 0, 0, time.UTC)
		if !lease.StartDate.IsZero() && civil(lease.StartDate).After(last) {
			continue
		}
		if lease.EndDate != nil && !lease.EndDate.IsZero() && civil(*lease.EndDate).Before(first) {
			continue
		}
		months++
	}
	return months
}

// SummarizeYear computes the reconciliation figures of lease for year from its paid
// rents due that year. The patch leaves custom charges alone.
func SummarizeYear(lease models.Lease, rents []models.Rent, year int) models.ChargesAdjustmentPatch {
	var (
		count     int
		total     float64
		provision float64
	)
	for _, rent := range rents {
		if rent.LeaseID != lease.ID || rent.Status != models.RentPaid || rent.DueDate.IsZero() {
			continue
		}
		if rent.DueDate.Year() != year {
			continue
		}
		count++
		if rent.PaidAmount != nil {
			total += *rent.PaidAmount
		} else {
			total += rent.Total()
		}
		provision += rent.Charges
	}

	monthlyRent := lease.Rent
	annualCharges := lease.Charges * float64(MonthsLeased(lease, year))
	return models.ChargesAdjustmentPatch{
		MonthlyRent:          &monthlyRent,
		AnnualCharges:        &annualCharges,
		ChargesProvisionPaid: &provision,
		RentsPaidCount:       &count,
		RentsPaidTotal:       &total,
	}
}

// ActualCharges sums the custom charges of the row.
func ActualCharges(row models.ChargesAdjustment) float64 {
	var sum float64
	for _, amount := range row.Charges() {
		sum += amount
	}
	return sum
}

// Balance returns the provisions paid minus the actual charges. A positive balance is
// owed back to the tenants, a negative one is owed by them.
func Balance(row models.ChargesAdjustment) float64 {
	return row.ChargesProvisionPaid - ActualCharges(row)
}

// Outstanding returns the part of the provision due for the year that was not paid.
func Outstanding(row models.ChargesAdjustment) float64 {
	if row.ChargesProvisionPaid >= row.AnnualCharges {
		return 0
	}
	return row.AnnualCharges - row.ChargesProvisionPaid
}
