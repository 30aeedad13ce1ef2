package lifecycle

import (
	"fmt"
	"sort"
	"time"

	"github.com/beesaferoot/rentstore/models"
)

// CalendarEvent is one rent shown on the calendar.
type CalendarEvent struct {
	Date      time.Time     `json:"date"`
	Title     string        `json:"title"`
	Status    DisplayStatus `json:"status"`
	Amount    float64       `json:"amount"`
	Charges   float64       `json:"charges"`
	LeaseID   uint          `json:"leaseId"`
	RentID    *uint         `json:"rentId,omitempty"`
	VirtualID string        `json:"virtualId,omitempty"`
}

func (e CalendarEvent) IsVirtual() bool {
	return e.VirtualID != ""
}

// BuildCalendar joins the stored rents with the virtual rents of now's billing
// cycle. Events are ordered by date, then title. Stored statuses are shown through
// Display and are never modified.
func BuildCalendar(rents []models.Rent, leases []models.Lease, properties []models.Property, now time.Time) []CalendarEvent {
	propertyNames := make(map[uint]string, len(properties))
	for _, p := range properties {
		propertyNames[p.ID] = p.Name
	}
	leaseProperty := make(map[uint]uint, len(leases))
	for _, l := range leases {
		leaseProperty[l.ID] = l.PropertyID
	}
	title := func(leaseID uint) string {
		if name, ok := propertyNames[leaseProperty[leaseID]]; ok && name != "" {
			return name
		}
		return fmt.Sprintf("Lease %d", leaseID)
	}

	events := make([]CalendarEvent, 0, len(rents))
	for _, rent := range rents {
		if rent.DueDate.IsZero() {
			continue
		}
		id := rent.ID
		events = append(events, CalendarEvent{
			Date:    civil(rent.DueDate),
			Title:   title(rent.LeaseID),
			Status:  Display(rent, now),
			Amount:  rent.Amount,
			Charges: rent.Charges,
			LeaseID: rent.LeaseID,
			RentID:  &id,
		})
	}
	for _, v := range GenerateVirtualRents(leases, rents, now) {
		events = append(events, CalendarEvent{
			Date:      v.DueDate,
			Title:     title(v.LeaseID),
			Status:    DisplayPending,
			Amount:    v.Amount,
			Charges:   v.Charges,
			LeaseID:   v.LeaseID,
			VirtualID: v.ID,
		})
	}

	sort.SliceStable(events, func(i, j int) bool {
		if !events[i].Date.Equal(events[j].Date) {
			return events[i].Date.Before(events[j].Date)
		}
		return events[i].Title < events[j].Title
	})
	return events
}
