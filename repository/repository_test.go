package repository

import (
	"context"
	"testing"
	"time"

	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/beesaferoot/rentstore/errdefs"
	"github.com/beesaferoot/rentstore/lifecycle"
	"github.com/beesaferoot/rentstore/models"
	"github.com/beesaferoot/rentstore/store"
)

func setupTestStore(t *testing.T) *store.Store {
	log, _ := logtest.NewNullLogger()
	st, err := store.Open(context.Background(), store.Options{Logger: log})
	require.NoError(t, err)
	require.NoError(t, st.LastMigrationError())
	t.Cleanup(func() { _ = st.Close() })
	return st
}

func day(year int, month time.Month, d int) time.Time {
	return time.Date(year, month, d, 0, 0, 0, 0, time.UTC)
}

type fixture struct {
	property *models.Property
	tenant   *models.Tenant
	lease    *models.Lease
	rents    []*models.Rent
}

// seed stores one property let to one tenant through an active lease with two rents.
func seed(t *testing.T, st *store.Store) fixture {
	ctx := context.Background()
	f := fixture{
		property: &models.Property{Name: "Rue Oberkampf", Type: models.PropertyTypeApartment, Rent: 1200, Charges: 50},
		tenant:   &models.Tenant{FirstName: "Ada", LastName: "Martin", Email: "ada@example.com", Status: models.TenantActive},
	}
	require.NoError(t, NewPropertyRepository(st).Create(ctx, f.property))
	require.NoError(t, NewTenantRepository(st).Create(ctx, f.tenant))

	f.lease = &models.Lease{
		PropertyID: f.property.ID,
		TenantIDs:  []uint{f.tenant.ID},
		StartDate:  day(2025, 9, 1),
		Rent:       1200,
		Charges:    50,
		Deposit:    2400,
		PaymentDay: 5,
		Status:     models.LeaseActive,
	}
	require.NoError(t, NewLeaseRepository(st).Create(ctx, f.lease))

	rents := NewRentRepository(st)
	for _, due := range []time.Time{day(2025, 11, 5), day(2025, 12, 5)} {
		rent := &models.Rent{LeaseID: f.lease.ID, DueDate: due, Amount: 1200, Charges: 50}
		require.NoError(t, rents.Create(ctx, rent))
		f.rents = append(f.rents, rent)
	}
	return f
}

func TestCreateStampsTimestamps(t *testing.T) {
	st := setupTestStore(t)
	repo := NewPropertyRepository(st)
	ctx := context.Background()

	p := &models.Property{Name: "Studio Nord"}
	require.NoError(t, repo.Create(ctx, p))
	assert.NotZero(t, p.ID)
	assert.False(t, p.CreatedAt.IsZero())
	assert.False(t, p.UpdatedAt.IsZero())
	assert.Equal(t, models.PropertyVacant, p.Status)

	stored, err := repo.ByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "Studio Nord", stored.Name)
	assert.NotNil(t, stored.Photos)
}

func TestUpdateKeepsIdentity(t *testing.T) {
	st := setupTestStore(t)
	repo := NewPropertyRepository(st)
	ctx := context.Background()

	p := &models.Property{Name: "Loft"}
	require.NoError(t, repo.Create(ctx, p))
	created, err := repo.ByID(ctx, p.ID)
	require.NoError(t, err)

	updated, err := repo.Update(ctx, p.ID, func(p *models.Property) {
		p.ID = 999
		p.CreatedAt = time.Time{}
		p.Rooms = 3
		p.Photos = []uint{7, 3}
	})
	require.NoError(t, err)
	assert.Equal(t, created.ID, updated.ID)
	assert.True(t, created.CreatedAt.Equal(updated.CreatedAt))
	assert.False(t, updated.UpdatedAt.Before(created.UpdatedAt))
	assert.Equal(t, 3, updated.Rooms)
	assert.Equal(t, []uint{7, 3}, []uint(updated.Photos))

	_, err = repo.ByID(ctx, 999)
	assert.True(t, errdefs.IsNotFound(err))
}

func TestMissingIDIsNotFound(t *testing.T) {
	st := setupTestStore(t)
	ctx := context.Background()
	repo := NewTenantRepository(st)

	_, err := repo.ByID(ctx, 42)
	assert.True(t, errdefs.IsNotFound(err))

	_, err = repo.Update(ctx, 42, func(*models.Tenant) {})
	var notFound *errdefs.NotFoundError
	require.ErrorAs(t, err, &notFound)
	assert.Equal(t, "tenant", notFound.Entity)

	assert.True(t, errdefs.IsNotFound(repo.Delete(ctx, 42)))
	assert.True(t, errdefs.IsNotFound(NewLeaseRepository(st).Delete(ctx, 42)))
}

func TestCreateRejectsInvalidRows(t *testing.T) {
	st := setupTestStore(t)
	ctx := context.Background()

	err := NewPropertyRepository(st).Create(ctx, &models.Property{Name: " "})
	assert.True(t, errdefs.IsValidation(err))

	err = NewPropertyRepository(st).Create(ctx, &models.Property{Name: "Box", Type: "castle"})
	assert.True(t, errdefs.IsValidation(err))

	count, err := NewPropertyRepository(st).Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestLeaseReferences(t *testing.T) {
	st := setupTestStore(t)
	ctx := context.Background()
	f := seed(t, st)
	repo := NewLeaseRepository(st)

	tests := []struct {
		name  string
		lease models.Lease
		field string
	}{
		{"missing property", models.Lease{PropertyID: 99, PaymentDay: 1, Status: models.LeasePending}, "propertyId"},
		{"missing tenant", models.Lease{PropertyID: f.property.ID, TenantIDs: []uint{f.tenant.ID, 99}, PaymentDay: 1}, "tenantIds"},
		{"payment day", models.Lease{PropertyID: f.property.ID, PaymentDay: 40}, "paymentDay"},
		{"active without tenant", models.Lease{PropertyID: f.property.ID, PaymentDay: 1, Status: models.LeaseActive}, "tenantIds"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lease := tt.lease
			err := repo.Create(ctx, &lease)
			var v *errdefs.ValidationError
			require.ErrorAs(t, err, &v)
			assert.Equal(t, tt.field, v.Field)
		})
	}

	leases, err := repo.ByTenantID(ctx, f.tenant.ID)
	require.NoError(t, err)
	require.Len(t, leases, 1)
	assert.Equal(t, f.lease.ID, leases[0].ID)

	leases, err = repo.ByTenantID(ctx, 99)
	require.NoError(t, err)
	assert.Empty(t, leases)
}

func TestLeaseDrivesPropertyStatus(t *testing.T) {
	st := setupTestStore(t)
	ctx := context.Background()
	f := seed(t, st)
	properties := NewPropertyRepository(st)
	leases := NewLeaseRepository(st)

	p, err := properties.ByID(ctx, f.property.ID)
	require.NoError(t, err)
	assert.Equal(t, models.PropertyOccupied, p.Status)

	ended, err := leases.End(ctx, f.lease.ID, day(2026, 6, 30))
	require.NoError(t, err)
	assert.Equal(t, models.LeaseEnded, ended.Status)
	require.NotNil(t, ended.EndDate)

	p, err = properties.ByID(ctx, f.property.ID)
	require.NoError(t, err)
	assert.Equal(t, models.PropertyVacant, p.Status)

	active, err := leases.Active(ctx)
	require.NoError(t, err)
	assert.Empty(t, active)
}

func TestRentRequiresLease(t *testing.T) {
	st := setupTestStore(t)
	ctx := context.Background()

	err := NewRentRepository(st).Create(ctx, &models.Rent{LeaseID: 7, DueDate: day(2026, 1, 5), Amount: 100})
	var v *errdefs.ValidationError
	require.ErrorAs(t, err, &v)
	assert.Equal(t, "leaseId", v.Field)
}

func TestMarkPaidIsTerminal(t *testing.T) {
	st := setupTestStore(t)
	ctx := context.Background()
	f := seed(t, st)
	rents := NewRentRepository(st)

	partial, err := rents.MarkPaid(ctx, f.rents[0].ID, day(2025, 11, 6), 600)
	require.NoError(t, err)
	assert.Equal(t, models.RentPartial, partial.Status)
	require.NotNil(t, partial.PaidAmount)
	assert.Equal(t, 600.0, *partial.PaidAmount)

	paid, err := rents.MarkPaid(ctx, f.rents[0].ID, day(2025, 11, 20), 1250)
	require.NoError(t, err)
	assert.Equal(t, models.RentPaid, paid.Status)
	require.NotNil(t, paid.PaidDate)
	assert.True(t, paid.PaidDate.Equal(day(2025, 11, 20)))

	_, err = rents.MarkPaid(ctx, f.rents[0].ID, day(2025, 11, 21), 1250)
	assert.True(t, errdefs.IsValidation(err))

	_, err = rents.Update(ctx, f.rents[0].ID, func(r *models.Rent) { r.Status = models.RentPending })
	assert.True(t, errdefs.IsValidation(err))

	_, err = rents.Update(ctx, f.rents[1].ID, func(r *models.Rent) { r.Status = models.RentPaid })
	assert.True(t, errdefs.IsValidation(err))

	err = rents.Create(ctx, &models.Rent{LeaseID: f.lease.ID, DueDate: day(2026, 1, 5), Status: models.RentPaid})
	assert.True(t, errdefs.IsValidation(err))

	_, err = rents.MarkPaid(ctx, f.rents[1].ID, day(2025, 12, 5), 0)
	assert.True(t, errdefs.IsValidation(err))
}

func TestMarkPaidAddsInstalments(t *testing.T) {
	st := setupTestStore(t)
	ctx := context.Background()
	f := seed(t, st)
	rents := NewRentRepository(st)

	first, err := rents.MarkPaid(ctx, f.rents[0].ID, day(2025, 11, 6), 600)
	require.NoError(t, err)
	assert.Equal(t, models.RentPartial, first.Status)

	second, err := rents.MarkPaid(ctx, f.rents[0].ID, day(2025, 11, 15), 600)
	require.NoError(t, err)
	assert.Equal(t, models.RentPartial, second.Status)
	require.NotNil(t, second.PaidAmount)
	assert.Equal(t, 1200.0, *second.PaidAmount)

	paid, err := rents.MarkPaid(ctx, f.rents[0].ID, day(2025, 11, 20), 50)
	require.NoError(t, err)
	assert.Equal(t, models.RentPaid, paid.Status)
	require.NotNil(t, paid.PaidAmount)
	assert.Equal(t, 1250.0, *paid.PaidAmount)
	assert.True(t, paid.PaidDate.Equal(day(2025, 11, 20)))

	summary := lifecycle.SummarizeYear(*f.lease, []models.Rent{*paid}, 2025)
	assert.Equal(t, 1250.0, *summary.RentsPaidTotal)
}

func TestCreateForMonthRejectsFilledMonth(t *testing.T) {
	st := setupTestStore(t)
	ctx := context.Background()
	f := seed(t, st)
	rents := NewRentRepository(st)

	err := rents.CreateForMonth(ctx, &models.Rent{LeaseID: f.lease.ID, DueDate: day(2025, 12, 20), Amount: 1200})
	assert.True(t, errdefs.IsValidation(err))

	existing, err := rents.ByLeaseID(ctx, f.lease.ID)
	require.NoError(t, err)
	virtual := lifecycle.GenerateVirtualRents([]models.Lease{*f.lease}, existing, day(2026, 1, 4))
	require.Len(t, virtual, 1)

	_, err = lifecycle.Materialize(ctx, rents, virtual[0])
	require.NoError(t, err)
	_, err = lifecycle.Materialize(ctx, rents, virtual[0])
	assert.True(t, errdefs.IsValidation(err))

	stored, err := rents.ByLeaseID(ctx, f.lease.ID)
	require.NoError(t, err)
	assert.Len(t, stored, 3)
}

func TestMarkLateSkipsSettledRents(t *testing.T) {
	st := setupTestStore(t)
	ctx := context.Background()
	f := seed(t, st)
	rents := NewRentRepository(st)

	_, err := rents.MarkPaid(ctx, f.rents[0].ID, day(2025, 11, 5), 1250)
	require.NoError(t, err)

	changed, err := rents.MarkLate(ctx, []uint{f.rents[0].ID, f.rents[1].ID})
	require.NoError(t, err)
	assert.Equal(t, int64(1), changed)

	late, err := rents.ByStatus(ctx, models.RentLate)
	require.NoError(t, err)
	require.Len(t, late, 1)
	assert.Equal(t, f.rents[1].ID, late[0].ID)

	changed, err = rents.MarkLate(ctx, nil)
	require.NoError(t, err)
	assert.Zero(t, changed)
}

func TestRentQueries(t *testing.T) {
	st := setupTestStore(t)
	ctx := context.Background()
	f := seed(t, st)
	rents := NewRentRepository(st)

	byLease, err := rents.ByLeaseID(ctx, f.lease.ID)
	require.NoError(t, err)
	assert.Len(t, byLease, 2)

	december, err := rents.DueBetween(ctx, day(2025, 12, 1), day(2026, 1, 1))
	require.NoError(t, err)
	require.Len(t, december, 1)
	assert.Equal(t, f.rents[1].ID, december[0].ID)

	unpaid, err := rents.Unpaid(ctx)
	require.NoError(t, err)
	assert.Len(t, unpaid, 2)
}
