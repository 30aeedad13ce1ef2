package repository

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/beesaferoot/rentstore/errdefs"
	"github.com/beesaferoot/rentstore/models"
)

func TestTenantTransitionWritesAudit(t *testing.T) {
	st := setupTestStore(t)
	ctx := context.Background()
	tenants := NewTenantRepository(st)
	audits := NewTenantAuditRepository(st)

	tenant := &models.Tenant{FirstName: "Jo", LastName: "Durand"}
	require.NoError(t, tenants.Create(ctx, tenant))
	assert.Equal(t, models.TenantCandidate, tenant.Status)

	updated, audit, err := tenants.Transition(ctx, tenant.ID, TransitionRequest{
		To:          models.TenantActive,
		Actor:       "owner",
		Reason:      "file complete",
		DocumentIDs: []uint{4},
	})
	require.NoError(t, err)
	assert.Equal(t, models.TenantActive, updated.Status)
	assert.Equal(t, models.TenantCandidate, audit.FromStatus)
	assert.Equal(t, models.TenantActive, audit.ToStatus)
	assert.Equal(t, "candidature-accepted", audit.Action)
	_, err = uuid.Parse(audit.EventID)
	assert.NoError(t, err)

	_, _, err = tenants.Transition(ctx, tenant.ID, TransitionRequest{To: models.TenantCandidate})
	assert.True(t, errdefs.IsValidation(err))

	_, _, err = tenants.Transition(ctx, tenant.ID, TransitionRequest{To: models.TenantFormer, Actor: "owner"})
	require.NoError(t, err)

	trail, err := audits.ByTenantID(ctx, tenant.ID)
	require.NoError(t, err)
	require.Len(t, trail, 2)
	assert.Equal(t, []uint{4}, []uint(trail[0].DocumentIDs))
	assert.Equal(t, models.TenantFormer, trail[1].ToStatus)
	assert.NotEqual(t, trail[0].EventID, trail[1].EventID)

	_, _, err = tenants.Transition(ctx, 404, TransitionRequest{To: models.TenantActive})
	assert.True(t, errdefs.IsNotFound(err))
}

func TestTenantUpdateCannotChangeStatus(t *testing.T) {
	st := setupTestStore(t)
	ctx := context.Background()
	tenants := NewTenantRepository(st)

	tenant := &models.Tenant{LastName: "Petit"}
	require.NoError(t, tenants.Create(ctx, tenant))

	_, err := tenants.Update(ctx, tenant.ID, func(t *models.Tenant) { t.Status = models.TenantActive })
	assert.True(t, errdefs.IsValidation(err))

	updated, err := tenants.Update(ctx, tenant.ID, func(t *models.Tenant) { t.Email = "petit@example.com" })
	require.NoError(t, err)
	assert.Equal(t, "petit@example.com", updated.Email)

	found, err := tenants.ByEmail(ctx, "petit@example.com")
	require.NoError(t, err)
	assert.Len(t, found, 1)
}

func TestAuditAppendRequiresTenant(t *testing.T) {
	st := setupTestStore(t)
	ctx := context.Background()

	err := NewTenantAuditRepository(st).Append(ctx, &models.TenantAudit{TenantID: 12, Action: "note"})
	assert.True(t, errdefs.IsValidation(err))
}

func TestDocumentResolve(t *testing.T) {
	st := setupTestStore(t)
	ctx := context.Background()
	f := seed(t, st)
	docs := NewDocumentRepository(st)

	doc := &models.Document{Name: "bail.pdf", Type: "lease", Data: []byte("%PDF")}
	doc.AttachTo(models.RelatedEntity{Kind: models.KindLease, ID: f.lease.ID})
	require.NoError(t, docs.Create(ctx, doc))
	assert.Equal(t, int64(4), doc.Size)
	assert.Equal(t, "application/octet-stream", doc.MimeType)

	ref, ok := doc.Related()
	require.True(t, ok)
	entity, err := docs.Resolve(ctx, ref)
	require.NoError(t, err)
	lease, ok := entity.(*models.Lease)
	require.True(t, ok)
	assert.Equal(t, f.lease.ID, lease.ID)

	attached, err := docs.ByRelated(ctx, ref)
	require.NoError(t, err)
	assert.Len(t, attached, 1)

	byType, err := docs.ByType(ctx, "lease")
	require.NoError(t, err)
	assert.Len(t, byType, 1)

	require.NoError(t, NewLeaseRepository(st).Delete(ctx, f.lease.ID))

	_, err = docs.ByID(ctx, doc.ID)
	require.NoError(t, err, "deleting the lease must not cascade")

	_, err = docs.Resolve(ctx, ref)
	assert.True(t, errdefs.IsNotFound(err))

	_, err = docs.Resolve(ctx, models.RelatedEntity{Kind: "settings", ID: 1})
	assert.True(t, errdefs.IsValidation(err))

	detached, err := docs.Attach(ctx, doc.ID, models.RelatedEntity{})
	require.NoError(t, err)
	_, ok = detached.Related()
	assert.False(t, ok)
}

func TestInventoryRequiresLease(t *testing.T) {
	st := setupTestStore(t)
	ctx := context.Background()
	f := seed(t, st)
	repo := NewInventoryRepository(st)

	err := repo.Create(ctx, &models.Inventory{LeaseID: 99, Type: models.InventoryCheckin})
	assert.True(t, errdefs.IsValidation(err))

	err = repo.Create(ctx, &models.Inventory{LeaseID: f.lease.ID, Type: "walkthrough"})
	assert.True(t, errdefs.IsValidation(err))

	inv := &models.Inventory{LeaseID: f.lease.ID, Type: models.InventoryCheckin, Date: day(2025, 9, 1), Photos: []uint{1, 2}}
	require.NoError(t, repo.Create(ctx, inv))

	found, err := repo.ByLeaseID(ctx, f.lease.ID)
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, []uint{1, 2}, []uint(found[0].Photos))
}

func TestCommunicationsAndTenantDocuments(t *testing.T) {
	st := setupTestStore(t)
	ctx := context.Background()
	f := seed(t, st)

	comms := NewCommunicationRepository(st)
	tenantID := f.tenant.ID
	msg := &models.Communication{TenantID: &tenantID, Subject: "Quittance", SentAt: day(2025, 12, 6)}
	require.NoError(t, comms.Create(ctx, msg))
	assert.Equal(t, models.ChannelOther, msg.Channel)
	assert.True(t, errdefs.IsValidation(comms.Create(ctx, &models.Communication{Channel: "fax"})))

	found, err := comms.ByTenantID(ctx, tenantID)
	require.NoError(t, err)
	assert.Len(t, found, 1)

	tenantDocs := NewTenantDocumentRepository(st)
	require.NoError(t, tenantDocs.Create(ctx, &models.TenantDocument{TenantID: tenantID, Name: "id.png", Data: []byte{1, 2, 3}}))
	assert.True(t, errdefs.IsValidation(tenantDocs.Create(ctx, &models.TenantDocument{TenantID: 77, Name: "x"})))

	papers, err := tenantDocs.ByTenantID(ctx, tenantID)
	require.NoError(t, err)
	require.Len(t, papers, 1)
	assert.Equal(t, int64(3), papers[0].Size)
	assert.Equal(t, []byte{1, 2, 3}, papers[0].Data)
}

func TestSettings(t *testing.T) {
	st := setupTestStore(t)
	ctx := context.Background()
	repo := NewSettingRepository(st)

	require.NoError(t, repo.Create(ctx, &models.Setting{Key: "currency", Value: `"EUR"`}))

	err := repo.Create(ctx, &models.Setting{Key: "currency", Value: `"USD"`})
	var v *errdefs.ValidationError
	require.ErrorAs(t, err, &v)
	assert.Equal(t, "key", v.Field)

	assert.True(t, errdefs.IsValidation(repo.Create(ctx, &models.Setting{Key: "broken", Value: "{"})))

	_, err = repo.Set(ctx, "reminderDays", 5)
	require.NoError(t, err)
	_, err = repo.Set(ctx, "reminderDays", 7)
	require.NoError(t, err)

	var days int
	require.NoError(t, repo.Decode(ctx, "reminderDays", &days))
	assert.Equal(t, 7, days)

	all, err := repo.All(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"currency": `"EUR"`, "reminderDays": "7"}, all)

	require.NoError(t, repo.DeleteKey(ctx, "currency"))
	assert.True(t, errdefs.IsNotFound(repo.DeleteKey(ctx, "currency")))

	_, err = repo.Get(ctx, "")
	assert.True(t, errdefs.IsNotFound(err))
}

func TestChargesAdjustmentUpsertMerges(t *testing.T) {
	st := setupTestStore(t)
	ctx := context.Background()
	f := seed(t, st)
	repo := NewChargesAdjustmentRepository(st)

	annual := 600.0
	first, err := repo.Upsert(ctx, f.lease.ID, 2024, models.ChargesAdjustmentPatch{
		AnnualCharges: &annual,
		CustomCharges: map[string]float64{"Eau": 100},
	})
	require.NoError(t, err)
	assert.Equal(t, 600.0, first.AnnualCharges)
	assert.Zero(t, first.MonthlyRent)

	count := 11
	second, err := repo.Upsert(ctx, f.lease.ID, 2024, models.ChargesAdjustmentPatch{
		RentsPaidCount: &count,
		CustomCharges:  map[string]float64{"Electricite": 200},
	})
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, map[string]float64{"Eau": 100, "Electricite": 200}, second.Charges())
	assert.Equal(t, 600.0, second.AnnualCharges)
	assert.Equal(t, 11, second.RentsPaidCount)

	third, err := repo.Upsert(ctx, f.lease.ID, 2024, models.ChargesAdjustmentPatch{
		CustomCharges: map[string]float64{"Eau": 120},
	})
	require.NoError(t, err)
	assert.Equal(t, map[string]float64{"Eau": 120, "Electricite": 200}, third.Charges())

	rows, err := repo.ByLeaseID(ctx, f.lease.ID)
	require.NoError(t, err)
	assert.Len(t, rows, 1)

	_, err = repo.Upsert(ctx, f.lease.ID, 2025, models.ChargesAdjustmentPatch{})
	require.NoError(t, err)
	rows, err = repo.ByLeaseID(ctx, f.lease.ID)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, 2025, rows[1].Year)
	assert.Empty(t, rows[1].Charges())

	_, err = repo.Upsert(ctx, 404, 2024, models.ChargesAdjustmentPatch{})
	assert.True(t, errdefs.IsValidation(err))

	_, err = repo.ByLeaseYear(ctx, f.lease.ID, 1999)
	assert.True(t, errdefs.IsNotFound(err))
}
