package repository

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/beesaferoot/rentstore/errdefs"
	"github.com/beesaferoot/rentstore/models"
	"github.com/beesaferoot/rentstore/store"
)

type TenantRepository struct {
	crud[models.Tenant]
	audits *TenantAuditRepository
}

func NewTenantRepository(st *store.Store) *TenantRepository {
	r := &TenantRepository{
		crud:   crud[models.Tenant]{st: st, entity: "tenant", table: "tenants"},
		audits: NewTenantAuditRepository(st),
	}
	r.beforeCreate = func(_ *gorm.DB, t *models.Tenant) error {
		if t.Status == "" {
			t.Status = models.TenantCandidate
		}
		return validateTenant(t)
	}
	r.beforeUpdate = func(_ *gorm.DB, before, after *models.Tenant) error {
		if before.Status != after.Status {
			return errdefs.Invalid("status", "tenant status changes go through Transition")
		}
		return validateTenant(after)
	}
	return r
}

func validateTenant(t *models.Tenant) error {
	if strings.TrimSpace(t.LastName) == "" {
		return errdefs.Invalid("lastName", "must not be empty")
	}
	if !t.Status.Valid() {
		return errdefs.Invalid("status", "unknown tenant status %q", t.Status)
	}
	return nil
}

func (r *TenantRepository) ByEmail(ctx context.Context, email string) ([]models.Tenant, error) {
	return r.find(r.st.DB(ctx).Where("email = ?", strings.TrimSpace(email)).Order("id"))
}

func (r *TenantRepository) ByStatus(ctx context.Context, status models.TenantStatus) ([]models.Tenant, error) {
	return r.find(r.st.DB(ctx).Where("status = ?", status).Order("id"))
}

// TransitionRequest describes a tenant status change.
type TransitionRequest struct {
	To          models.TenantStatus
	Actor       string
	Reason      string
	DocumentIDs []uint
}

// Transition moves a tenant to req.To and appends the matching audit row in the same
// transaction. Moves the state machine does not allow fail with a ValidationError.
func (r *TenantRepository) Transition(ctx context.Context, id uint, req TransitionRequest) (*models.Tenant, *models.TenantAudit, error) {
	var (
		tenant *models.Tenant
		audit  *models.TenantAudit
	)
	err := r.st.Transaction(ctx, func(tx *gorm.DB) error {
		current, err := r.byID(tx, id)
		if err != nil {
			return err
		}
		if !req.To.Valid() {
			return errdefs.Invalid("status", "unknown tenant status %q", req.To)
		}
		if !current.Status.CanTransition(req.To) {
			return errdefs.Invalid("status", "tenant cannot move from %s to %s", current.Status, req.To)
		}

		from := current.Status
		res := tx.Model(&models.Tenant{}).Where("id = ?", id).Update("status", req.To)
		if res.Error != nil {
			return errdefs.Storage("update", r.table, res.Error)
		}

		documentIDs := req.DocumentIDs
		if documentIDs == nil {
			documentIDs = []uint{}
		}
		audit = &models.TenantAudit{
			EventID:     uuid.NewString(),
			TenantID:    id,
			Action:      transitionAction(from, req.To),
			FromStatus:  from,
			ToStatus:    req.To,
			Actor:       req.Actor,
			Reason:      req.Reason,
			DocumentIDs: documentIDs,
		}
		if err := r.audits.append(tx, audit); err != nil {
			return err
		}

		tenant, err = r.byID(tx, id)
		return err
	})
	if err != nil {
		return nil, nil, err
	}
	return tenant, audit, nil
}

func transitionAction(from, to models.TenantStatus) string {
	switch {
	case from == models.TenantCandidate && to == models.TenantActive:
		return "candidature-accepted"
	case to == models.TenantCandidatureRefused:
		return "candidature-refused"
	case to == models.TenantFormer:
		return "lease-ended"
	case to == models.TenantCandidate:
		return "candidature-reopened"
	}
	return "status-changed"
}

// TenantAuditRepository is the append-only log of tenant status changes. It has no
// update or delete operation.
type TenantAuditRepository struct {
	base crud[models.TenantAudit]
}

func NewTenantAuditRepository(st *store.Store) *TenantAuditRepository {
	return &TenantAuditRepository{base: crud[models.TenantAudit]{st: st, entity: "tenant audit", table: "tenant_audits"}}
}

// Append writes one audit row. An empty EventID is filled with a new UUID.
func (r *TenantAuditRepository) Append(ctx context.Context, audit *models.TenantAudit) error {
	return r.base.st.Transaction(ctx, func(tx *gorm.DB) error {
		return r.append(tx, audit)
	})
}

func (r *TenantAuditRepository) append(tx *gorm.DB, audit *models.TenantAudit) error {
	if audit.EventID == "" {
		audit.EventID = uuid.NewString()
	}
	if _, err := uuid.Parse(audit.EventID); err != nil {
		return errdefs.Invalid("eventId", "not a UUID: %v", err)
	}
	if audit.DocumentIDs == nil {
		audit.DocumentIDs = []uint{}
	}
	ok, err := exists[models.Tenant](tx, "tenants", audit.TenantID)
	if err != nil {
		return err
	}
	if !ok {
		return errdefs.Invalid("tenantId", "tenant %d does not exist", audit.TenantID)
	}
	if err := tx.Create(audit).Error; err != nil {
		return errdefs.Storage("create", r.base.table, err)
	}
	return nil
}

func (r *TenantAuditRepository) List(ctx context.Context) ([]models.TenantAudit, error) {
	return r.base.List(ctx)
}

func (r *TenantAuditRepository) ByID(ctx context.Context, id uint) (*models.TenantAudit, error) {
	return r.base.ByID(ctx, id)
}

// ByTenantID returns the audit trail of a tenant, oldest first.
func (r *TenantAuditRepository) ByTenantID(ctx context.Context, tenantID uint) ([]models.TenantAudit, error) {
	return r.base.find(r.base.st.DB(ctx).Where("tenant_id = ?", tenantID).Order("created_at, id"))
}
