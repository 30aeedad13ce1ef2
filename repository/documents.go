package repository

import (
	"context"
	"strings"

	"gorm.io/gorm"

	"github.com/beesaferoot/rentstore/codec"
	"github.com/beesaferoot/rentstore/errdefs"
	"github.com/beesaferoot/rentstore/models"
	"github.com/beesaferoot/rentstore/store"
)

// DocumentRepository stores attachments. Associations are weak: they are neither
// checked on write nor followed on delete.
type DocumentRepository struct {
	crud[models.Document]
	lookups map[models.EntityKind]func(db *gorm.DB, id uint) (any, error)
}

func NewDocumentRepository(st *store.Store) *DocumentRepository {
	r := &DocumentRepository{crud: crud[models.Document]{st: st, entity: "document", table: "documents"}}
	r.beforeCreate = func(_ *gorm.DB, d *models.Document) error {
		return prepareDocument(d)
	}
	r.beforeUpdate = func(_ *gorm.DB, _, d *models.Document) error {
		return prepareDocument(d)
	}
	r.lookups = map[models.EntityKind]func(db *gorm.DB, id uint) (any, error){
		models.KindProperty:      lookup[models.Property]("property", "properties"),
		models.KindTenant:        lookup[models.Tenant]("tenant", "tenants"),
		models.KindLease:         lookup[models.Lease]("lease", "leases"),
		models.KindRent:          lookup[models.Rent]("rent", "rents"),
		models.KindInventory:     lookup[models.Inventory]("inventory", "inventories"),
		models.KindCommunication: lookup[models.Communication]("communication", "communications"),
	}
	return r
}

func lookup[T any](entity, table string) func(db *gorm.DB, id uint) (any, error) {
	c := &crud[T]{entity: entity, table: table}
	return func(db *gorm.DB, id uint) (any, error) {
		return c.byID(db, id)
	}
}

func prepareDocument(d *models.Document) error {
	if strings.TrimSpace(d.Name) == "" {
		return errdefs.Invalid("name", "must not be empty")
	}
	if d.MimeType == "" {
		d.MimeType = codec.DefaultMimeType
	}
	if d.Data != nil {
		d.Size = int64(len(d.Data))
	}
	if ref, ok := d.Related(); ok && !ref.Kind.Valid() {
		return errdefs.Invalid("relatedEntityType", "unknown entity kind %q", ref.Kind)
	}
	return nil
}

func (r *DocumentRepository) ByType(ctx context.Context, docType string) ([]models.Document, error) {
	return r.find(r.st.DB(ctx).Where("type = ?", docType).Order("id"))
}

// ByRelated returns the documents attached to ref.
func (r *DocumentRepository) ByRelated(ctx context.Context, ref models.RelatedEntity) ([]models.Document, error) {
	return r.find(r.st.DB(ctx).
		Where("related_entity_type = ? AND related_entity_id = ?", ref.Kind, ref.ID).
		Order("id"))
}

// Resolve loads the entity ref points at. The concrete type depends on ref.Kind:
// *models.Property, *models.Tenant, and so on. A dangling reference yields a
// NotFoundError.
func (r *DocumentRepository) Resolve(ctx context.Context, ref models.RelatedEntity) (any, error) {
	fn, ok := r.lookups[ref.Kind]
	if !ok {
		return nil, errdefs.Invalid("relatedEntityType", "unknown entity kind %q", ref.Kind)
	}
	return fn(r.st.DB(ctx), ref.ID)
}

// Attach sets or clears the association of a document.
func (r *DocumentRepository) Attach(ctx context.Context, id uint, ref models.RelatedEntity) (*models.Document, error) {
	return r.Update(ctx, id, func(d *models.Document) {
		d.AttachTo(ref)
	})
}
