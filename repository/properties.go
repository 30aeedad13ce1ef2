package repository

import (
	"context"
	"strings"

	"gorm.io/gorm"

	"github.com/beesaferoot/rentstore/errdefs"
	"github.com/beesaferoot/rentstore/models"
	"github.com/beesaferoot/rentstore/store"
)

type PropertyRepository struct {
	crud[models.Property]
}

func NewPropertyRepository(st *store.Store) *PropertyRepository {
	r := &PropertyRepository{crud[models.Property]{st: st, entity: "property", table: "properties"}}
	r.beforeCreate = func(_ *gorm.DB, p *models.Property) error {
		if p.Status == "" {
			p.Status = models.PropertyVacant
		}
		if p.Photos == nil {
			p.Photos = []uint{}
		}
		return validateProperty(p)
	}
	r.beforeUpdate = func(_ *gorm.DB, _, p *models.Property) error {
		return validateProperty(p)
	}
	return r
}

func validateProperty(p *models.Property) error {
	if strings.TrimSpace(p.Name) == "" {
		return errdefs.Invalid("name", "must not be empty")
	}
	if p.Type != "" && !p.Type.Valid() {
		return errdefs.Invalid("type", "unknown property type %q", p.Type)
	}
	if !p.Status.Valid() {
		return errdefs.Invalid("status", "unknown property status %q", p.Status)
	}
	return nil
}

func (r *PropertyRepository) ByStatus(ctx context.Context, status models.PropertyStatus) ([]models.Property, error) {
	return r.find(r.st.DB(ctx).Where("status = ?", status).Order("id"))
}

// ByName returns properties whose name starts with prefix, sorted by name.
func (r *PropertyRepository) ByName(ctx context.Context, prefix string) ([]models.Property, error) {
	return r.find(r.st.DB(ctx).Where("name LIKE ?", stripWildcards(prefix)+"%").Order("name"))
}

func stripWildcards(s string) string {
	return strings.NewReplacer("%", "", "_", "").Replace(s)
}
