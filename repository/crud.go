// Package repository exposes one repository per entity on top of a store, plus the
// transfer subsystem that exports, clears and imports the business tables.
package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/beesaferoot/rentstore/errdefs"
	"github.com/beesaferoot/rentstore/store"
)

// crud implements the operations shared by every repository. The hooks run inside
// the write transaction and may reject the row with an error.
type crud[T any] struct {
	st     *store.Store
	entity string
	table  string

	beforeCreate func(tx *gorm.DB, row *T) error
	beforeUpdate func(tx *gorm.DB, before, after *T) error
	afterWrite   func(tx *gorm.DB, row *T) error
}

func (c *crud[T]) List(ctx context.Context) ([]T, error) {
	return c.find(c.st.DB(ctx).Order("id"))
}

func (c *crud[T]) ByID(ctx context.Context, id uint) (*T, error) {
	return c.byID(c.st.DB(ctx), id)
}

// Create inserts row and stamps its timestamps. A zero ID is assigned by the store.
func (c *crud[T]) Create(ctx context.Context, row *T) error {
	return c.st.Transaction(ctx, func(tx *gorm.DB) error {
		return c.create(tx, row)
	})
}

// Update loads the row, applies mutate to it, and stores the result in one
// transaction. The ID and CreatedAt columns are never changed; UpdatedAt is stamped.
func (c *crud[T]) Update(ctx context.Context, id uint, mutate func(*T)) (*T, error) {
	var updated *T
	err := c.st.Transaction(ctx, func(tx *gorm.DB) error {
		var err error
		updated, err = c.update(tx, id, mutate)
		return err
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (c *crud[T]) Delete(ctx context.Context, id uint) error {
	res := c.st.DB(ctx).Delete(new(T), id)
	if res.Error != nil {
		return errdefs.Storage("delete", c.table, res.Error)
	}
	if res.RowsAffected == 0 {
		return errdefs.NotFound(c.entity, id)
	}
	return nil
}

func (c *crud[T]) Count(ctx context.Context) (int64, error) {
	var count int64
	err := c.st.DB(ctx).Model(new(T)).Count(&count).Error
	return count, errdefs.Storage("count", c.table, err)
}

func (c *crud[T]) find(query *gorm.DB) ([]T, error) {
	rows := make([]T, 0)
	if err := query.Find(&rows).Error; err != nil {
		return nil, errdefs.Storage("list", c.table, err)
	}
	return rows, nil
}

func (c *crud[T]) byID(db *gorm.DB, id uint) (*T, error) {
	row := new(T)
	err := db.First(row, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, errdefs.NotFound(c.entity, id)
	}
	if err != nil {
		return nil, errdefs.Storage("get", c.table, err)
	}
	return row, nil
}

func (c *crud[T]) exists(db *gorm.DB, id uint) (bool, error) {
	return exists[T](db, c.table, id)
}

// exists reports whether a row of T with the given id is stored.
func exists[T any](db *gorm.DB, table string, id uint) (bool, error) {
	var count int64
	if err := db.Model(new(T)).Where("id = ?", id).Count(&count).Error; err != nil {
		return false, errdefs.Storage("get", table, err)
	}
	return count > 0, nil
}

func (c *crud[T]) create(tx *gorm.DB, row *T) error {
	if c.beforeCreate != nil {
		if err := c.beforeCreate(tx, row); err != nil {
			return err
		}
	}
	if err := tx.Create(row).Error; err != nil {
		return errdefs.Storage("create", c.table, err)
	}
	if c.afterWrite != nil {
		return c.afterWrite(tx, row)
	}
	return nil
}

func (c *crud[T]) update(tx *gorm.DB, id uint, mutate func(*T)) (*T, error) {
	current, err := c.byID(tx, id)
	if err != nil {
		return nil, err
	}
	before := *current
	mutate(current)

	if c.beforeUpdate != nil {
		if err := c.beforeUpdate(tx, &before, current); err != nil {
			return nil, err
		}
	}

	err = tx.Model(new(T)).
		Where("id = ?", id).
		Select("*").
		Omit("id", "created_at").
		Updates(current).Error
	if err != nil {
		return nil, errdefs.Storage("update", c.table, err)
	}

	updated, err := c.byID(tx, id)
	if err != nil {
		return nil, err
	}
	if c.afterWrite != nil {
		if err := c.afterWrite(tx, updated); err != nil {
			return nil, err
		}
	}
	return updated, nil
}
