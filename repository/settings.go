package repository

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"gorm.io/gorm"

	"github.com/beesaferoot/rentstore/errdefs"
	"github.com/beesaferoot/rentstore/models"
	"github.com/beesaferoot/rentstore/store"
)

// SettingRepository stores key/value settings. Keys are unique, values are JSON text.
type SettingRepository struct {
	crud[models.Setting]
}

func NewSettingRepository(st *store.Store) *SettingRepository {
	r := &SettingRepository{crud[models.Setting]{st: st, entity: "setting", table: "settings"}}
	r.beforeCreate = func(tx *gorm.DB, s *models.Setting) error {
		if err := checkSetting(s); err != nil {
			return err
		}
		return r.checkKeyFree(tx, s.Key, 0)
	}
	r.beforeUpdate = func(tx *gorm.DB, _, s *models.Setting) error {
		if err := checkSetting(s); err != nil {
			return err
		}
		return r.checkKeyFree(tx, s.Key, s.ID)
	}
	return r
}

func checkSetting(s *models.Setting) error {
	s.Key = strings.TrimSpace(s.Key)
	if s.Key == "" {
		return errdefs.Invalid("key", "must not be empty")
	}
	if s.Value == "" {
		s.Value = "null"
	}
	if !json.Valid([]byte(s.Value)) {
		return errdefs.Invalid("value", "setting %s does not hold JSON", s.Key)
	}
	return nil
}

// checkKeyFree fails when another row than self already uses key.
func (r *SettingRepository) checkKeyFree(tx *gorm.DB, key string, self uint) error {
	var count int64
	err := tx.Model(&models.Setting{}).
		Where(map[string]any{"key": key}).
		Where("id <> ?", self).
		Count(&count).Error
	if err != nil {
		return errdefs.Storage("get", r.table, err)
	}
	if count > 0 {
		return errdefs.Invalid("key", "setting %s already exists", key)
	}
	return nil
}

func (r *SettingRepository) byKey(db *gorm.DB, key string) (*models.Setting, error) {
	var s models.Setting
	err := db.Where(map[string]any{"key": key}).First(&s).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, errdefs.NotFound(r.entity, key)
	}
	if err != nil {
		return nil, errdefs.Storage("get", r.table, err)
	}
	return &s, nil
}

func (r *SettingRepository) Get(ctx context.Context, key string) (*models.Setting, error) {
	return r.byKey(r.st.DB(ctx), key)
}

// Decode unmarshals the value stored under key into dst.
func (r *SettingRepository) Decode(ctx context.Context, key string, dst any) error {
	s, err := r.Get(ctx, key)
	if err != nil {
		return err
	}
	if err := json.Unmarshal([]byte(s.Value), dst); err != nil {
		return errdefs.Invalid("value", "setting %s: %v", key, err)
	}
	return nil
}

// Set stores value, JSON encoded, under key, creating the row when needed.
func (r *SettingRepository) Set(ctx context.Context, key string, value any) (*models.Setting, error) {
	encoded, err := json.Marshal(value)
	if err != nil {
		return nil, errdefs.Invalid("value", "setting %s cannot be encoded: %v", key, err)
	}

	var out *models.Setting
	err = r.st.Transaction(ctx, func(tx *gorm.DB) error {
		current, err := r.byKey(tx, strings.TrimSpace(key))
		if errdefs.IsNotFound(err) {
			out = &models.Setting{Key: key, Value: string(encoded)}
			return r.create(tx, out)
		}
		if err != nil {
			return err
		}
		out, err = r.update(tx, current.ID, func(s *models.Setting) {
			s.Value = string(encoded)
		})
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// All returns every setting as key to JSON value.
func (r *SettingRepository) All(ctx context.Context) (map[string]string, error) {
	rows, err := r.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make(map[string]string, len(rows))
	for _, s := range rows {
		out[s.Key] = s.Value
	}
	return out, nil
}

func (r *SettingRepository) DeleteKey(ctx context.Context, key string) error {
	res := r.st.DB(ctx).Where(map[string]any{"key": key}).Delete(&models.Setting{})
	if res.Error != nil {
		return errdefs.Storage("delete", r.table, res.Error)
	}
	if res.RowsAffected == 0 {
		return errdefs.NotFound(r.entity, key)
	}
	return nil
}
