package repository

import (
	"context"
	"encoding/json"

	"circuitrack/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type SettingRepository struct {
	db *gorm.DB
}

func NewSettingRepository(db *gorm.DB) *SettingRepository {
	return &SettingRepository{db: db}
}

// Get returns gorm.ErrRecordNotFound when the key has never been set.
func (r *SettingRepository) Get(ctx context.Context, key string) (string, error) {
	var s models.SystemSetting
	if err := r.db.WithContext(ctx).Where(&models.SystemSetting{Key: key}).First(&s).Error; err != nil {
		return "", err
	}
	return s.Value, nil
}

func (r *SettingRepository) Set(ctx context.Context, key, value string, updatedBy *uint) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_by", "updated_at"}),
	}).Create(&models.SystemSetting{Key: key, Value: value, UpdatedBy: updatedBy}).Error
}

// GetJSON decodes the stored value of key into out.
func (r *SettingRepository) GetJSON(ctx context.Context, key string, out interface{}) error {
	v, err := r.Get(ctx, key)
	if err != nil {
		return err
	}
	return json.Unmarshal([]byte(v), out)
}

func (r *SettingRepository) SetJSON(ctx context.Context, key string, value interface{}, updatedBy *uint) error {
	b, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return r.Set(ctx, key, string(b), updatedBy)
}
