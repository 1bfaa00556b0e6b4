package storage

import (
	"context"
	"errors"
	"time"

	"github.com/aurevo/storefront/pkg/db/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// SQLBackend keeps values in the kv_entries table.
type SQLBackend struct {
	db *gorm.DB
}

func NewSQLBackend(db *gorm.DB) *SQLBackend {
	return &SQLBackend{db: db}
}

func (s *SQLBackend) Get(ctx context.Context, key string) (string, bool, error) {
	var entry models.KVEntry
	err := s.db.WithContext(ctx).Where("key = ?", key).First(&entry).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return entry.Value, true, nil
}

func (s *SQLBackend) Set(ctx context.Context, key, value string) error {
	entry := models.KVEntry{Key: key, Value: value, UpdatedAt: time.Now().UTC()}
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&entry).Error
}

func (s *SQLBackend) Delete(ctx context.Context, key string) error {
	return s.db.WithContext(ctx).Where("key = ?", key).Delete(&models.KVEntry{}).Error
}

// DeleteOlderThan removes entries under prefix not written since cutoff. A nil
// tx runs on the backend's own connection.
func (s *SQLBackend) DeleteOlderThan(ctx context.Context, tx *gorm.DB, prefix string, cutoff time.Time) (int64, error) {
	conn := tx
	if conn == nil {
		conn = s.db
	}
	res := conn.WithContext(ctx).
		Where("key LIKE ? AND updated_at < ?", prefix+"%", cutoff).
		Delete(&models.KVEntry{})
	return res.RowsAffected, res.Error
}
