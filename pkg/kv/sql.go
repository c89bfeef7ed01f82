package kv

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Setting is a single persisted key/value row.
type Setting struct {
	Key       string    `gorm:"primaryKey;column:key"`
	Value     string    `gorm:"type:text;not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

// TableName sets the database table name.
func (Setting) TableName() string { return "engine_settings" }

type sqlKV struct {
	db *gorm.DB
}

// NewSQL returns a KV backed by the shared GORM connection.
func NewSQL(db *gorm.DB) (KV, error) {
	if db == nil {
		return nil, ErrUnavailable
	}
	if err := db.AutoMigrate(&Setting{}); err != nil {
		return nil, err
	}
	return &sqlKV{db: db}, nil
}

func (s *sqlKV) Get(ctx context.Context, key string) (string, bool, error) {
	var setting Setting
	err := s.db.WithContext(ctx).
		Where("key = ?", key).
		Take(&setting).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return setting.Value, true, nil
}

func (s *sqlKV) Set(ctx context.Context, key, value string) error {
	setting := Setting{Key: key, Value: value, UpdatedAt: time.Now().UTC()}
	return s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "key"}},
			DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
		}).
		Create(&setting).Error
}
