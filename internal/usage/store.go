package usage

import (
	"context"
	"fmt"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Snapshot is one persisted per-provider row per rolling minute.
type Snapshot struct {
	ID                uint    `gorm:"primaryKey;autoIncrement" json:"-"`
	Provider          string  `gorm:"size:50;uniqueIndex:idx_provider_minute" json:"provider"`
	MinuteBucket      int64   `gorm:"uniqueIndex:idx_provider_minute" json:"minuteBucket"`
	TotalCalls        int64   `json:"totalCalls"`
	SuccessCalls      int64   `json:"successCalls"`
	ErrorCalls        int64   `json:"errorCalls"`
	SuccessRate       float64 `json:"successRate"`
	AvgResponseTimeMs float64 `json:"avgResponseTimeMs"`
	LastUsed          int64   `json:"lastUsed"`
}

func (Snapshot) TableName() string { return "provider_usage_snapshots" }

// Store persists usage snapshots.
type Store interface {
	Save(ctx context.Context, rows []Snapshot) error
}

// NopStore discards snapshots; used in tests and when persistence is
// disabled.
type NopStore struct{}

func (NopStore) Save(context.Context, []Snapshot) error { return nil }

// GormStore writes snapshots through gorm, upserting on
// (provider, minute_bucket) so repeated flushes within a minute stay
// idempotent.
type GormStore struct {
	db *gorm.DB
}

// OpenSQLite opens (or creates) the sqlite database and migrates the
// snapshot table.
func OpenSQLite(path string) (*GormStore, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}
	return NewGormStore(db)
}

// NewGormStore migrates and wraps an existing gorm handle. The
// dialector stays injectable so another driver can back it.
func NewGormStore(db *gorm.DB) (*GormStore, error) {
	if err := db.AutoMigrate(&Snapshot{}); err != nil {
		return nil, fmt.Errorf("migrate usage snapshots: %w", err)
	}
	return &GormStore{db: db}, nil
}

func (s *GormStore) Save(ctx context.Context, rows []Snapshot) error {
	if len(rows) == 0 {
		return nil
	}
	result := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{
			{Name: "provider"},
			{Name: "minute_bucket"},
		},
		UpdateAll: true,
	}).Create(&rows)
	if result.Error != nil {
		return fmt.Errorf("save usage snapshots: %w", result.Error)
	}
	return nil
}
