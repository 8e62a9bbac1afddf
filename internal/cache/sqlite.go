package cache

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/mlx93/VideoGen/pkg/models"
)

// analysisRecord is the durable-tier row for one cached analysis.
type analysisRecord struct {
	CacheKey  string `gorm:"primaryKey;type:varchar(64)"`
	Payload   string
	CreatedAt time.Time
	ExpiresAt time.Time `gorm:"index:idx_expires"`
}

func (analysisRecord) TableName() string { return "audio_analysis_cache" }

// SQLiteStore is the durable tier, backed by a local SQLite database.
type SQLiteStore struct {
	orm *gorm.DB
	db  *sql.DB
}

// NewSQLiteStore opens (or creates) the database at path and migrates the
// cache table.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating db dir: %w", err)
		}
	}

	orm, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("opening sqlite db: %w", err)
	}

	db, err := orm.DB()
	if err != nil {
		return nil, fmt.Errorf("getting sql.DB from gorm: %w", err)
	}
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(time.Hour)

	if err := orm.AutoMigrate(&analysisRecord{}); err != nil {
		db.Close()
		return nil, fmt.Errorf("auto migrate: %w", err)
	}

	return &SQLiteStore{orm: orm, db: db}, nil
}

// Get returns the cached analysis, deleting and missing on expired rows.
func (s *SQLiteStore) Get(key string) (*models.AudioAnalysis, error) {
	var rec analysisRecord
	err := s.orm.Where("cache_key = ?", key).First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("querying cache: %w", err)
	}

	if time.Now().After(rec.ExpiresAt) {
		s.orm.Where("cache_key = ?", key).Delete(&analysisRecord{})
		return nil, nil
	}

	var analysis models.AudioAnalysis
	if err := json.Unmarshal([]byte(rec.Payload), &analysis); err != nil {
		return nil, fmt.Errorf("decode cached analysis: %w", err)
	}
	return &analysis, nil
}

// Put upserts the analysis under key for ttl. Last writer wins; duplicate
// writes for identical content are safe because the computation is
// deterministic over the same bytes.
func (s *SQLiteStore) Put(key string, analysis *models.AudioAnalysis, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	payload, err := json.Marshal(analysis)
	if err != nil {
		return fmt.Errorf("encode analysis: %w", err)
	}
	rec := analysisRecord{
		CacheKey:  key,
		Payload:   string(payload),
		CreatedAt: time.Now(),
		ExpiresAt: time.Now().Add(ttl),
	}
	if err := s.orm.Save(&rec).Error; err != nil {
		return fmt.Errorf("storing analysis: %w", err)
	}
	return nil
}

// Close closes the underlying database.
func (s *SQLiteStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}
