package history

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"codecollab/internal/models"
)

const (
	DefaultListLimit = 50
	MaxListLimit     = 200
)

var ErrMissingUserID = errors.New("user id is required")

// Open connects to the history database and migrates the schema. The "none"
// driver returns a nil database; callers treat that as history disabled.
func Open(driver, dsn string) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch driver {
	case "none", "":
		return nil, nil
	case "postgres":
		dialector = postgres.Open(dsn)
	case "sqlite":
		dialector = sqlite.Open(dsn)
	default:
		return nil, fmt.Errorf("unsupported history driver: %s", driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := db.AutoMigrate(&models.AnalysisRecord{}); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return db, nil
}

// Repository is the append-only store of a user's analyses.
type Repository struct {
	DB *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{DB: db}
}

// Append stores a new analysis record
func (r *Repository) Append(ctx context.Context, rec *models.AnalysisRecord) error {
	if rec.UserID == "" {
		return ErrMissingUserID
	}
	return r.DB.WithContext(ctx).Create(rec).Error
}

// ListByUser returns the most recent analyses for a user, newest first
func (r *Repository) ListByUser(ctx context.Context, userID string, limit int) ([]models.AnalysisRecord, error) {
	if userID == "" {
		return nil, ErrMissingUserID
	}
	if limit <= 0 {
		limit = DefaultListLimit
	}
	if limit > MaxListLimit {
		limit = MaxListLimit
	}

	records := []models.AnalysisRecord{}
	err := r.DB.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("analyzed_at DESC").
		Order("id DESC").
		Limit(limit).
		Find(&records).Error
	return records, err
}
