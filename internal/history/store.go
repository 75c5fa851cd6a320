// Package history persists sampled readings to SQLite so the status API can
// serve short-term trends after a restart. One row per reading per sample;
// rows age out past the retention window.
package history

import (
	"fmt"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/warbou/hwinfo-oled-monitor/internal/hwinfo"
)

// Sample is one stored reading value.
type Sample struct {
	ID        uint      `gorm:"primarykey" json:"-"`
	ReadingID uint32    `gorm:"index:idx_reading_time" json:"reading_id"`
	SensorID  uint32    `json:"sensor_id"`
	Kind      string    `json:"kind"`
	Label     string    `json:"label"`
	Unit      string    `json:"unit"`
	Value     float64   `json:"value"`
	TakenAt   time.Time `gorm:"index:idx_reading_time" json:"taken_at"`
}

// Store wraps the SQLite database holding samples.
type Store struct {
	db *gorm.DB
}

// Open opens (or creates) the database at path and runs AutoMigrate.
func Open(path string) (*Store, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("opening history database: %w", err)
	}
	if err := db.AutoMigrate(&Sample{}); err != nil {
		return nil, fmt.Errorf("auto-migrate: %w", err)
	}
	return &Store{db: db}, nil
}

// Record stores every reading of the snapshot as one batch.
func (s *Store) Record(snap *hwinfo.Snapshot) error {
	if snap == nil || len(snap.Readings) == 0 {
		return nil
	}
	rows := make([]Sample, 0, len(snap.Readings))
	for _, r := range snap.Readings {
		rows = append(rows, Sample{
			ReadingID: r.ID,
			SensorID:  r.SensorID,
			Kind:      r.Kind.String(),
			Label:     r.Label,
			Unit:      r.Unit,
			Value:     r.Value,
			TakenAt:   snap.Taken,
		})
	}
	return s.db.CreateInBatches(rows, 200).Error
}

// Prune deletes samples taken before cutoff.
func (s *Store) Prune(cutoff time.Time) error {
	return s.db.Where("taken_at < ?", cutoff).Delete(&Sample{}).Error
}

// Latest returns the most recent samples for one reading, newest first.
func (s *Store) Latest(readingID uint32, limit int) ([]Sample, error) {
	if limit <= 0 {
		limit = 100
	}
	var rows []Sample
	err := s.db.Where("reading_id = ?", readingID).
		Order("taken_at desc").
		Limit(limit).
		Find(&rows).Error
	return rows, err
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
