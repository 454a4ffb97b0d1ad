// Package history persists accepted paths in a sqlite database so later
// sessions can recall them.
package history

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"

	"github.com/pathline/pathline/internal/core"
)

type RecentPathManager struct {
	db *gorm.DB
}

// RecentPath is one accepted path. Accepting the same path again bumps
// UseCount and UpdatedAt instead of inserting a duplicate row.
type RecentPath struct {
	ID        uint      `gorm:"primarykey"`
	CreatedAt time.Time `gorm:"index"`
	UpdatedAt time.Time `gorm:"index"`

	Path      string `gorm:"uniqueIndex"`
	Directory string
	UseCount  int
}

const (
	historySchemaVersion = 1
)

func NewRecentPathManager(dbFilePath string) (*RecentPathManager, error) {
	dbFileExists := true
	if _, err := os.Stat(dbFilePath); errors.Is(err, os.ErrNotExist) {
		dbFileExists = false
	} else if err != nil {
		return nil, err
	}

	db, err := gorm.Open(sqlite.Open(dbFilePath), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("error opening recent path database: %w", err)
	}

	if needsMigration(dbFileExists, dbFilePath, db) {
		if err := db.AutoMigrate(&RecentPath{}); err != nil {
			return nil, fmt.Errorf("error auto-migrating database schema: %w", err)
		}
		if err := writeSchemaVersion(dbFilePath, historySchemaVersion); err != nil {
			return nil, fmt.Errorf("error writing history schema version: %w", err)
		}
	}

	return &RecentPathManager{
		db: db,
	}, nil
}

// NewDefaultManager opens the store at the standard location under the data
// directory.
func NewDefaultManager() (*RecentPathManager, error) {
	return NewRecentPathManager(core.HistoryFile())
}

func needsMigration(dbFileExists bool, dbFilePath string, db *gorm.DB) bool {
	if !dbFileExists {
		return true
	}

	versionMatches, err := schemaVersionMatches(dbFilePath)
	if err != nil || !versionMatches {
		return true
	}

	// If the version marker is present but the table is missing (corruption
	// or manual deletion), re-run migrations to restore the schema.
	return !db.Migrator().HasTable(&RecentPath{})
}

func writeSchemaVersion(dbFilePath string, version int) error {
	return os.WriteFile(schemaVersionPath(dbFilePath), []byte(strconv.Itoa(version)), 0644)
}

func schemaVersionMatches(dbFilePath string) (bool, error) {
	data, err := os.ReadFile(schemaVersionPath(dbFilePath))
	if err != nil {
		return false, err
	}
	trimmed := strings.TrimSpace(string(data))
	version, err := strconv.Atoi(trimmed)
	if err != nil {
		return false, err
	}
	if version != historySchemaVersion {
		return false, fmt.Errorf("history schema version mismatch: got %d, want %d", version, historySchemaVersion)
	}
	return true, nil
}

// The marker lives next to the database so tests with temp databases do not
// collide on a shared path.
func schemaVersionPath(dbFilePath string) string {
	return filepath.Join(filepath.Dir(dbFilePath), "history_schema_version")
}

// Record stores an accepted path, upserting on the path itself.
func (m *RecentPathManager) Record(path string, directory string) error {
	var existing RecentPath
	result := m.db.Where("path = ?", path).First(&existing)
	if result.Error == nil {
		existing.Directory = directory
		existing.UseCount++
		return m.db.Save(&existing).Error
	}
	if !errors.Is(result.Error, gorm.ErrRecordNotFound) {
		return result.Error
	}

	return m.db.Create(&RecentPath{
		Path:      path,
		Directory: directory,
		UseCount:  1,
	}).Error
}

// Recent returns up to limit paths, most recently used first.
func (m *RecentPathManager) Recent(limit int) []string {
	var entries []RecentPath
	result := m.db.Order("updated_at desc").Limit(limit).Find(&entries)
	if result.Error != nil {
		return nil
	}

	paths := make([]string, 0, len(entries))
	for _, e := range entries {
		paths = append(paths, e.Path)
	}
	return paths
}

// RecentIn returns up to limit paths accepted from the given directory.
func (m *RecentPathManager) RecentIn(directory string, limit int) ([]RecentPath, error) {
	var entries []RecentPath
	db := m.db
	if directory != "" {
		db = db.Where("directory = ?", directory)
	}
	result := db.Order("updated_at desc").Limit(limit).Find(&entries)
	if result.Error != nil {
		return nil, result.Error
	}
	return entries, nil
}

// Search returns paths containing the given substring, most recent first.
func (m *RecentPathManager) Search(query string, limit int) ([]RecentPath, error) {
	var entries []RecentPath
	result := m.db.Where("path LIKE ?", "%"+query+"%").
		Order("updated_at desc").
		Limit(limit).
		Find(&entries)
	if result.Error != nil {
		return nil, result.Error
	}
	return entries, nil
}

// DeleteEntry removes one recorded path by id.
func (m *RecentPathManager) DeleteEntry(id uint) error {
	result := m.db.Delete(&RecentPath{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("no recent path found with id %d", id)
	}

	return nil
}

// Reset drops all recorded paths.
func (m *RecentPathManager) Reset() error {
	return m.db.Exec("DELETE FROM recent_paths").Error
}

// Close releases the underlying database handle.
func (m *RecentPathManager) Close() error {
	sqlDB, err := m.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
