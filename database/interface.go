package database

import (
	"context"
	"time"

	"vendor-inventory-import/model"
)

// Database interface for different database implementations
type Database interface {
	// UploadSession operations
	CreateUploadSessions(sessions []*model.UploadSession) error
	GetUploadSession(sessionID string) (*model.UploadSession, error)
	ListUploadSessions(offset, limit int) ([]*model.UploadSession, int64, error)
	ListUploadSessionsByRun(runID string) ([]*model.UploadSession, error)
	ListUploadSessionsByStatus(status model.SessionStatus, updatedBefore time.Time, limit int) ([]*model.UploadSession, error)
	UpdateUploadSessionStatus(sessionID string, status model.SessionStatus, errorMessage string) error
	IncrementUploadSessionCounters(sessionID string, delta model.SessionCounters) error
	ClearUploadSessionArchive(runID string) error
	DeleteUploadSession(sessionID string) (int64, error)

	// StagingRecord operations
	CreateStagingRecords(records []*model.StagingRecord) error
	GetStagingRecord(id int64) (*model.StagingRecord, error)
	GetStagingRecordsByIDs(ids []int64) ([]*model.StagingRecord, error)
	GetStagingRecordsByRows(sessionID string, rowNumbers []int) ([]*model.StagingRecord, error)
	QueryStagingRecords(filter StagingFilter) ([]*model.StagingRecord, int64, error)
	ScanStagingRecords(filter StagingFilter, afterID int64, limit int) ([]*model.StagingRecord, error)
	UpdateStagingRecord(record *model.StagingRecord) error
	UpdateStagingRecords(records []*model.StagingRecord) error
	DeleteStagingRecord(id int64) error
	DeleteStagingRecordsBySession(sessionID string) (int64, error)

	// InventoryRecord operations
	ReconcileStagingRecord(ctx context.Context, record *model.StagingRecord) (*model.InventoryRecord, model.ActionType, error)
	GetInventoryRecord(id int64) (*model.InventoryRecord, error)
	GetInventoryRecordByKey(compositeKey string) (*model.InventoryRecord, error)
	CountInventoryRecords() (int64, error)

	// General operations
	Close() error
}

// DBType database type
type DBType string

const (
	DBTypeMySQL    DBType = "mysql"
	DBTypePostgres DBType = "postgres"
	DBTypeSQLite   DBType = "sqlite"
	DBTypePebble   DBType = "pebble"
)

// Global database instance
var DB Database

// currentDBType stores the current database type
var currentDBType DBType

// InitDatabase initialize database with specified type
func InitDatabase(dbType DBType, config interface{}) error {
	var err error

	switch dbType {
	case DBTypeMySQL, DBTypePostgres, DBTypeSQLite:
		DB, err = NewGormDatabase(config)
		currentDBType = dbType
	case DBTypePebble:
		DB, err = NewPebbleDatabase(config)
		currentDBType = DBTypePebble
	default:
		return ErrUnsupportedDBType
	}

	return err
}

// GetDBType get current database type
func GetDBType() DBType {
	return currentDBType
}
