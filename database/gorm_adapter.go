package database

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"vendor-inventory-import/conf"
	"vendor-inventory-import/model"

	"github.com/pkg/errors"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

// GormDatabase SQL database implementation (mysql, postgres, sqlite)
type GormDatabase struct {
	db      *gorm.DB
	dialect DBType
}

// GormConfig SQL configuration
type GormConfig struct {
	Dialect      DBType
	DSN          string
	MaxOpenConns int
	MaxIdleConns int
	LogLevel     string
}

// inventoryColumns columns overwritten when a key already exists
var inventoryColumns = []string{
	"vendor_code", "part_number", "name", "description", "location_quantities", "total_quantity",
	"cost", "list_price", "core_price", "weight", "length", "width", "height",
	"upc", "unit_of_measure", "kit_flag", "kit_components", "last_session_id", "updated_at",
}

// NewGormDatabase create SQL database instance
func NewGormDatabase(config interface{}) (Database, error) {
	cfg, ok := config.(*GormConfig)
	if !ok {
		return nil, fmt.Errorf("invalid SQL config type")
	}

	var dialector gorm.Dialector
	switch cfg.Dialect {
	case DBTypeMySQL:
		dialector = mysql.Open(cfg.DSN)
	case DBTypePostgres:
		dialector = postgres.Open(cfg.DSN)
	case DBTypeSQLite:
		dialector = sqlite.Open(cfg.DSN)
	default:
		return nil, ErrUnsupportedDBType
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.Default.LogMode(parseGormLogLevel(cfg.LogLevel)),
	})
	if err != nil {
		return nil, errors.Wrapf(err, "failed to connect %s", cfg.Dialect)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, errors.Wrap(err, "failed to get sql.DB")
	}

	if cfg.Dialect == DBTypeSQLite {
		// sqlite allows one writer; a single connection also keeps in-memory databases shared
		sqlDB.SetMaxOpenConns(1)
	} else {
		if cfg.MaxOpenConns > 0 {
			sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
		}
		if cfg.MaxIdleConns > 0 {
			sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
		}
		sqlDB.SetConnMaxLifetime(time.Hour)
	}

	if err := db.AutoMigrate(&model.UploadSession{}, &model.StagingRecord{}, &model.InventoryRecord{}); err != nil {
		return nil, errors.Wrap(err, "failed to migrate schema")
	}

	conf.Log.WithField("dialect", cfg.Dialect).Info("SQL database connected successfully")

	return &GormDatabase{db: db, dialect: cfg.Dialect}, nil
}

func parseGormLogLevel(level string) logger.LogLevel {
	switch strings.ToLower(level) {
	case "silent":
		return logger.Silent
	case "error":
		return logger.Error
	case "info":
		return logger.Info
	default:
		return logger.Warn
	}
}

// UploadSession operations

func (m *GormDatabase) CreateUploadSessions(sessions []*model.UploadSession) error {
	if len(sessions) == 0 {
		return nil
	}
	return m.db.Create(&sessions).Error
}

func (m *GormDatabase) GetUploadSession(sessionID string) (*model.UploadSession, error) {
	var session model.UploadSession
	err := m.db.Where("session_id = ?", sessionID).First(&session).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &session, nil
}

func (m *GormDatabase) ListUploadSessions(offset, limit int) ([]*model.UploadSession, int64, error) {
	var sessions []*model.UploadSession
	var total int64

	if err := m.db.Model(&model.UploadSession{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := m.db.Order("created_at DESC").Order("run_id ASC").Order("chunk_number ASC").
		Offset(offset).Limit(limit).Find(&sessions).Error
	return sessions, total, err
}

func (m *GormDatabase) ListUploadSessionsByRun(runID string) ([]*model.UploadSession, error) {
	var sessions []*model.UploadSession
	err := m.db.Where("run_id = ?", runID).Order("chunk_number ASC").Find(&sessions).Error
	return sessions, err
}

func (m *GormDatabase) ListUploadSessionsByStatus(status model.SessionStatus, updatedBefore time.Time, limit int) ([]*model.UploadSession, error) {
	var sessions []*model.UploadSession
	query := m.db.Where("status = ?", status)
	if !updatedBefore.IsZero() {
		query = query.Where("updated_at < ?", updatedBefore)
	}
	if limit > 0 {
		query = query.Limit(limit)
	}
	err := query.Order("created_at ASC").Order("chunk_number ASC").Find(&sessions).Error
	return sessions, err
}

func (m *GormDatabase) UpdateUploadSessionStatus(sessionID string, status model.SessionStatus, errorMessage string) error {
	now := time.Now()
	updates := map[string]interface{}{
		"status":        status,
		"error_message": errorMessage,
	}
	switch {
	case status == model.SessionStatusProcessing:
		updates["started_at"] = gorm.Expr("COALESCE(started_at, ?)", now)
		updates["completed_at"] = nil
	case status.IsTerminal():
		updates["completed_at"] = now
	}

	result := m.db.Model(&model.UploadSession{}).Where("session_id = ?", sessionID).Updates(updates)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (m *GormDatabase) IncrementUploadSessionCounters(sessionID string, delta model.SessionCounters) error {
	if delta.IsZero() {
		return nil
	}
	updates := map[string]interface{}{}
	add := func(column string, n int) {
		if n != 0 {
			updates[column] = gorm.Expr(column+" + ?", n)
		}
	}
	add("processed_records", delta.Processed)
	add("valid_records", delta.Valid)
	add("invalid_records", delta.Invalid)
	add("corrected_records", delta.Corrected)
	add("inserted_records", delta.Inserted)
	add("updated_records", delta.Updated)
	add("failed_records", delta.Failed)

	result := m.db.Model(&model.UploadSession{}).Where("session_id = ?", sessionID).Updates(updates)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (m *GormDatabase) ClearUploadSessionArchive(runID string) error {
	return m.db.Model(&model.UploadSession{}).Where("run_id = ?", runID).Update("archive_key", "").Error
}

func (m *GormDatabase) DeleteUploadSession(sessionID string) (int64, error) {
	var deleted int64
	err := m.db.Transaction(func(tx *gorm.DB) error {
		result := tx.Where("session_id = ?", sessionID).Delete(&model.StagingRecord{})
		if result.Error != nil {
			return result.Error
		}
		deleted = result.RowsAffected

		result = tx.Where("session_id = ?", sessionID).Delete(&model.UploadSession{})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrNotFound
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return deleted, nil
}

// StagingRecord operations

func (m *GormDatabase) CreateStagingRecords(records []*model.StagingRecord) error {
	if len(records) == 0 {
		return nil
	}
	// Rows already staged by an earlier attempt of the same chunk are kept as they are
	return m.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "session_id"}, {Name: "line_number"}},
		DoNothing: true,
	}).CreateInBatches(records, 100).Error
}

func (m *GormDatabase) GetStagingRecord(id int64) (*model.StagingRecord, error) {
	var record model.StagingRecord
	err := m.db.First(&record, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &record, nil
}

func (m *GormDatabase) GetStagingRecordsByIDs(ids []int64) ([]*model.StagingRecord, error) {
	var records []*model.StagingRecord
	if len(ids) == 0 {
		return records, nil
	}
	err := m.db.Where("id IN ?", ids).Order("id ASC").Find(&records).Error
	return records, err
}

func (m *GormDatabase) GetStagingRecordsByRows(sessionID string, rowNumbers []int) ([]*model.StagingRecord, error) {
	var records []*model.StagingRecord
	if len(rowNumbers) == 0 {
		return records, nil
	}
	err := m.db.Where("session_id = ? AND line_number IN ?", sessionID, rowNumbers).
		Order("line_number ASC").Find(&records).Error
	return records, err
}

func (m *GormDatabase) QueryStagingRecords(filter StagingFilter) ([]*model.StagingRecord, int64, error) {
	var records []*model.StagingRecord
	var total int64

	if err := m.applyStagingFilter(m.db.Model(&model.StagingRecord{}), filter).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query := m.applyStagingFilter(m.db.Model(&model.StagingRecord{}), filter).Order("id ASC")
	if filter.Offset > 0 {
		query = query.Offset(filter.Offset)
	}
	if filter.Limit > 0 {
		query = query.Limit(filter.Limit)
	}
	err := query.Find(&records).Error
	return records, total, err
}

func (m *GormDatabase) ScanStagingRecords(filter StagingFilter, afterID int64, limit int) ([]*model.StagingRecord, error) {
	var records []*model.StagingRecord
	query := m.applyStagingFilter(m.db.Model(&model.StagingRecord{}), filter).Where("id > ?", afterID).Order("id ASC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	err := query.Find(&records).Error
	return records, err
}

func (m *GormDatabase) UpdateStagingRecord(record *model.StagingRecord) error {
	result := m.db.Model(record).Select("*").Omit("id", "session_id", "line_number", "created_at").Updates(record)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (m *GormDatabase) UpdateStagingRecords(records []*model.StagingRecord) error {
	if len(records) == 0 {
		return nil
	}
	return m.db.Transaction(func(tx *gorm.DB) error {
		for _, record := range records {
			if err := tx.Model(record).Select("*").Omit("id", "session_id", "line_number", "created_at").Updates(record).Error; err != nil {
				return errors.Wrapf(err, "update staging record %d", record.ID)
			}
		}
		return nil
	})
}

func (m *GormDatabase) DeleteStagingRecord(id int64) error {
	result := m.db.Delete(&model.StagingRecord{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (m *GormDatabase) DeleteStagingRecordsBySession(sessionID string) (int64, error) {
	result := m.db.Where("session_id = ?", sessionID).Delete(&model.StagingRecord{})
	return result.RowsAffected, result.Error
}

// applyStagingFilter adds scope and filter conditions
func (m *GormDatabase) applyStagingFilter(query *gorm.DB, f StagingFilter) *gorm.DB {
	if f.SessionId != "" {
		query = query.Where("session_id = ?", f.SessionId)
	}
	if f.RunId != "" {
		query = query.Where("session_id IN (?)",
			m.db.Model(&model.UploadSession{}).Select("session_id").Where("run_id = ?", f.RunId))
	}
	if len(f.Statuses) > 0 {
		query = query.Where("status IN ?", f.Statuses)
	}
	if f.NeedsReview != nil {
		query = query.Where("needs_review = ?", *f.NeedsReview)
	}
	if f.ActionType != "" {
		query = query.Where("action_type = ?", f.ActionType)
	}
	if f.IssueType != "" {
		query = m.whereIssueType(query, f.IssueType)
	}
	if term := strings.ToLower(strings.TrimSpace(f.SearchTerm)); term != "" {
		like := "%" + likeEscaper.Replace(term) + "%"
		query = query.Where(
			"LOWER(composite_key) LIKE ? ESCAPE '!' OR LOWER(part_number) LIKE ? ESCAPE '!' OR "+
				"LOWER(vendor_code) LIKE ? ESCAPE '!' OR LOWER(description) LIKE ? ESCAPE '!' OR "+
				m.jsonValueLike("issues", "description")+" OR "+m.jsonValueLike("corrections", "message"),
			like, like, like, like, like, like)
	}
	return query
}

// likeEscaper escapes LIKE wildcards with '!' so search terms match literally
var likeEscaper = strings.NewReplacer("!", "!!", "%", "!%", "_", "!_")

// jsonValueLike matches one text field of the objects in a JSON array column, never the keys
func (m *GormDatabase) jsonValueLike(column, field string) string {
	switch m.dialect {
	case DBTypePostgres:
		return "LOWER(CAST(jsonb_path_query_array(CAST(" + column + " AS jsonb), '$[*]." + field + "') AS TEXT)) LIKE ? ESCAPE '!'"
	case DBTypeMySQL:
		return "LOWER(CAST(JSON_EXTRACT(" + column + ", '$[*]." + field + "') AS CHAR)) LIKE ? ESCAPE '!'"
	default:
		return "EXISTS (SELECT 1 FROM json_each(" + column + ") AS elem WHERE LOWER(json_extract(elem.value, '$." + field + "')) LIKE ? ESCAPE '!')"
	}
}

// whereIssueType matches records carrying an issue of the given type
func (m *GormDatabase) whereIssueType(query *gorm.DB, issueType model.IssueType) *gorm.DB {
	needle, _ := json.Marshal([]map[string]string{{"type": string(issueType)}})
	switch m.dialect {
	case DBTypePostgres:
		return query.Where("issues @> CAST(? AS jsonb)", string(needle))
	case DBTypeMySQL:
		return query.Where("JSON_CONTAINS(issues, ?)", string(needle))
	default:
		return query.Where("issues LIKE ?", `%"type":"`+string(issueType)+`"%`)
	}
}

// InventoryRecord operations

// ReconcileStagingRecord upserts the inventory record for the row's composite key
// and links the row to it in the same transaction
func (m *GormDatabase) ReconcileStagingRecord(ctx context.Context, record *model.StagingRecord) (*model.InventoryRecord, model.ActionType, error) {
	if record.CompositeKey == "" {
		return nil, model.ActionTypeUnknown, ErrInvalidKey
	}

	var inventory model.InventoryRecord
	action := model.ActionTypeUnknown
	now := time.Now()

	err := m.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		lookup := tx.Where("composite_key = ?", record.CompositeKey)
		if m.dialect != DBTypeSQLite {
			lookup = lookup.Clauses(clause.Locking{Strength: "UPDATE"})
		}

		var existing model.InventoryRecord
		err := lookup.First(&existing).Error
		switch {
		case err == nil:
			existing.ApplyFields(record.CompositeKey, record.InventoryFields)
			existing.LastSessionId = record.SessionId
			if err := tx.Save(&existing).Error; err != nil {
				return errors.Wrap(err, "update inventory record")
			}
			inventory = existing
			action = model.ActionTypeUpdate
		case errors.Is(err, gorm.ErrRecordNotFound):
			inventory.ApplyFields(record.CompositeKey, record.InventoryFields)
			inventory.LastSessionId = record.SessionId
			// A concurrent insert of the same key turns into an update
			if err := tx.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "composite_key"}},
				DoUpdates: clause.AssignmentColumns(inventoryColumns),
			}).Create(&inventory).Error; err != nil {
				return errors.Wrap(err, "insert inventory record")
			}
			if err := tx.Where("composite_key = ?", record.CompositeKey).First(&inventory).Error; err != nil {
				return errors.Wrap(err, "reload inventory record")
			}
			action = model.ActionTypeInsert
		default:
			return errors.Wrap(err, "lookup inventory record")
		}

		result := tx.Model(&model.StagingRecord{}).Where("id = ?", record.ID).Updates(map[string]interface{}{
			"status":              model.RecordStatusProcessed,
			"action_type":         action,
			"inventory_record_id": inventory.ID,
			"processed_at":        now,
		})
		if result.Error != nil {
			return errors.Wrap(result.Error, "link staging record")
		}
		if result.RowsAffected == 0 {
			return ErrNotFound
		}
		return nil
	})
	if err != nil {
		return nil, model.ActionTypeUnknown, err
	}

	record.Status = model.RecordStatusProcessed
	record.ActionType = action
	id := inventory.ID
	record.InventoryRecordId = &id
	record.ProcessedAt = &now
	return &inventory, action, nil
}

func (m *GormDatabase) GetInventoryRecord(id int64) (*model.InventoryRecord, error) {
	var record model.InventoryRecord
	err := m.db.First(&record, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &record, nil
}

func (m *GormDatabase) GetInventoryRecordByKey(compositeKey string) (*model.InventoryRecord, error) {
	var record model.InventoryRecord
	err := m.db.Where("composite_key = ?", compositeKey).First(&record).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &record, nil
}

func (m *GormDatabase) CountInventoryRecords() (int64, error) {
	var total int64
	err := m.db.Model(&model.InventoryRecord{}).Count(&total).Error
	return total, err
}

// General operations

func (m *GormDatabase) Close() error {
	sqlDB, err := m.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
