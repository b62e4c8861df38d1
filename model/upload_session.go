package model

import "time"

// UploadSession one chunk of an uploaded inventory file
type UploadSession struct {
	ID int64 `gorm:"primaryKey;autoIncrement" json:"id"`

	// Identifiers
	SessionId string `gorm:"uniqueIndex;type:varchar(64)" json:"session_id"` // Unique chunk session ID
	RunId     string `gorm:"index;type:varchar(64)" json:"run_id"`           // Shared by every chunk of one upload

	// Source file info
	OriginalFilename string `gorm:"type:varchar(255)" json:"original_filename"`
	ArchiveKey       string `gorm:"type:varchar(500)" json:"archive_key"` // Storage key of the raw file, empty once purged
	FileSize         int64  `json:"file_size"`
	ChunkNumber      int    `gorm:"type:int" json:"chunk_number"`       // 1-based
	TotalChunks      int    `gorm:"type:int" json:"total_chunks"`       // Chunks in the run
	FirstOrdinal     int    `gorm:"type:int" json:"first_ordinal"`      // 0-based index of the first data row of this chunk
	StageOnly        bool   `gorm:"default:false" json:"stage_only"`    // Skip reconciliation while importing

	// Status & counters
	Status           SessionStatus `gorm:"type:varchar(20);default:'pending';index" json:"status"`
	TotalRecords     int           `gorm:"type:int;default:0" json:"total_records"`
	ProcessedRecords int           `gorm:"type:int;default:0" json:"processed_records"`
	ValidRecords     int           `gorm:"type:int;default:0" json:"valid_records"`
	InvalidRecords   int           `gorm:"type:int;default:0" json:"invalid_records"`
	CorrectedRecords int           `gorm:"type:int;default:0" json:"corrected_records"`
	InsertedRecords  int           `gorm:"type:int;default:0" json:"inserted_records"`
	UpdatedRecords   int           `gorm:"type:int;default:0" json:"updated_records"`
	FailedRecords    int           `gorm:"type:int;default:0" json:"failed_records"`
	ErrorMessage     string        `gorm:"type:text" json:"error_message"`

	// Timestamps
	CreatedAt   time.Time  `gorm:"autoCreateTime;index" json:"created_at"`
	UpdatedAt   time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
	StartedAt   *time.Time `json:"started_at"`
	CompletedAt *time.Time `json:"completed_at"`
}

// TableName sets custom table name
func (UploadSession) TableName() string {
	return "tb_upload_session"
}

// NextOrdinal 0-based file index of the next row to process
func (s *UploadSession) NextOrdinal() int {
	return s.FirstOrdinal + s.ProcessedRecords
}

// Remaining rows not yet processed in this chunk
func (s *UploadSession) Remaining() int {
	if s.ProcessedRecords >= s.TotalRecords {
		return 0
	}
	return s.TotalRecords - s.ProcessedRecords
}

// Apply adds counter deltas in memory
func (s *UploadSession) Apply(d SessionCounters) {
	s.ProcessedRecords += d.Processed
	s.ValidRecords += d.Valid
	s.InvalidRecords += d.Invalid
	s.CorrectedRecords += d.Corrected
	s.InsertedRecords += d.Inserted
	s.UpdatedRecords += d.Updated
	s.FailedRecords += d.Failed
}

// SessionCounters counter deltas applied to a session in one write
type SessionCounters struct {
	Processed int `json:"processed"`
	Valid     int `json:"valid"`
	Invalid   int `json:"invalid"`
	Corrected int `json:"corrected"`
	Inserted  int `json:"inserted"`
	Updated   int `json:"updated"`
	Failed    int `json:"failed"`
}

// IsZero reports whether the delta changes nothing
func (c SessionCounters) IsZero() bool {
	return c == SessionCounters{}
}

// Add sums two deltas
func (c SessionCounters) Add(o SessionCounters) SessionCounters {
	return SessionCounters{
		Processed: c.Processed + o.Processed,
		Valid:     c.Valid + o.Valid,
		Invalid:   c.Invalid + o.Invalid,
		Corrected: c.Corrected + o.Corrected,
		Inserted:  c.Inserted + o.Inserted,
		Updated:   c.Updated + o.Updated,
		Failed:    c.Failed + o.Failed,
	}
}
