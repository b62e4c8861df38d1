package import_service

import (
	"errors"
	"fmt"
)

var (
	ErrUnsupportedContentType = errors.New("only CSV files are accepted")
	ErrEmptyFile              = errors.New("file contains no data rows")
	ErrFileTooLarge           = errors.New("file exceeds the maximum upload size")
	ErrStopped                = errors.New("stopped by operator")
	ErrPaused                 = errors.New("import paused")
	ErrRunNotFound            = errors.New("import run not found")
	ErrRunActive              = errors.New("import run is already active")
	ErrRunNotActive           = errors.New("import run is not active")
	ErrRunCompleted           = errors.New("import run is already completed")
	ErrArchiveMissing         = errors.New("raw file is no longer archived")
	ErrSourceExhausted        = errors.New("source file ended before the chunk was complete")
	ErrNotReconcilable        = errors.New("record is not valid or corrected")
	ErrRequiredFieldEmpty     = errors.New("required field cannot be empty")
	ErrMassCorrectionBusy     = errors.New("a mass correction is already running for this session")
	ErrUnknownCorrection      = errors.New("unknown correction type")
	ErrNoTargets              = errors.New("no target records selected")
	ErrInvalidFilter          = errors.New("invalid filter value")
)

// FileError malformed source file
type FileError struct {
	Line int
	Err  error
}

func (e *FileError) Error() string {
	return fmt.Sprintf("malformed CSV at line %d: %v", e.Line, e.Err)
}

func (e *FileError) Unwrap() error { return e.Err }

// ChunkError chunk-level failure that halts the scheduler
type ChunkError struct {
	SessionId   string
	ChunkNumber int
	Err         error
}

func (e *ChunkError) Error() string {
	return fmt.Sprintf("chunk %d (session %s) failed: %v", e.ChunkNumber, e.SessionId, e.Err)
}

func (e *ChunkError) Unwrap() error { return e.Err }

// RowError failure confined to one row
type RowError struct {
	RowNumber int
	Field     string
	Value     string
	Err       error
}

func (e *RowError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("row %d: %v", e.RowNumber, e.Err)
	}
	return fmt.Sprintf("row %d: field %s (value %q): %v", e.RowNumber, e.Field, e.Value, e.Err)
}

func (e *RowError) Unwrap() error { return e.Err }
