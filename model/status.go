package model

// SessionStatus status of one chunk session
type SessionStatus string

const (
	SessionStatusPending    SessionStatus = "pending"    // Carved out, not started
	SessionStatusProcessing SessionStatus = "processing" // Batches being processed
	SessionStatusCompleted  SessionStatus = "completed"  // All rows processed
	SessionStatusFailed     SessionStatus = "failed"     // Chunk-level failure or operator stop
	SessionStatusPaused     SessionStatus = "paused"     // Paused at a batch boundary
)

// IsTerminal reports whether the status ends a chunk
func (s SessionStatus) IsTerminal() bool {
	return s == SessionStatusCompleted || s == SessionStatusFailed
}

// IsResumable reports whether a resume should pick the chunk up again
func (s SessionStatus) IsResumable() bool {
	return s == SessionStatusPaused || s == SessionStatusFailed
}

// RecordStatus validation status of a staging record
type RecordStatus string

const (
	RecordStatusPending   RecordStatus = "pending"
	RecordStatusValid     RecordStatus = "valid"
	RecordStatusInvalid   RecordStatus = "invalid"
	RecordStatusCorrected RecordStatus = "corrected"
	RecordStatusProcessed RecordStatus = "processed"
)

// IsAcceptable reports whether a record may be reconciled
func (s RecordStatus) IsAcceptable() bool {
	return s == RecordStatusValid || s == RecordStatusCorrected
}

// ParseRecordStatus parses a record status, returning false for unknown values
func ParseRecordStatus(s string) (RecordStatus, bool) {
	switch RecordStatus(s) {
	case RecordStatusPending, RecordStatusValid, RecordStatusInvalid, RecordStatusCorrected, RecordStatusProcessed:
		return RecordStatus(s), true
	}
	return "", false
}

// ActionType reconciliation action recorded on a staging record
type ActionType string

const (
	ActionTypeInsert  ActionType = "insert"
	ActionTypeUpdate  ActionType = "update"
	ActionTypeDelete  ActionType = "delete"
	ActionTypeUnknown ActionType = "unknown"
)

// ParseActionType parses an action type, returning false for unknown values
func ParseActionType(s string) (ActionType, bool) {
	switch ActionType(s) {
	case ActionTypeInsert, ActionTypeUpdate, ActionTypeDelete, ActionTypeUnknown:
		return ActionType(s), true
	}
	return "", false
}
