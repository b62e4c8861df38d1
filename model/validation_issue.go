package model

import (
	"fmt"
	"time"
)

// IssueType kind of validation issue
type IssueType string

const (
	IssueTypeMissingField     IssueType = "missing_field"
	IssueTypeInvalidFormat    IssueType = "invalid_format"
	IssueTypeCalculationError IssueType = "calculation_error"
	IssueTypeDuplicate        IssueType = "duplicate"
	IssueTypeOther            IssueType = "other"
)

// ParseIssueType parses an issue type, returning false for unknown values
func ParseIssueType(s string) (IssueType, bool) {
	switch IssueType(s) {
	case IssueTypeMissingField, IssueTypeInvalidFormat, IssueTypeCalculationError, IssueTypeDuplicate, IssueTypeOther:
		return IssueType(s), true
	}
	return "", false
}

// IssueSeverity error issues make a record invalid, warnings only mark it corrected
type IssueSeverity string

const (
	IssueSeverityError   IssueSeverity = "error"
	IssueSeverityWarning IssueSeverity = "warning"
)

// ValidationIssue one structured problem found on a row
type ValidationIssue struct {
	Type         IssueType     `json:"type"`
	Severity     IssueSeverity `json:"severity"`
	Field        string        `json:"field"`
	Description  string        `json:"description"`
	SuggestedFix string        `json:"suggested_fix,omitempty"`
	Value        string        `json:"value,omitempty"`
}

func (i ValidationIssue) String() string {
	return fmt.Sprintf("%s %s on %s: %s", i.Severity, i.Type, i.Field, i.Description)
}

// CorrectionSource who changed a value
type CorrectionSource string

const (
	CorrectionSourceValidator      CorrectionSource = "validator"
	CorrectionSourceMassCorrection CorrectionSource = "mass_correction"
	CorrectionSourceManualEdit     CorrectionSource = "manual_edit"
)

// CorrectionNote records one value change, old -> new
type CorrectionNote struct {
	Field    string           `json:"field"`
	OldValue string           `json:"old_value"`
	NewValue string           `json:"new_value"`
	Source   CorrectionSource `json:"source"`
	Message  string           `json:"message"`
	At       time.Time        `json:"at"`
}

// NewCorrectionNote builds a note with a readable "field: old -> new" message
func NewCorrectionNote(source CorrectionSource, field, oldValue, newValue string, at time.Time) CorrectionNote {
	return CorrectionNote{
		Field:    field,
		OldValue: oldValue,
		NewValue: newValue,
		Source:   source,
		Message:  fmt.Sprintf("%s: %q -> %q", field, oldValue, newValue),
		At:       at,
	}
}
