package import_service

import (
	"fmt"
	"sync"
	"time"

	"vendor-inventory-import/conf"
	"vendor-inventory-import/database"
	"vendor-inventory-import/model"
	"vendor-inventory-import/service/common_service/fieldmap"

	"github.com/sirupsen/logrus"
)

// CorrectionType bulk transform applied by mass correction
type CorrectionType string

const (
	CorrectionStripFormula       CorrectionType = "strip_formula"
	CorrectionRecomputeKey       CorrectionType = "recompute_key"
	CorrectionRecomputeAggregate CorrectionType = "recompute_aggregate"
)

const massCorrectionPageSize = 500

// ParseCorrectionType parses a correction type
func ParseCorrectionType(s string) (CorrectionType, error) {
	switch CorrectionType(s) {
	case CorrectionStripFormula, CorrectionRecomputeKey, CorrectionRecomputeAggregate:
		return CorrectionType(s), nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownCorrection, s)
}

// MassCorrectionRequest transform over explicit rows or a whole session
type MassCorrectionRequest struct {
	Type         CorrectionType
	TargetIds    []int64 // Rows of the session; ignored when AllInSession is set
	AllInSession bool
}

// MassCorrectionResult rows examined and changed
type MassCorrectionResult struct {
	Type       CorrectionType `json:"type"`
	Examined   int            `json:"examined"`
	Changed    int            `json:"changed"`
	Unchanged  int            `json:"unchanged"`
	ChangedIds []int64        `json:"changedIds"`
}

// MassCorrectionService applies bulk transforms to staging rows without re-validating them
type MassCorrectionService struct {
	db  database.Database
	now func() time.Time

	mu   sync.Mutex
	busy map[string]bool
}

// NewMassCorrectionService create mass correction service instance
func NewMassCorrectionService(db database.Database) *MassCorrectionService {
	return &MassCorrectionService{db: db, now: time.Now, busy: make(map[string]bool)}
}

func (s *MassCorrectionService) acquire(sessionID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.busy[sessionID] {
		return false
	}
	s.busy[sessionID] = true
	return true
}

func (s *MassCorrectionService) release(sessionID string) {
	s.mu.Lock()
	delete(s.busy, sessionID)
	s.mu.Unlock()
}

// Apply runs one transform. Overlapping invocations on the same session are rejected.
func (s *MassCorrectionService) Apply(sessionID string, req MassCorrectionRequest) (*MassCorrectionResult, error) {
	transform, err := transformFor(req.Type)
	if err != nil {
		return nil, err
	}
	if !req.AllInSession && len(req.TargetIds) == 0 {
		return nil, ErrNoTargets
	}
	if _, err := s.db.GetUploadSession(sessionID); err != nil {
		return nil, err
	}
	if !s.acquire(sessionID) {
		return nil, ErrMassCorrectionBusy
	}
	defer s.release(sessionID)

	result := &MassCorrectionResult{Type: req.Type, ChangedIds: []int64{}}
	at := s.now()

	apply := func(records []*model.StagingRecord) error {
		changed := make([]*model.StagingRecord, 0)
		for _, rec := range records {
			result.Examined++
			if !transform(rec, at) {
				result.Unchanged++
				continue
			}
			// Rows still missing a required field stay invalid
			if rec.VendorCode != "" && rec.PartNumber != "" {
				rec.Status = model.RecordStatusCorrected
				rec.NeedsReview = false
			}
			changed = append(changed, rec)
			result.ChangedIds = append(result.ChangedIds, rec.ID)
		}
		if len(changed) == 0 {
			return nil
		}
		if err := s.db.UpdateStagingRecords(changed); err != nil {
			return err
		}
		result.Changed += len(changed)
		massCorrectedRows.WithLabelValues(string(req.Type)).Add(float64(len(changed)))
		return nil
	}

	if req.AllInSession {
		filter := database.StagingFilter{SessionId: sessionID}
		var afterID int64
		for {
			page, err := s.db.ScanStagingRecords(filter, afterID, massCorrectionPageSize)
			if err != nil {
				return result, err
			}
			if len(page) == 0 {
				break
			}
			afterID = page[len(page)-1].ID
			if err := apply(page); err != nil {
				return result, err
			}
			if len(page) < massCorrectionPageSize {
				break
			}
		}
	} else {
		records, err := s.db.GetStagingRecordsByIDs(req.TargetIds)
		if err != nil {
			return nil, err
		}
		scoped := make([]*model.StagingRecord, 0, len(records))
		for _, rec := range records {
			if rec.SessionId == sessionID {
				scoped = append(scoped, rec)
			}
		}
		if err := apply(scoped); err != nil {
			return result, err
		}
	}

	conf.Log.WithFields(logrus.Fields{
		"module":    "import_service",
		"sessionId": sessionID,
		"type":      req.Type,
		"examined":  result.Examined,
		"changed":   result.Changed,
	}).Info("Mass correction applied")
	return result, nil
}

type transformFunc func(rec *model.StagingRecord, at time.Time) bool

func transformFor(t CorrectionType) (transformFunc, error) {
	switch t {
	case CorrectionStripFormula:
		return stripFormulaTransform, nil
	case CorrectionRecomputeKey:
		return func(rec *model.StagingRecord, at time.Time) bool {
			return recomputeKey(rec, model.CorrectionSourceMassCorrection, at)
		}, nil
	case CorrectionRecomputeAggregate:
		return func(rec *model.StagingRecord, at time.Time) bool {
			return recomputeAggregate(rec, model.CorrectionSourceMassCorrection, at)
		}, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownCorrection, t)
}

// stripFormulaTransform removes formula wrapping from text fields and re-derives the key
func stripFormulaTransform(rec *model.StagingRecord, at time.Time) bool {
	changed := false
	strip := func(field string, v *string) bool {
		cleaned := fieldmap.StripFormula(*v)
		if cleaned == *v {
			return false
		}
		rec.AddCorrection(model.NewCorrectionNote(model.CorrectionSourceMassCorrection, field, *v, cleaned, at))
		*v = cleaned
		changed = true
		return true
	}

	keyInputs := strip(fieldmap.FieldVendorCode, &rec.VendorCode)
	keyInputs = strip(fieldmap.FieldPartNumber, &rec.PartNumber) || keyInputs
	strip(fieldmap.FieldName, &rec.Name)
	strip(fieldmap.FieldDescription, &rec.Description)
	strip(fieldmap.FieldUpc, &rec.Upc)
	strip(fieldmap.FieldKitComponents, &rec.KitComponents)

	if keyInputs && rec.VendorCode != "" && rec.PartNumber != "" {
		recomputeKey(rec, model.CorrectionSourceMassCorrection, at)
	}
	return changed
}
