package database

import (
	"strings"

	"vendor-inventory-import/model"
)

// StagingFilter server-side staging query. SessionId or RunId scopes the query.
type StagingFilter struct {
	SessionId   string
	RunId       string
	Statuses    []model.RecordStatus
	NeedsReview *bool
	ActionType  model.ActionType
	SearchTerm  string
	IssueType   model.IssueType
	Offset      int
	Limit       int
}

// Match reports whether a record passes every non-scope condition
func (f StagingFilter) Match(r *model.StagingRecord) bool {
	if len(f.Statuses) > 0 {
		found := false
		for _, s := range f.Statuses {
			if r.Status == s {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if f.NeedsReview != nil && r.NeedsReview != *f.NeedsReview {
		return false
	}
	if f.ActionType != "" && r.ActionType != f.ActionType {
		return false
	}
	if f.IssueType != "" && !r.HasIssueType(f.IssueType) {
		return false
	}
	if term := strings.ToLower(strings.TrimSpace(f.SearchTerm)); term != "" {
		return searchText(r, term)
	}
	return true
}

func searchText(r *model.StagingRecord, term string) bool {
	candidates := []string{r.CompositeKey, r.PartNumber, r.VendorCode, r.Description}
	for _, issue := range r.Issues {
		candidates = append(candidates, issue.Description)
	}
	for _, note := range r.Corrections {
		candidates = append(candidates, note.Message)
	}
	for _, c := range candidates {
		if strings.Contains(strings.ToLower(c), term) {
			return true
		}
	}
	return false
}
