package models

import "time"

// CanonicalRecord is the cross-referenced view of one tool across sources.
type CanonicalRecord struct {
	Name            string          `json:"name"`
	DisplayName     string          `json:"display_name"`
	Description     string          `json:"description,omitempty"`
	Homepage        string          `json:"homepage,omitempty"`
	Category        string          `json:"category,omitempty"`
	Presence        map[string]bool `json:"presence"`
	PrimaryRank     *int            `json:"primary_rank,omitempty"`
	PrimaryInstalls *int64          `json:"primary_installs,omitempty"`
	Score           int             `json:"score"`
	Sources         []string        `json:"sources"`
}

// In reports whether source contributed to the record.
func (r *CanonicalRecord) In(source string) bool {
	return r.Presence[source]
}

// RankedCandidate is a scored record with its position in a crossref run.
type RankedCandidate struct {
	Rank int `json:"rank"`
	CanonicalRecord
}

// CrossrefOutput is the document written by a crossref run.
type CrossrefOutput struct {
	GeneratedAt   time.Time         `json:"generated_at"`
	RunID         string            `json:"run_id"`
	TotalIndexed  int               `json:"total_indexed"`
	ExistingInCCL int               `json:"existing_in_ccl"`
	SourceErrors  map[string]string `json:"source_errors,omitempty"`
	Packages      []RankedCandidate `json:"packages"`
}
