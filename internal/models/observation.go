// Package models defines the interchange records passed between pipeline stages.
package models

// Observation is one package as reported by a single source adapter.
// Adapters produce observations; nothing downstream mutates them. CollectedAt
// is kept as written by the adapter (RFC 3339 or a plain date).
type Observation struct {
	Name           string `json:"name"`
	DisplayName    string `json:"display_name,omitempty"`
	Source         string `json:"source"`
	SourceID       string `json:"source_id"`
	Popularity     *int64 `json:"popularity,omitempty"`
	PopularityRank *int   `json:"popularity_rank,omitempty"`
	Description    string `json:"description,omitempty"`
	Homepage       string `json:"homepage,omitempty"`
	GitURL         string `json:"git_url,omitempty"`
	Category       string `json:"category,omitempty"`
	CollectedAt    string `json:"collected_at,omitempty"`
}

// CollectionResult is the file an adapter writes for one source.
type CollectionResult struct {
	Source      string        `json:"source"`
	CollectedAt string        `json:"collected_at,omitempty"`
	Packages    []Observation `json:"packages"`
	Errors      []string      `json:"errors,omitempty"`
}
