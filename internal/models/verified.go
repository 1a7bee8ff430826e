package models

// VerifiedPackage is a candidate whose availability was confirmed per source.
// VerifiedSources maps a source id to the package name used by that source.
type VerifiedPackage struct {
	Name            string            `json:"name"`
	DisplayName     string            `json:"display_name,omitempty"`
	Score           int               `json:"score,omitempty"`
	Description     string            `json:"description,omitempty"`
	VerifiedSources map[string]string `json:"verified_sources"`
	NotFoundIn      []string          `json:"not_found_in,omitempty"`
}

// VerifiedOutput is the verification file consumed by merge.
type VerifiedOutput struct {
	GeneratedAt   string            `json:"generated_at,omitempty"`
	TotalVerified int               `json:"total_verified"`
	Packages      []VerifiedPackage `json:"packages"`
}
