package api

import (
	"github.com/starford/climap/internal/ccl"
	"github.com/starford/climap/internal/merge"
	"github.com/starford/climap/internal/models"
	"github.com/starford/climap/internal/validate"
)

// Directive is one line of a nested per-source block.
type Directive struct {
	Key   string `json:"key" example:"name" validate:"required"`
	Value string `json:"value" example:"fd-find"`
}

// Package is a package database entry.
type Package struct {
	Name      string                 `json:"name" example:"fd" validate:"required"`
	Sources   []string               `json:"sources" example:"brew,scoop" validate:"required"`
	Overrides map[string]string      `json:"overrides,omitempty"`
	Complex   map[string][]Directive `json:"complex,omitempty"`
	CCL       string                 `json:"ccl,omitempty" example:"fd =\n  = brew\n"`
}

func packageFromEntry(e *ccl.PackageEntry, withText bool) Package {
	p := Package{
		Name:    e.Name,
		Sources: e.Sources,
	}
	if p.Sources == nil {
		p.Sources = []string{}
	}
	if len(e.Overrides) > 0 {
		p.Overrides = e.Overrides
	}
	if len(e.Complex) > 0 {
		p.Complex = make(map[string][]Directive, len(e.Complex))
		for src, block := range e.Complex {
			ds := make([]Directive, 0, len(block))
			for _, d := range block {
				ds = append(ds, Directive{Key: d.Key, Value: d.Value})
			}
			p.Complex[src] = ds
		}
	}
	if withText {
		p.CCL = ccl.SerializeEntry(e)
	}
	return p
}

// PackageListResponse wraps paginated package listings.
type PackageListResponse struct {
	Packages []Package `json:"packages" validate:"required"`
	Total    int       `json:"total" example:"42" validate:"required"`
}

// ValidationResponse is the validation report of the package database.
type ValidationResponse struct {
	Status string           `json:"status" example:"PASSED" validate:"required"`
	Issues []validate.Issue `json:"issues" validate:"required"`
	Stats  validate.Stats   `json:"stats" validate:"required"`
}

// CandidatesResponse wraps ranked candidates of the latest crossref run.
type CandidatesResponse struct {
	Candidates []models.RankedCandidate `json:"candidates" validate:"required"`
}

// CrossrefRequest is the request body for a crossref run.
type CrossrefRequest struct {
	Limit           int  `json:"limit" example:"200"`
	IncludeExisting bool `json:"include_existing"`
	// Write replaces the crossref output file with the result.
	Write bool `json:"write"`
	// Record stores the result in the candidate index.
	Record bool `json:"record"`
}

// MergeRequest is the request body for a merge.
type MergeRequest struct {
	Packages   []models.VerifiedPackage `json:"packages" validate:"required"`
	MinSources int                      `json:"min_sources" example:"1"`
	Mode       string                   `json:"mode" example:"preview" enums:"preview,dry-run,write,append"`
}

// MergeStats mirrors merge.Stats.
type MergeStats struct {
	Added     int      `json:"added"`
	Updated   int      `json:"updated"`
	Unchanged int      `json:"unchanged"`
	Skipped   int      `json:"skipped"`
	Rejected  int      `json:"rejected"`
	NewNames  []string `json:"new_names"`
}

func mergeStats(st merge.Stats) MergeStats {
	names := st.NewNames
	if names == nil {
		names = []string{}
	}
	return MergeStats{
		Added:     st.Added,
		Updated:   st.Updated,
		Unchanged: st.Unchanged,
		Skipped:   st.Skipped,
		Rejected:  st.Rejected,
		NewNames:  names,
	}
}

// MergeResponse describes a completed merge.
type MergeResponse struct {
	Mode    string     `json:"mode" example:"preview"`
	Stats   MergeStats `json:"stats"`
	Written bool       `json:"written"`
	Text    string     `json:"text,omitempty"`
}
