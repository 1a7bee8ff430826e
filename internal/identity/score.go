package identity

import (
	"sort"

	"github.com/starford/climap/internal/models"
)

const (
	rankCeiling     = 501
	multiSourceTwo  = 50
	multiSourceMany = 100
)

// CuratedWeight is the score contributed by presence in one curated source.
type CuratedWeight struct {
	Source string
	Weight int
}

// Scorer computes popularity scores from a record's fields alone.
type Scorer struct {
	weights []CuratedWeight
}

// NewScorer creates a scorer with the given curated-source weights.
func NewScorer(weights []CuratedWeight) *Scorer {
	return &Scorer{weights: weights}
}

// Score returns rank term + curated weights + multi-source bonus for rec.
// It reads rec only and may be called any number of times.
func (s *Scorer) Score(rec *models.CanonicalRecord) int {
	score := 0
	if rec.PrimaryRank != nil && *rec.PrimaryRank > 0 {
		score += max(0, rankCeiling-*rec.PrimaryRank)
	}
	for _, w := range s.weights {
		if rec.Presence[w.Source] {
			score += w.Weight
		}
	}
	switch n := distinct(rec.Sources); {
	case n >= 3:
		score += multiSourceMany
	case n == 2:
		score += multiSourceTwo
	}
	return score
}

// RankOptions controls candidate selection in Rank.
type RankOptions struct {
	// Existing holds normalized names already in the package database.
	Existing        map[string]struct{}
	IncludeExisting bool
	// Limit caps the result length; 0 keeps every candidate.
	Limit int
}

// Rank scores every record in ix, orders them by score (then name) and
// returns the selected candidates with 1-based ranks.
func (s *Scorer) Rank(ix *Index, opts RankOptions) []models.RankedCandidate {
	recs := ix.Records()
	for _, r := range recs {
		r.Score = s.Score(r)
	}
	sort.SliceStable(recs, func(i, j int) bool {
		if recs[i].Score != recs[j].Score {
			return recs[i].Score > recs[j].Score
		}
		return recs[i].Name < recs[j].Name
	})

	out := make([]models.RankedCandidate, 0, len(recs))
	for _, r := range recs {
		if !opts.IncludeExisting {
			if _, ok := opts.Existing[r.Name]; ok {
				continue
			}
		}
		if opts.Limit > 0 && len(out) >= opts.Limit {
			break
		}
		out = append(out, models.RankedCandidate{Rank: len(out) + 1, CanonicalRecord: *r})
	}
	return out
}

func distinct(sources []string) int {
	seen := make(map[string]struct{}, len(sources))
	for _, s := range sources {
		seen[s] = struct{}{}
	}
	return len(seen)
}
