package index

import "github.com/starford/climap/internal/models"

// CandidateStore defines the operations on the crossref history.
// Consumers should depend on this interface rather than the concrete *DB type
// to facilitate testing with fakes.
type CandidateStore interface {
	SaveRun(out models.CrossrefOutput) error
	HasRun(id string) (bool, error)
	LatestRun() (*RunRow, error)
	Runs(limit int) ([]RunRow, error)
	Candidates(runID string, limit, offset int) ([]models.RankedCandidate, error)
	Candidate(name string) (*models.RankedCandidate, error)
	SearchCandidates(query string, limit int) ([]models.RankedCandidate, error)
	Close() error
}

// Verify *DB satisfies CandidateStore at compile time.
var _ CandidateStore = (*DB)(nil)
