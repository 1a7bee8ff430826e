package index

import (
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/starford/climap/internal/checksum"
	"github.com/starford/climap/internal/models"
	"github.com/starford/climap/internal/storage"
)

// Import loads a crossref output file from store and saves it as a run unless
// that run is already stored. Files written without a run id get one derived
// from their content, so importing the same file twice is a no-op.
// It returns the run id and whether the run was added.
func Import(db CandidateStore, store storage.Provider, path string, logger *slog.Logger) (string, bool, error) {
	data, err := store.Read(path)
	if err != nil {
		return "", false, err
	}
	var out models.CrossrefOutput
	if err := json.Unmarshal(data, &out); err != nil {
		return "", false, fmt.Errorf("index: import %s: %w", path, err)
	}
	if out.RunID == "" {
		out.RunID = uuid.NewSHA1(uuid.NameSpaceURL, []byte("climap:"+checksum.Sum(data))).String()
	}

	exists, err := db.HasRun(out.RunID)
	if err != nil {
		return "", false, err
	}
	if exists {
		logger.Debug("import: run already stored", slog.String("run_id", out.RunID))
		return out.RunID, false, nil
	}
	if err := db.SaveRun(out); err != nil {
		return "", false, err
	}
	logger.Info("import: run stored",
		slog.String("run_id", out.RunID),
		slog.Int("candidates", len(out.Packages)),
	)
	return out.RunID, true, nil
}
