package validate

import (
	"context"
	"log/slog"
	"os"

	"github.com/starford/climap/internal/watcher"
)

// ReportCallback receives the report produced for path.
type ReportCallback func(path string, r *Report)

// Watch validates the file at path once, then again after every change,
// until ctx is cancelled.
func Watch(ctx context.Context, path string, v *Validator, logger *slog.Logger, cb ReportCallback) error {
	return watcher.Watch(ctx, path, logger, watcher.Options{Initial: true}, func() {
		data, err := os.ReadFile(path)
		if err != nil {
			logger.Warn("validate: read failed", slog.String("path", path), slog.String("error", err.Error()))
			return
		}
		r := v.Validate(string(data))
		logger.Debug("validate: checked",
			slog.String("path", path),
			slog.String("status", r.Status()),
			slog.Int("issues", len(r.Issues)),
		)
		if cb != nil {
			cb(path, r)
		}
	})
}
