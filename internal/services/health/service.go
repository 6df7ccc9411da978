package health

import (
	"context"
	"database/sql"
	"time"

	"resume-feedback/internal/shared/storage/db"
	"resume-feedback/internal/shared/telemetry"
)

const pingTimeout = 2 * time.Second

// Service reports liveness for the API.
type Service struct {
	DB *sql.DB
}

// NewService constructs a health service. database may be nil when running on
// in-memory repositories.
func NewService(database *sql.DB) *Service {
	return &Service{DB: database}
}

// Status returns the health payload. A failing database ping is logged but the
// process still reports itself alive.
func (s *Service) Status(ctx context.Context) map[string]bool {
	if s != nil && s.DB != nil {
		if err := db.Ping(ctx, s.DB, pingTimeout); err != nil {
			telemetry.Warn("health.db_unreachable", map[string]any{"error": err.Error()})
		}
	}
	return map[string]bool{"ok": true}
}
