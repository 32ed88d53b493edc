package library

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// CheckHealth pings the database and counts rows.
func (s *Store) CheckHealth(ctx context.Context) (Health, error) {
	health := Health{Driver: s.driver, Target: s.target}
	if s.db == nil {
		return health, errors.New("library database connection unavailable")
	}

	connCtx, cancel := context.WithTimeout(ensureContext(ctx), 2*time.Second)
	defer cancel()

	if err := s.db.PingContext(connCtx); err != nil {
		health.Error = err.Error()
		return health, fmt.Errorf("ping library database: %w", err)
	}
	health.Reachable = true

	if err := s.db.QueryRowContext(connCtx, "SELECT version FROM schema_version LIMIT 1").Scan(&health.SchemaVersion); err != nil {
		health.Error = err.Error()
		return health, fmt.Errorf("read schema version: %w", err)
	}
	if err := s.db.QueryRowContext(connCtx, "SELECT COUNT(1) FROM videos").Scan(&health.Videos); err != nil {
		health.Error = err.Error()
		return health, fmt.Errorf("count videos: %w", err)
	}
	if err := s.db.QueryRowContext(connCtx, "SELECT COUNT(1) FROM drafts").Scan(&health.Drafts); err != nil {
		health.Error = err.Error()
		return health, fmt.Errorf("count drafts: %w", err)
	}
	return health, nil
}
