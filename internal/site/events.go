// internal/site/events.go
//
// Append-only audit log.  Every workflow and pipeline step records what it
// did against which site, so failures can be diagnosed without reproducing
// the run.  Append never fails the caller; a dead audit insert is logged
// and swallowed because the step itself already succeeded upstream.

package site

import (
	"context"
	"encoding/json"

	"go.uber.org/zap"
)

// Append writes one audit event.  detail is marshalled to jsonb; pass nil
// for event types with no payload.
func (s *Store) Append(ctx context.Context, siteID, action string, detail any) {
	var raw []byte
	if detail != nil {
		var err error
		raw, err = json.Marshal(detail)
		if err != nil {
			zap.S().Errorw("audit detail marshal failed", "site_id", siteID, "action", action, "err", err)
			raw = nil
		}
	}
	const q = `
        INSERT INTO site_events (site_id, action, detail, created_at)
        VALUES ($1, $2, $3, now())`
	if _, err := s.db.ExecContext(ctx, q, siteID, action, raw); err != nil {
		zap.S().Errorw("audit append failed", "site_id", siteID, "action", action, "err", err)
	}
}
