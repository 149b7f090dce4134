// internal/site/store.go
//
// Site-table persistence helpers.
//
// Context
// -------
// Each pipeline step persists exactly the subset of columns it owns, so a
// crash between “upstream call succeeded” and “local persist” never leaves
// a half-written row, only a stale one that the next re-trigger of the
// step overwrites.  The unique index on tenweb_website_id turns the
// reconciler's link race into a detectable 23505 instead of a duplicate
// row.
//
// Workflow
// --------
//  1. Callers supply a *sqlx.DB connected to the product database.
//  2. Each helper executes one parameterised statement.
//  3. sql.ErrNoRows is folded into ErrNotFound; Postgres unique-violation
//     into ErrDuplicateUpstreamID.  Everything else returns verbatim so the
//     caller can wrap or log it with the project logger.
//
// Notes
// -----
//   - Column list matches the fields in `Record`; update both together.
//   - Status writes go through UpdateStatus, which loads the current value
//     and consults the transition table first.

package site

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

// ErrNotFound is returned when no site row matches the lookup.
var ErrNotFound = errors.New("site not found")

// ErrDuplicateUpstreamID is returned when an insert or link would attach a
// second local record to the same upstream website.
var ErrDuplicateUpstreamID = errors.New("site already linked to upstream website")

const columns = `
        id, tenweb_website_id, business_name, business_type,
        business_description, subdomain, colors, fonts, pages_meta,
        seo_title, seo_description, seo_keyphrase, website_type,
        status, site_url, unique_id, payload, created_at, updated_at`

// Store wraps the sites and site_events tables.
type Store struct {
	db *sqlx.DB
}

// NewStore returns a Store over db.
func NewStore(db *sqlx.DB) *Store { return &Store{db: db} }

// Insert persists a freshly created site.  A zero rec.ID is assigned a new
// UUID; rec.Status defaults to created.  The inserted record is returned.
func (s *Store) Insert(ctx context.Context, rec Record) (*Record, error) {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.Status == "" {
		rec.Status = StatusCreated
	}
	now := time.Now().UTC()
	rec.CreatedAt, rec.UpdatedAt = now, now

	const q = `
        INSERT INTO sites (` + columns + `)
        VALUES (:id, :tenweb_website_id, :business_name, :business_type,
                :business_description, :subdomain, :colors, :fonts,
                :pages_meta, :seo_title, :seo_description, :seo_keyphrase,
                :website_type, :status, :site_url, :unique_id, :payload,
                :created_at, :updated_at)`
	if _, err := s.db.NamedExecContext(ctx, q, rec); err != nil {
		return nil, mapUnique(err)
	}
	return &rec, nil
}

// ByID fetches one site row.
func (s *Store) ByID(ctx context.Context, id string) (*Record, error) {
	const q = `SELECT ` + columns + ` FROM sites WHERE id = $1 LIMIT 1`
	var rec Record
	if err := s.db.GetContext(ctx, &rec, q, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &rec, nil
}

// ByTenWebID fetches the site linked to one upstream website.
func (s *Store) ByTenWebID(ctx context.Context, tenwebID int64) (*Record, error) {
	const q = `SELECT ` + columns + ` FROM sites WHERE tenweb_website_id = $1 LIMIT 1`
	var rec Record
	if err := s.db.GetContext(ctx, &rec, q, tenwebID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &rec, nil
}

// UpdateSitemap persists the fields owned by the sitemap-generation step.
func (s *Store) UpdateSitemap(ctx context.Context, id string, pages PagesMeta, colors Colors, fonts Fonts,
	seoTitle, seoDescription, seoKeyphrase, websiteType string) error {
	const q = `
        UPDATE sites
        SET    pages_meta = $2, colors = $3, fonts = $4, seo_title = $5,
               seo_description = $6, seo_keyphrase = $7, website_type = $8,
               updated_at = $9
        WHERE  id = $1`
	return s.exec(ctx, q, id, pages, colors, fonts,
		seoTitle, seoDescription, seoKeyphrase, websiteType, time.Now().UTC())
}

// UpdateDesign persists the fields owned by the design-update step.
func (s *Store) UpdateDesign(ctx context.Context, id string, pages PagesMeta, colors Colors, fonts Fonts) error {
	const q = `
        UPDATE sites
        SET    pages_meta = $2, colors = $3, fonts = $4, updated_at = $5
        WHERE  id = $1`
	return s.exec(ctx, q, id, pages, colors, fonts, time.Now().UTC())
}

// UpdateGenerated persists the outcome of full generation: the live URL,
// the upstream's opaque unique_id, the audited payload, and the status
// flip to generated.  All in one statement, so a site can never read as
// generated with an empty site_url.
func (s *Store) UpdateGenerated(ctx context.Context, id, siteURL, uniqueID string, payload json.RawMessage) error {
	rec, err := s.ByID(ctx, id)
	if err != nil {
		return err
	}
	if !rec.Status.CanTransition(StatusGenerated) {
		return &ErrBadTransition{From: rec.Status, To: StatusGenerated}
	}
	const q = `
        UPDATE sites
        SET    site_url = $2, unique_id = $3, payload = $4, status = $5, updated_at = $6
        WHERE  id = $1`
	return s.exec(ctx, q, id, siteURL, uniqueID, payload, StatusGenerated, time.Now().UTC())
}

// UpdateStatus moves the site to next after consulting the transition
// table.  Illegal moves return *ErrBadTransition and write nothing.
func (s *Store) UpdateStatus(ctx context.Context, id string, next Status) error {
	rec, err := s.ByID(ctx, id)
	if err != nil {
		return err
	}
	if !rec.Status.CanTransition(next) {
		return &ErrBadTransition{From: rec.Status, To: next}
	}
	const q = `UPDATE sites SET status = $2, updated_at = $3 WHERE id = $1`
	return s.exec(ctx, q, id, next, time.Now().UTC())
}

// LinkUpstream attaches an upstream website ID and its URL to an existing
// local record.  The unique index makes a duplicate link detectable.
func (s *Store) LinkUpstream(ctx context.Context, id string, tenwebID int64, siteURL string) error {
	const q = `
        UPDATE sites
        SET    tenweb_website_id = $2, site_url = $3, updated_at = $4
        WHERE  id = $1`
	if err := s.exec(ctx, q, id, tenwebID, siteURL, time.Now().UTC()); err != nil {
		return mapUnique(err)
	}
	return nil
}

/*──────────────────────────── helpers ─────────────────────────────────────*/

func (s *Store) exec(ctx context.Context, q string, args ...any) error {
	res, err := s.db.ExecContext(ctx, q, args...)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

// mapUnique folds the Postgres unique-violation class (23505) into the
// package sentinel.
func mapUnique(err error) error {
	var pqe *pq.Error
	if errors.As(err, &pqe) && pqe.Code == "23505" {
		return ErrDuplicateUpstreamID
	}
	return err
}
