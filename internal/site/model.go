// internal/site/model.go
//
// The site record: the durable local representation of one customer
// website, spanning business brief, claimed subdomain, design, structure,
// and lifecycle status.
//
// Context
// -------
// Exactly one record exists per (account, upstream website ID) pair; the
// `sites` table enforces that with a unique index on tenweb_website_id so
// the reconciler's check-then-act window cannot mint duplicates.  Design
// fields are stored as jsonb; the small wrapper types below implement
// driver.Valuer / sql.Scanner so sqlx round-trips them without reflection
// tricks.

package site

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// Colors is the validated palette.  Values are 6-digit hex with a leading
// “#”; the design-update step rejects anything else before it gets here.
type Colors struct {
	Primary    string `json:"primary"`
	Secondary  string `json:"secondary"`
	Background string `json:"background"`
}

// Fonts is the heading/body font selection.
type Fonts struct {
	Heading string `json:"heading"`
	Body    string `json:"body"`
}

// Section is one section of a page in the local page tree.
type Section struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

// PageMeta is one page in the local page tree.
type PageMeta struct {
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Sections    []Section `json:"sections"`
}

// PagesMeta is the page/section tree describing site structure.
type PagesMeta []PageMeta

// Record mirrors one row in the persistent `sites` table.
type Record struct {
	ID           string `db:"id"`                // locally generated UUID
	TenWebID     *int64 `db:"tenweb_website_id"` // nil until creation succeeds
	BusinessName string `db:"business_name"`
	BusinessType string `db:"business_type"`
	BusinessDesc string `db:"business_description"`
	Subdomain    string `db:"subdomain"`

	Colors    Colors    `db:"colors"`
	Fonts     Fonts     `db:"fonts"`
	PagesMeta PagesMeta `db:"pages_meta"`

	SeoTitle       string `db:"seo_title"`
	SeoDescription string `db:"seo_description"`
	SeoKeyphrase   string `db:"seo_keyphrase"`
	WebsiteType    string `db:"website_type"`

	Status   Status `db:"status"`
	SiteURL  string `db:"site_url"`
	UniqueID string `db:"unique_id"` // opaque token from full generation

	// Payload keeps the last full request sent upstream, for audit and
	// debugging of generation mismatches.
	Payload json.RawMessage `db:"payload"`

	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

/*──────────────────────────── jsonb plumbing ───────────────────────────────*/

func jsonbValue(v any) (driver.Value, error) { return json.Marshal(v) }

func jsonbScan(dst any, src any) error {
	switch b := src.(type) {
	case nil:
		return nil
	case []byte:
		if len(b) == 0 {
			return nil
		}
		return json.Unmarshal(b, dst)
	case string:
		if b == "" {
			return nil
		}
		return json.Unmarshal([]byte(b), dst)
	default:
		return fmt.Errorf("site: cannot scan %T into %T", src, dst)
	}
}

func (c Colors) Value() (driver.Value, error) { return jsonbValue(c) }
func (c *Colors) Scan(src any) error          { return jsonbScan(c, src) }

func (f Fonts) Value() (driver.Value, error) { return jsonbValue(f) }
func (f *Fonts) Scan(src any) error          { return jsonbScan(f, src) }

func (p PagesMeta) Value() (driver.Value, error) { return jsonbValue(p) }
func (p *PagesMeta) Scan(src any) error          { return jsonbScan(p, src) }
