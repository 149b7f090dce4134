// internal/site/store_test.go
//
// Unit-tests for site.Store helpers using sqlmock.
//
// Run: go test ./internal/site -v

package site

import (
	"context"
	"encoding/json"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

func newMockStore(t *testing.T) (*Store, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return NewStore(sqlx.NewDb(db, "sqlmock")), mock
}

func siteRows(rec Record) *sqlmock.Rows {
	colsJSON, _ := json.Marshal(rec.Colors)
	fontsJSON, _ := json.Marshal(rec.Fonts)
	pagesJSON, _ := json.Marshal(rec.PagesMeta)
	return sqlmock.NewRows([]string{
		"id", "tenweb_website_id", "business_name", "business_type",
		"business_description", "subdomain", "colors", "fonts", "pages_meta",
		"seo_title", "seo_description", "seo_keyphrase", "website_type",
		"status", "site_url", "unique_id", "payload", "created_at", "updated_at",
	}).AddRow(
		rec.ID, rec.TenWebID, rec.BusinessName, rec.BusinessType,
		rec.BusinessDesc, rec.Subdomain, colsJSON, fontsJSON, pagesJSON,
		rec.SeoTitle, rec.SeoDescription, rec.SeoKeyphrase, rec.WebsiteType,
		string(rec.Status), rec.SiteURL, rec.UniqueID, []byte(`{}`),
		time.Now(), time.Now(),
	)
}

func TestByID_MapsRow(t *testing.T) {
	st, mock := newMockStore(t)
	tid := int64(9321)
	want := Record{
		ID:           "0c9e7c1e-8f7a-4c25-9f5b-0f51a8f0a001",
		TenWebID:     &tid,
		BusinessName: "Cafe Fleurs",
		Subdomain:    "cafe-fleurs",
		Colors:       Colors{Primary: "#AA33FF", Secondary: "#112233", Background: "#FFFFFF"},
		Status:       StatusCreated,
	}

	mock.ExpectQuery("SELECT (.+) FROM sites WHERE id = \\$1").
		WithArgs(want.ID).
		WillReturnRows(siteRows(want))

	got, err := st.ByID(context.Background(), want.ID)
	if err != nil {
		t.Fatalf("ByID error: %v", err)
	}
	if got.Subdomain != want.Subdomain || got.Colors.Primary != "#AA33FF" {
		t.Fatalf("row mapping wrong: %+v", got)
	}
	if got.TenWebID == nil || *got.TenWebID != tid {
		t.Fatalf("tenweb id = %v, want %d", got.TenWebID, tid)
	}
}

func TestByID_NotFound(t *testing.T) {
	st, mock := newMockStore(t)
	mock.ExpectQuery("SELECT (.+) FROM sites WHERE id = \\$1").
		WithArgs("missing").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err := st.ByID(context.Background(), "missing")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestUpdateStatus_RejectsOutOfOrder(t *testing.T) {
	st, mock := newMockStore(t)
	rec := Record{ID: "abc", Status: StatusCreated}
	mock.ExpectQuery("SELECT (.+) FROM sites WHERE id = \\$1").
		WithArgs("abc").
		WillReturnRows(siteRows(rec))

	err := st.UpdateStatus(context.Background(), "abc", StatusPublished)
	var bad *ErrBadTransition
	if !errors.As(err, &bad) {
		t.Fatalf("err = %v, want *ErrBadTransition", err)
	}
	// No UPDATE may have been issued.
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unexpected SQL: %v", err)
	}
}

func TestUpdateStatus_LegalMoveWrites(t *testing.T) {
	st, mock := newMockStore(t)
	rec := Record{ID: "abc", Status: StatusCreated}
	mock.ExpectQuery("SELECT (.+) FROM sites WHERE id = \\$1").
		WithArgs("abc").
		WillReturnRows(siteRows(rec))
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE sites SET status = $2, updated_at = $3 WHERE id = $1`)).
		WithArgs("abc", string(StatusGenerated), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := st.UpdateStatus(context.Background(), "abc", StatusGenerated); err != nil {
		t.Fatalf("UpdateStatus error: %v", err)
	}
}

func TestUpdateGenerated_SingleWrite(t *testing.T) {
	st, mock := newMockStore(t)
	rec := Record{ID: "abc", Status: StatusCreated}
	mock.ExpectQuery("SELECT (.+) FROM sites WHERE id = \\$1").
		WithArgs("abc").
		WillReturnRows(siteRows(rec))
	// URL, unique_id, payload, and status land in one statement; a site
	// must never read as generated while site_url is still empty.
	mock.ExpectExec("UPDATE sites\\s+SET\\s+site_url = \\$2, unique_id = \\$3, payload = \\$4, status = \\$5, updated_at = \\$6").
		WithArgs("abc", "https://done.example.dev", "uid-1", sqlmock.AnyArg(), string(StatusGenerated), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := st.UpdateGenerated(context.Background(), "abc",
		"https://done.example.dev", "uid-1", json.RawMessage(`{"pages":[]}`))
	if err != nil {
		t.Fatalf("UpdateGenerated error: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unexpected SQL: %v", err)
	}
}

func TestUpdateGenerated_RejectsBeforeWrite(t *testing.T) {
	st, mock := newMockStore(t)
	rec := Record{ID: "abc", Status: StatusPublished}
	mock.ExpectQuery("SELECT (.+) FROM sites WHERE id = \\$1").
		WithArgs("abc").
		WillReturnRows(siteRows(rec))

	err := st.UpdateGenerated(context.Background(), "abc",
		"https://done.example.dev", "uid-1", json.RawMessage(`{}`))
	var bad *ErrBadTransition
	if !errors.As(err, &bad) {
		t.Fatalf("err = %v, want *ErrBadTransition", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unexpected SQL: %v", err)
	}
}

func TestLinkUpstream_MapsUniqueViolation(t *testing.T) {
	st, mock := newMockStore(t)
	mock.ExpectExec("UPDATE sites").
		WillReturnError(&pq.Error{Code: "23505", Constraint: "sites_tenweb_website_id_key"})

	err := st.LinkUpstream(context.Background(), "abc", 42, "https://x.example")
	if !errors.Is(err, ErrDuplicateUpstreamID) {
		t.Fatalf("err = %v, want ErrDuplicateUpstreamID", err)
	}
}
