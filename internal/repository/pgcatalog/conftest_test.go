package pgcatalog

import (
	"context"
	"fmt"
	"reflect"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/kailas-cloud/imgdex/internal/domain/image"
)

// mockDB implements querier for tests.
type mockDB struct {
	execFn     func(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	queryFn    func(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	queryRowFn func(ctx context.Context, sql string, args ...any) pgx.Row
}

func (m *mockDB) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	if m.execFn != nil {
		return m.execFn(ctx, sql, args...)
	}
	return pgconn.NewCommandTag("INSERT 0 1"), nil
}

func (m *mockDB) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	if m.queryFn != nil {
		return m.queryFn(ctx, sql, args...)
	}
	return &fakeRows{}, nil
}

func (m *mockDB) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	if m.queryRowFn != nil {
		return m.queryRowFn(ctx, sql, args...)
	}
	return fakeRow{err: pgx.ErrNoRows}
}

// fakeRow scans a fixed value list into destination pointers.
type fakeRow struct {
	values []any
	err    error
}

func (r fakeRow) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	return assign(r.values, dest)
}

// fakeRows iterates fixed rows.
type fakeRows struct {
	rows   [][]any
	pos    int
	err    error
	closed bool
}

func (r *fakeRows) Close() { r.closed = true }
func (r *fakeRows) Err() error { return r.err }
func (r *fakeRows) CommandTag() pgconn.CommandTag { return pgconn.NewCommandTag("SELECT") }
func (r *fakeRows) FieldDescriptions() []pgconn.FieldDescription { return nil }
func (r *fakeRows) RawValues() [][]byte { return nil }
func (r *fakeRows) Conn() *pgx.Conn { return nil }

func (r *fakeRows) Next() bool {
	if r.pos >= len(r.rows) {
		return false
	}
	r.pos++
	return true
}

func (r *fakeRows) Scan(dest ...any) error {
	return assign(r.rows[r.pos-1], dest)
}

func (r *fakeRows) Values() ([]any, error) {
	return r.rows[r.pos-1], nil
}

func assign(values, dest []any) error {
	if len(values) != len(dest) {
		return fmt.Errorf("scan: %d values into %d targets", len(values), len(dest))
	}
	for i, v := range values {
		target := reflect.ValueOf(dest[i]).Elem()
		if v == nil {
			target.Set(reflect.Zero(target.Type()))
			continue
		}
		val := reflect.ValueOf(v)
		if !val.Type().AssignableTo(target.Type()) {
			return fmt.Errorf("scan column %d: %s into %s", i, val.Type(), target.Type())
		}
		target.Set(val)
	}
	return nil
}

func newTestRepo(t *testing.T) (*Repo, *mockDB) {
	t.Helper()
	m := &mockDB{}
	return New(m), m
}

var testCreatedAt = time.Date(2026, 1, 15, 10, 0, 0, 0, time.UTC)

func testRecord(t *testing.T, id string) image.Record {
	t.Helper()
	return image.Record{
		ID:               id,
		URL:              "https://cdn.example.com/" + id + ".png",
		OriginalFilename: id + ".png",
		Description:      "city street at night",
		Tags:             "city;night",
		Format:           "png",
		SizeBytes:        51200,
		Width:            800,
		Height:           1200,
		Resolution:       "hd",
		Orientation:      "portrait",
		Category:         "urban",
		DominantColors:   []string{"black", "yellow"},
		HasTransparency:  true,
		Brightness:       "dark",
		Status:           image.StatusActive,
		CreatedAt:        testCreatedAt,
	}
}

// recordValues mirrors recordColumns.
func recordValues(r *image.Record) []any {
	return []any{
		r.ID, r.URL, r.ThumbnailURL, r.OriginalFilename, r.Description, r.Tags,
		r.Format, r.SizeBytes, r.Width, r.Height, r.Resolution, r.Orientation, r.Category,
		r.DominantColors, r.HasTransparency, r.IsAnimated, r.Brightness, string(r.Status), r.Deleted, r.CreatedAt,
	}
}

// metadataValues mirrors metadataColumns.
func metadataValues(md *image.Metadata) []any {
	var processed any
	if !md.ProcessedAt.IsZero() {
		ts := md.ProcessedAt
		processed = &ts
	}
	return []any{
		md.ImageID, md.AIDescription, md.AITags, md.Scene, md.Objects,
		md.Palette, md.OCRText, md.Confidence, processed,
	}
}
