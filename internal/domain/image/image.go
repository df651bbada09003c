// Package image holds the catalog records the search engine reads.
package image

import (
	"path"
	"strings"
	"time"
)

// Status is the lifecycle state of an image record.
type Status string

// Lifecycle states.
const (
	StatusActive     Status = "active"
	StatusDisabled   Status = "disabled"
	StatusProcessing Status = "processing"
)

// IsValid checks if the status is one of the known values.
func (s Status) IsValid() bool {
	return s == StatusActive || s == StatusDisabled || s == StatusProcessing
}

// Record is an image as stored by the catalog. The search engine only reads copies.
type Record struct {
	ID               string
	URL              string
	ThumbnailURL     string
	OriginalFilename string
	Description      string
	Tags             string // comma/semicolon-delimited, as entered by the uploader

	Format      string
	SizeBytes   int64
	Width       int
	Height      int
	Resolution  string
	Orientation string
	Category    string

	DominantColors  []string
	HasTransparency bool
	IsAnimated      bool
	Brightness      string

	Status    Status
	Deleted   bool
	CreatedAt time.Time
}

// IsActive reports whether the record may appear in search results.
func (r *Record) IsActive() bool {
	return r.Status == StatusActive && !r.Deleted
}

// TagList splits the raw tag string on commas and semicolons.
func (r *Record) TagList() []string {
	return SplitList(r.Tags)
}

// Filename returns the original filename, falling back to the last URL path segment.
func (r *Record) Filename() string {
	if r.OriginalFilename != "" {
		return r.OriginalFilename
	}
	u := r.URL
	if i := strings.IndexAny(u, "?#"); i >= 0 {
		u = u[:i]
	}
	base := path.Base(u)
	if base == "." || base == "/" {
		return ""
	}
	return base
}

// Metadata is AI-generated descriptive metadata. It is created lazily and
// may be absent for any record.
type Metadata struct {
	ImageID       string
	AIDescription string
	AITags        []string
	Scene         string
	Objects       []string
	Palette       string
	OCRText       string
	Confidence    float64
	ProcessedAt   time.Time
}

// Annotated pairs a record with its metadata (nil when absent).
type Annotated struct {
	Record   Record
	Metadata *Metadata
}

// SplitList splits a comma/semicolon-delimited list, trimming blanks.
func SplitList(s string) []string {
	if s == "" {
		return nil
	}
	fields := strings.FieldsFunc(s, func(r rune) bool { return r == ',' || r == ';' })
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		if f = strings.TrimSpace(f); f != "" {
			out = append(out, f)
		}
	}
	return out
}
