package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/kailas-cloud/imgdex/internal/domain"
	"github.com/kailas-cloud/imgdex/internal/domain/image"
	"github.com/kailas-cloud/imgdex/internal/domain/search/hit"
)

// fixture is the YAML seed file layout.
type fixture struct {
	Images []fixtureImage `yaml:"images"`
}

type fixtureImage struct {
	ID               string           `yaml:"id"`
	URL              string           `yaml:"url"`
	ThumbnailURL     string           `yaml:"thumbnail_url"`
	OriginalFilename string           `yaml:"original_filename"`
	Description      string           `yaml:"description"`
	Tags             []string         `yaml:"tags"`
	Format           string           `yaml:"format"`
	SizeBytes        int64            `yaml:"size_bytes"`
	Width            int              `yaml:"width"`
	Height           int              `yaml:"height"`
	Resolution       string           `yaml:"resolution"`
	Orientation      string           `yaml:"orientation"`
	Category         string           `yaml:"category"`
	DominantColors   []string         `yaml:"dominant_colors"`
	HasTransparency  bool             `yaml:"has_transparency"`
	IsAnimated       bool             `yaml:"is_animated"`
	Brightness       string           `yaml:"brightness"`
	Status           string           `yaml:"status"`
	Deleted          bool             `yaml:"deleted"`
	CreatedAt        time.Time        `yaml:"created_at"`
	Metadata         *fixtureMetadata `yaml:"metadata"`
}

type fixtureMetadata struct {
	Description string    `yaml:"description"`
	Tags        []string  `yaml:"tags"`
	Scene       string    `yaml:"scene"`
	Objects     []string  `yaml:"objects"`
	Palette     string    `yaml:"palette"`
	OCRText     string    `yaml:"ocr_text"`
	Confidence  float64   `yaml:"confidence"`
	ProcessedAt time.Time `yaml:"processed_at"`
}

// seedBatch is a parsed fixture ready to be written to the catalog.
type seedBatch struct {
	Records  []image.Record
	Metadata []image.Metadata
}

func loadFixture(path string, now time.Time) (seedBatch, error) {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return seedBatch{}, fmt.Errorf("read fixture %s: %w", path, err)
	}
	return parseFixture(data, now)
}

// parseFixture validates the fixture and assigns UUIDs to images without ids.
// Missing timestamps default to now.
func parseFixture(data []byte, now time.Time) (seedBatch, error) {
	var f fixture
	if err := yaml.Unmarshal(data, &f); err != nil {
		return seedBatch{}, fmt.Errorf("parse fixture: %w", err)
	}
	if len(f.Images) == 0 {
		return seedBatch{}, fmt.Errorf("fixture has no images")
	}

	var batch seedBatch
	seen := make(map[string]bool, len(f.Images))
	for i, img := range f.Images {
		rec, err := img.record(now)
		if err != nil {
			return seedBatch{}, fmt.Errorf("image %d: %w", i, err)
		}
		if seen[rec.ID] {
			return seedBatch{}, fmt.Errorf("image %d: duplicate id %q", i, rec.ID)
		}
		seen[rec.ID] = true
		batch.Records = append(batch.Records, rec)

		if img.Metadata != nil {
			batch.Metadata = append(batch.Metadata, img.Metadata.metadata(rec.ID, now))
		}
	}
	return batch, nil
}

func (img *fixtureImage) record(now time.Time) (image.Record, error) {
	id := strings.TrimSpace(img.ID)
	if id == "" {
		id = uuid.NewString()
	}
	if len(id) > domain.MaxIDLength {
		return image.Record{}, fmt.Errorf("id too long (max %d)", domain.MaxIDLength)
	}
	if strings.TrimSpace(img.URL) == "" {
		return image.Record{}, fmt.Errorf("url is required")
	}

	status := image.StatusActive
	if img.Status != "" {
		status = image.Status(strings.ToLower(img.Status))
		if !status.IsValid() {
			return image.Record{}, fmt.Errorf("unknown status %q", img.Status)
		}
	}

	created := img.CreatedAt
	if created.IsZero() {
		created = now
	}

	return image.Record{
		ID:               id,
		URL:              img.URL,
		ThumbnailURL:     img.ThumbnailURL,
		OriginalFilename: img.OriginalFilename,
		Description:      img.Description,
		Tags:             strings.Join(img.Tags, ", "),
		Format:           img.Format,
		SizeBytes:        img.SizeBytes,
		Width:            img.Width,
		Height:           img.Height,
		Resolution:       img.Resolution,
		Orientation:      img.Orientation,
		Category:         img.Category,
		DominantColors:   img.DominantColors,
		HasTransparency:  img.HasTransparency,
		IsAnimated:       img.IsAnimated,
		Brightness:       img.Brightness,
		Status:           status,
		Deleted:          img.Deleted,
		CreatedAt:        created.UTC(),
	}, nil
}

func (m *fixtureMetadata) metadata(imageID string, now time.Time) image.Metadata {
	processed := m.ProcessedAt
	if processed.IsZero() {
		processed = now
	}
	return image.Metadata{
		ImageID:       imageID,
		AIDescription: m.Description,
		AITags:        m.Tags,
		Scene:         strings.ToLower(strings.TrimSpace(m.Scene)),
		Objects:       m.Objects,
		Palette:       m.Palette,
		OCRText:       m.OCRText,
		Confidence:    hit.Clamp01(m.Confidence),
		ProcessedAt:   processed.UTC(),
	}
}
