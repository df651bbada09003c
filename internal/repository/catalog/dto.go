package catalog

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/kailas-cloud/imgdex/internal/domain/image"
)

// Hash field names shared by the record and metadata hashes.
const (
	fieldID             = "id"
	fieldURL            = "url"
	fieldThumbnailURL   = "thumbnail_url"
	fieldFilename       = "original_filename"
	fieldDescription    = "description"
	fieldTags           = "tags"
	fieldFormat         = "format"
	fieldSizeBytes      = "size_bytes"
	fieldWidth          = "width"
	fieldHeight         = "height"
	fieldResolution     = "resolution"
	fieldOrientation    = "orientation"
	fieldCategory       = "category"
	fieldDominantColors = "dominant_colors"
	fieldTransparency   = "has_transparency"
	fieldAnimated       = "is_animated"
	fieldBrightness     = "brightness"
	fieldStatus         = "status"
	fieldDeleted        = "deleted"
	fieldCreatedAt      = "created_at"
	fieldImageID        = "image_id"
	fieldAIDescription  = "ai_description"
	fieldAITags         = "ai_tags"
	fieldScene          = "scene"
	fieldObjects        = "objects"
	fieldPalette        = "palette"
	fieldOCRText        = "ocr_text"
	fieldConfidence     = "confidence"
	fieldProcessedAt    = "processed_at"
	listSeparator       = ","
)

// recordToHash converts a record to a map for HSET.
func recordToHash(r *image.Record) map[string]string {
	return map[string]string{
		fieldID:             r.ID,
		fieldURL:            r.URL,
		fieldThumbnailURL:   r.ThumbnailURL,
		fieldFilename:       r.OriginalFilename,
		fieldDescription:    r.Description,
		fieldTags:           r.Tags,
		fieldFormat:         r.Format,
		fieldSizeBytes:      strconv.FormatInt(r.SizeBytes, 10),
		fieldWidth:          strconv.Itoa(r.Width),
		fieldHeight:         strconv.Itoa(r.Height),
		fieldResolution:     r.Resolution,
		fieldOrientation:    r.Orientation,
		fieldCategory:       r.Category,
		fieldDominantColors: strings.Join(r.DominantColors, listSeparator),
		fieldTransparency:   strconv.FormatBool(r.HasTransparency),
		fieldAnimated:       strconv.FormatBool(r.IsAnimated),
		fieldBrightness:     r.Brightness,
		fieldStatus:         string(r.Status),
		fieldDeleted:        strconv.FormatBool(r.Deleted),
		fieldCreatedAt:      formatMillis(r.CreatedAt),
	}
}

// recordFromHash hydrates a record from an HGETALL result map.
// Unparseable numeric fields are zeroed; a bad created_at is an error.
func recordFromHash(m map[string]string) (image.Record, error) {
	createdAt, err := parseMillis(m[fieldCreatedAt])
	if err != nil {
		return image.Record{}, fmt.Errorf("invalid created_at: %w", err)
	}

	size, _ := strconv.ParseInt(m[fieldSizeBytes], 10, 64)
	width, _ := strconv.Atoi(m[fieldWidth])
	height, _ := strconv.Atoi(m[fieldHeight])
	transparent, _ := strconv.ParseBool(m[fieldTransparency])
	animated, _ := strconv.ParseBool(m[fieldAnimated])
	deleted, _ := strconv.ParseBool(m[fieldDeleted])

	return image.Record{
		ID:               m[fieldID],
		URL:              m[fieldURL],
		ThumbnailURL:     m[fieldThumbnailURL],
		OriginalFilename: m[fieldFilename],
		Description:      m[fieldDescription],
		Tags:             m[fieldTags],
		Format:           m[fieldFormat],
		SizeBytes:        size,
		Width:            width,
		Height:           height,
		Resolution:       m[fieldResolution],
		Orientation:      m[fieldOrientation],
		Category:         m[fieldCategory],
		DominantColors:   image.SplitList(m[fieldDominantColors]),
		HasTransparency:  transparent,
		IsAnimated:       animated,
		Brightness:       m[fieldBrightness],
		Status:           image.Status(m[fieldStatus]),
		Deleted:          deleted,
		CreatedAt:        createdAt,
	}, nil
}

// metadataToHash converts metadata to a map for HSET. ai_tags stays
// comma-joined so the TEXT index tokenizes each tag.
func metadataToHash(md *image.Metadata) map[string]string {
	return map[string]string{
		fieldImageID:       md.ImageID,
		fieldAIDescription: md.AIDescription,
		fieldAITags:        strings.Join(md.AITags, listSeparator),
		fieldScene:         md.Scene,
		fieldObjects:       strings.Join(md.Objects, listSeparator),
		fieldPalette:       md.Palette,
		fieldOCRText:       md.OCRText,
		fieldConfidence:    strconv.FormatFloat(md.Confidence, 'f', -1, 64),
		fieldProcessedAt:   formatMillis(md.ProcessedAt),
	}
}

func metadataFromHash(m map[string]string) (*image.Metadata, error) {
	conf, err := strconv.ParseFloat(m[fieldConfidence], 64)
	if err != nil {
		return nil, fmt.Errorf("invalid confidence: %w", err)
	}
	processedAt, err := parseMillis(m[fieldProcessedAt])
	if err != nil {
		return nil, fmt.Errorf("invalid processed_at: %w", err)
	}
	return &image.Metadata{
		ImageID:       m[fieldImageID],
		AIDescription: m[fieldAIDescription],
		AITags:        image.SplitList(m[fieldAITags]),
		Scene:         m[fieldScene],
		Objects:       image.SplitList(m[fieldObjects]),
		Palette:       m[fieldPalette],
		OCRText:       m[fieldOCRText],
		Confidence:    conf,
		ProcessedAt:   processedAt,
	}, nil
}

// Zero times are stored as "0" and read back as the zero time.
func formatMillis(t time.Time) string {
	if t.IsZero() {
		return "0"
	}
	return strconv.FormatInt(t.UnixMilli(), 10)
}

func parseMillis(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	ms, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return time.Time{}, err
	}
	if ms == 0 {
		return time.Time{}, nil
	}
	return time.UnixMilli(ms).UTC(), nil
}
