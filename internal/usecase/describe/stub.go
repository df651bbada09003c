package describe

import (
	"context"
	"fmt"
	"strings"

	"github.com/kailas-cloud/imgdex/internal/domain"
	"github.com/kailas-cloud/imgdex/internal/domain/image"
)

// stubConfidence is the fixed confidence reported for derived metadata.
const stubConfidence = 0.6

// StubDescriber derives metadata from the record's own fields. It never
// calls out and is deterministic, for local runs and tests.
type StubDescriber struct{}

// Describe implements domain.Describer.
func (StubDescriber) Describe(_ context.Context, rec image.Record) (domain.DescribeResult, error) {
	desc := strings.TrimSpace(rec.Description)
	if desc == "" {
		desc = fmt.Sprintf("an image named %s", rec.Filename())
	}

	tags := rec.TagList()
	for i := range tags {
		tags[i] = strings.ToLower(tags[i])
	}

	scene := strings.ToLower(strings.TrimSpace(rec.Category))
	if scene == "" {
		scene = "general"
	}

	return domain.DescribeResult{
		Metadata: image.Metadata{
			AIDescription: desc,
			AITags:        tags,
			Scene:         scene,
			Palette:       strings.Join(rec.DominantColors, ", "),
			Confidence:    stubConfidence,
		},
	}, nil
}
