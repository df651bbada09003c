package catalog

import (
	"fmt"

	"github.com/kailas-cloud/imgdex/internal/db"
	"github.com/kailas-cloud/imgdex/internal/domain"
)

// Key patterns: imgdex:image:{id}, imgdex:meta:{id}, imgdex:images:recent, imgdex:meta:idx

func imageKey(id string) string {
	return fmt.Sprintf("%simage:%s", domain.KeyPrefix, id)
}

func metaKey(id string) string {
	return fmt.Sprintf("%smeta:%s", domain.KeyPrefix, id)
}

func metaPrefix() string {
	return domain.KeyPrefix + "meta:"
}

func recentKey() string {
	return domain.KeyPrefix + "images:recent"
}

func indexName() string {
	return domain.KeyPrefix + "meta:idx"
}

// buildIndex describes the FT index over metadata hashes.
// Descriptions outweigh tags in relevance ordering.
func buildIndex() (*db.IndexDefinition, error) {
	return db.NewIndex(indexName()).
		Prefix(metaPrefix()).
		Language("english").
		Text(fieldAIDescription, db.Weight(2)).
		Text(fieldAITags).
		Tag(fieldScene).
		Numeric(fieldConfidence, db.Sortable()).
		Build()
}
