package search

import (
	"sort"

	"github.com/kailas-cloud/imgdex/internal/domain/search/hit"
)

// merge drops hits below minConfidence and keeps one hit per image, the one
// with the highest confidence. Batches are visited in strategy order, so on a
// tie the earlier strategy wins. Output is sorted by confidence desc, id asc
// and truncated to limit (0 = no cap) so only survivors are resolved and scored.
func merge(batches [][]hit.Hit, minConfidence float64, limit int) []hit.Hit {
	best := make(map[string]int)
	var merged []hit.Hit

	for _, batch := range batches {
		for _, h := range batch {
			if h.Confidence < minConfidence {
				continue
			}
			idx, seen := best[h.ImageID]
			if !seen {
				best[h.ImageID] = len(merged)
				merged = append(merged, h)
				continue
			}
			if h.Confidence > merged[idx].Confidence {
				merged[idx] = h
			}
		}
	}

	sort.SliceStable(merged, func(i, j int) bool {
		if merged[i].Confidence != merged[j].Confidence {
			return merged[i].Confidence > merged[j].Confidence
		}
		return merged[i].ImageID < merged[j].ImageID
	})

	if limit > 0 && len(merged) > limit {
		merged = merged[:limit]
	}
	return merged
}
