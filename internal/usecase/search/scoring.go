package search

import (
	"strings"
	"time"
	"unicode"

	"github.com/kailas-cloud/imgdex/internal/domain/image"
	"github.com/kailas-cloud/imgdex/internal/domain/search/filter"
	"github.com/kailas-cloud/imgdex/internal/domain/search/hit"
	"github.com/kailas-cloud/imgdex/internal/domain/search/request"
	"github.com/kailas-cloud/imgdex/internal/domain/search/result"
	"github.com/kailas-cloud/imgdex/internal/domain/search/strategy"
)

var stopWords = map[string]struct{}{
	"an": {}, "and": {}, "are": {}, "as": {}, "at": {}, "be": {}, "by": {},
	"for": {}, "from": {}, "has": {}, "in": {}, "is": {}, "it": {}, "its": {},
	"of": {}, "on": {}, "or": {}, "that": {}, "the": {}, "this": {}, "to": {},
	"was": {}, "were": {}, "with": {}, "me": {}, "my": {}, "show": {}, "find": {},
	"image": {}, "images": {}, "photo": {}, "photos": {}, "picture": {}, "pictures": {},
}

// Scorer computes the composite relevance score. It holds no mutable state;
// the same inputs always produce the same breakdown and explanation.
type Scorer struct {
	w          Weights
	staleAfter time.Duration
}

// NewScorer creates a scorer.
func NewScorer(w Weights, staleAfter time.Duration) *Scorer {
	return &Scorer{w: w, staleAfter: staleAfter}
}

// Score evaluates one resolved candidate. now is the reference time for staleness.
func (sc *Scorer) Score(
	req *request.Request, h hit.Hit, rec image.Record, meta *image.Metadata, now time.Time,
) result.Scored {
	terms := Terms(req.Query())

	descTokens := tokenSet(rec.Description)
	tagTokens := tokenSet(strings.Join(rec.TagList(), " "))
	if meta != nil {
		for _, t := range meta.AITags {
			for _, tok := range tokenize(t) {
				tagTokens[tok] = struct{}{}
			}
		}
	}
	fileTokens := tokenSet(rec.Filename())

	var b result.Breakdown
	b.Description = sc.w.Description * overlap(terms, descTokens)
	b.Tag = sc.w.Tag * overlap(terms, tagTokens)
	b.Filename = sc.w.Filename * overlap(terms, fileTokens)

	matches, sceneMatched := metadataMatches(req, terms, &rec, meta)
	b.Metadata = min(sc.w.Metadata, sc.w.MetadataStep*float64(matches))

	signals := 0
	for _, v := range []float64{b.Description, b.Tag, b.Filename} {
		if v > 0 {
			signals++
		}
	}
	highConf := h.Confidence >= sc.w.HighConfidenceCutoff
	sceneBonus := h.Strategy == strategy.Visual || h.Strategy == strategy.Scene || sceneMatched

	bonus := sc.w.ConfidenceWeight * h.Confidence
	if signals >= 2 {
		bonus += sc.w.MultiSignalStep * float64(signals-1)
	}
	if highConf {
		bonus += sc.w.HighConfidenceBonus
	}
	if sceneBonus {
		bonus += sc.w.SceneBonus
	}
	b.Bonus = min(sc.w.MaxBonus, bonus)

	var stale, lowAI bool
	switch {
	case meta == nil:
		b.Penalty = -sc.w.MissingMetadata
	default:
		if meta.ProcessedAt.IsZero() || now.Sub(meta.ProcessedAt) > sc.staleAfter {
			stale = true
			b.Penalty -= sc.w.StaleMetadata
		}
		if meta.Confidence < sc.w.LowAIConfidenceCutoff {
			lowAI = true
			b.Penalty -= sc.w.LowAIConfidence
		}
	}

	return result.Scored{
		Record:          rec,
		Metadata:        meta,
		Breakdown:       b,
		Total:           b.Total(),
		Explanation:     explain(b, highConf, sceneBonus, meta == nil, stale, lowAI),
		MatchType:       h.MatchType,
		MatchedFeatures: h.MatchedFeatures,
		HitConfidence:   h.Confidence,
	}
}

// metadataMatches counts structural agreements between the request and the record.
func metadataMatches(
	req *request.Request, terms []string, rec *image.Record, meta *image.Metadata,
) (count int, sceneMatched bool) {
	attrs := map[filter.Attribute]string{
		filter.Format:      rec.Format,
		filter.Resolution:  rec.Resolution,
		filter.Orientation: rec.Orientation,
		filter.Category:    rec.Category,
	}

	for _, c := range req.Filters().Conditions() {
		if c.Matches(attrs[c.Attribute()]) {
			count++
		}
	}

	if cq := req.ColorQuery(); cq != "" {
		for _, dc := range rec.DominantColors {
			if strings.EqualFold(dc, cq) {
				count++
				break
			}
		}
	}

	if st := req.SceneType(); st != "" && meta != nil && strings.EqualFold(meta.Scene, st) {
		count++
		sceneMatched = true
	}

	termSet := make(map[string]struct{}, len(terms))
	for _, t := range terms {
		termSet[t] = struct{}{}
	}
	for _, attr := range []filter.Attribute{filter.Format, filter.Orientation, filter.Resolution, filter.Category} {
		v := strings.ToLower(attrs[attr])
		if v == "" {
			continue
		}
		if _, ok := termSet[v]; ok {
			count++
		}
	}
	return count, sceneMatched
}

func explain(b result.Breakdown, highConf, sceneBonus, noMeta, stale, lowAI bool) string {
	var matched []string
	if b.Description > 0 {
		matched = append(matched, "description")
	}
	if b.Tag > 0 {
		matched = append(matched, "tags")
	}
	if b.Filename > 0 {
		matched = append(matched, "filename")
	}
	if b.Metadata > 0 {
		matched = append(matched, "metadata")
	}

	var parts []string
	if len(matched) == 0 {
		parts = append(parts, "no direct signal matched")
	} else {
		parts = append(parts, "matched "+joinAnd(matched))
	}
	if highConf {
		parts = append(parts, "high strategy confidence")
	}
	if sceneBonus {
		parts = append(parts, "scene classification bonus applied")
	}
	if noMeta {
		parts = append(parts, "no AI metadata")
	}
	if stale {
		parts = append(parts, "stale AI metadata")
	}
	if lowAI {
		parts = append(parts, "low AI confidence")
	}
	return strings.Join(parts, "; ")
}

func joinAnd(items []string) string {
	if len(items) == 1 {
		return items[0]
	}
	return strings.Join(items[:len(items)-1], ", ") + " and " + items[len(items)-1]
}

// Terms returns the distinct lowercase query tokens of length >= 2, minus stop words.
func Terms(query string) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, tok := range tokenize(query) {
		if _, dup := seen[tok]; dup {
			continue
		}
		seen[tok] = struct{}{}
		out = append(out, tok)
	}
	return out
}

func tokenize(s string) []string {
	fields := strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	out := fields[:0]
	for _, f := range fields {
		if len([]rune(f)) < 2 {
			continue
		}
		if _, stop := stopWords[f]; stop {
			continue
		}
		out = append(out, f)
	}
	return out
}

func tokenSet(s string) map[string]struct{} {
	set := make(map[string]struct{})
	for _, tok := range tokenize(s) {
		set[tok] = struct{}{}
	}
	return set
}

// overlap is the fraction of terms present in tokens.
func overlap(terms []string, tokens map[string]struct{}) float64 {
	if len(terms) == 0 || len(tokens) == 0 {
		return 0
	}
	n := 0
	for _, t := range terms {
		if _, ok := tokens[t]; ok {
			n++
		}
	}
	return float64(n) / float64(len(terms))
}
