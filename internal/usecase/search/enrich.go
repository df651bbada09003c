package search

import (
	"sort"
	"strings"

	"github.com/kailas-cloud/imgdex/internal/domain/search/result"
)

// noResultSuggestions is returned verbatim when a search finds nothing.
var noResultSuggestions = []string{
	"Try broader or fewer keywords",
	"Check the spelling of your search terms",
	"Lower the minimum confidence threshold",
	"Remove the color or scene constraint",
	"Search for images similar to one you already know",
}

// enrich ranks and classifies scored results and derives insights.
func enrich(query string, scored []result.Scored, th result.Thresholds) result.Response {
	sort.SliceStable(scored, func(i, j int) bool {
		if scored[i].Total != scored[j].Total {
			return scored[i].Total > scored[j].Total
		}
		return scored[i].Record.ID < scored[j].Record.ID
	})

	resp := result.Response{Query: query, Results: scored}

	if len(scored) == 0 {
		resp.Quality = result.NoResults
		resp.Insights.Suggestions = append([]string(nil), noResultSuggestions...)
		return resp
	}

	var sum float64
	for i := range scored {
		scored[i].Level = th.Level(scored[i].Total)
		sum += scored[i].Total
		resp.HighestConfidence = max(resp.HighestConfidence, scored[i].Total)
	}
	resp.AverageConfidence = sum / float64(len(scored))
	resp.Quality = th.Quality(resp.HighestConfidence, resp.AverageConfidence, len(scored))
	resp.Insights.Distribution = distribution(scored)
	resp.Insights.Patterns = patterns(scored)
	return resp
}

// distribution is the share of score mass per signal across all results.
func distribution(scored []result.Scored) *result.MatchDistribution {
	var d result.MatchDistribution
	for i := range scored {
		b := scored[i].Breakdown
		d.Description += b.Description
		d.Tags += b.Tag
		d.Filename += b.Filename
		d.Metadata += b.Metadata
	}
	total := d.Description + d.Tags + d.Filename + d.Metadata
	if total == 0 {
		return &result.MatchDistribution{}
	}
	return &result.MatchDistribution{
		Description: d.Description / total,
		Tags:        d.Tags / total,
		Filename:    d.Filename / total,
		Metadata:    d.Metadata / total,
	}
}

func patterns(scored []result.Scored) result.CommonPatterns {
	var p result.CommonPatterns
	formats, resolutions := newDistinct(), newDistinct()
	orientations, categories := newDistinct(), newDistinct()
	for i := range scored {
		r := &scored[i].Record
		p.Formats = formats.add(p.Formats, r.Format)
		p.Resolutions = resolutions.add(p.Resolutions, r.Resolution)
		p.Orientations = orientations.add(p.Orientations, r.Orientation)
		p.Categories = categories.add(p.Categories, r.Category)
	}
	return p
}

type distinct map[string]struct{}

func newDistinct() distinct { return make(distinct) }

// add appends v to list once per case-insensitive value, skipping blanks.
func (d distinct) add(list []string, v string) []string {
	if v == "" {
		return list
	}
	key := strings.ToLower(v)
	if _, ok := d[key]; ok {
		return list
	}
	d[key] = struct{}{}
	return append(list, v)
}
