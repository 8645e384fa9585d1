package ui

import (
	"strings"

	"github.com/atomicstack/gridsync/internal/grid"
	"github.com/lithammer/fuzzysearch/fuzzy"
)

// FindRow returns the index of the row that best matches query, or -1 when an
// empty query or no row matches. Exact cell matches beat prefix matches,
// which beat substring matches, which beat fuzzy matches. Ties go to the
// first row.
func FindRow(g grid.Grid, query string) int {
	trimmed := strings.TrimSpace(query)
	if trimmed == "" || len(g) == 0 {
		return -1
	}
	lower := strings.ToLower(trimmed)
	for i, row := range g {
		for _, cell := range row {
			if strings.EqualFold(cell, trimmed) {
				return i
			}
		}
	}
	for i, row := range g {
		for _, cell := range row {
			if strings.HasPrefix(strings.ToLower(cell), lower) {
				return i
			}
		}
	}
	labels := make([]string, len(g))
	for i, row := range g {
		labels[i] = strings.Join(row, " ")
	}
	for i, label := range labels {
		if strings.Contains(strings.ToLower(label), lower) {
			return i
		}
	}
	ranks := fuzzy.RankFindNormalizedFold(trimmed, labels)
	if len(ranks) == 0 {
		return -1
	}
	best := ranks[0]
	for _, rank := range ranks[1:] {
		if rank.Distance < best.Distance {
			best = rank
			continue
		}
		if rank.Distance == best.Distance && rank.OriginalIndex < best.OriginalIndex {
			best = rank
		}
	}
	return best.OriginalIndex
}
