package services

import (
	"math"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/doclens-ai/doclens-cli/internal/core/domain"
)

// Fusion constants.
const (
	// shortContentMinLen is the character threshold below which a
	// fragment is too short to be a reliable semantic match.
	shortContentMinLen = 50

	// shortContentPenalty is the factor applied to short fragments'
	// raw scores before standardisation.
	shortContentPenalty = 0.7

	// standardisedWeight and keywordWeight blend the two score
	// components in the combined score.
	standardisedWeight = 0.8
	keywordWeight      = 0.2

	// countBoost scales the multiplicative reward for content surfaced
	// by several paraphrased queries.
	countBoost = 0.1

	// searchMargin widens each per-query search beyond the requested k
	// to compensate for fusion removing near-duplicates across queries.
	searchMargin = 5
)

// FuseResults merges per-query search results into one deduplicated,
// ranked list of at most k entries.
//
// Per query result set the raw scores are first penalised for very
// short content, then replaced by their query-local z-scores so that
// queries with different score distributions become comparable. Across
// all sets, results with identical content collapse into one entry
// whose combined score blends the averaged z-score with a keyword
// coverage score, boosted by how many queries surfaced the content.
func FuseResults(perQuery [][]domain.SearchResult, keywords []string, k int) []domain.FusedResult {
	type group struct {
		content   string
		metadata  domain.ChunkMetadata
		zSum      float64
		kwSum     float64
		count     int
		firstSeen int
	}

	groups := make(map[string]*group)
	order := 0

	for _, results := range perQuery {
		results = dedupe(results)
		scores := standardise(penalise(results))
		for i, r := range results {
			g, ok := groups[r.Content]
			if !ok {
				g = &group{content: r.Content, metadata: r.Metadata, firstSeen: order}
				groups[r.Content] = g
				order++
			}
			g.zSum += scores[i]
			g.kwSum += keywordCoverage(r.Content, keywords)
			g.count++
		}
	}

	fused := make([]domain.FusedResult, 0, len(groups))
	firstSeen := make(map[string]int, len(groups))
	for _, g := range groups {
		n := float64(g.count)
		avgZ := g.zSum / n
		avgKw := g.kwSum / n
		combined := avgZ*standardisedWeight + avgKw*keywordWeight*(1+countBoost*float64(g.count))
		fused = append(fused, domain.FusedResult{
			Content:       g.content,
			Metadata:      g.metadata,
			CombinedScore: combined,
			Count:         g.count,
		})
		firstSeen[g.content] = g.firstSeen
	}

	// Establish first-seen order before the stable score sort so ties
	// keep it.
	sort.Slice(fused, func(i, j int) bool {
		return firstSeen[fused[i].Content] < firstSeen[fused[j].Content]
	})
	sort.SliceStable(fused, func(i, j int) bool {
		return fused[i].CombinedScore > fused[j].CombinedScore
	})

	if k > 0 && k < len(fused) {
		fused = fused[:k]
	}
	return fused
}

// dedupe keeps the first occurrence of each content within one query's
// result set, so a query counts at most once towards an entry's count.
func dedupe(results []domain.SearchResult) []domain.SearchResult {
	seen := make(map[string]bool, len(results))
	out := results[:0:0]
	for _, r := range results {
		if seen[r.Content] {
			continue
		}
		seen[r.Content] = true
		out = append(out, r)
	}
	return out
}

// penalise returns the raw scores with the short-content penalty
// applied. Length is measured in runes so multi-byte scripts are
// penalised on the same footing as ASCII.
func penalise(results []domain.SearchResult) []float64 {
	scores := make([]float64, len(results))
	for i, r := range results {
		scores[i] = r.Score
		if utf8.RuneCountInString(r.Content) < shortContentMinLen {
			scores[i] *= shortContentPenalty
		}
	}
	return scores
}

// standardise replaces scores with their z-scores. A zero-variance set
// maps to all zeros rather than dividing by zero.
func standardise(scores []float64) []float64 {
	if len(scores) == 0 {
		return scores
	}

	var sum float64
	for _, s := range scores {
		sum += s
	}
	mean := sum / float64(len(scores))

	var variance float64
	for _, s := range scores {
		variance += (s - mean) * (s - mean)
	}
	stddev := math.Sqrt(variance / float64(len(scores)))

	z := make([]float64, len(scores))
	if stddev == 0 {
		return z
	}
	for i, s := range scores {
		z[i] = (s - mean) / stddev
	}
	return z
}

// keywordCoverage returns the fraction of keywords found as substrings
// of content, 0 when no keywords were extracted.
func keywordCoverage(content string, keywords []string) float64 {
	if len(keywords) == 0 {
		return 0
	}
	found := 0
	for _, kw := range keywords {
		if strings.Contains(content, kw) {
			found++
		}
	}
	return float64(found) / float64(len(keywords))
}
