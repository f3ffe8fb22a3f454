package main

import (
	"sort"
	"strings"
)

// Ranker orders provider candidates by how well they fit a slide.
type Ranker struct {
	opt *QueryOptimizer
}

func NewRanker(opt *QueryOptimizer) *Ranker {
	return &Ranker{opt: opt}
}

// Rank scores photos against the slide context, drops those scoring zero or
// less and returns the rest best first. Ties keep arrival order.
func (r *Ranker) Rank(photos []PhotoCandidate, context string, theme *ThemeColors) []RankedPhoto {
	var contextWords []string
	for _, w := range strings.Fields(lowerText(context)) {
		if len(w) > 2 {
			contextWords = append(contextWords, w)
		}
	}
	concepts := r.opt.ExtractConcepts(context)
	keywords := r.opt.ExtractVisualKeywords(r.opt.CleanQuery(context))

	ranked := make([]RankedPhoto, 0, len(photos))
	for _, p := range photos {
		score := r.score(p, contextWords, concepts, keywords, context, theme)
		if score > 0 {
			ranked = append(ranked, RankedPhoto{PhotoCandidate: p, Score: score})
		}
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Score > ranked[j].Score
	})
	return ranked
}

func (r *Ranker) score(p PhotoCandidate, contextWords, concepts, keywords []string, context string, theme *ThemeColors) float64 {
	var score float64
	alt := lowerText(p.Alt)

	if alt != "" {
		for _, w := range contextWords {
			if len(w) <= 3 {
				continue
			}
			if strings.Contains(alt, w) {
				score += 3
			} else if strings.Contains(alt, w[:len(w)-1]) || strings.Contains(alt, w+"s") {
				score += 1.5
			}
		}
		for _, c := range concepts {
			if strings.Contains(alt, lowerText(c)) {
				score += 4
			}
		}
		for _, k := range keywords {
			if strings.Contains(alt, lowerText(k)) {
				score += 2
			}
		}
	}

	if p.Width >= 3000 && p.Height >= 2000 {
		score += 1
	}
	if len(p.Alt) > 20 {
		score += 0.5
	}

	for _, term := range businessTerms {
		if strings.Contains(alt, term) {
			score += 0.5
		}
	}

	if p.Photographer != "" {
		name := lowerText(p.Photographer)
		for _, w := range contextWords {
			if strings.Contains(name, w) {
				score += 0.5
				break
			}
		}
	}

	if theme != nil && p.AvgColor != "" {
		score += colorRelevance(p.AvgColor, context, theme)
	}

	if p.Liked {
		score += 0.3
	}
	return score
}

// BasicRelevance is the cheap scorer for curated photos, capped at 1.
func (r *Ranker) BasicRelevance(p PhotoCandidate, context string) float64 {
	var score float64
	if p.Alt != "" {
		alt := lowerText(p.Alt)
		for _, w := range strings.Split(lowerText(context), " ") {
			if len(w) > 3 && strings.Contains(alt, w) {
				score += 0.2
			}
		}
		if strings.Contains(p.Alt, "business") || strings.Contains(p.Alt, "office") || strings.Contains(p.Alt, "professional") {
			score += 0.1
		}
	}
	return min(score, 1.0)
}
