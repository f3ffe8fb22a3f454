package main

import (
	"log"
	"regexp"
	"strings"
)

var nonWord = regexp.MustCompile(`[^\w\s]`)

// QueryOptimizer turns slide descriptions into short stock photo queries.
type QueryOptimizer struct {
	log *log.Logger
}

func NewQueryOptimizer() *QueryOptimizer {
	return &QueryOptimizer{log: newLogger("query")}
}

// Optimize returns the single best search query for a description. Terse
// descriptions of one or two words are returned as they are.
func (o *QueryOptimizer) Optimize(description string) string {
	q := NewSearchQuery(description)
	if q.PreOptimized() {
		debugf(o.log, "Using pre-optimized query as-is: %q", q)
		return q.String()
	}

	query := lowerText(description)
	for _, phrase := range fillerPhrases {
		query = strings.ReplaceAll(query, phrase, "")
	}

	cleaned := o.CleanQuery(query)
	variations := o.GenerateVariations(o.ExtractVisualKeywords(cleaned))
	if len(variations) > 0 {
		return variations[0]
	}
	return cleaned
}

// CleanQuery lower-cases and drops stop words and words of two letters or less.
func (o *QueryOptimizer) CleanQuery(query string) string {
	var kept []string
	for _, w := range strings.Fields(lowerText(query)) {
		if len(w) > 2 && !stopWords[w] {
			kept = append(kept, w)
		}
	}
	return strings.Join(kept, " ")
}

// ExtractVisualKeywords ranks the words of text for photo search: concept
// phrases first, then concrete visual nouns, then other words.
func (o *QueryOptimizer) ExtractVisualKeywords(text string) []string {
	words := tokenize(text, 2)

	var priority, secondary []string
	mapped := make(map[string]bool)
	for _, w := range words {
		c, ok := matchConcept(w)
		if !ok {
			continue
		}
		if !mapped[c.Topic] {
			priority = append(priority, c.Phrases[0])
			mapped[c.Topic] = true
		}
	}

	for _, w := range words {
		switch {
		case mapped[w]:
		case visualTerms[w]:
			priority = append(priority, w)
		case len(w) > 3:
			secondary = append(secondary, w)
		}
	}

	terms := dedupe(append(priority, secondary...))
	if len(terms) > 6 {
		terms = terms[:6]
	}
	return terms
}

// GenerateVariations builds up to five alternative queries from ranked keywords.
func (o *QueryOptimizer) GenerateVariations(keywords []string) []string {
	if len(keywords) == 0 {
		return nil
	}
	var variations []string
	variations = append(variations, strings.Join(keywords[:min(3, len(keywords))], " "))

	primary := keywords[0]
	for _, prefix := range industryPrefixes {
		if primary != "" && !strings.Contains(primary, prefix) {
			variations = append(variations, prefix+" "+primary)
		}
	}

	rest := keywords[1:min(3, len(keywords))]
	switch {
	case strings.HasSuffix(primary, "s") && len(primary) > 3:
		variations = append(variations, joinWords(primary[:len(primary)-1], rest))
	case !strings.HasSuffix(primary, "s"):
		variations = append(variations, joinWords(primary+"s", rest))
	}

	var out []string
	for _, v := range dedupe(variations) {
		if v != "" {
			out = append(out, v)
		}
	}
	if len(out) > 5 {
		out = out[:5]
	}
	return out
}

// ExtractConcepts returns the leading phrase of every concept mentioned in text.
func (o *QueryOptimizer) ExtractConcepts(text string) []string {
	words := tokenize(text, 1)
	var concepts []string
	for _, c := range conceptDictionary {
		for _, w := range words {
			if conceptMatches(c.Topic, w) {
				concepts = append(concepts, c.Phrases[0])
				break
			}
		}
	}
	return concepts
}

// MoreSpecificWord prefers a concrete word over an abstract one, else the longer.
func (o *QueryOptimizer) MoreSpecificWord(word1, word2 string) string {
	l1, l2 := lowerText(word1), lowerText(word2)
	switch {
	case concreteWords[l1] && !concreteWords[l2]:
		return word1
	case concreteWords[l2] && !concreteWords[l1]:
		return word2
	case genericWords[l1] && !genericWords[l2]:
		return word2
	case genericWords[l2] && !genericWords[l1]:
		return word1
	case len(word1) >= len(word2):
		return word1
	}
	return word2
}

func (o *QueryOptimizer) ContextualPrefixes(word string) []string {
	w := lowerText(word)
	for _, cp := range contextualPrefixes {
		if cp.words[w] {
			return cp.prefixes
		}
	}
	return defaultPrefixes
}

// FallbackQueries derives broader queries from an optimized one.
func (o *QueryOptimizer) FallbackQueries(query string) []string {
	words := strings.Fields(query)
	var fallbacks []string
	if len(words) > 2 {
		fallbacks = append(fallbacks, strings.Join(words[len(words)-2:], " "))
	}
category:
	for _, fc := range fallbackCategories {
		for _, w := range words {
			for _, kw := range fc.keywords {
				if strings.Contains(w, kw) {
					fallbacks = append(fallbacks, fc.category)
					break category
				}
			}
		}
	}
	fallbacks = append(fallbacks, "business background")
	return dedupe(fallbacks)
}

// matchConcept finds the first concept whose topic the word is or contains.
func matchConcept(word string) (Concept, bool) {
	for _, c := range conceptDictionary {
		if conceptMatches(c.Topic, word) {
			return c, true
		}
	}
	return Concept{}, false
}

// conceptMatches allows inflections and compounds ("meetings", "bigdata") but
// keeps short topics like "ai" from matching inside unrelated words.
func conceptMatches(topic, word string) bool {
	if word == topic {
		return true
	}
	return len(topic) > 3 && strings.Contains(word, topic)
}

// tokenize lower-cases text, strips punctuation and keeps words longer than minLen.
func tokenize(text string, minLen int) []string {
	var words []string
	for _, w := range strings.Fields(nonWord.ReplaceAllString(lowerText(text), " ")) {
		if len(w) > minLen {
			words = append(words, w)
		}
	}
	return words
}

func joinWords(first string, rest []string) string {
	return strings.TrimSpace(first + " " + strings.Join(rest, " "))
}

func dedupe(items []string) []string {
	seen := make(map[string]bool, len(items))
	out := make([]string, 0, len(items))
	for _, it := range items {
		if !seen[it] {
			seen[it] = true
			out = append(out, it)
		}
	}
	return out
}
