package main

import (
	"context"
	"log"
	"math"
	"sort"
	"strings"
	"time"
)

const (
	enoughPhotos   = 10
	tooFewPhotos   = 5
	curatedPerPage = 30
	curatedMinimum = 0.1
)

// SelectionLog receives every image decision; the sqlite store implements it.
type SelectionLog interface {
	RecordSelection(sel Selection) error
}

// Orchestrator picks the photo for a slide by trying progressively broader
// search strategies.
type Orchestrator struct {
	client  *ImageClient
	opt     *QueryOptimizer
	ranker  *Ranker
	history SelectionLog
	log     *log.Logger
}

func NewOrchestrator(client *ImageClient, history SelectionLog) *Orchestrator {
	opt := NewQueryOptimizer()
	return &Orchestrator{
		client:  client,
		opt:     opt,
		ranker:  NewRanker(opt),
		history: history,
		log:     newLogger("search"),
	}
}

// orientationFor maps a slide image layout to a provider orientation.
func orientationFor(layout string) string {
	switch layout {
	case "side-by-side", "text-focus":
		return "square"
	}
	return "landscape"
}

type strategy struct {
	name string
	run  func() (*FormattedPhoto, error)
}

// GetImageForSlide returns the best photo for a slide description, or nil when
// nothing suitable was found. It never fails: errors are logged and the next
// strategy is tried.
func (o *Orchestrator) GetImageForSlide(description, layout string, theme *ThemeColors) *FormattedPhoto {
	orientation := orientationFor(layout)
	q := NewSearchQuery(description)
	o.log.Printf("Searching for image: %q (layout %s, orientation %s)", q, layout, orientation)

	status := o.client.Status()
	if float64(status.RequestsInCurrentHour) > float64(status.MaxRequestsPerHour)*0.8 {
		o.log.Printf("WARN approaching rate limit: %d/%d requests this hour", status.RequestsInCurrentHour, status.MaxRequestsPerHour)
	}

	strategies := []strategy{
		{"primary", func() (*FormattedPhoto, error) { return o.primaryStrategy(q, orientation, theme) }},
		{"concept", func() (*FormattedPhoto, error) { return o.conceptStrategy(q.String(), orientation) }},
		{"broad", func() (*FormattedPhoto, error) { return o.broadStrategy(q.String(), orientation) }},
		{"curated", func() (*FormattedPhoto, error) { return o.curatedStrategy(q.String()) }},
	}

	var found *FormattedPhoto
	used := "none"
	for _, s := range strategies {
		photo, err := s.run()
		if err != nil {
			if isConfigError(err) {
				o.log.Printf("Error getting image for slide: %v", err)
				break
			}
			o.log.Printf("%s strategy failed: %v", s.name, err)
			continue
		}
		if photo != nil {
			found, used = photo, s.name
			o.log.Printf("Found image %s using %s strategy", photo.ID, s.name)
			break
		}
	}
	if found == nil {
		o.log.Println("No suitable images found")
	}

	o.client.record("strategy", used)
	o.remember(q.String(), layout, used, found)
	return found
}

func (o *Orchestrator) remember(description, layout, strategy string, photo *FormattedPhoto) {
	if o.history == nil {
		return
	}
	sel := Selection{
		Description: description,
		Layout:      layout,
		Strategy:    strategy,
		Provider:    o.client.Provider().Type(),
		CreatedAt:   time.Now(),
	}
	if photo != nil {
		sel.PhotoID = photo.ID
		sel.PhotoURL = photo.URL
	}
	if err := o.history.RecordSelection(sel); err != nil {
		o.log.Println("Failed to record selection:", err)
	}
}

// primaryStrategy searches the description (optimized when it is long) and
// its variations, then ranks everything found.
func (o *Orchestrator) primaryStrategy(q SearchQuery, orientation string, theme *ThemeColors) (*FormattedPhoto, error) {
	if q.WordCount() == 0 {
		return nil, nil
	}
	var all []PhotoCandidate
	var variations []string

	if q.PreOptimized() {
		debugf(o.log, "Primary search - direct query: %q", q)
		photos, err := o.client.SearchPhotos(q.String(), SearchOptions{PerPage: 15, Orientation: orientation})
		if err != nil {
			return nil, err
		}
		all = photos

		words := q.Words()
		switch len(words) {
		case 2:
			specific := o.opt.MoreSpecificWord(words[0], words[1])
			other := words[0]
			if other == specific {
				other = words[1]
			}
			variations = []string{words[1] + " " + words[0], specific, other}
		case 1:
			for _, prefix := range o.opt.ContextualPrefixes(words[0]) {
				variations = append(variations, prefix+" "+words[0])
			}
		}
	} else {
		optimized := o.opt.Optimize(q.String())
		variations = o.opt.GenerateVariations(o.opt.ExtractVisualKeywords(o.opt.CleanQuery(q.String())))
		debugf(o.log, "Primary search - optimized: %q", optimized)
		photos, err := o.client.SearchPhotos(optimized, SearchOptions{PerPage: 15, Orientation: orientation})
		if err != nil {
			return nil, err
		}
		all = photos
	}
	debugf(o.log, "Variations: %s", strings.Join(variations, ", "))

	if len(all) < enoughPhotos && len(variations) > 0 {
		var twoWord, oneWord []string
		for _, v := range variations {
			switch len(strings.Fields(v)) {
			case 2:
				twoWord = append(twoWord, v)
			case 1:
				oneWord = append(oneWord, v)
			}
		}
		for _, v := range twoWord {
			if v == q.String() || len(all) >= enoughPhotos {
				continue
			}
			photos, err := o.client.SearchPhotos(v, SearchOptions{PerPage: 10, Orientation: orientation})
			if err != nil {
				return nil, err
			}
			all = append(all, photos...)
		}
		if len(all) < tooFewPhotos {
			for _, v := range oneWord {
				if len(all) >= enoughPhotos {
					break
				}
				photos, err := o.client.SearchPhotos(v, SearchOptions{PerPage: 10, Orientation: orientation})
				if err != nil {
					return nil, err
				}
				all = append(all, photos...)
			}
		}
	}

	ranked := o.ranker.Rank(dedupePhotos(all), q.String(), theme)
	if len(ranked) == 0 {
		return nil, nil
	}
	return o.format(ranked[0].PhotoCandidate), nil
}

// conceptStrategy searches the concept phrases found in the slide text.
func (o *Orchestrator) conceptStrategy(text, orientation string) (*FormattedPhoto, error) {
	concepts := o.opt.ExtractConcepts(text)
	if len(concepts) == 0 {
		return nil, nil
	}
	debugf(o.log, "Concept search - terms: %s", strings.Join(concepts, ", "))

	for _, concept := range concepts[:min(3, len(concepts))] {
		photos, err := o.client.SearchPhotos(concept, SearchOptions{PerPage: 10, Orientation: orientation})
		if err != nil {
			return nil, err
		}
		if len(photos) == 0 {
			continue
		}
		if ranked := o.ranker.Rank(photos, text, nil); len(ranked) > 0 {
			return o.format(ranked[0].PhotoCandidate), nil
		}
	}
	return nil, nil
}

// broadStrategy searches the first two long words with no orientation filter
// at the provider and filters the answer locally.
func (o *Orchestrator) broadStrategy(text, orientation string) (*FormattedPhoto, error) {
	var words []string
	for _, w := range strings.Split(lowerText(text), " ") {
		if len(w) > 3 {
			words = append(words, w)
		}
		if len(words) == 2 {
			break
		}
	}
	if len(words) == 0 {
		return nil, nil
	}
	query := strings.Join(words, " ")
	debugf(o.log, "Broad search - query: %q", query)

	photos, err := o.client.SearchPhotos(query, SearchOptions{PerPage: 20})
	if err != nil {
		return nil, err
	}
	for _, p := range photos {
		if matchesOrientation(p, orientation) {
			return o.format(p), nil
		}
	}
	return nil, nil
}

func matchesOrientation(p PhotoCandidate, orientation string) bool {
	switch orientation {
	case "landscape":
		return p.Width > p.Height
	case "square":
		longest := max(p.Width, p.Height)
		if longest == 0 {
			return false
		}
		return math.Abs(float64(p.Width-p.Height))/float64(longest) < 0.2
	}
	return true
}

// curatedStrategy falls back to the provider's editorial picks.
func (o *Orchestrator) curatedStrategy(text string) (*FormattedPhoto, error) {
	debugf(o.log, "Curated fallback - using editorial photos")
	photos, err := o.client.CuratedPhotos(1, curatedPerPage)
	if err != nil {
		return nil, err
	}
	if len(photos) == 0 {
		return nil, nil
	}

	scored := make([]RankedPhoto, len(photos))
	for i, p := range photos {
		scored[i] = RankedPhoto{PhotoCandidate: p, Score: o.ranker.BasicRelevance(p, text)}
	}
	sort.SliceStable(scored, func(i, j int) bool { return scored[i].Score > scored[j].Score })
	if scored[0].Score > curatedMinimum {
		return o.format(scored[0].PhotoCandidate), nil
	}
	return o.format(photos[0]), nil
}

func (o *Orchestrator) format(p PhotoCandidate) *FormattedPhoto {
	provider := o.client.Provider()
	return formatPhoto(p, provider.Name(), provider.SiteURL())
}

// Candidates ranks a page of photos for the description; used for manual picking.
func (o *Orchestrator) Candidates(ctx context.Context, description string, page int) ([]RankedPhoto, error) {
	query := o.opt.Optimize(description)
	provider := o.client.Provider()
	var all []PhotoCandidate
	for _, span := range SplitPages(page, PageSize, provider.PageSize()) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		photos, err := o.client.SearchPhotos(query, SearchOptions{Page: span.Page, PerPage: provider.PageSize()})
		if err != nil {
			return nil, err
		}
		first := min(len(photos), span.First)
		last := min(len(photos), span.Last)
		all = append(all, photos[first:last]...)
	}
	return o.ranker.Rank(dedupePhotos(all), description, nil), nil
}

func dedupePhotos(photos []PhotoCandidate) []PhotoCandidate {
	seen := make(map[string]bool, len(photos))
	out := make([]PhotoCandidate, 0, len(photos))
	for _, p := range photos {
		if seen[p.ID] {
			continue
		}
		seen[p.ID] = true
		out = append(out, p)
	}
	return out
}
