package main

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type searchCall struct {
	Query string
	Opts  SearchOptions
}

// fakeService answers searches from a function and records every call.
type fakeService struct {
	mu       sync.Mutex
	calls    []searchCall
	curated  int
	search   func(query string, opts SearchOptions) ([]PhotoCandidate, error)
	featured []PhotoCandidate
}

func (f *fakeService) Search(_ context.Context, _ string, query string, opts SearchOptions) ([]PhotoCandidate, error) {
	f.mu.Lock()
	f.calls = append(f.calls, searchCall{Query: query, Opts: opts})
	search := f.search
	f.mu.Unlock()
	if search == nil {
		return nil, nil
	}
	return search(query, opts)
}

func (f *fakeService) Curated(_ context.Context, _ string, page int, perPage int) ([]PhotoCandidate, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.curated++
	return f.featured, nil
}

func (f *fakeService) Type() string    { return "fake" }
func (f *fakeService) Name() string    { return "Fake" }
func (f *fakeService) SiteURL() string { return "https://fake.example" }
func (f *fakeService) PageSize() int   { return 30 }

func (f *fakeService) searches() []searchCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]searchCall(nil), f.calls...)
}

func (f *fakeService) curatedCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.curated
}

type memorySelections struct {
	mu   sync.Mutex
	rows []Selection
}

func (m *memorySelections) RecordSelection(sel Selection) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rows = append(m.rows, sel)
	return nil
}

func newTestClient(t *testing.T, svc PhotoService, key string) *ImageClient {
	t.Helper()
	c := NewImageClient(svc, NewRateLimitInfo(180, nil), ClientOptions{
		APIKey:       key,
		Queue:        QueueOptions{MinDelay: time.Millisecond, Window: time.Hour, MaxPerWindow: 1000},
		Cache:        DefaultCacheOptions(),
		RetryBackoff: 20 * time.Millisecond,
	})
	t.Cleanup(c.Close)
	return c
}

func TestOrientationForLayout(t *testing.T) {
	assert.Equal(t, "landscape", orientationFor("full-width"))
	assert.Equal(t, "landscape", orientationFor("background"))
	assert.Equal(t, "square", orientationFor("side-by-side"))
	assert.Equal(t, "square", orientationFor("text-focus"))
	assert.Equal(t, "landscape", orientationFor("something-else"))
	assert.Equal(t, "landscape", orientationFor(""))
}

func TestGetImageForSlidePrimary(t *testing.T) {
	photo := PhotoCandidate{
		ID:           "4000",
		Width:        4000,
		Height:       2500,
		Alt:          "medical staff training session",
		Photographer: "Jane Doe",
		Src:          PhotoSrc{Large2x: "https://img/large2x.jpg", Large: "https://img/large.jpg", Medium: "https://img/medium.jpg"},
	}
	svc := &fakeService{search: func(string, SearchOptions) ([]PhotoCandidate, error) {
		return []PhotoCandidate{photo}, nil
	}}
	history := &memorySelections{}
	o := NewOrchestrator(newTestClient(t, svc, "key"), history)

	got := o.GetImageForSlide("healthcare training", "full-width", nil)
	require.NotNil(t, got)
	assert.Equal(t, "4000", got.ID)
	assert.Equal(t, "https://img/large2x.jpg", got.URL)
	assert.Equal(t, "Photo by Jane Doe on Fake", got.Attribution.Text)

	calls := svc.searches()
	require.NotEmpty(t, calls)
	assert.Equal(t, "healthcare training", calls[0].Query)
	assert.Equal(t, "landscape", calls[0].Opts.Orientation)
	assert.Equal(t, 15, calls[0].Opts.PerPage)
	assert.Zero(t, svc.curatedCalls())

	ranked := o.ranker.Rank([]PhotoCandidate{photo}, "healthcare training", nil)
	require.Len(t, ranked, 1)
	assert.Greater(t, ranked[0].Score, 0.0)

	require.Len(t, history.rows, 1)
	assert.Equal(t, "primary", history.rows[0].Strategy)
	assert.Equal(t, "4000", history.rows[0].PhotoID)
}

func TestGetImageForSlideTwoWordVariations(t *testing.T) {
	svc := &fakeService{}
	o := NewOrchestrator(newTestClient(t, svc, "key"), nil)
	o.GetImageForSlide("healthcare training", "side-by-side", nil)

	var queries []string
	for _, c := range svc.searches() {
		if c.Opts.Orientation == "square" && c.Opts.PerPage != 20 {
			queries = append(queries, c.Query)
		}
	}
	require.GreaterOrEqual(t, len(queries), 4)
	assert.Equal(t, []string{"healthcare training", "training healthcare", "healthcare", "training"}, queries[:4])
}

func TestGetImageForSlideFallsThroughToCurated(t *testing.T) {
	svc := &fakeService{
		featured: []PhotoCandidate{
			{ID: "sunset", Alt: "sunset over the sea"},
			{ID: "review", Alt: "quarterly review in business office"},
		},
	}
	history := &memorySelections{}
	o := NewOrchestrator(newTestClient(t, svc, "key"), history)

	got := o.GetImageForSlide("leadership team review", "full-width", nil)
	require.NotNil(t, got)
	assert.Equal(t, "review", got.ID)
	assert.Equal(t, 1, svc.curatedCalls())

	var sawConcept, sawBroad bool
	for _, c := range svc.searches() {
		if c.Query == "business leader" {
			sawConcept = true
		}
		if c.Query == "leadership team" && c.Opts.Orientation == "" && c.Opts.PerPage == 20 {
			sawBroad = true
		}
	}
	assert.True(t, sawConcept, "concept strategy searched")
	assert.True(t, sawBroad, "broad strategy searched without orientation")

	require.Len(t, history.rows, 1)
	assert.Equal(t, "curated", history.rows[0].Strategy)
}

func TestGetImageForSlideCuratedFirstWhenNothingRelevant(t *testing.T) {
	svc := &fakeService{
		featured: []PhotoCandidate{
			{ID: "first", Alt: "sunset over the sea"},
			{ID: "second", Alt: "mountain lake"},
		},
	}
	o := NewOrchestrator(newTestClient(t, svc, "key"), nil)

	got := o.GetImageForSlide("zebra", "full-width", nil)
	require.NotNil(t, got)
	assert.Equal(t, "first", got.ID)
}

func TestGetImageForSlideBroadFiltersOrientation(t *testing.T) {
	svc := &fakeService{search: func(query string, opts SearchOptions) ([]PhotoCandidate, error) {
		if opts.PerPage != 20 {
			return nil, nil
		}
		return []PhotoCandidate{
			{ID: "portrait", Width: 1000, Height: 2000},
			{ID: "wide", Width: 3000, Height: 2000},
		}, nil
	}}
	history := &memorySelections{}
	o := NewOrchestrator(newTestClient(t, svc, "key"), history)

	got := o.GetImageForSlide("quarterly numbers overview", "background", nil)
	require.NotNil(t, got)
	assert.Equal(t, "wide", got.ID)
	assert.Equal(t, "broad", history.rows[0].Strategy)
	assert.Zero(t, svc.curatedCalls())
}

func TestGetImageForSlideMissingKey(t *testing.T) {
	svc := &fakeService{featured: []PhotoCandidate{{ID: "x"}}}
	history := &memorySelections{}
	o := NewOrchestrator(newTestClient(t, svc, ""), history)

	assert.Nil(t, o.GetImageForSlide("healthcare training", "full-width", nil))
	assert.Empty(t, svc.searches())
	assert.Zero(t, svc.curatedCalls())
	require.Len(t, history.rows, 1)
	assert.Equal(t, "none", history.rows[0].Strategy)
}

func TestGetImageForSlideInvalidKeyStops(t *testing.T) {
	svc := &fakeService{
		search: func(string, SearchOptions) ([]PhotoCandidate, error) {
			return nil, ErrInvalidAPIKey
		},
		featured: []PhotoCandidate{{ID: "x"}},
	}
	o := NewOrchestrator(newTestClient(t, svc, "bad"), nil)

	assert.Nil(t, o.GetImageForSlide("healthcare training", "full-width", nil))
	assert.Len(t, svc.searches(), 1)
	assert.Zero(t, svc.curatedCalls())
}

func TestGetImageForSlideServiceErrorFallsThrough(t *testing.T) {
	svc := &fakeService{
		search: func(string, SearchOptions) ([]PhotoCandidate, error) {
			return nil, &ServiceError{Provider: "fake", Status: 500}
		},
		featured: []PhotoCandidate{{ID: "curated"}},
	}
	o := NewOrchestrator(newTestClient(t, svc, "key"), nil)

	got := o.GetImageForSlide("healthcare training", "full-width", nil)
	require.NotNil(t, got)
	assert.Equal(t, "curated", got.ID)
}

func TestMatchesOrientation(t *testing.T) {
	assert.True(t, matchesOrientation(PhotoCandidate{Width: 300, Height: 200}, "landscape"))
	assert.False(t, matchesOrientation(PhotoCandidate{Width: 200, Height: 300}, "landscape"))
	assert.True(t, matchesOrientation(PhotoCandidate{Width: 1000, Height: 900}, "square"))
	assert.False(t, matchesOrientation(PhotoCandidate{Width: 1000, Height: 700}, "square"))
	assert.False(t, matchesOrientation(PhotoCandidate{}, "square"))
	assert.True(t, matchesOrientation(PhotoCandidate{Width: 1, Height: 5}, ""))
}

func TestCandidatesUseProviderPages(t *testing.T) {
	var photos []PhotoCandidate
	for i := 0; i < 30; i++ {
		photos = append(photos, PhotoCandidate{ID: string(rune('a' + i%26)) + string(rune('0'+i/26)), Alt: "office desk", Liked: true})
	}
	svc := &fakeService{search: func(query string, opts SearchOptions) ([]PhotoCandidate, error) {
		return photos, nil
	}}
	o := NewOrchestrator(newTestClient(t, svc, "key"), nil)

	ranked, err := o.Candidates(context.Background(), "office desk", 2)
	require.NoError(t, err)
	// page 2 of 25 over provider pages of 30 is items [25:30) of page 1 and [0:20) of page 2
	assert.Len(t, ranked, 25)

	calls := svc.searches()
	require.Len(t, calls, 2)
	assert.Equal(t, 1, calls[0].Opts.Page)
	assert.Equal(t, 2, calls[1].Opts.Page)
	assert.Equal(t, 30, calls[0].Opts.PerPage)
}
