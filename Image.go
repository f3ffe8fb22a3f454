package main

import (
	"context"
	"fmt"
	"strings"
)

type PhotoSrc struct {
	Original string `json:"original"`
	Large2x  string `json:"large2x"`
	Large    string `json:"large"`
	Medium   string `json:"medium"`
}

// PhotoCandidate is a photo as returned by a provider, normalised across providers.
type PhotoCandidate struct {
	ID              string   `json:"id"`
	Width           int      `json:"width"`
	Height          int      `json:"height"`
	Alt             string   `json:"alt"`
	Photographer    string   `json:"photographer"`
	PhotographerURL string   `json:"photographer_url"`
	AvgColor        string   `json:"avg_color"`
	Liked           bool     `json:"liked"`
	Src             PhotoSrc `json:"src"`
	Source          string   `json:"source"`
	PageURL         string   `json:"url"`
}

type RankedPhoto struct {
	PhotoCandidate
	Score float64 `json:"relevanceScore"`
}

type Attribution struct {
	Text string `json:"text"`
	HTML string `json:"html"`
}

// FormattedPhoto is what callers of GetImageForSlide receive.
type FormattedPhoto struct {
	ID              string      `json:"id"`
	URL             string      `json:"url"`
	ThumbnailURL    string      `json:"thumbnail"`
	OriginalURL     string      `json:"original"`
	Photographer    string      `json:"photographer"`
	PhotographerURL string      `json:"photographerUrl"`
	AvgColor        string      `json:"avgColor"`
	Alt             string      `json:"alt"`
	Width           int         `json:"width"`
	Height          int         `json:"height"`
	Attribution     Attribution `json:"attribution"`
}

// ThemeColors are hex colours, with or without the leading '#'.
type ThemeColors struct {
	Primary   string `json:"primaryColor"`
	Secondary string `json:"secondaryColor"`
}

type SearchOptions struct {
	Page        int
	PerPage     int
	Orientation string
	Size        string
	Color       string
	Locale      string
}

func (o SearchOptions) withDefaults() SearchOptions {
	if o.Page < 1 {
		o.Page = 1
	}
	if o.PerPage < 1 {
		o.PerPage = 15
	}
	if o.Size == "" {
		o.Size = "large"
	}
	if o.Locale == "" {
		o.Locale = "en-US"
	}
	return o
}

// SearchQuery is a query string plus the metadata the orchestrator branches on.
type SearchQuery struct {
	text  string
	words []string
}

func NewSearchQuery(text string) SearchQuery {
	t := strings.TrimSpace(text)
	return SearchQuery{text: t, words: strings.Fields(t)}
}

func (q SearchQuery) String() string { return q.text }

func (q SearchQuery) Words() []string { return append([]string(nil), q.words...) }

func (q SearchQuery) WordCount() int { return len(q.words) }

// PreOptimized reports whether the query is already a terse search term.
func (q SearchQuery) PreOptimized() bool { return len(q.words) <= 2 }

// PhotoService is implemented by each stock photo provider.
type PhotoService interface {
	Search(ctx context.Context, apiKey string, query string, opts SearchOptions) ([]PhotoCandidate, error)
	Curated(ctx context.Context, apiKey string, page int, perPage int) ([]PhotoCandidate, error)
	Type() string
	Name() string
	SiteURL() string
	PageSize() int
}

// formatPhoto builds the caller-facing result, attributing the provider.
func formatPhoto(p PhotoCandidate, siteName, siteURL string) *FormattedPhoto {
	url := p.Src.Large2x
	if url == "" {
		url = p.Src.Large
	}
	return &FormattedPhoto{
		ID:              p.ID,
		URL:             url,
		ThumbnailURL:    p.Src.Medium,
		OriginalURL:     p.Src.Original,
		Photographer:    p.Photographer,
		PhotographerURL: p.PhotographerURL,
		AvgColor:        p.AvgColor,
		Alt:             p.Alt,
		Width:           p.Width,
		Height:          p.Height,
		Attribution: Attribution{
			Text: fmt.Sprintf("Photo by %s on %s", p.Photographer, siteName),
			HTML: fmt.Sprintf(`Photo by <a href="%s?utm_source=%s&utm_medium=referral">%s</a> on <a href="%s?utm_source=%s&utm_medium=referral">%s</a>`,
				p.PhotographerURL, strings.ToLower(siteName), p.Photographer,
				siteURL, strings.ToLower(siteName), siteName),
		},
	}
}
