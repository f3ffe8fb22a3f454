package main

import (
	"context"
	"log"
	"net/http"
	"net/url"
	"strconv"
)

type PexelsPhoto struct {
	Id              int            `json:"id"`
	Width           int            `json:"width"`
	Height          int            `json:"height"`
	Url             string         `json:"url"`
	Alt             string         `json:"alt"`
	Photographer    string         `json:"photographer"`
	PhotographerUrl string         `json:"photographer_url"`
	PhotographerId  int            `json:"photographer_id"`
	AvgColor        string         `json:"avg_color"`
	Liked           bool           `json:"liked"`
	Src             PexelsPhotoSrc `json:"src"`
}

type PexelsPhotoSrc struct {
	Original string `json:"original"`
	Large2x  string `json:"large2x"`
	Large    string `json:"large"`
	Medium   string `json:"medium"`
}

type PexelsSearchResult struct {
	TotalResults int           `json:"total_results"`
	Page         int           `json:"page"`
	PerPage      int           `json:"per_page"`
	Photos       []PexelsPhoto `json:"photos"`
}

type PexelsApi struct {
	Http    *http.Client
	limits  *RateLimitInfo
	baseUrl string
	log     *log.Logger
}

func NewPexelsApi(cfg *Config, limits *RateLimitInfo) *PexelsApi {
	base := cfg.Pexels.BaseURL
	if base == "" {
		base = "https://api.pexels.com/v1"
	}
	return &PexelsApi{
		Http:    &http.Client{Timeout: cfg.Provider.timeout()},
		limits:  limits,
		baseUrl: base,
		log:     newLogger("pexels"),
	}
}

func (api *PexelsApi) Type() string    { return "pexels" }
func (api *PexelsApi) Name() string    { return "Pexels" }
func (api *PexelsApi) SiteURL() string { return "https://www.pexels.com" }
func (api *PexelsApi) PageSize() int   { return 80 }

func (api *PexelsApi) Search(ctx context.Context, apiKey string, query string, opts SearchOptions) ([]PhotoCandidate, error) {
	opts = opts.withDefaults()
	qParam := url.Values{}
	qParam.Add("query", query)
	qParam.Add("page", strconv.Itoa(opts.Page))
	qParam.Add("per_page", strconv.Itoa(opts.PerPage))
	if opts.Orientation != "" {
		qParam.Add("orientation", opts.Orientation)
	}
	qParam.Add("size", opts.Size)
	qParam.Add("locale", opts.Locale)
	if opts.Color != "" {
		qParam.Add("color", opts.Color)
	}
	return api.fetch(ctx, apiKey, api.baseUrl+"/search", qParam)
}

func (api *PexelsApi) Curated(ctx context.Context, apiKey string, page int, perPage int) ([]PhotoCandidate, error) {
	qParam := url.Values{}
	qParam.Add("page", strconv.Itoa(page))
	qParam.Add("per_page", strconv.Itoa(perPage))
	return api.fetch(ctx, apiKey, api.baseUrl+"/curated", qParam)
}

func (api *PexelsApi) fetch(ctx context.Context, apiKey string, endpoint string, qParam url.Values) ([]PhotoCandidate, error) {
	header := http.Header{}
	header.Set("Authorization", apiKey)

	data := PexelsSearchResult{}
	if err := getJSON(ctx, api.Http, api.Type(), endpoint, qParam, header, api.limits, &data); err != nil {
		api.log.Println("Failed to fetch:", err)
		return nil, err
	}
	output := make([]PhotoCandidate, len(data.Photos))
	for i, el := range data.Photos {
		output[i] = PhotoCandidate{
			ID:              strconv.Itoa(el.Id),
			Width:           el.Width,
			Height:          el.Height,
			Alt:             el.Alt,
			Photographer:    el.Photographer,
			PhotographerURL: el.PhotographerUrl,
			AvgColor:        el.AvgColor,
			Liked:           el.Liked,
			Src: PhotoSrc{
				Original: el.Src.Original,
				Large2x:  el.Src.Large2x,
				Large:    el.Src.Large,
				Medium:   el.Src.Medium,
			},
			Source:  api.Name(),
			PageURL: el.Url,
		}
	}
	return output, nil
}
