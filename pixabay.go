package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"strconv"
	"strings"
)

type PixabaySearchItem struct {
	Id            int    `json:"id"`
	Tags          string `json:"tags"`
	WebFormatUrl  string `json:"webformatURL"`
	LargeImageUrl string `json:"largeImageURL"`
	ImageUrl      string `json:"imageURL"`
	ImageWidth    int    `json:"imageWidth"`
	ImageHeight   int    `json:"imageHeight"`
	UserId        int    `json:"user_id"`
	User          string `json:"user"`
	PageUrl       string `json:"pageURL"`
}

type PixabaySearchResult struct {
	Total     int                 `json:"total"`
	TotalHits int                 `json:"totalHits"`
	Hits      []PixabaySearchItem `json:"hits"`
}

type PixabayApi struct {
	Http    *http.Client
	limits  *RateLimitInfo
	baseUrl string
	log     *log.Logger
}

func NewPixabayApi(cfg *Config, limits *RateLimitInfo) *PixabayApi {
	base := cfg.Pixabay.BaseURL
	if base == "" {
		base = "https://pixabay.com/api/"
	}
	return &PixabayApi{
		Http:    &http.Client{Timeout: cfg.Provider.timeout()},
		limits:  limits,
		baseUrl: base,
		log:     newLogger("pixabay"),
	}
}

func (api *PixabayApi) Type() string    { return "pixabay" }
func (api *PixabayApi) Name() string    { return "Pixabay" }
func (api *PixabayApi) SiteURL() string { return "https://pixabay.com" }
func (api *PixabayApi) PageSize() int   { return 200 }

func (api *PixabayApi) Search(ctx context.Context, apiKey string, query string, opts SearchOptions) ([]PhotoCandidate, error) {
	opts = opts.withDefaults()
	qParam := api.params(apiKey, opts.Page, opts.PerPage)
	qParam.Add("q", query)
	// pixabay has no square filter; the orchestrator filters by aspect itself.
	if opts.Orientation == "landscape" {
		qParam.Add("orientation", "horizontal")
	} else if opts.Orientation == "portrait" {
		qParam.Add("orientation", "vertical")
	}
	if opts.Color != "" {
		qParam.Add("colors", opts.Color)
	}
	if lang, _, ok := strings.Cut(opts.Locale, "-"); ok {
		qParam.Add("lang", strings.ToLower(lang))
	}
	return api.fetch(ctx, qParam)
}

func (api *PixabayApi) Curated(ctx context.Context, apiKey string, page int, perPage int) ([]PhotoCandidate, error) {
	qParam := api.params(apiKey, page, perPage)
	qParam.Add("editors_choice", "true")
	return api.fetch(ctx, qParam)
}

func (api *PixabayApi) params(apiKey string, page, perPage int) url.Values {
	qParam := url.Values{}
	qParam.Add("key", apiKey)
	qParam.Add("image_type", "photo")
	qParam.Add("page", strconv.Itoa(page))
	// pixabay rejects per_page outside 3..200
	qParam.Add("per_page", strconv.Itoa(min(max(perPage, 3), api.PageSize())))
	return qParam
}

func (api *PixabayApi) fetch(ctx context.Context, qParam url.Values) ([]PhotoCandidate, error) {
	data := PixabaySearchResult{}
	if err := getJSON(ctx, api.Http, api.Type(), api.baseUrl, qParam, nil, api.limits, &data); err != nil {
		api.log.Println("Failed to fetch:", err)
		return nil, err
	}
	output := make([]PhotoCandidate, len(data.Hits))
	for i, el := range data.Hits {
		output[i] = PhotoCandidate{
			ID:              strconv.Itoa(el.Id),
			Width:           el.ImageWidth,
			Height:          el.ImageHeight,
			Alt:             el.Tags,
			Photographer:    el.User,
			PhotographerURL: fmt.Sprintf("https://pixabay.com/users/%s-%d/", el.User, el.UserId),
			Src: PhotoSrc{
				Original: el.ImageUrl,
				Large2x:  el.LargeImageUrl,
				Large:    el.LargeImageUrl,
				Medium:   el.WebFormatUrl,
			},
			Source:  api.Name(),
			PageURL: el.PageUrl,
		}
	}
	return output, nil
}
