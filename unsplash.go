package main

import (
	"context"
	"log"
	"net/http"
	"net/url"
	"strconv"
)

type UnsplashPhoto struct {
	Id             string             `json:"id"`
	Width          int                `json:"width"`
	Height         int                `json:"height"`
	Color          string             `json:"color"`
	Description    string             `json:"description"`
	AltDescription string             `json:"alt_description"`
	LikedByUser    bool               `json:"liked_by_user"`
	User           UnsplashUser       `json:"user"`
	Urls           UnsplashUrls       `json:"urls"`
	Links          UnsplashPhotoLinks `json:"links"`
}

type UnsplashUser struct {
	Id       string            `json:"id"`
	Username string            `json:"username"`
	Name     string            `json:"name"`
	Links    UnsplashUserLinks `json:"links"`
}

type UnsplashPhotoLinks struct {
	Self     string `json:"self"`
	Html     string `json:"html"`
	Download string `json:"download"`
}

type UnsplashUserLinks struct {
	Self string `json:"self"`
	Html string `json:"html"`
}

type UnsplashUrls struct {
	Raw     string `json:"raw"`
	Full    string `json:"full"`
	Regular string `json:"regular"`
	Small   string `json:"small"`
}

type UnsplashSearchResult struct {
	Total      int             `json:"total"`
	TotalPages int             `json:"total_pages"`
	Results    []UnsplashPhoto `json:"results"`
}

type UnsplashApi struct {
	Http    *http.Client
	limits  *RateLimitInfo
	baseUrl string
	log     *log.Logger
}

func NewUnsplashApi(cfg *Config, limits *RateLimitInfo) *UnsplashApi {
	base := cfg.Unsplash.BaseURL
	if base == "" {
		base = "https://api.unsplash.com"
	}
	return &UnsplashApi{
		Http:    &http.Client{Timeout: cfg.Provider.timeout()},
		limits:  limits,
		baseUrl: base,
		log:     newLogger("unsplash"),
	}
}

func (unsp *UnsplashApi) Type() string    { return "unsplash" }
func (unsp *UnsplashApi) Name() string    { return "Unsplash" }
func (unsp *UnsplashApi) SiteURL() string { return "https://unsplash.com" }
func (unsp *UnsplashApi) PageSize() int   { return 30 }

func (unsp *UnsplashApi) Search(ctx context.Context, apiKey string, query string, opts SearchOptions) ([]PhotoCandidate, error) {
	opts = opts.withDefaults()
	qParam := url.Values{}
	qParam.Add("query", query)
	qParam.Add("page", strconv.Itoa(opts.Page))
	qParam.Add("per_page", strconv.Itoa(min(opts.PerPage, unsp.PageSize())))
	switch opts.Orientation {
	case "landscape", "portrait":
		qParam.Add("orientation", opts.Orientation)
	case "square":
		qParam.Add("orientation", "squarish")
	}
	if opts.Color != "" {
		qParam.Add("color", opts.Color)
	}
	data := UnsplashSearchResult{}
	if err := getJSON(ctx, unsp.Http, unsp.Type(), unsp.baseUrl+"/search/photos", qParam, unsp.header(apiKey), unsp.limits, &data); err != nil {
		unsp.log.Println("Failed to fetch:", err)
		return nil, err
	}
	return unsp.convert(data.Results), nil
}

// Curated uses the editorial feed, which is a bare JSON array.
func (unsp *UnsplashApi) Curated(ctx context.Context, apiKey string, page int, perPage int) ([]PhotoCandidate, error) {
	qParam := url.Values{}
	qParam.Add("page", strconv.Itoa(page))
	qParam.Add("per_page", strconv.Itoa(min(perPage, unsp.PageSize())))
	var data []UnsplashPhoto
	if err := getJSON(ctx, unsp.Http, unsp.Type(), unsp.baseUrl+"/photos", qParam, unsp.header(apiKey), unsp.limits, &data); err != nil {
		unsp.log.Println("Failed to fetch curated:", err)
		return nil, err
	}
	return unsp.convert(data), nil
}

func (unsp *UnsplashApi) header(apiKey string) http.Header {
	h := http.Header{}
	h.Set("Accept-Version", "v1")
	h.Set("Authorization", "Client-ID "+apiKey)
	return h
}

func (unsp *UnsplashApi) convert(photos []UnsplashPhoto) []PhotoCandidate {
	output := make([]PhotoCandidate, len(photos))
	for i, el := range photos {
		alt := el.AltDescription
		if alt == "" {
			alt = el.Description
		}
		output[i] = PhotoCandidate{
			ID:              el.Id,
			Width:           el.Width,
			Height:          el.Height,
			Alt:             alt,
			Photographer:    el.User.Name,
			PhotographerURL: el.User.Links.Html,
			AvgColor:        el.Color,
			Liked:           el.LikedByUser,
			Src: PhotoSrc{
				Original: el.Urls.Raw,
				Large2x:  el.Urls.Full,
				Large:    el.Urls.Regular,
				Medium:   el.Urls.Small,
			},
			Source:  unsp.Name(),
			PageURL: el.Links.Html,
		}
	}
	return output
}
