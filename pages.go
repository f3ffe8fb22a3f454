package main

import "fmt"

// PageSize is the page size of the /search candidates endpoint.
const PageSize int = 25

// MaxPage bounds the /search page number; providers stop paging well before it.
const MaxPage int = 400

// PageSpan selects items [First:Last) of provider page Page.
type PageSpan struct {
	Page  int
	First int
	Last  int
}

// SplitPages maps page outPage of size outSize onto the provider pages of size
// providerSize that cover it. Pages outside 1..MaxPage map to nothing.
func SplitPages(outPage int, outSize int, providerSize int) []PageSpan {
	if outPage < 1 || outPage > MaxPage || outSize < 1 || providerSize < 1 {
		return nil
	}
	start := (outPage - 1) * outSize
	end := start + outSize

	firstPage := 1 + start/providerSize
	pageStart := (firstPage - 1) * providerSize
	spans := []PageSpan{{
		Page:  firstPage,
		First: start - pageStart,
		Last:  min(providerSize, end-pageStart),
	}}

	for covered := pageStart + providerSize; covered < end; covered += providerSize {
		spans = append(spans, PageSpan{
			Page:  covered/providerSize + 1,
			First: 0,
			Last:  min(providerSize, end-covered),
		})
	}
	return spans
}

func (p PageSpan) String() string {
	return fmt.Sprintf("#%d [%d:%d]", p.Page, p.First, p.Last)
}
