package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
)

// getJSON performs one provider call, records quota headers and maps the
// status codes the request queue and orchestrator care about.
func getJSON(ctx context.Context, client *http.Client, provider string, endpoint string, params url.Values, header http.Header, limits *RateLimitInfo, out any) error {
	target := endpoint
	if len(params) > 0 {
		target += "?" + params.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	for k, v := range header {
		req.Header[k] = v
	}
	res, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("%s request: %w", provider, err)
	}
	defer res.Body.Close()

	if limits != nil {
		limits.Update(res.Header)
	}

	switch {
	case res.StatusCode == http.StatusUnauthorized:
		io.Copy(io.Discard, res.Body)
		return ErrInvalidAPIKey
	case res.StatusCode == http.StatusTooManyRequests:
		io.Copy(io.Discard, res.Body)
		qe := &QuotaError{Provider: provider}
		if limits != nil {
			qe.ResetAt = limits.ResetAt()
		}
		return qe
	case res.StatusCode < 200 || res.StatusCode > 299:
		io.Copy(io.Discard, res.Body)
		return &ServiceError{Provider: provider, Status: res.StatusCode}
	}

	if err := json.NewDecoder(res.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s response: %w", provider, err)
	}
	return nil
}
