// Copyright (c) 2025 BVK Chaitanya

package quote

import (
	"net/url"
	"time"
)

var FinnhubURL = url.URL{
	Scheme: "https",
	Host:   "finnhub.io",
	Path:   "/api/v1",
}

type Options struct {
	// BaseURL overrides the REST endpoint. Used by tests.
	BaseURL *url.URL

	// Timeout to use for the HTTP requests.
	HttpClientTimeout time.Duration

	// RequestsPerSecond limits the rate of REST calls across all symbols. Free
	// tier Finnhub keys allow 30 calls per second.
	RequestsPerSecond float64

	// MaxRetries limits the retries on throttling and gateway errors.
	MaxRetries int
}

func (v *Options) setDefaults() {
	if v.BaseURL == nil {
		u := FinnhubURL
		v.BaseURL = &u
	}
	if v.HttpClientTimeout == 0 {
		v.HttpClientTimeout = 5 * time.Second
	}
	if v.RequestsPerSecond == 0 {
		v.RequestsPerSecond = 25
	}
	if v.MaxRetries == 0 {
		v.MaxRetries = 2
	}
}

// Check validates the options.
func (v *Options) Check() error {
	return nil
}
