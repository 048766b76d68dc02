// Copyright (c) 2025 BVK Chaitanya

package quote

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"path"
	"strconv"
	"time"

	"github.com/bvk/stockwatch/ctxutil"
	"github.com/shopspring/decimal"
	"golang.org/x/time/rate"
)

// Client fetches quotes from the Finnhub REST api. A quote is assembled from
// three calls: the latest price, the company profile and the basic financial
// metrics. Only the price call is required; profile and metrics failures
// leave the corresponding fields empty.
type Client struct {
	opts Options

	token string

	client *http.Client

	limiter *rate.Limiter
}

var _ Source = &Client{}

func New(token string, opts *Options) (*Client, error) {
	if len(token) == 0 {
		return nil, fmt.Errorf("api token cannot be empty: %w", os.ErrInvalid)
	}
	if opts == nil {
		opts = new(Options)
	}
	opts.setDefaults()
	if err := opts.Check(); err != nil {
		return nil, err
	}
	c := &Client{
		opts:  *opts,
		token: token,
		client: &http.Client{
			Timeout: opts.HttpClientTimeout,
		},
		limiter: rate.NewLimiter(rate.Limit(opts.RequestsPerSecond), 1),
	}
	return c, nil
}

type finnhubQuote struct {
	Current       decimal.Decimal `json:"c"`
	Change        decimal.Decimal `json:"d"`
	ChangePercent decimal.Decimal `json:"dp"`
	High          decimal.Decimal `json:"h"`
	Low           decimal.Decimal `json:"l"`
	Open          decimal.Decimal `json:"o"`
	PrevClose     decimal.Decimal `json:"pc"`
	Timestamp     int64           `json:"t"`
}

type finnhubProfile struct {
	Name     string `json:"name"`
	Ticker   string `json:"ticker"`
	Currency string `json:"currency"`

	// MarketCapitalization is reported in millions.
	MarketCapitalization decimal.Decimal `json:"marketCapitalization"`
}

type finnhubMetrics struct {
	Metric struct {
		PETTM                *decimal.Decimal `json:"peTTM"`
		PEBasicExclExtraTTM  *decimal.Decimal `json:"peBasicExclExtraTTM"`
		MarketCapitalization *decimal.Decimal `json:"marketCapitalization"`
	} `json:"metric"`
}

// GetQuote implements the Source interface.
func (c *Client) GetQuote(ctx context.Context, symbol string) (*Quote, error) {
	symbol = Normalize(symbol)
	if err := CheckSymbol(symbol); err != nil {
		return nil, err
	}

	fq := new(finnhubQuote)
	if err := c.get(ctx, "/quote", url.Values{"symbol": {symbol}}, fq); err != nil {
		return nil, fmt.Errorf("could not fetch quote for %q: %w", symbol, err)
	}
	// Finnhub responds with all zeros for unknown symbols.
	if fq.Current.IsZero() && fq.Timestamp == 0 {
		return nil, fmt.Errorf("symbol %q: %w", symbol, ErrNoData)
	}

	q := &Quote{
		Symbol:        symbol,
		CurrentPrice:  fq.Current,
		Change:        fq.Change,
		ChangePercent: fq.ChangePercent,
	}

	fp := new(finnhubProfile)
	if err := c.get(ctx, "/stock/profile2", url.Values{"symbol": {symbol}}, fp); err != nil {
		slog.WarnContext(ctx, "could not fetch company profile (ignored)", "symbol", symbol, "err", err)
	} else {
		q.Company = fp.Name
		q.Currency = fp.Currency
		q.MarketCap = fp.MarketCapitalization.Mul(million)
	}

	fm := new(finnhubMetrics)
	if err := c.get(ctx, "/stock/metric", url.Values{"symbol": {symbol}, "metric": {"all"}}, fm); err != nil {
		slog.WarnContext(ctx, "could not fetch basic financials (ignored)", "symbol", symbol, "err", err)
	} else {
		pe := fm.Metric.PETTM
		if pe == nil {
			pe = fm.Metric.PEBasicExclExtraTTM
		}
		if pe != nil {
			q.PERatio = FormatPERatio(*pe)
		}
		if q.MarketCap.IsZero() && fm.Metric.MarketCapitalization != nil {
			q.MarketCap = fm.Metric.MarketCapitalization.Mul(million)
		}
	}

	q.Fill()
	return q, nil
}

func (c *Client) get(ctx context.Context, subpath string, params url.Values, response any) error {
	addrURL := &url.URL{
		Scheme: c.opts.BaseURL.Scheme,
		Host:   c.opts.BaseURL.Host,
		Path:   path.Join(c.opts.BaseURL.Path, subpath),
	}
	values := url.Values{}
	for k, v := range params {
		values[k] = v
	}
	values.Set("token", c.token)
	addrURL.RawQuery = values.Encode()
	return httpGetJSON(ctx, c, addrURL, response, c.opts.MaxRetries)
}

func httpGetJSON(ctx context.Context, c *Client, addrURL *url.URL, response any, retries int) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, addrURL.String(), nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")

	s := time.Now()
	resp, err := c.client.Do(req)
	if d := time.Since(s); d > c.opts.HttpClientTimeout {
		slog.Warn(fmt.Sprintf("get request took %s which is more than the http client timeout %s", d, c.opts.HttpClientTimeout))
	}
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))

		retryable := resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode == http.StatusBadGateway
		if retryable && retries > 0 {
			timeout := time.Second
			if x := resp.Header.Get("Retry-After"); len(x) != 0 {
				if v, err := strconv.Atoi(x); err == nil {
					timeout = time.Duration(v) * time.Second
				}
			}
			ctxutil.Sleep(ctx, timeout)
			if err := context.Cause(ctx); err != nil {
				return err
			}
			return httpGetJSON(ctx, c, addrURL, response, retries-1)
		}

		if resp.StatusCode == http.StatusNotFound {
			return fmt.Errorf("http GET returned %d: %w", resp.StatusCode, ErrNoData)
		}
		return fmt.Errorf("http GET returned %d: %s", resp.StatusCode, body)
	}

	if err := json.NewDecoder(resp.Body).Decode(response); err != nil {
		if errors.Is(err, io.EOF) {
			return fmt.Errorf("empty response body: %w", ErrNoData)
		}
		return fmt.Errorf("could not decode response: %w", err)
	}
	return nil
}
