// Copyright (c) 2025 BVK Chaitanya

// Package client implements the HTTP client for the stockwatch api. A signed
// in Client is also the network side of watchlist toggles.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path"
	"strings"
	"time"

	"github.com/bvk/stockwatch/api"
	"github.com/bvk/stockwatch/identity"
	"github.com/bvk/stockwatch/watchlist"
)

type Client struct {
	baseURL *url.URL

	httpClient *http.Client

	token string
}

// New creates a client for the api served at baseURL. Token is the session
// token, which can be empty for the sign-up and sign-in calls.
func New(baseURL *url.URL, httpClient *http.Client, token string) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	u := *baseURL
	return &Client{baseURL: &u, httpClient: httpClient, token: token}
}

// Token returns the session token used by the client.
func (c *Client) Token() string {
	return c.token
}

func Post[RESP, REQ any](ctx context.Context, c *Client, subpath string, req *REQ) (*RESP, error) {
	data, err := json.Marshal(req)
	if err != nil {
		return nil, err
	}

	addrURL := *c.baseURL
	addrURL.Path = path.Join(addrURL.Path, subpath)
	r, err := http.NewRequestWithContext(ctx, http.MethodPost, addrURL.String(), bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	r.Header.Set("content-type", "application/json")
	if len(c.token) != 0 {
		r.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(r)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, statusError(resp)
	}
	response := new(RESP)
	if err := json.NewDecoder(resp.Body).Decode(response); err != nil {
		return nil, fmt.Errorf("could not decode response: %w", err)
	}
	return response, nil
}

// statusError converts a non-200 response into an error that matches the
// server side error with errors.Is.
func statusError(resp *http.Response) error {
	data, _ := io.ReadAll(io.LimitReader(resp.Body, 64*1024))
	msg := strings.TrimSpace(string(data))
	eresp := new(api.ErrorResponse)
	if err := json.Unmarshal(data, eresp); err == nil && len(eresp.Error) != 0 {
		msg = eresp.Error
	}

	var sentinel error
	switch resp.StatusCode {
	case http.StatusUnauthorized:
		sentinel = identity.ErrNotAuthenticated
		if len(eresp.Redirect) != 0 {
			msg = fmt.Sprintf("%s (see %s)", msg, eresp.Redirect)
		}
	case http.StatusBadRequest:
		sentinel = os.ErrInvalid
	case http.StatusForbidden:
		sentinel = os.ErrPermission
	case http.StatusNotFound:
		sentinel = os.ErrNotExist
	case http.StatusConflict:
		sentinel = os.ErrExist
	case http.StatusInternalServerError:
		sentinel = watchlist.ErrPersistence
	default:
		return fmt.Errorf("http status code %d: %s", resp.StatusCode, msg)
	}
	return fmt.Errorf("http status code %d: %w: %s", resp.StatusCode, sentinel, msg)
}

// SignUp registers a new user.
func (c *Client) SignUp(ctx context.Context, email, name string) (string, error) {
	req := &api.UserSignUpRequest{Email: email, Name: name}
	resp, err := Post[api.UserSignUpResponse](ctx, c, api.UserSignUpPath, req)
	if err != nil {
		return "", err
	}
	return resp.UserID, nil
}

// SignIn creates a new session and returns a client that uses it.
func (c *Client) SignIn(ctx context.Context, email string) (*Client, *api.UserSignInResponse, error) {
	req := &api.UserSignInRequest{Email: email}
	resp, err := Post[api.UserSignInResponse](ctx, c, api.UserSignInPath, req)
	if err != nil {
		return nil, nil, err
	}
	return New(c.baseURL, c.httpClient, resp.Token), resp, nil
}

func (c *Client) SignOut(ctx context.Context) error {
	_, err := Post[api.UserSignOutResponse](ctx, c, api.UserSignOutPath, &api.UserSignOutRequest{})
	return err
}

func (c *Client) Add(ctx context.Context, symbol, company string) (*watchlist.Result, error) {
	req := &api.WatchlistAddRequest{Symbol: symbol, Company: company}
	resp, err := Post[api.WatchlistAddResponse](ctx, c, api.WatchlistAddPath, req)
	if err != nil {
		return nil, err
	}
	return &watchlist.Result{Success: resp.Success, Message: resp.Message}, nil
}

func (c *Client) Remove(ctx context.Context, symbol string) (*watchlist.Result, error) {
	req := &api.WatchlistRemoveRequest{Symbol: symbol}
	resp, err := Post[api.WatchlistRemoveResponse](ctx, c, api.WatchlistRemovePath, req)
	if err != nil {
		return nil, err
	}
	return &watchlist.Result{Success: resp.Success, Message: resp.Message}, nil
}

func (c *Client) List(ctx context.Context) ([]*api.WatchlistEntry, error) {
	resp, err := Post[api.WatchlistListResponse](ctx, c, api.WatchlistListPath, &api.WatchlistListRequest{})
	if err != nil {
		return nil, err
	}
	return resp.Entries, nil
}

func (c *Client) ListEnriched(ctx context.Context) ([]*api.WatchlistEnrichedEntry, error) {
	resp, err := Post[api.WatchlistEnrichedResponse](ctx, c, api.WatchlistEnrichedPath, &api.WatchlistEnrichedRequest{})
	if err != nil {
		return nil, err
	}
	return resp.Entries, nil
}

// Symbols returns the watchlist symbols of the signed-in user. A non-empty
// email must belong to the signed-in user.
func (c *Client) Symbols(ctx context.Context, email string) ([]string, error) {
	req := &api.WatchlistSymbolsRequest{Email: email}
	resp, err := Post[api.WatchlistSymbolsResponse](ctx, c, api.WatchlistSymbolsPath, req)
	if err != nil {
		return nil, err
	}
	return resp.Symbols, nil
}
