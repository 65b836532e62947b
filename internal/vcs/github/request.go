package github

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/google/go-github/v80/github"
	"github.com/thomas-vilte/matebot/internal/logger"
	"golang.org/x/oauth2"
)

const (
	defaultUserAgent   = "matebot"
	defaultAccept      = "application/vnd.github+json"
	defaultContentType = "application/json"
	mediaTypeDiff      = "application/vnd.github.v3.diff"
)

// RequestOptions describes a single REST call. Headers override the defaults
// key by key; names are case-insensitive.
type RequestOptions struct {
	Method  string
	Headers map[string]string
	Body    interface{}
}

// Requester issues authenticated requests against the GitHub REST host.
type Requester struct {
	client *github.Client
	tokens oauth2.TokenSource
}

// NewRequester builds a requester for the given API base URL. httpClient may
// be nil.
func NewRequester(httpClient *http.Client, baseURL, token string) (*Requester, error) {
	client := github.NewClient(httpClient)

	if baseURL != "" {
		if !strings.HasSuffix(baseURL, "/") {
			baseURL += "/"
		}
		u, err := url.Parse(baseURL)
		if err != nil {
			return nil, fmt.Errorf("invalid GitHub API URL %q: %w", baseURL, err)
		}
		client.BaseURL = u
	}

	var tokens oauth2.TokenSource
	if token != "" {
		tokens = oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
	}

	return &Requester{
		client: client,
		tokens: tokens,
	}, nil
}

// Response is a completed call. Body holds the decoded JSON value, or the raw
// text when the payload is not JSON.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       interface{}
}

// Request performs exactly one call and returns the decoded body whatever the
// HTTP status. Only transport and credential failures are errors.
func (r *Requester) Request(ctx context.Context, path string, opts RequestOptions) (interface{}, error) {
	resp, err := r.Do(ctx, path, opts)
	if err != nil {
		return nil, err
	}
	return resp.Body, nil
}

// Do is Request with the status code and headers kept, so callers can judge
// non-2xx answers themselves.
func (r *Requester) Do(ctx context.Context, path string, opts RequestOptions) (*Response, error) {
	log := logger.FromContext(ctx)

	method := opts.Method
	if method == "" {
		method = http.MethodGet
	}

	req, err := r.client.NewRequest(method, strings.TrimPrefix(path, "/"), opts.Body)
	if err != nil {
		return nil, err
	}

	req.Header.Set("User-Agent", defaultUserAgent)
	req.Header.Set("Accept", defaultAccept)
	req.Header.Set("Content-Type", defaultContentType)
	if r.tokens != nil {
		token, err := r.tokens.Token()
		if err != nil {
			return nil, err
		}
		token.SetAuthHeader(req)
	}
	for name, value := range opts.Headers {
		req.Header.Set(name, value)
	}

	log.Debug("sending github request",
		"method", method,
		"path", path)

	resp, err := r.client.Client().Do(req.WithContext(ctx))
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	log.Debug("github response received",
		"method", method,
		"path", path,
		"status", resp.StatusCode,
		"size", len(body))

	result := &Response{
		StatusCode: resp.StatusCode,
		Header:     resp.Header,
	}
	var parsed interface{}
	if err := json.Unmarshal(body, &parsed); err != nil {
		result.Body = string(body)
	} else {
		result.Body = parsed
	}
	return result, nil
}
