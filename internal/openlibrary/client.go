// Copyright (c) 2026 Readstack. All rights reserved.

/*
Package openlibrary provides the Open Library enrichment client.

It queries the public Open Library search API to attach cover art, subjects,
and publication metadata to catalog books.

Core Responsibilities:

  - Transport: HTTP calls with bounded timeouts and retry with exponential
    backoff. Only transient failures (timeouts, 5xx) are retried.
  - Classification: Failures surface as [*TimeoutError] or [*APIError] so
    callers can distinguish "slow" from "broken".
  - Extraction: Raw search documents are reduced to the compact [Metadata]
    shape stored on a book's extra field.

A missing book is not a failure: lookups return (nil, nil) when Open Library
has no match, and callers must treat the two cases differently.
*/
package openlibrary

import (
	stdctx "context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// searchLimit caps every search at the single best match.
const searchLimit = "1"

// coverURLFormat renders a cover image URL from a cover ID (large size).
const coverURLFormat = "https://covers.openlibrary.org/b/id/%d-L.jpg"

// maxSubjects bounds the subject list carried into book metadata.
const maxSubjects = 10

// TimeoutError reports that a request (including retries) ran out of time.
type TimeoutError struct {
	Timeout time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("openlibrary: request timed out after %s", e.Timeout)
}

// APIError reports a non-success response from the Open Library API.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("openlibrary: api error (status %d): %s", e.StatusCode, e.Message)
}

// Config tunes the client's transport behavior.
type Config struct {
	// BaseURL is the API root, e.g. "https://openlibrary.org".
	BaseURL string
	// Timeout bounds each individual HTTP attempt.
	Timeout time.Duration
	// MaxRetries is the total number of attempts per request.
	MaxRetries int
	// BackoffBase is the first retry delay; it doubles per attempt.
	BackoffBase time.Duration
}

// Client is a direct, uncached Open Library API client.
type Client struct {
	baseURL     string
	httpClient  *http.Client
	timeout     time.Duration
	maxRetries  int
	backoffBase time.Duration
	logger      *slog.Logger
}

// NewClient creates a Client from cfg. Zero-valued fields fall back to
// conservative defaults.
func NewClient(cfg Config, logger *slog.Logger) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://openlibrary.org"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 3
	}
	if cfg.BackoffBase <= 0 {
		cfg.BackoffBase = 500 * time.Millisecond
	}

	return &Client{
		baseURL:     strings.TrimSuffix(cfg.BaseURL, "/"),
		httpClient:  &http.Client{Timeout: cfg.Timeout},
		timeout:     cfg.Timeout,
		maxRetries:  cfg.MaxRetries,
		backoffBase: cfg.BackoffBase,
		logger:      logger.With(slog.String("client", "openlibrary")),
	}
}

// # Search Operations

// SearchByISBN looks a book up by ISBN-10 or ISBN-13.
//
// The ISBN is normalized (hyphens and spaces stripped) before the query.
// It returns (nil, nil) when Open Library has no match.
func (client *Client) SearchByISBN(context stdctx.Context, isbn string) (*Metadata, error) {
	cleanISBN := NormalizeISBN(isbn)

	params := url.Values{}
	params.Set("isbn", cleanISBN)
	params.Set("limit", searchLimit)

	response, err := client.searchJSON(context, params)
	if err != nil {
		return nil, err
	}

	if len(response.Docs) == 0 {
		client.logger.Debug("openlibrary_no_results", slog.String("isbn", cleanISBN))
		return nil, nil
	}
	return extractMetadata(response.Docs[0]), nil
}

// SearchByTitleAuthor looks a book up by its title and author.
//
// It returns (nil, nil) when Open Library has no match.
func (client *Client) SearchByTitleAuthor(context stdctx.Context, title, author string) (*Metadata, error) {
	params := url.Values{}
	params.Set("title", title)
	params.Set("author", author)
	params.Set("limit", searchLimit)

	response, err := client.searchJSON(context, params)
	if err != nil {
		return nil, err
	}

	if len(response.Docs) == 0 {
		client.logger.Debug("openlibrary_no_results",
			slog.String("title", title), slog.String("author", author))
		return nil, nil
	}
	return extractMetadata(response.Docs[0]), nil
}

// Enrich resolves the best metadata for a book.
//
// An ISBN lookup is tried first when an ISBN is given; its failures and
// misses fall through to a title/author lookup. A failing title/author
// lookup propagates its typed error so the caller decides how fatal a
// broken enrichment source is.
func (client *Client) Enrich(context stdctx.Context, title, author, isbn string) (*Metadata, error) {
	if isbn != "" {
		metadata, err := client.SearchByISBN(context, isbn)
		if err != nil {
			client.logger.Warn("openlibrary_isbn_search_failed",
				slog.String("isbn", isbn), slog.Any("error", err))
		} else if metadata != nil {
			client.logger.Info("openlibrary_enriched_by_isbn", slog.String("isbn", isbn))
			return metadata, nil
		}
	}

	metadata, err := client.SearchByTitleAuthor(context, title, author)
	if err != nil {
		return nil, err
	}
	if metadata != nil {
		client.logger.Info("openlibrary_enriched_by_title_author",
			slog.String("title", title), slog.String("author", author))
	}
	return metadata, nil
}

// # Transport

// searchJSON runs one /search.json query with retry and backoff.
//
// Retry policy: timeouts and 5xx responses are transient and retried with
// backoffBase * 2^attempt delays; 4xx responses fail immediately.
func (client *Client) searchJSON(context stdctx.Context, params url.Values) (*searchResponse, error) {
	requestURL := client.baseURL + "/search.json?" + params.Encode()

	var lastErr error
	for attempt := 0; attempt < client.maxRetries; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(float64(client.backoffBase) * math.Pow(2, float64(attempt-1)))
			client.logger.Warn("openlibrary_retrying",
				slog.Int("attempt", attempt+1),
				slog.Duration("backoff", backoff),
				slog.Any("error", lastErr),
			)

			select {
			case <-time.After(backoff):
			case <-context.Done():
				return nil, context.Err()
			}
		}

		response, err := client.attempt(context, requestURL)
		if err == nil {
			return response, nil
		}
		lastErr = err

		if !isRetryable(err) {
			return nil, err
		}
	}

	client.logger.Error("openlibrary_retries_exhausted",
		slog.Int("attempts", client.maxRetries), slog.Any("error", lastErr))
	return nil, lastErr
}

// attempt performs a single HTTP GET and decodes the search payload.
func (client *Client) attempt(context stdctx.Context, requestURL string) (*searchResponse, error) {
	request, err := http.NewRequestWithContext(context, http.MethodGet, requestURL, nil)
	if err != nil {
		return nil, fmt.Errorf("openlibrary: build request: %w", err)
	}
	request.Header.Set("Accept", "application/json")

	response, err := client.httpClient.Do(request)
	if err != nil {
		if isTimeout(err) {
			return nil, &TimeoutError{Timeout: client.timeout}
		}
		return nil, fmt.Errorf("openlibrary: request failed: %w", err)
	}
	defer response.Body.Close()

	if response.StatusCode != http.StatusOK {
		// Drain so the connection can be reused across retries.
		_, _ = io.Copy(io.Discard, io.LimitReader(response.Body, 4096))
		return nil, &APIError{StatusCode: response.StatusCode, Message: response.Status}
	}

	var payload searchResponse
	if err := json.NewDecoder(response.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("openlibrary: decode response: %w", err)
	}
	return &payload, nil
}

// isTimeout classifies a transport error as a timeout.
func isTimeout(err error) bool {
	if errors.Is(err, stdctx.DeadlineExceeded) {
		return true
	}

	var urlError *url.Error
	return errors.As(err, &urlError) && urlError.Timeout()
}

// isRetryable reports whether another attempt can succeed.
func isRetryable(err error) bool {
	var timeoutError *TimeoutError
	if errors.As(err, &timeoutError) {
		return true
	}

	var apiError *APIError
	return errors.As(err, &apiError) && apiError.StatusCode >= 500
}

// Close releases idle transport connections.
func (client *Client) Close() {
	client.httpClient.CloseIdleConnections()
}

// NormalizeISBN strips hyphens and spaces so the two common printed forms
// of an ISBN resolve to the same value.
func NormalizeISBN(isbn string) string {
	return strings.NewReplacer("-", "", " ", "").Replace(isbn)
}
