// Copyright (c) 2026 Readstack. All rights reserved.

package openlibrary_test

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/readstack/readstack/internal/openlibrary"
)

func newTestClient(t *testing.T, serverURL string) *openlibrary.Client {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return openlibrary.NewClient(openlibrary.Config{
		BaseURL:     serverURL,
		Timeout:     2 * time.Second,
		MaxRetries:  3,
		BackoffBase: time.Millisecond,
	}, logger)
}

const searchPayload = `{
	"numFound": 1,
	"docs": [{
		"title": "Clean Code",
		"author_name": ["Robert Martin"],
		"cover_i": 123,
		"subject": ["Programming", "Software", "Craftsmanship"],
		"publisher": ["Prentice Hall", "Other"],
		"language": ["eng"],
		"ratings_average": 4.267,
		"first_publish_year": 2008,
		"edition_count": 5
	}]
}`

/*
TestSearchByISBN_ExtractsMetadata verifies the happy path: the ISBN is
normalized into the query and the document is reduced to Metadata.
*/
func TestSearchByISBN_ExtractsMetadata(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		assert.Equal(t, "/search.json", request.URL.Path)
		assert.Equal(t, "9780132350884", request.URL.Query().Get("isbn"))
		assert.Equal(t, "1", request.URL.Query().Get("limit"))
		_, _ = writer.Write([]byte(searchPayload))
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)
	metadata, err := client.SearchByISBN(context.Background(), "978-0132350884")
	require.NoError(t, err)
	require.NotNil(t, metadata)

	assert.Equal(t, "https://covers.openlibrary.org/b/id/123-L.jpg", *metadata.CoverURL)
	assert.Equal(t, []string{"Programming", "Software", "Craftsmanship"}, metadata.Subjects)
	assert.Equal(t, "Prentice Hall", *metadata.Publisher)
	assert.Equal(t, "eng", *metadata.Language)
	assert.Equal(t, 4.27, *metadata.Rating) // rounded to 2 decimals
	assert.Equal(t, 2008, *metadata.FirstPublishYear)
	assert.Equal(t, 5, *metadata.EditionCount)
}

/*
TestSearchByISBN_NoResults verifies that an empty docs array is a nil
result, not an error.
*/
func TestSearchByISBN_NoResults(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		_, _ = writer.Write([]byte(`{"numFound": 0, "docs": []}`))
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)
	metadata, err := client.SearchByISBN(context.Background(), "0000000000")
	require.NoError(t, err)
	assert.Nil(t, metadata)
}

/*
TestSearchJSON_RetriesServerErrors verifies that 5xx responses are retried
until a success.
*/
func TestSearchJSON_RetriesServerErrors(t *testing.T) {
	var hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		if hits.Add(1) < 3 {
			writer.WriteHeader(http.StatusBadGateway)
			return
		}
		_, _ = writer.Write([]byte(searchPayload))
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)
	metadata, err := client.SearchByTitleAuthor(context.Background(), "Clean Code", "Robert Martin")
	require.NoError(t, err)
	require.NotNil(t, metadata)
	assert.Equal(t, int32(3), hits.Load())
}

/*
TestSearchJSON_ClientErrorsNotRetried verifies that a 4xx fails immediately
with a typed APIError.
*/
func TestSearchJSON_ClientErrorsNotRetried(t *testing.T) {
	var hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		hits.Add(1)
		writer.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)
	_, err := client.SearchByTitleAuthor(context.Background(), "x", "y")

	var apiError *openlibrary.APIError
	require.ErrorAs(t, err, &apiError)
	assert.Equal(t, http.StatusNotFound, apiError.StatusCode)
	assert.Equal(t, int32(1), hits.Load())
}

/*
TestSearchJSON_RetriesExhausted verifies that a persistently failing server
surfaces the last typed error after the retry budget.
*/
func TestSearchJSON_RetriesExhausted(t *testing.T) {
	var hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		hits.Add(1)
		writer.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)
	_, err := client.SearchByTitleAuthor(context.Background(), "x", "y")

	var apiError *openlibrary.APIError
	require.ErrorAs(t, err, &apiError)
	assert.Equal(t, int32(3), hits.Load())
}

/*
TestSearchJSON_Timeout verifies that a stalled server surfaces a typed
TimeoutError.
*/
func TestSearchJSON_Timeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		time.Sleep(500 * time.Millisecond)
		_, _ = writer.Write([]byte(searchPayload))
	}))
	defer server.Close()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	client := openlibrary.NewClient(openlibrary.Config{
		BaseURL:     server.URL,
		Timeout:     50 * time.Millisecond,
		MaxRetries:  2,
		BackoffBase: time.Millisecond,
	}, logger)

	_, err := client.SearchByISBN(context.Background(), "1234567890")

	var timeoutError *openlibrary.TimeoutError
	assert.ErrorAs(t, err, &timeoutError)
}

/*
TestEnrich_FallsBackToTitleAuthor verifies the lookup cascade: an ISBN miss
falls through to the title/author query.
*/
func TestEnrich_FallsBackToTitleAuthor(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		if request.URL.Query().Get("isbn") != "" {
			_, _ = writer.Write([]byte(`{"numFound": 0, "docs": []}`))
			return
		}
		_, _ = writer.Write([]byte(searchPayload))
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)
	metadata, err := client.Enrich(context.Background(), "Clean Code", "Robert Martin", "978-0132350884")
	require.NoError(t, err)
	require.NotNil(t, metadata)
	assert.Equal(t, "Prentice Hall", *metadata.Publisher)
}

/*
TestEnrich_ISBNFailureIsNotFatal verifies that a broken ISBN lookup still
lets the title/author lookup answer.
*/
func TestEnrich_ISBNFailureIsNotFatal(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		if request.URL.Query().Get("isbn") != "" {
			writer.WriteHeader(http.StatusBadRequest)
			return
		}
		_, _ = writer.Write([]byte(searchPayload))
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)
	metadata, err := client.Enrich(context.Background(), "Clean Code", "Robert Martin", "978-0132350884")
	require.NoError(t, err)
	require.NotNil(t, metadata)
}

/*
TestNormalizeISBN verifies hyphen and space stripping.
*/
func TestNormalizeISBN(t *testing.T) {
	assert.Equal(t, "9780132350884", openlibrary.NormalizeISBN("978-0-13-235088-4"))
	assert.Equal(t, "9780132350884", openlibrary.NormalizeISBN("978 0132350884"))
	assert.Equal(t, "0132350884", openlibrary.NormalizeISBN("0132350884"))
}

/*
TestMetadata_SubjectsCapped verifies that only the first ten subjects are kept.
*/
func TestMetadata_SubjectsCapped(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		_, _ = writer.Write([]byte(`{
			"numFound": 1,
			"docs": [{
				"title": "t",
				"subject": ["1","2","3","4","5","6","7","8","9","10","11","12"]
			}]
		}`))
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)
	metadata, err := client.SearchByISBN(context.Background(), "1234567890")
	require.NoError(t, err)
	require.NotNil(t, metadata)
	assert.Len(t, metadata.Subjects, 10)
}
