// Copyright (c) 2026 Readstack. All rights reserved.

package openlibrary

import (
	"fmt"
	"math"

	"github.com/readstack/readstack/pkg/pointer"
)

// searchDoc is one document from the /search.json results array.
type searchDoc struct {
	Title            string   `json:"title"`
	AuthorName       []string `json:"author_name"`
	CoverID          *int     `json:"cover_i"`
	Subjects         []string `json:"subject"`
	Publishers       []string `json:"publisher"`
	Languages        []string `json:"language"`
	RatingsAverage   *float64 `json:"ratings_average"`
	FirstPublishYear *int     `json:"first_publish_year"`
	EditionCount     *int     `json:"edition_count"`
}

// searchResponse is the envelope of /search.json.
type searchResponse struct {
	NumFound int         `json:"numFound"`
	Start    int         `json:"start"`
	Docs     []searchDoc `json:"docs"`
}

// Metadata is the compact enrichment payload attached to a catalog book.
//
// Every field is optional; absent fields are omitted from the stored JSON
// so the extra blob only carries what Open Library actually knows.
type Metadata struct {
	CoverURL         *string  `json:"cover_url,omitempty"`
	Subjects         []string `json:"subjects,omitempty"`
	Publisher        *string  `json:"publisher,omitempty"`
	Language         *string  `json:"language,omitempty"`
	Rating           *float64 `json:"rating,omitempty"`
	FirstPublishYear *int     `json:"first_publish_year,omitempty"`
	EditionCount     *int     `json:"edition_count,omitempty"`
}

// AsMap renders the metadata as the loosely-typed map stored in a book's
// extra column. Absent fields are left out entirely.
func (m *Metadata) AsMap() map[string]any {
	if m == nil {
		return nil
	}

	result := make(map[string]any)
	if m.CoverURL != nil {
		result["cover_url"] = *m.CoverURL
	}
	if len(m.Subjects) > 0 {
		result["subjects"] = m.Subjects
	}
	if m.Publisher != nil {
		result["publisher"] = *m.Publisher
	}
	if m.Language != nil {
		result["language"] = *m.Language
	}
	if m.Rating != nil {
		result["rating"] = *m.Rating
	}
	if m.FirstPublishYear != nil {
		result["first_publish_year"] = *m.FirstPublishYear
	}
	if m.EditionCount != nil {
		result["edition_count"] = *m.EditionCount
	}
	return result
}

// extractMetadata reduces one search document to the fields the catalog keeps.
func extractMetadata(doc searchDoc) *Metadata {
	metadata := &Metadata{}

	if doc.CoverID != nil {
		metadata.CoverURL = pointer.To(fmt.Sprintf(coverURLFormat, *doc.CoverID))
	}
	if len(doc.Subjects) > 0 {
		subjects := doc.Subjects
		if len(subjects) > maxSubjects {
			subjects = subjects[:maxSubjects]
		}
		metadata.Subjects = subjects
	}
	if len(doc.Publishers) > 0 {
		metadata.Publisher = pointer.To(doc.Publishers[0])
	}
	if len(doc.Languages) > 0 {
		metadata.Language = pointer.To(doc.Languages[0])
	}
	if doc.RatingsAverage != nil {
		metadata.Rating = pointer.To(math.Round(*doc.RatingsAverage*100) / 100)
	}
	if doc.FirstPublishYear != nil {
		metadata.FirstPublishYear = pointer.To(*doc.FirstPublishYear)
	}
	if doc.EditionCount != nil {
		metadata.EditionCount = pointer.To(*doc.EditionCount)
	}

	return metadata
}
