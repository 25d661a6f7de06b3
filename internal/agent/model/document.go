package model

import "strings"

// Site identifies the review source a document was scraped from.
type Site string

const (
	SiteKyobo  Site = "kyobo"
	SiteAladin Site = "aladin"
	SiteYes24  Site = "yes24"
)

// ParseSite maps a raw provenance string (typically a source filename stem)
// to a known Site. Unknown values are kept verbatim so provenance is never lost.
func ParseSite(raw string) Site {
	s := strings.ToLower(strings.TrimSpace(raw))
	switch {
	case strings.Contains(s, string(SiteKyobo)):
		return SiteKyobo
	case strings.Contains(s, string(SiteAladin)):
		return SiteAladin
	case strings.Contains(s, string(SiteYes24)):
		return SiteYes24
	default:
		return Site(s)
	}
}

// RetrievedDocument is one review excerpt returned by the retriever,
// carrying its similarity score and provenance. Immutable once produced.
type RetrievedDocument struct {
	Text     string  `json:"text"`
	Score    float64 `json:"score"`
	SourceID string  `json:"source_id"`
	Site     Site    `json:"site"`
	Rating   float64 `json:"rating,omitempty"`
	Date     string  `json:"date,omitempty"`
}

// CatalogRecord is one entity in the static metadata catalog.
type CatalogRecord struct {
	Key      string   `json:"-"`
	Title    string   `json:"title"`
	Author   string   `json:"author"`
	Summary  string   `json:"summary"`
	Keywords []string `json:"keywords,omitempty"`
}
