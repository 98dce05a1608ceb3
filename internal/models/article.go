// Package models defines data structures shared by the fetch, enrichment and output stages.
package models

// UnknownSource is used when the provider does not name the publisher.
const UnknownSource = "Unknown"

// RawSource is the publisher block of a search result.
type RawSource struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// RawArticle is a search result exactly as the article provider returns it.
// JSON nulls decode to empty strings.
type RawArticle struct {
	Source      *RawSource `json:"source"`
	Author      string     `json:"author"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	URL         string     `json:"url"`
	URLToImage  string     `json:"urlToImage"`
	PublishedAt string     `json:"publishedAt"`
	Content     string     `json:"content"`
}

// SourceName returns the publisher name, or an empty string.
func (r RawArticle) SourceName() string {
	if r.Source == nil {
		return ""
	}

	return r.Source.Name
}

// Article is a normalized search result. Title and Text are always
// non-empty and trimmed.
type Article struct {
	Title       string `json:"title"`
	Source      string `json:"source"`
	PublishedAt string `json:"published_at"`
	URL         string `json:"url"`
	Text        string `json:"text"`
}
