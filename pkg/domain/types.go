package domain

import (
	"strings"
	"time"
)

// Category classifies a study topic.
type Category string

const (
	CategoryEvent    Category = "EVENT"
	CategoryProphecy Category = "PROPHECY"
	CategoryParable  Category = "PARABLE"
	CategoryTheme    Category = "THEME"
)

// Categories lists every topic category in display order.
var Categories = []Category{CategoryEvent, CategoryProphecy, CategoryParable, CategoryTheme}

// ParseCategory maps a request string onto a known category.
func ParseCategory(s string) (Category, bool) {
	switch Category(strings.ToUpper(strings.TrimSpace(s))) {
	case CategoryEvent:
		return CategoryEvent, true
	case CategoryProphecy:
		return CategoryProphecy, true
	case CategoryParable:
		return CategoryParable, true
	case CategoryTheme:
		return CategoryTheme, true
	default:
		return "", false
	}
}

// Topic is a curated study topic. Created server-side, mirrored into the
// seed dataset, read-only on this side. Description is nil when the topic
// was resolved from the seed store, which carries no description column.
type Topic struct {
	TopicID     string   `json:"topicId"`
	Name        string   `json:"name"`
	Category    Category `json:"category"`
	SortOrder   int      `json:"sortOrder"`
	Description *string  `json:"description"`
}

// TopicSource records where a topic set was resolved from.
type TopicSource string

const (
	SourceRemote TopicSource = "remote"
	SourceLocal  TopicSource = "local"
	SourceCached TopicSource = "cached"
)

// CacheRecord is the per-category unit persisted to the durable key-value
// store after a successful resolution.
type CacheRecord struct {
	Category  Category    `json:"category"`
	Topics    []Topic     `json:"topics"`
	FetchedAt time.Time   `json:"fetchedAt"`
	Source    TopicSource `json:"source"`
}

// TokenPair is the credential pair returned by a refresh exchange: a
// short-lived access token and the next long-lived refresh token.
type TokenPair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}
