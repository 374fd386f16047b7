// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package gallery defines the application-state document: the style
// configuration plus every generated item and user comment, persisted as
// one record that is always read and written whole.
package gallery

import (
	"time"

	"github.com/google/uuid"
)

// Classification records user sentiment about a generated item and
// drives its history retention window.
type Classification string

const (
	Loved    Classification = "loved"
	Liked    Classification = "liked"
	Disliked Classification = "disliked"
	Neutral  Classification = "neutral"
)

// Valid reports whether c is one of the four closed variants.
func (c Classification) Valid() bool {
	switch c {
	case Loved, Liked, Disliked, Neutral:
		return true
	}
	return false
}

// Threshold is the recency index below which an item of this
// classification is rendered verbatim into the history text.
func (c Classification) Threshold() int {
	switch c {
	case Loved:
		return 60
	case Liked, Disliked:
		return 30
	default:
		return 20
	}
}

// Prefix is the human-readable tag placed before a rendered item line.
// Neutral items carry no tag.
func (c Classification) Prefix() string {
	switch c {
	case Loved:
		return "(user LOVED this) "
	case Liked:
		return "(user liked this) "
	case Disliked:
		return "(user disliked this) "
	default:
		return ""
	}
}

// Label names the classification's bucket in summarization requests and
// in the synthesized summary line. Neutral reads as "Other".
func (c Classification) Label() string {
	switch c {
	case Loved:
		return "Loved"
	case Liked:
		return "Liked"
	case Disliked:
		return "Disliked"
	default:
		return "Other"
	}
}

// GeneratedItem is one generated wallpaper record. Immutable once
// created except for Classification, which the user may change later.
type GeneratedItem struct {
	ID              uuid.UUID      `json:"id"`
	CreatedAt       time.Time      `json:"created_at"`
	Prompt          string         `json:"prompt"`
	ShortenedPrompt string         `json:"shortened_prompt"`
	Classification  Classification `json:"classification"`
}

// Comment is one user remark on the gallery, immutable once created.
type Comment struct {
	ID        uuid.UUID `json:"id"`
	CreatedAt time.Time `json:"created_at"`
	Text      string    `json:"text"`
}

// StyleConfig is the singleton styling guidance included in every
// generation prompt.
type StyleConfig struct {
	Style            string `json:"style"`             // included in every prompt, "painted" etc.
	Contents         string `json:"contents"`          // what kind of prompts to create
	NegativeContents string `json:"negative_contents"` // what to avoid
}

// DefaultStyle is the style a fresh installation starts with.
func DefaultStyle() StyleConfig {
	return StyleConfig{
		Style:            "Digital paintings",
		Contents:         "Epic fantasy, surreal, abstract, landscapes",
		NegativeContents: "No people, don't go for highly complex",
	}
}

// State is the aggregate document. It is read fully, mutated in memory,
// and written back fully on every update.
type State struct {
	Style    StyleConfig                 `json:"style"`
	Items    map[uuid.UUID]GeneratedItem `json:"generated_items"`
	Comments map[uuid.UUID]Comment       `json:"comments"`
}

// NewState returns an empty document carrying the default style.
func NewState() *State {
	return &State{
		Style:    DefaultStyle(),
		Items:    make(map[uuid.UUID]GeneratedItem),
		Comments: make(map[uuid.UUID]Comment),
	}
}
