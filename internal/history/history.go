// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package history turns the stored gallery state into the textual history
// that steers prompt generation: recent items and comments are rendered
// verbatim, older items are compressed into a one-line summary, and
// everything beyond the horizon is dropped.
package history

import (
	"context"
	"log/slog"
	"sort"
	"strings"
	"time"

	"muralgen/internal/gallery"
)

const (
	// discardHorizon is the recency index past which items are dropped
	// entirely, not even summarized.
	discardHorizon = 100

	// commentWindow is the recency index past which comments are dropped.
	// Comments are never summarized.
	commentWindow = 30
)

// event is one entry of the merged timeline. Exactly one of item or
// comment is set.
type event struct {
	createdAt time.Time
	id        string
	item      *gallery.GeneratedItem
	comment   *gallery.Comment
}

// mergeEvents flattens the gallery state into a single reverse-chronological
// sequence. Equal timestamps are ordered by ascending record ID so the
// result is stable across runs.
func mergeEvents(state *gallery.State) []event {
	events := make([]event, 0, len(state.Items)+len(state.Comments))
	for id := range state.Items {
		it := state.Items[id]
		events = append(events, event{createdAt: it.CreatedAt, id: id.String(), item: &it})
	}
	for id := range state.Comments {
		c := state.Comments[id]
		events = append(events, event{createdAt: c.CreatedAt, id: id.String(), comment: &c})
	}

	sort.Slice(events, func(i, j int) bool {
		if !events[i].createdAt.Equal(events[j].createdAt) {
			return events[i].createdAt.After(events[j].createdAt)
		}
		return events[i].id < events[j].id
	})
	return events
}

// bucket collects the shortened prompts of items that aged out of the
// verbatim window but are still recent enough to summarize.
type bucket struct {
	loved    []string
	liked    []string
	disliked []string
	others   []string
}

func (b *bucket) add(class gallery.Classification, text string) {
	switch class {
	case gallery.Loved:
		b.loved = append(b.loved, text)
	case gallery.Liked:
		b.liked = append(b.liked, text)
	case gallery.Disliked:
		b.disliked = append(b.disliked, text)
	default:
		b.others = append(b.others, text)
	}
}

func (b *bucket) empty() bool {
	return len(b.loved) == 0 && len(b.liked) == 0 && len(b.disliked) == 0 && len(b.others) == 0
}

// window walks the merged sequence newest-first and splits it into rendered
// lines and the discard bucket. The recency index advances once per event
// regardless of kind.
func window(events []event) ([]string, *bucket) {
	var lines []string
	discarded := &bucket{}

	for i, ev := range events {
		switch {
		case ev.item != nil:
			if i < ev.item.Classification.Threshold() {
				lines = append(lines, ev.item.Classification.Prefix()+"'"+ev.item.ShortenedPrompt+"'")
			} else if i < discardHorizon {
				discarded.add(ev.item.Classification, ev.item.ShortenedPrompt)
			}
		case ev.comment != nil:
			if i < commentWindow {
				lines = append(lines, "User commented: '"+ev.comment.Text+"'")
			}
		}
	}

	return lines, discarded
}

// Aggregator produces the rendered history text. The summarizer is optional;
// without it old items are simply dropped.
type Aggregator struct {
	summarizer *Summarizer
	logger     *slog.Logger
}

func NewAggregator(summarizer *Summarizer, logger *slog.Logger) *Aggregator {
	return &Aggregator{summarizer: summarizer, logger: logger}
}

// Render merges, windows and (when needed) summarizes the gallery state
// into one newline-joined history block, most recent first. Summarization
// failure is logged and the summary line omitted; Render itself never fails.
func (a *Aggregator) Render(ctx context.Context, state *gallery.State) string {
	lines, discarded := window(mergeEvents(state))

	if a.summarizer != nil && !discarded.empty() {
		summary, err := a.summarizer.Summarize(ctx, discarded)
		if err != nil {
			a.logger.Error("history summarization failed, continuing without summary", "error", err)
		} else if summary != "" {
			lines = append(lines, summary)
		}
	}

	return strings.Join(lines, "\n")
}
