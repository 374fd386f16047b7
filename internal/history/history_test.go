// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package history

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"muralgen/internal/ai"
	"muralgen/internal/gallery"
)

var testBase = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func putItem(state *gallery.State, at time.Time, shortened string, class gallery.Classification) uuid.UUID {
	id := uuid.New()
	state.Items[id] = gallery.GeneratedItem{
		ID:              id,
		CreatedAt:       at,
		Prompt:          "full prompt for " + shortened,
		ShortenedPrompt: shortened,
		Classification:  class,
	}
	return id
}

func putComment(state *gallery.State, at time.Time, text string) {
	id := uuid.New()
	state.Comments[id] = gallery.Comment{ID: id, CreatedAt: at, Text: text}
}

// fakeGenerator is a deterministic stand-in for the AI registry.
type fakeGenerator struct {
	response string
	err      error

	lastSystem string
	lastUser   string
}

func (f *fakeGenerator) GenerateStructured(ctx context.Context, systemPrompt, userPrompt string, schema ai.Schema) (string, error) {
	f.lastSystem = systemPrompt
	f.lastUser = userPrompt
	if f.err != nil {
		return "", f.err
	}
	return f.response, nil
}

func TestRenderOrdersNewestFirst(t *testing.T) {
	state := gallery.NewState()
	putItem(state, testBase.Add(2*time.Minute), "castle on a cliff", gallery.Loved)
	putComment(state, testBase.Add(1*time.Minute), "more blue tones")
	putItem(state, testBase, "quiet forest", gallery.Neutral)

	got := NewAggregator(nil, discardLogger()).Render(context.Background(), state)
	want := "(user LOVED this) 'castle on a cliff'\n" +
		"User commented: 'more blue tones'\n" +
		"'quiet forest'"
	if got != want {
		t.Errorf("Render:\ngot  %q\nwant %q", got, want)
	}
}

func TestEqualTimestampsOrderByID(t *testing.T) {
	state := gallery.NewState()
	first := uuid.MustParse("00000000-0000-0000-0000-000000000001")
	second := uuid.MustParse("ffffffff-0000-0000-0000-000000000001")
	state.Items[first] = gallery.GeneratedItem{
		ID: first, CreatedAt: testBase, ShortenedPrompt: "low id", Classification: gallery.Loved,
	}
	state.Items[second] = gallery.GeneratedItem{
		ID: second, CreatedAt: testBase, ShortenedPrompt: "high id", Classification: gallery.Loved,
	}

	agg := NewAggregator(nil, discardLogger())
	got := agg.Render(context.Background(), state)
	want := "(user LOVED this) 'low id'\n(user LOVED this) 'high id'"
	if got != want {
		t.Errorf("tie-break:\ngot  %q\nwant %q", got, want)
	}

	// Map iteration order must not leak into the output.
	for range 10 {
		if again := agg.Render(context.Background(), state); again != got {
			t.Fatal("equal-timestamp ordering is not stable")
		}
	}
}

// Thirty interleaved events: 25 items cycling through the classifications
// plus 5 comments. Retention is driven by the recency index, counted once
// per event regardless of kind.
func TestRetentionWindow(t *testing.T) {
	commentAt := map[int]bool{2: true, 7: true, 13: true, 21: true, 28: true}

	state := gallery.NewState()
	classes := []gallery.Classification{gallery.Loved, gallery.Liked, gallery.Disliked, gallery.Neutral}

	type expectation struct {
		text     string
		rendered bool
	}
	var expected []expectation // in recency order, newest first

	itemCount := 0
	for idx := range 30 {
		at := testBase.Add(-time.Duration(idx) * time.Minute)
		if commentAt[idx] {
			text := fmt.Sprintf("comment-%02d", idx)
			putComment(state, at, text)
			expected = append(expected, expectation{text: text, rendered: idx < 30})
			continue
		}
		class := classes[itemCount%len(classes)]
		itemCount++
		text := fmt.Sprintf("item-%02d", idx)
		putItem(state, at, text, class)
		expected = append(expected, expectation{text: text, rendered: idx < class.Threshold()})
	}
	if itemCount != 25 {
		t.Fatalf("scenario setup: got %d items, want 25", itemCount)
	}

	got := NewAggregator(nil, discardLogger()).Render(context.Background(), state)

	lastPos := -1
	for _, exp := range expected {
		pos := strings.Index(got, exp.text)
		if exp.rendered && pos < 0 {
			t.Errorf("%s should be rendered", exp.text)
			continue
		}
		if !exp.rendered {
			if pos >= 0 {
				t.Errorf("%s should not be rendered", exp.text)
			}
			continue
		}
		if pos < lastPos {
			t.Errorf("%s appears out of reverse-chronological order", exp.text)
		}
		lastPos = pos
	}
}

func TestHorizonDropsAncientItems(t *testing.T) {
	state := gallery.NewState()
	for idx := range 105 {
		at := testBase.Add(-time.Duration(idx) * time.Minute)
		putItem(state, at, fmt.Sprintf("idx-%03d", idx), gallery.Loved)
	}

	gen := &fakeGenerator{response: `{"loved":["old castles"],"liked":[],"disliked":[],"others":[]}`}
	agg := NewAggregator(NewSummarizer(gen, time.Second), discardLogger())
	got := agg.Render(context.Background(), state)

	if !strings.Contains(got, "idx-059") {
		t.Error("index 59 is inside the Loved window and should be rendered")
	}
	if strings.Contains(got, "idx-060'") {
		t.Error("index 60 is outside the Loved window and must not be rendered verbatim")
	}
	if !strings.Contains(gen.lastUser, "idx-060") || !strings.Contains(gen.lastUser, "idx-099") {
		t.Error("indexes 60-99 belong in the summarization bucket")
	}
	if strings.Contains(gen.lastUser, "idx-100") {
		t.Error("index 100 is past the horizon and must not reach the summarizer")
	}
	if !strings.Contains(got, "Summary of older history: (user LOVED: old castles)") {
		t.Errorf("summary line missing:\n%s", got)
	}
}

func TestCommentsAreNeverSummarized(t *testing.T) {
	state := gallery.NewState()
	for idx := range 40 {
		at := testBase.Add(-time.Duration(idx) * time.Minute)
		putComment(state, at, fmt.Sprintf("comment-%02d", idx))
	}
	// One aged-out item so the bucket is non-empty and a request is made.
	putItem(state, testBase.Add(-41*time.Minute), "stale item", gallery.Neutral)

	gen := &fakeGenerator{response: `{"loved":[],"liked":[],"disliked":[],"others":["stale things"]}`}
	got := NewAggregator(NewSummarizer(gen, time.Second), discardLogger()).Render(context.Background(), state)

	if !strings.Contains(got, "comment-29") {
		t.Error("comment at index 29 should be rendered")
	}
	if strings.Contains(got, "comment-30") {
		t.Error("comment at index 30 should be dropped")
	}
	if strings.Contains(gen.lastUser, "comment-") {
		t.Error("comments must never be sent to the summarizer")
	}
}

func TestSummarizerFailureIsNonFatal(t *testing.T) {
	state := gallery.NewState()
	putItem(state, testBase, "fresh meadow", gallery.Loved)
	for idx := 1; idx <= 25; idx++ {
		at := testBase.Add(-time.Duration(idx) * time.Minute)
		putItem(state, at, fmt.Sprintf("old-%02d", idx), gallery.Neutral)
	}

	gen := &fakeGenerator{err: errors.New("connection refused")}
	got := NewAggregator(NewSummarizer(gen, time.Second), discardLogger()).Render(context.Background(), state)

	if !strings.Contains(got, "fresh meadow") {
		t.Error("verbatim items must survive a summarizer failure")
	}
	if strings.Contains(got, "Summary of older history") {
		t.Error("summary line must be omitted when the summarizer fails")
	}
}

func TestMalformedSummaryIsNonFatal(t *testing.T) {
	state := gallery.NewState()
	for idx := range 25 {
		at := testBase.Add(-time.Duration(idx) * time.Minute)
		putItem(state, at, fmt.Sprintf("n-%02d", idx), gallery.Neutral)
	}

	gen := &fakeGenerator{response: "not json at all"}
	got := NewAggregator(NewSummarizer(gen, time.Second), discardLogger()).Render(context.Background(), state)

	if strings.Contains(got, "Summary of older history") {
		t.Error("summary line must be omitted on a malformed response")
	}
	if !strings.Contains(got, "n-00") {
		t.Error("verbatim items must survive a malformed summary response")
	}
}

func TestRenderIsIdempotent(t *testing.T) {
	state := gallery.NewState()
	for idx := range 50 {
		at := testBase.Add(-time.Duration(idx) * time.Minute)
		putItem(state, at, fmt.Sprintf("p-%02d", idx), gallery.Liked)
	}
	putComment(state, testBase.Add(time.Minute), "love these")

	gen := &fakeGenerator{response: `{"loved":[],"liked":["soft hills"],"disliked":[],"others":[]}`}
	agg := NewAggregator(NewSummarizer(gen, time.Second), discardLogger())

	first := agg.Render(context.Background(), state)
	second := agg.Render(context.Background(), state)
	if first != second {
		t.Errorf("Render is not idempotent:\nfirst  %q\nsecond %q", first, second)
	}
}

func TestBucketBlockFormat(t *testing.T) {
	b := &bucket{
		loved:  []string{"misty forest", "glass towers"},
		others: []string{"plain field"},
	}
	got := bucketBlock(b)
	want := "Loved: misty forest, glass towers\nOther: plain field\n"
	if got != want {
		t.Errorf("bucketBlock: got %q, want %q", got, want)
	}
}

func TestFormatSummaryOmitsEmptyCategories(t *testing.T) {
	got := formatSummary(summaryResult{
		Loved:    []string{"misty forests", "high peaks"},
		Disliked: []string{"crowded streets"},
	})
	want := "Summary of older history: (user LOVED: misty forests, high peaks) (user disliked: crowded streets)"
	if got != want {
		t.Errorf("formatSummary: got %q, want %q", got, want)
	}

	if got := formatSummary(summaryResult{}); got != "" {
		t.Errorf("formatSummary of empty result: got %q, want empty", got)
	}
}
