// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package history

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"muralgen/internal/ai"
)

// StructuredGenerator is the slice of the AI registry the summarizer needs.
type StructuredGenerator interface {
	GenerateStructured(ctx context.Context, systemPrompt, userPrompt string, schema ai.Schema) (string, error)
}

const summarySystemPrompt = "You compress a list of old image-generation prompts into short descriptive phrases. " +
	"For each category, produce deduplicated phrases of 2 to 7 words capturing the recurring subjects and moods. " +
	"Do not invent subjects that are not in the input."

// summarySchema constrains the model to four string-array fields, one per
// classification bucket.
var summarySchema = ai.Schema{
	Name: "history_summary",
	Raw: json.RawMessage(`{
		"type": "object",
		"properties": {
			"loved":    {"type": "array", "items": {"type": "string"}},
			"liked":    {"type": "array", "items": {"type": "string"}},
			"disliked": {"type": "array", "items": {"type": "string"}},
			"others":   {"type": "array", "items": {"type": "string"}}
		},
		"required": ["loved", "liked", "disliked", "others"],
		"additionalProperties": false
	}`),
}

type summaryResult struct {
	Loved    []string `json:"loved"`
	Liked    []string `json:"liked"`
	Disliked []string `json:"disliked"`
	Others   []string `json:"others"`
}

// Summarizer compresses the discard bucket into one history line via a
// single structured-output request.
type Summarizer struct {
	gen     StructuredGenerator
	timeout time.Duration
}

func NewSummarizer(gen StructuredGenerator, timeout time.Duration) *Summarizer {
	return &Summarizer{gen: gen, timeout: timeout}
}

// Summarize sends the bucket contents to the model and formats the result
// as a single line. Returns an error on any transport or decoding failure;
// the caller treats that as non-fatal.
func (s *Summarizer) Summarize(ctx context.Context, discarded *bucket) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	raw, err := s.gen.GenerateStructured(ctx, summarySystemPrompt, bucketBlock(discarded), summarySchema)
	if err != nil {
		return "", fmt.Errorf("summarize: %w", err)
	}

	var result summaryResult
	if err := json.Unmarshal([]byte(raw), &result); err != nil {
		return "", fmt.Errorf("summarize decode: %w", err)
	}

	return formatSummary(result), nil
}

// bucketBlock renders the discard bucket as the plain-text user message,
// one "Label: item, item" line per non-empty category.
func bucketBlock(b *bucket) string {
	var sb strings.Builder
	for _, group := range []struct {
		label string
		items []string
	}{
		{"Loved", b.loved},
		{"Liked", b.liked},
		{"Disliked", b.disliked},
		{"Other", b.others},
	} {
		if len(group.items) == 0 {
			continue
		}
		sb.WriteString(group.label)
		sb.WriteString(": ")
		sb.WriteString(strings.Join(group.items, ", "))
		sb.WriteString("\n")
	}
	return sb.String()
}

// formatSummary builds the synthesized history line, omitting empty
// categories entirely.
func formatSummary(r summaryResult) string {
	var parts []string
	if len(r.Loved) > 0 {
		parts = append(parts, "(user LOVED: "+strings.Join(r.Loved, ", ")+")")
	}
	if len(r.Liked) > 0 {
		parts = append(parts, "(user liked: "+strings.Join(r.Liked, ", ")+")")
	}
	if len(r.Disliked) > 0 {
		parts = append(parts, "(user disliked: "+strings.Join(r.Disliked, ", ")+")")
	}
	if len(r.Others) > 0 {
		parts = append(parts, "(others: "+strings.Join(r.Others, ", ")+")")
	}
	if len(parts) == 0 {
		return ""
	}
	return "Summary of older history: " + strings.Join(parts, " ")
}
