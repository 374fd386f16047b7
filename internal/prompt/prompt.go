// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package prompt assembles the instruction sequence handed to the image
// generation collaborator. History-avoidance guidance and style guidance
// always precede the user's explicit request.
package prompt

import (
	"strings"

	"muralgen/internal/gallery"
)

const defaultRequest = "Come up with one new wallpaper idea and describe it as a single image-generation prompt."

// Build produces the ordered instruction strings for a generation request.
// history may be empty (fresh install); request may be empty, in which case
// a generic ask is substituted.
func Build(history string, style gallery.StyleConfig, request string) []string {
	var instructions []string

	if history != "" {
		instructions = append(instructions,
			"Here is the user's generation history, most recent first. "+
				"Avoid repeating or closely imitating previous wallpapers, lean towards what the user loved "+
				"and away from what they disliked, and honour their comments:\n"+history)
	}

	if style.Style != "" {
		instructions = append(instructions, "Art style: "+style.Style)
	}
	if style.Contents != "" {
		instructions = append(instructions, "Preferred contents and themes: "+style.Contents)
	}
	if style.NegativeContents != "" {
		instructions = append(instructions, "Avoid: "+style.NegativeContents)
	}

	if request == "" {
		request = defaultRequest
	}
	instructions = append(instructions, request)

	return instructions
}

// Text joins the instruction sequence into the final prompt body.
func Text(history string, style gallery.StyleConfig, request string) string {
	return strings.Join(Build(history, style, request), "\n\n")
}
