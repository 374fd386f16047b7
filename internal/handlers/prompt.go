// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"net/http"

	"muralgen/internal/gallery"
	"muralgen/internal/prompt"
)

// PromptQuery runs the full aggregation pipeline and returns the prompt
// text that would be sent to the image generator. The packet's string
// field carries the user's explicit request, which may be empty.
func (a *API) PromptQuery(w http.ResponseWriter, r *http.Request) {
	var packet TokenStringPacket
	if !decodePacket(w, r, &packet) {
		return
	}
	if !a.authorize(w, r, packet.Token) {
		return
	}

	state, err := a.gallery.Load(r.Context())
	if err != nil {
		a.logger.Error("gallery load failed", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	rendered := a.renderedHistory(r, state)
	writeText(w, http.StatusOK, prompt.Text(rendered, state.Style, packet.String))
}

// renderedHistory returns the history text, serving from Valkey when a
// fresh copy is cached. Rendering never fails; summarization trouble just
// shortens the output.
func (a *API) renderedHistory(r *http.Request, state *gallery.State) string {
	if a.histCache != nil {
		if cached, ok := a.histCache.Get(r.Context()); ok {
			return cached
		}
	}

	rendered := a.aggregator.Render(r.Context(), state)

	if a.histCache != nil {
		a.histCache.Set(r.Context(), rendered)
	}
	return rendered
}
