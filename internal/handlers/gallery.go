// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"errors"
	"net/http"
	"strings"

	"muralgen/internal/gallery"
)

// Gallery returns the full application state as JSON. The token travels in
// the Authorization header since a GET carries no packet body.
func (a *API) Gallery(w http.ResponseWriter, r *http.Request) {
	token := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
	if !a.authorize(w, r, token) {
		return
	}

	state, err := a.gallery.Load(r.Context())
	if err != nil {
		a.logger.Error("gallery load failed", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, state)
}

// AddComment records a user comment against the generation history.
func (a *API) AddComment(w http.ResponseWriter, r *http.Request) {
	var packet TokenStringPacket
	if !decodePacket(w, r, &packet) {
		return
	}
	if !a.authorize(w, r, packet.Token) {
		return
	}

	id, err := a.gallery.AddComment(r.Context(), packet.String)
	if err != nil {
		a.logger.Error("add comment failed", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	a.invalidateHistory(r)
	writeJSON(w, http.StatusOK, map[string]string{"id": id.String()})
}

// RemoveComment deletes a comment by ID. Unknown IDs are a no-op.
func (a *API) RemoveComment(w http.ResponseWriter, r *http.Request) {
	var packet TokenUUIDPacket
	if !decodePacket(w, r, &packet) {
		return
	}
	if !a.authorize(w, r, packet.Token) {
		return
	}

	if err := a.gallery.RemoveComment(r.Context(), packet.UUID); err != nil {
		a.logger.Error("remove comment failed", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	a.invalidateHistory(r)
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// SetStyle updates one field of the style configuration, selected by the
// packet's variant tag.
func (a *API) SetStyle(w http.ResponseWriter, r *http.Request) {
	var packet SetStylePacket
	if !decodePacket(w, r, &packet) {
		return
	}
	if !a.authorize(w, r, packet.Token) {
		return
	}

	err := a.gallery.SetStyle(r.Context(), gallery.StyleVariant(packet.Variant), packet.String)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	a.invalidateHistory(r)
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Classify records the user's sentiment about a generated item. Submitting
// the item's current classification toggles it back to neutral.
func (a *API) Classify(w http.ResponseWriter, r *http.Request) {
	var packet ClassifyPacket
	if !decodePacket(w, r, &packet) {
		return
	}
	if !a.authorize(w, r, packet.Token) {
		return
	}

	err := a.gallery.Classify(r.Context(), packet.UUID, gallery.Classification(packet.Classification))
	switch {
	case errors.Is(err, gallery.ErrItemNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	case err != nil:
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	a.invalidateHistory(r)
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
