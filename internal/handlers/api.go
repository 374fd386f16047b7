// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package handlers implements the JSON API of the muralgen server. Every
// authenticated request carries its bearer token inside the packet body;
// decoding fails closed, so a malformed body or an unverified token
// rejects the request before any state is touched.
package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"muralgen/internal/auth"
	"muralgen/internal/cache"
	"muralgen/internal/gallery"
	"muralgen/internal/history"
)

// Packet shapes shared with the client.
type (
	LoginPacket struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}

	TokenPacket struct {
		Token string `json:"token"`
	}

	TokenStringPacket struct {
		Token  string `json:"token"`
		String string `json:"string"`
	}

	TokenUUIDPacket struct {
		Token string    `json:"token"`
		UUID  uuid.UUID `json:"uuid"`
	}

	SetStylePacket struct {
		Token   string `json:"token"`
		Variant string `json:"variant"`
		String  string `json:"string"`
	}

	ClassifyPacket struct {
		Token          string    `json:"token"`
		UUID           uuid.UUID `json:"uuid"`
		Classification string    `json:"classification"`
	}
)

// API groups the HTTP handlers and their collaborators.
type API struct {
	auth       *auth.Store
	gallery    *gallery.DocumentStore
	aggregator *history.Aggregator
	histCache  *cache.HistoryCache // nil when Valkey is not configured
	logger     *slog.Logger
}

// NewAPI creates the API handler group. histCache may be nil.
func NewAPI(authStore *auth.Store, galleryStore *gallery.DocumentStore, aggregator *history.Aggregator, histCache *cache.HistoryCache) *API {
	return &API{
		auth:       authStore,
		gallery:    galleryStore,
		aggregator: aggregator,
		histCache:  histCache,
		logger:     slog.Default().With("component", "api"),
	}
}

// decodePacket unmarshals the request body into dst. On failure it writes
// a 400 and returns false.
func decodePacket(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return false
	}
	return true
}

// authorize verifies the packet's bearer token. On failure it writes the
// response and returns false; all denials look the same to the caller.
func (a *API) authorize(w http.ResponseWriter, r *http.Request, token string) bool {
	valid, err := a.auth.VerifyToken(r.Context(), token)
	if err != nil {
		a.logger.Error("token verification failed", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return false
	}
	if !valid {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return false
	}
	return true
}

// invalidateHistory drops the cached rendered history after a mutation.
func (a *API) invalidateHistory(r *http.Request) {
	if a.histCache != nil {
		a.histCache.Invalidate(r.Context())
	}
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// writeText writes a plain-text response body.
func writeText(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(status)
	w.Write([]byte(body))
}
