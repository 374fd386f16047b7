// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"errors"
	"net/http"

	"muralgen/internal/auth"
)

// Login authenticates a LoginPacket and returns the issued token as plain
// text. When a status message accompanies the token (first admin created,
// password just set), the body is "<message>|<token>"; otherwise it is the
// bare token. Clients split on the separator.
func (a *API) Login(w http.ResponseWriter, r *http.Request) {
	var packet LoginPacket
	if !decodePacket(w, r, &packet) {
		return
	}

	res, err := a.auth.Login(r.Context(), packet.Username, packet.Password)
	switch {
	case errors.Is(err, auth.ErrPasswordTooShort):
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	case errors.Is(err, auth.ErrInvalidCredentials):
		http.Error(w, err.Error(), http.StatusUnauthorized)
		return
	case err != nil:
		a.logger.Error("login failed", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	body := res.Token
	if res.Message != "" {
		body = res.Message + "|" + res.Token
	}
	writeText(w, http.StatusOK, body)
}
