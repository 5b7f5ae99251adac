// nexus-sms - SMS relay for the Twilio Messages API
// Copyright (C) 2026  nexus contributors
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published
// by the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.

package inbound

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/jredh-dev/nexus-sms/internal/logging"
)

// NewRouter mounts the webhook on every path not claimed by /health or, when
// messages is non-nil, GET /api/messages.
func NewRouter(webhook *Handler, messages http.Handler, log zerolog.Logger) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(logging.RequestLogger(log))
	// Inside the logger so the 500 it writes is what gets logged.
	r.Use(middleware.Recoverer)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	if messages != nil {
		r.Method(http.MethodGet, "/api/messages", messages)
	}

	r.NotFound(webhook.ServeHTTP)
	r.MethodNotAllowed(webhook.ServeHTTP)
	return r
}
