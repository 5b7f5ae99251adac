// nexus-sms - SMS relay for the Twilio Messages API
// Copyright (C) 2026  nexus contributors
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published
// by the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.

package inbound

import (
	"context"
	"errors"
	"io"
	"mime"
	"mime/multipart"
	"net/http"

	"github.com/rs/zerolog"
)

const (
	// Ack is the plain-text body of every 200 response.
	Ack = "Message received"

	// readChunk is how much of the body is handed to the Extractor at once.
	readChunk = 512

	// maxRequestBody caps the whole request, unknown fields included.
	maxRequestBody = 64 << 10
)

// Recorder is told about every message received on a POST.
type Recorder interface {
	Record(ctx context.Context, from, body string) error
}

// Handler answers Twilio's incoming-message webhook on any path. Each request
// gets its own Extractor.
type Handler struct {
	log      zerolog.Logger
	recorder Recorder
}

// NewHandler creates a Handler. recorder may be nil.
func NewHandler(log zerolog.Logger, recorder Recorder) *Handler {
	return &Handler{
		log:      log.With().Str("component", "webhook").Logger(),
		recorder: recorder,
	}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ex := NewExtractor()
	ex.Begin(r.Method)

	if ex.Receiving() {
		r.Body = http.MaxBytesReader(w, r.Body, maxRequestBody)
		if err := readForm(ex, r); err != nil {
			h.fail(w, err)
			return
		}
	}

	fields, err := ex.Finish()
	if err != nil {
		h.fail(w, err)
		return
	}

	if r.Method == http.MethodPost {
		h.log.Info().Str("from", fields.From).Str("body", fields.Body).Msg("SMS received")

		if h.recorder != nil {
			if err := h.recorder.Record(r.Context(), fields.From, fields.Body); err != nil {
				h.log.Error().Err(err).Msg("record message")
				http.Error(w, "Internal Server Error", http.StatusInternalServerError)
				return
			}
		}
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	io.WriteString(w, Ack)
}

func (h *Handler) fail(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	var maxErr *http.MaxBytesError
	if errors.Is(err, ErrFieldTooLarge) || errors.As(err, &maxErr) {
		status = http.StatusRequestEntityTooLarge
	}
	h.log.Warn().Err(err).Int("status", status).Msg("rejected webhook")
	http.Error(w, http.StatusText(status), status)
}

// readForm streams the request body into ex. urlencoded is assumed when no
// Content-Type is given; other media types carry no fields we read.
func readForm(ex *Extractor, r *http.Request) error {
	ct := r.Header.Get("Content-Type")
	if ct == "" {
		ct = "application/x-www-form-urlencoded"
	}
	mediaType, params, err := mime.ParseMediaType(ct)
	if err != nil {
		return ErrMalformedBody
	}

	switch mediaType {
	case "application/x-www-form-urlencoded":
		return streamURLEncoded(ex, r.Body)
	case "multipart/form-data":
		boundary := params["boundary"]
		if boundary == "" {
			return ErrMalformedBody
		}
		return streamMultipart(ex, multipart.NewReader(r.Body, boundary))
	}
	return nil
}

func streamURLEncoded(ex *Extractor, body io.Reader) error {
	buf := make([]byte, readChunk)
	for {
		n, err := body.Read(buf)
		if n > 0 {
			if _, werr := ex.Write(buf[:n]); werr != nil {
				return werr
			}
		}
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
	}
}

func streamMultipart(ex *Extractor, mr *multipart.Reader) error {
	buf := make([]byte, readChunk)
	for {
		part, err := mr.NextPart()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			var maxErr *http.MaxBytesError
			if errors.As(err, &maxErr) {
				return err
			}
			return ErrMalformedBody
		}

		name := part.FormName()
		for {
			n, rerr := part.Read(buf)
			if n > 0 {
				if err := ex.AppendField(name, buf[:n]); err != nil {
					part.Close()
					return err
				}
			}
			if rerr == io.EOF {
				break
			}
			if rerr != nil {
				part.Close()
				return rerr
			}
		}
		part.Close()
	}
}
