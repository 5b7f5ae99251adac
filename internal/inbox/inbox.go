// nexus-sms - SMS relay for the Twilio Messages API
// Copyright (C) 2026  nexus contributors
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published
// by the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.

// Package inbox keeps a SQLite record of messages received on the webhook.
package inbox

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"

	_ "modernc.org/sqlite"
)

// DefaultListLimit is used when a listing asks for no limit or a bad one.
const DefaultListLimit = 50

// Message is one received SMS.
type Message struct {
	ID         string    `json:"id"`
	From       string    `json:"from"`
	Body       string    `json:"body"`
	ReceivedAt time.Time `json:"received_at"`
}

// Store wraps the SQLite connection.
type Store struct {
	conn *sql.DB
	now  func() time.Time
}

const schema = `
CREATE TABLE IF NOT EXISTS messages (
	id          TEXT PRIMARY KEY,
	from_number TEXT NOT NULL DEFAULT '',
	body        TEXT NOT NULL DEFAULT '',
	received_at DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_messages_received_at ON messages(received_at);
`

// Open creates or opens the database at path and applies the schema.
func Open(path string) (*Store, error) {
	conn, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// Single writer, many readers.
	conn.SetMaxOpenConns(1)

	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	if _, err := conn.Exec(schema); err != nil {
		conn.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return &Store{conn: conn, now: time.Now}, nil
}

// Close shuts down the database connection.
func (s *Store) Close() error {
	return s.conn.Close()
}

// Record stores a received message.
func (s *Store) Record(ctx context.Context, from, body string) error {
	_, err := s.conn.ExecContext(ctx,
		`INSERT INTO messages (id, from_number, body, received_at) VALUES (?, ?, ?, ?)`,
		uuid.NewString(), from, body, s.now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("insert message: %w", err)
	}
	return nil
}

// List returns up to limit messages, newest first.
func (s *Store) List(ctx context.Context, limit int) ([]Message, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}
	rows, err := s.conn.QueryContext(ctx,
		`SELECT id, from_number, body, received_at FROM messages ORDER BY received_at DESC, rowid DESC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query messages: %w", err)
	}
	defer rows.Close()

	msgs := []Message{}
	for rows.Next() {
		var m Message
		if err := rows.Scan(&m.ID, &m.From, &m.Body, &m.ReceivedAt); err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		msgs = append(msgs, m)
	}
	return msgs, rows.Err()
}

// ListHandler serves GET /api/messages?limit=N as JSON.
func (s *Store) ListHandler(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	msgs, err := s.List(r.Context(), limit)
	if err != nil {
		jsonError(w, "failed to list messages", http.StatusInternalServerError)
		return
	}
	jsonOK(w, http.StatusOK, msgs)
}

// --- helpers ---

func jsonOK(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func jsonError(w http.ResponseWriter, msg string, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
