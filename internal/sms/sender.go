// nexus-sms - SMS relay for the Twilio Messages API
// Copyright (C) 2026  nexus contributors
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published
// by the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.

package sms

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	// DefaultBaseURL is the Twilio REST API host.
	DefaultBaseURL = "https://api.twilio.com"

	// DefaultUserAgent identifies this client to Twilio.
	DefaultUserAgent = "nexus-sms/1.0"

	defaultTimeout = 15 * time.Second
)

// Sender is the interface any SMS backend must implement. Send makes exactly
// one attempt; retrying is the caller's decision.
//
// A non-nil error means the API was never reached. An API-level failure is
// reported through Result.Succeeded with a nil error.
type Sender interface {
	Send(ctx context.Context, req Request) (Result, error)
}

// Doer is the transport a TwilioSender issues requests through. *http.Client
// satisfies it; tests substitute their own.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// TwilioSender posts form-encoded messages to
// {base}/2010-04-01/Accounts/{sid}/Messages.json with HTTP Basic auth.
// It holds no mutable state and is safe for concurrent use.
type TwilioSender struct {
	accountSID string
	authToken  string
	baseURL    string
	userAgent  string
	timeout    time.Duration
	client     Doer
}

// Option configures a TwilioSender.
type Option func(*TwilioSender)

// WithBaseURL points the sender at a different API host, e.g. an httptest
// server.
func WithBaseURL(u string) Option {
	return func(s *TwilioSender) { s.baseURL = strings.TrimRight(u, "/") }
}

// WithUserAgent overrides DefaultUserAgent.
func WithUserAgent(ua string) Option {
	return func(s *TwilioSender) { s.userAgent = ua }
}

// WithHTTPClient replaces the default *http.Client.
func WithHTTPClient(d Doer) Option {
	return func(s *TwilioSender) { s.client = d }
}

// WithTimeout sets the timeout of the default *http.Client. It has no effect
// when WithHTTPClient is also given.
func WithTimeout(d time.Duration) Option {
	return func(s *TwilioSender) { s.timeout = d }
}

// NewTwilioSender creates a TwilioSender for the given account.
func NewTwilioSender(accountSID, authToken string, opts ...Option) *TwilioSender {
	s := &TwilioSender{
		accountSID: accountSID,
		authToken:  authToken,
		baseURL:    DefaultBaseURL,
		userAgent:  DefaultUserAgent,
		timeout:    defaultTimeout,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.client == nil {
		s.client = &http.Client{Timeout: s.timeout}
	}
	return s
}

// MessagesURL returns the endpoint Send posts to.
func (s *TwilioSender) MessagesURL() string {
	return s.baseURL + "/2010-04-01/Accounts/" + url.PathEscape(s.accountSID) + "/Messages.json"
}

// Send posts req to Twilio and returns the status and raw body. The body is
// read in full whatever the status.
func (s *TwilioSender) Send(ctx context.Context, req Request) (Result, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, s.MessagesURL(), strings.NewReader(EncodeForm(req)))
	if err != nil {
		return Result{}, fmt.Errorf("build request: %w", err)
	}
	httpReq.SetBasicAuth(s.accountSID, s.authToken)
	httpReq.Header.Set("User-Agent", s.userAgent)
	httpReq.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	httpReq.Header.Set("Accept", "application/json")

	resp, err := s.client.Do(httpReq)
	if err != nil {
		return Result{}, &TransportError{Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return Result{}, &TransportError{Err: fmt.Errorf("read response: %w", err)}
	}
	return newResult(resp.StatusCode, string(body)), nil
}

// EncodeForm renders req as To=…&From=…&Body=… in that order. url.Values
// would sort the keys, so the pairs are joined by hand.
func EncodeForm(req Request) string {
	var b strings.Builder
	b.WriteString("To=")
	b.WriteString(escape(req.To))
	b.WriteString("&From=")
	b.WriteString(escape(req.From))
	b.WriteString("&Body=")
	b.WriteString(escape(req.Body))
	return b.String()
}

// escape leaves only ALPHA, DIGIT and -_.~ unescaped. QueryEscape already
// does that except for turning spaces into '+'; a literal '+' has been
// escaped to %2B by then, so the replacement is unambiguous.
func escape(s string) string {
	return strings.ReplaceAll(url.QueryEscape(s), "+", "%20")
}

// ValidAccountSID reports whether sid looks like a Twilio account SID: "AC"
// followed by enough characters to be more than 30 long. Real SIDs are 34.
func ValidAccountSID(sid string) bool {
	return strings.HasPrefix(sid, "AC") && len(sid) > 30
}
