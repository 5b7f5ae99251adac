// nexus-sms - SMS relay for the Twilio Messages API
// Copyright (C) 2026  nexus contributors
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published
// by the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.

// Package sms sends outbound SMS through the Twilio Messages API, either
// directly from the CLI or from the Kafka outbox consumer.
package sms

import "net/http"

// Request is one outbound message. It lives only for the duration of a
// single Send call.
type Request struct {
	From string
	To   string
	Body string
}

// Result is the outcome of a Send that reached the API.
type Result struct {
	// StatusCode is the HTTP status returned by Twilio.
	StatusCode int

	// Body is the raw response body, kept for diagnostics. It is never
	// parsed beyond this point.
	Body string

	// Succeeded is true iff StatusCode is 201 Created, which is how Twilio
	// acknowledges a queued message.
	Succeeded bool
}

func newResult(status int, body string) Result {
	return Result{
		StatusCode: status,
		Body:       body,
		Succeeded:  status == http.StatusCreated,
	}
}

// OutboundMessage is the JSON record producers publish on the sms-outbox
// Kafka topic:
//
//	{
//	  "id":   "550e8400-e29b-41d4-a716-446655440000",
//	  "to":   "+15551234567",
//	  "body": "hello world"
//	}
//
// The sender number is not part of the record; the consumer sends from the
// configured FROM_NUMBER.
type OutboundMessage struct {
	// ID is a client-generated UUID, logged with the delivery outcome so
	// duplicates can be spotted when replaying a partition.
	ID string `json:"id"`

	// To is the E.164 destination number.
	To string `json:"to"`

	Body string `json:"body"`
}
