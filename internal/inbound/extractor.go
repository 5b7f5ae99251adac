// nexus-sms - SMS relay for the Twilio Messages API
// Copyright (C) 2026  nexus contributors
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published
// by the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.

// Package inbound receives Twilio's incoming-message webhook and pulls the
// From and Body fields out of the POSTed form.
package inbound

import (
	"errors"
	"net/http"
)

// Field names and their size limits, in decoded bytes.
const (
	FieldFrom = "From"
	FieldBody = "Body"

	MaxFromLen = 100
	MaxBodyLen = 2048
)

var (
	// ErrFieldTooLarge is returned when From or Body grows past its limit.
	ErrFieldTooLarge = errors.New("form field too large")

	// ErrMalformedBody is returned for bodies the form decoder cannot parse.
	ErrMalformedBody = errors.New("malformed form body")
)

// Fields are the values extracted from one webhook request.
type Fields struct {
	From string
	Body string
}

type state int

const (
	stateIdle state = iota
	stateReceiving
	stateComplete
)

type field int

const (
	fieldNone field = iota
	fieldFrom
	fieldBody
)

// maxKeyLen bounds how much of a key is buffered. Longer keys cannot match
// a field we keep.
const maxKeyLen = len(FieldFrom) + 1

// Extractor accumulates From and Body for a single request as the body
// arrives in arbitrary chunks. It moves Idle -> Receiving -> Complete and must
// not be shared between requests.
type Extractor struct {
	state state
	from  []byte
	body  []byte
	err   error

	// urlencoded decoder state, carried across Write calls
	key      []byte
	keyLong  bool
	inValue  bool
	target   field
	escDigit int // 0: no escape pending, 1: after '%', 2: after one hex digit
	escValue byte
}

// NewExtractor returns an idle Extractor.
func NewExtractor() *Extractor {
	return &Extractor{}
}

// Begin resets the accumulated fields. Only POST requests move the extractor
// to Receiving; for any other method it stays Idle and yields no fields.
func (e *Extractor) Begin(method string) {
	*e = Extractor{}
	if method == http.MethodPost {
		e.state = stateReceiving
	}
}

// Receiving reports whether body chunks are being accepted.
func (e *Extractor) Receiving() bool {
	return e.state == stateReceiving
}

// Write feeds a chunk of an application/x-www-form-urlencoded body. Chunk
// boundaries may fall anywhere, including inside a percent escape. Once an
// error is returned every later call returns the same error.
func (e *Extractor) Write(p []byte) (int, error) {
	if e.err != nil {
		return 0, e.err
	}
	if e.state != stateReceiving {
		return len(p), nil
	}

	for i, c := range p {
		if err := e.decode(c); err != nil {
			e.err = err
			return i, err
		}
	}
	return len(p), nil
}

func (e *Extractor) decode(c byte) error {
	if e.escDigit > 0 {
		v, ok := unhex(c)
		if !ok {
			return ErrMalformedBody
		}
		e.escValue = e.escValue<<4 | v
		if e.escDigit == 1 {
			e.escDigit = 2
			return nil
		}
		e.escDigit = 0
		return e.emit(e.escValue)
	}

	switch c {
	case '%':
		e.escDigit = 1
		e.escValue = 0
		return nil
	case '&':
		e.endPair()
		return nil
	case '=':
		if !e.inValue {
			e.inValue = true
			e.target = e.resolveKey()
			return nil
		}
		return e.emit(c)
	case '+':
		return e.emit(' ')
	default:
		return e.emit(c)
	}
}

func (e *Extractor) emit(c byte) error {
	if !e.inValue {
		if len(e.key) < maxKeyLen {
			e.key = append(e.key, c)
		} else {
			e.keyLong = true
		}
		return nil
	}

	switch e.target {
	case fieldFrom:
		if len(e.from)+1 > MaxFromLen {
			return ErrFieldTooLarge
		}
		e.from = append(e.from, c)
	case fieldBody:
		if len(e.body)+1 > MaxBodyLen {
			return ErrFieldTooLarge
		}
		e.body = append(e.body, c)
	}
	return nil
}

func (e *Extractor) resolveKey() field {
	if e.keyLong {
		return fieldNone
	}
	return fieldByName(string(e.key))
}

func (e *Extractor) endPair() {
	e.key = e.key[:0]
	e.keyLong = false
	e.inValue = false
	e.target = fieldNone
}

// AppendField adds an already decoded chunk to the named field. It is the
// entry point for multipart bodies, where the part reader does the decoding.
// Unknown names are ignored.
func (e *Extractor) AppendField(name string, chunk []byte) error {
	if e.err != nil {
		return e.err
	}
	if e.state != stateReceiving {
		return nil
	}

	switch fieldByName(name) {
	case fieldFrom:
		if len(e.from)+len(chunk) > MaxFromLen {
			e.err = ErrFieldTooLarge
			return e.err
		}
		e.from = append(e.from, chunk...)
	case fieldBody:
		if len(e.body)+len(chunk) > MaxBodyLen {
			e.err = ErrFieldTooLarge
			return e.err
		}
		e.body = append(e.body, chunk...)
	}
	return nil
}

// Finish marks the request complete and returns what was collected. A body
// that ends inside a percent escape is malformed.
func (e *Extractor) Finish() (Fields, error) {
	if e.err != nil {
		return Fields{}, e.err
	}
	if e.state == stateReceiving && e.escDigit > 0 {
		e.err = ErrMalformedBody
		return Fields{}, e.err
	}
	e.state = stateComplete
	return Fields{From: string(e.from), Body: string(e.body)}, nil
}

func fieldByName(name string) field {
	switch name {
	case FieldFrom:
		return fieldFrom
	case FieldBody:
		return fieldBody
	}
	return fieldNone
}

func unhex(c byte) (byte, bool) {
	switch {
	case '0' <= c && c <= '9':
		return c - '0', true
	case 'a' <= c && c <= 'f':
		return c - 'a' + 10, true
	case 'A' <= c && c <= 'F':
		return c - 'A' + 10, true
	}
	return 0, false
}
