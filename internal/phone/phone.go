// nexus-sms - SMS relay for the Twilio Messages API
// Copyright (C) 2026  nexus contributors
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published
// by the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.

// Package phone validates and normalizes phone numbers in E.164 form.
//
// IsValid checks shape only ("+" followed by 7 to 15 digits) and knows
// nothing about country codes or numbering plans.
// Normalize uses libphonenumber metadata to turn human input such as
// "(555) 123-4567" into that shape.
package phone

import (
	"errors"
	"fmt"
	"strings"

	"github.com/nyaruka/phonenumbers"
)

const (
	minDigits = 7
	maxDigits = 15
)

// ErrInvalid is returned by Normalize when the input cannot be turned into a
// number that passes IsValid.
var ErrInvalid = errors.New("invalid phone number")

// IsValid reports whether number matches ^\+\d{7,15}$.
func IsValid(number string) bool {
	if len(number) < 1+minDigits || len(number) > 1+maxDigits {
		return false
	}
	if number[0] != '+' {
		return false
	}
	for i := 1; i < len(number); i++ {
		if number[i] < '0' || number[i] > '9' {
			return false
		}
	}
	return true
}

// Normalize parses raw and returns it in E.164 form. Numbers without a
// leading "+" are interpreted in defaultRegion (an ISO 3166-1 alpha-2 code
// such as "US"); pass "" to require an explicit country code.
func Normalize(raw, defaultRegion string) (string, error) {
	raw = strings.TrimSpace(raw)
	if IsValid(raw) {
		return raw, nil
	}

	// Inputs like "+1+15551234567" come from clients that prepend a country
	// code to an already international number; keep the last one.
	if parts := strings.Split(raw, "+"); len(parts) == 3 {
		raw = "+" + parts[2]
	}

	num, err := phonenumbers.Parse(raw, strings.ToUpper(defaultRegion))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalid, err)
	}

	e164 := phonenumbers.Format(num, phonenumbers.E164)
	if !IsValid(e164) {
		return "", fmt.Errorf("%w: %q", ErrInvalid, raw)
	}
	return e164, nil
}
