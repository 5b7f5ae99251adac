// nexus-sms - SMS relay for the Twilio Messages API
// Copyright (C) 2026  nexus contributors
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published
// by the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.

// Package config loads the Twilio credentials file and the service settings.
package config

import (
	"bufio"
	"fmt"
	"os"
	"strings"
)

// DefaultCredentialsPath is used when SMS_CONFIG_PATH is not set.
const DefaultCredentialsPath = "config.txt"

// Recognized keys in the credentials file. Matching is case-insensitive.
const (
	KeyAccountSID = "ACCOUNT_SID"
	KeyAuthToken  = "AUTH_TOKEN"
	KeyFromNumber = "FROM_NUMBER"
)

// Credentials are the three values needed to send through Twilio.
type Credentials struct {
	AccountSID string
	AuthToken  string
	FromNumber string
}

// Complete reports whether all three fields are set.
func (c Credentials) Complete() bool {
	return c.AccountSID != "" && c.AuthToken != "" && c.FromNumber != ""
}

// LoadCredentials reads a KEY=value credentials file.
//
// A missing or unreadable file is a normal first-run condition and yields
// empty Credentials. A file that lacks any of the three keys, or sets one to an
// empty value, is treated the same way: all fields come back empty so a half
// configured account is never used.
func LoadCredentials(path string) Credentials {
	f, err := os.Open(path)
	if err != nil {
		return Credentials{}
	}
	defer f.Close()

	c, err := parseCredentials(bufio.NewScanner(f))
	if err != nil || !c.Complete() {
		return Credentials{}
	}
	return c
}

func parseCredentials(sc *bufio.Scanner) (Credentials, error) {
	var c Credentials
	first := true
	for sc.Scan() {
		line := sc.Text()
		if first {
			line = strings.TrimPrefix(line, "\ufeff")
			first = false
		}
		line = strings.TrimSpace(line)
		if line == "" || line[0] == '#' || line[0] == ';' {
			continue
		}

		key, value, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		value = strings.TrimSpace(value)

		// Later lines overwrite earlier ones.
		switch strings.ToUpper(strings.TrimSpace(key)) {
		case KeyAccountSID:
			c.AccountSID = value
		case KeyAuthToken:
			c.AuthToken = value
		case KeyFromNumber:
			c.FromNumber = value
		}
	}
	return c, sc.Err()
}

// SaveCredentials writes c to path as three KEY=value lines, replacing any
// existing file. Values containing '=' or newlines do not survive a reload.
func SaveCredentials(path string, c Credentials) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return fmt.Errorf("open credentials file: %w", err)
	}

	w := bufio.NewWriter(f)
	fmt.Fprintf(w, "%s=%s\n", KeyAccountSID, c.AccountSID)
	fmt.Fprintf(w, "%s=%s\n", KeyAuthToken, c.AuthToken)
	fmt.Fprintf(w, "%s=%s\n", KeyFromNumber, c.FromNumber)

	if err := w.Flush(); err != nil {
		f.Close()
		return fmt.Errorf("write credentials file: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close credentials file: %w", err)
	}
	return nil
}

// CredentialsFromEnv reads TWILIO_ACCOUNT_SID, TWILIO_AUTH_TOKEN and
// TWILIO_FROM_NUMBER. Like the file loader, a partial set yields empty
// Credentials.
func CredentialsFromEnv() Credentials {
	c := Credentials{
		AccountSID: strings.TrimSpace(os.Getenv("TWILIO_ACCOUNT_SID")),
		AuthToken:  strings.TrimSpace(os.Getenv("TWILIO_AUTH_TOKEN")),
		FromNumber: strings.TrimSpace(os.Getenv("TWILIO_FROM_NUMBER")),
	}
	if !c.Complete() {
		return Credentials{}
	}
	return c
}
