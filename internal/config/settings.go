// nexus-sms - SMS relay for the Twilio Messages API
// Copyright (C) 2026  nexus contributors
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published
// by the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.

package config

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Backend names accepted by SMS_BACKEND.
const (
	BackendHTTP = "http"
	BackendSDK  = "sdk"
)

// Settings holds service configuration. Every field maps to an SMS_-prefixed
// environment variable, e.g. Port is SMS_PORT.
type Settings struct {
	Port            string        `envconfig:"PORT" default:"8080"`
	CredentialsPath string        `envconfig:"CONFIG_PATH" default:"config.txt"`
	APIBaseURL      string        `envconfig:"API_BASE_URL" default:"https://api.twilio.com"`
	UserAgent       string        `envconfig:"USER_AGENT" default:"nexus-sms/1.0"`
	HTTPTimeout     time.Duration `envconfig:"HTTP_TIMEOUT" default:"15s"`
	Backend         string        `envconfig:"BACKEND" default:"http"`
	InboxDB         string        `envconfig:"INBOX_DB"`
	KafkaBrokers    []string      `envconfig:"KAFKA_BROKERS"`
	LogLevel        string        `envconfig:"LOG_LEVEL" default:"info"`

	// DefaultRegion lets the interactive prompt accept national numbers,
	// e.g. "US" turns "(650) 253-0000" into "+16502530000".
	DefaultRegion string `envconfig:"DEFAULT_REGION"`
}

// Load reads an optional .env file into the environment and then processes
// the SMS_ variables. Variables already set in the environment win over .env.
func Load(dotenvFiles ...string) (*Settings, error) {
	if len(dotenvFiles) == 0 {
		dotenvFiles = []string{".env"}
	}
	for _, f := range dotenvFiles {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("load %s: %w", f, err)
		}
	}

	var s Settings
	if err := envconfig.Process("SMS", &s); err != nil {
		return nil, fmt.Errorf("process environment: %w", err)
	}
	if s.Backend != BackendHTTP && s.Backend != BackendSDK {
		return nil, fmt.Errorf("SMS_BACKEND must be %q or %q, got %q", BackendHTTP, BackendSDK, s.Backend)
	}
	return &s, nil
}

// Credentials returns the credentials file contents, falling back to the
// TWILIO_* environment variables when the file is missing or incomplete.
func (s *Settings) Credentials() Credentials {
	if c := LoadCredentials(s.CredentialsPath); c.Complete() {
		return c
	}
	return CredentialsFromEnv()
}
