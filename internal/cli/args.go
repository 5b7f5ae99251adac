// nexus-sms - SMS relay for the Twilio Messages API
// Copyright (C) 2026  nexus contributors
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published
// by the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.

// Package cli wires the nexus-sms command: argument handling, the
// interactive send flow and backend selection.
package cli

import (
	"errors"

	"github.com/jredh-dev/nexus-sms/internal/config"
	"github.com/jredh-dev/nexus-sms/internal/sms"
)

// Mode is what the command was asked to do.
type Mode int

const (
	ModeListen Mode = iota
	ModeSend
	ModeVersion
)

// Usage is printed to stderr for unrecognized arguments.
const Usage = `usage: nexus-sms [--send | -s | --version]

  (no arguments)  start the inbound webhook listener
  --send, -s      send one SMS interactively
  --version       print version information

Environment: SMS_PORT, SMS_CONFIG_PATH, SMS_BACKEND, SMS_INBOX_DB,
SMS_LOG_LEVEL, SMS_DEFAULT_REGION; credentials fall back to
TWILIO_ACCOUNT_SID, TWILIO_AUTH_TOKEN and TWILIO_FROM_NUMBER.
`

// ErrUsage means the arguments did not match any mode.
var ErrUsage = errors.New("invalid arguments")

// ParseArgs maps the arguments after the program name to a Mode. Anything
// other than nothing or a single recognized flag is ErrUsage.
func ParseArgs(args []string) (Mode, error) {
	switch len(args) {
	case 0:
		return ModeListen, nil
	case 1:
		switch args[0] {
		case "--send", "-send", "-s":
			return ModeSend, nil
		case "--version", "-version":
			return ModeVersion, nil
		}
	}
	return 0, ErrUsage
}

// NewSender returns the backend named by SMS_BACKEND for the given account.
func NewSender(s *config.Settings, c config.Credentials) sms.Sender {
	if s.Backend == config.BackendSDK {
		return sms.NewSDKSender(c.AccountSID, c.AuthToken)
	}

	var opts []sms.Option
	if s.HTTPTimeout > 0 {
		opts = append(opts, sms.WithTimeout(s.HTTPTimeout))
	}
	if s.APIBaseURL != "" {
		opts = append(opts, sms.WithBaseURL(s.APIBaseURL))
	}
	if s.UserAgent != "" {
		opts = append(opts, sms.WithUserAgent(s.UserAgent))
	}
	return sms.NewTwilioSender(c.AccountSID, c.AuthToken, opts...)
}
