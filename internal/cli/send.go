// nexus-sms - SMS relay for the Twilio Messages API
// Copyright (C) 2026  nexus contributors
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published
// by the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.

package cli

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/jredh-dev/nexus-sms/internal/config"
	"github.com/jredh-dev/nexus-sms/internal/phone"
	"github.com/jredh-dev/nexus-sms/internal/sms"
)

// SendFlow is the interactive "send one SMS" session.
type SendFlow struct {
	Prompt          *Prompter
	CredentialsPath string
	DefaultRegion   string
	NewSender       func(config.Credentials) sms.Sender
	Log             zerolog.Logger
}

// Run collects whatever is missing from creds, asks for the recipient and
// message, and sends. It returns nil only when Twilio answered 201.
func (f *SendFlow) Run(ctx context.Context, creds config.Credentials) error {
	out := f.Prompt.out
	fmt.Fprintln(out, "--- nexus-sms: send an SMS through Twilio ---")

	creds, err := f.credentials(creds)
	if err != nil {
		return err
	}

	to, err := f.Prompt.AskUntil(
		"Enter the recipient's phone number (e.g., +1234567890): ",
		"Invalid recipient phone number. Use E.164 format: '+' followed by 7 to 15 digits.",
		f.checkPhone,
	)
	if err != nil {
		return err
	}

	body, err := f.Prompt.Ask("Enter the message body: ")
	if err != nil {
		return err
	}
	if body == "" {
		fmt.Fprintln(out, "Warning: message body is empty.")
	}

	id := uuid.NewString()
	log := f.Log.With().Str("id", id).Str("to", to).Logger()

	fmt.Fprintln(out, "\nSending SMS...")
	res, err := f.NewSender(creds).Send(ctx, sms.Request{From: creds.FromNumber, To: to, Body: body})
	if err != nil {
		log.Error().Err(err).Msg("send failed before reaching Twilio")
		return fmt.Errorf("send: %w", err)
	}

	fmt.Fprintf(out, "HTTP response code: %d\n", res.StatusCode)
	fmt.Fprintf(out, "API Response: %s\n", res.Body)
	if err := sms.Check(res, nil); err != nil {
		log.Warn().Int("status", res.StatusCode).Msg("twilio rejected message")
		return err
	}

	log.Info().Msg("message queued")
	fmt.Fprintln(out, "SMS successfully queued by Twilio.")
	return nil
}

// credentials fills in anything missing or invalid and offers to save what
// was typed.
func (f *SendFlow) credentials(c config.Credentials) (config.Credentials, error) {
	out := f.Prompt.out
	if c.Complete() {
		fmt.Fprintf(out, "Using credentials from %s.\n", f.CredentialsPath)
		if n, ok := f.checkPhone(c.FromNumber); ok {
			c.FromNumber = n
			return c, nil
		}
		fmt.Fprintf(f.Prompt.errOut, "Stored sender number %q is not valid.\n", c.FromNumber)
	} else {
		fmt.Fprintf(out, "No complete credentials in %s; enter them below.\n", f.CredentialsPath)

		var err error
		c.AccountSID, err = f.Prompt.AskUntil(
			"Enter your Twilio Account SID: ",
			"Invalid Account SID. It starts with 'AC' and is longer than 30 characters.",
			func(s string) (string, bool) { return s, sms.ValidAccountSID(s) },
		)
		if err != nil {
			return c, err
		}

		c.AuthToken, err = f.Prompt.AskUntil(
			"Enter your Twilio Auth Token: ",
			"Auth Token cannot be empty.",
			func(s string) (string, bool) { return s, s != "" },
		)
		if err != nil {
			return c, err
		}
	}

	from, err := f.Prompt.AskUntil(
		"Enter your Twilio phone number (e.g., +10987654321): ",
		"Invalid Twilio phone number. Use E.164 format: '+' followed by 7 to 15 digits.",
		f.checkPhone,
	)
	if err != nil {
		return c, err
	}
	c.FromNumber = from

	save, err := f.Prompt.Confirm(fmt.Sprintf("Save these credentials to %s?", f.CredentialsPath))
	if err != nil {
		return c, err
	}
	if save {
		if err := config.SaveCredentials(f.CredentialsPath, c); err != nil {
			f.Log.Warn().Err(err).Msg("could not save credentials")
			fmt.Fprintf(f.Prompt.errOut, "Could not save credentials: %v\n", err)
		} else {
			fmt.Fprintf(out, "Credentials saved to %s.\n", f.CredentialsPath)
		}
	}
	return c, nil
}

func (f *SendFlow) checkPhone(s string) (string, bool) {
	if phone.IsValid(s) {
		return s, true
	}
	n, err := phone.Normalize(s, f.DefaultRegion)
	if err != nil {
		return "", false
	}
	return n, true
}
