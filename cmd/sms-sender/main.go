// nexus-sms - SMS relay for the Twilio Messages API
// Copyright (C) 2026  nexus contributors
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published
// by the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.

// sms-sender is a long-running Kafka consumer that reads outbound SMS messages
// from the "sms-outbox" topic and delivers them through Twilio.
//
// It shares nexus-sms configuration:
//
//	SMS_KAFKA_BROKERS   comma-separated broker list, e.g. "kafka:9092"
//	SMS_CONFIG_PATH     credentials file (default config.txt)
//	TWILIO_ACCOUNT_SID, TWILIO_AUTH_TOKEN, TWILIO_FROM_NUMBER
//	                    used when the credentials file is missing or incomplete
package main

import (
	"context"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/jredh-dev/nexus-sms/internal/cli"
	"github.com/jredh-dev/nexus-sms/internal/config"
	"github.com/jredh-dev/nexus-sms/internal/logging"
	"github.com/jredh-dev/nexus-sms/internal/phone"
	"github.com/jredh-dev/nexus-sms/internal/sms"
)

func main() {
	os.Exit(run())
}

func run() int {
	settings, err := config.Load()
	if err != nil {
		boot := logging.New("info", os.Stderr)
		boot.Error().Err(err).Msg("sms-sender: load config")
		return 1
	}
	log := logging.New(settings.LogLevel, os.Stderr).With().Str("component", "sms-sender").Logger()

	if len(settings.KafkaBrokers) == 0 {
		log.Error().Msg("SMS_KAFKA_BROKERS is not set")
		return 1
	}
	creds := settings.Credentials()
	if !creds.Complete() {
		log.Error().Str("path", settings.CredentialsPath).Msg("no complete Twilio credentials in file or environment")
		return 1
	}
	from, err := phone.Normalize(creds.FromNumber, settings.DefaultRegion)
	if err != nil {
		log.Error().Err(err).Str("from", creds.FromNumber).Msg("sender number is not E.164")
		return 1
	}
	creds.FromNumber = from

	consumer := sms.NewConsumer(settings.KafkaBrokers, cli.NewSender(settings, creds), creds.FromNumber, log)
	defer func() {
		if err := consumer.Close(); err != nil {
			log.Error().Err(err).Msg("error closing consumer")
		}
	}()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	log.Info().
		Str("brokers", strings.Join(settings.KafkaBrokers, ",")).
		Str("from", creds.FromNumber).
		Str("backend", settings.Backend).
		Msg("starting")
	if err := consumer.Run(ctx); err != nil {
		log.Error().Err(err).Msg("fatal error")
		return 1
	}
	log.Info().Msg("shutdown complete")
	return 0
}
