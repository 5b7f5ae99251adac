// nexus-sms - SMS relay for the Twilio Messages API
// Copyright (C) 2026  nexus contributors
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published
// by the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.

// nexus-sms sends SMS through Twilio and receives Twilio's incoming-message
// webhook.
//
//	nexus-sms            listen for webhooks on SMS_PORT (default 8080)
//	nexus-sms --send     send one message interactively
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/jredh-dev/nexus-sms/internal/cli"
	"github.com/jredh-dev/nexus-sms/internal/config"
	"github.com/jredh-dev/nexus-sms/internal/inbound"
	"github.com/jredh-dev/nexus-sms/internal/inbox"
	"github.com/jredh-dev/nexus-sms/internal/logging"
	"github.com/jredh-dev/nexus-sms/internal/sms"
)

var (
	version   = "dev"
	commit    = "unknown"
	buildDate = "unknown"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	mode, err := cli.ParseArgs(args)
	if err != nil {
		fmt.Fprint(os.Stderr, cli.Usage)
		return 2
	}

	if mode == cli.ModeVersion {
		fmt.Printf("nexus-sms %s\n", version)
		fmt.Printf("Commit: %s\n", commit)
		fmt.Printf("Built: %s\n", buildDate)
		return 0
	}

	settings, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "nexus-sms: %v\n", err)
		return 1
	}
	log := logging.New(settings.LogLevel, os.Stderr)

	if mode == cli.ModeSend {
		return send(settings, log)
	}
	return serve(settings, log)
}

func send(settings *config.Settings, log zerolog.Logger) int {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	flow := &cli.SendFlow{
		Prompt:          cli.NewPrompter(os.Stdin, os.Stdout, os.Stderr),
		CredentialsPath: settings.CredentialsPath,
		DefaultRegion:   settings.DefaultRegion,
		NewSender: func(c config.Credentials) sms.Sender {
			return cli.NewSender(settings, c)
		},
		Log: log,
	}

	if err := flow.Run(ctx, settings.Credentials()); err != nil {
		fmt.Fprintf(os.Stderr, "Message sending failed: %v\n", err)
		return 1
	}
	return 0
}

func serve(settings *config.Settings, log zerolog.Logger) int {
	var (
		recorder inbound.Recorder
		messages http.Handler
	)
	if settings.InboxDB != "" {
		store, err := inbox.Open(settings.InboxDB)
		if err != nil {
			log.Error().Err(err).Str("path", settings.InboxDB).Msg("failed to open inbox")
			return 1
		}
		defer store.Close()
		recorder = store
		messages = http.HandlerFunc(store.ListHandler)
	}

	addr := ":" + settings.Port
	srv := &http.Server{
		Addr:         addr,
		Handler:      inbound.NewRouter(inbound.NewHandler(log, recorder), messages, log),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		sigint := make(chan os.Signal, 1)
		signal.Notify(sigint, os.Interrupt, syscall.SIGTERM)
		<-sigint

		log.Info().Msg("shutting down server")
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			log.Error().Err(err).Msg("server shutdown error")
		}
	}()

	log.Info().
		Str("addr", addr).
		Str("version", version).
		Bool("inbox", settings.InboxDB != "").
		Msg("nexus-sms listening")

	if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		log.Error().Err(err).Msg("server error")
		return 1
	}

	log.Info().Msg("server stopped")
	return 0
}
