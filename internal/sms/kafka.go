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
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	kafka "github.com/segmentio/kafka-go"

	"github.com/jredh-dev/nexus-sms/internal/phone"
)

const (
	// OutboxTopic is where producers publish messages they want sent as SMS.
	OutboxTopic = "sms-outbox"

	// DLQTopic receives messages that exhausted their retries or could not be
	// decoded, so they can be inspected and replayed by hand.
	DLQTopic = "sms-dlq"

	// ConsumerGroup is the Kafka consumer group ID.
	ConsumerGroup = "nexus-sms-sender"

	// maxRetries is the number of delivery attempts before a message is
	// routed to the DLQ.
	maxRetries = 3
)

// errUndeliverable marks records that retrying cannot fix.
var errUndeliverable = errors.New("undeliverable")

type messageReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Consumer reads OutboundMessages from the sms-outbox topic and sends each
// through a Sender. Offsets are committed after every record, delivered or
// dead-lettered, so one bad record never stalls the partition.
//
// Sender makes a single attempt; the consumer owns the retry policy.
type Consumer struct {
	reader  messageReader
	dlq     messageWriter
	sender  Sender
	from    string
	log     zerolog.Logger
	backoff func(attempt int) time.Duration
}

// NewConsumer creates a Consumer connected to the given Kafka brokers that
// sends from the given number.
func NewConsumer(brokers []string, sender Sender, from string, log zerolog.Logger) *Consumer {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:        brokers,
		Topic:          OutboxTopic,
		GroupID:        ConsumerGroup,
		MinBytes:       1,
		MaxBytes:       1 << 20, // 1 MiB
		CommitInterval: 0,       // explicit commits only
		StartOffset:    kafka.LastOffset,
	})

	dlq := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        DLQTopic,
		Balancer:     &kafka.LeastBytes{},
		RequiredAcks: kafka.RequireOne,
	}

	return newConsumer(reader, dlq, sender, from, log)
}

func newConsumer(r messageReader, w messageWriter, sender Sender, from string, log zerolog.Logger) *Consumer {
	return &Consumer{
		reader: r,
		dlq:    w,
		sender: sender,
		from:   from,
		log:    log.With().Str("component", "outbox").Logger(),
		backoff: func(attempt int) time.Duration {
			return time.Duration(attempt) * 2 * time.Second
		},
	}
}

// Run blocks, consuming messages until ctx is cancelled.
func (c *Consumer) Run(ctx context.Context) error {
	c.log.Info().Str("topic", OutboxTopic).Msg("consuming")

	for {
		m, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("fetch: %w", err)
		}

		if err := c.dispatch(ctx, m); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			c.log.Warn().Err(err).Str("key", string(m.Key)).Msg("routed message to DLQ")
		}

		if err := c.reader.CommitMessages(ctx, m); err != nil {
			c.log.Error().Err(err).Msg("commit failed, message may be redelivered")
		}
	}
}

// Close releases all Kafka resources.
func (c *Consumer) Close() error {
	rerr := c.reader.Close()
	werr := c.dlq.Close()
	if rerr != nil {
		return rerr
	}
	return werr
}

// dispatch sends one record, retrying with linear backoff. Records that
// cannot be decoded or addressed, or that fail every attempt, go to the DLQ.
func (c *Consumer) dispatch(ctx context.Context, m kafka.Message) error {
	var msg OutboundMessage
	if err := json.Unmarshal(m.Value, &msg); err != nil {
		return c.sendToDLQ(ctx, m, fmt.Errorf("%w: unmarshal: %v", errUndeliverable, err))
	}
	if !phone.IsValid(msg.To) {
		return c.sendToDLQ(ctx, m, fmt.Errorf("%w: invalid recipient %q", errUndeliverable, msg.To))
	}

	req := Request{From: c.from, To: msg.To, Body: msg.Body}

	var lastErr error
	for attempt := 1; attempt <= maxRetries; attempt++ {
		lastErr = Check(c.sender.Send(ctx, req))
		if lastErr == nil {
			c.log.Info().Str("id", msg.ID).Str("to", msg.To).Int("attempt", attempt).Msg("sent")
			return nil
		}

		c.log.Warn().Err(lastErr).
			Str("id", msg.ID).
			Int("attempt", attempt).
			Int("max", maxRetries).
			Msg("send attempt failed")

		if attempt < maxRetries {
			select {
			case <-time.After(c.backoff(attempt)):
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}

	return c.sendToDLQ(ctx, m, lastErr)
}

// sendToDLQ writes the original record to the dead-letter topic and returns
// reason.
func (c *Consumer) sendToDLQ(ctx context.Context, original kafka.Message, reason error) error {
	err := c.dlq.WriteMessages(ctx, kafka.Message{
		Key:   original.Key,
		Value: original.Value,
		Headers: []kafka.Header{
			{Key: "dlq-reason", Value: []byte(reason.Error())},
		},
	})
	if err != nil {
		c.log.Error().Err(err).Msg("could not write to DLQ")
	}
	return reason
}
