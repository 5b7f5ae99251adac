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
	"net/http"

	"github.com/twilio/twilio-go"
	twclient "github.com/twilio/twilio-go/client"
	twapi "github.com/twilio/twilio-go/rest/api/v2010"
)

// messageCreator is the part of the twilio-go API service SDKSender uses.
type messageCreator interface {
	CreateMessage(params *twapi.CreateMessageParams) (*twapi.ApiV2010Message, error)
}

// SDKSender sends through the official twilio-go client instead of building
// the request by hand. It reports the same Result shape as TwilioSender: the
// SDK hides the raw response, so a created message is re-encoded as the body
// and reported as 201.
type SDKSender struct {
	api messageCreator
}

// NewSDKSender creates an SDKSender for the given account.
func NewSDKSender(accountSID, authToken string) *SDKSender {
	c := twilio.NewRestClientWithParams(twilio.ClientParams{
		Username:   accountSID,
		Password:   authToken,
		AccountSid: accountSID,
	})
	return &SDKSender{api: c.Api}
}

// Send creates the message. ctx is only checked before the call; the SDK
// call itself is bounded by the client's own timeout.
func (s *SDKSender) Send(ctx context.Context, req Request) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, &TransportError{Err: err}
	}

	params := &twapi.CreateMessageParams{}
	params.SetTo(req.To)
	params.SetFrom(req.From)
	params.SetBody(req.Body)

	msg, err := s.api.CreateMessage(params)
	return sdkResult(msg, err)
}

func sdkResult(msg *twapi.ApiV2010Message, err error) (Result, error) {
	if err != nil {
		var restErr *twclient.TwilioRestError
		if errors.As(err, &restErr) {
			body, _ := json.Marshal(restErr)
			return newResult(restErr.Status, string(body)), nil
		}
		return Result{}, &TransportError{Err: err}
	}

	body, err := json.Marshal(msg)
	if err != nil {
		return Result{}, err
	}
	return newResult(http.StatusCreated, string(body)), nil
}
