// nexus-sms - SMS relay for the Twilio Messages API
// Copyright (C) 2026  nexus contributors
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published
// by the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.

package sms

import "fmt"

// TransportError means the request never produced an HTTP response: DNS,
// connect, TLS or timeout failures. It is kept apart from API errors so
// callers can tell "Twilio said no" from "we never reached Twilio".
type TransportError struct {
	Err error
}

func (err *TransportError) Error() string {
	const baseMsg = "transport error"
	if err.Err != nil {
		return baseMsg + ": " + err.Err.Error()
	}
	return baseMsg
}

func (err *TransportError) Unwrap() error { return err.Err }

// APIError wraps a Result whose status was not 201.
type APIError struct {
	Result Result
}

func (err *APIError) Error() string {
	return fmt.Sprintf("twilio returned %d: %s", err.Result.StatusCode, err.Result.Body)
}

// Check turns a Send outcome into a single error: the transport error if
// there was one, an *APIError if the status was not 201, nil otherwise.
func Check(res Result, err error) error {
	if err != nil {
		return err
	}
	if !res.Succeeded {
		return &APIError{Result: res}
	}
	return nil
}
