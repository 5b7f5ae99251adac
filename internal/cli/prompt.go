// nexus-sms - SMS relay for the Twilio Messages API
// Copyright (C) 2026  nexus contributors
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published
// by the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.

package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"
)

// ErrInputClosed is returned when stdin ends before a prompt is answered.
var ErrInputClosed = errors.New("input closed")

// Prompter asks questions on out and reads answers line by line from in.
// Complaints about invalid answers go to errOut.
type Prompter struct {
	in     *bufio.Scanner
	out    io.Writer
	errOut io.Writer
}

// NewPrompter creates a Prompter.
func NewPrompter(in io.Reader, out, errOut io.Writer) *Prompter {
	return &Prompter{in: bufio.NewScanner(in), out: out, errOut: errOut}
}

// Ask prints label and returns the trimmed answer.
func (p *Prompter) Ask(label string) (string, error) {
	fmt.Fprint(p.out, label)
	if !p.in.Scan() {
		if err := p.in.Err(); err != nil {
			return "", fmt.Errorf("read input: %w", err)
		}
		return "", ErrInputClosed
	}
	return strings.TrimSpace(p.in.Text()), nil
}

// AskUntil repeats the question until check accepts the answer. check may
// rewrite the answer, e.g. to normalize it.
func (p *Prompter) AskUntil(label, invalid string, check func(string) (string, bool)) (string, error) {
	for {
		answer, err := p.Ask(label)
		if err != nil {
			return "", err
		}
		if v, ok := check(answer); ok {
			return v, nil
		}
		fmt.Fprintln(p.errOut, invalid)
	}
}

// Confirm asks a yes/no question; only y or yes (any case) is yes.
func (p *Prompter) Confirm(label string) (bool, error) {
	answer, err := p.Ask(label + " [y/N]: ")
	if err != nil {
		return false, err
	}
	switch strings.ToLower(answer) {
	case "y", "yes":
		return true, nil
	}
	return false, nil
}
