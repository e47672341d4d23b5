// Copyright (c) 2025 The coldctl developers. All rights reserved.
// Use of this source code is governed by a MIT-style license that
// can be found in the LICENSE.txt file for the project.

// Package coldctl provides SCPI instrument sessions for the cold-atom
// lab toolkit. A Session wraps any io.ReadWriter (TCP socket, serial
// port) and speaks line-oriented SCPI/ASCII plus IEEE-488.2 common
// commands and definite-length binary blocks.
package coldctl

import (
	"bufio"
	"fmt"
	"io"
	"log"
	"strings"
	"time"
)

// Session models a command/query connection to a single instrument.
type Session struct {
	Debug bool // if true, print wire traffic before sending

	rw      io.ReadWriter
	br      *bufio.Reader
	txTerm  byte
	rxTerm  byte
	timeout time.Duration
}

// SessionOption applies an option to the session.
type SessionOption func(*Session)

// NewSession creates an instrument session over the given transport.
// Terminators default to LF on both directions.
func NewSession(rw io.ReadWriter, opts ...SessionOption) *Session {
	s := Session{
		rw:     rw,
		txTerm: '\n',
		rxTerm: '\n',
	}
	for _, opt := range opts {
		opt(&s)
	}
	s.br = bufio.NewReader(rw)
	return &s
}

// WithTerminators sets the transmit and receive terminator bytes.
func WithTerminators(tx, rx byte) SessionOption {
	return func(s *Session) { s.txTerm = tx; s.rxTerm = rx }
}

// WithDebug causes commands and responses to be logged.
func WithDebug() SessionOption { return func(s *Session) { s.Debug = true } }

// WithTimeout records a read deadline to apply to deadline-capable
// transports (net.Conn, serial ports) on each query.
func WithTimeout(d time.Duration) SessionOption {
	return func(s *Session) { s.timeout = d }
}

// Write writes the given data to the instrument.
func (s *Session) Write(p []byte) (n int, err error) {
	return s.rw.Write(p)
}

// Read reads from the instrument into the given byte slice.
func (s *Session) Read(p []byte) (n int, err error) {
	return s.br.Read(p)
}

// Command formats according to a format specifier if provided and sends
// a SCPI/ASCII command to the instrument. All leading and trailing
// whitespace is removed before appending the terminator.
func (s *Session) Command(format string, a ...any) error {
	cmd := format
	if a != nil {
		cmd = fmt.Sprintf(format, a...)
	}
	cmd = fmt.Sprintf("%s%c", strings.TrimSpace(cmd), s.txTerm)
	if s.Debug {
		log.Printf("cmd %q", cmd)
	}
	_, err := fmt.Fprint(s.rw, cmd)
	return err
}

// Query sends the given SCPI/ASCII command to the instrument and reads
// the response up to the receive terminator. The cmd string does not
// need to include a new line character. An EOF after a partial read is
// not treated as an error, since some instruments drop the terminator
// on their final response.
func (s *Session) Query(cmd string) (string, error) {
	if err := s.Command(cmd); err != nil {
		return "", fmt.Errorf("error writing command: %w", err)
	}
	s.applyTimeout()
	resp, err := s.br.ReadString(s.rxTerm)
	if err == io.EOF {
		if s.Debug {
			log.Printf("found EOF")
		}
		return resp, nil
	}
	if s.Debug {
		log.Printf("read data: %q", resp)
	}
	return resp, err
}

// MustQuery is a Query that treats any error as fatal, for short
// interactive programs.
func (s *Session) MustQuery(cmd string) string {
	resp, err := s.Query(cmd)
	if err != nil {
		log.Fatalf("query %q: %s", cmd, err)
	}
	return resp
}

type deadliner interface {
	SetReadDeadline(t time.Time) error
}

type readTimeouter interface {
	SetReadTimeout(d time.Duration) error
}

func (s *Session) applyTimeout() {
	if s.timeout == 0 {
		return
	}
	switch c := s.rw.(type) {
	case deadliner:
		if err := c.SetReadDeadline(time.Now().Add(s.timeout)); err != nil {
			log.Printf("error setting read deadline: %s", err)
		}
	case readTimeouter:
		if err := c.SetReadTimeout(s.timeout); err != nil {
			log.Printf("error setting read timeout: %s", err)
		}
	}
}

// Identify queries the IEEE-488.2 identification string.
func (s *Session) Identify() (string, error) {
	idn, err := s.Query("*IDN?")
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(idn), nil
}

// Reset issues the IEEE-488.2 reset command.
func (s *Session) Reset() error { return s.Command("*RST") }

// Clear issues the IEEE-488.2 clear status command.
func (s *Session) Clear() error { return s.Command("*CLS") }

// OperationComplete queries *OPC? and reports whether all pending
// operations have finished.
func (s *Session) OperationComplete() (bool, error) {
	resp, err := s.Query("*OPC?")
	if err != nil {
		return false, err
	}
	return strings.TrimSpace(resp) == "1", nil
}

// SystemError pops one entry from the instrument error queue. The
// return value is nil when the queue reports code 0.
func (s *Session) SystemError() error {
	resp, err := s.Query("SYSTem:ERRor?")
	if err != nil {
		return err
	}
	resp = strings.TrimSpace(resp)
	code, _, _ := strings.Cut(resp, ",")
	if code == "0" || strings.HasPrefix(code, "+0") {
		return nil
	}
	return fmt.Errorf("instrument error: %s", resp)
}
