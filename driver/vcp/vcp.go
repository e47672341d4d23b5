// Copyright (c) 2025 The coldctl developers. All rights reserved.
// Use of this source code is governed by a MIT-style license that
// can be found in the LICENSE.txt file for the project.

// Package vcp opens Virtual COM Port serial connections to instruments
// and USB-serial adapters.
package vcp

import (
	"time"

	"go.bug.st/serial"
)

// VCP is a serial port carrying an instrument session.
type VCP struct {
	port serial.Port
}

// NewVCP opens the named serial port at 115200 baud.
func NewVCP(name string, opts ...Option) (*VCP, error) {
	cfg := config{
		baud:        115200,
		readTimeout: 30 * time.Second,
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	mode := &serial.Mode{BaudRate: cfg.baud}
	port, err := serial.Open(name, mode)
	if err != nil {
		return nil, err
	}
	if err := port.SetReadTimeout(cfg.readTimeout); err != nil {
		port.Close()
		return nil, err
	}
	return &VCP{port: port}, nil
}

type config struct {
	baud        int
	readTimeout time.Duration
}

// Option configures the port before it is opened.
type Option func(*config)

// WithBaud overrides the default 115200 baud rate.
func WithBaud(baud int) Option { return func(c *config) { c.baud = baud } }

// WithReadTimeout overrides the default 30 s read timeout.
func WithReadTimeout(d time.Duration) Option {
	return func(c *config) { c.readTimeout = d }
}

func (v *VCP) Read(p []byte) (n int, err error)  { return v.port.Read(p) }
func (v *VCP) Write(p []byte) (n int, err error) { return v.port.Write(p) }

// Flush discards unread input buffered on the port.
func (v *VCP) Flush() error { return v.port.ResetInputBuffer() }

// Close closes the serial port.
func (v *VCP) Close() error { return v.port.Close() }

// SetReadTimeout adjusts the port read timeout.
func (v *VCP) SetReadTimeout(d time.Duration) error {
	return v.port.SetReadTimeout(d)
}
