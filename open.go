// Copyright (c) 2025 The coldctl developers. All rights reserved.
// Use of this source code is governed by a MIT-style license that
// can be found in the LICENSE.txt file for the project.

package coldctl

import (
	"fmt"
	"io"
	"net"
	"strings"
	"time"

	"go.uber.org/multierr"

	"github.com/coldlab/coldctl/driver/vcp"
)

// Conn is a session bound to a closable transport.
type Conn struct {
	*Session
	transport io.ReadWriter
}

// Open connects to an instrument by address. Addresses containing a
// colon are dialed as TCP (LAN instruments); anything starting with a
// slash is opened as a serial port.
func Open(addr string, opts ...SessionOption) (*Conn, error) {
	switch {
	case strings.HasPrefix(addr, "/"):
		port, err := vcp.NewVCP(addr)
		if err != nil {
			return nil, fmt.Errorf("error opening serial port %s: %w", addr, err)
		}
		return &Conn{Session: NewSession(port, opts...), transport: port}, nil
	case strings.Contains(addr, ":"):
		c, err := net.DialTimeout("tcp", addr, 5*time.Second)
		if err != nil {
			return nil, fmt.Errorf("error dialing %s: %w", addr, err)
		}
		return &Conn{Session: NewSession(c, opts...), transport: c}, nil
	}
	return nil, fmt.Errorf("unrecognized instrument address %q", addr)
}

type flusher interface{ Flush() error }

// Close flushes unread data where the transport supports it and closes
// the connection. All errors along the way are combined.
func (c *Conn) Close() error {
	var err error
	if fl, ok := c.transport.(flusher); ok {
		err = multierr.Append(err, fl.Flush())
	}
	if cl, ok := c.transport.(io.Closer); ok {
		err = multierr.Append(err, cl.Close())
	}
	return err
}
