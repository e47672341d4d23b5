// Package connect bundles the flag plumbing and serial-port setup
// shared by the lab's command-line programs.
package connect

import (
	"flag"
	"log"
	"time"

	"github.com/soypat/cereal"
	"go.uber.org/multierr"

	"github.com/coldlab/coldctl"
	"github.com/coldlab/coldctl/lib/find"
)

type Conn struct {
	SerialPort string
	Baud       int
	Delay      time.Duration
	Timeout    time.Duration

	tty     string
	finderr error
}

// AddFlags is to be called before [flag.Parse].
func (c *Conn) AddFlags() {
	c.tty, c.finderr = find.Find(find.FTDIFilter)
	if c.finderr != nil {
		log.Printf("locating serial port failed, guessing ttyUSB0: %s", c.finderr)
		c.tty = "ttyUSB0"
	}

	if c.Baud == 0 {
		c.Baud = 115200
	}
	if c.Delay == 0 {
		c.Delay = 100 * time.Millisecond
	}
	if c.Timeout == 0 {
		c.Timeout = 30 * time.Second
	}

	flag.StringVar(&c.SerialPort, "port", "/dev/"+c.tty, "serial port for the instrument")
	flag.IntVar(&c.Baud, "baud", c.Baud, "serial baud rate")
	flag.DurationVar(&c.Delay, "delay", c.Delay, "delay between writes")
	flag.DurationVar(&c.Timeout, "timeout", c.Timeout, "serial read timeout")
}

// Setup is to be called after [flag.Parse]. It opens the serial port,
// builds an instrument session on it, and returns a cleanup func that
// flushes and closes the port.
func (c *Conn) Setup(opts []coldctl.SessionOption) (session *coldctl.Session, cleanup func(), err error) {
	nocleanup := func() {}

	log.SetFlags(log.Lmicroseconds)
	log.Printf("Serial port = %s", c.SerialPort)

	cimpl := cereal.Tarm{}
	port, err := cimpl.OpenPort(c.SerialPort, cereal.Mode{
		BaudRate:    c.Baud,
		ReadTimeout: c.Timeout,
	})
	if err != nil {
		return nil, nocleanup, err
	}

	session = coldctl.NewSession(port, opts...)

	cleanup = func() {
		var cerr error
		// Discard any unread data on the serial port and then close.
		if fl, ok := port.(interface{ Flush() error }); ok {
			cerr = multierr.Append(cerr, fl.Flush())
		}
		cerr = multierr.Append(cerr, port.Close())
		if cerr != nil {
			log.Printf("error closing serial port: %s", cerr)
		}
	}
	return session, cleanup, nil
}
