// Package scpitest provides a scripted fake instrument transport for
// driver tests.
package scpitest

import (
	"bytes"
	"strings"
	"sync"
)

// Instrument is an io.ReadWriter that answers known commands with
// canned responses and records everything written to it.
type Instrument struct {
	mu       sync.Mutex
	reply    map[string]string
	queued   map[string][]string
	sent     []string
	pending  bytes.Buffer
	fallback string
}

// New builds a fake instrument from a map of command to response. The
// response bytes are served verbatim, so include terminators.
func New(reply map[string]string) *Instrument {
	if reply == nil {
		reply = map[string]string{}
	}
	return &Instrument{reply: reply}
}

// Respond adds or replaces a canned response after construction.
func (ins *Instrument) Respond(cmd, response string) {
	ins.mu.Lock()
	defer ins.mu.Unlock()
	ins.reply[cmd] = response
}

// RespondOnce queues a one-shot response for cmd. Queued responses are
// consumed in order and take precedence over Respond entries, which
// lets tests script polling sequences (0, 0, 1).
func (ins *Instrument) RespondOnce(cmd string, responses ...string) {
	ins.mu.Lock()
	defer ins.mu.Unlock()
	if ins.queued == nil {
		ins.queued = map[string][]string{}
	}
	ins.queued[cmd] = append(ins.queued[cmd], responses...)
}

// RespondDefault sets a response served for any query-looking command
// (one ending in '?') without an explicit entry.
func (ins *Instrument) RespondDefault(response string) {
	ins.mu.Lock()
	defer ins.mu.Unlock()
	ins.fallback = response
}

func (ins *Instrument) Write(p []byte) (int, error) {
	ins.mu.Lock()
	defer ins.mu.Unlock()
	cmd := strings.TrimSpace(string(p))
	ins.sent = append(ins.sent, cmd)
	if q := ins.queued[cmd]; len(q) > 0 {
		ins.pending.WriteString(q[0])
		ins.queued[cmd] = q[1:]
	} else if resp, ok := ins.reply[cmd]; ok {
		ins.pending.WriteString(resp)
	} else if ins.fallback != "" && strings.HasSuffix(cmd, "?") {
		ins.pending.WriteString(ins.fallback)
	}
	return len(p), nil
}

func (ins *Instrument) Read(p []byte) (int, error) {
	ins.mu.Lock()
	defer ins.mu.Unlock()
	return ins.pending.Read(p)
}

// Sent returns every command written so far, terminators stripped.
func (ins *Instrument) Sent() []string {
	ins.mu.Lock()
	defer ins.mu.Unlock()
	return append([]string(nil), ins.sent...)
}

// SentContains reports whether any recorded command equals cmd.
func (ins *Instrument) SentContains(cmd string) bool {
	for _, s := range ins.Sent() {
		if s == cmd {
			return true
		}
	}
	return false
}
