// Copyright (c) 2025 The coldctl developers. All rights reserved.
// Use of this source code is governed by a MIT-style license that
// can be found in the LICENSE.txt file for the project.

package coldctl

import (
	"encoding/binary"
	"fmt"
	"io"
	"log"
	"unsafe"
)

var nativeEndian binary.ByteOrder

func init() {
	buf := [2]byte{}
	*(*uint16)(unsafe.Pointer(&buf[0])) = uint16(0xABCD)

	switch buf {
	case [2]byte{0xCD, 0xAB}:
		nativeEndian = binary.LittleEndian
	case [2]byte{0xAB, 0xCD}:
		nativeEndian = binary.BigEndian
	default:
		panic("could not determine native endianness")
	}
}

// NativeEndian reports the byte order of the host, used to pick the
// byte-order mnemonic sent to instruments before block transfers.
func NativeEndian() binary.ByteOrder { return nativeEndian }

// QueryBlock sends the given command and reads an IEEE-488.2
// definite-length block response (`#<n><len><payload>`). The payload is
// returned without the header or the trailing terminator. Reads are
// repeated until the advertised length has arrived.
func (s *Session) QueryBlock(cmd string) ([]byte, error) {
	if err := s.Command(cmd); err != nil {
		return nil, err
	}
	s.applyTimeout()
	return ReadBlock(s.br)
}

// CommandBlock sends a command followed by an IEEE-488.2
// definite-length block (`#<n><len><payload>`) and the terminator.
// The command and header are written in a single call so serial
// bridges do not split the transfer.
func (s *Session) CommandBlock(cmd string, payload []byte) error {
	digits := fmt.Sprintf("%d", len(payload))
	hdr := fmt.Sprintf("%s #%d%s", cmd, len(digits), digits)
	if s.Debug {
		log.Printf("cmd %q + %d byte block", hdr, len(payload))
	}
	msg := make([]byte, 0, len(hdr)+len(payload)+1)
	msg = append(msg, hdr...)
	msg = append(msg, payload...)
	msg = append(msg, s.txTerm)
	_, err := s.rw.Write(msg)
	return err
}

// EncodeWords converts 16-bit samples to a block payload in the given
// byte order, the inverse of DecodeWords.
func EncodeWords(words []uint16, order binary.ByteOrder) []byte {
	data := make([]byte, 2*len(words))
	for i, w := range words {
		order.PutUint16(data[2*i:], w)
	}
	return data
}

// ReadBlock reads a definite-length block from r.
func ReadBlock(r io.Reader) ([]byte, error) {
	hdr := make([]byte, 2)
	if _, err := io.ReadFull(r, hdr); err != nil {
		return nil, fmt.Errorf("error reading block header: %w", err)
	}
	if hdr[0] != '#' {
		return nil, fmt.Errorf("invalid block header: want # got %q", hdr[0])
	}
	ndigits := int(hdr[1]) - '0'
	if ndigits < 1 || ndigits > 9 {
		return nil, fmt.Errorf("invalid block length digit %q", hdr[1])
	}
	lenBuf := make([]byte, ndigits)
	if _, err := io.ReadFull(r, lenBuf); err != nil {
		return nil, fmt.Errorf("error reading block length: %w", err)
	}
	nbytes := 0
	for _, c := range lenBuf {
		if c < '0' || c > '9' {
			return nil, fmt.Errorf("invalid block length %q", lenBuf)
		}
		nbytes = nbytes*10 + int(c-'0')
	}
	data := make([]byte, nbytes)
	if _, err := io.ReadFull(r, data); err != nil {
		return nil, fmt.Errorf("short block: expect %d bytes: %w", nbytes, err)
	}
	// Pop the terminator if one follows; instruments append LF after
	// the block. EOF here is fine.
	var term [1]byte
	if n, _ := r.Read(term[:]); n == 1 && term[0] != '\n' && term[0] != '\r' {
		return nil, fmt.Errorf("invalid block trailer: expect terminator, got %q", term[0])
	}
	return data, nil
}

// DecodeWords converts a block payload of 16-bit samples in the given
// byte order into a []uint16. An odd payload length is an error.
func DecodeWords(data []byte, order binary.ByteOrder) ([]uint16, error) {
	if len(data)%2 != 0 {
		return nil, fmt.Errorf("word data has odd length %d", len(data))
	}
	words := make([]uint16, len(data)/2)
	for i := range words {
		words[i] = order.Uint16(data[2*i:])
	}
	return words, nil
}
