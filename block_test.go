package coldctl

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"testing"
)

func blockFor(payload []byte) []byte {
	lenStr := fmt.Sprintf("%d", len(payload))
	hdr := fmt.Sprintf("#%d%s", len(lenStr), lenStr)
	out := append([]byte(hdr), payload...)
	return append(out, '\n')
}

func TestReadBlock(t *testing.T) {
	payload := []byte{0x01, 0x02, 0x03, 0x04}
	got, err := ReadBlock(bytes.NewReader(blockFor(payload)))
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(got, payload) {
		t.Errorf("payload = %x, want %x", got, payload)
	}
}

func TestReadBlockBadHeader(t *testing.T) {
	_, err := ReadBlock(bytes.NewReader([]byte("%40001")))
	if err == nil {
		t.Fatal("expected error for missing #")
	}
}

func TestReadBlockShortPayload(t *testing.T) {
	in := []byte("#210") // claims 10 bytes, delivers none
	if _, err := ReadBlock(bytes.NewReader(in)); err == nil {
		t.Fatal("expected error for short block")
	}
}

func TestReadBlockNoTrailer(t *testing.T) {
	// instruments may drop the final terminator; EOF after the
	// payload is fine
	in := []byte("#14abcd")
	got, err := ReadBlock(bytes.NewReader(in))
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "abcd" {
		t.Errorf("payload = %q", got)
	}
}

func TestDecodeWords(t *testing.T) {
	data := []byte{0x34, 0x12, 0xcd, 0xab}
	words, err := DecodeWords(data, binary.LittleEndian)
	if err != nil {
		t.Fatal(err)
	}
	if words[0] != 0x1234 || words[1] != 0xabcd {
		t.Errorf("words = %04x", words)
	}

	words, err = DecodeWords(data, binary.BigEndian)
	if err != nil {
		t.Fatal(err)
	}
	if words[0] != 0x3412 || words[1] != 0xcdab {
		t.Errorf("words = %04x", words)
	}
}

func TestDecodeWordsOddLength(t *testing.T) {
	if _, err := DecodeWords([]byte{1, 2, 3}, binary.LittleEndian); err == nil {
		t.Fatal("expected error for odd length")
	}
}

func TestEncodeWordsRoundTrip(t *testing.T) {
	words := []uint16{0, 0x1234, 0xffff}
	for _, order := range []binary.ByteOrder{binary.LittleEndian, binary.BigEndian} {
		got, err := DecodeWords(EncodeWords(words, order), order)
		if err != nil {
			t.Fatal(err)
		}
		for i := range words {
			if got[i] != words[i] {
				t.Errorf("%v word %d = %04x, want %04x", order, i, got[i], words[i])
			}
		}
	}
}

func TestCommandBlock(t *testing.T) {
	var wire bytes.Buffer
	s := NewSession(&wire)
	payload := []byte{0xab, 0xcd, 0x01, 0x02}
	if err := s.CommandBlock(":TRAC:DATA", payload); err != nil {
		t.Fatal(err)
	}
	want := append([]byte(":TRAC:DATA #14"), payload...)
	want = append(want, '\n')
	if !bytes.Equal(wire.Bytes(), want) {
		t.Errorf("wrote %q, want %q", wire.Bytes(), want)
	}
}

func TestQueryBlock(t *testing.T) {
	inst := &fakeInst{responses: map[string]string{
		":WAVeform:DATA?": string(blockFor([]byte{0, 1, 0, 2})),
	}}
	s := NewSession(inst)
	payload, err := s.QueryBlock(":WAVeform:DATA?")
	if err != nil {
		t.Fatal(err)
	}
	if len(payload) != 4 {
		t.Fatalf("payload length = %d", len(payload))
	}
}
