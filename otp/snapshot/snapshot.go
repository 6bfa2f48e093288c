// Copyright 2024 The saferotp Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

// Package snapshot encodes and decodes a shadow.Store as a flat byte
// image, for tests and the demo CLI's -save/-restore flags. There is
// no filesystem layer here; callers decide where the bytes go.
package snapshot

import (
	"encoding/binary"
	"errors"
	"fmt"
	"hash/crc32"

	"github.com/SimpleHacks/saferotp/otp/shadow"
)

const numRows = 0x1000

// ErrCorrupt is returned by Unmarshal when the trailing checksum does
// not match the preceding data, or the data is the wrong length.
var ErrCorrupt = errors.New("snapshot: corrupt or truncated image")

// size is numRows raw words (4 bytes each) + numRows error flags
// (1 bit each, packed) + an 8 byte CRC32 trailer.
const flagBytes = (numRows + 7) / 8
const bodySize = numRows*4 + flagBytes
const totalSize = bodySize + 8

// Marshal encodes every row of s into a flat byte image: each row's
// raw 32 bit value, a bitmap of which rows are flagged as hardware
// read errors, and an 8 byte trailer holding a CRC32 of the preceding
// bytes (zero-extended to 8 bytes, matching the teacher's own
// little-endian encoding/binary use for on-wire register data).
func Marshal(s *shadow.Store) ([]byte, error) {
	if s == nil {
		return nil, fmt.Errorf("snapshot: nil store")
	}
	buf := make([]byte, totalSize)

	for row := 0; row < numRows; row++ {
		e := s.Entry(uint16(row))
		binary.LittleEndian.PutUint32(buf[row*4:], e.Raw)
		if e.IsError {
			buf[numRows*4+row/8] |= 1 << uint(row%8)
		}
	}

	sum := crc32.ChecksumIEEE(buf[:bodySize])
	binary.LittleEndian.PutUint64(buf[bodySize:], uint64(sum))
	return buf, nil
}

// Unmarshal decodes a byte image produced by Marshal into a fresh
// shadow.Store, verifying the trailing checksum first.
func Unmarshal(data []byte) (*shadow.Store, error) {
	if len(data) != totalSize {
		return nil, fmt.Errorf("snapshot: image is %d bytes, want %d: %w", len(data), totalSize, ErrCorrupt)
	}

	want := binary.LittleEndian.Uint64(data[bodySize:])
	got := uint64(crc32.ChecksumIEEE(data[:bodySize]))
	if want != got {
		return nil, fmt.Errorf("snapshot: checksum mismatch (got %#x want %#x): %w", got, want, ErrCorrupt)
	}

	s := shadow.New()
	for row := 0; row < numRows; row++ {
		raw := binary.LittleEndian.Uint32(data[row*4:])
		isError := data[numRows*4+row/8]&(1<<uint(row%8)) != 0
		s.SetEntry(uint16(row), shadow.Entry{Raw: raw, IsError: isError})
	}
	return s, nil
}
