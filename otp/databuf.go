// Copyright 2024 The saferotp Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package otp

import "fmt"

// maxDataBytes bounds a WriteDataECC/ReadDataECC transfer: 4096 ECC
// rows at 2 bytes each, less one byte since the last row of a maximal
// transfer can only contribute its low byte without reading or writing
// past the caller's buffer (spec's odd-tail rule applies at the top of
// the range too).
const maxDataBytes = NumRows*2 - 1

// ReadDataECC decodes len(out) bytes from consecutive ECC rows starting
// at start, two bytes per row, little-endian. If len(out) is odd, the
// final byte is the low byte of one more row; that row's upper byte
// (expected to be zero) is not copied into out.
func (e *Engine) ReadDataECC(start uint16, out []byte) error {
	if len(out) > maxDataBytes {
		return fmt.Errorf("otp: data read of %d bytes exceeds the %d byte ECC data limit: %w", len(out), maxDataBytes, ErrRange)
	}
	rows := (len(out) + 1) / 2
	if err := validateRange(start, rows*4); err != nil {
		return err
	}

	full := len(out) / 2
	for i := 0; i < full; i++ {
		v, err := e.ReadSingleECC(start + uint16(i))
		if err != nil {
			return fmt.Errorf("otp: data read at row %#03x: %w", start+uint16(i), err)
		}
		out[2*i] = byte(v)
		out[2*i+1] = byte(v >> 8)
	}

	if len(out)%2 == 1 {
		row := start + uint16(full)
		v, err := e.ReadSingleECC(row)
		if err != nil {
			return fmt.Errorf("otp: data read at row %#03x: %w", row, err)
		}
		out[len(out)-1] = byte(v)
	}
	return nil
}

// WriteDataECC encodes len(data) bytes into consecutive ECC rows
// starting at start, two bytes per row, little-endian. If len(data) is
// odd, the trailing byte occupies the low byte of one final row with
// the high byte zero.
func (e *Engine) WriteDataECC(start uint16, data []byte) error {
	if len(data) > maxDataBytes {
		return fmt.Errorf("otp: data write of %d bytes exceeds the %d byte ECC data limit: %w", len(data), maxDataBytes, ErrRange)
	}
	rows := (len(data) + 1) / 2
	if err := validateRange(start, rows*4); err != nil {
		return err
	}

	full := len(data) / 2
	for i := 0; i < full; i++ {
		v := uint16(data[2*i]) | uint16(data[2*i+1])<<8
		if err := e.WriteSingleECC(start+uint16(i), v); err != nil {
			return fmt.Errorf("otp: data write at row %#03x: %w", start+uint16(i), err)
		}
	}

	if len(data)%2 == 1 {
		row := start + uint16(full)
		v := uint16(data[len(data)-1])
		if err := e.WriteSingleECC(row, v); err != nil {
			return fmt.Errorf("otp: data write at row %#03x: %w", row, err)
		}
	}
	return nil
}

// ReadDataRawUnsafe reads len(out)/4 raw rows starting at start
// directly into out, little-endian, bypassing every redundancy scheme.
// len(out) must be a non-zero multiple of 4.
func (e *Engine) ReadDataRawUnsafe(start uint16, out []byte) error {
	if err := validateRange(start, len(out)); err != nil {
		return err
	}
	buf := make([]uint32, len(out)/4)
	if err := e.readRaw(start, buf); err != nil {
		return err
	}
	for i, w := range buf {
		out[4*i] = byte(w)
		out[4*i+1] = byte(w >> 8)
		out[4*i+2] = byte(w >> 16)
		out[4*i+3] = byte(w >> 24)
	}
	return nil
}

// WriteDataRawUnsafe writes len(data)/4 raw rows starting at start from
// data, little-endian, bypassing every redundancy scheme. len(data)
// must be a non-zero multiple of 4, and every word's upper 8 bits must
// already be zero: this call performs no encoding and no
// reconciliation against existing row contents beyond the OTP's own
// monotonic-OR.
func (e *Engine) WriteDataRawUnsafe(start uint16, data []byte) error {
	if err := validateRange(start, len(data)); err != nil {
		return err
	}
	buf := make([]uint32, len(data)/4)
	for i := range buf {
		w := uint32(data[4*i]) | uint32(data[4*i+1])<<8 | uint32(data[4*i+2])<<16 | uint32(data[4*i+3])<<24
		if w&^RawMask != 0 {
			return fmt.Errorf("otp: word %#08x at row %#03x has non-zero upper byte: %w", w, start+uint16(i), ErrUnsupportedParameters)
		}
		buf[i] = w
	}
	return e.writeRaw(start, buf)
}
