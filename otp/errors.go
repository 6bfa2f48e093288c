// Copyright 2024 The saferotp Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package otp

import "errors"

// ErrRange signals that a (start row, byte count) pair falls outside
// the addressable OTP row space, or that the byte count is zero or
// exceeds the per-call maximum.
var ErrRange = errors.New("otp: row range out of bounds")

// ErrAlignment signals that a raw transfer size was not a multiple
// of 4 bytes.
var ErrAlignment = errors.New("otp: byte count is not a multiple of 4")

// ErrHardwareRead signals that the access primitive (or the shadow,
// standing in for it) refused or failed a read for one or more rows.
var ErrHardwareRead = errors.New("otp: hardware read failed")

// ErrHardwareWrite signals that the access primitive (or the shadow)
// refused or failed a write for one or more rows.
var ErrHardwareWrite = errors.New("otp: hardware write failed")

// ErrDecode signals that an ECC row's raw value did not decode to a
// valid 16 bit value.
var ErrDecode = errors.New("otp: ECC row failed to decode")

// ErrMonotonicity signals that a proposed raw write would have
// cleared a bit that OTP had already set (E &^ W != 0).
var ErrMonotonicity = errors.New("otp: write would clear an already-set bit")

// ErrVoteClear signals that a byte-3x or N-of-M write would require
// unsetting a bit that already carries enough votes to be read back
// as set.
var ErrVoteClear = errors.New("otp: write would unset a voted-set bit")

// ErrQuorum signals that an N-of-M read did not have enough
// successful row reads to decide every bit.
var ErrQuorum = errors.New("otp: not enough successful reads to form a quorum")

// ErrVerification signals that a post-write read-back did not match
// the value the caller asked to write.
var ErrVerification = errors.New("otp: read-back does not match the written value")

// ErrUnsupportedParameters signals an (N, M) voting pair outside the
// supported set, or a raw write whose upper 8 bits are non-zero.
var ErrUnsupportedParameters = errors.New("otp: unsupported parameters")

// ErrReinit signals an attempt to initialize the virtualized shadow
// a second time.
var ErrReinit = errors.New("otp: shadow already initialized")
