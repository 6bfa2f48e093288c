// Copyright 2024 The saferotp Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package otp

import "github.com/SimpleHacks/saferotp/otp/ecc"

// Codec is the ECC row engine's encode/decode contract; see ecc.Codec.
// Aliased here so callers constructing an Engine never need to import
// otp/ecc directly.
type Codec = ecc.Codec

// NewCodec returns the package's self-contained reference Codec,
// suitable for tests and the demo CLI. Production firmware should
// supply its own Codec backed by the real silicon's encoder/decoder.
func NewCodec() Codec {
	return ecc.NewCodec()
}

// KeyWaiter is the wait-for-key gate (component 8): an optional
// blocking "await operator confirmation" hook invoked before every
// hardware write when enabled on an Engine.
type KeyWaiter interface {
	WaitForKey()
}

// NoWait is a KeyWaiter that never blocks; it is the Engine default.
type NoWait struct{}

// WaitForKey returns immediately.
func (NoWait) WaitForKey() {}
