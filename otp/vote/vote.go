// Copyright 2024 The saferotp Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

// Package vote implements the generic N-of-M voting engine used for
// RBIT-3 (2-of-3) and RBIT-8 (3-of-8) redundancy: a per-bit voting
// read over M rows, and a monotonic-OR write across M rows.
package vote

// Supported reports whether the (n, m) pair is one of the two
// redundancy schemes this package implements.
func Supported(n, m int) bool {
	return (n == 2 && m == 3) || (n == 3 && m == 8)
}

// Row is one row's read attempt: its raw value if Ok is true, or a
// failed read if Ok is false.
type Row struct {
	Raw uint32
	Ok  bool
}

// Decode applies the N-of-M voting rule across rows: for each of the
// 24 bit positions, votes are the count of successful rows with that
// bit set. A bit reads as 1 if votes >= n. A bit reads as 0 only if
// the failed reads could not possibly tip it to 1, i.e. failed < n -
// votes. If there are fewer than n successful reads, or any bit's
// outcome cannot be decided, Decode fails (no quorum).
func Decode(rows []Row, n int) (value uint32, ok bool) {
	var successful, failed int
	var votes [24]int

	for _, r := range rows {
		if !r.Ok {
			failed++
			continue
		}
		successful++
		for i := 0; i < 24; i++ {
			if r.Raw&(1<<uint(i)) != 0 {
				votes[i]++
			}
		}
	}

	if successful < n {
		return 0, false
	}

	var result uint32
	for i := 0; i < 24; i++ {
		switch {
		case votes[i] >= n:
			result |= 1 << uint(i)
		case failed >= n-votes[i]:
			return 0, false
		}
	}
	return result, true
}

// PlanRowWrite decides whether one physical row needs to be rewritten
// to help a quorum of M rows agree on newValue, given that row's
// current raw value. The result ORs every bit of newValue into the
// row regardless of which rows already carry which bits: because
// decoding is a per-bit majority, widening a row beyond the minimum
// required can never degrade the vote.
func PlanRowWrite(raw uint32, newValue uint32) (toWrite uint32, writeNeeded bool) {
	if raw&newValue == newValue {
		return raw, false
	}
	return raw | newValue, true
}
