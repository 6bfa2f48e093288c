// Copyright 2024 The saferotp Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package vote

import "testing"

func TestSupported(t *testing.T) {
	cases := []struct {
		n, m int
		want bool
	}{
		{2, 3, true},
		{3, 8, true},
		{1, 3, false},
		{4, 8, false},
		{2, 8, false},
	}
	for _, c := range cases {
		if got := Supported(c.n, c.m); got != c.want {
			t.Errorf("Supported(%d, %d) = %v, want %v", c.n, c.m, got, c.want)
		}
	}
}

func TestDecodeAllZeroQuorum(t *testing.T) {
	// S = N, all successful rows vote zero: result zero, no failure.
	rows := []Row{{Raw: 0, Ok: true}, {Raw: 0, Ok: true}, {Raw: 0, Ok: false}}
	v, ok := Decode(rows, 2)
	if !ok || v != 0 {
		t.Fatalf("Decode() = %#06x, %v, want 0, true", v, ok)
	}
}

func TestDecodeInsufficientSuccesses(t *testing.T) {
	// S = N-1 fails regardless of the bits observed.
	rows := []Row{{Raw: 0xFFFFFF, Ok: true}, {Raw: 0, Ok: false}, {Raw: 0, Ok: false}}
	_, ok := Decode(rows, 2)
	if ok {
		t.Fatalf("expected Decode to fail with only 1 successful read against N=2")
	}
}

func TestDecodeRBIT3OneBadRow(t *testing.T) {
	// Rows 0x100 and 0x102 hold 0x0000FF, row 0x101 failed to read.
	rows := []Row{
		{Raw: 0x0000FF, Ok: true},
		{Ok: false},
		{Raw: 0x0000FF, Ok: true},
	}
	v, ok := Decode(rows, 2)
	if !ok || v != 0x0000FF {
		t.Fatalf("Decode() = %#06x, %v, want 0x0000FF, true", v, ok)
	}
}

func TestDecodeRBIT8QuorumInsufficient(t *testing.T) {
	rows := make([]Row, 8)
	for i := range rows {
		rows[i] = Row{Ok: i < 2}
	}
	_, ok := Decode(rows, 3)
	if ok {
		t.Fatalf("expected QuorumError-equivalent failure with S=2 < N=3")
	}
}

func TestPlanRowWrite(t *testing.T) {
	toWrite, needed := PlanRowWrite(0x0000F0, 0x0000FF)
	if !needed || toWrite != 0x0000FF {
		t.Fatalf("PlanRowWrite() = %#06x, %v, want 0x0000FF, true", toWrite, needed)
	}

	toWrite, needed = PlanRowWrite(0x0000FF, 0x0000FF)
	if needed {
		t.Fatalf("PlanRowWrite() should report no write needed when raw already satisfies newValue, got %#06x", toWrite)
	}
}
