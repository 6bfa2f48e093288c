// Copyright 2024 The saferotp Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package byte3x

import "testing"

func TestDecodeMajority(t *testing.T) {
	cases := []struct {
		raw  uint32
		want uint8
	}{
		{0x000000, 0x00},
		{0x00FFFFFF, 0xFF},
		// bit 0 set in two of three bytes: majority 1.
		{0x000101, 0x01},
		// bit 0 set in only one of three bytes: majority 0.
		{0x000001, 0x00},
	}
	for _, c := range cases {
		if got := Decode(c.raw); got != c.want {
			t.Errorf("Decode(%#08x) = %#02x, want %#02x", c.raw, got, c.want)
		}
	}
}

func TestPlanWriteFreshRow(t *testing.T) {
	p := PlanWrite(0, 0xAA)
	if !p.Possible || !p.WriteNeeded {
		t.Fatalf("expected a write on a fresh row: %+v", p)
	}
	if Decode(p.ToWrite) != 0xAA {
		t.Fatalf("planned write does not decode to 0xAA: got raw %#08x", p.ToWrite)
	}
}

func TestPlanWriteIdempotent(t *testing.T) {
	p1 := PlanWrite(0, 0xAA)
	p2 := PlanWrite(p1.ToWrite, 0xAA)
	if !p2.Possible || p2.WriteNeeded {
		t.Fatalf("second identical write should be a no-op: %+v", p2)
	}
}

func TestPlanWriteRefusesClear(t *testing.T) {
	// Two of three bytes already carry bit 0x01; requesting a value
	// with that bit clear must fail rather than clear the vote.
	raw := uint32(0x000101)
	p := PlanWrite(raw, 0x00)
	if p.Possible {
		t.Fatalf("expected PlanWrite to refuse clearing a voted-set bit, got %+v", p)
	}
}
