// Copyright 2024 The saferotp Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package snapshot

import (
	"testing"

	"github.com/SimpleHacks/saferotp/otp/shadow"
)

func TestRoundTrip(t *testing.T) {
	s := shadow.New()
	hw := func(row uint16) (uint32, error) {
		if row == 42 {
			return 0, errShadowFake{}
		}
		return uint32(row), nil
	}
	if err := s.Init(0, hw); err != nil {
		t.Fatalf("Init failed: %v", err)
	}

	data, err := Marshal(s)
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}

	restored, err := Unmarshal(data)
	if err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}

	for _, row := range []uint16{0, 1, 42, 4095} {
		got := restored.Entry(row)
		want := s.Entry(row)
		if got != want {
			t.Errorf("row %d: got %+v, want %+v", row, got, want)
		}
	}
}

func TestUnmarshalRejectsCorruption(t *testing.T) {
	s := shadow.New()
	if err := s.Init(0, func(uint16) (uint32, error) { return 0, nil }); err != nil {
		t.Fatalf("Init failed: %v", err)
	}
	data, err := Marshal(s)
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}

	data[0] ^= 0xFF
	if _, err := Unmarshal(data); err == nil {
		t.Fatalf("expected Unmarshal to reject a corrupted image")
	}

	if _, err := Unmarshal(data[:len(data)-1]); err == nil {
		t.Fatalf("expected Unmarshal to reject a truncated image")
	}
}

type errShadowFake struct{}

func (errShadowFake) Error() string { return "simulated hardware read failure" }
