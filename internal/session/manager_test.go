package session

import "testing"

func TestToOrderStateMapsVenueStates(t *testing.T) {
	cases := map[string]string{
		"open":             "Working",
		"pending":          "Working",
		"partially_filled": "Working",
		"filled":           "Filled",
		"cancelled":        "Cancelled",
		"rejected":         "Rejected",
		"unknown_state":    "Pending",
	}
	for wire, want := range cases {
		if got := string(toOrderState(wire)); got != want {
			t.Fatalf("toOrderState(%q) = %q, want %q", wire, got, want)
		}
	}
}

func TestHMACSHA256HexIsDeterministicAndHex(t *testing.T) {
	a := hmacSHA256Hex("secret", "GET1700000000/live")
	b := hmacSHA256Hex("secret", "GET1700000000/live")
	if a != b {
		t.Fatalf("hmacSHA256Hex not deterministic: %q != %q", a, b)
	}
	if len(a) != 64 {
		t.Fatalf("expected 64 hex chars, got %d", len(a))
	}
}
