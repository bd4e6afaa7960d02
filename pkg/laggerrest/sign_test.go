package laggerrest

import "testing"

func TestPreHashStringEmptyQueryAndBody(t *testing.T) {
	got := preHashString("GET", 1700000000, "/orders", "", nil)
	want := "GET1700000000/orders"
	if got != want {
		t.Fatalf("preHashString = %q, want %q", got, want)
	}
}

func TestPreHashStringWithQueryAndBody(t *testing.T) {
	got := preHashString("POST", 1700000000, "/orders", "product_id=27&states=open,pending", []byte(`{"a":1}`))
	want := `POST1700000000/orders?product_id=27&states=open,pending{"a":1}`
	if got != want {
		t.Fatalf("preHashString = %q, want %q", got, want)
	}
}

func TestSignIsDeterministic(t *testing.T) {
	secret := "s3cr3t"
	preHash := "GET1700000000/orders"

	a := sign(secret, preHash)
	b := sign(secret, preHash)
	if a != b {
		t.Fatalf("sign is not deterministic: %q != %q", a, b)
	}
	if len(a) != 64 {
		t.Fatalf("sign should be hex-lowercase sha256 (64 chars), got %d: %q", len(a), a)
	}
}

func TestCanonicalQueryDecodesCommaLiterally(t *testing.T) {
	params := []queryParam{
		{"product_id", "27"},
		{"states", "open,pending"},
	}
	got := canonicalQuery(params)
	want := "product_id=27&states=open,pending"
	if got != want {
		t.Fatalf("canonicalQuery = %q, want %q", got, want)
	}
}

func TestCanonicalQueryEmpty(t *testing.T) {
	if got := canonicalQuery(nil); got != "" {
		t.Fatalf("canonicalQuery(nil) = %q, want empty", got)
	}
}
