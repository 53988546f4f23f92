// Copyright (C) 2025 Logical Mechanism LLC
// SPDX-License-Identifier: GPL-3.0-only

package tau

import (
	"bytes"
	"testing"
)

func TestFormatDigestS1(t *testing.T) {
	digest := [digestSize]byte{
		0x45, 0x25, 0x21, 0x82, 0xde, 0x43, 0xa6, 0x13, 0x24, 0xd8, 0x71, 0x36, 0x35, 0x35, 0xdf, 0xb8,
		0x82, 0x9a, 0x35, 0xe3, 0x09, 0xa0, 0x6f, 0xe1, 0x7e, 0xf5, 0x4b, 0x76, 0x60, 0xdd, 0xc3, 0x1d,
		0x69, 0x51, 0x1d, 0xd4, 0xf0, 0xf4, 0x74, 0xc1, 0x47, 0x5e, 0x9c, 0xc6, 0xfc, 0xd0, 0xd2, 0x61,
		0x75, 0x01, 0xd8, 0xb3, 0x61, 0x7e, 0xcc, 0x47, 0x8d, 0x0a, 0xce, 0x6a, 0xc7, 0x35, 0xc8, 0x3b,
	}
	want := "45252182 de43a613 24d87136 3535dfb8\n" +
		"829a35e3 09a06fe1 7ef54b76 60ddc31d\n" +
		"69511dd4 f0f474c1 475e9cc6 fcd0d261\n" +
		"7501d8b3 617ecc47 8d0ace6a c735c83b\n"

	got := FormatDigest(digest)
	if got != want {
		t.Errorf("FormatDigest mismatch\ngot:  %q\nwant: %q", got, want)
	}
	if len(got) != 144 {
		t.Errorf("formatted digest length = %d, want 144", len(got))
	}
}

func TestDigestStringRoundTrip(t *testing.T) {
	var varied [digestSize]byte
	for i := range varied {
		varied[i] = byte(i * 7)
	}

	digests := [][digestSize]byte{{}, varied, BlankHash()}

	for _, d := range digests {
		formatted := FormatDigest(d)
		parsed, err := ParseDigest(formatted)
		if err != nil {
			t.Fatalf("ParseDigest: %v", err)
		}
		if parsed != d {
			t.Errorf("round trip mismatch: got %x, want %x", parsed, d)
		}
	}
}

func TestBlankHashIsDeterministic(t *testing.T) {
	a := BlankHash()
	b := BlankHash()
	if a != b {
		t.Errorf("BlankHash is not deterministic: %x != %x", a, b)
	}
}

func TestHashReaderMatchesHashWriter(t *testing.T) {
	data := []byte("the quick brown fox jumps over the lazy dog")

	var buf bytes.Buffer
	hw := NewHashWriter(&buf)
	if _, err := hw.Write(data); err != nil {
		t.Fatalf("HashWriter.Write: %v", err)
	}

	hr := NewHashReader(bytes.NewReader(buf.Bytes()))
	out := make([]byte, len(data))
	if _, err := hr.Read(out); err != nil {
		t.Fatalf("HashReader.Read: %v", err)
	}

	if hw.Sum() != hr.Sum() {
		t.Errorf("HashWriter and HashReader digests differ: %x != %x", hw.Sum(), hr.Sum())
	}
}

func TestHashToG2Stability(t *testing.T) {
	var a, b [digestSize]byte
	for i := range a {
		a[i] = byte(i)
		b[i] = byte(i)
	}
	// Differ only past the first 32 bytes: result must be identical.
	b[40] ^= 0xff

	pa, err := hashToG2(a[:])
	if err != nil {
		t.Fatalf("hashToG2: %v", err)
	}
	pb, err := hashToG2(b[:])
	if err != nil {
		t.Fatalf("hashToG2: %v", err)
	}
	if !pa.Equal(&pb) {
		t.Errorf("hashToG2 depends on bytes past the first 32")
	}

	// Differ within the first 32 bytes: result must (overwhelmingly) change.
	c := a
	c[0] ^= 0xff
	pc, err := hashToG2(c[:])
	if err != nil {
		t.Fatalf("hashToG2: %v", err)
	}
	if pa.Equal(&pc) {
		t.Errorf("hashToG2 did not change when the first 32 bytes changed")
	}
}
