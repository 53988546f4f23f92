// Copyright (C) 2025 Logical Mechanism LLC
// SPDX-License-Identifier: GPL-3.0-only

package tau

import (
	"bytes"
	"fmt"
	"io"

	"github.com/consensys/gnark-crypto/ecc/bn254"
	"github.com/gtank/blake2/blake2b"
)

// newHasher returns a fresh BLAKE2b-512 state, unkeyed and unsalted.
func newHasher() *blake2b.Digest {
	d, err := blake2b.NewDigest(nil, nil, nil, digestSize)
	if err != nil {
		// blake2b.NewDigest only errors on malformed key/salt/personalization
		// lengths, none of which are ever supplied here.
		panic(fmt.Sprintf("tau: blake2b.NewDigest: %v", err))
	}
	return d
}

// BlankHash returns the BLAKE2b-512 digest of the empty string: the
// transcript verifier's starting "prior response hash".
func BlankHash() [digestSize]byte {
	var out [digestSize]byte
	copy(out[:], newHasher().Sum(nil))
	return out
}

// HashReader wraps an inner reader and feeds every successfully read,
// nonempty chunk into a running BLAKE2b-512 digest. It is not safe for
// concurrent use.
type HashReader struct {
	inner io.Reader
	hash  *blake2b.Digest
}

// NewHashReader wraps r so that every byte read through it is folded into
// a running BLAKE2b-512 digest.
func NewHashReader(r io.Reader) *HashReader {
	return &HashReader{inner: r, hash: newHasher()}
}

func (h *HashReader) Read(p []byte) (int, error) {
	n, err := h.inner.Read(p)
	if n > 0 {
		h.hash.Write(p[:n])
	}
	return n, err
}

// Sum returns the running digest of every byte read so far, without
// consuming the reader.
func (h *HashReader) Sum() [digestSize]byte {
	var out [digestSize]byte
	copy(out[:], h.hash.Sum(nil))
	return out
}

// HashWriter wraps an inner writer and feeds every successfully written,
// nonempty chunk into a running BLAKE2b-512 digest. It is not safe for
// concurrent use.
type HashWriter struct {
	inner io.Writer
	hash  *blake2b.Digest
}

// NewHashWriter wraps w so that every byte written through it is folded
// into a running BLAKE2b-512 digest.
func NewHashWriter(w io.Writer) *HashWriter {
	return &HashWriter{inner: w, hash: newHasher()}
}

func (h *HashWriter) Write(p []byte) (int, error) {
	n, err := h.inner.Write(p)
	if n > 0 {
		h.hash.Write(p[:n])
	}
	return n, err
}

// Sum returns the running digest of every byte written so far, without
// closing the writer.
func (h *HashWriter) Sum() [digestSize]byte {
	var out [digestSize]byte
	copy(out[:], h.hash.Sum(nil))
	return out
}

// hashToG2DST is the domain-separation tag used for the Fiat-Shamir
// hash-into-G2 derivation. It has no ceremony-specific meaning; it exists
// only to keep this derivation's hash-to-curve calls distinguishable from
// any other caller of bn254.HashToG2 in the address space.
var hashToG2DST = []byte("tau-powersoftau-hash-to-g2-v1")

// hashToG2 consumes the first 32 bytes of digest and deterministically
// derives a G2 point from them. It depends only on digest[:32]: changing
// any later byte leaves the result unchanged, and changing any of the
// first 32 bytes changes the result with overwhelming probability.
func hashToG2(digest []byte) (bn254.G2Affine, error) {
	if len(digest) < 32 {
		return bn254.G2Affine{}, fmt.Errorf("tau: hash_to_g2: digest too short (%d bytes, need 32)", len(digest))
	}
	return bn254.HashToG2(digest[:32], hashToG2DST)
}

// FormatDigest renders a 64-byte BLAKE2b digest as four lines of four
// 8-hex-digit words, space separated, newline terminated: 144 bytes total.
func FormatDigest(digest [digestSize]byte) string {
	var buf bytes.Buffer
	for row := 0; row < 4; row++ {
		for col := 0; col < 4; col++ {
			if col > 0 {
				buf.WriteByte(' ')
			}
			word := digest[row*16+col*4 : row*16+col*4+4]
			fmt.Fprintf(&buf, "%02x%02x%02x%02x", word[0], word[1], word[2], word[3])
		}
		buf.WriteByte('\n')
	}
	return buf.String()
}

// ParseDigest reads a 64-byte digest from its formatted string form, using
// the same fixed-stride layout FormatDigest writes: each 8-hex-digit word
// occupies a known byte offset, followed by one separator byte (space or
// newline), matching the source's fixed-stride reader rather than a
// whitespace-splitting parser.
func ParseDigest(s string) ([digestSize]byte, error) {
	var out [digestSize]byte
	idx := 0
	for word := 0; word < 16; word++ {
		if idx+8 > len(s) {
			return out, newDecodingError("digest string too short")
		}
		var b [4]byte
		if _, err := fmt.Sscanf(s[idx:idx+8], "%02x%02x%02x%02x", &b[0], &b[1], &b[2], &b[3]); err != nil {
			return out, newDecodingError("digest string contains non-hex word: " + s[idx:idx+8])
		}
		copy(out[word*4:word*4+4], b[:])
		idx += 8 + 1 // skip the trailing separator (space or newline)
	}
	return out, nil
}
