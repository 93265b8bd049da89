// @license
// Copyright (C) 2025  Dinko Korunic
//
// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to deal
// in the Software without restriction, including without limitation the rights
// to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
// copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in all
// copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
// SOFTWARE.

package cryptutil

import (
	"bytes"
	"crypto/rand"
	"testing"
)

func testSealer(t *testing.T) *Sealer {
	t.Helper()

	key := make([]byte, 32)
	if _, err := rand.Read(key); err != nil {
		t.Fatalf("generating test key: %v", err)
	}

	s, err := NewSealer(key)
	if err != nil {
		t.Fatalf("NewSealer() error = %v", err)
	}

	return s
}

func TestSealOpenPasswordRoundTrip(t *testing.T) {
	t.Parallel()

	s := testSealer(t)

	blob, err := s.SealPassword("hunter2")
	if err != nil {
		t.Fatalf("SealPassword() error = %v", err)
	}

	got, err := s.OpenPassword(blob)
	if err != nil {
		t.Fatalf("OpenPassword() error = %v", err)
	}

	if got != "hunter2" {
		t.Errorf("OpenPassword() = %q, want %q", got, "hunter2")
	}
}

func TestOpenRejectsTamperedCiphertext(t *testing.T) {
	t.Parallel()

	s := testSealer(t)

	blob, err := s.SealPassword("hunter2")
	if err != nil {
		t.Fatalf("SealPassword() error = %v", err)
	}

	blob[0] ^= 0xFF

	if _, err := s.OpenPassword(blob); err == nil {
		t.Error("OpenPassword() on tampered blob: want error, got nil")
	}
}

func TestOpenRejectsShortBlob(t *testing.T) {
	t.Parallel()

	s := testSealer(t)

	if _, err := s.OpenPassword([]byte{1, 2, 3}); err == nil {
		t.Error("OpenPassword() on short blob: want error, got nil")
	}
}

func TestSealNonceVariesPerCall(t *testing.T) {
	t.Parallel()

	s := testSealer(t)

	a, err := s.SealPassword("same-input")
	if err != nil {
		t.Fatalf("SealPassword() error = %v", err)
	}

	b, err := s.SealPassword("same-input")
	if err != nil {
		t.Fatalf("SealPassword() error = %v", err)
	}

	if bytes.Equal(a, b) {
		t.Error("two seals of the same plaintext produced identical blobs")
	}
}

func TestNewSealerRejectsBadKeySize(t *testing.T) {
	t.Parallel()

	if _, err := NewSealer([]byte("too-short")); err == nil {
		t.Error("NewSealer() with short key: want error, got nil")
	}
}
