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

// Package cryptutil seals and opens the sealed-blob format used to store
// credential secrets at rest: MessagePack-encoded plaintext, authenticated
// with AES-256-GCM-SIV, laid out as ciphertext||nonce (nonce last, 12 bytes).
package cryptutil

import (
	"crypto/cipher"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"

	"github.com/secure-io/siv-go"
	"github.com/vmihailenco/msgpack/v5"
)

const nonceSize = 12

var (
	ErrCiphertextTooShort = errors.New("sealed blob shorter than nonce size")
	ErrKeySize            = errors.New("AES key must be 32 bytes")
)

// Sealer encrypts and decrypts sealed blobs under a single fixed 32-byte
// key, loaded once at startup from the AES_KEY environment variable.
type Sealer struct {
	aead cipher.AEAD
}

// NewSealer constructs a Sealer from a raw 32-byte AES-256 key.
func NewSealer(key []byte) (*Sealer, error) {
	if len(key) != 32 {
		return nil, fmt.Errorf("%w: got %d bytes", ErrKeySize, len(key))
	}

	aead, err := siv.NewGCM(key)
	if err != nil {
		return nil, err
	}

	return &Sealer{aead: aead}, nil
}

// NewSealerFromHex decodes a 64-hex-character string into a 32-byte key and
// builds a Sealer, matching the AES_KEY environment variable format.
func NewSealerFromHex(hexKey string) (*Sealer, error) {
	key, err := hex.DecodeString(hexKey)
	if err != nil {
		return nil, fmt.Errorf("decoding AES_KEY: %w", err)
	}

	return NewSealer(key)
}

// Seal MessagePack-encodes v and authenticates-encrypts it, returning
// ciphertext with the random 12-byte nonce appended at the end.
func (s *Sealer) Seal(v any) ([]byte, error) {
	plaintext, err := msgpack.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encoding sealed blob payload: %w", err)
	}

	nonce := make([]byte, nonceSize)
	if _, err := rand.Read(nonce); err != nil {
		return nil, fmt.Errorf("generating nonce: %w", err)
	}

	ciphertext := s.aead.Seal(nil, nonce, plaintext, nil)

	return append(ciphertext, nonce...), nil
}

// Open splits the trailing nonce off blob, authenticates and decrypts the
// remainder, and MessagePack-decodes it into out.
func (s *Sealer) Open(blob []byte, out any) error {
	if len(blob) < nonceSize {
		return ErrCiphertextTooShort
	}

	split := len(blob) - nonceSize
	ciphertext, nonce := blob[:split], blob[split:]

	plaintext, err := s.aead.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return fmt.Errorf("decrypting sealed blob: %w", err)
	}

	if err := msgpack.Unmarshal(plaintext, out); err != nil {
		return fmt.Errorf("decoding sealed blob payload: %w", err)
	}

	return nil
}

// SealPassword seals a plaintext password string for storage.
func (s *Sealer) SealPassword(password string) ([]byte, error) {
	return s.Seal(password)
}

// OpenPassword opens a sealed password blob back into its plaintext form.
func (s *Sealer) OpenPassword(blob []byte) (string, error) {
	var password string
	if err := s.Open(blob, &password); err != nil {
		return "", err
	}

	return password, nil
}
