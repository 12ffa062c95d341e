// Package cryptox implements the cryptographic building blocks of a save file:
// password-to-key derivation, length-prefixed section framing, and chunked
// AES-256-GCM stream encryption.
package cryptox

import (
	"crypto/sha256"
	"time"

	"github.com/dmitrijs2005/ledgerkeeper/internal/shared"
	"golang.org/x/crypto/argon2"
)

// KeySize is the length of a derived key in bytes.
const KeySize = 32

// Argon2id cost parameters. They are global and fixed so that a password always
// reproduces the same key; changing any of them makes existing saves unreadable.
const (
	kdfTime    = 3
	kdfMemory  = 64 * 1024
	kdfThreads = 4
	kdfOutLen  = 64
)

// MinDeriveDuration is the lower bound on the wall-clock time of DeriveKey.
const MinDeriveDuration = 100 * time.Millisecond

var kdfSalt = []byte("ledgerkeeper/save-file/v1/static-salt")

// Key is a symmetric AES-256 key derived from a password.
type Key [KeySize]byte

// DeriveKey turns password into a Key. The password is first stretched with
// Argon2id and the digest is then hashed with SHA-256 to produce the key bytes.
// Equal passwords always yield equal keys. The call never returns in less than
// MinDeriveDuration.
func DeriveKey(password string) Key {
	start := time.Now()

	stretched := argon2.IDKey([]byte(password), kdfSalt, kdfTime, kdfMemory, kdfThreads, kdfOutLen)
	key := Key(sha256.Sum256(stretched))
	shared.WipeByteArray(stretched)

	if elapsed := time.Since(start); elapsed < MinDeriveDuration {
		time.Sleep(MinDeriveDuration - elapsed)
	}
	return key
}

// DeriveKeyAsync runs DeriveKey on its own goroutine so that callers can do
// I/O while the key is being computed. The channel receives exactly one value.
func DeriveKeyAsync(password string) <-chan Key {
	ch := make(chan Key, 1)
	go func() {
		ch <- DeriveKey(password)
	}()
	return ch
}

// Wipe zeroes the key in place.
func (k *Key) Wipe() {
	shared.WipeByteArray(k[:])
}
