package cryptox

import (
	"bufio"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"errors"
	"io"
)

const (
	// ChunkSize is the plaintext size of every chunk except possibly the last.
	ChunkSize = 1024
	// NonceSize is the GCM nonce length stored at the front of each chunk.
	NonceSize = 12
)

func newGCM(key Key) (cipher.AEAD, error) {
	block, err := aes.NewCipher(key[:])
	if err != nil {
		return nil, err
	}
	return cipher.NewGCM(block)
}

// EncryptFile reads src in ChunkSize pieces and writes every non-empty piece to
// dst as one section holding [nonce || ciphertext+tag]. Each chunk gets a fresh
// random nonce. When done, dst is flushed and, if it is an io.Seeker, rewound.
func EncryptFile(src io.Reader, dst io.Writer, key Key) error {
	aead, err := newGCM(key)
	if err != nil {
		return newError(KindIO, "encrypt", 0, err)
	}

	bw := bufio.NewWriter(dst)
	buf := make([]byte, ChunkSize)
	chunk := make([]byte, 0, NonceSize+ChunkSize+aead.Overhead())
	var nonce [NonceSize]byte

	for i := 1; ; i++ {
		n, readErr := io.ReadFull(src, buf)
		if readErr != nil && !errors.Is(readErr, io.EOF) && !errors.Is(readErr, io.ErrUnexpectedEOF) {
			return newError(KindIO, "encrypt", i, readErr)
		}
		if n == 0 {
			break
		}

		if _, err := rand.Read(nonce[:]); err != nil {
			return newError(KindIO, "encrypt", i, err)
		}
		chunk = append(chunk[:0], nonce[:]...)
		chunk = aead.Seal(chunk, nonce[:], buf[:n], nil)

		if err := WriteSection(bw, chunk); err != nil {
			return withChunk(err, "encrypt", i)
		}
		if readErr != nil {
			break
		}
	}

	return finish(bw, dst, "encrypt")
}

// DecryptFile reads sections from src until the stream ends and writes the
// plaintext of each chunk to dst. A chunk that fails authentication aborts the
// whole operation: neither it nor any later chunk reaches dst. On success dst is
// flushed and, if it is an io.Seeker, rewound.
func DecryptFile(src io.Reader, dst io.Writer, key Key) error {
	aead, err := newGCM(key)
	if err != nil {
		return newError(KindIO, "decrypt", 0, err)
	}

	bw := bufio.NewWriter(dst)
	var plain []byte

	for i := 1; ; i++ {
		chunk, err := ReadSection(src)
		if errors.Is(err, io.EOF) {
			break
		}
		if errors.Is(err, io.ErrUnexpectedEOF) {
			return newError(KindMalformed, "decrypt", i, err)
		}
		if err != nil {
			return withChunk(err, "decrypt", i)
		}

		if len(chunk) < NonceSize {
			return newError(KindMalformed, "decrypt", i, ErrMalformedChunk)
		}
		plain, err = aead.Open(plain[:0], chunk[:NonceSize], chunk[NonceSize:], nil)
		if err != nil {
			return newError(KindAuth, "decrypt", i, ErrAuthFailed)
		}

		if _, err := bw.Write(plain); err != nil {
			return newError(KindIO, "decrypt", i, err)
		}
	}

	return finish(bw, dst, "decrypt")
}

// TryDecryptFile authenticates every chunk of src with key and discards the
// plaintext. It fails exactly when DecryptFile would.
func TryDecryptFile(src io.Reader, key Key) error {
	return DecryptFile(src, io.Discard, key)
}

func finish(bw *bufio.Writer, dst io.Writer, op string) error {
	if err := bw.Flush(); err != nil {
		return newError(KindIO, op, 0, err)
	}
	if s, ok := dst.(io.Seeker); ok {
		if _, err := s.Seek(0, io.SeekStart); err != nil {
			return newError(KindIO, op, 0, err)
		}
	}
	return nil
}

func withChunk(err error, op string, chunk int) error {
	var ce *Error
	if errors.As(err, &ce) {
		return &Error{Kind: ce.Kind, Op: op, Chunk: chunk, Err: ce.Err}
	}
	return newError(KindIO, op, chunk, err)
}
