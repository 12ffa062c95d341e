package cryptox

import (
	"bytes"
	"errors"
	"fmt"
	"io"
)

// SectionHeaderSize is the width of the big-endian length prefix of a section.
const SectionHeaderSize = 5

// MaxSectionSize is the largest payload a 5-byte prefix can describe.
const MaxSectionSize = 1<<40 - 1

// initial buffer for section payloads; the buffer grows as bytes actually arrive
// so a corrupt length prefix cannot force a huge allocation up front.
const sectionPrealloc = 64 * 1024

// EncodeSectionSize encodes n as a 5-byte big-endian unsigned integer.
// Only the low 40 bits of n are kept.
func EncodeSectionSize(n uint64) [SectionHeaderSize]byte {
	var b [SectionHeaderSize]byte
	for i := SectionHeaderSize - 1; i >= 0; i-- {
		b[i] = byte(n)
		n >>= 8
	}
	return b
}

// DecodeSectionSize is the inverse of EncodeSectionSize.
func DecodeSectionSize(b [SectionHeaderSize]byte) uint64 {
	var n uint64
	for _, c := range b {
		n = n<<8 | uint64(c)
	}
	return n
}

// WriteSection writes the length prefix of p followed by p.
func WriteSection(w io.Writer, p []byte) error {
	if uint64(len(p)) > MaxSectionSize {
		return newError(KindIO, "write section", 0, ErrSectionTooLong)
	}
	header := EncodeSectionSize(uint64(len(p)))
	if _, err := w.Write(header[:]); err != nil {
		return newError(KindIO, "write section", 0, err)
	}
	if _, err := w.Write(p); err != nil {
		return newError(KindIO, "write section", 0, err)
	}
	return nil
}

// ReadSection reads one section. It returns io.EOF (unwrapped) only when the
// stream ends cleanly before the first byte of the length prefix. A prefix or
// payload cut short yields an error wrapping io.ErrUnexpectedEOF.
func ReadSection(r io.Reader) ([]byte, error) {
	var header [SectionHeaderSize]byte
	n, err := io.ReadFull(r, header[:])
	if err != nil {
		if n == 0 && errors.Is(err, io.EOF) {
			return nil, io.EOF
		}
		return nil, newError(KindIO, "read section", 0, fmt.Errorf("length prefix: %w", err))
	}

	size := DecodeSectionSize(header)
	var buf bytes.Buffer
	buf.Grow(int(min(size, sectionPrealloc)))

	copied, err := io.CopyN(&buf, r, int64(size))
	if err != nil {
		if errors.Is(err, io.EOF) {
			err = io.ErrUnexpectedEOF
		}
		return nil, newError(KindIO, "read section", 0,
			fmt.Errorf("payload: got %d of %d bytes: %w", copied, size, err))
	}
	return buf.Bytes(), nil
}
